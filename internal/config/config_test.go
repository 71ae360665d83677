package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cart_config.txt")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write temp config: %v", err)
	}
	return path
}

const validConfig = `# cart_computer test config
MQTT_BROKER = tcp://localhost:1883
ENCODER_SOURCE = i2c
ENCODER_I2C_ADDR = 0x36
ENCODER_STEPS = 4096
WHEEL_CIRCUMFERENCE = 0.502
SAMPLE_INTERVAL = 10
PACKET_INTERVAL = 100
SMOOTHING_HALF_WIDTH = 4
`

func TestLoad_Valid(t *testing.T) {
	cfg, err := Load(writeConfig(t, validConfig))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.MQTTBroker != "tcp://localhost:1883" {
		t.Errorf("broker: got %q", cfg.MQTTBroker)
	}
	if cfg.EncoderI2CAddr != 0x36 {
		t.Errorf("encoder addr: got 0x%02X", cfg.EncoderI2CAddr)
	}
	if cfg.EncoderSteps != 4096 {
		t.Errorf("encoder steps: got %d", cfg.EncoderSteps)
	}
	if cfg.WheelCircumference != 0.502 {
		t.Errorf("wheel circumference: got %v", cfg.WheelCircumference)
	}
	if cfg.SampleInterval != 10 || cfg.PacketInterval != 100 {
		t.Errorf("intervals: got %d/%d", cfg.SampleInterval, cfg.PacketInterval)
	}
}

func TestLoad_UnknownKey(t *testing.T) {
	_, err := Load(writeConfig(t, validConfig+"BOGUS_KEY = 1\n"))
	if err == nil {
		t.Fatal("expected error for unknown key")
	}
}

func TestLoad_MissingRequired(t *testing.T) {
	_, err := Load(writeConfig(t, "MQTT_BROKER = tcp://localhost:1883\n"))
	if err == nil {
		t.Fatal("expected error for missing required keys")
	}
}

func TestLoad_SerialSourceNeedsPort(t *testing.T) {
	content := `MQTT_BROKER = tcp://localhost:1883
ENCODER_SOURCE = serial
ENCODER_STEPS = 4096
WHEEL_CIRCUMFERENCE = 0.502
SAMPLE_INTERVAL = 10
PACKET_INTERVAL = 100
`
	_, err := Load(writeConfig(t, content))
	if err == nil {
		t.Fatal("expected error when serial source has no port")
	}
}

func TestLoad_RejectsBadValues(t *testing.T) {
	cases := []string{
		"ENCODER_SOURCE = quantum\n",
		"ENCODER_STEPS = -1\n",
		"WHEEL_CIRCUMFERENCE = 0\n",
		"SAMPLE_INTERVAL = ten\n",
	}
	for _, extra := range cases {
		if _, err := Load(writeConfig(t, validConfig+extra)); err == nil {
			t.Errorf("expected error for %q", extra)
		}
	}
}
