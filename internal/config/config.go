package config

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
)

// Config holds all application configuration values.
type Config struct {
	// MQTT
	MQTTBroker              string
	MQTTClientIDAcquisition string
	MQTTClientIDWeb         string
	MQTTClientIDConsole     string
	MQTTClientIDDisplay     string
	MQTTClientIDSpeedRef    string

	// Topics
	TopicPackets  string
	TopicStatus   string
	TopicCommand  string
	TopicSpeedRef string

	// Encoder hardware
	EncoderSource     string // "i2c", "serial" or "mock"
	EncoderI2CBus     string
	EncoderI2CAddr    uint16
	EncoderSerialPort string
	EncoderBaudRate   int
	// Encoder resolution in codes per revolution (12-bit sensors: 4096)
	EncoderSteps int

	// Cart geometry
	WheelCircumference float64 // meters per wheel revolution

	// Timing
	SampleInterval int // milliseconds, encoder read + integration
	PacketInterval int // milliseconds, smoothed output production

	// Smoothing
	SmoothingHalfWidth int // samples on each side of the window center

	// Web Server
	WebServerPort int
	WebStaticDir  string

	// Display
	DisplayUpdateInterval int // milliseconds

	// Speed reference (bench validation GPS)
	SpeedRefSerialPort string
	SpeedRefBaudRate   int
}

// Package-level unexported variables for singleton pattern:
//   - globalConfig: unexported so other packages cannot modify it directly.
//   - configOnce: ensures InitGlobal() only runs once, even if called multiple times.
//   - configMu: RWMutex; write lock for initialization, read lock for Get().
//
// External code must use InitGlobal() to set and Get() to read.
var (
	globalConfig *Config
	configOnce   sync.Once
	configMu     sync.RWMutex
)

// Load reads the configuration file and returns a Config struct.
func Load(configPath string) (*Config, error) {
	file, err := os.Open(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer file.Close()

	cfg := &Config{}
	scanner := bufio.NewScanner(file)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())

		// Skip empty lines and comments
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		// Parse KEY=VALUE
		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("invalid config line %d: %q", lineNum, line)
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])

		if err := cfg.setValue(key, value); err != nil {
			return nil, fmt.Errorf("config line %d: %w", lineNum, err)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	// Validate required fields
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// setValue sets a config value based on the key.
func (c *Config) setValue(key, value string) error {
	switch key {
	// MQTT
	case "MQTT_BROKER":
		c.MQTTBroker = value
	case "MQTT_CLIENT_ID_ACQUISITION":
		c.MQTTClientIDAcquisition = value
	case "MQTT_CLIENT_ID_WEB":
		c.MQTTClientIDWeb = value
	case "MQTT_CLIENT_ID_CONSOLE":
		c.MQTTClientIDConsole = value
	case "MQTT_CLIENT_ID_DISPLAY":
		c.MQTTClientIDDisplay = value
	case "MQTT_CLIENT_ID_SPEED_REF":
		c.MQTTClientIDSpeedRef = value

	// Topics
	case "TOPIC_PACKETS":
		c.TopicPackets = value
	case "TOPIC_STATUS":
		c.TopicStatus = value
	case "TOPIC_COMMAND":
		c.TopicCommand = value
	case "TOPIC_SPEED_REF":
		c.TopicSpeedRef = value

	// Encoder hardware
	case "ENCODER_SOURCE":
		if value != "i2c" && value != "serial" && value != "mock" {
			return fmt.Errorf("ENCODER_SOURCE must be i2c, serial or mock, got %q", value)
		}
		c.EncoderSource = value
	case "ENCODER_I2C_BUS":
		c.EncoderI2CBus = value
	case "ENCODER_I2C_ADDR":
		addr, err := strconv.ParseUint(value, 0, 16)
		if err != nil {
			return fmt.Errorf("invalid ENCODER_I2C_ADDR %q: %w", value, err)
		}
		c.EncoderI2CAddr = uint16(addr)
	case "ENCODER_SERIAL_PORT":
		c.EncoderSerialPort = value
	case "ENCODER_BAUD_RATE":
		rate, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid ENCODER_BAUD_RATE %q: %w", value, err)
		}
		c.EncoderBaudRate = rate
	case "ENCODER_STEPS":
		steps, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid ENCODER_STEPS %q: %w", value, err)
		}
		if steps <= 0 {
			return fmt.Errorf("ENCODER_STEPS must be positive, got %d", steps)
		}
		c.EncoderSteps = steps

	// Cart geometry
	case "WHEEL_CIRCUMFERENCE":
		circ, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("invalid WHEEL_CIRCUMFERENCE %q: %w", value, err)
		}
		if circ <= 0 {
			return fmt.Errorf("WHEEL_CIRCUMFERENCE must be positive, got %v", circ)
		}
		c.WheelCircumference = circ

	// Timing
	case "SAMPLE_INTERVAL":
		interval, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid SAMPLE_INTERVAL %q: %w", value, err)
		}
		c.SampleInterval = interval
	case "PACKET_INTERVAL":
		interval, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid PACKET_INTERVAL %q: %w", value, err)
		}
		c.PacketInterval = interval

	// Smoothing
	case "SMOOTHING_HALF_WIDTH":
		width, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid SMOOTHING_HALF_WIDTH %q: %w", value, err)
		}
		c.SmoothingHalfWidth = width

	// Web Server
	case "WEB_SERVER_PORT":
		port, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid WEB_SERVER_PORT %q: %w", value, err)
		}
		c.WebServerPort = port
	case "WEB_STATIC_DIR":
		c.WebStaticDir = value

	// Display
	case "DISPLAY_UPDATE_INTERVAL":
		interval, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid DISPLAY_UPDATE_INTERVAL %q: %w", value, err)
		}
		c.DisplayUpdateInterval = interval

	// Speed reference
	case "SPEED_REF_SERIAL_PORT":
		c.SpeedRefSerialPort = value
	case "SPEED_REF_BAUD_RATE":
		rate, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid SPEED_REF_BAUD_RATE %q: %w", value, err)
		}
		c.SpeedRefBaudRate = rate

	default:
		return fmt.Errorf("unknown config key: %q", key)
	}

	return nil
}

// validate checks that all required fields are set.
func (c *Config) validate() error {
	if c.MQTTBroker == "" {
		return fmt.Errorf("MQTT_BROKER is required")
	}
	if c.EncoderSource == "" {
		return fmt.Errorf("ENCODER_SOURCE is required")
	}
	if c.EncoderSteps == 0 {
		return fmt.Errorf("ENCODER_STEPS is required")
	}
	if c.WheelCircumference == 0 {
		return fmt.Errorf("WHEEL_CIRCUMFERENCE is required")
	}
	if c.SampleInterval == 0 {
		return fmt.Errorf("SAMPLE_INTERVAL is required")
	}
	if c.PacketInterval == 0 {
		return fmt.Errorf("PACKET_INTERVAL is required")
	}
	if c.EncoderSource == "i2c" && c.EncoderI2CAddr == 0 {
		return fmt.Errorf("ENCODER_I2C_ADDR is required for i2c encoder source")
	}
	if c.EncoderSource == "serial" && c.EncoderSerialPort == "" {
		return fmt.Errorf("ENCODER_SERIAL_PORT is required for serial encoder source")
	}
	return nil
}

// InitGlobal initializes the global configuration from file.
// Uses sync.Once so repeated calls are harmless.
func InitGlobal(configPath string) error {
	var err error
	configOnce.Do(func() {
		configMu.Lock()
		defer configMu.Unlock()
		globalConfig, err = Load(configPath)
	})
	return err
}

// Get returns the global configuration instance.
// InitGlobal must be called first, or this will return nil.
func Get() *Config {
	configMu.RLock()
	defer configMu.RUnlock()
	return globalConfig
}
