package app

import (
	"bufio"
	"encoding/json"
	"log"
	"strings"
	"time"

	nmea "github.com/adrianmo/go-nmea"
	mqtt "github.com/eclipse/paho.mqtt.golang"
	serial "github.com/jacobsa/go-serial/serial"

	"github.com/relabs-tech/cart_computer/internal/config"
)

// knots to m/s
const knotsToMS = 0.514444

// SpeedReference is one ground-truth speed reading from the bench GPS.
type SpeedReference struct {
	Speed    float64 `json:"speed_ms"` // m/s
	Course   float64 `json:"course_deg"`
	Validity string  `json:"validity"`
	Time     string  `json:"time"`
}

// RunSpeedReference reads a handheld GPS on a serial port, parses RMC
// sentences, and publishes ground speed so encoder-derived velocity
// can be sanity checked on a rolling road. The reference never feeds
// the pipeline; it is bench instrumentation only.
func RunSpeedReference() error {
	cfg := config.Get()

	// ---- 1) Connect to MQTT broker ----
	opts := mqtt.NewClientOptions().
		AddBroker(cfg.MQTTBroker).
		SetClientID(cfg.MQTTClientIDSpeedRef)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return token.Error()
	}
	log.Printf("speed_ref: connected to MQTT broker at %s", cfg.MQTTBroker)

	// ---- 2) Open GPS serial port ----
	serialOpts := serial.OpenOptions{
		PortName:        cfg.SpeedRefSerialPort,
		BaudRate:        uint(cfg.SpeedRefBaudRate),
		DataBits:        8,
		StopBits:        1,
		MinimumReadSize: 1,
		ParityMode:      serial.PARITY_NONE,
	}

	port, err := serial.Open(serialOpts)
	if err != nil {
		return err
	}
	defer port.Close()
	log.Printf("speed_ref: serial port opened on %s at %d baud",
		serialOpts.PortName, serialOpts.BaudRate)

	reader := bufio.NewReader(port)

	for {
		line, err := reader.ReadString('\n')
		if err != nil {
			log.Printf("speed_ref: read error: %v", err)
			return err
		}

		line = strings.TrimSpace(line)
		if line == "" || !strings.HasPrefix(line, "$") {
			continue
		}

		sentence, err := nmea.Parse(line)
		if err != nil {
			// noisy GPS or partial sentences
			continue
		}

		if sentence.DataType() != nmea.TypeRMC {
			continue
		}
		m := sentence.(nmea.RMC)

		ref := SpeedReference{
			Speed:    m.Speed * knotsToMS,
			Course:   m.Course,
			Validity: string(m.Validity),
			Time:     time.Now().Format(time.RFC3339),
		}

		payload, err := json.Marshal(ref)
		if err != nil {
			log.Printf("speed_ref: JSON marshal error: %v", err)
			continue
		}

		token := client.Publish(cfg.TopicSpeedRef, 0, true, payload)
		token.Wait()
		if token.Error() != nil {
			log.Printf("speed_ref: publish error: %v", token.Error())
			continue
		}

		log.Printf("speed_ref: published %.2f m/s (validity %s)", ref.Speed, ref.Validity)
	}
}
