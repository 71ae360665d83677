package app

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/relabs-tech/cart_computer/internal/config"
	"github.com/relabs-tech/cart_computer/internal/motion"
)

// RunConsole subscribes to the acquisition topics and prints packets
// and status lines to stdout, for bench work without the dashboard.
func RunConsole() error {
	cfg := config.Get()

	opts := mqtt.NewClientOptions().
		AddBroker(cfg.MQTTBroker).
		SetClientID(cfg.MQTTClientIDConsole)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return token.Error()
	}
	log.Printf("console: connected to MQTT broker at %s", cfg.MQTTBroker)

	pktToken := client.Subscribe(cfg.TopicPackets, 0, func(_ mqtt.Client, msg mqtt.Message) {
		var batch []motion.Packet
		if err := json.Unmarshal(msg.Payload(), &batch); err != nil {
			log.Printf("console: packet batch unmarshal error: %v", err)
			return
		}
		for _, p := range batch {
			fmt.Printf(
				"[PKT] t=%7.3f  x=%8.4f  v=%7.4f  a=%8.4f\n",
				p.Time, p.Position, p.Velocity, p.Acceleration,
			)
		}
	})
	pktToken.Wait()
	if pktToken.Error() != nil {
		return pktToken.Error()
	}
	log.Printf("console: subscribed to %s", cfg.TopicPackets)

	stToken := client.Subscribe(cfg.TopicStatus, 0, func(_ mqtt.Client, msg mqtt.Message) {
		var st motion.Status
		if err := json.Unmarshal(msg.Payload(), &st); err != nil {
			log.Printf("console: status unmarshal error: %v", err)
			return
		}
		fmt.Printf(
			"[STA] running=%5v  queue=%3d  dropped=%d  halfwidth=%d  vmean=%.4f\n",
			st.Running, st.QueueDepth, st.DroppedPackets, st.SmoothingHalfWidth, st.SpeedMean,
		)
	})
	stToken.Wait()
	if stToken.Error() != nil {
		return stToken.Error()
	}
	log.Printf("console: subscribed to %s", cfg.TopicStatus)

	// Block until interrupted
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	client.Disconnect(250)
	return nil
}
