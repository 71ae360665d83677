// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"encoding/json"
	"log"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/relabs-tech/cart_computer/internal/config"
	"github.com/relabs-tech/cart_computer/internal/encoder"
	"github.com/relabs-tech/cart_computer/internal/motion"
	"github.com/relabs-tech/cart_computer/internal/pipeline"
)

// RunAcquisition is the producer process: it owns the encoder and the
// pipeline engine, drives the two fixed-rate ticks, publishes drained
// packet batches and status snapshots over MQTT, and accepts control
// commands on the command topic.
func RunAcquisition() error {
	log.Println("starting cart-computer acquisition producer")

	cfg := config.Get()

	// --- encoder source ---
	src, err := encoder.NewFromConfig(cfg)
	if err != nil {
		return err
	}
	reader := encoder.Failsoft(src)
	log.Printf("encoder source ready (%s, %d steps/rev, wheel %.3f m)",
		cfg.EncoderSource, cfg.EncoderSteps, cfg.WheelCircumference)

	// --- pipeline engine ---
	engine := pipeline.NewEngine(
		cfg.EncoderSteps,
		cfg.WheelCircumference,
		time.Duration(cfg.SampleInterval)*time.Millisecond,
		cfg.SmoothingHalfWidth,
	)

	// --- connect to MQTT ---
	opts := mqtt.NewClientOptions().
		AddBroker(cfg.MQTTBroker).
		SetClientID(cfg.MQTTClientIDAcquisition)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return token.Error()
	}
	defer client.Disconnect(250)
	log.Printf("connected to MQTT broker at %s", cfg.MQTTBroker)

	// Control commands arrive on paho's callback goroutine; the engine
	// mutex makes that safe against the tick loop.
	cmdToken := client.Subscribe(cfg.TopicCommand, 0, func(_ mqtt.Client, msg mqtt.Message) {
		var cmd motion.Command
		if err := json.Unmarshal(msg.Payload(), &cmd); err != nil {
			log.Printf("command unmarshal error: %v", err)
			return
		}
		switch cmd.Op {
		case motion.OpToggle:
			running := engine.ToggleRun(time.Now())
			log.Printf("run toggled, measuring=%v", running)
			publishStatus(client, cfg, engine)
		case motion.OpSetSmoothing:
			applied := engine.SetSmoothingHalfWidth(cmd.Value)
			log.Printf("smoothing half-width set to %d (requested %d)", applied, cmd.Value)
			publishStatus(client, cfg, engine)
		default:
			log.Printf("unknown command op %q", cmd.Op)
		}
	})
	cmdToken.Wait()
	if cmdToken.Error() != nil {
		return cmdToken.Error()
	}
	log.Printf("subscribed to command topic %s", cfg.TopicCommand)

	sampleTicker := time.NewTicker(time.Duration(cfg.SampleInterval) * time.Millisecond)
	defer sampleTicker.Stop()
	packetTicker := time.NewTicker(time.Duration(cfg.PacketInterval) * time.Millisecond)
	defer packetTicker.Stop()
	statusTicker := time.NewTicker(time.Second)
	defer statusTicker.Stop()

	log.Println("entering acquisition loop")

	for {
		select {
		case t := <-sampleTicker.C:
			code, err := reader.ReadAngle()
			if err != nil {
				// only possible before the first good read
				log.Printf("encoder read error: %v", err)
				continue
			}
			engine.SampleTick(t, code)

		case <-packetTicker.C:
			engine.PacketTick()

			// The drained backlog goes out as one batch message, so
			// bursts between polls coalesce instead of flooding the
			// topic with one message per sample.
			packets := engine.DrainPackets()
			if len(packets) == 0 {
				continue
			}
			payload, err := json.Marshal(packets)
			if err != nil {
				log.Printf("packet batch marshal error: %v", err)
				continue
			}
			if token := client.Publish(cfg.TopicPackets, 0, false, payload); token.Wait() && token.Error() != nil {
				log.Printf("MQTT publish error (packets): %v", token.Error())
			}

		case <-statusTicker.C:
			publishStatus(client, cfg, engine)
		}
	}
}

func publishStatus(client mqtt.Client, cfg *config.Config, engine *pipeline.Engine) {
	st := engine.Status()
	payload, err := json.Marshal(st)
	if err != nil {
		log.Printf("status marshal error: %v", err)
		return
	}
	if token := client.Publish(cfg.TopicStatus, 0, true, payload); token.Wait() && token.Error() != nil {
		log.Printf("MQTT publish error (status): %v", token.Error())
	}
}
