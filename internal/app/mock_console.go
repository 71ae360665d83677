// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"fmt"
	"time"

	"github.com/relabs-tech/cart_computer/internal/config"
	"github.com/relabs-tech/cart_computer/internal/encoder"
	"github.com/relabs-tech/cart_computer/internal/pipeline"
)

// RunMockConsole runs the whole pipeline against the mock encoder and
// prints packets directly, with no broker and no hardware. The run is
// toggled on immediately.
func RunMockConsole() error {
	cfg := config.Get()

	src := encoder.Failsoft(encoder.NewMock(cfg.EncoderSteps))
	engine := pipeline.NewEngine(
		cfg.EncoderSteps,
		cfg.WheelCircumference,
		time.Duration(cfg.SampleInterval)*time.Millisecond,
		cfg.SmoothingHalfWidth,
	)
	engine.ToggleRun(time.Now())

	sampleTicker := time.NewTicker(time.Duration(cfg.SampleInterval) * time.Millisecond)
	defer sampleTicker.Stop()
	packetTicker := time.NewTicker(time.Duration(cfg.PacketInterval) * time.Millisecond)
	defer packetTicker.Stop()

	for {
		select {
		case t := <-sampleTicker.C:
			code, err := src.ReadAngle()
			if err != nil {
				return err
			}
			engine.SampleTick(t, code)

		case <-packetTicker.C:
			engine.PacketTick()
			for _, p := range engine.DrainPackets() {
				fmt.Printf(
					"t=%7.3f  x=%8.4f  v=%7.4f  a=%8.4f\n",
					p.Time, p.Position, p.Velocity, p.Acceleration,
				)
			}
		}
	}
}
