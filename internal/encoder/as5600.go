// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package encoder

import (
	"fmt"
	"sync"

	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/host/v3"
)

// AS5600 RAW ANGLE register, 12 bits big-endian across two bytes.
const regRawAngle = 0x0C

var (
	hostOnce sync.Once
	hostErr  error
)

// initHost initializes the periph host once for all I2C users.
func initHost() error {
	hostOnce.Do(func() {
		_, hostErr = host.Init()
	})
	return hostErr
}

type as5600 struct {
	dev i2c.Dev
}

// NewAS5600 opens the magnetic shaft encoder on the given I2C bus.
// An empty bus name selects the first available bus.
func NewAS5600(busName string, addr uint16) (Reader, error) {
	if err := initHost(); err != nil {
		return nil, fmt.Errorf("encoder: periph host init: %w", err)
	}

	bus, err := i2creg.Open(busName)
	if err != nil {
		return nil, fmt.Errorf("encoder: I2C bus open (%q): %w", busName, err)
	}

	return &as5600{dev: i2c.Dev{Bus: bus, Addr: addr}}, nil
}

func (a *as5600) ReadAngle() (uint16, error) {
	var buf [2]byte
	if err := a.dev.Tx([]byte{regRawAngle}, buf[:]); err != nil {
		return 0, fmt.Errorf("encoder: raw angle read: %w", err)
	}
	return (uint16(buf[0])<<8 | uint16(buf[1])) & 0x0FFF, nil
}
