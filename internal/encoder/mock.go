// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package encoder

import (
	"math"
	"time"
)

type mockReader struct {
	start time.Time
	steps int
}

// NewMock creates a mock encoder that simulates a cart rolling at a
// gently varying speed, for development without hardware.
func NewMock(steps int) Reader {
	return &mockReader{start: time.Now(), steps: steps}
}

func (m *mockReader) ReadAngle() (uint16, error) {
	elapsed := time.Since(m.start).Seconds()

	// ~1.2 revolutions per second with a slow speed wobble
	turns := 1.2*elapsed + 0.3*math.Sin(elapsed*0.5)
	code := int(turns*float64(m.steps)) % m.steps
	if code < 0 {
		code += m.steps
	}
	return uint16(code), nil
}
