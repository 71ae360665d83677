// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package pipeline

// Incline mode: a self-arming run detector for measurements on a ramp,
// where the cart is released by hand and the run should start and stop
// without anyone touching the toggle. The monitor calibrates a noise
// floor from the speed signal while the cart is at rest, arms itself,
// and detects the run from threshold crossings. The active control
// path does not drive it; it is kept as an explicit state machine so
// reviving it is a wiring change, not a rewrite of the sampling loop.

// InclineState enumerates the monitor's states.
type InclineState int

const (
	InclineIdle InclineState = iota
	InclineCalibrating
	InclineArmed
	InclineRunning
	InclineStopPending
)

func (s InclineState) String() string {
	switch s {
	case InclineIdle:
		return "idle"
	case InclineCalibrating:
		return "calibrating"
	case InclineArmed:
		return "armed"
	case InclineRunning:
		return "running"
	case InclineStopPending:
		return "stop-pending"
	default:
		return "unknown"
	}
}

const (
	// Sample ticks of rest-noise observation before arming.
	calibrationTicks = 200
	// Arming threshold is this multiple of the observed noise floor.
	armFactor = 3.0
	// Minimum threshold, for encoders quiet enough to read zero noise.
	thresholdFloor = 0.02 // m/s
	// Consecutive below-threshold ticks before a pending stop commits.
	stopHoldTicks = 50
)

// InclineMonitor is the five-state detector. Drive it with one Tick
// per sample period, feeding it the mean absolute speed signal.
type InclineMonitor struct {
	state     InclineState
	noiseSum  float64
	tickCount int
	threshold float64
	holdCount int
}

// State returns the current state.
func (m *InclineMonitor) State() InclineState { return m.state }

// Threshold returns the auto-derived start/stop threshold, zero until
// calibration completes.
func (m *InclineMonitor) Threshold() float64 { return m.threshold }

// Arm begins noise calibration. Only valid from idle; anywhere else it
// is a no-op.
func (m *InclineMonitor) Arm() {
	if m.state != InclineIdle {
		return
	}
	m.state = InclineCalibrating
	m.noiseSum = 0
	m.tickCount = 0
}

// Disarm aborts and returns to idle from any state.
func (m *InclineMonitor) Disarm() {
	m.state = InclineIdle
	m.threshold = 0
}

// Tick advances the state machine one sample period. speedMean is the
// smoothed absolute speed from the integrator. It returns true on the
// tick a completed run is detected (the running→idle edge).
func (m *InclineMonitor) Tick(speedMean float64) bool {
	switch m.state {
	case InclineIdle:
		// nothing to do until armed

	case InclineCalibrating:
		m.noiseSum += speedMean
		m.tickCount++
		if m.tickCount >= calibrationTicks {
			noise := m.noiseSum / float64(m.tickCount)
			m.threshold = noise * armFactor
			if m.threshold < thresholdFloor {
				m.threshold = thresholdFloor
			}
			m.state = InclineArmed
		}

	case InclineArmed:
		if speedMean > m.threshold {
			m.state = InclineRunning
		}

	case InclineRunning:
		if speedMean < m.threshold {
			m.state = InclineStopPending
			m.holdCount = 0
		}

	case InclineStopPending:
		if speedMean >= m.threshold {
			// cart picked up speed again, the stop was noise
			m.state = InclineRunning
			break
		}
		m.holdCount++
		if m.holdCount >= stopHoldTicks {
			m.state = InclineIdle
			return true
		}
	}
	return false
}
