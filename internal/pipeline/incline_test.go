package pipeline

import "testing"

// calibrate runs the monitor through its calibration phase at the
// given rest noise level and returns it armed.
func calibrate(t *testing.T, noise float64) *InclineMonitor {
	t.Helper()
	m := &InclineMonitor{}
	m.Arm()
	for i := 0; i < calibrationTicks; i++ {
		if m.Tick(noise) {
			t.Fatal("run detected during calibration")
		}
	}
	if m.State() != InclineArmed {
		t.Fatalf("expected armed after calibration, got %v", m.State())
	}
	return m
}

func TestInclineMonitor_IdleIgnoresSpeed(t *testing.T) {
	m := &InclineMonitor{}
	for i := 0; i < 100; i++ {
		if m.Tick(10) {
			t.Fatal("unarmed monitor must never detect a run")
		}
	}
	if m.State() != InclineIdle {
		t.Errorf("expected idle, got %v", m.State())
	}
}

func TestInclineMonitor_ThresholdFromNoise(t *testing.T) {
	m := calibrate(t, 0.05)
	want := 0.05 * armFactor
	if got := m.Threshold(); got < want-1e-9 || got > want+1e-9 {
		t.Errorf("threshold: expected %v, got %v", want, got)
	}

	// A silent encoder still gets a usable minimum threshold.
	quiet := calibrate(t, 0)
	if quiet.Threshold() != thresholdFloor {
		t.Errorf("quiet threshold: expected floor %v, got %v", thresholdFloor, quiet.Threshold())
	}
}

func TestInclineMonitor_FullRunCycle(t *testing.T) {
	m := calibrate(t, 0.05)

	// Below threshold: stays armed.
	m.Tick(0.1)
	if m.State() != InclineArmed {
		t.Fatalf("expected armed, got %v", m.State())
	}

	// Cart released.
	m.Tick(1.0)
	if m.State() != InclineRunning {
		t.Fatalf("expected running, got %v", m.State())
	}

	// Cart slows to a stop; stop commits only after the hold period.
	m.Tick(0.01)
	if m.State() != InclineStopPending {
		t.Fatalf("expected stop-pending, got %v", m.State())
	}
	done := false
	for i := 0; i < stopHoldTicks; i++ {
		done = m.Tick(0.01)
	}
	if !done {
		t.Error("expected run-complete edge after the hold period")
	}
	if m.State() != InclineIdle {
		t.Errorf("expected idle after run, got %v", m.State())
	}
}

func TestInclineMonitor_StopPendingRecovers(t *testing.T) {
	m := calibrate(t, 0.05)
	m.Tick(1.0)
	m.Tick(0.01) // dip below threshold
	if m.State() != InclineStopPending {
		t.Fatalf("expected stop-pending, got %v", m.State())
	}

	// Speed returns before the hold expires: the dip was noise.
	m.Tick(1.0)
	if m.State() != InclineRunning {
		t.Errorf("expected running after recovery, got %v", m.State())
	}
}

func TestInclineMonitor_Disarm(t *testing.T) {
	m := calibrate(t, 0.05)
	m.Disarm()
	if m.State() != InclineIdle || m.Threshold() != 0 {
		t.Errorf("expected idle with cleared threshold, got %v / %v", m.State(), m.Threshold())
	}

	// Arm is a no-op outside idle.
	m.Arm()
	m.Tick(0)
	m.Arm() // already calibrating; must not restart
	if m.State() != InclineCalibrating {
		t.Errorf("expected calibrating, got %v", m.State())
	}
}
