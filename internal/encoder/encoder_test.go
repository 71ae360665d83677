package encoder

import (
	"errors"
	"testing"
)

// scriptedReader replays a fixed sequence of readings and errors.
type scriptedReader struct {
	codes []uint16
	errs  []bool
	pos   int
}

func (s *scriptedReader) ReadAngle() (uint16, error) {
	i := s.pos
	s.pos++
	if s.errs[i] {
		return 0, errors.New("bus glitch")
	}
	return s.codes[i], nil
}

func TestFailsoft_ReusesLastGoodCode(t *testing.T) {
	inner := &scriptedReader{
		codes: []uint16{100, 200, 0, 300},
		errs:  []bool{false, false, true, false},
	}
	r := Failsoft(inner)

	want := []uint16{100, 200, 200, 300}
	for i, w := range want {
		code, err := r.ReadAngle()
		if err != nil {
			t.Fatalf("read %d: unexpected error: %v", i, err)
		}
		if code != w {
			t.Errorf("read %d: expected %d, got %d", i, w, code)
		}
	}
}

func TestFailsoft_ErrorBeforeFirstGoodRead(t *testing.T) {
	inner := &scriptedReader{
		codes: []uint16{0, 50},
		errs:  []bool{true, false},
	}
	r := Failsoft(inner)

	// No history yet: zero is all it can report, but never an error.
	code, err := r.ReadAngle()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if code != 0 {
		t.Errorf("expected 0 before any good read, got %d", code)
	}

	code, _ = r.ReadAngle()
	if code != 50 {
		t.Errorf("expected 50, got %d", code)
	}
}

func TestMock_StaysInRange(t *testing.T) {
	m := NewMock(4096)
	for i := 0; i < 100; i++ {
		code, err := m.ReadAngle()
		if err != nil {
			t.Fatalf("mock read: %v", err)
		}
		if code >= 4096 {
			t.Fatalf("mock code out of range: %d", code)
		}
	}
}
