package ring

import (
	"testing"

	"github.com/relabs-tech/cart_computer/internal/motion"
)

func TestSampleHistory_BackOrdering(t *testing.T) {
	var h SampleHistory

	for i := 0; i < 5; i++ {
		h.Push(motion.RawSample{Time: float64(i), Position: float64(i * 10)})
	}

	s, ok := h.Back(0)
	if !ok || s.Time != 4 {
		t.Errorf("Back(0): expected newest t=4, got t=%v ok=%v", s.Time, ok)
	}
	s, ok = h.Back(4)
	if !ok || s.Time != 0 {
		t.Errorf("Back(4): expected oldest t=0, got t=%v ok=%v", s.Time, ok)
	}
}

func TestSampleHistory_GateBeforeEnoughSamples(t *testing.T) {
	var h SampleHistory

	h.Push(motion.RawSample{Time: 1})
	if _, ok := h.Back(1); ok {
		t.Error("Back(1) with a single sample should report no data")
	}
	if _, ok := h.Back(-1); ok {
		t.Error("negative offset should report no data")
	}
}

func TestSampleHistory_WrapOverwritesOldest(t *testing.T) {
	var h SampleHistory

	for i := 0; i < HistoryCapacity+10; i++ {
		h.Push(motion.RawSample{Time: float64(i)})
	}

	s, ok := h.Back(0)
	if !ok || s.Time != float64(HistoryCapacity+9) {
		t.Errorf("newest after wrap: got t=%v ok=%v", s.Time, ok)
	}
	s, ok = h.Back(HistoryCapacity - 1)
	if !ok || s.Time != 10 {
		t.Errorf("oldest valid after wrap: expected t=10, got t=%v ok=%v", s.Time, ok)
	}
	if _, ok := h.Back(HistoryCapacity); ok {
		t.Error("Back(capacity) should be out of range")
	}
}

func TestSampleHistory_Reset(t *testing.T) {
	var h SampleHistory

	h.Push(motion.RawSample{Time: 1})
	h.Reset()
	if h.Count() != 0 {
		t.Errorf("count after reset: got %d", h.Count())
	}
	if _, ok := h.Back(0); ok {
		t.Error("Back(0) after reset should report no data")
	}
}

func TestPacketQueue_FIFOAndDrain(t *testing.T) {
	var q PacketQueue

	for i := 0; i < 3; i++ {
		if !q.Push(motion.Packet{Time: float64(i)}) {
			t.Fatalf("push %d rejected on non-full queue", i)
		}
	}
	if q.Len() != 3 {
		t.Errorf("expected len 3, got %d", q.Len())
	}

	got := q.Drain()
	if len(got) != 3 {
		t.Fatalf("drain: expected 3 packets, got %d", len(got))
	}
	for i, p := range got {
		if p.Time != float64(i) {
			t.Errorf("drain[%d]: expected t=%d, got %v", i, i, p.Time)
		}
	}

	if q.Drain() != nil {
		t.Error("second drain should yield nothing")
	}
	if q.Len() != 0 {
		t.Errorf("expected empty queue after drain, got len %d", q.Len())
	}
}

func TestPacketQueue_BoundedDrop(t *testing.T) {
	var q PacketQueue

	// 300 pushes into a 256-slot ring: one slot is reserved, so 255
	// packets survive and 45 individual drops are reported.
	dropped := 0
	for i := 0; i < 300; i++ {
		if !q.Push(motion.Packet{Time: float64(i)}) {
			dropped++
		}
	}

	if dropped != 45 {
		t.Errorf("expected 45 rejected pushes, got %d", dropped)
	}
	if q.Dropped() != 45 {
		t.Errorf("expected drop counter 45, got %d", q.Dropped())
	}

	got := q.Drain()
	if len(got) != QueueCapacity-1 {
		t.Fatalf("expected %d retrievable packets, got %d", QueueCapacity-1, len(got))
	}
	// The oldest packets survive; the newest are the ones dropped.
	if got[0].Time != 0 || got[len(got)-1].Time != 254 {
		t.Errorf("expected packets 0..254, got %v..%v", got[0].Time, got[len(got)-1].Time)
	}
}

func TestPacketQueue_Reset(t *testing.T) {
	var q PacketQueue

	for i := 0; i < 300; i++ {
		q.Push(motion.Packet{})
	}
	q.Reset()
	if q.Len() != 0 || q.Dropped() != 0 {
		t.Errorf("after reset: len=%d dropped=%d", q.Len(), q.Dropped())
	}
}
