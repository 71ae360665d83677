package ring

import "github.com/relabs-tech/cart_computer/internal/motion"

// HistoryCapacity is the number of raw samples retained at full sample
// rate. At a 10 ms sample period this covers roughly 20 s of motion,
// far more than the widest smoothing window needs.
const HistoryCapacity = 2048

// SampleHistory is a fixed-capacity ring of raw samples. It has a head
// and a running count but no tail: it is never drained, only read by
// relative offset from the newest push. Slots older than
// min(count, capacity) pushes are invalid; callers must gate on Count
// before reading back that far.
type SampleHistory struct {
	buf   [HistoryCapacity]motion.RawSample
	head  int // index of the next slot to write
	count int // total pushes since the last reset
}

// Push appends a sample, overwriting the oldest slot once the ring
// has wrapped.
func (h *SampleHistory) Push(s motion.RawSample) {
	h.buf[h.head] = s
	h.head = (h.head + 1) % HistoryCapacity
	h.count++
}

// Back returns the sample i pushes ago; Back(0) is the most recent.
// The second return is false when fewer than i+1 samples are available.
func (h *SampleHistory) Back(i int) (motion.RawSample, bool) {
	if i < 0 || i >= h.count || i >= HistoryCapacity {
		return motion.RawSample{}, false
	}
	idx := (h.head - 1 - i + 2*HistoryCapacity) % HistoryCapacity
	return h.buf[idx], true
}

// Count reports total pushes since the last reset, which may exceed
// the capacity.
func (h *SampleHistory) Count() int { return h.count }

// Reset discards all history. Old slot contents are left in place;
// Back refuses to read them because count is zero.
func (h *SampleHistory) Reset() {
	h.head = 0
	h.count = 0
}
