package ring

import "github.com/relabs-tech/cart_computer/internal/motion"

// QueueCapacity sizes the packet queue. One slot is reserved to tell
// full from empty, so at most QueueCapacity-1 packets are held. At a
// 100 ms packet period this absorbs ~25 s of backlog between polls.
const QueueCapacity = 256

// PacketQueue is a bounded FIFO between the packetizer and the polling
// consumer. Push never blocks: on overflow the new packet is discarded
// and reported, the producer carries on.
type PacketQueue struct {
	buf     [QueueCapacity]motion.Packet
	head    int // next slot to write
	tail    int // next slot to read; head == tail means empty
	dropped int64
}

// Push enqueues p. It returns false when the queue is full, in which
// case p is dropped and the drop counter advances.
func (q *PacketQueue) Push(p motion.Packet) bool {
	next := (q.head + 1) % QueueCapacity
	if next == q.tail {
		q.dropped++
		return false
	}
	q.buf[q.head] = p
	q.head = next
	return true
}

// Drain removes and returns every queued packet in FIFO order. An
// empty queue yields a nil slice. The walk is O(queued packets).
func (q *PacketQueue) Drain() []motion.Packet {
	if q.head == q.tail {
		return nil
	}
	n := (q.head - q.tail + QueueCapacity) % QueueCapacity
	out := make([]motion.Packet, 0, n)
	for q.tail != q.head {
		out = append(out, q.buf[q.tail])
		q.tail = (q.tail + 1) % QueueCapacity
	}
	return out
}

// Len returns the current occupancy.
func (q *PacketQueue) Len() int {
	return (q.head - q.tail + QueueCapacity) % QueueCapacity
}

// Dropped returns the number of packets discarded on overflow since
// the last reset.
func (q *PacketQueue) Dropped() int64 { return q.dropped }

// Reset empties the queue and clears the drop counter.
func (q *PacketQueue) Reset() {
	q.head = 0
	q.tail = 0
	q.dropped = 0
}
