package pipeline

import (
	"log"
	"math"
	"sync"
	"time"

	"github.com/relabs-tech/cart_computer/internal/motion"
	"github.com/relabs-tech/cart_computer/internal/ring"
)

const (
	// EMA coefficient for the mean absolute speed (threshold signal)
	speedMeanAlpha = 0.1
	// EMA coefficient for the UI display velocity
	displayAlpha = 0.2

	// Supported smoothing half-window range; out-of-range requests
	// are clamped, never rejected.
	minHalfWidth = 1
	maxHalfWidth = 30
)

// Engine owns the whole acquisition pipeline: encoder integration
// state, the sample history ring, the smoothing stage and the packet
// queue. One goroutine drives SampleTick and PacketTick; the polling
// side (Drain, Status, toggles) may run concurrently, so every entry
// point takes the mutex.
type Engine struct {
	mu sync.Mutex

	steps        int     // encoder codes per revolution
	distPerCode  float64 // meters of travel per encoder code
	samplePeriod float64 // seconds

	// Encoder state, advanced on every sample tick regardless of run
	// state so wraparound tracking does not drift while idle.
	lastCode uint16
	havePrev bool

	running   bool
	startTime time.Time

	position   float64
	speedMean  float64 // EMA of |instantaneous speed|
	displayVel float64 // exponentially smoothed display velocity

	halfWidth int

	// Zero-reference anchor, captured on the first packet of a run.
	haveAnchor bool
	t0, x0     float64

	history ring.SampleHistory
	queue   ring.PacketQueue
}

// NewEngine creates an idle engine for the given encoder resolution
// and wheel geometry.
func NewEngine(steps int, wheelCircumference float64, samplePeriod time.Duration, halfWidth int) *Engine {
	return &Engine{
		steps:        steps,
		distPerCode:  wheelCircumference / float64(steps),
		samplePeriod: samplePeriod.Seconds(),
		halfWidth:    clampHalfWidth(halfWidth),
	}
}

// wrapDelta returns the shortest signed rotation between two raw
// codes. Valid only while the wheel turns less than half a revolution
// per sample period; that is an operating constraint of the cart, not
// something detected here.
func wrapDelta(prev, cur uint16, steps int) int {
	d := int(cur) - int(prev)
	if d > steps/2 {
		d -= steps
	} else if d < -steps/2 {
		d += steps
	}
	return d
}

// SampleTick integrates one encoder reading taken at time now. While
// measuring it accumulates position and records a history sample;
// while idle only the encoder state and the moving averages advance.
func (e *Engine) SampleTick(now time.Time, code uint16) {
	e.mu.Lock()
	defer e.mu.Unlock()

	var delta int
	if e.havePrev {
		delta = wrapDelta(e.lastCode, code, e.steps)
	}
	e.lastCode = code
	e.havePrev = true

	displacement := float64(delta) * e.distPerCode
	speed := displacement / e.samplePeriod

	// Updated unconditionally so any thresholding logic always sees a
	// live signal, not one frozen at the last run's value.
	e.speedMean += speedMeanAlpha * (math.Abs(speed) - e.speedMean)
	e.displayVel += displayAlpha * (speed - e.displayVel)

	if !e.running {
		return
	}

	e.position += displacement
	e.history.Push(motion.RawSample{
		Time:     now.Sub(e.startTime).Seconds(),
		Position: e.position,
	})
}

// safeDiv divides, substituting zero when the denominator is exactly
// zero so degenerate timestamps can never produce NaN/Inf packets.
func safeDiv(num, den float64) float64 {
	if den == 0 {
		return 0
	}
	return num / den
}

// PacketTick runs the smoothing stage once. It emits at most one
// packet, and none at all until the history holds a full window.
func (e *Engine) PacketTick() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.running {
		return
	}

	// Read the half-width once per tick; a concurrent
	// SetSmoothingHalfWidth must not tear the window.
	n := e.halfWidth
	if e.history.Count() < 2*n+1 {
		return
	}

	l, _ := e.history.Back(2 * n)
	c, _ := e.history.Back(n)
	r, _ := e.history.Back(0)

	// Wide secant across the whole window, naturally low-pass.
	vel := safeDiv(r.Position-l.Position, r.Time-l.Time)

	// Second derivative from the two half-window secants evaluated at
	// their midpoint times.
	vLeft := safeDiv(c.Position-l.Position, c.Time-l.Time)
	vRight := safeDiv(r.Position-c.Position, r.Time-c.Time)
	tMidL := (l.Time + c.Time) / 2
	tMidR := (c.Time + r.Time) / 2
	acc := safeDiv(vRight-vLeft, tMidR-tMidL)

	if !e.haveAnchor {
		e.t0 = c.Time
		e.x0 = c.Position
		e.haveAnchor = true
	}

	p := motion.Packet{
		Time:         c.Time - e.t0,
		Position:     c.Position - e.x0,
		Velocity:     vel,
		Acceleration: acc,
	}
	if !e.queue.Push(p) {
		log.Printf("pipeline: packet queue full, dropped t=%.3f x=%.3f v=%.3f a=%.3f (%d dropped total)",
			p.Time, p.Position, p.Velocity, p.Acceleration, e.queue.Dropped())
	}
}

// ToggleRun flips Idle/Measuring and returns the new running state.
// Starting a run zeroes position and display velocity, clears both
// rings and the anchor, and records the run start time. Stopping only
// halts production; the queued backlog stays drainable.
func (e *Engine) ToggleRun(now time.Time) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.running {
		e.running = false
		return false
	}

	e.position = 0
	e.displayVel = 0
	e.history.Reset()
	e.queue.Reset()
	e.haveAnchor = false
	e.startTime = now
	e.running = true
	return true
}

// DrainPackets removes and returns the whole queued backlog in FIFO
// order. An empty queue yields nil; there are no partial reads.
func (e *Engine) DrainPackets() []motion.Packet {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.queue.Drain()
}

// SetSmoothingHalfWidth clamps n to the supported range and applies
// it. The change takes effect on the next packet tick. Returns the
// value actually applied.
func (e *Engine) SetSmoothingHalfWidth(n int) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.halfWidth = clampHalfWidth(n)
	return e.halfWidth
}

func clampHalfWidth(n int) int {
	if n < minHalfWidth {
		return minHalfWidth
	}
	if n > maxHalfWidth {
		return maxHalfWidth
	}
	return n
}

// Running reports whether a measurement is active.
func (e *Engine) Running() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.running
}

// Position returns the accumulated position of the current run.
func (e *Engine) Position() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.position
}

// Status returns a read-only snapshot for display and the web API.
func (e *Engine) Status() motion.Status {
	e.mu.Lock()
	defer e.mu.Unlock()

	return motion.Status{
		Running:            e.running,
		QueueDepth:         e.queue.Len(),
		DroppedPackets:     e.queue.Dropped(),
		SmoothingHalfWidth: e.halfWidth,
		SpeedMean:          e.speedMean,
		DisplayVelocity:    e.displayVel,
		NoiseThreshold:     e.speedMean * armFactor,
	}
}
