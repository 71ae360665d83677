package motion

// RawSample is a single (time, position) pair captured at the full sample
// rate. Samples are immutable once pushed into the history ring.
type RawSample struct {
	Time     float64 `json:"t"` // seconds since run start
	Position float64 `json:"x"` // meters
}
