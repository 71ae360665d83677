package motion

// Status is a read-only snapshot of the acquisition engine for display
// and the web API.
type Status struct {
	Running            bool  `json:"running"`
	QueueDepth         int   `json:"queue_depth"`
	DroppedPackets     int64 `json:"dropped_packets"`
	SmoothingHalfWidth int   `json:"smoothing_half_width"`

	// EMA of absolute instantaneous speed, m/s
	SpeedMean float64 `json:"speed_mean"`
	// exponentially smoothed velocity for the UI, m/s
	DisplayVelocity float64 `json:"display_velocity"`
	// arming threshold derived from the speed signal, m/s
	NoiseThreshold float64 `json:"noise_threshold"`
}
