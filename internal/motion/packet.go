package motion

// Packet is one smoothed output sample, suitable for JSON and MQTT.
// Time and Position are relative to the first packet of the run;
// Velocity and Acceleration are absolute.
type Packet struct {
	Time         float64 `json:"t"` // seconds
	Position     float64 `json:"x"` // meters
	Velocity     float64 `json:"v"` // m/s
	Acceleration float64 `json:"a"` // m/s²
}
