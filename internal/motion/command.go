package motion

// Command ops accepted on the command topic.
const (
	OpToggle       = "toggle"
	OpSetSmoothing = "set_smoothing"
)

// Command is a control message from the web layer to the acquisition
// process.
type Command struct {
	Op    string `json:"op"`
	Value int    `json:"value,omitempty"`
}
