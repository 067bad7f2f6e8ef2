package bot

// PauseSwitch carries pause toggles from side inputs to the loop. Senders
// never block; the loop drains it at the top of every iteration.
type PauseSwitch struct {
	toggles chan string
}

// NewPauseSwitch creates a switch that buffers up to 16 pending toggles
func NewPauseSwitch() *PauseSwitch {
	return &PauseSwitch{toggles: make(chan string, 16)}
}

// Toggle requests a pause flip. source names the input for logging.
// Toggles beyond the buffer are dropped.
func (p *PauseSwitch) Toggle(source string) bool {
	select {
	case p.toggles <- source:
		return true
	default:
		return false
	}
}

// Toggles is the receive side polled by the loop
func (p *PauseSwitch) Toggles() <-chan string {
	return p.toggles
}
