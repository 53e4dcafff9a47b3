package switcher

import "fmt"

// State is the lifecycle state of a Controller.
type State int

const (
	// Ready means the controller was built but not initialized.
	Ready State = iota
	// Running means the controller was initialized and has not stopped.
	Running
	// Stopped is terminal until the controller is initialized again.
	Stopped
)

func (s State) String() string {
	switch s {
	case Ready:
		return "ready"
	case Running:
		return "running"
	case Stopped:
		return "stopped"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}
