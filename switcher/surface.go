package switcher

import (
	"time"

	"github.com/amp-labs/autoswitch/looper"
)

// View is a child of the display surface whose visibility the controller toggles.
type View interface {
	SetVisible(visible bool)
}

// Surface is the display surface a Controller drives. It owns the child views
// and the index bookkeeping; the controller only calls these hooks.
type Surface interface {
	// ResetIndex moves back to the first item.
	ResetIndex()
	// StepOver advances the internal position by one.
	StepOver()
	// NeedStop reports whether the sequence should end.
	NeedStop() bool
	// CurrentView returns the view at the current position.
	CurrentView() View
	// PreviousView returns the view that was current before the last StepOver.
	PreviousView() View
	// UpdateCurrentView refreshes which child is logically current.
	UpdateCurrentView()
	// ShowIntervalState hints that a timed interval is in progress.
	ShowIntervalState()
	// StopSwitcher is the surface teardown hook invoked when the sequence
	// terminates itself.
	StopSwitcher()
}

// Scheduler queues delayed work on the single context a Controller runs on.
// *looper.Looper implements it.
type Scheduler interface {
	PostDelayed(delay time.Duration, fn func()) looper.Handle
	Clock() looper.Clock
}

var _ Scheduler = (*looper.Looper)(nil)
