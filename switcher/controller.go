package switcher

import (
	"reflect"
	"slices"
	"time"

	"github.com/amp-labs/autoswitch/looper"
	"github.com/google/uuid"
)

// Controller drives one transition sequence on a Surface.
//
// Callers must Bind a surface before Initialize, and must call every method
// from the controller's scheduler. Calling AdvanceNow or ScheduleAdvance on an
// unbound controller is a programming error and panics.
type Controller struct {
	id   string
	name string

	state    State
	stopping bool
	interval time.Duration

	// timer is the only pending delayed advance. It is canceled before being
	// replaced and on every Stop.
	timer       looper.Handle
	cancelables []Cancelable

	// surface is borrowed; the controller never manages its lifetime.
	surface Surface

	initStep StepOperator
	nextStep StepOperator
	stopStep StepOperator

	scheduler Scheduler
	observer  Observer
}

// ID returns the controller's unique identifier.
func (c *Controller) ID() string {
	return c.id
}

// Name returns the label given with WithName, or an empty string.
func (c *Controller) Name() string {
	return c.name
}

// State returns the current lifecycle state.
func (c *Controller) State() State {
	return c.state
}

// Stopped reports whether the sequence has finished stopping. A stop-step
// that is still running observes false.
func (c *Controller) Stopped() bool {
	return c.state == Stopped
}

// Interval returns the delay passed to the most recent ScheduleAdvance.
func (c *Controller) Interval() time.Duration {
	return c.interval
}

// HasPendingAdvance reports whether a delayed advance is waiting to fire.
func (c *Controller) HasPendingAdvance() bool {
	return c.timer.Pending()
}

// PendingAdvanceDue returns when the pending advance fires, or the zero time.
func (c *Controller) PendingAdvanceDue() time.Time {
	if !c.timer.Pending() {
		return time.Time{}
	}

	return c.timer.Due()
}

// Surface returns the bound surface, or nil.
func (c *Controller) Surface() Surface {
	return c.surface
}

// Scheduler returns the context the controller runs on.
func (c *Controller) Scheduler() Scheduler { //nolint:ireturn
	return c.scheduler
}

// Bind attaches the owning surface. It must be called before Initialize.
func (c *Controller) Bind(surface Surface) {
	c.surface = surface
}

// Unbind drops the surface reference, typically after Stop when the surface
// is torn down.
func (c *Controller) Unbind() {
	c.surface = nil
}

// Initialize starts the sequence: it clears the stopped state, resets the
// surface index, shows the interval state and runs the init-step.
//
// It does not cancel an advance left pending by a previous run; call Stop
// before initializing again.
func (c *Controller) Initialize() {
	c.state = Running
	c.stopping = false

	c.surface.ResetIndex()
	c.surface.ShowIntervalState()

	c.observer.Initialized(c)

	if c.initStep != nil {
		c.initStep.Operate(c.surface, c)
	}
}

// AdvanceNow shows the next item.
//
// The surface index is stepped exactly once per call, even when the call ends
// the sequence or the controller has already stopped.
func (c *Controller) AdvanceNow() {
	c.surface.StepOver()

	if c.state == Stopped || c.stopping {
		return
	}

	if c.surface.NeedStop() {
		c.observer.SelfTerminated(c)
		c.surface.StopSwitcher()
		c.Stop()

		return
	}

	if v := c.surface.CurrentView(); v != nil {
		v.SetVisible(true)
	}

	if v := c.surface.PreviousView(); v != nil {
		v.SetVisible(true)
	}

	c.surface.UpdateCurrentView()

	c.observer.Advanced(c)

	if c.nextStep != nil {
		c.nextStep.Operate(c.surface, c)
	}
}

// ScheduleAdvance arranges for AdvanceNow to run once delay has elapsed.
// Any advance already pending is canceled first, so at most one is ever
// outstanding. It is a no-op once the controller is stopping or stopped.
func (c *Controller) ScheduleAdvance(delay time.Duration) {
	if c.state == Stopped || c.stopping {
		return
	}

	if delay < 0 {
		delay = 0
	}

	c.interval = delay
	c.surface.ShowIntervalState()

	c.timer.Cancel()
	c.timer = c.scheduler.PostDelayed(delay, c.AdvanceNow)

	c.observer.Scheduled(c, delay)
}

// Stop ends the sequence. It is idempotent: the pending advance is canceled
// on every call, but the stop-step runs and the registered cancelables are
// canceled only on the first call. The stopped state is set last, so the
// stop-step still sees Stopped() == false.
func (c *Controller) Stop() {
	c.cancelTimer()

	if c.state == Stopped || c.stopping {
		return
	}

	c.stopping = true

	defer func() {
		canceled := c.cancelAll()

		c.stopping = false
		c.state = Stopped

		c.observer.Stopped(c, canceled)
	}()

	if c.stopStep != nil {
		c.stopStep.Operate(c.surface, c)
	}
}

// RegisterCancelable hands the controller the right to cancel handles when
// the sequence stops. Nil handles are ignored. Handles registered after the
// controller has stopped are canceled immediately.
func (c *Controller) RegisterCancelable(handles ...Cancelable) {
	for _, h := range handles {
		if isNil(h) {
			continue
		}

		if c.state == Stopped {
			h.Cancel()

			continue
		}

		c.cancelables = append(c.cancelables, h)
	}
}

// Release stops tracking handles, for operators that finished or replaced a
// resource themselves. Releasing hands cancellation back to the caller: a
// released handle is not canceled on Stop. Handles are matched by identity;
// function handles cannot be released.
func (c *Controller) Release(handles ...Cancelable) {
	c.cancelables = slices.DeleteFunc(c.cancelables, func(have Cancelable) bool {
		return slices.ContainsFunc(handles, func(h Cancelable) bool {
			return sameHandle(h, have)
		})
	})
}

// Cancelables returns a copy of the registered handles.
func (c *Controller) Cancelables() []Cancelable {
	return slices.Clone(c.cancelables)
}

func (c *Controller) cancelTimer() {
	c.timer.Cancel()
	c.timer = looper.Handle{}
}

func (c *Controller) cancelAll() int {
	handles := c.cancelables
	c.cancelables = nil

	for _, h := range handles {
		h.Cancel()
	}

	return len(handles)
}

// sameHandle compares handles by identity, treating handles of uncomparable
// dynamic types (such as CancelFunc) as distinct.
func sameHandle(a, b Cancelable) bool {
	ta, tb := reflect.TypeOf(a), reflect.TypeOf(b)
	if ta == nil || ta != tb || !ta.Comparable() {
		return false
	}

	return a == b
}

func newID() string {
	return uuid.NewString()
}
