// Package carousel provides a headless display surface that rotates through
// a fixed list of views. It keeps the index bookkeeping and view visibility
// a switcher.Controller needs and leaves drawing to the views themselves.
package carousel

import (
	"errors"
	"time"

	"github.com/amp-labs/autoswitch/looper"
	"github.com/amp-labs/autoswitch/switcher"
)

// ErrNoViews is returned by New when no views are given.
var ErrNoViews = errors.New("carousel needs at least one view")

// Mode decides when a carousel runs out of items.
type Mode int

const (
	// Repeat wraps around after the last view. The sequence only ends if a
	// switch limit is set.
	Repeat Mode = iota
	// Once ends the sequence when stepping past the last view.
	Once
)

// Carousel is a switcher.Surface over a slice of views.
//
// Like the controller it is attached to, a Carousel is not safe for
// concurrent use; call it from the controller's scheduler.
type Carousel struct {
	views    []switcher.View
	index    int
	previous int
	switches int

	mode        Mode
	maxSwitches int

	clock         looper.Clock
	intervalStart time.Time

	ctl *switcher.Controller

	onChange func(current, previous int)
	onStop   func()
}

// Option configures a Carousel.
type Option func(*Carousel)

// WithMode sets the loop mode. The default is Repeat.
func WithMode(mode Mode) Option {
	return func(c *Carousel) {
		c.mode = mode
	}
}

// WithMaxSwitches ends the sequence after n switches. Zero means no limit.
func WithMaxSwitches(n int) Option {
	return func(c *Carousel) {
		c.maxSwitches = max(n, 0)
	}
}

// WithClock sets the clock used for Progress. The default is the real clock.
func WithClock(clock looper.Clock) Option {
	return func(c *Carousel) {
		if clock != nil {
			c.clock = clock
		}
	}
}

// OnChange registers a callback invoked whenever the current view changes,
// including the reset to the first view.
func OnChange(fn func(current, previous int)) Option {
	return func(c *Carousel) {
		c.onChange = fn
	}
}

// OnStop registers a callback invoked when the sequence ends on its own.
func OnStop(fn func()) Option {
	return func(c *Carousel) {
		c.onStop = fn
	}
}

// New creates a carousel showing the first of views.
func New(views []switcher.View, opts ...Option) (*Carousel, error) {
	if len(views) == 0 {
		return nil, ErrNoViews
	}

	c := &Carousel{
		views: append([]switcher.View(nil), views...),
		mode:  Repeat,
		clock: looper.RealClock{},
	}

	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

var _ switcher.Surface = (*Carousel)(nil)

// Attach binds ctl to the carousel and starts the sequence. A controller
// attached earlier is stopped first.
func (c *Carousel) Attach(ctl *switcher.Controller) {
	if c.ctl != nil {
		c.Detach()
	}

	c.ctl = ctl
	ctl.Bind(c)
	ctl.Initialize()
}

// Detach stops the attached controller and drops the reference to it.
func (c *Carousel) Detach() {
	if c.ctl == nil {
		return
	}

	ctl := c.ctl
	c.ctl = nil

	ctl.Stop()
	ctl.Unbind()
}

// Controller returns the attached controller, or nil.
func (c *Carousel) Controller() *switcher.Controller {
	return c.ctl
}

// Len returns the number of views.
func (c *Carousel) Len() int {
	return len(c.views)
}

// Index returns the position of the current view.
func (c *Carousel) Index() int {
	return c.index
}

// PreviousIndex returns the position of the previously current view.
func (c *Carousel) PreviousIndex() int {
	return c.previous
}

// Switches returns how many times the index has stepped since the last reset.
func (c *Carousel) Switches() int {
	return c.switches
}

// View returns the view at position i.
func (c *Carousel) View(i int) switcher.View { //nolint:ireturn
	return c.views[i]
}

// Progress returns the elapsed fraction, in [0, 1], of the interval the
// attached controller is currently waiting on.
func (c *Carousel) Progress() float64 {
	if c.ctl == nil || c.intervalStart.IsZero() {
		return 0
	}

	interval := c.ctl.Interval()
	if interval <= 0 {
		return 1
	}

	elapsed := c.clock.Now().Sub(c.intervalStart)

	return min(max(float64(elapsed)/float64(interval), 0), 1)
}

// ResetIndex shows the first view and hides the rest.
func (c *Carousel) ResetIndex() {
	c.index = 0
	c.previous = 0
	c.switches = 0

	for i, v := range c.views {
		v.SetVisible(i == 0)
	}

	c.notifyChange()
}

// StepOver moves to the next view, wrapping around.
func (c *Carousel) StepOver() {
	c.previous = c.index
	c.index = (c.index + 1) % len(c.views)
	c.switches++
}

// NeedStop reports whether the last step went past the final allowed switch.
func (c *Carousel) NeedStop() bool {
	if c.mode == Once && c.switches >= len(c.views) {
		return true
	}

	return c.maxSwitches > 0 && c.switches > c.maxSwitches
}

// CurrentView returns the view at the current index.
func (c *Carousel) CurrentView() switcher.View { //nolint:ireturn
	return c.views[c.index]
}

// PreviousView returns the view that was current before the last step.
func (c *Carousel) PreviousView() switcher.View { //nolint:ireturn
	return c.views[c.previous]
}

// UpdateCurrentView hides every view other than the current and previous
// ones and reports the change.
func (c *Carousel) UpdateCurrentView() {
	for i, v := range c.views {
		if i != c.index && i != c.previous {
			v.SetVisible(false)
		}
	}

	c.notifyChange()
}

// ShowIntervalState restarts the progress clock.
func (c *Carousel) ShowIntervalState() {
	c.intervalStart = c.clock.Now()
}

// StopSwitcher handles the end of the sequence.
func (c *Carousel) StopSwitcher() {
	if c.ctl != nil {
		c.ctl.Stop()
	}

	if c.onStop != nil {
		c.onStop()
	}
}

func (c *Carousel) notifyChange() {
	if c.onChange != nil {
		c.onChange(c.index, c.previous)
	}
}
