// Package animation provides a frame-driven value animator that runs on a
// looper.
//
// An Animator moves a value from its current position to a target over a
// Duration, re-posting itself on the looper once per frame and notifying
// update listeners with the eased value. It implements Cancel so it can be
// registered with a switcher.Controller and torn down when the sequence
// stops:
//
//	anim := animation.New(ctl.Scheduler(), 300*time.Millisecond)
//	anim.OnUpdate(func(v float64) { view.SetAlpha(v) })
//	anim.Forward()
//	ctl.RegisterCancelable(anim)
package animation

import (
	"fmt"
	"time"

	"github.com/amp-labs/autoswitch/looper"
	"go.uber.org/atomic"
)

// DefaultFrameInterval is roughly one frame at 60Hz.
const DefaultFrameInterval = 16 * time.Millisecond

// Status is the state of an Animator.
//
//	                Forward()
//	Dismissed ──────────────────► Completed
//	    ▲                              │
//	    │         Reverse()            │
//	    └──────────────────────────────┘
//
// While animating, status is Forwarding or Reversing.
type Status int

const (
	// Dismissed means the animator is at rest at the lower bound.
	Dismissed Status = iota
	// Forwarding means the animator is moving toward a higher value.
	Forwarding
	// Reversing means the animator is moving toward a lower value.
	Reversing
	// Completed means the animator is at rest at the upper bound.
	Completed
	// Canceled means the animator was canceled part way.
	Canceled
)

func (s Status) String() string {
	switch s {
	case Dismissed:
		return "dismissed"
	case Forwarding:
		return "forwarding"
	case Reversing:
		return "reversing"
	case Completed:
		return "completed"
	case Canceled:
		return "canceled"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}

// FrameScheduler posts frames. *looper.Looper implements it.
type FrameScheduler interface {
	PostDelayed(delay time.Duration, fn func()) looper.Handle
	Clock() looper.Clock
}

// Animator drives a value between LowerBound and UpperBound.
//
// All methods must be called from the scheduler's goroutine.
type Animator struct {
	// Duration is the length of a full animation.
	Duration time.Duration

	// Curve eases linear progress. Nil means Linear.
	Curve Curve

	// FrameInterval is the delay between frames.
	FrameInterval time.Duration

	// LowerBound is the minimum value (default 0).
	LowerBound float64

	// UpperBound is the maximum value (default 1).
	UpperBound float64

	scheduler FrameScheduler
	value     float64
	from      float64
	target    float64
	start     time.Time
	status    Status
	frame     looper.Handle
	frames    atomic.Int64

	onUpdate []func(value float64)
	onEnd    []func(canceled bool)
}

// New creates an animator at the lower bound.
func New(scheduler FrameScheduler, duration time.Duration) *Animator {
	return &Animator{
		Duration:      duration,
		Curve:         Linear,
		FrameInterval: DefaultFrameInterval,
		LowerBound:    0,
		UpperBound:    1,
		scheduler:     scheduler,
		status:        Dismissed,
	}
}

// OnUpdate registers a listener called with the value on every frame.
func (a *Animator) OnUpdate(fn func(value float64)) {
	if fn != nil {
		a.onUpdate = append(a.onUpdate, fn)
	}
}

// OnEnd registers a listener called once per run when the animator reaches
// its target (canceled == false) or is canceled (canceled == true).
func (a *Animator) OnEnd(fn func(canceled bool)) {
	if fn != nil {
		a.onEnd = append(a.onEnd, fn)
	}
}

// Value returns the current value.
func (a *Animator) Value() float64 {
	return a.value
}

// SetValue jumps to v without animating, stopping any running animation
// silently.
func (a *Animator) SetValue(v float64) {
	a.frame.Cancel()
	a.value = v
	a.status = a.restingStatus()
	a.notifyUpdate()
}

// Status returns the current status.
func (a *Animator) Status() Status {
	return a.status
}

// IsAnimating reports whether frames are still being produced.
func (a *Animator) IsAnimating() bool {
	return a.status == Forwarding || a.status == Reversing
}

// Frames returns how many frames have been produced since creation.
func (a *Animator) Frames() int64 {
	return a.frames.Load()
}

// Forward animates to the upper bound.
func (a *Animator) Forward() {
	a.animateTo(a.UpperBound, Forwarding)
}

// Reverse animates to the lower bound.
func (a *Animator) Reverse() {
	a.animateTo(a.LowerBound, Reversing)
}

// AnimateTo animates to target.
func (a *Animator) AnimateTo(target float64) {
	if target >= a.value {
		a.animateTo(target, Forwarding)
	} else {
		a.animateTo(target, Reversing)
	}
}

// Finish jumps to the target of the running animation and ends it as if it
// had completed. It is a no-op when not animating.
func (a *Animator) Finish() {
	if !a.IsAnimating() {
		return
	}

	a.frame.Cancel()
	a.value = a.target
	a.notifyUpdate()
	a.end(false)
}

// Cancel stops the running animation at its current value and notifies end
// listeners with canceled == true. It is a no-op when not animating, so it
// is safe to call repeatedly.
func (a *Animator) Cancel() {
	if !a.IsAnimating() {
		return
	}

	a.frame.Cancel()
	a.frame = looper.Handle{}
	a.status = Canceled

	a.notifyEnd(true)
}

func (a *Animator) animateTo(target float64, direction Status) {
	a.frame.Cancel()

	a.from = a.value
	a.target = target
	a.start = a.scheduler.Clock().Now()
	a.status = direction

	if a.Duration <= 0 {
		a.value = target
		a.notifyUpdate()
		a.end(false)

		return
	}

	a.scheduleFrame()
}

func (a *Animator) scheduleFrame() {
	interval := a.FrameInterval
	if interval <= 0 {
		interval = DefaultFrameInterval
	}

	a.frame = a.scheduler.PostDelayed(interval, a.tick)
}

func (a *Animator) tick() {
	if !a.IsAnimating() {
		return
	}

	a.frames.Inc()

	elapsed := a.scheduler.Clock().Now().Sub(a.start)

	progress := min(float64(elapsed)/float64(a.Duration), 1)

	eased := progress
	if a.Curve != nil {
		eased = a.Curve(progress)
	}

	a.value = a.from + (a.target-a.from)*eased
	a.notifyUpdate()

	if progress >= 1 {
		a.value = a.target
		a.end(false)

		return
	}

	a.scheduleFrame()
}

func (a *Animator) end(canceled bool) {
	a.frame = looper.Handle{}
	a.status = a.restingStatus()

	a.notifyEnd(canceled)
}

func (a *Animator) restingStatus() Status {
	switch {
	case a.value <= a.LowerBound:
		return Dismissed
	case a.value >= a.UpperBound:
		return Completed
	case a.target >= a.from:
		return Completed
	default:
		return Dismissed
	}
}

func (a *Animator) notifyUpdate() {
	for _, fn := range a.onUpdate {
		fn(a.value)
	}
}

func (a *Animator) notifyEnd(canceled bool) {
	for _, fn := range a.onEnd {
		fn(canceled)
	}
}
