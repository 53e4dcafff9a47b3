// Package strategy provides ready-made switcher builders.
//
// Every strategy is a *switcher.Builder with its init, next and stop slots
// filled in, so callers can still override a slot before building:
//
//	b, err := strategy.Fade(3*time.Second, 400*time.Millisecond)
//	ctl := b.WithStop(myStop).Build(switcher.WithScheduler(l))
package strategy

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/amp-labs/autoswitch/animation"
	"github.com/amp-labs/autoswitch/switcher"
)

// ErrInvalidDuration is returned when an interval or animation duration is negative.
var ErrInvalidDuration = errors.New("invalid duration")

// Translator is implemented by views that can be shifted horizontally. The
// offset is expressed in view widths: 0 is centered, 1 is one width right.
type Translator interface {
	SetTranslation(offset float64)
}

// Fader is implemented by views with an opacity.
type Fader interface {
	SetAlpha(alpha float64)
}

// PageTransformer applies a transition to a view at position: 0 means fully
// shown, 1 means the view is about to enter, -1 means it has left.
type PageTransformer func(view switcher.View, position float64)

// TranslateTransformer slides views by their position.
func TranslateTransformer(view switcher.View, position float64) {
	if t, ok := view.(Translator); ok {
		t.SetTranslation(position)
	}
}

// FadeTransformer cross-fades views by their distance from the center.
func FadeTransformer(view switcher.View, position float64) {
	if f, ok := view.(Fader); ok {
		f.SetAlpha(1 - math.Min(math.Abs(position), 1))
	}
}

type settings struct {
	curve animation.Curve
}

// Option tunes an animated strategy.
type Option func(*settings)

// WithCurve sets the easing curve of the transition. The default is EaseInOut.
func WithCurve(curve animation.Curve) Option {
	return func(s *settings) {
		if curve != nil {
			s.curve = curve
		}
	}
}

func validate(name string, durations ...time.Duration) error {
	for _, d := range durations {
		if d < 0 {
			return fmt.Errorf("%w: %s got %s", ErrInvalidDuration, name, d)
		}
	}

	return nil
}

// Interval switches views without animation, pausing interval between
// switches. It is the default strategy.
func Interval(interval time.Duration) (*switcher.Builder, error) {
	if err := validate("interval", interval); err != nil {
		return nil, err
	}

	schedule := switcher.StepFunc(func(_ switcher.Surface, ctl *switcher.Controller) {
		ctl.ScheduleAdvance(interval)
	})

	next := switcher.StepFunc(func(surface switcher.Surface, ctl *switcher.Controller) {
		hidePrevious(surface)
		ctl.ScheduleAdvance(interval)
	})

	return switcher.NewBuilder().WithInit(schedule).WithNext(next), nil
}

// Carousel slides the next view in from the right while the previous one
// leaves to the left.
func Carousel(interval, duration time.Duration, opts ...Option) (*switcher.Builder, error) {
	return Transform(interval, duration, TranslateTransformer, opts...)
}

// Fade cross-fades between views.
func Fade(interval, duration time.Duration, opts ...Option) (*switcher.Builder, error) {
	return Transform(interval, duration, FadeTransformer, opts...)
}

// Transform animates every switch over duration with a custom transformer,
// then waits interval before the next switch. The running animator is
// registered with the controller, finished when the sequence stops, and
// finished early if a new switch starts before it ends.
func Transform(
	interval, duration time.Duration,
	transformer PageTransformer,
	opts ...Option,
) (*switcher.Builder, error) {
	if err := validate("transform", interval, duration); err != nil {
		return nil, err
	}

	if transformer == nil {
		transformer = TranslateTransformer
	}

	cfg := settings{curve: animation.EaseInOut}
	for _, opt := range opts {
		opt(&cfg)
	}

	initStep := switcher.StepFunc(func(surface switcher.Surface, ctl *switcher.Controller) {
		transformer(surface.CurrentView(), 0)
		ctl.ScheduleAdvance(interval)
	})

	next := switcher.StepFunc(func(surface switcher.Surface, ctl *switcher.Controller) {
		finishRunning(ctl)

		current, previous := surface.CurrentView(), surface.PreviousView()
		if current == previous {
			ctl.ScheduleAdvance(interval)

			return
		}

		anim := animation.New(ctl.Scheduler(), duration)
		anim.Curve = cfg.curve

		anim.OnUpdate(func(p float64) {
			transformer(current, 1-p)
			transformer(previous, -p)
		})

		anim.OnEnd(func(canceled bool) {
			if canceled || !tracked(ctl, anim) {
				return
			}

			ctl.Release(anim)
			previous.SetVisible(false)
			ctl.ScheduleAdvance(interval)
		})

		transformer(current, 1)
		transformer(previous, 0)

		ctl.RegisterCancelable(anim)
		anim.Forward()
	})

	stop := switcher.StepFunc(func(_ switcher.Surface, ctl *switcher.Controller) {
		for _, anim := range animators(ctl) {
			anim.Finish()
		}
	})

	return switcher.NewBuilder().WithInit(initStep).WithNext(next).WithStop(stop), nil
}

func hidePrevious(surface switcher.Surface) {
	if current, previous := surface.CurrentView(), surface.PreviousView(); previous != nil && previous != current {
		previous.SetVisible(false)
	}
}

// finishRunning completes animators from an earlier switch without letting
// them schedule another advance.
func finishRunning(ctl *switcher.Controller) {
	for _, anim := range animators(ctl) {
		ctl.Release(anim)
		anim.Finish()
	}
}

func animators(ctl *switcher.Controller) []*animation.Animator {
	var out []*animation.Animator

	for _, h := range ctl.Cancelables() {
		if anim, ok := h.(*animation.Animator); ok {
			out = append(out, anim)
		}
	}

	return out
}

func tracked(ctl *switcher.Controller, anim *animation.Animator) bool {
	for _, h := range ctl.Cancelables() {
		if h == switcher.Cancelable(anim) {
			return true
		}
	}

	return false
}

// ErrUnknownStrategy is returned by ByName for an unrecognised name.
var ErrUnknownStrategy = errors.New("unknown strategy")

// Names lists the strategies ByName understands.
func Names() []string {
	return []string{"interval", "carousel", "fade", "transform"}
}

// ByName resolves a strategy by name. "transform" combines sliding and
// fading.
func ByName(name string, interval, duration time.Duration, opts ...Option) (*switcher.Builder, error) {
	switch name {
	case "", "interval":
		return Interval(interval)
	case "carousel":
		return Carousel(interval, duration, opts...)
	case "fade":
		return Fade(interval, duration, opts...)
	case "transform":
		return Transform(interval, duration, func(view switcher.View, position float64) {
			TranslateTransformer(view, position)
			FadeTransformer(view, position)
		}, opts...)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownStrategy, name)
	}
}
