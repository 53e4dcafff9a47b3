package switcher

import (
	"context"
	"log/slog"
	"time"
)

// Observer receives controller lifecycle events. Methods are called on the
// controller's scheduler and must not block.
type Observer interface {
	Initialized(ctl *Controller)
	Advanced(ctl *Controller)
	Scheduled(ctl *Controller, delay time.Duration)
	SelfTerminated(ctl *Controller)
	Stopped(ctl *Controller, canceled int)
}

type nopObserver struct{}

func (nopObserver) Initialized(*Controller)              {}
func (nopObserver) Advanced(*Controller)                 {}
func (nopObserver) Scheduled(*Controller, time.Duration) {}
func (nopObserver) SelfTerminated(*Controller)           {}
func (nopObserver) Stopped(*Controller, int)             {}

type multiObserver []Observer

// Observers fans every event out to each observer in order.
func Observers(obs ...Observer) Observer { //nolint:ireturn
	out := make(multiObserver, 0, len(obs))

	for _, o := range obs {
		if o != nil {
			out = append(out, o)
		}
	}

	return out
}

func (m multiObserver) Initialized(ctl *Controller) {
	for _, o := range m {
		o.Initialized(ctl)
	}
}

func (m multiObserver) Advanced(ctl *Controller) {
	for _, o := range m {
		o.Advanced(ctl)
	}
}

func (m multiObserver) Scheduled(ctl *Controller, delay time.Duration) {
	for _, o := range m {
		o.Scheduled(ctl, delay)
	}
}

func (m multiObserver) SelfTerminated(ctl *Controller) {
	for _, o := range m {
		o.SelfTerminated(ctl)
	}
}

func (m multiObserver) Stopped(ctl *Controller, canceled int) {
	for _, o := range m {
		o.Stopped(ctl, canceled)
	}
}

// SlogObserver logs lifecycle events with slog.
type SlogObserver struct {
	logger *slog.Logger
	level  slog.Level
}

// SlogOption configures a SlogObserver.
type SlogOption func(*SlogObserver)

// WithStepLevel sets the level advances and schedules are logged at.
func WithStepLevel(level slog.Level) SlogOption {
	return func(o *SlogObserver) {
		o.level = level
	}
}

// NewSlogObserver creates an observer that logs to logger, or to the default
// logger when nil. Advances and schedules are logged at debug level unless
// WithStepLevel says otherwise; starts and stops at info.
func NewSlogObserver(logger *slog.Logger, opts ...SlogOption) *SlogObserver {
	if logger == nil {
		logger = slog.Default()
	}

	o := &SlogObserver{
		logger: logger,
		level:  slog.LevelDebug,
	}

	for _, opt := range opts {
		opt(o)
	}

	return o
}

func (o *SlogObserver) fields(ctl *Controller) []any {
	return []any{
		"controller", ctl.ID(),
		"name", ctl.Name(),
		"state", ctl.State().String(),
	}
}

func (o *SlogObserver) Initialized(ctl *Controller) {
	o.logger.InfoContext(context.Background(), "Switcher initialized", o.fields(ctl)...)
}

func (o *SlogObserver) Advanced(ctl *Controller) {
	o.logger.Log(context.Background(), o.level, "Switcher advanced", o.fields(ctl)...)
}

func (o *SlogObserver) Scheduled(ctl *Controller, delay time.Duration) {
	fields := append(o.fields(ctl), "interval_ms", delay.Milliseconds())

	o.logger.Log(context.Background(), o.level, "Switcher advance scheduled", fields...)
}

func (o *SlogObserver) SelfTerminated(ctl *Controller) {
	o.logger.InfoContext(context.Background(), "Switcher reached its end", o.fields(ctl)...)
}

func (o *SlogObserver) Stopped(ctl *Controller, canceled int) {
	fields := append(o.fields(ctl), "canceled", canceled)

	o.logger.InfoContext(context.Background(), "Switcher stopped", fields...)
}
