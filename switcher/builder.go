package switcher

import "github.com/amp-labs/autoswitch/looper"

// Builder assembles the three optional step operators of a strategy.
//
// Each With* call sets or overwrites one slot and returns the builder for
// chaining. Build captures the current slots; changing the builder afterwards
// does not affect controllers already built.
type Builder struct {
	initStep StepOperator
	nextStep StepOperator
	stopStep StepOperator
}

// NewBuilder creates an empty builder. A controller built from it only resets
// the surface index and performs no custom behaviour.
func NewBuilder() *Builder {
	return &Builder{}
}

// WithInit sets the operator run once by Initialize.
func (b *Builder) WithInit(op StepOperator) *Builder {
	b.initStep = op

	return b
}

// WithNext sets the operator run after every successful advance.
func (b *Builder) WithNext(op StepOperator) *Builder {
	b.nextStep = op

	return b
}

// WithStop sets the operator run the first time the sequence stops. Set one
// to cancel animations or delays so nothing outlives the surface.
func (b *Builder) WithStop(op StepOperator) *Builder {
	b.stopStep = op

	return b
}

// Clone returns an independent copy of the builder.
func (b *Builder) Clone() *Builder {
	clone := *b

	return &clone
}

// Option configures a controller at Build time.
type Option func(*Controller)

// WithScheduler sets the context the controller runs on. The default is
// looper.Main().
func WithScheduler(s Scheduler) Option {
	return func(c *Controller) {
		if s != nil {
			c.scheduler = s
		}
	}
}

// WithObserver attaches an observer for lifecycle events. Without one the
// controller reports nothing.
func WithObserver(obs Observer) Option {
	return func(c *Controller) {
		if obs != nil {
			c.observer = obs
		}
	}
}

// WithName labels the controller in logs, metrics and traces.
func WithName(name string) Option {
	return func(c *Controller) {
		c.name = name
	}
}

// Build returns a new, unbound controller in the Ready state.
func (b *Builder) Build(opts ...Option) *Controller {
	ctl := &Controller{
		id:       newID(),
		state:    Ready,
		initStep: b.initStep,
		nextStep: b.nextStep,
		stopStep: b.stopStep,
		observer: nopObserver{},
	}

	for _, opt := range opts {
		opt(ctl)
	}

	if ctl.scheduler == nil {
		ctl.scheduler = looper.Main()
	}

	return ctl
}
