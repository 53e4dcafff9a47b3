package switcher

import (
	"testing"
	"time"

	"github.com/amp-labs/autoswitch/looper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmptyBuilderIsLegal(t *testing.T) {
	t.Parallel()

	l, _ := newLooper()
	surface := newFakeSurface()
	ctl := NewBuilder().Build(WithScheduler(l))

	assert.Equal(t, Ready, ctl.State())
	assert.NotEmpty(t, ctl.ID())

	ctl.Bind(surface)
	ctl.Initialize()
	ctl.AdvanceNow()
	ctl.Stop()

	assert.Equal(t, 1, surface.resets)
	assert.Equal(t, 1, surface.steps)
	assert.True(t, ctl.Stopped())
}

func TestBuilderOverwritesSlots(t *testing.T) {
	t.Parallel()

	l, _ := newLooper()
	first, second := &counter{}, &counter{}

	ctl := NewBuilder().WithInit(first).WithInit(second).Build(WithScheduler(l))
	ctl.Bind(newFakeSurface())
	ctl.Initialize()

	assert.Equal(t, 0, first.calls)
	assert.Equal(t, 1, second.calls)
}

func TestBuiltControllerIgnoresLaterBuilderChanges(t *testing.T) {
	t.Parallel()

	l, _ := newLooper()
	original, replacement := &counter{}, &counter{}

	builder := NewBuilder().WithNext(original)
	ctl := builder.Build(WithScheduler(l))
	builder.WithNext(replacement)

	ctl.Bind(newFakeSurface())
	ctl.Initialize()
	ctl.AdvanceNow()

	assert.Equal(t, 1, original.calls)
	assert.Equal(t, 0, replacement.calls)
}

func TestBuildsAreIndependent(t *testing.T) {
	t.Parallel()

	l, _ := newLooper()
	builder := NewBuilder().WithStop(&counter{})

	a := builder.Build(WithScheduler(l), WithName("a"))
	b := builder.Clone().Build(WithScheduler(l), WithName("b"))

	assert.NotEqual(t, a.ID(), b.ID())
	assert.Equal(t, "a", a.Name())
	assert.Equal(t, "b", b.Name())
}

func TestDefaultSchedulerIsMainLooper(t *testing.T) {
	t.Parallel()

	ctl := NewBuilder().Build()

	assert.Same(t, looper.Main(), ctl.Scheduler())
}

func TestStepsRunsInOrder(t *testing.T) {
	t.Parallel()

	var order []string

	op := Steps(
		StepFunc(func(Surface, *Controller) { order = append(order, "a") }),
		nil,
		StepFunc(func(Surface, *Controller) { order = append(order, "b") }),
	)
	op.Operate(nil, nil)

	require.Equal(t, []string{"a", "b"}, order)
}

func TestCancelableAdapters(t *testing.T) {
	t.Parallel()

	assert.Nil(t, Stopper(nil))
	assert.Nil(t, TimerStopper(nil))

	fired := make(chan struct{})
	timer := time.AfterFunc(time.Hour, func() { close(fired) })
	TimerStopper(timer).Cancel()
	assert.False(t, timer.Stop(), "already stopped")

	s := &stopCounter{}
	Stopper(s).Cancel()
	assert.Equal(t, 1, s.calls)

	var nilFunc CancelFunc
	assert.NotPanics(t, nilFunc.Cancel)

	var missing *stopCounter
	assert.Nil(t, Stopper(missing), "nil pointer behind the interface")
}

func TestRegisterTypedNilIsIgnored(t *testing.T) {
	t.Parallel()

	l, _ := newLooper()
	ctl := NewBuilder().Build(WithScheduler(l))
	ctl.Bind(newFakeSurface())
	ctl.Initialize()

	var missing *stopCounter

	ctl.RegisterCancelable(Stopper(missing), CancelFunc(nil))
	assert.Empty(t, ctl.Cancelables())
	assert.NotPanics(t, ctl.Stop)
	assert.True(t, ctl.Stopped())
}

type stopCounter struct {
	calls int
}

func (s *stopCounter) Stop() {
	s.calls++
}
