package looper

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/neilotoole/slogt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var epoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC) //nolint:gochecknoglobals

func newManual(t *testing.T, opts ...Option) (*Looper, *ManualClock) {
	t.Helper()

	clock := NewManualClock(epoch)
	opts = append([]Option{WithName(t.Name()), WithClock(clock), WithLogger(slogt.New(t))}, opts...)

	return New(opts...), clock
}

func TestPostRunsInOrder(t *testing.T) {
	t.Parallel()

	l, _ := newManual(t)

	var order []int

	for i := range 5 {
		l.Post(func() { order = append(order, i) })
	}

	assert.Equal(t, 5, l.Pending())
	assert.Equal(t, 5, l.RunDue())
	assert.Equal(t, []int{0, 1, 2, 3, 4}, order)
	assert.Equal(t, 0, l.Pending())
}

func TestDelayedTasksRunByDueTime(t *testing.T) {
	t.Parallel()

	l, clock := newManual(t)

	var (
		order []string
		seen  []time.Time
	)

	record := func(name string) func() {
		return func() {
			order = append(order, name)
			seen = append(seen, clock.Now())
		}
	}

	l.PostDelayed(300*time.Millisecond, record("c"))
	l.PostDelayed(100*time.Millisecond, record("a"))
	l.PostDelayed(200*time.Millisecond, record("b"))

	assert.Equal(t, 0, l.RunDue(), "nothing due yet")

	n, err := l.Advance(250 * time.Millisecond)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, []string{"a", "b"}, order)
	assert.Equal(t, []time.Time{epoch.Add(100 * time.Millisecond), epoch.Add(200 * time.Millisecond)}, seen)
	assert.Equal(t, epoch.Add(250*time.Millisecond), clock.Now())

	_, err = l.Advance(time.Second)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, order)
}

func TestAdvanceRunsChainedTasks(t *testing.T) {
	t.Parallel()

	l, _ := newManual(t)

	ticks := 0

	var tick func()

	tick = func() {
		ticks++

		l.PostDelayed(10*time.Millisecond, tick)
	}

	l.PostDelayed(10*time.Millisecond, tick)

	_, err := l.Advance(100 * time.Millisecond)
	require.NoError(t, err)

	assert.Equal(t, 10, ticks)
	assert.Equal(t, 1, l.Pending())
}

func TestEqualDueTimesKeepPostOrder(t *testing.T) {
	t.Parallel()

	l, _ := newManual(t)

	var order []int

	for i := range 3 {
		l.PostDelayed(time.Second, func() { order = append(order, i) })
	}

	_, err := l.Advance(time.Second)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1, 2}, order)
}

func TestCancel(t *testing.T) {
	t.Parallel()

	l, _ := newManual(t)

	ran := false
	h := l.PostDelayed(time.Second, func() { ran = true })

	assert.True(t, h.Pending())
	assert.Equal(t, epoch.Add(time.Second), h.Due())

	h.Cancel()
	h.Cancel()

	assert.False(t, h.Pending())
	assert.Equal(t, 0, l.Pending())

	_, err := l.Advance(time.Minute)
	require.NoError(t, err)
	assert.False(t, ran)
}

func TestCancelAfterRunIsNoop(t *testing.T) {
	t.Parallel()

	l, _ := newManual(t)

	runs := 0
	h := l.Post(func() { runs++ })
	l.RunDue()

	assert.False(t, h.Pending())
	h.Cancel()
	assert.Equal(t, 1, runs)
}

func TestZeroHandle(t *testing.T) {
	t.Parallel()

	var h Handle

	assert.NotPanics(t, h.Cancel)
	assert.False(t, h.Pending())
	assert.True(t, h.Due().IsZero())
}

func TestRemoveAll(t *testing.T) {
	t.Parallel()

	l, _ := newManual(t)

	h := l.PostDelayed(time.Second, func() {})
	l.Post(func() {})

	assert.Equal(t, 2, l.RemoveAll())
	assert.False(t, h.Pending())
	assert.Equal(t, 0, l.RunDue())
}

func TestPanicHandler(t *testing.T) {
	t.Parallel()

	var got error

	l, _ := newManual(t, WithPanicHandler(func(err error) { got = err }))

	cause := errors.New("boom")
	after := false

	l.Post(func() { panic(cause) })
	l.Post(func() { after = true })

	assert.Equal(t, 2, l.RunDue())
	require.Error(t, got)
	require.ErrorIs(t, got, ErrTaskPanic)
	require.ErrorIs(t, got, cause)

	var pe *PanicError

	require.ErrorAs(t, got, &pe)
	assert.Equal(t, t.Name(), pe.Looper)
	assert.NotEmpty(t, pe.Stack)
	assert.True(t, after, "later tasks still run")
}

func TestDefaultPanicHandlerRepanics(t *testing.T) {
	t.Parallel()

	l, _ := newManual(t)

	h := l.Post(func() { panic("boom") })

	assert.Panics(t, func() { l.RunDue() })
	assert.False(t, h.Pending())
}

func TestAdvanceNeedsManualClock(t *testing.T) {
	t.Parallel()

	l := New(WithName(t.Name()))

	_, err := l.Advance(time.Second)
	require.ErrorIs(t, err, ErrClockNotManual)
}

func TestRunExecutesDelayedTasks(t *testing.T) {
	t.Parallel()

	l := New(WithName(t.Name()), WithLogger(slogt.New(t)))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	errs := make(chan error, 1)

	go func() { errs <- l.Run(ctx) }()

	require.Eventually(t, l.Running, time.Second, time.Millisecond)
	require.ErrorIs(t, l.Run(ctx), ErrAlreadyRunning)

	fired := make(chan time.Time, 1)
	start := time.Now()

	l.PostDelayed(20*time.Millisecond, func() { fired <- time.Now() })

	select {
	case at := <-fired:
		assert.GreaterOrEqual(t, at.Sub(start), 20*time.Millisecond)
	case <-ctx.Done():
		t.Fatal("delayed task never ran")
	}

	value := 0
	require.NoError(t, l.Go(ctx, func() { value = 42 }))
	assert.Equal(t, 42, value)

	cancel()
	require.ErrorIs(t, <-errs, context.Canceled)
	assert.False(t, l.Running())
}

func TestRunDueSkipsTasksPostedWhileDraining(t *testing.T) {
	t.Parallel()

	l, _ := newManual(t)

	runs := 0

	var repost func()

	repost = func() {
		runs++

		l.Post(repost)
	}

	l.Post(repost)

	assert.Equal(t, 1, l.RunDue())
	assert.Equal(t, 1, l.Pending(), "re-posted task waits for the next drain")
	assert.Equal(t, 1, l.RunDue())
	assert.Equal(t, 2, runs)
}

func TestRunStopsWhileTaskKeepsReposting(t *testing.T) {
	t.Parallel()

	l := New(WithName(t.Name()), WithLogger(slogt.New(t)))

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	var repost func()

	repost = func() { l.PostDelayed(0, repost) }

	l.Post(repost)

	errs := make(chan error, 1)

	go func() { errs <- l.Run(ctx) }()

	select {
	case err := <-errs:
		require.ErrorIs(t, err, context.DeadlineExceeded)
	case <-time.After(5 * time.Second):
		t.Fatal("Run ignored the context while a task kept re-posting")
	}
}

func TestClose(t *testing.T) {
	t.Parallel()

	l, _ := newManual(t)

	pending := l.PostDelayed(time.Second, func() {})

	l.Close()
	l.Close()

	assert.False(t, pending.Pending())
	assert.False(t, l.Post(func() {}).Pending())
	assert.Equal(t, 0, l.Pending())
	require.ErrorIs(t, l.Go(context.Background(), func() {}), ErrLooperClosed)
	require.NoError(t, l.Run(context.Background()), "run returns at once when closed")
}

func TestManualClock(t *testing.T) {
	t.Parallel()

	clock := NewManualClock(epoch)

	assert.Equal(t, epoch.Add(time.Minute), clock.Advance(time.Minute))

	clock.Set(epoch)
	assert.Equal(t, epoch, clock.Now())
}
