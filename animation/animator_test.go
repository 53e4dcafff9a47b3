package animation

import (
	"testing"
	"time"

	"github.com/amp-labs/autoswitch/looper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newLooper() *looper.Looper {
	clock := looper.NewManualClock(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))

	return looper.New(looper.WithName("animation-test"), looper.WithClock(clock))
}

func run(t *testing.T, l *looper.Looper, d time.Duration) {
	t.Helper()

	_, err := l.Advance(d)
	require.NoError(t, err)
}

func TestForwardReachesUpperBound(t *testing.T) {
	t.Parallel()

	l := newLooper()
	anim := New(l, 160*time.Millisecond)

	var values []float64

	ends := 0
	anim.OnUpdate(func(v float64) { values = append(values, v) })
	anim.OnEnd(func(canceled bool) {
		assert.False(t, canceled)
		ends++
	})

	anim.Forward()
	assert.True(t, anim.IsAnimating())
	assert.Equal(t, Forwarding, anim.Status())

	run(t, l, 80*time.Millisecond)
	assert.InDelta(t, 0.5, anim.Value(), 1e-9)

	run(t, l, time.Second)
	assert.InDelta(t, 1.0, anim.Value(), 1e-9)
	assert.Equal(t, Completed, anim.Status())
	assert.Equal(t, 1, ends)
	assert.Equal(t, int64(10), anim.Frames())
	assert.Len(t, values, 10)
	assert.Equal(t, 0, l.Pending(), "no frames left behind")
}

func TestReverseReachesLowerBound(t *testing.T) {
	t.Parallel()

	l := newLooper()
	anim := New(l, 100*time.Millisecond)
	anim.SetValue(1)
	require.Equal(t, Completed, anim.Status())

	anim.Reverse()
	run(t, l, time.Second)

	assert.InDelta(t, 0.0, anim.Value(), 1e-9)
	assert.Equal(t, Dismissed, anim.Status())
}

func TestCancelStopsFrames(t *testing.T) {
	t.Parallel()

	l := newLooper()
	anim := New(l, time.Second)

	var canceledEnds int

	anim.OnEnd(func(canceled bool) {
		if canceled {
			canceledEnds++
		}
	})

	anim.Forward()
	run(t, l, 320*time.Millisecond)

	mid := anim.Value()
	anim.Cancel()
	anim.Cancel()

	run(t, l, 5*time.Second)

	assert.Equal(t, Canceled, anim.Status())
	assert.InDelta(t, mid, anim.Value(), 1e-9)
	assert.Equal(t, 1, canceledEnds)
	assert.Equal(t, 0, l.Pending())
}

func TestFinishJumpsToTarget(t *testing.T) {
	t.Parallel()

	l := newLooper()
	anim := New(l, time.Second)

	ended := false
	anim.OnEnd(func(canceled bool) { ended = !canceled })

	anim.Forward()
	run(t, l, 100*time.Millisecond)
	anim.Finish()

	assert.InDelta(t, 1.0, anim.Value(), 1e-9)
	assert.Equal(t, Completed, anim.Status())
	assert.True(t, ended)
	assert.Equal(t, 0, l.Pending())

	// Cancel after completion is a no-op.
	anim.Cancel()
	assert.Equal(t, Completed, anim.Status())
}

func TestZeroDurationCompletesImmediately(t *testing.T) {
	t.Parallel()

	l := newLooper()
	anim := New(l, 0)

	ends := 0
	anim.OnEnd(func(bool) { ends++ })
	anim.AnimateTo(0.75)

	assert.InDelta(t, 0.75, anim.Value(), 1e-9)
	assert.False(t, anim.IsAnimating())
	assert.Equal(t, 1, ends)
	assert.Equal(t, 0, l.Pending())
}

func TestRetargetRestartsFromCurrentValue(t *testing.T) {
	t.Parallel()

	l := newLooper()
	anim := New(l, 160*time.Millisecond)

	anim.Forward()
	run(t, l, 80*time.Millisecond)
	require.InDelta(t, 0.5, anim.Value(), 1e-9)

	anim.AnimateTo(0)
	assert.Equal(t, Reversing, anim.Status())
	assert.Equal(t, 1, l.Pending(), "previous frame replaced")

	run(t, l, 80*time.Millisecond)
	assert.InDelta(t, 0.25, anim.Value(), 1e-9)
}

func TestCurvesAreAnchored(t *testing.T) {
	t.Parallel()

	for name, curve := range map[string]Curve{
		"linear":    Linear,
		"easeIn":    EaseIn,
		"easeOut":   EaseOut,
		"easeInOut": EaseInOut,
	} {
		assert.InDelta(t, 0, curve(0), 1e-6, name)
		assert.InDelta(t, 1, curve(1), 1e-6, name)

		mid := curve(0.5)
		assert.Greater(t, mid, 0.0, name)
		assert.Less(t, mid, 1.0, name)
	}

	assert.InDelta(t, 0.5, EaseInOut(0.5), 1e-3)
	assert.Less(t, EaseIn(0.25), 0.25)
	assert.Greater(t, EaseOut(0.25), 0.25)
}

func TestStatusString(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "forwarding", Forwarding.String())
	assert.Equal(t, "canceled", Canceled.String())
	assert.Equal(t, "Status(42)", Status(42).String())
}
