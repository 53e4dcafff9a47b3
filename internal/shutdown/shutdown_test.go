package shutdown

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHooksRunInReverseOrder(t *testing.T) {
	t.Parallel()

	h := New()

	var order []int

	h.BeforeShutdown(func() { order = append(order, 1) })
	h.BeforeShutdown(nil)
	h.BeforeShutdown(func() { order = append(order, 2) })

	h.Run()
	h.Run()

	assert.Equal(t, []int{2, 1}, order)
}

func TestShutdownCancelsContext(t *testing.T) {
	t.Parallel()

	h := New()

	hookSawLiveContext := make(chan bool, 1)

	ctx := h.Setup(t.Context())
	h.BeforeShutdown(func() { hookSawLiveContext <- ctx.Err() == nil })

	select {
	case <-ctx.Done():
		t.Fatal("context should not be canceled initially")
	default:
	}

	h.Shutdown()

	select {
	case <-ctx.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("context was not canceled")
	}

	require.ErrorIs(t, ctx.Err(), context.Canceled)
	assert.True(t, <-hookSawLiveContext)
}

func TestParentCancelSkipsHooks(t *testing.T) {
	t.Parallel()

	h := New()
	ran := false

	h.BeforeShutdown(func() { ran = true })

	parent, cancel := context.WithCancel(t.Context())
	ctx := h.Setup(parent)

	cancel()
	<-ctx.Done()

	assert.False(t, ran)
}
