// Package shutdown turns SIGINT and SIGTERM into context cancellation and
// runs teardown hooks before the context is canceled.
package shutdown

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
)

// Handler owns the teardown hooks of one process run.
type Handler struct {
	mu      sync.Mutex
	hooks   []func()
	once    sync.Once
	trigger chan os.Signal
	cancel  context.CancelFunc
}

// New creates a handler with no hooks.
func New() *Handler {
	return &Handler{trigger: make(chan os.Signal, 1)}
}

// BeforeShutdown registers a hook. Hooks run in reverse registration order
// while the returned context is still alive.
func (h *Handler) BeforeShutdown(hook func()) {
	if hook == nil {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	h.hooks = append(h.hooks, hook)
}

// Setup listens for SIGINT and SIGTERM and returns a context derived from
// parent that is canceled once the hooks have run. The context is also
// canceled, without running hooks, when parent ends.
func (h *Handler) Setup(parent context.Context) context.Context {
	ctx, cancel := context.WithCancel(parent)
	h.cancel = cancel

	signal.Notify(h.trigger, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		defer signal.Stop(h.trigger)

		select {
		case sig := <-h.trigger:
			slog.Warn("Received " + sig.String() + ", shutting down...")
			h.Run()
		case <-ctx.Done():
		}
	}()

	return ctx
}

// Shutdown triggers the shutdown programmatically, as if a signal arrived.
func (h *Handler) Shutdown() {
	select {
	case h.trigger <- os.Interrupt:
	default:
	}
}

// Run executes the hooks once and cancels the context returned by Setup.
func (h *Handler) Run() {
	h.once.Do(func() {
		h.mu.Lock()
		hooks := h.hooks
		h.hooks = nil
		h.mu.Unlock()

		for i := len(hooks) - 1; i >= 0; i-- {
			hooks[i]()
		}

		if h.cancel != nil {
			h.cancel()
		}
	})
}
