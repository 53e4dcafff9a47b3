// Package looper provides a single-threaded scheduling context: a queue of
// immediate and delayed tasks that all run, one at a time, on whichever
// goroutine drives the looper.
//
// A Looper is driven either by Run, which blocks on its own goroutine and
// sleeps until the next task is due, or manually through RunDue and Advance,
// which execute due tasks on the calling goroutine. The manual mode combined
// with a ManualClock makes timing-dependent code fully deterministic in tests.
//
// Every Post returns a Handle. Canceling a handle removes its task from the
// queue; canceling an already executed or canceled task is a no-op.
package looper

import (
	"container/heap"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"runtime/debug"
	"sync"
	"time"

	"go.uber.org/atomic"
)

var (
	// ErrTaskPanic is wrapped by every PanicError reported to the panic handler.
	ErrTaskPanic = errors.New("panic in looper task")
	// ErrClockNotManual is returned by Advance when the looper is not using a ManualClock.
	ErrClockNotManual = errors.New("looper clock is not a manual clock")
	// ErrLooperClosed is returned when interacting with a closed looper.
	ErrLooperClosed = errors.New("looper is closed")
	// ErrAlreadyRunning is returned by Run when another goroutine is already running the looper.
	ErrAlreadyRunning = errors.New("looper is already running")
)

const defaultName = "looper"

// PanicError carries a value recovered from a panicking task.
type PanicError struct {
	Looper string
	Value  any
	Stack  []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("%v %s: %v", ErrTaskPanic, e.Looper, e.Value)
}

func (e *PanicError) Unwrap() []error {
	if err, ok := e.Value.(error); ok {
		return []error{ErrTaskPanic, err}
	}

	return []error{ErrTaskPanic}
}

// Looper is a cooperative, single-threaded task queue.
type Looper struct {
	name    string
	clock   Clock
	logger  *slog.Logger
	onPanic func(err error)

	mu    sync.Mutex
	queue taskQueue
	seq   uint64

	wake    chan struct{}
	running atomic.Bool
	closed  atomic.Bool
}

// Option configures a Looper.
type Option func(*Looper)

// WithName sets the name used in logs and metric labels.
func WithName(name string) Option {
	return func(l *Looper) {
		if name != "" {
			l.name = name
		}
	}
}

// WithClock replaces the real clock.
func WithClock(clock Clock) Option {
	return func(l *Looper) {
		if clock != nil {
			l.clock = clock
		}
	}
}

// WithLogger sets the logger used to report recovered panics.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Looper) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// WithPanicHandler sets the function that receives a *PanicError whenever a
// task panics. The default handler re-panics, which ends the sequence
// driving the looper.
func WithPanicHandler(handler func(err error)) Option {
	return func(l *Looper) {
		if handler != nil {
			l.onPanic = handler
		}
	}
}

// New creates a looper. It does nothing until Run, RunDue or Advance is called.
func New(opts ...Option) *Looper {
	l := &Looper{
		name:    defaultName,
		clock:   RealClock{},
		logger:  slog.Default(),
		onPanic: func(err error) { panic(err) },
		wake:    make(chan struct{}, 1),
	}

	for _, opt := range opts {
		opt(l)
	}

	initMetrics(l.name)

	return l
}

var mainLooper = sync.OnceValue(func() *Looper { //nolint:gochecknoglobals
	l := New(WithName("main"))

	go func() {
		_ = l.Run(context.Background())
	}()

	return l
})

// Main returns the process-wide looper, started on its own goroutine the
// first time it is requested.
func Main() *Looper {
	return mainLooper()
}

// Name returns the looper's name.
func (l *Looper) Name() string {
	return l.name
}

// Clock returns the looper's time source.
func (l *Looper) Clock() Clock {
	return l.clock
}

// Post queues fn to run as soon as possible, after every task already due.
func (l *Looper) Post(fn func()) Handle {
	return l.PostDelayed(0, fn)
}

// PostDelayed queues fn to run once delay has elapsed on the looper's clock.
// A non-positive delay behaves like Post. Posting to a closed looper returns
// a handle that is never pending.
func (l *Looper) PostDelayed(delay time.Duration, fn func()) Handle {
	if fn == nil || l.closed.Load() {
		return Handle{}
	}

	if delay < 0 {
		delay = 0
	}

	now := l.clock.Now()

	l.mu.Lock()
	l.seq++
	t := &task{
		fn:    fn,
		due:   now.Add(delay),
		seq:   l.seq,
		state: taskPending,
	}
	heap.Push(&l.queue, t)
	pending := len(l.queue)
	l.mu.Unlock()

	tasksPosted.WithLabelValues(l.name).Inc()
	tasksPending.WithLabelValues(l.name).Set(float64(pending))

	l.signal()

	return Handle{looper: l, task: t}
}

// RemoveAll cancels every pending task and returns how many were removed.
func (l *Looper) RemoveAll() int {
	l.mu.Lock()
	removed := len(l.queue)

	for _, t := range l.queue {
		t.state = taskCanceled
		t.index = -1
	}

	l.queue = nil
	l.mu.Unlock()

	tasksCanceled.WithLabelValues(l.name).Add(float64(removed))
	tasksPending.WithLabelValues(l.name).Set(0)

	return removed
}

// Pending returns the number of queued tasks.
func (l *Looper) Pending() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	return len(l.queue)
}

// RunDue executes every task that was due when it was called, in due order,
// on the calling goroutine. Tasks posted while draining wait for the next
// call, so a task that keeps re-posting itself cannot hold the caller. It
// returns the number of tasks executed.
func (l *Looper) RunDue() int {
	now := l.clock.Now()

	l.mu.Lock()
	last := l.seq
	l.mu.Unlock()

	executed := 0

	for {
		t := l.popDue(now, last)
		if t == nil {
			return executed
		}

		l.execute(t)

		executed++
	}
}

// Advance moves a ManualClock forward by d, executing every task that falls
// due along the way. Before each task runs the clock is set to that task's
// due time, so tasks scheduled by earlier tasks are honoured if they land
// inside the window.
func (l *Looper) Advance(d time.Duration) (int, error) {
	clock, ok := l.clock.(*ManualClock)
	if !ok {
		return 0, ErrClockNotManual
	}

	target := clock.Now().Add(d)
	executed := l.RunDue()

	for {
		t := l.popDue(target, math.MaxUint64)
		if t == nil {
			break
		}

		if t.due.After(clock.Now()) {
			clock.Set(t.due)
		}

		l.execute(t)

		executed++
		executed += l.RunDue()
	}

	clock.Set(target)
	executed += l.RunDue()

	return executed, nil
}

// Run drives the looper on the calling goroutine until ctx is done or the
// looper is closed.
func (l *Looper) Run(ctx context.Context) error {
	if !l.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}

	defer l.running.Store(false)

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		l.RunDue()

		if l.closed.Load() {
			return nil
		}

		wait, ok := l.nextWait()
		if !ok {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-l.wake:
			}

			continue
		}

		timer := time.NewTimer(wait)

		select {
		case <-ctx.Done():
			timer.Stop()

			return ctx.Err()
		case <-l.wake:
		case <-timer.C:
		}

		timer.Stop()
	}
}

// Running reports whether Run is currently driving the looper.
func (l *Looper) Running() bool {
	return l.running.Load()
}

// Go posts fn and blocks until it has executed. It must not be called from a
// task running on the same looper, since that task would wait on itself.
func (l *Looper) Go(ctx context.Context, fn func()) error {
	if l.closed.Load() {
		return ErrLooperClosed
	}

	done := make(chan struct{})

	handle := l.Post(func() {
		defer close(done)

		fn()
	})
	if handle.task == nil {
		return ErrLooperClosed
	}

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		handle.Cancel()

		return ctx.Err()
	}
}

// Close cancels all pending tasks and stops Run. Subsequent posts are dropped.
func (l *Looper) Close() {
	if l.closed.Swap(true) {
		return
	}

	l.RemoveAll()
	l.signal()
}

func (l *Looper) signal() {
	select {
	case l.wake <- struct{}{}:
	default:
	}
}

// popDue removes the head task if it is due at now and was posted no later
// than sequence number last.
func (l *Looper) popDue(now time.Time, last uint64) *task {
	l.mu.Lock()
	defer l.mu.Unlock()

	t := l.queue.peek()
	if t == nil || t.due.After(now) || t.seq > last {
		return nil
	}

	heap.Pop(&l.queue)
	t.state = taskRunning
	tasksPending.WithLabelValues(l.name).Set(float64(len(l.queue)))

	return t
}

func (l *Looper) nextWait() (time.Duration, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	t := l.queue.peek()
	if t == nil {
		return 0, false
	}

	return max(t.due.Sub(l.clock.Now()), 0), true
}

func (l *Looper) cancel(t *task) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	if t.state != taskPending {
		return false
	}

	t.state = taskCanceled

	if t.index >= 0 && t.index < len(l.queue) && l.queue[t.index] == t {
		heap.Remove(&l.queue, t.index)
	}

	tasksCanceled.WithLabelValues(l.name).Inc()
	tasksPending.WithLabelValues(l.name).Set(float64(len(l.queue)))

	return true
}

func (l *Looper) isPending(t *task) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	return t.state == taskPending
}

// execute runs a task, recovering any panic and handing it to the panic handler.
func (l *Looper) execute(t *task) {
	defer func() {
		l.mu.Lock()
		t.state = taskDone
		l.mu.Unlock()
	}()

	defer func() {
		if r := recover(); r != nil {
			taskPanics.WithLabelValues(l.name).Inc()

			err := &PanicError{
				Looper: l.name,
				Value:  r,
				Stack:  debug.Stack(),
			}

			l.logger.Error("looper recovered from panic",
				"looper", l.name,
				"error", r,
				"stack", string(err.Stack))

			l.onPanic(err)
		}
	}()

	taskLatency.WithLabelValues(l.name).Observe(l.clock.Now().Sub(t.due).Seconds())

	t.fn()

	tasksExecuted.WithLabelValues(l.name).Inc()
}

// Handle refers to a posted task. The zero Handle refers to nothing; its
// methods are no-ops.
type Handle struct {
	looper *Looper
	task   *task
}

// Cancel removes the task from the queue if it has not started yet. It is
// safe to call any number of times.
func (h Handle) Cancel() {
	if h.looper == nil || h.task == nil {
		return
	}

	h.looper.cancel(h.task)
}

// Pending reports whether the task is still waiting to run.
func (h Handle) Pending() bool {
	if h.looper == nil || h.task == nil {
		return false
	}

	return h.looper.isPending(h.task)
}

// Due returns the time the task is scheduled for, or the zero time for an
// empty handle.
func (h Handle) Due() time.Time {
	if h.task == nil {
		return time.Time{}
	}

	return h.task.due
}
