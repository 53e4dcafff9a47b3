package switcher

import (
	"reflect"
	"time"
)

// Cancelable is a resource (timer, animator, listener) that must be released
// when a sequence stops. Cancel must be idempotent.
type Cancelable interface {
	Cancel()
}

// CancelFunc adapts a function, such as a context.CancelFunc, to a Cancelable.
type CancelFunc func()

// Cancel calls f.
func (f CancelFunc) Cancel() {
	if f != nil {
		f()
	}
}

type stopper struct {
	s interface{ Stop() }
}

func (s stopper) Cancel() { s.s.Stop() }

// Stopper adapts anything with a Stop method to a Cancelable. It returns nil
// for a nil value, including a nil pointer behind a non-nil interface.
func Stopper(s interface{ Stop() }) Cancelable {
	if isNil(s) {
		return nil
	}

	return stopper{s: s}
}

// TimerStopper adapts a *time.Timer to a Cancelable.
func TimerStopper(t *time.Timer) Cancelable {
	if t == nil {
		return nil
	}

	return CancelFunc(func() { t.Stop() })
}

func isNil(v any) bool {
	if v == nil {
		return true
	}

	switch rv := reflect.ValueOf(v); rv.Kind() { //nolint:exhaustive
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan, reflect.Interface:
		return rv.IsNil()
	default:
		return false
	}
}
