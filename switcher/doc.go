// Package switcher coordinates timed, cancellable transition sequences for a
// rotating display surface such as a carousel of views.
//
// A Controller owns the sequence state machine:
//
//	            Initialize()             Stop() / NeedStop()
//	Ready ─────────────────────► Running ─────────────────────► Stopped
//	                               │  ▲
//	          ScheduleAdvance(d)   │  │  AdvanceNow()
//	                               └──┘
//
// Behaviour around each lifecycle point is supplied by three optional
// StepOperators (init, next, stop) assembled with a Builder. Different
// strategies are just different operator combinations; see the strategy
// package for ready-made ones.
//
// The controller holds at most one pending delayed advance, runs the
// stop-step at most once no matter how Stop is reached, and cancels every
// registered Cancelable when it stops.
//
// All controller methods and operator invocations must run on the
// controller's scheduler (a looper.Looper). The controller takes no locks.
package switcher
