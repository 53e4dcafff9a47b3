package switcher

// StepOperator is a unit of behaviour invoked at one lifecycle point of a
// Controller: initialize, advance or stop.
//
// Operate is called synchronously on the controller's scheduler and never
// concurrently with another operator of the same controller. It has no error
// return; a panic is not recovered by the controller and reaches the
// scheduler's panic handler.
type StepOperator interface {
	Operate(surface Surface, ctl *Controller)
}

// StepFunc adapts an ordinary function to a StepOperator.
type StepFunc func(surface Surface, ctl *Controller)

// Operate calls f(surface, ctl).
func (f StepFunc) Operate(surface Surface, ctl *Controller) {
	if f != nil {
		f(surface, ctl)
	}
}

// Steps combines several operators into one that runs them in order.
// Nil operators are skipped.
func Steps(ops ...StepOperator) StepOperator {
	return StepFunc(func(surface Surface, ctl *Controller) {
		for _, op := range ops {
			if op != nil {
				op.Operate(surface, ctl)
			}
		}
	})
}
