package sched

// Trigger binds commands to the edges of a boolean condition, typically a
// controller button. The scheduler polls every trigger once per cycle, before
// commands execute, and compares the condition against the previous cycle's
// snapshot; bound commands are scheduled or cancelled synchronously on the
// detected edge. There is no asynchronous callback queue.
//
// The condition starts out false, so a condition that is already true on the
// first poll counts as a rising edge.
type Trigger struct {
	cond     func() bool
	prev     bool
	bindings []triggerBinding
}

type triggerKind int

const (
	bindOnTrue triggerKind = iota
	bindOnFalse
	bindWhileTrue
	bindToggleOnTrue
)

type triggerBinding struct {
	kind triggerKind
	cmd  Command
}

// When creates a trigger for cond and registers it with the scheduler.
func (s *Scheduler) When(cond func() bool) *Trigger {
	t := &Trigger{cond: cond}
	s.triggers = append(s.triggers, t)
	return t
}

// OnTrue schedules cmd on the rising edge of the condition.
func (t *Trigger) OnTrue(cmd Command) *Trigger {
	t.bindings = append(t.bindings, triggerBinding{bindOnTrue, cmd})
	return t
}

// OnFalse schedules cmd on the falling edge of the condition.
func (t *Trigger) OnFalse(cmd Command) *Trigger {
	t.bindings = append(t.bindings, triggerBinding{bindOnFalse, cmd})
	return t
}

// WhileTrue schedules cmd on the rising edge and cancels it on the falling
// edge, so cmd runs only while the condition holds.
func (t *Trigger) WhileTrue(cmd Command) *Trigger {
	t.bindings = append(t.bindings, triggerBinding{bindWhileTrue, cmd})
	return t
}

// ToggleOnTrue starts cmd on a rising edge if it is not running, and cancels
// it on a rising edge if it is.
func (t *Trigger) ToggleOnTrue(cmd Command) *Trigger {
	t.bindings = append(t.bindings, triggerBinding{bindToggleOnTrue, cmd})
	return t
}

func (t *Trigger) poll(s *Scheduler) {
	// A panicking condition must not take down the cycle; the trigger just
	// skips this poll and keeps its previous snapshot.
	var cur bool
	if !s.invokeNamed("trigger", "condition", func() { cur = t.cond() }) {
		return
	}
	rising := cur && !t.prev
	falling := !cur && t.prev
	t.prev = cur

	for _, b := range t.bindings {
		switch b.kind {
		case bindOnTrue:
			if rising {
				s.Schedule(b.cmd)
			}
		case bindOnFalse:
			if falling {
				s.Schedule(b.cmd)
			}
		case bindWhileTrue:
			if rising {
				s.Schedule(b.cmd)
			}
			if falling {
				s.Cancel(b.cmd)
			}
		case bindToggleOnTrue:
			if rising {
				if s.IsRunning(b.cmd) {
					s.Cancel(b.cmd)
				} else {
					s.Schedule(b.cmd)
				}
			}
		}
	}
}

// And combines conditions; the result is true when all are true.
func And(conds ...func() bool) func() bool {
	return func() bool {
		for _, c := range conds {
			if !c() {
				return false
			}
		}
		return true
	}
}

// Or combines conditions; the result is true when any is true.
func Or(conds ...func() bool) func() bool {
	return func() bool {
		for _, c := range conds {
			if c() {
				return true
			}
		}
		return false
	}
}

// Not inverts a condition.
func Not(cond func() bool) func() bool {
	return func() bool { return !cond() }
}
