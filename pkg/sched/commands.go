package sched

import (
	"fmt"
	"time"
)

// Instant returns a command that runs action once during Initialize and
// finishes immediately.
func Instant(name string, action func(), reqs ...Subsystem) Command {
	return &FuncCommand{
		Name:     name,
		Reqs:     reqs,
		OnInit:   action,
		Finished: func() bool { return true },
	}
}

// Forever returns a command that runs action every cycle and never finishes
// on its own. This is the usual shape for a default command.
func Forever(name string, action func(), reqs ...Subsystem) Command {
	return &FuncCommand{
		Name:   name,
		Reqs:   reqs,
		OnExec: action,
	}
}

// Wait returns a command that does nothing and finishes after d has elapsed
// since admission. It requires no subsystems.
func Wait(d time.Duration) Command {
	var deadline time.Time
	return &FuncCommand{
		Name:     fmt.Sprintf("wait-%s", d),
		OnInit:   func() { deadline = time.Now().Add(d) },
		Finished: func() bool { return !time.Now().Before(deadline) },
	}
}

// WaitUntil returns a command that does nothing and finishes once cond
// returns true. It requires no subsystems.
func WaitUntil(cond func() bool) Command {
	return &FuncCommand{
		Name:     "wait-until",
		Finished: cond,
	}
}
