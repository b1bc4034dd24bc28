// Package sched provides a cooperative command scheduler for robot control.
//
// A Command is a unit of periodic behavior that declares which Subsystems it
// needs exclusive access to. The Scheduler advances every running command once
// per cycle and guarantees that at most one command holds any subsystem at a
// time.
package sched

import "fmt"

// Subsystem identifies an exclusive-use robot resource such as a drive train
// or an arm. Equality is identity: two commands conflict when they require
// the same Subsystem value.
type Subsystem interface {
	Name() string
}

// Command is a schedulable unit of periodic behavior.
//
// Initialize runs once when the command is admitted, Execute runs once per
// cycle while the command is active, and End runs once when the command is
// retired. The interrupted argument tells End whether the command was
// displaced or cancelled (true) or finished naturally (false).
//
// None of the callbacks may block: the scheduler invokes them sequentially
// within a single cycle and expects each to return promptly.
type Command interface {
	Initialize()
	Execute()
	IsFinished() bool
	End(interrupted bool)
	Requirements() []Subsystem
}

// interruptible is an optional capability. A running command reporting
// Interruptible() == false cannot be displaced by a newly scheduled command;
// the conflicting schedule call is rejected instead. Commands that do not
// implement it are interruptible.
type interruptible interface {
	Interruptible() bool
}

func isInterruptible(cmd Command) bool {
	if i, ok := cmd.(interruptible); ok {
		return i.Interruptible()
	}
	return true
}

// commandName returns a human-readable name for log output.
func commandName(cmd Command) string {
	if s, ok := cmd.(fmt.Stringer); ok {
		return s.String()
	}
	return fmt.Sprintf("%T", cmd)
}

// FuncCommand implements Command with plain closures. Nil fields are no-ops,
// except Finished which defaults to never finishing.
type FuncCommand struct {
	Name     string
	Reqs     []Subsystem
	OnInit   func()
	OnExec   func()
	Finished func() bool
	OnEnd    func(interrupted bool)

	// Locked marks the command non-interruptible while it runs.
	Locked bool
}

func (c *FuncCommand) Initialize() {
	if c.OnInit != nil {
		c.OnInit()
	}
}

func (c *FuncCommand) Execute() {
	if c.OnExec != nil {
		c.OnExec()
	}
}

func (c *FuncCommand) IsFinished() bool {
	if c.Finished != nil {
		return c.Finished()
	}
	return false
}

func (c *FuncCommand) End(interrupted bool) {
	if c.OnEnd != nil {
		c.OnEnd(interrupted)
	}
}

func (c *FuncCommand) Requirements() []Subsystem { return c.Reqs }

func (c *FuncCommand) Interruptible() bool { return !c.Locked }

func (c *FuncCommand) String() string {
	if c.Name != "" {
		return c.Name
	}
	return "func-command"
}

// dedupeRequirements collapses duplicate subsystems, preserving order.
func dedupeRequirements(reqs []Subsystem) []Subsystem {
	if len(reqs) < 2 {
		return reqs
	}
	seen := make(map[Subsystem]bool, len(reqs))
	out := make([]Subsystem, 0, len(reqs))
	for _, r := range reqs {
		if r == nil || seen[r] {
			continue
		}
		seen[r] = true
		out = append(out, r)
	}
	return out
}
