package sched

// Composition groups. A group declares the union of its members' subsystems,
// so the whole group is admitted and displaced as one unit. Members of a
// Parallel group must not share subsystems with each other; the scheduler
// cannot arbitrate inside a group.

// Sequence returns a command that runs cmds one after another. Each member's
// full lifecycle (Initialize, Execute..., End) runs in turn; the sequence
// finishes when the last member does. Interruption ends the current member
// with interrupted=true; members not yet started never run.
func Sequence(name string, cmds ...Command) Command {
	return &sequenceCommand{name: name, cmds: cmds, reqs: unionRequirements(cmds)}
}

type sequenceCommand struct {
	name string
	cmds []Command
	reqs []Subsystem
	idx  int
}

func (c *sequenceCommand) Initialize() {
	c.idx = 0
	if len(c.cmds) > 0 {
		c.cmds[0].Initialize()
	}
}

func (c *sequenceCommand) Execute() {
	if c.idx >= len(c.cmds) {
		return
	}
	cur := c.cmds[c.idx]
	cur.Execute()
	if cur.IsFinished() {
		cur.End(false)
		c.idx++
		if c.idx < len(c.cmds) {
			c.cmds[c.idx].Initialize()
		}
	}
}

func (c *sequenceCommand) IsFinished() bool { return c.idx >= len(c.cmds) }

func (c *sequenceCommand) End(interrupted bool) {
	if interrupted && c.idx < len(c.cmds) {
		c.cmds[c.idx].End(true)
	}
}

func (c *sequenceCommand) Requirements() []Subsystem { return c.reqs }

func (c *sequenceCommand) String() string { return c.name }

// Parallel returns a command that runs all cmds at once, one Execute per
// member per cycle. It finishes when every member has finished. Interruption
// ends all still-live members with interrupted=true.
func Parallel(name string, cmds ...Command) Command {
	return &parallelCommand{name: name, cmds: cmds, reqs: unionRequirements(cmds)}
}

type parallelCommand struct {
	name string
	cmds []Command
	reqs []Subsystem
	done []bool
}

func (c *parallelCommand) Initialize() {
	c.done = make([]bool, len(c.cmds))
	for _, m := range c.cmds {
		m.Initialize()
	}
}

func (c *parallelCommand) Execute() {
	for i, m := range c.cmds {
		if c.done[i] {
			continue
		}
		m.Execute()
		if m.IsFinished() {
			m.End(false)
			c.done[i] = true
		}
	}
}

func (c *parallelCommand) IsFinished() bool {
	for i := range c.cmds {
		if len(c.done) <= i || !c.done[i] {
			return false
		}
	}
	return true
}

func (c *parallelCommand) End(interrupted bool) {
	if !interrupted {
		return
	}
	for i, m := range c.cmds {
		if len(c.done) > i && c.done[i] {
			continue
		}
		m.End(true)
	}
}

func (c *parallelCommand) Requirements() []Subsystem { return c.reqs }

func (c *parallelCommand) String() string { return c.name }

func unionRequirements(cmds []Command) []Subsystem {
	var all []Subsystem
	for _, m := range cmds {
		all = append(all, m.Requirements()...)
	}
	return dedupeRequirements(all)
}
