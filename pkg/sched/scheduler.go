package sched

import (
	"fmt"

	"github.com/rs/zerolog"
)

// Scheduler holds the set of currently running commands and arbitrates
// exclusive access to subsystems.
//
// The scheduler is single-threaded by design: an external timing driver calls
// Run once per fixed cycle, and Schedule/Cancel/CancelAll must be called from
// the same goroutine (typically from trigger bindings or command callbacks
// running inside that cycle). No locking is performed.
type Scheduler struct {
	log zerolog.Logger

	// running preserves admission order; live mirrors it for O(1) membership.
	running []Command
	live    map[Command]bool

	// bindings maps each subsystem in use to the single command holding it.
	bindings map[Subsystem]Command

	// defaults is ordered by registration so idle-subsystem fallback is
	// deterministic.
	defaults []defaultEntry

	subsystems []Subsystem
	triggers   []*Trigger
}

type defaultEntry struct {
	sub     Subsystem
	factory func() Command
}

// periodic is an optional Subsystem capability, invoked once per cycle before
// any command executes. Typical use: read sensors, flush motor outputs,
// publish telemetry.
type periodic interface {
	Periodic()
}

// New returns an empty scheduler. The logger records admission rejections and
// misbehaving commands; pass zerolog.Nop() to discard.
func New(log zerolog.Logger) *Scheduler {
	return &Scheduler{
		log:      log,
		live:     make(map[Command]bool),
		bindings: make(map[Subsystem]Command),
	}
}

// Register adds a subsystem so its Periodic hook (if any) runs every cycle.
// Registering is optional for subsystems without a Periodic hook.
func (s *Scheduler) Register(sub Subsystem) {
	for _, existing := range s.subsystems {
		if existing == sub {
			return
		}
	}
	s.subsystems = append(s.subsystems, sub)
}

// IsRunning reports whether cmd is currently in the running set.
func (s *Scheduler) IsRunning(cmd Command) bool { return s.live[cmd] }

// Holder returns the command currently holding sub, if any.
func (s *Scheduler) Holder(sub Subsystem) (Command, bool) {
	cmd, ok := s.bindings[sub]
	return cmd, ok
}

// Schedule admits cmd, displacing any interruptible command that holds one of
// its required subsystems. Admission is atomic: if any required subsystem is
// held by a non-interruptible command, nothing is displaced or bound and
// Schedule returns false. Scheduling an already-running command is a no-op.
//
// The newest Schedule call always wins over a running command; there is no
// priority beyond recency.
func (s *Scheduler) Schedule(cmd Command) bool {
	if cmd == nil {
		return false
	}
	if s.live[cmd] {
		return true
	}

	reqs := dedupeRequirements(cmd.Requirements())
	for _, r := range reqs {
		if holder, held := s.bindings[r]; held && !isInterruptible(holder) {
			s.log.Debug().
				Str("command", commandName(cmd)).
				Str("holder", commandName(holder)).
				Str("subsystem", r.Name()).
				Msg("schedule rejected: subsystem locked")
			return false
		}
	}

	// Displace holders before the new command initializes.
	for _, r := range reqs {
		if holder, held := s.bindings[r]; held {
			s.retire(holder, true)
		}
	}

	for _, r := range reqs {
		s.bindings[r] = cmd
	}
	s.running = append(s.running, cmd)
	s.live[cmd] = true

	if !s.invoke(cmd, "initialize", cmd.Initialize) {
		s.retire(cmd, true)
		return false
	}
	return true
}

// Run advances the scheduler one cycle. In order: subsystem Periodic hooks,
// trigger polling, one Execute per running command (admission order, oldest
// first), the finished check (End(false) and release for commands reporting
// IsFinished), and default-command fallback for idle subsystems.
//
// Commands scheduled during a cycle first execute on the next cycle; commands
// cancelled during a cycle are skipped for the rest of it. A default command
// scheduled by the fallback step runs Initialize within the same Run call and
// its first Execute on the next one.
//
// Run never panics: a command callback that panics is logged and the command
// is forcibly retired as interrupted, while the rest of the cycle proceeds.
func (s *Scheduler) Run() {
	for _, sub := range s.subsystems {
		if p, ok := sub.(periodic); ok {
			s.invokeNamed(sub.Name(), "periodic", p.Periodic)
		}
	}

	for _, t := range s.triggers {
		t.poll(s)
	}

	snapshot := append([]Command(nil), s.running...)
	for _, cmd := range snapshot {
		if !s.live[cmd] {
			continue
		}
		if !s.invoke(cmd, "execute", cmd.Execute) {
			s.retire(cmd, true)
		}
	}

	snapshot = append(snapshot[:0], s.running...)
	for _, cmd := range snapshot {
		if !s.live[cmd] {
			continue
		}
		done, ok := s.invokeFinished(cmd)
		if !ok {
			s.retire(cmd, true)
			continue
		}
		if done {
			s.retire(cmd, false)
		}
	}

	for _, d := range s.defaults {
		if _, held := s.bindings[d.sub]; held {
			continue
		}
		s.Schedule(d.factory())
	}
}

// Cancel interrupts cmd immediately: End(true) runs and its subsystems are
// released before Cancel returns. Cancelling a command that is not running is
// a no-op.
func (s *Scheduler) Cancel(cmd Command) {
	if !s.live[cmd] {
		return
	}
	s.retire(cmd, true)
}

// CancelAll interrupts every running command, oldest first. Used on mode
// transitions so no stale command keeps acting under the new mode.
func (s *Scheduler) CancelAll() {
	snapshot := append([]Command(nil), s.running...)
	for _, cmd := range snapshot {
		if s.live[cmd] {
			s.retire(cmd, true)
		}
	}
}

// SetDefault registers factory as the fallback for sub: whenever a cycle ends
// with sub unbound, the scheduler admits factory(). The produced command must
// require exactly sub, or it could starve subsystems it also needs. Replaces
// any previous default for sub.
func (s *Scheduler) SetDefault(sub Subsystem, factory func() Command) error {
	if sub == nil {
		return fmt.Errorf("set default: nil subsystem")
	}
	if factory == nil {
		return fmt.Errorf("set default for %s: nil factory", sub.Name())
	}
	probe := factory()
	if probe == nil {
		return fmt.Errorf("set default for %s: factory returned nil", sub.Name())
	}
	reqs := dedupeRequirements(probe.Requirements())
	if len(reqs) != 1 || reqs[0] != sub {
		return fmt.Errorf("set default for %s: command %s must require exactly that subsystem",
			sub.Name(), commandName(probe))
	}
	for i := range s.defaults {
		if s.defaults[i].sub == sub {
			s.defaults[i].factory = factory
			return nil
		}
	}
	s.defaults = append(s.defaults, defaultEntry{sub: sub, factory: factory})
	return nil
}

// RemoveDefault deletes the default registration for sub, if any. A default
// command already running is not cancelled.
func (s *Scheduler) RemoveDefault(sub Subsystem) {
	for i := range s.defaults {
		if s.defaults[i].sub == sub {
			s.defaults = append(s.defaults[:i], s.defaults[i+1:]...)
			return
		}
	}
}

// retire removes cmd from the running set, releases all of its bindings and
// runs End. The unbind happens first so End sees the subsystems released.
func (s *Scheduler) retire(cmd Command, interrupted bool) {
	for sub, holder := range s.bindings {
		if holder == cmd {
			delete(s.bindings, sub)
		}
	}
	for i, c := range s.running {
		if c == cmd {
			s.running = append(s.running[:i], s.running[i+1:]...)
			break
		}
	}
	delete(s.live, cmd)
	s.invoke(cmd, "end", func() { cmd.End(interrupted) })
}

// invoke runs f, converting a panic into a log entry. Returns false on panic.
func (s *Scheduler) invoke(cmd Command, phase string, f func()) bool {
	return s.invokeNamed(commandName(cmd), phase, f)
}

func (s *Scheduler) invokeNamed(name, phase string, f func()) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			ok = false
			s.log.Error().
				Str("command", name).
				Str("phase", phase).
				Interface("panic", r).
				Msg("command callback panicked")
		}
	}()
	f()
	return true
}

func (s *Scheduler) invokeFinished(cmd Command) (done, ok bool) {
	ok = s.invoke(cmd, "isFinished", func() { done = cmd.IsFinished() })
	return done, ok
}
