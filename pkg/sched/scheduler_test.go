package sched

import (
	"errors"
	"fmt"
	"testing"

	"github.com/rs/zerolog"
)

// testSubsystem is a minimal subsystem for scheduler tests.
type testSubsystem struct{ name string }

func (s *testSubsystem) Name() string { return s.name }

// spyCommand records its lifecycle calls into a shared trace so tests can
// assert on cross-command ordering.
type spyCommand struct {
	name   string
	reqs   []Subsystem
	locked bool
	done   func() bool
	trace  *[]string

	initCount int
	execCount int
	endCount  int
}

func (c *spyCommand) record(event string) {
	if c.trace != nil {
		*c.trace = append(*c.trace, c.name+"."+event)
	}
}

func (c *spyCommand) Initialize() {
	c.initCount++
	c.record("init")
}

func (c *spyCommand) Execute() {
	c.execCount++
	c.record("exec")
}

func (c *spyCommand) IsFinished() bool {
	if c.done != nil {
		return c.done()
	}
	return false
}

func (c *spyCommand) End(interrupted bool) {
	c.endCount++
	c.record(fmt.Sprintf("end(%v)", interrupted))
}

func (c *spyCommand) Requirements() []Subsystem { return c.reqs }

func (c *spyCommand) Interruptible() bool { return !c.locked }

func (c *spyCommand) String() string { return c.name }

func newTestScheduler() *Scheduler {
	return New(zerolog.Nop())
}

func TestSchedule_MutualExclusion(t *testing.T) {
	s := newTestScheduler()
	drive := &testSubsystem{"drive"}
	arm := &testSubsystem{"arm"}

	a := &spyCommand{name: "a", reqs: []Subsystem{drive}}
	b := &spyCommand{name: "b", reqs: []Subsystem{drive, arm}}

	if !s.Schedule(a) {
		t.Fatal("schedule a failed")
	}
	if !s.Schedule(b) {
		t.Fatal("schedule b failed")
	}

	if s.IsRunning(a) {
		t.Error("a should have been displaced")
	}
	if holder, _ := s.Holder(drive); holder != b {
		t.Errorf("drive held by %v, want b", holder)
	}
	if holder, _ := s.Holder(arm); holder != b {
		t.Errorf("arm held by %v, want b", holder)
	}
}

func TestSchedule_AdmissionAtomicity(t *testing.T) {
	s := newTestScheduler()
	drive := &testSubsystem{"drive"}
	arm := &testSubsystem{"arm"}

	locked := &spyCommand{name: "locked", reqs: []Subsystem{drive}, locked: true}
	if !s.Schedule(locked) {
		t.Fatal("schedule locked failed")
	}

	// Needs both arm (free) and drive (locked): must be rejected whole.
	greedy := &spyCommand{name: "greedy", reqs: []Subsystem{arm, drive}}
	if s.Schedule(greedy) {
		t.Fatal("schedule should have been rejected")
	}

	if greedy.initCount != 0 {
		t.Errorf("rejected command initialized %d times", greedy.initCount)
	}
	if _, held := s.Holder(arm); held {
		t.Error("arm must not be bound after a rejected schedule")
	}
	if holder, _ := s.Holder(drive); holder != locked {
		t.Error("locked command lost its binding")
	}
	if locked.endCount != 0 {
		t.Error("locked command was ended")
	}
}

func TestSchedule_InterruptionOrdering(t *testing.T) {
	s := newTestScheduler()
	drive := &testSubsystem{"drive"}
	var trace []string

	a := &spyCommand{name: "a", reqs: []Subsystem{drive}, trace: &trace}
	b := &spyCommand{name: "b", reqs: []Subsystem{drive}, trace: &trace}

	s.Schedule(a)
	s.Schedule(b)

	want := []string{"a.init", "a.end(true)", "b.init"}
	assertTrace(t, trace, want)
	if a.endCount != 1 {
		t.Errorf("a ended %d times, want 1", a.endCount)
	}
}

func TestSchedule_Idempotent(t *testing.T) {
	s := newTestScheduler()
	drive := &testSubsystem{"drive"}
	a := &spyCommand{name: "a", reqs: []Subsystem{drive}}

	s.Schedule(a)
	if !s.Schedule(a) {
		t.Fatal("re-scheduling a running command should report success")
	}

	if a.initCount != 1 {
		t.Errorf("initialize ran %d times, want 1", a.initCount)
	}
	s.Run()
	if a.execCount != 1 {
		t.Errorf("execute ran %d times after one cycle, want 1", a.execCount)
	}
}

func TestSchedule_DuplicateRequirements(t *testing.T) {
	s := newTestScheduler()
	drive := &testSubsystem{"drive"}
	a := &spyCommand{name: "a", reqs: []Subsystem{drive, drive}}

	if !s.Schedule(a) {
		t.Fatal("schedule failed")
	}
	if holder, _ := s.Holder(drive); holder != a {
		t.Error("drive not bound to a")
	}
}

// The concrete scenario from the scheduler contract: A runs three cycles,
// then B displaces it on the shared subsystem.
func TestRun_DisplacementScenario(t *testing.T) {
	s := newTestScheduler()
	drive := &testSubsystem{"drive"}
	var trace []string

	a := &spyCommand{name: "a", reqs: []Subsystem{drive}, trace: &trace}
	s.Schedule(a)
	s.Run()
	s.Run()
	s.Run()

	if a.execCount != 3 {
		t.Fatalf("a executed %d times, want 3", a.execCount)
	}
	if a.endCount != 0 {
		t.Fatalf("a ended prematurely")
	}

	trace = trace[:0]
	b := &spyCommand{name: "b", reqs: []Subsystem{drive}, trace: &trace}
	s.Schedule(b)
	s.Run()

	assertTrace(t, trace, []string{"a.end(true)", "b.init", "b.exec"})
	if a.execCount != 3 {
		t.Errorf("a executed again after displacement")
	}
}

func TestRun_FinishedCommandRetires(t *testing.T) {
	s := newTestScheduler()
	drive := &testSubsystem{"drive"}

	cycles := 0
	a := &spyCommand{name: "a", reqs: []Subsystem{drive}}
	a.done = func() bool { return cycles >= 2 }

	s.Schedule(a)
	for i := 0; i < 3; i++ {
		cycles++
		s.Run()
	}

	if a.execCount != 2 {
		t.Errorf("a executed %d times, want 2", a.execCount)
	}
	if a.endCount != 1 {
		t.Errorf("a ended %d times, want 1", a.endCount)
	}
	if _, held := s.Holder(drive); held {
		t.Error("drive still bound after natural completion")
	}
	if s.IsRunning(a) {
		t.Error("a still in running set")
	}
}

func TestRun_ExecutionOrderIsAdmissionOrder(t *testing.T) {
	s := newTestScheduler()
	var trace []string

	first := &spyCommand{name: "first", reqs: []Subsystem{&testSubsystem{"s1"}}, trace: &trace}
	second := &spyCommand{name: "second", reqs: []Subsystem{&testSubsystem{"s2"}}, trace: &trace}
	third := &spyCommand{name: "third", trace: &trace}

	s.Schedule(first)
	s.Schedule(second)
	s.Schedule(third)
	trace = trace[:0]
	s.Run()

	assertTrace(t, trace, []string{"first.exec", "second.exec", "third.exec"})
}

func TestRun_DefaultFallback(t *testing.T) {
	s := newTestScheduler()
	arm := &testSubsystem{"arm"}

	d := &spyCommand{name: "default", reqs: []Subsystem{arm}}
	if err := s.SetDefault(arm, func() Command { return d }); err != nil {
		t.Fatal(err)
	}

	// No command ever scheduled for arm: the first cycle admits the default
	// (Initialize within the call), the second runs its first Execute.
	s.Run()
	if d.initCount != 1 {
		t.Fatalf("default initialized %d times after first cycle, want 1", d.initCount)
	}
	if !s.IsRunning(d) {
		t.Fatal("default not running after first cycle")
	}
	s.Run()
	if d.execCount != 1 {
		t.Errorf("default executed %d times after second cycle, want 1", d.execCount)
	}

	// A singleton default already running must not be re-admitted.
	s.Run()
	if d.initCount != 1 {
		t.Errorf("default re-initialized while running")
	}
}

func TestRun_DefaultYieldsToUserCommand(t *testing.T) {
	s := newTestScheduler()
	arm := &testSubsystem{"arm"}

	d := &spyCommand{name: "default", reqs: []Subsystem{arm}}
	if err := s.SetDefault(arm, func() Command { return d }); err != nil {
		t.Fatal(err)
	}
	s.Run()

	user := &spyCommand{name: "user", reqs: []Subsystem{arm}}
	s.Schedule(user)
	if s.IsRunning(d) {
		t.Error("default still running after user command took the subsystem")
	}
	if d.endCount != 1 {
		t.Errorf("default ended %d times, want 1", d.endCount)
	}

	// User command finishes; the default comes back at the end of the cycle.
	user.done = func() bool { return true }
	s.Run()
	if !s.IsRunning(d) {
		t.Error("default not rescheduled after subsystem went idle")
	}
}

func TestSetDefault_RequiresExactSubsystem(t *testing.T) {
	s := newTestScheduler()
	arm := &testSubsystem{"arm"}
	drive := &testSubsystem{"drive"}

	tests := []struct {
		name string
		reqs []Subsystem
		ok   bool
	}{
		{"exact", []Subsystem{arm}, true},
		{"none", nil, false},
		{"extra", []Subsystem{arm, drive}, false},
		{"wrong", []Subsystem{drive}, false},
	}

	for _, tt := range tests {
		cmd := &spyCommand{name: tt.name, reqs: tt.reqs}
		err := s.SetDefault(arm, func() Command { return cmd })
		if tt.ok && err != nil {
			t.Errorf("%s: unexpected error: %v", tt.name, err)
		}
		if !tt.ok && err == nil {
			t.Errorf("%s: expected error", tt.name)
		}
	}
}

func TestCancel(t *testing.T) {
	s := newTestScheduler()
	drive := &testSubsystem{"drive"}
	a := &spyCommand{name: "a", reqs: []Subsystem{drive}}

	s.Schedule(a)
	s.Cancel(a)

	if s.IsRunning(a) {
		t.Error("a still running after cancel")
	}
	if a.endCount != 1 {
		t.Errorf("a ended %d times, want 1", a.endCount)
	}
	if _, held := s.Holder(drive); held {
		t.Error("drive still bound after cancel")
	}

	// Cancelling again is a no-op.
	s.Cancel(a)
	if a.endCount != 1 {
		t.Error("cancel is not idempotent")
	}
}

func TestCancelAll(t *testing.T) {
	s := newTestScheduler()
	var trace []string

	a := &spyCommand{name: "a", reqs: []Subsystem{&testSubsystem{"s1"}}, trace: &trace}
	b := &spyCommand{name: "b", reqs: []Subsystem{&testSubsystem{"s2"}}, locked: true, trace: &trace}

	s.Schedule(a)
	s.Schedule(b)
	trace = trace[:0]
	s.CancelAll()

	// CancelAll interrupts even non-interruptible commands, oldest first.
	assertTrace(t, trace, []string{"a.end(true)", "b.end(true)"})
	if len(s.running) != 0 || len(s.bindings) != 0 {
		t.Error("scheduler not empty after CancelAll")
	}
}

func TestRun_PanicIsolation(t *testing.T) {
	s := newTestScheduler()
	var trace []string

	bad := &FuncCommand{
		Name:   "bad",
		Reqs:   []Subsystem{&testSubsystem{"s1"}},
		OnExec: func() { panic(errors.New("boom")) },
		OnEnd:  func(interrupted bool) { trace = append(trace, fmt.Sprintf("bad.end(%v)", interrupted)) },
	}
	good := &spyCommand{name: "good", reqs: []Subsystem{&testSubsystem{"s2"}}, trace: &trace}

	s.Schedule(bad)
	s.Schedule(good)
	trace = trace[:0]
	s.Run()

	// The panicking command is retired as interrupted; the other command's
	// cycle still runs.
	assertTrace(t, trace, []string{"bad.end(true)", "good.exec"})
	if s.IsRunning(bad) {
		t.Error("panicking command still running")
	}
	if !s.IsRunning(good) {
		t.Error("healthy command retired")
	}
}

func TestRun_PanicInIsFinished(t *testing.T) {
	s := newTestScheduler()
	bad := &FuncCommand{
		Name:     "bad",
		Finished: func() bool { panic("boom") },
	}
	s.Schedule(bad)
	s.Run()
	if s.IsRunning(bad) {
		t.Error("command with panicking IsFinished still running")
	}
}

func TestSchedule_PanicInInitialize(t *testing.T) {
	s := newTestScheduler()
	drive := &testSubsystem{"drive"}
	bad := &FuncCommand{
		Name:   "bad",
		Reqs:   []Subsystem{drive},
		OnInit: func() { panic("boom") },
	}
	if s.Schedule(bad) {
		t.Error("schedule reported success after Initialize panicked")
	}
	if _, held := s.Holder(drive); held {
		t.Error("drive left bound by a command that failed to initialize")
	}
}

func TestCancelDuringCycleSkipsExecution(t *testing.T) {
	s := newTestScheduler()
	var trace []string

	victim := &spyCommand{name: "victim", reqs: []Subsystem{&testSubsystem{"s2"}}, trace: &trace}
	killer := &FuncCommand{
		Name:   "killer",
		Reqs:   []Subsystem{&testSubsystem{"s1"}},
		OnExec: func() { s.Cancel(victim) },
	}

	s.Schedule(killer)
	s.Schedule(victim)
	trace = trace[:0]
	s.Run()

	// killer executes first (older) and cancels victim, so victim must not
	// execute this cycle.
	assertTrace(t, trace, []string{"victim.end(true)"})
}

func TestScheduleDuringCycleExecutesNextCycle(t *testing.T) {
	s := newTestScheduler()
	var trace []string

	late := &spyCommand{name: "late", reqs: []Subsystem{&testSubsystem{"s2"}}, trace: &trace}
	sq := sequenceLikeScheduleOnce(s, late)
	s.Schedule(sq)

	trace = trace[:0]
	s.Run()
	assertTrace(t, trace, []string{"late.init"})
	s.Run()
	if late.execCount != 1 {
		t.Errorf("late executed %d times on the next cycle, want 1", late.execCount)
	}
}

// sequenceLikeScheduleOnce returns a command that schedules target from
// within its first Execute, then finishes.
func sequenceLikeScheduleOnce(s *Scheduler, target Command) Command {
	fired := false
	return &FuncCommand{
		Name: "spawner",
		Reqs: []Subsystem{&testSubsystem{"s1"}},
		OnExec: func() {
			if !fired {
				fired = true
				s.Schedule(target)
			}
		},
		Finished: func() bool { return fired },
	}
}

func assertTrace(t *testing.T, got, want []string) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("trace = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("trace[%d] = %q, want %q (full: %v)", i, got[i], want[i], got)
		}
	}
}
