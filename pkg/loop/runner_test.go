package loop

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/gwillem/robokit/pkg/sched"
	"github.com/gwillem/robokit/pkg/telemetry"
)

type fakeSubsystem struct{ name string }

func (s *fakeSubsystem) Name() string { return s.name }

func newTestRunner(t *testing.T, s *sched.Scheduler) *Runner {
	t.Helper()
	r, err := NewRunner(Config{
		Scheduler: s,
		Board:     telemetry.NewBoard(),
		Hz:        200,
		Log:       zerolog.Nop(),
	})
	if err != nil {
		t.Fatal(err)
	}
	return r
}

func TestNewRunner_RequiresScheduler(t *testing.T) {
	if _, err := NewRunner(Config{}); err == nil {
		t.Fatal("expected error for nil scheduler")
	}
}

func TestNewRunner_DefaultHz(t *testing.T) {
	r, err := NewRunner(Config{Scheduler: sched.New(zerolog.Nop())})
	if err != nil {
		t.Fatal(err)
	}
	if r.Hz() != 50 {
		t.Errorf("default Hz = %d, want 50", r.Hz())
	}
}

func TestRunner_StepAdvancesScheduler(t *testing.T) {
	s := sched.New(zerolog.Nop())
	r := newTestRunner(t, s)

	execs := 0
	s.Schedule(sched.Forever("spin", func() { execs++ }, &fakeSubsystem{"drive"}))

	r.step()
	r.step()
	if execs != 2 {
		t.Errorf("command executed %d times after two steps, want 2", execs)
	}
	if r.cycle != 2 {
		t.Errorf("cycle counter = %d, want 2", r.cycle)
	}
}

func TestRunner_ModeSwitchCancelsCommands(t *testing.T) {
	s := sched.New(zerolog.Nop())
	r := newTestRunner(t, s)

	interrupted := false
	cmd := &sched.FuncCommand{
		Name:  "auto-routine",
		Reqs:  []sched.Subsystem{&fakeSubsystem{"drive"}},
		OnEnd: func(i bool) { interrupted = i },
	}
	s.Schedule(cmd)

	hookRan := false
	r.OnMode(Teleop, func() { hookRan = true })
	r.SetMode(Teleop)
	r.step()

	if s.IsRunning(cmd) {
		t.Error("command survived a mode switch")
	}
	if !interrupted {
		t.Error("command not ended as interrupted on mode switch")
	}
	if !hookRan {
		t.Error("mode hook did not run")
	}
	if r.Mode() != Teleop {
		t.Errorf("mode = %s, want teleop", r.Mode())
	}
}

func TestRunner_ModeSwitchToSameModeIsNoop(t *testing.T) {
	s := sched.New(zerolog.Nop())
	r := newTestRunner(t, s)

	cmd := &sched.FuncCommand{Name: "idle", Reqs: []sched.Subsystem{&fakeSubsystem{"drive"}}}
	s.Schedule(cmd)

	r.SetMode(Disabled) // already disabled
	r.step()
	if !s.IsRunning(cmd) {
		t.Error("re-entering the current mode cancelled commands")
	}
}

func TestRunner_OnModeConcurrentWithLoop(t *testing.T) {
	s := sched.New(zerolog.Nop())
	r := newTestRunner(t, s)

	// Registering a hook while the loop steps must be safe, and the hook
	// must apply to the next switch into that mode.
	hookRan := make(chan struct{})
	registered := make(chan struct{})
	go func() {
		r.OnMode(Teleop, func() { close(hookRan) })
		close(registered)
	}()

	r.SetMode(Autonomous)
	r.step()
	<-registered

	r.SetMode(Teleop)
	r.step()
	select {
	case <-hookRan:
	default:
		t.Error("late-registered hook did not run on mode switch")
	}
}

func TestRunner_StatePublishing(t *testing.T) {
	s := sched.New(zerolog.Nop())
	r := newTestRunner(t, s)

	s.Schedule(sched.Forever("pub", func() { r.board.PutNumber("k", 7) }, &fakeSubsystem{"drive"}))
	r.step()

	select {
	case st := <-r.States():
		if st.Cycle != 1 {
			t.Errorf("cycle = %d, want 1", st.Cycle)
		}
		if got := st.Telemetry.Numbers["k"]; got != 7 {
			t.Errorf("telemetry k = %f, want 7", got)
		}
	default:
		t.Fatal("no state published after a step")
	}

	// A slow consumer only sees the most recent snapshot.
	s.Schedule(sched.Instant("bump", func() { r.board.PutNumber("k", 8) }, &fakeSubsystem{"arm"}))
	r.step()
	r.step()
	select {
	case st := <-r.States():
		if got := st.Telemetry.Numbers["k"]; got != 8 {
			t.Errorf("telemetry k = %f, want latest value 8", got)
		}
	default:
		t.Fatal("no state available")
	}
}

func TestRunner_StartStopsOnCancel(t *testing.T) {
	s := sched.New(zerolog.Nop())
	r := newTestRunner(t, s)

	cmd := &sched.FuncCommand{Name: "spin", Reqs: []sched.Subsystem{&fakeSubsystem{"drive"}}}
	s.Schedule(cmd)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- r.Start(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != context.Canceled {
			t.Errorf("Start returned %v, want context.Canceled", err)
		}
	case <-time.After(time.Second):
		t.Fatal("runner did not stop after cancellation")
	}
	if s.IsRunning(cmd) {
		t.Error("command survived shutdown")
	}
}
