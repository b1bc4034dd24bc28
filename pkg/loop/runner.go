// Package loop drives a scheduler at a fixed cadence.
package loop

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/gwillem/robokit/pkg/sched"
	"github.com/gwillem/robokit/pkg/telemetry"
)

// Mode is the robot's operating mode. Switching modes cancels every running
// command so nothing stale keeps acting under the new mode.
type Mode int

const (
	Disabled Mode = iota
	Autonomous
	Teleop
)

func (m Mode) String() string {
	switch m {
	case Autonomous:
		return "autonomous"
	case Teleop:
		return "teleop"
	default:
		return "disabled"
	}
}

// State is a per-cycle snapshot published to dashboard consumers.
type State struct {
	Telemetry telemetry.Snapshot
	Mode      Mode
	Cycle     uint64
	Timestamp time.Time
}

// Runner invokes a scheduler once per fixed period. The scheduler itself is
// single-threaded; everything the runner does to it happens on the Start
// goroutine. Mode switches requested from other goroutines are applied at the
// top of the next cycle.
type Runner struct {
	sched *sched.Scheduler
	board *telemetry.Board
	hz    int
	log   zerolog.Logger

	mu      sync.Mutex
	running bool
	mode    Mode
	pending *Mode
	hooks   map[Mode]func()

	cycle   uint64
	stateCh chan State
	logCh   chan string
}

// Config holds configuration for a runner.
type Config struct {
	Scheduler *sched.Scheduler
	Board     *telemetry.Board
	Hz        int // cycle frequency, default 50 (20 ms period)
	Log       zerolog.Logger
}

// NewRunner creates a runner. The scheduler is required; the board may be nil
// if no dashboard is attached.
func NewRunner(cfg Config) (*Runner, error) {
	if cfg.Scheduler == nil {
		return nil, fmt.Errorf("create runner: nil scheduler")
	}
	if cfg.Hz <= 0 {
		cfg.Hz = 50
	}
	return &Runner{
		sched:   cfg.Scheduler,
		board:   cfg.Board,
		hz:      cfg.Hz,
		log:     cfg.Log,
		hooks:   make(map[Mode]func()),
		stateCh: make(chan State, 1),
		logCh:   make(chan string, 10),
	}, nil
}

// Hz returns the cycle frequency.
func (r *Runner) Hz() int { return r.hz }

// Mode returns the current operating mode.
func (r *Runner) Mode() Mode {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.pending != nil {
		return *r.pending
	}
	return r.mode
}

// SetMode requests a mode switch. The switch is applied at the top of the
// next cycle: every running command is interrupted, then the new mode's hook
// (if any) runs. Safe to call from any goroutine.
func (r *Runner) SetMode(m Mode) {
	r.mu.Lock()
	r.pending = &m
	r.mu.Unlock()
}

// OnMode registers a hook that runs on the control loop goroutine right after
// a switch into m. Typical use: scheduling an autonomous routine. Safe to
// call from any goroutine.
func (r *Runner) OnMode(m Mode, hook func()) {
	r.mu.Lock()
	r.hooks[m] = hook
	r.mu.Unlock()
}

// States returns a channel carrying one snapshot per cycle. Slow consumers
// see only the most recent snapshot.
func (r *Runner) States() <-chan State {
	return r.stateCh
}

// Logs returns a channel that receives log lines for dashboard display.
func (r *Runner) Logs() <-chan string {
	return r.logCh
}

func (r *Runner) logf(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	r.log.Info().Msg(msg)
	line := fmt.Sprintf("[%s] %s", time.Now().Format("15:04:05"), msg)
	select {
	case r.logCh <- line:
	default:
		// Drop if channel full
	}
}

// Start runs the cycle loop until ctx is cancelled. On shutdown every running
// command is interrupted before Start returns.
func (r *Runner) Start(ctx context.Context) error {
	r.mu.Lock()
	if r.running {
		r.mu.Unlock()
		return fmt.Errorf("already running")
	}
	r.running = true
	r.mu.Unlock()

	r.logf("Control loop started at %d Hz (%s)", r.hz, r.Mode())

	ticker := time.NewTicker(time.Second / time.Duration(r.hz))
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.shutdown()
			return ctx.Err()
		case <-ticker.C:
			r.step()
		}
	}
}

func (r *Runner) step() {
	r.applyPendingMode()

	r.sched.Run()
	r.cycle++

	snap := telemetry.Snapshot{}
	if r.board != nil {
		snap = r.board.Snapshot()
	}
	r.sendState(State{
		Telemetry: snap,
		Mode:      r.mode,
		Cycle:     r.cycle,
		Timestamp: time.Now(),
	})
}

func (r *Runner) applyPendingMode() {
	r.mu.Lock()
	pending := r.pending
	r.pending = nil
	r.mu.Unlock()

	if pending == nil || *pending == r.mode {
		return
	}

	r.sched.CancelAll()
	prev := r.mode
	r.mu.Lock()
	r.mode = *pending
	hook := r.hooks[r.mode]
	r.mu.Unlock()
	r.logf("Mode: %s -> %s", prev, r.mode)
	if r.board != nil {
		r.board.PutString("mode", r.mode.String())
	}
	if hook != nil {
		hook()
	}
}

func (r *Runner) sendState(s State) {
	select {
	case r.stateCh <- s:
	default:
		// Drop old state if channel full, replace with new
		select {
		case <-r.stateCh:
		default:
		}
		r.stateCh <- s
	}
}

func (r *Runner) shutdown() {
	r.sched.CancelAll()
	r.mu.Lock()
	r.running = false
	r.mu.Unlock()
	r.logf("Control loop stopped")
}
