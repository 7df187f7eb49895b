package gsmon

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/benbjohnson/clock"
)

// State is the monitor loop's current state.
type State int32

const (
	StateIdle State = iota
	StateProbing
	StateRecovering
	StateMaintaining
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateProbing:
		return "probing"
	case StateRecovering:
		return "recovering"
	case StateMaintaining:
		return "maintaining"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// Monitor drives the probe/recover/maintain cycle for a single endpoint.
// The loop is strictly sequential: one probe, then at most one recovery
// episode, then maintenance if due, then a blocking sleep.
type Monitor struct {
	// Interval is the sleep between ticks.
	Interval time.Duration

	clock     clock.Clock
	probe     ProbeFunc
	recoverer *Recoverer
	sched     *Scheduler

	state int32
}

// NewMonitor creates the top-level monitor loop. Journaling happens in the
// probe, recoverer and scheduler; the loop itself only sequences them. Run
// must be called to start it.
func NewMonitor(interval time.Duration, probe ProbeFunc, recoverer *Recoverer, sched *Scheduler) *Monitor {
	return &Monitor{
		Interval:  interval,
		clock:     clock.New(),
		probe:     probe,
		recoverer: recoverer,
		sched:     sched,
	}
}

// State returns the loop's current state.
func (m *Monitor) State() State {
	return State(atomic.LoadInt32(&m.state))
}

func (m *Monitor) setState(s State) {
	atomic.StoreInt32(&m.state, int32(s))
}

// Run executes ticks until the context is canceled, then transitions to
// Stopped. Cancellation takes effect at the next safe point: a running
// probe, recovery episode or maintenance cycle completes first.
func (m *Monitor) Run(ctx context.Context) {
	for ctx.Err() == nil {
		m.tick(ctx)

		if ctx.Err() != nil {
			break
		}

		select {
		case <-ctx.Done():
		case <-m.clock.After(m.Interval):
		}
	}

	m.setState(StateStopped)
}

// tick is one full iteration: probe, recovery if the probe failed,
// maintenance if due.
func (m *Monitor) tick(ctx context.Context) {
	m.setState(StateProbing)
	res := m.probe(ctx)

	if !res.Reachable {
		m.setState(StateRecovering)

		// Both outcomes terminate the episode; exhaustion is already
		// journaled at critical severity and the loop degrades to plain
		// monitoring on the next tick.
		m.recoverer.Recover(ctx, res)
	}

	m.setState(StateIdle)

	if ctx.Err() != nil {
		return
	}

	if now := m.clock.Now(); m.sched.Due(now) {
		m.setState(StateMaintaining)
		m.sched.Run(now)
		m.setState(StateIdle)
	}
}
