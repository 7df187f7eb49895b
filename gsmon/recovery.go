package gsmon

import (
	"context"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/google/uuid"
)

// RecoveryOutcome is how a recovery episode resolved.
type RecoveryOutcome int

const (
	// Restored means a probe succeeded before the retries ran out.
	Restored RecoveryOutcome = iota
	// ExhaustedRetries means every retry failed. The caller is expected
	// to keep monitoring rather than give up.
	ExhaustedRetries
)

func (o RecoveryOutcome) String() string {
	if o == Restored {
		return "restored"
	}
	return "exhausted retries"
}

// Recoverer runs bounded recovery episodes against a single endpoint. At
// most one episode is active at a time; the monitor loop is sequential, so
// this needs no locking.
type Recoverer struct {
	// MaxRetries bounds the restore-then-reprobe attempts per episode.
	MaxRetries int
	// Delay is the wait between attempts; zero retries immediately.
	Delay time.Duration

	j        Journaler
	clock    clock.Clock
	probe    ProbeFunc
	restorer Restorer

	// newEpisode generates episode IDs; replaced in tests.
	newEpisode func() string
}

// NewRecoverer creates a recovery manager. The probe is typically the same
// journaled probe the monitor loop uses, so every re-probe lands in the
// log.
func NewRecoverer(probe ProbeFunc, restorer Restorer, maxRetries int, delay time.Duration, j Journaler) *Recoverer {
	return &Recoverer{
		MaxRetries: maxRetries,
		Delay:      delay,

		j:          j,
		clock:      clock.New(),
		probe:      probe,
		restorer:   restorer,
		newEpisode: uuid.NewString,
	}
}

// Recover runs one recovery episode. initial is the probe result that
// triggered the episode; if it is already reachable the episode resolves
// immediately with zero attempts. Otherwise up to MaxRetries attempts run,
// each performing the restore action and then re-probing. The first
// successful re-probe resolves the episode.
func (r *Recoverer) Recover(ctx context.Context, initial ProbeResult) RecoveryOutcome {
	episode := r.newEpisode()

	if initial.Reachable {
		r.j.Write(&EventRecovered{Episode: episode, Attempts: 0})
		return Restored
	}

	for seq := 1; seq <= r.MaxRetries; seq++ {
		if err := r.restorer.Restore(ctx); err != nil {
			r.j.Write(&EventWarning{
				Component: "recovery",
				Error:     err.Error(),
			})
		}

		res := r.probe(ctx)

		r.j.Write(&EventRecoveryAttempt{
			Episode:  episode,
			Seq:      seq,
			Max:      r.MaxRetries,
			Restored: res.Reachable,
		})

		if res.Reachable {
			r.j.Write(&EventRecovered{Episode: episode, Attempts: seq})
			return Restored
		}

		if r.Delay > 0 && seq < r.MaxRetries {
			select {
			case <-r.clock.After(r.Delay):
			case <-ctx.Done():
				// Shutdown mid-episode; report exhaustion so the episode
				// is never left unresolved.
				r.j.Write(&EventRecoveryExhausted{Episode: episode, Attempts: seq})
				return ExhaustedRetries
			}
		}
	}

	r.j.Write(&EventRecoveryExhausted{Episode: episode, Attempts: r.MaxRetries})
	return ExhaustedRetries
}
