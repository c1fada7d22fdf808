// Package circuitbreaker gates whether an operation class is attempted at
// all. Each class owns an independent three-state breaker: repeated
// consecutive failures open it, an open breaker fails fast without any
// network call, and after a cooldown exactly one trial request probes
// recovery.
package circuitbreaker

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/ahrav/go-checkmate/internal/metrics"

	llmerrors "github.com/ahrav/go-checkmate/internal/llm/errors"
)

// State represents the current state of a circuit breaker.
type State int32

const (
	// StateClosed allows requests through.
	StateClosed State = iota
	// StateOpen blocks all requests.
	StateOpen
	// StateHalfOpen allows a single trial request.
	StateHalfOpen
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// Config controls one breaker's thresholds.
type Config struct {
	// FailureThreshold is the consecutive-failure count that opens the breaker.
	FailureThreshold int
	// OpenTimeout is the cooldown before an open breaker admits a trial.
	OpenTimeout time.Duration
}

// Snapshot is a point-in-time view of a breaker for health reporting.
type Snapshot struct {
	Class               string    `json:"class"`
	State               string    `json:"state"`
	ConsecutiveFailures int       `json:"consecutive_failures"`
	LastFailure         time.Time `json:"last_failure,omitempty"`
}

// Breaker is a per-operation-class circuit breaker. It is the only shared
// mutable state in the invocation subsystem: concurrent callers observe and
// contribute to the same failure tally through atomic operations. State
// transitions happen at call time; there are no background timers and no
// I/O.
type Breaker struct {
	class string
	cfg   Config

	state       atomic.Int32
	failures    atomic.Int32
	lastFailure atomic.Int64 // unix nanos
	trial       atomic.Bool  // half-open trial slot

	logger *slog.Logger
}

// New creates a closed breaker for the given operation class.
func New(class string, cfg Config) *Breaker {
	b := &Breaker{
		class:  class,
		cfg:    cfg,
		logger: slog.Default().With("component", "circuitbreaker", "class", class),
	}
	b.state.Store(int32(StateClosed))
	metrics.BreakerState.WithLabelValues(class).Set(float64(StateClosed))
	return b
}

// Execute runs op under the breaker's gate. When the breaker is open the
// operation is not attempted and a CircuitBreakerError is returned
// immediately; otherwise op's outcome feeds the failure tally.
func (b *Breaker) Execute(ctx context.Context, op func(context.Context) error) error {
	if err := b.allow(); err != nil {
		metrics.BreakerRejections.WithLabelValues(b.class).Inc()
		return err
	}

	err := op(ctx)
	if err != nil {
		b.recordFailure()
		return err
	}
	b.recordSuccess()
	return nil
}

// State returns the breaker's current state.
func (b *Breaker) State() State {
	return State(b.state.Load())
}

// Snapshot returns a point-in-time view for health reporting.
func (b *Breaker) Snapshot() Snapshot {
	snap := Snapshot{
		Class:               b.class,
		State:               b.State().String(),
		ConsecutiveFailures: int(b.failures.Load()),
	}
	if nanos := b.lastFailure.Load(); nanos > 0 {
		snap.LastFailure = time.Unix(0, nanos)
	}
	return snap
}

// Reset manually closes the breaker and clears all counters.
func (b *Breaker) Reset() {
	b.transitionTo(StateClosed)
	b.failures.Store(0)
	b.lastFailure.Store(0)
	b.trial.Store(false)
}

// allow decides whether a request may proceed. The open-to-half-open
// transition is evaluated here, at call time, once the cooldown has elapsed.
func (b *Breaker) allow() error {
	for {
		switch State(b.state.Load()) {
		case StateClosed:
			return nil

		case StateOpen:
			last := time.Unix(0, b.lastFailure.Load())
			if time.Since(last) <= b.cfg.OpenTimeout {
				return &llmerrors.CircuitBreakerError{
					Class:   b.class,
					State:   StateOpen.String(),
					ResetAt: last.Add(b.cfg.OpenTimeout).Unix(),
				}
			}
			if b.state.CompareAndSwap(int32(StateOpen), int32(StateHalfOpen)) {
				b.trial.Store(false)
				b.logTransition(StateOpen, StateHalfOpen)
			}
			// Re-evaluate as half-open (or whatever a concurrent caller made it).
			continue

		case StateHalfOpen:
			if b.trial.CompareAndSwap(false, true) {
				return nil
			}
			return &llmerrors.CircuitBreakerError{
				Class: b.class,
				State: StateHalfOpen.String(),
			}

		default:
			return &llmerrors.CircuitBreakerError{Class: b.class, State: "unknown"}
		}
	}
}

// recordSuccess resets the tally in the closed state and closes the breaker
// after a successful half-open trial.
func (b *Breaker) recordSuccess() {
	for {
		state := State(b.state.Load())
		switch state {
		case StateClosed:
			b.failures.Store(0)
			return

		case StateHalfOpen:
			if b.state.CompareAndSwap(int32(StateHalfOpen), int32(StateClosed)) {
				b.failures.Store(0)
				b.trial.Store(false)
				b.logTransition(StateHalfOpen, StateClosed)
				return
			}
			continue

		case StateOpen:
			// Success landing after a concurrent transition; nothing to record.
			return
		}
	}
}

// recordFailure advances the consecutive-failure tally and opens the
// breaker at the threshold or after a failed half-open trial.
func (b *Breaker) recordFailure() {
	b.lastFailure.Store(time.Now().UnixNano())

	for {
		state := State(b.state.Load())
		switch state {
		case StateClosed:
			failures := b.failures.Add(1)
			if int(failures) < b.cfg.FailureThreshold {
				return
			}
			if b.state.CompareAndSwap(int32(StateClosed), int32(StateOpen)) {
				b.failures.Store(0)
				b.logTransition(StateClosed, StateOpen)
				return
			}
			continue

		case StateHalfOpen:
			if b.state.CompareAndSwap(int32(StateHalfOpen), int32(StateOpen)) {
				b.failures.Store(0)
				b.trial.Store(false)
				b.logTransition(StateHalfOpen, StateOpen)
				return
			}
			continue

		case StateOpen:
			return
		}
	}
}

// transitionTo forces a state change, used only by Reset.
func (b *Breaker) transitionTo(newState State) {
	old := State(b.state.Swap(int32(newState)))
	if old != newState {
		b.logTransition(old, newState)
	}
}

func (b *Breaker) logTransition(from, to State) {
	metrics.BreakerState.WithLabelValues(b.class).Set(float64(to))
	b.logger.Info("circuit breaker state transition",
		"from", from.String(),
		"to", to.String())
}
