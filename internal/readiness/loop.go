package readiness

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// ErrAttemptTimeout wraps the error of an attempt that ran out of time.
var ErrAttemptTimeout = errors.New("readiness attempt timed out")

// State is the readiness of the daemon as seen by one loop run.
type State string

const (
	// StateNotReady is the initial state.
	StateNotReady State = "not-ready"
	// StateReady is entered on the first successful attempt and never left.
	StateReady State = "ready"
)

// Outcome is the result of one attempt.
type Outcome string

const (
	// OutcomeSuccess means the prober returned nil.
	OutcomeSuccess Outcome = "success"
	// OutcomeFailure means the prober returned an error.
	OutcomeFailure Outcome = "failure"
)

// Attempt records one probe call.
type Attempt struct {
	// Seq is 1 for the first attempt of a run.
	Seq      int
	Outcome  Outcome
	At       time.Time
	Duration time.Duration
	Err      error
}

// Result summarizes a loop run.
type Result struct {
	State    State
	Attempts []Attempt
	Elapsed  time.Duration

	// Err is the context error when the run was cut short by cancellation.
	// Exhaustion is not an error: it is StateNotReady with a nil Err.
	Err error
}

// Ready reports whether an attempt succeeded.
func (r Result) Ready() bool {
	return r.State == StateReady
}

// Interrupted reports whether the run stopped because its context ended.
func (r Result) Interrupted() bool {
	return r.Err != nil
}

// Count returns the number of attempts made.
func (r Result) Count() int {
	return len(r.Attempts)
}

// LastError returns the error of the last failed attempt, or nil.
func (r Result) LastError() error {
	for i := len(r.Attempts) - 1; i >= 0; i-- {
		if r.Attempts[i].Err != nil {
			return r.Attempts[i].Err
		}
	}
	return nil
}

// Loop polls a Prober until it succeeds or MaxAttempts attempts failed.
// There is no backoff: attempts are Interval apart.
type Loop struct {
	Prober      Prober
	MaxAttempts int
	Interval    time.Duration

	// AttemptTimeout bounds each attempt. Zero means no per-attempt bound.
	AttemptTimeout time.Duration

	// Clock defaults to SystemClock.
	Clock Clock

	// Logger receives per-attempt failures at debug level. Nil discards them.
	Logger *slog.Logger

	// OnAttempt, when set, is called after every attempt.
	OnAttempt func(Attempt)
}

// Run executes the loop at a fixed rate: attempt k starts Interval*(k-1)
// after the first one, so the time an attempt takes is subtracted from the
// following sleep. An attempt that outlasts Interval delays the next one,
// which then starts without sleeping. No sleep follows the last attempt.
//
// When ctx ends, Run returns at once with Result.Err set and the state
// reached so far. An attempt interrupted by the cancellation is recorded.
func (l *Loop) Run(ctx context.Context) Result {
	clock := l.Clock
	if clock == nil {
		clock = SystemClock()
	}
	logger := l.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	start := clock.Now()
	result := Result{State: StateNotReady}

	for seq := 1; seq <= l.MaxAttempts; seq++ {
		if seq > 1 {
			wait := start.Add(time.Duration(seq-1) * l.Interval).Sub(clock.Now())
			if err := clock.Sleep(ctx, max(wait, 0)); err != nil {
				result.Err = err
				break
			}
		}
		if err := ctx.Err(); err != nil {
			result.Err = err
			break
		}

		attempt := l.attempt(ctx, clock, seq)
		result.Attempts = append(result.Attempts, attempt)
		if l.OnAttempt != nil {
			l.OnAttempt(attempt)
		}

		if attempt.Outcome == OutcomeSuccess {
			result.State = StateReady
			logger.Debug("readiness attempt succeeded",
				"attempt", seq,
				"duration", attempt.Duration)
			break
		}
		if err := ctx.Err(); err != nil {
			result.Err = err
			break
		}
		logger.Debug("readiness attempt failed",
			"attempt", seq,
			"max_attempts", l.MaxAttempts,
			"duration", attempt.Duration,
			"error", attempt.Err)
	}
	result.Elapsed = clock.Now().Sub(start)
	return result
}

func (l *Loop) attempt(ctx context.Context, clock Clock, seq int) Attempt {
	attemptCtx := ctx
	cancel := func() {}
	if l.AttemptTimeout > 0 {
		attemptCtx, cancel = context.WithTimeout(ctx, l.AttemptTimeout)
	}

	at := clock.Now()
	err := l.Prober.Probe(attemptCtx)
	duration := clock.Now().Sub(at)
	if err != nil && ctx.Err() == nil && errors.Is(attemptCtx.Err(), context.DeadlineExceeded) {
		err = fmt.Errorf("%w after %s: %w", ErrAttemptTimeout, l.AttemptTimeout, err)
	}
	cancel()

	outcome := OutcomeSuccess
	if err != nil {
		outcome = OutcomeFailure
	}
	return Attempt{
		Seq:      seq,
		Outcome:  outcome,
		At:       at,
		Duration: duration,
		Err:      err,
	}
}
