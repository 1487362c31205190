// Package runner executes reconciliations off the caller's goroutine so a
// front end can stay responsive and report progress while a run is going.
package runner

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"timesheet-reconciliation/internal/domain"
	"timesheet-reconciliation/internal/logging"
)

// Pipeline performs one complete reconciliation.
type Pipeline interface {
	Run(ctx context.Context, params domain.RunParams) (*domain.RunResult, error)
}

// Outcome is delivered exactly once per started run.
type Outcome struct {
	RunID    string
	Result   *domain.RunResult
	Err      error
	Duration time.Duration
}

// Runner allows at most one run in flight.
type Runner struct {
	pipeline Pipeline
	busy     atomic.Bool
}

// New creates a Runner around the given pipeline.
func New(pipeline Pipeline) *Runner {
	return &Runner{pipeline: pipeline}
}

// Busy reports whether a run is in progress.
func (r *Runner) Busy() bool {
	return r.busy.Load()
}

// Start launches a run in the background and returns its id together with a
// channel that receives the Outcome and is then closed. It fails with
// ErrRunInProgress while another run has not finished.
func (r *Runner) Start(ctx context.Context, params domain.RunParams) (string, <-chan Outcome, error) {
	if !r.busy.CompareAndSwap(false, true) {
		return "", nil, domain.ErrRunInProgress
	}

	runID := uuid.New().String()
	log := logging.FromContext(ctx).With().Str("run_id", runID).Logger()
	ctx = logging.WithLogger(ctx, &log)

	done := make(chan Outcome, 1)
	go func() {
		defer close(done)
		started := time.Now()
		log.Info().
			Str("protime", params.ProtimeDir).
			Str("agency", params.AgencyDir).
			Msg("Reconciliation started")

		result, err := r.safeRun(ctx, params)
		outcome := Outcome{RunID: runID, Result: result, Err: err, Duration: time.Since(started)}
		if err != nil {
			log.Error().Err(err).Dur("duration", outcome.Duration).Msg("Reconciliation failed")
		} else {
			log.Info().Str("report", result.OutputPath).Dur("duration", outcome.Duration).Msg("Reconciliation finished")
		}

		r.busy.Store(false)
		done <- outcome
	}()
	return runID, done, nil
}

// Run starts a run and waits for its outcome.
func (r *Runner) Run(ctx context.Context, params domain.RunParams) (Outcome, error) {
	_, done, err := r.Start(ctx, params)
	if err != nil {
		return Outcome{}, err
	}
	return <-done, nil
}

func (r *Runner) safeRun(ctx context.Context, params domain.RunParams) (result *domain.RunResult, err error) {
	defer func() {
		if p := recover(); p != nil {
			result, err = nil, fmt.Errorf("reconciliation panicked: %v", p)
		}
	}()
	return r.pipeline.Run(ctx, params)
}
