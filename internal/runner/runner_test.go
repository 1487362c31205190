package runner

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"timesheet-reconciliation/internal/domain"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type pipelineFunc func(ctx context.Context, params domain.RunParams) (*domain.RunResult, error)

func (f pipelineFunc) Run(ctx context.Context, params domain.RunParams) (*domain.RunResult, error) {
	return f(ctx, params)
}

func TestRunner_DeliversOutcome(t *testing.T) {
	want := &domain.RunResult{OutputPath: "out/Reports/diff_report_20260309_143005.xlsx"}
	r := New(pipelineFunc(func(ctx context.Context, params domain.RunParams) (*domain.RunResult, error) {
		assert.Equal(t, "p", params.ProtimeDir)
		return want, nil
	}))

	runID, done, err := r.Start(context.Background(), domain.RunParams{ProtimeDir: "p"})
	require.NoError(t, err)
	assert.Len(t, runID, 36)

	outcome, ok := <-done
	require.True(t, ok)
	assert.Equal(t, runID, outcome.RunID)
	assert.Same(t, want, outcome.Result)
	assert.NoError(t, outcome.Err)

	_, ok = <-done
	assert.False(t, ok, "channel is closed after the outcome")
	assert.False(t, r.Busy())
}

func TestRunner_RejectsConcurrentStart(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{})
	r := New(pipelineFunc(func(ctx context.Context, params domain.RunParams) (*domain.RunResult, error) {
		close(started)
		<-release
		return &domain.RunResult{}, nil
	}))

	_, done, err := r.Start(context.Background(), domain.RunParams{})
	require.NoError(t, err)
	<-started
	assert.True(t, r.Busy())

	_, second, err := r.Start(context.Background(), domain.RunParams{})
	assert.ErrorIs(t, err, domain.ErrRunInProgress)
	assert.Nil(t, second)

	close(release)
	<-done
	assert.False(t, r.Busy())

	outcome, err := r.Run(context.Background(), domain.RunParams{})
	require.NoError(t, err)
	assert.NoError(t, outcome.Err)
}

func TestRunner_PropagatesErrors(t *testing.T) {
	noMatch := &domain.NoMatchError{ProtimeWeeks: &domain.WeekRange{Start: 1, End: 5}}
	r := New(pipelineFunc(func(ctx context.Context, params domain.RunParams) (*domain.RunResult, error) {
		return nil, noMatch
	}))

	outcome, err := r.Run(context.Background(), domain.RunParams{})
	require.NoError(t, err)
	assert.Nil(t, outcome.Result)
	assert.ErrorIs(t, outcome.Err, domain.ErrNoMatch)

	var got *domain.NoMatchError
	require.True(t, errors.As(outcome.Err, &got))
	assert.Same(t, noMatch, got)
}

func TestRunner_RecoversPanics(t *testing.T) {
	r := New(pipelineFunc(func(ctx context.Context, params domain.RunParams) (*domain.RunResult, error) {
		panic("boom")
	}))

	outcome, err := r.Run(context.Background(), domain.RunParams{})
	require.NoError(t, err)
	assert.ErrorContains(t, outcome.Err, "boom")
	assert.False(t, r.Busy())
}

func TestRunner_HonoursCancellation(t *testing.T) {
	r := New(pipelineFunc(func(ctx context.Context, params domain.RunParams) (*domain.RunResult, error) {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(5 * time.Second):
			return &domain.RunResult{}, nil
		}
	}))

	ctx, cancel := context.WithCancel(context.Background())
	_, done, err := r.Start(ctx, domain.RunParams{})
	require.NoError(t, err)
	cancel()

	outcome := <-done
	assert.ErrorIs(t, outcome.Err, context.Canceled)
}
