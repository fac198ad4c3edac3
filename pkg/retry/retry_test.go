package retry

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errConflict = errors.New("conflict")

func TestDo_SucceedsFirstTry(t *testing.T) {
	calls := 0
	err := Do(context.Background(), func(context.Context) error {
		calls++
		return nil
	}, WithRetryable(IsTarget(errConflict)))
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestDo_RetriesRetryableUntilSuccess(t *testing.T) {
	calls := 0
	var retried []int
	err := Do(context.Background(), func(context.Context) error {
		calls++
		if calls < 3 {
			return fmt.Errorf("tx: %w", errConflict)
		}
		return nil
	},
		WithMaxAttempts(5),
		WithBaseDelay(time.Millisecond),
		WithRetryable(IsTarget(errConflict)),
		OnRetry(func(attempt int, _ error) { retried = append(retried, attempt) }),
	)
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
	assert.Equal(t, []int{1, 2}, retried)
}

func TestDo_PermanentErrorFailsFast(t *testing.T) {
	permanent := errors.New("validation")
	calls := 0
	err := Do(context.Background(), func(context.Context) error {
		calls++
		return permanent
	}, WithMaxAttempts(5), WithRetryable(IsTarget(errConflict)))
	assert.ErrorIs(t, err, permanent)
	assert.Equal(t, 1, calls)
}

func TestDo_ExhaustsAttempts(t *testing.T) {
	calls := 0
	err := Do(context.Background(), func(context.Context) error {
		calls++
		return errConflict
	}, WithMaxAttempts(3), WithBaseDelay(0), WithRetryable(IsTarget(errConflict)))
	assert.ErrorIs(t, err, errConflict)
	assert.Equal(t, 3, calls)
}

func TestDo_NoPredicateMeansNoRetry(t *testing.T) {
	calls := 0
	_ = Do(context.Background(), func(context.Context) error {
		calls++
		return errConflict
	}, WithMaxAttempts(4))
	assert.Equal(t, 1, calls)
}

func TestDo_ContextCancelledDuringBackoff(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	err := Do(ctx, func(context.Context) error {
		calls++
		cancel()
		return errConflict
	}, WithMaxAttempts(3), WithBaseDelay(time.Second), WithRetryable(IsTarget(errConflict)))
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}

func TestOptions_Invalid(t *testing.T) {
	fn := func(context.Context) error { return nil }
	assert.ErrorIs(t, Do(context.Background(), fn, WithMaxAttempts(0)), ErrInvalidMaxAttempts)
	assert.ErrorIs(t, Do(context.Background(), fn, WithBaseDelay(-time.Second)), ErrNegativeBaseDelay)
	assert.ErrorIs(t, Do(context.Background(), fn, WithJitterFactor(1.5)), ErrInvalidJitterFactor)
}
