package dispatch_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/randalmurphal/pulse/pkg/pulse/dispatch"
	perrors "github.com/randalmurphal/pulse/pkg/pulse/errors"
	"github.com/randalmurphal/pulse/pkg/pulse/integration"
)

func fault(key string, err error) error {
	return perrors.IntegrationFault(key, integration.OpTrack, err)
}

func TestInMemoryDLQ(t *testing.T) {
	ctx := context.Background()
	dlq := dispatch.NewInMemoryDLQ(dispatch.DLQConfig{
		MaxSize:    100,
		MaxRetries: 3,
		RetryDelay: 10 * time.Millisecond,
	})

	failed := dispatch.NewFailedOperation("Redis", trackOp("Signed Up"), fault("Redis", errors.New("timeout")))
	assert.True(t, failed.Retryable)
	assert.Equal(t, 1, failed.AttemptCount)
	require.NoError(t, dlq.Enqueue(ctx, failed))
	assert.Equal(t, 1, dlq.Len())

	// Not due yet
	due, err := dlq.Dequeue(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, due)

	time.Sleep(20 * time.Millisecond)

	due, err = dlq.Dequeue(ctx, 10)
	require.NoError(t, err)
	require.Len(t, due, 1)
	assert.Equal(t, failed.ID, due[0].ID)
	assert.Equal(t, 0, dlq.Len())

	require.NoError(t, dlq.Acknowledge(ctx, failed.ID))
	stats := dlq.Stats()
	assert.Equal(t, int64(1), stats.Enqueued)
	assert.Equal(t, int64(1), stats.Recovered)
}

func TestInMemoryDLQ_ParksPanics(t *testing.T) {
	var parked []*dispatch.ParkedOperation
	dlq := dispatch.NewInMemoryDLQ(dispatch.DLQConfig{
		OnPark: func(p *dispatch.ParkedOperation) { parked = append(parked, p) },
	})

	err := fault("Broken", perrors.NewPanicError("boom"))
	failed := dispatch.NewFailedOperation("Broken", trackOp("E"), err)
	assert.False(t, failed.Retryable)

	require.NoError(t, dlq.Enqueue(context.Background(), failed))
	assert.Equal(t, 0, dlq.Len())
	require.Len(t, parked, 1)
	assert.Equal(t, "not retryable", parked[0].ParkReason)
	assert.Len(t, dlq.Parked(), 1)
}

func TestInMemoryDLQ_NoRetries(t *testing.T) {
	dlq := dispatch.NewInMemoryDLQ(dispatch.DLQConfig{NoRetries: true})
	failed := dispatch.NewFailedOperation("Redis", trackOp("E"), fault("Redis", errors.New("x")))
	require.NoError(t, dlq.Enqueue(context.Background(), failed))

	parked := dlq.Parked()
	require.Len(t, parked, 1)
	assert.Equal(t, "max retries exceeded", parked[0].ParkReason)
}

func TestInMemoryDLQ_RetryFailureBacksOffThenParks(t *testing.T) {
	ctx := context.Background()
	dlq := dispatch.NewInMemoryDLQ(dispatch.DLQConfig{
		MaxRetries: 2,
		RetryDelay: time.Millisecond,
		Retry:      perrors.RetryConfig{BackoffFactor: 2, MaxBackoff: time.Second},
	})

	failed := dispatch.NewFailedOperation("Redis", trackOp("E"), fault("Redis", errors.New("x")))
	require.NoError(t, dlq.Enqueue(ctx, failed))

	require.NoError(t, dlq.RecordRetryFailure(ctx, failed, fault("Redis", errors.New("still down"))))
	assert.Equal(t, 2, failed.AttemptCount)
	assert.Equal(t, 1, dlq.Len())
	assert.True(t, failed.NextRetryAt.After(failed.LastFailedAt))
	assert.Contains(t, failed.Error, "still down")

	require.NoError(t, dlq.RecordRetryFailure(ctx, failed, fault("Redis", errors.New("still down"))))
	assert.Equal(t, 0, dlq.Len())
	require.Len(t, dlq.Parked(), 1)
	assert.Equal(t, 3, dlq.Parked()[0].AttemptCount)
}

func TestInMemoryDLQ_MaxSize(t *testing.T) {
	ctx := context.Background()
	dlq := dispatch.NewInMemoryDLQ(dispatch.DLQConfig{MaxSize: 1})

	require.NoError(t, dlq.Enqueue(ctx, dispatch.NewFailedOperation("A", trackOp("1"), fault("A", errors.New("x")))))
	err := dlq.Enqueue(ctx, dispatch.NewFailedOperation("A", trackOp("2"), fault("A", errors.New("x"))))
	assert.ErrorIs(t, err, dispatch.ErrDLQFull)
}

func TestInMemoryDLQ_RecoverAndDeleteParked(t *testing.T) {
	ctx := context.Background()
	dlq := dispatch.NewInMemoryDLQ(dispatch.DLQConfig{NoRetries: true})

	first := dispatch.NewFailedOperation("A", trackOp("1"), fault("A", errors.New("x")))
	second := dispatch.NewFailedOperation("A", trackOp("2"), fault("A", errors.New("x")))
	require.NoError(t, dlq.Enqueue(ctx, first))
	require.NoError(t, dlq.Enqueue(ctx, second))

	require.NoError(t, dlq.RecoverParked(ctx, first.ID))
	assert.Equal(t, 1, dlq.Len())
	due, err := dlq.Dequeue(ctx, 0)
	require.NoError(t, err)
	require.Len(t, due, 1)
	assert.Equal(t, 1, due[0].AttemptCount)

	require.NoError(t, dlq.DeleteParked(ctx, second.ID))
	assert.Empty(t, dlq.Parked())
	assert.ErrorIs(t, dlq.DeleteParked(ctx, second.ID), dispatch.ErrNotFound)
	assert.ErrorIs(t, dlq.RecoverParked(ctx, "missing"), dispatch.ErrNotFound)
}
