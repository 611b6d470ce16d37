package dispatch

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	perrors "github.com/randalmurphal/pulse/pkg/pulse/errors"
	"github.com/randalmurphal/pulse/pkg/pulse/integration"
)

// DeadLetterQueue stores hook invocations that failed.
type DeadLetterQueue interface {
	// Enqueue adds a failure. Non-retryable failures are parked at once.
	Enqueue(ctx context.Context, failed *FailedOperation) error

	// Dequeue removes and returns up to limit failures due for retry,
	// oldest first.
	Dequeue(ctx context.Context, limit int) ([]*FailedOperation, error)

	// Acknowledge records a successful replay.
	Acknowledge(ctx context.Context, id string) error

	// RecordRetryFailure reschedules a failed replay or parks it once its
	// retries are exhausted.
	RecordRetryFailure(ctx context.Context, failed *FailedOperation, err error) error

	// Park moves a failure straight to the parked set.
	Park(ctx context.Context, failed *FailedOperation, reason string) error
}

// FailedOperation is one failed hook invocation.
type FailedOperation struct {
	ID            string
	Integration   string
	Operation     string
	Op            integration.Operation `json:"-"`
	Error         string
	Retryable     bool
	AttemptCount  int
	FirstFailedAt time.Time
	LastFailedAt  time.Time
	NextRetryAt   time.Time
}

// NewFailedOperation records that op failed on integration key with err.
func NewFailedOperation(key string, op integration.Operation, err error) *FailedOperation {
	now := time.Now()
	return &FailedOperation{
		ID:            uuid.New().String(),
		Integration:   key,
		Operation:     op.Name(),
		Op:            op,
		Error:         err.Error(),
		Retryable:     perrors.IsRetryable(err),
		AttemptCount:  1,
		FirstFailedAt: now,
		LastFailedAt:  now,
	}
}

// ParkedOperation is a failure that will not be retried automatically.
type ParkedOperation struct {
	FailedOperation
	ParkReason string
	ParkedAt   time.Time
}

// DLQConfig configures the in-memory dead letter queue.
type DLQConfig struct {
	// MaxSize limits the number of queued failures.
	// Default: 10000
	MaxSize int

	// MaxRetries is the number of replays before a failure is parked.
	// Default: 5. Use NoRetries=true to park every failure.
	MaxRetries int

	// NoRetries parks every failure on arrival.
	NoRetries bool

	// RetryDelay is the delay before the first retry.
	// Default: 1 minute
	RetryDelay time.Duration

	// Retry shapes the backoff between later retries. RetryDelay replaces
	// its InitialBackoff. Default: errors.DefaultRetry.
	Retry perrors.RetryConfig

	// OnEnqueue is called when a failure is queued.
	OnEnqueue func(*FailedOperation)

	// OnPark is called when a failure is parked.
	OnPark func(*ParkedOperation)
}

// DefaultDLQConfig provides reasonable defaults.
var DefaultDLQConfig = DLQConfig{
	MaxSize:    10000,
	MaxRetries: 5,
	RetryDelay: 1 * time.Minute,
	Retry:      perrors.DefaultRetry,
}

// DLQStats summarizes a dead letter queue.
type DLQStats struct {
	QueueSize  int   `json:"queue_size"`
	ParkedSize int   `json:"parked_size"`
	Enqueued   int64 `json:"enqueued"`
	Retried    int64 `json:"retried"`
	Parked     int64 `json:"parked"`
	Recovered  int64 `json:"recovered"`
}

// InMemoryDLQ is a DeadLetterQueue held in process memory.
type InMemoryDLQ struct {
	mu     sync.RWMutex
	queued map[string]*FailedOperation
	parked map[string]*ParkedOperation
	cfg    DLQConfig

	enqueued  int64
	retried   int64
	parkedN   int64
	recovered int64
}

var _ DeadLetterQueue = (*InMemoryDLQ)(nil)

// NewInMemoryDLQ creates an empty queue.
func NewInMemoryDLQ(cfg DLQConfig) *InMemoryDLQ {
	if cfg.MaxSize <= 0 {
		cfg.MaxSize = DefaultDLQConfig.MaxSize
	}
	if cfg.MaxRetries <= 0 && !cfg.NoRetries {
		cfg.MaxRetries = DefaultDLQConfig.MaxRetries
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = DefaultDLQConfig.RetryDelay
	}
	if cfg.Retry.BackoffFactor <= 0 {
		cfg.Retry = DefaultDLQConfig.Retry
	}
	cfg.Retry.InitialBackoff = cfg.RetryDelay

	return &InMemoryDLQ{
		queued: make(map[string]*FailedOperation),
		parked: make(map[string]*ParkedOperation),
		cfg:    cfg,
	}
}

// Enqueue adds a failure.
func (d *InMemoryDLQ) Enqueue(_ context.Context, failed *FailedOperation) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	switch {
	case !failed.Retryable:
		d.parkLocked(failed, "not retryable")
		return nil
	case d.cfg.NoRetries || failed.AttemptCount > d.cfg.MaxRetries:
		d.parkLocked(failed, "max retries exceeded")
		return nil
	}

	if len(d.queued) >= d.cfg.MaxSize {
		return ErrDLQFull
	}
	if failed.NextRetryAt.IsZero() {
		failed.NextRetryAt = time.Now().Add(d.cfg.RetryDelay)
	}

	d.queued[failed.ID] = failed
	d.enqueued++
	if d.cfg.OnEnqueue != nil {
		d.cfg.OnEnqueue(failed)
	}
	return nil
}

// Dequeue returns failures due for retry, oldest first.
func (d *InMemoryDLQ) Dequeue(_ context.Context, limit int) ([]*FailedOperation, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	now := time.Now()
	ready := make([]*FailedOperation, 0, len(d.queued))
	for _, f := range d.queued {
		if !f.NextRetryAt.After(now) {
			ready = append(ready, f)
		}
	}
	sort.Slice(ready, func(i, j int) bool {
		return ready[i].FirstFailedAt.Before(ready[j].FirstFailedAt)
	})
	if limit > 0 && len(ready) > limit {
		ready = ready[:limit]
	}
	for _, f := range ready {
		delete(d.queued, f.ID)
	}
	return ready, nil
}

// Acknowledge records a successful replay.
func (d *InMemoryDLQ) Acknowledge(_ context.Context, id string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	delete(d.queued, id)
	d.recovered++
	return nil
}

// RecordRetryFailure bumps the attempt count and reschedules with
// exponential backoff, parking once MaxRetries attempts have failed.
func (d *InMemoryDLQ) RecordRetryFailure(_ context.Context, failed *FailedOperation, err error) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	delete(d.queued, failed.ID)
	failed.AttemptCount++
	failed.LastFailedAt = time.Now()
	if err != nil {
		failed.Error = err.Error()
		failed.Retryable = perrors.IsRetryable(err)
	}

	if !failed.Retryable {
		d.parkLocked(failed, "not retryable")
		return nil
	}
	if failed.AttemptCount > d.cfg.MaxRetries {
		d.parkLocked(failed, "max retries exceeded")
		return nil
	}

	failed.NextRetryAt = failed.LastFailedAt.Add(perrors.Backoff(d.cfg.Retry, failed.AttemptCount))
	d.queued[failed.ID] = failed
	d.retried++
	return nil
}

// Park moves a failure to the parked set.
func (d *InMemoryDLQ) Park(_ context.Context, failed *FailedOperation, reason string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	delete(d.queued, failed.ID)
	d.parkLocked(failed, reason)
	return nil
}

func (d *InMemoryDLQ) parkLocked(failed *FailedOperation, reason string) {
	parked := &ParkedOperation{
		FailedOperation: *failed,
		ParkReason:      reason,
		ParkedAt:        time.Now(),
	}
	d.parked[failed.ID] = parked
	d.parkedN++
	if d.cfg.OnPark != nil {
		d.cfg.OnPark(parked)
	}
}

// Len returns the number of queued failures.
func (d *InMemoryDLQ) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.queued)
}

// Queued returns the queued failures, oldest first.
func (d *InMemoryDLQ) Queued() []FailedOperation {
	d.mu.RLock()
	defer d.mu.RUnlock()

	out := make([]FailedOperation, 0, len(d.queued))
	for _, f := range d.queued {
		out = append(out, *f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].FirstFailedAt.Before(out[j].FirstFailedAt) })
	return out
}

// Parked returns the parked failures, oldest first.
func (d *InMemoryDLQ) Parked() []ParkedOperation {
	d.mu.RLock()
	defer d.mu.RUnlock()

	out := make([]ParkedOperation, 0, len(d.parked))
	for _, p := range d.parked {
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ParkedAt.Before(out[j].ParkedAt) })
	return out
}

// RecoverParked moves a parked failure back to the queue with a fresh
// attempt count, due immediately.
func (d *InMemoryDLQ) RecoverParked(_ context.Context, id string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	parked, ok := d.parked[id]
	if !ok {
		return ErrNotFound
	}
	failed := parked.FailedOperation
	failed.AttemptCount = 1
	failed.Retryable = true
	failed.NextRetryAt = time.Now()

	d.queued[id] = &failed
	delete(d.parked, id)
	d.recovered++
	return nil
}

// DeleteParked permanently removes a parked failure.
func (d *InMemoryDLQ) DeleteParked(_ context.Context, id string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.parked[id]; !ok {
		return ErrNotFound
	}
	delete(d.parked, id)
	return nil
}

// Stats returns queue statistics.
func (d *InMemoryDLQ) Stats() DLQStats {
	d.mu.RLock()
	defer d.mu.RUnlock()

	return DLQStats{
		QueueSize:  len(d.queued),
		ParkedSize: len(d.parked),
		Enqueued:   d.enqueued,
		Retried:    d.retried,
		Parked:     d.parkedN,
		Recovered:  d.recovered,
	}
}
