package dispatch

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"

	perrors "github.com/randalmurphal/pulse/pkg/pulse/errors"
	"github.com/randalmurphal/pulse/pkg/pulse/integration"
	"github.com/randalmurphal/pulse/pkg/pulse/observability"
)

// Config configures a Dispatcher. Every field is optional.
type Config struct {
	// Logger receives dispatch and fault logs. Default: slog.Default().
	Logger *slog.Logger

	// Metrics records fan-out and hook metrics. Default: no-op.
	Metrics observability.MetricsRecorder

	// Spans traces fan-outs and hooks. Default: no-op.
	Spans observability.SpanManager

	// DLQ receives failed hook invocations for later replay.
	DLQ DeadLetterQueue

	// Filter reports whether op should be applied to the integration with
	// the given key. Nil applies every operation everywhere.
	Filter func(op integration.Operation, key string) bool

	// OnFault is called on the worker for every isolated hook failure.
	OnFault func(err *perrors.Error)

	// Retry schedules replays of failed operations.
	// Default: errors.DefaultRetry.
	Retry perrors.RetryConfig

	// AbortGrace is how long Close waits for the in-flight hook after
	// cancelling it. Default: DefaultAbortGrace.
	AbortGrace time.Duration
}

// DefaultAbortGrace bounds the wait for a cancelled hook to return.
const DefaultAbortGrace = 250 * time.Millisecond

// job is one entry of the worker queue.
type job interface {
	run(d *Dispatcher)
}

// Dispatcher owns the ordered integrations and the single worker that
// applies operations to them.
type Dispatcher struct {
	integrations []integration.Integration
	byKey        map[string]integration.Integration
	cfg          Config

	mu     sync.Mutex
	queue  []job
	closed bool

	wake      chan struct{}
	done      chan struct{}
	ctx       context.Context
	abort     context.CancelFunc
	closeOnce sync.Once
	closeErr  error
}

// New creates a dispatcher and starts its worker. integrations is copied;
// its order is the dispatch order.
func New(integrations []integration.Integration, cfg Config) *Dispatcher {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Metrics == nil {
		cfg.Metrics = observability.NoopMetrics{}
	}
	if cfg.Spans == nil {
		cfg.Spans = observability.NoopSpanManager{}
	}
	if cfg.Retry.MaxAttempts <= 0 {
		cfg.Retry = perrors.DefaultRetry
	}
	if cfg.AbortGrace <= 0 {
		cfg.AbortGrace = DefaultAbortGrace
	}

	ordered := make([]integration.Integration, len(integrations))
	copy(ordered, integrations)
	byKey := make(map[string]integration.Integration, len(ordered))
	for _, in := range ordered {
		byKey[in.Key()] = in
	}

	ctx, cancel := context.WithCancel(context.Background())
	d := &Dispatcher{
		integrations: ordered,
		byKey:        byKey,
		cfg:          cfg,
		wake:         make(chan struct{}, 1),
		done:         make(chan struct{}),
		ctx:          ctx,
		abort:        cancel,
	}
	go d.loop()
	return d
}

// Integrations returns the integrations in dispatch order.
func (d *Dispatcher) Integrations() []integration.Integration {
	out := make([]integration.Integration, len(d.integrations))
	copy(out, d.integrations)
	return out
}

// Integration returns the integration registered under key.
func (d *Dispatcher) Integration(key string) (integration.Integration, bool) {
	in, ok := d.byKey[key]
	return in, ok
}

// Submit enqueues op for every integration. It never blocks on integration
// work.
func (d *Dispatcher) Submit(op integration.Operation) error {
	return d.enqueue(fanOutJob{op: op})
}

// Run enqueues fn to run on the worker after everything submitted before it.
func (d *Dispatcher) Run(fn func(ctx context.Context)) error {
	return d.enqueue(funcJob(fn))
}

// Barrier blocks until every operation submitted before it has been applied,
// or ctx is done.
func (d *Dispatcher) Barrier(ctx context.Context) error {
	reached := make(chan struct{})
	if err := d.enqueue(barrierJob(reached)); err != nil {
		return err
	}
	select {
	case <-reached:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Pending returns the number of queued jobs not yet started.
func (d *Dispatcher) Pending() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.queue)
}

// Close stops accepting work and drains the queue. If ctx ends first the
// remaining jobs are dropped, the in-flight hook's context is cancelled and
// Close waits up to AbortGrace for that hook to return before reporting
// ctx's error. A hook that ignores cancellation may still be running; Done
// tells when it has returned. Close is idempotent.
func (d *Dispatcher) Close(ctx context.Context) error {
	d.closeOnce.Do(func() {
		d.mu.Lock()
		d.closed = true
		d.mu.Unlock()
		d.signal()

		select {
		case <-d.done:
			observability.LogShutdown(d.cfg.Logger, 0, nil)
		case <-ctx.Done():
			d.abort()
			dropped := d.dropQueued()
			d.closeErr = ctx.Err()
			observability.LogShutdown(d.cfg.Logger, dropped, d.closeErr)

			grace := time.NewTimer(d.cfg.AbortGrace)
			defer grace.Stop()
			select {
			case <-d.done:
			case <-grace.C:
				d.cfg.Logger.Warn("integration hook still running after shutdown",
					slog.Duration("grace", d.cfg.AbortGrace),
				)
			}
		}
		d.abort()
	})
	return d.closeErr
}

// Done is closed once the worker has exited and no hook is running.
func (d *Dispatcher) Done() <-chan struct{} {
	return d.done
}

func (d *Dispatcher) enqueue(j job) error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return ErrClosed
	}
	d.queue = append(d.queue, j)
	d.mu.Unlock()

	d.cfg.Metrics.RecordQueueDepth(d.ctx, 1)
	d.signal()
	return nil
}

func (d *Dispatcher) signal() {
	select {
	case d.wake <- struct{}{}:
	default:
	}
}

// dropQueued discards queued jobs, releasing any barrier waiting among them.
func (d *Dispatcher) dropQueued() int {
	d.mu.Lock()
	dropped := d.queue
	d.queue = nil
	d.mu.Unlock()

	for _, j := range dropped {
		if b, ok := j.(barrierJob); ok {
			close(b)
		}
	}
	if len(dropped) > 0 {
		d.cfg.Metrics.RecordQueueDepth(context.Background(), -int64(len(dropped)))
	}
	return len(dropped)
}

func (d *Dispatcher) next() (job, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for len(d.queue) == 0 {
		if d.closed || d.ctx.Err() != nil {
			return nil, false
		}
		d.mu.Unlock()
		select {
		case <-d.wake:
		case <-d.ctx.Done():
		}
		d.mu.Lock()
	}
	if d.ctx.Err() != nil {
		return nil, false
	}
	j := d.queue[0]
	d.queue[0] = nil
	d.queue = d.queue[1:]
	return j, true
}

func (d *Dispatcher) loop() {
	defer close(d.done)
	for {
		j, ok := d.next()
		if !ok {
			return
		}
		d.cfg.Metrics.RecordQueueDepth(d.ctx, -1)
		j.run(d)
	}
}

// fanOut applies op to every integration in order.
func (d *Dispatcher) fanOut(op integration.Operation) {
	timer := observability.TimedOperation()
	start := time.Now()
	ctx, span := d.cfg.Spans.StartDispatchSpan(d.ctx, op.Name())

	delivered := 0
	for _, in := range d.integrations {
		if d.cfg.Filter != nil && !d.cfg.Filter(op, in.Key()) {
			d.cfg.Spans.AddSpanEvent(ctx, "integration.skipped", attribute.String("integration", in.Key()))
			continue
		}
		delivered++
		if err := d.apply(ctx, in, op); err != nil {
			d.fault(ctx, in, op, err)
		}
	}

	d.cfg.Spans.EndSpanWithError(span, nil)
	d.cfg.Metrics.RecordOperation(ctx, op.Name(), time.Since(start))
	observability.LogDispatch(d.cfg.Logger, op.Name(), delivered, timer())
}

// apply runs one hook inside the fault boundary. A returned error is always
// an *errors.Error of kind IntegrationFault.
func (d *Dispatcher) apply(ctx context.Context, in integration.Integration, op integration.Operation) (err error) {
	key := in.Key()
	ctx, span := d.cfg.Spans.StartIntegrationSpan(ctx, key, op.Name())
	start := time.Now()

	defer func() {
		if r := recover(); r != nil {
			err = perrors.NewPanicError(r)
		}
		if err != nil {
			err = perrors.IntegrationFault(key, op.Name(), err)
		}
		d.cfg.Spans.EndSpanWithError(span, err)
		d.cfg.Metrics.RecordIntegrationCall(ctx, key, op.Name(), time.Since(start), err)
	}()

	return op.Apply(ctx, in)
}

// fault reports an isolated hook failure.
func (d *Dispatcher) fault(ctx context.Context, in integration.Integration, op integration.Operation, err error) {
	observability.LogIntegrationFault(d.cfg.Logger, in.Key(), op.Name(), err)

	fe, _ := err.(*perrors.Error)
	if d.cfg.OnFault != nil && fe != nil {
		d.cfg.OnFault(fe)
	}

	if d.cfg.DLQ != nil {
		failed := NewFailedOperation(in.Key(), op, err)
		if dlqErr := d.cfg.DLQ.Enqueue(ctx, failed); dlqErr != nil {
			d.cfg.Logger.Warn("dead letter enqueue failed",
				slog.String("integration", in.Key()),
				slog.String("operation", op.Name()),
				slog.String("error", dlqErr.Error()),
			)
		}
	}
}

type fanOutJob struct {
	op integration.Operation
}

func (j fanOutJob) run(d *Dispatcher) { d.fanOut(j.op) }

type barrierJob chan struct{}

func (j barrierJob) run(*Dispatcher) { close(j) }

type funcJob func(ctx context.Context)

func (j funcJob) run(d *Dispatcher) {
	defer func() {
		if r := recover(); r != nil {
			d.cfg.Logger.Error("worker task panicked",
				slog.String("error", perrors.NewPanicError(r).Error()),
			)
		}
	}()
	j(d.ctx)
}
