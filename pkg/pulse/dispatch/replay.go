package dispatch

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/randalmurphal/pulse/pkg/pulse/integration"
	"github.com/randalmurphal/pulse/pkg/pulse/observability"
)

// Replay takes up to limit due failures from the dead letter queue and
// resubmits each against only the integration it failed on. Replays run on
// the worker in queue order with the other operations. It returns the number
// of replays submitted.
func (d *Dispatcher) Replay(ctx context.Context, limit int) (int, error) {
	if d.cfg.DLQ == nil {
		return 0, nil
	}
	due, err := d.cfg.DLQ.Dequeue(ctx, limit)
	if err != nil {
		return 0, err
	}

	submitted := 0
	for i, failed := range due {
		in, ok := d.byKey[failed.Integration]
		if !ok || failed.Op == nil {
			d.dlqFailed("park", failed, d.cfg.DLQ.Park(ctx, failed, "integration not registered"))
			observability.LogDeadLetter(d.cfg.Logger, failed.Integration, failed.Operation, failed.AttemptCount, "integration not registered")
			continue
		}
		if err := d.enqueue(replayJob{failed: failed, in: in}); err != nil {
			// Put back everything not yet submitted.
			for _, rest := range due[i:] {
				d.dlqFailed("requeue", rest, d.cfg.DLQ.Enqueue(ctx, rest))
			}
			return submitted, err
		}
		submitted++
	}
	return submitted, nil
}

type replayJob struct {
	failed *FailedOperation
	in     integration.Integration
}

func (j replayJob) run(d *Dispatcher) {
	f := j.failed
	ctx, span := d.cfg.Spans.StartDispatchSpan(d.ctx, f.Operation)
	err := d.apply(ctx, j.in, f.Op)
	d.cfg.Spans.EndSpanWithError(span, err)

	if err == nil {
		d.dlqFailed("acknowledge", f, d.cfg.DLQ.Acknowledge(ctx, f.ID))
		d.cfg.Logger.Info("replayed failed operation",
			slog.String("integration", f.Integration),
			slog.String("operation", f.Operation),
			slog.Int("attempts", f.AttemptCount+1),
		)
		return
	}

	observability.LogIntegrationFault(d.cfg.Logger, f.Integration, f.Operation, err)
	d.dlqFailed("record retry failure", f, d.cfg.DLQ.RecordRetryFailure(ctx, f, err))
}

// dlqFailed logs a dead letter queue call that returned err. A nil err is
// ignored.
func (d *Dispatcher) dlqFailed(action string, f *FailedOperation, err error) {
	if err == nil {
		return
	}
	d.cfg.Logger.Warn("dead letter "+action+" failed",
		slog.String("integration", f.Integration),
		slog.String("operation", f.Operation),
		slog.String("id", f.ID),
		slog.String("error", err.Error()),
	)
}

// Processor replays dead letters on a fixed interval.
type Processor struct {
	d   *Dispatcher
	cfg ProcessorConfig

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

// ProcessorConfig configures a Processor.
type ProcessorConfig struct {
	// BatchSize is the number of failures replayed per tick.
	// Default: 10
	BatchSize int

	// PollInterval is how often the queue is checked.
	// Default: 10 seconds
	PollInterval time.Duration
}

// DefaultProcessorConfig provides reasonable defaults.
var DefaultProcessorConfig = ProcessorConfig{
	BatchSize:    10,
	PollInterval: 10 * time.Second,
}

// NewProcessor creates a processor for d. It does nothing until Start.
func NewProcessor(d *Dispatcher, cfg ProcessorConfig) *Processor {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultProcessorConfig.BatchSize
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = DefaultProcessorConfig.PollInterval
	}
	return &Processor{d: d, cfg: cfg}
}

// Start begins polling until ctx is done or Stop is called.
func (p *Processor) Start(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.running {
		return
	}
	p.running = true
	p.stopCh = make(chan struct{})
	p.doneCh = make(chan struct{})
	go p.run(ctx, p.stopCh, p.doneCh)
}

// Stop halts polling and waits for the loop to exit.
func (p *Processor) Stop() {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return
	}
	p.running = false
	close(p.stopCh)
	done := p.doneCh
	p.mu.Unlock()
	<-done
}

func (p *Processor) run(ctx context.Context, stop, done chan struct{}) {
	defer close(done)
	ticker := time.NewTicker(p.cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-stop:
			return
		case <-ticker.C:
			if _, err := p.d.Replay(ctx, p.cfg.BatchSize); err != nil {
				p.d.cfg.Logger.Debug("dead letter replay stopped", slog.String("error", err.Error()))
			}
		}
	}
}
