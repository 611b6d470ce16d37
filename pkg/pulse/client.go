package pulse

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"runtime"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/robfig/cron/v3"

	"github.com/randalmurphal/pulse/pkg/pulse/dispatch"
	perrors "github.com/randalmurphal/pulse/pkg/pulse/errors"
	"github.com/randalmurphal/pulse/pkg/pulse/integration"
	"github.com/randalmurphal/pulse/pkg/pulse/lifecycle"
	"github.com/randalmurphal/pulse/pkg/pulse/observability"
	"github.com/randalmurphal/pulse/pkg/pulse/payload"
	"github.com/randalmurphal/pulse/pkg/pulse/registry"
	"github.com/randalmurphal/pulse/pkg/pulse/settings"
	"github.com/randalmurphal/pulse/pkg/pulse/store"
)

// Version is reported in the library section of every payload context.
const Version = "0.3.0"

// liveTags holds the tags of clients that have not shut down.
var liveTags = registry.New[string, struct{}]()

// Client is the dispatch core. It validates emission calls, builds payloads
// and submits operations to the serial dispatcher. All methods are safe for
// concurrent use.
type Client struct {
	cfg    clientConfig
	logger *slog.Logger

	store     store.Store
	ownsStore bool
	identity  *identity
	plan      atomic.Pointer[settings.Plan]
	optOut    atomic.Bool
	context   *payload.ValueMap

	dispatcher *dispatch.Dispatcher
	observer   *lifecycle.Observer
	processor  *dispatch.Processor
	scheduler  *cron.Cron
	unregister func()

	// owned are factory-created integrations closed on shutdown.
	owned []io.Closer

	closed       atomic.Bool
	shutdownOnce sync.Once
	shutdownErr  error
}

// New creates a client, builds its integrations and starts the dispatcher.
func New(opts ...Option) (*Client, error) {
	cfg := defaultClientConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	if cfg.tag != "" && !liveTags.Add(cfg.tag, struct{}{}) {
		return nil, fmt.Errorf("%w: %s", ErrDuplicateTag, cfg.tag)
	}

	c := &Client{cfg: cfg, logger: cfg.logger}
	if err := c.init(); err != nil {
		c.release()
		return nil, err
	}
	return c, nil
}

func (c *Client) init() error {
	switch {
	case c.cfg.store != nil:
		c.store = c.cfg.store
	case c.cfg.storePath != "":
		s, err := store.NewSQLiteStore(c.cfg.storePath)
		if err != nil {
			return fmt.Errorf("open store: %w", err)
		}
		c.store, c.ownsStore = s, true
	default:
		c.store, c.ownsStore = store.NewMemoryStore(), true
	}

	id, err := loadIdentity(c.store, c.logger)
	if err != nil {
		return err
	}
	c.identity = id

	var optOut bool
	if _, err := store.LoadJSON(c.store, store.NamespacePrefs, store.KeyOptOut, &optOut); err != nil {
		return fmt.Errorf("load opt-out: %w", err)
	}
	c.optOut.Store(optOut)

	if c.cfg.settings != nil {
		c.plan.Store(c.cfg.settings.Plan)
	}
	c.context = c.baseContext()

	if c.cfg.flushSchedule != "" {
		c.scheduler = cron.New()
		if _, err := c.scheduler.AddFunc(c.cfg.flushSchedule, c.scheduledFlush); err != nil {
			return fmt.Errorf("invalid flush schedule %q: %w", c.cfg.flushSchedule, err)
		}
	}

	integrations, err := c.buildIntegrations()
	if err != nil {
		return err
	}

	c.dispatcher = dispatch.New(integrations, dispatch.Config{
		Logger:  c.logger,
		Metrics: c.cfg.metrics,
		Spans:   c.cfg.spans,
		DLQ:     c.cfg.dlq,
		Filter:  c.allows,
	})

	c.observer = lifecycle.New(c, lifecycle.Config{
		TrackApplicationLifecycleEvents: c.cfg.trackApplicationLifecycleEvents,
		TrackDeepLinks:                  c.cfg.trackDeepLinks,
		RecordScreenViews:               c.cfg.recordScreenViews,
		App:                             c.cfg.app,
	}, lifecycle.WithLogger(c.logger), lifecycle.WithMetrics(c.cfg.metrics))

	if c.scheduler != nil {
		c.scheduler.Start()
	}
	if c.cfg.dlq != nil && c.cfg.replay != nil {
		c.processor = dispatch.NewProcessor(c.dispatcher, *c.cfg.replay)
		c.processor.Start(context.Background())
	}

	if c.cfg.source != nil {
		c.unregister = c.cfg.source.Register(c.observer)
	}
	return nil
}

// buildIntegrations returns the explicit integrations followed by those
// created from factories. A factory whose key is absent from loaded
// settings is skipped, as is one that creates nil. Created integrations that
// implement io.Closer are closed when the client shuts down.
func (c *Client) buildIntegrations() ([]integration.Integration, error) {
	built := registry.New[string, integration.Integration]()
	add := func(in integration.Integration) error {
		if !built.Add(in.Key(), in) {
			return fmt.Errorf("duplicate integration key %q", in.Key())
		}
		return nil
	}

	for _, in := range c.cfg.integrations {
		if in == nil {
			continue
		}
		if err := add(in); err != nil {
			return nil, err
		}
	}

	for _, f := range c.cfg.factories {
		if c.cfg.settings != nil {
			if _, ok := c.cfg.settings.Integrations[f.Key()]; !ok {
				c.logger.Debug("integration not in settings", slog.String("integration", f.Key()))
				continue
			}
		}
		in, err := f.Create(c.cfg.settings.For(f.Key()), observability.EnrichLogger(c.logger, f.Key(), ""))
		if err != nil {
			return nil, fmt.Errorf("create integration %q: %w", f.Key(), err)
		}
		if in == nil {
			continue
		}
		if closer, ok := in.(io.Closer); ok {
			c.owned = append(c.owned, closer)
		}
		if err := add(in); err != nil {
			return nil, err
		}
	}
	return built.Values(), nil
}

func (c *Client) baseContext() *payload.ValueMap {
	ctx := payload.NewValueMap().
		Put("library", payload.NewValueMap().Put("name", "pulse").Put("version", Version)).
		Put("os", payload.NewValueMap().Put("name", runtime.GOOS).Put("arch", runtime.GOARCH))
	if !c.cfg.app.IsZero() {
		ctx.Put("app", payload.NewValueMap().
			Put(payload.PropertyVersion, c.cfg.app.Version).
			Put(payload.PropertyBuild, c.cfg.app.Build))
	}
	return ctx.PutAll(c.cfg.defaultContext)
}

// allows applies the tracking plan and per-call switches.
func (c *Client) allows(op integration.Operation, key string) bool {
	po, ok := op.(integration.PayloadOperation)
	if !ok {
		return true
	}
	return c.plan.Load().Allows(po.Payload(), key)
}

// options overlays the default context, including the cached traits, with
// the caller's options.
func (c *Client) options(opts *payload.Options, traits *payload.Traits) *payload.Options {
	defaults := c.context.Clone().Put("traits", traits)
	return opts.WithDefaultContext(defaults)
}

// Track records that the user performed event.
func (c *Client) Track(event string, props *payload.Properties, opts *payload.Options) error {
	if c.closed.Load() {
		return ErrShutdown
	}
	id, traits := c.identity.snapshot()
	p, err := payload.NewTrack(id, event, props, c.options(opts, traits))
	if err != nil {
		observability.LogPayloadRejected(c.logger, integration.OpTrack, err)
		return err
	}
	return c.enqueue(integration.Track{P: p})
}

// Identify associates the current user with userID and merges traits into
// the cached traits.
func (c *Client) Identify(userID string, traits *payload.Traits, opts *payload.Options) error {
	if c.closed.Load() {
		return ErrShutdown
	}
	id, merged, commit := c.identity.identify(userID, traits)
	p, err := payload.NewIdentify(id, merged, c.options(opts, merged))
	if err != nil {
		observability.LogPayloadRejected(c.logger, integration.OpIdentify, err)
		return err
	}
	commit()
	return c.enqueue(integration.Identify{P: p})
}

// Screen records a screen view.
func (c *Client) Screen(name, category string, props *payload.Properties, opts *payload.Options) error {
	if c.closed.Load() {
		return ErrShutdown
	}
	id, traits := c.identity.snapshot()
	p, err := payload.NewScreen(id, name, category, props, c.options(opts, traits))
	if err != nil {
		observability.LogPayloadRejected(c.logger, integration.OpScreen, err)
		return err
	}
	return c.enqueue(integration.ScreenView{P: p})
}

// Group associates the current user with groupID.
func (c *Client) Group(groupID string, traits *payload.Traits, opts *payload.Options) error {
	if c.closed.Load() {
		return ErrShutdown
	}
	id, cached := c.identity.snapshot()
	p, err := payload.NewGroup(id, groupID, traits, c.options(opts, cached))
	if err != nil {
		observability.LogPayloadRejected(c.logger, integration.OpGroup, err)
		return err
	}
	return c.enqueue(integration.Group{P: p})
}

// Alias links newID to the current user id, or to the anonymous id when no
// user is identified.
func (c *Client) Alias(newID string, opts *payload.Options) error {
	if c.closed.Load() {
		return ErrShutdown
	}
	id, traits := c.identity.snapshot()
	p, err := payload.NewAlias(id, newID, c.options(opts, traits))
	if err != nil {
		observability.LogPayloadRejected(c.logger, integration.OpAlias, err)
		return err
	}
	return c.enqueue(integration.Alias{P: p})
}

// enqueue submits a payload operation unless the user opted out.
func (c *Client) enqueue(op integration.PayloadOperation) error {
	if c.optOut.Load() {
		return nil
	}
	return c.Submit(op)
}

// Submit enqueues op for every integration. It is the primitive behind every
// emission call and the way to run custom operations on the worker.
func (c *Client) Submit(op integration.Operation) error {
	if err := c.dispatcher.Submit(op); err != nil {
		if errors.Is(err, dispatch.ErrClosed) {
			return ErrShutdown
		}
		return err
	}
	return nil
}

// Flush asks every integration to flush. It does not wait.
func (c *Client) Flush() error {
	if c.closed.Load() {
		return ErrShutdown
	}
	return c.Submit(integration.Flush{})
}

// FlushAndWait flushes and waits until every operation submitted before it,
// the flush included, has been applied.
func (c *Client) FlushAndWait(ctx context.Context) error {
	if err := c.Flush(); err != nil {
		return err
	}
	if err := c.dispatcher.Barrier(ctx); err != nil {
		if errors.Is(err, dispatch.ErrClosed) {
			return ErrShutdown
		}
		return err
	}
	return nil
}

func (c *Client) scheduledFlush() {
	if err := c.Flush(); err != nil && !errors.Is(err, ErrShutdown) {
		c.logger.Warn("scheduled flush failed", slog.String("error", err.Error()))
	}
}

// Reset clears the user id and cached traits, issues a new anonymous id and
// asks every integration to reset.
func (c *Client) Reset() error {
	if c.closed.Load() {
		return ErrShutdown
	}
	c.identity.rotate()
	return c.Submit(integration.Reset{})
}

// OnIntegrationReady runs fn on the worker with the underlying instance of
// the integration registered under key, or nil when there is none.
func (c *Client) OnIntegrationReady(key string, fn func(instance any)) error {
	if strings.TrimSpace(key) == "" {
		return perrors.InvalidArgument("key", "key cannot be null or empty")
	}
	if c.closed.Load() {
		return ErrShutdown
	}
	err := c.dispatcher.Run(func(context.Context) {
		var instance any
		if in, ok := c.dispatcher.Integration(key); ok {
			instance = in.UnderlyingInstance()
		}
		fn(instance)
	})
	if errors.Is(err, dispatch.ErrClosed) {
		return ErrShutdown
	}
	return err
}

// OptOut stops (true) or resumes (false) sending payloads. The choice is
// persisted.
func (c *Client) OptOut(optOut bool) {
	c.optOut.Store(optOut)
	if err := store.SaveJSON(c.store, store.NamespacePrefs, store.KeyOptOut, optOut); err != nil {
		c.logger.Warn("failed to persist opt-out", slog.String("error", err.Error()))
	}
}

// OptedOut reports whether the user opted out.
func (c *Client) OptedOut() bool { return c.optOut.Load() }

// SetSettings replaces the tracking plan. Integrations are not rebuilt.
func (c *Client) SetSettings(s *settings.Settings) {
	if s == nil {
		c.plan.Store(nil)
		return
	}
	c.plan.Store(s.Plan)
}

// WatchSettings reloads the tracking plan whenever the settings file at
// path changes, until ctx is done.
func (c *Client) WatchSettings(ctx context.Context, path string) error {
	return settings.Watch(ctx, path, func(s *settings.Settings, err error) {
		if err != nil {
			c.logger.Warn("settings reload failed", slog.String("path", path), slog.String("error", err.Error()))
			return
		}
		c.SetSettings(s)
		c.logger.Info("settings reloaded", slog.String("path", path))
	})
}

// AnonymousID returns the current anonymous id.
func (c *Client) AnonymousID() string {
	id, _ := c.identity.snapshot()
	return id.AnonymousID
}

// UserID returns the identified user id, or "".
func (c *Client) UserID() string {
	id, _ := c.identity.snapshot()
	return id.UserID
}

// Traits returns a copy of the cached traits.
func (c *Client) Traits() *payload.Traits {
	_, traits := c.identity.snapshot()
	return traits
}

// Observer returns the lifecycle observer. Hosts without a LifecycleSource
// can drive it directly.
func (c *Client) Observer() *lifecycle.Observer { return c.observer }

// IntegrationKeys returns the keys of the active integrations in dispatch
// order.
func (c *Client) IntegrationKeys() []string {
	ins := c.dispatcher.Integrations()
	keys := make([]string, len(ins))
	for i, in := range ins {
		keys[i] = in.Key()
	}
	return keys
}

// Dispatcher returns the underlying dispatcher.
func (c *Client) Dispatcher() *dispatch.Dispatcher { return c.dispatcher }

// DLQ returns the dead letter queue, or nil.
func (c *Client) DLQ() dispatch.DeadLetterQueue { return c.cfg.dlq }

// Tag returns the client tag, or "".
func (c *Client) Tag() string { return c.cfg.tag }

// Shutdown stops the client. It unregisters from the host, stops scheduled
// flushes and replays, and drains the dispatcher within the shutdown
// timeout. Later calls return the first call's result.
func (c *Client) Shutdown(ctx context.Context) error {
	c.shutdownOnce.Do(func() {
		c.closed.Store(true)
		if c.unregister != nil {
			c.unregister()
		}
		if c.scheduler != nil {
			<-c.scheduler.Stop().Done()
		}
		if c.processor != nil {
			c.processor.Stop()
		}

		ctx, cancel := context.WithTimeout(ctx, c.cfg.shutdownTimeout)
		defer cancel()
		c.shutdownErr = c.dispatcher.Close(ctx)
		c.release()
	})
	return c.shutdownErr
}

// release frees what New acquired: factory-created integrations, the owned
// store and the tag. Integrations and the store are closed only once the
// dispatcher's worker has exited, so no hook sees a closed client.
func (c *Client) release() {
	if c.cfg.tag != "" {
		liveTags.Delete(c.cfg.tag)
	}
	if c.dispatcher == nil {
		c.closeResources()
		return
	}
	select {
	case <-c.dispatcher.Done():
		c.closeResources()
	default:
		c.logger.Warn("deferring integration close until the running hook returns")
		go func() {
			<-c.dispatcher.Done()
			c.closeResources()
		}()
	}
}

func (c *Client) closeResources() {
	for _, closer := range c.owned {
		if err := closer.Close(); err != nil {
			c.logger.Warn("failed to close integration", slog.String("error", err.Error()))
		}
	}
	if c.ownsStore && c.store != nil {
		if err := c.store.Close(); err != nil {
			c.logger.Warn("failed to close store", slog.String("error", err.Error()))
		}
	}
}

var _ lifecycle.Dispatcher = (*Client)(nil)
