package pulse

import (
	"log/slog"
	"time"

	"github.com/randalmurphal/pulse/pkg/pulse/config"
	"github.com/randalmurphal/pulse/pkg/pulse/dispatch"
	"github.com/randalmurphal/pulse/pkg/pulse/host"
	"github.com/randalmurphal/pulse/pkg/pulse/integration"
	"github.com/randalmurphal/pulse/pkg/pulse/observability"
	"github.com/randalmurphal/pulse/pkg/pulse/payload"
	"github.com/randalmurphal/pulse/pkg/pulse/settings"
	"github.com/randalmurphal/pulse/pkg/pulse/store"
)

// DefaultShutdownTimeout bounds the drain performed by Shutdown.
const DefaultShutdownTimeout = 5 * time.Second

// clientConfig holds client construction settings.
type clientConfig struct {
	logger       *slog.Logger
	integrations []integration.Integration
	factories    []integration.Factory
	settings     *settings.Settings
	store        store.Store
	storePath    string
	app          host.AppInfo
	source       host.LifecycleSource

	trackApplicationLifecycleEvents bool
	trackDeepLinks                  bool
	recordScreenViews               bool

	metrics observability.MetricsRecorder
	spans   observability.SpanManager
	dlq     dispatch.DeadLetterQueue
	replay  *dispatch.ProcessorConfig

	flushSchedule   string
	shutdownTimeout time.Duration
	tag             string
	defaultContext  *payload.ValueMap
}

func defaultClientConfig() clientConfig {
	return clientConfig{
		logger:          slog.Default(),
		metrics:         observability.NoopMetrics{},
		spans:           observability.NoopSpanManager{},
		shutdownTimeout: DefaultShutdownTimeout,
		defaultContext:  payload.NewValueMap(),
	}
}

// Option configures a Client.
type Option func(*clientConfig)

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(c *clientConfig) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithIntegrations adds integration instances. They dispatch before any
// integration built from a factory, in the order given.
func WithIntegrations(integrations ...integration.Integration) Option {
	return func(c *clientConfig) {
		c.integrations = append(c.integrations, integrations...)
	}
}

// WithFactories adds integration factories. Each is created with its
// settings from WithSettings, in the order given.
func WithFactories(factories ...integration.Factory) Option {
	return func(c *clientConfig) {
		c.factories = append(c.factories, factories...)
	}
}

// WithSettings sets the project settings: per-integration settings and the
// tracking plan.
func WithSettings(s *settings.Settings) Option {
	return func(c *clientConfig) {
		c.settings = s
	}
}

// WithStore sets where identity, app info and opt-out are persisted.
// The caller keeps ownership and closes it. Default: an in-memory store.
func WithStore(s store.Store) Option {
	return func(c *clientConfig) {
		c.store = s
	}
}

// WithStorePath persists client state in a SQLite database at path, owned
// and closed by the client. Ignored when WithStore is also given.
func WithStorePath(path string) Option {
	return func(c *clientConfig) {
		c.storePath = path
	}
}

// WithAppInfo sets the application version and build.
func WithAppInfo(app host.AppInfo) Option {
	return func(c *clientConfig) {
		c.app = app
	}
}

// WithHost registers the client's lifecycle observer with source.
func WithHost(source host.LifecycleSource) Option {
	return func(c *clientConfig) {
		c.source = source
	}
}

// WithTrackApplicationLifecycleEvents enables "Application Installed",
// "Application Updated", "Application Opened" and "Application Backgrounded".
func WithTrackApplicationLifecycleEvents(enabled bool) Option {
	return func(c *clientConfig) {
		c.trackApplicationLifecycleEvents = enabled
	}
}

// WithTrackDeepLinks enables "Deep Link Opened" for screens launched from a URI.
func WithTrackDeepLinks(enabled bool) Option {
	return func(c *clientConfig) {
		c.trackDeepLinks = enabled
	}
}

// WithRecordScreenViews records a screen view each time a screen starts.
func WithRecordScreenViews(enabled bool) Option {
	return func(c *clientConfig) {
		c.recordScreenViews = enabled
	}
}

// WithMetrics enables OpenTelemetry metrics through the global meter provider.
func WithMetrics(enabled bool) Option {
	return func(c *clientConfig) {
		if enabled {
			c.metrics = observability.NewMetricsRecorder()
		} else {
			c.metrics = observability.NoopMetrics{}
		}
	}
}

// WithTracing enables OpenTelemetry spans through the global tracer provider.
func WithTracing(enabled bool) Option {
	return func(c *clientConfig) {
		if enabled {
			c.spans = observability.NewSpanManager()
		} else {
			c.spans = observability.NoopSpanManager{}
		}
	}
}

// WithDLQ sends failed integration calls to q.
func WithDLQ(q dispatch.DeadLetterQueue) Option {
	return func(c *clientConfig) {
		c.dlq = q
	}
}

// WithReplay periodically replays due dead letters. Requires WithDLQ.
func WithReplay(cfg dispatch.ProcessorConfig) Option {
	return func(c *clientConfig) {
		c.replay = &cfg
	}
}

// WithFlushSchedule flushes every integration on a cron schedule, such as
// "@every 30s" or "*/5 * * * *".
func WithFlushSchedule(spec string) Option {
	return func(c *clientConfig) {
		c.flushSchedule = spec
	}
}

// WithShutdownTimeout bounds the drain performed by Shutdown.
// Default: 5s
func WithShutdownTimeout(d time.Duration) Option {
	return func(c *clientConfig) {
		if d > 0 {
			c.shutdownTimeout = d
		}
	}
}

// WithTag names the client. Two live clients cannot share a tag.
func WithTag(tag string) Option {
	return func(c *clientConfig) {
		c.tag = tag
	}
}

// WithDefaultContext adds entries to the context of every payload. Per-call
// context entries take precedence.
func WithDefaultContext(ctx *payload.ValueMap) Option {
	return func(c *clientConfig) {
		c.defaultContext.PutAll(ctx)
	}
}

// FromConfig maps a loaded configuration file onto client options.
//
// Recognized keys: tag, app.version, app.build, store.path,
// track_application_lifecycle_events, track_deep_links,
// record_screen_views, flush_schedule, shutdown_timeout, metrics, tracing,
// context, dlq.max_size, dlq.max_retries, dlq.retry_delay,
// dlq.replay_interval, and the settings keys integrations and plan.
func FromConfig(cfg config.Config) []Option {
	opts := []Option{
		WithTag(cfg.String("tag", "")),
		WithTrackApplicationLifecycleEvents(cfg.Bool("track_application_lifecycle_events", false)),
		WithTrackDeepLinks(cfg.Bool("track_deep_links", false)),
		WithRecordScreenViews(cfg.Bool("record_screen_views", false)),
		WithFlushSchedule(cfg.String("flush_schedule", "")),
		WithShutdownTimeout(cfg.Duration("shutdown_timeout", DefaultShutdownTimeout)),
		WithMetrics(cfg.Bool("metrics", false)),
		WithTracing(cfg.Bool("tracing", false)),
	}

	if cfg.Has("integrations") || cfg.Has("plan") {
		opts = append(opts, WithSettings(settings.FromConfig(cfg)))
	}

	if app := cfg.Sub("app"); app.Len() > 0 {
		opts = append(opts, WithAppInfo(host.AppInfo{
			Version: app.String("version", ""),
			Build:   app.Int("build", 0),
		}))
	}
	if path := cfg.Sub("store").String("path", ""); path != "" {
		opts = append(opts, WithStorePath(path))
	}
	if ctx := cfg.Sub("context"); ctx.Len() > 0 {
		opts = append(opts, WithDefaultContext(payload.FromMap(ctx.Raw())))
	}

	if dlq := cfg.Sub("dlq"); dlq.Len() > 0 {
		dlqCfg := dispatch.DefaultDLQConfig
		dlqCfg.MaxSize = dlq.Int("max_size", dlqCfg.MaxSize)
		dlqCfg.MaxRetries = dlq.Int("max_retries", dlqCfg.MaxRetries)
		dlqCfg.RetryDelay = dlq.Duration("retry_delay", dlqCfg.RetryDelay)
		opts = append(opts, WithDLQ(dispatch.NewInMemoryDLQ(dlqCfg)))

		if interval := dlq.Duration("replay_interval", 0); interval > 0 {
			opts = append(opts, WithReplay(dispatch.ProcessorConfig{
				BatchSize:    dlq.Int("replay_batch", dispatch.DefaultProcessorConfig.BatchSize),
				PollInterval: interval,
			}))
		}
	}
	return opts
}
