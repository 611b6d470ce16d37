// Package lifecycle turns per-screen host lifecycle callbacks into
// application-level analytics events.
//
// Many screens start and stop independently. The Observer counts started
// screens with atomics and emits "Application Opened" only on the 0 to 1
// transition and "Application Backgrounded" only on the 1 to 0 transition,
// however the callbacks interleave. Every callback is also forwarded to
// integrations as its raw operation.
package lifecycle

import (
	"context"
	"log/slog"
	"strconv"
	"sync"
	"sync/atomic"

	perrors "github.com/randalmurphal/pulse/pkg/pulse/errors"
	"github.com/randalmurphal/pulse/pkg/pulse/host"
	"github.com/randalmurphal/pulse/pkg/pulse/integration"
	"github.com/randalmurphal/pulse/pkg/pulse/observability"
	"github.com/randalmurphal/pulse/pkg/pulse/payload"
)

// Application-level event names.
const (
	EventApplicationOpened       = "Application Opened"
	EventApplicationBackgrounded = "Application Backgrounded"
	EventDeepLinkOpened          = "Deep Link Opened"

	PropertyFromBackground = "from_background"
)

// Dispatcher is what the observer needs from the client.
type Dispatcher interface {
	Submit(op integration.Operation) error
	Track(event string, props *payload.Properties, opts *payload.Options) error
	Screen(name, category string, props *payload.Properties, opts *payload.Options) error

	// ApplicationLifecycle runs install and update detection and fans the
	// result out to integrations.
	ApplicationLifecycle() error
}

// Config selects which events the observer produces.
type Config struct {
	TrackApplicationLifecycleEvents bool
	TrackDeepLinks                  bool
	RecordScreenViews               bool

	// App supplies version and build for the first "Application Opened".
	App host.AppInfo
}

// Option configures an Observer.
type Option func(*Observer)

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(o *Observer) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithMetrics sets the metrics recorder. Default: no-op.
func WithMetrics(m observability.MetricsRecorder) Option {
	return func(o *Observer) {
		if m != nil {
			o.metrics = m
		}
	}
}

// Observer implements host.Callbacks. It is safe for concurrent use and
// takes no locks.
type Observer struct {
	d       Dispatcher
	cfg     Config
	logger  *slog.Logger
	metrics observability.MetricsRecorder

	trackedApplicationLifecycleEvents atomic.Bool
	numberOfActivities                atomic.Int32
	firstLaunch                       atomic.Bool

	// openedFresh is set by the first non-background "Application Opened".
	openedFresh atomic.Bool

	// started holds the ids of screens counted in numberOfActivities.
	started sync.Map
}

var _ host.Callbacks = (*Observer)(nil)

// New creates an observer that reports through d.
func New(d Dispatcher, cfg Config, opts ...Option) *Observer {
	o := &Observer{
		d:       d,
		cfg:     cfg,
		logger:  slog.Default(),
		metrics: observability.NoopMetrics{},
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// ActiveScreens returns the number of started screens.
func (o *Observer) ActiveScreens() int {
	return int(o.numberOfActivities.Load())
}

// ProcessCreated handles the once-per-process start signal. Only the first
// call has any effect, and only with lifecycle tracking enabled.
func (o *Observer) ProcessCreated() {
	if o.trackedApplicationLifecycleEvents.Swap(true) || !o.cfg.TrackApplicationLifecycleEvents {
		return
	}
	o.started.Clear()
	o.numberOfActivities.Store(0)
	o.firstLaunch.Store(true)

	if err := o.d.ApplicationLifecycle(); err != nil {
		o.logger.Warn("application lifecycle detection failed", slog.String("error", err.Error()))
	}
}

// ScreenCreated forwards the creation and tracks any deep link the screen
// was launched with.
func (o *Observer) ScreenCreated(s host.Screen, savedState *payload.ValueMap) {
	o.submit(integration.ScreenCreated{Screen: s, SavedState: savedState.Clone()})
	if o.cfg.TrackDeepLinks {
		o.trackDeepLink(s)
	}
}

// ScreenStarted records a screen view, forwards the start and counts the
// screen as foreground.
func (o *Observer) ScreenStarted(s host.Screen) {
	if o.cfg.RecordScreenViews {
		if err := o.d.Screen(s.Name(), "", nil, nil); err != nil {
			o.logger.Debug("screen view not recorded",
				slog.String("screen", s.ID()),
				slog.String("error", err.Error()),
			)
		}
	}
	o.submit(integration.ScreenStarted{Screen: s})
	o.enter(s)
}

// ScreenResumed forwards the resume.
func (o *Observer) ScreenResumed(s host.Screen) {
	o.submit(integration.ScreenResumed{Screen: s})
}

// ScreenPaused forwards the pause.
func (o *Observer) ScreenPaused(s host.Screen) {
	o.submit(integration.ScreenPaused{Screen: s})
}

// ScreenStopped forwards the stop and releases the screen's foreground count.
func (o *Observer) ScreenStopped(s host.Screen) {
	o.submit(integration.ScreenStopped{Screen: s})
	o.exit(s)
}

// ScreenSaveState forwards the state save.
func (o *Observer) ScreenSaveState(s host.Screen, outState *payload.ValueMap) {
	o.submit(integration.ScreenSaveState{Screen: s, OutState: outState.Clone()})
}

// ScreenDestroyed forwards the teardown. A screen destroyed while still
// started releases its foreground count here.
func (o *Observer) ScreenDestroyed(s host.Screen) {
	o.submit(integration.ScreenDestroyed{Screen: s})
	o.exit(s)
}

// enter counts s once. The caller that moves the count from 0 to 1 emits
// "Application Opened".
func (o *Observer) enter(s host.Screen) {
	if _, loaded := o.started.LoadOrStore(s.ID(), struct{}{}); loaded {
		return
	}
	if o.numberOfActivities.Add(1) != 1 {
		return
	}
	if !o.cfg.TrackApplicationLifecycleEvents {
		return
	}

	first := o.firstLaunch.Swap(false)
	props := payload.NewValueMap()
	if first {
		props.Put(payload.PropertyVersion, o.cfg.App.Version).
			Put(payload.PropertyBuild, strconv.Itoa(o.cfg.App.Build))
		if o.openedFresh.Swap(true) {
			o.defect(EventApplicationOpened)
			return
		}
	}
	props.Put(PropertyFromBackground, !first)
	o.emit(EventApplicationOpened, props, slog.Bool(PropertyFromBackground, !first))
}

// exit releases the count taken by enter. The caller that moves the count
// to 0 emits "Application Backgrounded".
func (o *Observer) exit(s host.Screen) {
	if _, loaded := o.started.LoadAndDelete(s.ID()); !loaded {
		return
	}
	if o.numberOfActivities.Add(-1) != 0 {
		return
	}
	if o.cfg.TrackApplicationLifecycleEvents {
		o.emit(EventApplicationBackgrounded, nil)
	}
}

func (o *Observer) emit(event string, props *payload.Properties, attrs ...slog.Attr) {
	observability.LogLifecycleEvent(o.logger, event, attrs...)
	o.metrics.RecordLifecycleEvent(context.Background(), event)
	if err := o.d.Track(event, props, nil); err != nil {
		o.logger.Debug("lifecycle event not tracked",
			slog.String("event", event),
			slog.String("error", err.Error()),
		)
	}
}

func (o *Observer) defect(event string) {
	err := perrors.ObserverRaceDefect(event)
	o.logger.Error("lifecycle invariant violated",
		slog.String("event", event),
		slog.String("kind", err.Kind.String()),
		slog.String("error", err.Error()),
	)
}

func (o *Observer) submit(op integration.Operation) {
	if err := o.d.Submit(op); err != nil {
		o.logger.Debug("lifecycle operation dropped",
			slog.String("operation", op.Name()),
			slog.String("error", err.Error()),
		)
	}
}
