// Package promsink counts analytics payloads and lifecycle transitions as
// Prometheus metrics.
package promsink

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/randalmurphal/pulse/pkg/pulse/config"
	"github.com/randalmurphal/pulse/pkg/pulse/host"
	"github.com/randalmurphal/pulse/pkg/pulse/integration"
	"github.com/randalmurphal/pulse/pkg/pulse/payload"
)

// Key identifies the sink.
const Key = "Prometheus"

// Sink increments counters for every payload and lifecycle hook.
//
//	pulse_events_total{type, event}   one per payload; event is the track
//	                                  event or screen name, otherwise empty
//	pulse_lifecycle_total{phase}      one per screen or application phase
type Sink struct {
	integration.Base

	registry  *prometheus.Registry
	events    *prometheus.CounterVec
	lifecycle *prometheus.CounterVec
}

// New creates a sink registered on its own registry, with metric names
// prefixed by namespace (default "pulse").
func New(namespace string) (*Sink, error) {
	if namespace == "" {
		namespace = "pulse"
	}
	s := &Sink{
		registry: prometheus.NewRegistry(),
		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_total",
			Help:      "Analytics payloads received, by type and event name.",
		}, []string{"type", "event"}),
		lifecycle: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "lifecycle_total",
			Help:      "Screen and application lifecycle transitions.",
		}, []string{"phase"}),
	}
	for _, c := range []prometheus.Collector{s.events, s.lifecycle} {
		if err := s.registry.Register(c); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Factory creates the sink from settings ("namespace").
func Factory() integration.Factory {
	return integration.FactoryFunc(Key, func(cfg config.Config, _ *slog.Logger) (integration.Integration, error) {
		s, err := New(cfg.String("namespace", "pulse"))
		if err != nil {
			return nil, err
		}
		return s, nil
	})
}

// Handler serves the sink's registry in the Prometheus exposition format.
func (s *Sink) Handler() http.Handler {
	return promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{Registry: s.registry})
}

// Registry returns the registry holding the sink's collectors.
func (s *Sink) Registry() *prometheus.Registry { return s.registry }

func (s *Sink) Key() string { return Key }

func (s *Sink) UnderlyingInstance() any { return s.registry }

func (s *Sink) count(typ payload.Type, event string) {
	s.events.WithLabelValues(string(typ), event).Inc()
}

func (s *Sink) Identify(_ context.Context, p *payload.Identify) error {
	s.count(p.Type(), "")
	return nil
}

func (s *Sink) Track(_ context.Context, p *payload.Track) error {
	s.count(p.Type(), p.Event())
	return nil
}

func (s *Sink) Screen(_ context.Context, p *payload.Screen) error {
	s.count(p.Type(), p.Name())
	return nil
}

func (s *Sink) Group(_ context.Context, p *payload.Group) error {
	s.count(p.Type(), "")
	return nil
}

func (s *Sink) Alias(_ context.Context, p *payload.Alias) error {
	s.count(p.Type(), "")
	return nil
}

func (s *Sink) phase(name string) {
	s.lifecycle.WithLabelValues(name).Inc()
}

func (s *Sink) OnApplicationLifecycle(ev integration.ApplicationEvent) {
	s.phase("application_" + ev.Kind.String())
}

func (s *Sink) OnScreenCreated(host.Screen, *payload.ValueMap) { s.phase(integration.OpScreenCreated) }
func (s *Sink) OnScreenStarted(host.Screen)                    { s.phase(integration.OpScreenStarted) }
func (s *Sink) OnScreenResumed(host.Screen)                    { s.phase(integration.OpScreenResumed) }
func (s *Sink) OnScreenPaused(host.Screen)                     { s.phase(integration.OpScreenPaused) }
func (s *Sink) OnScreenStopped(host.Screen)                    { s.phase(integration.OpScreenStopped) }
func (s *Sink) OnScreenDestroyed(host.Screen)                  { s.phase(integration.OpScreenDestroyed) }
