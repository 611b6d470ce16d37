// Package statsdsink reports analytics payloads as DogStatsD counters.
package statsdsink

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/DataDog/datadog-go/v5/statsd"

	"github.com/randalmurphal/pulse/pkg/pulse/config"
	"github.com/randalmurphal/pulse/pkg/pulse/host"
	"github.com/randalmurphal/pulse/pkg/pulse/integration"
	"github.com/randalmurphal/pulse/pkg/pulse/payload"
)

// Key identifies the sink.
const Key = "DogStatsD"

// Default settings.
const (
	DefaultAddress   = "127.0.0.1:8125"
	DefaultNamespace = "pulse"
)

// Sink sends a counter increment per payload and lifecycle transition:
//
//	events{type, event}   one per payload
//	lifecycle{phase}      one per screen or application phase
//
// Metrics are buffered by the client and sent on Flush.
type Sink struct {
	integration.Base
	client statsd.ClientInterface
}

// New wraps an existing client.
func New(client statsd.ClientInterface) *Sink {
	return &Sink{client: client}
}

// Dial creates a client for addr with metric names prefixed by namespace.
func Dial(addr, namespace string, tags []string) (*Sink, error) {
	client, err := statsd.New(addr,
		statsd.WithNamespace(namespace+"."),
		statsd.WithTags(tags),
		statsd.WithoutTelemetry(),
		statsd.WithoutClientSideAggregation(),
	)
	if err != nil {
		return nil, fmt.Errorf("statsdsink: creating statsd client: %w", err)
	}
	return New(client), nil
}

// Factory creates the sink from settings: address, namespace and tags.
func Factory() integration.Factory {
	return integration.FactoryFunc(Key, func(cfg config.Config, _ *slog.Logger) (integration.Integration, error) {
		s, err := Dial(
			cfg.String("address", DefaultAddress),
			cfg.String("namespace", DefaultNamespace),
			cfg.StringSlice("tags", nil),
		)
		if err != nil {
			return nil, err
		}
		return s, nil
	})
}

func (s *Sink) Key() string { return Key }

func (s *Sink) UnderlyingInstance() any { return s.client }

func (s *Sink) event(typ payload.Type, name string) error {
	tags := []string{"type:" + string(typ)}
	if name != "" {
		tags = append(tags, "event:"+name)
	}
	return s.client.Incr("events", tags, 1)
}

func (s *Sink) Identify(_ context.Context, p *payload.Identify) error {
	return s.event(p.Type(), "")
}

func (s *Sink) Track(_ context.Context, p *payload.Track) error {
	return s.event(p.Type(), p.Event())
}

func (s *Sink) Screen(_ context.Context, p *payload.Screen) error {
	return s.event(p.Type(), p.Name())
}

func (s *Sink) Group(_ context.Context, p *payload.Group) error {
	return s.event(p.Type(), "")
}

func (s *Sink) Alias(_ context.Context, p *payload.Alias) error {
	return s.event(p.Type(), "")
}

func (s *Sink) Flush(context.Context) error {
	return s.client.Flush()
}

// Close flushes and closes the client.
func (s *Sink) Close() error {
	return s.client.Close()
}

func (s *Sink) phase(name string) {
	_ = s.client.Incr("lifecycle", []string{"phase:" + name}, 1)
}

func (s *Sink) OnApplicationLifecycle(ev integration.ApplicationEvent) {
	s.phase("application_" + ev.Kind.String())
}

func (s *Sink) OnScreenStarted(host.Screen) { s.phase(integration.OpScreenStarted) }
func (s *Sink) OnScreenStopped(host.Screen) { s.phase(integration.OpScreenStopped) }
