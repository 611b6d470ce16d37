// Package logsink writes one structured log record per integration hook.
package logsink

import (
	"context"
	"log/slog"
	"strings"

	"github.com/randalmurphal/pulse/pkg/pulse/config"
	"github.com/randalmurphal/pulse/pkg/pulse/host"
	"github.com/randalmurphal/pulse/pkg/pulse/integration"
	"github.com/randalmurphal/pulse/pkg/pulse/payload"
)

// Key identifies the sink.
const Key = "Logs"

// Sink logs payloads at its configured level and screen lifecycle hooks at
// debug.
type Sink struct {
	integration.Base
	logger *slog.Logger
	level  slog.Level
}

// New creates a sink that logs at info.
func New(logger *slog.Logger) *Sink {
	if logger == nil {
		logger = slog.Default()
	}
	return &Sink{logger: logger.With(slog.String("integration", Key)), level: slog.LevelInfo}
}

// WithLevel sets the level of payload records.
func (s *Sink) WithLevel(level slog.Level) *Sink {
	s.level = level
	return s
}

// Factory creates the sink from settings. Setting "level" accepts debug,
// info, warn or error; "enabled: false" disables it.
func Factory() integration.Factory {
	return integration.FactoryFunc(Key, func(cfg config.Config, logger *slog.Logger) (integration.Integration, error) {
		if !cfg.Bool("enabled", true) {
			return nil, nil
		}
		var level slog.Level
		if err := level.UnmarshalText([]byte(strings.ToUpper(cfg.String("level", "info")))); err != nil {
			return nil, err
		}
		return New(logger).WithLevel(level), nil
	})
}

func (s *Sink) Key() string { return Key }

func (s *Sink) UnderlyingInstance() any { return s.logger }

func (s *Sink) log(ctx context.Context, p payload.Payload, attrs ...slog.Attr) {
	attrs = append([]slog.Attr{
		slog.String("type", string(p.Type())),
		slog.String("message_id", p.MessageID()),
		slog.String("anonymous_id", p.AnonymousID()),
	}, attrs...)
	if p.UserID() != "" {
		attrs = append(attrs, slog.String("user_id", p.UserID()))
	}
	s.logger.LogAttrs(ctx, s.level, "analytics "+string(p.Type()), attrs...)
}

func (s *Sink) Identify(ctx context.Context, p *payload.Identify) error {
	s.log(ctx, p, slog.Any("traits", p.Traits().Map()))
	return nil
}

func (s *Sink) Track(ctx context.Context, p *payload.Track) error {
	s.log(ctx, p, slog.String("event", p.Event()), slog.Any("properties", p.Properties().Map()))
	return nil
}

func (s *Sink) Screen(ctx context.Context, p *payload.Screen) error {
	s.log(ctx, p, slog.String("name", p.Name()), slog.String("category", p.Category()))
	return nil
}

func (s *Sink) Group(ctx context.Context, p *payload.Group) error {
	s.log(ctx, p, slog.String("group_id", p.GroupID()), slog.Any("traits", p.Traits().Map()))
	return nil
}

func (s *Sink) Alias(ctx context.Context, p *payload.Alias) error {
	s.log(ctx, p, slog.String("previous_id", p.PreviousID()))
	return nil
}

func (s *Sink) Flush(ctx context.Context) error {
	s.logger.DebugContext(ctx, "analytics flush")
	return nil
}

func (s *Sink) Reset(ctx context.Context) error {
	s.logger.DebugContext(ctx, "analytics reset")
	return nil
}

func (s *Sink) OnApplicationLifecycle(ev integration.ApplicationEvent) {
	s.logger.Info("application "+ev.Kind.String(),
		slog.String("version", ev.App.Version),
		slog.Int("build", ev.App.Build),
	)
}

func (s *Sink) screen(phase string, sc host.Screen) {
	s.logger.Debug("screen "+phase, slog.String("screen", sc.ID()), slog.String("name", sc.Name()))
}

func (s *Sink) OnScreenCreated(sc host.Screen, _ *payload.ValueMap) { s.screen("created", sc) }
func (s *Sink) OnScreenStarted(sc host.Screen)                      { s.screen("started", sc) }
func (s *Sink) OnScreenResumed(sc host.Screen)                      { s.screen("resumed", sc) }
func (s *Sink) OnScreenPaused(sc host.Screen)                       { s.screen("paused", sc) }
func (s *Sink) OnScreenStopped(sc host.Screen)                      { s.screen("stopped", sc) }
func (s *Sink) OnScreenDestroyed(sc host.Screen)                    { s.screen("destroyed", sc) }
