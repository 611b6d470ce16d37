// Package natssink publishes analytics payloads to NATS subjects.
package natssink

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/randalmurphal/pulse/pkg/pulse/config"
	perrors "github.com/randalmurphal/pulse/pkg/pulse/errors"
	"github.com/randalmurphal/pulse/pkg/pulse/integration"
	"github.com/randalmurphal/pulse/pkg/pulse/payload"
)

// Key identifies the sink.
const Key = "NATS"

// Default settings.
const (
	DefaultPrefix       = "pulse"
	DefaultFlushTimeout = 5 * time.Second
)

// Sink publishes each payload's JSON document to "<prefix>.<type>" with the
// message id in the Nats-Msg-Id header, and application lifecycle events to
// "<prefix>.lifecycle".
type Sink struct {
	integration.Base
	conn         *nats.Conn
	prefix       string
	flushTimeout time.Duration
	logger       *slog.Logger
}

// New creates a sink on an established connection.
func New(conn *nats.Conn, prefix string, logger *slog.Logger) *Sink {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Sink{conn: conn, prefix: prefix, flushTimeout: DefaultFlushTimeout, logger: logger}
}

// Connect dials url, retrying with retry, and names the connection.
func Connect(ctx context.Context, url string, retry perrors.RetryConfig) (*nats.Conn, error) {
	result := perrors.WithRetryContext(ctx, retry, func(context.Context) (*nats.Conn, error) {
		return nats.Connect(url, nats.Name("pulse"), nats.Timeout(2*time.Second))
	})
	if result.Err != nil {
		return nil, fmt.Errorf("failed to connect to NATS after %d attempts: %w", result.Attempts, result.Err)
	}
	return result.Value, nil
}

// Factory creates the sink from settings: url, prefix and flush_timeout.
func Factory() integration.Factory {
	return integration.FactoryFunc(Key, func(cfg config.Config, logger *slog.Logger) (integration.Integration, error) {
		ctx, cancel := context.WithTimeout(context.Background(), cfg.Duration("connect_timeout", 10*time.Second))
		defer cancel()
		conn, err := Connect(ctx, cfg.String("url", nats.DefaultURL), connectRetry(logger))
		if err != nil {
			return nil, err
		}
		s := New(conn, cfg.String("prefix", DefaultPrefix), logger)
		s.flushTimeout = cfg.Duration("flush_timeout", DefaultFlushTimeout)
		return s, nil
	})
}

func (s *Sink) Key() string { return Key }

func (s *Sink) UnderlyingInstance() any { return s.conn }

// Subject returns the subject payloads of typ are published to.
func (s *Sink) Subject(typ payload.Type) string {
	return s.prefix + "." + string(typ)
}

func (s *Sink) publish(p payload.Payload) error {
	doc, err := payload.Encode(p)
	if err != nil {
		return err
	}
	msg := nats.NewMsg(s.Subject(p.Type()))
	msg.Header.Set(nats.MsgIdHdr, p.MessageID())
	msg.Data = doc
	if err := s.conn.PublishMsg(msg); err != nil {
		return fmt.Errorf("publish %s: %w", msg.Subject, err)
	}
	return nil
}

func (s *Sink) Identify(_ context.Context, p *payload.Identify) error { return s.publish(p) }
func (s *Sink) Track(_ context.Context, p *payload.Track) error       { return s.publish(p) }
func (s *Sink) Screen(_ context.Context, p *payload.Screen) error     { return s.publish(p) }
func (s *Sink) Group(_ context.Context, p *payload.Group) error       { return s.publish(p) }
func (s *Sink) Alias(_ context.Context, p *payload.Alias) error       { return s.publish(p) }

// Flush waits until the server has processed everything published.
func (s *Sink) Flush(context.Context) error {
	return s.conn.FlushTimeout(s.flushTimeout)
}

func (s *Sink) OnApplicationLifecycle(ev integration.ApplicationEvent) {
	data, err := json.Marshal(map[string]any{
		"kind":     ev.Kind.String(),
		"app":      ev.App,
		"previous": ev.Previous,
	})
	if err != nil {
		return
	}
	if err := s.conn.Publish(s.prefix+".lifecycle", data); err != nil {
		s.logger.Warn("lifecycle publish failed", slog.String("error", err.Error()))
	}
}

// Close drains and closes the connection.
func (s *Sink) Close() error {
	return s.conn.Drain()
}

// connectRetry logs each failed connection attempt.
func connectRetry(logger *slog.Logger) perrors.RetryConfig {
	retry := perrors.ConnectRetry
	retry.OnRetry = func(attempt int, err error, wait time.Duration) {
		logger.Warn("NATS connection failed, retrying",
			slog.Int("attempt", attempt),
			slog.Duration("wait", wait),
			slog.String("error", err.Error()),
		)
	}
	return retry
}
