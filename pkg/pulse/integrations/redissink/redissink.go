// Package redissink appends analytics payloads to a Redis stream and keeps
// the latest traits of each identified user in a hash.
package redissink

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/randalmurphal/pulse/pkg/pulse/config"
	perrors "github.com/randalmurphal/pulse/pkg/pulse/errors"
	"github.com/randalmurphal/pulse/pkg/pulse/integration"
	"github.com/randalmurphal/pulse/pkg/pulse/payload"
)

// Key identifies the sink.
const Key = "Redis"

// Config configures the sink.
type Config struct {
	// Stream receives one entry per payload. Default: "pulse:events".
	Stream string

	// MaxLen approximately caps the stream length. Zero means uncapped.
	// Default: 100000
	MaxLen int64

	// UserPrefix prefixes the per-user traits hash. Default: "pulse:users:".
	UserPrefix string
}

// DefaultConfig provides reasonable defaults.
var DefaultConfig = Config{
	Stream:     "pulse:events",
	MaxLen:     100000,
	UserPrefix: "pulse:users:",
}

// Sink writes payloads with XADD. Each entry has the fields type,
// message_id and payload (the JSON document).
type Sink struct {
	integration.Base
	client redis.UniversalClient
	cfg    Config
}

// New creates a sink on client.
func New(client redis.UniversalClient, cfg Config) *Sink {
	if cfg.Stream == "" {
		cfg.Stream = DefaultConfig.Stream
	}
	if cfg.UserPrefix == "" {
		cfg.UserPrefix = DefaultConfig.UserPrefix
	}
	return &Sink{client: client, cfg: cfg}
}

// Factory creates the sink from settings: url, stream, max_len and
// user_prefix. The connection is verified with retries before the sink is
// returned.
func Factory() integration.Factory {
	return integration.FactoryFunc(Key, func(cfg config.Config, logger *slog.Logger) (integration.Integration, error) {
		opts, err := redis.ParseURL(cfg.String("url", "redis://127.0.0.1:6379/0"))
		if err != nil {
			return nil, fmt.Errorf("invalid Redis URL: %w", err)
		}
		client := redis.NewClient(opts)

		ctx, cancel := context.WithTimeout(context.Background(), cfg.Duration("connect_timeout", 10*time.Second))
		defer cancel()
		result := perrors.WithRetryContext(ctx, connectRetry(logger), func(ctx context.Context) (string, error) {
			return client.Ping(ctx).Result()
		})
		if result.Err != nil {
			client.Close()
			return nil, fmt.Errorf("failed to connect to Redis after %d attempts: %w", result.Attempts, result.Err)
		}
		logger.Debug("connected to Redis", slog.String("addr", opts.Addr), slog.Int("attempts", result.Attempts))

		return New(client, Config{
			Stream:     cfg.String("stream", DefaultConfig.Stream),
			MaxLen:     int64(cfg.Int("max_len", int(DefaultConfig.MaxLen))),
			UserPrefix: cfg.String("user_prefix", DefaultConfig.UserPrefix),
		}), nil
	})
}

func (s *Sink) Key() string { return Key }

func (s *Sink) UnderlyingInstance() any { return s.client }

func (s *Sink) add(ctx context.Context, p payload.Payload) error {
	doc, err := payload.Encode(p)
	if err != nil {
		return err
	}
	args := &redis.XAddArgs{
		Stream: s.cfg.Stream,
		Values: map[string]any{
			"type":       string(p.Type()),
			"message_id": p.MessageID(),
			"payload":    string(doc),
		},
	}
	if s.cfg.MaxLen > 0 {
		args.MaxLen = s.cfg.MaxLen
		args.Approx = true
	}
	if err := s.client.XAdd(ctx, args).Err(); err != nil {
		return fmt.Errorf("xadd %s: %w", s.cfg.Stream, err)
	}
	return nil
}

func (s *Sink) Identify(ctx context.Context, p *payload.Identify) error {
	if err := s.add(ctx, p); err != nil {
		return err
	}
	traits, err := p.Traits().MarshalJSON()
	if err != nil {
		return err
	}
	key := s.cfg.UserPrefix + p.UserID()
	return s.client.HSet(ctx, key,
		"anonymous_id", p.AnonymousID(),
		"traits", string(traits),
		"updated_at", p.Timestamp().Format(time.RFC3339Nano),
	).Err()
}

func (s *Sink) Track(ctx context.Context, p *payload.Track) error   { return s.add(ctx, p) }
func (s *Sink) Screen(ctx context.Context, p *payload.Screen) error { return s.add(ctx, p) }
func (s *Sink) Group(ctx context.Context, p *payload.Group) error   { return s.add(ctx, p) }
func (s *Sink) Alias(ctx context.Context, p *payload.Alias) error   { return s.add(ctx, p) }

// Close closes the client.
func (s *Sink) Close() error {
	return s.client.Close()
}

// connectRetry logs each failed connection attempt.
func connectRetry(logger *slog.Logger) perrors.RetryConfig {
	retry := perrors.ConnectRetry
	retry.OnRetry = func(attempt int, err error, wait time.Duration) {
		logger.Warn("Redis connection failed, retrying",
			slog.Int("attempt", attempt),
			slog.Duration("wait", wait),
			slog.String("error", err.Error()),
		)
	}
	return retry
}
