// Package cesink delivers analytics payloads as CloudEvents over HTTP.
package cesink

import (
	"context"
	"fmt"
	"log/slog"

	cloudevents "github.com/cloudevents/sdk-go/v2"

	"github.com/randalmurphal/pulse/pkg/pulse/config"
	"github.com/randalmurphal/pulse/pkg/pulse/integration"
	"github.com/randalmurphal/pulse/pkg/pulse/payload"
)

// Key identifies the sink.
const Key = "CloudEvents"

// Event attributes.
const (
	DefaultSource = "pulse"
	TypePrefix    = "io.pulse."

	// ExtensionAnonymousID carries the payload's anonymous id.
	ExtensionAnonymousID = "anonymousid"
)

// Sink posts one structured CloudEvent per payload. The event id is the
// payload's message id, the subject its user id (or anonymous id when no user
// is identified) and the data its JSON document.
type Sink struct {
	integration.Base
	client cloudevents.Client
	source string
}

// New wraps a CloudEvents client.
func New(client cloudevents.Client, source string) *Sink {
	if source == "" {
		source = DefaultSource
	}
	return &Sink{client: client, source: source}
}

// Dial creates an HTTP client targeting url.
func Dial(url, source string) (*Sink, error) {
	client, err := cloudevents.NewClientHTTP(cloudevents.WithTarget(url))
	if err != nil {
		return nil, fmt.Errorf("failed to create CloudEvents client: %w", err)
	}
	return New(client, source), nil
}

// Factory creates the sink from settings: target and source.
func Factory() integration.Factory {
	return integration.FactoryFunc(Key, func(cfg config.Config, _ *slog.Logger) (integration.Integration, error) {
		target := cfg.String("target", "")
		if target == "" {
			return nil, fmt.Errorf("cesink: target is required")
		}
		return Dial(target, cfg.String("source", DefaultSource))
	})
}

func (s *Sink) Key() string { return Key }

func (s *Sink) UnderlyingInstance() any { return s.client }

// Event converts p to a CloudEvent.
func (s *Sink) Event(p payload.Payload) (cloudevents.Event, error) {
	doc, err := payload.Encode(p)
	if err != nil {
		return cloudevents.Event{}, err
	}

	subject := p.UserID()
	if subject == "" {
		subject = p.AnonymousID()
	}

	event := cloudevents.NewEvent()
	event.SetID(p.MessageID())
	event.SetSource(s.source)
	event.SetType(TypePrefix + string(p.Type()))
	event.SetSubject(subject)
	event.SetTime(p.Timestamp())
	event.SetExtension(ExtensionAnonymousID, p.AnonymousID())
	if err := event.SetData(cloudevents.ApplicationJSON, doc); err != nil {
		return cloudevents.Event{}, fmt.Errorf("failed to set event data: %w", err)
	}
	return event, nil
}

func (s *Sink) send(ctx context.Context, p payload.Payload) error {
	event, err := s.Event(p)
	if err != nil {
		return err
	}
	if result := s.client.Send(ctx, event); !cloudevents.IsACK(result) {
		return fmt.Errorf("failed to deliver %s: %w", event.Type(), result)
	}
	return nil
}

func (s *Sink) Identify(ctx context.Context, p *payload.Identify) error { return s.send(ctx, p) }
func (s *Sink) Track(ctx context.Context, p *payload.Track) error       { return s.send(ctx, p) }
func (s *Sink) Screen(ctx context.Context, p *payload.Screen) error     { return s.send(ctx, p) }
func (s *Sink) Group(ctx context.Context, p *payload.Group) error       { return s.send(ctx, p) }
func (s *Sink) Alias(ctx context.Context, p *payload.Alias) error       { return s.send(ctx, p) }
