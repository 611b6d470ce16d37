// Package kafkasink produces analytics payloads to a Kafka topic.
package kafkasink

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/IBM/sarama"

	"github.com/randalmurphal/pulse/pkg/pulse/config"
	"github.com/randalmurphal/pulse/pkg/pulse/integration"
	"github.com/randalmurphal/pulse/pkg/pulse/payload"
)

// Key identifies the sink.
const Key = "Kafka"

// DefaultTopic receives payloads when no topic is configured.
const DefaultTopic = "pulse-events"

// Header names set on every message.
const (
	HeaderType      = "pulse-type"
	HeaderMessageID = "pulse-message-id"
)

// Sink sends each payload's JSON document synchronously. Messages are keyed
// by anonymous id so one device's payloads land on one partition in order.
type Sink struct {
	integration.Base
	producer sarama.SyncProducer
	topic    string
}

// New wraps a producer. The producer must have Return.Successes enabled.
func New(producer sarama.SyncProducer, topic string) *Sink {
	if topic == "" {
		topic = DefaultTopic
	}
	return &Sink{producer: producer, topic: topic}
}

// NewConfig returns the producer configuration the sink expects.
func NewConfig(clientID string) *sarama.Config {
	cfg := sarama.NewConfig()
	cfg.ClientID = clientID
	cfg.Producer.RequiredAcks = sarama.WaitForAll
	cfg.Producer.Return.Successes = true
	return cfg
}

// Factory creates the sink from settings: brokers, topic and client_id.
func Factory() integration.Factory {
	return integration.FactoryFunc(Key, func(cfg config.Config, _ *slog.Logger) (integration.Integration, error) {
		brokers := cfg.StringSlice("brokers", []string{"127.0.0.1:9092"})
		producer, err := sarama.NewSyncProducer(brokers, NewConfig(cfg.String("client_id", "pulse")))
		if err != nil {
			return nil, fmt.Errorf("failed to create Kafka producer: %w", err)
		}
		return New(producer, cfg.String("topic", DefaultTopic)), nil
	})
}

func (s *Sink) Key() string { return Key }

func (s *Sink) UnderlyingInstance() any { return s.producer }

func (s *Sink) send(p payload.Payload) error {
	doc, err := payload.Encode(p)
	if err != nil {
		return err
	}
	msg := &sarama.ProducerMessage{
		Topic: s.topic,
		Key:   sarama.StringEncoder(p.AnonymousID()),
		Value: sarama.ByteEncoder(doc),
		Headers: []sarama.RecordHeader{
			{Key: []byte(HeaderType), Value: []byte(p.Type())},
			{Key: []byte(HeaderMessageID), Value: []byte(p.MessageID())},
		},
		Timestamp: p.Timestamp(),
	}
	if _, _, err := s.producer.SendMessage(msg); err != nil {
		return fmt.Errorf("failed to send %s to Kafka topic %s: %w", p.Type(), s.topic, err)
	}
	return nil
}

func (s *Sink) Identify(_ context.Context, p *payload.Identify) error { return s.send(p) }
func (s *Sink) Track(_ context.Context, p *payload.Track) error       { return s.send(p) }
func (s *Sink) Screen(_ context.Context, p *payload.Screen) error     { return s.send(p) }
func (s *Sink) Group(_ context.Context, p *payload.Group) error       { return s.send(p) }
func (s *Sink) Alias(_ context.Context, p *payload.Alias) error       { return s.send(p) }

// Close closes the producer.
func (s *Sink) Close() error {
	return s.producer.Close()
}
