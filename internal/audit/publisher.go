// Package audit records every engine invocation: who asked, for which
// issuer, with what outcome. The store append is the system of record;
// an optional Kafka sink fans events out to downstream consumers.
package audit

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"cartaporte/internal/platform/kafka/producer"
)

// Sink is the streaming side of the trail. Satisfied by both the Kafka
// producer and its noop variant.
type Sink interface {
	ProduceAsync(msg *producer.Message) error
}

// Publisher appends audit events to the store and streams them to the sink.
// Appends are mandatory: a failed append fails the emit, because an
// unauditable invocation must not look successful.
type Publisher struct {
	store  Store
	sink   Sink
	topic  string
	logger *slog.Logger
}

// PublisherOption configures the Publisher.
type PublisherOption func(*Publisher)

// WithSink streams every appended event to a Kafka topic. Delivery is
// best-effort; the store remains the system of record.
func WithSink(sink Sink, topic string) PublisherOption {
	return func(p *Publisher) {
		p.sink = sink
		p.topic = topic
	}
}

// WithPublisherLogger sets a logger for sink error reporting.
func WithPublisherLogger(logger *slog.Logger) PublisherOption {
	return func(p *Publisher) {
		p.logger = logger
	}
}

func NewPublisher(store Store, opts ...PublisherOption) *Publisher {
	p := &Publisher{
		store:  store,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Emit persists the event and streams it to the sink if one is configured.
func (p *Publisher) Emit(ctx context.Context, event Event) error {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	if err := p.store.Append(ctx, event); err != nil {
		return err
	}

	if p.sink != nil {
		payload, err := json.Marshal(event)
		if err != nil {
			p.logger.ErrorContext(ctx, "encode audit event for sink", "error", err)
			return nil
		}
		if err := p.sink.ProduceAsync(&producer.Message{
			Topic: p.topic,
			Key:   []byte(event.Actor),
			Value: payload,
		}); err != nil {
			p.logger.WarnContext(ctx, "audit sink publish failed",
				"action", event.Action,
				"error", err,
			)
		}
	}
	return nil
}

// List returns the stored events for one actor.
func (p *Publisher) List(ctx context.Context, actor string) ([]Event, error) {
	return p.store.ListByActor(ctx, actor)
}
