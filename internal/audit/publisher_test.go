package audit

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cartaporte/internal/platform/kafka/producer"
)

type recordingSink struct {
	messages []*producer.Message
	err      error
}

func (s *recordingSink) ProduceAsync(msg *producer.Message) error {
	if s.err != nil {
		return s.err
	}
	s.messages = append(s.messages, msg)
	return nil
}

type failingAuditStore struct{}

func (failingAuditStore) Append(context.Context, Event) error { return errors.New("disk full") }
func (failingAuditStore) ListByActor(context.Context, string) ([]Event, error) {
	return nil, errors.New("disk full")
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestEmitFillsIdentityAndTimestamp(t *testing.T) {
	store := NewInMemoryStore()
	p := NewPublisher(store, WithPublisherLogger(discardLogger()))

	err := p.Emit(context.Background(), Event{
		Actor:   "user-1",
		Action:  ActionValidationEvaluated,
		Outcome: OutcomeValid,
	})
	require.NoError(t, err)

	events, err := p.List(context.Background(), "user-1")
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.NotEmpty(t, events[0].ID)
	assert.False(t, events[0].Timestamp.IsZero())
}

func TestEmitStreamsToSink(t *testing.T) {
	store := NewInMemoryStore()
	sink := &recordingSink{}
	p := NewPublisher(store,
		WithSink(sink, "cartaporte.audit.v1"),
		WithPublisherLogger(discardLogger()),
	)

	require.NoError(t, p.Emit(context.Background(), Event{
		Actor:     "user-2",
		Action:    ActionArtifactRegistered,
		Outcome:   OutcomeOK,
		IssuerRFC: "TLO010203AB9",
	}))

	require.Len(t, sink.messages, 1)
	msg := sink.messages[0]
	assert.Equal(t, "cartaporte.audit.v1", msg.Topic)
	assert.Equal(t, []byte("user-2"), msg.Key)

	var streamed Event
	require.NoError(t, json.Unmarshal(msg.Value, &streamed))
	assert.Equal(t, ActionArtifactRegistered, streamed.Action)
	assert.Equal(t, "TLO010203AB9", streamed.IssuerRFC)
}

func TestStoreAppendIsMandatory(t *testing.T) {
	sink := &recordingSink{}
	p := NewPublisher(failingAuditStore{},
		WithSink(sink, "cartaporte.audit.v1"),
		WithPublisherLogger(discardLogger()),
	)

	err := p.Emit(context.Background(), Event{Actor: "user-3", Action: ActionValidationEvaluated})
	require.Error(t, err)
	// Nothing streams when the system of record refused the event.
	assert.Empty(t, sink.messages)
}

func TestSinkFailureDoesNotFailEmit(t *testing.T) {
	store := NewInMemoryStore()
	sink := &recordingSink{err: errors.New("broker down")}
	p := NewPublisher(store,
		WithSink(sink, "cartaporte.audit.v1"),
		WithPublisherLogger(discardLogger()),
	)

	require.NoError(t, p.Emit(context.Background(), Event{Actor: "user-4", Action: ActionArtifactArchived}))

	events, err := store.ListByActor(context.Background(), "user-4")
	require.NoError(t, err)
	assert.Len(t, events, 1)
}
