package events_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/floroz/auctionhouse/internal/adapters/memory"
	"github.com/floroz/auctionhouse/pkg/events"
)

type published struct {
	exchange   string
	routingKey string
	body       []byte
}

// fakePublisher records messages and fails on demand
type fakePublisher struct {
	mu       sync.Mutex
	messages []published
	failOn   string
}

func (p *fakePublisher) Publish(_ context.Context, exchange, routingKey string, body []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if routingKey == p.failOn {
		return errors.New("broker unavailable")
	}
	p.messages = append(p.messages, published{exchange: exchange, routingKey: routingKey, body: body})
	return nil
}

func (p *fakePublisher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.messages)
}

func newRelay(store *memory.Store, publisher events.EventPublisher, batchSize int) *events.OutboxRelay {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return events.NewOutboxRelay(store.Outbox(), publisher, store, batchSize, 10*time.Millisecond, events.AuctionExchange, logger)
}

func saveEvents(t *testing.T, store *memory.Store, types ...string) {
	t.Helper()
	for i, eventType := range types {
		payload, err := events.MarshalPayload(map[string]any{"seq": i})
		require.NoError(t, err)
		event := events.NewOutboxEvent(eventType, payload, time.Now())
		require.NoError(t, store.Outbox().SaveEvent(context.Background(), event))
	}
}

func TestOutboxRelay_ProcessBatch(t *testing.T) {
	ctx := context.Background()

	t.Run("publishes pending events in order", func(t *testing.T) {
		store := memory.NewStore()
		publisher := &fakePublisher{}
		relay := newRelay(store, publisher, 10)
		saveEvents(t, store, events.EventTypeAuctionApproved, events.EventTypeBidPlaced)

		n, err := relay.ProcessBatch(ctx)
		require.NoError(t, err)
		assert.Equal(t, 2, n)

		require.Len(t, publisher.messages, 2)
		assert.Equal(t, events.AuctionExchange, publisher.messages[0].exchange)
		assert.Equal(t, events.EventTypeAuctionApproved, publisher.messages[0].routingKey)
		assert.Equal(t, events.EventTypeBidPlaced, publisher.messages[1].routingKey)

		for _, e := range store.Outbox().Events() {
			assert.Equal(t, events.OutboxStatusPublished, e.Status)
			assert.NotNil(t, e.ProcessedAt)
		}

		n, err = relay.ProcessBatch(ctx)
		require.NoError(t, err)
		assert.Zero(t, n)
	})

	t.Run("respects batch size", func(t *testing.T) {
		store := memory.NewStore()
		publisher := &fakePublisher{}
		relay := newRelay(store, publisher, 2)
		saveEvents(t, store, events.EventTypeBidPlaced, events.EventTypeBidPlaced, events.EventTypeBidPlaced)

		n, err := relay.ProcessBatch(ctx)
		require.NoError(t, err)
		assert.Equal(t, 2, n)

		n, err = relay.ProcessBatch(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, n)
	})

	t.Run("publish failure keeps the batch pending", func(t *testing.T) {
		store := memory.NewStore()
		publisher := &fakePublisher{failOn: events.EventTypeAuctionDeleted}
		relay := newRelay(store, publisher, 10)
		saveEvents(t, store, events.EventTypeBidPlaced, events.EventTypeAuctionDeleted)

		_, err := relay.ProcessBatch(ctx)
		require.Error(t, err)

		for _, e := range store.Outbox().Events() {
			assert.Equal(t, events.OutboxStatusPending, e.Status)
		}

		publisher.failOn = ""
		n, err := relay.ProcessBatch(ctx)
		require.NoError(t, err)
		assert.Equal(t, 2, n)
	})
}

func TestOutboxRelay_Run(t *testing.T) {
	store := memory.NewStore()
	publisher := &fakePublisher{}
	relay := newRelay(store, publisher, 10)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- relay.Run(ctx) }()

	saveEvents(t, store, events.EventTypeAuctionRejected)
	require.Eventually(t, func() bool { return publisher.count() == 1 }, 2*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("relay did not stop after cancellation")
	}
}

func TestPayloadRoundTrip(t *testing.T) {
	payload, err := events.MarshalPayload(map[string]any{
		"auction_id": "a1",
		"amount":     int64(150),
		"approved":   true,
	})
	require.NoError(t, err)

	fields, err := events.UnmarshalPayload(payload)
	require.NoError(t, err)
	assert.Equal(t, "a1", fields["auction_id"])
	assert.Equal(t, float64(150), fields["amount"])
	assert.Equal(t, true, fields["approved"])

	_, err = events.MarshalPayload(map[string]any{"bad": make(chan int)})
	assert.Error(t, err)

	_, err = events.UnmarshalPayload([]byte{0xff, 0xff})
	assert.Error(t, err)
}
