//go:build integration

package events_test

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	infradb "github.com/floroz/auctionhouse/internal/adapters/database"
	pkgdb "github.com/floroz/auctionhouse/pkg/database"
	"github.com/floroz/auctionhouse/pkg/events"
	"github.com/floroz/auctionhouse/pkg/testhelpers"
)

// TestRelayIntegrationWithRabbitMQ relays an outbox row from Postgres to a real RabbitMQ broker
func TestRelayIntegrationWithRabbitMQ(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	ctx := context.Background()
	amqpURL := testhelpers.NewTestRabbitMQ(t)

	testDB := testhelpers.NewTestDatabase(t)
	defer testDB.Close()
	pool := testDB.Pool

	pubConn, err := amqp.Dial(amqpURL)
	require.NoError(t, err)
	defer pubConn.Close()

	publisher, err := events.NewRabbitMQPublisher(pubConn)
	require.NoError(t, err)
	defer publisher.Close()

	outboxRepo := infradb.NewPostgresOutboxRepository(pool)
	relay := events.NewOutboxRelay(
		outboxRepo,
		publisher,
		pkgdb.NewPostgresTransactionManager(pool, time.Second),
		10,
		50*time.Millisecond,
		events.AuctionExchange,
		slog.New(slog.NewTextHandler(io.Discard, nil)),
	)

	// Consumer bound to every auction event
	conn, err := amqp.Dial(amqpURL)
	require.NoError(t, err)
	defer conn.Close()

	ch, err := conn.Channel()
	require.NoError(t, err)
	defer ch.Close()

	q, err := ch.QueueDeclare("", false, false, true, false, nil)
	require.NoError(t, err)
	require.NoError(t, ch.QueueBind(q.Name, "#", events.AuctionExchange, false, nil))

	msgs, err := ch.Consume(q.Name, "", true, false, false, false, nil)
	require.NoError(t, err)

	payload, err := events.MarshalPayload(map[string]any{"auction_id": "a1", "amount": int64(150)})
	require.NoError(t, err)
	event := events.NewOutboxEvent(events.EventTypeBidPlaced, payload, time.Now())
	require.NoError(t, outboxRepo.SaveEvent(ctx, event))

	ctxRelay, cancelRelay := context.WithCancel(ctx)
	defer cancelRelay()
	go func() {
		_ = relay.Run(ctxRelay)
	}()

	select {
	case msg := <-msgs:
		assert.Equal(t, events.EventTypeBidPlaced, msg.RoutingKey)
		assert.Equal(t, events.PayloadContentType, msg.ContentType)
		fields, err := events.UnmarshalPayload(msg.Body)
		require.NoError(t, err)
		assert.Equal(t, "a1", fields["auction_id"])
		assert.Equal(t, float64(150), fields["amount"])
	case <-time.After(10 * time.Second):
		t.Fatal("Timeout waiting for message from RabbitMQ")
	}

	require.Eventually(t, func() bool {
		var status string
		if err := pool.QueryRow(ctx, "SELECT status FROM outbox_events WHERE id = $1", event.ID).Scan(&status); err != nil {
			return false
		}
		return status == string(events.OutboxStatusPublished)
	}, 2*time.Second, 100*time.Millisecond, "Event status should be updated to 'published'")
}
