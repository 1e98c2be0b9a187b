package testhelpers

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go/modules/rabbitmq"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"
)

// NewTestRabbitMQ starts a RabbitMQ container and returns its AMQP URL.
// The container is terminated when the test finishes.
func NewTestRabbitMQ(t *testing.T) string {
	t.Helper()
	ctx := context.Background()

	rabbitmqContainer, err := rabbitmq.Run(ctx,
		"rabbitmq:3.12-management-alpine",
		rabbitmq.WithAdminPassword("password"),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		if termErr := rabbitmqContainer.Terminate(ctx); termErr != nil {
			t.Logf("failed to terminate rabbitmq container: %s", termErr)
		}
	})

	amqpURL, err := rabbitmqContainer.AmqpURL(ctx)
	require.NoError(t, err)
	return amqpURL
}

// NewTestRedis starts a Redis container and returns its connection URL
func NewTestRedis(t *testing.T) string {
	t.Helper()
	ctx := context.Background()

	redisContainer, err := tcredis.Run(ctx, "redis:7-alpine")
	require.NoError(t, err)
	t.Cleanup(func() {
		if termErr := redisContainer.Terminate(ctx); termErr != nil {
			t.Logf("failed to terminate redis container: %s", termErr)
		}
	})

	redisURL, err := redisContainer.ConnectionString(ctx)
	require.NoError(t, err)
	return redisURL
}
