// Package cache provides a Redis backed read cache for auctions.
package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/floroz/auctionhouse/internal/domain/auctions"
)

const (
	keyPrefix        = "auction:"
	generationSuffix = ":gen"

	// generationTTL bounds how long an idle auction's eviction counter is kept.
	// It must outlast any read-then-fill, which takes milliseconds.
	generationTTL = 24 * time.Hour
)

// errStaleFill aborts a fill whose generation was superseded by an eviction
var errStaleFill = errors.New("auction evicted since lookup")

// RedisAuctionCache implements auctions.Cache.
// Each auction has a data key and a generation key; Evict increments the generation and
// Set writes the data key under WATCH of the generation key.
type RedisAuctionCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisAuctionCache creates a cache whose entries expire after ttl
func NewRedisAuctionCache(client *redis.Client, ttl time.Duration) *RedisAuctionCache {
	return &RedisAuctionCache{client: client, ttl: ttl}
}

// NewRedisClient parses a redis:// URL and verifies the server is reachable
func NewRedisClient(ctx context.Context, redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}
	return client, nil
}

func key(id uuid.UUID) string {
	return keyPrefix + id.String()
}

func generationKey(id uuid.UUID) string {
	return keyPrefix + id.String() + generationSuffix
}

func readGeneration(cmd *redis.StringCmd) (uint64, error) {
	generation, err := cmd.Uint64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return generation, err
}

func (c *RedisAuctionCache) Get(ctx context.Context, id uuid.UUID) (*auctions.Auction, uint64, bool, error) {
	pipe := c.client.Pipeline()
	dataCmd := pipe.Get(ctx, key(id))
	generationCmd := pipe.Get(ctx, generationKey(id))
	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		return nil, 0, false, fmt.Errorf("failed to read cached auction: %w", err)
	}

	generation, err := readGeneration(generationCmd)
	if err != nil {
		return nil, 0, false, fmt.Errorf("failed to read auction generation: %w", err)
	}

	data, err := dataCmd.Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, generation, false, nil
		}
		return nil, 0, false, fmt.Errorf("failed to read cached auction: %w", err)
	}

	var auction auctions.Auction
	if err := json.Unmarshal(data, &auction); err != nil {
		// A corrupt entry is a miss; drop it so the next read repopulates
		_ = c.client.Del(ctx, key(id)).Err()
		return nil, 0, false, fmt.Errorf("failed to decode cached auction: %w", err)
	}
	return &auction, generation, true, nil
}

// Set stores auction if the generation of its id still equals generation.
// A superseded fill is dropped without error.
func (c *RedisAuctionCache) Set(ctx context.Context, auction *auctions.Auction, generation uint64) error {
	data, err := json.Marshal(auction)
	if err != nil {
		return fmt.Errorf("failed to encode auction: %w", err)
	}

	genKey := generationKey(auction.ID)
	err = c.client.Watch(ctx, func(tx *redis.Tx) error {
		current, err := readGeneration(tx.Get(ctx, genKey))
		if err != nil {
			return err
		}
		if current != generation {
			return errStaleFill
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key(auction.ID), data, c.ttl)
			return nil
		})
		return err
	}, genKey)

	switch {
	case err == nil, errors.Is(err, errStaleFill), errors.Is(err, redis.TxFailedErr):
		return nil
	default:
		return fmt.Errorf("failed to cache auction: %w", err)
	}
}

func (c *RedisAuctionCache) Evict(ctx context.Context, id uuid.UUID) error {
	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, generationKey(id))
		pipe.Expire(ctx, generationKey(id), generationTTL)
		pipe.Del(ctx, key(id))
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to evict auction: %w", err)
	}
	return nil
}
