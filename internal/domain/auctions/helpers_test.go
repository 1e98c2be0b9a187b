package auctions_test

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/floroz/auctionhouse/internal/adapters/memory"
	"github.com/floroz/auctionhouse/internal/domain/auctions"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// seedAuction stores an auction with the given status directly in the store
func seedAuction(t *testing.T, store *memory.Store, status auctions.Status) *auctions.Auction {
	t.Helper()
	a := &auctions.Auction{
		ID:         uuid.New(),
		Title:      "Test Auction",
		Category:   auctions.DefaultCategory,
		StartPrice: 100,
		OwnerID:    uuid.New(),
		ImageURLs:  []string{},
		EndsAt:     time.Now().Add(24 * time.Hour),
		CurrentBid: 100,
		Status:     status,
		CreatedAt:  time.Now(),
	}
	store.Auctions().Seed(a)
	return a
}

func getAuction(t *testing.T, store *memory.Store, id uuid.UUID) *auctions.Auction {
	t.Helper()
	a, err := store.Auctions().Get(context.Background(), id)
	require.NoError(t, err)
	return a
}

// recordingCache is a map backed cache that remembers evictions and honours fill generations
type recordingCache struct {
	mu          sync.Mutex
	entries     map[uuid.UUID]*auctions.Auction
	generations map[uuid.UUID]uint64
	evicted     []uuid.UUID
}

func newRecordingCache() *recordingCache {
	return &recordingCache{
		entries:     make(map[uuid.UUID]*auctions.Auction),
		generations: make(map[uuid.UUID]uint64),
	}
}

func (c *recordingCache) Get(_ context.Context, id uuid.UUID) (*auctions.Auction, uint64, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	a, ok := c.entries[id]
	if !ok {
		return nil, c.generations[id], false, nil
	}
	return a.Clone(), c.generations[id], true, nil
}

func (c *recordingCache) Set(_ context.Context, a *auctions.Auction, generation uint64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.generations[a.ID] != generation {
		return nil
	}
	c.entries[a.ID] = a.Clone()
	return nil
}

func (c *recordingCache) Evict(_ context.Context, id uuid.UUID) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, id)
	c.generations[id]++
	c.evicted = append(c.evicted, id)
	return nil
}

func (c *recordingCache) wasEvicted(id uuid.UUID) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, e := range c.evicted {
		if e == id {
			return true
		}
	}
	return false
}

// hookedRepo runs afterGet once, right after the first Get has read the row
type hookedRepo struct {
	auctions.Repository
	once     sync.Once
	afterGet func()
}

func (r *hookedRepo) Get(ctx context.Context, id uuid.UUID) (*auctions.Auction, error) {
	a, err := r.Repository.Get(ctx, id)
	r.once.Do(r.afterGet)
	return a, err
}
