package auctions

import (
	"context"

	"github.com/google/uuid"
)

// Repository defines the interface for auction persistence.
// Lookups of a missing auction return ErrAuctionNotFound.
type Repository interface {
	// Create inserts a pending auction with CurrentBid = StartPrice and BidsCount = 0
	Create(ctx context.Context, data NewAuction) (*Auction, error)

	Get(ctx context.Context, id uuid.UUID) (*Auction, error)

	// GetForUpdate retrieves an auction and locks it until the surrounding transaction ends.
	// Must be called within a transaction.
	GetForUpdate(ctx context.Context, id uuid.UUID) (*Auction, error)

	// Update writes only the fields set in update
	Update(ctx context.Context, id uuid.UUID, update AuctionUpdate) error

	Delete(ctx context.Context, id uuid.UUID) error

	// ListByStatus, ListByOwner, ListByCategory and ListAll return auctions newest first, ties by id
	ListByStatus(ctx context.Context, status Status) ([]*Auction, error)
	ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*Auction, error)
	ListByCategory(ctx context.Context, status Status, category string) ([]*Auction, error)
	ListAll(ctx context.Context) ([]*Auction, error)

	// CountByStatus returns the number of auctions per status. Missing statuses count zero.
	CountByStatus(ctx context.Context) (map[Status]int64, error)
}

// BidStore is the part of bid persistence the auction services need
type BidStore interface {
	CountAll(ctx context.Context) (int64, error)
	DeleteByAuction(ctx context.Context, auctionID uuid.UUID) (int64, error)
}

// Cache is a read-through cache of single auctions. Entries are evicted after every committed change.
// Every Evict advances the generation of the id; a fill is only stored when the generation it read is still current,
// so a row read before a concurrent change cannot be written back after that change's eviction.
type Cache interface {
	// Get returns ok=false on a miss, together with the generation to hand to Set
	Get(ctx context.Context, id uuid.UUID) (auction *Auction, generation uint64, ok bool, err error)
	// Set stores auction unless id was evicted since the Get that returned generation
	Set(ctx context.Context, auction *Auction, generation uint64) error
	Evict(ctx context.Context, id uuid.UUID) error
}

// NoopCache is used when no cache backend is configured
type NoopCache struct{}

func (NoopCache) Get(context.Context, uuid.UUID) (*Auction, uint64, bool, error) {
	return nil, 0, false, nil
}
func (NoopCache) Set(context.Context, *Auction, uint64) error { return nil }
func (NoopCache) Evict(context.Context, uuid.UUID) error      { return nil }
