package bids

import (
	"context"

	"github.com/google/uuid"
)

// Repository defines the interface for bid persistence
type Repository interface {
	// Append stores a bid and returns it with the assigned ID and CreatedAt
	Append(ctx context.Context, bid *Bid) (*Bid, error)

	// ListByAuction returns the bids of an auction newest first, ties broken by insertion order
	ListByAuction(ctx context.Context, auctionID uuid.UUID) ([]*Bid, error)

	CountByAuction(ctx context.Context, auctionID uuid.UUID) (int64, error)

	CountAll(ctx context.Context) (int64, error)

	// DeleteByAuction removes the bid history of an auction and returns how many bids were removed
	DeleteByAuction(ctx context.Context, auctionID uuid.UUID) (int64, error)
}
