package bids

import (
	"time"

	"github.com/google/uuid"
)

// Bid represents an accepted offer on an auction. Bids are never modified.
type Bid struct {
	ID        uuid.UUID `db:"id"`
	AuctionID uuid.UUID `db:"auction_id"`
	UserID    uuid.UUID `db:"user_id"`
	Amount    int64     `db:"amount"`
	CreatedAt time.Time `db:"created_at"`
}
