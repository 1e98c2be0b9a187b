package auctions

import (
	"math"
	"time"

	"github.com/google/uuid"
)

// Status is the moderation status of an auction
type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

// Valid reports whether s is one of the known statuses
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected:
		return true
	default:
		return false
	}
}

// MaxAmount is the largest start price or bid accepted.
// Event payloads carry amounts as doubles, which represent every integer up to this value exactly.
const MaxAmount int64 = 1<<53 - 1

// NextMinimumBid returns current + increment, saturating at math.MaxInt64
func NextMinimumBid(current, increment int64) int64 {
	if current > math.MaxInt64-increment {
		return math.MaxInt64
	}
	return current + increment
}

// Categories accepted by CreateAuction
var Categories = []string{
	"Electronics",
	"Art & Collectibles",
	"Jewelry",
	"Vehicles",
	"Real Estate",
	"Furniture",
	"Fashion",
	"Other",
}

// DefaultCategory is used when a listing names no category
const DefaultCategory = "Other"

// MaxImages is the maximum number of image URLs a listing may carry
const MaxImages = 10

// Auction is a listing together with its bid aggregate.
// CurrentBid and BidsCount are derived from the bid history and only change inside a bid transaction.
type Auction struct {
	ID              uuid.UUID  `db:"id" json:"id"`
	Title           string     `db:"title" json:"title"`
	Description     string     `db:"description" json:"description"`
	Category        string     `db:"category" json:"category"`
	StartPrice      int64      `db:"start_price" json:"start_price"`
	OwnerID         uuid.UUID  `db:"owner_id" json:"owner_id"`
	ImageURLs       []string   `db:"image_urls" json:"image_urls"`
	EndsAt          time.Time  `db:"ends_at" json:"ends_at"`
	CurrentBid      int64      `db:"current_bid" json:"current_bid"`
	BidsCount       int64      `db:"bids_count" json:"bids_count"`
	Status          Status     `db:"status" json:"status"`
	ReviewedBy      *uuid.UUID `db:"reviewed_by" json:"reviewed_by,omitempty"`
	ReviewedAt      *time.Time `db:"reviewed_at" json:"reviewed_at,omitempty"`
	RejectionReason *string    `db:"rejection_reason" json:"rejection_reason,omitempty"`
	CreatedAt       time.Time  `db:"created_at" json:"created_at"`
}

// IsOwnedBy checks if the auction belongs to the given user
func (a *Auction) IsOwnedBy(userID uuid.UUID) bool {
	return a.OwnerID == userID
}

// Clone returns a deep copy of a
func (a *Auction) Clone() *Auction {
	c := *a
	if a.ImageURLs != nil {
		c.ImageURLs = append([]string(nil), a.ImageURLs...)
	}
	if a.ReviewedBy != nil {
		id := *a.ReviewedBy
		c.ReviewedBy = &id
	}
	if a.ReviewedAt != nil {
		at := *a.ReviewedAt
		c.ReviewedAt = &at
	}
	if a.RejectionReason != nil {
		reason := *a.RejectionReason
		c.RejectionReason = &reason
	}
	return &c
}

// NewAuction is the data a repository needs to insert a listing.
// The repository assigns the id, status, aggregate and creation time.
type NewAuction struct {
	Title       string
	Description string
	Category    string
	StartPrice  int64
	OwnerID     uuid.UUID
	ImageURLs   []string
	EndsAt      time.Time
}

// AuctionUpdate is a partial update. Only non-nil fields are written.
type AuctionUpdate struct {
	CurrentBid *int64
	BidsCount  *int64
	Status     *Status
	ReviewedBy *uuid.UUID
	ReviewedAt *time.Time

	// RejectionReason is written when non-nil; ClearRejectionReason sets it to NULL
	RejectionReason      *string
	ClearRejectionReason bool
}

// Apply writes the non-nil fields of u to a
func (u AuctionUpdate) Apply(a *Auction) {
	if u.CurrentBid != nil {
		a.CurrentBid = *u.CurrentBid
	}
	if u.BidsCount != nil {
		a.BidsCount = *u.BidsCount
	}
	if u.Status != nil {
		a.Status = *u.Status
	}
	if u.ReviewedBy != nil {
		id := *u.ReviewedBy
		a.ReviewedBy = &id
	}
	if u.ReviewedAt != nil {
		at := *u.ReviewedAt
		a.ReviewedAt = &at
	}
	if u.ClearRejectionReason {
		a.RejectionReason = nil
	} else if u.RejectionReason != nil {
		reason := *u.RejectionReason
		a.RejectionReason = &reason
	}
}

// Role is the caller's role as asserted by the identity provider
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// Actor is the authenticated caller of a privileged operation
type Actor struct {
	UserID uuid.UUID
	Role   Role
}

// IsAdmin reports whether the actor holds the admin role
func (a Actor) IsAdmin() bool {
	return a.Role == RoleAdmin
}

// DashboardStats are the moderation counters shown to administrators
type DashboardStats struct {
	TotalAuctions    int64 `json:"total_auctions"`
	PendingAuctions  int64 `json:"pending_auctions"`
	ApprovedAuctions int64 `json:"approved_auctions"`
	RejectedAuctions int64 `json:"rejected_auctions"`
	TotalBids        int64 `json:"total_bids"`
}
