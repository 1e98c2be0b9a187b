package api

import (
	"time"

	"github.com/floroz/auctionhouse/internal/domain/auctions"
	"github.com/floroz/auctionhouse/internal/domain/bids"
)

// Auction is the wire form of an auction
type Auction struct {
	ID              string   `json:"id"`
	Title           string   `json:"title"`
	Description     string   `json:"description"`
	Category        string   `json:"category"`
	StartPrice      int64    `json:"start_price"`
	OwnerID         string   `json:"owner_id"`
	ImageURLs       []string `json:"image_urls"`
	EndsAt          string   `json:"ends_at"`
	CurrentBid      int64    `json:"current_bid"`
	BidsCount       int64    `json:"bids_count"`
	MinimumBid      int64    `json:"minimum_bid"`
	Status          string   `json:"status"`
	State           string   `json:"state"`
	ReviewedBy      string   `json:"reviewed_by,omitempty"`
	ReviewedAt      string   `json:"reviewed_at,omitempty"`
	RejectionReason string   `json:"rejection_reason,omitempty"`
	CreatedAt       string   `json:"created_at"`
}

// Bid is the wire form of a bid
type Bid struct {
	ID        string `json:"id"`
	AuctionID string `json:"auction_id"`
	UserID    string `json:"user_id"`
	Amount    int64  `json:"amount"`
	CreatedAt string `json:"created_at"`
}

type CreateAuctionRequest struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Category    string   `json:"category"`
	StartPrice  int64    `json:"start_price"`
	ImageURLs   []string `json:"image_urls"`
	EndsAt      string   `json:"ends_at"` // RFC 3339
}

type CreateAuctionResponse struct {
	Auction *Auction `json:"auction"`
}

type GetAuctionRequest struct {
	ID string `json:"id"`
}

type GetAuctionResponse struct {
	Auction *Auction `json:"auction"`
}

// Scopes accepted by ListAuctions
const (
	ScopeActive   = "active"
	ScopeApproved = "approved"
	ScopeMine     = "mine"
	ScopePending  = "pending"
	ScopeAll      = "all"
	ScopeCategory = "category"
)

type ListAuctionsRequest struct {
	// Scope defaults to active
	Scope string `json:"scope"`
	// Category and ExcludeID apply to the category scope
	Category  string `json:"category,omitempty"`
	ExcludeID string `json:"exclude_id,omitempty"`
}

type ListAuctionsResponse struct {
	Auctions []*Auction `json:"auctions"`
}

type PlaceBidRequest struct {
	AuctionID string `json:"auction_id"`
	Amount    int64  `json:"amount"`
}

type PlaceBidResponse struct {
	Bid *Bid `json:"bid"`
}

type ListBidsRequest struct {
	AuctionID string `json:"auction_id"`
}

type ListBidsResponse struct {
	Bids []*Bid `json:"bids"`
}

type ApproveAuctionRequest struct {
	AuctionID string `json:"auction_id"`
}

type ApproveAuctionResponse struct{}

type RejectAuctionRequest struct {
	AuctionID string `json:"auction_id"`
	Reason    string `json:"reason"`
}

type RejectAuctionResponse struct{}

type DeleteAuctionRequest struct {
	AuctionID string `json:"auction_id"`
}

type DeleteAuctionResponse struct{}

type ReconcileAuctionRequest struct {
	AuctionID string `json:"auction_id"`
}

type ReconcileAuctionResponse struct {
	Auction *Auction `json:"auction"`
}

type GetDashboardStatsRequest struct{}

type GetDashboardStatsResponse struct {
	Stats *auctions.DashboardStats `json:"stats"`
}

func mapAuction(a *auctions.Auction, minIncrement int64, now time.Time) *Auction {
	msg := &Auction{
		ID:          a.ID.String(),
		Title:       a.Title,
		Description: a.Description,
		Category:    a.Category,
		StartPrice:  a.StartPrice,
		OwnerID:     a.OwnerID.String(),
		ImageURLs:   a.ImageURLs,
		EndsAt:      a.EndsAt.UTC().Format(time.RFC3339),
		CurrentBid:  a.CurrentBid,
		BidsCount:   a.BidsCount,
		MinimumBid:  auctions.NextMinimumBid(a.CurrentBid, minIncrement),
		Status:      string(a.Status),
		State:       string(a.State(now)),
		CreatedAt:   a.CreatedAt.UTC().Format(time.RFC3339),
	}
	if msg.ImageURLs == nil {
		msg.ImageURLs = []string{}
	}
	if a.ReviewedBy != nil {
		msg.ReviewedBy = a.ReviewedBy.String()
	}
	if a.ReviewedAt != nil {
		msg.ReviewedAt = a.ReviewedAt.UTC().Format(time.RFC3339)
	}
	if a.RejectionReason != nil {
		msg.RejectionReason = *a.RejectionReason
	}
	return msg
}

func mapAuctions(list []*auctions.Auction, minIncrement int64, now time.Time) []*Auction {
	out := make([]*Auction, len(list))
	for i, a := range list {
		out[i] = mapAuction(a, minIncrement, now)
	}
	return out
}

func mapBid(b *bids.Bid) *Bid {
	return &Bid{
		ID:        b.ID.String(),
		AuctionID: b.AuctionID.String(),
		UserID:    b.UserID.String(),
		Amount:    b.Amount,
		CreatedAt: b.CreatedAt.UTC().Format(time.RFC3339Nano),
	}
}
