package auctions

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
)

// CreateAuctionCommand represents the command to list a new item for auction
type CreateAuctionCommand struct {
	Title       string
	Description string
	Category    string
	StartPrice  int64
	ImageURLs   []string
	EndsAt      time.Time
	OwnerID     uuid.UUID
}

// AuctionService implements listing creation and the read side of auctions
type AuctionService struct {
	repo   Repository
	bids   BidStore
	cache  Cache
	logger *slog.Logger
	now    func() time.Time
}

// NewAuctionService creates a new auction service. A nil cache disables caching.
func NewAuctionService(repo Repository, bids BidStore, cache Cache, logger *slog.Logger) *AuctionService {
	if cache == nil {
		cache = NoopCache{}
	}
	return &AuctionService{
		repo:   repo,
		bids:   bids,
		cache:  cache,
		logger: logger,
		now:    time.Now,
	}
}

// CreateAuction validates and stores a new listing. New listings await review.
func (s *AuctionService) CreateAuction(ctx context.Context, cmd CreateAuctionCommand) (*Auction, error) {
	title := strings.TrimSpace(cmd.Title)
	if title == "" {
		return nil, ErrInvalidTitle
	}

	if cmd.StartPrice <= 0 || cmd.StartPrice > MaxAmount {
		return nil, ErrInvalidStartPrice
	}

	if !cmd.EndsAt.After(s.now()) {
		return nil, ErrInvalidEndTime
	}

	category := cmd.Category
	if category == "" {
		category = DefaultCategory
	}
	if !slices.Contains(Categories, category) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidCategory, category)
	}

	if err := validateImageURLs(cmd.ImageURLs); err != nil {
		return nil, err
	}

	auction, err := s.repo.Create(ctx, NewAuction{
		Title:       title,
		Description: cmd.Description,
		Category:    category,
		StartPrice:  cmd.StartPrice,
		OwnerID:     cmd.OwnerID,
		ImageURLs:   cmd.ImageURLs,
		EndsAt:      cmd.EndsAt,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create auction: %w", err)
	}

	s.logger.Info("Auction created", "auction_id", auction.ID, "owner_id", auction.OwnerID)
	return auction, nil
}

func validateImageURLs(urls []string) error {
	if len(urls) > MaxImages {
		return ErrTooManyImages
	}
	for _, raw := range urls {
		u, err := url.Parse(raw)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("%w: %q", ErrInvalidImageURL, raw)
		}
	}
	return nil
}

// GetAuction retrieves an auction, serving it from the cache when possible
func (s *AuctionService) GetAuction(ctx context.Context, id uuid.UUID) (*Auction, error) {
	cached, generation, ok, cacheErr := s.cache.Get(ctx, id)
	if cacheErr != nil {
		s.logger.Warn("Auction cache read failed", "auction_id", id, "error", cacheErr)
	} else if ok {
		return cached, nil
	}

	auction, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	// A failed lookup yields no generation to guard the fill with
	if cacheErr == nil {
		if err := s.cache.Set(ctx, auction, generation); err != nil {
			s.logger.Warn("Auction cache write failed", "auction_id", id, "error", err)
		}
	}
	return auction, nil
}

// ListApproved returns every approved auction, ended or not
func (s *AuctionService) ListApproved(ctx context.Context) ([]*Auction, error) {
	auctions, err := s.repo.ListByStatus(ctx, StatusApproved)
	if err != nil {
		return nil, fmt.Errorf("failed to list approved auctions: %w", err)
	}
	return auctions, nil
}

// ListActive returns the auctions currently accepting bids
func (s *AuctionService) ListActive(ctx context.Context) ([]*Auction, error) {
	approved, err := s.ListApproved(ctx)
	if err != nil {
		return nil, err
	}

	now := s.now()
	active := make([]*Auction, 0, len(approved))
	for _, a := range approved {
		if a.State(now) == StateActive {
			active = append(active, a)
		}
	}
	return active, nil
}

// ListSameCategory returns the approved auctions of category other than excludeID
func (s *AuctionService) ListSameCategory(ctx context.Context, category string, excludeID uuid.UUID) ([]*Auction, error) {
	if !slices.Contains(Categories, category) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidCategory, category)
	}

	listed, err := s.repo.ListByCategory(ctx, StatusApproved, category)
	if err != nil {
		return nil, fmt.Errorf("failed to list category auctions: %w", err)
	}
	return slices.DeleteFunc(listed, func(a *Auction) bool { return a.ID == excludeID }), nil
}

// ListPending returns the moderation queue
func (s *AuctionService) ListPending(ctx context.Context, actor Actor) ([]*Auction, error) {
	if !actor.IsAdmin() {
		return nil, ErrUnauthorized
	}
	auctions, err := s.repo.ListByStatus(ctx, StatusPending)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending auctions: %w", err)
	}
	return auctions, nil
}

// ListAll returns every auction regardless of status
func (s *AuctionService) ListAll(ctx context.Context, actor Actor) ([]*Auction, error) {
	if !actor.IsAdmin() {
		return nil, ErrUnauthorized
	}
	auctions, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list auctions: %w", err)
	}
	return auctions, nil
}

// ListByOwner returns the listings created by ownerID
func (s *AuctionService) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*Auction, error) {
	auctions, err := s.repo.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list owner auctions: %w", err)
	}
	return auctions, nil
}

// DashboardStats returns the admin dashboard counters
func (s *AuctionService) DashboardStats(ctx context.Context, actor Actor) (*DashboardStats, error) {
	if !actor.IsAdmin() {
		return nil, ErrUnauthorized
	}

	counts, err := s.repo.CountByStatus(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count auctions: %w", err)
	}

	totalBids, err := s.bids.CountAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count bids: %w", err)
	}

	stats := &DashboardStats{
		PendingAuctions:  counts[StatusPending],
		ApprovedAuctions: counts[StatusApproved],
		RejectedAuctions: counts[StatusRejected],
		TotalBids:        totalBids,
	}
	stats.TotalAuctions = stats.PendingAuctions + stats.ApprovedAuctions + stats.RejectedAuctions
	return stats, nil
}
