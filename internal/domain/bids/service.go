package bids

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/sethvargo/go-retry"

	"github.com/floroz/auctionhouse/internal/domain/auctions"
	"github.com/floroz/auctionhouse/pkg/database"
	"github.com/floroz/auctionhouse/pkg/events"
)

// DefaultMinBidIncrement is the amount a bid must exceed the current bid by
const DefaultMinBidIncrement int64 = 10

const retryBaseDelay = 20 * time.Millisecond

type PlaceBidCommand struct {
	AuctionID uuid.UUID
	UserID    uuid.UUID
	Amount    int64
}

// Options tune bid acceptance
type Options struct {
	MinBidIncrement int64
	// RetryAttempts is the number of times a bid is attempted when it loses a lock race
	RetryAttempts uint64
}

// BiddingService implements bid acceptance and keeps the auction aggregate in step with the bid history
type BiddingService struct {
	txManager    database.TransactionManager
	auctionRepo  auctions.Repository
	bidRepo      Repository
	outbox       events.OutboxWriter
	cache        auctions.Cache
	logger       *slog.Logger
	minIncrement int64
	attempts     uint64
	now          func() time.Time
}

// NewBiddingService creates a new bidding service. A nil cache disables eviction.
func NewBiddingService(
	txManager database.TransactionManager,
	auctionRepo auctions.Repository,
	bidRepo Repository,
	outbox events.OutboxWriter,
	cache auctions.Cache,
	logger *slog.Logger,
	opts Options,
) *BiddingService {
	if cache == nil {
		cache = auctions.NoopCache{}
	}
	if opts.MinBidIncrement <= 0 {
		opts.MinBidIncrement = DefaultMinBidIncrement
	}
	if opts.RetryAttempts == 0 {
		opts.RetryAttempts = 1
	}
	return &BiddingService{
		txManager:    txManager,
		auctionRepo:  auctionRepo,
		bidRepo:      bidRepo,
		outbox:       outbox,
		cache:        cache,
		logger:       logger,
		minIncrement: opts.MinBidIncrement,
		attempts:     opts.RetryAttempts,
		now:          time.Now,
	}
}

// MinBidIncrement returns the configured increment
func (s *BiddingService) MinBidIncrement() int64 {
	return s.minIncrement
}

// PlaceBid validates and records a bid.
// The auction row stays locked from validation until the bid, the aggregate and the outbox event are committed,
// so concurrent bids on one auction are accepted one at a time against the latest CurrentBid.
func (s *BiddingService) PlaceBid(ctx context.Context, cmd PlaceBidCommand) (*Bid, error) {
	var bid *Bid
	err := s.withRetry(ctx, func(ctx context.Context) error {
		var err error
		bid, err = s.placeBid(ctx, cmd)
		return err
	})
	if err != nil {
		s.logRejected(cmd, err)
		return nil, err
	}

	s.evict(ctx, cmd.AuctionID)
	s.logger.Info("Bid placed",
		"bid_id", bid.ID,
		"auction_id", bid.AuctionID,
		"user_id", bid.UserID,
		"amount", bid.Amount,
	)
	return bid, nil
}

func (s *BiddingService) placeBid(ctx context.Context, cmd PlaceBidCommand) (*Bid, error) {
	var bid *Bid
	err := s.txManager.WithinTx(ctx, func(ctx context.Context) error {
		// Lock the auction row so the checks below see the latest aggregate
		auction, err := s.auctionRepo.GetForUpdate(ctx, cmd.AuctionID)
		if err != nil {
			return err
		}

		if err := auction.CheckBiddable(s.now()); err != nil {
			return err
		}

		if auction.IsOwnedBy(cmd.UserID) {
			return ErrOwnerCannotBid
		}

		minimum := auctions.NextMinimumBid(auction.CurrentBid, s.minIncrement)
		if cmd.Amount <= 0 || cmd.Amount < minimum {
			return &BidTooLowError{Amount: cmd.Amount, Minimum: minimum}
		}
		if cmd.Amount > auctions.MaxAmount {
			return fmt.Errorf("%w: %d", ErrBidTooHigh, cmd.Amount)
		}

		// Step 1: Append the bid
		bid, err = s.bidRepo.Append(ctx, &Bid{
			AuctionID: cmd.AuctionID,
			UserID:    cmd.UserID,
			Amount:    cmd.Amount,
		})
		if err != nil {
			return fmt.Errorf("failed to save bid: %w", err)
		}

		// Step 2: Recompute the aggregate from the stored history
		count, err := s.bidRepo.CountByAuction(ctx, cmd.AuctionID)
		if err != nil {
			return fmt.Errorf("failed to count bids: %w", err)
		}
		update := auctions.AuctionUpdate{CurrentBid: &bid.Amount, BidsCount: &count}
		if err := s.auctionRepo.Update(ctx, cmd.AuctionID, update); err != nil {
			return fmt.Errorf("failed to update auction aggregate: %w", err)
		}

		// Step 3: Save the event to the outbox (in the same transaction)
		payload, err := events.MarshalPayload(map[string]any{
			"bid_id":     bid.ID.String(),
			"auction_id": bid.AuctionID.String(),
			"user_id":    bid.UserID.String(),
			"amount":     bid.Amount,
			"bids_count": count,
			"created_at": bid.CreatedAt.UTC().Format(time.RFC3339Nano),
		})
		if err != nil {
			return err
		}
		if err := s.outbox.SaveEvent(ctx, events.NewOutboxEvent(events.EventTypeBidPlaced, payload, s.now())); err != nil {
			return fmt.Errorf("failed to save outbox event: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return bid, nil
}

// ListBids returns the bid history of an auction, newest first
func (s *BiddingService) ListBids(ctx context.Context, auctionID uuid.UUID) ([]*Bid, error) {
	if _, err := s.auctionRepo.Get(ctx, auctionID); err != nil {
		return nil, err
	}

	bids, err := s.bidRepo.ListByAuction(ctx, auctionID)
	if err != nil {
		return nil, fmt.Errorf("failed to list bids: %w", err)
	}
	return bids, nil
}

// ReconcileAggregate recomputes CurrentBid and BidsCount of an auction from its bid history
func (s *BiddingService) ReconcileAggregate(ctx context.Context, actor auctions.Actor, auctionID uuid.UUID) (*auctions.Auction, error) {
	if !actor.IsAdmin() {
		return nil, auctions.ErrUnauthorized
	}

	var reconciled *auctions.Auction
	err := s.withRetry(ctx, func(ctx context.Context) error {
		return s.txManager.WithinTx(ctx, func(ctx context.Context) error {
			auction, err := s.auctionRepo.GetForUpdate(ctx, auctionID)
			if err != nil {
				return err
			}

			history, err := s.bidRepo.ListByAuction(ctx, auctionID)
			if err != nil {
				return fmt.Errorf("failed to list bids: %w", err)
			}

			count := int64(len(history))
			current := auction.StartPrice
			if count > 0 {
				current = history[0].Amount
			}

			if count != auction.BidsCount || current != auction.CurrentBid {
				s.logger.Warn("Auction aggregate drift repaired",
					"auction_id", auctionID,
					"stored_bids_count", auction.BidsCount,
					"bids_count", count,
					"stored_current_bid", auction.CurrentBid,
					"current_bid", current,
				)
			}

			update := auctions.AuctionUpdate{CurrentBid: &current, BidsCount: &count}
			if err := s.auctionRepo.Update(ctx, auctionID, update); err != nil {
				return fmt.Errorf("failed to update auction aggregate: %w", err)
			}
			update.Apply(auction)
			reconciled = auction
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	s.evict(ctx, auctionID)
	return reconciled, nil
}

// withRetry runs fn again when it fails on lock contention
func (s *BiddingService) withRetry(ctx context.Context, fn func(ctx context.Context) error) error {
	backoff := retry.NewExponential(retryBaseDelay)
	backoff = retry.WithJitterPercent(20, backoff)
	backoff = retry.WithMaxRetries(s.attempts-1, backoff)

	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		err := fn(ctx)
		if isContention(err) {
			return retry.RetryableError(err)
		}
		return err
	})
	if isContention(err) && !errors.Is(err, auctions.ErrConcurrentUpdate) {
		return fmt.Errorf("%w: %w", auctions.ErrConcurrentUpdate, err)
	}
	return err
}

func isContention(err error) bool {
	return err != nil && (errors.Is(err, auctions.ErrConcurrentUpdate) || database.IsContention(err))
}

func (s *BiddingService) logRejected(cmd PlaceBidCommand, err error) {
	attrs := []any{
		"auction_id", cmd.AuctionID,
		"user_id", cmd.UserID,
		"amount", cmd.Amount,
		"error", err,
	}
	switch {
	case errors.Is(err, auctions.ErrAuctionNotFound),
		errors.Is(err, auctions.ErrAuctionNotBiddable),
		errors.Is(err, ErrOwnerCannotBid),
		errors.Is(err, ErrBidTooLow),
		errors.Is(err, ErrBidTooHigh),
		errors.Is(err, auctions.ErrConcurrentUpdate):
		s.logger.Warn("Bid rejected", attrs...)
	default:
		s.logger.Error("Bid failed", attrs...)
	}
}

func (s *BiddingService) evict(ctx context.Context, auctionID uuid.UUID) {
	if err := s.cache.Evict(ctx, auctionID); err != nil {
		s.logger.Warn("Auction cache eviction failed", "auction_id", auctionID, "error", err)
	}
}
