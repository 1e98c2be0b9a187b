package auctions

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/floroz/auctionhouse/pkg/database"
	"github.com/floroz/auctionhouse/pkg/events"
)

// ApprovalService implements the moderation workflow. Every operation requires an admin actor.
type ApprovalService struct {
	txManager database.TransactionManager
	repo      Repository
	bids      BidStore
	outbox    events.OutboxWriter
	cache     Cache
	logger    *slog.Logger
	now       func() time.Time
}

// NewApprovalService creates a new approval service. A nil cache disables eviction.
func NewApprovalService(
	txManager database.TransactionManager,
	repo Repository,
	bids BidStore,
	outbox events.OutboxWriter,
	cache Cache,
	logger *slog.Logger,
) *ApprovalService {
	if cache == nil {
		cache = NoopCache{}
	}
	return &ApprovalService{
		txManager: txManager,
		repo:      repo,
		bids:      bids,
		outbox:    outbox,
		cache:     cache,
		logger:    logger,
		now:       time.Now,
	}
}

// Approve makes an auction biddable. Approving an approved auction is a no-op.
func (s *ApprovalService) Approve(ctx context.Context, actor Actor, auctionID uuid.UUID) error {
	if !actor.IsAdmin() {
		return ErrUnauthorized
	}

	changed := false
	err := s.txManager.WithinTx(ctx, func(ctx context.Context) error {
		auction, err := s.repo.GetForUpdate(ctx, auctionID)
		if err != nil {
			return err
		}
		if auction.Status == StatusApproved {
			return nil
		}

		now := s.now()
		status := StatusApproved
		update := AuctionUpdate{
			Status:               &status,
			ReviewedBy:           &actor.UserID,
			ReviewedAt:           &now,
			ClearRejectionReason: true,
		}
		if err := s.repo.Update(ctx, auctionID, update); err != nil {
			return fmt.Errorf("failed to approve auction: %w", err)
		}

		if err := s.saveEvent(ctx, events.EventTypeAuctionApproved, map[string]any{
			"auction_id":  auctionID.String(),
			"reviewer_id": actor.UserID.String(),
			"occurred_at": now.UTC().Format(time.RFC3339Nano),
		}); err != nil {
			return err
		}
		changed = true
		return nil
	})
	if err != nil {
		return err
	}

	if changed {
		s.evict(ctx, auctionID)
		s.logger.Info("Auction approved", "auction_id", auctionID, "reviewer_id", actor.UserID)
	}
	return nil
}

// Reject declines an auction. An empty reason clears any previous reason.
func (s *ApprovalService) Reject(ctx context.Context, actor Actor, auctionID uuid.UUID, reason string) error {
	if !actor.IsAdmin() {
		return ErrUnauthorized
	}

	reason = strings.TrimSpace(reason)
	err := s.txManager.WithinTx(ctx, func(ctx context.Context) error {
		if _, err := s.repo.GetForUpdate(ctx, auctionID); err != nil {
			return err
		}

		now := s.now()
		status := StatusRejected
		update := AuctionUpdate{
			Status:     &status,
			ReviewedBy: &actor.UserID,
			ReviewedAt: &now,
		}
		if reason == "" {
			update.ClearRejectionReason = true
		} else {
			update.RejectionReason = &reason
		}
		if err := s.repo.Update(ctx, auctionID, update); err != nil {
			return fmt.Errorf("failed to reject auction: %w", err)
		}

		return s.saveEvent(ctx, events.EventTypeAuctionRejected, map[string]any{
			"auction_id":  auctionID.String(),
			"reviewer_id": actor.UserID.String(),
			"reason":      reason,
			"occurred_at": now.UTC().Format(time.RFC3339Nano),
		})
	})
	if err != nil {
		return err
	}

	s.evict(ctx, auctionID)
	s.logger.Info("Auction rejected", "auction_id", auctionID, "reviewer_id", actor.UserID)
	return nil
}

// Delete removes an auction and its bid history
func (s *ApprovalService) Delete(ctx context.Context, actor Actor, auctionID uuid.UUID) error {
	if !actor.IsAdmin() {
		return ErrUnauthorized
	}

	var deletedBids int64
	err := s.txManager.WithinTx(ctx, func(ctx context.Context) error {
		if _, err := s.repo.GetForUpdate(ctx, auctionID); err != nil {
			return err
		}

		n, err := s.bids.DeleteByAuction(ctx, auctionID)
		if err != nil {
			return fmt.Errorf("failed to delete bids: %w", err)
		}
		deletedBids = n

		if err := s.repo.Delete(ctx, auctionID); err != nil {
			return fmt.Errorf("failed to delete auction: %w", err)
		}

		return s.saveEvent(ctx, events.EventTypeAuctionDeleted, map[string]any{
			"auction_id":   auctionID.String(),
			"deleted_by":   actor.UserID.String(),
			"deleted_bids": deletedBids,
			"occurred_at":  s.now().UTC().Format(time.RFC3339Nano),
		})
	})
	if err != nil {
		return err
	}

	s.evict(ctx, auctionID)
	s.logger.Info("Auction deleted", "auction_id", auctionID, "deleted_by", actor.UserID, "deleted_bids", deletedBids)
	return nil
}

func (s *ApprovalService) saveEvent(ctx context.Context, eventType string, fields map[string]any) error {
	payload, err := events.MarshalPayload(fields)
	if err != nil {
		return err
	}
	if err := s.outbox.SaveEvent(ctx, events.NewOutboxEvent(eventType, payload, s.now())); err != nil {
		return fmt.Errorf("failed to save outbox event: %w", err)
	}
	return nil
}

func (s *ApprovalService) evict(ctx context.Context, auctionID uuid.UUID) {
	if err := s.cache.Evict(ctx, auctionID); err != nil {
		s.logger.Warn("Auction cache eviction failed", "auction_id", auctionID, "error", err)
	}
}
