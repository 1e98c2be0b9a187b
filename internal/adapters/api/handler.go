package api

import (
	"context"
	"errors"
	"fmt"
	"time"

	"connectrpc.com/connect"
	"github.com/google/uuid"

	"github.com/floroz/auctionhouse/internal/domain/auctions"
	"github.com/floroz/auctionhouse/internal/domain/bids"
	"github.com/floroz/auctionhouse/pkg/auth"
)

type AuctionServiceHandler struct {
	auctionService  *auctions.AuctionService
	approvalService *auctions.ApprovalService
	biddingService  *bids.BiddingService
}

func NewAuctionServiceHandler(
	auctionService *auctions.AuctionService,
	approvalService *auctions.ApprovalService,
	biddingService *bids.BiddingService,
) *AuctionServiceHandler {
	return &AuctionServiceHandler{
		auctionService:  auctionService,
		approvalService: approvalService,
		biddingService:  biddingService,
	}
}

// actorFromContext builds the caller identity from the values injected by the auth interceptor
func actorFromContext(ctx context.Context) (auctions.Actor, error) {
	subject, ok := auth.GetUserID(ctx)
	if !ok {
		return auctions.Actor{}, connect.NewError(connect.CodeUnauthenticated, errors.New("authentication required"))
	}
	userID, err := uuid.Parse(subject)
	if err != nil {
		return auctions.Actor{}, connect.NewError(connect.CodeInternal, errors.New("invalid user_id in token"))
	}
	role, _ := auth.GetRole(ctx)
	return auctions.Actor{UserID: userID, Role: auctions.Role(role)}, nil
}

func parseID(field, raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, connect.NewError(connect.CodeInvalidArgument, fmt.Errorf("invalid %s", field))
	}
	return id, nil
}

func (h *AuctionServiceHandler) auctionMessage(a *auctions.Auction) *Auction {
	return mapAuction(a, h.biddingService.MinBidIncrement(), time.Now())
}

// CreateAuction lists a new item for the authenticated user
func (h *AuctionServiceHandler) CreateAuction(
	ctx context.Context,
	req *connect.Request[CreateAuctionRequest],
) (*connect.Response[CreateAuctionResponse], error) {
	actor, err := actorFromContext(ctx)
	if err != nil {
		return nil, err
	}

	endsAt, err := time.Parse(time.RFC3339, req.Msg.EndsAt)
	if err != nil {
		return nil, connect.NewError(connect.CodeInvalidArgument, errors.New("invalid ends_at format"))
	}

	auction, err := h.auctionService.CreateAuction(ctx, auctions.CreateAuctionCommand{
		Title:       req.Msg.Title,
		Description: req.Msg.Description,
		Category:    req.Msg.Category,
		StartPrice:  req.Msg.StartPrice,
		ImageURLs:   req.Msg.ImageURLs,
		EndsAt:      endsAt,
		OwnerID:     actor.UserID,
	})
	if err != nil {
		return nil, toConnectError(err)
	}

	return connect.NewResponse(&CreateAuctionResponse{Auction: h.auctionMessage(auction)}), nil
}

// GetAuction retrieves an auction by ID
func (h *AuctionServiceHandler) GetAuction(
	ctx context.Context,
	req *connect.Request[GetAuctionRequest],
) (*connect.Response[GetAuctionResponse], error) {
	auctionID, err := parseID("id", req.Msg.ID)
	if err != nil {
		return nil, err
	}

	auction, err := h.auctionService.GetAuction(ctx, auctionID)
	if err != nil {
		return nil, toConnectError(err)
	}

	return connect.NewResponse(&GetAuctionResponse{Auction: h.auctionMessage(auction)}), nil
}

// ListAuctions lists auctions in the requested scope. Public scopes need no token.
func (h *AuctionServiceHandler) ListAuctions(
	ctx context.Context,
	req *connect.Request[ListAuctionsRequest],
) (*connect.Response[ListAuctionsResponse], error) {
	var (
		list []*auctions.Auction
		err  error
	)

	switch req.Msg.Scope {
	case "", ScopeActive:
		list, err = h.auctionService.ListActive(ctx)
	case ScopeApproved:
		list, err = h.auctionService.ListApproved(ctx)
	case ScopeCategory:
		excludeID := uuid.Nil
		if req.Msg.ExcludeID != "" {
			if excludeID, err = parseID("exclude_id", req.Msg.ExcludeID); err != nil {
				return nil, err
			}
		}
		list, err = h.auctionService.ListSameCategory(ctx, req.Msg.Category, excludeID)
	case ScopeMine, ScopePending, ScopeAll:
		actor, actorErr := actorFromContext(ctx)
		if actorErr != nil {
			return nil, actorErr
		}
		switch req.Msg.Scope {
		case ScopeMine:
			list, err = h.auctionService.ListByOwner(ctx, actor.UserID)
		case ScopePending:
			list, err = h.auctionService.ListPending(ctx, actor)
		default:
			list, err = h.auctionService.ListAll(ctx, actor)
		}
	default:
		return nil, connect.NewError(connect.CodeInvalidArgument, fmt.Errorf("unknown scope %q", req.Msg.Scope))
	}
	if err != nil {
		return nil, toConnectError(err)
	}

	res := &ListAuctionsResponse{
		Auctions: mapAuctions(list, h.biddingService.MinBidIncrement(), time.Now()),
	}
	return connect.NewResponse(res), nil
}

// PlaceBid places a bid on behalf of the authenticated user
func (h *AuctionServiceHandler) PlaceBid(
	ctx context.Context,
	req *connect.Request[PlaceBidRequest],
) (*connect.Response[PlaceBidResponse], error) {
	actor, err := actorFromContext(ctx)
	if err != nil {
		return nil, err
	}

	auctionID, err := parseID("auction_id", req.Msg.AuctionID)
	if err != nil {
		return nil, err
	}

	bid, err := h.biddingService.PlaceBid(ctx, bids.PlaceBidCommand{
		AuctionID: auctionID,
		UserID:    actor.UserID,
		Amount:    req.Msg.Amount,
	})
	if err != nil {
		return nil, toConnectError(err)
	}

	return connect.NewResponse(&PlaceBidResponse{Bid: mapBid(bid)}), nil
}

// ListBids returns the bid history of an auction, newest first
func (h *AuctionServiceHandler) ListBids(
	ctx context.Context,
	req *connect.Request[ListBidsRequest],
) (*connect.Response[ListBidsResponse], error) {
	auctionID, err := parseID("auction_id", req.Msg.AuctionID)
	if err != nil {
		return nil, err
	}

	history, err := h.biddingService.ListBids(ctx, auctionID)
	if err != nil {
		return nil, toConnectError(err)
	}

	res := &ListBidsResponse{Bids: make([]*Bid, len(history))}
	for i, bid := range history {
		res.Bids[i] = mapBid(bid)
	}
	return connect.NewResponse(res), nil
}

func (h *AuctionServiceHandler) ApproveAuction(
	ctx context.Context,
	req *connect.Request[ApproveAuctionRequest],
) (*connect.Response[ApproveAuctionResponse], error) {
	actor, err := actorFromContext(ctx)
	if err != nil {
		return nil, err
	}
	auctionID, err := parseID("auction_id", req.Msg.AuctionID)
	if err != nil {
		return nil, err
	}

	if err := h.approvalService.Approve(ctx, actor, auctionID); err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&ApproveAuctionResponse{}), nil
}

func (h *AuctionServiceHandler) RejectAuction(
	ctx context.Context,
	req *connect.Request[RejectAuctionRequest],
) (*connect.Response[RejectAuctionResponse], error) {
	actor, err := actorFromContext(ctx)
	if err != nil {
		return nil, err
	}
	auctionID, err := parseID("auction_id", req.Msg.AuctionID)
	if err != nil {
		return nil, err
	}

	if err := h.approvalService.Reject(ctx, actor, auctionID, req.Msg.Reason); err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&RejectAuctionResponse{}), nil
}

func (h *AuctionServiceHandler) DeleteAuction(
	ctx context.Context,
	req *connect.Request[DeleteAuctionRequest],
) (*connect.Response[DeleteAuctionResponse], error) {
	actor, err := actorFromContext(ctx)
	if err != nil {
		return nil, err
	}
	auctionID, err := parseID("auction_id", req.Msg.AuctionID)
	if err != nil {
		return nil, err
	}

	if err := h.approvalService.Delete(ctx, actor, auctionID); err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&DeleteAuctionResponse{}), nil
}

// ReconcileAuction recomputes the bid aggregate of an auction from its history
func (h *AuctionServiceHandler) ReconcileAuction(
	ctx context.Context,
	req *connect.Request[ReconcileAuctionRequest],
) (*connect.Response[ReconcileAuctionResponse], error) {
	actor, err := actorFromContext(ctx)
	if err != nil {
		return nil, err
	}
	auctionID, err := parseID("auction_id", req.Msg.AuctionID)
	if err != nil {
		return nil, err
	}

	auction, err := h.biddingService.ReconcileAggregate(ctx, actor, auctionID)
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&ReconcileAuctionResponse{Auction: h.auctionMessage(auction)}), nil
}

func (h *AuctionServiceHandler) GetDashboardStats(
	ctx context.Context,
	_ *connect.Request[GetDashboardStatsRequest],
) (*connect.Response[GetDashboardStatsResponse], error) {
	actor, err := actorFromContext(ctx)
	if err != nil {
		return nil, err
	}

	stats, err := h.auctionService.DashboardStats(ctx, actor)
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&GetDashboardStatsResponse{Stats: stats}), nil
}
