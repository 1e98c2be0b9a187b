package api

import (
	"errors"
	"strconv"

	"connectrpc.com/connect"

	"github.com/floroz/auctionhouse/internal/domain/auctions"
	"github.com/floroz/auctionhouse/internal/domain/bids"
)

// Error metadata headers
const (
	MinimumBidHeader        = "Minimum-Bid"
	NotBiddableReasonHeader = "Not-Biddable-Reason"
	reasonPendingReview     = "pending_review"
	reasonDeclined          = "declined"
	reasonEnded             = "ended"
)

// toConnectError maps domain errors to connect codes
func toConnectError(err error) error {
	switch {
	case errors.Is(err, auctions.ErrAuctionNotFound):
		return connect.NewError(connect.CodeNotFound, err)

	case errors.Is(err, auctions.ErrAuctionNotBiddable):
		cerr := connect.NewError(connect.CodeFailedPrecondition, err)
		switch {
		case errors.Is(err, auctions.ErrAuctionPendingReview):
			cerr.Meta().Set(NotBiddableReasonHeader, reasonPendingReview)
		case errors.Is(err, auctions.ErrAuctionDeclined):
			cerr.Meta().Set(NotBiddableReasonHeader, reasonDeclined)
		case errors.Is(err, auctions.ErrAuctionEnded):
			cerr.Meta().Set(NotBiddableReasonHeader, reasonEnded)
		}
		return cerr

	case errors.Is(err, bids.ErrBidTooLow):
		cerr := connect.NewError(connect.CodeFailedPrecondition, err)
		if minimum, ok := bids.MinimumBid(err); ok {
			cerr.Meta().Set(MinimumBidHeader, strconv.FormatInt(minimum, 10))
		}
		return cerr

	case errors.Is(err, bids.ErrOwnerCannotBid),
		errors.Is(err, auctions.ErrUnauthorized):
		return connect.NewError(connect.CodePermissionDenied, err)

	case errors.Is(err, bids.ErrBidTooHigh),
		errors.Is(err, auctions.ErrInvalidTitle),
		errors.Is(err, auctions.ErrInvalidStartPrice),
		errors.Is(err, auctions.ErrInvalidEndTime),
		errors.Is(err, auctions.ErrInvalidCategory),
		errors.Is(err, auctions.ErrTooManyImages),
		errors.Is(err, auctions.ErrInvalidImageURL):
		return connect.NewError(connect.CodeInvalidArgument, err)

	case errors.Is(err, auctions.ErrConcurrentUpdate):
		return connect.NewError(connect.CodeAborted, err)

	case errors.Is(err, auctions.ErrStorageUnavailable):
		return connect.NewError(connect.CodeUnavailable, err)

	default:
		return connect.NewError(connect.CodeInternal, err)
	}
}
