package auctions

import (
	"errors"
	"fmt"
)

// Lookup and state errors
var (
	ErrAuctionNotFound    = errors.New("auction not found")
	ErrAuctionNotBiddable = errors.New("auction is not accepting bids")

	// Reasons wrapped together with ErrAuctionNotBiddable
	ErrAuctionPendingReview = errors.New("auction is awaiting review")
	ErrAuctionDeclined      = errors.New("auction was declined")
	ErrAuctionEnded         = errors.New("auction has ended")

	ErrUnauthorized = errors.New("unauthorized: admin role required")
)

// Storage errors returned by repository implementations
var (
	ErrConcurrentUpdate   = errors.New("auction was modified concurrently, retry the request")
	ErrStorageUnavailable = errors.New("auction storage unavailable")
)

// Listing validation errors
var (
	ErrInvalidTitle      = errors.New("title must not be empty")
	ErrInvalidStartPrice = errors.New("start price must be between 1 and the maximum amount")
	ErrInvalidEndTime    = errors.New("end time must be in the future")
	ErrInvalidCategory   = errors.New("unknown category")
	ErrTooManyImages     = fmt.Errorf("at most %d images are allowed", MaxImages)
	ErrInvalidImageURL   = errors.New("image url must be an absolute http or https url")
)

func notBiddable(reason error) error {
	return fmt.Errorf("%w: %w", ErrAuctionNotBiddable, reason)
}
