package bids

import (
	"errors"
	"fmt"
)

// Validation errors
var (
	ErrOwnerCannotBid = errors.New("owner cannot bid on their own auction")
	ErrBidTooLow      = errors.New("bid amount is below the minimum bid")
	ErrBidTooHigh     = errors.New("bid amount exceeds the maximum amount")
)

// BidTooLowError carries the minimum acceptable amount so callers can offer it.
// It matches ErrBidTooLow.
type BidTooLowError struct {
	Amount  int64
	Minimum int64
}

func (e *BidTooLowError) Error() string {
	return fmt.Sprintf("bid amount %d is below the minimum bid of %d", e.Amount, e.Minimum)
}

func (e *BidTooLowError) Is(target error) bool {
	return target == ErrBidTooLow
}

// MinimumBid returns the minimum carried by err, if err is a BidTooLowError
func MinimumBid(err error) (int64, bool) {
	var tooLow *BidTooLowError
	if errors.As(err, &tooLow) {
		return tooLow.Minimum, true
	}
	return 0, false
}
