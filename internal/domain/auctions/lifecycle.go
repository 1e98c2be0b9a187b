package auctions

import "time"

// LifecycleState is the effective state of an auction at a given instant
type LifecycleState string

const (
	StateAwaitingReview LifecycleState = "awaiting_review"
	StateDeclined       LifecycleState = "declined"
	StateActive         LifecycleState = "active"
	StateCompleted      LifecycleState = "completed"
)

// Classify derives the lifecycle state from the stored status and end time.
// The end instant itself is still active. Unknown statuses are treated as awaiting review.
func Classify(status Status, endsAt, now time.Time) LifecycleState {
	switch status {
	case StatusRejected:
		return StateDeclined
	case StatusApproved:
		if now.After(endsAt) {
			return StateCompleted
		}
		return StateActive
	default:
		return StateAwaitingReview
	}
}

// State classifies a at now
func (a *Auction) State(now time.Time) LifecycleState {
	return Classify(a.Status, a.EndsAt, now)
}

// CheckBiddable returns nil when a accepts bids at now.
// Otherwise the error matches ErrAuctionNotBiddable and the specific reason.
func (a *Auction) CheckBiddable(now time.Time) error {
	switch a.State(now) {
	case StateActive:
		return nil
	case StateDeclined:
		return notBiddable(ErrAuctionDeclined)
	case StateCompleted:
		return notBiddable(ErrAuctionEnded)
	default:
		return notBiddable(ErrAuctionPendingReview)
	}
}
