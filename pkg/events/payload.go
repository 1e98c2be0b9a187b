package events

import (
	"fmt"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

// PayloadContentType is the content type of every outbox payload
const PayloadContentType = "application/x-protobuf"

// Event types published on AuctionExchange
const (
	EventTypeBidPlaced       = "bid.placed"
	EventTypeAuctionApproved = "auction.approved"
	EventTypeAuctionRejected = "auction.rejected"
	EventTypeAuctionDeleted  = "auction.deleted"
)

// MarshalPayload encodes fields as a google.protobuf.Struct.
// Values must be representable by structpb (strings, numbers, bools, nil, nested maps and slices).
func MarshalPayload(fields map[string]any) ([]byte, error) {
	s, err := structpb.NewStruct(fields)
	if err != nil {
		return nil, fmt.Errorf("failed to build event payload: %w", err)
	}
	payload, err := proto.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal event payload: %w", err)
	}
	return payload, nil
}

// UnmarshalPayload decodes a payload produced by MarshalPayload
func UnmarshalPayload(payload []byte) (map[string]any, error) {
	var s structpb.Struct
	if err := proto.Unmarshal(payload, &s); err != nil {
		return nil, fmt.Errorf("failed to unmarshal event payload: %w", err)
	}
	return s.AsMap(), nil
}
