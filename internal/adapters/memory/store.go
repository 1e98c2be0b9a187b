// Package memory is an in-process implementation of the auction, bid and outbox stores.
// Transactions are serialized by a single lock and roll back by restoring a snapshot,
// which gives GetForUpdate the same per-auction exclusion a row lock gives in Postgres.
package memory

import (
	"bytes"
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/floroz/auctionhouse/internal/domain/auctions"
	"github.com/floroz/auctionhouse/internal/domain/bids"
	"github.com/floroz/auctionhouse/pkg/events"
)

var errNotInTx = errors.New("memory: GetForUpdate must be called within a transaction")

type storedBid struct {
	bid *bids.Bid
	seq int64
}

type state struct {
	auctions map[uuid.UUID]*auctions.Auction
	bids     []storedBid
	outbox   []*events.OutboxEvent
}

func (s state) clone() state {
	c := state{
		auctions: make(map[uuid.UUID]*auctions.Auction, len(s.auctions)),
		bids:     append([]storedBid(nil), s.bids...),
		outbox:   make([]*events.OutboxEvent, len(s.outbox)),
	}
	for id, a := range s.auctions {
		c.auctions[id] = a.Clone()
	}
	for i, e := range s.outbox {
		ev := *e
		c.outbox[i] = &ev
	}
	return c
}

// Store is a concurrency-safe in-memory store. It implements database.TransactionManager.
type Store struct {
	txMu sync.Mutex   // held for the whole of a transaction
	mu   sync.RWMutex // guards data
	data state
	seq  int64
	now  func() time.Time
}

// NewStore creates an empty store
func NewStore() *Store {
	return &Store{
		data: state{auctions: make(map[uuid.UUID]*auctions.Auction)},
		now:  time.Now,
	}
}

type txKey struct{}

func inTx(ctx context.Context) bool {
	v, _ := ctx.Value(txKey{}).(bool)
	return v
}

// WithinTx runs fn with exclusive access to the store. If fn fails every change it made is discarded.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	// Nested calls reuse the outer transaction
	if inTx(ctx) {
		return fn(ctx)
	}

	s.txMu.Lock()
	defer s.txMu.Unlock()

	s.mu.RLock()
	snapshot := s.data.clone()
	s.mu.RUnlock()

	if err := fn(context.WithValue(ctx, txKey{}, true)); err != nil {
		s.mu.Lock()
		s.data = snapshot
		s.mu.Unlock()
		return err
	}
	return nil
}

// lockWrite takes the data lock for writing. Outside a transaction it also waits for
// running transactions so a rollback cannot discard the write.
func (s *Store) lockWrite(ctx context.Context) (unlock func()) {
	if inTx(ctx) {
		s.mu.Lock()
		return s.mu.Unlock
	}
	s.txMu.Lock()
	s.mu.Lock()
	return func() {
		s.mu.Unlock()
		s.txMu.Unlock()
	}
}

// Auctions returns the auction repository view of the store
func (s *Store) Auctions() *AuctionRepository {
	return &AuctionRepository{store: s}
}

// Bids returns the bid repository view of the store
func (s *Store) Bids() *BidRepository {
	return &BidRepository{store: s}
}

// Outbox returns the outbox view of the store
func (s *Store) Outbox() *OutboxRepository {
	return &OutboxRepository{store: s}
}

// AuctionRepository implements auctions.Repository
type AuctionRepository struct {
	store *Store
}

func (r *AuctionRepository) Create(ctx context.Context, data auctions.NewAuction) (*auctions.Auction, error) {
	s := r.store
	defer s.lockWrite(ctx)()

	images := append([]string{}, data.ImageURLs...)
	a := &auctions.Auction{
		ID:          uuid.New(),
		Title:       data.Title,
		Description: data.Description,
		Category:    data.Category,
		StartPrice:  data.StartPrice,
		OwnerID:     data.OwnerID,
		ImageURLs:   images,
		EndsAt:      data.EndsAt,
		CurrentBid:  data.StartPrice,
		BidsCount:   0,
		Status:      auctions.StatusPending,
		CreatedAt:   s.now(),
	}
	s.data.auctions[a.ID] = a
	return a.Clone(), nil
}

func (r *AuctionRepository) Get(_ context.Context, id uuid.UUID) (*auctions.Auction, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, ok := s.data.auctions[id]
	if !ok {
		return nil, auctions.ErrAuctionNotFound
	}
	return a.Clone(), nil
}

func (r *AuctionRepository) GetForUpdate(ctx context.Context, id uuid.UUID) (*auctions.Auction, error) {
	if !inTx(ctx) {
		return nil, errNotInTx
	}
	return r.Get(ctx, id)
}

func (r *AuctionRepository) Update(ctx context.Context, id uuid.UUID, update auctions.AuctionUpdate) error {
	s := r.store
	defer s.lockWrite(ctx)()

	a, ok := s.data.auctions[id]
	if !ok {
		return auctions.ErrAuctionNotFound
	}
	update.Apply(a)
	return nil
}

func (r *AuctionRepository) Delete(ctx context.Context, id uuid.UUID) error {
	s := r.store
	defer s.lockWrite(ctx)()

	if _, ok := s.data.auctions[id]; !ok {
		return auctions.ErrAuctionNotFound
	}
	delete(s.data.auctions, id)
	return nil
}

func (r *AuctionRepository) ListByStatus(_ context.Context, status auctions.Status) ([]*auctions.Auction, error) {
	return r.list(func(a *auctions.Auction) bool { return a.Status == status }), nil
}

func (r *AuctionRepository) ListByOwner(_ context.Context, ownerID uuid.UUID) ([]*auctions.Auction, error) {
	return r.list(func(a *auctions.Auction) bool { return a.OwnerID == ownerID }), nil
}

func (r *AuctionRepository) ListByCategory(_ context.Context, status auctions.Status, category string) ([]*auctions.Auction, error) {
	return r.list(func(a *auctions.Auction) bool { return a.Status == status && a.Category == category }), nil
}

func (r *AuctionRepository) ListAll(_ context.Context) ([]*auctions.Auction, error) {
	return r.list(func(*auctions.Auction) bool { return true }), nil
}

func (r *AuctionRepository) CountByStatus(_ context.Context) (map[auctions.Status]int64, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	counts := make(map[auctions.Status]int64)
	for _, a := range s.data.auctions {
		counts[a.Status]++
	}
	return counts, nil
}

func (r *AuctionRepository) list(match func(*auctions.Auction) bool) []*auctions.Auction {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*auctions.Auction, 0)
	for _, a := range s.data.auctions {
		if match(a) {
			result = append(result, a.Clone())
		}
	}
	// Newest first, ties by id bytes as Postgres orders uuids
	sort.Slice(result, func(i, j int) bool {
		if !result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].CreatedAt.After(result[j].CreatedAt)
		}
		return bytes.Compare(result[i].ID[:], result[j].ID[:]) < 0
	})
	return result
}

// Seed stores a fully built auction as is. This method is intended for tests only.
func (r *AuctionRepository) Seed(a *auctions.Auction) {
	s := r.store
	defer s.lockWrite(context.Background())()
	s.data.auctions[a.ID] = a.Clone()
}

// BidRepository implements bids.Repository
type BidRepository struct {
	store *Store
}

func (r *BidRepository) Append(ctx context.Context, bid *bids.Bid) (*bids.Bid, error) {
	s := r.store
	defer s.lockWrite(ctx)()

	s.seq++
	stored := &bids.Bid{
		ID:        uuid.New(),
		AuctionID: bid.AuctionID,
		UserID:    bid.UserID,
		Amount:    bid.Amount,
		CreatedAt: s.now(),
	}
	s.data.bids = append(s.data.bids, storedBid{bid: stored, seq: s.seq})

	out := *stored
	return &out, nil
}

func (r *BidRepository) ListByAuction(_ context.Context, auctionID uuid.UUID) ([]*bids.Bid, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	matched := make([]storedBid, 0)
	for _, sb := range s.data.bids {
		if sb.bid.AuctionID == auctionID {
			matched = append(matched, sb)
		}
	}
	sort.Slice(matched, func(i, j int) bool {
		a, b := matched[i], matched[j]
		if !a.bid.CreatedAt.Equal(b.bid.CreatedAt) {
			return a.bid.CreatedAt.After(b.bid.CreatedAt)
		}
		return a.seq > b.seq
	})

	result := make([]*bids.Bid, len(matched))
	for i, sb := range matched {
		b := *sb.bid
		result[i] = &b
	}
	return result, nil
}

func (r *BidRepository) CountByAuction(_ context.Context, auctionID uuid.UUID) (int64, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	var n int64
	for _, sb := range s.data.bids {
		if sb.bid.AuctionID == auctionID {
			n++
		}
	}
	return n, nil
}

func (r *BidRepository) CountAll(_ context.Context) (int64, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.data.bids)), nil
}

func (r *BidRepository) DeleteByAuction(ctx context.Context, auctionID uuid.UUID) (int64, error) {
	s := r.store
	defer s.lockWrite(ctx)()

	kept := s.data.bids[:0:0]
	var removed int64
	for _, sb := range s.data.bids {
		if sb.bid.AuctionID == auctionID {
			removed++
			continue
		}
		kept = append(kept, sb)
	}
	s.data.bids = kept
	return removed, nil
}

// OutboxRepository implements events.OutboxWriter and events.OutboxRepository
type OutboxRepository struct {
	store *Store
}

func (r *OutboxRepository) SaveEvent(ctx context.Context, event *events.OutboxEvent) error {
	s := r.store
	defer s.lockWrite(ctx)()

	ev := *event
	s.data.outbox = append(s.data.outbox, &ev)
	return nil
}

func (r *OutboxRepository) GetPendingEvents(_ context.Context, limit int) ([]*events.OutboxEvent, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*events.OutboxEvent, 0, limit)
	for _, e := range s.data.outbox {
		if len(result) == limit {
			break
		}
		if e.Status == events.OutboxStatusPending {
			ev := *e
			result = append(result, &ev)
		}
	}
	return result, nil
}

func (r *OutboxRepository) UpdateEventStatus(ctx context.Context, id uuid.UUID, status events.OutboxStatus) error {
	s := r.store
	defer s.lockWrite(ctx)()

	for _, e := range s.data.outbox {
		if e.ID == id {
			now := s.now()
			e.Status = status
			e.ProcessedAt = &now
			return nil
		}
	}
	return errors.New("outbox event not found")
}

// Events returns a copy of every stored event, oldest first. This method is intended for tests only.
func (r *OutboxRepository) Events() []*events.OutboxEvent {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*events.OutboxEvent, len(s.data.outbox))
	for i, e := range s.data.outbox {
		ev := *e
		result[i] = &ev
	}
	return result
}
