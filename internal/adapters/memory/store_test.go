package memory

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/floroz/auctionhouse/internal/domain/auctions"
	"github.com/floroz/auctionhouse/internal/domain/bids"
)

func newAuction(t *testing.T, store *Store) *auctions.Auction {
	t.Helper()
	a, err := store.Auctions().Create(context.Background(), auctions.NewAuction{
		Title:      "Vintage Camera",
		Category:   "Electronics",
		StartPrice: 100,
		OwnerID:    uuid.New(),
		EndsAt:     time.Now().Add(time.Hour),
	})
	require.NoError(t, err)
	return a
}

func TestAuctionRepository_CreateDefaults(t *testing.T) {
	store := NewStore()
	a := newAuction(t, store)

	assert.NotEqual(t, uuid.Nil, a.ID)
	assert.Equal(t, auctions.StatusPending, a.Status)
	assert.Equal(t, int64(100), a.CurrentBid)
	assert.Equal(t, int64(0), a.BidsCount)
	assert.False(t, a.CreatedAt.IsZero())
	assert.NotNil(t, a.ImageURLs)
}

func TestAuctionRepository_NotFound(t *testing.T) {
	store := NewStore()
	ctx := context.Background()
	repo := store.Auctions()

	_, err := repo.Get(ctx, uuid.New())
	assert.ErrorIs(t, err, auctions.ErrAuctionNotFound)

	err = repo.Update(ctx, uuid.New(), auctions.AuctionUpdate{})
	assert.ErrorIs(t, err, auctions.ErrAuctionNotFound)

	err = repo.Delete(ctx, uuid.New())
	assert.ErrorIs(t, err, auctions.ErrAuctionNotFound)
}

func TestAuctionRepository_GetForUpdateRequiresTx(t *testing.T) {
	store := NewStore()
	a := newAuction(t, store)

	_, err := store.Auctions().GetForUpdate(context.Background(), a.ID)
	assert.Error(t, err)

	err = store.WithinTx(context.Background(), func(ctx context.Context) error {
		_, err := store.Auctions().GetForUpdate(ctx, a.ID)
		return err
	})
	assert.NoError(t, err)
}

func TestAuctionRepository_ReturnsCopies(t *testing.T) {
	store := NewStore()
	a := newAuction(t, store)

	a.Title = "changed"
	got, err := store.Auctions().Get(context.Background(), a.ID)
	require.NoError(t, err)
	assert.Equal(t, "Vintage Camera", got.Title)
}

func TestStore_WithinTxRollsBackOnError(t *testing.T) {
	store := NewStore()
	ctx := context.Background()
	a := newAuction(t, store)
	boom := errors.New("boom")

	err := store.WithinTx(ctx, func(ctx context.Context) error {
		_, err := store.Bids().Append(ctx, &bids.Bid{AuctionID: a.ID, UserID: uuid.New(), Amount: 110})
		require.NoError(t, err)
		current := int64(110)
		require.NoError(t, store.Auctions().Update(ctx, a.ID, auctions.AuctionUpdate{CurrentBid: &current}))
		return boom
	})
	require.ErrorIs(t, err, boom)

	got, err := store.Auctions().Get(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(100), got.CurrentBid)

	count, err := store.Bids().CountByAuction(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)
}

func TestBidRepository_ListNewestFirstWithTies(t *testing.T) {
	store := NewStore()
	ctx := context.Background()
	a := newAuction(t, store)

	// Freeze the clock so every bid shares a timestamp
	frozen := time.Now()
	store.now = func() time.Time { return frozen }

	for _, amount := range []int64{110, 120, 130} {
		_, err := store.Bids().Append(ctx, &bids.Bid{AuctionID: a.ID, UserID: uuid.New(), Amount: amount})
		require.NoError(t, err)
	}

	list, err := store.Bids().ListByAuction(ctx, a.ID)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, int64(130), list[0].Amount)
	assert.Equal(t, int64(120), list[1].Amount)
	assert.Equal(t, int64(110), list[2].Amount)
}

func TestAuctionRepository_ListTiesOrderedByID(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	createdAt := time.Now().Add(-time.Minute)
	for n := 0; n < 5; n++ {
		store.Auctions().Seed(&auctions.Auction{
			ID:         uuid.New(),
			Title:      "Lamp",
			Category:   "Furniture",
			StartPrice: 10,
			CurrentBid: 10,
			OwnerID:    uuid.New(),
			EndsAt:     createdAt.Add(time.Hour),
			Status:     auctions.StatusApproved,
			CreatedAt:  createdAt,
		})
	}
	newest := newAuction(t, store)

	for n := 0; n < 3; n++ {
		list, err := store.Auctions().ListAll(ctx)
		require.NoError(t, err)
		require.Len(t, list, 6)
		assert.Equal(t, newest.ID, list[0].ID)
		for i := 2; i < len(list); i++ {
			assert.Negative(t, bytes.Compare(list[i-1].ID[:], list[i].ID[:]), "ties must be ordered by id")
		}
	}
}

func TestAuctionRepository_ListByCategory(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	camera := newAuction(t, store)
	status := auctions.StatusApproved
	require.NoError(t, store.Auctions().Update(ctx, camera.ID, auctions.AuctionUpdate{Status: &status}))
	newAuction(t, store) // pending Electronics

	list, err := store.Auctions().ListByCategory(ctx, auctions.StatusApproved, "Electronics")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, camera.ID, list[0].ID)

	list, err = store.Auctions().ListByCategory(ctx, auctions.StatusApproved, "Jewelry")
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestBidRepository_DeleteByAuction(t *testing.T) {
	store := NewStore()
	ctx := context.Background()
	a := newAuction(t, store)
	other := newAuction(t, store)

	for _, id := range []uuid.UUID{a.ID, a.ID, other.ID} {
		_, err := store.Bids().Append(ctx, &bids.Bid{AuctionID: id, UserID: uuid.New(), Amount: 200})
		require.NoError(t, err)
	}

	removed, err := store.Bids().DeleteByAuction(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), removed)

	total, err := store.Bids().CountAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
}
