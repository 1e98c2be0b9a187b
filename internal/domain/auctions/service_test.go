package auctions_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/floroz/auctionhouse/internal/adapters/memory"
	"github.com/floroz/auctionhouse/internal/domain/auctions"
	"github.com/floroz/auctionhouse/internal/domain/bids"
)

var (
	admin = auctions.Actor{UserID: uuid.New(), Role: auctions.RoleAdmin}
	user  = auctions.Actor{UserID: uuid.New(), Role: auctions.RoleUser}
)

func newAuctionService(store *memory.Store, cache auctions.Cache) *auctions.AuctionService {
	return auctions.NewAuctionService(store.Auctions(), store.Bids(), cache, discardLogger())
}

func TestCreateAuction(t *testing.T) {
	ownerID := uuid.New()
	validCmd := func() auctions.CreateAuctionCommand {
		return auctions.CreateAuctionCommand{
			Title:       "Test Item",
			Description: "A test item",
			Category:    "Electronics",
			StartPrice:  1000,
			ImageURLs:   []string{"https://cdn.example.com/a.jpg"},
			EndsAt:      time.Now().Add(24 * time.Hour),
			OwnerID:     ownerID,
		}
	}

	t.Run("success", func(t *testing.T) {
		store := memory.NewStore()
		service := newAuctionService(store, nil)

		auction, err := service.CreateAuction(context.Background(), validCmd())
		require.NoError(t, err)

		assert.Equal(t, "Test Item", auction.Title)
		assert.Equal(t, auctions.StatusPending, auction.Status)
		assert.Equal(t, int64(1000), auction.CurrentBid)
		assert.Equal(t, int64(0), auction.BidsCount)
		assert.Equal(t, ownerID, auction.OwnerID)
		assert.Nil(t, auction.ReviewedBy)
		assert.Nil(t, auction.ReviewedAt)
	})

	t.Run("empty category defaults to Other", func(t *testing.T) {
		store := memory.NewStore()
		service := newAuctionService(store, nil)

		cmd := validCmd()
		cmd.Category = ""
		auction, err := service.CreateAuction(context.Background(), cmd)
		require.NoError(t, err)
		assert.Equal(t, auctions.DefaultCategory, auction.Category)
	})

	tooManyImages := make([]string, auctions.MaxImages+1)
	for i := range tooManyImages {
		tooManyImages[i] = "https://cdn.example.com/img.jpg"
	}

	tests := []struct {
		name    string
		mutate  func(*auctions.CreateAuctionCommand)
		wantErr error
	}{
		{"blank title", func(c *auctions.CreateAuctionCommand) { c.Title = "   " }, auctions.ErrInvalidTitle},
		{"zero start price", func(c *auctions.CreateAuctionCommand) { c.StartPrice = 0 }, auctions.ErrInvalidStartPrice},
		{"negative start price", func(c *auctions.CreateAuctionCommand) { c.StartPrice = -100 }, auctions.ErrInvalidStartPrice},
		{"start price above maximum", func(c *auctions.CreateAuctionCommand) { c.StartPrice = auctions.MaxAmount + 1 }, auctions.ErrInvalidStartPrice},
		{"end time in past", func(c *auctions.CreateAuctionCommand) { c.EndsAt = time.Now().Add(-time.Hour) }, auctions.ErrInvalidEndTime},
		{"unknown category", func(c *auctions.CreateAuctionCommand) { c.Category = "Weapons" }, auctions.ErrInvalidCategory},
		{"too many images", func(c *auctions.CreateAuctionCommand) { c.ImageURLs = tooManyImages }, auctions.ErrTooManyImages},
		{"relative image url", func(c *auctions.CreateAuctionCommand) { c.ImageURLs = []string{"/img/a.jpg"} }, auctions.ErrInvalidImageURL},
		{"ftp image url", func(c *auctions.CreateAuctionCommand) { c.ImageURLs = []string{"ftp://example.com/a.jpg"} }, auctions.ErrInvalidImageURL},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := memory.NewStore()
			service := newAuctionService(store, nil)

			cmd := validCmd()
			tt.mutate(&cmd)
			auction, err := service.CreateAuction(context.Background(), cmd)

			assert.ErrorIs(t, err, tt.wantErr)
			assert.Nil(t, auction)

			all, listErr := store.Auctions().ListAll(context.Background())
			require.NoError(t, listErr)
			assert.Empty(t, all)
		})
	}
}

func TestGetAuction(t *testing.T) {
	t.Run("not found", func(t *testing.T) {
		service := newAuctionService(memory.NewStore(), nil)
		_, err := service.GetAuction(context.Background(), uuid.New())
		assert.ErrorIs(t, err, auctions.ErrAuctionNotFound)
	})

	t.Run("read through cache", func(t *testing.T) {
		store := memory.NewStore()
		cache := newRecordingCache()
		service := newAuctionService(store, cache)
		seeded := seedAuction(t, store, auctions.StatusApproved)

		first, err := service.GetAuction(context.Background(), seeded.ID)
		require.NoError(t, err)
		assert.Equal(t, seeded.Title, first.Title)

		// Change the store behind the cache's back; the cached copy is served until evicted
		title := "renamed"
		store.Auctions().Seed(&auctions.Auction{
			ID: seeded.ID, Title: title, StartPrice: 100, CurrentBid: 100,
			OwnerID: seeded.OwnerID, Status: auctions.StatusApproved, EndsAt: seeded.EndsAt,
		})
		second, err := service.GetAuction(context.Background(), seeded.ID)
		require.NoError(t, err)
		assert.Equal(t, seeded.Title, second.Title)

		require.NoError(t, cache.Evict(context.Background(), seeded.ID))
		third, err := service.GetAuction(context.Background(), seeded.ID)
		require.NoError(t, err)
		assert.Equal(t, title, third.Title)
	})
}

func TestGetAuction_BidBetweenReadAndFill(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	cache := newRecordingCache()
	seeded := seedAuction(t, store, auctions.StatusApproved)

	bidding := bids.NewBiddingService(store, store.Auctions(), store.Bids(), store.Outbox(), cache, discardLogger(), bids.Options{})
	repo := &hookedRepo{Repository: store.Auctions()}
	repo.afterGet = func() {
		_, err := bidding.PlaceBid(ctx, bids.PlaceBidCommand{AuctionID: seeded.ID, UserID: uuid.New(), Amount: 110})
		require.NoError(t, err)
	}
	service := auctions.NewAuctionService(repo, store.Bids(), cache, discardLogger())

	// The first read saw the row before the bid committed
	first, err := service.GetAuction(ctx, seeded.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(100), first.CurrentBid)

	second, err := service.GetAuction(ctx, seeded.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(110), second.CurrentBid)
	assert.Equal(t, int64(1), second.BidsCount)

	history, err := bidding.ListBids(ctx, seeded.ID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, second.CurrentBid, history[0].Amount)

	// The fill after the eviction is kept
	third, err := service.GetAuction(ctx, seeded.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(110), third.CurrentBid)
	_, _, ok, err := cache.Get(ctx, seeded.ID)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestListings(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	service := newAuctionService(store, nil)

	pending := seedAuction(t, store, auctions.StatusPending)
	approved := seedAuction(t, store, auctions.StatusApproved)
	rejected := seedAuction(t, store, auctions.StatusRejected)

	ended := seedAuction(t, store, auctions.StatusApproved)
	ended.EndsAt = time.Now().Add(-time.Hour)
	store.Auctions().Seed(ended)

	t.Run("approved includes ended auctions", func(t *testing.T) {
		list, err := service.ListApproved(ctx)
		require.NoError(t, err)
		assert.ElementsMatch(t, []uuid.UUID{approved.ID, ended.ID}, ids(list))
	})

	t.Run("active excludes ended auctions", func(t *testing.T) {
		list, err := service.ListActive(ctx)
		require.NoError(t, err)
		assert.Equal(t, []uuid.UUID{approved.ID}, ids(list))
	})

	t.Run("pending requires admin", func(t *testing.T) {
		_, err := service.ListPending(ctx, user)
		assert.ErrorIs(t, err, auctions.ErrUnauthorized)

		list, err := service.ListPending(ctx, admin)
		require.NoError(t, err)
		assert.Equal(t, []uuid.UUID{pending.ID}, ids(list))
	})

	t.Run("all requires admin", func(t *testing.T) {
		_, err := service.ListAll(ctx, user)
		assert.ErrorIs(t, err, auctions.ErrUnauthorized)

		list, err := service.ListAll(ctx, admin)
		require.NoError(t, err)
		assert.ElementsMatch(t, []uuid.UUID{pending.ID, approved.ID, rejected.ID, ended.ID}, ids(list))
	})

	t.Run("by owner", func(t *testing.T) {
		list, err := service.ListByOwner(ctx, rejected.OwnerID)
		require.NoError(t, err)
		assert.Equal(t, []uuid.UUID{rejected.ID}, ids(list))
	})
}

func TestListSameCategory(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	service := newAuctionService(store, nil)

	inCategory := func(status auctions.Status, category string) *auctions.Auction {
		a := seedAuction(t, store, status)
		a.Category = category
		store.Auctions().Seed(a)
		return a
	}
	current := inCategory(auctions.StatusApproved, "Jewelry")
	related := inCategory(auctions.StatusApproved, "Jewelry")
	inCategory(auctions.StatusPending, "Jewelry")
	inCategory(auctions.StatusApproved, "Vehicles")

	t.Run("approved in category excluding current", func(t *testing.T) {
		list, err := service.ListSameCategory(ctx, "Jewelry", current.ID)
		require.NoError(t, err)
		assert.Equal(t, []uuid.UUID{related.ID}, ids(list))
	})

	t.Run("nil exclude keeps all", func(t *testing.T) {
		list, err := service.ListSameCategory(ctx, "Jewelry", uuid.Nil)
		require.NoError(t, err)
		assert.ElementsMatch(t, []uuid.UUID{current.ID, related.ID}, ids(list))
	})

	t.Run("unknown category", func(t *testing.T) {
		_, err := service.ListSameCategory(ctx, "Spaceships", current.ID)
		assert.ErrorIs(t, err, auctions.ErrInvalidCategory)
	})
}

func TestDashboardStats(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	service := newAuctionService(store, nil)

	seedAuction(t, store, auctions.StatusPending)
	seedAuction(t, store, auctions.StatusPending)
	a := seedAuction(t, store, auctions.StatusApproved)
	seedAuction(t, store, auctions.StatusRejected)

	for i := 0; i < 3; i++ {
		_, err := store.Bids().Append(ctx, &bids.Bid{AuctionID: a.ID, UserID: uuid.New(), Amount: int64(110 + i*10)})
		require.NoError(t, err)
	}

	_, err := service.DashboardStats(ctx, user)
	assert.ErrorIs(t, err, auctions.ErrUnauthorized)

	stats, err := service.DashboardStats(ctx, admin)
	require.NoError(t, err)
	assert.Equal(t, &auctions.DashboardStats{
		TotalAuctions:    4,
		PendingAuctions:  2,
		ApprovedAuctions: 1,
		RejectedAuctions: 1,
		TotalBids:        3,
	}, stats)
}

func TestCreateAuction_TrimsTitle(t *testing.T) {
	service := newAuctionService(memory.NewStore(), nil)
	auction, err := service.CreateAuction(context.Background(), auctions.CreateAuctionCommand{
		Title:      "  Lamp  ",
		StartPrice: 10,
		EndsAt:     time.Now().Add(time.Hour),
		OwnerID:    uuid.New(),
	})
	require.NoError(t, err)
	assert.False(t, strings.HasPrefix(auction.Title, " "))
	assert.Equal(t, "Lamp", auction.Title)
}

func ids(list []*auctions.Auction) []uuid.UUID {
	out := make([]uuid.UUID, len(list))
	for i, a := range list {
		out[i] = a.ID
	}
	return out
}
