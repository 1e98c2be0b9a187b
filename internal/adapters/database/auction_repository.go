package database

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/floroz/auctionhouse/internal/domain/auctions"
	pkgdb "github.com/floroz/auctionhouse/pkg/database"
)

const auctionColumns = `id, title, description, category, start_price, owner_id, image_urls, ends_at,
	current_bid, bids_count, status, reviewed_by, reviewed_at, rejection_reason, created_at`

// PostgresAuctionRepository implements auctions.Repository using pgx
type PostgresAuctionRepository struct {
	pool *pgxpool.Pool // Used when ctx carries no transaction
}

// NewPostgresAuctionRepository creates a new PostgreSQL auction repository
func NewPostgresAuctionRepository(pool *pgxpool.Pool) *PostgresAuctionRepository {
	return &PostgresAuctionRepository{pool: pool}
}

func scanAuction(row rowScanner) (*auctions.Auction, error) {
	var a auctions.Auction
	err := row.Scan(
		&a.ID,
		&a.Title,
		&a.Description,
		&a.Category,
		&a.StartPrice,
		&a.OwnerID,
		&a.ImageURLs,
		&a.EndsAt,
		&a.CurrentBid,
		&a.BidsCount,
		&a.Status,
		&a.ReviewedBy,
		&a.ReviewedAt,
		&a.RejectionReason,
		&a.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// Create inserts a pending auction whose current bid starts at the start price
func (r *PostgresAuctionRepository) Create(ctx context.Context, data auctions.NewAuction) (*auctions.Auction, error) {
	query := `
		INSERT INTO auctions (id, title, description, category, start_price, owner_id, image_urls, ends_at,
			current_bid, bids_count, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $5, 0, $9::auction_status)
		RETURNING ` + auctionColumns

	images := data.ImageURLs
	if images == nil {
		images = []string{}
	}

	a, err := scanAuction(pkgdb.Conn(ctx, r.pool).QueryRow(ctx, query,
		uuid.New(),
		data.Title,
		data.Description,
		data.Category,
		data.StartPrice,
		data.OwnerID,
		images,
		data.EndsAt,
		string(auctions.StatusPending),
	))
	if err != nil {
		return nil, wrapErr("failed to insert auction", err)
	}
	return a, nil
}

// Get retrieves an auction by its ID
func (r *PostgresAuctionRepository) Get(ctx context.Context, id uuid.UUID) (*auctions.Auction, error) {
	return r.get(ctx, id, false)
}

// GetForUpdate retrieves an auction and locks its row until the transaction bound to ctx ends
func (r *PostgresAuctionRepository) GetForUpdate(ctx context.Context, id uuid.UUID) (*auctions.Auction, error) {
	if _, ok := pkgdb.TxFromContext(ctx); !ok {
		return nil, errors.New("GetForUpdate must be called within a transaction")
	}
	return r.get(ctx, id, true)
}

func (r *PostgresAuctionRepository) get(ctx context.Context, id uuid.UUID, forUpdate bool) (*auctions.Auction, error) {
	query := `SELECT ` + auctionColumns + ` FROM auctions WHERE id = $1`
	if forUpdate {
		query += " FOR UPDATE"
	}

	a, err := scanAuction(pkgdb.Conn(ctx, r.pool).QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, auctions.ErrAuctionNotFound
		}
		return nil, wrapErr("failed to get auction", err)
	}
	return a, nil
}

// Update writes the non-nil fields of update. Unrelated columns are left untouched.
func (r *PostgresAuctionRepository) Update(ctx context.Context, id uuid.UUID, update auctions.AuctionUpdate) error {
	var sets []string
	args := []any{id}
	set := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if update.CurrentBid != nil {
		set("current_bid", *update.CurrentBid)
	}
	if update.BidsCount != nil {
		set("bids_count", *update.BidsCount)
	}
	if update.Status != nil {
		args = append(args, string(*update.Status))
		sets = append(sets, fmt.Sprintf("status = $%d::auction_status", len(args)))
	}
	if update.ReviewedBy != nil {
		set("reviewed_by", *update.ReviewedBy)
	}
	if update.ReviewedAt != nil {
		set("reviewed_at", *update.ReviewedAt)
	}
	if update.ClearRejectionReason {
		sets = append(sets, "rejection_reason = NULL")
	} else if update.RejectionReason != nil {
		set("rejection_reason", *update.RejectionReason)
	}

	query := `UPDATE auctions SET ` + strings.Join(sets, ", ") + ` WHERE id = $1`
	if len(sets) == 0 {
		// Nothing to write, still report a missing auction
		query = `SELECT 1 FROM auctions WHERE id = $1`
	}

	result, err := pkgdb.Conn(ctx, r.pool).Exec(ctx, query, args...)
	if err != nil {
		return wrapErr("failed to update auction", err)
	}
	if result.RowsAffected() == 0 {
		return auctions.ErrAuctionNotFound
	}
	return nil
}

// Delete removes an auction. Its bids are removed by the foreign key cascade.
func (r *PostgresAuctionRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := pkgdb.Conn(ctx, r.pool).Exec(ctx, `DELETE FROM auctions WHERE id = $1`, id)
	if err != nil {
		return wrapErr("failed to delete auction", err)
	}
	if result.RowsAffected() == 0 {
		return auctions.ErrAuctionNotFound
	}
	return nil
}

func (r *PostgresAuctionRepository) ListByStatus(ctx context.Context, status auctions.Status) ([]*auctions.Auction, error) {
	return r.list(ctx, `WHERE status = $1::auction_status`, string(status))
}

func (r *PostgresAuctionRepository) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*auctions.Auction, error) {
	return r.list(ctx, `WHERE owner_id = $1`, ownerID)
}

func (r *PostgresAuctionRepository) ListByCategory(ctx context.Context, status auctions.Status, category string) ([]*auctions.Auction, error) {
	return r.list(ctx, `WHERE status = $1::auction_status AND category = $2`, string(status), category)
}

func (r *PostgresAuctionRepository) ListAll(ctx context.Context) ([]*auctions.Auction, error) {
	return r.list(ctx, ``)
}

func (r *PostgresAuctionRepository) list(ctx context.Context, where string, args ...any) ([]*auctions.Auction, error) {
	query := `SELECT ` + auctionColumns + ` FROM auctions ` + where + ` ORDER BY created_at DESC, id`

	rows, err := pkgdb.Conn(ctx, r.pool).Query(ctx, query, args...)
	if err != nil {
		return nil, wrapErr("failed to query auctions", err)
	}
	defer rows.Close()

	result := make([]*auctions.Auction, 0)
	for rows.Next() {
		a, err := scanAuction(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan auction: %w", err)
		}
		result = append(result, a)
	}

	if err := rows.Err(); err != nil {
		return nil, wrapErr("error iterating auctions", err)
	}
	return result, nil
}

// CountByStatus returns the number of auctions per moderation status
func (r *PostgresAuctionRepository) CountByStatus(ctx context.Context) (map[auctions.Status]int64, error) {
	rows, err := pkgdb.Conn(ctx, r.pool).Query(ctx, `SELECT status, COUNT(*) FROM auctions GROUP BY status`)
	if err != nil {
		return nil, wrapErr("failed to count auctions", err)
	}
	defer rows.Close()

	counts := make(map[auctions.Status]int64)
	for rows.Next() {
		var status auctions.Status
		var n int64
		if err := rows.Scan(&status, &n); err != nil {
			return nil, fmt.Errorf("failed to scan auction count: %w", err)
		}
		counts[status] = n
	}

	if err := rows.Err(); err != nil {
		return nil, wrapErr("error iterating auction counts", err)
	}
	return counts, nil
}
