package database

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/floroz/auctionhouse/internal/domain/bids"
	pkgdb "github.com/floroz/auctionhouse/pkg/database"
)

// PostgresBidRepository implements bids.Repository using pgx
type PostgresBidRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresBidRepository creates a new PostgreSQL bid repository
func NewPostgresBidRepository(pool *pgxpool.Pool) *PostgresBidRepository {
	return &PostgresBidRepository{pool: pool}
}

// Append inserts a bid. The creation time comes from the database clock.
func (r *PostgresBidRepository) Append(ctx context.Context, bid *bids.Bid) (*bids.Bid, error) {
	query := `
		INSERT INTO bids (id, auction_id, user_id, amount)
		VALUES ($1, $2, $3, $4)
		RETURNING id, auction_id, user_id, amount, created_at
	`
	var stored bids.Bid
	err := pkgdb.Conn(ctx, r.pool).QueryRow(ctx, query,
		uuid.New(),
		bid.AuctionID,
		bid.UserID,
		bid.Amount,
	).Scan(
		&stored.ID,
		&stored.AuctionID,
		&stored.UserID,
		&stored.Amount,
		&stored.CreatedAt,
	)
	if err != nil {
		return nil, wrapErr("failed to insert bid", err)
	}
	return &stored, nil
}

// ListByAuction retrieves the bids of an auction newest first.
// Bids sharing a timestamp are ordered by insertion sequence.
func (r *PostgresBidRepository) ListByAuction(ctx context.Context, auctionID uuid.UUID) ([]*bids.Bid, error) {
	query := `
		SELECT id, auction_id, user_id, amount, created_at
		FROM bids
		WHERE auction_id = $1
		ORDER BY created_at DESC, seq DESC
	`
	rows, err := pkgdb.Conn(ctx, r.pool).Query(ctx, query, auctionID)
	if err != nil {
		return nil, wrapErr("failed to query bids", err)
	}
	defer rows.Close()

	result := make([]*bids.Bid, 0)
	for rows.Next() {
		var bid bids.Bid
		if err := rows.Scan(
			&bid.ID,
			&bid.AuctionID,
			&bid.UserID,
			&bid.Amount,
			&bid.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan bid: %w", err)
		}
		result = append(result, &bid)
	}

	if err := rows.Err(); err != nil {
		return nil, wrapErr("error iterating bids", err)
	}

	return result, nil
}

func (r *PostgresBidRepository) CountByAuction(ctx context.Context, auctionID uuid.UUID) (int64, error) {
	var n int64
	err := pkgdb.Conn(ctx, r.pool).QueryRow(ctx, `SELECT COUNT(*) FROM bids WHERE auction_id = $1`, auctionID).Scan(&n)
	if err != nil {
		return 0, wrapErr("failed to count bids", err)
	}
	return n, nil
}

func (r *PostgresBidRepository) CountAll(ctx context.Context) (int64, error) {
	var n int64
	err := pkgdb.Conn(ctx, r.pool).QueryRow(ctx, `SELECT COUNT(*) FROM bids`).Scan(&n)
	if err != nil {
		return 0, wrapErr("failed to count bids", err)
	}
	return n, nil
}

func (r *PostgresBidRepository) DeleteByAuction(ctx context.Context, auctionID uuid.UUID) (int64, error) {
	result, err := pkgdb.Conn(ctx, r.pool).Exec(ctx, `DELETE FROM bids WHERE auction_id = $1`, auctionID)
	if err != nil {
		return 0, wrapErr("failed to delete bids", err)
	}
	return result.RowsAffected(), nil
}
