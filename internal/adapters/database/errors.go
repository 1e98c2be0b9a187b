package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/floroz/auctionhouse/internal/domain/auctions"
	pkgdb "github.com/floroz/auctionhouse/pkg/database"
)

// wrapErr annotates a driver error with the domain error kind it represents.
// Lock timeouts and serialization failures become ErrConcurrentUpdate; errors that never reached
// Postgres (connection refused, pool closed) become ErrStorageUnavailable.
func wrapErr(op string, err error) error {
	if pkgdb.IsContention(err) {
		return fmt.Errorf("%s: %w: %w", op, auctions.ErrConcurrentUpdate, err)
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%s: %w", op, err)
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return fmt.Errorf("%s: %w", op, err)
	}
	return fmt.Errorf("%s: %w: %w", op, auctions.ErrStorageUnavailable, err)
}

// rowScanner is satisfied by pgx.Row and pgx.Rows
type rowScanner interface {
	Scan(dest ...any) error
}
