package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// ErrNotFound is returned when a referenced context, issue, action or cited
// measurement does not exist.
var ErrNotFound = errors.New("not found")

// ErrBadSortKey is returned when a sort request names a column outside the
// whitelist.
var ErrBadSortKey = errors.New("unknown sort key")

// runInTx executes fn inside one transaction. Any error rolls the whole
// operation back so no partial state is ever committed.
func runInTx(ctx context.Context, db *sql.DB, fn func(tx *sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func nullableID(id *int64) any {
	if id == nil {
		return nil
	}
	return *id
}
