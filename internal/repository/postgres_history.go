package repository

import (
	"context"
	"database/sql"
	"fmt"

	"phenoqc/internal/domain"
)

// PostgresHistoryRepository implements HistoryRepository.
type PostgresHistoryRepository struct {
	db *sql.DB
}

func NewPostgresHistoryRepository(db *sql.DB) *PostgresHistoryRepository {
	return &PostgresHistoryRepository{db: db}
}

var _ HistoryRepository = (*PostgresHistoryRepository)(nil)

const historyColumns = `
		id, context_id, actioned_by, action_type, state_id,
		action_id, issue_id, is_deleted, last_update`

func scanHistoryEntry(row rowScanner) (*domain.HistoryEntry, error) {
	var h domain.HistoryEntry
	var actionID, issueID sql.NullInt64
	err := row.Scan(
		&h.ID, &h.ContextID, &h.ActionedBy, &h.ActionType, &h.StateID,
		&actionID, &issueID, &h.IsDeleted, &h.LastUpdate,
	)
	if err != nil {
		return nil, err
	}
	if actionID.Valid {
		h.ActionID = &actionID.Int64
	}
	if issueID.Valid {
		h.IssueID = &issueID.Int64
	}
	return &h, nil
}

func (r *PostgresHistoryRepository) listHistory(ctx context.Context, q string, arg int64) ([]*domain.HistoryEntry, error) {
	rows, err := r.db.QueryContext(ctx, q, arg)
	if err != nil {
		return nil, fmt.Errorf("failed to list history: %w", err)
	}
	defer rows.Close()

	var entries []*domain.HistoryEntry
	for rows.Next() {
		h, err := scanHistoryEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan history entry: %w", err)
		}
		entries = append(entries, h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list history: %w", err)
	}
	return entries, nil
}

func (r *PostgresHistoryRepository) ListHistoryByContext(ctx context.Context, contextID int64) ([]*domain.HistoryEntry, error) {
	query := `SELECT` + historyColumns + `
	  FROM history
	 WHERE context_id = $1 AND is_deleted = 0
	 ORDER BY last_update ASC, id ASC`
	return r.listHistory(ctx, query, contextID)
}

func (r *PostgresHistoryRepository) ListHistoryByIssue(ctx context.Context, issueID int64) ([]*domain.HistoryEntry, error) {
	query := `SELECT` + historyColumns + `
	  FROM history
	 WHERE issue_id = $1 AND is_deleted = 0
	 ORDER BY last_update ASC, id ASC`
	return r.listHistory(ctx, query, issueID)
}
