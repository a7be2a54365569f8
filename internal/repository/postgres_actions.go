package repository

import (
	"context"
	"database/sql"
	"fmt"

	"phenoqc/internal/domain"
)

// PostgresActionsRepository implements ActionsRepository.
type PostgresActionsRepository struct {
	db *sql.DB
}

func NewPostgresActionsRepository(db *sql.DB) *PostgresActionsRepository {
	return &PostgresActionsRepository{db: db}
}

var _ ActionsRepository = (*PostgresActionsRepository)(nil)

func scanAction(row rowScanner) (*domain.Action, error) {
	var a domain.Action
	var issueID sql.NullInt64
	err := row.Scan(
		&a.ID, &a.Description, &a.ActionType, &a.ActionedBy,
		&issueID, &a.LastUpdate,
	)
	if err != nil {
		return nil, err
	}
	if issueID.Valid {
		a.IssueID = &issueID.Int64
	}
	return &a, nil
}

func (r *PostgresActionsRepository) GetAction(ctx context.Context, id int64) (*domain.Action, error) {
	query := `
		SELECT id, description, action_type, actioned_by, issue_id, last_update
		  FROM actions
		 WHERE id = $1`

	a, err := scanAction(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get action: %w", err)
	}
	return a, nil
}

func (r *PostgresActionsRepository) ListActionsByIssue(ctx context.Context, issueID int64) ([]*domain.Action, error) {
	query := `
		SELECT id, description, action_type, actioned_by, issue_id, last_update
		  FROM actions
		 WHERE issue_id = $1
		 ORDER BY last_update ASC, id ASC`

	rows, err := r.db.QueryContext(ctx, query, issueID)
	if err != nil {
		return nil, fmt.Errorf("failed to list actions: %w", err)
	}
	defer rows.Close()

	var actions []*domain.Action
	for rows.Next() {
		a, err := scanAction(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan action: %w", err)
		}
		actions = append(actions, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list actions: %w", err)
	}
	return actions, nil
}
