package repository

import (
	"context"

	"phenoqc/internal/domain"
)

// ActionsRepository reads the immutable action log. Action creation happens
// through the issue lifecycle methods of IssuesRepository so it always shares
// their transactions.
type ActionsRepository interface {
	GetAction(ctx context.Context, id int64) (*domain.Action, error)
	ListActionsByIssue(ctx context.Context, issueID int64) ([]*domain.Action, error)
}
