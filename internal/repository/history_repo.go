package repository

import (
	"context"

	"phenoqc/internal/domain"
)

// HistoryRepository reads the append-only audit trail. Entries are written
// by the lifecycle transactions; soft-deleted entries stay in storage but
// are excluded from normal queries.
type HistoryRepository interface {
	ListHistoryByContext(ctx context.Context, contextID int64) ([]*domain.HistoryEntry, error)
	ListHistoryByIssue(ctx context.Context, issueID int64) ([]*domain.HistoryEntry, error)
}
