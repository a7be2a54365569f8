package repository

import (
	"context"

	"phenoqc/internal/domain"
)

// ContextsRepository reads data contexts and applies the context-level QC
// review-state transitions.
type ContextsRepository interface {
	// GetContext loads one context by id.
	GetContext(ctx context.Context, id int64) (*domain.DataContext, error)

	// FindContext resolves the composite key to a context. All six levels
	// must be set.
	FindContext(ctx context.Context, key domain.ContextKey) (*domain.DataContext, error)

	// MarkQcDone moves the context to the qcdone state and appends a
	// context-level history entry, in one transaction.
	MarkQcDone(ctx context.Context, contextID int64, userID int) error

	// MarkGroupQcDone marks every context sharing the given context's
	// centre/pipeline/genotype/strain/procedure (the whole parameter group)
	// as qcdone, in one transaction. Returns the number of contexts marked.
	MarkGroupQcDone(ctx context.Context, contextID int64, userID int) (int, error)
}
