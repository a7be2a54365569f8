package repository

import (
	"context"

	"phenoqc/internal/domain"
)

// CitationsRepository reads the measurements cited by an issue. Citations
// are created inside the raise transaction and never mutated afterwards.
type CitationsRepository interface {
	ListCitedDataPoints(ctx context.Context, issueID int64) ([]*domain.CitedDataPoint, error)
}
