package repository

import (
	"context"
	"database/sql"
	"fmt"

	"phenoqc/internal/domain"
)

// PostgresCitationsRepository implements CitationsRepository.
type PostgresCitationsRepository struct {
	db *sql.DB
}

func NewPostgresCitationsRepository(db *sql.DB) *PostgresCitationsRepository {
	return &PostgresCitationsRepository{db: db}
}

var _ CitationsRepository = (*PostgresCitationsRepository)(nil)

func (r *PostgresCitationsRepository) ListCitedDataPoints(ctx context.Context, issueID int64) ([]*domain.CitedDataPoint, error) {
	query := `
		SELECT id, issue_id, measurement_id, animal_id
		  FROM cited_data_points
		 WHERE issue_id = $1
		 ORDER BY id ASC`

	rows, err := r.db.QueryContext(ctx, query, issueID)
	if err != nil {
		return nil, fmt.Errorf("failed to list cited data points: %w", err)
	}
	defer rows.Close()

	var points []*domain.CitedDataPoint
	for rows.Next() {
		var p domain.CitedDataPoint
		if err := rows.Scan(&p.ID, &p.IssueID, &p.MeasurementID, &p.AnimalID); err != nil {
			return nil, fmt.Errorf("failed to scan cited data point: %w", err)
		}
		points = append(points, &p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list cited data points: %w", err)
	}
	return points, nil
}
