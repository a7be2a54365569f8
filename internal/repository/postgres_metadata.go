package repository

import (
	"context"
	"database/sql"
	"fmt"

	"phenoqc/internal/domain"
)

// PostgresMetadataRepository implements MetadataRepository. The pipeline
// metadata tables are fed by the crawler; membership is derived from the
// data_contexts rows it created.
type PostgresMetadataRepository struct {
	db *sql.DB
}

func NewPostgresMetadataRepository(db *sql.DB) *PostgresMetadataRepository {
	return &PostgresMetadataRepository{db: db}
}

var _ MetadataRepository = (*PostgresMetadataRepository)(nil)

func (r *PostgresMetadataRepository) ListPipelines(ctx context.Context, centreID int) ([]*domain.Pipeline, error) {
	query := `
		SELECT DISTINCT l.pipeline_id, l.pipeline_key, l.name
		  FROM pipelines l
		  JOIN data_contexts c ON c.pipeline_id = l.pipeline_id
		 WHERE c.centre_id = $1
		 ORDER BY l.name ASC`

	rows, err := r.db.QueryContext(ctx, query, centreID)
	if err != nil {
		return nil, fmt.Errorf("failed to list pipelines: %w", err)
	}
	defer rows.Close()

	var pipelines []*domain.Pipeline
	for rows.Next() {
		var p domain.Pipeline
		if err := rows.Scan(&p.PipelineID, &p.Key, &p.Name); err != nil {
			return nil, fmt.Errorf("failed to scan pipeline: %w", err)
		}
		pipelines = append(pipelines, &p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list pipelines: %w", err)
	}
	return pipelines, nil
}

func (r *PostgresMetadataRepository) ListProcedures(ctx context.Context, centreID, pipelineID int) ([]*domain.Procedure, error) {
	query := `
		SELECT DISTINCT p.procedure_id, p.procedure_key, p.name
		  FROM procedures p
		  JOIN data_contexts c ON c.procedure_id = p.procedure_id
		 WHERE c.centre_id = $1 AND c.pipeline_id = $2
		 ORDER BY p.name ASC`

	rows, err := r.db.QueryContext(ctx, query, centreID, pipelineID)
	if err != nil {
		return nil, fmt.Errorf("failed to list procedures: %w", err)
	}
	defer rows.Close()

	var procedures []*domain.Procedure
	for rows.Next() {
		var p domain.Procedure
		if err := rows.Scan(&p.ProcedureID, &p.Key, &p.Name); err != nil {
			return nil, fmt.Errorf("failed to scan procedure: %w", err)
		}
		procedures = append(procedures, &p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list procedures: %w", err)
	}
	return procedures, nil
}

func (r *PostgresMetadataRepository) ListGeneStrains(ctx context.Context, centreID, pipelineID int) ([]*domain.GeneStrain, error) {
	query := `
		SELECT DISTINCT g.genotype_id, g.strain_id, g.symbol, g.strain
		  FROM genestrains g
		  JOIN data_contexts c
		    ON c.genotype_id = g.genotype_id AND c.strain_id = g.strain_id
		 WHERE c.centre_id = $1 AND c.pipeline_id = $2
		 ORDER BY g.symbol ASC`

	rows, err := r.db.QueryContext(ctx, query, centreID, pipelineID)
	if err != nil {
		return nil, fmt.Errorf("failed to list gene strains: %w", err)
	}
	defer rows.Close()

	var strains []*domain.GeneStrain
	for rows.Next() {
		var g domain.GeneStrain
		if err := rows.Scan(&g.GenotypeID, &g.StrainID, &g.Symbol, &g.Strain); err != nil {
			return nil, fmt.Errorf("failed to scan gene strain: %w", err)
		}
		strains = append(strains, &g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list gene strains: %w", err)
	}
	return strains, nil
}
