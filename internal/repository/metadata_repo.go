package repository

import (
	"context"

	"phenoqc/internal/domain"
)

// MetadataRepository is the read-only surface over the crawler-maintained
// pipeline metadata, used to populate the review UI's drill-down selectors.
type MetadataRepository interface {
	// ListPipelines returns the pipelines with data at a centre.
	ListPipelines(ctx context.Context, centreID int) ([]*domain.Pipeline, error)

	// ListProcedures returns the procedures of a pipeline with data at a
	// centre.
	ListProcedures(ctx context.Context, centreID, pipelineID int) ([]*domain.Procedure, error)

	// ListGeneStrains returns the genotype/strain pairings with data for a
	// centre and pipeline.
	ListGeneStrains(ctx context.Context, centreID, pipelineID int) ([]*domain.GeneStrain, error)
}
