package service

import (
	"context"

	"phenoqc/internal/models"
	"phenoqc/internal/repository"
)

// MetadataService serves the drill-down selectors of the review UI from the
// crawler-maintained metadata tables.
type MetadataService struct {
	metadata repository.MetadataRepository
}

func NewMetadataService(metadata repository.MetadataRepository) *MetadataService {
	return &MetadataService{metadata: metadata}
}

// Pipelines returns the pipelines with data at a centre.
func (s *MetadataService) Pipelines(ctx context.Context, centreID int) ([]models.PipelineView, error) {
	pipelines, err := s.metadata.ListPipelines(ctx, centreID)
	if err != nil {
		return nil, err
	}
	views := make([]models.PipelineView, 0, len(pipelines))
	for _, p := range pipelines {
		views = append(views, models.PipelineView{
			PipelineID: p.PipelineID,
			Key:        p.Key,
			Name:       p.Name,
		})
	}
	return views, nil
}

// Procedures returns the procedures of a pipeline with data at a centre.
func (s *MetadataService) Procedures(ctx context.Context, centreID, pipelineID int) ([]models.ProcedureView, error) {
	procedures, err := s.metadata.ListProcedures(ctx, centreID, pipelineID)
	if err != nil {
		return nil, err
	}
	views := make([]models.ProcedureView, 0, len(procedures))
	for _, p := range procedures {
		views = append(views, models.ProcedureView{
			ProcedureID: p.ProcedureID,
			Key:         p.Key,
			Name:        p.Name,
		})
	}
	return views, nil
}

// GeneStrains returns the genotype/strain pairings with data for a centre
// and pipeline.
func (s *MetadataService) GeneStrains(ctx context.Context, centreID, pipelineID int) ([]models.GeneStrainView, error) {
	genestrains, err := s.metadata.ListGeneStrains(ctx, centreID, pipelineID)
	if err != nil {
		return nil, err
	}
	views := make([]models.GeneStrainView, 0, len(genestrains))
	for _, g := range genestrains {
		views = append(views, models.GeneStrainView{
			GenotypeID: g.GenotypeID,
			StrainID:   g.StrainID,
			Symbol:     g.Symbol,
			Strain:     g.Strain,
		})
	}
	return views, nil
}
