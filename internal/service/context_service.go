package service

import (
	"context"

	"phenoqc/internal/domain"
	"phenoqc/internal/models"
	"phenoqc/internal/repository"

	"go.uber.org/zap"
)

// ContextService reads data contexts and drives the context-level QC
// sign-off transitions.
type ContextService struct {
	contexts repository.ContextsRepository
	logger   *zap.Logger
}

func NewContextService(contexts repository.ContextsRepository, logger *zap.Logger) *ContextService {
	return &ContextService{contexts: contexts, logger: logger}
}

// Get loads one context by id.
func (s *ContextService) Get(ctx context.Context, id int64) (*models.ContextView, error) {
	dc, err := s.contexts.GetContext(ctx, id)
	if err != nil {
		return nil, err
	}
	view := contextView(dc)
	return &view, nil
}

// Find resolves the composite key to a context.
func (s *ContextService) Find(ctx context.Context, key domain.ContextKey) (*models.ContextView, error) {
	dc, err := s.contexts.FindContext(ctx, key)
	if err != nil {
		return nil, err
	}
	view := contextView(dc)
	return &view, nil
}

// MarkQcDone signs off one context as QC done.
func (s *ContextService) MarkQcDone(ctx context.Context, contextID int64, userID int) error {
	if err := s.contexts.MarkQcDone(ctx, contextID, userID); err != nil {
		return err
	}
	s.logger.Info("context marked qcdone",
		zap.Int64("context_id", contextID),
		zap.Int("user_id", userID),
	)
	return nil
}

// MarkGroupQcDone signs off the whole parameter group of a context as QC
// done. Returns the number of contexts marked.
func (s *ContextService) MarkGroupQcDone(ctx context.Context, contextID int64, userID int) (int, error) {
	marked, err := s.contexts.MarkGroupQcDone(ctx, contextID, userID)
	if err != nil {
		return 0, err
	}
	s.logger.Info("context group marked qcdone",
		zap.Int64("context_id", contextID),
		zap.Int("user_id", userID),
		zap.Int("marked", marked),
	)
	return marked, nil
}
