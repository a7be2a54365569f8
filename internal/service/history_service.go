package service

import (
	"context"

	"phenoqc/internal/domain"
	"phenoqc/internal/models"
	"phenoqc/internal/repository"
)

// HistoryService reads the audit trail and resolves actor labels.
type HistoryService struct {
	history repository.HistoryRepository
	users   UserDirectory
}

func NewHistoryService(history repository.HistoryRepository, users UserDirectory) *HistoryService {
	return &HistoryService{history: history, users: users}
}

// ContextHistory returns the audit trail of one context, oldest first.
func (s *HistoryService) ContextHistory(ctx context.Context, contextID int64) ([]models.HistoryView, error) {
	entries, err := s.history.ListHistoryByContext(ctx, contextID)
	if err != nil {
		return nil, err
	}
	return s.historyViews(ctx, entries), nil
}

// IssueHistory returns the audit trail of one issue, oldest first.
func (s *HistoryService) IssueHistory(ctx context.Context, issueID int64) ([]models.HistoryView, error) {
	entries, err := s.history.ListHistoryByIssue(ctx, issueID)
	if err != nil {
		return nil, err
	}
	return s.historyViews(ctx, entries), nil
}

func (s *HistoryService) historyViews(ctx context.Context, entries []*domain.HistoryEntry) []models.HistoryView {
	// Actor labels repeat heavily within one trail, so resolve each id once.
	labels := make(map[int]string)
	views := make([]models.HistoryView, 0, len(entries))
	for _, e := range entries {
		label, ok := labels[e.ActionedBy]
		if !ok {
			label = userLabel(ctx, s.users, e.ActionedBy)
			labels[e.ActionedBy] = label
		}
		views = append(views, models.HistoryView{
			ID:         e.ID,
			ContextID:  e.ContextID,
			ActionedBy: e.ActionedBy,
			User:       label,
			ActionType: domain.ActionTypeName(e.ActionType),
			State:      e.StateID,
			IssueID:    e.IssueID,
			ActionID:   e.ActionID,
			LastUpdate: e.LastUpdate.UnixMilli(),
		})
	}
	return views
}
