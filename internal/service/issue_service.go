package service

import (
	"context"
	"fmt"
	"time"

	"phenoqc/internal/domain"
	"phenoqc/internal/models"
	"phenoqc/internal/repository"

	"go.uber.org/zap"
)

// ErrInvalidRequest rejects malformed lifecycle requests before they reach
// the repository.
type ErrInvalidRequest struct {
	Reason string
}

func (e *ErrInvalidRequest) Error() string {
	return "invalid request: " + e.Reason
}

// RaiseIssueRequest carries everything needed to raise an issue against a
// data context.
type RaiseIssueRequest struct {
	ContextID      int64   `json:"contextId"`
	Title          string  `json:"title"`
	Description    string  `json:"description"`
	Priority       int     `json:"priority"`
	ControlSetting int     `json:"controlSetting"`
	RaisedBy       int     `json:"raisedBy"`
	AssignedTo     int     `json:"assignedTo"`
	DataPoints     []int64 `json:"datapoints"`
}

// ActionRequest carries one action to apply against an existing issue.
type ActionRequest struct {
	IssueID     int64  `json:"issueId"`
	ActionType  int    `json:"actionType"`
	ActionedBy  int    `json:"actionedBy"`
	Description string `json:"description"`
}

// actionEffect is what a recognized action code does to the issue and its
// context counters. Codes absent from the table are pure annotations.
type actionEffect struct {
	status       int
	bumpResolved bool
}

var actionEffects = map[int]actionEffect{
	domain.ActionAccept:  {status: domain.StatusAccepted},
	domain.ActionResolve: {status: domain.StatusResolved, bumpResolved: true},
}

// noStatusChange leaves the issue status untouched.
var noStatusChange = actionEffect{status: -1}

// IssueService implements the issue lifecycle: raising, annotating,
// accepting, resolving and deleting issues, plus the read side the review
// front-end lists and drills into.
type IssueService struct {
	issues    repository.IssuesRepository
	actions   repository.ActionsRepository
	citations repository.CitationsRepository
	users     UserDirectory
	logger    *zap.Logger
}

func NewIssueService(
	issues repository.IssuesRepository,
	actions repository.ActionsRepository,
	citations repository.CitationsRepository,
	users UserDirectory,
	logger *zap.Logger,
) *IssueService {
	return &IssueService{
		issues:    issues,
		actions:   actions,
		citations: citations,
		users:     users,
		logger:    logger,
	}
}

// Raise creates a new issue with its raising action, history entry and cited
// measurements, then returns the enriched view.
func (s *IssueService) Raise(ctx context.Context, req *RaiseIssueRequest) (*models.IssueView, error) {
	if req.Title == "" {
		return nil, &ErrInvalidRequest{Reason: "issue title is required"}
	}
	if req.ContextID <= 0 {
		return nil, &ErrInvalidRequest{Reason: "context id is required"}
	}

	issue := &domain.Issue{
		ContextID:      req.ContextID,
		Title:          req.Title,
		Description:    req.Description,
		Priority:       req.Priority,
		ControlSetting: req.ControlSetting,
		RaisedBy:       req.RaisedBy,
		AssignedTo:     req.AssignedTo,
	}
	created, _, err := s.issues.RaiseIssue(ctx, issue, req.DataPoints)
	if err != nil {
		return nil, err
	}

	s.logger.Info("issue raised",
		zap.Int64("issue_id", created.ID),
		zap.Int64("context_id", created.ContextID),
		zap.Int("raised_by", created.RaisedBy),
	)

	detail, err := s.issues.GetIssue(ctx, created.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load raised issue %d: %w", created.ID, err)
	}
	view := s.issueView(ctx, detail)
	return &view, nil
}

// Act applies one action to an issue. Accept and resolve move the issue
// status (resolve also bumps the context resolved counter); delete routes to
// the soft-delete path; any other recognized code is recorded verbatim.
//
// Deleting an issue raised by someone else is a silent no-op: nothing is
// written and the caller gets back the transient action unchanged. That
// mirrors how the review front-end expects the delete button to behave for
// non-raisers.
func (s *IssueService) Act(ctx context.Context, req *ActionRequest) (*models.ActionView, error) {
	if req.IssueID <= 0 {
		return nil, &ErrInvalidRequest{Reason: "issue id is required"}
	}

	if req.ActionType == domain.ActionDelete {
		deleted, err := s.issues.DeleteIssue(ctx, req.IssueID, req.ActionedBy)
		if err != nil {
			return nil, err
		}
		if deleted {
			s.logger.Info("issue deleted",
				zap.Int64("issue_id", req.IssueID),
				zap.Int("actioned_by", req.ActionedBy),
			)
		}
		view := models.ActionView{
			Description: req.Description,
			ActionedBy:  userLabel(ctx, s.users, req.ActionedBy),
			ActionType:  domain.ActionTypeName(req.ActionType),
			LastUpdate:  time.Now().UnixMilli(),
		}
		return &view, nil
	}

	effect, ok := actionEffects[req.ActionType]
	if !ok {
		effect = noStatusChange
	}
	action := &domain.Action{
		Description: req.Description,
		ActionType:  req.ActionType,
		ActionedBy:  req.ActionedBy,
		IssueID:     &req.IssueID,
	}
	recorded, err := s.issues.ApplyAction(ctx, action, effect.status, effect.bumpResolved)
	if err != nil {
		return nil, err
	}

	s.logger.Info("action recorded",
		zap.Int64("action_id", recorded.ID),
		zap.Int64("issue_id", req.IssueID),
		zap.String("action_type", domain.ActionTypeName(recorded.ActionType)),
	)

	view := s.actionView(ctx, recorded)
	return &view, nil
}

// Get loads one issue with display metadata and actor labels.
func (s *IssueService) Get(ctx context.Context, id int64) (*models.IssueView, error) {
	detail, err := s.issues.GetIssue(ctx, id)
	if err != nil {
		return nil, err
	}
	view := s.issueView(ctx, detail)
	return &view, nil
}

// List returns the filtered, sorted, paged issues plus the unpaged total.
func (s *IssueService) List(ctx context.Context, filter repository.IssuesFilter, sort repository.Sort, start, limit int) (*models.IssueList, error) {
	details, total, err := s.issues.ListIssues(ctx, filter, sort, start, limit)
	if err != nil {
		return nil, err
	}
	return s.issueList(ctx, details, total), nil
}

// ByContext returns the non-deleted issues of one context.
func (s *IssueService) ByContext(ctx context.Context, contextID int64) (*models.IssueList, error) {
	details, err := s.issues.ListIssuesByContext(ctx, contextID)
	if err != nil {
		return nil, err
	}
	return s.issueList(ctx, details, int64(len(details))), nil
}

// IssueActions returns the action log of one issue, oldest first.
func (s *IssueService) IssueActions(ctx context.Context, issueID int64) ([]models.ActionView, error) {
	actions, err := s.actions.ListActionsByIssue(ctx, issueID)
	if err != nil {
		return nil, err
	}
	views := make([]models.ActionView, 0, len(actions))
	for _, a := range actions {
		views = append(views, s.actionView(ctx, a))
	}
	return views, nil
}

// GetAction loads one action by id.
func (s *IssueService) GetAction(ctx context.Context, id int64) (*models.ActionView, error) {
	action, err := s.actions.GetAction(ctx, id)
	if err != nil {
		return nil, err
	}
	view := s.actionView(ctx, action)
	return &view, nil
}

// CitedDataPoints returns the measurements an issue cites.
func (s *IssueService) CitedDataPoints(ctx context.Context, issueID int64) (*models.CitedDataPointList, error) {
	points, err := s.citations.ListCitedDataPoints(ctx, issueID)
	if err != nil {
		return nil, err
	}
	views := make([]models.CitedDataPointView, 0, len(points))
	for _, p := range points {
		views = append(views, models.CitedDataPointView{
			MeasurementID: p.MeasurementID,
			AnimalID:      p.AnimalID,
		})
	}
	return &models.CitedDataPointList{DataPoints: views, Count: len(views)}, nil
}

func (s *IssueService) issueList(ctx context.Context, details []repository.IssueDetail, total int64) *models.IssueList {
	views := make([]models.IssueView, 0, len(details))
	for i := range details {
		views = append(views, s.issueView(ctx, &details[i]))
	}
	return &models.IssueList{Issues: views, Total: total}
}

func (s *IssueService) issueView(ctx context.Context, d *repository.IssueDetail) models.IssueView {
	return models.IssueView{
		ID:             d.Issue.ID,
		Title:          d.Issue.Title,
		Description:    d.Description,
		Priority:       domain.PriorityName(d.Issue.Priority),
		ControlSetting: d.Issue.ControlSetting,
		Status:         domain.StatusName(d.Issue.Status),
		RaisedBy:       userLabel(ctx, s.users, d.Issue.RaisedBy),
		RaisedByUID:    d.Issue.RaisedBy,
		AssignedTo:     userLabel(ctx, s.users, d.Issue.AssignedTo),
		LastUpdate:     d.Issue.LastUpdate.UnixMilli(),
		Context:        contextView(&d.Context),
		ProcedureKey:   d.ProcedureKey,
		Procedure:      d.ProcedureName,
		ParameterKey:   d.ParameterKey,
		Parameter:      d.ParameterName,
	}
}

func (s *IssueService) actionView(ctx context.Context, a *domain.Action) models.ActionView {
	return models.ActionView{
		ID:          a.ID,
		Description: a.Description,
		ActionedBy:  userLabel(ctx, s.users, a.ActionedBy),
		ActionType:  domain.ActionTypeName(a.ActionType),
		LastUpdate:  a.LastUpdate.UnixMilli(),
	}
}

func contextView(c *domain.DataContext) models.ContextView {
	return models.ContextView{
		ID:              c.ID,
		CentreID:        c.CentreID,
		PipelineID:      c.PipelineID,
		GenotypeID:      c.GenotypeID,
		StrainID:        c.StrainID,
		ProcedureID:     c.ProcedureID,
		ParameterID:     c.ParameterID,
		NumIssues:       c.NumIssues,
		NumResolved:     c.NumResolved,
		NumMeasurements: c.NumMeasurements,
		StateID:         c.StateID,
	}
}
