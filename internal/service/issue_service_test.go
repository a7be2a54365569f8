package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"phenoqc/internal/domain"
	"phenoqc/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakeIssuesRepo keeps issues and their context in memory and applies the
// same counter transitions the Postgres implementation does.
type fakeIssuesRepo struct {
	contexts     map[int64]*domain.DataContext
	issues       map[int64]*domain.Issue
	nextIssueID  int64
	nextActionID int64

	lastNewStatus int
	lastBump      bool
}

func newFakeIssuesRepo() *fakeIssuesRepo {
	return &fakeIssuesRepo{
		contexts:     map[int64]*domain.DataContext{},
		issues:       map[int64]*domain.Issue{},
		nextIssueID:  100,
		nextActionID: 200,
	}
}

var _ repository.IssuesRepository = (*fakeIssuesRepo)(nil)

func (f *fakeIssuesRepo) detail(issue *domain.Issue) *repository.IssueDetail {
	c := f.contexts[issue.ContextID]
	return &repository.IssueDetail{
		Issue:         *issue,
		Context:       *c,
		Description:   issue.Description,
		ProcedureKey:  "IMPC_DXA_001",
		ProcedureName: "Body Composition",
		ParameterKey:  "IMPC_DXA_001_001",
		ParameterName: "Body weight",
	}
}

func (f *fakeIssuesRepo) GetIssue(ctx context.Context, id int64) (*repository.IssueDetail, error) {
	issue, ok := f.issues[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return f.detail(issue), nil
}

func (f *fakeIssuesRepo) ListIssues(ctx context.Context, filter repository.IssuesFilter, sort repository.Sort, start, limit int) ([]repository.IssueDetail, int64, error) {
	var details []repository.IssueDetail
	for _, issue := range f.issues {
		if issue.IsDeleted == 0 {
			details = append(details, *f.detail(issue))
		}
	}
	return details, int64(len(details)), nil
}

func (f *fakeIssuesRepo) ListIssuesByContext(ctx context.Context, contextID int64) ([]repository.IssueDetail, error) {
	var details []repository.IssueDetail
	for _, issue := range f.issues {
		if issue.ContextID == contextID && issue.IsDeleted == 0 {
			details = append(details, *f.detail(issue))
		}
	}
	return details, nil
}

func (f *fakeIssuesRepo) RaiseIssue(ctx context.Context, issue *domain.Issue, datapoints []int64) (*domain.Issue, *domain.Action, error) {
	c, ok := f.contexts[issue.ContextID]
	if !ok {
		return nil, nil, repository.ErrNotFound
	}
	c.ApplyRaise()

	issue.ID = f.nextIssueID
	f.nextIssueID++
	issue.Status = domain.StatusNew
	issue.LastUpdate = time.Now()
	f.issues[issue.ID] = issue

	action := &domain.Action{
		ID:          f.nextActionID,
		Description: issue.Description,
		ActionType:  domain.ActionRaise,
		ActionedBy:  issue.RaisedBy,
		IssueID:     &issue.ID,
		LastUpdate:  issue.LastUpdate,
	}
	f.nextActionID++
	return issue, action, nil
}

func (f *fakeIssuesRepo) ApplyAction(ctx context.Context, action *domain.Action, newStatus int, bumpResolved bool) (*domain.Action, error) {
	issue, ok := f.issues[*action.IssueID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	f.lastNewStatus = newStatus
	f.lastBump = bumpResolved

	action.ID = f.nextActionID
	f.nextActionID++
	action.LastUpdate = time.Now()

	if newStatus >= 0 {
		issue.Status = newStatus
		if bumpResolved {
			f.contexts[issue.ContextID].ApplyResolve()
		}
	}
	return action, nil
}

func (f *fakeIssuesRepo) DeleteIssue(ctx context.Context, issueID int64, actorID int) (bool, error) {
	issue, ok := f.issues[issueID]
	if !ok {
		return false, repository.ErrNotFound
	}
	if issue.RaisedBy != actorID {
		return false, nil
	}
	f.contexts[issue.ContextID].ApplyDelete(issue.Status == domain.StatusResolved)
	issue.IsDeleted = 1
	return true, nil
}

type fakeActionsRepo struct {
	actions map[int64]*domain.Action
}

var _ repository.ActionsRepository = (*fakeActionsRepo)(nil)

func (f *fakeActionsRepo) GetAction(ctx context.Context, id int64) (*domain.Action, error) {
	a, ok := f.actions[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return a, nil
}

func (f *fakeActionsRepo) ListActionsByIssue(ctx context.Context, issueID int64) ([]*domain.Action, error) {
	var out []*domain.Action
	for _, a := range f.actions {
		if a.IssueID != nil && *a.IssueID == issueID {
			out = append(out, a)
		}
	}
	return out, nil
}

type fakeCitationsRepo struct {
	points map[int64][]*domain.CitedDataPoint
}

var _ repository.CitationsRepository = (*fakeCitationsRepo)(nil)

func (f *fakeCitationsRepo) ListCitedDataPoints(ctx context.Context, issueID int64) ([]*domain.CitedDataPoint, error) {
	return f.points[issueID], nil
}

// fakeUserDirectory resolves only the users it was seeded with.
type fakeUserDirectory struct {
	users map[int]*domain.User
}

var _ UserDirectory = (*fakeUserDirectory)(nil)

func (f *fakeUserDirectory) FindUser(ctx context.Context, uid int) (*domain.User, error) {
	u, ok := f.users[uid]
	if !ok {
		return nil, fmt.Errorf("no such user %d", uid)
	}
	return u, nil
}

func newTestIssueService() (*IssueService, *fakeIssuesRepo) {
	issues := newFakeIssuesRepo()
	issues.contexts[10] = &domain.DataContext{
		ID: 10,
		ContextKey: domain.ContextKey{
			CentreID: 4, PipelineID: 1, GenotypeID: 2,
			StrainID: 3, ProcedureID: 5, ParameterID: 6,
		},
		NumMeasurements: 40,
	}
	users := &fakeUserDirectory{users: map[int]*domain.User{
		7: {UID: 7, Name: "Jane Reviewer"},
		9: {UID: 9, Name: "", Email: "coordinator@example.org"},
	}}
	svc := NewIssueService(issues, &fakeActionsRepo{actions: map[int64]*domain.Action{}},
		&fakeCitationsRepo{points: map[int64][]*domain.CitedDataPoint{}}, users, zap.NewNop())
	return svc, issues
}

func TestIssueLifecycle_RaiseAcceptResolveDelete(t *testing.T) {
	svc, issues := newTestIssueService()
	ctx := context.Background()

	// user 7 raises an issue
	view, err := svc.Raise(ctx, &RaiseIssueRequest{
		ContextID:   10,
		Title:       "fluctuating body weight",
		Description: "weights look implausible",
		Priority:    domain.PriorityMedium,
		RaisedBy:    7,
		AssignedTo:  9,
	})
	require.NoError(t, err)
	assert.Equal(t, "new", view.Status)
	assert.Equal(t, "Jane Reviewer", view.RaisedBy)
	assert.Equal(t, "coordinator@example.org", view.AssignedTo)
	assert.Equal(t, 1, view.Context.NumIssues)
	assert.Equal(t, 0, view.Context.NumResolved)

	issueID := view.ID

	// user 9 accepts
	actionView, err := svc.Act(ctx, &ActionRequest{
		IssueID:    issueID,
		ActionType: domain.ActionAccept,
		ActionedBy: 9,
	})
	require.NoError(t, err)
	assert.Equal(t, "accept", actionView.ActionType)
	assert.Equal(t, domain.StatusAccepted, issues.issues[issueID].Status)
	assert.False(t, issues.lastBump)

	// user 9 resolves, which bumps the resolved counter
	actionView, err = svc.Act(ctx, &ActionRequest{
		IssueID:     issueID,
		ActionType:  domain.ActionResolve,
		ActionedBy:  9,
		Description: "verified against source",
	})
	require.NoError(t, err)
	assert.Equal(t, "resolve", actionView.ActionType)
	assert.Equal(t, domain.StatusResolved, issues.issues[issueID].Status)
	assert.Equal(t, 1, issues.contexts[10].NumResolved)

	// user 7 deletes their own issue; both counters come back down
	actionView, err = svc.Act(ctx, &ActionRequest{
		IssueID:    issueID,
		ActionType: domain.ActionDelete,
		ActionedBy: 7,
	})
	require.NoError(t, err)
	assert.Equal(t, "delete", actionView.ActionType)
	assert.Equal(t, 1, issues.issues[issueID].IsDeleted)
	assert.Equal(t, 0, issues.contexts[10].NumIssues)
	assert.Equal(t, 0, issues.contexts[10].NumResolved)
}

func TestAct_DeleteByNonRaiserIsSilentNoOp(t *testing.T) {
	svc, issues := newTestIssueService()
	ctx := context.Background()

	view, err := svc.Raise(ctx, &RaiseIssueRequest{
		ContextID: 10, Title: "t", RaisedBy: 7,
	})
	require.NoError(t, err)

	actionView, err := svc.Act(ctx, &ActionRequest{
		IssueID:    view.ID,
		ActionType: domain.ActionDelete,
		ActionedBy: 9,
	})
	require.NoError(t, err)
	assert.Equal(t, "delete", actionView.ActionType)
	assert.Zero(t, actionView.ID)

	// nothing changed
	assert.Equal(t, 0, issues.issues[view.ID].IsDeleted)
	assert.Equal(t, 1, issues.contexts[10].NumIssues)
}

func TestAct_UnrecognizedCodeIsAnnotationOnly(t *testing.T) {
	svc, issues := newTestIssueService()
	ctx := context.Background()

	view, err := svc.Raise(ctx, &RaiseIssueRequest{
		ContextID: 10, Title: "t", RaisedBy: 7,
	})
	require.NoError(t, err)

	_, err = svc.Act(ctx, &ActionRequest{
		IssueID:     view.ID,
		ActionType:  domain.ActionComment,
		ActionedBy:  9,
		Description: "please re-check animal 42",
	})
	require.NoError(t, err)
	assert.Equal(t, -1, issues.lastNewStatus)
	assert.False(t, issues.lastBump)
	assert.Equal(t, domain.StatusNew, issues.issues[view.ID].Status)
}

func TestRaise_Validation(t *testing.T) {
	svc, _ := newTestIssueService()
	ctx := context.Background()

	_, err := svc.Raise(ctx, &RaiseIssueRequest{ContextID: 10, RaisedBy: 7})
	var invalid *ErrInvalidRequest
	require.ErrorAs(t, err, &invalid)

	_, err = svc.Raise(ctx, &RaiseIssueRequest{Title: "t", RaisedBy: 7})
	require.ErrorAs(t, err, &invalid)
}

func TestIssueView_ActorLabels(t *testing.T) {
	svc, _ := newTestIssueService()
	ctx := context.Background()

	// raiser 55 is not in the directory, assignee is the crawler id
	view, err := svc.Raise(ctx, &RaiseIssueRequest{
		ContextID:  10,
		Title:      "t",
		RaisedBy:   55,
		AssignedTo: domain.CrawlerUserID,
	})
	require.NoError(t, err)
	assert.Equal(t, "unknown", view.RaisedBy)
	assert.Equal(t, 55, view.RaisedByUID)
	assert.Equal(t, "crawler", view.AssignedTo)
}
