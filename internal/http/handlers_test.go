package httpapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"phenoqc/internal/domain"
	"phenoqc/internal/repository"
	"phenoqc/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakeValidator accepts one fixed (token, uid) pair.
type fakeValidator struct {
	token string
	uid   int
}

func (f *fakeValidator) IsValid(ctx context.Context, token string, userID int) bool {
	return token == f.token && userID == f.uid
}

// memIssuesRepo backs the handler tests with a single seeded context.
type memIssuesRepo struct {
	context domain.DataContext
	issues  map[int64]*domain.Issue
	nextID  int64
}

var _ repository.IssuesRepository = (*memIssuesRepo)(nil)

func newMemIssuesRepo() *memIssuesRepo {
	return &memIssuesRepo{
		context: domain.DataContext{
			ID: 10,
			ContextKey: domain.ContextKey{
				CentreID: 4, PipelineID: 1, GenotypeID: 2,
				StrainID: 3, ProcedureID: 5, ParameterID: 6,
			},
			NumMeasurements: 40,
		},
		issues: map[int64]*domain.Issue{},
		nextID: 100,
	}
}

func (m *memIssuesRepo) detail(issue *domain.Issue) repository.IssueDetail {
	return repository.IssueDetail{
		Issue:         *issue,
		Context:       m.context,
		Description:   issue.Description,
		ProcedureKey:  "IMPC_DXA_001",
		ProcedureName: "Body Composition",
		ParameterKey:  "IMPC_DXA_001_001",
		ParameterName: "Body weight",
	}
}

func (m *memIssuesRepo) GetIssue(ctx context.Context, id int64) (*repository.IssueDetail, error) {
	issue, ok := m.issues[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	d := m.detail(issue)
	return &d, nil
}

func (m *memIssuesRepo) ListIssues(ctx context.Context, filter repository.IssuesFilter, sort repository.Sort, start, limit int) ([]repository.IssueDetail, int64, error) {
	if _, ok := issueSortKeyValid(sort); !ok {
		return nil, 0, fmt.Errorf("%w %q", repository.ErrBadSortKey, sort.Key)
	}
	var details []repository.IssueDetail
	for _, issue := range m.issues {
		if issue.IsDeleted == 0 {
			details = append(details, m.detail(issue))
		}
	}
	return details, int64(len(details)), nil
}

// issueSortKeyValid mirrors the whitelist the Postgres repository enforces.
func issueSortKeyValid(sort repository.Sort) (string, bool) {
	switch strings.ToLower(sort.Key) {
	case "title", "priority", "status", "raisedby", "lastupdate", "procedure", "parameter", "qeid":
		return sort.Key, true
	}
	return sort.Key, false
}

func (m *memIssuesRepo) ListIssuesByContext(ctx context.Context, contextID int64) ([]repository.IssueDetail, error) {
	var details []repository.IssueDetail
	for _, issue := range m.issues {
		if issue.ContextID == contextID && issue.IsDeleted == 0 {
			details = append(details, m.detail(issue))
		}
	}
	return details, nil
}

func (m *memIssuesRepo) RaiseIssue(ctx context.Context, issue *domain.Issue, datapoints []int64) (*domain.Issue, *domain.Action, error) {
	if issue.ContextID != m.context.ID {
		return nil, nil, repository.ErrNotFound
	}
	m.context.ApplyRaise()
	issue.ID = m.nextID
	m.nextID++
	issue.Status = domain.StatusNew
	issue.LastUpdate = time.Now()
	m.issues[issue.ID] = issue
	action := &domain.Action{
		ID: m.nextID, ActionType: domain.ActionRaise,
		ActionedBy: issue.RaisedBy, IssueID: &issue.ID, LastUpdate: issue.LastUpdate,
	}
	return issue, action, nil
}

func (m *memIssuesRepo) ApplyAction(ctx context.Context, action *domain.Action, newStatus int, bumpResolved bool) (*domain.Action, error) {
	issue, ok := m.issues[*action.IssueID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	action.ID = m.nextID
	m.nextID++
	action.LastUpdate = time.Now()
	if newStatus >= 0 {
		issue.Status = newStatus
		if bumpResolved {
			m.context.ApplyResolve()
		}
	}
	return action, nil
}

func (m *memIssuesRepo) DeleteIssue(ctx context.Context, issueID int64, actorID int) (bool, error) {
	issue, ok := m.issues[issueID]
	if !ok {
		return false, repository.ErrNotFound
	}
	if issue.RaisedBy != actorID {
		return false, nil
	}
	m.context.ApplyDelete(issue.Status == domain.StatusResolved)
	issue.IsDeleted = 1
	return true, nil
}

type memActionsRepo struct{}

func (memActionsRepo) GetAction(ctx context.Context, id int64) (*domain.Action, error) {
	return nil, repository.ErrNotFound
}

func (memActionsRepo) ListActionsByIssue(ctx context.Context, issueID int64) ([]*domain.Action, error) {
	return nil, nil
}

type memCitationsRepo struct{}

func (memCitationsRepo) ListCitedDataPoints(ctx context.Context, issueID int64) ([]*domain.CitedDataPoint, error) {
	return []*domain.CitedDataPoint{{ID: 1, IssueID: issueID, MeasurementID: 555, AnimalID: 42}}, nil
}

type memUserDirectory struct{}

func (memUserDirectory) FindUser(ctx context.Context, uid int) (*domain.User, error) {
	if uid == 7 {
		return &domain.User{UID: 7, Name: "Jane Reviewer"}, nil
	}
	return nil, fmt.Errorf("no such user %d", uid)
}

const (
	testToken = "session-token"
	testUID   = 7
)

func newTestRouter(t *testing.T) (*Router, *memIssuesRepo) {
	t.Helper()
	logger := zap.NewNop()
	sessions := &fakeValidator{token: testToken, uid: testUID}

	issuesRepo := newMemIssuesRepo()
	issueSvc := service.NewIssueService(issuesRepo, memActionsRepo{}, memCitationsRepo{}, memUserDirectory{}, logger)

	router := NewRouter(logger)
	router.RegisterIssueRoutes(NewIssueHandler(issueSvc, nil, sessions, logger))
	router.RegisterActionRoutes(NewActionHandler(issueSvc, sessions, logger))
	return router, issuesRepo
}

func withSession(path string) string {
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return fmt.Sprintf("%s%ss=%s&u=%d", path, sep, testToken, testUID)
}

func TestListIssues_SessionExpiredEnvelope(t *testing.T) {
	router, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/qc/api/v1/issues?s=bogus&u=7", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)

	var res Result[any]
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	assert.Equal(t, ResultSessionExpired, res.Code)
}

func TestListIssues_Success(t *testing.T) {
	router, repo := newTestRouter(t)
	_, _, err := repo.RaiseIssue(context.Background(), &domain.Issue{
		ContextID: 10, Title: "fluctuating body weight", RaisedBy: 7,
	}, nil)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, withSession("/qc/api/v1/issues?cid=4&filter=1"), nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, `"code":2000`)
	assert.Contains(t, body, `"total":1`)
	assert.Contains(t, body, `"fluctuating body weight"`)
	assert.Contains(t, body, `"raisedBy":"Jane Reviewer"`)
}

func TestListIssues_UnknownSortKey(t *testing.T) {
	router, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, withSession("/qc/api/v1/issues?sort=bogus"), nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCreateAction_DeleteByNonRaiserIsSilentNoOp(t *testing.T) {
	router, repo := newTestRouter(t)
	issue, _, err := repo.RaiseIssue(context.Background(), &domain.Issue{
		ContextID: 10, Title: "t", RaisedBy: 9,
	}, nil)
	require.NoError(t, err)

	payload := fmt.Sprintf(`{"issueId":%d,"actionType":%d}`, issue.ID, domain.ActionDelete)
	req := httptest.NewRequest(http.MethodPost, withSession("/qc/api/v1/actions"), strings.NewReader(payload))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"code":2000`)
	assert.Equal(t, 0, repo.issues[issue.ID].IsDeleted)
}

func TestCreateAction_ResolveMovesStatus(t *testing.T) {
	router, repo := newTestRouter(t)
	issue, _, err := repo.RaiseIssue(context.Background(), &domain.Issue{
		ContextID: 10, Title: "t", RaisedBy: 7,
	}, nil)
	require.NoError(t, err)

	payload := fmt.Sprintf(`{"issueId":%d,"actionType":%d,"description":"verified"}`,
		issue.ID, domain.ActionResolve)
	req := httptest.NewRequest(http.MethodPost, withSession("/qc/api/v1/actions"), strings.NewReader(payload))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"actionType":"resolve"`)
	assert.Equal(t, domain.StatusResolved, repo.issues[issue.ID].Status)
	assert.Equal(t, 1, repo.context.NumResolved)
}

func TestGetIssue_RoutesByPathID(t *testing.T) {
	router, repo := newTestRouter(t)
	issue, _, err := repo.RaiseIssue(context.Background(), &domain.Issue{
		ContextID: 10, Title: "t", RaisedBy: 7,
	}, nil)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, withSession(fmt.Sprintf("/qc/api/v1/issues/%d", issue.ID)), nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), fmt.Sprintf(`"id":%d`, issue.ID))
}

func TestGetIssue_NotFound(t *testing.T) {
	router, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, withSession("/qc/api/v1/issues/999"), nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCitedDataPoints(t *testing.T) {
	router, repo := newTestRouter(t)
	issue, _, err := repo.RaiseIssue(context.Background(), &domain.Issue{
		ContextID: 10, Title: "t", RaisedBy: 7,
	}, nil)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet,
		withSession(fmt.Sprintf("/qc/api/v1/issues/%d/citeddatapoints", issue.ID)), nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"measurementId":555`)
	assert.Contains(t, w.Body.String(), `"count":1`)
}

func TestExportIssues_ReturnsWorkbook(t *testing.T) {
	router, repo := newTestRouter(t)
	_, _, err := repo.RaiseIssue(context.Background(), &domain.Issue{
		ContextID: 10, Title: "t", RaisedBy: 7,
	}, nil)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, withSession("/qc/api/v1/issues/export"), nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		w.Header().Get("Content-Type"))
	assert.NotEmpty(t, w.Body.Bytes())
}

func TestListActionTypes(t *testing.T) {
	router, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, withSession("/qc/api/v1/actiontypes"), nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, `"name":"accept"`)
	assert.Contains(t, body, `"name":"resolve"`)
	assert.Contains(t, body, `"name":"delete"`)
}

func TestMethodNotAllowed(t *testing.T) {
	router, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodDelete, withSession("/qc/api/v1/issues"), nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}
