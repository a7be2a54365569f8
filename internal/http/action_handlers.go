package httpapi

import (
	"net/http"

	"phenoqc/internal/domain"
	"phenoqc/internal/models"
	"phenoqc/internal/service"
	"phenoqc/internal/session"

	"go.uber.org/zap"
)

// actionTypes is the static legend of recognized action codes, served to the
// front-end so it never hardcodes the cids.
var actionTypes = []models.ActionTypeView{
	{CID: domain.ActionRaise, Name: domain.ActionTypeName(domain.ActionRaise)},
	{CID: domain.ActionComment, Name: domain.ActionTypeName(domain.ActionComment)},
	{CID: domain.ActionAccept, Name: domain.ActionTypeName(domain.ActionAccept)},
	{CID: domain.ActionResolve, Name: domain.ActionTypeName(domain.ActionResolve)},
	{CID: domain.ActionDelete, Name: domain.ActionTypeName(domain.ActionDelete)},
	{CID: domain.ActionQcDone, Name: domain.ActionTypeName(domain.ActionQcDone)},
}

// ActionHandler serves the action log and accepts new actions under
// /qc/api/v1/actions.
type ActionHandler struct {
	issues   *service.IssueService
	sessions session.Validator
	logger   *zap.Logger
}

func NewActionHandler(issues *service.IssueService, sessions session.Validator, logger *zap.Logger) *ActionHandler {
	return &ActionHandler{issues: issues, sessions: sessions, logger: logger}
}

// POST /qc/api/v1/actions
// body: {issueId, actionType, description}; the actor is the session user.
func (h *ActionHandler) CreateAction(w http.ResponseWriter, r *http.Request) {
	uid, ok := checkSession(h.sessions, w, r)
	if !ok {
		return
	}
	var req service.ActionRequest
	if err := readBodyJSON(r, 1<<20, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, Fail("invalid request body"))
		return
	}
	req.ActionedBy = uid

	view, err := h.issues.Act(r.Context(), &req)
	if err != nil {
		h.logger.Error("failed to apply action",
			zap.Int64("issue_id", req.IssueID),
			zap.Int("action_type", req.ActionType),
			zap.Error(err),
		)
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(view))
}

// GET /qc/api/v1/actions?issue={id}
func (h *ActionHandler) ListActions(w http.ResponseWriter, r *http.Request) {
	if _, ok := checkSession(h.sessions, w, r); !ok {
		return
	}
	issueID := parseInt64(r.URL.Query().Get("issue"), 0)
	if issueID <= 0 {
		writeJSON(w, http.StatusBadRequest, Fail("issue parameter is required"))
		return
	}
	views, err := h.issues.IssueActions(r.Context(), issueID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(views))
}

// GET /qc/api/v1/actions/{id}
func (h *ActionHandler) GetAction(w http.ResponseWriter, r *http.Request, actionID int64) {
	if _, ok := checkSession(h.sessions, w, r); !ok {
		return
	}
	view, err := h.issues.GetAction(r.Context(), actionID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(view))
}

// GET /qc/api/v1/actiontypes
func (h *ActionHandler) ListActionTypes(w http.ResponseWriter, r *http.Request) {
	if _, ok := checkSession(h.sessions, w, r); !ok {
		return
	}
	writeJSON(w, http.StatusOK, Ok(actionTypes))
}
