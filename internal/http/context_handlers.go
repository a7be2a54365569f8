package httpapi

import (
	"net/http"

	"phenoqc/internal/domain"
	"phenoqc/internal/service"
	"phenoqc/internal/session"

	"go.uber.org/zap"
)

// ContextHandler serves data contexts and the context-scoped operations
// under /qc/api/v1/contexts: issue raising and listing, the audit trail and
// the QC sign-off transitions.
type ContextHandler struct {
	contexts *service.ContextService
	issues   *service.IssueService
	history  *service.HistoryService
	sessions session.Validator
	logger   *zap.Logger
}

func NewContextHandler(
	contexts *service.ContextService,
	issues *service.IssueService,
	history *service.HistoryService,
	sessions session.Validator,
	logger *zap.Logger,
) *ContextHandler {
	return &ContextHandler{
		contexts: contexts,
		issues:   issues,
		history:  history,
		sessions: sessions,
		logger:   logger,
	}
}

// GET /qc/api/v1/contexts?cid=&lid=&gid=&sid=&pid=&qid=
// Resolves the composite key. All six levels are required.
func (h *ContextHandler) FindContext(w http.ResponseWriter, r *http.Request) {
	if _, ok := checkSession(h.sessions, w, r); !ok {
		return
	}
	q := r.URL.Query()
	key := domain.ContextKey{
		CentreID:    parseInt(q.Get("cid"), -1),
		PipelineID:  parseInt(q.Get("lid"), -1),
		GenotypeID:  parseInt(q.Get("gid"), -1),
		StrainID:    parseInt(q.Get("sid"), -1),
		ProcedureID: parseInt(q.Get("pid"), -1),
		ParameterID: parseInt(q.Get("qid"), -1),
	}
	if key.CentreID < 0 || key.PipelineID < 0 || key.GenotypeID < 0 ||
		key.StrainID < 0 || key.ProcedureID < 0 || key.ParameterID < 0 {
		writeJSON(w, http.StatusBadRequest, Fail("all of cid, lid, gid, sid, pid, qid are required"))
		return
	}
	view, err := h.contexts.Find(r.Context(), key)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(view))
}

// GET /qc/api/v1/contexts/{id}
func (h *ContextHandler) GetContext(w http.ResponseWriter, r *http.Request, contextID int64) {
	if _, ok := checkSession(h.sessions, w, r); !ok {
		return
	}
	view, err := h.contexts.Get(r.Context(), contextID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(view))
}

// POST /qc/api/v1/contexts/{id}/issues
// body: {title, description, priority, controlSetting, assignedTo,
// datapoints}; the raiser is the session user.
func (h *ContextHandler) RaiseIssue(w http.ResponseWriter, r *http.Request, contextID int64) {
	uid, ok := checkSession(h.sessions, w, r)
	if !ok {
		return
	}
	var req service.RaiseIssueRequest
	if err := readBodyJSON(r, 1<<20, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, Fail("invalid request body"))
		return
	}
	req.ContextID = contextID
	req.RaisedBy = uid

	view, err := h.issues.Raise(r.Context(), &req)
	if err != nil {
		h.logger.Error("failed to raise issue",
			zap.Int64("context_id", contextID),
			zap.Error(err),
		)
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(view))
}

// GET /qc/api/v1/contexts/{id}/issues
func (h *ContextHandler) ContextIssues(w http.ResponseWriter, r *http.Request, contextID int64) {
	if _, ok := checkSession(h.sessions, w, r); !ok {
		return
	}
	list, err := h.issues.ByContext(r.Context(), contextID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(list))
}

// GET /qc/api/v1/contexts/{id}/history
func (h *ContextHandler) ContextHistory(w http.ResponseWriter, r *http.Request, contextID int64) {
	if _, ok := checkSession(h.sessions, w, r); !ok {
		return
	}
	entries, err := h.history.ContextHistory(r.Context(), contextID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(entries))
}

// POST /qc/api/v1/contexts/{id}/qcdone
func (h *ContextHandler) MarkQcDone(w http.ResponseWriter, r *http.Request, contextID int64) {
	uid, ok := checkSession(h.sessions, w, r)
	if !ok {
		return
	}
	if err := h.contexts.MarkQcDone(r.Context(), contextID, uid); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(map[string]any{"contextId": contextID}))
}

// POST /qc/api/v1/contexts/{id}/qcdonegrp
func (h *ContextHandler) MarkGroupQcDone(w http.ResponseWriter, r *http.Request, contextID int64) {
	uid, ok := checkSession(h.sessions, w, r)
	if !ok {
		return
	}
	marked, err := h.contexts.MarkGroupQcDone(r.Context(), contextID, uid)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(map[string]any{"contextId": contextID, "marked": marked}))
}
