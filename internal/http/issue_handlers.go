package httpapi

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"phenoqc/internal/repository"
	"phenoqc/internal/service"
	"phenoqc/internal/session"

	"go.uber.org/zap"
)

// IssueHandler serves the issue list, single-issue reads and the XLSX
// export under /qc/api/v1/issues.
type IssueHandler struct {
	issues   *service.IssueService
	history  *service.HistoryService
	sessions session.Validator
	logger   *zap.Logger
}

func NewIssueHandler(issues *service.IssueService, history *service.HistoryService, sessions session.Validator, logger *zap.Logger) *IssueHandler {
	return &IssueHandler{issues: issues, history: history, sessions: sessions, logger: logger}
}

// issuesFilterFromQuery reads the hierarchical context filter (cid, lid,
// gid, sid, pid, qid) and the status bitmask (filter) from the query.
func issuesFilterFromQuery(q url.Values) repository.IssuesFilter {
	f := repository.NewContextFilter()
	f.CentreID = parseInt(q.Get("cid"), repository.Unset)
	f.PipelineID = parseInt(q.Get("lid"), repository.Unset)
	f.GenotypeID = parseInt(q.Get("gid"), repository.Unset)
	f.StrainID = parseInt(q.Get("sid"), repository.Unset)
	f.ProcedureID = parseInt(q.Get("pid"), repository.Unset)
	f.ParameterID = parseInt(q.Get("qid"), repository.Unset)
	return repository.IssuesFilter{
		Context:    f,
		StatusMask: parseInt(q.Get("filter"), 0),
	}
}

func sortFromQuery(q url.Values) repository.Sort {
	key := q.Get("sort")
	if key == "" {
		return repository.DefaultSort
	}
	dir := "ASC"
	if strings.EqualFold(q.Get("dir"), "DESC") {
		dir = "DESC"
	}
	return repository.Sort{Key: key, Direction: dir}
}

// GET /qc/api/v1/issues
// params: cid/lid/gid/sid/pid/qid (context hierarchy), filter (status
// bitmask), sort, dir, start, limit
func (h *IssueHandler) ListIssues(w http.ResponseWriter, r *http.Request) {
	if _, ok := checkSession(h.sessions, w, r); !ok {
		return
	}
	q := r.URL.Query()
	filter := issuesFilterFromQuery(q)
	sort := sortFromQuery(q)
	start := parseInt(q.Get("start"), repository.Unset)
	limit := parseInt(q.Get("limit"), repository.Unset)

	list, err := h.issues.List(r.Context(), filter, sort, start, limit)
	if err != nil {
		h.logger.Error("failed to list issues", zap.Error(err))
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(list))
}

// GET /qc/api/v1/issues/export
// Same filter params as the list; responds with an XLSX attachment.
func (h *IssueHandler) ExportIssues(w http.ResponseWriter, r *http.Request) {
	if _, ok := checkSession(h.sessions, w, r); !ok {
		return
	}
	q := r.URL.Query()
	filter := issuesFilterFromQuery(q)
	sort := sortFromQuery(q)

	list, err := h.issues.List(r.Context(), filter, sort, repository.Unset, repository.Unset)
	if err != nil {
		h.logger.Error("failed to list issues for export", zap.Error(err))
		writeError(w, err)
		return
	}
	report, err := service.BuildIssueReport(list.Issues)
	if err != nil {
		h.logger.Error("failed to build issue report", zap.Error(err))
		writeError(w, err)
		return
	}

	filename := fmt.Sprintf("qc-issues-%s.xlsx", time.Now().UTC().Format("20060102-150405"))
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(report)
}

// GET /qc/api/v1/issues/{id}
func (h *IssueHandler) GetIssue(w http.ResponseWriter, r *http.Request, issueID int64) {
	if _, ok := checkSession(h.sessions, w, r); !ok {
		return
	}
	view, err := h.issues.Get(r.Context(), issueID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(view))
}

// GET /qc/api/v1/issues/{id}/citeddatapoints
func (h *IssueHandler) CitedDataPoints(w http.ResponseWriter, r *http.Request, issueID int64) {
	if _, ok := checkSession(h.sessions, w, r); !ok {
		return
	}
	list, err := h.issues.CitedDataPoints(r.Context(), issueID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(list))
}

// GET /qc/api/v1/issues/{id}/history
func (h *IssueHandler) IssueHistory(w http.ResponseWriter, r *http.Request, issueID int64) {
	if _, ok := checkSession(h.sessions, w, r); !ok {
		return
	}
	entries, err := h.history.IssueHistory(r.Context(), issueID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(entries))
}
