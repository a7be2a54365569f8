package httpapi

import (
	"net/http"

	"phenoqc/internal/service"
	"phenoqc/internal/session"

	"go.uber.org/zap"
)

// MetadataHandler serves the drill-down selectors: pipelines, procedures and
// genotype/strain pairings.
type MetadataHandler struct {
	metadata *service.MetadataService
	sessions session.Validator
	logger   *zap.Logger
}

func NewMetadataHandler(metadata *service.MetadataService, sessions session.Validator, logger *zap.Logger) *MetadataHandler {
	return &MetadataHandler{metadata: metadata, sessions: sessions, logger: logger}
}

// GET /qc/api/v1/pipelines?cid=
func (h *MetadataHandler) ListPipelines(w http.ResponseWriter, r *http.Request) {
	if _, ok := checkSession(h.sessions, w, r); !ok {
		return
	}
	centreID := parseInt(r.URL.Query().Get("cid"), -1)
	if centreID < 0 {
		writeJSON(w, http.StatusBadRequest, Fail("cid parameter is required"))
		return
	}
	views, err := h.metadata.Pipelines(r.Context(), centreID)
	if err != nil {
		h.logger.Error("failed to list pipelines", zap.Int("centre_id", centreID), zap.Error(err))
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(views))
}

// GET /qc/api/v1/procedures?cid=&lid=
func (h *MetadataHandler) ListProcedures(w http.ResponseWriter, r *http.Request) {
	if _, ok := checkSession(h.sessions, w, r); !ok {
		return
	}
	q := r.URL.Query()
	centreID := parseInt(q.Get("cid"), -1)
	pipelineID := parseInt(q.Get("lid"), -1)
	if centreID < 0 || pipelineID < 0 {
		writeJSON(w, http.StatusBadRequest, Fail("cid and lid parameters are required"))
		return
	}
	views, err := h.metadata.Procedures(r.Context(), centreID, pipelineID)
	if err != nil {
		h.logger.Error("failed to list procedures", zap.Int("centre_id", centreID), zap.Error(err))
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(views))
}

// GET /qc/api/v1/genestrains?cid=&lid=
func (h *MetadataHandler) ListGeneStrains(w http.ResponseWriter, r *http.Request) {
	if _, ok := checkSession(h.sessions, w, r); !ok {
		return
	}
	q := r.URL.Query()
	centreID := parseInt(q.Get("cid"), -1)
	pipelineID := parseInt(q.Get("lid"), -1)
	if centreID < 0 || pipelineID < 0 {
		writeJSON(w, http.StatusBadRequest, Fail("cid and lid parameters are required"))
		return
	}
	views, err := h.metadata.GeneStrains(r.Context(), centreID, pipelineID)
	if err != nil {
		h.logger.Error("failed to list genestrains", zap.Int("centre_id", centreID), zap.Error(err))
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(views))
}
