package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"phenoqc/internal/repository"
	"phenoqc/internal/service"
	"phenoqc/internal/session"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func parseInt(s string, def int) int {
	if s == "" {
		return def
	}
	i, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return i
}

func parseInt64(s string, def int64) int64 {
	if s == "" {
		return def
	}
	i, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return def
	}
	return i
}

func readBodyJSON(r *http.Request, maxBytes int64, out any) error {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBytes))
	if err != nil {
		return err
	}
	if len(body) == 0 {
		return nil
	}
	return json.Unmarshal(body, out)
}

// checkSession validates the `s` (token) and `u` (user id) query parameters
// every endpoint carries. On failure the session-expired envelope is written
// and the caller must return.
func checkSession(v session.Validator, w http.ResponseWriter, r *http.Request) (int, bool) {
	token := r.URL.Query().Get("s")
	uid := parseInt(r.URL.Query().Get("u"), -1)
	if !v.IsValid(r.Context(), token, uid) {
		writeJSON(w, http.StatusUnauthorized, SessionExpired())
		return 0, false
	}
	return uid, true
}

// writeError maps service and repository errors onto the envelope.
func writeError(w http.ResponseWriter, err error) {
	var invalid *service.ErrInvalidRequest
	switch {
	case errors.As(err, &invalid):
		writeJSON(w, http.StatusBadRequest, Fail(err.Error()))
	case errors.Is(err, repository.ErrBadSortKey):
		writeJSON(w, http.StatusBadRequest, Fail(err.Error()))
	case errors.Is(err, repository.ErrNotFound):
		writeJSON(w, http.StatusNotFound, Fail("not found"))
	default:
		writeJSON(w, http.StatusInternalServerError, Fail("internal error"))
	}
}
