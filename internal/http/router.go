package httpapi

import (
	"net/http"
	"strconv"
	"strings"

	"go.uber.org/zap"
)

const apiPrefix = "/qc/api/v1"

// Router uses the standard library http.ServeMux; subtree patterns plus
// manual path splitting cover the /{id}/... routes.
type Router struct {
	mux    *http.ServeMux
	logger *zap.Logger
}

func NewRouter(logger *zap.Logger) *Router {
	return &Router{
		mux:    http.NewServeMux(),
		logger: logger,
	}
}

func (r *Router) Handle(pattern string, h http.HandlerFunc) {
	r.mux.HandleFunc(pattern, h)
}

func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.mux.ServeHTTP(w, req)
}

// pathID extracts the numeric id from a subtree path like
// "<prefix>/123/issues" and returns the remaining segment ("issues").
func pathID(path, prefix string) (int64, string, bool) {
	rest := strings.TrimPrefix(path, prefix)
	rest = strings.Trim(rest, "/")
	if rest == "" {
		return 0, "", false
	}
	parts := strings.SplitN(rest, "/", 2)
	id, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil || id <= 0 {
		return 0, "", false
	}
	if len(parts) == 2 {
		return id, parts[1], true
	}
	return id, "", true
}

// RegisterIssueRoutes wires the /issues subtree.
func (r *Router) RegisterIssueRoutes(h *IssueHandler) {
	r.Handle(apiPrefix+"/issues", func(w http.ResponseWriter, req *http.Request) {
		if req.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		h.ListIssues(w, req)
	})

	r.Handle(apiPrefix+"/issues/", func(w http.ResponseWriter, req *http.Request) {
		if req.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		if strings.TrimSuffix(req.URL.Path, "/") == apiPrefix+"/issues/export" {
			h.ExportIssues(w, req)
			return
		}
		id, rest, ok := pathID(req.URL.Path, apiPrefix+"/issues/")
		if !ok {
			http.NotFound(w, req)
			return
		}
		switch rest {
		case "":
			h.GetIssue(w, req, id)
		case "citeddatapoints":
			h.CitedDataPoints(w, req, id)
		case "history":
			h.IssueHistory(w, req, id)
		default:
			http.NotFound(w, req)
		}
	})
}

// RegisterActionRoutes wires the /actions subtree and the action-type
// legend.
func (r *Router) RegisterActionRoutes(h *ActionHandler) {
	r.Handle(apiPrefix+"/actions", func(w http.ResponseWriter, req *http.Request) {
		switch req.Method {
		case http.MethodPost:
			h.CreateAction(w, req)
		case http.MethodGet:
			h.ListActions(w, req)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	})

	r.Handle(apiPrefix+"/actions/", func(w http.ResponseWriter, req *http.Request) {
		if req.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		id, rest, ok := pathID(req.URL.Path, apiPrefix+"/actions/")
		if !ok || rest != "" {
			http.NotFound(w, req)
			return
		}
		h.GetAction(w, req, id)
	})

	r.Handle(apiPrefix+"/actiontypes", func(w http.ResponseWriter, req *http.Request) {
		if req.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		h.ListActionTypes(w, req)
	})
}

// RegisterContextRoutes wires the /contexts subtree.
func (r *Router) RegisterContextRoutes(h *ContextHandler) {
	r.Handle(apiPrefix+"/contexts", func(w http.ResponseWriter, req *http.Request) {
		if req.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		h.FindContext(w, req)
	})

	r.Handle(apiPrefix+"/contexts/", func(w http.ResponseWriter, req *http.Request) {
		id, rest, ok := pathID(req.URL.Path, apiPrefix+"/contexts/")
		if !ok {
			http.NotFound(w, req)
			return
		}
		switch {
		case rest == "" && req.Method == http.MethodGet:
			h.GetContext(w, req, id)
		case rest == "issues" && req.Method == http.MethodGet:
			h.ContextIssues(w, req, id)
		case rest == "issues" && req.Method == http.MethodPost:
			h.RaiseIssue(w, req, id)
		case rest == "history" && req.Method == http.MethodGet:
			h.ContextHistory(w, req, id)
		case rest == "qcdone" && req.Method == http.MethodPost:
			h.MarkQcDone(w, req, id)
		case rest == "qcdonegrp" && req.Method == http.MethodPost:
			h.MarkGroupQcDone(w, req, id)
		case rest == "" || rest == "issues" || rest == "history" || rest == "qcdone" || rest == "qcdonegrp":
			w.WriteHeader(http.StatusMethodNotAllowed)
		default:
			http.NotFound(w, req)
		}
	})
}

// RegisterMetadataRoutes wires the selector endpoints.
func (r *Router) RegisterMetadataRoutes(h *MetadataHandler) {
	get := func(fn http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, req *http.Request) {
			if req.Method != http.MethodGet {
				w.WriteHeader(http.StatusMethodNotAllowed)
				return
			}
			fn(w, req)
		}
	}
	r.Handle(apiPrefix+"/pipelines", get(h.ListPipelines))
	r.Handle(apiPrefix+"/procedures", get(h.ListProcedures))
	r.Handle(apiPrefix+"/genestrains", get(h.ListGeneStrains))
}
