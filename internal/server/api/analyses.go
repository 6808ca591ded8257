package api

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/ayusman/crease/internal/store"
	"github.com/ayusman/crease/internal/technique"
)

// AnalysisHandler serves the saved analysis history.
type AnalysisHandler struct {
	store *store.Store
}

// NewAnalysisHandler creates a new AnalysisHandler with the given store.
func NewAnalysisHandler(s *store.Store) *AnalysisHandler {
	return &AnalysisHandler{store: s}
}

// ServeHTTP routes /api/analyses and /api/analyses/{id}.
func (h *AnalysisHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/analyses")
	id := strings.TrimPrefix(path, "/")

	if id == "" {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		h.list(w, r)
		return
	}

	switch r.Method {
	case http.MethodGet:
		h.get(w, id)
	case http.MethodDelete:
		h.delete(w, id)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

type listAnalysesResponse struct {
	Analyses []*store.Analysis `json:"analyses"`
	Total    int               `json:"total"`
}

// list handles GET /api/analyses?type=&limit=&offset=.
func (h *AnalysisHandler) list(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	opts := store.ListOptions{Type: q.Get("type")}
	if opts.Type != "" {
		if _, err := technique.ParseSkillType(opts.Type); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
	}
	var err error
	if opts.Limit, err = intParam(q.Get("limit")); err != nil {
		writeError(w, http.StatusBadRequest, "limit must be a non-negative integer")
		return
	}
	if opts.Offset, err = intParam(q.Get("offset")); err != nil {
		writeError(w, http.StatusBadRequest, "offset must be a non-negative integer")
		return
	}

	analyses, err := h.store.Analyses().List(opts)
	if err != nil {
		log.WithError(err).Error("Failed to list analyses")
		writeError(w, http.StatusInternalServerError, "Failed to list analyses")
		return
	}
	total, err := h.store.Analyses().Count()
	if err != nil {
		log.WithError(err).Error("Failed to count analyses")
		writeError(w, http.StatusInternalServerError, "Failed to list analyses")
		return
	}

	writeJSON(w, http.StatusOK, listAnalysesResponse{Analyses: analyses, Total: total})
}

func (h *AnalysisHandler) get(w http.ResponseWriter, id string) {
	a, err := h.store.Analyses().GetByID(id)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "Analysis not found")
		return
	}
	if err != nil {
		log.WithError(err).WithField("id", id).Error("Failed to get analysis")
		writeError(w, http.StatusInternalServerError, "Failed to get analysis")
		return
	}
	writeJSON(w, http.StatusOK, a)
}

func (h *AnalysisHandler) delete(w http.ResponseWriter, id string) {
	err := h.store.Analyses().Delete(id)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "Analysis not found")
		return
	}
	if err != nil {
		log.WithError(err).WithField("id", id).Error("Failed to delete analysis")
		writeError(w, http.StatusInternalServerError, "Failed to delete analysis")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func intParam(s string) (int, error) {
	if s == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0, errors.New("invalid")
	}
	return n, nil
}
