package api

import (
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"
	log "github.com/sirupsen/logrus"

	"github.com/ayusman/crease/internal/app"
	"github.com/ayusman/crease/internal/detector"
	"github.com/ayusman/crease/internal/technique"
)

// Analyzer is the part of the application the analyze endpoint needs.
type Analyzer interface {
	Batch() *app.BatchAnalyzer
	SaveSummary(fileName string, summary *technique.Summary) (string, error)
}

// AnalyzeHandler scores a pre-extracted pose sequence.
type AnalyzeHandler struct {
	app      Analyzer
	validate *validator.Validate
}

// NewAnalyzeHandler creates a new AnalyzeHandler.
func NewAnalyzeHandler(a Analyzer) *AnalyzeHandler {
	return &AnalyzeHandler{app: a, validate: validator.New()}
}

type analyzeRequest struct {
	Type     string       `json:"type" validate:"required,oneof=batting bowling fielding"`
	Hand     string       `json:"hand" validate:"omitempty,oneof=left right"`
	Samples  []app.Sample `json:"samples" validate:"required,min=1,dive"`
	Save     bool         `json:"save"`
	FileName string       `json:"fileName" validate:"max=255"`
}

type analyzeResponse struct {
	ID      string             `json:"id,omitempty"`
	Summary *technique.Summary `json:"summary"`
}

// ServeHTTP handles POST /api/analyze.
func (h *AnalyzeHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req analyzeRequest
	if err := decodeJSON(w, r, h.validate, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	opts := app.BatchOptions{
		Skill: technique.SkillType(req.Type),
		Hand:  technique.Hand(req.Hand),
	}
	summary, err := h.app.Batch().AnalyzeSequence(r.Context(), req.Samples, opts)
	switch {
	case errors.Is(err, app.ErrNonMonotonicTimestamps),
		errors.Is(err, detector.ErrInvalidLandmarkSet),
		errors.Is(err, technique.ErrUnknownSkill),
		errors.Is(err, technique.ErrUnknownHand):
		writeError(w, http.StatusBadRequest, err.Error())
		return
	case err != nil:
		log.WithError(err).Error("Sequence analysis failed")
		writeError(w, http.StatusInternalServerError, "Analysis failed")
		return
	}

	resp := analyzeResponse{Summary: summary}
	if req.Save {
		name := req.FileName
		if name == "" {
			name = "uploaded sequence"
		}
		resp.ID, err = h.app.SaveSummary(name, summary)
		if err != nil {
			log.WithError(err).Error("Failed to save analysis")
			writeError(w, http.StatusInternalServerError, "Failed to save analysis")
			return
		}
	}

	writeJSON(w, http.StatusOK, resp)
}
