package api

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	log "github.com/sirupsen/logrus"

	"github.com/ayusman/crease/internal/app"
	"github.com/ayusman/crease/internal/technique"
)

// LiveController is the part of the application the live endpoints drive.
type LiveController interface {
	Start(ctx context.Context) error
	Stop()
	Live() *app.LiveSession
	SetBowlingHand(hand technique.Hand) error
	SetSkill(skill technique.SkillType) error
}

// LiveHandler exposes camera control, capture windows and live settings.
type LiveHandler struct {
	app      LiveController
	validate *validator.Validate
}

// NewLiveHandler creates a new LiveHandler.
func NewLiveHandler(c LiveController) *LiveHandler {
	return &LiveHandler{app: c, validate: validator.New()}
}

type handRequest struct {
	Hand string `json:"hand" validate:"required,oneof=left right auto"`
}

type skillRequest struct {
	Skill string `json:"skill" validate:"required,oneof=batting bowling fielding"`
}

// ServeHTTP routes /api/live/{action}.
func (h *LiveHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	action := strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/live"), "/")

	type route struct {
		method string
		fn     func(http.ResponseWriter, *http.Request)
	}
	routes := map[string][]route{
		"status":  {{http.MethodGet, h.status}},
		"start":   {{http.MethodPost, h.start}},
		"stop":    {{http.MethodPost, h.stop}},
		"capture": {{http.MethodPost, h.arm}, {http.MethodDelete, h.cancel}},
		"hand":    {{http.MethodPut, h.hand}},
		"skill":   {{http.MethodPut, h.skill}},
		"summary": {{http.MethodGet, h.summary}},
	}

	candidates, ok := routes[action]
	if !ok {
		http.NotFound(w, r)
		return
	}
	for _, rt := range candidates {
		if rt.method == r.Method {
			rt.fn(w, r)
			return
		}
	}
	http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
}

func (h *LiveHandler) status(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.app.Live().Status())
}

// start opens the camera. The session outlives the request, so it gets a
// context that is not cancelled when the response is written.
func (h *LiveHandler) start(w http.ResponseWriter, r *http.Request) {
	if err := h.app.Start(context.WithoutCancel(r.Context())); err != nil {
		log.WithError(err).Error("Failed to start live session")
		writeError(w, http.StatusInternalServerError, "Failed to start camera: "+err.Error())
		return
	}
	writeJSON(w, http.StatusOK, h.app.Live().Status())
}

func (h *LiveHandler) stop(w http.ResponseWriter, _ *http.Request) {
	h.app.Stop()
	writeJSON(w, http.StatusOK, h.app.Live().Status())
}

func (h *LiveHandler) arm(w http.ResponseWriter, _ *http.Request) {
	err := h.app.Live().ArmCapture()
	if errors.Is(err, app.ErrCaptureInProgress) || errors.Is(err, app.ErrSessionNotRunning) {
		writeError(w, http.StatusConflict, err.Error())
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusAccepted, h.app.Live().Status())
}

func (h *LiveHandler) cancel(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]bool{"cancelled": h.app.Live().CancelCapture()})
}

func (h *LiveHandler) hand(w http.ResponseWriter, r *http.Request) {
	var req handRequest
	if err := decodeJSON(w, r, h.validate, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	hand := technique.Hand(req.Hand)
	if req.Hand == "auto" {
		hand = ""
	}
	if err := h.app.SetBowlingHand(hand); err != nil {
		log.WithError(err).Error("Failed to set bowling hand")
		writeError(w, http.StatusInternalServerError, "Failed to set bowling hand")
		return
	}
	writeJSON(w, http.StatusOK, h.app.Live().Status())
}

func (h *LiveHandler) skill(w http.ResponseWriter, r *http.Request) {
	var req skillRequest
	if err := decodeJSON(w, r, h.validate, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	err := h.app.SetSkill(technique.SkillType(req.Skill))
	if errors.Is(err, app.ErrCaptureInProgress) {
		writeError(w, http.StatusConflict, err.Error())
		return
	}
	if err != nil {
		log.WithError(err).Error("Failed to set skill")
		writeError(w, http.StatusInternalServerError, "Failed to set skill")
		return
	}
	writeJSON(w, http.StatusOK, h.app.Live().Status())
}

func (h *LiveHandler) summary(w http.ResponseWriter, _ *http.Request) {
	s := h.app.Live().LastSummary()
	if s == nil {
		writeError(w, http.StatusNotFound, "No capture has finished yet")
		return
	}
	writeJSON(w, http.StatusOK, s)
}
