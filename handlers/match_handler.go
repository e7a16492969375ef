package handlers

import (
	"log/slog"
	"net/http"

	"github.com/Dosada05/tournament-progression/models"
	"github.com/Dosada05/tournament-progression/services"
	"github.com/go-chi/chi/v5"
)

type MatchHandler struct {
	errorResponder
	matchService       services.MatchService
	stageService       services.StageService
	progressionService services.ProgressionService
}

func NewMatchHandler(
	ms services.MatchService,
	ss services.StageService,
	ps services.ProgressionService,
	logger *slog.Logger,
) *MatchHandler {
	return &MatchHandler{
		errorResponder:     errorResponder{logger: logger},
		matchService:       ms,
		stageService:       ss,
		progressionService: ps,
	}
}

// GetHandler handles GET /matches/{matchID}
func (h *MatchHandler) GetHandler(w http.ResponseWriter, r *http.Request) {
	matchID, err := getIDFromURL(r, "matchID")
	if err != nil {
		h.badRequestResponse(w, r, err)
		return
	}

	match, err := h.matchService.GetMatch(r.Context(), matchID)
	if err != nil {
		h.mapServiceErrorToHTTP(w, r, err)
		return
	}
	h.writeOrFail(w, r, http.StatusOK, jsonResponse{"match": match})
}

// FinishHandler handles POST /matches/{matchID}/finish
func (h *MatchHandler) FinishHandler(w http.ResponseWriter, r *http.Request) {
	matchID, err := getIDFromURL(r, "matchID")
	if err != nil {
		h.badRequestResponse(w, r, err)
		return
	}

	var input services.FinishMatchInput
	if err := readJSON(w, r, &input); err != nil {
		h.badRequestResponse(w, r, err)
		return
	}

	result, err := h.matchService.FinishMatch(r.Context(), matchID, input)
	if err != nil {
		h.mapServiceErrorToHTTP(w, r, err)
		return
	}
	h.writeOrFail(w, r, http.StatusOK, result)
}

// ProgressHandler handles POST /matches/{matchID}/progress. It re-runs the progression
// pipeline for an already finished match.
func (h *MatchHandler) ProgressHandler(w http.ResponseWriter, r *http.Request) {
	matchID, err := getIDFromURL(r, "matchID")
	if err != nil {
		h.badRequestResponse(w, r, err)
		return
	}

	result, err := h.progressionService.ProgressAfterMatch(r.Context(), matchID)
	if err != nil {
		h.mapServiceErrorToHTTP(w, r, err)
		return
	}
	h.writeOrFail(w, r, http.StatusOK, result)
}

// LinkSourceHandler handles PUT /matches/{matchID}/sources/{side}
func (h *MatchHandler) LinkSourceHandler(w http.ResponseWriter, r *http.Request) {
	matchID, err := getIDFromURL(r, "matchID")
	if err != nil {
		h.badRequestResponse(w, r, err)
		return
	}
	side := models.Side(chi.URLParam(r, "side"))

	var input services.LinkSourceInput
	if err := readJSON(w, r, &input); err != nil {
		h.badRequestResponse(w, r, err)
		return
	}

	match, err := h.stageService.LinkSource(r.Context(), matchID, side, input)
	if err != nil {
		h.mapServiceErrorToHTTP(w, r, err)
		return
	}
	h.writeOrFail(w, r, http.StatusOK, jsonResponse{"match": match})
}
