package handlers

import (
	"log/slog"
	"net/http"

	"github.com/Dosada05/tournament-progression/services"
)

type StageHandler struct {
	errorResponder
	stageService   services.StageService
	fixtureService services.FixtureService
}

func NewStageHandler(ss services.StageService, fs services.FixtureService, logger *slog.Logger) *StageHandler {
	return &StageHandler{
		errorResponder: errorResponder{logger: logger},
		stageService:   ss,
		fixtureService: fs,
	}
}

// GetHandler handles GET /stages/{stageID}
func (h *StageHandler) GetHandler(w http.ResponseWriter, r *http.Request) {
	stageID, err := getIDFromURL(r, "stageID")
	if err != nil {
		h.badRequestResponse(w, r, err)
		return
	}
	stage, err := h.stageService.GetStage(r.Context(), stageID)
	if err != nil {
		h.mapServiceErrorToHTTP(w, r, err)
		return
	}
	h.writeOrFail(w, r, http.StatusOK, jsonResponse{"stage": stage})
}

// StandingsHandler handles GET /stages/{stageID}/standings
func (h *StageHandler) StandingsHandler(w http.ResponseWriter, r *http.Request) {
	stageID, err := getIDFromURL(r, "stageID")
	if err != nil {
		h.badRequestResponse(w, r, err)
		return
	}
	standings, err := h.stageService.ListStandings(r.Context(), stageID)
	if err != nil {
		h.mapServiceErrorToHTTP(w, r, err)
		return
	}
	h.writeOrFail(w, r, http.StatusOK, jsonResponse{"standings": standings})
}

// SlotsHandler handles GET /stages/{stageID}/slots
func (h *StageHandler) SlotsHandler(w http.ResponseWriter, r *http.Request) {
	stageID, err := getIDFromURL(r, "stageID")
	if err != nil {
		h.badRequestResponse(w, r, err)
		return
	}
	slots, err := h.stageService.ListSlots(r.Context(), stageID)
	if err != nil {
		h.mapServiceErrorToHTTP(w, r, err)
		return
	}
	h.writeOrFail(w, r, http.StatusOK, jsonResponse{"slots": slots})
}

// IntakeMappingsHandler handles GET /stages/{stageID}/intake-mappings
func (h *StageHandler) IntakeMappingsHandler(w http.ResponseWriter, r *http.Request) {
	stageID, err := getIDFromURL(r, "stageID")
	if err != nil {
		h.badRequestResponse(w, r, err)
		return
	}
	mappings, err := h.stageService.ListIntakeMappings(r.Context(), stageID)
	if err != nil {
		h.mapServiceErrorToHTTP(w, r, err)
		return
	}
	h.writeOrFail(w, r, http.StatusOK, jsonResponse{"intake_mappings": mappings})
}

// ValidateHandler handles GET /stages/{stageID}/validate
func (h *StageHandler) ValidateHandler(w http.ResponseWriter, r *http.Request) {
	stageID, err := getIDFromURL(r, "stageID")
	if err != nil {
		h.badRequestResponse(w, r, err)
		return
	}
	validation, err := h.stageService.ValidateKnockoutStage(r.Context(), stageID)
	if err != nil {
		h.mapServiceErrorToHTTP(w, r, err)
		return
	}
	h.writeOrFail(w, r, http.StatusOK, validation)
}

// ScheduleGroupHandler handles POST /stages/{stageID}/groups/{groupID}/fixtures
func (h *StageHandler) ScheduleGroupHandler(w http.ResponseWriter, r *http.Request) {
	stageID, err := getIDFromURL(r, "stageID")
	if err != nil {
		h.badRequestResponse(w, r, err)
		return
	}
	groupID, err := getIDFromURL(r, "groupID")
	if err != nil {
		h.badRequestResponse(w, r, err)
		return
	}
	h.schedule(w, r, stageID, groupID)
}

// ScheduleLeagueHandler handles POST /stages/{stageID}/fixtures
func (h *StageHandler) ScheduleLeagueHandler(w http.ResponseWriter, r *http.Request) {
	stageID, err := getIDFromURL(r, "stageID")
	if err != nil {
		h.badRequestResponse(w, r, err)
		return
	}
	h.schedule(w, r, stageID, 0)
}

func (h *StageHandler) schedule(w http.ResponseWriter, r *http.Request, stageID, groupID int) {
	var input services.ScheduleGroupInput
	if err := readJSON(w, r, &input); err != nil {
		h.badRequestResponse(w, r, err)
		return
	}
	matches, err := h.fixtureService.ScheduleGroup(r.Context(), stageID, groupID, input)
	if err != nil {
		h.mapServiceErrorToHTTP(w, r, err)
		return
	}
	h.writeOrFail(w, r, http.StatusCreated, jsonResponse{"matches": matches})
}
