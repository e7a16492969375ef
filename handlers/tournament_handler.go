package handlers

import (
	"log/slog"
	"net/http"

	"github.com/Dosada05/tournament-progression/services"
)

type TournamentHandler struct {
	errorResponder
	tournamentService services.TournamentService
}

func NewTournamentHandler(ts services.TournamentService, logger *slog.Logger) *TournamentHandler {
	return &TournamentHandler{
		errorResponder:    errorResponder{logger: logger},
		tournamentService: ts,
	}
}

// GetByIDHandler handles GET /tournaments/{tournamentID}
func (h *TournamentHandler) GetByIDHandler(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		h.badRequestResponse(w, r, err)
		return
	}

	report, err := h.tournamentService.GetReport(r.Context(), id)
	if err != nil {
		h.mapServiceErrorToHTTP(w, r, err)
		return
	}
	h.writeOrFail(w, r, http.StatusOK, report)
}
