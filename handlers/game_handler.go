package handlers

import (
	"errors"
	"net/http"

	"github.com/affendiariffin/TO-Bot/middleware"
	"github.com/affendiariffin/TO-Bot/services"
)

type GameHandler struct {
	gameService services.GameService
}

func NewGameHandler(gameService services.GameService) *GameHandler {
	return &GameHandler{gameService: gameService}
}

func (h *GameHandler) Get(w http.ResponseWriter, r *http.Request) {
	gameID, err := idParam(r, "gameID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	game, err := h.gameService.GetGame(r.Context(), gameID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"game": game}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *GameHandler) ListByRound(w http.ResponseWriter, r *http.Request) {
	roundID, err := idParam(r, "roundID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	games, err := h.gameService.ListByRound(r.Context(), roundID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"games": games}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *GameHandler) Report(w http.ResponseWriter, r *http.Request) {
	gameID, err := idParam(r, "gameID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	userID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "authentication required")
		return
	}
	var input struct {
		P1VP int `json:"p1_vp"`
		P2VP int `json:"p2_vp"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	game, err := h.gameService.ReportResult(r.Context(), gameID, services.ReportScoresInput{
		ReporterID: userID,
		P1VP:       input.P1VP,
		P2VP:       input.P2VP,
	})
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"game": game}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *GameHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	gameID, err := idParam(r, "gameID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	userID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "authentication required")
		return
	}
	var input struct {
		P1VP *int `json:"p1_vp"`
		P2VP *int `json:"p2_vp"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	game, err := h.gameService.ConfirmResult(r.Context(), gameID, userID, input.P1VP, input.P2VP)
	if err != nil {
		// A dispute still updated the game; return it with the conflict.
		if errors.Is(err, services.ErrDisputed) && game != nil {
			if writeErr := writeJSON(w, http.StatusConflict, jsonResponse{
				"error": err.Error(),
				"game":  game,
			}, nil); writeErr != nil {
				serverErrorResponse(w, r, writeErr)
			}
			return
		}
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"game": game}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *GameHandler) Override(w http.ResponseWriter, r *http.Request) {
	gameID, err := idParam(r, "gameID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	organizerID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "authentication required")
		return
	}
	var input struct {
		P1VP   int    `json:"p1_vp"`
		P2VP   int    `json:"p2_vp"`
		Reason string `json:"reason"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	game, err := h.gameService.OverrideResult(r.Context(), gameID, services.OverrideInput{
		OrganizerID: organizerID,
		P1VP:        input.P1VP,
		P2VP:        input.P2VP,
		Reason:      input.Reason,
	})
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"game": game}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *GameHandler) ListOverrides(w http.ResponseWriter, r *http.Request) {
	gameID, err := idParam(r, "gameID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	overrides, err := h.gameService.ListOverrides(r.Context(), gameID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"overrides": overrides}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
