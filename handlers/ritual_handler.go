package handlers

import (
	"net/http"

	"github.com/affendiariffin/TO-Bot/middleware"
	"github.com/affendiariffin/TO-Bot/services"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

type RitualHandler struct {
	ritualService services.RitualService
}

func NewRitualHandler(ritualService services.RitualService) *RitualHandler {
	return &RitualHandler{ritualService: ritualService}
}

func (h *RitualHandler) OpenSeatRoll(w http.ResponseWriter, r *http.Request) {
	eventID, err := idParam(r, "eventID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	var input struct {
		RoundNumber int   `json:"round_number"`
		Contenders  []int `json:"contenders"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	session, err := h.ritualService.OpenSeatRoll(r.Context(), eventID, input.RoundNumber, input.Contenders)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"session": session}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *RitualHandler) Get(w http.ResponseWriter, r *http.Request) {
	sessionID, err := sessionIDParam(r)
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	session, err := h.ritualService.GetSession(r.Context(), sessionID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"session": session}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *RitualHandler) Roll(w http.ResponseWriter, r *http.Request) {
	sessionID, err := sessionIDParam(r)
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	userID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "authentication required")
		return
	}

	session, err := h.ritualService.SubmitRoll(r.Context(), sessionID, userID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"session": session}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func sessionIDParam(r *http.Request) (uuid.UUID, error) {
	return uuid.Parse(chi.URLParam(r, "sessionID"))
}
