package handlers

import (
	"net/http"

	"github.com/affendiariffin/TO-Bot/middleware"
	"github.com/affendiariffin/TO-Bot/models"
	"github.com/affendiariffin/TO-Bot/services"
)

const maxListUploadBytes = 10 << 20 // 10MB

type EventHandler struct {
	eventService services.EventService
}

func NewEventHandler(eventService services.EventService) *EventHandler {
	return &EventHandler{eventService: eventService}
}

func (h *EventHandler) Create(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Name       string `json:"name"`
		Format     string `json:"format"`
		TeamSize   int    `json:"team_size"`
		PointsWin  *int   `json:"points_win"`
		PointsDraw *int   `json:"points_draw"`
		PointsLoss *int   `json:"points_loss"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	organizerID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "authentication required")
		return
	}

	event, err := h.eventService.CreateEvent(r.Context(), services.CreateEventInput{
		Name:        input.Name,
		Format:      models.EventFormat(input.Format),
		OrganizerID: organizerID,
		TeamSize:    input.TeamSize,
		PointsWin:   input.PointsWin,
		PointsDraw:  input.PointsDraw,
		PointsLoss:  input.PointsLoss,
	})
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"event": event}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *EventHandler) Get(w http.ResponseWriter, r *http.Request) {
	eventID, err := idParam(r, "eventID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	event, err := h.eventService.GetEvent(r.Context(), eventID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"event": event}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *EventHandler) List(w http.ResponseWriter, r *http.Request) {
	var phase *models.EventPhase
	if raw := r.URL.Query().Get("phase"); raw != "" {
		p := models.EventPhase(raw)
		phase = &p
	}

	events, err := h.eventService.ListEvents(r.Context(), phase)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"events": events}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *EventHandler) AdvancePhase(w http.ResponseWriter, r *http.Request) {
	eventID, err := idParam(r, "eventID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	event, err := h.eventService.AdvancePhase(r.Context(), eventID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"event": event}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *EventHandler) Register(w http.ResponseWriter, r *http.Request) {
	eventID, err := idParam(r, "eventID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	var input struct {
		ParticipantID int `json:"participant_id"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	reg, err := h.eventService.Register(r.Context(), eventID, input.ParticipantID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"registration": reg}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *EventHandler) UploadList(w http.ResponseWriter, r *http.Request) {
	registrationID, err := idParam(r, "registrationID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if err := r.ParseMultipartForm(maxListUploadBytes); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	file, header, err := r.FormFile("list")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	reg, err := h.eventService.UploadList(r.Context(), registrationID, header.Filename, contentType, file)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"registration": reg}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *EventHandler) ApproveList(w http.ResponseWriter, r *http.Request) {
	registrationID, err := idParam(r, "registrationID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	var input struct {
		Approved bool `json:"approved"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	reg, err := h.eventService.ApproveList(r.Context(), registrationID, input.Approved)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"registration": reg}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *EventHandler) DropParticipant(w http.ResponseWriter, r *http.Request) {
	eventID, err := idParam(r, "eventID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	participantID, err := idParam(r, "participantID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	reg, err := h.eventService.DropParticipant(r.Context(), eventID, participantID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"registration": reg}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
