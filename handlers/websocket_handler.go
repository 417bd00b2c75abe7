package handlers

import (
	"log/slog"
	"net/http"

	"github.com/affendiariffin/TO-Bot/pairing"
	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// TODO: restrict to the frontend origin once it is fixed.
		return true
	},
}

type WebSocketHandler struct {
	hub    *pairing.Hub
	logger *slog.Logger
}

func NewWebSocketHandler(hub *pairing.Hub, logger *slog.Logger) *WebSocketHandler {
	return &WebSocketHandler{hub: hub, logger: logger}
}

// ServeWs subscribes a client to live updates of one event. Clients
// connect to /ws/events/{eventID}.
func (h *WebSocketHandler) ServeWs(w http.ResponseWriter, r *http.Request) {
	eventIDStr := chi.URLParam(r, "eventID")
	if eventIDStr == "" {
		http.Error(w, "missing eventID", http.StatusBadRequest)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("websocket upgrade failed",
			slog.String("event_id", eventIDStr), slog.Any("error", err))
		return
	}

	roomID := "event_" + eventIDStr
	client := &pairing.Client{
		Hub:  h.hub,
		Conn: conn,
		Send: make(chan []byte, 256),
		Room: roomID,
	}
	client.Hub.Register <- client

	go client.WritePump()
	go client.ReadPump()

	h.logger.Info("websocket client subscribed", slog.String("room", roomID))
}
