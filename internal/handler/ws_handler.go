package handler

import (
	"log"
	"net/http"

	"github.com/google/uuid"
	ws "github.com/gorilla/websocket"

	"lexisync/internal/websocket"
)

// WebSocketHandler attaches UI surfaces to the push hub. The daemon binds
// to loopback, so connections are accepted without credentials.
type WebSocketHandler struct {
	manager  *websocket.Manager
	upgrader ws.Upgrader
}

func NewWebSocketHandler(manager *websocket.Manager) *WebSocketHandler {
	return &WebSocketHandler{
		manager: manager,
		upgrader: ws.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
	}
}

func (h *WebSocketHandler) HandleConnection(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[Hub] failed to upgrade connection: %v", err)
		return
	}

	client := websocket.NewClient(uuid.New().String(), conn, h.manager)
	h.manager.Register <- client

	go client.WritePump()
	go client.ReadPump()
}
