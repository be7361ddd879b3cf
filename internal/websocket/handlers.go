package websocket

import (
	"net/http"
	"strings"

	"github.com/gorilla/websocket"
)

func newUpgrader(allowedOrigins []string) websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			// Non-browser clients send no origin
			if origin == "" {
				return true
			}
			for _, allowed := range allowedOrigins {
				if allowed == "*" || strings.EqualFold(origin, allowed) {
					return true
				}
			}
			return false
		},
	}
}

// ServeWs upgrades the request and attaches the connection to the plan's watchers
func (h *Hub) ServeWs(w http.ResponseWriter, r *http.Request, userID, planID uint) error {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return err
	}

	client := NewClient(h, conn, userID, planID)
	select {
	case h.register <- client:
	case <-h.ctx.Done():
		conn.Close()
		return h.ctx.Err()
	}

	client.queue(newMessage(MessageTypeConnect, planID))

	go client.writePump()
	go client.readPump()
	return nil
}
