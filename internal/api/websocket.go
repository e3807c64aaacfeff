package api

import (
	"net/http"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// The API already serves permissive CORS; same policy here
		return true
	},
}

// handleWebSocket upgrades the connection and subscribes the client to
// insight updates, filtered by subject_id when given
func (r *Router) handleWebSocket(w http.ResponseWriter, req *http.Request) {
	conn, err := upgrader.Upgrade(w, req, nil)
	if err != nil {
		r.logger.Warn("websocket upgrade failed", "error", err.Error())
		return
	}

	client := r.hub.NewClient(conn, req.URL.Query().Get("subject_id"))
	r.hub.Register(client)

	go client.WritePump()
	go client.ReadPump()
}
