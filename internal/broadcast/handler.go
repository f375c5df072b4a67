package broadcast

import (
	"net/http"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Handler returns an http.HandlerFunc for "/ws/opportunities" that upgrades
// the request and registers the resulting connection with the Hub.
func (h *Hub) Handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			h.logger.Debug("broadcast-upgrade-failed", zap.Error(err))
			return
		}

		c := &client{conn: conn, send: make(chan []byte, h.cfg.MessageBufferSize)}
		h.register <- c

		go h.writePump(c)
		go h.readPump(c)
	}
}
