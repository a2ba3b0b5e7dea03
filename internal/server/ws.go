package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/ayusman/mathvision/internal/logger"
)

const writeWait = time.Second

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow local connections
	},
}

// LandmarksHandler pushes the landmarks of every published frame over a
// WebSocket.
type LandmarksHandler struct {
	hub *Hub
	log *zap.Logger
}

// NewLandmarksHandler creates a new LandmarksHandler reading from hub.
func NewLandmarksHandler(hub *Hub, log *zap.Logger) *LandmarksHandler {
	return &LandmarksHandler{hub: hub, log: logger.Or(log)}
}

// ServeHTTP handles WebSocket upgrade requests.
func (h *LandmarksHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	// Reading is required to process close frames
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	var seq uint64
	for {
		next, err := h.hub.Wait(ctx, seq)
		if err != nil {
			if errors.Is(err, ErrHubClosed) {
				conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, "capture stopped"),
					time.Now().Add(writeWait))
			}
			return
		}
		seq = next

		conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteMessage(websocket.TextMessage, h.hub.Message()); err != nil {
			h.log.Debug("websocket client gone", zap.Error(err))
			return
		}
	}
}
