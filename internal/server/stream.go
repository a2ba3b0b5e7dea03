package server

import (
	"fmt"
	"net/http"
)

// StreamHandler serves the displayed frames as MJPEG.
type StreamHandler struct {
	hub *Hub
}

// NewStreamHandler creates a new StreamHandler reading from hub.
func NewStreamHandler(hub *Hub) *StreamHandler {
	return &StreamHandler{hub: hub}
}

// ServeHTTP streams MJPEG frames to connected clients until the client goes
// away or the hub is closed.
func (h *StreamHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	release := h.hub.addStreamer()
	defer release()

	w.Header().Set("Content-Type", "multipart/x-mixed-replace; boundary=frame")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}

	var seq uint64
	for {
		next, err := h.hub.Wait(r.Context(), seq)
		if err != nil {
			return
		}
		seq = next

		buf := h.hub.JPEG()
		if buf == nil {
			continue
		}

		fmt.Fprintf(w, "--frame\r\n")
		fmt.Fprintf(w, "Content-Type: image/jpeg\r\n")
		fmt.Fprintf(w, "Content-Length: %d\r\n\r\n", len(buf))
		if _, err := w.Write(buf); err != nil {
			return
		}
		fmt.Fprintf(w, "\r\n")

		if f, ok := w.(http.Flusher); ok {
			f.Flush()
		}
	}
}
