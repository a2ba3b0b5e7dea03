// Package api provides HTTP handlers for recorded tracking sessions.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/ayusman/mathvision/internal/store"
)

const timeFormat = "2006-01-02T15:04:05Z07:00"

// SessionHandler handles HTTP requests for session resources.
type SessionHandler struct {
	store *store.Store
}

// NewSessionHandler creates a new SessionHandler with the given store.
func NewSessionHandler(s *store.Store) *SessionHandler {
	return &SessionHandler{store: s}
}

// ServeHTTP routes requests to the collection, item and frames endpoints.
// Expected paths: /api/sessions, /api/sessions/{id}, /api/sessions/{id}/frames
func (h *SessionHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/sessions")
	path = strings.Trim(path, "/")

	if path == "" {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		h.list(w, r)
		return
	}

	parts := strings.Split(path, "/")
	id := parts[0]

	switch {
	case len(parts) == 1:
		switch r.Method {
		case http.MethodGet:
			h.get(w, r, id)
		case http.MethodDelete:
			h.delete(w, r, id)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	case len(parts) == 2 && parts[1] == "frames":
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		h.frames(w, r, id)
	default:
		writeError(w, http.StatusNotFound, "Not found")
	}
}

// Response types

type sessionResponse struct {
	ID         string `json:"id"`
	Width      int    `json:"width"`
	Height     int    `json:"height"`
	FrameCount int    `json:"frame_count"`
	StartedAt  string `json:"started_at"`
	EndedAt    string `json:"ended_at,omitempty"`
}

type listSessionsResponse struct {
	Sessions []sessionResponse `json:"sessions"`
}

type landmarkResponse struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

type frameResponse struct {
	Index     int                `json:"index"`
	Detected  bool               `json:"detected"`
	Tip       *landmarkResponse  `json:"tip,omitempty"`
	Landmarks []landmarkResponse `json:"landmarks,omitempty"`
	CreatedAt string             `json:"created_at"`
}

type listFramesResponse struct {
	SessionID string          `json:"session_id"`
	Frames    []frameResponse `json:"frames"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func toSessionResponse(s *store.Session) sessionResponse {
	resp := sessionResponse{
		ID:         s.ID,
		Width:      s.Width,
		Height:     s.Height,
		FrameCount: s.FrameCount,
		StartedAt:  s.StartedAt.Format(timeFormat),
	}
	if s.EndedAt != nil {
		resp.EndedAt = s.EndedAt.Format(timeFormat)
	}
	return resp
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// list handles GET /api/sessions.
func (h *SessionHandler) list(w http.ResponseWriter, r *http.Request) {
	sessions, err := h.store.Sessions().List()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list sessions")
		return
	}

	response := listSessionsResponse{
		Sessions: make([]sessionResponse, 0, len(sessions)),
	}
	for _, s := range sessions {
		response.Sessions = append(response.Sessions, toSessionResponse(s))
	}

	writeJSON(w, http.StatusOK, response)
}

// get handles GET /api/sessions/{id}.
func (h *SessionHandler) get(w http.ResponseWriter, r *http.Request, id string) {
	session, err := h.store.Sessions().GetByID(id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Session not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to get session")
		return
	}

	writeJSON(w, http.StatusOK, toSessionResponse(session))
}

// delete handles DELETE /api/sessions/{id}.
func (h *SessionHandler) delete(w http.ResponseWriter, r *http.Request, id string) {
	if err := h.store.Sessions().Delete(id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Session not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to delete session")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// frames handles GET /api/sessions/{id}/frames. Landmarks are included
// when the query has landmarks=1.
func (h *SessionHandler) frames(w http.ResponseWriter, r *http.Request, id string) {
	if _, err := h.store.Sessions().GetByID(id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Session not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to get session")
		return
	}

	frames, err := h.store.Frames().ListBySession(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list frames")
		return
	}
	withLandmarks := r.URL.Query().Get("landmarks") == "1"

	response := listFramesResponse{
		SessionID: id,
		Frames:    make([]frameResponse, 0, len(frames)),
	}
	for _, f := range frames {
		fr := frameResponse{
			Index:     f.Index,
			Detected:  f.Detected,
			CreatedAt: f.CreatedAt.Format(timeFormat),
		}
		if f.Detected {
			fr.Tip = &landmarkResponse{X: f.TipX, Y: f.TipY}
		}
		if withLandmarks && f.Detected {
			landmarks, err := h.store.Frames().Landmarks(f.ID)
			if err != nil {
				writeError(w, http.StatusInternalServerError, "Failed to get landmarks")
				return
			}
			for _, l := range landmarks {
				fr.Landmarks = append(fr.Landmarks, landmarkResponse{X: l.X, Y: l.Y, Z: l.Z})
			}
		}
		response.Frames = append(response.Frames, fr)
	}

	writeJSON(w, http.StatusOK, response)
}
