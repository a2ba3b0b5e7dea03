package store

import (
	"errors"
	"testing"

	"github.com/google/uuid"
)

func TestSessionRepository_Create(t *testing.T) {
	s := newTestStore(t)
	repo := s.Sessions()

	sess := &Session{Width: 1280, Height: 720}
	if err := repo.Create(sess); err != nil {
		t.Fatalf("failed to create session: %v", err)
	}

	if _, err := uuid.Parse(sess.ID); err != nil {
		t.Errorf("ID %q should be a UUID: %v", sess.ID, err)
	}
	if sess.StartedAt.IsZero() {
		t.Error("StartedAt should be set after create")
	}

	got, err := repo.GetByID(sess.ID)
	if err != nil {
		t.Fatalf("failed to get session: %v", err)
	}
	if got.Width != 1280 || got.Height != 720 {
		t.Errorf("size = %dx%d, want 1280x720", got.Width, got.Height)
	}
	if got.Ended() {
		t.Error("new session should not be ended")
	}
}

func TestSessionRepository_Create_KeepsID(t *testing.T) {
	s := newTestStore(t)

	sess := &Session{ID: "fixed-id", Width: 10, Height: 10}
	if err := s.Sessions().Create(sess); err != nil {
		t.Fatalf("failed to create session: %v", err)
	}
	if sess.ID != "fixed-id" {
		t.Errorf("ID = %q, want fixed-id", sess.ID)
	}

	// Duplicate IDs are rejected
	if err := s.Sessions().Create(&Session{ID: "fixed-id"}); err == nil {
		t.Error("expected error for duplicate session ID")
	}
}

func TestSessionRepository_End(t *testing.T) {
	s := newTestStore(t)
	repo := s.Sessions()

	sess := &Session{Width: 640, Height: 480}
	if err := repo.Create(sess); err != nil {
		t.Fatalf("failed to create session: %v", err)
	}

	if err := repo.End(sess.ID, 42); err != nil {
		t.Fatalf("failed to end session: %v", err)
	}

	got, err := repo.GetByID(sess.ID)
	if err != nil {
		t.Fatalf("failed to get session: %v", err)
	}
	if !got.Ended() {
		t.Fatal("session should be ended")
	}
	if got.FrameCount != 42 {
		t.Errorf("FrameCount = %d, want 42", got.FrameCount)
	}
	if got.EndedAt.Before(got.StartedAt) {
		t.Errorf("EndedAt %v before StartedAt %v", got.EndedAt, got.StartedAt)
	}
}

func TestSessionRepository_NotFound(t *testing.T) {
	s := newTestStore(t)
	repo := s.Sessions()

	tests := []struct {
		name string
		call func() error
	}{
		{"GetByID", func() error { _, err := repo.GetByID("missing"); return err }},
		{"End", func() error { return repo.End("missing", 1) }},
		{"Delete", func() error { return repo.Delete("missing") }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.call(); !errors.Is(err, ErrNotFound) {
				t.Errorf("expected ErrNotFound, got %v", err)
			}
		})
	}
}

func TestSessionRepository_List(t *testing.T) {
	s := newTestStore(t)
	repo := s.Sessions()

	sessions, err := repo.List()
	if err != nil {
		t.Fatalf("failed to list sessions: %v", err)
	}
	if len(sessions) != 0 {
		t.Errorf("expected no sessions, got %d", len(sessions))
	}

	ids := map[string]bool{}
	for i := 0; i < 3; i++ {
		sess := &Session{Width: 100, Height: 100}
		if err := repo.Create(sess); err != nil {
			t.Fatalf("failed to create session %d: %v", i, err)
		}
		ids[sess.ID] = true
	}

	sessions, err = repo.List()
	if err != nil {
		t.Fatalf("failed to list sessions: %v", err)
	}
	if len(sessions) != 3 {
		t.Fatalf("expected 3 sessions, got %d", len(sessions))
	}
	for _, sess := range sessions {
		if !ids[sess.ID] {
			t.Errorf("unexpected session %q", sess.ID)
		}
	}
}

func TestSessionRepository_Delete_CascadesFrames(t *testing.T) {
	s := newTestStore(t)

	sess := &Session{Width: 100, Height: 100}
	if err := s.Sessions().Create(sess); err != nil {
		t.Fatalf("failed to create session: %v", err)
	}
	f := &Frame{SessionID: sess.ID, Index: 0, Detected: true, TipX: 1, TipY: 2}
	if err := s.Frames().Append(f, []Landmark{{Index: 0, X: 1, Y: 2}}); err != nil {
		t.Fatalf("failed to append frame: %v", err)
	}

	if err := s.Sessions().Delete(sess.ID); err != nil {
		t.Fatalf("failed to delete session: %v", err)
	}

	frames, err := s.Frames().ListBySession(sess.ID)
	if err != nil {
		t.Fatalf("failed to list frames: %v", err)
	}
	if len(frames) != 0 {
		t.Errorf("frames should be deleted with their session, got %d", len(frames))
	}

	landmarks, err := s.Frames().Landmarks(f.ID)
	if err != nil {
		t.Fatalf("failed to list landmarks: %v", err)
	}
	if len(landmarks) != 0 {
		t.Errorf("landmarks should be deleted with their frame, got %d", len(landmarks))
	}
}
