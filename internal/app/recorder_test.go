package app

import (
	"context"
	"path/filepath"
	"testing"

	"go.uber.org/zap/zaptest"

	"github.com/ayusman/mathvision/internal/detector"
	"github.com/ayusman/mathvision/internal/store"
)

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.New(filepath.Join(t.TempDir(), "session.db"))
	if err != nil {
		t.Fatalf("store.New() error = %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestRecorder_RecordsSession(t *testing.T) {
	s := newTestStore(t)
	log := zaptest.NewLogger(t)

	h := newHarness(t, 1, true, -1, -1, 'q')
	hand := detector.Uniform(detector.Point3D{X: 0.5, Y: 0.5, Z: 0.1})
	h.detector.SetHands([]detector.HandLandmarks{hand})

	rec := NewRecorder(s, log)
	a := h.app(log, false, rec)

	if err := a.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	id := rec.SessionID()
	if id != "" {
		t.Errorf("SessionID() after Close = %q, want empty", id)
	}

	sessions, err := s.Sessions().List()
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(sessions) != 1 {
		t.Fatalf("expected 1 session, got %d", len(sessions))
	}
	sess := sessions[0]
	if !sess.Ended() || sess.FrameCount != 3 {
		t.Errorf("session ended=%v frames=%d, want ended with 3 frames", sess.Ended(), sess.FrameCount)
	}
	if sess.Width != width || sess.Height != height {
		t.Errorf("session size = %dx%d, want %dx%d", sess.Width, sess.Height, width, height)
	}

	frames, err := s.Frames().ListBySession(sess.ID)
	if err != nil {
		t.Fatalf("ListBySession() error = %v", err)
	}
	if len(frames) != 3 {
		t.Fatalf("expected 3 frames, got %d", len(frames))
	}
	for i, f := range frames {
		if f.Index != i || !f.Detected || f.TipX != 80 || f.TipY != 60 {
			t.Errorf("frame %d = %+v", i, f)
		}
	}

	landmarks, err := s.Frames().Landmarks(frames[0].ID)
	if err != nil {
		t.Fatalf("Landmarks() error = %v", err)
	}
	if len(landmarks) != detector.NumLandmarks {
		t.Fatalf("expected %d landmarks, got %d", detector.NumLandmarks, len(landmarks))
	}
	want := store.Landmark{Index: detector.IndexTip, X: 80, Y: 60, Z: 16}
	if landmarks[detector.IndexTip] != want {
		t.Errorf("index tip = %+v, want %+v", landmarks[detector.IndexTip], want)
	}
}

func TestRecorder_NoHand(t *testing.T) {
	s := newTestStore(t)
	log := zaptest.NewLogger(t)

	h := newHarness(t, 1, true, 'q')
	rec := NewRecorder(s, log)
	a := h.app(log, false, rec)

	if err := a.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	sessions, _ := s.Sessions().List()
	if len(sessions) != 1 {
		t.Fatalf("expected 1 session, got %d", len(sessions))
	}
	frames, _ := s.Frames().ListBySession(sessions[0].ID)
	if len(frames) != 1 || frames[0].Detected {
		t.Fatalf("expected one frame without a hand, got %+v", frames)
	}
	landmarks, _ := s.Frames().Landmarks(frames[0].ID)
	if len(landmarks) != 0 {
		t.Errorf("expected no landmarks, got %d", len(landmarks))
	}
}

func TestRecorder_CloseWithoutFrames(t *testing.T) {
	s := newTestStore(t)
	rec := NewRecorder(s, zaptest.NewLogger(t))

	if err := rec.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
	sessions, _ := s.Sessions().List()
	if len(sessions) != 0 {
		t.Errorf("expected no sessions, got %d", len(sessions))
	}
}

func TestRecorder_StoreClosed(t *testing.T) {
	s, err := store.New(filepath.Join(t.TempDir(), "session.db"))
	if err != nil {
		t.Fatalf("store.New() error = %v", err)
	}
	s.Close()

	h := newHarness(t, 1, true, -1, 'q')
	log := zaptest.NewLogger(t)
	rec := NewRecorder(s, log)
	a := h.app(log, false, rec)

	// Recording failures never stop the loop
	if err := a.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if a.Frames() != 2 {
		t.Errorf("Frames() = %d, want 2", a.Frames())
	}
}
