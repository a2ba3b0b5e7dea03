package app

import (
	"sync"

	"go.uber.org/zap"
	"gocv.io/x/gocv"

	"github.com/ayusman/mathvision/internal/detector"
	"github.com/ayusman/mathvision/internal/logger"
	"github.com/ayusman/mathvision/internal/store"
	"github.com/ayusman/mathvision/internal/tracker"
)

// Recorder is an Observer that writes every frame to a store session. The
// session is created on the first frame and ended on Close. Write failures
// are logged and never stop the loop.
type Recorder struct {
	store *store.Store
	log   *zap.Logger

	mu      sync.Mutex
	session *store.Session
	frames  int
	failed  bool
}

// NewRecorder creates a Recorder writing to s.
func NewRecorder(s *store.Store, log *zap.Logger) *Recorder {
	return &Recorder{
		store: s,
		log:   logger.Or(log),
	}
}

// Observe records one frame.
func (r *Recorder) Observe(index int, frame *gocv.Mat, lm *tracker.Landmarks) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.failed {
		return
	}

	if r.session == nil {
		sess := &store.Session{Width: frame.Cols(), Height: frame.Rows()}
		if err := r.store.Sessions().Create(sess); err != nil {
			r.log.Error("failed to create session, recording disabled", zap.Error(err))
			r.failed = true
			return
		}
		r.session = sess
		r.log.Info("recording session",
			zap.String("session", sess.ID),
			zap.String("path", r.store.Path()),
		)
	}

	f := &store.Frame{
		SessionID: r.session.ID,
		Index:     index,
		Detected:  lm != nil,
	}
	var points []store.Landmark
	if lm != nil {
		tip := lm[detector.IndexTip]
		f.TipX, f.TipY = tip.X, tip.Y
		points = trackerLandmarksToStore(lm)
	}

	if err := r.store.Frames().Append(f, points); err != nil {
		r.log.Warn("failed to record frame", zap.Int("frame", index), zap.Error(err))
		return
	}
	r.frames++
}

// SessionID returns the current session ID, or "" before the first frame.
func (r *Recorder) SessionID() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.session == nil {
		return ""
	}
	return r.session.ID
}

// Close ends the session. It does not close the store.
func (r *Recorder) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.session == nil {
		return nil
	}
	sess := r.session
	r.session = nil
	r.failed = true

	if err := r.store.Sessions().End(sess.ID, r.frames); err != nil {
		return err
	}
	r.log.Info("recording finished", zap.String("session", sess.ID), zap.Int("frames", r.frames))
	return nil
}

// trackerLandmarksToStore converts pixel-space landmarks to store rows.
func trackerLandmarksToStore(lm *tracker.Landmarks) []store.Landmark {
	points := make([]store.Landmark, len(lm))
	for i, p := range lm {
		points[i] = store.Landmark{Index: i, X: p.X, Y: p.Y, Z: p.Z}
	}
	return points
}
