package server

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
	"gocv.io/x/gocv"

	"github.com/ayusman/mathvision/internal/logger"
	"github.com/ayusman/mathvision/internal/tracker"
)

// ErrHubClosed is returned by Wait once the hub is closed.
var ErrHubClosed = errors.New("hub closed")

// LandmarksMessage is pushed to landmark subscribers for every frame.
type LandmarksMessage struct {
	Frame     int                `json:"frame"`
	Landmarks *tracker.Landmarks `json:"landmarks"`
	Fingers   *tracker.Fingers   `json:"fingers"`
	Timestamp int64              `json:"timestamp"`
}

// Hub keeps the most recent frame and landmarks and wakes subscribers when
// a new frame is published. It is fed by the capture loop through Observe.
type Hub struct {
	log *zap.Logger

	mu        sync.RWMutex
	seq       uint64
	jpeg      []byte
	message   []byte
	frames    int64
	streamers int
	changed   chan struct{}
	closed    bool
}

// NewHub creates an empty Hub.
func NewHub(log *zap.Logger) *Hub {
	return &Hub{
		log:     logger.Or(log),
		changed: make(chan struct{}),
	}
}

// Observe publishes a displayed frame. The frame is JPEG encoded only while
// a stream client is connected.
func (h *Hub) Observe(index int, frame *gocv.Mat, lm *tracker.Landmarks) {
	msg, err := json.Marshal(LandmarksMessage{
		Frame:     index,
		Landmarks: lm,
		Fingers:   tracker.FingerCoordinates(lm),
		Timestamp: time.Now().UnixMilli(),
	})
	if err != nil {
		h.log.Warn("failed to encode landmarks", zap.Int("frame", index), zap.Error(err))
		return
	}

	var jpeg []byte
	if h.hasStreamers() && frame != nil && !frame.Empty() {
		buf, err := gocv.IMEncode(gocv.JPEGFileExt, *frame)
		if err != nil {
			h.log.Warn("failed to encode frame", zap.Int("frame", index), zap.Error(err))
		} else {
			jpeg = append([]byte(nil), buf.GetBytes()...)
			buf.Close()
		}
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.seq++
	h.frames++
	h.message = msg
	if jpeg != nil {
		h.jpeg = jpeg
	}
	close(h.changed)
	h.changed = make(chan struct{})
}

func (h *Hub) hasStreamers() bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.streamers > 0
}

// addStreamer registers a stream client and returns its release func.
func (h *Hub) addStreamer() func() {
	h.mu.Lock()
	h.streamers++
	h.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			h.mu.Lock()
			h.streamers--
			h.mu.Unlock()
		})
	}
}

// Wait blocks until a frame newer than after is published and returns its
// sequence number.
func (h *Hub) Wait(ctx context.Context, after uint64) (uint64, error) {
	for {
		h.mu.RLock()
		seq, changed, closed := h.seq, h.changed, h.closed
		h.mu.RUnlock()

		if closed {
			return seq, ErrHubClosed
		}
		if seq > after {
			return seq, nil
		}

		select {
		case <-ctx.Done():
			return seq, ctx.Err()
		case <-changed:
		}
	}
}

// JPEG returns the last encoded frame, or nil when none was encoded.
func (h *Hub) JPEG() []byte {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.jpeg
}

// Message returns the last landmarks message, or nil before the first frame.
func (h *Hub) Message() []byte {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.message
}

// Frames returns the number of frames published.
func (h *Hub) Frames() int64 {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.frames
}

// Close wakes all waiters and stops accepting frames.
func (h *Hub) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return nil
	}
	h.closed = true
	close(h.changed)
	return nil
}
