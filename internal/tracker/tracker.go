// Package tracker adapts a landmark detector to pixel-space hand tracking.
package tracker

import (
	"sync"

	"go.uber.org/zap"
	"gocv.io/x/gocv"

	"github.com/ayusman/mathvision/internal/detector"
	"github.com/ayusman/mathvision/internal/logger"
	"github.com/ayusman/mathvision/internal/overlay"
)

// Landmarks holds one hand's landmarks in pixel space: x scaled by the frame
// width, y by the frame height and z by the frame width.
type Landmarks [detector.NumLandmarks]detector.Point3D

// Fingers are the four landmarks the canvas reads.
type Fingers struct {
	IndexTip  detector.Point3D `json:"index_tip"`
	MiddleTip detector.Point3D `json:"middle_tip"`
	IndexPIP  detector.Point3D `json:"index_pip"`
	MiddlePIP detector.Point3D `json:"middle_pip"`
}

// Config holds the tracker dependencies.
type Config struct {
	Detector detector.Detector
	Style    overlay.Style
	Logger   *zap.Logger
}

// Tracker runs detection on BGR frames and draws the skeleton of the
// detected hand in place.
type Tracker struct {
	detector detector.Detector
	style    overlay.Style
	log      *zap.Logger
	mu       sync.Mutex
	closed   bool
}

// New creates a Tracker. The tracker owns the detector and closes it.
func New(cfg Config) *Tracker {
	return &Tracker{
		detector: cfg.Detector,
		style:    cfg.Style,
		log:      logger.Or(cfg.Logger),
	}
}

// Process detects hands in a BGR frame. When at least one hand is found the
// first one is drawn onto frame and returned in pixel space; further hands
// are ignored. Otherwise the frame is left untouched and nil is returned.
//
// Detector failures are logged and reported as no hand.
func (t *Tracker) Process(frame *gocv.Mat) *Landmarks {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed || frame == nil || frame.Empty() {
		return nil
	}

	rgb := gocv.NewMat()
	defer rgb.Close()
	gocv.CvtColor(*frame, &rgb, gocv.ColorBGRToRGB)

	hands, err := t.detector.Detect(&rgb)
	if err != nil {
		t.log.Warn("hand detection failed", zap.Error(err))
		return nil
	}
	if len(hands) == 0 {
		return nil
	}

	overlay.DrawHand(frame, &hands[0], t.style)

	return FirstHand(hands, frame.Cols(), frame.Rows())
}

// FirstHand converts the first detected hand to pixel space.
// Returns nil when hands is empty.
func FirstHand(hands []detector.HandLandmarks, width, height int) *Landmarks {
	if len(hands) == 0 {
		return nil
	}
	return ToPixelSpace(&hands[0], width, height)
}

// ToPixelSpace scales normalized landmarks to a width x height frame.
func ToPixelSpace(hand *detector.HandLandmarks, width, height int) *Landmarks {
	if hand == nil {
		return nil
	}
	w, h := float64(width), float64(height)

	var lm Landmarks
	for i, p := range hand.Points {
		lm[i] = p.Scale(w, h, w)
	}
	return &lm
}

// FingerCoordinates returns the index and middle finger tips and PIP joints,
// or nil when lm is nil.
func FingerCoordinates(lm *Landmarks) *Fingers {
	if lm == nil {
		return nil
	}
	return &Fingers{
		IndexTip:  lm[detector.IndexTip],
		MiddleTip: lm[detector.MiddleTip],
		IndexPIP:  lm[detector.IndexPIP],
		MiddlePIP: lm[detector.MiddlePIP],
	}
}

// Close releases the detector. Later calls return nil.
func (t *Tracker) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return nil
	}
	t.closed = true

	if t.detector == nil {
		return nil
	}
	return t.detector.Close()
}
