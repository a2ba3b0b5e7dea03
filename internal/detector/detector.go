package detector

import (
	"gocv.io/x/gocv"

	"github.com/ayusman/mathvision/internal/config"
)

// Detector defines the interface for hand landmark detectors.
type Detector interface {
	// Detect analyzes an RGB frame and returns the detected hands with
	// landmarks normalized to [0,1] of the frame width and height.
	// Returns an empty slice if no hands are detected.
	Detect(rgb *gocv.Mat) ([]HandLandmarks, error)

	// Close releases any resources held by the detector.
	Close() error
}

// Config holds the options forwarded to the detector. Thresholds are not
// enforced on this side.
type Config struct {
	// MaxHands is the maximum number of hands to detect.
	MaxHands int

	// MinConfidence is the minimum detection confidence threshold (0.0-1.0).
	MinConfidence float64

	// MinTrackingConf is the minimum tracking confidence threshold (0.0-1.0).
	MinTrackingConf float64

	// StaticImageMode treats every frame as unrelated when true.
	StaticImageMode bool
}

// DefaultConfig returns the detection defaults of the canvas.
func DefaultConfig() Config {
	return ConfigFrom(config.Default().Detection)
}

// ConfigFrom maps the detection settings group onto a Config.
func ConfigFrom(s config.DetectionSettings) Config {
	return Config{
		MaxHands:        s.MaxNumHands,
		MinConfidence:   s.MinDetectionConfidence,
		MinTrackingConf: s.MinTrackingConfidence,
		StaticImageMode: s.StaticImageMode,
	}
}
