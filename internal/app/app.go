// Package app runs the capture, track and display loop of the MathVision canvas.
package app

import (
	"errors"
	"fmt"
	"image/color"
	"io"
	"sync"

	"go.uber.org/multierr"
	"go.uber.org/zap"
	"gocv.io/x/gocv"

	"github.com/ayusman/mathvision/internal/capture"
	"github.com/ayusman/mathvision/internal/display"
	"github.com/ayusman/mathvision/internal/logger"
	"github.com/ayusman/mathvision/internal/tracker"
)

// KeyPollMs is how long the loop waits for a key press after each frame.
const KeyPollMs = 1

// ErrFrameRead is returned by Run when the camera fails to deliver a frame.
var ErrFrameRead = errors.New("failed to read frame")

// HandTracker detects a hand in a frame and draws it in place.
type HandTracker interface {
	Process(frame *gocv.Mat) *tracker.Landmarks
	Close() error
}

// Observer receives every displayed frame. frame is only valid for the
// duration of the call; lm is nil when no hand was found.
type Observer interface {
	Observe(index int, frame *gocv.Mat, lm *tracker.Landmarks)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(index int, frame *gocv.Mat, lm *tracker.Landmarks)

// Observe calls f.
func (f ObserverFunc) Observe(index int, frame *gocv.Mat, lm *tracker.Landmarks) {
	f(index, frame, lm)
}

// Config holds the loop's collaborators. Camera, Tracker and Display are
// required; the app takes ownership of them and releases them on Close.
// Observers that implement io.Closer are closed too.
type Config struct {
	Camera       capture.Camera
	Tracker      HandTracker
	Display      display.Display
	FlipImage    bool
	DrawingColor color.RGBA
	Observers    []Observer
	Logger       *zap.Logger
}

// App owns the camera, tracker and window for one run.
type App struct {
	camera    capture.Camera
	tracker   HandTracker
	display   display.Display
	flip      bool
	color     color.RGBA
	observers []Observer
	log       *zap.Logger

	mu       sync.Mutex
	frames   int
	closeErr error
	once     sync.Once
}

// New creates an App from cfg.
func New(cfg Config) *App {
	return &App{
		camera:    cfg.Camera,
		tracker:   cfg.Tracker,
		display:   cfg.Display,
		flip:      cfg.FlipImage,
		color:     cfg.DrawingColor,
		observers: cfg.Observers,
		log:       logger.Or(cfg.Logger),
	}
}

// AddObserver registers o for subsequent frames. It must be called before Run.
func (a *App) AddObserver(o Observer) {
	a.observers = append(a.observers, o)
}

// Frames returns the number of frames shown so far.
func (a *App) Frames() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.frames
}

// Close releases the camera, the tracker, the display and closable
// observers. Every step runs even when an earlier one fails. Later calls
// return the first result.
func (a *App) Close() error {
	a.once.Do(func() {
		var err error
		if a.camera != nil {
			err = multierr.Append(err, wrap("camera", a.camera.Close()))
		}
		if a.tracker != nil {
			err = multierr.Append(err, wrap("tracker", a.tracker.Close()))
		}
		if a.display != nil {
			err = multierr.Append(err, wrap("display", a.display.Close()))
		}
		for _, o := range a.observers {
			if c, ok := o.(io.Closer); ok {
				err = multierr.Append(err, wrap("observer", c.Close()))
			}
		}

		if err != nil {
			a.log.Error("failed to release resources", zap.Error(err))
		} else {
			a.log.Debug("resources released")
		}
		a.closeErr = err
	})
	return a.closeErr
}

func wrap(what string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("close %s: %w", what, err)
}
