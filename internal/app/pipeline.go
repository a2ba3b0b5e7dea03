package app

import (
	"context"
	"fmt"
	"image"

	"go.uber.org/multierr"
	"go.uber.org/zap"
	"gocv.io/x/gocv"

	"github.com/ayusman/mathvision/internal/detector"
	"github.com/ayusman/mathvision/internal/display"
	"github.com/ayusman/mathvision/internal/overlay"
)

// Run drives the loop until the quit key is pressed, ctx is cancelled or a
// frame cannot be read. Resources are released on every exit path,
// including a panic further down the loop.
//
// Per frame:
// 1. Read a frame; a failure ends the run with ErrFrameRead
// 2. Mirror it horizontally when configured
// 3. Track the hand and draw its skeleton
// 4. Mark the index fingertip
// 5. Notify observers and show the frame
// 6. Poll the keyboard for the quit key
func (a *App) Run(ctx context.Context) (err error) {
	defer func() {
		err = multierr.Append(err, a.Close())
	}()

	if !a.camera.IsOpen() {
		if err := a.camera.Open(); err != nil {
			a.log.Error("failed to open camera", zap.Error(err))
			return err
		}
	}
	a.log.Info("capture loop started", zap.Bool("flip", a.flip))

	for index := 0; ; index++ {
		select {
		case <-ctx.Done():
			a.log.Info("capture loop cancelled", zap.Int("frames", index))
			return nil
		default:
		}

		quit, err := a.step(index)
		if err != nil {
			return err
		}
		if quit {
			a.log.Info("quit key pressed", zap.Int("frames", index+1))
			return nil
		}
	}
}

func (a *App) step(index int) (bool, error) {
	frame, err := a.camera.ReadFrame()
	if err != nil {
		a.log.Error("failed to read frame", zap.Int("frame", index), zap.Error(err))
		return false, fmt.Errorf("%w: %w", ErrFrameRead, err)
	}
	defer frame.Close()

	if a.flip {
		gocv.Flip(*frame, frame, 1)
	}

	lm := a.tracker.Process(frame)
	if lm != nil {
		tip := lm[detector.IndexTip]
		overlay.DrawMarker(frame, image.Pt(int(tip.X), int(tip.Y)), a.color)
	}

	for _, o := range a.observers {
		o.Observe(index, frame, lm)
	}

	a.display.Show(frame)

	a.mu.Lock()
	a.frames++
	a.mu.Unlock()

	return display.IsQuit(a.display.WaitKey(KeyPollMs)), nil
}
