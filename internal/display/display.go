// Package display shows frames in a HighGUI window and polls the keyboard.
package display

import (
	"sync"

	"gocv.io/x/gocv"
)

// QuitKey ends the capture loop when pressed.
const QuitKey = 'q'

// Display renders frames and reports key presses.
type Display interface {
	// Show renders frame. The display does not retain it.
	Show(frame *gocv.Mat)

	// WaitKey waits up to delayMs milliseconds for a key and returns its
	// code, or -1 when none was pressed.
	WaitKey(delayMs int) int

	// Close destroys the window.
	Close() error
}

// IsQuit reports whether a WaitKey result is the quit key. Only the low
// byte is compared.
func IsQuit(key int) bool {
	return key >= 0 && key&0xFF == QuitKey
}

// Window is a Display backed by a gocv window.
type Window struct {
	name string
	win  *gocv.Window
	once sync.Once
	err  error
}

// NewWindow opens a named window.
func NewWindow(name string) *Window {
	return &Window{
		name: name,
		win:  gocv.NewWindow(name),
	}
}

// Name returns the window title.
func (w *Window) Name() string {
	return w.name
}

// Show renders frame in the window.
func (w *Window) Show(frame *gocv.Mat) {
	if frame == nil || frame.Empty() {
		return
	}
	w.win.IMShow(*frame)
}

// WaitKey polls the keyboard.
func (w *Window) WaitKey(delayMs int) int {
	return w.win.WaitKey(delayMs)
}

// Close destroys the window. Later calls return the first result.
func (w *Window) Close() error {
	w.once.Do(func() {
		w.err = w.win.Close()
	})
	return w.err
}
