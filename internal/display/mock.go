package display

import (
	"sync"

	"gocv.io/x/gocv"
)

// MockDisplay records shown frames and replays scripted key presses.
type MockDisplay struct {
	mu      sync.Mutex
	frames  []gocv.Mat
	keys    []int
	polls   int
	closes  int
	panicAt int
}

// NewMockDisplay returns a display that answers WaitKey with keys in order
// and -1 once they run out.
func NewMockDisplay(keys ...int) *MockDisplay {
	return &MockDisplay{keys: keys}
}

// PanicOnShow makes the n-th Show call (1-based) panic.
func (m *MockDisplay) PanicOnShow(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.panicAt = n
}

// Show keeps a copy of frame.
func (m *MockDisplay) Show(frame *gocv.Mat) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.panicAt > 0 && len(m.frames)+1 == m.panicAt {
		panic("display failure")
	}
	m.frames = append(m.frames, frame.Clone())
}

// WaitKey returns the next scripted key.
func (m *MockDisplay) WaitKey(delayMs int) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.polls++
	if len(m.keys) == 0 {
		return -1
	}
	key := m.keys[0]
	m.keys = m.keys[1:]
	return key
}

// Close frees the recorded frames and counts the call.
func (m *MockDisplay) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.closes++
	for _, f := range m.frames {
		f.Close()
	}
	m.frames = nil
	return nil
}

// Shown returns the number of frames shown and not yet released.
func (m *MockDisplay) Shown() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.frames)
}

// Frame returns the i-th shown frame.
func (m *MockDisplay) Frame(i int) gocv.Mat {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.frames[i]
}

// Polls returns the number of WaitKey calls.
func (m *MockDisplay) Polls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.polls
}

// Closes returns the number of Close calls.
func (m *MockDisplay) Closes() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closes
}
