package server

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap/zaptest"

	"github.com/ayusman/mathvision/internal/detector"
	"github.com/ayusman/mathvision/internal/tracker"
)

// readPart reads one MJPEG part and returns its body.
func readPart(t *testing.T, r *bufio.Reader) []byte {
	t.Helper()

	length := -1
	for {
		line, err := r.ReadString('\n')
		if err != nil {
			t.Fatalf("failed to read part header: %v", err)
		}
		line = strings.TrimRight(line, "\r\n")
		if line == "" {
			if length >= 0 {
				break
			}
			continue
		}
		if v, ok := strings.CutPrefix(line, "Content-Length: "); ok {
			length, err = strconv.Atoi(v)
			if err != nil {
				t.Fatalf("bad Content-Length %q", v)
			}
		}
	}

	body := make([]byte, length)
	if _, err := io.ReadFull(r, body); err != nil {
		t.Fatalf("failed to read part body: %v", err)
	}
	return body
}

func TestStreamHandler(t *testing.T) {
	hub := NewHub(zaptest.NewLogger(t))
	ts := httptest.NewServer(New(Config{Hub: hub, Logger: zaptest.NewLogger(t)}))
	defer ts.Close()

	resp, err := ts.Client().Get(ts.URL + "/api/stream")
	if err != nil {
		t.Fatalf("GET /api/stream error = %v", err)
	}
	defer resp.Body.Close()

	if ct := resp.Header.Get("Content-Type"); ct != "multipart/x-mixed-replace; boundary=frame" {
		t.Errorf("unexpected Content-Type %q", ct)
	}

	frame := newFrame()
	defer frame.Close()
	hub.Observe(0, &frame, nil)

	body := readPart(t, bufio.NewReader(resp.Body))
	if !bytes.HasPrefix(body, []byte{0xFF, 0xD8}) {
		t.Errorf("expected a JPEG part, got %d bytes", len(body))
	}
}

func TestStreamHandler_MethodNotAllowed(t *testing.T) {
	s := New(Config{Hub: NewHub(nil)})

	req := httptest.NewRequest(http.MethodPost, "/api/stream", nil)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)

	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("expected status %d, got %d", http.StatusMethodNotAllowed, rec.Code)
	}
}

func TestLandmarksHandler(t *testing.T) {
	hub := NewHub(zaptest.NewLogger(t))
	ts := httptest.NewServer(New(Config{Hub: hub, Logger: zaptest.NewLogger(t)}))
	defer ts.Close()

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/api/landmarks"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	defer conn.Close()

	hand := detector.Uniform(detector.Point3D{X: 0.25, Y: 0.75})
	hub.Observe(7, nil, tracker.ToPixelSpace(&hand, 1280, 720))

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("ReadMessage() error = %v", err)
	}

	var msg LandmarksMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		t.Fatalf("failed to decode message: %v", err)
	}
	if msg.Frame != 7 || msg.Fingers == nil {
		t.Fatalf("unexpected message %s", data)
	}
	if msg.Fingers.IndexTip.X != 320 || msg.Fingers.IndexTip.Y != 540 {
		t.Errorf("index tip = %+v, want (320, 540)", msg.Fingers.IndexTip)
	}

	// Closing the hub ends the feed
	hub.Close()
	_, _, err = conn.ReadMessage()
	if !websocket.IsCloseError(err, websocket.CloseGoingAway) {
		t.Errorf("expected going away close, got %v", err)
	}
}

func TestServer_Serve_Shutdown(t *testing.T) {
	hub := NewHub(zaptest.NewLogger(t))
	s := New(Config{Hub: hub, Logger: zaptest.NewLogger(t)})

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Listen() error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- s.Serve(ctx, ln)
	}()

	// An open stream must not hold up shutdown
	resp, err := http.Get("http://" + ln.Addr().String() + "/api/stream")
	if err != nil {
		t.Fatalf("GET /api/stream error = %v", err)
	}
	defer resp.Body.Close()

	cancel()

	select {
	case err := <-done:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			t.Errorf("Serve() error = %v", err)
		}
	case <-time.After(shutdownTimeout):
		t.Fatal("Serve did not return after cancel")
	}
}

func TestServer_ListenAndServe_BadAddr(t *testing.T) {
	s := New(Config{})
	if err := s.ListenAndServe(context.Background(), "256.0.0.1:-1"); err == nil {
		t.Error("expected error for invalid address")
	}
}
