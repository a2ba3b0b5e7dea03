// Package config holds the tunable constant groups of the canvas.
//
// Every value has a built-in default; a YAML file may override any subset.
// The gesture and mode groups, and the smoothing and distance fields of the
// drawing group, are not read by any runtime component yet.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"image/color"
	"io"
	"os"

	"github.com/lucasb-eyer/go-colorful"
	"gopkg.in/yaml.v3"
)

// Settings is the full configuration, read once at startup.
type Settings struct {
	Camera    CameraSettings    `yaml:"camera"`
	Detection DetectionSettings `yaml:"detection"`
	Gesture   GestureSettings   `yaml:"gesture"`
	Mode      ModeSettings      `yaml:"mode"`
	Display   DisplaySettings   `yaml:"display"`
	Drawing   DrawingSettings   `yaml:"drawing"`
	Record    RecordSettings    `yaml:"record"`
	Debug     DebugSettings     `yaml:"debug"`
}

// CameraSettings selects the capture device.
type CameraSettings struct {
	Device int `yaml:"device"`
}

// DetectionSettings are forwarded to the landmark detector untouched.
type DetectionSettings struct {
	MaxNumHands            int     `yaml:"max_num_hands"`
	MinDetectionConfidence float64 `yaml:"min_detection_confidence"`
	MinTrackingConfidence  float64 `yaml:"min_tracking_confidence"`
	StaticImageMode        bool    `yaml:"static_image_mode"`
}

// GestureSettings is inert.
type GestureSettings struct {
	FingerTapThreshold   float64 `yaml:"finger_tap_threshold"`
	TapDurationFrames    int     `yaml:"tap_duration_frames"`
	MinGestureConfidence float64 `yaml:"min_gesture_confidence"`
}

// ModeSettings is inert.
type ModeSettings struct {
	Modes           []string `yaml:"modes"`
	DefaultMode     string   `yaml:"default_mode"`
	ModeSwitchDelay int      `yaml:"mode_switch_delay"`
}

// DisplaySettings configures the capture resolution and the output window.
type DisplaySettings struct {
	WindowName          string `yaml:"window_name"`
	WindowWidth         int    `yaml:"window_width"`
	WindowHeight        int    `yaml:"window_height"`
	FlipImage           bool   `yaml:"flip_image"`
	Colors              Colors `yaml:"colors"`
	FontScale           int    `yaml:"font_scale"`
	FontThickness       int    `yaml:"font_thickness"`
	ModeDisplayPosition [2]int `yaml:"mode_display_position"`
}

// Colors used by the overlay.
type Colors struct {
	HandLandmarks   Color `yaml:"hand_landmarks"`
	HandConnections Color `yaml:"hand_connections"`
	ModeText        Color `yaml:"mode_text"`
	DrawingColor    Color `yaml:"drawing_color"`
}

// DrawingSettings is inert.
type DrawingSettings struct {
	LineThickness      int     `yaml:"line_thickness"`
	MinDrawingDistance int     `yaml:"min_drawing_distance"`
	SmoothingFactor    float64 `yaml:"smoothing_factor"`
}

// RecordSettings enables the sqlite session recorder when Path is set.
type RecordSettings struct {
	Path string `yaml:"path"`
}

// DebugSettings enables the preview server when Addr is set.
type DebugSettings struct {
	Addr string `yaml:"addr"`
}

// Color is an opaque RGB color written as "#rrggbb" in YAML.
type Color struct {
	color.RGBA
}

// RGB builds an opaque Color.
func RGB(r, g, b uint8) Color {
	return Color{color.RGBA{R: r, G: g, B: b, A: 255}}
}

// ParseColor parses a hex color such as "#4c1679".
func ParseColor(s string) (Color, error) {
	c, err := colorful.Hex(s)
	if err != nil {
		return Color{}, fmt.Errorf("parse color %q: %w", s, err)
	}
	r, g, b := c.RGB255()
	return RGB(r, g, b), nil
}

// Hex formats c as "#rrggbb".
func (c Color) Hex() string {
	cf, _ := colorful.MakeColor(c.RGBA)
	return cf.Hex()
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (c *Color) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := ParseColor(s)
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (c Color) MarshalYAML() (interface{}, error) {
	return c.Hex(), nil
}

// Default returns the built-in settings.
func Default() Settings {
	return Settings{
		Camera: CameraSettings{Device: 0},
		Detection: DetectionSettings{
			MaxNumHands:            1,
			MinDetectionConfidence: 0.7,
			MinTrackingConfidence:  0.7,
			StaticImageMode:        false,
		},
		Gesture: GestureSettings{
			FingerTapThreshold:   0.05,
			TapDurationFrames:    5,
			MinGestureConfidence: 0.8,
		},
		Mode: ModeSettings{
			Modes:           []string{"DRAW", "WRITE", "ERASE"},
			DefaultMode:     "DRAW",
			ModeSwitchDelay: 10,
		},
		Display: DisplaySettings{
			WindowName:   "MathVision Canvas",
			WindowWidth:  1280,
			WindowHeight: 720,
			FlipImage:    true,
			Colors: Colors{
				HandLandmarks:   RGB(76, 22, 121),
				HandConnections: RGB(66, 129, 245),
				ModeText:        RGB(255, 255, 255),
				DrawingColor:    RGB(0, 255, 0),
			},
			FontScale:           1,
			FontThickness:       2,
			ModeDisplayPosition: [2]int{30, 50},
		},
		Drawing: DrawingSettings{
			LineThickness:      2,
			MinDrawingDistance: 5,
			SmoothingFactor:    0.5,
		},
	}
}

// Load reads a YAML file and overlays it on Default.
func Load(path string) (Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Settings{}, fmt.Errorf("read config: %w", err)
	}
	s, err := Parse(data)
	if err != nil {
		return Settings{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	return s, nil
}

// Parse overlays YAML data on Default. Unknown keys are an error.
func Parse(data []byte) (Settings, error) {
	s := Default()

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&s); err != nil && !errors.Is(err, io.EOF) {
		return Settings{}, err
	}
	return s, nil
}
