// Package detector provides hand landmark detection interfaces and types.
package detector

// Hand landmark indices following MediaPipe convention.
// See: https://developers.google.com/mediapipe/solutions/vision/hand_landmarker
const (
	Wrist        = 0
	ThumbCMC     = 1
	ThumbMCP     = 2
	ThumbIP      = 3
	ThumbTip     = 4
	IndexMCP     = 5
	IndexPIP     = 6
	IndexDIP     = 7
	IndexTip     = 8
	MiddleMCP    = 9
	MiddlePIP    = 10
	MiddleDIP    = 11
	MiddleTip    = 12
	RingMCP      = 13
	RingPIP      = 14
	RingDIP      = 15
	RingTip      = 16
	PinkyMCP     = 17
	PinkyPIP     = 18
	PinkyDIP     = 19
	PinkyTip     = 20
	NumLandmarks = 21
)

// Connection joins two landmark indices in the hand skeleton.
type Connection struct {
	From, To int
}

// HandConnections is the MediaPipe hand skeleton.
var HandConnections = []Connection{
	// palm
	{Wrist, ThumbCMC}, {Wrist, IndexMCP}, {IndexMCP, MiddleMCP},
	{MiddleMCP, RingMCP}, {RingMCP, PinkyMCP}, {Wrist, PinkyMCP},
	// thumb
	{ThumbCMC, ThumbMCP}, {ThumbMCP, ThumbIP}, {ThumbIP, ThumbTip},
	// index
	{IndexMCP, IndexPIP}, {IndexPIP, IndexDIP}, {IndexDIP, IndexTip},
	// middle
	{MiddleMCP, MiddlePIP}, {MiddlePIP, MiddleDIP}, {MiddleDIP, MiddleTip},
	// ring
	{RingMCP, RingPIP}, {RingPIP, RingDIP}, {RingDIP, RingTip},
	// pinky
	{PinkyMCP, PinkyPIP}, {PinkyPIP, PinkyDIP}, {PinkyDIP, PinkyTip},
}

// Point3D represents a 3D point with x, y, z coordinates.
type Point3D struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Scale multiplies each axis by the matching factor.
func (p Point3D) Scale(sx, sy, sz float64) Point3D {
	return Point3D{X: p.X * sx, Y: p.Y * sy, Z: p.Z * sz}
}

// HandLandmarks represents the 21 landmarks of one detected hand.
type HandLandmarks struct {
	Points     [NumLandmarks]Point3D `json:"points"`
	Handedness string                `json:"handedness"` // "Left" or "Right"
	Score      float64               `json:"score"`
}

// Uniform returns a hand with every landmark at p.
func Uniform(p Point3D) HandLandmarks {
	h := HandLandmarks{Handedness: "Right", Score: 1.0}
	for i := range h.Points {
		h.Points[i] = p
	}
	return h
}
