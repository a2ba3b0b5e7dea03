// Package overlay draws hand skeletons and markers onto frames.
package overlay

import (
	"image"
	"image/color"
	"math"

	"gocv.io/x/gocv"

	"github.com/ayusman/mathvision/internal/config"
	"github.com/ayusman/mathvision/internal/detector"
)

// Filled is the thickness value that fills a circle.
const Filled = -1

// MarkerRadius is the radius of the fingertip marker.
const MarkerRadius = 10

var white = color.RGBA{R: 255, G: 255, B: 255, A: 255}

// Style controls how a hand skeleton is drawn.
type Style struct {
	LandmarkColor       color.RGBA
	LandmarkThickness   int
	LandmarkRadius      int
	ConnectionColor     color.RGBA
	ConnectionThickness int
}

// StyleFrom builds the skeleton style from the display settings.
func StyleFrom(d config.DisplaySettings) Style {
	return Style{
		LandmarkColor:       d.Colors.HandLandmarks.RGBA,
		LandmarkThickness:   2,
		LandmarkRadius:      2,
		ConnectionColor:     d.Colors.HandConnections.RGBA,
		ConnectionThickness: 1,
	}
}

// DefaultStyle returns the style for the default display settings.
func DefaultStyle() Style {
	return StyleFrom(config.Default().Display)
}

// ToPixel converts a normalized coordinate to a pixel position inside a
// width x height frame. ok is false when the point lies outside [0,1].
func ToPixel(p detector.Point3D, width, height int) (image.Point, bool) {
	if !inUnit(p.X) || !inUnit(p.Y) {
		return image.Point{}, false
	}
	x := int(math.Min(math.Floor(p.X*float64(width)), float64(width-1)))
	y := int(math.Min(math.Floor(p.Y*float64(height)), float64(height-1)))
	return image.Pt(x, y), true
}

func inUnit(v float64) bool {
	const eps = 1e-9
	return v > -eps && v < 1+eps
}

// DrawHand draws the connections and landmark points of a normalized hand
// onto frame. Points outside the frame are skipped along with their
// connections.
func DrawHand(frame *gocv.Mat, hand *detector.HandLandmarks, style Style) {
	if frame == nil || hand == nil || frame.Empty() {
		return
	}
	width, height := frame.Cols(), frame.Rows()

	var px [detector.NumLandmarks]image.Point
	var visible [detector.NumLandmarks]bool
	for i, p := range hand.Points {
		px[i], visible[i] = ToPixel(p, width, height)
	}

	for _, c := range detector.HandConnections {
		if !visible[c.From] || !visible[c.To] {
			continue
		}
		gocv.Line(frame, px[c.From], px[c.To], style.ConnectionColor, style.ConnectionThickness)
	}

	border := style.LandmarkRadius + 1
	if r := int(float64(style.LandmarkRadius) * 1.2); r > border {
		border = r
	}
	for i := range px {
		if !visible[i] {
			continue
		}
		gocv.Circle(frame, px[i], border, white, style.LandmarkThickness)
		gocv.Circle(frame, px[i], style.LandmarkRadius, style.LandmarkColor, style.LandmarkThickness)
	}
}

// DrawMarker draws a filled circle of MarkerRadius at center.
func DrawMarker(frame *gocv.Mat, center image.Point, c color.RGBA) {
	if frame == nil || frame.Empty() {
		return
	}
	gocv.Circle(frame, center, MarkerRadius, c, Filled)
}
