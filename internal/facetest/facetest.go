// Package facetest builds synthetic portraits and landmark sets for tests.
package facetest

import (
	"image"
	"math"
	"math/rand"

	"gocv.io/x/gocv"

	"github.com/dudu/retouch/internal/detector"
	"github.com/dudu/retouch/internal/matutil"
)

// Width and Height are the default synthetic portrait dimensions
const (
	Width  = 400
	Height = 500
)

// Geometry places the facial features of a synthetic landmark set. All
// regions are ellipses given as centre and radii.
type Geometry struct {
	Face                  Ellipse
	LeftEye, RightEye     Ellipse
	LeftBrow, RightBrow   Ellipse
	OuterLips, InnerLips  Ellipse
	LeftCheek, RightCheek image.Point
}

// Ellipse is an axis-aligned ellipse
type Ellipse struct {
	CX, CY, RX, RY float64
}

// at returns the point at angle theta (radians, image y axis pointing down)
func (e Ellipse) at(theta float64) detector.Point {
	return detector.Point{
		X: float32(e.CX + e.RX*math.Cos(theta)),
		Y: float32(e.CY + e.RY*math.Sin(theta)),
	}
}

// Center returns the ellipse centre as a pixel
func (e Ellipse) Center() image.Point {
	return image.Pt(int(e.CX), int(e.CY))
}

// DefaultGeometry fits a frontal face into a Width×Height portrait
func DefaultGeometry() Geometry {
	return Geometry{
		Face:       Ellipse{CX: 200, CY: 250, RX: 130, RY: 170},
		RightEye:   Ellipse{CX: 150, CY: 200, RX: 22, RY: 10},
		LeftEye:    Ellipse{CX: 250, CY: 200, RX: 22, RY: 10},
		RightBrow:  Ellipse{CX: 150, CY: 172, RX: 28, RY: 6},
		LeftBrow:   Ellipse{CX: 250, CY: 172, RX: 28, RY: 6},
		OuterLips:  Ellipse{CX: 200, CY: 340, RX: 45, RY: 20},
		InnerLips:  Ellipse{CX: 200, CY: 340, RX: 30, RY: 8},
		RightCheek: image.Pt(135, 290),
		LeftCheek:  image.Pt(265, 290),
	}
}

// Landmarks returns a valid 468-point set for DefaultGeometry
func Landmarks() detector.LandmarkSet {
	return LandmarksFor(DefaultGeometry())
}

// LandmarksFor lays every used landmark subset out on its ellipse. Unused
// points sit on the face centre.
func LandmarksFor(g Geometry) detector.LandmarkSet {
	set := make(detector.LandmarkSet, detector.NumLandmarks)
	for i := range set {
		set[i] = detector.Point{X: float32(g.Face.CX), Y: float32(g.Face.CY)}
	}

	around(set, detector.FaceOval, g.Face)
	around(set, detector.LeftEye, g.LeftEye)
	around(set, detector.RightEye, g.RightEye)
	around(set, detector.LeftEyebrow, g.LeftBrow)
	around(set, detector.RightEyebrow, g.RightBrow)

	// lip lists run corner to corner, left to right
	arc(set, detector.LipsUpperOuter, g.OuterLips, false)
	arc(set, detector.LipsLowerOuter, g.OuterLips, true)
	arc(set, detector.LipsUpperInner, g.InnerLips, false)
	arc(set, detector.LipsLowerInner, g.InnerLips, true)

	set[detector.LeftCheekCenter] = detector.Point{X: float32(g.LeftCheek.X), Y: float32(g.LeftCheek.Y)}
	set[detector.RightCheekCenter] = detector.Point{X: float32(g.RightCheek.X), Y: float32(g.RightCheek.Y)}

	return set
}

func around(set detector.LandmarkSet, indices []int, e Ellipse) {
	for i, idx := range indices {
		set[idx] = e.at(2 * math.Pi * float64(i) / float64(len(indices)))
	}
}

// arc spreads indices from the left corner (theta = pi) to the right corner
// (theta = 0) along the upper or lower half. Lists whose first index is not
// a corner start one step in from it.
func arc(set detector.LandmarkSet, indices []int, e Ellipse, lower bool) {
	n := len(indices)
	steps := float64(n - 1)
	offset := 0.0
	if indices[0] != detector.LipsUpperOuter[0] && indices[0] != detector.LipsUpperInner[0] {
		steps = float64(n)
		offset = 1
	}
	for i, idx := range indices {
		theta := math.Pi - math.Pi*(float64(i)+offset)/steps
		if !lower {
			theta = -theta
		}
		set[idx] = e.at(theta)
	}
}

// Portrait renders a textured skin-toned face on a darker background.
// The texture is seeded, so repeated calls return identical pixels.
func Portrait(w, h int) gocv.Mat {
	return PortraitFor(w, h, DefaultGeometry())
}

// PortraitFor renders Portrait for a custom geometry
func PortraitFor(w, h int, g Geometry) gocv.Mat {
	rng := rand.New(rand.NewSource(7))
	buf := make([]byte, w*h*3)

	inside := func(e Ellipse, x, y int) bool {
		dx := (float64(x) - e.CX) / e.RX
		dy := (float64(y) - e.CY) / e.RY
		return dx*dx+dy*dy <= 1
	}

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			base := [3]int{60, 70, 80}
			switch {
			case inside(g.InnerLips, x, y):
				base = [3]int{230, 235, 240}
			case inside(g.OuterLips, x, y):
				base = [3]int{120, 110, 180}
			case inside(g.LeftEye, x, y), inside(g.RightEye, x, y):
				base = [3]int{40, 30, 30}
			case inside(g.LeftBrow, x, y), inside(g.RightBrow, x, y):
				base = [3]int{30, 40, 50}
			case inside(g.Face, x, y):
				base = [3]int{150, 170, 210}
			}
			i := (y*w + x) * 3
			for c := 0; c < 3; c++ {
				v := base[c] + rng.Intn(31) - 15
				buf[i+c] = byte(min(255, max(0, v)))
			}
		}
	}

	m, err := matutil.FromBytes(h, w, gocv.MatTypeCV8UC3, buf)
	if err != nil {
		panic(err)
	}
	return m
}

// Detector is a landmark detector stub that returns a fixed set
type Detector struct {
	Set detector.LandmarkSet
	Err error
}

// Detect returns the configured set or error
func (d Detector) Detect(gocv.Mat) (detector.LandmarkSet, error) {
	if d.Err != nil {
		return nil, d.Err
	}
	return d.Set.Clone(), nil
}
