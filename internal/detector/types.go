package detector

import (
	"errors"
	"image"
	"math"
)

// ErrNoFace is returned when no face is found in an image
var ErrNoFace = errors.New("detector: no face detected")

// NumLandmarks is the number of points in a face-mesh landmark set
const NumLandmarks = 468

// Point represents a 2D point
type Point struct {
	X, Y float32
}

// ImagePoint truncates the point to integer pixel coordinates
func (p Point) ImagePoint() image.Point {
	return image.Pt(int(p.X), int(p.Y))
}

// Finite reports whether both coordinates are real numbers
func (p Point) Finite() bool {
	x, y := float64(p.X), float64(p.Y)
	return !math.IsNaN(x) && !math.IsNaN(y) && !math.IsInf(x, 0) && !math.IsInf(y, 0)
}

// BoundingBox represents a face bounding box
type BoundingBox struct {
	X1, Y1 float32 // top-left
	X2, Y2 float32 // bottom-right
}

// Width returns box width
func (b BoundingBox) Width() float32 {
	return b.X2 - b.X1
}

// Height returns box height
func (b BoundingBox) Height() float32 {
	return b.Y2 - b.Y1
}

// Center returns box center point
func (b BoundingBox) Center() Point {
	return Point{
		X: (b.X1 + b.X2) / 2,
		Y: (b.Y1 + b.Y2) / 2,
	}
}

// Area returns box area
func (b BoundingBox) Area() float32 {
	return b.Width() * b.Height()
}

// Landmarks represents the 5 keypoints SCRFD emits with every box
type Landmarks struct {
	LeftEye    Point // index 0
	RightEye   Point // index 1
	Nose       Point // index 2
	LeftMouth  Point // index 3
	RightMouth Point // index 4
}

// Face represents a detected face
type Face struct {
	BoundingBox BoundingBox
	Landmarks   Landmarks
	Score       float32
}

// LandmarkSet is an ordered face-mesh landmark set in pixel coordinates.
// Index meaning follows the MediaPipe face-mesh topology.
type LandmarkSet []Point

// Points returns the points at the given indices. Callers validate indices
// beforehand with Check.
func (l LandmarkSet) Points(indices []int) []Point {
	points := make([]Point, len(indices))
	for i, idx := range indices {
		points[i] = l[idx]
	}
	return points
}

// ImagePoints returns the points at the given indices as integer pixels
func (l LandmarkSet) ImagePoints(indices []int) []image.Point {
	points := make([]image.Point, len(indices))
	for i, idx := range indices {
		points[i] = l[idx].ImagePoint()
	}
	return points
}

// BoundingBox computes the tight bounding box around the given indices
func (l LandmarkSet) BoundingBox(indices []int) BoundingBox {
	if len(indices) == 0 {
		return BoundingBox{}
	}
	first := l[indices[0]]
	box := BoundingBox{X1: first.X, Y1: first.Y, X2: first.X, Y2: first.Y}
	for _, idx := range indices[1:] {
		p := l[idx]
		box.X1 = min32(box.X1, p.X)
		box.Y1 = min32(box.Y1, p.Y)
		box.X2 = max32(box.X2, p.X)
		box.Y2 = max32(box.Y2, p.Y)
	}
	return box
}

// Clone returns an independent copy of the set
func (l LandmarkSet) Clone() LandmarkSet {
	if l == nil {
		return nil
	}
	out := make(LandmarkSet, len(l))
	copy(out, l)
	return out
}
