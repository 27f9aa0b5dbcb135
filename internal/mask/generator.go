// Package mask turns a face-mesh landmark set into per-pixel region masks.
//
// Every mask is a single-channel 8-bit Mat the size of the source image,
// where 0 leaves a pixel untouched and 255 applies an effect fully.
package mask

import (
	"errors"
	"image"

	"github.com/rs/zerolog"
	"gocv.io/x/gocv"

	"github.com/dudu/retouch/internal/detector"
)

// Region names a facial area
type Region string

const (
	RegionFace     Region = "face"
	RegionLips     Region = "lips"
	RegionCheeks   Region = "cheeks"
	RegionEyes     Region = "eyes"
	RegionEyebrows Region = "eyebrows"
)

// Regions lists the catalog regions in a stable order
var Regions = []Region{RegionFace, RegionLips, RegionCheeks, RegionEyes}

// Shape constants for mask construction
const (
	FaceFeather = 15

	LipKernel        = 3
	InnerLipErosions = 3
	LipErosions      = 1
	LipFeather       = 5

	CheekWidthRatio  = 0.18
	CheekHeightRatio = 0.15
	CheekBlurKernel  = 51
	CheekBlurSigma   = 30

	EyeDilation     = 15
	EyebrowDilation = 15
)

// Catalog holds the region masks derived from one landmark set
type Catalog struct {
	Face   gocv.Mat
	Lips   gocv.Mat
	Cheeks gocv.Mat
	Eyes   gocv.Mat

	// Degenerate lists regions whose geometry covered no area; their masks
	// are all zero.
	Degenerate []Region
}

// Get returns the mask for a region
func (c *Catalog) Get(r Region) (gocv.Mat, bool) {
	switch r {
	case RegionFace:
		return c.Face, true
	case RegionLips:
		return c.Lips, true
	case RegionCheeks:
		return c.Cheeks, true
	case RegionEyes:
		return c.Eyes, true
	}
	return gocv.Mat{}, false
}

// Close releases all masks
func (c *Catalog) Close() {
	c.Face.Close()
	c.Lips.Close()
	c.Cheeks.Close()
	c.Eyes.Close()
}

// Generator builds region masks
type Generator struct {
	log zerolog.Logger
}

// NewGenerator creates a mask generator
func NewGenerator(log zerolog.Logger) *Generator {
	return &Generator{log: log.With().Str("component", "mask").Logger()}
}

// Check validates that set follows the face-mesh convention for every index
// the generator reads
func Check(set detector.LandmarkSet) error {
	if len(set) != detector.NumLandmarks {
		return &InvalidLandmarkError{Count: len(set), Index: -1}
	}
	for _, idx := range detector.UsedIndices() {
		if idx < 0 || idx >= len(set) || !set[idx].Finite() {
			return &InvalidLandmarkError{Count: len(set), Index: idx}
		}
	}
	return nil
}

// Generate builds the face, lips, cheeks and eyes masks for a width×height
// image. Degenerate regions produce empty masks rather than an error.
func (g *Generator) Generate(set detector.LandmarkSet, width, height int) (*Catalog, error) {
	if err := Check(set); err != nil {
		return nil, err
	}

	c := &Catalog{}
	var err error

	c.Face, err = FaceMask(set, width, height)
	g.record(c, err)
	c.Lips, err = LipMask(set, width, height)
	g.record(c, err)
	c.Cheeks, err = CheekMask(set, width, height)
	g.record(c, err)
	c.Eyes, err = EyeMask(set, width, height)
	g.record(c, err)

	return c, nil
}

func (g *Generator) record(c *Catalog, err error) {
	if err == nil {
		return
	}
	var ge *GeometryError
	if errors.As(err, &ge) {
		c.Degenerate = append(c.Degenerate, ge.Region)
	}
	g.log.Warn().Err(err).Msg("region skipped")
}

// FaceMask fills the face oval and feathers its outline
func FaceMask(set detector.LandmarkSet, width, height int) (gocv.Mat, error) {
	m := Empty(width, height)
	if err := FillPolygon(&m, RegionFace, set.ImagePoints(detector.FaceOval)); err != nil {
		return m, err
	}
	defer m.Close()
	return Feather(m, FaceFeather), nil
}

// LipMask fills the lips while keeping the mouth opening, shrunk for
// headroom, at zero even after feathering
func LipMask(set detector.LandmarkSet, width, height int) (gocv.Mat, error) {
	outer := Empty(width, height)
	if err := FillPolygon(&outer, RegionLips, set.ImagePoints(detector.OuterLipContour())); err != nil {
		return outer, err
	}
	defer outer.Close()

	mouth := InnerMouthMask(set, width, height)
	defer mouth.Close()

	lips := Subtract(outer, mouth)
	defer lips.Close()

	eroded := Erode(lips, Square, LipKernel, LipErosions)
	defer eroded.Close()

	feathered := Feather(eroded, LipFeather)
	defer feathered.Close()

	return Exclude(feathered, mouth), nil
}

// InnerMouthMask is the mouth-opening polygon eroded by the teeth margin.
// A closed mouth yields an empty mask.
func InnerMouthMask(set detector.LandmarkSet, width, height int) gocv.Mat {
	inner := Empty(width, height)
	if err := FillPolygon(&inner, RegionLips, set.ImagePoints(detector.InnerLipContour())); err != nil {
		return inner
	}
	defer inner.Close()
	return Erode(inner, Square, LipKernel, InnerLipErosions)
}

// CheekMask places two ellipses scaled to the face size on the cheek
// landmarks and blurs them heavily
func CheekMask(set detector.LandmarkSet, width, height int) (gocv.Mat, error) {
	m := Empty(width, height)

	box := set.BoundingBox(detector.FaceOval)
	axes := image.Pt(int(float64(box.Width())*CheekWidthRatio), int(float64(box.Height())*CheekHeightRatio))

	for _, idx := range []int{detector.LeftCheekCenter, detector.RightCheekCenter} {
		if err := FillEllipse(&m, RegionCheeks, set[idx].ImagePoint(), axes); err != nil {
			return m, err
		}
	}
	defer m.Close()

	return Blur(m, CheekBlurKernel, CheekBlurSigma), nil
}

// EyeMask fills both eyes and dilates them to cover the lashes
func EyeMask(set detector.LandmarkSet, width, height int) (gocv.Mat, error) {
	return dilatedPair(set, width, height, RegionEyes, detector.LeftEye, detector.RightEye, EyeDilation)
}

// EyebrowMask fills both eyebrows and dilates them to take in the lashes
// below. It is not part of the catalog; callers build it on demand.
func EyebrowMask(set detector.LandmarkSet, width, height int) (gocv.Mat, error) {
	if err := Check(set); err != nil {
		return gocv.NewMat(), err
	}
	return dilatedPair(set, width, height, RegionEyebrows, detector.LeftEyebrow, detector.RightEyebrow, EyebrowDilation)
}

// dilatedPair fills two polygons and dilates the union once. One degenerate
// polygon does not stop the other from being drawn.
func dilatedPair(set detector.LandmarkSet, width, height int, region Region, left, right []int, size int) (gocv.Mat, error) {
	m := Empty(width, height)
	defer m.Close()

	errLeft := FillPolygon(&m, region, set.ImagePoints(left))
	errRight := FillPolygon(&m, region, set.ImagePoints(right))

	out := Dilate(m, Ellipse, size, 1)
	if errLeft != nil && errRight != nil {
		return out, errLeft
	}
	return out, nil
}
