// Package effects implements the cosmetic operations applied by the
// retouching pipeline.
//
// Each effect takes the current image and returns a new Mat; the input is
// never modified. An intensity of zero returns an exact copy of the input.
package effects

import (
	"gocv.io/x/gocv"
)

// MaxIntensity is the top of the 0..100 slider scale
const MaxIntensity = 100

// ClampIntensity pins i into [0, MaxIntensity]
func ClampIntensity(i int) int {
	return min(MaxIntensity, max(0, i))
}

// fraction maps intensity to [0,1]
func fraction(i int) float64 {
	return float64(ClampIntensity(i)) / MaxIntensity
}

// lerp interpolates linearly between lo and hi by intensity
func lerp(lo, hi float64, i int) float64 {
	return lo + fraction(i)*(hi-lo)
}

func identity(img gocv.Mat) (gocv.Mat, error) {
	return img.Clone(), nil
}
