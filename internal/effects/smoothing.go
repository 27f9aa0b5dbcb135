package effects

import (
	"gocv.io/x/gocv"

	"github.com/dudu/retouch/internal/composite"
	"github.com/dudu/retouch/internal/mask"
)

// Bilateral filter range, interpolated by intensity
const (
	SmoothingMinDiameter = 5
	SmoothingMaxDiameter = 15
	SmoothingMinSigma    = 10
	SmoothingMaxSigma    = 75

	SmoothingFeather = 15
)

// SmoothingMask is the face minus the eyes, feathered
func SmoothingMask(face, eyes gocv.Mat) gocv.Mat {
	skin := mask.Subtract(face, eyes)
	defer skin.Close()
	return mask.Feather(skin, SmoothingFeather)
}

// Smooth runs an edge-preserving bilateral filter over the skin, leaving the
// eyes sharp
func Smooth(img, face, eyes gocv.Mat, intensity int) (gocv.Mat, error) {
	if intensity <= 0 {
		return identity(img)
	}

	d := int(lerp(SmoothingMinDiameter, SmoothingMaxDiameter, intensity))
	sigma := float64(int(lerp(SmoothingMinSigma, SmoothingMaxSigma, intensity)))

	smoothed := gocv.NewMat()
	defer smoothed.Close()
	gocv.BilateralFilter(img, &smoothed, d, sigma, sigma)

	m := SmoothingMask(face, eyes)
	defer m.Close()

	return composite.AlphaBlend(img, smoothed, m, fraction(intensity))
}
