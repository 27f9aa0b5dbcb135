package effects

import (
	"image"

	"gocv.io/x/gocv"

	"github.com/dudu/retouch/internal/composite"
)

// Unsharp mask tuning
const (
	SharpenMinAmount = 0.5
	SharpenMaxAmount = 2.0
	SharpenSigma     = 3
)

// Sharpen applies an unsharp mask inside region
func Sharpen(img, region gocv.Mat, intensity int) (gocv.Mat, error) {
	if intensity <= 0 {
		return identity(img)
	}

	blurred := gocv.NewMat()
	defer blurred.Close()
	gocv.GaussianBlur(img, &blurred, image.Pt(0, 0), SharpenSigma, SharpenSigma, gocv.BorderDefault)

	amount := lerp(SharpenMinAmount, SharpenMaxAmount, intensity)
	sharp, err := composite.Weighted(img, 1+amount, blurred, -amount)
	if err != nil {
		return gocv.NewMat(), err
	}
	defer sharp.Close()

	return composite.AlphaBlend(img, sharp, region, 1)
}
