package effects

import (
	"fmt"
	"math"

	"gocv.io/x/gocv"

	"github.com/dudu/retouch/internal/composite"
)

// Colorization tuning
const (
	LipSaturationBoost   = 0.3
	CheekSaturationBoost = 0.2

	LipstickAlphaScale = 1.5
	BlushAlphaScale    = 1.0
)

// ApplyLipstick tints the lips with c
func ApplyLipstick(img, lips gocv.Mat, c composite.BGR, intensity int) (gocv.Mat, error) {
	return colorize(img, lips, c, intensity, LipSaturationBoost, LipstickAlphaScale)
}

// ApplyBlush tints the cheeks with c
func ApplyBlush(img, cheeks gocv.Mat, c composite.BGR, intensity int) (gocv.Mat, error) {
	return colorize(img, cheeks, c, intensity, CheekSaturationBoost, BlushAlphaScale)
}

// colorize boosts saturation under the mask, soft-lights the result against
// a flat color and blends it back over the unboosted image
func colorize(img, m gocv.Mat, c composite.BGR, intensity int, boost, scale float64) (gocv.Mat, error) {
	if intensity <= 0 {
		return identity(img)
	}

	saturated, err := BoostSaturation(img, m, boost)
	if err != nil {
		return gocv.NewMat(), err
	}
	defer saturated.Close()

	tinted, err := composite.SoftLightFlat(saturated, c)
	if err != nil {
		return gocv.NewMat(), err
	}
	defer tinted.Close()

	alpha := math.Min(fraction(intensity)*scale, 1)
	return composite.AlphaBlend(img, tinted, m, alpha)
}

// BoostSaturation multiplies HSV saturation by 1 + boost*mask/255
func BoostSaturation(img, m gocv.Mat, boost float64) (gocv.Mat, error) {
	hsv := gocv.NewMat()
	defer hsv.Close()
	gocv.CvtColor(img, &hsv, gocv.ColorBGRToHSV)

	planes := gocv.Split(hsv)
	defer func() {
		for _, p := range planes {
			p.Close()
		}
	}()
	if len(planes) != 3 {
		return gocv.NewMat(), fmt.Errorf("boost saturation: want 3 channels, got %d", len(planes))
	}

	factor := gocv.NewMat()
	defer factor.Close()
	m.ConvertToWithParams(&factor, gocv.MatTypeCV32F, float32(boost/255), 1)

	sat := gocv.NewMat()
	defer sat.Close()
	planes[1].ConvertTo(&sat, gocv.MatTypeCV32F)
	gocv.Multiply(sat, factor, &sat)
	sat.ConvertTo(&planes[1], gocv.MatTypeCV8U)

	boosted := gocv.NewMat()
	defer boosted.Close()
	gocv.Merge(planes, &boosted)

	out := gocv.NewMat()
	gocv.CvtColor(boosted, &out, gocv.ColorHSVToBGR)
	return out, nil
}
