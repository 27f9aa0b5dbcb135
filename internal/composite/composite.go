// Package composite blends effect layers back onto a base image.
//
// All operations work on 8-bit BGR Mats and return new Mats; inputs are
// never modified. Intermediate values are kept in floating point and only
// rounded and clamped to [0,255] at the end.
package composite

import (
	"errors"
	"fmt"
	"image/color"
	"math"

	"gocv.io/x/gocv"

	"github.com/dudu/retouch/internal/matutil"
)

// ErrShape is returned when blend operands differ in size or type
var ErrShape = errors.New("composite: operand shape mismatch")

// BGR is an 8-bit color in OpenCV channel order
type BGR struct {
	B, G, R uint8
}

// RGBA converts to a Go color
func (c BGR) RGBA() color.RGBA {
	return color.RGBA{R: c.R, G: c.G, B: c.B, A: 255}
}

// Scalar converts to a gocv scalar
func (c BGR) Scalar() gocv.Scalar {
	return gocv.NewScalar(float64(c.B), float64(c.G), float64(c.R), 0)
}

// FromRGBA converts a Go color, ignoring alpha
func FromRGBA(c color.Color) BGR {
	n := color.NRGBAModel.Convert(c).(color.NRGBA)
	return BGR{B: n.B, G: n.G, R: n.R}
}

// AlphaBlend mixes effect into base with per-pixel weight mask/255*alpha.
// alpha is clamped to [0,1]; a zero mask pixel keeps the base pixel exactly.
// The blend runs in float32 and saturates once on the way back to 8 bits.
func AlphaBlend(base, effect, mask gocv.Mat, alpha float64) (gocv.Mat, error) {
	if !matutil.SameShape(base, effect) {
		return gocv.NewMat(), fmt.Errorf("%w: base %dx%d, effect %dx%d", ErrShape, base.Cols(), base.Rows(), effect.Cols(), effect.Rows())
	}
	if mask.Rows() != base.Rows() || mask.Cols() != base.Cols() || mask.Type() != gocv.MatTypeCV8U {
		return gocv.NewMat(), fmt.Errorf("%w: mask %dx%d type %v", ErrShape, mask.Cols(), mask.Rows(), mask.Type())
	}
	alpha = clamp(alpha, 0, 1)

	b := gocv.NewMat()
	defer b.Close()
	base.ConvertTo(&b, gocv.MatTypeCV32F)

	e := gocv.NewMat()
	defer e.Close()
	effect.ConvertTo(&e, gocv.MatTypeCV32F)

	// one weight plane per channel
	w := gocv.NewMat()
	defer w.Close()
	mask.ConvertToWithParams(&w, gocv.MatTypeCV32F, float32(alpha/255), 0)
	weights := gocv.NewMat()
	defer weights.Close()
	planes := make([]gocv.Mat, base.Channels())
	for i := range planes {
		planes[i] = w
	}
	gocv.Merge(planes, &weights)

	// base + (effect-base)*w
	diff := gocv.NewMat()
	defer diff.Close()
	gocv.Subtract(e, b, &diff)
	gocv.Multiply(diff, weights, &diff)
	gocv.Add(b, diff, &b)

	out := gocv.NewMat()
	b.ConvertTo(&out, base.Type())
	return out, nil
}

// SoftLight blends one channel value s against color channel c
func SoftLight(s, c float64) float64 {
	if s < 128 {
		return 2 * s * c / 255
	}
	return 255 - 2*(255-s)*(255-c)/255
}

// SoftLightFlat applies SoftLight to every pixel of a BGR image against a
// single flat color
func SoftLightFlat(img gocv.Mat, c BGR) (gocv.Mat, error) {
	if img.Type() != gocv.MatTypeCV8UC3 {
		return gocv.NewMat(), fmt.Errorf("%w: soft light needs BGR, got %v", ErrShape, img.Type())
	}

	// 1x256 three-channel table; LUT maps each channel through its own plane
	table := make([]byte, 256*3)
	for i, cv := range [3]uint8{c.B, c.G, c.R} {
		for v := 0; v < 256; v++ {
			table[v*3+i] = toByte(SoftLight(float64(v), float64(cv)))
		}
	}
	lut, err := matutil.FromBytes(1, 256, gocv.MatTypeCV8UC3, table)
	if err != nil {
		return gocv.NewMat(), err
	}
	defer lut.Close()

	out := gocv.NewMat()
	gocv.LUT(img, lut, &out)
	return out, nil
}

// Weighted returns a*wa + b*wb per channel, rounded and saturated once
func Weighted(a gocv.Mat, wa float64, b gocv.Mat, wb float64) (gocv.Mat, error) {
	if !matutil.SameShape(a, b) {
		return gocv.NewMat(), ErrShape
	}
	out := gocv.NewMat()
	gocv.AddWeighted(a, wa, b, wb, 0, &out)
	return out, nil
}

func toByte(v float64) byte {
	return byte(clamp(math.Round(v), 0, 255))
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
