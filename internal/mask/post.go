package mask

import (
	"image"
	"image/color"
	"math"

	"gocv.io/x/gocv"
)

var white = color.RGBA{R: 255, G: 255, B: 255, A: 255}

// Empty returns an all-zero single-channel mask
func Empty(width, height int) gocv.Mat {
	return gocv.NewMatWithSizeFromScalar(gocv.NewScalar(0, 0, 0, 0), height, width, gocv.MatTypeCV8U)
}

// Feather blurs mask edges with a k×k Gaussian. Even k is bumped to k+1.
func Feather(mask gocv.Mat, k int) gocv.Mat {
	if k%2 == 0 {
		k++
	}
	dst := gocv.NewMat()
	gocv.GaussianBlur(mask, &dst, image.Pt(k, k), 0, 0, gocv.BorderDefault)
	return dst
}

// Blur feathers with an explicit sigma
func Blur(mask gocv.Mat, k int, sigma float64) gocv.Mat {
	if k%2 == 0 {
		k++
	}
	dst := gocv.NewMat()
	gocv.GaussianBlur(mask, &dst, image.Pt(k, k), sigma, sigma, gocv.BorderDefault)
	return dst
}

// Kernel shapes for Erode and Dilate
const (
	Square  = gocv.MorphRect
	Ellipse = gocv.MorphEllipse
)

// Erode shrinks the mask with a size×size kernel, iterations times
func Erode(mask gocv.Mat, shape gocv.MorphShape, size, iterations int) gocv.Mat {
	kernel := gocv.GetStructuringElement(shape, image.Pt(size, size))
	defer kernel.Close()

	dst := mask.Clone()
	for i := 0; i < iterations; i++ {
		gocv.Erode(dst, &dst, kernel)
	}
	return dst
}

// Dilate grows the mask with a size×size kernel, iterations times
func Dilate(mask gocv.Mat, shape gocv.MorphShape, size, iterations int) gocv.Mat {
	kernel := gocv.GetStructuringElement(shape, image.Pt(size, size))
	defer kernel.Close()

	dst := mask.Clone()
	for i := 0; i < iterations; i++ {
		gocv.Dilate(dst, &dst, kernel)
	}
	return dst
}

// Subtract returns a - b, saturating at zero
func Subtract(a, b gocv.Mat) gocv.Mat {
	dst := gocv.NewMat()
	gocv.Subtract(a, b, &dst)
	return dst
}

// Exclude zeroes mask wherever region is non-zero
func Exclude(mask, region gocv.Mat) gocv.Mat {
	keep := gocv.NewMat()
	defer keep.Close()
	gocv.Threshold(region, &keep, 0, 255, gocv.ThresholdBinaryInv)

	dst := gocv.NewMat()
	gocv.BitwiseAnd(mask, keep, &dst)
	return dst
}

// FillPolygon fills pts into dst with 255. A polygon enclosing less than one
// square pixel is rejected with a GeometryError and dst is left untouched.
func FillPolygon(dst *gocv.Mat, region Region, pts []image.Point) error {
	if area := polygonArea(pts); area < 1 {
		return &GeometryError{Region: region, Area: area}
	}
	pv := gocv.NewPointsVectorFromPoints([][]image.Point{pts})
	defer pv.Close()
	gocv.FillPoly(dst, pv, white)
	return nil
}

// FillEllipse fills an axis-aligned ellipse into dst with 255
func FillEllipse(dst *gocv.Mat, region Region, center, axes image.Point) error {
	if axes.X <= 0 || axes.Y <= 0 {
		return &GeometryError{Region: region, Area: math.Pi * float64(axes.X) * float64(axes.Y)}
	}
	gocv.Ellipse(dst, center, axes, 0, 0, 360, white, -1)
	return nil
}

// Disk returns a mask holding one filled circle
func Disk(width, height int, center image.Point, radius int) gocv.Mat {
	m := Empty(width, height)
	gocv.Circle(&m, center, radius, white, -1)
	return m
}

// polygonArea is the shoelace area of a closed polygon
func polygonArea(pts []image.Point) float64 {
	if len(pts) < 3 {
		return 0
	}
	var sum int
	for i := range pts {
		j := (i + 1) % len(pts)
		sum += pts[i].X*pts[j].Y - pts[j].X*pts[i].Y
	}
	return math.Abs(float64(sum)) / 2
}
