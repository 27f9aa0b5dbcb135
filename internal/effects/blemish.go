package effects

import (
	"image"

	"gocv.io/x/gocv"

	"github.com/dudu/retouch/internal/mask"
)

// Blemish removal geometry
const (
	BlemishRadius = 8
	InpaintRadius = 3
)

// RemoveBlemishes inpaints a disk of BlemishRadius around each point in turn.
// Each point sees the output of the previous one.
func RemoveBlemishes(img gocv.Mat, points []image.Point) (gocv.Mat, error) {
	result := img.Clone()
	for _, p := range points {
		next := removeBlemish(result, p)
		result.Close()
		result = next
	}
	return result, nil
}

func removeBlemish(img gocv.Mat, p image.Point) gocv.Mat {
	m := mask.Disk(img.Cols(), img.Rows(), p, BlemishRadius)
	defer m.Close()

	dst := gocv.NewMat()
	gocv.Inpaint(img, m, &dst, InpaintRadius, gocv.Telea)
	return dst
}
