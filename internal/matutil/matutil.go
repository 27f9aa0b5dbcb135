// Package matutil holds small conversions between gocv Mats, raw pixel
// buffers and Go images.
package matutil

import (
	"bytes"
	"fmt"
	"image"
	"image/color"

	"gocv.io/x/gocv"
)

// FromBytes builds a Mat that owns a copy of buf
func FromBytes(rows, cols int, mt gocv.MatType, buf []byte) (gocv.Mat, error) {
	tmp, err := gocv.NewMatFromBytes(rows, cols, mt, buf)
	if err != nil {
		return gocv.NewMat(), fmt.Errorf("mat from bytes: %w", err)
	}
	defer tmp.Close()
	return tmp.Clone(), nil
}

// SameShape reports whether two Mats have equal size and type
func SameShape(a, b gocv.Mat) bool {
	return a.Rows() == b.Rows() && a.Cols() == b.Cols() && a.Type() == b.Type()
}

// Equal reports whether two Mats hold identical pixels
func Equal(a, b gocv.Mat) bool {
	if !SameShape(a, b) {
		return false
	}
	return bytes.Equal(a.ToBytes(), b.ToBytes())
}

// CountDiff returns how many pixels differ in at least one channel
func CountDiff(a, b gocv.Mat) int {
	if !SameShape(a, b) {
		return -1
	}
	ab, bb := a.ToBytes(), b.ToBytes()
	ch := a.Channels()
	n := 0
	for i := 0; i < len(ab); i += ch {
		if !bytes.Equal(ab[i:i+ch], bb[i:i+ch]) {
			n++
		}
	}
	return n
}

// ToImage converts an 8-bit BGR or grayscale Mat into a Go image
func ToImage(m gocv.Mat) (image.Image, error) {
	rows, cols := m.Rows(), m.Cols()
	data := m.ToBytes()

	switch m.Type() {
	case gocv.MatTypeCV8UC1:
		img := image.NewGray(image.Rect(0, 0, cols, rows))
		copy(img.Pix, data)
		return img, nil
	case gocv.MatTypeCV8UC3:
		img := image.NewRGBA(image.Rect(0, 0, cols, rows))
		for i, j := 0, 0; i < len(data); i, j = i+3, j+4 {
			img.Pix[j] = data[i+2]
			img.Pix[j+1] = data[i+1]
			img.Pix[j+2] = data[i]
			img.Pix[j+3] = 0xff
		}
		return img, nil
	default:
		return nil, fmt.Errorf("unsupported mat type %v", m.Type())
	}
}

// FromImage converts any Go image into an 8-bit BGR Mat, dropping alpha
func FromImage(img image.Image) (gocv.Mat, error) {
	b := img.Bounds()
	buf := make([]byte, 0, b.Dx()*b.Dy()*3)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			c := color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
			buf = append(buf, c.B, c.G, c.R)
		}
	}
	return FromBytes(b.Dy(), b.Dx(), gocv.MatTypeCV8UC3, buf)
}
