// Package codec reads and writes portrait images as 8-bit BGR Mats.
package codec

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	"gocv.io/x/gocv"

	"github.com/dudu/retouch/internal/matutil"
)

var (
	// ErrDecode is returned when bytes cannot be decoded as an image
	ErrDecode = errors.New("codec: cannot decode image")
	// ErrEncode is returned when an image cannot be encoded
	ErrEncode = errors.New("codec: cannot encode image")
)

// Format is an output encoding
type Format string

const (
	JPEG Format = "jpeg"
	PNG  Format = "png"
)

// JPEGQuality is used for every JPEG write
const JPEGQuality = 95

// FormatFromPath picks the output format by file extension
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".jpg", ".jpeg":
		return JPEG, nil
	case ".png":
		return PNG, nil
	}
	return "", fmt.Errorf("%w: unsupported extension %q", ErrEncode, filepath.Ext(path))
}

// Decode turns encoded bytes into a BGR Mat. OpenCV handles the common
// formats; anything it rejects gets a second try through imaging, which also
// applies EXIF orientation.
func Decode(data []byte) (gocv.Mat, error) {
	if len(data) == 0 {
		return gocv.NewMat(), fmt.Errorf("%w: no data", ErrDecode)
	}

	img, err := gocv.IMDecode(data, gocv.IMReadColor)
	if err == nil && !img.Empty() {
		return img, nil
	}
	img.Close()

	fallback, ferr := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if ferr != nil {
		return gocv.NewMat(), fmt.Errorf("%w: %v", ErrDecode, ferr)
	}

	m, err := matutil.FromImage(fallback)
	if err != nil {
		return gocv.NewMat(), fmt.Errorf("%w: %v", ErrDecode, err)
	}
	return m, nil
}

// Encode writes img in the given format
func Encode(img gocv.Mat, format Format) ([]byte, error) {
	if img.Empty() {
		return nil, fmt.Errorf("%w: empty image", ErrEncode)
	}

	var buf *gocv.NativeByteBuffer
	var err error
	switch format {
	case JPEG:
		buf, err = gocv.IMEncodeWithParams(gocv.JPEGFileExt, img, []int{int(gocv.IMWriteJpegQuality), JPEGQuality})
	case PNG:
		buf, err = gocv.IMEncode(gocv.PNGFileExt, img)
	default:
		return nil, fmt.Errorf("%w: unknown format %q", ErrEncode, format)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEncode, err)
	}
	defer buf.Close()

	out := make([]byte, buf.Len())
	copy(out, buf.GetBytes())
	return out, nil
}

// ReadFile decodes the image at path
func ReadFile(path string) (gocv.Mat, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return gocv.NewMat(), fmt.Errorf("read %s: %w", path, err)
	}
	return Decode(data)
}

// WriteFile encodes img by the extension of path and writes it. It returns
// the number of bytes written.
func WriteFile(path string, img gocv.Mat) (int, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return 0, err
	}
	data, err := Encode(img, format)
	if err != nil {
		return 0, err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return 0, fmt.Errorf("write %s: %w", path, err)
	}
	return len(data), nil
}
