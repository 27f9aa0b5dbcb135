package codec

import (
	"bytes"
	"image"
	"image/color"
	"image/gif"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gocv.io/x/gocv"

	"github.com/dudu/retouch/internal/facetest"
	"github.com/dudu/retouch/internal/matutil"
)

func TestPNGRoundTripIsLossless(t *testing.T) {
	img := facetest.Portrait(64, 80)
	defer img.Close()

	data, err := Encode(img, PNG)
	require.NoError(t, err)

	back, err := Decode(data)
	require.NoError(t, err)
	defer back.Close()

	assert.True(t, matutil.Equal(img, back))
}

func TestJPEGKeepsShape(t *testing.T) {
	img := facetest.Portrait(64, 80)
	defer img.Close()

	data, err := Encode(img, JPEG)
	require.NoError(t, err)

	back, err := Decode(data)
	require.NoError(t, err)
	defer back.Close()

	assert.True(t, matutil.SameShape(img, back))
}

func TestDecodeFallsBackToImaging(t *testing.T) {
	pal := color.Palette{color.RGBA{A: 255}, color.RGBA{R: 255, A: 255}}
	src := image.NewPaletted(image.Rect(0, 0, 8, 6), pal)
	src.SetColorIndex(3, 2, 1)

	var buf bytes.Buffer
	require.NoError(t, gif.Encode(&buf, src, nil))

	m, err := Decode(buf.Bytes())
	require.NoError(t, err)
	defer m.Close()

	assert.Equal(t, 6, m.Rows())
	assert.Equal(t, 8, m.Cols())
	assert.Equal(t, gocv.MatTypeCV8UC3, m.Type())
	v := m.GetVecbAt(2, 3)
	assert.Equal(t, []uint8{0, 0, 255}, []uint8{v[0], v[1], v[2]})
}

func TestDecodeRejectsGarbage(t *testing.T) {
	_, err := Decode([]byte("not an image"))
	assert.ErrorIs(t, err, ErrDecode)

	_, err = Decode(nil)
	assert.ErrorIs(t, err, ErrDecode)
}

func TestEncodeRejectsEmpty(t *testing.T) {
	empty := gocv.NewMat()
	defer empty.Close()

	_, err := Encode(empty, PNG)
	assert.ErrorIs(t, err, ErrEncode)
}

func TestFormatFromPath(t *testing.T) {
	f, err := FormatFromPath("out/Portrait.JPG")
	require.NoError(t, err)
	assert.Equal(t, JPEG, f)

	f, err = FormatFromPath("mask.png")
	require.NoError(t, err)
	assert.Equal(t, PNG, f)

	_, err = FormatFromPath("notes.txt")
	assert.ErrorIs(t, err, ErrEncode)
}

func TestWriteAndReadFile(t *testing.T) {
	img := facetest.Portrait(32, 40)
	defer img.Close()
	path := filepath.Join(t.TempDir(), "face.png")

	n, err := WriteFile(path, img)
	require.NoError(t, err)
	assert.Positive(t, n)

	back, err := ReadFile(path)
	require.NoError(t, err)
	defer back.Close()
	assert.True(t, matutil.Equal(img, back))

	_, err = ReadFile(filepath.Join(t.TempDir(), "missing.png"))
	assert.Error(t, err)
}
