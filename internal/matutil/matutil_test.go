package matutil

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gocv.io/x/gocv"
)

func TestImageRoundTrip(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 3, 2))
	src.Set(0, 0, color.NRGBA{R: 10, G: 20, B: 30, A: 255})
	src.Set(2, 1, color.NRGBA{R: 200, G: 100, B: 50, A: 255})

	m, err := FromImage(src)
	require.NoError(t, err)
	defer m.Close()

	assert.Equal(t, gocv.MatTypeCV8UC3, m.Type())
	v := m.GetVecbAt(0, 0)
	assert.Equal(t, []uint8{30, 20, 10}, []uint8{v[0], v[1], v[2]})

	back, err := ToImage(m)
	require.NoError(t, err)
	r, g, b, _ := back.At(2, 1).RGBA()
	assert.Equal(t, []uint32{200, 100, 50}, []uint32{r >> 8, g >> 8, b >> 8})
}

func TestToImageGray(t *testing.T) {
	m := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(77, 0, 0, 0), 2, 2, gocv.MatTypeCV8U)
	defer m.Close()

	img, err := ToImage(m)
	require.NoError(t, err)
	assert.Equal(t, color.Gray{Y: 77}, img.At(1, 1))
}

func TestCountDiff(t *testing.T) {
	a := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(1, 2, 3, 0), 4, 4, gocv.MatTypeCV8UC3)
	defer a.Close()
	same := a.Clone()
	defer same.Close()
	assert.True(t, Equal(a, same))

	buf := a.ToBytes()
	buf[(1*4+1)*3] = 9 // row 1, column 1, blue
	b, err := FromBytes(4, 4, gocv.MatTypeCV8UC3, buf)
	require.NoError(t, err)
	defer b.Close()

	assert.Equal(t, 1, CountDiff(a, b))
	assert.False(t, Equal(a, b))

	c := gocv.NewMatWithSize(3, 4, gocv.MatTypeCV8UC3)
	defer c.Close()
	assert.Equal(t, -1, CountDiff(a, c))
}
