package effects

import (
	"image"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gocv.io/x/gocv"

	"github.com/dudu/retouch/internal/composite"
	"github.com/dudu/retouch/internal/facetest"
	"github.com/dudu/retouch/internal/mask"
	"github.com/dudu/retouch/internal/matutil"
)

type scene struct {
	img     gocv.Mat
	catalog *mask.Catalog
	brows   gocv.Mat
}

func newScene(t *testing.T) scene {
	t.Helper()
	img := facetest.Portrait(facetest.Width, facetest.Height)
	c, err := mask.NewGenerator(zerolog.Nop()).Generate(facetest.Landmarks(), facetest.Width, facetest.Height)
	require.NoError(t, err)
	brows, err := mask.EyebrowMask(facetest.Landmarks(), facetest.Width, facetest.Height)
	require.NoError(t, err)

	t.Cleanup(func() {
		img.Close()
		c.Close()
		brows.Close()
	})
	return scene{img: img, catalog: c, brows: brows}
}

func pixel(m gocv.Mat, p image.Point) composite.BGR {
	v := m.GetVecbAt(p.Y, p.X)
	return composite.BGR{B: v[0], G: v[1], R: v[2]}
}

func dist2(a, b composite.BGR) int {
	db, dg, dr := int(a.B)-int(b.B), int(a.G)-int(b.G), int(a.R)-int(b.R)
	return db*db + dg*dg + dr*dr
}

// unchangedOutside asserts out equals in wherever m is zero
func unchangedOutside(t *testing.T, in, out, m gocv.Mat) {
	t.Helper()
	for y := 0; y < m.Rows(); y++ {
		for x := 0; x < m.Cols(); x++ {
			if m.GetUCharAt(y, x) == 0 {
				p := image.Pt(x, y)
				require.Equal(t, pixel(in, p), pixel(out, p), "(%d,%d)", x, y)
			}
		}
	}
}

func TestZeroIntensityIsIdentity(t *testing.T) {
	s := newScene(t)
	red := Lipstick.Lookup("red")

	run := map[string]func() (gocv.Mat, error){
		"smooth":   func() (gocv.Mat, error) { return Smooth(s.img, s.catalog.Face, s.catalog.Eyes, 0) },
		"lipstick": func() (gocv.Mat, error) { return ApplyLipstick(s.img, s.catalog.Lips, red, 0) },
		"blush":    func() (gocv.Mat, error) { return ApplyBlush(s.img, s.catalog.Cheeks, red, 0) },
		"sharpen":  func() (gocv.Mat, error) { return Sharpen(s.img, s.brows, 0) },
		"blemish":  func() (gocv.Mat, error) { return RemoveBlemishes(s.img, nil) },
	}

	for name, fn := range run {
		t.Run(name, func(t *testing.T) {
			out, err := fn()
			require.NoError(t, err)
			defer out.Close()
			assert.True(t, matutil.Equal(s.img, out))
		})
	}
}

func TestSmoothStaysOnSkin(t *testing.T) {
	s := newScene(t)
	g := facetest.DefaultGeometry()

	out, err := Smooth(s.img, s.catalog.Face, s.catalog.Eyes, 80)
	require.NoError(t, err)
	defer out.Close()

	m := SmoothingMask(s.catalog.Face, s.catalog.Eyes)
	defer m.Close()

	assert.Greater(t, matutil.CountDiff(s.img, out), 0)
	unchangedOutside(t, s.img, out, m)
	assert.Equal(t, pixel(s.img, g.LeftEye.Center()), pixel(out, g.LeftEye.Center()))
	assert.Equal(t, pixel(s.img, g.RightEye.Center()), pixel(out, g.RightEye.Center()))
}

func TestLipstickMovesLipsTowardColor(t *testing.T) {
	s := newScene(t)
	g := facetest.DefaultGeometry()
	red := Lipstick.Lookup("red")
	onLip := image.Pt(200, 326)

	out, err := ApplyLipstick(s.img, s.catalog.Lips, red, 60)
	require.NoError(t, err)
	defer out.Close()

	assert.Less(t, dist2(pixel(out, onLip), red), dist2(pixel(s.img, onLip), red))
	unchangedOutside(t, s.img, out, s.catalog.Lips)
	// teeth stay untouched
	assert.Equal(t, pixel(s.img, g.InnerLips.Center()), pixel(out, g.InnerLips.Center()))
}

func TestBlushTouchesCheeks(t *testing.T) {
	s := newScene(t)
	g := facetest.DefaultGeometry()

	out, err := ApplyBlush(s.img, s.catalog.Cheeks, Blush.Lookup("pink"), 50)
	require.NoError(t, err)
	defer out.Close()

	assert.NotEqual(t, pixel(s.img, g.LeftCheek), pixel(out, g.LeftCheek))
	unchangedOutside(t, s.img, out, s.catalog.Cheeks)
}

func TestSharpenStaysOnBrows(t *testing.T) {
	s := newScene(t)

	out, err := Sharpen(s.img, s.brows, 100)
	require.NoError(t, err)
	defer out.Close()

	assert.Greater(t, matutil.CountDiff(s.img, out), 0)
	unchangedOutside(t, s.img, out, s.brows)
}

func TestEffectsDoNotMutateInput(t *testing.T) {
	s := newScene(t)
	before := s.img.Clone()
	defer before.Close()

	out, err := Smooth(s.img, s.catalog.Face, s.catalog.Eyes, 100)
	require.NoError(t, err)
	out.Close()
	out, err = ApplyLipstick(s.img, s.catalog.Lips, Lipstick.Lookup("wine"), 100)
	require.NoError(t, err)
	out.Close()

	assert.True(t, matutil.Equal(before, s.img))
}

func TestOrderMatters(t *testing.T) {
	s := newScene(t)
	red := Lipstick.Lookup("red")

	smoothed, err := Smooth(s.img, s.catalog.Face, s.catalog.Eyes, 100)
	require.NoError(t, err)
	defer smoothed.Close()
	a, err := ApplyLipstick(smoothed, s.catalog.Lips, red, 100)
	require.NoError(t, err)
	defer a.Close()

	tinted, err := ApplyLipstick(s.img, s.catalog.Lips, red, 100)
	require.NoError(t, err)
	defer tinted.Close()
	b, err := Smooth(tinted, s.catalog.Face, s.catalog.Eyes, 100)
	require.NoError(t, err)
	defer b.Close()

	assert.False(t, matutil.Equal(a, b))
}

func TestRemoveBlemishes(t *testing.T) {
	s := newScene(t)
	p := image.Pt(200, 260)

	out, err := RemoveBlemishes(s.img, []image.Point{p})
	require.NoError(t, err)
	defer out.Close()

	disk := mask.Disk(facetest.Width, facetest.Height, p, BlemishRadius)
	defer disk.Close()

	assert.Greater(t, matutil.CountDiff(s.img, out), 0)
	unchangedOutside(t, s.img, out, disk)
}

func TestRemoveBlemishesFarApartCommute(t *testing.T) {
	s := newScene(t)
	a, b := image.Pt(120, 240), image.Pt(280, 380)

	ab, err := RemoveBlemishes(s.img, []image.Point{a, b})
	require.NoError(t, err)
	defer ab.Close()
	ba, err := RemoveBlemishes(s.img, []image.Point{b, a})
	require.NoError(t, err)
	defer ba.Close()

	assert.True(t, matutil.Equal(ab, ba))
}

func TestIntensityHelpers(t *testing.T) {
	assert.Equal(t, 0, ClampIntensity(-5))
	assert.Equal(t, 100, ClampIntensity(250))
	assert.Equal(t, 5.0, lerp(5, 15, 0))
	assert.Equal(t, 15.0, lerp(5, 15, 100))
	assert.Equal(t, 10.0, lerp(5, 15, 50))
}
