package effects

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dudu/retouch/internal/composite"
)

func TestPaletteLookupFallsBack(t *testing.T) {
	assert.Equal(t, composite.BGR{B: 80, G: 30, R: 139}, Lipstick.Lookup("wine"))
	assert.Equal(t, Lipstick.Lookup("red"), Lipstick.Lookup("teal"))
	assert.Equal(t, Blush.Lookup("pink"), Blush.Lookup("wine"))
}

func TestParseColor(t *testing.T) {
	tests := []struct {
		in      string
		palette Palette
		want    composite.BGR
	}{
		{"red", Lipstick, composite.BGR{B: 0, G: 0, R: 200}},
		{" Coral ", Lipstick, composite.BGR{B: 80, G: 127, R: 255}},
		{"coral", Blush, composite.BGR{B: 100, G: 140, R: 255}},
		{"#ff8000", Blush, composite.BGR{B: 0, G: 128, R: 255}},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			c, err := ParseColor(tt.palette, tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, c.Resolve(tt.palette))
		})
	}
}

func TestParseColorUnknownNameFallsBack(t *testing.T) {
	c, err := ParseColor(Blush, "wine")
	require.NoError(t, err)
	assert.False(t, Blush.Has(c.Shade))
	assert.Equal(t, Blush.Lookup("pink"), c.Resolve(Blush))

	c, err = ParseColor(Lipstick, "Teal")
	require.NoError(t, err)
	assert.Equal(t, Lipstick.Lookup("red"), c.Resolve(Lipstick))
}

func TestParseColorRejectsBadHex(t *testing.T) {
	for _, in := range []string{"#zzzzzz", "#12345", "#"} {
		_, err := ParseColor(Lipstick, in)
		assert.Error(t, err, in)
	}
}

func TestColorString(t *testing.T) {
	assert.Equal(t, "mauve", Named("mauve").String())
	assert.Equal(t, "#c80000", Custom(composite.BGR{R: 200}).String())
}

func TestPaletteNamesSorted(t *testing.T) {
	assert.Equal(t, []string{"bronze", "coral", "mauve", "peach", "pink", "rose"}, Blush.Names())
	assert.Len(t, Lipstick.Names(), 8)
}
