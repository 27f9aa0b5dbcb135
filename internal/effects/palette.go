package effects

import (
	"fmt"
	"sort"
	"strings"

	colorful "github.com/lucasb-eyer/go-colorful"

	"github.com/dudu/retouch/internal/composite"
)

// Shade names a palette entry
type Shade string

// Palette is a closed set of named shades with a fallback
type Palette struct {
	Name     string
	Shades   map[Shade]composite.BGR
	Fallback Shade
}

// Lipstick shades
var Lipstick = Palette{
	Name: "lipstick",
	Shades: map[Shade]composite.BGR{
		"red":    {B: 0, G: 0, R: 200},
		"pink":   {B: 180, G: 100, R: 255},
		"coral":  {B: 80, G: 127, R: 255},
		"berry":  {B: 128, G: 0, R: 128},
		"nude":   {B: 120, G: 140, R: 180},
		"wine":   {B: 80, G: 30, R: 139},
		"orange": {B: 0, G: 140, R: 255},
		"mauve":  {B: 170, G: 120, R: 200},
	},
	Fallback: "red",
}

// Blush shades
var Blush = Palette{
	Name: "blush",
	Shades: map[Shade]composite.BGR{
		"pink":   {B: 180, G: 100, R: 255},
		"peach":  {B: 140, G: 180, R: 255},
		"coral":  {B: 100, G: 140, R: 255},
		"rose":   {B: 150, G: 100, R: 200},
		"bronze": {B: 80, G: 120, R: 180},
		"mauve":  {B: 180, G: 130, R: 200},
	},
	Fallback: "pink",
}

// Names returns the shade names in alphabetical order
func (p Palette) Names() []string {
	names := make([]string, 0, len(p.Shades))
	for s := range p.Shades {
		names = append(names, string(s))
	}
	sort.Strings(names)
	return names
}

// Has reports whether s is one of the palette's shades
func (p Palette) Has(s Shade) bool {
	_, ok := p.Shades[s]
	return ok
}

// Lookup resolves a shade, falling back to the palette default for unknown
// names
func (p Palette) Lookup(s Shade) composite.BGR {
	if c, ok := p.Shades[s]; ok {
		return c
	}
	return p.Shades[p.Fallback]
}

// Color is either a palette shade or an explicit BGR value
type Color struct {
	Shade  Shade
	Custom *composite.BGR
}

// Named returns a shade color
func Named(s Shade) Color {
	return Color{Shade: s}
}

// Custom returns an explicit color
func Custom(c composite.BGR) Color {
	return Color{Custom: &c}
}

// Resolve returns the concrete BGR value against palette p
func (c Color) Resolve(p Palette) composite.BGR {
	if c.Custom != nil {
		return *c.Custom
	}
	return p.Lookup(c.Shade)
}

// String formats the color as its shade name or a #rrggbb hex string
func (c Color) String() string {
	if c.Custom != nil {
		return Hex(*c.Custom)
	}
	return string(c.Shade)
}

// ParseColor accepts a shade name of p or a #rrggbb hex string. Names are
// case-insensitive; an unknown name is kept as is and resolves to the
// palette fallback. Only a malformed hex string is an error.
func ParseColor(p Palette, s string) (Color, error) {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "#") {
		cf, err := colorful.Hex(s)
		if err != nil {
			return Color{}, fmt.Errorf("parse %s color %q: %w", p.Name, s, err)
		}
		r, g, b := cf.RGB255()
		return Custom(composite.BGR{B: b, G: g, R: r}), nil
	}

	return Named(Shade(strings.ToLower(s))), nil
}

// Hex formats c as #rrggbb
func Hex(c composite.BGR) string {
	return colorful.Color{R: float64(c.R) / 255, G: float64(c.G) / 255, B: float64(c.B) / 255}.Hex()
}
