package gui

import (
	"fmt"
	"image/color"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"

	"github.com/dudu/retouch/internal/composite"
	"github.com/dudu/retouch/internal/effects"
	"github.com/dudu/retouch/internal/pipeline"
)

const customColor = "custom…"

// Controls holds the effect sliders and color selectors
type Controls struct {
	container *fyne.Container
	window    fyne.Window

	sliders  map[pipeline.Stage]*widget.Slider
	values   map[pipeline.Stage]*widget.Label
	lipstick *widget.Select
	blush    *widget.Select

	params   pipeline.Params
	onChange func(pipeline.Params)
	quiet    bool // suppresses onChange while resetting
}

// NewControls builds the panel. onChange receives the full parameter set
// after every user edit.
func NewControls(window fyne.Window, onChange func(pipeline.Params)) *Controls {
	c := &Controls{
		window:   window,
		sliders:  make(map[pipeline.Stage]*widget.Slider),
		values:   make(map[pipeline.Stage]*widget.Label),
		params:   pipeline.DefaultParams(),
		onChange: onChange,
	}
	c.setup()
	return c
}

func (c *Controls) setup() {
	c.quiet = true
	defer func() { c.quiet = false }()

	rows := container.NewVBox()

	for _, stage := range []pipeline.Stage{
		pipeline.StageSmoothing, pipeline.StageLipstick, pipeline.StageBlush, pipeline.StageSharpening,
	} {
		stage := stage
		value := widget.NewLabel("0")
		slider := widget.NewSlider(0, effects.MaxIntensity)
		slider.Step = 1
		slider.OnChanged = func(v float64) {
			value.SetText(fmt.Sprintf("%d", int(v)))
			c.setIntensity(stage, int(v))
			c.changed()
		}
		c.sliders[stage] = slider
		c.values[stage] = value

		rows.Add(container.NewBorder(nil, nil, widget.NewLabel(title(stage)), value, slider))
	}

	c.lipstick = c.colorSelect(effects.Lipstick, func(col effects.Color) { c.params.LipstickColor = col })
	c.blush = c.colorSelect(effects.Blush, func(col effects.Color) { c.params.BlushColor = col })

	rows.Add(widget.NewSeparator())
	rows.Add(container.NewGridWithColumns(2, widget.NewLabel("Lipstick color"), c.lipstick))
	rows.Add(container.NewGridWithColumns(2, widget.NewLabel("Blush color"), c.blush))

	c.container = rows
}

// colorSelect offers the palette shades plus a color picker entry
func (c *Controls) colorSelect(p effects.Palette, set func(effects.Color)) *widget.Select {
	options := append(p.Names(), customColor)
	sel := widget.NewSelect(options, func(choice string) {
		if c.quiet {
			return
		}
		if choice != customColor {
			set(effects.Named(effects.Shade(choice)))
			c.changed()
			return
		}

		picker := dialog.NewColorPicker("Pick "+p.Name+" color", "", func(col color.Color) {
			custom := effects.Custom(composite.FromRGBA(col))
			set(custom)
			c.changed()
		}, c.window)
		picker.Advanced = true
		picker.Show()
	})
	sel.SetSelected(string(p.Fallback))
	return sel
}

func (c *Controls) setIntensity(stage pipeline.Stage, v int) {
	switch stage {
	case pipeline.StageSmoothing:
		c.params.Smoothing = v
	case pipeline.StageLipstick:
		c.params.Lipstick = v
	case pipeline.StageBlush:
		c.params.Blush = v
	case pipeline.StageSharpening:
		c.params.Sharpening = v
	}
}

func (c *Controls) changed() {
	if c.quiet || c.onChange == nil {
		return
	}
	c.onChange(c.params)
}

// Params returns the current settings
func (c *Controls) Params() pipeline.Params {
	return c.params
}

// Reset puts every control back to its default without firing onChange
func (c *Controls) Reset() {
	c.quiet = true
	defer func() { c.quiet = false }()

	for _, s := range c.sliders {
		s.SetValue(0)
	}
	c.lipstick.SetSelected(string(effects.Lipstick.Fallback))
	c.blush.SetSelected(string(effects.Blush.Fallback))
	c.params = pipeline.DefaultParams()
}

// Container returns the panel content
func (c *Controls) Container() *fyne.Container {
	return c.container
}

func title(s pipeline.Stage) string {
	name := string(s)
	if name == "" {
		return name
	}
	return string(name[0]-'a'+'A') + name[1:]
}
