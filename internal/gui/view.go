package gui

import (
	"image"
	"math"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/widget"
)

// ImageView shows an image letterboxed into its area and reports taps in
// image pixel coordinates
type ImageView struct {
	widget.BaseWidget

	img   *canvas.Image
	size  image.Point // source image size, which may exceed the shown preview
	onTap func(image.Point)
}

// NewImageView creates a view. onTap may be nil for a read-only view.
func NewImageView(minSize fyne.Size, onTap func(image.Point)) *ImageView {
	v := &ImageView{onTap: onTap}
	v.img = canvas.NewImageFromImage(nil)
	v.img.FillMode = canvas.ImageFillContain
	v.img.SetMinSize(minSize)
	v.ExtendBaseWidget(v)
	return v
}

// CreateRenderer implements fyne.Widget
func (v *ImageView) CreateRenderer() fyne.WidgetRenderer {
	return widget.NewSimpleRenderer(v.img)
}

// SetImage replaces the shown picture. source is the size of the full
// resolution image that taps map onto. Call from the UI goroutine.
func (v *ImageView) SetImage(img image.Image, source image.Point) {
	v.img.Image = img
	v.size = source
	v.img.Refresh()
}

// Tapped implements fyne.Tappable
func (v *ImageView) Tapped(e *fyne.PointEvent) {
	if v.onTap == nil || v.img.Image == nil {
		return
	}
	if p, ok := canvasToImage(e.Position, v.Size(), v.size.X, v.size.Y); ok {
		v.onTap(p)
	}
}

// canvasToImage maps a position inside a view of the given size onto an
// image of w×h pixels shown with contain scaling. Positions on the
// letterbox bars report false.
func canvasToImage(pos fyne.Position, view fyne.Size, w, h int) (image.Point, bool) {
	if w <= 0 || h <= 0 || view.Width <= 0 || view.Height <= 0 {
		return image.Point{}, false
	}

	scale := math.Min(float64(view.Width)/float64(w), float64(view.Height)/float64(h))
	offX := (float64(view.Width) - float64(w)*scale) / 2
	offY := (float64(view.Height) - float64(h)*scale) / 2

	x := (float64(pos.X) - offX) / scale
	y := (float64(pos.Y) - offY) / scale
	if x < 0 || y < 0 || x >= float64(w) || y >= float64(h) {
		return image.Point{}, false
	}
	return image.Pt(int(x), int(y)), true
}
