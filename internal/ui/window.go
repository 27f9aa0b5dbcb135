// Package ui shows before/after comparisons in an OpenCV window for the
// headless commands.
package ui

import (
	"image"
	"image/color"

	"gocv.io/x/gocv"
)

// MaxWidth bounds the width of a composed comparison
const MaxWidth = 1600

var labelColor = color.RGBA{R: 0, G: 255, B: 0, A: 255}

// Window manages the preview display
type Window struct {
	window *gocv.Window
	name   string
}

// NewWindow creates a new preview window
func NewWindow(name string) *Window {
	window := gocv.NewWindow(name)
	// Force window to appear on macOS
	window.MoveWindow(100, 100)
	return &Window{
		window: window,
		name:   name,
	}
}

// ShowComparison displays before and after side by side
func (w *Window) ShowComparison(before, after gocv.Mat) {
	frame := SideBySide(before, after)
	defer frame.Close()

	w.window.ResizeWindow(frame.Cols(), frame.Rows())
	w.window.IMShow(frame)
}

// WaitKey waits for key press, returns key code or -1
func (w *Window) WaitKey(delayMs int) int {
	return w.window.WaitKey(delayMs)
}

// Close closes the window
func (w *Window) Close() error {
	if w.window != nil {
		return w.window.Close()
	}
	return nil
}

// SideBySide joins two equally sized images horizontally, labels them and
// scales the result down to MaxWidth
func SideBySide(before, after gocv.Mat) gocv.Mat {
	joined := gocv.NewMat()
	gocv.Hconcat(before, after, &joined)

	gocv.PutText(&joined, "Before", image.Pt(10, 30), gocv.FontHersheyPlain, 2, labelColor, 2)
	gocv.PutText(&joined, "After", image.Pt(before.Cols()+10, 30), gocv.FontHersheyPlain, 2, labelColor, 2)

	if joined.Cols() <= MaxWidth {
		return joined
	}
	defer joined.Close()

	scale := float64(MaxWidth) / float64(joined.Cols())
	size := image.Pt(MaxWidth, int(float64(joined.Rows())*scale))
	scaled := gocv.NewMat()
	gocv.Resize(joined, &scaled, size, 0, 0, gocv.InterpolationArea)
	return scaled
}
