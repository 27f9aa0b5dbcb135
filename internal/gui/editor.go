// Package gui is the desktop editor: original and retouched images side by
// side, effect sliders, and click-to-remove blemishes.
package gui

import (
	"errors"
	"fmt"
	"image"
	"io"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
	"github.com/disintegration/imaging"
	"github.com/rs/zerolog"
	"gocv.io/x/gocv"

	"github.com/dudu/retouch/internal/codec"
	"github.com/dudu/retouch/internal/matutil"
	"github.com/dudu/retouch/internal/pipeline"
	"github.com/dudu/retouch/internal/session"
)

// Editor wires the session to the fyne window
type Editor struct {
	log         zerolog.Logger
	session     *session.Session
	debouncer   *session.Debouncer
	previewSize int

	app      fyne.App
	window   fyne.Window
	original *ImageView
	working  *ImageView
	controls *Controls
	status   *widget.Label
}

// NewEditor builds the editor window around s. previewSize bounds the
// longest edge of the displayed images.
func NewEditor(s *session.Session, debounce time.Duration, previewSize int, log zerolog.Logger) *Editor {
	e := &Editor{
		log:         log.With().Str("component", "gui").Logger(),
		session:     s,
		previewSize: previewSize,
	}
	e.debouncer = session.NewDebouncer(debounce, e.recompute)

	e.app = app.NewWithID("com.github.dudu.retouch")
	e.window = e.app.NewWindow("Retouch")

	minSize := fyne.NewSize(480, 600)
	e.original = NewImageView(minSize, nil)
	e.working = NewImageView(minSize, e.addBlemish)
	e.controls = NewControls(e.window, e.schedule)
	e.status = widget.NewLabel("Open a portrait to begin")

	toolbar := container.NewHBox(
		widget.NewButtonWithIcon("Open", theme.FolderOpenIcon(), e.open),
		widget.NewButtonWithIcon("Save", theme.DocumentSaveIcon(), e.save),
		widget.NewButtonWithIcon("Reset", theme.ContentUndoIcon(), e.reset),
	)

	images := container.NewHSplit(
		container.NewBorder(widget.NewRichTextFromMarkdown("**Original**"), nil, nil, nil, e.original),
		container.NewBorder(widget.NewRichTextFromMarkdown("**Retouched** (click to remove a blemish)"), nil, nil, nil, e.working),
	)
	images.SetOffset(0.5)

	side := container.NewVBox(toolbar, widget.NewSeparator(), e.controls.Container())
	e.window.SetContent(container.NewBorder(nil, e.status, nil, side, images))
	e.window.Resize(fyne.NewSize(1400, 800))
	e.window.SetOnClosed(e.debouncer.Cancel)

	return e
}

// Run shows the window and blocks until it closes. When the session already
// holds an image it is shown straight away.
func (e *Editor) Run() {
	if e.session.Loaded() {
		e.showAll()
		e.setStatus("Image loaded")
	}
	e.window.ShowAndRun()
}

// request ties params to the session epoch they were chosen at
func (e *Editor) request(params pipeline.Params) session.Request {
	return session.Request{Epoch: e.session.Epoch(), Params: params}
}

func (e *Editor) schedule(params pipeline.Params) {
	e.debouncer.Schedule(e.request(params))
}

// recompute runs off the UI goroutine. Requests made before a reset or a
// new image are dropped.
func (e *Editor) recompute(r session.Request) {
	if !e.session.Loaded() {
		return
	}
	if err := e.session.RecomputeAt(r.Epoch, r.Params); err != nil {
		if errors.Is(err, session.ErrStale) {
			e.log.Debug().Uint64("epoch", r.Epoch).Msg("dropped stale recompute")
			return
		}
		e.fail("Recompute failed", err)
		return
	}
	e.showWorking()

	msg := fmt.Sprintf("Updated in %s", e.session.LastTiming().Total.Round(time.Millisecond))
	if skipped := e.session.Skipped(); len(skipped) > 0 {
		msg += fmt.Sprintf(" (%d stage(s) skipped: %v)", len(skipped), skipped[0])
	}
	e.setStatus(msg)
}

// addBlemish records a click and recomputes at once without debouncing
func (e *Editor) addBlemish(p image.Point) {
	if _, err := e.session.AddBlemishPoint(p.X, p.Y); err != nil {
		return
	}
	e.debouncer.Cancel()
	go e.recompute(e.request(e.controls.Params()))
}

func (e *Editor) open() {
	dialog.ShowFileOpen(func(reader fyne.URIReadCloser, err error) {
		if err != nil {
			e.fail("Open failed", err)
			return
		}
		if reader == nil {
			return
		}
		e.setStatus("Detecting face…")

		go func() {
			data, err := io.ReadAll(reader)
			name := reader.URI().Name()
			reader.Close()
			if err != nil {
				e.fail("Read failed", err)
				return
			}

			if err := e.session.Load(data); err != nil {
				e.fail("Load failed", err)
				return
			}
			fyne.Do(e.controls.Reset)
			e.showAll()
			e.setStatus("Loaded " + name)
		}()
	}, e.window)
}

func (e *Editor) save() {
	if !e.session.Loaded() {
		return
	}
	dialog.ShowFileSave(func(writer fyne.URIWriteCloser, err error) {
		if err != nil {
			e.fail("Save failed", err)
			return
		}
		if writer == nil {
			return
		}

		go func() {
			defer writer.Close()

			format, err := codec.FormatFromPath(writer.URI().Name())
			if err != nil {
				format = codec.PNG
			}
			data, err := e.session.Encode(format)
			if err == nil {
				_, err = writer.Write(data)
			}
			if err != nil {
				e.fail("Save failed", err)
				return
			}
			e.setStatus("Saved " + writer.URI().Name())
		}()
	}, e.window)
}

func (e *Editor) reset() {
	e.debouncer.Cancel()
	e.controls.Reset()
	if err := e.session.Reset(); err != nil {
		return
	}
	r := e.request(pipeline.DefaultParams())
	go func() {
		e.recompute(r)
		e.setStatus("Reset")
	}()
}

func (e *Editor) showAll() {
	if m, err := e.session.Original(); err == nil {
		e.show(e.original, m)
	}
	e.showWorking()
}

func (e *Editor) showWorking() {
	if m, err := e.session.Working(); err == nil {
		e.show(e.working, m)
	}
}

// show converts and downsizes m off the UI goroutine, then hands the result
// to fyne
func (e *Editor) show(v *ImageView, m gocv.Mat) {
	defer m.Close()

	img, err := matutil.ToImage(m)
	if err != nil {
		e.log.Error().Err(err).Msg("preview conversion failed")
		return
	}
	source := image.Pt(m.Cols(), m.Rows())
	if max(source.X, source.Y) > e.previewSize {
		img = imaging.Fit(img, e.previewSize, e.previewSize, imaging.Lanczos)
	}

	fyne.Do(func() {
		v.SetImage(img, source)
	})
}

func (e *Editor) setStatus(msg string) {
	fyne.Do(func() {
		e.status.SetText(msg)
	})
}

func (e *Editor) fail(title string, err error) {
	e.log.Error().Err(err).Msg(title)
	fyne.Do(func() {
		e.status.SetText(title)
		dialog.ShowError(err, e.window)
	})
}
