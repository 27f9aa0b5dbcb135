package main

import (
	"errors"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/dustin/go-humanize/english"
	"github.com/rs/zerolog"
	"github.com/urfave/cli"
	"gocv.io/x/gocv"

	"github.com/dudu/retouch/internal/camera"
	"github.com/dudu/retouch/internal/codec"
	"github.com/dudu/retouch/internal/effects"
	"github.com/dudu/retouch/internal/gui"
	"github.com/dudu/retouch/internal/mask"
	"github.com/dudu/retouch/internal/pipeline"
	"github.com/dudu/retouch/internal/ui"
)

var effectFlags = []cli.Flag{
	cli.IntFlag{Name: "smoothing", Usage: "skin smoothing intensity 0-100"},
	cli.IntFlag{Name: "lipstick", Usage: "lipstick intensity 0-100"},
	cli.IntFlag{Name: "blush", Usage: "blush intensity 0-100"},
	cli.IntFlag{Name: "sharpening", Usage: "eyebrow sharpening intensity 0-100"},
	cli.StringFlag{
		Name:  "lipstick-color",
		Value: string(effects.Lipstick.Fallback),
		Usage: "lipstick shade (" + strings.Join(effects.Lipstick.Names(), ", ") + ") or #rrggbb",
	},
	cli.StringFlag{
		Name:  "blush-color",
		Value: string(effects.Blush.Fallback),
		Usage: "blush shade (" + strings.Join(effects.Blush.Names(), ", ") + ") or #rrggbb",
	},
	cli.StringSliceFlag{Name: "blemish", Usage: "blemish position `X,Y` in image pixels, repeatable"},
}

// ApplyCommand retouches one image without a window
var ApplyCommand = cli.Command{
	Name:  "apply",
	Usage: "Retouch a portrait and write the result",
	Flags: append([]cli.Flag{
		cli.StringFlag{Name: "in, i", Usage: "input image `FILE`"},
		cli.IntFlag{Name: "camera", Value: -1, Usage: "take the portrait from camera `INDEX` instead of a file"},
		cli.StringFlag{Name: "out, o", Usage: "output image `FILE` (.jpg or .png)"},
		cli.BoolFlag{Name: "preview, p", Usage: "show a before/after window"},
	}, effectFlags...),
	Action: applyAction,
}

// MasksCommand writes the region masks for debugging
var MasksCommand = cli.Command{
	Name:  "masks",
	Usage: "Write the region masks of a portrait as PNG files",
	Flags: []cli.Flag{
		cli.StringFlag{Name: "in, i", Usage: "input image `FILE`"},
		cli.StringFlag{Name: "dir, d", Value: ".", Usage: "output `DIR`"},
	},
	Action: masksAction,
}

// EditCommand opens the interactive editor
var EditCommand = cli.Command{
	Name:  "edit",
	Usage: "Open the interactive editor",
	Flags: []cli.Flag{
		cli.StringFlag{Name: "in, i", Usage: "image `FILE` to open at start"},
	},
	Action: editAction,
}

func applyAction(ctx *cli.Context) error {
	out := ctx.String("out")
	if out == "" && !ctx.Bool("preview") {
		return errors.New("nothing to do: give --out or --preview")
	}
	if ctx.String("in") == "" && ctx.Int("camera") < 0 {
		return errors.New("give --in or --camera")
	}

	blemishes, err := parseBlemishes(ctx.StringSlice("blemish"))
	if err != nil {
		return err
	}

	e, err := newEnv(ctx)
	if err != nil {
		return err
	}
	defer e.Close()

	params, err := paramsFromContext(ctx, e.log)
	if err != nil {
		return err
	}

	start := time.Now()
	if err := loadInput(ctx, e); err != nil {
		return err
	}

	for _, p := range blemishes {
		if _, err := e.session.AddBlemishPoint(p.X, p.Y); err != nil {
			return err
		}
	}
	if err := e.session.Recompute(params); err != nil {
		return err
	}
	for _, se := range e.session.Skipped() {
		e.log.Warn().Err(se.Err).Str("stage", string(se.Stage)).Msg("stage was skipped")
	}

	if out != "" {
		n, err := e.session.SaveFile(out)
		if err != nil {
			return err
		}
		fmt.Printf("wrote %s (%s) in %s\n", out, humanize.Bytes(uint64(n)), time.Since(start).Round(time.Millisecond))
	}

	if ctx.Bool("preview") {
		return preview(e)
	}
	return nil
}

// loadInput feeds the session from --in or a camera snapshot
func loadInput(ctx *cli.Context, e *env) error {
	if path := ctx.String("in"); path != "" {
		return e.session.LoadFile(path)
	}

	frame, err := camera.Snapshot(ctx.Int("camera"), 1280, 720)
	if err != nil {
		return err
	}
	defer frame.Close()
	return e.session.LoadMat(frame)
}

func preview(e *env) error {
	before, err := e.session.Original()
	if err != nil {
		return err
	}
	defer before.Close()
	after, err := e.session.Working()
	if err != nil {
		return err
	}
	defer after.Close()

	w := ui.NewWindow("Retouch - press any key")
	defer w.Close()

	w.ShowComparison(before, after)
	w.WaitKey(0)
	return nil
}

func masksAction(ctx *cli.Context) error {
	in := ctx.String("in")
	if in == "" {
		return errors.New("give --in")
	}
	dir := ctx.String("dir")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	e, err := newEnv(ctx)
	if err != nil {
		return err
	}
	defer e.Close()

	if err := e.session.LoadFile(in); err != nil {
		return err
	}

	base := strings.TrimSuffix(filepath.Base(in), filepath.Ext(in))
	written := 0
	write := func(name string, m gocv.Mat) error {
		defer m.Close()
		path := filepath.Join(dir, fmt.Sprintf("%s_%s.png", base, name))
		n, err := codec.WriteFile(path, m)
		if err != nil {
			return err
		}
		written++
		fmt.Printf("  %s (%s, %d px set)\n", path, humanize.Bytes(uint64(n)), gocv.CountNonZero(m))
		return nil
	}

	for _, r := range mask.Regions {
		m, err := e.session.Mask(r)
		if err != nil {
			return err
		}
		if err := write(string(r), m); err != nil {
			return err
		}
	}

	width, height, err := e.session.Size()
	if err != nil {
		return err
	}
	brows, err := mask.EyebrowMask(e.session.Landmarks(), width, height)
	if err != nil {
		brows.Close()
		return err
	}
	if err := write(string(mask.RegionEyebrows), brows); err != nil {
		return err
	}

	fmt.Printf("wrote %s to %s\n", english.Plural(written, "mask", "masks"), dir)
	return nil
}

func editAction(ctx *cli.Context) error {
	e, err := newEnv(ctx)
	if err != nil {
		return err
	}
	defer e.Close()

	if in := ctx.String("in"); in != "" {
		if err := e.session.LoadFile(in); err != nil {
			return err
		}
	}

	gui.NewEditor(e.session, e.conf.Editor.Debounce, e.conf.Editor.PreviewSize, e.log).Run()
	return nil
}

// paramsFromContext reads the effect flags. Unknown shade names fall back to
// the palette default with a warning.
func paramsFromContext(ctx *cli.Context, log zerolog.Logger) (pipeline.Params, error) {
	params := pipeline.Params{
		Smoothing:  ctx.Int("smoothing"),
		Lipstick:   ctx.Int("lipstick"),
		Blush:      ctx.Int("blush"),
		Sharpening: ctx.Int("sharpening"),
	}

	var err error
	if params.LipstickColor, err = effects.ParseColor(effects.Lipstick, ctx.String("lipstick-color")); err != nil {
		return params, err
	}
	if params.BlushColor, err = effects.ParseColor(effects.Blush, ctx.String("blush-color")); err != nil {
		return params, err
	}

	warnFallback(log, effects.Lipstick, params.LipstickColor)
	warnFallback(log, effects.Blush, params.BlushColor)

	for name, v := range map[string]int{
		"smoothing": params.Smoothing, "lipstick": params.Lipstick,
		"blush": params.Blush, "sharpening": params.Sharpening,
	} {
		if v < 0 || v > effects.MaxIntensity {
			return params, fmt.Errorf("--%s %d is outside 0-%d", name, v, effects.MaxIntensity)
		}
	}
	return params, nil
}

func warnFallback(log zerolog.Logger, p effects.Palette, c effects.Color) {
	if c.Custom != nil || p.Has(c.Shade) {
		return
	}
	log.Warn().
		Str("palette", p.Name).
		Str("shade", string(c.Shade)).
		Str("using", string(p.Fallback)).
		Msg("unknown shade, using default")
}

// parseBlemishes turns "x,y" strings into points
func parseBlemishes(values []string) ([]image.Point, error) {
	points := make([]image.Point, 0, len(values))
	for _, v := range values {
		xs, ys, ok := strings.Cut(v, ",")
		if !ok {
			return nil, fmt.Errorf("blemish %q: want X,Y", v)
		}
		x, err := strconv.Atoi(strings.TrimSpace(xs))
		if err != nil {
			return nil, fmt.Errorf("blemish %q: %w", v, err)
		}
		y, err := strconv.Atoi(strings.TrimSpace(ys))
		if err != nil {
			return nil, fmt.Errorf("blemish %q: %w", v, err)
		}
		points = append(points, image.Pt(x, y))
	}
	return points, nil
}
