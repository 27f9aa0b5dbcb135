package pipeline

import (
	"errors"
	"fmt"
	"image"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"gocv.io/x/gocv"

	"github.com/dudu/retouch/internal/detector"
	"github.com/dudu/retouch/internal/effects"
	"github.com/dudu/retouch/internal/mask"
)

// ErrNoImage is returned when the input has no original image
var ErrNoImage = errors.New("pipeline: empty original image")

// Params holds the user-facing effect settings. Intensities run 0..100.
type Params struct {
	Smoothing  int
	Lipstick   int
	Blush      int
	Sharpening int

	LipstickColor effects.Color
	BlushColor    effects.Color
}

// DefaultParams returns all effects off with the palette default colors
func DefaultParams() Params {
	return Params{
		LipstickColor: effects.Named(effects.Lipstick.Fallback),
		BlushColor:    effects.Named(effects.Blush.Fallback),
	}
}

// Normalize clamps every intensity into range
func (p Params) Normalize() Params {
	p.Smoothing = effects.ClampIntensity(p.Smoothing)
	p.Lipstick = effects.ClampIntensity(p.Lipstick)
	p.Blush = effects.ClampIntensity(p.Blush)
	p.Sharpening = effects.ClampIntensity(p.Sharpening)
	return p
}

// Input is everything one pipeline run reads. The pipeline never modifies
// any of it.
type Input struct {
	Original  gocv.Mat
	Blemishes []image.Point
	Masks     *mask.Catalog
	Landmarks detector.LandmarkSet
	Params    Params
}

// Timing holds per-stage durations of the last run. Skipped or disabled
// stages report zero.
type Timing struct {
	Blemish    time.Duration
	Smoothing  time.Duration
	Lipstick   time.Duration
	Blush      time.Duration
	Sharpening time.Duration
	Total      time.Duration
}

func (t *Timing) slot(s Stage) *time.Duration {
	switch s {
	case StageBlemish:
		return &t.Blemish
	case StageSmoothing:
		return &t.Smoothing
	case StageLipstick:
		return &t.Lipstick
	case StageBlush:
		return &t.Blush
	default:
		return &t.Sharpening
	}
}

// StageError reports a stage that failed and was skipped
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("pipeline: %s stage failed: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

var errNoMasks = errors.New("no mask catalog")

// Pipeline applies the retouching stages in a fixed order
type Pipeline struct {
	log zerolog.Logger

	mu          sync.Mutex
	lastTiming  Timing
	lastSkipped []*StageError
}

// New creates a pipeline
func New(log zerolog.Logger) *Pipeline {
	return &Pipeline{log: log.With().Str("component", "pipeline").Logger()}
}

type step struct {
	stage   Stage
	enabled bool
	run     func(gocv.Mat) (gocv.Mat, error)
}

// Apply computes the working image from a fresh copy of in.Original. The
// result depends only on in; earlier runs have no effect on it.
func (p *Pipeline) Apply(in Input) (gocv.Mat, error) {
	if in.Original.Empty() {
		return gocv.NewMat(), ErrNoImage
	}

	params := in.Params.Normalize()
	m := in.Masks
	width, height := in.Original.Cols(), in.Original.Rows()

	steps := []step{
		{StageBlemish, len(in.Blemishes) > 0, func(img gocv.Mat) (gocv.Mat, error) {
			return effects.RemoveBlemishes(img, in.Blemishes)
		}},
		{StageSmoothing, params.Smoothing > 0, func(img gocv.Mat) (gocv.Mat, error) {
			if m == nil {
				return gocv.NewMat(), errNoMasks
			}
			return effects.Smooth(img, m.Face, m.Eyes, params.Smoothing)
		}},
		{StageLipstick, params.Lipstick > 0, func(img gocv.Mat) (gocv.Mat, error) {
			if m == nil {
				return gocv.NewMat(), errNoMasks
			}
			return effects.ApplyLipstick(img, m.Lips, params.LipstickColor.Resolve(effects.Lipstick), params.Lipstick)
		}},
		{StageBlush, params.Blush > 0, func(img gocv.Mat) (gocv.Mat, error) {
			if m == nil {
				return gocv.NewMat(), errNoMasks
			}
			return effects.ApplyBlush(img, m.Cheeks, params.BlushColor.Resolve(effects.Blush), params.Blush)
		}},
		{StageSharpening, params.Sharpening > 0, func(img gocv.Mat) (gocv.Mat, error) {
			brows, err := mask.EyebrowMask(in.Landmarks, width, height)
			if err != nil {
				brows.Close()
				return gocv.NewMat(), err
			}
			defer brows.Close()
			return effects.Sharpen(img, brows, params.Sharpening)
		}},
	}

	var timing Timing
	var skipped []*StageError
	start := time.Now()

	img := in.Original.Clone()
	for _, s := range steps {
		if !s.enabled {
			continue
		}
		stageStart := time.Now()
		out, err := s.run(img)
		*timing.slot(s.stage) = time.Since(stageStart)

		if err != nil {
			out.Close()
			se := &StageError{Stage: s.stage, Err: err}
			skipped = append(skipped, se)
			p.log.Warn().Err(err).Str("stage", string(s.stage)).Msg("stage skipped")
			continue
		}
		img.Close()
		img = out
	}
	timing.Total = time.Since(start)

	p.log.Debug().
		Dur("blemish", timing.Blemish).
		Dur("smoothing", timing.Smoothing).
		Dur("lipstick", timing.Lipstick).
		Dur("blush", timing.Blush).
		Dur("sharpening", timing.Sharpening).
		Dur("total", timing.Total).
		Msg("pipeline applied")

	p.mu.Lock()
	p.lastTiming = timing
	p.lastSkipped = skipped
	p.mu.Unlock()

	return img, nil
}

// LastTiming returns timing from the last Apply call
func (p *Pipeline) LastTiming() Timing {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.lastTiming
}

// LastSkipped returns the stages that failed during the last Apply call
func (p *Pipeline) LastSkipped() []*StageError {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]*StageError(nil), p.lastSkipped...)
}
