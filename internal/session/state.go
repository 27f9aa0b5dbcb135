// Package session owns the single image being edited and keeps its working
// copy consistent with the original, the blemish points and the current
// effect settings.
package session

import (
	"errors"
	"fmt"
	"image"
	"sync"

	"github.com/rs/zerolog"
	"gocv.io/x/gocv"

	"github.com/dudu/retouch/internal/codec"
	"github.com/dudu/retouch/internal/detector"
	"github.com/dudu/retouch/internal/mask"
	"github.com/dudu/retouch/internal/pipeline"
)

var (
	// ErrNoImage is returned by operations that need a loaded image
	ErrNoImage = errors.New("session: no image loaded")
	// ErrStale is returned for a recompute requested before the last Reset
	// or Load
	ErrStale = errors.New("session: recompute request is stale")
)

// LoadError reports why an image could not be loaded. The previous state is
// kept when it occurs.
type LoadError struct {
	Path string // empty for in-memory loads
	Err  error
}

func (e *LoadError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("load image: %v", e.Err)
	}
	return fmt.Sprintf("load %s: %v", e.Path, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// State is everything known about the loaded image
type State struct {
	Original  gocv.Mat
	Working   gocv.Mat
	Landmarks detector.LandmarkSet
	Masks     *mask.Catalog
	Blemishes []image.Point
}

func (s *State) close() {
	s.Original.Close()
	s.Working.Close()
	if s.Masks != nil {
		s.Masks.Close()
	}
}

// Session edits one image at a time. All methods are safe for concurrent
// use; recomputes are serialized.
type Session struct {
	log       zerolog.Logger
	detector  pipeline.LandmarkDetector
	generator *mask.Generator
	pipeline  *pipeline.Pipeline

	mu     sync.Mutex
	state  *State
	params pipeline.Params
	epoch  uint64
}

// New creates an empty session
func New(det pipeline.LandmarkDetector, log zerolog.Logger) *Session {
	return &Session{
		log:       log.With().Str("component", "session").Logger(),
		detector:  det,
		generator: mask.NewGenerator(log),
		pipeline:  pipeline.New(log),
		params:    pipeline.DefaultParams(),
	}
}

// Load decodes encoded image bytes and makes them the current image
func (s *Session) Load(data []byte) error {
	img, err := codec.Decode(data)
	if err != nil {
		return &LoadError{Err: err}
	}
	defer img.Close()
	return s.load(img, "")
}

// LoadFile reads and loads the image at path
func (s *Session) LoadFile(path string) error {
	img, err := codec.ReadFile(path)
	if err != nil {
		return &LoadError{Path: path, Err: err}
	}
	defer img.Close()
	return s.load(img, path)
}

// LoadMat loads an already decoded BGR image. The session keeps its own copy.
func (s *Session) LoadMat(img gocv.Mat) error {
	if img.Empty() || img.Type() != gocv.MatTypeCV8UC3 {
		return &LoadError{Err: fmt.Errorf("%w: want a non-empty 8-bit BGR image", codec.ErrDecode)}
	}
	return s.load(img, "")
}

// load detects landmarks, builds masks and swaps in a fresh state. Detection
// runs outside the lock so a slow model does not block readers.
func (s *Session) load(img gocv.Mat, path string) error {
	set, err := s.detector.Detect(img)
	if err != nil {
		s.log.Warn().Err(err).Str("path", path).Msg("landmark detection failed")
		return &LoadError{Path: path, Err: err}
	}

	catalog, err := s.generator.Generate(set, img.Cols(), img.Rows())
	if err != nil {
		return &LoadError{Path: path, Err: err}
	}

	next := &State{
		Original:  img.Clone(),
		Working:   img.Clone(),
		Landmarks: set.Clone(),
		Masks:     catalog,
	}

	s.mu.Lock()
	prev := s.state
	s.state = next
	s.epoch++
	s.mu.Unlock()

	if prev != nil {
		prev.close()
	}

	s.log.Info().
		Str("path", path).
		Int("width", img.Cols()).
		Int("height", img.Rows()).
		Strs("degenerate", regionNames(catalog.Degenerate)).
		Msg("image loaded")
	return nil
}

// Loaded reports whether an image is loaded
func (s *Session) Loaded() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state != nil
}

// Size returns the loaded image dimensions
func (s *Session) Size() (width, height int, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == nil {
		return 0, 0, ErrNoImage
	}
	return s.state.Original.Cols(), s.state.Original.Rows(), nil
}

// AddBlemishPoint records a blemish at (x, y), clamped into the image, and
// returns the stored point. It does not recompute.
func (s *Session) AddBlemishPoint(x, y int) (image.Point, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == nil {
		return image.Point{}, ErrNoImage
	}

	p := image.Pt(
		min(max(x, 0), s.state.Original.Cols()-1),
		min(max(y, 0), s.state.Original.Rows()-1),
	)
	s.state.Blemishes = append(s.state.Blemishes, p)
	return p, nil
}

// Blemishes returns a copy of the recorded points
func (s *Session) Blemishes() []image.Point {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == nil {
		return nil
	}
	return append([]image.Point(nil), s.state.Blemishes...)
}

// Reset drops blemish points and restores the working image to the
// original. Landmarks and masks stay.
func (s *Session) Reset() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == nil {
		return ErrNoImage
	}

	s.state.Blemishes = nil
	s.params = pipeline.DefaultParams()
	s.epoch++
	s.state.Working.Close()
	s.state.Working = s.state.Original.Clone()
	return nil
}

// Params returns the settings of the last recompute
func (s *Session) Params() pipeline.Params {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.params
}

// Epoch identifies the current image and reset. Load and Reset advance it.
func (s *Session) Epoch() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.epoch
}

// Recompute rebuilds the working image from the original with params
func (s *Session) Recompute(params pipeline.Params) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.recompute(params)
}

// RecomputeAt is Recompute for a request made at epoch. Requests from before
// the last Load or Reset are dropped with ErrStale and leave the working
// image alone.
func (s *Session) RecomputeAt(epoch uint64, params pipeline.Params) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if epoch != s.epoch {
		return ErrStale
	}
	return s.recompute(params)
}

func (s *Session) recompute(params pipeline.Params) error {
	if s.state == nil {
		return ErrNoImage
	}

	out, err := s.pipeline.Apply(pipeline.Input{
		Original:  s.state.Original,
		Blemishes: s.state.Blemishes,
		Masks:     s.state.Masks,
		Landmarks: s.state.Landmarks,
		Params:    params,
	})
	if err != nil {
		return fmt.Errorf("recompute: %w", err)
	}

	s.state.Working.Close()
	s.state.Working = out
	s.params = params.Normalize()

	s.log.Debug().
		Int("blemishes", len(s.state.Blemishes)).
		Dur("took", s.pipeline.LastTiming().Total).
		Msg("recomputed")
	return nil
}

// LastTiming returns stage timings of the last recompute
func (s *Session) LastTiming() pipeline.Timing {
	return s.pipeline.LastTiming()
}

// Skipped returns the stages that failed during the last recompute
func (s *Session) Skipped() []*pipeline.StageError {
	return s.pipeline.LastSkipped()
}

// Working returns a copy of the working image
func (s *Session) Working() (gocv.Mat, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == nil {
		return gocv.NewMat(), ErrNoImage
	}
	return s.state.Working.Clone(), nil
}

// Original returns a copy of the original image
func (s *Session) Original() (gocv.Mat, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == nil {
		return gocv.NewMat(), ErrNoImage
	}
	return s.state.Original.Clone(), nil
}

// Landmarks returns a copy of the landmark set
func (s *Session) Landmarks() detector.LandmarkSet {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == nil {
		return nil
	}
	return s.state.Landmarks.Clone()
}

// Mask returns a copy of one region mask
func (s *Session) Mask(r mask.Region) (gocv.Mat, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == nil {
		return gocv.NewMat(), ErrNoImage
	}
	m, ok := s.state.Masks.Get(r)
	if !ok {
		return gocv.NewMat(), fmt.Errorf("session: unknown region %q", r)
	}
	return m.Clone(), nil
}

// Encode returns the working image encoded as format
func (s *Session) Encode(format codec.Format) ([]byte, error) {
	working, err := s.Working()
	if err != nil {
		return nil, err
	}
	defer working.Close()
	return codec.Encode(working, format)
}

// SaveFile writes the working image to path and returns the byte count
func (s *Session) SaveFile(path string) (int, error) {
	working, err := s.Working()
	if err != nil {
		return 0, err
	}
	defer working.Close()

	n, err := codec.WriteFile(path, working)
	if err != nil {
		return 0, err
	}
	s.log.Info().Str("path", path).Int("bytes", n).Msg("image saved")
	return n, nil
}

// Close releases the loaded image
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != nil {
		s.state.close()
		s.state = nil
	}
}

func regionNames(rs []mask.Region) []string {
	names := make([]string, len(rs))
	for i, r := range rs {
		names[i] = string(r)
	}
	return names
}
