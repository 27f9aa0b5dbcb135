package session

import (
	"errors"
	"image"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gocv.io/x/gocv"

	"github.com/dudu/retouch/internal/codec"
	"github.com/dudu/retouch/internal/detector"
	"github.com/dudu/retouch/internal/facetest"
	"github.com/dudu/retouch/internal/mask"
	"github.com/dudu/retouch/internal/matutil"
	"github.com/dudu/retouch/internal/pipeline"
)

func loaded(t *testing.T) *Session {
	t.Helper()
	s := New(facetest.Detector{Set: facetest.Landmarks()}, zerolog.Nop())
	img := facetest.Portrait(facetest.Width, facetest.Height)
	defer img.Close()
	require.NoError(t, s.LoadMat(img))
	t.Cleanup(s.Close)
	return s
}

func working(t *testing.T, s *Session) gocv.Mat {
	t.Helper()
	m, err := s.Working()
	require.NoError(t, err)
	t.Cleanup(func() { m.Close() })
	return m
}

func original(t *testing.T, s *Session) gocv.Mat {
	t.Helper()
	m, err := s.Original()
	require.NoError(t, err)
	t.Cleanup(func() { m.Close() })
	return m
}

func someParams() pipeline.Params {
	p := pipeline.DefaultParams()
	p.Smoothing = 40
	p.Lipstick = 70
	p.Blush = 30
	p.Sharpening = 50
	return p
}

func TestLoadStartsWithWorkingEqualOriginal(t *testing.T) {
	s := loaded(t)

	assert.True(t, s.Loaded())
	assert.True(t, matutil.Equal(original(t, s), working(t, s)))
	assert.Len(t, s.Landmarks(), detector.NumLandmarks)

	w, h, err := s.Size()
	require.NoError(t, err)
	assert.Equal(t, facetest.Width, w)
	assert.Equal(t, facetest.Height, h)
}

func TestRecomputeIsIdempotent(t *testing.T) {
	s := loaded(t)
	_, err := s.AddBlemishPoint(150, 300)
	require.NoError(t, err)

	require.NoError(t, s.Recompute(someParams()))
	first := working(t, s)
	require.NoError(t, s.Recompute(someParams()))

	assert.True(t, matutil.Equal(first, working(t, s)))
}

func TestRecomputeNeverAccumulates(t *testing.T) {
	s := loaded(t)

	heavy := someParams()
	heavy.Smoothing = 100
	require.NoError(t, s.Recompute(heavy))
	require.NoError(t, s.Recompute(pipeline.DefaultParams()))

	assert.True(t, matutil.Equal(original(t, s), working(t, s)))
}

func TestResetRestoresOriginal(t *testing.T) {
	s := loaded(t)
	_, err := s.AddBlemishPoint(200, 260)
	require.NoError(t, err)
	require.NoError(t, s.Recompute(someParams()))
	require.False(t, matutil.Equal(original(t, s), working(t, s)))

	require.NoError(t, s.Reset())

	assert.True(t, matutil.Equal(original(t, s), working(t, s)))
	assert.Empty(t, s.Blemishes())
	assert.Equal(t, pipeline.DefaultParams(), s.Params())
	assert.Len(t, s.Landmarks(), detector.NumLandmarks)

	// masks survive the reset
	lips, err := s.Mask(mask.RegionLips)
	require.NoError(t, err)
	defer lips.Close()
	assert.Greater(t, gocv.CountNonZero(lips), 0)
}

func TestOriginalIsNeverMutated(t *testing.T) {
	s := loaded(t)
	before := original(t, s)

	_, err := s.AddBlemishPoint(120, 240)
	require.NoError(t, err)
	require.NoError(t, s.Recompute(someParams()))

	assert.True(t, matutil.Equal(before, original(t, s)))
}

func TestAccessorsReturnCopies(t *testing.T) {
	s := loaded(t)

	w := working(t, s)
	w.SetTo(gocv.NewScalar(0, 0, 0, 0))

	assert.False(t, matutil.Equal(w, working(t, s)))

	set := s.Landmarks()
	set[0] = detector.Point{X: -1, Y: -1}
	assert.NotEqual(t, set[0], s.Landmarks()[0])
}

func TestAddBlemishPointClamps(t *testing.T) {
	s := loaded(t)

	tests := []struct {
		x, y int
		want image.Point
	}{
		{10, 20, image.Pt(10, 20)},
		{-5, 20, image.Pt(0, 20)},
		{900, -1, image.Pt(facetest.Width-1, 0)},
		{400, 500, image.Pt(facetest.Width-1, facetest.Height-1)},
	}
	for _, tt := range tests {
		p, err := s.AddBlemishPoint(tt.x, tt.y)
		require.NoError(t, err)
		assert.Equal(t, tt.want, p)
	}
	assert.Len(t, s.Blemishes(), len(tests))
}

func TestBlemishPointsChangeRecompute(t *testing.T) {
	s := loaded(t)
	params := pipeline.DefaultParams()

	require.NoError(t, s.Recompute(params))
	clean := working(t, s)

	_, err := s.AddBlemishPoint(200, 260)
	require.NoError(t, err)
	require.NoError(t, s.Recompute(params))

	assert.False(t, matutil.Equal(clean, working(t, s)))
}

func TestLoadFailures(t *testing.T) {
	s := New(facetest.Detector{Err: detector.ErrNoFace}, zerolog.Nop())
	defer s.Close()

	img := facetest.Portrait(64, 80)
	defer img.Close()

	var loadErr *LoadError
	err := s.LoadMat(img)
	require.True(t, errors.As(err, &loadErr))
	assert.ErrorIs(t, err, detector.ErrNoFace)
	assert.False(t, s.Loaded())

	err = s.Load([]byte("garbage"))
	assert.ErrorIs(t, err, codec.ErrDecode)

	err = s.LoadFile(filepath.Join(t.TempDir(), "missing.jpg"))
	require.True(t, errors.As(err, &loadErr))
	assert.Contains(t, loadErr.Path, "missing.jpg")
}

func TestFailedLoadKeepsPreviousImage(t *testing.T) {
	s := loaded(t)
	before := original(t, s)

	assert.Error(t, s.Load([]byte("garbage")))

	assert.True(t, s.Loaded())
	assert.True(t, matutil.Equal(before, original(t, s)))
}

func TestLoadRejectsInvalidLandmarks(t *testing.T) {
	s := New(facetest.Detector{Set: make(detector.LandmarkSet, 5)}, zerolog.Nop())
	defer s.Close()
	img := facetest.Portrait(64, 80)
	defer img.Close()

	var invalid *mask.InvalidLandmarkError
	assert.True(t, errors.As(s.LoadMat(img), &invalid))
}

func TestOperationsWithoutImage(t *testing.T) {
	s := New(facetest.Detector{}, zerolog.Nop())

	assert.ErrorIs(t, s.Recompute(pipeline.DefaultParams()), ErrNoImage)
	assert.ErrorIs(t, s.Reset(), ErrNoImage)
	_, err := s.AddBlemishPoint(1, 1)
	assert.ErrorIs(t, err, ErrNoImage)
	_, err = s.Encode(codec.PNG)
	assert.ErrorIs(t, err, ErrNoImage)
}

func TestEncodeAndSave(t *testing.T) {
	s := loaded(t)
	require.NoError(t, s.Recompute(someParams()))

	data, err := s.Encode(codec.PNG)
	require.NoError(t, err)
	decoded, err := codec.Decode(data)
	require.NoError(t, err)
	defer decoded.Close()
	assert.True(t, matutil.Equal(working(t, s), decoded))

	path := filepath.Join(t.TempDir(), "out.jpg")
	n, err := s.SaveFile(path)
	require.NoError(t, err)
	assert.Positive(t, n)
}

func TestConcurrentRecomputesAreSerialized(t *testing.T) {
	s := loaded(t)

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, s.Recompute(someParams()))
		}()
	}
	wg.Wait()

	require.NoError(t, s.Recompute(someParams()))
	want := working(t, s)
	assert.True(t, matutil.Equal(want, working(t, s)))
}

func TestRecomputeAtDropsRequestsFromBeforeReset(t *testing.T) {
	s := loaded(t)
	epoch := s.Epoch()
	_, err := s.AddBlemishPoint(150, 300)
	require.NoError(t, err)
	assert.Equal(t, epoch, s.Epoch())

	require.NoError(t, s.Reset())
	assert.NotEqual(t, epoch, s.Epoch())

	// a slider change scheduled before the reset lands after it
	err = s.RecomputeAt(epoch, someParams())
	assert.ErrorIs(t, err, ErrStale)
	assert.True(t, matutil.Equal(original(t, s), working(t, s)))
	assert.Equal(t, pipeline.DefaultParams(), s.Params())

	require.NoError(t, s.RecomputeAt(s.Epoch(), someParams()))
	assert.False(t, matutil.Equal(original(t, s), working(t, s)))
}

func TestLoadAdvancesEpoch(t *testing.T) {
	s := loaded(t)
	epoch := s.Epoch()

	img := facetest.Portrait(facetest.Width, facetest.Height)
	defer img.Close()
	require.NoError(t, s.LoadMat(img))

	assert.ErrorIs(t, s.RecomputeAt(epoch, someParams()), ErrStale)
}

func TestDebouncerDeliversLastParams(t *testing.T) {
	var mu sync.Mutex
	var got []int
	d := NewDebouncer(30*time.Millisecond, func(r Request) {
		mu.Lock()
		got = append(got, r.Params.Smoothing)
		mu.Unlock()
	})

	for i := 1; i <= 5; i++ {
		d.Schedule(Request{Params: pipeline.Params{Smoothing: i * 10}})
		time.Sleep(5 * time.Millisecond)
	}
	assert.True(t, d.Pending())

	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(got) == 1
	}, time.Second, 5*time.Millisecond)

	time.Sleep(60 * time.Millisecond)
	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []int{50}, got)
	assert.False(t, d.Pending())
}

func TestDebouncerCancel(t *testing.T) {
	fired := make(chan struct{}, 1)
	d := NewDebouncer(20*time.Millisecond, func(Request) { fired <- struct{}{} })

	d.Schedule(Request{Params: pipeline.DefaultParams()})
	d.Cancel()

	select {
	case <-fired:
		t.Fatal("cancelled call fired")
	case <-time.After(80 * time.Millisecond):
	}
	assert.False(t, d.Pending())
}

func TestDebouncerDefaultDelay(t *testing.T) {
	d := NewDebouncer(0, func(Request) {})
	assert.Equal(t, DefaultDebounce, d.delay)
}
