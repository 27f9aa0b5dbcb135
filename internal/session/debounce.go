package session

import (
	"sync"
	"time"

	"github.com/dudu/retouch/internal/pipeline"
)

// DefaultDebounce is the quiet period before a scheduled recompute fires
const DefaultDebounce = 100 * time.Millisecond

// Request is one recompute request: the settings and the session epoch they
// were chosen at
type Request struct {
	Epoch  uint64
	Params pipeline.Params
}

// Debouncer coalesces bursts of parameter changes into one call. Each
// Schedule supersedes the previous one; only the most recent request is ever
// delivered.
type Debouncer struct {
	delay time.Duration
	fire  func(Request)

	mu    sync.Mutex
	timer *time.Timer
	gen   uint64
}

// NewDebouncer calls fire with the last scheduled request once delay has
// passed without another Schedule. A non-positive delay uses DefaultDebounce.
func NewDebouncer(delay time.Duration, fire func(Request)) *Debouncer {
	if delay <= 0 {
		delay = DefaultDebounce
	}
	return &Debouncer{delay: delay, fire: fire}
}

// Schedule arms the timer for r, disarming any pending one
func (d *Debouncer) Schedule(r Request) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
	}
	d.gen++
	gen := d.gen
	d.timer = time.AfterFunc(d.delay, func() {
		d.mu.Lock()
		// a timer that already expired when Stop ran still gets here
		if gen != d.gen {
			d.mu.Unlock()
			return
		}
		d.timer = nil
		d.mu.Unlock()

		d.fire(r)
	})
}

// Cancel disarms a pending call
func (d *Debouncer) Cancel() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.gen++
}

// Pending reports whether a call is armed
func (d *Debouncer) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.timer != nil
}
