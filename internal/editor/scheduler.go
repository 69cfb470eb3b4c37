package editor

import (
	"sync"
	"time"
)

// Scheduler runs at most one pending action. Scheduling replaces whatever
// was pending; Cancel drops it.
type Scheduler interface {
	Schedule(delay time.Duration, action func())
	Cancel()
}

// Debouncer is a Scheduler backed by time.AfterFunc. Actions run on the
// timer goroutine.
type Debouncer struct {
	mu    sync.Mutex
	timer *time.Timer
	gen   uint64
}

func NewDebouncer() *Debouncer {
	return &Debouncer{}
}

func (d *Debouncer) Schedule(delay time.Duration, action func()) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.gen++
	gen := d.gen
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(delay, func() {
		d.mu.Lock()
		if d.gen != gen {
			// Replaced or cancelled after the timer had already fired.
			d.mu.Unlock()
			return
		}
		d.timer = nil
		d.mu.Unlock()
		action()
	})
}

func (d *Debouncer) Cancel() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.gen++
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}
