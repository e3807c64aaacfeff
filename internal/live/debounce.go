package live

import (
	"sync"
	"time"
)

// Debouncer coalesces bursts of entry writes into a single notification
// per subject. Each call resets the subject's timer; the callback fires
// only after the configured quiet period.
type Debouncer struct {
	delay  time.Duration
	fire   func(subjectID string)
	timers map[string]*time.Timer
	mu     sync.Mutex
}

// NewDebouncer creates a debouncer that invokes fire after delay of
// inactivity for a subject
func NewDebouncer(delay time.Duration, fire func(subjectID string)) *Debouncer {
	return &Debouncer{
		delay:  delay,
		fire:   fire,
		timers: make(map[string]*time.Timer),
	}
}

// Notify records activity for the subject, rescheduling its timer
func (d *Debouncer) Notify(subjectID string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if timer, ok := d.timers[subjectID]; ok {
		timer.Stop()
	}
	d.timers[subjectID] = time.AfterFunc(d.delay, func() {
		d.mu.Lock()
		delete(d.timers, subjectID)
		d.mu.Unlock()
		d.fire(subjectID)
	})
}

// Stop cancels all pending timers
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	for id, timer := range d.timers {
		timer.Stop()
		delete(d.timers, id)
	}
}
