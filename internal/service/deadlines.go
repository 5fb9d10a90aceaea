package service

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// deadlineManager schedules one-shot phase deadlines keyed by
// (match, round, phase). Rescheduling a key replaces the pending timer.
type deadlineManager struct {
	mu     sync.Mutex
	timers map[string]*time.Timer
}

func newDeadlineManager() *deadlineManager {
	return &deadlineManager{timers: make(map[string]*time.Timer)}
}

func deadlineKey(matchID uuid.UUID, roundNumber int, phase string) string {
	return fmt.Sprintf("%s#%d#%s", matchID, roundNumber, phase)
}

func (d *deadlineManager) schedule(key string, delay time.Duration, fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if existing, ok := d.timers[key]; ok {
		existing.Stop()
	}
	d.timers[key] = time.AfterFunc(delay, func() {
		d.mu.Lock()
		delete(d.timers, key)
		d.mu.Unlock()
		fn()
	})
}

func (d *deadlineManager) cancel(key string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if timer, ok := d.timers[key]; ok {
		timer.Stop()
		delete(d.timers, key)
	}
}

func (d *deadlineManager) stopAll() {
	d.mu.Lock()
	defer d.mu.Unlock()

	for key, timer := range d.timers {
		timer.Stop()
		delete(d.timers, key)
	}
}
