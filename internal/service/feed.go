package service

import (
	"sync"

	"fan_controller/internal/models"
)

// StateFeed fans controller snapshots out to live subscribers. Each
// subscriber holds at most one pending snapshot; a slow reader sees the
// latest value and skips the ones it missed.
type StateFeed struct {
	mu   sync.RWMutex
	subs map[chan models.FanState]struct{}
}

func NewStateFeed() *StateFeed {
	return &StateFeed{subs: make(map[chan models.FanState]struct{})}
}

// Subscribe registers a receiver. Call the returned func to unsubscribe;
// it closes the channel and is safe to call more than once.
func (f *StateFeed) Subscribe() (<-chan models.FanState, func()) {
	ch := make(chan models.FanState, 1)

	f.mu.Lock()
	f.subs[ch] = struct{}{}
	f.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			f.mu.Lock()
			delete(f.subs, ch)
			f.mu.Unlock()
			close(ch)
		})
	}
}

// Publish delivers st to every subscriber without blocking.
func (f *StateFeed) Publish(st models.FanState) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	for ch := range f.subs {
		select {
		case ch <- st:
			continue
		default:
		}
		// drop the stale snapshot and retry once
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- st:
		default:
		}
	}
}

// Subscribers reports the number of live subscriptions.
func (f *StateFeed) Subscribers() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.subs)
}
