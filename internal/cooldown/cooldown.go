// Package cooldown rate-limits repeated commands per owner.
package cooldown

import (
	"sync"
	"time"
)

type key struct {
	owner  string
	action string
}

// Tracker remembers when each owner last used each action.
type Tracker struct {
	durations map[string]time.Duration

	mu   sync.Mutex
	last map[key]time.Time
}

// New creates a tracker. Actions missing from durations, or with a zero
// duration, are never limited.
func New(durations map[string]time.Duration) *Tracker {
	d := make(map[string]time.Duration, len(durations))
	for action, dur := range durations {
		if dur > 0 {
			d[action] = dur
		}
	}
	return &Tracker{durations: d, last: make(map[key]time.Time)}
}

// Allow reports whether owner may run action at now. When allowed the use is
// recorded; otherwise the remaining wait is returned.
func (t *Tracker) Allow(owner, action string, now time.Time) (time.Duration, bool) {
	if t == nil {
		return 0, true
	}
	dur, limited := t.durations[action]
	if !limited {
		return 0, true
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	k := key{owner: owner, action: action}
	if last, ok := t.last[k]; ok {
		if remaining := dur - now.Sub(last); remaining > 0 {
			return remaining, false
		}
	}
	t.last[k] = now
	return 0, true
}

// Forget drops expired entries so the map does not grow without bound.
func (t *Tracker) Forget(now time.Time) {
	if t == nil {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	for k, last := range t.last {
		if now.Sub(last) >= t.durations[k.action] {
			delete(t.last, k)
		}
	}
}
