// Package pet models a single gremlin and its pure state transitions.
package pet

import (
	"fmt"
	"time"
)

const (
	MinStat = 0
	MaxStat = 100

	// StartingStat is the value of every stat on adoption.
	StartingStat = 50
)

// Pet is the stored state of one gremlin. It is a plain value: transitions
// return a new Pet and never modify the receiver's time pointers in place.
type Pet struct {
	// Identity (set on adoption, never changes)
	Name       string
	Image      string
	Background string

	// Stats (0–100)
	Hunger    int // 0=full, 100=starving
	Happiness int // 0=miserable, 100=ecstatic
	Energy    int // 0=exhausted, 100=energized

	// Transformation lifecycle. TransformedAt is non-nil iff Transformed.
	Transformed       bool
	TransformedAt     *time.Time
	LastRevertAttempt *time.Time
}

// Snapshot is a read-only copy of a Pet plus derived values for display.
type Snapshot struct {
	Owner      string
	Name       string
	Image      string
	Background string

	Hunger    int
	Happiness int
	Energy    int

	Transformed       bool
	TransformedAt     *time.Time
	LastRevertAttempt *time.Time

	Mood string
}

// TransformedSince returns how long the pet has been transformed at now, or 0
// when it is normal.
func (s Snapshot) TransformedSince(now time.Time) time.Duration {
	if !s.Transformed || s.TransformedAt == nil {
		return 0
	}
	if d := now.Sub(*s.TransformedAt); d > 0 {
		return d
	}
	return 0
}

// RevertIn returns the wait at now before a revert may be attempted, given
// the minimum transformation duration. It is 0 when allowed or normal.
func (s Snapshot) RevertIn(now time.Time, duration time.Duration) time.Duration {
	if !s.Transformed || s.TransformedAt == nil {
		return 0
	}
	if remaining := duration - now.Sub(*s.TransformedAt); remaining > 0 {
		return remaining
	}
	return 0
}

// New creates a freshly adopted pet with starting stats.
func New(name, image, background string) Pet {
	return Pet{
		Name:       name,
		Image:      image,
		Background: background,
		Hunger:     StartingStat,
		Happiness:  StartingStat,
		Energy:     StartingStat,
	}
}

// Valid checks the stat range and the transformed/timestamp invariant.
func (p Pet) Valid() error {
	for _, s := range []struct {
		name string
		v    int
	}{{"hunger", p.Hunger}, {"happiness", p.Happiness}, {"energy", p.Energy}} {
		if s.v < MinStat || s.v > MaxStat {
			return fmt.Errorf("%s %d out of range %d-%d", s.name, s.v, MinStat, MaxStat)
		}
	}
	if p.Transformed != (p.TransformedAt != nil) {
		return fmt.Errorf("transformed=%v disagrees with transformation time", p.Transformed)
	}
	return nil
}

// Clone returns a copy that shares no pointers with p.
func (p Pet) Clone() Pet {
	p.TransformedAt = copyTime(p.TransformedAt)
	p.LastRevertAttempt = copyTime(p.LastRevertAttempt)
	return p
}

// NewSnapshot builds the read-only view of p. It depends only on the stored
// state, so equal pets give equal snapshots.
func NewSnapshot(owner string, p Pet) Snapshot {
	p = p.Clone()
	return Snapshot{
		Owner:             owner,
		Name:              p.Name,
		Image:             p.Image,
		Background:        p.Background,
		Hunger:            p.Hunger,
		Happiness:         p.Happiness,
		Energy:            p.Energy,
		Transformed:       p.Transformed,
		TransformedAt:     p.TransformedAt,
		LastRevertAttempt: p.LastRevertAttempt,
		Mood:              DetermineMood(p),
	}
}

func copyTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}

func clamp(v int) int {
	if v < MinStat {
		return MinStat
	}
	if v > MaxStat {
		return MaxStat
	}
	return v
}
