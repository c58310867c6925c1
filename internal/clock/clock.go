// Package clock supplies the current time in the configured timezone.
package clock

import (
	"fmt"
	"time"
	_ "time/tzdata" // hosts without zoneinfo (minimal containers, Pi images)
)

// Clock returns the current time.
type Clock interface {
	Now() time.Time
}

// Func adapts a plain function to Clock.
type Func func() time.Time

func (f Func) Now() time.Time { return f() }

type wall struct {
	loc *time.Location
}

// New returns a wall clock reporting times in loc.
func New(loc *time.Location) Clock {
	if loc == nil {
		loc = time.Local
	}
	return wall{loc: loc}
}

func (w wall) Now() time.Time {
	return time.Now().In(w.loc)
}

// LoadLocation resolves an IANA timezone name.
func LoadLocation(name string) (*time.Location, error) {
	if name == "" {
		return nil, fmt.Errorf("timezone is required")
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("unknown timezone %q: %w", name, err)
	}
	return loc, nil
}
