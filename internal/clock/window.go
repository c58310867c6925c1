package clock

import (
	"fmt"
	"time"
)

// RiskWindow is a time-of-day range in whole hours, [StartHour, EndHour).
// A window with StartHour > EndHour wraps past midnight.
// StartHour == EndHour is empty.
type RiskWindow struct {
	StartHour int `yaml:"start_hour" env:"START_HOUR"`
	EndHour   int `yaml:"end_hour" env:"END_HOUR"`
}

// Contains reports whether t falls inside the window. The hour is read in
// t's own location, so callers pass times from the configured Clock.
func (w RiskWindow) Contains(t time.Time) bool {
	h := t.Hour()
	switch {
	case w.StartHour == w.EndHour:
		return false
	case w.StartHour < w.EndHour:
		return h >= w.StartHour && h < w.EndHour
	default:
		return h >= w.StartHour || h < w.EndHour
	}
}

// Validate checks the bounds are valid hours.
func (w RiskWindow) Validate() error {
	if w.StartHour < 0 || w.StartHour > 23 {
		return fmt.Errorf("risk window start hour %d out of range 0-23", w.StartHour)
	}
	if w.EndHour < 0 || w.EndHour > 24 {
		return fmt.Errorf("risk window end hour %d out of range 0-24", w.EndHour)
	}
	return nil
}

func (w RiskWindow) String() string {
	return fmt.Sprintf("%02d:00-%02d:00", w.StartHour, w.EndHour)
}
