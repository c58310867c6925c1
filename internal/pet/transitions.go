package pet

import (
	"time"

	"github.com/moorebrett0/gremlin/internal/catalog"
)

// Balance holds the stat deltas for actions and passive decay.
type Balance struct {
	FeedHungerDecrease    int `yaml:"feed_hunger_decrease" env:"FEED_HUNGER_DECREASE"`
	FeedHappinessIncrease int `yaml:"feed_happiness_increase" env:"FEED_HAPPINESS_INCREASE"`
	PlayHappinessIncrease int `yaml:"play_happiness_increase" env:"PLAY_HAPPINESS_INCREASE"`
	PlayEnergyDecrease    int `yaml:"play_energy_decrease" env:"PLAY_ENERGY_DECREASE"`
	SleepEnergyIncrease   int `yaml:"sleep_energy_increase" env:"SLEEP_ENERGY_INCREASE"`
	SleepHungerIncrease   int `yaml:"sleep_hunger_increase" env:"SLEEP_HUNGER_INCREASE"`

	// Passive decay applied each scheduler tick.
	HungerIncreaseRate    int `yaml:"hunger_increase_rate" env:"HUNGER_INCREASE_RATE"`
	HappinessDecreaseRate int `yaml:"happiness_decrease_rate" env:"HAPPINESS_DECREASE_RATE"`
	EnergyDecreaseRate    int `yaml:"energy_decrease_rate" env:"ENERGY_DECREASE_RATE"`
}

// Change is the actual movement of each stat after clamping.
type Change struct {
	Hunger    int
	Happiness int
	Energy    int
}

func diff(before, after Pet) Change {
	return Change{
		Hunger:    after.Hunger - before.Hunger,
		Happiness: after.Happiness - before.Happiness,
		Energy:    after.Energy - before.Energy,
	}
}

// Feed decreases hunger and increases happiness.
func Feed(p Pet, b Balance) (Pet, Change) {
	next := p
	next.Hunger = clamp(p.Hunger - b.FeedHungerDecrease)
	next.Happiness = clamp(p.Happiness + b.FeedHappinessIncrease)
	return next, diff(p, next)
}

// Play increases happiness and decreases energy.
func Play(p Pet, b Balance) (Pet, Change) {
	next := p
	next.Happiness = clamp(p.Happiness + b.PlayHappinessIncrease)
	next.Energy = clamp(p.Energy - b.PlayEnergyDecrease)
	return next, diff(p, next)
}

// Sleep restores energy at the cost of some hunger.
func Sleep(p Pet, b Balance) (Pet, Change) {
	next := p
	next.Energy = clamp(p.Energy + b.SleepEnergyIncrease)
	next.Hunger = clamp(p.Hunger + b.SleepHungerIncrease)
	return next, diff(p, next)
}

// Decay applies one tick of passive stat drift.
func Decay(p Pet, b Balance) (Pet, Change) {
	next := p
	next.Hunger = clamp(p.Hunger + b.HungerIncreaseRate)
	next.Happiness = clamp(p.Happiness - b.HappinessDecreaseRate)
	next.Energy = clamp(p.Energy - b.EnergyDecreaseRate)
	return next, diff(p, next)
}

// Transform switches the pet to its transformed look. An image missing from
// the normal catalog is kept as-is.
func Transform(p Pet, cat catalog.Catalog, now time.Time) Pet {
	next := p
	next.Transformed = true
	if img, ok := cat.TransformedFor(p.Image); ok {
		next.Image = img
	}
	next.TransformedAt = &now
	return next
}

// ResetTransformation restarts the transformation clock of an already
// transformed pet. Normal pets are returned unchanged.
func ResetTransformation(p Pet, now time.Time) Pet {
	if !p.Transformed {
		return p
	}
	next := p
	next.TransformedAt = &now
	return next
}

// RevertWait returns how long until a revert may be attempted, or 0 if it may
// be attempted now. Normal pets never wait.
func RevertWait(p Pet, duration time.Duration, now time.Time) time.Duration {
	if !p.Transformed || p.TransformedAt == nil {
		return 0
	}
	remaining := duration - now.Sub(*p.TransformedAt)
	if remaining < 0 {
		return 0
	}
	return remaining
}

// AttemptRevert draws once from rng and, with probability chance, returns the
// pet to normal with a fresh image from the catalog. It does not check
// timing; callers gate it with RevertWait.
func AttemptRevert(p Pet, cat catalog.Catalog, chance float64, rng Rand, now time.Time) (Pet, bool) {
	next := p
	next.LastRevertAttempt = &now
	if rng.Float64() >= chance {
		return next, false
	}
	next.Transformed = false
	next.TransformedAt = nil
	if img := cat.RandomNormal(rng); img != "" {
		next.Image = img
	}
	return next, true
}
