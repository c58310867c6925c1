// Package gremlin is the engine's entry point for chat gateways: adopt a pet,
// act on it, try to revert it, read its status and listen for pranks.
package gremlin

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/moorebrett0/gremlin/internal/catalog"
	"github.com/moorebrett0/gremlin/internal/clock"
	"github.com/moorebrett0/gremlin/internal/cooldown"
	"github.com/moorebrett0/gremlin/internal/decay"
	"github.com/moorebrett0/gremlin/internal/metrics"
	"github.com/moorebrett0/gremlin/internal/pet"
	"github.com/moorebrett0/gremlin/internal/store"
)

const maxNameLen = 32

// Action is a user command that changes a pet's stats.
type Action string

const (
	Feed  Action = "feed"
	Play  Action = "play"
	Sleep Action = "sleep"
)

// Cooldown keys for commands that are not an Action.
const (
	CommandAdopt  = "adopt"
	CommandRevert = "revert"
)

// Valid reports whether a is a known action.
func (a Action) Valid() bool {
	switch a {
	case Feed, Play, Sleep:
		return true
	}
	return false
}

// Rules are the game parameters the service applies.
type Rules struct {
	Balance                   pet.Balance
	Catalog                   catalog.Catalog
	RiskWindow                clock.RiskWindow
	TransformationDuration    time.Duration
	RevertSuccessChance       float64
	TransformationPrankChance float64
}

// Saver schedules a persistence write without blocking.
type Saver interface {
	Request()
}

// PrankSource delivers prank events.
type PrankSource interface {
	Subscribe(fn func(decay.Prank))
}

// ActionResult describes what an action did.
type ActionResult struct {
	Snapshot pet.Snapshot
	Change   pet.Change
	// Transformed is set when this feed transformed the pet.
	Transformed bool
	// Reset is set when feeding an already transformed pet restarted its timer.
	Reset bool
	// Prank is set when the transformation immediately caused a prank.
	Prank bool
}

// RevertResult describes a revert attempt that passed the time gate.
type RevertResult struct {
	Success  bool
	Snapshot pet.Snapshot
}

// Service routes every pet operation through the store and schedules a save
// after each mutation.
type Service struct {
	store     *store.Store
	saver     Saver
	pranks    PrankSource
	clock     clock.Clock
	rng       pet.Rand
	cooldowns *cooldown.Tracker
	metrics   *metrics.Metrics
	rules     Rules
}

// Options holds the service's optional collaborators.
type Options struct {
	Pranks    PrankSource
	Cooldowns *cooldown.Tracker
	Metrics   *metrics.Metrics
}

// New creates a service.
func New(st *store.Store, saver Saver, clk clock.Clock, rng pet.Rand, rules Rules, opts Options) *Service {
	return &Service{
		store:     st,
		saver:     saver,
		pranks:    opts.Pranks,
		clock:     clk,
		rng:       rng,
		cooldowns: opts.Cooldowns,
		metrics:   opts.Metrics,
		rules:     rules,
	}
}

// Now returns the current time in the configured timezone.
func (s *Service) Now() time.Time {
	return s.clock.Now()
}

// IsInRiskWindow reports whether feeding at t would transform a pet. Gateways
// use it to ask the owner for confirmation before calling ApplyAction.
func (s *Service) IsInRiskWindow(t time.Time) bool {
	return s.rules.RiskWindow.Contains(t.In(s.clock.Now().Location()))
}

// Subscribe registers fn for prank events raised by the decay scheduler.
func (s *Service) Subscribe(fn func(decay.Prank)) {
	if s.pranks == nil {
		return
	}
	s.pranks.Subscribe(fn)
}

// CreatePet adopts a new pet for owner with a random look.
func (s *Service) CreatePet(owner, name string) (pet.Snapshot, error) {
	now := s.clock.Now()
	if err := s.precheck(owner, CommandAdopt, now); err != nil {
		return pet.Snapshot{}, err
	}
	name = strings.TrimSpace(name)
	if name == "" || utf8.RuneCountInString(name) > maxNameLen {
		s.metrics.Action(CommandAdopt, "invalid")
		return pet.Snapshot{}, fmt.Errorf("%w: must be 1-%d characters", ErrInvalidName, maxNameLen)
	}

	p, err := s.store.Create(owner, func() pet.Pet {
		return pet.New(name, s.rules.Catalog.RandomNormal(s.rng), s.rules.Catalog.RandomBackground(s.rng))
	})
	if err != nil {
		s.metrics.Action(CommandAdopt, outcome(err))
		return pet.Snapshot{}, err
	}
	s.saver.Request()
	s.metrics.Action(CommandAdopt, "ok")
	slog.Info("gremlin: adopted", "owner", owner, "name", name)
	return s.snapshot(owner, p), nil
}

// GetStatus returns owner's pet. Reads are never rate-limited, and two calls
// with no mutation in between return identical snapshots.
func (s *Service) GetStatus(owner string) (pet.Snapshot, error) {
	if strings.TrimSpace(owner) == "" {
		return pet.Snapshot{}, ErrInvalidOwner
	}
	p, err := s.store.Get(owner)
	if err != nil {
		return pet.Snapshot{}, err
	}
	return s.snapshot(owner, p), nil
}

// RevertIn returns how long snap's owner must still wait before a revert may
// be attempted, measured against the service clock.
func (s *Service) RevertIn(snap pet.Snapshot) time.Duration {
	return snap.RevertIn(s.clock.Now(), s.rules.TransformationDuration)
}

// ApplyAction feeds, plays with or puts owner's pet to sleep. Feeding inside
// the risk window transforms a normal pet, or restarts the transformation of
// an already transformed one, instead of changing stats.
func (s *Service) ApplyAction(owner string, action Action) (ActionResult, error) {
	if !action.Valid() {
		s.metrics.Action("unknown", "invalid")
		return ActionResult{}, fmt.Errorf("%w: %q", ErrUnknownAction, action)
	}
	now := s.clock.Now()
	if err := s.precheck(owner, string(action), now); err != nil {
		return ActionResult{}, err
	}

	var res ActionResult
	p, err := s.store.Mutate(owner, func(p pet.Pet) (pet.Pet, error) {
		res = ActionResult{}
		switch action {
		case Feed:
			if !s.rules.RiskWindow.Contains(now) {
				next, change := pet.Feed(p, s.rules.Balance)
				res.Change = change
				return next, nil
			}
			if p.Transformed {
				res.Reset = true
				return pet.ResetTransformation(p, now), nil
			}
			res.Transformed = true
			res.Prank = s.rng.Float64() < s.rules.TransformationPrankChance
			return pet.Transform(p, s.rules.Catalog, now), nil
		case Play:
			next, change := pet.Play(p, s.rules.Balance)
			res.Change = change
			return next, nil
		case Sleep:
			next, change := pet.Sleep(p, s.rules.Balance)
			res.Change = change
			return next, nil
		default:
			return p, fmt.Errorf("%w: %q", ErrUnknownAction, action)
		}
	})
	s.metrics.Action(string(action), outcome(err))
	if err != nil {
		return ActionResult{}, err
	}

	s.saver.Request()
	if res.Transformed {
		slog.Info("gremlin: transformed", "owner", owner, "prank", res.Prank)
	}
	res.Snapshot = s.snapshot(owner, p)
	return res, nil
}

// AttemptRevert tries to return owner's transformed pet to normal. Attempts
// before the transformation duration has passed fail with *TooSoonError and
// neither change the pet nor draw randomness.
func (s *Service) AttemptRevert(owner string) (RevertResult, error) {
	now := s.clock.Now()
	if err := s.precheck(owner, CommandRevert, now); err != nil {
		return RevertResult{}, err
	}

	var success bool
	p, err := s.store.Mutate(owner, func(p pet.Pet) (pet.Pet, error) {
		if !p.Transformed {
			return p, ErrNotTransformed
		}
		if wait := pet.RevertWait(p, s.rules.TransformationDuration, now); wait > 0 {
			return p, &TooSoonError{Remaining: wait}
		}
		next, ok := pet.AttemptRevert(p, s.rules.Catalog, s.rules.RevertSuccessChance, s.rng, now)
		success = ok
		return next, nil
	})
	s.metrics.Action(CommandRevert, outcome(err))
	if err != nil {
		return RevertResult{}, err
	}

	s.saver.Request()
	slog.Info("gremlin: revert attempted", "owner", owner, "success", success)
	return RevertResult{Success: success, Snapshot: s.snapshot(owner, p)}, nil
}

func (s *Service) precheck(owner, command string, now time.Time) error {
	if strings.TrimSpace(owner) == "" {
		return ErrInvalidOwner
	}
	if wait, ok := s.cooldowns.Allow(owner, command, now); !ok {
		s.metrics.Action(command, "cooldown")
		return &CooldownError{Action: command, RetryAfter: wait}
	}
	return nil
}

func (s *Service) snapshot(owner string, p pet.Pet) pet.Snapshot {
	return pet.NewSnapshot(owner, p)
}

func outcome(err error) string {
	var tooSoon *TooSoonError
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, store.ErrNotFound):
		return "not_found"
	case errors.Is(err, store.ErrAlreadyExists):
		return "already_exists"
	case errors.As(err, &tooSoon):
		return "too_soon"
	case errors.Is(err, ErrNotTransformed):
		return "not_transformed"
	default:
		return "error"
	}
}
