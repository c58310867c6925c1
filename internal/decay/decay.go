// Package decay runs the recurring tick that drifts every pet's stats and
// rolls pranks for transformed pets.
package decay

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/moorebrett0/gremlin/internal/clock"
	"github.com/moorebrett0/gremlin/internal/metrics"
	"github.com/moorebrett0/gremlin/internal/pet"
	"github.com/moorebrett0/gremlin/internal/store"
)

// Saver schedules a persistence write without blocking.
type Saver interface {
	Request()
}

// Prank is raised when a transformed pet decides to cause trouble. Rendering
// and delivery belong to whoever subscribes.
type Prank struct {
	Owner string
	Pet   pet.Snapshot
	At    time.Time
}

// Config for the decay scheduler.
type Config struct {
	Interval    time.Duration
	Balance     pet.Balance
	PrankChance float64
}

// Scheduler applies passive decay to every pet once per interval.
type Scheduler struct {
	store   *store.Store
	saver   Saver
	clock   clock.Clock
	rng     pet.Rand
	metrics *metrics.Metrics
	cfg     Config

	mu          sync.Mutex
	subscribers []func(Prank)
}

// New creates a decay scheduler.
func New(st *store.Store, saver Saver, clk clock.Clock, rng pet.Rand, m *metrics.Metrics, cfg Config) *Scheduler {
	return &Scheduler{
		store:   st,
		saver:   saver,
		clock:   clk,
		rng:     rng,
		metrics: m,
		cfg:     cfg,
	}
}

// Subscribe registers fn for prank events. Callbacks run on the scheduler
// goroutine after the store lock is released and should return quickly.
func (s *Scheduler) Subscribe(fn func(Prank)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subscribers = append(s.subscribers, fn)
}

// Run ticks once immediately, then every interval until ctx is cancelled.
// Ticks missed while the process was down are not replayed.
func (s *Scheduler) Run(ctx context.Context) {
	s.Tick()

	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Tick()
		}
	}
}

// Tick decays every pet, rolls one prank draw per transformed pet, requests a
// save and notifies subscribers. It always runs to completion.
func (s *Scheduler) Tick() []Prank {
	now := s.clock.Now()

	var pranks []Prank
	pets := 0
	err := s.store.ForEachMutate(func(owner string, p pet.Pet) pet.Pet {
		pets++
		next, _ := pet.Decay(p, s.cfg.Balance)
		if next.Transformed && s.rng.Float64() < s.cfg.PrankChance {
			pranks = append(pranks, Prank{
				Owner: owner,
				Pet:   pet.NewSnapshot(owner, next),
				At:    now,
			})
		}
		return next
	})
	if err != nil {
		slog.Error("decay: tick skipped invalid pets", "err", err)
	}

	if s.saver != nil {
		s.saver.Request()
	}
	s.metrics.Tick(pets, len(pranks))
	slog.Debug("decay: tick", "pets", pets, "pranks", len(pranks))

	s.publish(pranks)
	return pranks
}

func (s *Scheduler) publish(pranks []Prank) {
	if len(pranks) == 0 {
		return
	}
	s.mu.Lock()
	subs := append([]func(Prank){}, s.subscribers...)
	s.mu.Unlock()

	for _, p := range pranks {
		slog.Info("decay: prank triggered", "owner", p.Owner, "name", p.Pet.Name)
		for _, fn := range subs {
			fn(p)
		}
	}
}
