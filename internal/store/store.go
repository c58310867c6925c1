// Package store keeps every pet in memory, keyed by owner. One mutex, held for
// the lifetime of the Store, serializes all operations.
package store

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/moorebrett0/gremlin/internal/pet"
)

var (
	ErrNotFound      = errors.New("pet not found")
	ErrAlreadyExists = errors.New("owner already has a pet")
	ErrInvalidPet    = errors.New("invalid pet state")
)

// Entry pairs an owner with their pet.
type Entry struct {
	Owner string
	Pet   pet.Pet
}

// Store maps owner identifiers to pets.
type Store struct {
	mu   sync.Mutex
	pets map[string]pet.Pet
}

// New returns an empty store.
func New() *Store {
	return &Store{pets: make(map[string]pet.Pet)}
}

// Create adds a pet for owner. newPet only runs when owner has no pet yet.
func (s *Store) Create(owner string, newPet func() pet.Pet) (pet.Pet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.pets[owner]; exists {
		return pet.Pet{}, ErrAlreadyExists
	}
	p := newPet()
	if err := p.Valid(); err != nil {
		return pet.Pet{}, fmt.Errorf("%w: %v", ErrInvalidPet, err)
	}
	s.pets[owner] = p.Clone()
	return p.Clone(), nil
}

// Get returns a copy of owner's pet.
func (s *Store) Get(owner string) (pet.Pet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.pets[owner]
	if !ok {
		return pet.Pet{}, ErrNotFound
	}
	return p.Clone(), nil
}

// Mutate replaces owner's pet with fn's result. If fn returns an error the
// stored pet is left untouched and the error is returned unchanged.
func (s *Store) Mutate(owner string, fn func(pet.Pet) (pet.Pet, error)) (pet.Pet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, ok := s.pets[owner]
	if !ok {
		return pet.Pet{}, ErrNotFound
	}
	next, err := fn(cur.Clone())
	if err != nil {
		return pet.Pet{}, err
	}
	if err := next.Valid(); err != nil {
		return pet.Pet{}, fmt.Errorf("%w: %v", ErrInvalidPet, err)
	}
	s.pets[owner] = next.Clone()
	return next.Clone(), nil
}

// ForEachMutate applies fn to every pet while holding the store lock for the
// whole pass, so no other operation observes a half-updated store. Results
// that break pet invariants are discarded for that owner and reported.
func (s *Store) ForEachMutate(fn func(owner string, p pet.Pet) pet.Pet) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var errs []error
	for _, owner := range s.ownersLocked() {
		next := fn(owner, s.pets[owner].Clone())
		if err := next.Valid(); err != nil {
			errs = append(errs, fmt.Errorf("owner %s: %w: %v", owner, ErrInvalidPet, err))
			continue
		}
		s.pets[owner] = next.Clone()
	}
	return errors.Join(errs...)
}

// Snapshot returns a point-in-time copy of every pet, ordered by owner.
func (s *Store) Snapshot() []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Entry, 0, len(s.pets))
	for _, owner := range s.ownersLocked() {
		out = append(out, Entry{Owner: owner, Pet: s.pets[owner].Clone()})
	}
	return out
}

// Restore replaces the store's contents with entries. Nothing changes if any
// entry is invalid or an owner repeats.
func (s *Store) Restore(entries []Entry) error {
	next := make(map[string]pet.Pet, len(entries))
	for _, e := range entries {
		if _, dup := next[e.Owner]; dup {
			return fmt.Errorf("restore: duplicate owner %s", e.Owner)
		}
		if err := e.Pet.Valid(); err != nil {
			return fmt.Errorf("restore: owner %s: %w: %v", e.Owner, ErrInvalidPet, err)
		}
		next[e.Owner] = e.Pet.Clone()
	}

	s.mu.Lock()
	s.pets = next
	s.mu.Unlock()
	return nil
}

// Len returns the number of pets.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pets)
}

func (s *Store) ownersLocked() []string {
	owners := make([]string, 0, len(s.pets))
	for owner := range s.pets {
		owners = append(owners, owner)
	}
	sort.Strings(owners)
	return owners
}
