// Package persist loads and saves the pet store.
package persist

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/moorebrett0/gremlin/internal/pet"
)

// ErrMalformed marks persisted state that cannot be trusted.
var ErrMalformed = errors.New("malformed persisted state")

const timeLayout = time.RFC3339Nano

// Record is the persisted form of one pet. Pointer and raw fields let Decode
// tell a missing key from a zero value.
type Record struct {
	Name               *string         `json:"name"`
	Image              *string         `json:"image"`
	Background         *string         `json:"room_background"`
	Hunger             *int            `json:"hunger"`
	Happiness          *int            `json:"happiness"`
	Energy             *int            `json:"energy"`
	Transformed        *bool           `json:"transformed"`
	TransformationTime json.RawMessage `json:"transformation_time"`
	LastRevertAttempt  json.RawMessage `json:"last_revert_attempt"`
}

// Encode converts a pet to its record.
func Encode(p pet.Pet) Record {
	return Record{
		Name:               &p.Name,
		Image:              &p.Image,
		Background:         &p.Background,
		Hunger:             &p.Hunger,
		Happiness:          &p.Happiness,
		Energy:             &p.Energy,
		Transformed:        &p.Transformed,
		TransformationTime: encodeTime(p.TransformedAt),
		LastRevertAttempt:  encodeTime(p.LastRevertAttempt),
	}
}

// Decode converts a record back to a pet. Any missing field, bad timestamp or
// broken invariant is reported as ErrMalformed.
func Decode(owner string, r Record) (pet.Pet, error) {
	if owner == "" {
		return pet.Pet{}, fmt.Errorf("%w: empty owner id", ErrMalformed)
	}
	missing := func(field string) error {
		return fmt.Errorf("%w: owner %s: missing field %q", ErrMalformed, owner, field)
	}
	switch {
	case r.Name == nil:
		return pet.Pet{}, missing("name")
	case r.Image == nil:
		return pet.Pet{}, missing("image")
	case r.Background == nil:
		return pet.Pet{}, missing("room_background")
	case r.Hunger == nil:
		return pet.Pet{}, missing("hunger")
	case r.Happiness == nil:
		return pet.Pet{}, missing("happiness")
	case r.Energy == nil:
		return pet.Pet{}, missing("energy")
	case r.Transformed == nil:
		return pet.Pet{}, missing("transformed")
	case r.TransformationTime == nil:
		return pet.Pet{}, missing("transformation_time")
	case r.LastRevertAttempt == nil:
		return pet.Pet{}, missing("last_revert_attempt")
	}

	transformedAt, err := decodeTime(r.TransformationTime)
	if err != nil {
		return pet.Pet{}, fmt.Errorf("%w: owner %s: transformation_time: %v", ErrMalformed, owner, err)
	}
	lastRevert, err := decodeTime(r.LastRevertAttempt)
	if err != nil {
		return pet.Pet{}, fmt.Errorf("%w: owner %s: last_revert_attempt: %v", ErrMalformed, owner, err)
	}

	p := pet.Pet{
		Name:              *r.Name,
		Image:             *r.Image,
		Background:        *r.Background,
		Hunger:            *r.Hunger,
		Happiness:         *r.Happiness,
		Energy:            *r.Energy,
		Transformed:       *r.Transformed,
		TransformedAt:     transformedAt,
		LastRevertAttempt: lastRevert,
	}
	if err := p.Valid(); err != nil {
		return pet.Pet{}, fmt.Errorf("%w: owner %s: %v", ErrMalformed, owner, err)
	}
	return p, nil
}

func encodeTime(t *time.Time) json.RawMessage {
	if t == nil {
		return json.RawMessage("null")
	}
	b, _ := json.Marshal(t.Format(timeLayout))
	return b
}

func decodeTime(raw json.RawMessage) (*time.Time, error) {
	if bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		return nil, nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("not a string or null")
	}
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
