package persist

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/moorebrett0/gremlin/internal/pet"
)

func transformedPet() pet.Pet {
	at := time.Date(2024, 6, 1, 1, 23, 45, 123456000, time.FixedZone("", -5*3600))
	tried := at.Add(25 * time.Hour)
	p := pet.New("Gizmo", "img/t2.png", "img/attic.png")
	p.Hunger, p.Happiness, p.Energy = 0, 100, 37
	p.Transformed, p.TransformedAt, p.LastRevertAttempt = true, &at, &tried
	return p
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	for name, p := range map[string]pet.Pet{
		"normal":      pet.New("Zog", "img/g1.png", "img/room.png"),
		"transformed": transformedPet(),
	} {
		t.Run(name, func(t *testing.T) {
			data, err := json.Marshal(Encode(p))
			if err != nil {
				t.Fatalf("marshal: %v", err)
			}
			var r Record
			if err := json.Unmarshal(data, &r); err != nil {
				t.Fatalf("unmarshal: %v", err)
			}
			got, err := Decode("1", r)
			if err != nil {
				t.Fatalf("decode: %v", err)
			}
			if diff := cmp.Diff(p, got); diff != "" {
				t.Fatalf("round trip mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestEncodeWritesNullTimestamps(t *testing.T) {
	data, err := json.Marshal(Encode(pet.New("Zog", "g", "r")))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	for _, want := range []string{`"transformation_time":null`, `"last_revert_attempt":null`} {
		if !strings.Contains(string(data), want) {
			t.Fatalf("expected %s in %s", want, data)
		}
	}
}

func TestDecodeReadsLegacyRecord(t *testing.T) {
	legacy := `{
		"name": "Stripe",
		"image": "images/gremlin_2.png",
		"room_background": "images/room_1.png",
		"hunger": 12,
		"happiness": 88,
		"energy": 40,
		"transformed": true,
		"transformation_time": "2024-06-01T01:23:45.123456-05:00",
		"last_revert_attempt": null
	}`
	var r Record
	if err := json.Unmarshal([]byte(legacy), &r); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	p, err := Decode("123456789", r)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	want := time.Date(2024, 6, 1, 6, 23, 45, 123456000, time.UTC)
	if p.TransformedAt == nil || !p.TransformedAt.Equal(want) {
		t.Fatalf("expected transformation time %v, got %v", want, p.TransformedAt)
	}
	if p.LastRevertAttempt != nil {
		t.Fatalf("expected nil last revert attempt, got %v", p.LastRevertAttempt)
	}
}

func TestDecodeRejectsMalformed(t *testing.T) {
	valid := func() map[string]any {
		return map[string]any{
			"name": "Zog", "image": "g", "room_background": "r",
			"hunger": 50, "happiness": 50, "energy": 50,
			"transformed": false, "transformation_time": nil, "last_revert_attempt": nil,
		}
	}
	tests := []struct {
		name string
		mod  func(map[string]any)
	}{
		{"missing name", func(m map[string]any) { delete(m, "name") }},
		{"missing energy", func(m map[string]any) { delete(m, "energy") }},
		{"missing transformation_time", func(m map[string]any) { delete(m, "transformation_time") }},
		{"hunger too high", func(m map[string]any) { m["hunger"] = 101 }},
		{"happiness negative", func(m map[string]any) { m["happiness"] = -3 }},
		{"transformed without time", func(m map[string]any) { m["transformed"] = true }},
		{"time without transformed", func(m map[string]any) { m["transformation_time"] = "2024-06-01T00:00:00Z" }},
		{"bad timestamp", func(m map[string]any) { m["last_revert_attempt"] = "yesterday" }},
		{"numeric timestamp", func(m map[string]any) { m["last_revert_attempt"] = 17 }},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			m := valid()
			tc.mod(m)
			data, _ := json.Marshal(m)
			var r Record
			if err := json.Unmarshal(data, &r); err != nil {
				t.Fatalf("unmarshal: %v", err)
			}
			if _, err := Decode("1", r); !errors.Is(err, ErrMalformed) {
				t.Fatalf("expected ErrMalformed, got %v", err)
			}
		})
	}

	data, _ := json.Marshal(valid())
	var r Record
	_ = json.Unmarshal(data, &r)
	if _, err := Decode("", r); !errors.Is(err, ErrMalformed) {
		t.Fatalf("expected ErrMalformed for empty owner, got %v", err)
	}
}
