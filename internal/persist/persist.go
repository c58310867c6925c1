package persist

import (
	"context"

	"github.com/moorebrett0/gremlin/internal/store"
)

// Gateway durably loads and saves the full store contents.
type Gateway interface {
	// Load returns the persisted entries, or none on first run.
	// Unreadable state is reported as ErrMalformed.
	Load(ctx context.Context) ([]store.Entry, error)
	// Save replaces the persisted state with entries.
	Save(ctx context.Context, entries []store.Entry) error
}

// Restore loads gw into s. It is meant for startup; any error is fatal there.
func Restore(ctx context.Context, gw Gateway, s *store.Store) error {
	entries, err := gw.Load(ctx)
	if err != nil {
		return err
	}
	return s.Restore(entries)
}
