package persist

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/moorebrett0/gremlin/internal/store"
)

// FileGateway stores every pet in one JSON document keyed by owner id.
type FileGateway struct {
	path string
}

// NewFileGateway returns a gateway backed by the JSON file at path.
func NewFileGateway(path string) *FileGateway {
	return &FileGateway{path: filepath.Clean(path)}
}

// Path returns the backing file.
func (g *FileGateway) Path() string { return g.path }

// Load reads the file. A missing file is an empty store.
func (g *FileGateway) Load(ctx context.Context) ([]store.Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(g.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read state: %w", err)
	}
	return decodeDocument(data)
}

// Save writes the entries atomically (write tmp, fsync, rename).
func (g *FileGateway) Save(ctx context.Context, entries []store.Entry) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := encodeDocument(entries)
	if err != nil {
		return err
	}

	tmp := g.path + ".tmp"
	if err := writeSynced(tmp, data); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("write tmp state: %w", err)
	}
	if err := os.Rename(tmp, g.path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("rename state: %w", err)
	}
	syncDir(filepath.Dir(g.path))
	return nil
}

func encodeDocument(entries []store.Entry) ([]byte, error) {
	doc := make(map[string]Record, len(entries))
	for _, e := range entries {
		doc[e.Owner] = Encode(e.Pet)
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal state: %w", err)
	}
	return data, nil
}

func decodeDocument(data []byte) ([]store.Entry, error) {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		return nil, fmt.Errorf("%w: document is null", ErrMalformed)
	}
	var doc map[string]Record
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	owners := make([]string, 0, len(doc))
	for owner := range doc {
		owners = append(owners, owner)
	}
	sort.Strings(owners)

	entries := make([]store.Entry, 0, len(doc))
	for _, owner := range owners {
		p, err := Decode(owner, doc[owner])
		if err != nil {
			return nil, err
		}
		entries = append(entries, store.Entry{Owner: owner, Pet: p})
	}
	return entries, nil
}

func writeSynced(path string, data []byte) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return err
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// syncDir makes the rename durable where the platform allows it.
func syncDir(dir string) {
	d, err := os.Open(dir)
	if err != nil {
		return
	}
	_ = d.Sync()
	d.Close()
}
