// Package storage persists the opaque save blob of a game session.
// The game package never imports this; main wires a Store to the session
// through an AsyncWriter.
package storage

import (
	"context"
	"errors"
	"fmt"
)

// DefaultSlot is the save key used by the browser build.
const DefaultSlot = "tycoon_save_v1"

// ErrNotFound means no save exists yet.
var ErrNotFound = errors.New("save not found")

// Store loads and saves one serialized game state.
type Store interface {
	// Load returns the last saved blob, or ErrNotFound.
	Load(ctx context.Context) ([]byte, error)

	// Save replaces the stored blob.
	Save(ctx context.Context, blob []byte) error

	// Close releases any underlying resources.
	Close() error
}

// Open builds the store selected by driver ("file", "sqlite" or "memory").
func Open(driver, path, slot string) (Store, error) {
	if slot == "" {
		slot = DefaultSlot
	}
	switch driver {
	case "", "file":
		return NewFileStore(path), nil
	case "sqlite":
		return OpenSQLite(path, slot)
	case "memory":
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", driver)
	}
}
