// Package repository persists finished match records and loads decks.
package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/nenshoukei/zombals-sub000/internal/game"
)

// ErrNotFound is returned when a record or deck does not exist.
var ErrNotFound = errors.New("not found")

// RecordStore saves finished records. SaveRecord of an id that already exists
// is a silent no-op; unfinished records fail with game.ErrRecordUnfinished.
type RecordStore interface {
	SaveRecord(ctx context.Context, r *game.Record) error
	GetRecord(ctx context.Context, id string) (*game.Record, error)
	Close() error
}

// DeckStore looks up the decks a user may enter the lobby with.
type DeckStore interface {
	FindDeck(ctx context.Context, userID, deckID string) (game.Deck, error)
}

func checkSavable(r *game.Record) error {
	if r == nil {
		return fmt.Errorf("nil record")
	}
	if strings.TrimSpace(r.ID) == "" {
		return fmt.Errorf("record id is required")
	}
	if !r.IsFinished() {
		return fmt.Errorf("record %s: %w", r.ID, game.ErrRecordUnfinished)
	}
	return nil
}

// Open returns the record store for driver. The memory driver ignores dsn.
func Open(ctx context.Context, driver, dsn string) (RecordStore, error) {
	switch driver {
	case "", "memory":
		return NewMemoryStore(), nil
	case "postgres":
		s, err := OpenPostgres(ctx, dsn)
		if err != nil {
			return nil, err
		}
		return s, nil
	case "sqlite":
		s, err := OpenSQLite(dsn)
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unknown database driver %q", driver)
	}
}
