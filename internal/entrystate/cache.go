package entrystate

import (
	"context"
	"errors"
	"fmt"

	"github.com/merev/scorecard-api/internal/catalog"
	"github.com/merev/scorecard-api/internal/scoring"
)

// ErrNotFound is returned when no snapshot is cached under a key.
var ErrNotFound = errors.New("entry state not found")

// Cache stores the structured inputs behind submitted rounds and in-progress
// drafts. It is a convenience: losing an entry never loses a score.
type Cache interface {
	Save(ctx context.Context, key Key, state scoring.EntryState) error
	Load(ctx context.Context, key Key) (scoring.EntryState, error)
	Delete(ctx context.Context, key Key) error
	ClearSession(ctx context.Context, session string) error
}

// Lookup loads a round snapshot. Spirits of the Wild rounds saved before the
// game had its own type live under the genericGame key, so that key is tried
// second.
func Lookup(ctx context.Context, c Cache, key Key) (scoring.EntryState, error) {
	state, err := c.Load(ctx, key)
	if err == nil || !errors.Is(err, ErrNotFound) || key.GameType != catalog.SpiritsOwl {
		return state, err
	}

	legacy := key
	legacy.GameType = catalog.GenericGame
	state, err = c.Load(ctx, legacy)
	if err != nil {
		return nil, err
	}
	return state, nil
}

func encode(state scoring.EntryState) ([]byte, error) {
	data, err := scoring.MarshalEntryState(state)
	if err != nil {
		return nil, fmt.Errorf("encode entry state: %w", err)
	}
	return data, nil
}

func decode(data []byte) (scoring.EntryState, error) {
	state, err := scoring.UnmarshalEntryState(data)
	if err != nil {
		return nil, fmt.Errorf("decode entry state: %w", err)
	}
	if state == nil {
		return nil, ErrNotFound
	}
	return state, nil
}
