package entrystate_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/merev/scorecard-api/internal/catalog"
	"github.com/merev/scorecard-api/internal/entrystate"
	"github.com/merev/scorecard-api/internal/scoring"
)

func caches(t *testing.T) map[string]entrystate.Cache {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	return map[string]entrystate.Cache{
		"memory": entrystate.NewMemoryCache(),
		"redis":  entrystate.NewRedisCache(rdb, time.Hour),
	}
}

func TestKeyFormat(t *testing.T) {
	if got := entrystate.RoundKey("42", catalog.Nerts, 3).String(); got != "round-entry-42-nerts-3" {
		t.Fatalf("unexpected round key %q", got)
	}
	if got := entrystate.DraftKey("quick", catalog.Phase10, 1).String(); got != "round-draft-quick-phase10-1" {
		t.Fatalf("unexpected draft key %q", got)
	}
}

func TestSaveLoadDelete(t *testing.T) {
	ctx := context.Background()
	state := scoring.NertsEntry{
		CenterCards:  map[string]int64{"1": 5},
		TableauCards: map[string]int64{"1": 2},
	}

	for name, c := range caches(t) {
		t.Run(name, func(t *testing.T) {
			key := entrystate.RoundKey("7", catalog.Nerts, 1)
			if _, err := c.Load(ctx, key); !errors.Is(err, entrystate.ErrNotFound) {
				t.Fatalf("expected ErrNotFound, got %v", err)
			}
			if err := c.Save(ctx, key, state); err != nil {
				t.Fatalf("save: %v", err)
			}
			got, err := c.Load(ctx, key)
			if err != nil {
				t.Fatalf("load: %v", err)
			}
			nerts, ok := got.(scoring.NertsEntry)
			if !ok || nerts.CenterCards["1"] != 5 || nerts.TableauCards["1"] != 2 {
				t.Fatalf("unexpected state %#v", got)
			}
			if err := c.Delete(ctx, key); err != nil {
				t.Fatalf("delete: %v", err)
			}
			if _, err := c.Load(ctx, key); !errors.Is(err, entrystate.ErrNotFound) {
				t.Fatalf("expected ErrNotFound after delete, got %v", err)
			}
		})
	}
}

func TestLookupFallsBackToLegacyGenericKey(t *testing.T) {
	ctx := context.Background()
	owl := scoring.SpiritsOwlEntry{
		Pair1:       map[string][2]bool{"1": {true, true}},
		SpiritStone: map[string]bool{"1": true},
	}

	for name, c := range caches(t) {
		t.Run(name, func(t *testing.T) {
			if err := c.Save(ctx, entrystate.RoundKey("9", catalog.GenericGame, 2), owl); err != nil {
				t.Fatal(err)
			}
			got, err := entrystate.Lookup(ctx, c, entrystate.RoundKey("9", catalog.SpiritsOwl, 2))
			if err != nil {
				t.Fatalf("lookup: %v", err)
			}
			if _, ok := got.(scoring.SpiritsOwlEntry); !ok {
				t.Fatalf("expected SpiritsOwlEntry, got %T", got)
			}

			// Other game types never fall back.
			if _, err := entrystate.Lookup(ctx, c, entrystate.RoundKey("9", catalog.Skyjo, 2)); !errors.Is(err, entrystate.ErrNotFound) {
				t.Fatalf("expected ErrNotFound, got %v", err)
			}
		})
	}
}

func TestClearSession(t *testing.T) {
	ctx := context.Background()
	state := scoring.GenericEntry{PlayerScores: map[string]int64{"1": 1}}

	for name, c := range caches(t) {
		t.Run(name, func(t *testing.T) {
			keep := entrystate.RoundKey("12", catalog.GenericGame, 1)
			gone := []entrystate.Key{
				entrystate.RoundKey("1", catalog.GenericGame, 1),
				entrystate.RoundKey("1", catalog.GenericGame, 2),
				entrystate.DraftKey("1", catalog.GenericGame, 3),
			}
			for _, k := range append(gone, keep) {
				if err := c.Save(ctx, k, state); err != nil {
					t.Fatal(err)
				}
			}

			if err := c.ClearSession(ctx, "1"); err != nil {
				t.Fatalf("clear: %v", err)
			}
			for _, k := range gone {
				if _, err := c.Load(ctx, k); !errors.Is(err, entrystate.ErrNotFound) {
					t.Errorf("%s: expected ErrNotFound, got %v", k, err)
				}
			}
			if _, err := c.Load(ctx, keep); err != nil {
				t.Errorf("expected %s to survive, got %v", keep, err)
			}
		})
	}
}
