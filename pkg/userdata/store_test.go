package userdata

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/platewise/recipe-service/pkg/storage"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	db, err := storage.Open(context.Background(), filepath.Join(t.TempDir(), "userdata.db"))
	if err != nil {
		t.Fatalf("storage.Open() error = %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewStore(db, zerolog.New(os.Stderr).Level(zerolog.Disabled))
}

func TestFavorites(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	if err := store.MarkFavorite(ctx, 1, 100); err != nil {
		t.Fatalf("MarkFavorite() error = %v", err)
	}
	if err := store.MarkFavorite(ctx, 1, 200); err != nil {
		t.Fatalf("MarkFavorite() error = %v", err)
	}

	// Duplicate favorite is reported, not silently absorbed.
	if err := store.MarkFavorite(ctx, 1, 100); !errors.Is(err, ErrAlreadyFavorite) {
		t.Errorf("duplicate MarkFavorite() error = %v, want ErrAlreadyFavorite", err)
	}

	ids, err := store.FavoriteIDs(ctx, 1)
	if err != nil {
		t.Fatalf("FavoriteIDs() error = %v", err)
	}
	if len(ids) != 2 || ids[0] != 100 || ids[1] != 200 {
		t.Errorf("FavoriteIDs() = %v, want [100 200]", ids)
	}

	removed, err := store.RemoveFavorite(ctx, 1, 100)
	if err != nil {
		t.Fatalf("RemoveFavorite() error = %v", err)
	}
	if !removed {
		t.Error("RemoveFavorite() = false, want true")
	}

	// Removing a recipe that isn't a favorite reports false.
	removed, err = store.RemoveFavorite(ctx, 1, 999)
	if err != nil {
		t.Fatalf("RemoveFavorite() error = %v", err)
	}
	if removed {
		t.Error("RemoveFavorite(999) = true, want false")
	}
}

func TestWatched_OrderAndRefresh(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	for _, id := range []int64{10, 20, 30} {
		if err := store.MarkWatched(ctx, 1, id); err != nil {
			t.Fatalf("MarkWatched(%d) error = %v", id, err)
		}
		time.Sleep(2 * time.Millisecond) // distinct timestamps
	}

	ids, err := store.LastWatchedIDs(ctx, 1, 2)
	if err != nil {
		t.Fatalf("LastWatchedIDs() error = %v", err)
	}
	if len(ids) != 2 || ids[0] != 30 || ids[1] != 20 {
		t.Errorf("LastWatchedIDs() = %v, want [30 20]", ids)
	}

	// Re-watching an old recipe moves it to the front.
	time.Sleep(2 * time.Millisecond)
	if err := store.MarkWatched(ctx, 1, 10); err != nil {
		t.Fatalf("MarkWatched(10) error = %v", err)
	}
	ids, _ = store.LastWatchedIDs(ctx, 1, 3)
	if len(ids) != 3 || ids[0] != 10 {
		t.Errorf("LastWatchedIDs() after rewatch = %v, want 10 first", ids)
	}
}

func TestWatched_DefaultLimit(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	for id := int64(1); id <= 5; id++ {
		if err := store.MarkWatched(ctx, 7, id); err != nil {
			t.Fatalf("MarkWatched() error = %v", err)
		}
		time.Sleep(2 * time.Millisecond)
	}

	ids, err := store.LastWatchedIDs(ctx, 7, 0)
	if err != nil {
		t.Fatalf("LastWatchedIDs() error = %v", err)
	}
	if len(ids) != 3 {
		t.Errorf("LastWatchedIDs(limit=0) = %d ids, want default 3", len(ids))
	}
}
