package catalog

import (
	"context"
	"path/filepath"
	"testing"

	"lectern/internal/config"
	"lectern/internal/videohost"
)

type staticLister struct {
	libraries []videohost.Library
}

func (l staticLister) ListLibraries(context.Context) ([]videohost.Library, error) {
	return l.libraries, nil
}

func openTestStore(t *testing.T) *Store {
	t.Helper()
	cfg := config.Default()
	cfg.Paths.DataDir = t.TempDir()
	cfg.Paths.LogDir = filepath.Join(cfg.Paths.DataDir, "logs")
	store, err := Open(&cfg)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestRefreshReplacesListing(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	first := staticLister{libraries: []videohost.Library{
		{ID: "1", Name: "T1-2025", APIKey: "key-1"},
		{ID: "2", Name: "RE-2025", APIKey: "key-2"},
	}}
	if _, err := store.Refresh(ctx, first); err != nil {
		t.Fatalf("Refresh: %v", err)
	}

	second := staticLister{libraries: []videohost.Library{
		{ID: "3", Name: "T2-2026", APIKey: "key-3"},
	}}
	if _, err := store.Refresh(ctx, second); err != nil {
		t.Fatalf("second Refresh: %v", err)
	}

	libraries, err := store.Libraries(ctx)
	if err != nil {
		t.Fatalf("Libraries: %v", err)
	}
	if len(libraries) != 1 || libraries[0].ID != "3" {
		t.Fatalf("stale listing survived refresh: %+v", libraries)
	}
}

func TestLibraryKeyResolution(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	lister := staticLister{libraries: []videohost.Library{
		{ID: "1", Name: "T1-2025", APIKey: "key-1"},
		{ID: "2", Name: "RE-2025"},
	}}
	if _, err := store.Refresh(ctx, lister); err != nil {
		t.Fatalf("Refresh: %v", err)
	}

	key, ok := store.LibraryKey("1")
	if !ok || key != "key-1" {
		t.Errorf("LibraryKey(1) = %q, %v; want key-1, true", key, ok)
	}
	if _, ok := store.LibraryKey("2"); ok {
		t.Error("library without a key should not resolve")
	}
	if _, ok := store.LibraryKey("missing"); ok {
		t.Error("unknown library should not resolve")
	}
}

func TestRefreshedAtBeforeAndAfterRefresh(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	if _, ok, err := store.RefreshedAt(ctx); err != nil || ok {
		t.Fatalf("RefreshedAt on empty cache = ok=%v err=%v, want false, nil", ok, err)
	}

	lister := staticLister{libraries: []videohost.Library{{ID: "1", Name: "T1-2025"}}}
	if _, err := store.Refresh(ctx, lister); err != nil {
		t.Fatalf("Refresh: %v", err)
	}

	stamp, ok, err := store.RefreshedAt(ctx)
	if err != nil || !ok {
		t.Fatalf("RefreshedAt after refresh = ok=%v err=%v", ok, err)
	}
	if stamp.IsZero() {
		t.Error("refresh stamp should not be zero")
	}
}
