package sqlite

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/jkaninda/ligi/internal/storage"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(Config{
		Path:       filepath.Join(t.TempDir(), "nested", "ligi.db"),
		BcryptCost: 4,
	}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err != nil {
		t.Fatalf("opening store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	if err := store.Migrate(context.Background()); err != nil {
		t.Fatalf("migrating: %v", err)
	}
	return store
}

func TestOpen_CreatesParentDirAndMigrates(t *testing.T) {
	store := openTestStore(t)

	if store.Driver() != storage.DriverSQLite {
		t.Errorf("unexpected driver %q", store.Driver())
	}

	// All sub-stores are usable after migration.
	if _, err := store.Teams().Count(context.Background()); err != nil {
		t.Errorf("counting teams: %v", err)
	}
	if _, err := store.Identities().List(context.Background(), 10, ""); err != nil {
		t.Errorf("listing identities: %v", err)
	}
	if _, err := store.Documents().List(context.Background(), "servants"); err != nil {
		t.Errorf("listing documents: %v", err)
	}
}

func TestSeedDemo(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	if err := store.SeedDemo(ctx); err != nil {
		t.Fatalf("seeding: %v", err)
	}

	teams, err := store.Teams().ListByPoints(ctx)
	if err != nil {
		t.Fatalf("listing teams: %v", err)
	}
	if len(teams) != 3 {
		t.Fatalf("expected 3 demo teams, got %d", len(teams))
	}
	if teams[0].Name != "Lions FC" {
		t.Errorf("expected Lions FC on top, got %q", teams[0].Name)
	}

	// Seeding again is a no-op on a populated league.
	if err := store.SeedDemo(ctx); err != nil {
		t.Fatalf("re-seeding: %v", err)
	}
	teams, err = store.Teams().ListByPoints(ctx)
	if err != nil {
		t.Fatalf("listing teams: %v", err)
	}
	if len(teams) != 3 {
		t.Errorf("re-seed duplicated teams: %d", len(teams))
	}
}
