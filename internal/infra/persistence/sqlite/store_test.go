package sqlite

import (
	"clinicboard/pkg/domain"
	"context"
	"path/filepath"
	"testing"
)

func TestSQLiteStorePersistAndReload(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "state.db")
	store, err := NewStore(path, domain.NewRulesEngine())
	if err != nil {
		t.Skipf("sqlite unavailable: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	if _, err := store.RunInTransaction(context.Background(), func(tx domain.Transaction) error {
		_, e := tx.CreateEmployee(domain.Employee{ID: "E100", Name: "Persist"})
		tx.SetTheme(domain.ThemeLight)
		tx.AppendActivity("persisted")
		return e
	}); err != nil {
		t.Fatalf("create: %v", err)
	}
	reloaded, err := NewStore(path, domain.NewRulesEngine())
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	t.Cleanup(func() { _ = reloaded.Close() })
	if _, ok := reloaded.GetEmployee("E100"); !ok {
		t.Fatalf("expected employee to survive reload")
	}
	if reloaded.CurrentTheme() != domain.ThemeLight {
		t.Fatalf("theme = %q", reloaded.CurrentTheme())
	}
	activity := reloaded.ListActivity()
	if len(activity) == 0 || activity[0].Message != "persisted" {
		t.Fatalf("activity not reloaded: %+v", activity)
	}
}

func TestSQLiteStoreSeedsEmptyDatabase(t *testing.T) {
	store, err := NewStore(filepath.Join(t.TempDir(), "state.db"), domain.NewRulesEngine())
	if err != nil {
		t.Skipf("sqlite unavailable: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	if len(store.ListEmployees()) != 3 || len(store.ListStatuses()) != 3 {
		t.Fatalf("expected seed data, got %d employees %d statuses",
			len(store.ListEmployees()), len(store.ListStatuses()))
	}
	var count int
	if err := store.DB().QueryRow("SELECT count(*) FROM state").Scan(&count); err != nil {
		t.Fatalf("count state rows: %v", err)
	}
	// Seeding does not write until the first transaction commits.
	if count != 0 {
		t.Fatalf("expected empty state table before first commit, got %d rows", count)
	}
}

func TestSQLiteStoreBlockedTransactionNotPersisted(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.db")
	store, err := NewStore(path, domain.NewRulesEngine())
	if err != nil {
		t.Skipf("sqlite unavailable: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	if _, err := store.RunInTransaction(context.Background(), func(tx domain.Transaction) error {
		_, e := tx.CreateGroup(domain.Group{ID: "G_TEMP", Name: "Temp"})
		return e
	}); err != nil {
		t.Fatalf("first commit: %v", err)
	}
	wantErr := context.Canceled
	if _, err := store.RunInTransaction(context.Background(), func(tx domain.Transaction) error {
		if _, e := tx.CreateGroup(domain.Group{ID: "G_LOST", Name: "Lost"}); e != nil {
			return e
		}
		return wantErr
	}); err == nil {
		t.Fatalf("expected error")
	}
	reloaded, err := NewStore(path, domain.NewRulesEngine())
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	t.Cleanup(func() { _ = reloaded.Close() })
	if _, ok := reloaded.GetGroup("G_LOST"); ok {
		t.Fatalf("failed transaction must not persist")
	}
	if _, ok := reloaded.GetGroup("G_TEMP"); !ok {
		t.Fatalf("committed group missing after reload")
	}
}
