package postgres

import (
	"context"
	"database/sql"
	"testing"

	"clinicboard/internal/infra/persistence/postgres/testutil"
	"clinicboard/pkg/domain"
)

func withStub(t *testing.T, conn func(*testutil.StubConn)) *Store {
	t.Helper()
	db, stub := testutil.NewStubDB()
	if conn != nil {
		conn(stub)
	}
	restore := OverrideSQLOpen(func(string, string) (*sql.DB, error) { return db, nil })
	t.Cleanup(restore)
	store, err := NewStore("postgres://stub", domain.NewRulesEngine())
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	return store
}

func TestPostgresStoreSeedsEmptyTable(t *testing.T) {
	store := withStub(t, nil)
	if len(store.ListEmployees()) != 3 {
		t.Fatalf("expected seed employees, got %d", len(store.ListEmployees()))
	}
	if _, ok := store.GetGroup("G_ADMIN"); !ok {
		t.Fatalf("expected seed admin group")
	}
}

func TestPostgresStorePersistsBuckets(t *testing.T) {
	var stub *testutil.StubConn
	store := withStub(t, func(c *testutil.StubConn) { stub = c })
	if _, err := store.RunInTransaction(context.Background(), func(tx domain.Transaction) error {
		_, e := tx.CreateEmployee(domain.Employee{ID: "E100", Name: "Persist"})
		return e
	}); err != nil {
		t.Fatalf("transaction: %v", err)
	}
	for _, bucket := range postgresBuckets {
		if _, ok := stub.State[bucket]; !ok {
			t.Fatalf("bucket %q not upserted", bucket)
		}
	}
}

func TestPostgresStoreRoundTrip(t *testing.T) {
	db, stub := testutil.NewStubDB()
	restore := OverrideSQLOpen(func(string, string) (*sql.DB, error) { return db, nil })
	defer restore()
	store, err := NewStore("", domain.NewRulesEngine())
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	if _, err := store.RunInTransaction(context.Background(), func(tx domain.Transaction) error {
		tx.SetTheme(domain.ThemeLight)
		tx.AppendActivity("round trip")
		return nil
	}); err != nil {
		t.Fatalf("transaction: %v", err)
	}

	// Reload from the same stub state through a fresh store.
	reloaded, err := NewStore("", domain.NewRulesEngine())
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if reloaded.CurrentTheme() != domain.ThemeLight {
		t.Fatalf("theme = %q", reloaded.CurrentTheme())
	}
	activity := reloaded.ListActivity()
	if len(activity) == 0 || activity[0].Message != "round trip" {
		t.Fatalf("activity not reloaded: %+v", activity)
	}
	if len(stub.Execs) == 0 {
		t.Fatalf("expected recorded statements")
	}
}

func TestPostgresStorePersistFailureSurfaces(t *testing.T) {
	var stub *testutil.StubConn
	store := withStub(t, func(c *testutil.StubConn) { stub = c })
	stub.FailBegin = true
	if _, err := store.RunInTransaction(context.Background(), func(tx domain.Transaction) error {
		_, e := tx.CreateEmployee(domain.Employee{ID: "E100", Name: "Fail"})
		return e
	}); err == nil {
		t.Fatalf("expected persist error")
	}
}

func TestPostgresStoreOpenFailures(t *testing.T) {
	db, stub := testutil.NewStubDB()
	stub.FailPing = true
	restore := OverrideSQLOpen(func(string, string) (*sql.DB, error) { return db, nil })
	defer restore()
	if _, err := NewStore("postgres://stub", domain.NewRulesEngine()); err == nil {
		t.Fatalf("expected ping failure")
	}
}
