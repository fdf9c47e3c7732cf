package core

import (
	"clinicboard/internal/infra/persistence/blobslot"
	"clinicboard/internal/infra/persistence/memory"
	"context"
	"io"
	"path/filepath"
	"testing"
)

func TestOpenPersistentStoreMemory(t *testing.T) {
	t.Setenv("CLINICBOARD_STORAGE_DRIVER", "memory")
	store, err := OpenPersistentStore(context.Background(), NewDefaultRulesEngine())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if _, ok := store.(*memory.Store); !ok {
		t.Fatalf("expected memory store, got %T", store)
	}
	if len(store.ListEmployees()) == 0 {
		t.Fatalf("memory driver should start seeded")
	}
}

func TestOpenPersistentStoreSQLite(t *testing.T) {
	t.Setenv("CLINICBOARD_STORAGE_DRIVER", "sqlite")
	t.Setenv("CLINICBOARD_SQLITE_PATH", filepath.Join(t.TempDir(), "board.db"))
	store, err := OpenPersistentStore(context.Background(), NewDefaultRulesEngine())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if closer, ok := store.(io.Closer); ok {
		defer func() { _ = closer.Close() }()
	}
	if len(store.ListStatuses()) != 3 {
		t.Fatalf("sqlite driver should start seeded")
	}
}

func TestOpenPersistentStoreBlob(t *testing.T) {
	t.Setenv("CLINICBOARD_STORAGE_DRIVER", "blob")
	t.Setenv("CLINICBOARD_BLOB_DRIVER", "memory")
	store, err := OpenPersistentStore(context.Background(), NewDefaultRulesEngine())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	slot, ok := store.(*blobslot.Store)
	if !ok {
		t.Fatalf("expected blob slot store, got %T", store)
	}
	if slot.Key() != blobslot.DefaultKey {
		t.Fatalf("unexpected slot key %q", slot.Key())
	}
}

func TestOpenPersistentStoreUnknownDriver(t *testing.T) {
	t.Setenv("CLINICBOARD_STORAGE_DRIVER", "carrier-pigeon")
	if _, err := OpenPersistentStore(context.Background(), NewDefaultRulesEngine()); err == nil {
		t.Fatalf("expected unknown driver error")
	}
}
