package blob

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"testing"
)

func TestMemoryStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewMemory()
	if store.Driver() != DriverMemory {
		t.Fatalf("driver = %s", store.Driver())
	}
	if _, err := store.Put(ctx, "a/one", bytes.NewReader([]byte("1")), PutOptions{Metadata: map[string]string{"x": "y"}}); err != nil {
		t.Fatalf("put: %v", err)
	}
	if _, err := store.Put(ctx, "a/one", bytes.NewReader([]byte("11")), PutOptions{}); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	if _, err := store.Put(ctx, "b/two", bytes.NewReader([]byte("2")), PutOptions{}); err != nil {
		t.Fatalf("put: %v", err)
	}
	info, rc, err := store.Get(ctx, "a/one")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	b, _ := io.ReadAll(rc)
	_ = rc.Close()
	if string(b) != "11" || info.Size != 2 {
		t.Fatalf("unexpected content %q size %d", b, info.Size)
	}
	list, err := store.List(ctx, "a/")
	if err != nil || len(list) != 1 {
		t.Fatalf("list: %v %+v", err, list)
	}
	ok, err := store.Delete(ctx, "b/two")
	if err != nil || !ok {
		t.Fatalf("delete: %v %v", ok, err)
	}
	if _, err := store.Head(ctx, "b/two"); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected not-exist error, got %v", err)
	}
}

func TestOpenSelectsDriver(t *testing.T) {
	t.Setenv("CLINICBOARD_BLOB_DRIVER", "memory")
	store, err := Open(context.Background())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if store.Driver() != DriverMemory {
		t.Fatalf("driver = %s", store.Driver())
	}
	t.Setenv("CLINICBOARD_BLOB_DRIVER", "fs")
	t.Setenv("CLINICBOARD_BLOB_FS_ROOT", t.TempDir())
	store, err = Open(context.Background())
	if err != nil {
		t.Fatalf("open fs: %v", err)
	}
	if store.Driver() != DriverFilesystem {
		t.Fatalf("driver = %s", store.Driver())
	}
	t.Setenv("CLINICBOARD_BLOB_DRIVER", "bogus")
	if _, err := Open(context.Background()); err == nil {
		t.Fatalf("expected unknown driver error")
	}
}
