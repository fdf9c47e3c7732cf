package blob

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"
)

func newTempFS(t *testing.T) *Filesystem {
	dir := t.TempDir()
	fs, err := NewFilesystem(dir)
	if err != nil {
		t.Fatalf("NewFilesystem: %v", err)
	}
	return fs
}

func TestFilesystemPutGetHeadListDelete(t *testing.T) {
	ctx := context.Background()
	fs := newTempFS(t)
	info, err := fs.Put(ctx, "snapshots/board.json", bytes.NewReader([]byte("hello")), PutOptions{ContentType: "application/json", Metadata: map[string]string{"k": "v"}})
	if err != nil {
		t.Fatalf("put: %v", err)
	}
	if info.Key != "snapshots/board.json" || info.Size != 5 {
		t.Fatalf("unexpected info %+v", info)
	}
	// Head
	h, err := fs.Head(ctx, "snapshots/board.json")
	if err != nil {
		t.Fatalf("head: %v", err)
	}
	if h.ETag == "" {
		t.Fatalf("etag expected")
	}
	// Get
	g, rc, err := fs.Get(ctx, "snapshots/board.json")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	b, _ := io.ReadAll(rc)
	if err := rc.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if string(b) != "hello" || g.ETag != h.ETag {
		t.Fatalf("unexpected get artifacts")
	}
	// List prefix
	list, err := fs.List(ctx, "snapshots/")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 1 || list[0].Key != "snapshots/board.json" {
		t.Fatalf("unexpected list %+v", list)
	}
	// Delete
	ok, err := fs.Delete(ctx, "snapshots/board.json")
	if err != nil || !ok {
		t.Fatalf("delete: %v %v", ok, err)
	}
	ok, err = fs.Delete(ctx, "snapshots/board.json")
	if err != nil || ok {
		t.Fatalf("second delete should be false")
	}
}

func TestFilesystemPutOverwrites(t *testing.T) {
	ctx := context.Background()
	fs := newTempFS(t)
	if _, err := fs.Put(ctx, "slot.json", bytes.NewReader([]byte("one")), PutOptions{}); err != nil {
		t.Fatalf("first put: %v", err)
	}
	if _, err := fs.Put(ctx, "slot.json", bytes.NewReader([]byte("two")), PutOptions{}); err != nil {
		t.Fatalf("overwrite put: %v", err)
	}
	_, rc, err := fs.Get(ctx, "slot.json")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	b, _ := io.ReadAll(rc)
	_ = rc.Close()
	if string(b) != "two" {
		t.Fatalf("overwrite lost: %q", b)
	}
}

func TestFilesystemPathTraversal(t *testing.T) {
	ctx := context.Background()
	fs := newTempFS(t)
	if _, err := fs.Put(ctx, "../escape.txt", bytes.NewReader([]byte("x")), PutOptions{}); err == nil {
		t.Fatalf("expected traversal error")
	}
	if _, err := fs.Put(ctx, "/abs.txt", bytes.NewReader([]byte("x")), PutOptions{}); err == nil {
		t.Fatalf("expected absolute error")
	}
	if _, err := fs.Put(ctx, "  ", bytes.NewReader([]byte("x")), PutOptions{}); err == nil {
		t.Fatalf("expected empty key error")
	}
}

func TestFilesystemMetadataPersistence(t *testing.T) {
	ctx := context.Background()
	fs := newTempFS(t)
	if _, err := fs.Put(ctx, "meta/data.bin", bytes.NewReader([]byte("abc")), PutOptions{ContentType: "application/octet-stream", Metadata: map[string]string{"a": "1"}}); err != nil {
		t.Fatalf("put: %v", err)
	}
	dataPath, metaPath, _ := fs.pathFor("meta/data.bin")
	if _, err := os.Stat(dataPath); err != nil {
		t.Fatalf("expected data path")
	}
	b, err := os.ReadFile(metaPath)
	if err != nil {
		t.Fatalf("read meta: %v", err)
	}
	if !bytes.Contains(b, []byte("application/octet-stream")) {
		t.Fatalf("meta missing content type")
	}
	if filepath.Ext(metaPath) != ".meta" {
		t.Fatalf("meta path extension mismatch")
	}
}
