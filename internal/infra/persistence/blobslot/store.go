// Package blobslot persists the whole board snapshot as a single JSON blob
// through the blob abstraction. The slot is rewritten after every successful
// transaction; a missing or malformed blob falls back to the default seed.
package blobslot

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sync"

	"clinicboard/internal/blob"
	"clinicboard/internal/infra/persistence/memory"
	"clinicboard/pkg/domain"
)

var _ domain.PersistentStore = (*Store)(nil)

// DefaultKey is the blob key holding the board snapshot.
const DefaultKey = "snapshots/board.json"

// Store wraps the in-memory store and mirrors its state into one blob slot.
type Store struct {
	*memory.Store
	blobs blob.Store
	key   string
	mu    sync.Mutex
}

// NewStore constructs a blob-backed persistent store. An empty key selects
// DefaultKey. Hydration errors other than infrastructure failures are treated
// as an absent snapshot: the slot may hold garbage from an older writer, and
// the seed is the documented recovery.
func NewStore(ctx context.Context, blobs blob.Store, key string, engine *domain.RulesEngine) (*Store, error) {
	if blobs == nil {
		return nil, fmt.Errorf("blob store required")
	}
	if key == "" {
		key = DefaultKey
	}
	s := &Store{Store: memory.NewStore(engine), blobs: blobs, key: key}
	s.ImportState(s.load(ctx))
	return s, nil
}

func (s *Store) load(ctx context.Context) domain.Snapshot {
	_, rc, err := s.blobs.Get(ctx, s.key)
	if err != nil {
		return domain.DefaultSnapshot()
	}
	defer func() { _ = rc.Close() }()
	data, err := io.ReadAll(rc)
	if err != nil {
		return domain.DefaultSnapshot()
	}
	var snapshot domain.Snapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return domain.DefaultSnapshot()
	}
	if snapshot.Employees == nil && snapshot.Groups == nil && snapshot.Statuses == nil && snapshot.Tasks == nil {
		return domain.DefaultSnapshot()
	}
	return snapshot
}

func (s *Store) persist(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	snapshot := s.ExportState()
	data, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	if _, err := s.blobs.Put(ctx, s.key, bytes.NewReader(data), blob.PutOptions{ContentType: "application/json"}); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	return nil
}

// RunInTransaction applies the provided function within a transaction, then
// rewrites the snapshot slot if successful.
func (s *Store) RunInTransaction(ctx context.Context, fn func(domain.Transaction) error) (domain.Result, error) {
	res, err := s.Store.RunInTransaction(ctx, fn)
	if err != nil {
		return res, err
	}
	if err := s.persist(ctx); err != nil {
		return res, err
	}
	return res, nil
}

// Key returns the configured snapshot key.
func (s *Store) Key() string { return s.key }

// Blobs exposes the underlying blob store for inspection in tests.
func (s *Store) Blobs() blob.Store { return s.blobs }
