// Package sqlite persists the in-memory board state to an embedded SQLite
// database, snapshotting the full state after every successful transaction.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"clinicboard/internal/infra/persistence/memory"
	"clinicboard/pkg/domain"

	_ "modernc.org/sqlite" // pure go sqlite driver
)

var _ domain.PersistentStore = (*Store)(nil)

// Store wraps the in-memory store and mirrors its state into a single SQLite
// table of JSON buckets.
type Store struct {
	*memory.Store
	db   *sql.DB
	mu   sync.Mutex
	path string
}

// NewStore constructs a snapshotting SQLite-backed persistent store. An empty
// database hydrates from the default seed snapshot.
func NewStore(path string, engine *domain.RulesEngine) (*Store, error) {
	if path == "" {
		path = "clinicboard.db"
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil && !errors.Is(err, os.ErrExist) {
		return nil, fmt.Errorf("create dirs: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS state (
		bucket TEXT PRIMARY KEY,
		payload BLOB NOT NULL
	)`); err != nil {
		return nil, fmt.Errorf("create state table: %w", err)
	}
	s := &Store{Store: memory.NewStore(engine), db: db, path: path}
	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

var sqliteBuckets = []string{"employees", "groups", "statuses", "tasks", "activity", "meta"}

// snapshotMeta carries the scalar snapshot fields alongside the entity buckets.
type snapshotMeta struct {
	SchemaVersion int             `json:"schema_version"`
	Session       *domain.Session `json:"session,omitempty"`
	Theme         domain.Theme    `json:"theme"`
	TaskSeq       int             `json:"task_seq"`
	ActivitySeq   int             `json:"activity_seq"`
}

func (s *Store) load() error {
	rows, err := s.db.Query(`SELECT bucket, payload FROM state`)
	if err != nil {
		return fmt.Errorf("select state: %w", err)
	}
	defer func() { _ = rows.Close() }()
	type raw struct {
		bucket  string
		payload []byte
	}
	var raws []raw
	for rows.Next() {
		var r raw
		if err := rows.Scan(&r.bucket, &r.payload); err != nil {
			return fmt.Errorf("scan: %w", err)
		}
		raws = append(raws, r)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate state: %w", err)
	}
	if len(raws) == 0 {
		s.ImportState(domain.DefaultSnapshot())
		return nil
	}
	snapshot := domain.Snapshot{}
	for _, r := range raws {
		switch r.bucket {
		case "employees":
			if err := json.Unmarshal(r.payload, &snapshot.Employees); err != nil {
				return fmt.Errorf("decode employees: %w", err)
			}
		case "groups":
			if err := json.Unmarshal(r.payload, &snapshot.Groups); err != nil {
				return fmt.Errorf("decode groups: %w", err)
			}
		case "statuses":
			if err := json.Unmarshal(r.payload, &snapshot.Statuses); err != nil {
				return fmt.Errorf("decode statuses: %w", err)
			}
		case "tasks":
			if err := json.Unmarshal(r.payload, &snapshot.Tasks); err != nil {
				return fmt.Errorf("decode tasks: %w", err)
			}
		case "activity":
			if err := json.Unmarshal(r.payload, &snapshot.Activity); err != nil {
				return fmt.Errorf("decode activity: %w", err)
			}
		case "meta":
			var meta snapshotMeta
			if err := json.Unmarshal(r.payload, &meta); err != nil {
				return fmt.Errorf("decode meta: %w", err)
			}
			snapshot.SchemaVersion = meta.SchemaVersion
			snapshot.Session = meta.Session
			snapshot.Theme = meta.Theme
			snapshot.TaskSeq = meta.TaskSeq
			snapshot.ActivitySeq = meta.ActivitySeq
		}
	}
	s.ImportState(snapshot)
	return nil
}

func (s *Store) persist() (retErr error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	snapshot := s.ExportState()
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer func() {
		if retErr != nil {
			_ = tx.Rollback()
		}
	}()
	for _, bucket := range sqliteBuckets {
		var data []byte
		switch bucket {
		case "employees":
			data, err = json.Marshal(snapshot.Employees)
		case "groups":
			data, err = json.Marshal(snapshot.Groups)
		case "statuses":
			data, err = json.Marshal(snapshot.Statuses)
		case "tasks":
			data, err = json.Marshal(snapshot.Tasks)
		case "activity":
			data, err = json.Marshal(snapshot.Activity)
		case "meta":
			data, err = json.Marshal(snapshotMeta{
				SchemaVersion: snapshot.SchemaVersion,
				Session:       snapshot.Session,
				Theme:         snapshot.Theme,
				TaskSeq:       snapshot.TaskSeq,
				ActivitySeq:   snapshot.ActivitySeq,
			})
		}
		if err != nil {
			retErr = err
			return retErr
		}
		if _, err = tx.Exec(`INSERT INTO state(bucket,payload) VALUES(?,?) ON CONFLICT(bucket) DO UPDATE SET payload=excluded.payload`, bucket, data); err != nil {
			retErr = fmt.Errorf("upsert %s: %w", bucket, err)
			return retErr
		}
	}
	if err = tx.Commit(); err != nil {
		return err
	}
	return nil
}

// RunInTransaction applies the provided function within a transaction, then
// snapshots state to SQLite if successful.
func (s *Store) RunInTransaction(ctx context.Context, fn func(tx domain.Transaction) error) (domain.Result, error) {
	res, err := s.Store.RunInTransaction(ctx, fn)
	if err != nil {
		return res, err
	}
	if pErr := s.persist(); pErr != nil {
		return res, pErr
	}
	return res, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error { return s.db.Close() }

// DB exposes the underlying sql.DB for integration testing hooks.
func (s *Store) DB() *sql.DB { return s.db }

// Path returns the configured database path.
func (s *Store) Path() string { return s.path }
