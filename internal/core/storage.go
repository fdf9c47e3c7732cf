package core

import (
	"clinicboard/internal/blob"
	"clinicboard/internal/infra/persistence/blobslot"
	"clinicboard/internal/infra/persistence/memory"
	"clinicboard/internal/infra/persistence/postgres"
	"clinicboard/internal/infra/persistence/sqlite"
	"context"
	"fmt"
	"os"
)

// StorageDriver identifies a concrete persistent storage implementation.
type StorageDriver string

const (
	StorageMemory   StorageDriver = "memory"   // in-memory only (tests / ephemeral)
	StorageSQLite   StorageDriver = "sqlite"   // embedded sqlite file
	StoragePostgres StorageDriver = "postgres" // PostgreSQL server
	StorageBlob     StorageDriver = "blob"     // snapshot slot in a blob store
)

// OpenPersistentStore selects a backend using environment variables.
// Defaults to the blob snapshot slot when unset.
//
//	CLINICBOARD_STORAGE_DRIVER: memory|sqlite|postgres|blob (default blob)
//	CLINICBOARD_SQLITE_PATH: path to sqlite file (default ./clinicboard.db)
//	CLINICBOARD_POSTGRES_DSN: postgres DSN when driver=postgres
//	CLINICBOARD_BLOB_*: blob store selection when driver=blob
func OpenPersistentStore(ctx context.Context, engine *RulesEngine) (PersistentStore, error) {
	driver := os.Getenv("CLINICBOARD_STORAGE_DRIVER")
	if driver == "" {
		driver = string(StorageBlob)
	}
	switch StorageDriver(driver) {
	case StorageMemory:
		return memory.NewSeededStore(engine), nil
	case StorageSQLite:
		path := os.Getenv("CLINICBOARD_SQLITE_PATH")
		return sqlite.NewStore(path, engine)
	case StoragePostgres:
		dsn := os.Getenv("CLINICBOARD_POSTGRES_DSN")
		return postgres.NewStore(dsn, engine)
	case StorageBlob:
		blobs, err := blob.Open(ctx)
		if err != nil {
			return nil, err
		}
		return blobslot.NewStore(ctx, blobs, blobslot.DefaultKey, engine)
	default:
		return nil, fmt.Errorf("unknown storage driver %s", driver)
	}
}
