// Package storage provides storage backends for governance receipts.
//
// # Storage Backends
//
//   - SQLite: embedded database for single-node deployments
//   - Memory: in-memory storage for tests and short-lived processes
//
// # SQLite Backend
//
// The SQLite backend runs on either database/sql driver found in the module:
// DriverPure (modernc.org/sqlite, no C toolchain) or DriverCGO
// (github.com/mattn/go-sqlite3). It provides:
//
//   - WAL mode for concurrent reads and writes
//   - Indexes on timestamp, action and policy version
//   - Connection pooling and a busy timeout for handling locks
//
// # Basic Usage
//
//	store, err := storage.NewSQLiteStorage(&storage.SQLiteConfig{
//	    Path:    "data/receipts.db",
//	    Driver:  storage.DriverPure,
//	    WALMode: true,
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer store.Close()
//
//	if err := store.Store(ctx, &result.Receipt); err != nil {
//	    log.Printf("storing receipt: %v", err)
//	}
//
// Receipts are immutable: storing an ID twice is an error and there is no
// update operation. Delete exists for retention only.
package storage
