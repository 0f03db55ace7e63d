// Package database provides SQLite connectivity for Homeline.
//
// It wraps database/sql with connection configuration tuned for SQLite
// (WAL mode, busy timeout, single writer) and applies embedded schema
// migrations on startup.
//
// # Usage
//
//	db, err := database.Open(ctx, database.Config{
//	    Path:        cfg.Database.Path,
//	    WALMode:     cfg.Database.WALMode,
//	    BusyTimeout: cfg.Database.BusyTimeout,
//	})
//	if err != nil {
//	    return err
//	}
//	defer db.Close()
//
//	if err := db.Migrate(ctx); err != nil {
//	    return err
//	}
//
// Migration files live in the migrations/ package at the repository root
// and are embedded into the binary via go:embed, so deployments never need
// loose SQL files on disk.
package database
