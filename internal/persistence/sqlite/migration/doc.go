// Package migration applies versioned SQL schema files to a SQLite database.
//
// Migration files are named {version}_{description}.sql (for example
// "001_initial_schema.sql") and are read from an fs.FS, which lets callers
// embed them into the binary. Applied versions are tracked in the
// schema_migrations table so each file runs exactly once, inside its own
// transaction.
//
// Example usage:
//
//	manager := migration.NewManager(migration.NewScanner(files, "."), migration.NewSQLiteExecutor(db), logger)
//	if err := manager.Run(ctx); err != nil {
//		return err
//	}
package migration
