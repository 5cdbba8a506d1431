package database

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// NewDatabase opens the named database and ensures its schema exists
func NewDatabase(databaseType, connectionString string) (database DatabaseService, err error) {
	switch databaseType {
	case "sqlite":
		if err := ensureParentDir(connectionString); err != nil {
			return nil, err
		}
		database, err = NewSQLiteDatabase(connectionString)
		if err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", databaseType)
	}

	// Schema creation is idempotent and required for in-memory databases
	slog.Info("initializing database schema", "type", databaseType, "connection", connectionString)
	if _, err = database.CreateDatabase(); err != nil {
		_ = database.Close()
		return nil, fmt.Errorf("failed to create database: %w", err)
	}

	return database, nil
}

// ensureParentDir creates the directory of a plain sqlite file path
func ensureParentDir(connectionString string) error {
	if connectionString == ":memory:" || strings.HasPrefix(connectionString, "file:") {
		return nil
	}
	dir := filepath.Dir(connectionString)
	if dir == "." {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create database directory %s: %w", dir, err)
	}
	return nil
}
