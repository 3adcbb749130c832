// Package db holds sqlite plumbing shared by the durable stores: DSN
// resolution and the pragmas applied on open.
package db

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/postgatehq/postgate/internal/pathutil"
)

type SQLiteConfig struct {
	BusyTimeoutMs int
	WAL           bool
	ForeignKeys   bool
}

func DefaultSQLiteConfig() SQLiteConfig {
	return SQLiteConfig{
		BusyTimeoutMs: 5000,
		WAL:           true,
		ForeignKeys:   true,
	}
}

// ResolveSQLiteDSN normalizes a sqlite DSN. An empty DSN defaults to
// ~/.postgate/postgate.db; file paths get `~` expanded and their parent
// directory created. Memory DSNs pass through untouched.
func ResolveSQLiteDSN(dsn string) (string, error) {
	dsn = strings.TrimSpace(dsn)
	if dsn == "" {
		home, err := os.UserHomeDir()
		if err != nil || strings.TrimSpace(home) == "" {
			return "", fmt.Errorf("cannot resolve home directory for default db path")
		}
		dsn = filepath.Join(home, ".postgate", "postgate.db")
	}
	if strings.HasPrefix(dsn, "file:") || strings.Contains(dsn, ":memory:") {
		return dsn, nil
	}

	dsn = pathutil.ExpandHomePath(dsn)
	if dir := filepath.Dir(dsn); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return "", fmt.Errorf("create db directory: %w", err)
		}
	}
	return dsn, nil
}

func ApplySQLitePragmas(sqlDB *sql.DB, cfg SQLiteConfig) error {
	if sqlDB == nil {
		return fmt.Errorf("nil sql db")
	}
	if cfg.WAL {
		if _, err := sqlDB.Exec("PRAGMA journal_mode=WAL;"); err != nil {
			return err
		}
	}
	if cfg.BusyTimeoutMs > 0 {
		if _, err := sqlDB.Exec(fmt.Sprintf("PRAGMA busy_timeout=%d;", cfg.BusyTimeoutMs)); err != nil {
			return err
		}
	}
	if cfg.ForeignKeys {
		if _, err := sqlDB.Exec("PRAGMA foreign_keys=ON;"); err != nil {
			return err
		}
	}
	return nil
}
