package db

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"climate-api/internal/config"

	_ "github.com/mattn/go-sqlite3"
)

// Open opens the dataset read-only, applies the pool limits from cfg and pings
// it. Any failure is returned as a *ConnectionError.
func Open(ctx context.Context, cfg config.Config, logger *slog.Logger) (*sql.DB, error) {
	target := cfg.DSN
	if target == "" {
		target = cfg.Path
		if !strings.HasPrefix(cfg.Path, "file:") {
			if _, err := os.Stat(cfg.Path); err != nil {
				return nil, &ConnectionError{Target: target, Err: err}
			}
		}
	}

	dsn := buildDSN(cfg)

	var db *sql.DB
	if cfg.LogSQL {
		connector, err := NewLoggingConnector(dsn, logger)
		if err != nil {
			return nil, &ConnectionError{Target: target, Err: err}
		}
		db = sql.OpenDB(connector)
	} else {
		var err error
		db, err = sql.Open(cfg.Driver, dsn)
		if err != nil {
			return nil, &ConnectionError{Target: target, Err: fmt.Errorf("db open: %w", err)}
		}
	}

	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns >= 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, &ConnectionError{Target: target, Err: fmt.Errorf("db ping: %w", err)}
	}

	return db, nil
}

func Close(db *sql.DB) error {
	if db == nil {
		return nil
	}
	return db.Close()
}

// buildDSN returns cfg.DSN untouched when set. Otherwise it wraps cfg.Path in a
// read-only file URI.
func buildDSN(cfg config.Config) string {
	if cfg.DSN != "" {
		return cfg.DSN
	}

	// mode=ro: the service never writes and must not create a missing file.
	params := []string{
		"mode=ro",
		"_busy_timeout=5000",
	}

	path := cfg.Path
	if strings.HasPrefix(path, "file:") {
		sep := "?"
		if strings.Contains(path, "?") {
			sep = "&"
		}
		return path + sep + strings.Join(params, "&")
	}

	return fmt.Sprintf("file:%s?%s", path, strings.Join(params, "&"))
}
