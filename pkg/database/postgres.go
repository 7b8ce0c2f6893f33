package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"
	"go.uber.org/zap"
)

const pqUniqueViolation = "23505"

// PostgresDatabase is the PostgreSQL backend.
type PostgresDatabase struct {
	*sqlStore
}

// NewPostgresDatabase connects to PostgreSQL and bootstraps the schema.
// Several DSN variants are tried in order since managed hosts differ on
// TLS and connect timeouts.
func NewPostgresDatabase(ctx context.Context, dsn string) (*PostgresDatabase, error) {
	// Sanitize DSN to avoid stray CR/LF from env values
	dsn = strings.TrimSpace(dsn)
	if dsn == "" {
		return nil, fmt.Errorf("postgres dsn is required")
	}
	strategies := []string{
		addConnectionParams(dsn, "connect_timeout=10"),
		addConnectionParams(dsn, "sslmode=require&connect_timeout=10"),
		dsn,
	}

	log := zap.L().Named("database")
	var lastErr error
	for i, strategy := range strategies {
		db, err := sql.Open("postgres", strategy)
		if err != nil {
			log.Warn("postgres strategy failed to open", zap.Int("strategy", i+1), zap.Error(err))
			lastErr = err
			continue
		}

		db.SetMaxOpenConns(10)
		db.SetMaxIdleConns(5)
		db.SetConnMaxLifetime(5 * time.Minute)

		if err := db.PingContext(ctx); err != nil {
			log.Warn("postgres strategy failed to ping", zap.Int("strategy", i+1), zap.Error(err))
			_ = db.Close()
			lastErr = err
			continue
		}

		store := &sqlStore{db: db, numbered: true, isUnique: isPostgresUniqueViolation}
		if err := store.ensureSchema(ctx); err != nil {
			_ = db.Close()
			return nil, err
		}
		log.Info("postgres connection established", zap.Int("strategy", i+1))
		return &PostgresDatabase{sqlStore: store}, nil
	}

	return nil, fmt.Errorf("failed to connect to PostgreSQL with all strategies: %w", lastErr)
}

// addConnectionParams appends params to a URL or key=value DSN
func addConnectionParams(dsn, params string) string {
	if params == "" {
		return dsn
	}
	if !strings.Contains(dsn, "://") {
		return dsn + " " + strings.ReplaceAll(params, "&", " ")
	}

	separator := "?"
	if strings.Contains(dsn, "?") {
		separator = "&"
	}
	return dsn + separator + params
}

func isPostgresUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == pqUniqueViolation
	}
	return false
}
