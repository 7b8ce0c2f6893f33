// Command setup_db opens the configured database once so its schema is
// created, then checks the connection.
//
//	go run scripts/setup_db.go [postgres-dsn]
package main

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/Nicolas-Kadir-Efrei/client-leger-sub002/pkg/config"
	"github.com/Nicolas-Kadir-Efrei/client-leger-sub002/pkg/database"
	"github.com/Nicolas-Kadir-Efrei/client-leger-sub002/pkg/logger"

	"go.uber.org/zap"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}
	log := logger.Install(cfg.Environment, cfg.Debug)
	defer func() { _ = log.Sync() }()

	dbCfg := database.DatabaseConfig{
		Driver:      cfg.DatabaseDriver,
		PostgresDSN: cfg.PostgresDSN,
		SQLitePath:  cfg.SQLitePath,
	}
	if len(os.Args) > 1 {
		dbCfg.Driver = "postgres"
		dbCfg.PostgresDSN = os.Args[1]
	}

	target := dbCfg.SQLitePath
	switch dbCfg.Driver {
	case "memory", "":
		log.Fatal("DATABASE_DRIVER is memory; nothing to set up")
	case "postgres", "postgresql":
		target = maskPassword(dbCfg.PostgresDSN)
	default:
		if err := os.MkdirAll(filepath.Dir(dbCfg.SQLitePath), 0o755); err != nil {
			log.Fatal("create sqlite directory", zap.Error(err))
		}
	}
	log.Info("connecting to database", zap.String("driver", dbCfg.Driver), zap.String("target", target))

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db, err := database.NewDatabase(ctx, dbCfg)
	if err != nil {
		log.Fatal("failed to open database", zap.Error(err))
	}
	defer db.Close()

	if err := db.HealthCheck(ctx); err != nil {
		log.Fatal("database health check failed", zap.Error(err))
	}
	log.Info("schema is up to date")
}

// maskPassword hides the password of a URL-style DSN.
func maskPassword(dsn string) string {
	if u, err := url.Parse(dsn); err == nil && u.User != nil {
		return u.Redacted()
	}
	if len(dsn) > 20 {
		return dsn[:10] + "***"
	}
	return "***"
}
