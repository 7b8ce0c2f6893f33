// Command server runs the teams API as a standalone HTTP process.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	handler "github.com/Nicolas-Kadir-Efrei/client-leger-sub002/api"
	"github.com/Nicolas-Kadir-Efrei/client-leger-sub002/pkg/config"
	"github.com/Nicolas-Kadir-Efrei/client-leger-sub002/pkg/database"
	"github.com/Nicolas-Kadir-Efrei/client-leger-sub002/pkg/logger"
	"github.com/Nicolas-Kadir-Efrei/client-leger-sub002/pkg/models"
	"github.com/Nicolas-Kadir-Efrei/client-leger-sub002/pkg/notify"
	"github.com/Nicolas-Kadir-Efrei/client-leger-sub002/pkg/utils"

	"go.uber.org/multierr"
	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

func main() {
	mintFor := flag.String("mint-token", "", "print an access token for this user id and exit (development only)")
	mintRole := flag.String("role", string(models.UserRoleUser), "role claim of the minted token")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "invalid config: %v\n", err)
		os.Exit(1)
	}

	log := logger.Install(cfg.Environment, cfg.Debug)
	defer func() { _ = log.Sync() }()

	if *mintFor != "" {
		if err := mintToken(os.Stdout, cfg, *mintFor, *mintRole); err != nil {
			log.Fatal("mint token", zap.Error(err))
		}
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Fatal("server stopped", zap.Error(err))
	}
}

func run(ctx context.Context, cfg *config.Config, log *zap.Logger) (err error) {
	if cfg.UsesDefaultJWTSecret() {
		log.Warn("JWT_SECRET is not set; using the development default")
	}

	if cfg.DatabaseDriver == "sqlite" {
		if err := os.MkdirAll(filepath.Dir(cfg.SQLitePath), 0o755); err != nil {
			return fmt.Errorf("create sqlite directory: %w", err)
		}
	}
	db, err := database.NewDatabase(ctx, database.DatabaseConfig{
		Driver:      cfg.DatabaseDriver,
		PostgresDSN: cfg.PostgresDSN,
		SQLitePath:  cfg.SQLitePath,
	})
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer func() { err = multierr.Append(err, db.Close()) }()

	notifiers := notify.Multi{notify.NewStoreNotifier(db, log)}
	if cfg.AMQPURL != "" {
		publisher, dialErr := notify.DialAMQP(ctx, cfg.AMQPURL, cfg.AMQPExchange, log)
		if dialErr != nil {
			return fmt.Errorf("connect to broker: %w", dialErr)
		}
		defer func() { err = multierr.Append(err, publisher.Close()) }()
		notifiers = append(notifiers, publisher)
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler.NewRouter(cfg, log, db, notifiers),
		ReadHeaderTimeout: 10 * time.Second,
		ErrorLog:          zap.NewStdLog(log.Named("http")),
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info("server listening",
			zap.String("addr", srv.Addr),
			zap.String("environment", cfg.Environment),
			zap.String("database", cfg.DatabaseDriver),
		)
		serveErr <- srv.ListenAndServe()
	}()

	select {
	case serveErr := <-serveErr:
		if errors.Is(serveErr, http.ErrServerClosed) {
			return nil
		}
		return serveErr
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func mintToken(w io.Writer, cfg *config.Config, userID, rawRole string) error {
	if cfg.IsProduction() {
		return errors.New("token minting is disabled in production")
	}
	role, err := models.ParseUserRole(rawRole)
	if err != nil {
		return err
	}
	token, exp, err := utils.NewJWTService(cfg.JWTSecret).GenerateAccessToken(models.Identity{UserID: userID, Role: role}, 24*time.Hour)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "%s\n# expires %s\n", token, time.Unix(exp, 0).UTC().Format(time.RFC3339))
	return err
}
