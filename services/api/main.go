package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"github.com/marebio/respirolab/services/api/auth"
	"github.com/marebio/respirolab/services/api/config"
	"github.com/marebio/respirolab/services/api/export"
	httpserver "github.com/marebio/respirolab/services/api/http"
	"github.com/marebio/respirolab/services/api/lifecycle"
	"github.com/marebio/respirolab/services/api/logger"
	"github.com/marebio/respirolab/services/api/session"
	"github.com/marebio/respirolab/services/api/store"
	"github.com/marebio/respirolab/services/api/tags"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	zlog, err := logger.New(cfg.LogMode)
	if err != nil {
		log.Fatalf("logger error: %v", err)
	}
	defer zlog.Sync()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	backend, cleanup, err := newBackend(ctx, cfg)
	if err != nil {
		zlog.Fatal("store backend error", "backend", cfg.StoreBackend, "err", err)
	}
	defer cleanup()

	records := store.NewRecords(backend, zlog)
	sessions := session.NewTracker(backend)
	controller := lifecycle.New(records, sessions, zlog)
	registry := tags.NewRegistry(records)
	exporter := export.NewExporter(backend)
	authSvc := auth.NewService(backend, cfg.JWTSecret, cfg.TokenTTL, zlog)

	srv := httpserver.New(cfg, zlog, authSvc, controller, registry, exporter, records)
	zlog.Info("lab API listening", "addr", cfg.ListenAddr(), "backend", cfg.StoreBackend)

	if err := srv.Run(ctx); err != nil {
		zlog.Fatal("server error", "err", err)
	}
}

// newBackend builds the configured store backend. Self-hosted backends
// start blank, so their tables get headers seeded here; a remote
// spreadsheet ships with headers already in place.
func newBackend(ctx context.Context, cfg config.Config) (store.Backend, func(), error) {
	switch cfg.StoreBackend {
	case config.BackendPostgres:
		pg, err := store.NewPostgres(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		if err := pg.Init(ctx); err != nil {
			pg.Close()
			return nil, nil, err
		}
		if err := seedHeaders(ctx, pg); err != nil {
			pg.Close()
			return nil, nil, err
		}
		return pg, pg.Close, nil
	case config.BackendMemory:
		mem := store.NewMemory()
		if err := seedHeaders(ctx, mem); err != nil {
			return nil, nil, err
		}
		return mem, func() {}, nil
	default:
		sheets, err := store.NewSheets(ctx, cfg.SpreadsheetID, cfg.CredentialsJSON)
		if err != nil {
			return nil, nil, err
		}
		return sheets, func() {}, nil
	}
}

func seedHeaders(ctx context.Context, backend store.Backend) error {
	for _, table := range []store.Table{store.RecordsTable, store.UsersTable, store.SessionsTable} {
		if err := store.EnsureHeader(ctx, backend, table); err != nil {
			return err
		}
	}
	return nil
}
