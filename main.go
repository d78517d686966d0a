/*
Package main
File: main.go
Description: Server entry point. Loads the configuration and the upgrade
catalog, restores the saved game (crediting offline earnings), then runs
the accrual heartbeat, the save writer, the WebSocket hub and the HTTP API
until SIGINT/SIGTERM, flushing a final save on the way out.
*/

package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/everforgeworks/tycoon-clicker/internal/api"
	"github.com/everforgeworks/tycoon-clicker/internal/config"
	"github.com/everforgeworks/tycoon-clicker/internal/game"
	"github.com/everforgeworks/tycoon-clicker/internal/platform/logger"
	"github.com/everforgeworks/tycoon-clicker/internal/platform/metrics"
	"github.com/everforgeworks/tycoon-clicker/internal/storage"
)

func main() {
	appLogger := logger.NewLogger()

	// 1. Configuration (config.yaml, .env, TYCOON_* variables)
	cfgPath := os.Getenv("TYCOON_CONFIG")
	if cfgPath == "" {
		cfgPath = "config.yaml"
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		appLogger.Error("Config Fail: " + err.Error())
		os.Exit(1)
	}

	// 2. Upgrade catalog
	catalog, err := game.LoadCatalog(cfg.CatalogPath)
	if err != nil {
		appLogger.Error("Catalog Fail: " + err.Error())
		os.Exit(1)
	}
	appLogger.Info("Catalog loaded with " + humanize.Comma(int64(catalog.Len())) + " upgrades")

	// 3. Save store
	store, err := storage.Open(cfg.Store.Driver, cfg.Store.Path, cfg.Store.Slot)
	if err != nil {
		appLogger.Error("Store Fail: " + err.Error())
		os.Exit(1)
	}
	defer store.Close()

	collector := metrics.New()
	writer := storage.NewAsyncWriter(store, appLogger, collector)

	// 4. Restore the game, falling back to defaults
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	state := restoreState(ctx, store, appLogger)
	session := game.NewSession(state, catalog, game.RealClock{}, writer, appLogger, game.Options{
		SaveInterval: cfg.SaveInterval,
		OfflineCap:   cfg.OfflineCap,
	})

	// 5. Offline catch-up, once, before the heartbeat starts
	session.CatchUp()

	// 6. Background workers
	var wg sync.WaitGroup
	run := func(fn func(context.Context)) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			fn(ctx)
		}()
	}

	handlers := api.New(session, collector, appLogger)
	hub := api.NewHub(handlers, cfg.MaxMessagesPerSecond)
	session.Subscribe(hub.PublishView)

	run(writer.Run)
	run(hub.Run)
	run(game.NewLoop(session, cfg.TickInterval, appLogger, collector).Run)

	// 7. Hot-reload: SIGHUP re-reads the catalog without a restart
	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	go func() {
		for range hup {
			appLogger.Info("SIGNAL: Reloading catalog...")
			next, err := game.LoadCatalog(cfg.CatalogPath)
			if err != nil {
				appLogger.Error("Catalog reload failed, keeping the old one: " + err.Error())
				continue
			}
			session.SetCatalog(next)
		}
	}()

	// 8. HTTP server
	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           handlers.Routes(hub),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		appLogger.Info("TYCOON server live on " + cfg.ListenAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLogger.Error("HTTP server: " + err.Error())
			cancel()
		}
	}()

	// 9. Wait for shutdown, then flush the last snapshot
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	select {
	case <-stop:
		appLogger.Info("Shutting down...")
	case <-ctx.Done():
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	shutdownHTTP(shutdownCtx, srv, appLogger)

	cancel()
	wg.Wait()
	if err := writer.Flush(shutdownCtx); err != nil {
		appLogger.Error("Final save failed: " + err.Error())
	} else {
		appLogger.Info("Final save written.")
	}
}

// httpShutdowner is the part of *http.Server the shutdown path needs.
type httpShutdowner interface {
	Shutdown(ctx context.Context) error
}

// shutdownHTTP stops accepting requests and waits for in-flight ones.
func shutdownHTTP(ctx context.Context, srv httpShutdowner, log *logger.Logger) {
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("HTTP shutdown failed: " + err.Error())
		return
	}
	log.Info("HTTP server stopped.")
}

// restoreState loads the saved game. A missing save starts fresh; a damaged
// one keeps whatever fields could be read.
func restoreState(ctx context.Context, store storage.Store, log *logger.Logger) game.GameState {
	now := time.Now()
	raw, err := store.Load(ctx)
	if errors.Is(err, storage.ErrNotFound) {
		log.Info("No save found, starting a new game")
		return game.DefaultState(now)
	}
	if err != nil {
		log.Warn("Load failed, starting a new game: " + err.Error())
		return game.DefaultState(now)
	}

	st, err := game.DecodeState(raw, now)
	if err != nil {
		log.Warn("Save partially unreadable, merged over defaults: " + err.Error())
	}
	return st
}
