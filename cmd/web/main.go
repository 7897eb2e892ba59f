package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	server "hotel_catalog/internal/adapters/http_server"
	"hotel_catalog/internal/adapters/observability"
	redisad "hotel_catalog/internal/adapters/redis"
	"hotel_catalog/internal/adapters/wordpress"
	"hotel_catalog/internal/app"
	"hotel_catalog/internal/domain"
	"hotel_catalog/internal/shared"
	mysqlrepo "hotel_catalog/internal/storage/mysql"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// local overrides; variables already set in the environment win
	_ = godotenv.Load(".env.local")
	cfg := shared.Load()

	// set global logger (console in dev, JSON otherwise)
	log.Logger = observability.NewLogger(cfg.AppEnv, cfg.LogLevel)

	observability.Serve()

	client, err := wordpress.New(cfg.WPBase, cfg.WPRPS, cfg.WPTimeout)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize WordPress client")
	}

	// optional deps
	var cache domain.Cache
	if cfg.RedisAddr != "" {
		rc := redisad.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
		if err := rc.Ping(ctx); err != nil {
			log.Warn().Err(err).Str("addr", cfg.RedisAddr).Msg("redis unreachable, image cache disabled")
		} else {
			cache = rc
			defer rc.Close()
			log.Info().Str("addr", cfg.RedisAddr).Msg("redis image cache enabled")
		}
	}

	var store domain.SnapshotStore
	if cfg.MySQLDSN != "" {
		db, err := sql.Open("mysql", cfg.MySQLDSN)
		if err != nil {
			log.Fatal().Err(err).Msg("sql.Open failed")
		}
		if err := db.PingContext(ctx); err != nil {
			log.Fatal().Err(err).Msg("db.Ping failed")
		}
		if err := mysqlrepo.Migrate(ctx, db); err != nil {
			log.Fatal().Err(err).Msg("migrate failed")
		}
		defer db.Close()
		store = mysqlrepo.New(db)
		log.Info().Msg("catalog snapshots enabled")
	}

	catalog := app.NewCatalogService(client, store, cfg.WPPageSize)
	images := app.NewImageService(client, cache, store, cfg.CacheTTL)

	// serve the stored snapshot while the remote load runs
	if n, err := catalog.LoadFromSnapshot(ctx); err != nil {
		log.Warn().Err(err).Msg("snapshot load failed")
	} else if n > 0 {
		log.Info().Int("hotels", n).Msg("serving stored snapshot until remote load completes")
	}

	go func() {
		start := time.Now()
		if err := catalog.Load(ctx); err != nil {
			log.Warn().Err(err).Msg("catalog load incomplete")
		}
		log.Info().Int("hotels", len(catalog.Hotels())).Dur("took", time.Since(start)).Msg("catalog loaded")
		catalog.RefreshEvery(ctx, cfg.RefreshEvery)
	}()

	// http
	srv := server.New(15 * time.Second)
	reg := observability.InitRegistry()
	srv.Mount("/metrics", observability.MetricsHandler(reg))
	srv.MountHandlers(&server.Handlers{Catalog: catalog, Images: images, ImageWorkers: cfg.ImageWorkers})

	httpSrv := &http.Server{Addr: cfg.HTTPAddr, Handler: srv.Mux(), ReadHeaderTimeout: 5 * time.Second}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = httpSrv.Shutdown(shutdownCtx)
	}()

	log.Info().Str("addr", cfg.HTTPAddr).Str("wordpress", cfg.WPBase).Msg("web listening")
	if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal().Err(err).Msg("http server failed")
	}
	log.Info().Msg("web stopped")
}
