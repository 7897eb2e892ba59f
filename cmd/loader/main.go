package main

import (
	"context"
	"database/sql"
	"os"
	"sync"
	"sync/atomic"

	_ "github.com/go-sql-driver/mysql"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/semaphore"

	"hotel_catalog/internal/adapters/observability"
	redisad "hotel_catalog/internal/adapters/redis"
	"hotel_catalog/internal/adapters/wordpress"
	"hotel_catalog/internal/app"
	"hotel_catalog/internal/domain"
	"hotel_catalog/internal/shared"
	mysqlrepo "hotel_catalog/internal/storage/mysql"
)

// loader runs the fetch-all loop once, stores the snapshot and warms the
// image cache so the web server can start without waiting on the remote.
func main() {
	ctx := context.Background()
	// local overrides; variables already set in the environment win
	_ = godotenv.Load(".env.local")
	cfg := shared.Load()

	// 1) initialize global logger (console in dev, JSON otherwise)
	log.Logger = observability.NewLogger(cfg.AppEnv, cfg.LogLevel)

	log.Info().
		Str("base", cfg.WPBase).
		Int("per_page", cfg.WPPageSize).
		Int("workers", cfg.ImageWorkers).
		Bool("images", cfg.PrefetchImages).
		Msg("loader starting")

	client, err := wordpress.New(cfg.WPBase, cfg.WPRPS, cfg.WPTimeout)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize WordPress client")
	}

	var store domain.SnapshotStore
	if cfg.MySQLDSN != "" {
		db, err := sql.Open("mysql", cfg.MySQLDSN)
		if err != nil {
			log.Fatal().Err(err).Msg("sql.Open failed")
		}
		if err := db.Ping(); err != nil {
			log.Fatal().Err(err).Msg("db.Ping failed")
		}
		defer db.Close()
		if err := mysqlrepo.Migrate(ctx, db); err != nil {
			log.Fatal().Err(err).Msg("migrate failed")
		}
		log.Info().Msg("db ping ok")
		store = mysqlrepo.New(db)
	} else {
		log.Warn().Msg("MYSQL_DSN is empty, snapshot will not be stored")
	}

	var cache domain.Cache
	if cfg.RedisAddr != "" {
		rc := redisad.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
		defer rc.Close()
		cache = rc
	}

	catalog := app.NewCatalogService(client, store, cfg.WPPageSize)
	if err := catalog.Load(ctx); err != nil {
		log.Error().Err(err).Int("hotels", len(catalog.Hotels())).Msg("fetch incomplete")
	}
	hotels := catalog.Hotels()
	log.Info().Int("hotels", len(hotels)).Msg("catalog fetched")

	if !cfg.PrefetchImages || (store == nil && cache == nil) {
		log.Info().Msg("loader completed")
		return
	}

	images := app.NewImageService(client, cache, nil, cfg.CacheTTL)
	sem := semaphore.NewWeighted(int64(cfg.ImageWorkers))
	var wg sync.WaitGroup
	var failed int64

	for _, h := range hotels {
		// acquire before launching the goroutine; release inside it
		if err := sem.Acquire(ctx, 1); err != nil {
			log.Fatal().Err(err).Msg("semaphore acquire failed")
		}

		wg.Add(1)
		go func(h domain.Hotel) {
			defer wg.Done()
			defer sem.Release(1)

			// drop any stale cached list before refetching
			_ = images.Forget(ctx, h.ID)
			imgs, err := images.Images(ctx, h)
			if err != nil {
				atomic.AddInt64(&failed, 1)
				log.Warn().Int64("id", h.ID).Err(err).Msg("images failed")
				return
			}
			if store != nil {
				if err := store.SaveImages(ctx, h.ID, imgs); err != nil {
					atomic.AddInt64(&failed, 1)
					log.Warn().Int64("id", h.ID).Err(err).Msg("save images failed")
					return
				}
			}
			log.Debug().Int64("id", h.ID).Int("images", len(imgs)).Msg("images ok")
		}(h)
	}

	wg.Wait()
	log.Info().Int("hotels", len(hotels)).Int64("image_failures", failed).Msg("loader completed")
	if failed > 0 {
		os.Exit(1)
	}
}
