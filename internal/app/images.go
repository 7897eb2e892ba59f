package app

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"hotel_catalog/internal/domain"
)

// ImageService resolves a hotel's attachment collection into image URLs.
// Concurrent lookups for the same hotel share one request and results are
// cached by hotel identifier.
type ImageService struct {
	wp       domain.WordPressClient
	cache    domain.Cache
	store    domain.SnapshotStore // optional, fallback when the remote fails
	cacheTTL time.Duration
	sf       singleflight.Group
}

// NewImageService falls back to an in-process cache when cache is nil.
func NewImageService(wp domain.WordPressClient, cache domain.Cache, store domain.SnapshotStore, ttl time.Duration) *ImageService {
	if cache == nil {
		cache = newMemCache()
	}
	return &ImageService{wp: wp, cache: cache, store: store, cacheTTL: ttl}
}

func imagesKey(id int64) string { return fmt.Sprintf("images:%d", id) }

// Images returns the hotel's image URLs; the first is the cover.
func (s *ImageService) Images(ctx context.Context, h domain.Hotel) ([]string, error) {
	key := imagesKey(h.ID)
	var cached []string
	ok, err := s.cache.Get(ctx, key, &cached)
	switch {
	case err != nil:
		log.Warn().Err(err).Int64("hotel", h.ID).Msg("cached images unreadable, refetching")
	case ok:
		return cached, nil
	}

	// the flight is shared, so one caller going away must not fail the rest
	fctx := context.WithoutCancel(ctx)
	v, err, _ := s.sf.Do(key, func() (any, error) {
		raw, err := s.wp.ListAttachments(fctx, h.AttachmentsURL)
		if err != nil {
			return nil, err
		}
		imgs := mapImages(raw)
		if err := s.cache.Set(fctx, key, imgs, int(s.cacheTTL.Seconds())); err != nil {
			log.Warn().Err(err).Int64("hotel", h.ID).Msg("cache images failed")
		}
		return imgs, nil
	})
	if err != nil {
		if s.store != nil {
			if stored, serr := s.store.LoadImages(ctx, h.ID); serr == nil && len(stored) > 0 {
				return stored, nil
			}
		}
		return nil, err
	}
	return v.([]string), nil
}

// ImagesFor fetches images for each hotel with at most workers requests in
// flight. Failures leave an empty slot and are only logged.
func (s *ImageService) ImagesFor(ctx context.Context, hs []domain.Hotel, workers int) [][]string {
	out := make([][]string, len(hs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(workers, 1))
	for i, h := range hs {
		i, h := i, h
		g.Go(func() error {
			imgs, err := s.Images(gctx, h)
			if err != nil {
				log.Debug().Err(err).Int64("hotel", h.ID).Msg("image fetch failed")
				return nil
			}
			out[i] = imgs
			return nil
		})
	}
	_ = g.Wait()
	return out
}

// Forget drops the cached image list for a hotel.
func (s *ImageService) Forget(ctx context.Context, id int64) error {
	return s.cache.Del(ctx, imagesKey(id))
}
