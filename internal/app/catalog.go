package app

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"

	"hotel_catalog/internal/adapters/observability"
	"hotel_catalog/internal/domain"
)

// snapshot is one immutable load of the catalog.
type snapshot struct {
	hotels   []domain.Hotel
	byID     map[int64]int
	loadedAt time.Time
	partial  bool
}

type CatalogService struct {
	wp       domain.WordPressClient
	store    domain.SnapshotStore // optional
	pageSize int

	cur atomic.Pointer[snapshot]
}

func NewCatalogService(wp domain.WordPressClient, store domain.SnapshotStore, pageSize int) *CatalogService {
	if pageSize <= 0 {
		pageSize = 100
	}
	return &CatalogService{wp: wp, store: store, pageSize: pageSize}
}

// FetchAll requests pages 1, 2, ... one at a time until a page comes back
// empty or shorter than the page size. A failed request ends the loop; the
// records collected so far are returned along with the error.
func (s *CatalogService) FetchAll(ctx context.Context) ([]domain.Hotel, error) {
	var all []domain.Hotel
	for page := 1; ; page++ {
		if err := ctx.Err(); err != nil {
			return all, err
		}
		raw, err := s.wp.ListHotels(ctx, page, s.pageSize)
		if err != nil {
			log.Error().Err(err).Int("page", page).Int("fetched", len(all)).Msg("listing page failed, stopping")
			return all, fmt.Errorf("fetch page %d: %w", page, err)
		}
		all = append(all, mapHotels(raw)...)
		log.Debug().Int("page", page).Int("records", len(raw)).Msg("listing page fetched")
		if len(raw) < s.pageSize {
			return all, nil
		}
	}
}

// Load fetches the catalog and publishes it. Partial results from a failed
// fetch are published too. When the remote returns nothing and a snapshot
// store is configured, the stored catalog is served instead.
func (s *CatalogService) Load(ctx context.Context) error {
	hs, err := s.FetchAll(ctx)
	switch {
	case err == nil:
		observability.ObserveCatalogLoad("remote", "complete", len(hs))
		s.publish(hs, false)
		if s.store != nil {
			if serr := s.store.SaveCatalog(ctx, hs); serr != nil {
				log.Warn().Err(serr).Msg("catalog snapshot save failed")
			}
		}
		return nil

	case len(hs) > 0:
		observability.ObserveCatalogLoad("remote", "partial", len(hs))
		s.publish(hs, true)
		return err
	}

	observability.ObserveCatalogLoad("remote", "failed", 0)
	if s.Ready() {
		// a refresh that got nothing keeps the previous catalog
		return err
	}
	if s.store != nil {
		stored, serr := s.store.LoadCatalog(ctx)
		if serr == nil && len(stored) > 0 {
			log.Warn().Err(err).Int("hotels", len(stored)).Msg("remote fetch failed, serving stored snapshot")
			observability.ObserveCatalogLoad("snapshot", "complete", len(stored))
			s.publish(stored, true)
			return err
		}
		if serr != nil {
			log.Warn().Err(serr).Msg("catalog snapshot load failed")
		}
	}
	// still publish, so the list view leaves its loading state
	s.publish(nil, true)
	return err
}

// LoadFromSnapshot publishes the stored catalog without touching the remote.
func (s *CatalogService) LoadFromSnapshot(ctx context.Context) (int, error) {
	if s.store == nil {
		return 0, nil
	}
	hs, err := s.store.LoadCatalog(ctx)
	if err != nil {
		return 0, err
	}
	if len(hs) > 0 {
		observability.ObserveCatalogLoad("snapshot", "complete", len(hs))
		s.publish(hs, true)
	}
	return len(hs), nil
}

// RefreshEvery reloads the catalog on a ticker until ctx is done.
func (s *CatalogService) RefreshEvery(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	t := time.NewTicker(d)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if err := s.Load(ctx); err != nil {
				log.Warn().Err(err).Msg("catalog refresh incomplete")
			}
		}
	}
}

func (s *CatalogService) publish(hs []domain.Hotel, partial bool) {
	byID := make(map[int64]int, len(hs))
	for i, h := range hs {
		byID[h.ID] = i
	}
	s.cur.Store(&snapshot{hotels: hs, byID: byID, loadedAt: time.Now(), partial: partial})
	log.Info().Int("hotels", len(hs)).Bool("partial", partial).Msg("catalog published")
}

// Ready reports whether a catalog (possibly empty or partial) is loaded.
func (s *CatalogService) Ready() bool { return s.cur.Load() != nil }

// Hotels returns the loaded collection. Callers must not modify it.
func (s *CatalogService) Hotels() []domain.Hotel {
	if snap := s.cur.Load(); snap != nil {
		return snap.hotels
	}
	return nil
}

func (s *CatalogService) Hotel(id int64) (domain.Hotel, error) {
	snap := s.cur.Load()
	if snap == nil {
		return domain.Hotel{}, domain.ErrNotFound
	}
	i, ok := snap.byID[id]
	if !ok {
		return domain.Hotel{}, domain.ErrNotFound
	}
	return snap.hotels[i], nil
}

// Page runs the filter/sort/paginate pipeline over the loaded collection.
func (s *CatalogService) Page(f domain.Filter, selected, perPage int) domain.HotelsPage {
	return BuildPage(s.Hotels(), f, selected, perPage)
}

type CatalogStatus struct {
	Ready    bool      `json:"ready"`
	Hotels   int       `json:"hotels"`
	Partial  bool      `json:"partial"`
	LoadedAt time.Time `json:"loaded_at"`
}

func (s *CatalogService) Status() CatalogStatus {
	snap := s.cur.Load()
	if snap == nil {
		return CatalogStatus{}
	}
	return CatalogStatus{Ready: true, Hotels: len(snap.hotels), Partial: snap.partial, LoadedAt: snap.loadedAt}
}
