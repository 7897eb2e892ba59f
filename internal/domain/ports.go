package domain

import "context"

// WordPressClient is the remote content API.
type WordPressClient interface {
	ListHotels(ctx context.Context, page, perPage int) ([]map[string]any, error)
	ListAttachments(ctx context.Context, href string) ([]map[string]any, error)
}

type Cache interface {
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, v any, ttlSec int) error
	Del(ctx context.Context, key string) error
}

// SnapshotStore persists the last fetched catalog so a restart can serve
// before the remote API answers.
type SnapshotStore interface {
	SaveCatalog(ctx context.Context, hs []Hotel) error
	LoadCatalog(ctx context.Context) ([]Hotel, error)
	SaveImages(ctx context.Context, hotelID int64, images []string) error
	LoadImages(ctx context.Context, hotelID int64) ([]string, error)
}
