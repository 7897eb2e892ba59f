package app

import (
	"cmp"
	"slices"
	"strings"

	"hotel_catalog/internal/domain"
)

// ApplyFilter derives the visible collection from the fetched one. The input
// is never mutated; the result is always a subset of it.
func ApplyFilter(hotels []domain.Hotel, f domain.Filter) []domain.Hotel {
	q := strings.ToLower(f.Search)
	out := make([]domain.Hotel, 0, len(hotels))
	for _, h := range hotels {
		if q != "" &&
			!strings.Contains(strings.ToLower(h.Name), q) &&
			!strings.Contains(strings.ToLower(h.Address), q) {
			continue
		}
		// hotels without a rate or occupancy never satisfy a bound
		if h.Rate == nil || *h.Rate < f.PriceFrom || *h.Rate > f.PriceTo {
			continue
		}
		if h.Occupancy == nil || *h.Occupancy < f.MinOccupancy {
			continue
		}
		out = append(out, h)
	}

	switch f.Sort {
	case domain.SortLowToHigh:
		slices.SortStableFunc(out, func(a, b domain.Hotel) int { return cmp.Compare(*a.Rate, *b.Rate) })
	case domain.SortHighToLow:
		slices.SortStableFunc(out, func(a, b domain.Hotel) int { return cmp.Compare(*b.Rate, *a.Rate) })
	}
	return out
}

// PageCount is ceil(n / perPage).
func PageCount(n, perPage int) int {
	if n <= 0 || perPage <= 0 {
		return 0
	}
	return (n + perPage - 1) / perPage
}

// OffsetForPage maps a selected page index to an item offset as
// (selected * perPage) mod n. The modulo wraps selections past the last
// page back into range instead of clamping them. Both factors are reduced
// mod n first so large selections cannot overflow.
func OffsetForPage(selected, perPage, n int) int {
	if n <= 0 || perPage <= 0 || selected < 0 {
		return 0
	}
	return ((selected % n) * (perPage % n)) % n
}

// PageItems returns items[offset:offset+perPage], clipped to the slice.
func PageItems(items []domain.Hotel, offset, perPage int) []domain.Hotel {
	if offset < 0 || offset >= len(items) || perPage <= 0 {
		return nil
	}
	end := min(offset+perPage, len(items))
	return items[offset:end]
}

// BuildPage runs the whole list pipeline for one request.
func BuildPage(hotels []domain.Hotel, f domain.Filter, selected, perPage int) domain.HotelsPage {
	if !domain.ValidPerPage(perPage) {
		perPage = domain.DefaultPerPage
	}
	filtered := ApplyFilter(hotels, f)
	offset := OffsetForPage(selected, perPage, len(filtered))
	return domain.HotelsPage{
		Items:     PageItems(filtered, offset, perPage),
		Total:     len(filtered),
		Fetched:   len(hotels),
		PageCount: PageCount(len(filtered), perPage),
		Selected:  offset / perPage,
		PerPage:   perPage,
		Offset:    offset,
	}
}
