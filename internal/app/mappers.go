package app

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"

	"hotel_catalog/internal/domain"
)

/********** alias registries **********/

var hotelAliases = map[string][]string{
	"name":        {"acf.hotel_name", "title.rendered"},
	"address":     {"acf.hotel_address"},
	"rate":        {"acf.rate-per-night", "acf.rate_per_night"},
	"occupancy":   {"acf.occupancy"},
	"rating":      {"acf.hotel_rating"},
	"amenities":   {"acf.hotel_amenities"},
	"description": {"acf.hotel_description"},
	"attachments": {"_links.wp:attachment.0.href"},
}

/********** tiny helpers **********/

// lookupAny: safe nested lookup with dot paths on maps; numeric parts index
// into arrays.
func lookupAny(m map[string]any, path string) any {
	cur := any(m)
	for _, part := range strings.Split(path, ".") {
		switch obj := cur.(type) {
		case map[string]any:
			v, ok := obj[part]
			if !ok {
				return nil
			}
			cur = v
		case []any:
			i, err := strconv.Atoi(part)
			if err != nil || i < 0 || i >= len(obj) {
				return nil
			}
			cur = obj[i]
		default:
			return nil
		}
	}
	return cur
}

// lookupStr returns string at path or "".
func lookupStr(m map[string]any, path string) string {
	if v := lookupAny(m, path); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// firstNonEmptyAlias: first non-empty string for a named alias set.
func firstNonEmptyAlias(m map[string]any, aliases map[string][]string, key string) string {
	for _, p := range aliases[key] {
		if s := strings.TrimSpace(lookupStr(m, p)); s != "" {
			return s
		}
	}
	return ""
}

// getFloatFlexible: number from several paths (float64/int/string like "8,0").
// ACF stores unset fields as "" or false; both read as absent.
func getFloatFlexible(m map[string]any, paths ...string) *float64 {
	for _, k := range paths {
		switch v := lookupAny(m, k).(type) {
		case float64:
			f := v
			return &f
		case int:
			f := float64(v)
			return &f
		case string:
			s := strings.TrimSpace(strings.ReplaceAll(v, ",", "."))
			if s == "" {
				continue
			}
			if f, err := strconv.ParseFloat(s, 64); err == nil {
				return &f
			}
		}
	}
	return nil
}

// ratingText keeps ratings as display text ("4.5", "5 Star").
func ratingText(m map[string]any, paths ...string) *string {
	for _, k := range paths {
		switch v := lookupAny(m, k).(type) {
		case string:
			if s := strings.TrimSpace(v); s != "" {
				return &s
			}
		case float64:
			s := strconv.FormatFloat(v, 'f', -1, 64)
			return &s
		}
	}
	return nil
}

/********** listing mapper **********/

func mapHotel(p map[string]any) domain.Hotel {
	var id int64
	if f := getFloatFlexible(p, "id"); f != nil {
		id = int64(*f)
	}

	raw, err := json.Marshal(p)
	if err != nil {
		log.Error().Err(err).
			Str("context", "mapHotel").
			Msg("failed to marshal hotel to JSON")
	}

	h := domain.Hotel{
		ID:             id,
		Slug:           lookupStr(p, "slug"),
		Link:           lookupStr(p, "link"),
		Name:           firstNonEmptyAlias(p, hotelAliases, "name"),
		Address:        firstNonEmptyAlias(p, hotelAliases, "address"),
		Rate:           getFloatFlexible(p, hotelAliases["rate"]...),
		Rating:         ratingText(p, hotelAliases["rating"]...),
		Amenities:      firstNonEmptyAlias(p, hotelAliases, "amenities"),
		Description:    firstNonEmptyAlias(p, hotelAliases, "description"),
		AttachmentsURL: firstNonEmptyAlias(p, hotelAliases, "attachments"),
		RawJSON:        raw,
	}
	if f := getFloatFlexible(p, hotelAliases["occupancy"]...); f != nil {
		n := int(*f)
		h.Occupancy = &n
	}
	return h
}

func mapHotels(in []map[string]any) []domain.Hotel {
	out := make([]domain.Hotel, 0, len(in))
	for _, p := range in {
		h := mapHotel(p)
		if h.ID <= 0 {
			log.Warn().Str("slug", h.Slug).Str("name", h.Name).Msg("listing record without id skipped")
			continue
		}
		out = append(out, h)
	}
	return out
}

/********** attachments mapper **********/

// mapImages keeps attachment order; entries without source_url are skipped.
func mapImages(in []map[string]any) []string {
	out := make([]string, 0, len(in))
	for _, a := range in {
		if u := strings.TrimSpace(lookupStr(a, "source_url")); u != "" {
			out = append(out, u)
		}
	}
	return out
}
