package httpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"hotel_catalog/internal/app"
	"hotel_catalog/internal/domain"
)

// ---- fakes ----

type fakeWP struct {
	hotels    []map[string]any
	media     map[string][]map[string]any
	mediaHits int32
}

func (f *fakeWP) ListHotels(ctx context.Context, page, perPage int) ([]map[string]any, error) {
	start := (page - 1) * perPage
	if start >= len(f.hotels) {
		return nil, nil
	}
	return f.hotels[start:min(start+perPage, len(f.hotels))], nil
}

func (f *fakeWP) ListAttachments(ctx context.Context, href string) ([]map[string]any, error) {
	atomic.AddInt32(&f.mediaHits, 1)
	return f.media[href], nil
}

func rawHotel(id int, name, addr string, rate, occ int, amenities string) map[string]any {
	return map[string]any{
		"id": float64(id),
		"acf": map[string]any{
			"hotel_name":        name,
			"hotel_address":     addr,
			"rate-per-night":    fmt.Sprint(rate),
			"occupancy":         float64(occ),
			"hotel_amenities":   amenities,
			"hotel_description": "",
		},
		"_links": map[string]any{
			"wp:attachment": []any{map[string]any{"href": fmt.Sprintf("https://wp.test/media?parent=%d", id)}},
		},
	}
}

func newTestServer(t *testing.T, load bool) (*Server, *fakeWP) {
	t.Helper()
	wp := &fakeWP{
		hotels: []map[string]any{
			rawHotel(1, "Grand Palace", "1 Palace Rd", 3000, 2, `<ul><li>Pool</li></ul><script>alert(1)</script>`),
			rawHotel(2, "City Inn", "12 Grand Ave", 1500, 3, ""),
			rawHotel(3, "Ocean View", "Beach Rd", 5000, 4, ""),
		},
		media: map[string][]map[string]any{
			"https://wp.test/media?parent=1": {{"source_url": "https://cdn.test/1-cover.jpg"}, {"source_url": "https://cdn.test/1-room.jpg"}},
		},
	}
	for i := 4; i <= 25; i++ {
		wp.hotels = append(wp.hotels, rawHotel(i, fmt.Sprintf("Hotel %d", i), "Main St", 1000+i, 2, ""))
	}

	catalog := app.NewCatalogService(wp, nil, 100)
	if load {
		if err := catalog.Load(context.Background()); err != nil {
			t.Fatalf("load: %v", err)
		}
	}
	srv := New(5 * time.Second)
	srv.MountHandlers(&Handlers{
		Catalog:      catalog,
		Images:       app.NewImageService(wp, nil, nil, time.Minute),
		ImageWorkers: 4,
	})
	return srv, wp
}

func get(t *testing.T, srv *Server, target string) *httptest.ResponseRecorder {
	t.Helper()
	rr := httptest.NewRecorder()
	srv.Mux().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, target, nil))
	return rr
}

// ---- tests ----

func TestListHotels_LoadingState(t *testing.T) {
	srv, _ := newTestServer(t, false)

	rr := get(t, srv, "/")
	if rr.Code != http.StatusOK || !strings.Contains(rr.Body.String(), "Loading hotels") {
		t.Fatalf("expected loading page, got %d: %s", rr.Code, rr.Body.String())
	}
	if rr := get(t, srv, "/readyz"); rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 from readyz, got %d", rr.Code)
	}
	if rr := get(t, srv, "/api/hotels"); rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 from api, got %d", rr.Code)
	}
}

func TestListHotels_SearchRendersMatches(t *testing.T) {
	srv, _ := newTestServer(t, true)

	rr := get(t, srv, "/?q=grand")
	if rr.Code != http.StatusOK {
		t.Fatalf("status %d", rr.Code)
	}
	body := rr.Body.String()
	for _, want := range []string{"Grand Palace", "City Inn", "https://cdn.test/1-cover.jpg", "No description available."} {
		if !strings.Contains(body, want) {
			t.Fatalf("expected %q in body", want)
		}
	}
	if strings.Contains(body, "Ocean View") {
		t.Fatalf("Ocean View should be filtered out")
	}
	if got := rr.Header().Get("Content-Security-Policy"); got == "" {
		t.Fatalf("expected CSP header")
	}
}

func TestAPIListHotels_PagingAndSort(t *testing.T) {
	srv, _ := newTestServer(t, true)

	rr := get(t, srv, "/api/hotels?per_page=10&page=2")
	if rr.Code != http.StatusOK {
		t.Fatalf("status %d", rr.Code)
	}
	var out hotelsPageJSON
	if err := json.Unmarshal(rr.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	// 25 hotels, all within default bounds
	if out.Total != 25 || out.PageCount != 3 || out.Offset != 20 || len(out.Items) != 5 {
		t.Fatalf("unexpected page: %+v", out)
	}
	for i := 1; i < len(out.Items); i++ {
		if *out.Items[i-1].Rate > *out.Items[i].Rate {
			t.Fatalf("expected ascending rates")
		}
	}

	rr = get(t, srv, "/api/hotels?sort=highToLow&occupancy=3")
	_ = json.Unmarshal(rr.Body.Bytes(), &out)
	if out.Total != 2 || out.Items[0].Name != "Ocean View" || out.Items[1].Name != "City Inn" {
		t.Fatalf("unexpected filtered result: %+v", out.Items)
	}
}

func TestAPIListHotels_ETag(t *testing.T) {
	srv, _ := newTestServer(t, true)

	rr := get(t, srv, "/api/hotels")
	etag := rr.Header().Get("ETag")
	if etag == "" {
		t.Fatalf("expected ETag")
	}
	req := httptest.NewRequest(http.MethodGet, "/api/hotels", nil)
	req.Header.Set("If-None-Match", etag)
	rr2 := httptest.NewRecorder()
	srv.Mux().ServeHTTP(rr2, req)
	if rr2.Code != http.StatusNotModified {
		t.Fatalf("expected 304, got %d", rr2.Code)
	}
}

func TestPathPageIsOneBased(t *testing.T) {
	srv, _ := newTestServer(t, true)

	rr := get(t, srv, "/3")
	if rr.Code != http.StatusOK {
		t.Fatalf("status %d", rr.Code)
	}
	// third page of 25 by ascending price holds the five most expensive
	body := rr.Body.String()
	if !strings.Contains(body, "Ocean View") || !strings.Contains(body, "City Inn") || strings.Contains(body, "<h3>Hotel 4</h3>") {
		t.Fatalf("expected third page content")
	}
}

func TestHotelDetails_SanitizesAmenitiesAndShowsGallery(t *testing.T) {
	srv, wp := newTestServer(t, true)

	rr := get(t, srv, "/hotel-details/1")
	if rr.Code != http.StatusOK {
		t.Fatalf("status %d", rr.Code)
	}
	body := rr.Body.String()
	if !strings.Contains(body, "<li>Pool</li>") {
		t.Fatalf("expected amenities markup kept")
	}
	if strings.Contains(body, "alert(1)") {
		t.Fatalf("expected script stripped")
	}
	if !strings.Contains(body, "+2 Images") || !strings.Contains(body, "https://cdn.test/1-room.jpg") {
		t.Fatalf("expected gallery")
	}

	// a second view is served from the in-process cache
	before := atomic.LoadInt32(&wp.mediaHits)
	_ = get(t, srv, "/hotel-details/1")
	if atomic.LoadInt32(&wp.mediaHits) != before {
		t.Fatalf("expected no further attachment request")
	}
}

func TestHotelDetails_ReusesListImagesWithoutSharedCache(t *testing.T) {
	srv, wp := newTestServer(t, true)

	if rr := get(t, srv, "/?q=grand"); rr.Code != http.StatusOK {
		t.Fatalf("status %d", rr.Code)
	}
	listed := atomic.LoadInt32(&wp.mediaHits)
	if listed == 0 {
		t.Fatalf("expected the list to fetch images")
	}
	for i := 0; i < 2; i++ {
		rr := get(t, srv, "/hotel-details/1")
		if rr.Code != http.StatusOK || !strings.Contains(rr.Body.String(), "https://cdn.test/1-room.jpg") {
			t.Fatalf("expected gallery, got %d", rr.Code)
		}
	}
	if got := atomic.LoadInt32(&wp.mediaHits); got != listed {
		t.Fatalf("expected %d attachment requests after detail views, got %d", listed, got)
	}
}

func TestListHotels_HugePageStillShowsHotels(t *testing.T) {
	srv, _ := newTestServer(t, true)

	rr := get(t, srv, "/api/hotels?per_page=10&page=922337203685477581")
	var out hotelsPageJSON
	if err := json.Unmarshal(rr.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.Total != 25 || out.Offset < 0 || out.Offset >= 25 || len(out.Items) == 0 {
		t.Fatalf("unexpected page: total=%d offset=%d items=%d", out.Total, out.Offset, len(out.Items))
	}

	rr = get(t, srv, "/922337203685477581")
	if rr.Code != http.StatusOK || strings.Contains(rr.Body.String(), "No hotels match") {
		t.Fatalf("expected hotels on the wrapped page, got %d", rr.Code)
	}
}

func TestNonNumericPathIsNotAListPage(t *testing.T) {
	srv, wp := newTestServer(t, true)

	for _, p := range []string{"/favicon.ico", "/robots.txt", "/abc"} {
		if rr := get(t, srv, p); rr.Code != http.StatusNotFound {
			t.Fatalf("%s: expected 404, got %d", p, rr.Code)
		}
	}
	if n := atomic.LoadInt32(&wp.mediaHits); n != 0 {
		t.Fatalf("expected no attachment requests, got %d", n)
	}
}

func TestHotelDetails_NotFound(t *testing.T) {
	srv, _ := newTestServer(t, true)

	if rr := get(t, srv, "/hotel-details/999"); rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rr.Code)
	}
	if rr := get(t, srv, "/hotel-details/abc"); rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rr.Code)
	}
	rr := get(t, srv, "/api/hotels/abc")
	if rr.Code != http.StatusBadRequest || rr.Header().Get("Content-Type") != "application/problem+json" {
		t.Fatalf("expected problem 400, got %d %s", rr.Code, rr.Header().Get("Content-Type"))
	}
}

func TestAPIGetHotel(t *testing.T) {
	srv, _ := newTestServer(t, true)

	rr := get(t, srv, "/api/hotels/1")
	if rr.Code != http.StatusOK {
		t.Fatalf("status %d", rr.Code)
	}
	var out hotelJSON
	if err := json.Unmarshal(rr.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.Name != "Grand Palace" || len(out.Images) != 2 || strings.Contains(out.Amenities, "script") {
		t.Fatalf("unexpected hotel: %+v", out)
	}
}

func TestPageLinks(t *testing.T) {
	f := domain.DefaultFilter()
	p := domain.HotelsPage{PageCount: 10, Selected: 5, PerPage: 10}

	links := pageLinks(f, p)
	var labels []string
	for _, l := range links {
		if l.Break {
			labels = append(labels, "...")
			continue
		}
		labels = append(labels, l.Label)
	}
	got := strings.Join(labels, " ")
	want := "Previous 1 ... 4 5 6 7 8 ... 10 Next"
	if got != want {
		t.Fatalf("links = %q, want %q", got, want)
	}
	if links[0].Disabled || links[len(links)-1].Disabled {
		t.Fatalf("prev/next should be enabled mid-range")
	}
}

func TestFormatters(t *testing.T) {
	zero := 0.0
	if fmtRate(nil) != placeholder || fmtRate(&zero) != placeholder {
		t.Fatalf("expected placeholder for missing rate")
	}
	r := 4500.5
	if fmtRate(&r) != "4500.5" {
		t.Fatalf("unexpected rate %q", fmtRate(&r))
	}
	if got := truncate(strings.Repeat("é", 120), 100); got != strings.Repeat("é", 100)+"..." {
		t.Fatalf("unexpected truncation length %d", len([]rune(got)))
	}
	if truncate("short", 100) != "short" {
		t.Fatalf("short text must be untouched")
	}
}
