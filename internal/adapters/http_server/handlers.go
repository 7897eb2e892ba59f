// internal/adapters/http_server/handlers.go
package httpserver

import (
	"bytes"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"hotel_catalog/internal/app"
	"hotel_catalog/internal/domain"
)

type Handlers struct {
	Catalog      *app.CatalogService
	Images       *app.ImageService
	ImageWorkers int

	views *views
}

type problem struct {
	Type   string `json:"type"`
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail,omitempty"`
}

func (s *Server) MountHandlers(h *Handlers) {
	if h.views == nil {
		h.views = loadViews()
	}
	s.mux.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200); _, _ = w.Write([]byte("ok")) })
	s.mux.Get("/readyz", h.ready)
	s.mux.Get("/api/hotels", h.apiListHotels)
	s.mux.Get("/api/hotels/{id}", h.apiGetHotel)
	s.mux.Get("/hotel-details/{id}", h.hotelDetails)
	s.mux.Get("/", h.listHotels)
	s.mux.Get("/{page:[0-9]+}", h.listHotels)
}

func writeProblem(w http.ResponseWriter, status int, title, detail string) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(problem{Type: "about:blank", Title: title, Status: status, Detail: detail}); err != nil {
		log.Error().Err(err).Msg("write JSON problem response failed")
	}
}

// calcETagAndBody marshals once and hashes once, returning both ETag and body.
func calcETagAndBody(v any) (string, []byte) {
	body, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Msg("failed to marshal object for ETag/body")
		return "", nil
	}
	sum := sha1.Sum(body)
	etag := `W/"` + hex.EncodeToString(sum[:]) + `"`
	return etag, body
}

func writeJSON(w http.ResponseWriter, r *http.Request, v any) {
	etag, body := calcETagAndBody(v)
	// If client already has this version, short-circuit.
	if inm := r.Header.Get("If-None-Match"); inm != "" && inm == etag {
		w.Header().Set("ETag", etag)
		w.WriteHeader(http.StatusNotModified)
		return
	}
	w.Header().Set("ETag", etag)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(body); err != nil {
		log.Error().Err(err).Msg("failed to write JSON body")
	}
}

// writeHTML renders into a buffer first so a template error never leaves a
// half-written page.
func (h *Handlers) writeHTML(w http.ResponseWriter, status int, t *template.Template, data any) {
	var buf bytes.Buffer
	if err := render(&buf, t, data); err != nil {
		log.Error().Err(err).Msg("render failed")
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if _, err := buf.WriteTo(w); err != nil {
		log.Error().Err(err).Msg("failed to write HTML body")
	}
}

// ---- query parsing ----

// listQuery reads filter and paging state from the request. Values that do
// not parse keep their defaults.
func listQuery(r *http.Request) (domain.Filter, int, int) {
	q := r.URL.Query()
	f := domain.DefaultFilter()
	f.Search = strings.TrimSpace(q.Get("q"))
	if v, err := strconv.ParseFloat(q.Get("from"), 64); err == nil && v >= 0 {
		f.PriceFrom = v
	}
	if v, err := strconv.ParseFloat(q.Get("to"), 64); err == nil && v >= 0 {
		f.PriceTo = v
	}
	if v, err := strconv.Atoi(q.Get("occupancy")); err == nil && v >= 0 {
		f.MinOccupancy = v
	}
	switch s := domain.SortOrder(q.Get("sort")); s {
	case domain.SortLowToHigh, domain.SortHighToLow:
		f.Sort = s
	}

	perPage := domain.DefaultPerPage
	if v, err := strconv.Atoi(q.Get("per_page")); err == nil && domain.ValidPerPage(v) {
		perPage = v
	}

	selected := 0
	if v, err := strconv.Atoi(q.Get("page")); err == nil && v >= 0 {
		selected = v
	} else if v, err := strconv.Atoi(chi.URLParam(r, "page")); err == nil && v >= 1 {
		// /{page} is 1-based
		selected = v - 1
	}
	return f, selected, perPage
}

func listURL(f domain.Filter, selected, perPage int) string {
	q := url.Values{}
	if f.Search != "" {
		q.Set("q", f.Search)
	}
	q.Set("sort", string(f.Sort))
	q.Set("occupancy", strconv.Itoa(f.MinOccupancy))
	q.Set("from", strconv.FormatFloat(f.PriceFrom, 'f', -1, 64))
	q.Set("to", strconv.FormatFloat(f.PriceTo, 'f', -1, 64))
	q.Set("per_page", strconv.Itoa(perPage))
	q.Set("page", strconv.Itoa(selected))
	return "/?" + q.Encode()
}

// pageLinks builds Previous, numbered pages around the selection with
// breaks, and Next.
func pageLinks(f domain.Filter, p domain.HotelsPage) []pageLink {
	if p.PageCount == 0 {
		return nil
	}
	const margin, around = 1, 2
	links := []pageLink{{Label: "Previous", URL: listURL(f, p.Selected-1, p.PerPage), Disabled: p.Selected == 0}}
	gap := false
	for i := 0; i < p.PageCount; i++ {
		near := i < margin || i >= p.PageCount-margin || (i >= p.Selected-around && i <= p.Selected+around)
		if !near {
			if !gap {
				links = append(links, pageLink{Break: true})
				gap = true
			}
			continue
		}
		gap = false
		links = append(links, pageLink{Label: strconv.Itoa(i + 1), URL: listURL(f, i, p.PerPage), Active: i == p.Selected})
	}
	links = append(links, pageLink{Label: "Next", URL: listURL(f, p.Selected+1, p.PerPage), Disabled: p.Selected >= p.PageCount-1})
	return links
}

func parseID(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
}

// ---- HTML ----

func (h *Handlers) listHotels(w http.ResponseWriter, r *http.Request) {
	if !h.Catalog.Ready() {
		h.writeHTML(w, http.StatusOK, h.views.loading, simpleView{Title: "Hotels", Message: "Loading hotels..."})
		return
	}
	f, selected, perPage := listQuery(r)
	page := h.Catalog.Page(f, selected, perPage)

	images := h.Images.ImagesFor(r.Context(), page.Items, h.ImageWorkers)
	cards := make([]card, len(page.Items))
	for i, ht := range page.Items {
		v := domain.HotelView{Hotel: ht, Images: images[i]}
		cards[i] = card{Hotel: ht, Cover: v.Cover(), DetailURL: fmt.Sprintf("/hotel-details/%d", ht.ID)}
	}

	h.writeHTML(w, http.StatusOK, h.views.list, listView{
		Title:            "Hotels",
		Filter:           f,
		Page:             page,
		Cards:            cards,
		Links:            pageLinks(f, page),
		PerPageOptions:   domain.PerPageOptions,
		OccupancyOptions: domain.OccupancyOptions,
		Partial:          h.Catalog.Status().Partial,
	})
}

func (h *Handlers) hotelDetails(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		h.writeHTML(w, http.StatusNotFound, h.views.notFound, simpleView{Title: "Hotel not found", Message: "That hotel does not exist."})
		return
	}
	hv, err := h.hotelView(r, id)
	if err != nil {
		h.writeHTML(w, http.StatusNotFound, h.views.notFound, simpleView{Title: "Hotel not found", Message: "That hotel does not exist."})
		return
	}
	back := "/"
	if ref := r.Referer(); ref != "" {
		if u, err := url.Parse(ref); err == nil && u.Host == r.Host && !strings.HasPrefix(u.Path, "/hotel-details/") {
			back = u.RequestURI()
		}
	}
	h.writeHTML(w, http.StatusOK, h.views.detail, detailView{
		Title:   hv.Hotel.Name,
		Hotel:   hv.Hotel,
		Images:  hv.Images,
		Cover:   hv.Cover(),
		BackURL: back,
	})
}

// hotelView looks the hotel up in the loaded catalog. Images come from the
// image service, which already holds whatever the list view fetched.
func (h *Handlers) hotelView(r *http.Request, id int64) (domain.HotelView, error) {
	ht, err := h.Catalog.Hotel(id)
	if err != nil {
		return domain.HotelView{}, err
	}
	imgs, err := h.Images.Images(r.Context(), ht)
	if err != nil {
		log.Debug().Err(err).Int64("hotel", id).Msg("image fetch failed")
	}
	return domain.HotelView{Hotel: ht, Images: imgs}, nil
}

// ---- JSON ----

type hotelJSON struct {
	ID             int64    `json:"id"`
	Slug           string   `json:"slug,omitempty"`
	Name           string   `json:"name"`
	Address        string   `json:"address"`
	Rate           *float64 `json:"rate"`
	Occupancy      *int     `json:"occupancy"`
	Rating         *string  `json:"rating"`
	Amenities      string   `json:"amenities_html"`
	Description    string   `json:"description"`
	AttachmentsURL string   `json:"attachments_url,omitempty"`
	Images         []string `json:"images,omitempty"`
}

func toJSON(ht domain.Hotel, imgs []string) hotelJSON {
	return hotelJSON{
		ID:             ht.ID,
		Slug:           ht.Slug,
		Name:           ht.Name,
		Address:        ht.Address,
		Rate:           ht.Rate,
		Occupancy:      ht.Occupancy,
		Rating:         ht.Rating,
		Amenities:      string(sanitizeAmenities(ht.Amenities)),
		Description:    ht.Description,
		AttachmentsURL: ht.AttachmentsURL,
		Images:         imgs,
	}
}

type hotelsPageJSON struct {
	Items     []hotelJSON `json:"items"`
	Total     int         `json:"total"`
	Fetched   int         `json:"fetched"`
	PageCount int         `json:"page_count"`
	Page      int         `json:"page"`
	PerPage   int         `json:"per_page"`
	Offset    int         `json:"offset"`
}

func (h *Handlers) apiListHotels(w http.ResponseWriter, r *http.Request) {
	if !h.Catalog.Ready() {
		w.Header().Set("Retry-After", "2")
		writeProblem(w, http.StatusServiceUnavailable, "Loading", "catalog is still loading")
		return
	}
	f, selected, perPage := listQuery(r)
	page := h.Catalog.Page(f, selected, perPage)
	out := hotelsPageJSON{
		Items:     make([]hotelJSON, 0, len(page.Items)),
		Total:     page.Total,
		Fetched:   page.Fetched,
		PageCount: page.PageCount,
		Page:      page.Selected,
		PerPage:   page.PerPage,
		Offset:    page.Offset,
	}
	for _, ht := range page.Items {
		out.Items = append(out.Items, toJSON(ht, nil))
	}
	writeJSON(w, r, out)
}

func (h *Handlers) apiGetHotel(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid ID", "id must be a number")
		return
	}
	hv, err := h.hotelView(r, id)
	if errors.Is(err, domain.ErrNotFound) {
		writeProblem(w, http.StatusNotFound, "Not Found", "hotel not found")
		return
	}
	if err != nil {
		writeProblem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	writeJSON(w, r, toJSON(hv.Hotel, hv.Images))
}

func (h *Handlers) ready(w http.ResponseWriter, r *http.Request) {
	st := h.Catalog.Status()
	if !st.Ready {
		writeProblem(w, http.StatusServiceUnavailable, "Loading", "catalog is still loading")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(st)
}
