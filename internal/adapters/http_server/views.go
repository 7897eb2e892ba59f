package httpserver

import (
	"embed"
	"html/template"
	"io"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/microcosm-cc/bluemonday"

	"hotel_catalog/internal/domain"
)

//go:embed templates/*.html
var templateFS embed.FS

const (
	placeholder      = "N/A"
	noDescription    = "No description available."
	cardSnippetRunes = 100
)

// amenities arrive as HTML authored in the CMS
var amenitiesPolicy = bluemonday.UGCPolicy()

type views struct {
	list, detail, loading, notFound *template.Template
}

func loadViews() *views {
	funcs := template.FuncMap{
		"rate":        fmtRate,
		"occupancy":   fmtOccupancy,
		"rating":      fmtRating,
		"truncate":    truncate,
		"orDefault":   orDefault,
		"description": func(s string) string { return orDefault(s, noDescription) },
		"snippet":     func(s string) string { return truncate(orDefault(s, noDescription), cardSnippetRunes) },
		"amenities":   sanitizeAmenities,
		"add":         func(a, b int) int { return a + b },
	}
	parse := func(page string) *template.Template {
		return template.Must(template.New("layout.html").Funcs(funcs).
			ParseFS(templateFS, "templates/layout.html", "templates/"+page))
	}
	return &views{
		list:     parse("list.html"),
		detail:   parse("detail.html"),
		loading:  parse("loading.html"),
		notFound: parse("not_found.html"),
	}
}

func render(w io.Writer, t *template.Template, data any) error {
	return t.ExecuteTemplate(w, "layout.html", data)
}

// sanitizeAmenities strips scripts, handlers and unknown tags from CMS markup.
func sanitizeAmenities(s string) template.HTML {
	return template.HTML(amenitiesPolicy.Sanitize(s))
}

// Missing or zero values show the placeholder.
func fmtRate(p *float64) string {
	if p == nil || *p == 0 {
		return placeholder
	}
	return strconv.FormatFloat(*p, 'f', -1, 64)
}

func fmtOccupancy(p *int) string {
	if p == nil || *p == 0 {
		return placeholder
	}
	return strconv.Itoa(*p)
}

func fmtRating(p *string) string {
	if p == nil || strings.TrimSpace(*p) == "" {
		return placeholder
	}
	return *p
}

func orDefault(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n]) + "..."
}

// ---- view models ----

type card struct {
	Hotel     domain.Hotel
	Cover     string
	DetailURL string
}

type pageLink struct {
	Label    string
	URL      string
	Active   bool
	Disabled bool
	Break    bool
}

type listView struct {
	Title            string
	Filter           domain.Filter
	Page             domain.HotelsPage
	Cards            []card
	Links            []pageLink
	PerPageOptions   []int
	OccupancyOptions []int
	Partial          bool
}

type detailView struct {
	Title   string
	Hotel   domain.Hotel
	Images  []string
	Cover   string
	BackURL string
}

type simpleView struct {
	Title   string
	Message string
}
