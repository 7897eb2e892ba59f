// internal/adapters/wordpress/client.go
package wordpress

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"hotel_catalog/internal/adapters/observability"
	"hotel_catalog/internal/domain"
)

const hotelsPath = "/wp-json/wp/v2/hotels"

type Client struct {
	base string
	hc   *http.Client
	rl   *rate.Limiter
}

func New(base string, rps int, timeout time.Duration) (*Client, error) {
	u, err := url.Parse(base)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid base URL %q", base)
	}
	if rps <= 0 {
		rps = 10
	}
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	return &Client{
		base: strings.TrimRight(base, "/"),
		hc:   &http.Client{Timeout: timeout},
		rl:   rate.NewLimiter(rate.Limit(rps), rps),
	}, nil
}

// ListHotels returns one page of the hotels collection. A page past the end
// comes back empty rather than as an error.
func (c *Client) ListHotels(ctx context.Context, page, perPage int) ([]map[string]any, error) {
	q := url.Values{}
	q.Set("per_page", strconv.Itoa(perPage))
	q.Set("page", strconv.Itoa(page))
	var out []map[string]any
	err := c.get(ctx, "hotels", c.base+hotelsPath+"?"+q.Encode(), &out)
	if errors.Is(err, errPastLastPage) {
		return nil, nil
	}
	return out, err
}

// ListAttachments fetches an attachment collection by its absolute href.
func (c *Client) ListAttachments(ctx context.Context, href string) ([]map[string]any, error) {
	if href == "" {
		return nil, nil
	}
	var out []map[string]any
	return out, c.get(ctx, "media", href, &out)
}

var (
	ErrNotFound     = fmt.Errorf("wordpress: %w", domain.ErrNotFound)
	ErrUnauthorized = errors.New("wordpress: unauthorized")
	ErrForbidden    = errors.New("wordpress: forbidden")

	errPastLastPage = errors.New("wordpress: page number past last page")
)

// get performs one rate-limited GET and decodes JSON into out. There is no
// retry; callers decide what a failure means.
func (c *Client) get(ctx context.Context, endpoint, u string, out any) error {
	if err := c.rl.Wait(ctx); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "hotel-catalog/1.0")

	start := time.Now()
	resp, err := c.hc.Do(req)
	if err != nil {
		observability.ObserveExternal("wordpress", endpoint, 0, time.Since(start))
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return err
	}
	defer resp.Body.Close()
	observability.ObserveExternal("wordpress", endpoint, resp.StatusCode, time.Since(start))

	switch resp.StatusCode {
	case http.StatusOK:
		return json.NewDecoder(resp.Body).Decode(out)

	case http.StatusNotFound:
		return ErrNotFound

	case http.StatusUnauthorized:
		return ErrUnauthorized

	case http.StatusForbidden:
		return ErrForbidden

	case http.StatusBadRequest:
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		if wpErrorCode(b) == "rest_post_invalid_page_number" {
			return errPastLastPage
		}
		return fmt.Errorf("bad status %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))

	default:
		// read a small error body for diagnostics
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("bad status %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
	}
}

// wpErrorCode extracts "code" from a WordPress REST error body.
func wpErrorCode(b []byte) string {
	var e struct {
		Code string `json:"code"`
	}
	if json.Unmarshal(b, &e) != nil {
		return ""
	}
	return e.Code
}
