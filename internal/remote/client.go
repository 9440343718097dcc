// Package remote talks to navstevalekara.sk: the AJAX schedule endpoint
// that returns week availability markup, and the public doctor pages used
// to resolve doctor codes and display names.
//
// The schedule endpoint is an internal XHR handler that checks request
// headers defensively, so the client mimics a real browser session,
// including a Referer equal to the doctor's page URL. Rate limiting is
// handled via a token bucket limiter shared by all watchers.
package remote

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

const (
	// DefaultBaseURL is the production site root.
	DefaultBaseURL = "https://www.navstevalekara.sk"

	orderPath    = "/page/modules/doctors/order.php"
	fetchTimeout = 30 * time.Second
	userAgent    = "Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:145.0) Gecko/20100101 Firefox/145.0"
)

// Client fetches week availability markup and doctor page metadata.
type Client struct {
	httpClient *http.Client
	baseURL    string
	limiter    *rate.Limiter
	logger     *slog.Logger
	names      *nameCache
}

// NewClient creates a schedule client with rate limiting. baseURL may be
// empty to use the production site.
func NewClient(baseURL string, requestsPerMinute int, logger *slog.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if logger == nil {
		logger = slog.Default()
	}
	rps := float64(requestsPerMinute) / 60.0
	return &Client{
		httpClient: &http.Client{Timeout: fetchTimeout},
		baseURL:    strings.TrimRight(baseURL, "/"),
		limiter:    rate.NewLimiter(rate.Limit(rps), 1),
		logger:     logger,
		names:      newNameCache(),
	}
}

// FetchWindow posts the schedule query for one week window and returns the
// raw availability markup. Any transport error or non-2xx status is an
// error; callers treat a failed window as contributing zero slots.
func (c *Client) FetchWindow(ctx context.Context, doctorCode, doctorURL string, window int) (string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limit wait: %w", err)
	}

	form := url.Values{
		"t":  {"w"},
		"dc": {doctorCode},
		"w":  {strconv.Itoa(window)},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+orderPath, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	setBrowserHeaders(req, c.baseURL, doctorURL)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch window %d: %w", window, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read window %d response: %w", window, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("window %d returned %d: %s", window, resp.StatusCode, truncate(body, 200))
	}
	return string(body), nil
}

// setBrowserHeaders reproduces the header set of a real browser XHR from a
// doctor page. External-compatibility requirement, not a design choice.
func setBrowserHeaders(req *http.Request, origin, doctorURL string) {
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "text/html, */*; q=0.01")
	req.Header.Set("Accept-Language", "sk,en-US;q=0.7,en;q=0.3")
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded; charset=UTF-8")
	req.Header.Set("X-Requested-With", "XMLHttpRequest")
	req.Header.Set("Origin", origin)
	req.Header.Set("DNT", "1")
	req.Header.Set("Sec-GPC", "1")
	req.Header.Set("Connection", "keep-alive")
	req.Header.Set("Referer", doctorURL)
	req.Header.Set("Sec-Fetch-Dest", "empty")
	req.Header.Set("Sec-Fetch-Mode", "cors")
	req.Header.Set("Sec-Fetch-Site", "same-origin")
}

// truncate returns a truncated string representation for error messages.
func truncate(b []byte, maxLen int) string {
	if len(b) <= maxLen {
		return string(b)
	}
	return string(b[:maxLen]) + "..."
}
