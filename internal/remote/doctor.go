package remote

import (
	"context"
	"fmt"
	"net/http"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Doctor page URLs end with the doctor code, e.g. .../mudr-jana-novakova-d15313.html
var (
	doctorCodeRe  = regexp.MustCompile(`-d(\d+)\.html$`)
	doctorSlugRe  = regexp.MustCompile(`/([^/]+)-d\d+\.html$`)
	titleSuffixRe = regexp.MustCompile(`(?i)\s*-\s*navstevalekara\.sk.*$`)
)

// ExtractDoctorCode parses the numeric doctor code out of a listing URL.
func ExtractDoctorCode(doctorURL string) (string, error) {
	m := doctorCodeRe.FindStringSubmatch(doctorURL)
	if m == nil {
		return "", fmt.Errorf("doctor URL must end with -dXXX.html: %q", doctorURL)
	}
	return m[1], nil
}

// FetchDoctorName loads the doctor's public page and extracts the display
// name with diacritics: the h1 heading, falling back to the page title
// stripped of the site suffix. Results are cached per URL. When the page
// cannot be fetched or parsed, a name derived from the URL slug is
// returned instead, so callers always get something presentable.
func (c *Client) FetchDoctorName(ctx context.Context, doctorURL string) string {
	if name, ok := c.names.Get(doctorURL); ok {
		return name
	}

	name, err := c.fetchName(ctx, doctorURL)
	if err != nil {
		c.logger.Warn("doctor name fetch failed, using URL slug", "url", doctorURL, "error", err)
		return NameFromURL(doctorURL)
	}
	c.names.Set(doctorURL, name)
	return name
}

func (c *Client) fetchName(ctx context.Context, doctorURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, doctorURL, nil)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch doctor page: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("doctor page returned %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return "", fmt.Errorf("parse doctor page: %w", err)
	}

	if h1 := strings.TrimSpace(doc.Find("h1").First().Text()); h1 != "" {
		return h1, nil
	}
	if title := strings.TrimSpace(doc.Find("title").First().Text()); title != "" {
		return strings.TrimSpace(titleSuffixRe.ReplaceAllString(title, "")), nil
	}
	return "", fmt.Errorf("no h1 or title on doctor page")
}

// NameFromURL derives a fallback display name from the URL slug, without
// diacritics: "mudr-jana-novakova-d15313.html" → "Mudr Jana Novakova".
func NameFromURL(doctorURL string) string {
	m := doctorSlugRe.FindStringSubmatch(doctorURL)
	if m == nil {
		if code, err := ExtractDoctorCode(doctorURL); err == nil {
			return "Doctor " + code
		}
		return "Doctor"
	}
	words := strings.Split(m[1], "-")
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
