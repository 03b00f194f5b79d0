package websearch

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/askdoc/askdoc/internal/models"
)

const duckduckgoEndpoint = "https://html.duckduckgo.com/html/"

// duckduckgo scrapes the keyless HTML results page. Used when no
// Tavily API key is configured.
type duckduckgo struct {
	client   *http.Client
	endpoint string
}

func (d *duckduckgo) search(ctx context.Context, query string, n int) ([]models.SearchResult, error) {
	endpoint := d.endpoint
	if endpoint == "" {
		endpoint = duckduckgoEndpoint
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		endpoint+"?q="+url.QueryEscape(query), nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (compatible; askdoc/1.0)")

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: search page returned status %d", ErrUnavailable, resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	var results []models.SearchResult
	doc.Find("div.result").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		snippet := strings.TrimSpace(sel.Find(".result__snippet").Text())
		if snippet == "" {
			return true
		}

		href, _ := sel.Find("a.result__a").Attr("href")
		results = append(results, models.SearchResult{
			Text:   snippet,
			Source: models.SourceWeb,
			URL:    cleanResultURL(href),
		})
		return len(results) < n
	})

	if len(results) == 0 {
		return nil, fmt.Errorf("%w: no results parsed from search page", ErrUnavailable)
	}
	return results, nil
}

// cleanResultURL unwraps DuckDuckGo's redirect links, which carry the
// destination in a uddg query parameter.
func cleanResultURL(href string) string {
	u, err := url.Parse(href)
	if err != nil {
		return href
	}
	if target := u.Query().Get("uddg"); target != "" {
		return target
	}
	return href
}
