// Package providery scrapes Provider-Y's HTML result pages (spec.md §4.C,
// §6), grounded on original_source/scripts/yenjoy_api.py.
package providery

import (
	"context"
	"fmt"

	"github.com/sawpanic/keirin-ingest/internal/httpapi"
)

// ClassResultDetail is the sole Provider-Y endpoint class; the upstream site
// does not distinguish result pages from each other for rate-limiting
// purposes (spec.md §4.B).
const ClassResultDetail = "yenjoy.result_detail"

// Client fetches Provider-Y's result-detail pages as raw HTML.
type Client struct {
	http    *httpapi.Client
	baseURL string
}

// NewClient wraps an already-configured httpapi.Client pointed at Provider-Y.
func NewClient(http *httpapi.Client, baseURL string) *Client {
	return &Client{http: http, baseURL: baseURL}
}

// FetchResultDetail retrieves the race-result page for one race. venueCode
// is the two-digit Provider-Y venue code resolved via internal/venue
// (spec.md §9); firstDay and kaisaiDay are "YYYYMMDD"-formatted.
func (c *Client) FetchResultDetail(ctx context.Context, yearMonth, venueCode, firstDay, kaisaiDay string, raceNumber int) ([]byte, error) {
	url := fmt.Sprintf("%s/kaisai/race/result/detail/%s/%s/%s/%s/%d",
		c.baseURL, yearMonth, venueCode, firstDay, kaisaiDay, raceNumber)
	return c.http.Fetch(ctx, url, ClassResultDetail)
}
