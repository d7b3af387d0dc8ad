package providerw

import (
	"context"
	"fmt"

	"github.com/sawpanic/keirin-ingest/internal/httpapi"
)

// Endpoint classes used for rate-limit pacing (spec.md §4.B); one class per
// distinct URL shape, matching how the upstream actually throttles.
const (
	ClassMonth = "winticket.month"
	ClassCup   = "winticket.cup"
	ClassRace  = "winticket.race"
	ClassOdds  = "winticket.odds"
)

// Client decodes Provider-W's JSON REST endpoints on top of a generic
// httpapi.Client.
type Client struct {
	http    *httpapi.Client
	baseURL string
}

// NewClient wraps an already-configured httpapi.Client pointed at Provider-W.
func NewClient(http *httpapi.Client, baseURL string) *Client {
	return &Client{http: http, baseURL: baseURL}
}

// FetchMonth retrieves the cups/venues/regions listing for the month
// beginning on the 1st of yyyymm01 (spec.md §4.C, S1).
func (c *Client) FetchMonth(ctx context.Context, yyyymm01 string) (MonthResponse, error) {
	url := fmt.Sprintf("%s/v1/keirin/cups?date=%s&fields=month,venues,regions&pfm=web", c.baseURL, yyyymm01)
	var out MonthResponse
	if err := c.http.FetchJSON(ctx, url, ClassMonth, &out); err != nil {
		return MonthResponse{}, err
	}
	return out, nil
}

// FetchCupDetail retrieves a cup's schedules and race references (S2).
func (c *Client) FetchCupDetail(ctx context.Context, cupID string) (CupDetailResponse, error) {
	url := fmt.Sprintf("%s/v1/keirin/cups/%s?fields=cup,schedules,races&pfm=web", c.baseURL, cupID)
	var out CupDetailResponse
	if err := c.http.FetchJSON(ctx, url, ClassCup, &out); err != nil {
		return CupDetailResponse{}, err
	}
	return out, nil
}

// FetchRaceDetail retrieves one race's entries/players/records/line
// prediction (S3). scheduleIndex is 0-based (spec.md §9).
func (c *Client) FetchRaceDetail(ctx context.Context, cupID string, scheduleIndex, number int) (RaceDetailResponse, error) {
	url := fmt.Sprintf("%s/v1/keirin/cups/%s/schedules/%d/races/%d?fields=race,entries,players,records,linePrediction&pfm=web",
		c.baseURL, cupID, scheduleIndex, number)
	var out RaceDetailResponse
	if err := c.http.FetchJSON(ctx, url, ClassRace, &out); err != nil {
		return RaceDetailResponse{}, err
	}
	return out, nil
}

// FetchOdds retrieves one race's current odds across all bet kinds (S4).
func (c *Client) FetchOdds(ctx context.Context, cupID string, scheduleIndex, number int) (OddsResponse, error) {
	url := fmt.Sprintf("%s/v1/keirin/cups/%s/schedules/%d/races/%d/odds?fields=odds&pfm=web",
		c.baseURL, cupID, scheduleIndex, number)
	var out OddsResponse
	if err := c.http.FetchJSON(ctx, url, ClassOdds, &out); err != nil {
		return OddsResponse{}, err
	}
	return out, nil
}
