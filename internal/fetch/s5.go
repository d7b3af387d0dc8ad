package fetch

import (
	"context"
	"fmt"

	"github.com/sawpanic/keirin-ingest/internal/model"
	"github.com/sawpanic/keirin-ingest/internal/parse/providery"
	"github.com/sawpanic/keirin-ingest/internal/venue"
)

// S5Fetcher fetches one race's Provider-Y result page: finish order,
// payouts, and lap positions.
type S5Fetcher struct {
	provider *providery.Client
	venues   *venue.CodeTable
	races    RaceContextResolver
}

func NewS5Fetcher(provider *providery.Client, venues *venue.CodeTable, races RaceContextResolver) *S5Fetcher {
	return &S5Fetcher{provider: provider, venues: venues, races: races}
}

func (e *S5Fetcher) Fetch(ctx context.Context, key model.RaceKey) (providery.ResultDetail, int64, error) {
	rc, err := e.races.ResolveRaceContext(ctx, key)
	if err != nil {
		return providery.ResultDetail{}, 0, err
	}

	code, err := e.venues.Resolve(rc.VenueID)
	if err != nil {
		return providery.ResultDetail{}, rc.RaceID, fmt.Errorf("fetch: s5 %s: %w", key, err)
	}

	html, err := e.provider.FetchResultDetail(ctx, rc.YearMonth, code, rc.FirstDay, rc.KaisaiDay, rc.Number)
	if err != nil {
		return providery.ResultDetail{}, rc.RaceID, fmt.Errorf("fetch: s5 %s: %w", key, err)
	}

	return providery.Parse(rc.RaceID, html), rc.RaceID, nil
}
