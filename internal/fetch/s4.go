package fetch

import (
	"context"
	"fmt"

	"github.com/sawpanic/keirin-ingest/internal/model"
	"github.com/sawpanic/keirin-ingest/internal/parse/providerw"
)

// S4Fetcher fetches one race's current odds across all bet kinds. A
// race's cancelled status is not checked here or by S4Updater, which calls
// Fetch for every race S4Extractor selects (spec.md §4.G).
type S4Fetcher struct {
	provider *providerw.Client
	races    RaceIDResolver
}

func NewS4Fetcher(provider *providerw.Client, races RaceIDResolver) *S4Fetcher {
	return &S4Fetcher{provider: provider, races: races}
}

func (e *S4Fetcher) Fetch(ctx context.Context, key model.RaceKey) ([]model.Odds, int64, error) {
	raceID, err := e.races.ResolveRaceID(ctx, key)
	if err != nil {
		return nil, 0, err
	}
	resp, err := e.provider.FetchOdds(ctx, key.CupID, key.ScheduleIndex, key.Number)
	if err != nil {
		return nil, raceID, fmt.Errorf("fetch: s4 %s: %w", key, err)
	}
	return resp.Decode(raceID), raceID, nil
}
