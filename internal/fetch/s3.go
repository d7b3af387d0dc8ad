package fetch

import (
	"context"
	"fmt"

	"github.com/sawpanic/keirin-ingest/internal/model"
	"github.com/sawpanic/keirin-ingest/internal/parse/providerw"
)

// S3Fetcher fetches one race's entries, players, records, and line
// prediction.
type S3Fetcher struct {
	provider *providerw.Client
	races    RaceIDResolver
}

func NewS3Fetcher(provider *providerw.Client, races RaceIDResolver) *S3Fetcher {
	return &S3Fetcher{provider: provider, races: races}
}

// Fetch resolves key to a store RaceID and fetches/decodes its detail.
func (e *S3Fetcher) Fetch(ctx context.Context, key model.RaceKey) (providerw.DecodedRace, int64, error) {
	raceID, err := e.races.ResolveRaceID(ctx, key)
	if err != nil {
		return providerw.DecodedRace{}, 0, err
	}
	resp, err := e.provider.FetchRaceDetail(ctx, key.CupID, key.ScheduleIndex, key.Number)
	if err != nil {
		return providerw.DecodedRace{}, raceID, fmt.Errorf("fetch: s3 %s: %w", key, err)
	}
	return resp.Decode(raceID), raceID, nil
}
