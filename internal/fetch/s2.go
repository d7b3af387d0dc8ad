// Package fetch is the fetch-and-decode half of each Stage Updater
// (spec.md §4.E, §4.G): it resolves whatever identifiers it needs via a
// read-only store lookup, fetches from the appropriate provider client, and
// returns decoded, store-ready entities. It never writes; that is the
// Saver's job (internal/save). Stage scope selection — which cups or races
// a run should touch — is a separate concern (internal/extract).
package fetch

import (
	"context"

	"github.com/sawpanic/keirin-ingest/internal/parse/providerw"
)

// S2Fetcher fetches one cup's schedules and race references.
type S2Fetcher struct {
	provider *providerw.Client
}

func NewS2Fetcher(provider *providerw.Client) *S2Fetcher {
	return &S2Fetcher{provider: provider}
}

// Fetch fetches and decodes the schedule/race listing for cupID.
func (e *S2Fetcher) Fetch(ctx context.Context, cupID string) (providerw.DecodedCupDetail, error) {
	resp, err := e.provider.FetchCupDetail(ctx, cupID)
	if err != nil {
		return providerw.DecodedCupDetail{}, err
	}
	return resp.Decode(cupID), nil
}
