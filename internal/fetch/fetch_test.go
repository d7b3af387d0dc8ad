package fetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sawpanic/keirin-ingest/internal/httpapi"
	"github.com/sawpanic/keirin-ingest/internal/model"
	"github.com/sawpanic/keirin-ingest/internal/parse/providerw"
	"github.com/sawpanic/keirin-ingest/internal/ratelimit"
	"github.com/sawpanic/keirin-ingest/internal/venue"
)

func newTestHTTPClient(t *testing.T, srv *httptest.Server) *httpapi.Client {
	t.Helper()
	limiter := ratelimit.NewLimiter()
	limiter.SetInterval("test", 0, 0)
	cfg := httpapi.DefaultConfig(srv.URL)
	cfg.RetryCount = 1
	return httpapi.NewClient(cfg, limiter)
}

type fakeRaceIDResolver struct {
	id  int64
	err error
}

func (f fakeRaceIDResolver) ResolveRaceID(ctx context.Context, key model.RaceKey) (int64, error) {
	return f.id, f.err
}

type fakeRaceContextResolver struct {
	rc  RaceContext
	err error
}

func (f fakeRaceContextResolver) ResolveRaceContext(ctx context.Context, key model.RaceKey) (RaceContext, error) {
	return f.rc, f.err
}

func TestS2Fetcher_Fetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"schedules":[{"id":"sched-a","date":"2024-09-01"}],"races":[{"scheduleId":"sched-a","number":7}]}`))
	}))
	defer srv.Close()

	client := providerw.NewClient(newTestHTTPClient(t, srv), srv.URL)
	// override class interval lookup by reusing "test" class won't matter; client uses its own classes which default to zero interval in the limiter.
	extractor := NewS2Fetcher(client)

	out, err := extractor.Fetch(context.Background(), "20240901")
	require.NoError(t, err)
	require.Len(t, out.Schedules, 1)
	require.Len(t, out.RaceKeys, 1)
	assert.Equal(t, 7, out.RaceKeys[0].Number)
}

func TestS3Fetcher_Fetch_ResolvesRaceIDFirst(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"race":{"number":7,"status":1},"entries":[],"players":[]}`))
	}))
	defer srv.Close()

	client := providerw.NewClient(newTestHTTPClient(t, srv), srv.URL)
	extractor := NewS3Fetcher(client, fakeRaceIDResolver{id: 99})

	decoded, raceID, err := extractor.Fetch(context.Background(), model.RaceKey{CupID: "c1", ScheduleIndex: 0, Number: 7})
	require.NoError(t, err)
	assert.EqualValues(t, 99, raceID)
	assert.Equal(t, model.RaceStatusScheduled, decoded.Status)
}

func TestS4Fetcher_Fetch_PropagatesResolverError(t *testing.T) {
	extractor := NewS4Fetcher(nil, fakeRaceIDResolver{err: assertErr})
	_, _, err := extractor.Fetch(context.Background(), model.RaceKey{})
	assert.ErrorIs(t, err, assertErr)
}

func TestS5Fetcher_Fetch_ErrorsWhenVenueUnresolved(t *testing.T) {
	extractor := NewS5Fetcher(nil, venue.NewCodeTable(nil), fakeRaceContextResolver{rc: RaceContext{RaceID: 1, VenueID: 42}})
	_, raceID, err := extractor.Fetch(context.Background(), model.RaceKey{})
	assert.EqualValues(t, 1, raceID)
	require.Error(t, err)
	var unresolved *venue.ErrUnresolved
	assert.ErrorAs(t, err, &unresolved)
}

var assertErr = errFake("boom")

type errFake string

func (e errFake) Error() string { return string(e) }
