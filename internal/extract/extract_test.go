package extract

import (
	"context"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sawpanic/keirin-ingest/internal/store"
	"github.com/sawpanic/keirin-ingest/internal/venue"
)

func newMockGateway(t *testing.T) (*store.Gateway, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return store.New(sqlx.NewDb(db, "postgres"), 100), mock
}

func TestS2Extractor_Select(t *testing.T) {
	gw, mock := newMockGateway(t)
	mock.ExpectQuery("SELECT DISTINCT c.cup_id").
		WillReturnRows(sqlmock.NewRows([]string{"cup_id"}).AddRow("c1").AddRow("c2"))

	cupIDs, err := NewS2Extractor(gw).Select(context.Background(), time.Now(), time.Now(), "", false)
	require.NoError(t, err)
	assert.Equal(t, []string{"c1", "c2"}, cupIDs)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestS4Extractor_Select_ForceSkipsFinishedFilter(t *testing.T) {
	gw, mock := newMockGateway(t)
	mock.ExpectQuery("SELECT r.race_id").
		WillReturnRows(sqlmock.NewRows([]string{"race_id", "cup_id", "schedule_id", "schedule_index", "number", "venue_id"}).
			AddRow(int64(1), "c1", "s1", 0, 7, int64(10)))

	tuples, err := NewS4Extractor(gw).Select(context.Background(), time.Now(), time.Now(), "", true)
	require.NoError(t, err)
	require.Len(t, tuples, 1)
	assert.EqualValues(t, 1, tuples[0].RaceID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestS5Extractor_Select_SkipsUnresolvedVenue(t *testing.T) {
	gw, mock := newMockGateway(t)
	mock.ExpectQuery("SELECT r.race_id").
		WillReturnRows(sqlmock.NewRows([]string{"race_id", "cup_id", "schedule_id", "schedule_index", "number", "venue_id"}).
			AddRow(int64(1), "c1", "s1", 0, 7, int64(10)).
			AddRow(int64(2), "c1", "s1", 0, 8, int64(99)))

	table := venue.NewCodeTable(map[int64]string{10: "01"})
	tuples, skipped, err := NewS5Extractor(gw, table).Select(context.Background(), time.Now(), time.Now(), "", false)
	require.NoError(t, err)
	require.Len(t, tuples, 1)
	assert.EqualValues(t, 1, tuples[0].RaceID)
	require.Len(t, skipped, 1)
	assert.EqualValues(t, 2, skipped[0].Tuple.RaceID)
	assert.NoError(t, mock.ExpectationsWereMet())
}
