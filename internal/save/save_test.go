package save

import (
	"context"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sawpanic/keirin-ingest/internal/model"
	"github.com/sawpanic/keirin-ingest/internal/parse/providery"
	"github.com/sawpanic/keirin-ingest/internal/parse/providerw"
	"github.com/sawpanic/keirin-ingest/internal/store"
)

func providerySampleDetail() providery.ResultDetail {
	return providery.ResultDetail{
		Results: []model.Result{{RaceID: 99, Rank: 1, Frame: 3, PlayerID: "p3"}},
		Payouts: []model.Payout{{RaceID: 99, TicketType: model.OddsWin, Combination: "3", AmountYen: 210}},
		LapPositions: []model.LapPosition{
			{RaceID: 99, Section: "home", Frame: 3, PlayerName: "Taro", X: 120, Y: 45},
		},
	}
}

func newMockDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return sqlx.NewDb(db, "postgres"), mock
}

func TestS1Saver_UpsertsRegionsVenuesCups(t *testing.T) {
	db, mock := newMockDB(t)
	s := NewS1Saver(store.New(db, 100))

	mock.ExpectExec("INSERT INTO regions").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO venues").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO cups").WillReturnResult(sqlmock.NewResult(0, 1))

	err := s.Save(context.Background(),
		[]model.Region{{RegionID: 1, Name: "Kanto"}},
		[]model.Venue{{VenueID: 10, Name: "Kofu"}},
		[]model.Cup{{CupID: "20240901", Name: "Opening"}},
	)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestS2Saver_CreatesPendingStatusOnlyForNewRaces(t *testing.T) {
	db, mock := newMockDB(t)
	s := NewS2Saver(store.New(db, 100))

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO schedules").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("INSERT INTO races").
		WillReturnRows(sqlmock.NewRows([]string{"race_id", "was_inserted"}).AddRow(int64(99), true))
	mock.ExpectExec("INSERT INTO race_status").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	counts, err := s.Save(context.Background(),
		[]model.Schedule{{ScheduleID: "sched-a", CupID: "c1", ScheduleIndex: 0}},
		[]model.RaceKey{{CupID: "c1", ScheduleIndex: 0, Number: 7}},
	)
	require.NoError(t, err)
	assert.Equal(t, 1, counts.SchedulesSaved)
	assert.Equal(t, 1, counts.RacesSaved)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestS3Saver_MarksStep3Completed(t *testing.T) {
	db, mock := newMockDB(t)
	s := NewS3Saver(store.New(db, 100))

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO entries").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE race_status SET step3_status").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := s.Save(context.Background(), 99, providerw.DecodedRace{
		Entries: []model.Entry{{RaceID: 99, Frame: 1, PlayerID: "p1"}},
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestS4Saver_DeletesBeforeInserting(t *testing.T) {
	db, mock := newMockDB(t)
	s := NewS4Saver(store.New(db, 100))

	mock.ExpectBegin()
	for i := 0; i < len(oddsTables); i++ {
		mock.ExpectExec("DELETE FROM odds_").WillReturnResult(sqlmock.NewResult(0, 0))
	}
	mock.ExpectExec("INSERT INTO odds_win").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO odds_status").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE race_status SET step4_status").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := s.Save(context.Background(), 99, []model.Odds{{RaceID: 99, Kind: model.OddsWin, CombinationKey: "1"}}, true)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestS5Saver_WritesAllThreeTablesInOneTransaction(t *testing.T) {
	db, mock := newMockDB(t)
	s := NewS5Saver(store.New(db, 100))

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO results").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO payouts").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO lap_positions").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE race_status SET step5_status").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := s.Save(context.Background(), 99, providerySampleDetail())
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
