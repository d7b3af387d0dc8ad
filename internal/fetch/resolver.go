package fetch

import (
	"context"
	"fmt"

	"github.com/sawpanic/keirin-ingest/internal/model"
	"github.com/sawpanic/keirin-ingest/internal/store"
)

// RaceIDResolver looks up the store-assigned RaceID for an intermediate
// race key, per spec.md §9 "Two IDs for race".
type RaceIDResolver interface {
	ResolveRaceID(ctx context.Context, key model.RaceKey) (int64, error)
}

// RaceContext is the race-level detail S5Fetcher needs to build a
// Provider-Y result-page URL: the race's venue and the calendar fields
// Provider-Y's path encodes (spec.md §4.C).
type RaceContext struct {
	RaceID    int64
	VenueID   int64
	YearMonth string // "YYYYMM"
	FirstDay  string // "YYYYMMDD", the cup's start date
	KaisaiDay string // "YYYYMMDD", this schedule's date
	Number    int
}

// RaceContextResolver resolves a RaceContext from an intermediate race key.
type RaceContextResolver interface {
	ResolveRaceContext(ctx context.Context, key model.RaceKey) (RaceContext, error)
}

// StoreResolver implements RaceIDResolver and RaceContextResolver against
// the Data Store Gateway, joining cups/schedules/races the way the pipeline
// itself inserted them in S1-S2.
type StoreResolver struct {
	gw *store.Gateway
}

func NewStoreResolver(gw *store.Gateway) *StoreResolver {
	return &StoreResolver{gw: gw}
}

func (r *StoreResolver) ResolveRaceID(ctx context.Context, key model.RaceKey) (int64, error) {
	var rows []struct {
		RaceID int64 `db:"race_id"`
	}
	const q = `
		SELECT r.race_id
		FROM races r
		JOIN schedules s ON s.schedule_id = r.schedule_id
		WHERE r.cup_id = $1 AND s.schedule_index = $2 AND r.number = $3`
	if err := r.gw.Query(ctx, &rows, q, key.CupID, key.ScheduleIndex, key.Number); err != nil {
		return 0, fmt.Errorf("fetch: resolve race id for %s: %w", key, err)
	}
	if len(rows) == 0 {
		return 0, fmt.Errorf("fetch: no race found for %s", key)
	}
	return rows[0].RaceID, nil
}

func (r *StoreResolver) ResolveRaceContext(ctx context.Context, key model.RaceKey) (RaceContext, error) {
	var rows []struct {
		RaceID    int64  `db:"race_id"`
		VenueID   int64  `db:"venue_id"`
		YearMonth string `db:"year_month"`
		FirstDay  string `db:"first_day"`
		KaisaiDay string `db:"kaisai_day"`
		Number    int    `db:"number"`
	}
	const q = `
		SELECT
			r.race_id,
			c.venue_id,
			to_char(c.start_date, 'YYYYMM') AS year_month,
			to_char(c.start_date, 'YYYYMMDD') AS first_day,
			to_char(s.date, 'YYYYMMDD') AS kaisai_day,
			r.number
		FROM races r
		JOIN schedules s ON s.schedule_id = r.schedule_id
		JOIN cups c ON c.cup_id = r.cup_id
		WHERE r.cup_id = $1 AND s.schedule_index = $2 AND r.number = $3`
	if err := r.gw.Query(ctx, &rows, q, key.CupID, key.ScheduleIndex, key.Number); err != nil {
		return RaceContext{}, fmt.Errorf("fetch: resolve race context for %s: %w", key, err)
	}
	if len(rows) == 0 {
		return RaceContext{}, fmt.Errorf("fetch: no race found for %s", key)
	}
	row := rows[0]
	return RaceContext{
		RaceID:    row.RaceID,
		VenueID:   row.VenueID,
		YearMonth: row.YearMonth,
		FirstDay:  row.FirstDay,
		KaisaiDay: row.KaisaiDay,
		Number:    row.Number,
	}, nil
}
