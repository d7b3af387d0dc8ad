package save

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/sawpanic/keirin-ingest/internal/model"
	"github.com/sawpanic/keirin-ingest/internal/store"
)

// S2Saver upserts a cup's schedules and races, creating a fully-pending
// race_status row for every newly inserted race (spec.md §4.F). The whole
// write is one transaction, per spec.md §4.D's transaction-discipline table.
type S2Saver struct {
	gw *store.Gateway
}

func NewS2Saver(gw *store.Gateway) *S2Saver {
	return &S2Saver{gw: gw}
}

// Counts summarizes what a Saver wrote, for the Stage Updater's per-stage
// (ok, message, count) report (spec.md §4.G, §5).
type Counts struct {
	SchedulesSaved int
	RacesSaved     int
}

func (s *S2Saver) Save(ctx context.Context, schedules []model.Schedule, raceKeys []model.RaceKey) (Counts, error) {
	var counts Counts
	err := s.gw.InTx(ctx, func(tx *sqlx.Tx) error {
		scheduleIDs := make(map[int]string, len(schedules))
		for _, sc := range schedules {
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO schedules (schedule_id, cup_id, date, schedule_index)
				VALUES ($1, $2, $3, $4)
				ON CONFLICT (schedule_id) DO UPDATE SET date = EXCLUDED.date, schedule_index = EXCLUDED.schedule_index`,
				sc.ScheduleID, sc.CupID, sc.Date, sc.ScheduleIndex); err != nil {
				return fmt.Errorf("schedule %s: %w", sc.ScheduleID, err)
			}
			scheduleIDs[sc.ScheduleIndex] = sc.ScheduleID
			counts.SchedulesSaved++
		}

		for _, key := range raceKeys {
			scheduleID, ok := scheduleIDs[key.ScheduleIndex]
			if !ok {
				return fmt.Errorf("race %s: no schedule at index %d", key, key.ScheduleIndex)
			}

			var inserted []struct {
				RaceID      int64 `db:"race_id"`
				WasInserted bool  `db:"was_inserted"`
			}
			if err := tx.SelectContext(ctx, &inserted, `
				INSERT INTO races (cup_id, schedule_id, number, status)
				VALUES ($1, $2, $3, $4)
				ON CONFLICT (cup_id, schedule_id, number) DO UPDATE SET status = races.status
				RETURNING race_id, (xmax = 0) AS was_inserted`,
				key.CupID, scheduleID, key.Number, model.RaceStatusScheduled); err != nil {
				return fmt.Errorf("race %s: %w", key, err)
			}
			counts.RacesSaved++

			for _, row := range inserted {
				if !row.WasInserted {
					continue
				}
				if _, err := tx.ExecContext(ctx, `
					INSERT INTO race_status (race_id, step1_status, step2_status, step3_status, step4_status, step5_status, updated_at)
					VALUES ($1, $2, $2, $2, $2, $2, now())
					ON CONFLICT (race_id) DO NOTHING`,
					row.RaceID, model.StepPending); err != nil {
					return fmt.Errorf("race_status %d: %w", row.RaceID, err)
				}
			}
		}
		return nil
	})
	return counts, err
}
