package save

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/sawpanic/keirin-ingest/internal/model"
	"github.com/sawpanic/keirin-ingest/internal/parse/providerw"
	"github.com/sawpanic/keirin-ingest/internal/store"
)

// S3Saver upserts entries, player records, and line predictions for one
// race, then marks step3_status completed (spec.md §4.F).
type S3Saver struct {
	gw *store.Gateway
}

func NewS3Saver(gw *store.Gateway) *S3Saver {
	return &S3Saver{gw: gw}
}

func (s *S3Saver) Save(ctx context.Context, raceID int64, decoded providerw.DecodedRace) error {
	return s.gw.InTx(ctx, func(tx *sqlx.Tx) error {
		for _, e := range decoded.Entries {
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO entries (race_id, frame, player_id, name, points, place_rate1, place_rate2, place_rate3)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
				ON CONFLICT (race_id, frame) DO UPDATE SET
					player_id = EXCLUDED.player_id, name = EXCLUDED.name, points = EXCLUDED.points,
					place_rate1 = EXCLUDED.place_rate1, place_rate2 = EXCLUDED.place_rate2, place_rate3 = EXCLUDED.place_rate3`,
				raceID, e.Frame, e.PlayerID, e.Name, e.Points, e.PlaceRate1, e.PlaceRate2, e.PlaceRate3); err != nil {
				return fmt.Errorf("entry frame %d: %w", e.Frame, err)
			}
		}

		for _, pr := range decoded.PlayerRecords {
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO player_records (player_id, name, total_starts, total_wins, place_rate)
				VALUES ($1, $2, $3, $4, $5)
				ON CONFLICT (player_id) DO UPDATE SET
					name = EXCLUDED.name, total_starts = EXCLUDED.total_starts,
					total_wins = EXCLUDED.total_wins, place_rate = EXCLUDED.place_rate`,
				pr.PlayerID, pr.Name, pr.TotalStarts, pr.TotalWins, pr.PlaceRate); err != nil {
				return fmt.Errorf("player record %s: %w", pr.PlayerID, err)
			}
		}

		for _, lp := range decoded.LinePredictions {
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO line_predictions (race_id, frame, line_group, line_position)
				VALUES ($1, $2, $3, $4)
				ON CONFLICT (race_id, frame) DO UPDATE SET
					line_group = EXCLUDED.line_group, line_position = EXCLUDED.line_position`,
				raceID, lp.Frame, lp.LineGroup, lp.LinePosition); err != nil {
				return fmt.Errorf("line prediction frame %d: %w", lp.Frame, err)
			}
		}

		if _, err := tx.ExecContext(ctx, `
			UPDATE race_status SET step3_status = $1, updated_at = now() WHERE race_id = $2`,
			model.StepCompleted, raceID); err != nil {
			return fmt.Errorf("race_status: %w", err)
		}
		return nil
	})
}
