package save

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/sawpanic/keirin-ingest/internal/model"
	"github.com/sawpanic/keirin-ingest/internal/parse/providery"
	"github.com/sawpanic/keirin-ingest/internal/store"
)

// S5Saver inserts results, payouts, and lap positions for one race in a
// single transaction: a successful run leaves all three tables populated
// for the race, or none of them (spec.md §4.D, §7).
type S5Saver struct {
	gw *store.Gateway
}

func NewS5Saver(gw *store.Gateway) *S5Saver {
	return &S5Saver{gw: gw}
}

func (s *S5Saver) Save(ctx context.Context, raceID int64, detail providery.ResultDetail) error {
	return s.gw.InTx(ctx, func(tx *sqlx.Tx) error {
		for _, r := range detail.Results {
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO results (race_id, rank, frame, player_id)
				VALUES ($1, $2, $3, $4)
				ON CONFLICT (race_id, frame) DO UPDATE SET rank = EXCLUDED.rank, player_id = EXCLUDED.player_id`,
				raceID, r.Rank, r.Frame, r.PlayerID); err != nil {
				return fmt.Errorf("result frame %d: %w", r.Frame, err)
			}
		}

		for _, p := range detail.Payouts {
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO payouts (race_id, ticket_type, combination, amount_yen, popularity)
				VALUES ($1, $2, $3, $4, $5)
				ON CONFLICT (race_id, ticket_type, combination) DO UPDATE SET
					amount_yen = EXCLUDED.amount_yen, popularity = EXCLUDED.popularity`,
				raceID, p.TicketType, p.Combination, p.AmountYen, p.Popularity); err != nil {
				return fmt.Errorf("payout %s: %w", p.TicketType, err)
			}
		}

		for _, lp := range detail.LapPositions {
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO lap_positions (race_id, section, frame, player_name, x, y)
				VALUES ($1, $2, $3, $4, $5, $6)`,
				raceID, lp.Section, lp.Frame, lp.PlayerName, lp.X, lp.Y); err != nil {
				return fmt.Errorf("lap position %s frame %d: %w", lp.Section, lp.Frame, err)
			}
		}

		if _, err := tx.ExecContext(ctx, `
			UPDATE race_status SET step5_status = $1, updated_at = now() WHERE race_id = $2`,
			model.StepCompleted, raceID); err != nil {
			return fmt.Errorf("race_status: %w", err)
		}
		return nil
	})
}
