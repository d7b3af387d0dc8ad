package save

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/sawpanic/keirin-ingest/internal/model"
	"github.com/sawpanic/keirin-ingest/internal/store"
)

// oddsTables maps each bet type to its own table (spec.md §6 names eight
// separate odds_* tables rather than one table with a kind discriminator).
var oddsTables = map[model.OddsKind]string{
	model.OddsTrifecta:        "odds_trifecta",
	model.OddsTrio:            "odds_trio",
	model.OddsExacta:          "odds_exacta",
	model.OddsQuinella:        "odds_quinella",
	model.OddsQuinellaPlace:   "odds_quinella_place",
	model.OddsBracketQuinella: "odds_bracket_quinella",
	model.OddsBracketExacta:   "odds_bracket_exacta",
	model.OddsWin:             "odds_win",
}

// S4Saver replaces one race's odds snapshot: delete-then-insert-then-status
// in a single transaction (spec.md §3, §4.D, §4.F). Odds rows are never
// appended across runs, only fully replaced.
type S4Saver struct {
	gw *store.Gateway
}

func NewS4Saver(gw *store.Gateway) *S4Saver {
	return &S4Saver{gw: gw}
}

func (s *S4Saver) Save(ctx context.Context, raceID int64, odds []model.Odds, isFinal bool) error {
	return s.gw.InTx(ctx, func(tx *sqlx.Tx) error {
		for _, table := range oddsTables {
			if _, err := tx.ExecContext(ctx, `DELETE FROM `+table+` WHERE race_id = $1`, raceID); err != nil {
				return fmt.Errorf("delete %s: %w", table, err)
			}
		}

		for _, o := range odds {
			table, ok := oddsTables[o.Kind]
			if !ok {
				return fmt.Errorf("insert odds: unknown kind %q", o.Kind)
			}
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO `+table+` (race_id, combination_key, value, min, max, popularity, is_absent)
				VALUES ($1, $2, $3, $4, $5, $6, $7)`,
				o.RaceID, o.CombinationKey, o.Value, o.Min, o.Max, o.Popularity, o.IsAbsent); err != nil {
				return fmt.Errorf("insert %s %s: %w", table, o.CombinationKey, err)
			}
		}

		if _, err := tx.ExecContext(ctx, `
			INSERT INTO odds_status (race_id, fetched_at, is_final, payout_status)
			VALUES ($1, $2, $3, '')`,
			raceID, time.Now().UTC(), isFinal); err != nil {
			return fmt.Errorf("odds_status: %w", err)
		}

		if _, err := tx.ExecContext(ctx, `
			UPDATE race_status SET step4_status = $1, updated_at = now() WHERE race_id = $2`,
			model.StepCompleted, raceID); err != nil {
			return fmt.Errorf("race_status: %w", err)
		}
		return nil
	})
}
