// Package save implements the per-stage Savers of spec.md §4.F: each one
// takes already-decoded entities and writes them through the Data Store
// Gateway, maintaining the race_status/odds_status ledger invariants.
package save

import (
	"context"
	"fmt"

	"github.com/lib/pq"

	"github.com/sawpanic/keirin-ingest/internal/model"
	"github.com/sawpanic/keirin-ingest/internal/store"
)

// S1Saver upserts regions, venues, and cups. All writes are
// replace-on-conflict; S1 never touches race_status.
type S1Saver struct {
	gw *store.Gateway
}

func NewS1Saver(gw *store.Gateway) *S1Saver {
	return &S1Saver{gw: gw}
}

func (s *S1Saver) Save(ctx context.Context, regions []model.Region, venues []model.Venue, cups []model.Cup) error {
	for _, r := range regions {
		if _, err := s.gw.Exec(ctx, `
			INSERT INTO regions (region_id, name) VALUES ($1, $2)
			ON CONFLICT (region_id) DO UPDATE SET name = EXCLUDED.name`,
			r.RegionID, r.Name); err != nil {
			return fmt.Errorf("save: s1 region %d: %w", r.RegionID, err)
		}
	}

	for _, v := range venues {
		if _, err := s.gw.Exec(ctx, `
			INSERT INTO venues (venue_id, name, slug, region_id, track_distance, bank_feature, best_record_player, best_record_seconds, best_record_date)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			ON CONFLICT (venue_id) DO UPDATE SET
				name = EXCLUDED.name, slug = EXCLUDED.slug, region_id = EXCLUDED.region_id,
				track_distance = EXCLUDED.track_distance, bank_feature = EXCLUDED.bank_feature,
				best_record_player = EXCLUDED.best_record_player, best_record_seconds = EXCLUDED.best_record_seconds,
				best_record_date = EXCLUDED.best_record_date`,
			v.VenueID, v.Name, v.Slug, v.RegionID, v.TrackDistance, v.BankFeature,
			v.BestRecordPlayer, v.BestRecordSeconds, v.BestRecordDate); err != nil {
			return fmt.Errorf("save: s1 venue %d: %w", v.VenueID, err)
		}
	}

	for _, c := range cups {
		if _, err := s.gw.Exec(ctx, `
			INSERT INTO cups (cup_id, name, start_date, end_date, duration, grade, venue_id, labels, players_unfixed_flag)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			ON CONFLICT (cup_id) DO UPDATE SET
				name = EXCLUDED.name, start_date = EXCLUDED.start_date, end_date = EXCLUDED.end_date,
				duration = EXCLUDED.duration, grade = EXCLUDED.grade, venue_id = EXCLUDED.venue_id,
				labels = EXCLUDED.labels, players_unfixed_flag = EXCLUDED.players_unfixed_flag`,
			c.CupID, c.Name, c.StartDate, c.EndDate, c.Duration, c.Grade, c.VenueID, pq.Array(c.Labels), c.PlayersUnfixedFlag); err != nil {
			return fmt.Errorf("save: s1 cup %s: %w", c.CupID, err)
		}
	}

	return nil
}
