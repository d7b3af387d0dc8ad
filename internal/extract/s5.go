package extract

import (
	"context"
	"fmt"
	"time"

	"github.com/sawpanic/keirin-ingest/internal/store"
	"github.com/sawpanic/keirin-ingest/internal/venue"
)

// S5Extractor selects the race tuples S5 should fetch Provider-Y results
// for: in-window races whose step5_status isn't already 'completed' and
// for which a Provider-Y venue code is resolvable (spec.md §4.E, §9).
// Races whose venue cannot be resolved are omitted and reported via Skipped
// rather than causing the whole selection to fail.
type S5Extractor struct {
	gw     *store.Gateway
	venues *venue.CodeTable
}

func NewS5Extractor(gw *store.Gateway, venues *venue.CodeTable) *S5Extractor {
	return &S5Extractor{gw: gw, venues: venues}
}

// Skipped names one race omitted from Select along with why.
type Skipped struct {
	Tuple RaceTuple
	Err   error
}

func (e *S5Extractor) Select(ctx context.Context, start, end time.Time, cupFilter string, force bool) ([]RaceTuple, []Skipped, error) {
	var candidates []RaceTuple

	q := `
		SELECT r.race_id, r.cup_id, s.schedule_id, s.schedule_index, r.number, c.venue_id
		FROM races r
		JOIN schedules s ON s.schedule_id = r.schedule_id
		JOIN cups c ON c.cup_id = r.cup_id
		LEFT JOIN race_status rs ON rs.race_id = r.race_id
		WHERE s.schedule_index IS NOT NULL
		  AND (s.date BETWEEN $1 AND $2`
	args := []interface{}{start, end}

	if cupFilter != "" {
		args = append(args, cupFilter)
		q += fmt.Sprintf(" OR r.cup_id = $%d", len(args))
	}
	q += ")"

	if !force {
		q += " AND (rs.step5_status IS NULL OR rs.step5_status != 'completed')"
	}

	if err := e.gw.Query(ctx, &candidates, q, args...); err != nil {
		return nil, nil, fmt.Errorf("extract: s5 select: %w", err)
	}

	var out []RaceTuple
	var skipped []Skipped
	for _, t := range candidates {
		if _, err := e.venues.Resolve(t.VenueID); err != nil {
			skipped = append(skipped, Skipped{Tuple: t, Err: err})
			continue
		}
		out = append(out, t)
	}
	return out, skipped, nil
}
