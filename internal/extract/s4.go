package extract

import (
	"context"
	"fmt"
	"time"

	"github.com/sawpanic/keirin-ingest/internal/store"
)

// S4Extractor selects the race tuples S4 should fetch odds for.
type S4Extractor struct {
	gw *store.Gateway
}

func NewS4Extractor(gw *store.Gateway) *S4Extractor {
	return &S4Extractor{gw: gw}
}

// Select uses the same tuple shape and window/cup scoping as S3Extractor.
// With force=false, a race qualifies only when it is not yet finished
// (status != 3) OR an odds_status row already exists for it — that row is
// the sole signal that a pre-finish snapshot needs a final re-fetch
// (spec.md §4.E, §3).
func (e *S4Extractor) Select(ctx context.Context, start, end time.Time, cupFilter string, force bool) ([]RaceTuple, error) {
	var rows []RaceTuple

	q := `
		SELECT r.race_id, r.cup_id, s.schedule_id, s.schedule_index, r.number, c.venue_id, r.status
		FROM races r
		JOIN schedules s ON s.schedule_id = r.schedule_id
		JOIN cups c ON c.cup_id = r.cup_id
		WHERE s.schedule_index IS NOT NULL
		  AND (s.date BETWEEN $1 AND $2`
	args := []interface{}{start, end}

	if cupFilter != "" {
		args = append(args, cupFilter)
		q += fmt.Sprintf(" OR r.cup_id = $%d", len(args))
	}
	q += ")"

	if !force {
		q += `
		  AND (r.status != 3 OR EXISTS (SELECT 1 FROM odds_status os WHERE os.race_id = r.race_id))`
	}

	if err := e.gw.Query(ctx, &rows, q, args...); err != nil {
		return nil, fmt.Errorf("extract: s4 select: %w", err)
	}
	return rows, nil
}
