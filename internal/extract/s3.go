package extract

import (
	"context"
	"fmt"
	"time"

	"github.com/sawpanic/keirin-ingest/internal/store"
)

// S3Extractor selects the race tuples S3 should fetch detail for.
type S3Extractor struct {
	gw *store.Gateway
}

func NewS3Extractor(gw *store.Gateway) *S3Extractor {
	return &S3Extractor{gw: gw}
}

// Select joins schedules -> races -> cups -> race_status. A race qualifies
// when its schedule date falls in [start,end] or its cup_id matches
// cupFilter, and schedule_index is resolved (never null). With force=false
// it additionally excludes races whose step3_status is already 'completed'
// (spec.md §4.E).
func (e *S3Extractor) Select(ctx context.Context, start, end time.Time, cupFilter string, force bool) ([]RaceTuple, error) {
	var rows []RaceTuple

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
		q += " AND (rs.step3_status IS NULL OR rs.step3_status != 'completed')"
	}

	if err := e.gw.Query(ctx, &rows, q, args...); err != nil {
		return nil, fmt.Errorf("extract: s3 select: %w", err)
	}
	return rows, nil
}
