package extract

import (
	"context"
	"fmt"
	"time"

	"github.com/sawpanic/keirin-ingest/internal/store"
)

// S2Extractor selects which cups S2 should (re-)fetch detail for.
type S2Extractor struct {
	gw *store.Gateway
}

func NewS2Extractor(gw *store.Gateway) *S2Extractor {
	return &S2Extractor{gw: gw}
}

// Select returns cup_ids whose [start_date,end_date] overlaps [start,end].
// With force=false it additionally restricts to cups that still have races
// with race_status.step3_status in {null, pending} — a proxy for "not yet
// fully ingested" (spec.md §4.E).
func (e *S2Extractor) Select(ctx context.Context, start, end time.Time, cupFilter string, force bool) ([]string, error) {
	var rows []struct {
		CupID string `db:"cup_id"`
	}

	q := `
		SELECT DISTINCT c.cup_id
		FROM cups c`
	args := []interface{}{start, end}
	where := `WHERE c.start_date <= $2 AND c.end_date >= $1`

	if !force {
		q += `
		LEFT JOIN races r ON r.cup_id = c.cup_id
		LEFT JOIN race_status rs ON rs.race_id = r.race_id`
		where += ` AND (rs.step3_status IS NULL OR rs.step3_status = 'pending')`
	}
	if cupFilter != "" {
		args = append(args, cupFilter)
		where += fmt.Sprintf(" AND c.cup_id = $%d", len(args))
	}

	if err := e.gw.Query(ctx, &rows, q+"\n"+where, args...); err != nil {
		return nil, fmt.Errorf("extract: s2 select: %w", err)
	}

	out := make([]string, len(rows))
	for i, r := range rows {
		out[i] = r.CupID
	}
	return out, nil
}
