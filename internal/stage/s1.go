package stage

import (
	"context"
	"fmt"
	"time"

	"github.com/sawpanic/keirin-ingest/internal/parse/providerw"
	"github.com/sawpanic/keirin-ingest/internal/save"
)

// S1Updater walks each calendar month in the window sequentially, fetching
// and saving that month's cups/venues/regions (spec.md §4.G).
type S1Updater struct {
	provider *providerw.Client
	saver    *save.S1Saver
}

func NewS1Updater(provider *providerw.Client, saver *save.S1Saver) *S1Updater {
	return &S1Updater{provider: provider, saver: saver}
}

// Run processes every calendar month touched by [start,end], requesting
// each by its 1st.
func (u *S1Updater) Run(ctx context.Context, start, end time.Time) (Report, error) {
	months := monthsInWindow(start, end)
	saved := 0

	for _, m := range months {
		if err := ctx.Err(); err != nil {
			return Report{}, err
		}

		resp, err := u.provider.FetchMonth(ctx, m.Format("20060102"))
		if err != nil {
			return Report{OK: false, Message: fmt.Sprintf("month %s: %v", m.Format("2006-01"), err)},
				fmt.Errorf("stage: s1 fetch %s: %w", m.Format("2006-01"), err)
		}

		decoded := resp.Decode()
		if err := u.saver.Save(ctx, decoded.Regions, decoded.Venues, decoded.Cups); err != nil {
			return Report{OK: false, Message: fmt.Sprintf("month %s: save failed: %v", m.Format("2006-01"), err)},
				fmt.Errorf("stage: s1 save %s: %w", m.Format("2006-01"), err)
		}
		saved += len(decoded.Cups)
	}

	recordItems(1, saved, 0)
	return Report{OK: true, Message: fmt.Sprintf("%d cups saved across %d months", saved, len(months)), Count: saved}, nil
}

// monthsInWindow returns the 1st of every month touched by [start,end].
func monthsInWindow(start, end time.Time) []time.Time {
	var out []time.Time
	cur := time.Date(start.Year(), start.Month(), 1, 0, 0, 0, 0, start.Location())
	last := time.Date(end.Year(), end.Month(), 1, 0, 0, 0, 0, end.Location())
	for !cur.After(last) {
		out = append(out, cur)
		cur = cur.AddDate(0, 1, 0)
	}
	return out
}
