package stage

import (
	"context"
	"fmt"
	"time"

	"github.com/sawpanic/keirin-ingest/internal/extract"
	"github.com/sawpanic/keirin-ingest/internal/fetch"
	"github.com/sawpanic/keirin-ingest/internal/save"
)

// S2Updater fetches cup detail for each cup the S2Extractor selects.
// Concurrency defaults to sequential but can be raised (spec.md §4.G).
type S2Updater struct {
	extractor *extract.S2Extractor
	fetcher   *fetch.S2Fetcher
	saver     *save.S2Saver
	workers   int
}

func NewS2Updater(extractor *extract.S2Extractor, fetcher *fetch.S2Fetcher, saver *save.S2Saver, workers int) *S2Updater {
	return &S2Updater{extractor: extractor, fetcher: fetcher, saver: saver, workers: workers}
}

func (u *S2Updater) Run(ctx context.Context, start, end time.Time, cupFilter string, force bool) (Report, error) {
	cupIDs, err := u.extractor.Select(ctx, start, end, cupFilter, force)
	if err != nil {
		return Report{}, fmt.Errorf("stage: s2 select: %w", err)
	}

	schedulesSaved, racesSaved := 0, 0
	var mu muCounter
	results := runPool(ctx, u.workers, cupIDs, func(ctx context.Context, cupID string) error {
		decoded, err := u.fetcher.Fetch(ctx, cupID)
		if err != nil {
			return fmt.Errorf("cup %s: %w", cupID, err)
		}
		counts, err := u.saver.Save(ctx, decoded.Schedules, decoded.RaceKeys)
		if err != nil {
			return fmt.Errorf("cup %s: %w", cupID, err)
		}
		mu.add(func() {
			schedulesSaved += counts.SchedulesSaved
			racesSaved += counts.RacesSaved
		})
		return nil
	})

	ok, failed := summarize(results)
	recordItems(2, ok, failed)
	msg := fmt.Sprintf("%d/%d cups ok, %d schedules and %d races saved", ok, len(cupIDs), schedulesSaved, racesSaved)
	if failed > 0 {
		msg = fmt.Sprintf("%s (%d cups failed)", msg, failed)
	}
	return Report{OK: failed == 0, Message: msg, Count: racesSaved}, nil
}
