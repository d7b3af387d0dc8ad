package stage

import (
	"context"
	"fmt"
	"time"

	"github.com/sawpanic/keirin-ingest/internal/extract"
	"github.com/sawpanic/keirin-ingest/internal/fetch"
	"github.com/sawpanic/keirin-ingest/internal/model"
	"github.com/sawpanic/keirin-ingest/internal/save"
)

// S5Updater fetches Provider-Y results in parallel, worker pool size
// max_workers, under Provider-Y's own stricter pacing (configured on the
// shared ratelimit.Limiter, not here; spec.md §4.G).
type S5Updater struct {
	extractor *extract.S5Extractor
	fetcher   *fetch.S5Fetcher
	saver     *save.S5Saver
	workers   int
}

func NewS5Updater(extractor *extract.S5Extractor, fetcher *fetch.S5Fetcher, saver *save.S5Saver, workers int) *S5Updater {
	return &S5Updater{extractor: extractor, fetcher: fetcher, saver: saver, workers: workers}
}

func (u *S5Updater) Run(ctx context.Context, start, end time.Time, cupFilter string, force bool) (Report, error) {
	tuples, skipped, err := u.extractor.Select(ctx, start, end, cupFilter, force)
	if err != nil {
		return Report{}, fmt.Errorf("stage: s5 select: %w", err)
	}

	results := runPool(ctx, u.workers, tuples, func(ctx context.Context, t extract.RaceTuple) error {
		key := model.RaceKey{CupID: t.CupID, ScheduleIndex: t.ScheduleIndex, Number: t.Number}
		detail, raceID, err := u.fetcher.Fetch(ctx, key)
		if err != nil {
			return fmt.Errorf("race %s: %w", key, err)
		}
		if err := u.saver.Save(ctx, raceID, detail); err != nil {
			return fmt.Errorf("race %s: %w", key, err)
		}
		return nil
	})

	ok, failed := summarize(results)
	recordItems(5, ok, failed)
	msg := fmt.Sprintf("%d/%d races processed, %d failed", ok, len(tuples), failed)
	if len(skipped) > 0 {
		msg = fmt.Sprintf("%s (%d skipped: unresolved venue)", msg, len(skipped))
	}
	return Report{OK: failed == 0, Message: msg, Count: ok}, nil
}
