package stage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sawpanic/keirin-ingest/internal/extract"
	"github.com/sawpanic/keirin-ingest/internal/fetch"
	"github.com/sawpanic/keirin-ingest/internal/httpapi"
	"github.com/sawpanic/keirin-ingest/internal/model"
	"github.com/sawpanic/keirin-ingest/internal/save"
	"github.com/sawpanic/keirin-ingest/internal/store"
)

// S3Updater fetches race detail in parallel, worker pool size
// step3_max_workers (spec.md §4.G).
type S3Updater struct {
	extractor *extract.S3Extractor
	fetcher   *fetch.S3Fetcher
	saver     *save.S3Saver
	gw        *store.Gateway
	workers   int
}

func NewS3Updater(extractor *extract.S3Extractor, fetcher *fetch.S3Fetcher, saver *save.S3Saver, gw *store.Gateway, workers int) *S3Updater {
	return &S3Updater{extractor: extractor, fetcher: fetcher, saver: saver, gw: gw, workers: workers}
}

func (u *S3Updater) Run(ctx context.Context, start, end time.Time, cupFilter string, force bool) (Report, error) {
	tuples, err := u.extractor.Select(ctx, start, end, cupFilter, force)
	if err != nil {
		return Report{}, fmt.Errorf("stage: s3 select: %w", err)
	}

	results := runPool(ctx, u.workers, tuples, func(ctx context.Context, t extract.RaceTuple) error {
		key := model.RaceKey{CupID: t.CupID, ScheduleIndex: t.ScheduleIndex, Number: t.Number}
		decoded, raceID, err := u.fetcher.Fetch(ctx, key)
		if errors.Is(err, httpapi.ErrNotYetPublished) {
			return setStepStatus(ctx, u.gw, raceID, 3, model.StepPending)
		}
		if err != nil {
			return fmt.Errorf("race %s: %w", key, err)
		}
		if err := u.saver.Save(ctx, raceID, decoded); err != nil {
			return fmt.Errorf("race %s: %w", key, err)
		}
		return nil
	})

	ok, failed := summarize(results)
	recordItems(3, ok, failed)
	return Report{
		OK:      failed == 0,
		Message: fmt.Sprintf("%d/%d races processed, %d failed", ok, len(tuples), failed),
		Count:   ok,
	}, nil
}
