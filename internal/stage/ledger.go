package stage

import (
	"context"
	"fmt"

	"github.com/sawpanic/keirin-ingest/internal/model"
	"github.com/sawpanic/keirin-ingest/internal/store"
)

// setStepStatus records a step's state directly, bypassing the Saver. It is
// used for the 404-means-not-yet-published case (spec.md §4.G), where
// nothing was fetched and there is nothing for a Saver to write.
func setStepStatus(ctx context.Context, gw *store.Gateway, raceID int64, step int, state model.StepState) error {
	col := fmt.Sprintf("step%d_status", step)
	q := fmt.Sprintf(`UPDATE race_status SET %s = $1, updated_at = now() WHERE race_id = $2`, col)
	_, err := gw.Exec(ctx, q, state, raceID)
	return err
}
