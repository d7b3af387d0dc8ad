package providery

import "github.com/sawpanic/keirin-ingest/internal/model"

// ResultDetail is everything recoverable from one Provider-Y result page:
// the finish order, the payout table, and the lap-by-lap bike positions.
// Any of the three slices may be shorter than expected; see Issues.
type ResultDetail struct {
	Results      []model.Result
	Payouts      []model.Payout
	LapPositions []model.LapPosition
	Issues       []string
}
