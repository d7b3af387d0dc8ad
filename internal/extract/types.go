// Package extract selects the scope of work for each Stage Updater: which
// cups or races a run should touch, decided entirely by store queries
// against the race_status/odds_status ledger (spec.md §4.E). It never calls
// an upstream provider; internal/fetch does that once scope is known.
package extract

import "github.com/sawpanic/keirin-ingest/internal/model"

// RaceTuple identifies one race the way S3/S4/S5 need to look it up:
// join path schedules -> races -> cups -> race_status (spec.md §4.E). Status
// is only populated by extractors whose query selects it (currently
// S4Extractor, which needs it to tell a post-finish re-fetch from a normal
// one).
type RaceTuple struct {
	RaceID        int64                   `db:"race_id"`
	CupID         string                  `db:"cup_id"`
	ScheduleID    string                  `db:"schedule_id"`
	ScheduleIndex int                     `db:"schedule_index"`
	Number        int                     `db:"number"`
	VenueID       int64                   `db:"venue_id"`
	Status        model.RaceStatusOrdinal `db:"status"`
}
