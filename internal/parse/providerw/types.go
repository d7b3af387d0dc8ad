// Package providerw decodes Provider-W's JSON REST responses (spec.md §4.C,
// §6).
package providerw

// MonthResponse is the decoded body of
// GET /v1/keirin/cups?date=YYYYMM01&fields=month,venues,regions&pfm=web
type MonthResponse struct {
	Month MonthPayload `json:"month"`
}

type MonthPayload struct {
	Cups    []CupJSON    `json:"cups"`
	Venues  []VenueJSON  `json:"venues"`
	Regions []RegionJSON `json:"regions"`
}

type RegionJSON struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type VenueJSON struct {
	ID                int64   `json:"id"`
	Name              string  `json:"name"`
	Slug              string  `json:"slug"`
	RegionID          int64   `json:"regionId"`
	TrackDistance     float64 `json:"trackDistance"`
	BankFeature       string  `json:"bankFeature"`
	BestRecordPlayer  string  `json:"bestRecordPlayer"`
	BestRecordSeconds float64 `json:"bestRecordSeconds"`
	BestRecordDate    string  `json:"bestRecordDate"`
}

type CupJSON struct {
	ID                 string   `json:"id"`
	Name               string   `json:"name"`
	StartDate          string   `json:"startDate"`
	EndDate            string   `json:"endDate"`
	Duration           int      `json:"duration"`
	Grade              string   `json:"grade"`
	VenueID            int64    `json:"venueId"`
	Labels             []string `json:"labels"`
	PlayersUnfixedFlag bool     `json:"playersUnfixedFlag"`
}

// CupDetailResponse is the decoded body of
// GET /v1/keirin/cups/{cup_id}?fields=cup,schedules,races&pfm=web
type CupDetailResponse struct {
	Cup       CupJSON        `json:"cup"`
	Schedules []ScheduleJSON `json:"schedules"`
	Races     []RaceRefJSON  `json:"races"`
}

// ScheduleJSON's position in the parent Schedules slice is the
// 0-based schedule_index convention this implementation fixes (SPEC_FULL.md,
// resolving spec.md §9's open question); the upstream "id" field is a
// separate identifier used only as a local join key.
type ScheduleJSON struct {
	ID   string `json:"id"`
	Date string `json:"date"`
}

type RaceRefJSON struct {
	ScheduleID string `json:"scheduleId"`
	Number     int    `json:"number"`
}

// RaceDetailResponse is the decoded body of
// GET /v1/keirin/cups/{cup_id}/schedules/{schedule_index}/races/{number}?fields=race,entries,players,records,linePrediction&pfm=web
type RaceDetailResponse struct {
	Race           RaceJSON             `json:"race"`
	Entries        []EntryJSON          `json:"entries"`
	Players        []PlayerJSON         `json:"players"`
	Records        []PlayerRecordJSON   `json:"records"`
	LinePrediction []LinePredictionJSON `json:"linePrediction"`
}

type RaceJSON struct {
	Number    int    `json:"number"`
	Status    int    `json:"status"`
	StartTime string `json:"startTime"`
}

type EntryJSON struct {
	Frame      int     `json:"frame"`
	PlayerID   string  `json:"playerId"`
	Points     float64 `json:"points"`
	PlaceRate1 float64 `json:"placeRate1"`
	PlaceRate2 float64 `json:"placeRate2"`
	PlaceRate3 float64 `json:"placeRate3"`
}

type PlayerJSON struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type PlayerRecordJSON struct {
	PlayerID    string  `json:"playerId"`
	TotalStarts int     `json:"totalStarts"`
	TotalWins   int     `json:"totalWins"`
	PlaceRate   float64 `json:"placeRate"`
}

type LinePredictionJSON struct {
	Frame        int `json:"frame"`
	LineGroup    int `json:"lineGroup"`
	LinePosition int `json:"linePosition"`
}

// OddsResponse is the decoded body of
// GET .../races/{number}/odds?fields=odds&pfm=web
type OddsResponse struct {
	Odds OddsPayload `json:"odds"`
}

// OddsPayload carries one array per keirin bet type (spec.md §3).
type OddsPayload struct {
	Trifecta        []OddsEntryJSON `json:"trifecta"`
	Trio            []OddsEntryJSON `json:"trio"`
	Exacta          []OddsEntryJSON `json:"exacta"`
	Quinella        []OddsEntryJSON `json:"quinella"`
	QuinellaPlace   []OddsEntryJSON `json:"quinellaPlace"`
	BracketQuinella []OddsEntryJSON `json:"bracketQuinella"`
	BracketExacta   []OddsEntryJSON `json:"bracketExacta"`
	Win             []OddsEntryJSON `json:"win"`
}

type OddsEntryJSON struct {
	Combination string  `json:"combination"`
	Value       float64 `json:"odds"`
	Min         float64 `json:"min"`
	Max         float64 `json:"max"`
	Popularity  int     `json:"popularity"`
	IsAbsent    bool    `json:"isAbsent"`
}
