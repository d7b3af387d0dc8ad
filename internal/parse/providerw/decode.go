package providerw

import (
	"fmt"
	"time"

	"github.com/sawpanic/keirin-ingest/internal/model"
	"github.com/sawpanic/keirin-ingest/internal/parse"
)

const (
	dateLayout     = "2006-01-02"
	dateTimeLayout = time.RFC3339
)

func parseDate(s string) (time.Time, *parse.Issue) {
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return time.Time{}, &parse.Issue{Field: "date", Detail: err.Error()}
	}
	return t, nil
}

func parseDateTime(s string) (time.Time, *parse.Issue) {
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(dateTimeLayout, s)
	if err != nil {
		return time.Time{}, &parse.Issue{Field: "startTime", Detail: err.Error()}
	}
	return t, nil
}

// DecodedMonth is the S1 decode result: regions and venues are independent
// of cups and are returned alongside them (spec.md §4.E, S1 has no
// Extractor — this decoder is the whole of S1's transformation step).
type DecodedMonth struct {
	Regions []model.Region
	Venues  []model.Venue
	Cups    []model.Cup
	Issues  []parse.Issue
}

// Decode converts a MonthResponse into store-ready entities.
func (r MonthResponse) Decode() DecodedMonth {
	var out DecodedMonth
	for _, rg := range r.Month.Regions {
		out.Regions = append(out.Regions, model.Region{RegionID: rg.ID, Name: rg.Name})
	}
	for _, v := range r.Month.Venues {
		bestDate, issue := parseDate(v.BestRecordDate)
		if issue != nil {
			out.Issues = append(out.Issues, parse.Issue{Field: fmt.Sprintf("venue[%d].bestRecordDate", v.ID), Detail: issue.Detail})
		}
		out.Venues = append(out.Venues, model.Venue{
			VenueID:           v.ID,
			Name:              v.Name,
			Slug:              v.Slug,
			RegionID:          v.RegionID,
			TrackDistance:     v.TrackDistance,
			BankFeature:       v.BankFeature,
			BestRecordPlayer:  v.BestRecordPlayer,
			BestRecordSeconds: v.BestRecordSeconds,
			BestRecordDate:    bestDate,
		})
	}
	for _, cj := range r.Month.Cups {
		cup, issues := decodeCup(cj)
		out.Cups = append(out.Cups, cup)
		out.Issues = append(out.Issues, issues...)
	}
	return out
}

func decodeCup(cj CupJSON) (model.Cup, []parse.Issue) {
	var issues []parse.Issue
	start, issue := parseDate(cj.StartDate)
	if issue != nil {
		issues = append(issues, parse.Issue{Field: fmt.Sprintf("cup[%s].startDate", cj.ID), Detail: issue.Detail})
	}
	end, issue := parseDate(cj.EndDate)
	if issue != nil {
		issues = append(issues, parse.Issue{Field: fmt.Sprintf("cup[%s].endDate", cj.ID), Detail: issue.Detail})
	}
	return model.Cup{
		CupID:              cj.ID,
		Name:               cj.Name,
		StartDate:          start,
		EndDate:            end,
		Duration:           cj.Duration,
		Grade:              cj.Grade,
		VenueID:            cj.VenueID,
		Labels:             cj.Labels,
		PlayersUnfixedFlag: cj.PlayersUnfixedFlag,
	}, issues
}

// DecodedCupDetail is the S2 decode result for one cup: one Schedule per
// entry in the upstream array (its slice position is the 0-based
// schedule_index, spec.md §9) and one RaceKey per race reference, which
// S2Saver inserts as a race row under the matching schedule.
type DecodedCupDetail struct {
	Schedules []model.Schedule
	RaceKeys  []model.RaceKey
	Issues    []parse.Issue
}

// Decode converts a CupDetailResponse into store-ready entities. cupID is
// passed separately because some upstream payloads omit the cup echo when
// queried with a narrow fields= selection.
func (r CupDetailResponse) Decode(cupID string) DecodedCupDetail {
	var out DecodedCupDetail
	scheduleIDToIndex := make(map[string]int, len(r.Schedules))
	for i, sj := range r.Schedules {
		date, issue := parseDate(sj.Date)
		if issue != nil {
			out.Issues = append(out.Issues, parse.Issue{Field: fmt.Sprintf("schedule[%d].date", i), Detail: issue.Detail})
		}
		out.Schedules = append(out.Schedules, model.Schedule{
			ScheduleID:    sj.ID,
			CupID:         cupID,
			Date:          date,
			ScheduleIndex: i,
		})
		scheduleIDToIndex[sj.ID] = i
	}
	for _, rj := range r.Races {
		idx, ok := scheduleIDToIndex[rj.ScheduleID]
		if !ok {
			out.Issues = append(out.Issues, parse.Issue{Field: "race.scheduleId", Detail: fmt.Sprintf("unknown schedule id %q for race %d", rj.ScheduleID, rj.Number)})
			continue
		}
		out.RaceKeys = append(out.RaceKeys, model.RaceKey{CupID: cupID, ScheduleIndex: idx, Number: rj.Number})
	}
	return out
}

// DecodedRace is the S3 decode result for one race.
type DecodedRace struct {
	Status          model.RaceStatusOrdinal
	StartTime       time.Time
	Entries         []model.Entry
	PlayerRecords   []model.PlayerRecord
	LinePredictions []model.LinePrediction
	Issues          []parse.Issue
}

// Decode converts a RaceDetailResponse into store-ready entities. raceID is
// the store-assigned identifier resolved by the caller before decoding.
func (r RaceDetailResponse) Decode(raceID int64) DecodedRace {
	var out DecodedRace
	out.Status = model.RaceStatusOrdinal(r.Race.Status)
	if out.Status == 0 {
		out.Status = model.RaceStatusScheduled
	}
	startTime, issue := parseDateTime(r.Race.StartTime)
	if issue != nil {
		out.Issues = append(out.Issues, *issue)
	}
	out.StartTime = startTime

	names := make(map[string]string, len(r.Players))
	for _, p := range r.Players {
		names[p.ID] = p.Name
	}

	for _, ej := range r.Entries {
		name, ok := names[ej.PlayerID]
		if !ok {
			out.Issues = append(out.Issues, parse.Issue{Field: "entry.playerId", Detail: fmt.Sprintf("no player name for %q", ej.PlayerID)})
		}
		out.Entries = append(out.Entries, model.Entry{
			RaceID:     raceID,
			Frame:      ej.Frame,
			PlayerID:   ej.PlayerID,
			Name:       name,
			Points:     ej.Points,
			PlaceRate1: ej.PlaceRate1,
			PlaceRate2: ej.PlaceRate2,
			PlaceRate3: ej.PlaceRate3,
		})
	}

	for _, rj := range r.Records {
		out.PlayerRecords = append(out.PlayerRecords, model.PlayerRecord{
			PlayerID:    rj.PlayerID,
			Name:        names[rj.PlayerID],
			TotalStarts: rj.TotalStarts,
			TotalWins:   rj.TotalWins,
			PlaceRate:   rj.PlaceRate,
		})
	}

	for _, lj := range r.LinePrediction {
		out.LinePredictions = append(out.LinePredictions, model.LinePrediction{
			RaceID:       raceID,
			Frame:        lj.Frame,
			LineGroup:    lj.LineGroup,
			LinePosition: lj.LinePosition,
		})
	}

	return out
}

// oddsKindFields maps each OddsPayload field to its model.OddsKind, in the
// fixed order spec.md §3 enumerates the eight bet types.
func oddsKindFields(p OddsPayload) []struct {
	kind model.OddsKind
	rows []OddsEntryJSON
} {
	return []struct {
		kind model.OddsKind
		rows []OddsEntryJSON
	}{
		{model.OddsTrifecta, p.Trifecta},
		{model.OddsTrio, p.Trio},
		{model.OddsExacta, p.Exacta},
		{model.OddsQuinella, p.Quinella},
		{model.OddsQuinellaPlace, p.QuinellaPlace},
		{model.OddsBracketQuinella, p.BracketQuinella},
		{model.OddsBracketExacta, p.BracketExacta},
		{model.OddsWin, p.Win},
	}
}

// Decode converts an OddsResponse into store-ready rows.
func (r OddsResponse) Decode(raceID int64) []model.Odds {
	var out []model.Odds
	for _, group := range oddsKindFields(r.Odds) {
		for _, e := range group.rows {
			out = append(out, model.Odds{
				RaceID:         raceID,
				Kind:           group.kind,
				CombinationKey: e.Combination,
				Value:          e.Value,
				Min:            e.Min,
				Max:            e.Max,
				Popularity:     e.Popularity,
				IsAbsent:       e.IsAbsent,
			})
		}
	}
	return out
}
