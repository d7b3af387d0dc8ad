package providerw

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMonthResponse_Decode(t *testing.T) {
	r := MonthResponse{Month: MonthPayload{
		Regions: []RegionJSON{{ID: 1, Name: "Kanto"}},
		Venues:  []VenueJSON{{ID: 10, Name: "Kofu", Slug: "kofu", RegionID: 1, BestRecordDate: "2019-05-01"}},
		Cups: []CupJSON{
			{ID: "20240901", Name: "Opening Cup", StartDate: "2024-09-01", EndDate: "2024-09-03", VenueID: 10},
			{ID: "bad-dates", StartDate: "not-a-date"},
		},
	}}

	out := r.Decode()
	require.Len(t, out.Regions, 1)
	require.Len(t, out.Venues, 1)
	require.Len(t, out.Cups, 2)
	assert.Equal(t, int64(1), out.Regions[0].RegionID)
	assert.False(t, out.Venues[0].BestRecordDate.IsZero())
	assert.NotEmpty(t, out.Issues, "bad cup dates should surface as issues, not fail decode")
	assert.Equal(t, "20240901", out.Cups[0].CupID)
	assert.Equal(t, "bad-dates", out.Cups[1].CupID)
}

func TestCupDetailResponse_Decode_AssignsZeroBasedScheduleIndex(t *testing.T) {
	r := CupDetailResponse{
		Schedules: []ScheduleJSON{
			{ID: "sched-a", Date: "2024-09-01"},
			{ID: "sched-b", Date: "2024-09-02"},
		},
		Races: []RaceRefJSON{
			{ScheduleID: "sched-a", Number: 7},
			{ScheduleID: "sched-b", Number: 1},
			{ScheduleID: "unknown-sched", Number: 3},
		},
	}

	out := r.Decode("20240901")
	require.Len(t, out.Schedules, 2)
	assert.Equal(t, 0, out.Schedules[0].ScheduleIndex)
	assert.Equal(t, 1, out.Schedules[1].ScheduleIndex)

	require.Len(t, out.RaceKeys, 2)
	assert.Equal(t, 0, out.RaceKeys[0].ScheduleIndex)
	assert.Equal(t, 7, out.RaceKeys[0].Number)
	assert.Equal(t, 1, out.RaceKeys[1].ScheduleIndex)
	assert.NotEmpty(t, out.Issues, "unresolvable schedule id should surface as an issue")
}

func TestRaceDetailResponse_Decode_JoinsPlayerNames(t *testing.T) {
	r := RaceDetailResponse{
		Race:    RaceJSON{Number: 7, Status: 3, StartTime: "2024-09-01T10:30:00Z"},
		Players: []PlayerJSON{{ID: "p1", Name: "Taro"}},
		Entries: []EntryJSON{
			{Frame: 1, PlayerID: "p1", Points: 80.5},
			{Frame: 2, PlayerID: "p2", Points: 75.0},
		},
		Records:        []PlayerRecordJSON{{PlayerID: "p1", TotalStarts: 100, TotalWins: 10}},
		LinePrediction: []LinePredictionJSON{{Frame: 1, LineGroup: 1, LinePosition: 1}},
	}

	out := r.Decode(42)
	require.Len(t, out.Entries, 2)
	assert.Equal(t, "Taro", out.Entries[0].Name)
	assert.Empty(t, out.Entries[1].Name)
	assert.NotEmpty(t, out.Issues, "entry with no matching player should surface as an issue")
	require.Len(t, out.PlayerRecords, 1)
	assert.Equal(t, "Taro", out.PlayerRecords[0].Name)
	assert.EqualValues(t, 3, out.Status)
}

func TestOddsResponse_Decode_FlattensAllKinds(t *testing.T) {
	r := OddsResponse{Odds: OddsPayload{
		Trifecta: []OddsEntryJSON{{Combination: "1-2-3", Value: 12.3}},
		Win:      []OddsEntryJSON{{Combination: "1", Value: 2.1, IsAbsent: true}},
	}}

	out := r.Decode(42)
	require.Len(t, out, 2)
	assert.Equal(t, "trifecta", string(out[0].Kind))
	assert.Equal(t, "win", string(out[1].Kind))
	assert.True(t, out[1].IsAbsent)
}
