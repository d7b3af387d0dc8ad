// Package model defines the relational entities ingested by the keirin
// pipeline (spec.md §3).
package model

import "time"

// RaceStatusOrdinal mirrors the upstream provider's numeric race state.
type RaceStatusOrdinal int

const (
	RaceStatusScheduled RaceStatusOrdinal = 1
	RaceStatusRunning   RaceStatusOrdinal = 2
	RaceStatusFinished  RaceStatusOrdinal = 3
	RaceStatusCancelled RaceStatusOrdinal = 9
)

type Region struct {
	RegionID int64
	Name     string
}

type Venue struct {
	VenueID           int64
	Name              string
	Slug              string
	RegionID          int64
	TrackDistance     float64
	BankFeature       string
	BestRecordPlayer  string
	BestRecordSeconds float64
	BestRecordDate    time.Time
}

type Cup struct {
	CupID              string
	Name               string
	StartDate          time.Time
	EndDate            time.Time
	Duration           int
	Grade              string
	VenueID            int64
	Labels             []string
	PlayersUnfixedFlag bool
}

// Schedule represents one day of a Cup. ScheduleIndex is the 0-based
// ordinal position of this schedule within the cup's upstream schedules
// array — the convention is set where the index is assigned, on
// internal/parse/providerw's ScheduleJSON and CupDetailResponse.Decode.
type Schedule struct {
	ScheduleID    string
	CupID         string
	Date          time.Time
	ScheduleIndex int
}

type Race struct {
	RaceID     int64
	CupID      string
	ScheduleID string
	Number     int
	Status     RaceStatusOrdinal
	StartTime  time.Time
}

type Entry struct {
	RaceID     int64
	Frame      int
	PlayerID   string
	Name       string
	Points     float64
	PlaceRate1 float64
	PlaceRate2 float64
	PlaceRate3 float64
}

// PlayerRecord is lifetime stats for a player, upserted keyed by PlayerID.
// Supplemented from original_source/repositories/odds_repository.py.
type PlayerRecord struct {
	PlayerID    string
	Name        string
	TotalStarts int
	TotalWins   int
	PlaceRate   float64
}

// LinePrediction groups entries into coordinated line formations.
// Supplemented from original_source/api/winticket/step3_api.py.
type LinePrediction struct {
	RaceID       int64
	Frame        int
	LineGroup    int
	LinePosition int
}

// OddsKind enumerates the eight keirin bet types (spec.md §3).
type OddsKind string

const (
	OddsTrifecta        OddsKind = "trifecta"
	OddsTrio            OddsKind = "trio"
	OddsExacta          OddsKind = "exacta"
	OddsQuinella        OddsKind = "quinella"
	OddsQuinellaPlace   OddsKind = "quinella_place"
	OddsBracketQuinella OddsKind = "bracket_quinella"
	OddsBracketExacta   OddsKind = "bracket_exacta"
	OddsWin             OddsKind = "win"
)

// Odds is one row of one bet-type table for one race.
type Odds struct {
	RaceID         int64
	Kind           OddsKind
	CombinationKey string
	Value          float64
	Min            float64
	Max            float64
	Popularity     int
	IsAbsent       bool
}

type Result struct {
	RaceID   int64
	Rank     int
	Frame    int
	PlayerID string
}

type Payout struct {
	RaceID      int64
	TicketType  OddsKind
	Combination string
	AmountYen   int64
	Popularity  int
}

type LapPosition struct {
	RaceID     int64
	Section    string
	Frame      int
	PlayerName string
	X          int
	Y          int
}

// StepState is the per-stage ledger state machine (spec.md §4.G).
type StepState string

const (
	StepNull       StepState = ""
	StepPending    StepState = "pending"
	StepProcessing StepState = "processing"
	StepCompleted  StepState = "completed"
	StepError      StepState = "error"
)

// RaceStatus is the per-race ledger row (spec.md §3, §4.J).
type RaceStatus struct {
	RaceID    int64
	Step1     StepState
	Step2     StepState
	Step3     StepState
	Step4     StepState
	Step5     StepState
	UpdatedAt time.Time
}

// OddsStatus is an append-only event log row; its presence on a finished
// race is the sole post-finish re-fetch trigger for S4 (spec.md §3, §4.E).
type OddsStatus struct {
	RaceID       int64
	FetchedAt    time.Time
	IsFinal      bool
	PayoutStatus string
}
