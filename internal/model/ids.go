package model

import (
	"fmt"
	"regexp"
	"strconv"
)

// raceKeyPattern matches the intermediate "{cup_id}_{schedule_index}_{number}"
// encoding some upstream payloads use for a race, distinct from the store's
// own RaceID (spec.md §9 "Two IDs for race").
var raceKeyPattern = regexp.MustCompile(`^(.+)_(\d+)_(\d+)$`)

// RaceKey is the parsed form of the underscore-joined intermediate race
// identifier.
type RaceKey struct {
	CupID         string
	ScheduleIndex int
	Number        int
}

// ParseRaceKey parses "{cup_id}_{schedule_index}_{number}" into its parts.
// It is a pure function: no store access, no network calls.
func ParseRaceKey(s string) (RaceKey, error) {
	m := raceKeyPattern.FindStringSubmatch(s)
	if m == nil {
		return RaceKey{}, fmt.Errorf("model: %q is not a valid race key", s)
	}
	idx, err := strconv.Atoi(m[2])
	if err != nil {
		return RaceKey{}, fmt.Errorf("model: invalid schedule index in %q: %w", s, err)
	}
	num, err := strconv.Atoi(m[3])
	if err != nil {
		return RaceKey{}, fmt.Errorf("model: invalid race number in %q: %w", s, err)
	}
	return RaceKey{CupID: m[1], ScheduleIndex: idx, Number: num}, nil
}

// String re-encodes a RaceKey in the canonical underscore-joined form.
func (k RaceKey) String() string {
	return fmt.Sprintf("%s_%d_%d", k.CupID, k.ScheduleIndex, k.Number)
}
