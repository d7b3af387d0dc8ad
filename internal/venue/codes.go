// Package venue resolves store venue_ids to the two-digit codes Provider-Y
// encodes in its result-detail URL path, closing the open question in
// spec.md §9: "provider-Y venue-code mapping is source-incomplete".
package venue

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ErrUnresolved is returned when no Provider-Y code is known for a venue_id.
// No caller substitutes a placeholder: internal/extract.S5Extractor leaves
// such races out of scope and reports them as skipped, and
// internal/fetch.S5Fetcher returns this error for the race, unlike the
// original implementation's "00" fallback (original_source/api/yenjoy/step5_api.py:206).
type ErrUnresolved struct {
	VenueID int64
}

func (e *ErrUnresolved) Error() string {
	return fmt.Sprintf("venue: no provider-y code for venue_id %d", e.VenueID)
}

// CodeTable maps store venue_id to Provider-Y's venue code.
type CodeTable struct {
	codes map[int64]string
}

// NewCodeTable builds a CodeTable from a venue_id -> code mapping, typically
// loaded from a static configuration file maintained alongside the S1
// region/venue ingestion (spec.md §3's Venue entity is the join key).
func NewCodeTable(codes map[int64]string) *CodeTable {
	t := &CodeTable{codes: make(map[int64]string, len(codes))}
	for k, v := range codes {
		t.codes[k] = v
	}
	return t
}

// LoadCodeTable reads the venue_id -> Provider-Y code mapping from a YAML
// document at path (a flat map, e.g. `123: "03"`). This mapping changes
// only when a new venue opens, so it is maintained as a static file rather
// than derived from any upstream endpoint.
func LoadCodeTable(path string) (*CodeTable, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("venue: read %s: %w", path, err)
	}
	var codes map[int64]string
	if err := yaml.Unmarshal(data, &codes); err != nil {
		return nil, fmt.Errorf("venue: parse %s: %w", path, err)
	}
	return NewCodeTable(codes), nil
}

// Resolve returns the Provider-Y code for venueID, or ErrUnresolved.
func (t *CodeTable) Resolve(venueID int64) (string, error) {
	code, ok := t.codes[venueID]
	if !ok {
		return "", &ErrUnresolved{VenueID: venueID}
	}
	return code, nil
}
