package venue

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolve_KnownVenue(t *testing.T) {
	table := NewCodeTable(map[int64]string{42: "07"})
	code, err := table.Resolve(42)
	require.NoError(t, err)
	assert.Equal(t, "07", code)
}

func TestResolve_UnknownVenueRefusesRatherThanDefaulting(t *testing.T) {
	table := NewCodeTable(map[int64]string{42: "07"})
	_, err := table.Resolve(99)
	require.Error(t, err)

	var unresolved *ErrUnresolved
	assert.ErrorAs(t, err, &unresolved)
	assert.Equal(t, int64(99), unresolved.VenueID)
}

func TestLoadCodeTable_ParsesYAMLMapping(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "venue_codes.yaml")
	require.NoError(t, os.WriteFile(path, []byte("10: \"01\"\n20: \"02\"\n"), 0o644))

	table, err := LoadCodeTable(path)
	require.NoError(t, err)

	code, err := table.Resolve(10)
	require.NoError(t, err)
	assert.Equal(t, "01", code)
}

func TestLoadCodeTable_MissingFile(t *testing.T) {
	_, err := LoadCodeTable(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
