package dataset

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeCSV(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

const countyCSV = `date,county,state,fips,cases,deaths
2020-09-27,Autauga,Alabama,01001,100,3
2020-09-28,Autauga,Alabama,01001,110,3
2020-09-27,Baldwin,Alabama,01003,250,7
2020-09-27,Allegheny,Pennsylvania,42003,900,40
`

func TestOpen_SamePathSameInstance(t *testing.T) {
	path := writeCSV(t, "us-counties.csv", countyCSV)

	a, err := Open(path, LevelCounty)
	require.NoError(t, err)
	b, err := Open(path, LevelCounty)
	require.NoError(t, err)

	assert.Same(t, a, b)

	// A different spelling of the same path hits the same entry.
	c, err := Open(filepath.Join(filepath.Dir(path), ".", "us-counties.csv"), LevelCounty)
	require.NoError(t, err)
	assert.Same(t, a, c)
}

func TestOpen_MissingFile(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "nope.csv"), LevelState)
	require.Error(t, err)
}

func TestOpen_FailedLoadNotMemoized(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "us-states.csv")

	// First attempt: schema is missing the deaths column.
	require.NoError(t, os.WriteFile(path, []byte("date,state,fips,cases\n2020-09-27,Alabama,01,100\n"), 0o644))
	_, err := Open(path, LevelState)
	require.ErrorIs(t, err, ErrMissingColumn)

	// Fix the file; the cache must not have pinned the failure.
	require.NoError(t, os.WriteFile(path, []byte("date,state,fips,cases,deaths\n2020-09-27,Alabama,01,100,3\n"), 0o644))
	tbl, err := Open(path, LevelState)
	require.NoError(t, err)
	assert.Equal(t, 1, tbl.Len())
}

func TestParseTable_RequiredColumns(t *testing.T) {
	path := writeCSV(t, "bad.csv", "date,fips,cases\n2020-09-27,01,100\n")
	_, err := Open(path, LevelState)
	assert.ErrorIs(t, err, ErrMissingColumn)
}

func TestParseTable_CountryFileWithoutFIPS(t *testing.T) {
	path := writeCSV(t, "us.csv", "date,cases,deaths\n2020-09-27,7000000,200000\n2020-09-28,7050000,201000\n")
	tbl, err := Open(path, LevelCountry)
	require.NoError(t, err)

	assert.False(t, tbl.HasFIPS())
	// Region filters pass everything when there is no fips column.
	assert.Equal(t, 2, tbl.View().Region("42").Len())
}

func TestParseTable_BlankCountIsZero(t *testing.T) {
	path := writeCSV(t, "us-counties.csv", "date,county,state,fips,cases,deaths\n2020-09-27,Unknown,Alaska,,5,\n")
	tbl, err := Open(path, LevelCounty)
	require.NoError(t, err)

	rows := tbl.View().Rows()
	require.Len(t, rows, 1)
	assert.Equal(t, int64(0), rows[0].Deaths)
	assert.Equal(t, "", rows[0].FIPS)
}

func TestParseTable_BadDate(t *testing.T) {
	path := writeCSV(t, "bad-date.csv", "date,cases,deaths\nSeptember 27,1,0\n")
	_, err := Open(path, LevelCountry)
	require.Error(t, err)
}

func mustDay(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := time.Parse(DateLayout, s)
	require.NoError(t, err)
	return d
}
