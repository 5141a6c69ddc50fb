package dataset

import "github.com/rotisserie/eris"

// Level is the geographic granularity of a source file.
type Level string

const (
	LevelCountry Level = "country"
	LevelState   Level = "state"
	LevelCounty  Level = "county"
)

// FIPSLen is the expected FIPS code length at this level: 0 for the whole
// country, 2 for states, 5 for counties.
func (l Level) FIPSLen() int {
	switch l {
	case LevelState:
		return 2
	case LevelCounty:
		return 5
	default:
		return 0
	}
}

// ParseLevel validates a level name from a flag or query parameter.
func ParseLevel(s string) (Level, error) {
	switch Level(s) {
	case LevelCountry, LevelState, LevelCounty:
		return Level(s), nil
	}
	return "", eris.Errorf("dataset: unknown level %q (want country, state, or county)", s)
}
