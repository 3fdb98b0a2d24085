package domain

import (
	_ "embed"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
)

//go:embed states.csv
var statesCSV string

// State is one row of the state and marine-zone table.
type State struct {
	Name string
	FIPS int
	Abbr string
}

// StateTable maps between state names and postal abbreviations. It is
// read-only after construction.
type StateTable struct {
	byName map[string]State
	byAbbr map[string]State
}

// DefaultStates returns the table of US states, territories, and the marine
// zones used by the Storm Events database.
func DefaultStates() *StateTable {
	t, err := ParseStateTable(strings.NewReader(statesCSV))
	if err != nil {
		panic(fmt.Sprintf("embedded state table: %v", err))
	}
	return t
}

// ParseStateTable reads "name,fips,abbr" rows with a header line.
func ParseStateTable(r io.Reader) (*StateTable, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	cr.FieldsPerRecord = 3

	rows, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: state table: %v", ErrFormat, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: state table is empty", ErrFormat)
	}

	t := &StateTable{
		byName: make(map[string]State, len(rows)),
		byAbbr: make(map[string]State, len(rows)),
	}
	for _, row := range rows[1:] {
		fips, err := strconv.Atoi(strings.TrimSpace(row[1]))
		if err != nil {
			return nil, fmt.Errorf("%w: state %q fips: %v", ErrFormat, row[0], err)
		}
		s := State{Name: strings.TrimSpace(row[0]), FIPS: fips, Abbr: strings.TrimSpace(row[2])}
		t.byName[strings.ToUpper(s.Name)] = s
		t.byAbbr[strings.ToUpper(s.Abbr)] = s
	}
	return t, nil
}

// Abbreviation returns the postal code for a state name, ignoring case.
// Unknown names are returned unchanged with ok false.
func (t *StateTable) Abbreviation(name string) (abbr string, ok bool) {
	s, ok := t.byName[strings.ToUpper(strings.TrimSpace(name))]
	if !ok {
		return name, false
	}
	return s.Abbr, true
}

// Name returns the full name for a postal code, ignoring case.
func (t *StateTable) Name(abbr string) (string, bool) {
	s, ok := t.byAbbr[strings.ToUpper(strings.TrimSpace(abbr))]
	return s.Name, ok
}

// Len returns the number of entries.
func (t *StateTable) Len() int {
	return len(t.byName)
}
