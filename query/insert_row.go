package query

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/dot5enko/simple-hash-db/dberr"
	"github.com/dot5enko/simple-hash-db/manager"
	"github.com/dot5enko/simple-hash-db/schema"
	"github.com/dot5enko/simple-hash-db/table"
)

var insertRowPattern = regexp.MustCompile(`(?is)^(INSERT|REPLACE)\s+INTO\s+(` + identifier + `)\s*(?:\(([^()]*)\))?\s*VALUES\s*\((.*)\)$`)

// INSERT|REPLACE INTO name [(columns)] VALUES (literals)
func insertRow(groups []string, db *manager.Manager) (*Result, error) {

	replace := strings.EqualFold(groups[1], "REPLACE")

	t, err := db.MustFind(groups[2])
	if err != nil {
		return nil, err
	}
	s := t.Schema()

	targets, err := insertTargets(s, groups[3])
	if err != nil {
		return nil, err
	}

	literals := splitList(groups[4])
	if len(literals) != len(targets) {
		return nil, fmt.Errorf("%w: %d values for %d columns", dberr.ErrMalformedRow, len(literals), len(targets))
	}

	row := make(schema.Row, len(s.Columns))
	for i, literal := range literals {
		v, parseErr := parseLiteral(literal)
		if parseErr != nil {
			return nil, parseErr
		}
		row[targets[i]] = v
	}

	if replace {
		_, err = t.Put(row)
	} else {
		err = table.Insert(t, row)
	}
	if err != nil {
		return nil, err
	}

	return &Result{Affected: 1}, nil
}

// insertTargets maps every listed column to its schema index, all columns
// in order when the list is absent.
func insertTargets(s *schema.Schema, list string) ([]int, error) {

	if list == "" {
		targets := make([]int, len(s.Columns))
		for i := range targets {
			targets[i] = i
		}
		return targets, nil
	}

	names := splitList(list)
	targets := make([]int, 0, len(names))
	seen := map[int]bool{}

	for _, name := range names {
		idx := s.ColumnIndex(name)
		if idx == -1 {
			return nil, fmt.Errorf("%w: column `%s` does not exist", dberr.ErrMalformedRow, name)
		}
		if seen[idx] {
			return nil, fmt.Errorf("%w: column `%s` listed twice", dberr.ErrMalformedRow, name)
		}
		seen[idx] = true
		targets = append(targets, idx)
	}

	if !seen[s.PrimaryIndex] {
		return nil, fmt.Errorf("%w: primary column `%s` not given", dberr.ErrMalformedRow, s.Primary().Name)
	}

	return targets, nil
}
