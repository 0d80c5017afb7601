package pipeline

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"leadprep/internal"
	"leadprep/internal/util"
)

var (
	ErrNoTables       = errors.New("no tables to combine")
	ErrColumnMismatch = errors.New("non-matching columns")
)

// MismatchError names the first table whose column set differs from the seed.
type MismatchError struct {
	Index   int
	Name    string
	Missing []string
	Extra   []string
}

func (e *MismatchError) Error() string {
	label := e.Name
	if label == "" {
		label = fmt.Sprintf("table %d", e.Index+1)
	}
	parts := []string{fmt.Sprintf("%s: %s", label, ErrColumnMismatch)}
	if len(e.Missing) > 0 {
		parts = append(parts, "missing "+strings.Join(e.Missing, ", "))
	}
	if len(e.Extra) > 0 {
		parts = append(parts, "unexpected "+strings.Join(e.Extra, ", "))
	}
	return strings.Join(parts, "; ")
}

func (e *MismatchError) Unwrap() error {
	return ErrColumnMismatch
}

// Combine concatenates tables sharing one column set (order-independent) and
// renumbers Contact ID across the result. Any mismatch discards everything.
func Combine(tables []*internal.Table) (*internal.Table, error) {
	if len(tables) == 0 {
		return nil, ErrNoTables
	}
	for i, t := range tables {
		if t == nil {
			return nil, fmt.Errorf("table %d: %w", i+1, ErrEmptyTable)
		}
	}

	acc := tables[0].Clone()
	for i := 1; i < len(tables); i++ {
		next := tables[i]
		missing, extra := columnDiff(acc.Columns, next.Columns)
		if len(missing) > 0 || len(extra) > 0 {
			return nil, &MismatchError{Index: i, Name: next.Name, Missing: missing, Extra: extra}
		}
		acc.Rows = append(acc.Rows, next.Clone().Rows...)
	}

	AssignContactIDs(acc)
	return acc, nil
}

func columnDiff(seed, other []string) (missing, extra []string) {
	for _, c := range seed {
		if !util.Contains(other, c) {
			missing = append(missing, c)
		}
	}
	for _, c := range other {
		if !util.Contains(seed, c) {
			extra = append(extra, c)
		}
	}
	sort.Strings(missing)
	sort.Strings(extra)
	return missing, extra
}
