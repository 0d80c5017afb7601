package workbench

import (
	"errors"
	"fmt"
	"strings"

	"leadprep/internal"
	"leadprep/internal/util"
)

var (
	ErrEmptyFilter   = errors.New("column and values are required")
	ErrUnknownColumn = errors.New("unknown column")
	ErrNoMatches     = errors.New("no matching values")
)

// Filter keeps the rows whose column cell equals one of the comma-separated
// values. Values absent from the column are reported but do not fail the
// filter unless none of them is present.
func Filter(t *internal.Table, column, values string) (*internal.Table, internal.Feedback, error) {
	wanted := util.SplitList(values)
	if t == nil {
		return nil, warning("Please upload and process a file before filtering."), ErrNoTable
	}
	if strings.TrimSpace(column) == "" || len(wanted) == 0 {
		return nil, warning("Please select a column and enter filter values before applying the filter."), ErrEmptyFilter
	}
	if !t.HasColumn(column) {
		return nil, warning(fmt.Sprintf("Selected column '%s' does not exist in the data.", column)), ErrUnknownColumn
	}

	seen := make(map[string]struct{}, len(t.Rows))
	for _, row := range t.Rows {
		seen[row[column]] = struct{}{}
	}
	present, missing := []string{}, []string{}
	for _, v := range wanted {
		if _, ok := seen[v]; ok {
			present = append(present, v)
		} else {
			missing = append(missing, v)
		}
	}
	if len(present) == 0 {
		return nil, warning(fmt.Sprintf("None of the provided values exist in the '%s' column.", column)), ErrNoMatches
	}

	out := &internal.Table{Name: t.Name, Columns: append([]string(nil), t.Columns...), Rows: []internal.Row{}}
	for _, row := range t.Rows {
		if util.Contains(present, row[column]) {
			cp := make(internal.Row, len(row))
			for k, v := range row {
				cp[k] = v
			}
			out.Rows = append(out.Rows, cp)
		}
	}

	msg := fmt.Sprintf("Data filtered successfully. %d rows match the filter criteria.", len(out.Rows))
	if len(missing) > 0 {
		msg += fmt.Sprintf("\nNote: The following values were not found in the '%s' column: %s", column, strings.Join(missing, ", "))
	}
	return out, success(msg), nil
}
