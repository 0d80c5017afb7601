package pipeline

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"leadprep/internal"
	"leadprep/internal/util"
)

// RequiredColumns must all be present before a table can be cleaned.
var RequiredColumns = []string{
	internal.ColMobilePhone, internal.ColPersonalAddress, internal.ColBusinessEmail,
	internal.ColPersonalEmail, internal.ColDNC, internal.ColFirstName, internal.ColLastName,
	internal.ColPersonalCity, internal.ColPersonalState, internal.ColPersonalZip,
}

// projected in output order, between Contact ID and Tag.
var cleanedSourceColumns = []string{
	internal.ColFirstName, internal.ColLastName, internal.ColBusinessEmail, internal.ColMobilePhone,
	internal.ColPersonalAddress, internal.ColPersonalCity, internal.ColPersonalState, internal.ColPersonalZip,
	internal.ColPersonalEmail,
}

// CleanedColumns is the header of every cleaned table.
var CleanedColumns = []string{
	internal.ColContactID, internal.OutFirstName, internal.OutLastName, internal.OutBusinessEmail,
	internal.OutMobilePhone, internal.OutPersonalAddress, internal.OutPersonalCity, internal.OutPersonalState,
	internal.OutPersonalZip, internal.OutPersonalEmail, internal.ColTag,
}

var ErrEmptyTable = errors.New("no data to process")

// ValidationError fails a whole table before any row is touched.
type ValidationError struct {
	Missing []string
	Err     error
}

func (e *ValidationError) Error() string {
	if len(e.Missing) > 0 {
		return "missing required columns: " + strings.Join(e.Missing, ", ")
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return "invalid table"
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// MissingColumns lists the required names absent from t, in required order.
func MissingColumns(t *internal.Table, required []string) []string {
	missing := []string{}
	for _, col := range required {
		if !t.HasColumn(col) {
			missing = append(missing, col)
		}
	}
	return missing
}

func validate(t *internal.Table, required []string) error {
	if t.Empty() {
		return &ValidationError{Err: ErrEmptyTable}
	}
	if missing := MissingColumns(t, required); len(missing) > 0 {
		return &ValidationError{Missing: missing}
	}
	return nil
}

// Clean validates t, tags every record and projects the result onto
// CleanedColumns. The caller's table is never modified.
func Clean(t *internal.Table, fileName string) (*internal.Table, error) {
	if err := validate(t, RequiredColumns); err != nil {
		return nil, err
	}

	work := t.Clone()
	for _, row := range work.Rows {
		row[internal.ColTag] = JoinTags(TagRecord(row, fileName))
	}

	columns := []string{internal.ColContactID}
	for _, col := range cleanedSourceColumns {
		if work.HasColumn(col) {
			columns = append(columns, col)
		}
	}
	columns = append(columns, internal.ColTag)

	out := &internal.Table{Name: t.Name, Columns: make([]string, len(columns)), Rows: make([]internal.Row, 0, len(work.Rows))}
	for i, col := range columns {
		out.Columns[i] = outputColumnName(col)
	}

	for i, row := range work.Rows {
		cleaned := make(internal.Row, len(columns))
		for _, col := range columns {
			value := row[col]
			if col == internal.ColContactID {
				value = strconv.Itoa(i + 1)
			} else if util.IsAbsent(value) {
				value = ""
			}
			cleaned[outputColumnName(col)] = value
		}
		out.Rows = append(out.Rows, cleaned)
	}
	return out, nil
}

func outputColumnName(col string) string {
	if col == internal.ColContactID || col == internal.ColTag {
		return col
	}
	return util.FormatColumnName(col)
}

// AssignContactIDs renumbers t in row order starting at 1. The column is
// appended when t does not carry one yet.
func AssignContactIDs(t *internal.Table) {
	if !t.HasColumn(internal.ColContactID) {
		t.Columns = append(t.Columns, internal.ColContactID)
	}
	for i, row := range t.Rows {
		row[internal.ColContactID] = strconv.Itoa(i + 1)
	}
}

// Records converts a cleaned table into typed delivery records.
func Records(t *internal.Table) ([]internal.CleanedRecord, error) {
	if missing := MissingColumns(t, CleanedColumns); len(missing) > 0 {
		return nil, &ValidationError{Missing: missing}
	}
	out := make([]internal.CleanedRecord, 0, len(t.Rows))
	for i, row := range t.Rows {
		id, err := strconv.Atoi(strings.TrimSpace(row[internal.ColContactID]))
		if err != nil {
			return nil, fmt.Errorf("row %d: invalid contact id %q", i+1, row[internal.ColContactID])
		}
		out = append(out, internal.CleanedRecord{
			ContactID:       id,
			FirstName:       cell(row, internal.OutFirstName),
			LastName:        cell(row, internal.OutLastName),
			BusinessEmail:   cell(row, internal.OutBusinessEmail),
			MobilePhone:     cell(row, internal.OutMobilePhone),
			PersonalAddress: cell(row, internal.OutPersonalAddress),
			PersonalCity:    cell(row, internal.OutPersonalCity),
			PersonalState:   cell(row, internal.OutPersonalState),
			PersonalZip:     cell(row, internal.OutPersonalZip),
			PersonalEmail:   cell(row, internal.OutPersonalEmail),
			Tags:            util.SplitTags(row[internal.ColTag]),
		})
	}
	return out, nil
}

func cell(row internal.Row, col string) string {
	v := row[col]
	if util.IsAbsent(v) {
		return ""
	}
	return strings.TrimSpace(v)
}
