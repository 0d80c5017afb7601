package pipeline

import (
	"leadprep/internal"
	"leadprep/internal/util"
)

// SimplifyRequiredColumns are projected, in this order, by Simplify.
var SimplifyRequiredColumns = []string{
	internal.ColPersonalAddress, internal.ColPersonalCity, internal.ColPersonalZip, internal.ColPersonalState,
}

var SimplifiedColumns = []string{
	internal.OutPersonalAddress, internal.OutPersonalCity, internal.OutPersonalZip, internal.OutPersonalState,
}

// Simplify keeps only mailable street addresses: rows with no address, the
// "-" placeholder or a P.O. box are dropped and the rest is title-cased.
func Simplify(t *internal.Table) (*internal.Table, error) {
	if err := validate(t, SimplifyRequiredColumns); err != nil {
		return nil, err
	}

	out := &internal.Table{
		Name:    t.Name,
		Columns: append([]string(nil), SimplifiedColumns...),
		Rows:    make([]internal.Row, 0, len(t.Rows)),
	}
	for _, row := range t.Rows {
		address := row[internal.ColPersonalAddress]
		if util.IsAbsent(address) || IsPOBox(address) {
			continue
		}
		simplified := make(internal.Row, len(SimplifiedColumns))
		for i, col := range SimplifyRequiredColumns {
			value := row[col]
			if util.IsAbsent(value) {
				value = ""
			}
			simplified[SimplifiedColumns[i]] = util.TitleCase(value)
		}
		out.Rows = append(out.Rows, simplified)
	}
	return out, nil
}
