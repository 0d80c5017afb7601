package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"leadprep/internal"
)

func TestSimplify(t *testing.T) {
	in := rawTable("x.csv",
		rawRow(map[string]string{internal.ColPersonalAddress: "12 ELM ST", internal.ColPersonalCity: "springfield", internal.ColPersonalState: "il"}),
		rawRow(map[string]string{internal.ColPersonalAddress: "PO Box 9"}),
		rawRow(map[string]string{internal.ColPersonalAddress: "-"}),
		rawRow(map[string]string{internal.ColPersonalAddress: "nan"}),
		rawRow(map[string]string{internal.ColPersonalAddress: "4 oak ave", internal.ColPersonalZip: "nan"}),
	)

	out, err := Simplify(in)
	require.NoError(t, err)
	assert.Equal(t, SimplifiedColumns, out.Columns)
	require.Len(t, out.Rows, 2)

	assert.Equal(t, internal.Row{
		internal.OutPersonalAddress: "12 Elm St",
		internal.OutPersonalCity:    "Springfield",
		internal.OutPersonalZip:     "62701",
		internal.OutPersonalState:   "Il",
	}, out.Rows[0])
	assert.Equal(t, "4 Oak Ave", out.Rows[1][internal.OutPersonalAddress])
	assert.Equal(t, "", out.Rows[1][internal.OutPersonalZip])
}

func TestSimplifyMissingColumns(t *testing.T) {
	in := &internal.Table{Name: "x.csv", Columns: []string{internal.ColPersonalAddress}, Rows: []internal.Row{{internal.ColPersonalAddress: "1 A St"}}}
	_, err := Simplify(in)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, []string{internal.ColPersonalCity, internal.ColPersonalZip, internal.ColPersonalState}, verr.Missing)
}

func TestDetectFormat(t *testing.T) {
	raw := rawTable("x.csv", rawRow(nil))
	cleaned, err := Clean(raw, raw.Name)
	require.NoError(t, err)
	simplified, err := Simplify(raw)
	require.NoError(t, err)

	assert.Equal(t, FormatRaw, DetectFormat(raw))
	assert.Equal(t, FormatCleaned, DetectFormat(cleaned))
	assert.Equal(t, FormatSimplified, DetectFormat(simplified))
	assert.Equal(t, FormatUnknown, DetectFormat(&internal.Table{Columns: []string{"A"}}))
	assert.Equal(t, FormatUnknown, DetectFormat(nil))

	assert.True(t, IsCleaned(cleaned))
	assert.False(t, IsCleaned(raw))
	assert.True(t, IsSimplified(simplified))
	assert.False(t, IsSimplified(cleaned))
}
