package pipeline

import "leadprep/internal"

type Format string

const (
	FormatRaw        Format = "raw"
	FormatCleaned    Format = "cleaned"
	FormatSimplified Format = "simplified"
	FormatUnknown    Format = "unknown"
)

// IsCleaned reports whether t already carries every cleaned output column.
// Re-cleaning such a table would re-tag and re-redact, so callers skip it.
func IsCleaned(t *internal.Table) bool {
	return t != nil && len(MissingColumns(t, CleanedColumns)) == 0
}

// IsSimplified reports whether t has exactly the simplified column set.
func IsSimplified(t *internal.Table) bool {
	if t == nil || len(t.Columns) != len(SimplifiedColumns) {
		return false
	}
	missing, extra := columnDiff(SimplifiedColumns, t.Columns)
	return len(missing) == 0 && len(extra) == 0
}

func DetectFormat(t *internal.Table) Format {
	switch {
	case IsCleaned(t):
		return FormatCleaned
	case IsSimplified(t):
		return FormatSimplified
	case t != nil && len(MissingColumns(t, RequiredColumns)) == 0:
		return FormatRaw
	default:
		return FormatUnknown
	}
}
