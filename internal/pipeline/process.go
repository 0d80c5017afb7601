package pipeline

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"leadprep/internal"
	"leadprep/internal/logging"
)

type Operation string

const (
	OpClean    Operation = "clean"
	OpSimplify Operation = "simplify"
	OpCombine  Operation = "combine"
)

var ErrUnknownOperation = errors.New("unknown operation")

func ParseOperation(value string) (Operation, error) {
	switch op := Operation(strings.ToLower(strings.TrimSpace(value))); op {
	case OpClean, OpSimplify, OpCombine:
		return op, nil
	case "":
		return OpClean, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownOperation, value)
	}
}

// Upload is one operator-supplied file, kept in memory.
type Upload struct {
	Name    string
	Content []byte
}

// Result carries the table to show next plus the operator message. Table is
// nil whenever the operation was refused.
type Result struct {
	Table    *internal.Table
	Feedback internal.Feedback
	Files    []string
}

// Structure renders the "N rows and M columns" line shown above a table.
func (r Result) Structure() string {
	return Describe(r.Table)
}

func Describe(t *internal.Table) string {
	if t == nil {
		return ""
	}
	return fmt.Sprintf("Data Structure: %d rows and %d columns", len(t.Rows), len(t.Columns))
}

type ProcessingService struct {
	log *zap.Logger
}

func NewProcessingService(log *zap.Logger) *ProcessingService {
	return &ProcessingService{log: logging.OrNop(log)}
}

// Run parses every upload and applies op. Each file keeps its own name so
// provenance tags follow the file a row came from. The returned error is set
// exactly when Result.Table is nil.
func (s *ProcessingService) Run(op Operation, uploads []Upload) (Result, error) {
	start := time.Now()
	res := Result{}

	if len(uploads) == 0 {
		res.Feedback = warning("Please upload at least one file.")
		return res, ErrNoTables
	}

	tables := []*internal.Table{}
	for _, up := range uploads {
		res.Files = append(res.Files, up.Name)
		parsed, err := LoadBytes(up.Name, up.Content)
		if err != nil {
			res.Feedback = unexpected(err)
			s.log.Warn("upload rejected", zap.String("file", up.Name), zap.Error(err))
			return res, err
		}
		tables = append(tables, parsed...)
	}

	var err error
	switch op {
	case OpClean:
		res, err = s.clean(res, tables)
	case OpSimplify:
		res, err = s.simplify(res, tables)
	case OpCombine:
		res, err = s.combine(res, tables)
	default:
		err = fmt.Errorf("%w: %q", ErrUnknownOperation, op)
		res.Feedback = unexpected(err)
	}

	fields := []zap.Field{
		zap.String("operation", string(op)),
		zap.Strings("files", res.Files),
		zap.Duration("took", time.Since(start)),
	}
	if err != nil {
		s.log.Warn("operation refused", append(fields, zap.Error(err))...)
		return res, err
	}
	s.log.Info("operation complete", append(fields, zap.Int("rows", res.Table.Len()))...)
	return res, nil
}

func (s *ProcessingService) clean(res Result, tables []*internal.Table) (Result, error) {
	if allMatch(tables, IsCleaned) {
		out, err := Combine(tables)
		if err != nil {
			res.Feedback = combineFailed()
			return res, err
		}
		res.Table = out
		res.Feedback = info("The uploaded data is already in the clean and tag format. No additional processing needed.")
		return res, nil
	}

	cleaned := make([]*internal.Table, 0, len(tables))
	for _, t := range tables {
		out, err := Clean(t, t.Name)
		if err != nil {
			if DetectFormat(t) == FormatSimplified {
				res.Feedback = warning("The uploaded data is in the simplified address format and cannot be cleaned. Please upload the original lead export.")
			} else {
				res.Feedback = refusal(err, "cleaning", "Unable to process the file. The data may not be in the expected format.")
			}
			return res, err
		}
		cleaned = append(cleaned, out)
	}

	out := cleaned[0]
	if len(cleaned) > 1 {
		var err error
		if out, err = Combine(cleaned); err != nil {
			res.Feedback = combineFailed()
			return res, err
		}
	}
	res.Table = out
	res.Feedback = success("File uploaded and processed successfully")
	return res, nil
}

func (s *ProcessingService) simplify(res Result, tables []*internal.Table) (Result, error) {
	if allMatch(tables, IsSimplified) {
		out, err := concat(tables)
		if err != nil {
			res.Feedback = combineFailed()
			return res, err
		}
		res.Table = out
		res.Feedback = info("The uploaded data is already in the simplified format. No additional processing needed.")
		return res, nil
	}

	simplified := make([]*internal.Table, 0, len(tables))
	for _, t := range tables {
		out, err := Simplify(t)
		if err != nil {
			res.Feedback = refusal(err, "simplification", "Unable to simplify the file. The data may not be in the expected format.")
			return res, err
		}
		simplified = append(simplified, out)
	}

	out, err := concat(simplified)
	if err != nil {
		res.Feedback = combineFailed()
		return res, err
	}
	res.Table = out
	res.Feedback = success("File uploaded and simplified successfully")
	return res, nil
}

func (s *ProcessingService) combine(res Result, tables []*internal.Table) (Result, error) {
	out, err := Combine(tables)
	if err != nil {
		res.Feedback = combineFailed()
		return res, err
	}
	res.Table = out
	res.Feedback = success(fmt.Sprintf("Datasets combined successfully. Total rows: %d", out.Len()))
	return res, nil
}

// concat joins same-shaped tables without adding a Contact ID column.
func concat(tables []*internal.Table) (*internal.Table, error) {
	out := tables[0].Clone()
	for i := 1; i < len(tables); i++ {
		missing, extra := columnDiff(out.Columns, tables[i].Columns)
		if len(missing) > 0 || len(extra) > 0 {
			return nil, &MismatchError{Index: i, Name: tables[i].Name, Missing: missing, Extra: extra}
		}
		out.Rows = append(out.Rows, tables[i].Clone().Rows...)
	}
	return out, nil
}

func allMatch(tables []*internal.Table, pred func(*internal.Table) bool) bool {
	for _, t := range tables {
		if !pred(t) {
			return false
		}
	}
	return len(tables) > 0
}

func refusal(err error, purpose, fallback string) internal.Feedback {
	var verr *ValidationError
	if errors.As(err, &verr) && len(verr.Missing) > 0 {
		return warning(fmt.Sprintf("The uploaded file is missing required columns for %s: %s. Please check your data and try again.",
			purpose, strings.Join(verr.Missing, ", ")))
	}
	return warning(fallback)
}

func combineFailed() internal.Feedback {
	return warning("Failed to combine datasets. Ensure all files have matching columns.")
}

func unexpected(err error) internal.Feedback {
	return internal.Feedback{
		Message:  fmt.Sprintf("An unexpected error occurred: %s. Please check your data and try again.", err),
		Severity: internal.SeverityDanger,
	}
}

func success(msg string) internal.Feedback {
	return internal.Feedback{Message: msg, Severity: internal.SeveritySuccess}
}

func warning(msg string) internal.Feedback {
	return internal.Feedback{Message: msg, Severity: internal.SeverityWarning}
}

func info(msg string) internal.Feedback {
	return internal.Feedback{Message: msg, Severity: internal.SeverityInfo}
}
