package pipeline

import (
	"bytes"
	"encoding/csv"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	"leadprep/internal"
)

// ToCSVBytes renders t with a header row and no index column.
func ToCSVBytes(t *internal.Table) ([]byte, error) {
	buf := bytes.NewBuffer(nil)
	w := csv.NewWriter(buf)
	if err := w.Write(t.Columns); err != nil {
		return nil, err
	}
	record := make([]string, len(t.Columns))
	for _, row := range t.Rows {
		for i, col := range t.Columns {
			record[i] = row[col]
		}
		if err := w.Write(record); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func ToCSV(t *internal.Table) (string, error) {
	blob, err := ToCSVBytes(t)
	if err != nil {
		return "", err
	}
	return string(blob), nil
}

func WriteCSV(t *internal.Table, outputPath string) error {
	blob, err := ToCSVBytes(t)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return err
	}
	return os.WriteFile(outputPath, blob, 0o644)
}

// BuildXLSX lays t out on the first sheet. Phone cells use the display form
// so spreadsheet apps keep them as text.
func BuildXLSX(t *internal.Table) (*excelize.File, error) {
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)

	for i, h := range t.Columns {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellStr(sheet, cell, h); err != nil {
			return nil, err
		}
	}

	for r, row := range t.Rows {
		for c, col := range t.Columns {
			value := row[col]
			if col == internal.OutMobilePhone || col == internal.ColMobilePhone {
				value = FormatDisplayPhone(value)
			}
			cell, _ := excelize.CoordinatesToCellName(c+1, r+2)
			if err := f.SetCellStr(sheet, cell, value); err != nil {
				return nil, err
			}
		}
	}
	return f, nil
}

func ExportXLSX(t *internal.Table, outputPath string) error {
	f, err := BuildXLSX(t)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return err
	}
	return f.SaveAs(outputPath)
}
