package pipeline

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/jhillyerd/enmime"
	"github.com/xuri/excelize/v2"

	"leadprep/internal"
)

var (
	ErrNoHeader        = errors.New("no header row found")
	ErrNoAttachments   = errors.New("email carries no csv or xlsx attachment")
	ErrUnsupportedType = errors.New("unsupported file type")

	reCellSpaces = regexp.MustCompile(`\s+`)
)

const utf8BOM = "\ufeff"

// ParseCSV reads a comma-delimited export whose first record is the header.
func ParseCSV(r io.Reader, name string) (*internal.Table, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv %s: %w", name, err)
	}
	if len(records) > 0 && len(records[0]) > 0 {
		records[0][0] = strings.TrimPrefix(records[0][0], utf8BOM)
	}
	return tableFromRecords(name, records)
}

// ParseXLSX reads the first sheet of a workbook; the first non-empty row is the header.
func ParseXLSX(content []byte, name string) (*internal.Table, error) {
	f, err := excelize.OpenReader(bytes.NewReader(content))
	if err != nil {
		return nil, fmt.Errorf("open xlsx %s: %w", name, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("xlsx %s: %w", name, ErrNoHeader)
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read sheet %s: %w", sheets[0], err)
	}
	return tableFromRecords(name, rows)
}

// ParseHTMLTable reads the first <table> of an HTML export.
func ParseHTMLTable(html string, name string) (*internal.Table, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parse html %s: %w", name, err)
	}

	table := doc.Find("table").First()
	if table.Length() == 0 {
		return nil, fmt.Errorf("html %s: %w", name, ErrNoHeader)
	}

	records := [][]string{}
	table.Find("tr").Each(func(_ int, row *goquery.Selection) {
		cells := []string{}
		row.Find("th,td").Each(func(_ int, cell *goquery.Selection) {
			cells = append(cells, normalizeSpaces(cell.Text()))
		})
		records = append(records, cells)
	})
	return tableFromRecords(name, records)
}

// ParseEmail returns one table per CSV or XLSX attachment of a raw message.
func ParseEmail(raw []byte) ([]*internal.Table, error) {
	env, err := enmime.ReadEnvelope(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("read email: %w", err)
	}

	tables := []*internal.Table{}
	for _, att := range env.Attachments {
		filename := strings.TrimSpace(att.FileName)
		switch strings.ToLower(filepath.Ext(filename)) {
		case ".csv":
			t, err := ParseCSV(bytes.NewReader(att.Content), filename)
			if err != nil {
				return nil, err
			}
			tables = append(tables, t)
		case ".xlsx":
			t, err := ParseXLSX(att.Content, filename)
			if err != nil {
				return nil, err
			}
			tables = append(tables, t)
		}
	}
	if len(tables) == 0 {
		return nil, ErrNoAttachments
	}
	return tables, nil
}

func tableFromRecords(name string, records [][]string) (*internal.Table, error) {
	headerIdx := -1
	for i, rec := range records {
		if !blankRecord(rec) {
			headerIdx = i
			break
		}
	}
	if headerIdx < 0 {
		return nil, fmt.Errorf("%s: %w", name, ErrNoHeader)
	}

	header := records[headerIdx]
	columns := make([]string, len(header))
	for i, h := range header {
		h = strings.TrimSpace(h)
		if h == "" {
			h = fmt.Sprintf("Column %d", i+1)
		}
		columns[i] = h
	}

	t := &internal.Table{Name: name, Columns: columns, Rows: []internal.Row{}}
	for _, rec := range records[headerIdx+1:] {
		if blankRecord(rec) {
			continue
		}
		row := make(internal.Row, len(columns))
		for i, col := range columns {
			if i < len(rec) {
				row[col] = strings.TrimSpace(rec[i])
			} else {
				row[col] = ""
			}
		}
		t.Rows = append(t.Rows, row)
	}
	return t, nil
}

func blankRecord(rec []string) bool {
	for _, c := range rec {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

func normalizeSpaces(input string) string {
	return strings.TrimSpace(reCellSpaces.ReplaceAllString(input, " "))
}
