package pipeline

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"leadprep/internal"
)

// LoadFile reads a lead export from disk. Emails may yield several tables.
func LoadFile(path string) ([]*internal.Table, error) {
	blob, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return LoadBytes(filepath.Base(path), blob)
}

// LoadBytes dispatches on the file name's extension.
func LoadBytes(name string, blob []byte) ([]*internal.Table, error) {
	var (
		t   *internal.Table
		err error
	)
	switch strings.ToLower(filepath.Ext(name)) {
	case ".csv":
		t, err = ParseCSV(bytes.NewReader(blob), name)
	case ".xlsx":
		t, err = ParseXLSX(blob, name)
	case ".html", ".htm":
		t, err = ParseHTMLTable(string(blob), name)
	case ".eml":
		return ParseEmail(blob)
	default:
		return nil, fmt.Errorf("%s: %w", name, ErrUnsupportedType)
	}
	if err != nil {
		return nil, err
	}
	return []*internal.Table{t}, nil
}
