package utils

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

// Table is a parsed spreadsheet: a header row plus data rows keyed by header.
type Table struct {
	Headers []string
	Rows    []map[string]string
}

// IsSpreadsheet reports whether fileName should be read with excelize.
func IsSpreadsheet(fileName string) bool {
	switch strings.ToLower(filepath.Ext(fileName)) {
	case ".xlsx", ".xlsm", ".xltx":
		return true
	}
	return false
}

// IsSupportedFile reports whether fileName is a CSV or Excel file.
func IsSupportedFile(fileName string) bool {
	ext := strings.ToLower(filepath.Ext(fileName))
	return ext == ".csv" || ext == ".txt" || IsSpreadsheet(fileName)
}

// ReadTable parses a CSV or XLSX file, choosing the reader by extension.
func ReadTable(fileName string, r io.Reader) (*Table, error) {
	var (
		records [][]string
		err     error
	)
	if IsSpreadsheet(fileName) {
		records, err = readSpreadsheet(r)
	} else {
		records, _, err = ParseCSVWithDetectedDelimiter(r)
	}
	if err != nil {
		return nil, err
	}
	return NewTable(records)
}

// NewTable keys data rows by header. Blank headers become "Column N" and
// repeated headers get a " (2)", " (3)" suffix. Fully empty rows are dropped.
func NewTable(records [][]string) (*Table, error) {
	if len(records) == 0 {
		return nil, fmt.Errorf("file has no header row")
	}

	headers := make([]string, len(records[0]))
	seen := make(map[string]int, len(headers))
	for i, h := range records[0] {
		h = strings.TrimSpace(strings.Trim(strings.TrimSpace(h), `"'`))
		if h == "" {
			h = fmt.Sprintf("Column %d", i+1)
		}
		seen[h]++
		if n := seen[h]; n > 1 {
			h = fmt.Sprintf("%s (%d)", h, n)
		}
		headers[i] = h
	}

	t := &Table{Headers: headers}
	for _, rec := range records[1:] {
		row := make(map[string]string, len(headers))
		empty := true
		for i, h := range headers {
			if i >= len(rec) {
				row[h] = ""
				continue
			}
			v := strings.TrimSpace(rec[i])
			if v != "" {
				empty = false
			}
			row[h] = v
		}
		if !empty {
			t.Rows = append(t.Rows, row)
		}
	}
	return t, nil
}

func readSpreadsheet(r io.Reader) ([][]string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open spreadsheet: %w", err)
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	if sheet == "" {
		return nil, fmt.Errorf("spreadsheet has no sheets")
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", sheet, err)
	}
	return rows, nil
}
