package importer

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"mealtrack/internal/meals"
)

var (
	ErrUnsupportedFormat = errors.New("unsupported file format, expected .csv or .xlsx")
	ErrEmptySheet        = errors.New("file has no header row")
)

type field int

const (
	fieldName field = iota
	fieldTeam
	fieldMobile
	fieldEmail
)

// Header aliases per field, compared lower-cased after trimming.
var aliases = map[field][]string{
	fieldName:   {"name", "participant name"},
	fieldTeam:   {"team name", "teamname", "team"},
	fieldMobile: {"mobile", "phone", "phone number"},
	fieldEmail:  {"email"},
}

// Parse reads an uploaded roster. The format is picked from the file
// extension; xlsx files are read from their first sheet.
func Parse(filename string, data []byte) ([]meals.RawInput, error) {
	var (
		records [][]string
		err     error
	)
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".csv":
		records, err = readCSV(data)
	case ".xlsx":
		records, err = readXLSX(data)
	default:
		return nil, ErrUnsupportedFormat
	}
	if err != nil {
		return nil, err
	}
	return rowsToInputs(records)
}

func readCSV(data []byte) ([][]string, error) {
	r := csv.NewReader(bytes.NewReader(bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))))
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("invalid CSV: %w", err)
	}
	return records, nil
}

func readXLSX(data []byte) ([][]string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("invalid XLSX: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrEmptySheet
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheets[0], err)
	}
	return rows, nil
}

func rowsToInputs(records [][]string) ([]meals.RawInput, error) {
	if len(records) == 0 {
		return nil, ErrEmptySheet
	}
	cols := resolveHeader(records[0])

	out := make([]meals.RawInput, 0, len(records)-1)
	for _, row := range records[1:] {
		if blank(row) {
			continue
		}
		out = append(out, meals.RawInput{
			Name:     cell(row, cols, fieldName),
			TeamName: cell(row, cols, fieldTeam),
			Mobile:   cell(row, cols, fieldMobile),
			Email:    cell(row, cols, fieldEmail),
		})
	}
	return out, nil
}

// resolveHeader maps each field to the first column whose header matches one
// of its aliases. Fields with no matching column are absent from the map.
func resolveHeader(header []string) map[field]int {
	cols := make(map[field]int, len(aliases))
	for f, names := range aliases {
		for _, alias := range names {
			idx := indexOf(header, alias)
			if idx >= 0 {
				cols[f] = idx
				break
			}
		}
	}
	return cols
}

func indexOf(header []string, alias string) int {
	for i, h := range header {
		if strings.ToLower(strings.TrimSpace(h)) == alias {
			return i
		}
	}
	return -1
}

func cell(row []string, cols map[field]int, f field) string {
	idx, ok := cols[f]
	if !ok || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

func blank(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
