package importer

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"mealtrack/internal/meals"
)

// Export formats.
const (
	FormatXLSX = "xlsx"
	FormatCSV  = "csv"
)

const exportSheet = "Participants"

var exportHeader = []string{"Name", "Mobile", "Email", "Team Name", "Breakfast", "Lunch", "Dinner"}

// ContentType returns the MIME type for an export format.
func ContentType(format string) string {
	if format == FormatCSV {
		return "text/csv; charset=utf-8"
	}
	return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
}

// Export writes the registry in the requested format.
func Export(w io.Writer, format string, participants []meals.Participant) error {
	switch format {
	case FormatCSV:
		return exportCSV(w, participants)
	case FormatXLSX, "":
		return exportXLSX(w, participants)
	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
}

func exportRow(p meals.Participant) []string {
	email := ""
	if p.Email != nil {
		email = *p.Email
	}
	return []string{p.Name, p.Mobile, email, p.TeamName, yesNo(p.Breakfast), yesNo(p.Lunch), yesNo(p.Dinner)}
}

func exportCSV(w io.Writer, participants []meals.Participant) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(exportHeader); err != nil {
		return err
	}
	for _, p := range participants {
		if err := cw.Write(exportRow(p)); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func exportXLSX(w io.Writer, participants []meals.Participant) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), exportSheet); err != nil {
		return err
	}
	write := func(rowNum int, values []string) error {
		cellRef, err := excelize.CoordinatesToCellName(1, rowNum)
		if err != nil {
			return err
		}
		row := make([]interface{}, len(values))
		for i, v := range values {
			row[i] = v
		}
		return f.SetSheetRow(exportSheet, cellRef, &row)
	}

	if err := write(1, exportHeader); err != nil {
		return err
	}
	for i, p := range participants {
		if err := write(i+2, exportRow(p)); err != nil {
			return fmt.Errorf("write row %d: %w", i+2, err)
		}
	}
	_, err := f.WriteTo(w)
	return err
}

func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}
