// Package export renders logged sessions as an XLSX workbook.
package export

import (
	"fmt"
	"io"
	"time"

	"github.com/kostadinov1/gym-backend/internal/models"
	"github.com/xuri/excelize/v2"
)

// ContentType is the MIME type of the generated workbook.
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// Sheet names.
const (
	SessionsSheet = "Sessions"
	SetsSheet     = "Sets"
)

const timeLayout = "2006-01-02 15:04"

var (
	sessionHeader = []any{"Session ID", "Routine", "Status", "Start", "End", "Duration (min)", "Sets"}
	setHeader     = []any{"Session ID", "Date", "Routine", "Exercise", "Set", "Reps", "Weight", "Completed"}
)

// WriteSessions writes one workbook with a row per session on the Sessions
// sheet and a row per logged set on the Sets sheet.
func WriteSessions(w io.Writer, sessions []models.SessionDetail) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SessionsSheet); err != nil {
		return fmt.Errorf("renaming sheet: %w", err)
	}
	if _, err := f.NewSheet(SetsSheet); err != nil {
		return fmt.Errorf("creating sets sheet: %w", err)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("creating header style: %w", err)
	}
	if err := writeHeader(f, SessionsSheet, sessionHeader, bold); err != nil {
		return err
	}
	if err := writeHeader(f, SetsSheet, setHeader, bold); err != nil {
		return err
	}

	setRow := 2
	for i, s := range sessions {
		row := []any{
			s.ID.String(),
			s.RoutineName,
			s.Status,
			s.StartTime.UTC().Format(timeLayout),
			s.EndTime.UTC().Format(timeLayout),
			s.DurationMinutes,
			len(s.Sets),
		}
		if err := setRowAt(f, SessionsSheet, i+2, row); err != nil {
			return err
		}

		for _, set := range s.Sets {
			completed := "no"
			if set.IsCompleted {
				completed = "yes"
			}
			row := []any{
				s.ID.String(),
				s.StartTime.UTC().Format(time.DateOnly),
				s.RoutineName,
				set.ExerciseName,
				set.SetNumber,
				set.Reps,
				set.Weight,
				completed,
			}
			if err := setRowAt(f, SetsSheet, setRow, row); err != nil {
				return err
			}
			setRow++
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("writing workbook: %w", err)
	}
	return nil
}

func writeHeader(f *excelize.File, sheet string, header []any, style int) error {
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("writing %s header: %w", sheet, err)
	}
	last, err := excelize.CoordinatesToCellName(len(header), 1)
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, "A1", last, style); err != nil {
		return fmt.Errorf("styling %s header: %w", sheet, err)
	}
	if err := f.SetPanes(sheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return fmt.Errorf("freezing %s header: %w", sheet, err)
	}
	return nil
}

func setRowAt(f *excelize.File, sheet string, row int, values []any) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("writing %s row %d: %w", sheet, row, err)
	}
	return nil
}
