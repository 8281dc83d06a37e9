package export

import (
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/dkozyrev/cavewatch/internal/domain/form"
	"github.com/dkozyrev/cavewatch/internal/gateway"
)

// Sheet names of the generated workbooks.
const (
	activeSheet  = "Active forms"
	journalSheet = "Journal"
)

// headers are the report columns, in order.
//
//nolint:gochecknoglobals // Shared immutable column list.
var headers = []string{
	"Submitter ID",
	"Name",
	"System",
	"Exit date",
	"Exit time",
	"Control",
	"Submitted (UTC)",
	"Not returned notified",
	"Alarm notified",
	"Report",
}

// ActiveWorkbook renders the active form set as an xlsx workbook.
func ActiveWorkbook(active []*form.Form) ([]byte, error) {
	return workbook(activeSheet, active)
}

// JournalWorkbook renders the journal as an xlsx workbook. Rows carry the
// submission-time snapshot values, so the notification flags always read
// false even for forms that escalated later.
func JournalWorkbook(journal []*form.Form) ([]byte, error) {
	return workbook(journalSheet, journal)
}

// workbook builds a single-sheet xlsx with one row per form.
func workbook(sheet string, rows []*form.Form) ([]byte, error) {
	f := excelize.NewFile()

	defer func() {
		_ = f.Close()
	}()

	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}

	for col, header := range headers {
		if err := setCell(f, sheet, col+1, 1, header); err != nil {
			return nil, err
		}
	}

	for i, fm := range rows {
		values := []any{
			fm.SubmitterID,
			fm.DisplayName,
			fm.System,
			fm.ExitDate,
			fm.ExitTime,
			fm.Control,
			fm.SubmittedAt.Format(time.RFC3339),
			fm.NotExitedNotified,
			fm.AlarmNotified,
			gateway.RefLinks(fm.ReportRefs),
		}

		for col, value := range values {
			if err := setCell(f, sheet, col+1, i+2, value); err != nil {
				return nil, err
			}
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}

	return buf.Bytes(), nil
}

// setCell writes one value at the given 1-based coordinates.
func setCell(f *excelize.File, sheet string, col, row int, value any) error {
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return fmt.Errorf("cell name: %w", err)
	}

	if err := f.SetCellValue(sheet, cell, value); err != nil {
		return fmt.Errorf("set cell %s: %w", cell, err)
	}

	return nil
}
