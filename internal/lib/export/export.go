// Package export renders grade sheets as xlsx workbooks.
package export

import (
	"bytes"
	"fmt"
	"time"

	"github.com/pkg/errors"
	"github.com/xuri/excelize/v2"
)

// GradeRow is one student line of a grade sheet.
type GradeRow struct {
	StudentName  string
	StudentEmail string
	Status       string
	SubmittedAt  *time.Time
	Score        *float64
	Comment      string
}

const sheetName = "Grades"

var headers = []string{"No", "Name", "Email", "Submission", "Submitted At", "Score", "Comment"}

// GradeSheet writes rows under a title line naming the assignment.
func GradeSheet(title string, rows []GradeRow) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return nil, errors.Wrap(err, "failed to rename sheet")
	}

	if err := f.SetCellValue(sheetName, "A1", title); err != nil {
		return nil, errors.Wrap(err, "failed to write title")
	}

	boldStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, errors.Wrap(err, "failed to create header style")
	}

	for col, header := range headers {
		cell, err := excelize.CoordinatesToCellName(col+1, 3)
		if err != nil {
			return nil, errors.Wrap(err, "failed to resolve header cell")
		}
		if err := f.SetCellValue(sheetName, cell, header); err != nil {
			return nil, errors.Wrapf(err, "failed to write header %s", header)
		}
	}
	lastHeader, _ := excelize.CoordinatesToCellName(len(headers), 3)
	if err := f.SetCellStyle(sheetName, "A1", lastHeader, boldStyle); err != nil {
		return nil, errors.Wrap(err, "failed to style header")
	}

	for i, row := range rows {
		values := []any{i + 1, row.StudentName, row.StudentEmail, row.Status, "", "", row.Comment}
		if row.SubmittedAt != nil {
			values[4] = row.SubmittedAt.Format("2006-01-02 15:04")
		}
		if row.Score != nil {
			values[5] = *row.Score
		}

		for col, value := range values {
			cell, err := excelize.CoordinatesToCellName(col+1, i+4)
			if err != nil {
				return nil, errors.Wrap(err, "failed to resolve cell")
			}
			if err := f.SetCellValue(sheetName, cell, value); err != nil {
				return nil, errors.Wrapf(err, "failed to write cell %s", cell)
			}
		}
	}

	if err := f.SetColWidth(sheetName, "B", "C", 28); err != nil {
		return nil, errors.Wrap(err, "failed to size columns")
	}
	if err := f.SetColWidth(sheetName, "G", "G", 40); err != nil {
		return nil, errors.Wrap(err, "failed to size columns")
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, errors.Wrap(err, "failed to write workbook")
	}
	return buf.Bytes(), nil
}

// FileName is the download name for an announcement's grade sheet.
func FileName(announcementID int64) string {
	return fmt.Sprintf("grades_%d.xlsx", announcementID)
}
