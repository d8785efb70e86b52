package export

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestGradeSheet(t *testing.T) {
	score := 87.5
	submitted := time.Date(2025, 3, 1, 10, 30, 0, 0, time.UTC)

	data, err := GradeSheet("Essay 1", []GradeRow{
		{StudentName: "Budi", StudentEmail: "budi@example.com", Status: "graded", SubmittedAt: &submitted, Score: &score, Comment: "Good"},
		{StudentName: "Siti", StudentEmail: "siti@example.com", Status: "not submitted"},
	})
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(sheetName)
	require.NoError(t, err)
	require.Len(t, rows, 5)

	assert.Equal(t, "Essay 1", rows[0][0])
	assert.Equal(t, headers, rows[2])
	assert.Equal(t, []string{"1", "Budi", "budi@example.com", "graded", "2025-03-01 10:30", "87.5", "Good"}, rows[3])
	assert.Equal(t, "Siti", rows[4][1])
	assert.Equal(t, "not submitted", rows[4][3])
}

func TestFileName(t *testing.T) {
	assert.Equal(t, "grades_42.xlsx", FileName(42))
}
