package service

import (
	"bytes"
	"fmt"
	"net/http"
	"testing"

	"github.com/deppfellow/classroom/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func floatPtr(v float64) *float64 {
	return &v
}

func TestGradeUpsert(t *testing.T) {
	f := newFixture(t)
	assignment := f.announcement(t, model.AnnouncementAssignment, nil)
	material := f.announcement(t, model.AnnouncementMaterial, nil)
	otherTeacher := f.user(t, "Pak Ahmad", "pak.ahmad@example.com", model.RoleTeacher)

	tests := []struct {
		name    string
		user    *model.User
		annID   int64
		student int64
		status  int
		message string
	}{
		{name: "student cannot grade", user: f.student, annID: assignment.ID, student: f.student.ID, status: http.StatusForbidden, message: gradeTeacherOnly},
		{name: "material", user: f.teacher, annID: material.ID, student: f.student.ID, status: http.StatusBadRequest, message: "Grades can only be given to assignments"},
		{name: "not a student", user: f.teacher, annID: assignment.ID, student: otherTeacher.ID, status: http.StatusBadRequest, message: "The user is not a student"},
		{name: "not a member", user: f.teacher, annID: assignment.ID, student: f.outsider.ID, status: http.StatusBadRequest, message: "The student is not a member of this class"},
		{name: "unknown announcement", user: f.teacher, annID: 9999, student: f.student.ID, status: http.StatusNotFound, message: "Announcement not found"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.services.Grade.Upsert(f.ctx, tt.user, &model.UpsertGradeRequest{
				ClassID: f.class.ID, AnnouncementID: tt.annID, StudentID: tt.student, Score: floatPtr(80),
			})
			httpErr := requireHTTPError(t, err, tt.status)
			assert.Equal(t, tt.message, httpErr.Message)
		})
	}

	t.Run("upsert replaces the existing grade", func(t *testing.T) {
		first, err := f.services.Grade.Upsert(f.ctx, f.teacher, &model.UpsertGradeRequest{
			ClassID: f.class.ID, AnnouncementID: assignment.ID, StudentID: f.student.ID, Score: floatPtr(70.456),
		})
		require.NoError(t, err)
		assert.Equal(t, "70.46", first.Score.String())

		second, err := f.services.Grade.Upsert(f.ctx, f.teacher, &model.UpsertGradeRequest{
			ClassID: f.class.ID, AnnouncementID: assignment.ID, StudentID: f.student.ID, Score: floatPtr(85),
		})
		require.NoError(t, err)
		assert.Equal(t, first.ID, second.ID)
		assert.Equal(t, "85", second.Score.String())

		grades, err := f.services.Grade.List(f.ctx, f.teacher, &model.AnnouncementRequest{ClassID: f.class.ID, AnnouncementID: assignment.ID})
		require.NoError(t, err)
		require.Len(t, grades, 1)
		assert.Equal(t, f.student.ID, grades[0].Student.ID)
	})
}

func TestGradeBatch(t *testing.T) {
	f := newFixture(t)
	assignment := f.announcement(t, model.AnnouncementAssignment, nil)

	result, err := f.services.Grade.Batch(f.ctx, f.teacher, &model.BatchGradeRequest{
		ClassID:        f.class.ID,
		AnnouncementID: assignment.ID,
		Grades: []model.GradeInput{
			{StudentID: f.student.ID, Score: floatPtr(88)},
			{StudentID: f.outsider.ID, Score: floatPtr(75)},
		},
	})
	require.NoError(t, err)
	require.Len(t, result.Grades, 1)
	assert.Equal(t, f.student.ID, result.Grades[0].StudentID)
	assert.Equal(t, []string{fmt.Sprintf("Student with ID %d is not a member of this class", f.outsider.ID)}, result.Warnings)
}

func TestGradeMarksSubmission(t *testing.T) {
	f := newFixture(t)
	assignment := f.announcement(t, model.AnnouncementAssignment, nil)
	text := "jawaban"

	sub, err := f.services.Submission.Create(f.ctx, f.student, &model.CreateSubmissionRequest{
		ClassID: f.class.ID, AnnouncementID: assignment.ID, TextContent: &text,
	})
	require.NoError(t, err)
	assert.Equal(t, model.SubmissionSubmitted, sub.Status)

	grade, err := f.services.Grade.Upsert(f.ctx, f.teacher, &model.UpsertGradeRequest{
		ClassID: f.class.ID, AnnouncementID: assignment.ID, StudentID: f.student.ID, Score: floatPtr(90),
	})
	require.NoError(t, err)

	mine, err := f.services.Submission.Mine(f.ctx, f.student, &model.AnnouncementRequest{ClassID: f.class.ID, AnnouncementID: assignment.ID})
	require.NoError(t, err)
	assert.Equal(t, model.SubmissionGraded, mine.Status)
	require.NotNil(t, mine.Grade)
	assert.Equal(t, grade.ID, mine.Grade.ID)

	updated, err := f.services.Grade.Update(f.ctx, f.teacher, &model.UpdateGradeRequest{
		ClassID: f.class.ID, AnnouncementID: assignment.ID, GradeID: grade.ID, Score: floatPtr(95),
	})
	require.NoError(t, err)
	assert.Equal(t, "95", updated.Score.String())

	require.NoError(t, f.services.Grade.Delete(f.ctx, f.teacher, &model.GradeRequest{
		ClassID: f.class.ID, AnnouncementID: assignment.ID, GradeID: grade.ID,
	}))

	mine, err = f.services.Submission.Mine(f.ctx, f.student, &model.AnnouncementRequest{ClassID: f.class.ID, AnnouncementID: assignment.ID})
	require.NoError(t, err)
	assert.Equal(t, model.SubmissionSubmitted, mine.Status)
	assert.Nil(t, mine.Grade)

	err = f.services.Grade.Delete(f.ctx, f.teacher, &model.GradeRequest{
		ClassID: f.class.ID, AnnouncementID: assignment.ID, GradeID: grade.ID,
	})
	httpErr := requireHTTPError(t, err, http.StatusNotFound)
	assert.Equal(t, "Grade not found", httpErr.Message)
}

func TestMyGrades(t *testing.T) {
	f := newFixture(t)
	assignment := f.announcement(t, model.AnnouncementAssignment, nil)
	material := f.announcement(t, model.AnnouncementMaterial, nil)
	req := &model.AnnouncementRequest{ClassID: f.class.ID, AnnouncementID: assignment.ID}

	grade, err := f.services.Grade.MyGrade(f.ctx, f.student, req)
	require.NoError(t, err)
	assert.Nil(t, grade)

	_, err = f.services.Grade.MyGrade(f.ctx, f.student, &model.AnnouncementRequest{ClassID: f.class.ID, AnnouncementID: material.ID})
	requireHTTPError(t, err, http.StatusBadRequest)

	_, err = f.services.Grade.MyGrade(f.ctx, f.outsider, req)
	requireHTTPError(t, err, http.StatusForbidden)

	_, err = f.services.Grade.Upsert(f.ctx, f.teacher, &model.UpsertGradeRequest{
		ClassID: f.class.ID, AnnouncementID: assignment.ID, StudentID: f.student.ID, Score: floatPtr(77.5),
	})
	require.NoError(t, err)

	grade, err = f.services.Grade.MyGrade(f.ctx, f.student, req)
	require.NoError(t, err)
	require.NotNil(t, grade)
	assert.Equal(t, "77.5", grade.Score.String())

	grades, err := f.services.Grade.MyGrades(f.ctx, f.student, f.class.ID)
	require.NoError(t, err)
	require.Len(t, grades, 1)
	require.NotNil(t, grades[0].Announcement)
	assert.Equal(t, assignment.ID, grades[0].Announcement.ID)
	assert.NotNil(t, grades[0].Announcement.Attachments)
}

func TestGradeExport(t *testing.T) {
	f := newFixture(t)
	assignment := f.announcement(t, model.AnnouncementAssignment, nil)
	late := f.user(t, "Budi", "budi@example.com", model.RoleStudent)
	_, err := f.services.Class.Join(f.ctx, late, &model.JoinClassRequest{ClassCode: f.class.ClassCode})
	require.NoError(t, err)

	_, err = f.services.Submission.Create(f.ctx, f.student, &model.CreateSubmissionRequest{ClassID: f.class.ID, AnnouncementID: assignment.ID})
	require.NoError(t, err)
	comment := "Bagus"
	_, err = f.services.Grade.Upsert(f.ctx, f.teacher, &model.UpsertGradeRequest{
		ClassID: f.class.ID, AnnouncementID: assignment.ID, StudentID: f.student.ID, Score: floatPtr(92), Comment: &comment,
	})
	require.NoError(t, err)

	req := &model.AnnouncementRequest{ClassID: f.class.ID, AnnouncementID: assignment.ID}
	_, err = f.services.Grade.Export(f.ctx, f.student, req)
	requireHTTPError(t, err, http.StatusForbidden)

	file, err := f.services.Grade.Export(f.ctx, f.teacher, req)
	require.NoError(t, err)
	assert.Equal(t, fmt.Sprintf("grades_%d.xlsx", assignment.ID), file.Name)

	book, err := excelize.OpenReader(bytes.NewReader(file.Data))
	require.NoError(t, err)
	defer book.Close()

	cell := func(axis string) string {
		v, err := book.GetCellValue("Grades", axis)
		require.NoError(t, err)
		return v
	}
	assert.Equal(t, "Matematika: Tugas 1", cell("A1"))
	assert.Equal(t, "Murid", cell("B4"))
	assert.Equal(t, "graded", cell("D4"))
	assert.Equal(t, "92", cell("F4"))
	assert.Equal(t, "Bagus", cell("G4"))
	assert.Equal(t, "Budi", cell("B5"))
	assert.Equal(t, "not submitted", cell("D5"))
	assert.Equal(t, "", cell("F5"))
}
