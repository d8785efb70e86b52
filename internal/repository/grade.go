package repository

import (
	"context"

	"github.com/deppfellow/classroom/internal/model"
	"github.com/deppfellow/classroom/internal/server"

	"github.com/jackc/pgx/v5"
)

const gradeColumns = `id, announcement_id, student_id, score, comment, created_at, updated_at, deleted_at`

type GradeRepository struct {
	server *server.Server
}

func NewGradeRepository(s *server.Server) *GradeRepository {
	return &GradeRepository{server: s}
}

// UpsertGrade writes the grade of a student for an announcement and marks the
// student's submission, if any, as graded.
func (r *GradeRepository) UpsertGrade(ctx context.Context, grade *model.Grade) (*model.Grade, error) {
	stmt := `
		WITH upserted AS (
			INSERT INTO grades (announcement_id, student_id, score, comment)
			VALUES (@announcement_id, @student_id, @score, @comment)
			ON CONFLICT (announcement_id, student_id) WHERE deleted_at IS NULL
			DO UPDATE SET score = EXCLUDED.score, comment = EXCLUDED.comment
			RETURNING ` + gradeColumns + `
		), graded AS (
			UPDATE submissions SET status = 'graded'
			WHERE announcement_id = @announcement_id AND student_id = @student_id AND deleted_at IS NULL
		)
		SELECT ` + gradeColumns + ` FROM upserted`

	return queryOne[model.Grade](ctx, r.server.DB.Pool, "grades", stmt, pgx.NamedArgs{
		"announcement_id": grade.AnnouncementID,
		"student_id":      grade.StudentID,
		"score":           grade.Score,
		"comment":         grade.Comment,
	})
}

func (r *GradeRepository) GetGrade(ctx context.Context, announcementID, gradeID int64) (*model.Grade, error) {
	stmt := `SELECT ` + gradeColumns + `
		FROM grades
		WHERE id = @id AND announcement_id = @announcement_id AND deleted_at IS NULL`

	return queryOne[model.Grade](ctx, r.server.DB.Pool, "grades", stmt, pgx.NamedArgs{
		"id":              gradeID,
		"announcement_id": announcementID,
	})
}

func (r *GradeRepository) GetStudentGrade(ctx context.Context, announcementID, studentID int64) (*model.Grade, error) {
	stmt := `SELECT ` + gradeColumns + `
		FROM grades
		WHERE announcement_id = @announcement_id AND student_id = @student_id AND deleted_at IS NULL`

	return queryOne[model.Grade](ctx, r.server.DB.Pool, "grades", stmt, pgx.NamedArgs{
		"announcement_id": announcementID,
		"student_id":      studentID,
	})
}

func (r *GradeRepository) ListGrades(ctx context.Context, announcementIDs []int64) (map[int64][]model.Grade, error) {
	if len(announcementIDs) == 0 {
		return map[int64][]model.Grade{}, nil
	}

	stmt := `SELECT ` + gradeColumns + `
		FROM grades
		WHERE announcement_id = ANY(@ids) AND deleted_at IS NULL
		ORDER BY id`

	grades, err := queryAll[model.Grade](ctx, r.server.DB.Pool, "grades", stmt, pgx.NamedArgs{"ids": announcementIDs})
	if err != nil {
		return nil, err
	}
	return groupBy(grades, func(g model.Grade) int64 { return g.AnnouncementID }), nil
}

// ListStudentGrades returns the grades of a student on live announcements of a
// class, newest announcement first.
func (r *GradeRepository) ListStudentGrades(ctx context.Context, classID, studentID int64) ([]model.Grade, error) {
	stmt := `
		SELECT g.id, g.announcement_id, g.student_id, g.score, g.comment, g.created_at, g.updated_at, g.deleted_at
		FROM grades g
		JOIN announcements a ON a.id = g.announcement_id
		WHERE a.class_id = @class_id AND a.deleted_at IS NULL
			AND g.student_id = @student_id AND g.deleted_at IS NULL
		ORDER BY a.created_at DESC, g.id`

	return queryAll[model.Grade](ctx, r.server.DB.Pool, "grades", stmt, pgx.NamedArgs{
		"class_id":   classID,
		"student_id": studentID,
	})
}

func (r *GradeRepository) UpdateGrade(ctx context.Context, grade *model.Grade) (*model.Grade, error) {
	stmt := `
		UPDATE grades SET score = @score, comment = @comment
		WHERE id = @id AND deleted_at IS NULL
		RETURNING ` + gradeColumns

	return queryOne[model.Grade](ctx, r.server.DB.Pool, "grades", stmt, pgx.NamedArgs{
		"id":      grade.ID,
		"score":   grade.Score,
		"comment": grade.Comment,
	})
}

// DeleteGrade soft deletes a grade. A graded submission of the same student
// goes back to late or submitted depending on the due date.
func (r *GradeRepository) DeleteGrade(ctx context.Context, announcementID, gradeID int64) error {
	stmt := `
		WITH deleted AS (
			UPDATE grades SET deleted_at = NOW()
			WHERE id = @id AND announcement_id = @announcement_id AND deleted_at IS NULL
			RETURNING announcement_id, student_id
		), reverted AS (
			UPDATE submissions s
			SET status = CASE
				WHEN a.due_date IS NOT NULL AND s.submitted_at > a.due_date THEN 'late'
				ELSE 'submitted'
			END
			FROM deleted d, announcements a
			WHERE s.announcement_id = d.announcement_id AND s.student_id = d.student_id
				AND a.id = d.announcement_id
				AND s.status = 'graded' AND s.deleted_at IS NULL
		)
		SELECT COUNT(*) FROM deleted`

	return countOne(ctx, r.server.DB.Pool, "grades", stmt, pgx.NamedArgs{
		"id":              gradeID,
		"announcement_id": announcementID,
	})
}
