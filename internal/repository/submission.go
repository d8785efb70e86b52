package repository

import (
	"context"
	"fmt"

	"github.com/deppfellow/classroom/internal/model"
	"github.com/deppfellow/classroom/internal/server"

	"github.com/jackc/pgx/v5"
)

const submissionColumns = `id, announcement_id, student_id, text_content, status, submitted_at, created_at, updated_at, deleted_at`

const submissionAttachmentColumns = `id, submission_id, file_name, file_path, file_type, file_size, created_at`

type SubmissionRepository struct {
	server *server.Server
}

func NewSubmissionRepository(s *server.Server) *SubmissionRepository {
	return &SubmissionRepository{server: s}
}

// CreateSubmission inserts the submission and its attachment rows in a single
// transaction. Nothing is written when any insert fails.
func (r *SubmissionRepository) CreateSubmission(ctx context.Context, sub *model.Submission, files []model.StoredFile) (*model.Submission, error) {
	tx, err := r.server.DB.Pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	stmt := `
		INSERT INTO submissions (announcement_id, student_id, text_content, status, submitted_at)
		VALUES (@announcement_id, @student_id, @text_content, @status, @submitted_at)
		RETURNING ` + submissionColumns

	created, err := queryOne[model.Submission](ctx, tx, "submissions", stmt, pgx.NamedArgs{
		"announcement_id": sub.AnnouncementID,
		"student_id":      sub.StudentID,
		"text_content":    sub.TextContent,
		"status":          string(sub.Status),
		"submitted_at":    sub.SubmittedAt,
	})
	if err != nil {
		return nil, err
	}

	created.Attachments = []model.SubmissionAttachment{}
	if len(files) > 0 {
		stmt := `
			INSERT INTO submission_attachments (submission_id, file_name, file_path, file_type, file_size)
			SELECT @submission_id, f.file_name, f.file_path, f.file_type, f.file_size
			FROM unnest(@names::text[], @paths::text[], @types::text[], @sizes::bigint[])
				AS f(file_name, file_path, file_type, file_size)
			RETURNING ` + submissionAttachmentColumns

		args := storedFileArgs(files)
		args["submission_id"] = created.ID

		attachments, err := queryAll[model.SubmissionAttachment](ctx, tx, "submission_attachments", stmt, args)
		if err != nil {
			return nil, err
		}
		created.Attachments = attachments
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit submission: %w", err)
	}
	return created, nil
}

func (r *SubmissionRepository) GetSubmission(ctx context.Context, announcementID, id int64) (*model.Submission, error) {
	stmt := `SELECT ` + submissionColumns + `
		FROM submissions
		WHERE id = @id AND announcement_id = @announcement_id AND deleted_at IS NULL`

	return queryOne[model.Submission](ctx, r.server.DB.Pool, "submissions", stmt, pgx.NamedArgs{
		"id":              id,
		"announcement_id": announcementID,
	})
}

func (r *SubmissionRepository) GetStudentSubmission(ctx context.Context, announcementID, studentID int64) (*model.Submission, error) {
	stmt := `SELECT ` + submissionColumns + `
		FROM submissions
		WHERE announcement_id = @announcement_id AND student_id = @student_id AND deleted_at IS NULL`

	return queryOne[model.Submission](ctx, r.server.DB.Pool, "submissions", stmt, pgx.NamedArgs{
		"announcement_id": announcementID,
		"student_id":      studentID,
	})
}

func (r *SubmissionRepository) ListSubmissions(ctx context.Context, announcementID int64) ([]model.Submission, error) {
	stmt := `SELECT ` + submissionColumns + `
		FROM submissions
		WHERE announcement_id = @announcement_id AND deleted_at IS NULL
		ORDER BY submitted_at DESC, id DESC`

	return queryAll[model.Submission](ctx, r.server.DB.Pool, "submissions", stmt, pgx.NamedArgs{"announcement_id": announcementID})
}

func (r *SubmissionRepository) UpdateSubmission(ctx context.Context, sub *model.Submission) (*model.Submission, error) {
	stmt := `
		UPDATE submissions SET text_content = @text_content
		WHERE id = @id AND deleted_at IS NULL
		RETURNING ` + submissionColumns

	return queryOne[model.Submission](ctx, r.server.DB.Pool, "submissions", stmt, pgx.NamedArgs{
		"id":           sub.ID,
		"text_content": sub.TextContent,
	})
}

// DeleteSubmission soft deletes the submission and drops its attachment rows.
func (r *SubmissionRepository) DeleteSubmission(ctx context.Context, id int64) error {
	stmt := `
		WITH deleted AS (
			UPDATE submissions SET deleted_at = NOW()
			WHERE id = @id AND deleted_at IS NULL
			RETURNING id
		), files AS (
			DELETE FROM submission_attachments
			WHERE submission_id IN (SELECT id FROM deleted)
		)
		SELECT COUNT(*) FROM deleted`

	return countOne(ctx, r.server.DB.Pool, "submissions", stmt, pgx.NamedArgs{"id": id})
}

func (r *SubmissionRepository) AddSubmissionAttachment(ctx context.Context, submissionID int64, file model.StoredFile) (*model.SubmissionAttachment, error) {
	stmt := `
		INSERT INTO submission_attachments (submission_id, file_name, file_path, file_type, file_size)
		VALUES (@submission_id, @file_name, @file_path, @file_type, @file_size)
		RETURNING ` + submissionAttachmentColumns

	return queryOne[model.SubmissionAttachment](ctx, r.server.DB.Pool, "submission_attachments", stmt, pgx.NamedArgs{
		"submission_id": submissionID,
		"file_name":     file.FileName,
		"file_path":     file.FilePath,
		"file_type":     file.FileType,
		"file_size":     file.FileSize,
	})
}

func (r *SubmissionRepository) GetSubmissionAttachment(ctx context.Context, submissionID, fileID int64) (*model.SubmissionAttachment, error) {
	stmt := `SELECT ` + submissionAttachmentColumns + `
		FROM submission_attachments
		WHERE id = @id AND submission_id = @submission_id`

	return queryOne[model.SubmissionAttachment](ctx, r.server.DB.Pool, "submission_attachments", stmt, pgx.NamedArgs{
		"id":            fileID,
		"submission_id": submissionID,
	})
}

func (r *SubmissionRepository) DeleteSubmissionAttachment(ctx context.Context, id int64) error {
	return execOne(ctx, r.server.DB.Pool, "submission_attachments",
		`DELETE FROM submission_attachments WHERE id = @id`, pgx.NamedArgs{"id": id})
}

func (r *SubmissionRepository) ListSubmissionAttachments(ctx context.Context, submissionIDs []int64) (map[int64][]model.SubmissionAttachment, error) {
	if len(submissionIDs) == 0 {
		return map[int64][]model.SubmissionAttachment{}, nil
	}

	stmt := `SELECT ` + submissionAttachmentColumns + `
		FROM submission_attachments
		WHERE submission_id = ANY(@ids)
		ORDER BY id`

	attachments, err := queryAll[model.SubmissionAttachment](ctx, r.server.DB.Pool, "submission_attachments", stmt, pgx.NamedArgs{"ids": submissionIDs})
	if err != nil {
		return nil, err
	}
	return groupBy(attachments, func(a model.SubmissionAttachment) int64 { return a.SubmissionID }), nil
}
