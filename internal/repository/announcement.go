package repository

import (
	"context"
	"fmt"

	"github.com/deppfellow/classroom/internal/model"
	"github.com/deppfellow/classroom/internal/server"

	"github.com/jackc/pgx/v5"
)

const announcementColumns = `id, class_id, teacher_id, topic_id, type, title, description, due_date,
	allow_comments, is_reused, created_at, updated_at, deleted_at`

const attachmentColumns = `id, announcement_id, file_name, file_path, file_type, file_size, created_at`

type AnnouncementRepository struct {
	server *server.Server
}

func NewAnnouncementRepository(s *server.Server) *AnnouncementRepository {
	return &AnnouncementRepository{server: s}
}

func insertAnnouncement(ctx context.Context, q querier, a *model.Announcement) (*model.Announcement, error) {
	stmt := `
		INSERT INTO announcements (class_id, teacher_id, topic_id, type, title, description, due_date, allow_comments, is_reused)
		VALUES (@class_id, @teacher_id, @topic_id, @type, @title, @description, @due_date, @allow_comments, @is_reused)
		RETURNING ` + announcementColumns

	return queryOne[model.Announcement](ctx, q, "announcements", stmt, pgx.NamedArgs{
		"class_id":       a.ClassID,
		"teacher_id":     a.TeacherID,
		"topic_id":       a.TopicID,
		"type":           string(a.Type),
		"title":          a.Title,
		"description":    a.Description,
		"due_date":       a.DueDate,
		"allow_comments": a.AllowComments,
		"is_reused":      a.IsReused,
	})
}

// CreateAnnouncement inserts the announcement and its attachment rows in one
// transaction.
func (r *AnnouncementRepository) CreateAnnouncement(ctx context.Context, a *model.Announcement, files []model.StoredFile) (*model.Announcement, error) {
	tx, err := r.server.DB.Pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	created, err := insertAnnouncement(ctx, tx, a)
	if err != nil {
		return nil, err
	}

	if len(files) > 0 {
		stmt := `
			INSERT INTO attachments (announcement_id, file_name, file_path, file_type, file_size)
			SELECT @announcement_id, f.file_name, f.file_path, f.file_type, f.file_size
			FROM unnest(@names::text[], @paths::text[], @types::text[], @sizes::bigint[])
				AS f(file_name, file_path, file_type, file_size)
			RETURNING ` + attachmentColumns

		args := storedFileArgs(files)
		args["announcement_id"] = created.ID

		attachments, err := queryAll[model.Attachment](ctx, tx, "attachments", stmt, args)
		if err != nil {
			return nil, err
		}
		created.Attachments = attachments
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit announcement: %w", err)
	}
	return created, nil
}

// ReuseAnnouncement inserts a copy of a and duplicates the attachment rows of
// the source announcement, pointing at the same stored files.
func (r *AnnouncementRepository) ReuseAnnouncement(ctx context.Context, sourceID int64, a *model.Announcement) (*model.Announcement, error) {
	tx, err := r.server.DB.Pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	created, err := insertAnnouncement(ctx, tx, a)
	if err != nil {
		return nil, err
	}

	stmt := `
		INSERT INTO attachments (announcement_id, file_name, file_path, file_type, file_size)
		SELECT @target_id, file_name, file_path, file_type, file_size
		FROM attachments
		WHERE announcement_id = @source_id
		ORDER BY id
		RETURNING ` + attachmentColumns

	attachments, err := queryAll[model.Attachment](ctx, tx, "attachments", stmt, pgx.NamedArgs{
		"target_id": created.ID,
		"source_id": sourceID,
	})
	if err != nil {
		return nil, err
	}
	created.Attachments = attachments

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit reused announcement: %w", err)
	}
	return created, nil
}

func (r *AnnouncementRepository) GetAnnouncement(ctx context.Context, classID, id int64) (*model.Announcement, error) {
	stmt := `SELECT ` + announcementColumns + `
		FROM announcements
		WHERE id = @id AND class_id = @class_id AND deleted_at IS NULL`

	return queryOne[model.Announcement](ctx, r.server.DB.Pool, "announcements", stmt, pgx.NamedArgs{"id": id, "class_id": classID})
}

func (r *AnnouncementRepository) GetAnnouncementByID(ctx context.Context, id int64) (*model.Announcement, error) {
	stmt := `SELECT ` + announcementColumns + ` FROM announcements WHERE id = @id AND deleted_at IS NULL`

	return queryOne[model.Announcement](ctx, r.server.DB.Pool, "announcements", stmt, pgx.NamedArgs{"id": id})
}

func (r *AnnouncementRepository) ListAnnouncements(ctx context.Context, classID int64) ([]model.Announcement, error) {
	stmt := `SELECT ` + announcementColumns + `
		FROM announcements
		WHERE class_id = @class_id AND deleted_at IS NULL
		ORDER BY created_at DESC, id DESC`

	return queryAll[model.Announcement](ctx, r.server.DB.Pool, "announcements", stmt, pgx.NamedArgs{"class_id": classID})
}

func (r *AnnouncementRepository) ListAnnouncementsByTopics(ctx context.Context, topicIDs []int64) ([]model.Announcement, error) {
	if len(topicIDs) == 0 {
		return nil, nil
	}

	stmt := `SELECT ` + announcementColumns + `
		FROM announcements
		WHERE topic_id = ANY(@topic_ids) AND deleted_at IS NULL
		ORDER BY created_at DESC, id DESC`

	return queryAll[model.Announcement](ctx, r.server.DB.Pool, "announcements", stmt, pgx.NamedArgs{"topic_ids": topicIDs})
}

func (r *AnnouncementRepository) UpdateAnnouncement(ctx context.Context, a *model.Announcement) (*model.Announcement, error) {
	stmt := `
		UPDATE announcements
		SET topic_id = @topic_id, type = @type, title = @title, description = @description,
			due_date = @due_date, allow_comments = @allow_comments
		WHERE id = @id AND class_id = @class_id AND deleted_at IS NULL
		RETURNING ` + announcementColumns

	return queryOne[model.Announcement](ctx, r.server.DB.Pool, "announcements", stmt, pgx.NamedArgs{
		"id":             a.ID,
		"class_id":       a.ClassID,
		"topic_id":       a.TopicID,
		"type":           string(a.Type),
		"title":          a.Title,
		"description":    a.Description,
		"due_date":       a.DueDate,
		"allow_comments": a.AllowComments,
	})
}

func (r *AnnouncementRepository) DeleteAnnouncement(ctx context.Context, classID, id int64) error {
	stmt := `UPDATE announcements SET deleted_at = NOW() WHERE id = @id AND class_id = @class_id AND deleted_at IS NULL`

	return execOne(ctx, r.server.DB.Pool, "announcements", stmt, pgx.NamedArgs{"id": id, "class_id": classID})
}

func (r *AnnouncementRepository) ListAttachments(ctx context.Context, announcementIDs []int64) (map[int64][]model.Attachment, error) {
	if len(announcementIDs) == 0 {
		return map[int64][]model.Attachment{}, nil
	}

	stmt := `SELECT ` + attachmentColumns + `
		FROM attachments
		WHERE announcement_id = ANY(@ids)
		ORDER BY id`

	attachments, err := queryAll[model.Attachment](ctx, r.server.DB.Pool, "attachments", stmt, pgx.NamedArgs{"ids": announcementIDs})
	if err != nil {
		return nil, err
	}
	return groupBy(attachments, func(a model.Attachment) int64 { return a.AnnouncementID }), nil
}

// CountAttachmentsByPath counts attachment rows of live announcements that
// reference filePath.
func (r *AnnouncementRepository) CountAttachmentsByPath(ctx context.Context, filePath string) (int64, error) {
	var count int64
	err := r.server.DB.Pool.QueryRow(ctx, `
		SELECT COUNT(*)
		FROM attachments at
		JOIN announcements a ON a.id = at.announcement_id
		WHERE at.file_path = @file_path AND a.deleted_at IS NULL`,
		pgx.NamedArgs{"file_path": filePath},
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count references in table:attachments: %w", err)
	}
	return count, nil
}

func storedFileArgs(files []model.StoredFile) pgx.NamedArgs {
	names := make([]string, len(files))
	paths := make([]string, len(files))
	types := make([]string, len(files))
	sizes := make([]int64, len(files))
	for i, f := range files {
		names[i] = f.FileName
		paths[i] = f.FilePath
		types[i] = f.FileType
		sizes[i] = f.FileSize
	}
	return pgx.NamedArgs{"names": names, "paths": paths, "types": types, "sizes": sizes}
}
