package repository

import (
	"context"

	"github.com/deppfellow/classroom/internal/model"
	"github.com/deppfellow/classroom/internal/server"

	"github.com/jackc/pgx/v5"
)

const commentColumns = `id, announcement_id, user_id, comment, created_at, updated_at, deleted_at`

type CommentRepository struct {
	server *server.Server
}

func NewCommentRepository(s *server.Server) *CommentRepository {
	return &CommentRepository{server: s}
}

func (r *CommentRepository) CreateComment(ctx context.Context, comment *model.Comment) (*model.Comment, error) {
	stmt := `
		INSERT INTO comments (announcement_id, user_id, comment)
		VALUES (@announcement_id, @user_id, @comment)
		RETURNING ` + commentColumns

	return queryOne[model.Comment](ctx, r.server.DB.Pool, "comments", stmt, pgx.NamedArgs{
		"announcement_id": comment.AnnouncementID,
		"user_id":         comment.UserID,
		"comment":         comment.Comment,
	})
}

func (r *CommentRepository) GetComment(ctx context.Context, announcementID, commentID int64) (*model.Comment, error) {
	stmt := `SELECT ` + commentColumns + `
		FROM comments
		WHERE id = @id AND announcement_id = @announcement_id AND deleted_at IS NULL`

	return queryOne[model.Comment](ctx, r.server.DB.Pool, "comments", stmt, pgx.NamedArgs{
		"id":              commentID,
		"announcement_id": announcementID,
	})
}

// ListComments returns live comments oldest first, keyed by announcement.
func (r *CommentRepository) ListComments(ctx context.Context, announcementIDs []int64) (map[int64][]model.Comment, error) {
	if len(announcementIDs) == 0 {
		return map[int64][]model.Comment{}, nil
	}

	stmt := `SELECT ` + commentColumns + `
		FROM comments
		WHERE announcement_id = ANY(@ids) AND deleted_at IS NULL
		ORDER BY created_at, id`

	comments, err := queryAll[model.Comment](ctx, r.server.DB.Pool, "comments", stmt, pgx.NamedArgs{"ids": announcementIDs})
	if err != nil {
		return nil, err
	}
	return groupBy(comments, func(c model.Comment) int64 { return c.AnnouncementID }), nil
}

func (r *CommentRepository) UpdateComment(ctx context.Context, comment *model.Comment) (*model.Comment, error) {
	stmt := `
		UPDATE comments SET comment = @comment
		WHERE id = @id AND deleted_at IS NULL
		RETURNING ` + commentColumns

	return queryOne[model.Comment](ctx, r.server.DB.Pool, "comments", stmt, pgx.NamedArgs{
		"id":      comment.ID,
		"comment": comment.Comment,
	})
}

func (r *CommentRepository) DeleteComment(ctx context.Context, id int64) error {
	stmt := `UPDATE comments SET deleted_at = NOW() WHERE id = @id AND deleted_at IS NULL`

	return execOne(ctx, r.server.DB.Pool, "comments", stmt, pgx.NamedArgs{"id": id})
}
