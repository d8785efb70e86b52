package repository

import (
	"context"
	"fmt"

	"github.com/deppfellow/classroom/internal/model"
	"github.com/deppfellow/classroom/internal/server"

	"github.com/jackc/pgx/v5"
)

const classColumns = `id, name, description, subject, class_code, invite_link, teacher_id, created_at, updated_at, deleted_at`

type ClassRepository struct {
	server *server.Server
}

func NewClassRepository(s *server.Server) *ClassRepository {
	return &ClassRepository{server: s}
}

func (r *ClassRepository) CreateClass(ctx context.Context, class *model.ClassRoom) (*model.ClassRoom, error) {
	stmt := `
		INSERT INTO classes (name, description, subject, class_code, invite_link, teacher_id)
		VALUES (@name, @description, @subject, @class_code, @invite_link, @teacher_id)
		RETURNING ` + classColumns

	return queryOne[model.ClassRoom](ctx, r.server.DB.Pool, "classes", stmt, pgx.NamedArgs{
		"name":        class.Name,
		"description": class.Description,
		"subject":     class.Subject,
		"class_code":  class.ClassCode,
		"invite_link": class.InviteLink,
		"teacher_id":  class.TeacherID,
	})
}

func (r *ClassRepository) GetClassByID(ctx context.Context, id int64) (*model.ClassRoom, error) {
	stmt := `SELECT ` + classColumns + ` FROM classes WHERE id = @id AND deleted_at IS NULL`

	return queryOne[model.ClassRoom](ctx, r.server.DB.Pool, "classes", stmt, pgx.NamedArgs{"id": id})
}

func (r *ClassRepository) GetClassByCode(ctx context.Context, code string) (*model.ClassRoom, error) {
	stmt := `SELECT ` + classColumns + ` FROM classes WHERE class_code = @class_code AND deleted_at IS NULL`

	return queryOne[model.ClassRoom](ctx, r.server.DB.Pool, "classes", stmt, pgx.NamedArgs{"class_code": code})
}

// ClassCodeExists also sees soft-deleted classes, since the code stays
// reserved by the unique constraint.
func (r *ClassRepository) ClassCodeExists(ctx context.Context, code string) (bool, error) {
	var exists bool
	err := r.server.DB.Pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM classes WHERE class_code = @class_code)`,
		pgx.NamedArgs{"class_code": code},
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check class code in table:classes: %w", err)
	}
	return exists, nil
}

func (r *ClassRepository) ListClassesByTeacher(ctx context.Context, teacherID int64) ([]model.ClassRoom, error) {
	stmt := `
		SELECT ` + classColumns + `
		FROM classes
		WHERE teacher_id = @teacher_id AND deleted_at IS NULL
		ORDER BY created_at DESC`

	return queryAll[model.ClassRoom](ctx, r.server.DB.Pool, "classes", stmt, pgx.NamedArgs{"teacher_id": teacherID})
}

func (r *ClassRepository) ListClassesByMember(ctx context.Context, userID int64) ([]model.ClassRoom, error) {
	stmt := `
		SELECT c.id, c.name, c.description, c.subject, c.class_code, c.invite_link,
			c.teacher_id, c.created_at, c.updated_at, c.deleted_at
		FROM classes c
		JOIN class_members m ON m.class_id = c.id
		WHERE m.user_id = @user_id AND c.deleted_at IS NULL
		ORDER BY m.joined_at DESC`

	return queryAll[model.ClassRoom](ctx, r.server.DB.Pool, "classes", stmt, pgx.NamedArgs{"user_id": userID})
}

func (r *ClassRepository) UpdateClass(ctx context.Context, class *model.ClassRoom) (*model.ClassRoom, error) {
	stmt := `
		UPDATE classes
		SET name = @name, description = @description, subject = @subject
		WHERE id = @id AND deleted_at IS NULL
		RETURNING ` + classColumns

	return queryOne[model.ClassRoom](ctx, r.server.DB.Pool, "classes", stmt, pgx.NamedArgs{
		"id":          class.ID,
		"name":        class.Name,
		"description": class.Description,
		"subject":     class.Subject,
	})
}

func (r *ClassRepository) DeleteClass(ctx context.Context, id int64) error {
	stmt := `UPDATE classes SET deleted_at = NOW() WHERE id = @id AND deleted_at IS NULL`

	return execOne(ctx, r.server.DB.Pool, "classes", stmt, pgx.NamedArgs{"id": id})
}

func (r *ClassRepository) IsMember(ctx context.Context, classID, userID int64) (bool, error) {
	var exists bool
	err := r.server.DB.Pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM class_members WHERE class_id = @class_id AND user_id = @user_id)`,
		pgx.NamedArgs{"class_id": classID, "user_id": userID},
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check membership in table:class_members: %w", err)
	}
	return exists, nil
}

func (r *ClassRepository) AddMember(ctx context.Context, classID, userID int64) error {
	stmt := `INSERT INTO class_members (class_id, user_id) VALUES (@class_id, @user_id)`

	_, err := r.server.DB.Pool.Exec(ctx, stmt, pgx.NamedArgs{"class_id": classID, "user_id": userID})
	if err != nil {
		return fmt.Errorf("failed to insert into table:class_members: %w", err)
	}
	return nil
}

type memberRow struct {
	ClassID int64 `db:"class_id"`
	model.User
}

// ListMembers returns the members of every class in classIDs, keyed by class.
func (r *ClassRepository) ListMembers(ctx context.Context, classIDs []int64) (map[int64][]model.User, error) {
	result := make(map[int64][]model.User)
	if len(classIDs) == 0 {
		return result, nil
	}

	stmt := `
		SELECT m.class_id, u.id, u.name, u.email, u.password, u.role,
			u.email_verified_at, u.created_at, u.updated_at
		FROM class_members m
		JOIN users u ON u.id = m.user_id
		WHERE m.class_id = ANY(@class_ids)
		ORDER BY m.joined_at, u.id`

	rows, err := queryAll[memberRow](ctx, r.server.DB.Pool, "class_members", stmt, pgx.NamedArgs{"class_ids": classIDs})
	if err != nil {
		return nil, err
	}

	for _, row := range rows {
		result[row.ClassID] = append(result[row.ClassID], row.User)
	}
	return result, nil
}
