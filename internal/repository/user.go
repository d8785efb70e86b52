package repository

import (
	"context"

	"github.com/deppfellow/classroom/internal/model"
	"github.com/deppfellow/classroom/internal/server"

	"github.com/jackc/pgx/v5"
)

const userColumns = `id, name, email, password, role, email_verified_at, created_at, updated_at`

type UserRepository struct {
	server *server.Server
}

func NewUserRepository(s *server.Server) *UserRepository {
	return &UserRepository{server: s}
}

func (r *UserRepository) CreateUser(ctx context.Context, user *model.User) (*model.User, error) {
	stmt := `
		INSERT INTO users (name, email, password, role)
		VALUES (@name, @email, @password, @role)
		RETURNING ` + userColumns

	return queryOne[model.User](ctx, r.server.DB.Pool, "users", stmt, pgx.NamedArgs{
		"name":     user.Name,
		"email":    user.Email,
		"password": user.Password,
		"role":     string(user.Role),
	})
}

func (r *UserRepository) GetUserByID(ctx context.Context, id int64) (*model.User, error) {
	stmt := `SELECT ` + userColumns + ` FROM users WHERE id = @id`

	return queryOne[model.User](ctx, r.server.DB.Pool, "users", stmt, pgx.NamedArgs{"id": id})
}

func (r *UserRepository) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	stmt := `SELECT ` + userColumns + ` FROM users WHERE email = @email`

	return queryOne[model.User](ctx, r.server.DB.Pool, "users", stmt, pgx.NamedArgs{"email": email})
}

func (r *UserRepository) GetUsersByIDs(ctx context.Context, ids []int64) (map[int64]*model.User, error) {
	result := make(map[int64]*model.User, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	stmt := `SELECT ` + userColumns + ` FROM users WHERE id = ANY(@ids)`

	users, err := queryAll[model.User](ctx, r.server.DB.Pool, "users", stmt, pgx.NamedArgs{"ids": ids})
	if err != nil {
		return nil, err
	}

	for i := range users {
		result[users[i].ID] = &users[i]
	}
	return result, nil
}
