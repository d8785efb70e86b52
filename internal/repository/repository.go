// Package repository runs the SQL and Redis commands behind the services.
//
// Lookups that find nothing return an error wrapping pgx.ErrNoRows whose
// message names the table, e.g. "failed to collect row from table:classes".
package repository

import (
	"context"
	"fmt"

	"github.com/deppfellow/classroom/internal/server"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

type Repositories struct {
	User         *UserRepository
	Class        *ClassRepository
	Topic        *TopicRepository
	Announcement *AnnouncementRepository
	Comment      *CommentRepository
	Grade        *GradeRepository
	Submission   *SubmissionRepository
	Session      *SessionRepository
	RateLimit    *RateLimitRepository
}

func NewRepositories(s *server.Server) *Repositories {
	return &Repositories{
		User:         NewUserRepository(s),
		Class:        NewClassRepository(s),
		Topic:        NewTopicRepository(s),
		Announcement: NewAnnouncementRepository(s),
		Comment:      NewCommentRepository(s),
		Grade:        NewGradeRepository(s),
		Submission:   NewSubmissionRepository(s),
		Session:      NewSessionRepository(s),
		RateLimit:    NewRateLimitRepository(s),
	}
}

// querier is satisfied by both the pool and a transaction.
type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

func queryOne[T any](ctx context.Context, q querier, table, stmt string, args pgx.NamedArgs) (*T, error) {
	rows, err := q.Query(ctx, stmt, args)
	if err != nil {
		return nil, fmt.Errorf("failed to execute query on table:%s: %w", table, err)
	}

	item, err := pgx.CollectOneRow(rows, pgx.RowToStructByName[T])
	if err != nil {
		return nil, fmt.Errorf("failed to collect row from table:%s: %w", table, err)
	}

	return &item, nil
}

func queryAll[T any](ctx context.Context, q querier, table, stmt string, args pgx.NamedArgs) ([]T, error) {
	rows, err := q.Query(ctx, stmt, args)
	if err != nil {
		return nil, fmt.Errorf("failed to execute query on table:%s: %w", table, err)
	}

	items, err := pgx.CollectRows(rows, pgx.RowToStructByName[T])
	if err != nil {
		return nil, fmt.Errorf("failed to collect rows from table:%s: %w", table, err)
	}

	return items, nil
}

// execOne runs stmt and reports pgx.ErrNoRows when nothing was affected.
func execOne(ctx context.Context, q querier, table, stmt string, args pgx.NamedArgs) error {
	tag, err := q.Exec(ctx, stmt, args)
	if err != nil {
		return fmt.Errorf("failed to execute statement on table:%s: %w", table, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("no row affected in table:%s: %w", table, pgx.ErrNoRows)
	}
	return nil
}

// countOne scans a single COUNT result and maps zero to pgx.ErrNoRows.
func countOne(ctx context.Context, q querier, table, stmt string, args pgx.NamedArgs) error {
	var affected int64
	if err := q.QueryRow(ctx, stmt, args).Scan(&affected); err != nil {
		return fmt.Errorf("failed to execute statement on table:%s: %w", table, err)
	}
	if affected == 0 {
		return fmt.Errorf("no row affected in table:%s: %w", table, pgx.ErrNoRows)
	}
	return nil
}

func groupBy[T any](items []T, key func(T) int64) map[int64][]T {
	grouped := make(map[int64][]T)
	for _, item := range items {
		k := key(item)
		grouped[k] = append(grouped[k], item)
	}
	return grouped
}
