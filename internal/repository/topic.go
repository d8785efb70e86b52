package repository

import (
	"context"

	"github.com/deppfellow/classroom/internal/model"
	"github.com/deppfellow/classroom/internal/server"

	"github.com/jackc/pgx/v5"
)

const topicColumns = `id, class_id, name, created_at, updated_at, deleted_at`

type TopicRepository struct {
	server *server.Server
}

func NewTopicRepository(s *server.Server) *TopicRepository {
	return &TopicRepository{server: s}
}

func (r *TopicRepository) CreateTopic(ctx context.Context, topic *model.Topic) (*model.Topic, error) {
	stmt := `
		INSERT INTO topics (class_id, name)
		VALUES (@class_id, @name)
		RETURNING ` + topicColumns

	return queryOne[model.Topic](ctx, r.server.DB.Pool, "topics", stmt, pgx.NamedArgs{
		"class_id": topic.ClassID,
		"name":     topic.Name,
	})
}

func (r *TopicRepository) GetTopic(ctx context.Context, classID, topicID int64) (*model.Topic, error) {
	stmt := `SELECT ` + topicColumns + ` FROM topics WHERE id = @id AND class_id = @class_id AND deleted_at IS NULL`

	return queryOne[model.Topic](ctx, r.server.DB.Pool, "topics", stmt, pgx.NamedArgs{"id": topicID, "class_id": classID})
}

func (r *TopicRepository) ListTopics(ctx context.Context, classID int64) ([]model.Topic, error) {
	stmt := `
		SELECT ` + topicColumns + `
		FROM topics
		WHERE class_id = @class_id AND deleted_at IS NULL
		ORDER BY created_at, id`

	return queryAll[model.Topic](ctx, r.server.DB.Pool, "topics", stmt, pgx.NamedArgs{"class_id": classID})
}

func (r *TopicRepository) GetTopicsByIDs(ctx context.Context, ids []int64) (map[int64]*model.Topic, error) {
	result := make(map[int64]*model.Topic, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	stmt := `SELECT ` + topicColumns + ` FROM topics WHERE id = ANY(@ids) AND deleted_at IS NULL`

	topics, err := queryAll[model.Topic](ctx, r.server.DB.Pool, "topics", stmt, pgx.NamedArgs{"ids": ids})
	if err != nil {
		return nil, err
	}
	for i := range topics {
		result[topics[i].ID] = &topics[i]
	}
	return result, nil
}

func (r *TopicRepository) UpdateTopic(ctx context.Context, topic *model.Topic) (*model.Topic, error) {
	stmt := `
		UPDATE topics SET name = @name
		WHERE id = @id AND class_id = @class_id AND deleted_at IS NULL
		RETURNING ` + topicColumns

	return queryOne[model.Topic](ctx, r.server.DB.Pool, "topics", stmt, pgx.NamedArgs{
		"id":       topic.ID,
		"class_id": topic.ClassID,
		"name":     topic.Name,
	})
}

// DeleteTopic soft deletes the topic and detaches its announcements.
func (r *TopicRepository) DeleteTopic(ctx context.Context, classID, topicID int64) error {
	stmt := `
		WITH deleted AS (
			UPDATE topics SET deleted_at = NOW()
			WHERE id = @id AND class_id = @class_id AND deleted_at IS NULL
			RETURNING id
		), detached AS (
			UPDATE announcements SET topic_id = NULL
			WHERE topic_id IN (SELECT id FROM deleted)
		)
		SELECT COUNT(*) FROM deleted`

	return countOne(ctx, r.server.DB.Pool, "topics", stmt, pgx.NamedArgs{"id": topicID, "class_id": classID})
}
