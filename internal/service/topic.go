package service

import (
	"context"

	"github.com/deppfellow/classroom/internal/model"
	"github.com/deppfellow/classroom/internal/server"
)

const topicTeacherOnly = "Only the class teacher can manage topics"

type TopicService struct {
	server        *server.Server
	stores        Stores
	acl           access
	announcements *AnnouncementService
}

func NewTopicService(s *server.Server, stores Stores, acl access, announcements *AnnouncementService) *TopicService {
	return &TopicService{server: s, stores: stores, acl: acl, announcements: announcements}
}

// List returns the topics of a class with their announcements.
func (t *TopicService) List(ctx context.Context, user *model.User, classID int64) ([]model.Topic, error) {
	if _, err := t.acl.requireMember(ctx, classID, user); err != nil {
		return nil, err
	}

	topics, err := t.stores.Topics.ListTopics(ctx, classID)
	if err != nil {
		return nil, err
	}
	if topics == nil {
		return []model.Topic{}, nil
	}

	ids := make([]int64, len(topics))
	for i := range topics {
		ids[i] = topics[i].ID
	}
	announcements, err := t.stores.Announcements.ListAnnouncementsByTopics(ctx, ids)
	if err != nil {
		return nil, err
	}
	if len(announcements) > 0 {
		if err := t.announcements.hydrate(ctx, announcements); err != nil {
			return nil, err
		}
	}

	byTopic := make(map[int64][]model.Announcement)
	for _, a := range announcements {
		byTopic[*a.TopicID] = append(byTopic[*a.TopicID], a)
	}
	for i := range topics {
		topics[i].Announcements = byTopic[topics[i].ID]
		if topics[i].Announcements == nil {
			topics[i].Announcements = []model.Announcement{}
		}
	}
	return topics, nil
}

func (t *TopicService) Create(ctx context.Context, user *model.User, req *model.CreateTopicRequest) (*model.Topic, error) {
	if _, err := t.acl.requireTeacher(ctx, req.ClassID, user, topicTeacherOnly); err != nil {
		return nil, err
	}

	return t.stores.Topics.CreateTopic(ctx, &model.Topic{ClassID: req.ClassID, Name: req.Name})
}

func (t *TopicService) Update(ctx context.Context, user *model.User, req *model.UpdateTopicRequest) (*model.Topic, error) {
	if _, err := t.acl.requireTeacher(ctx, req.ClassID, user, topicTeacherOnly); err != nil {
		return nil, err
	}

	topic, err := t.stores.Topics.UpdateTopic(ctx, &model.Topic{ID: req.TopicID, ClassID: req.ClassID, Name: req.Name})
	if err != nil {
		return nil, notFoundAs(err, errTopicNotFound)
	}
	return topic, nil
}

// Delete removes the topic; its announcements stay in the class without a
// topic.
func (t *TopicService) Delete(ctx context.Context, user *model.User, req *model.TopicRequest) error {
	if _, err := t.acl.requireTeacher(ctx, req.ClassID, user, topicTeacherOnly); err != nil {
		return err
	}

	return notFoundAs(t.stores.Topics.DeleteTopic(ctx, req.ClassID, req.TopicID), errTopicNotFound)
}
