package service

import (
	"context"
	"errors"

	"github.com/deppfellow/classroom/internal/errs"
	"github.com/deppfellow/classroom/internal/lib/storage"
	"github.com/deppfellow/classroom/internal/model"
	"github.com/deppfellow/classroom/internal/server"

	"github.com/jackc/pgx/v5"
)

const announcementTeacherOnly = "Only the class teacher can manage announcements"

type AnnouncementService struct {
	server *server.Server
	stores Stores
	acl    access
	files  *uploader
}

func NewAnnouncementService(s *server.Server, stores Stores, acl access, files *uploader) *AnnouncementService {
	return &AnnouncementService{server: s, stores: stores, acl: acl, files: files}
}

// List returns the announcements of a class, newest first, with their
// teacher, topic, attachments and comments.
func (a *AnnouncementService) List(ctx context.Context, user *model.User, classID int64) ([]model.Announcement, error) {
	if _, err := a.acl.requireMember(ctx, classID, user); err != nil {
		return nil, err
	}

	announcements, err := a.stores.Announcements.ListAnnouncements(ctx, classID)
	if err != nil {
		return nil, err
	}
	if announcements == nil {
		return []model.Announcement{}, nil
	}
	if err := a.hydrate(ctx, announcements); err != nil {
		return nil, err
	}
	return announcements, nil
}

// hydrate fills the relations shown alongside an announcement.
func (a *AnnouncementService) hydrate(ctx context.Context, announcements []model.Announcement) error {
	ids := make([]int64, len(announcements))
	var teacherIDs, topicIDs []int64
	for i, ann := range announcements {
		ids[i] = ann.ID
		teacherIDs = append(teacherIDs, ann.TeacherID)
		if ann.TopicID != nil {
			topicIDs = append(topicIDs, *ann.TopicID)
		}
	}

	topics, err := a.stores.Topics.GetTopicsByIDs(ctx, topicIDs)
	if err != nil {
		return err
	}
	attachments, err := a.stores.Announcements.ListAttachments(ctx, ids)
	if err != nil {
		return err
	}
	comments, err := a.stores.Comments.ListComments(ctx, ids)
	if err != nil {
		return err
	}
	for _, list := range comments {
		for _, c := range list {
			teacherIDs = append(teacherIDs, c.UserID)
		}
	}
	users, err := a.stores.Users.GetUsersByIDs(ctx, teacherIDs)
	if err != nil {
		return err
	}

	for i := range announcements {
		ann := &announcements[i]
		ann.Teacher = users[ann.TeacherID]
		if ann.TopicID != nil {
			ann.Topic = topics[*ann.TopicID]
		}

		ann.Attachments = a.withURLs(attachments[ann.ID])

		ann.Comments = comments[ann.ID]
		if ann.Comments == nil {
			ann.Comments = []model.Comment{}
		}
		for j := range ann.Comments {
			ann.Comments[j].User = users[ann.Comments[j].UserID]
		}
	}
	return nil
}

func (a *AnnouncementService) withURLs(attachments []model.Attachment) []model.Attachment {
	if attachments == nil {
		return []model.Attachment{}
	}
	for i := range attachments {
		attachments[i].URL = a.files.url(attachments[i].FilePath)
	}
	return attachments
}

// checkTopic verifies that topicID belongs to the class.
func (a *AnnouncementService) checkTopic(ctx context.Context, classID int64, topicID *int64) error {
	if topicID == nil {
		return nil
	}
	if _, err := a.stores.Topics.GetTopic(ctx, classID, *topicID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return errs.FieldInvalid("topic_id", "The selected topic is invalid")
		}
		return err
	}
	return nil
}

func (a *AnnouncementService) Create(ctx context.Context, user *model.User, req *model.CreateAnnouncementRequest) (*model.Announcement, error) {
	logger := loggerFrom(ctx, a.server.Logger)

	if _, err := a.acl.requireTeacher(ctx, req.ClassID, user, "Only the class teacher can create announcements"); err != nil {
		return nil, err
	}
	if err := a.checkTopic(ctx, req.ClassID, req.TopicID); err != nil {
		return nil, err
	}
	if err := a.files.validate("attachments", req.Attachments, true); err != nil {
		return nil, err
	}

	allowComments := true
	if req.AllowComments != nil {
		allowComments = *req.AllowComments
	}

	stored := a.files.storeAll(ctx, logger, storage.AttachmentsDir, req.Attachments)

	created, err := a.stores.Announcements.CreateAnnouncement(ctx, &model.Announcement{
		ClassID:       req.ClassID,
		TeacherID:     user.ID,
		TopicID:       req.TopicID,
		Type:          req.Type,
		Title:         req.Title,
		Description:   req.Description,
		DueDate:       req.DueDate,
		AllowComments: allowComments,
	}, stored)
	if err != nil {
		keys := make([]string, len(stored))
		for i, f := range stored {
			keys[i] = f.FilePath
		}
		a.files.remove(ctx, logger, keys...)
		return nil, err
	}

	logger.Info().
		Int64("class_id", req.ClassID).
		Int64("announcement_id", created.ID).
		Int("attachments", len(stored)).
		Msg("announcement created")

	announcements := []model.Announcement{*created}
	if err := a.hydrate(ctx, announcements); err != nil {
		return nil, err
	}
	return &announcements[0], nil
}

// Get returns one announcement with its relations and grades.
func (a *AnnouncementService) Get(ctx context.Context, user *model.User, req *model.AnnouncementRequest) (*model.Announcement, error) {
	if _, err := a.acl.requireMember(ctx, req.ClassID, user); err != nil {
		return nil, err
	}

	ann, err := a.stores.Announcements.GetAnnouncement(ctx, req.ClassID, req.AnnouncementID)
	if err != nil {
		return nil, notFoundAs(err, errAnnouncementNotFound)
	}

	announcements := []model.Announcement{*ann}
	if err := a.hydrate(ctx, announcements); err != nil {
		return nil, err
	}
	result := &announcements[0]

	grades, err := a.stores.Grades.ListGrades(ctx, []int64{ann.ID})
	if err != nil {
		return nil, err
	}
	result.Grades, err = withStudents(ctx, a.stores.Users, grades[ann.ID])
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (a *AnnouncementService) Update(ctx context.Context, user *model.User, req *model.UpdateAnnouncementRequest) (*model.Announcement, error) {
	if _, err := a.acl.requireTeacher(ctx, req.ClassID, user, announcementTeacherOnly); err != nil {
		return nil, err
	}

	ann, err := a.stores.Announcements.GetAnnouncement(ctx, req.ClassID, req.AnnouncementID)
	if err != nil {
		return nil, notFoundAs(err, errAnnouncementNotFound)
	}

	if req.TopicID != nil {
		if err := a.checkTopic(ctx, req.ClassID, req.TopicID); err != nil {
			return nil, err
		}
		ann.TopicID = req.TopicID
	}
	if req.Type != nil {
		ann.Type = *req.Type
	}
	if req.Title != nil {
		ann.Title = *req.Title
	}
	if req.Description != nil {
		ann.Description = req.Description
	}
	if req.AllowComments != nil {
		ann.AllowComments = *req.AllowComments
	}
	if req.DueDate != nil {
		ann.DueDate = req.DueDate
	}

	updated, err := a.stores.Announcements.UpdateAnnouncement(ctx, ann)
	if err != nil {
		return nil, notFoundAs(err, errAnnouncementNotFound)
	}

	announcements := []model.Announcement{*updated}
	if err := a.hydrate(ctx, announcements); err != nil {
		return nil, err
	}
	return &announcements[0], nil
}

// Delete soft deletes the announcement and removes attachment files that no
// live announcement references anymore.
func (a *AnnouncementService) Delete(ctx context.Context, user *model.User, req *model.AnnouncementRequest) error {
	logger := loggerFrom(ctx, a.server.Logger)

	if _, err := a.acl.requireTeacher(ctx, req.ClassID, user, announcementTeacherOnly); err != nil {
		return err
	}

	attachments, err := a.stores.Announcements.ListAttachments(ctx, []int64{req.AnnouncementID})
	if err != nil {
		return err
	}

	if err := a.stores.Announcements.DeleteAnnouncement(ctx, req.ClassID, req.AnnouncementID); err != nil {
		return notFoundAs(err, errAnnouncementNotFound)
	}

	for _, att := range attachments[req.AnnouncementID] {
		refs, err := a.stores.Announcements.CountAttachmentsByPath(ctx, att.FilePath)
		if err != nil {
			logger.Error().Err(err).Str("file_path", att.FilePath).Msg("failed to count attachment references")
			continue
		}
		if refs == 0 {
			a.files.remove(ctx, logger, att.FilePath)
		}
	}

	logger.Info().Int64("announcement_id", req.AnnouncementID).Msg("announcement deleted")
	return nil
}

// Reuse copies an announcement the user teaches into the class of the
// request. Attachment rows are copied and point at the same stored files.
func (a *AnnouncementService) Reuse(ctx context.Context, user *model.User, req *model.AnnouncementRequest) (*model.Announcement, error) {
	if _, err := a.acl.requireTeacher(ctx, req.ClassID, user, announcementTeacherOnly); err != nil {
		return nil, err
	}

	source, err := a.stores.Announcements.GetAnnouncementByID(ctx, req.AnnouncementID)
	if err != nil {
		return nil, notFoundAs(err, errAnnouncementNotFound)
	}
	if _, err := a.acl.requireTeacher(ctx, source.ClassID, user, "You can only reuse announcements from your own classes"); err != nil {
		if errors.Is(err, errClassNotFound) {
			return nil, errAnnouncementNotFound
		}
		return nil, err
	}

	copied := *source
	copied.ClassID = req.ClassID
	copied.TeacherID = user.ID
	copied.IsReused = true
	if source.ClassID != req.ClassID {
		copied.TopicID = nil
	}

	created, err := a.stores.Announcements.ReuseAnnouncement(ctx, source.ID, &copied)
	if err != nil {
		return nil, err
	}

	loggerFrom(ctx, a.server.Logger).Info().
		Int64("source_id", source.ID).
		Int64("announcement_id", created.ID).
		Int64("class_id", req.ClassID).
		Msg("announcement reused")

	announcements := []model.Announcement{*created}
	if err := a.hydrate(ctx, announcements); err != nil {
		return nil, err
	}
	return &announcements[0], nil
}

func (a *AnnouncementService) AddToTopic(ctx context.Context, user *model.User, req *model.AddToTopicRequest) (*model.Announcement, error) {
	if _, err := a.acl.requireTeacher(ctx, req.ClassID, user, announcementTeacherOnly); err != nil {
		return nil, err
	}

	ann, err := a.stores.Announcements.GetAnnouncement(ctx, req.ClassID, req.AnnouncementID)
	if err != nil {
		return nil, notFoundAs(err, errAnnouncementNotFound)
	}
	if err := a.checkTopic(ctx, req.ClassID, &req.TopicID); err != nil {
		return nil, err
	}

	topicID := req.TopicID
	ann.TopicID = &topicID
	updated, err := a.stores.Announcements.UpdateAnnouncement(ctx, ann)
	if err != nil {
		return nil, notFoundAs(err, errAnnouncementNotFound)
	}

	announcements := []model.Announcement{*updated}
	if err := a.hydrate(ctx, announcements); err != nil {
		return nil, err
	}
	return &announcements[0], nil
}

// withStudents attaches the student to each grade.
func withStudents(ctx context.Context, users UserStore, grades []model.Grade) ([]model.Grade, error) {
	if grades == nil {
		return []model.Grade{}, nil
	}

	ids := make([]int64, len(grades))
	for i := range grades {
		ids[i] = grades[i].StudentID
	}
	students, err := users.GetUsersByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range grades {
		grades[i].Student = students[grades[i].StudentID]
	}
	return grades, nil
}
