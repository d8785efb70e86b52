// Package service contains the business logic.
//
// It sits between the handler and repository layers. It receives validated
// requests from the handlers, enforces the role and ownership rules of the
// classroom and calls the stores to read and write data.
package service

import (
	"github.com/deppfellow/classroom/internal/repository"
	"github.com/deppfellow/classroom/internal/server"
)

type Services struct {
	Auth         *AuthService
	Class        *ClassService
	Topic        *TopicService
	Announcement *AnnouncementService
	Comment      *CommentService
	Grade        *GradeService
	Submission   *SubmissionService
	Attachment   *AttachmentService
}

// NewService wires the services to the PostgreSQL and Redis repositories.
func NewService(s *server.Server, repos *repository.Repositories) (*Services, error) {
	return NewServicesWithStores(s, Stores{
		Users:         repos.User,
		Classes:       repos.Class,
		Topics:        repos.Topic,
		Announcements: repos.Announcement,
		Comments:      repos.Comment,
		Grades:        repos.Grade,
		Submissions:   repos.Submission,
		Sessions:      repos.Session,
	}), nil
}

func NewServicesWithStores(s *server.Server, stores Stores) *Services {
	acl := access{classes: stores.Classes}
	files := newUploader(s)
	announcements := NewAnnouncementService(s, stores, acl, files)

	return &Services{
		Auth:         NewAuthService(s, stores.Users, stores.Sessions),
		Class:        NewClassService(s, stores, acl),
		Topic:        NewTopicService(s, stores, acl, announcements),
		Announcement: announcements,
		Comment:      NewCommentService(s, stores, acl),
		Grade:        NewGradeService(s, stores, acl, announcements),
		Submission:   NewSubmissionService(s, stores, acl, files),
		Attachment:   NewAttachmentService(s),
	}
}
