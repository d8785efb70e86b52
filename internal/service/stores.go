package service

import (
	"context"
	"time"

	"github.com/deppfellow/classroom/internal/model"
)

// The store interfaces below are satisfied by the pgx and Redis repositories
// and by the in-memory store used in tests.

type UserStore interface {
	CreateUser(ctx context.Context, user *model.User) (*model.User, error)
	GetUserByID(ctx context.Context, id int64) (*model.User, error)
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	GetUsersByIDs(ctx context.Context, ids []int64) (map[int64]*model.User, error)
}

type ClassStore interface {
	CreateClass(ctx context.Context, class *model.ClassRoom) (*model.ClassRoom, error)
	GetClassByID(ctx context.Context, id int64) (*model.ClassRoom, error)
	GetClassByCode(ctx context.Context, code string) (*model.ClassRoom, error)
	ClassCodeExists(ctx context.Context, code string) (bool, error)
	ListClassesByTeacher(ctx context.Context, teacherID int64) ([]model.ClassRoom, error)
	ListClassesByMember(ctx context.Context, userID int64) ([]model.ClassRoom, error)
	UpdateClass(ctx context.Context, class *model.ClassRoom) (*model.ClassRoom, error)
	DeleteClass(ctx context.Context, id int64) error
	IsMember(ctx context.Context, classID, userID int64) (bool, error)
	AddMember(ctx context.Context, classID, userID int64) error
	ListMembers(ctx context.Context, classIDs []int64) (map[int64][]model.User, error)
}

type TopicStore interface {
	CreateTopic(ctx context.Context, topic *model.Topic) (*model.Topic, error)
	GetTopic(ctx context.Context, classID, topicID int64) (*model.Topic, error)
	ListTopics(ctx context.Context, classID int64) ([]model.Topic, error)
	GetTopicsByIDs(ctx context.Context, ids []int64) (map[int64]*model.Topic, error)
	UpdateTopic(ctx context.Context, topic *model.Topic) (*model.Topic, error)
	DeleteTopic(ctx context.Context, classID, topicID int64) error
}

type AnnouncementStore interface {
	CreateAnnouncement(ctx context.Context, a *model.Announcement, files []model.StoredFile) (*model.Announcement, error)
	ReuseAnnouncement(ctx context.Context, sourceID int64, a *model.Announcement) (*model.Announcement, error)
	GetAnnouncement(ctx context.Context, classID, id int64) (*model.Announcement, error)
	GetAnnouncementByID(ctx context.Context, id int64) (*model.Announcement, error)
	ListAnnouncements(ctx context.Context, classID int64) ([]model.Announcement, error)
	ListAnnouncementsByTopics(ctx context.Context, topicIDs []int64) ([]model.Announcement, error)
	UpdateAnnouncement(ctx context.Context, a *model.Announcement) (*model.Announcement, error)
	DeleteAnnouncement(ctx context.Context, classID, id int64) error
	ListAttachments(ctx context.Context, announcementIDs []int64) (map[int64][]model.Attachment, error)
	CountAttachmentsByPath(ctx context.Context, filePath string) (int64, error)
}

type CommentStore interface {
	CreateComment(ctx context.Context, comment *model.Comment) (*model.Comment, error)
	GetComment(ctx context.Context, announcementID, commentID int64) (*model.Comment, error)
	ListComments(ctx context.Context, announcementIDs []int64) (map[int64][]model.Comment, error)
	UpdateComment(ctx context.Context, comment *model.Comment) (*model.Comment, error)
	DeleteComment(ctx context.Context, id int64) error
}

type GradeStore interface {
	UpsertGrade(ctx context.Context, grade *model.Grade) (*model.Grade, error)
	GetGrade(ctx context.Context, announcementID, gradeID int64) (*model.Grade, error)
	GetStudentGrade(ctx context.Context, announcementID, studentID int64) (*model.Grade, error)
	ListGrades(ctx context.Context, announcementIDs []int64) (map[int64][]model.Grade, error)
	ListStudentGrades(ctx context.Context, classID, studentID int64) ([]model.Grade, error)
	UpdateGrade(ctx context.Context, grade *model.Grade) (*model.Grade, error)
	DeleteGrade(ctx context.Context, announcementID, gradeID int64) error
}

type SubmissionStore interface {
	CreateSubmission(ctx context.Context, sub *model.Submission, files []model.StoredFile) (*model.Submission, error)
	GetSubmission(ctx context.Context, announcementID, id int64) (*model.Submission, error)
	GetStudentSubmission(ctx context.Context, announcementID, studentID int64) (*model.Submission, error)
	ListSubmissions(ctx context.Context, announcementID int64) ([]model.Submission, error)
	UpdateSubmission(ctx context.Context, sub *model.Submission) (*model.Submission, error)
	DeleteSubmission(ctx context.Context, id int64) error
	AddSubmissionAttachment(ctx context.Context, submissionID int64, file model.StoredFile) (*model.SubmissionAttachment, error)
	GetSubmissionAttachment(ctx context.Context, submissionID, fileID int64) (*model.SubmissionAttachment, error)
	DeleteSubmissionAttachment(ctx context.Context, id int64) error
	ListSubmissionAttachments(ctx context.Context, submissionIDs []int64) (map[int64][]model.SubmissionAttachment, error)
}

// SessionStore holds the revoked token ids and cached users.
type SessionStore interface {
	RevokeToken(ctx context.Context, tokenID string, ttl time.Duration) error
	IsTokenRevoked(ctx context.Context, tokenID string) (bool, error)
	CacheUser(ctx context.Context, user *model.User, ttl time.Duration) error
	GetCachedUser(ctx context.Context, id int64) (*model.User, error)
	ForgetUser(ctx context.Context, id int64) error
}

// Stores groups the persistence the services depend on.
type Stores struct {
	Users         UserStore
	Classes       ClassStore
	Topics        TopicStore
	Announcements AnnouncementStore
	Comments      CommentStore
	Grades        GradeStore
	Submissions   SubmissionStore
	Sessions      SessionStore
}
