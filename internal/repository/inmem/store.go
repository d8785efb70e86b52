// Package inmem keeps every repository in process memory.
//
// Store mirrors the behaviour of the PostgreSQL and Redis repositories closely
// enough for service and handler tests: soft deleted rows disappear from
// reads, unique constraints fail with the same *pgconn.PgError and lookups
// that find nothing wrap pgx.ErrNoRows.
package inmem

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/deppfellow/classroom/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

type membership struct {
	classID  int64
	userID   int64
	joinedAt time.Time
}

type counter struct {
	count     int64
	expiresAt time.Time
}

type Store struct {
	mu     sync.Mutex
	nextID int64

	// Now is the clock used for timestamps and expiries.
	Now func() time.Time

	// FailAttachmentInserts makes the attachment step of CreateSubmission and
	// CreateAnnouncement fail, so callers can observe the rollback.
	FailAttachmentInserts bool

	users           map[int64]model.User
	classes         map[int64]model.ClassRoom
	members         []membership
	topics          map[int64]model.Topic
	announcements   map[int64]model.Announcement
	attachments     []model.Attachment
	comments        map[int64]model.Comment
	grades          map[int64]model.Grade
	submissions     map[int64]model.Submission
	submissionFiles []model.SubmissionAttachment

	revoked     map[string]time.Time
	cachedUsers map[int64]model.User
	counters    map[string]counter
}

func New() *Store {
	return &Store{
		Now:           time.Now,
		users:         map[int64]model.User{},
		classes:       map[int64]model.ClassRoom{},
		topics:        map[int64]model.Topic{},
		announcements: map[int64]model.Announcement{},
		comments:      map[int64]model.Comment{},
		grades:        map[int64]model.Grade{},
		submissions:   map[int64]model.Submission{},
		revoked:       map[string]time.Time{},
		cachedUsers:   map[int64]model.User{},
		counters:      map[string]counter{},
	}
}

func (s *Store) id() int64 {
	s.nextID++
	return s.nextID
}

func notFound(table string) error {
	return fmt.Errorf("failed to collect row from table:%s: %w", table, pgx.ErrNoRows)
}

func uniqueViolation(table, constraint string) error {
	return &pgconn.PgError{
		Code:           "23505",
		Message:        "duplicate key value violates unique constraint \"" + constraint + "\"",
		TableName:      table,
		ConstraintName: constraint,
	}
}

func live(deletedAt *time.Time) bool {
	return deletedAt == nil
}

// Users

func (s *Store) CreateUser(_ context.Context, user *model.User) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if u.Email == user.Email {
			return nil, uniqueViolation("users", "users_email_key")
		}
	}

	now := s.Now()
	created := *user
	created.ID = s.id()
	created.CreatedAt = now
	created.UpdatedAt = now
	s.users[created.ID] = created
	return &created, nil
}

func (s *Store) GetUserByID(_ context.Context, id int64) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return nil, notFound("users")
	}
	return &u, nil
}

func (s *Store) GetUserByEmail(_ context.Context, email string) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, notFound("users")
}

func (s *Store) GetUsersByIDs(_ context.Context, ids []int64) (map[int64]*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	result := make(map[int64]*model.User, len(ids))
	for _, id := range ids {
		if u, ok := s.users[id]; ok {
			result[id] = &u
		}
	}
	return result, nil
}

// Classes

func (s *Store) CreateClass(_ context.Context, class *model.ClassRoom) (*model.ClassRoom, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, c := range s.classes {
		if c.ClassCode == class.ClassCode {
			return nil, uniqueViolation("classes", "classes_class_code_key")
		}
	}

	now := s.Now()
	created := *class
	created.ID = s.id()
	created.CreatedAt = now
	created.UpdatedAt = now
	created.Teacher = nil
	created.Members = nil
	s.classes[created.ID] = created
	return &created, nil
}

func (s *Store) GetClassByID(_ context.Context, id int64) (*model.ClassRoom, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.classes[id]
	if !ok || !live(c.DeletedAt) {
		return nil, notFound("classes")
	}
	return &c, nil
}

func (s *Store) GetClassByCode(_ context.Context, code string) (*model.ClassRoom, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, c := range s.classes {
		if c.ClassCode == code && live(c.DeletedAt) {
			return &c, nil
		}
	}
	return nil, notFound("classes")
}

func (s *Store) ClassCodeExists(_ context.Context, code string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, c := range s.classes {
		if c.ClassCode == code {
			return true, nil
		}
	}
	return false, nil
}

func (s *Store) ListClassesByTeacher(_ context.Context, teacherID int64) ([]model.ClassRoom, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var result []model.ClassRoom
	for _, c := range s.classes {
		if c.TeacherID == teacherID && live(c.DeletedAt) {
			result = append(result, c)
		}
	}
	sortNewestFirst(result, func(c model.ClassRoom) (time.Time, int64) { return c.CreatedAt, c.ID })
	return result, nil
}

func (s *Store) ListClassesByMember(_ context.Context, userID int64) ([]model.ClassRoom, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var result []model.ClassRoom
	for i := len(s.members) - 1; i >= 0; i-- {
		m := s.members[i]
		if m.userID != userID {
			continue
		}
		if c, ok := s.classes[m.classID]; ok && live(c.DeletedAt) {
			result = append(result, c)
		}
	}
	return result, nil
}

func (s *Store) UpdateClass(_ context.Context, class *model.ClassRoom) (*model.ClassRoom, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.classes[class.ID]
	if !ok || !live(c.DeletedAt) {
		return nil, notFound("classes")
	}
	c.Name = class.Name
	c.Description = class.Description
	c.Subject = class.Subject
	c.UpdatedAt = s.Now()
	s.classes[c.ID] = c
	return &c, nil
}

func (s *Store) DeleteClass(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.classes[id]
	if !ok || !live(c.DeletedAt) {
		return notFound("classes")
	}
	now := s.Now()
	c.DeletedAt = &now
	s.classes[id] = c
	return nil
}

func (s *Store) IsMember(_ context.Context, classID, userID int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.isMember(classID, userID), nil
}

func (s *Store) isMember(classID, userID int64) bool {
	for _, m := range s.members {
		if m.classID == classID && m.userID == userID {
			return true
		}
	}
	return false
}

func (s *Store) AddMember(_ context.Context, classID, userID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isMember(classID, userID) {
		return uniqueViolation("class_members", "class_members_class_user_key")
	}
	s.members = append(s.members, membership{classID: classID, userID: userID, joinedAt: s.Now()})
	return nil
}

func (s *Store) ListMembers(_ context.Context, classIDs []int64) (map[int64][]model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	wanted := idSet(classIDs)
	result := make(map[int64][]model.User)
	for _, m := range s.members {
		if !wanted[m.classID] {
			continue
		}
		if u, ok := s.users[m.userID]; ok {
			result[m.classID] = append(result[m.classID], u)
		}
	}
	return result, nil
}

// Topics

func (s *Store) CreateTopic(_ context.Context, topic *model.Topic) (*model.Topic, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.Now()
	created := *topic
	created.ID = s.id()
	created.CreatedAt = now
	created.UpdatedAt = now
	created.Announcements = nil
	s.topics[created.ID] = created
	return &created, nil
}

func (s *Store) GetTopic(_ context.Context, classID, topicID int64) (*model.Topic, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.topics[topicID]
	if !ok || t.ClassID != classID || !live(t.DeletedAt) {
		return nil, notFound("topics")
	}
	return &t, nil
}

func (s *Store) ListTopics(_ context.Context, classID int64) ([]model.Topic, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var result []model.Topic
	for _, t := range s.topics {
		if t.ClassID == classID && live(t.DeletedAt) {
			result = append(result, t)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (s *Store) GetTopicsByIDs(_ context.Context, ids []int64) (map[int64]*model.Topic, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	result := make(map[int64]*model.Topic, len(ids))
	for _, id := range ids {
		if t, ok := s.topics[id]; ok && live(t.DeletedAt) {
			result[id] = &t
		}
	}
	return result, nil
}

func (s *Store) UpdateTopic(_ context.Context, topic *model.Topic) (*model.Topic, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.topics[topic.ID]
	if !ok || t.ClassID != topic.ClassID || !live(t.DeletedAt) {
		return nil, notFound("topics")
	}
	t.Name = topic.Name
	t.UpdatedAt = s.Now()
	s.topics[t.ID] = t
	return &t, nil
}

func (s *Store) DeleteTopic(_ context.Context, classID, topicID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.topics[topicID]
	if !ok || t.ClassID != classID || !live(t.DeletedAt) {
		return notFound("topics")
	}
	now := s.Now()
	t.DeletedAt = &now
	s.topics[topicID] = t

	for id, a := range s.announcements {
		if a.TopicID != nil && *a.TopicID == topicID {
			a.TopicID = nil
			s.announcements[id] = a
		}
	}
	return nil
}

// Announcements

func (s *Store) insertAnnouncement(a *model.Announcement) model.Announcement {
	now := s.Now()
	created := *a
	created.ID = s.id()
	created.CreatedAt = now
	created.UpdatedAt = now
	created.Teacher = nil
	created.Topic = nil
	created.Attachments = nil
	created.Comments = nil
	created.Grades = nil
	s.announcements[created.ID] = created
	return created
}

func (s *Store) CreateAnnouncement(_ context.Context, a *model.Announcement, files []model.StoredFile) (*model.Announcement, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(files) > 0 && s.FailAttachmentInserts {
		return nil, fmt.Errorf("failed to collect rows from table:attachments: insert failed")
	}

	created := s.insertAnnouncement(a)
	for _, f := range files {
		att := model.Attachment{
			ID:             s.id(),
			AnnouncementID: created.ID,
			FileName:       f.FileName,
			FilePath:       f.FilePath,
			FileType:       f.FileType,
			FileSize:       f.FileSize,
			CreatedAt:      created.CreatedAt,
		}
		s.attachments = append(s.attachments, att)
		created.Attachments = append(created.Attachments, att)
	}
	return &created, nil
}

func (s *Store) ReuseAnnouncement(_ context.Context, sourceID int64, a *model.Announcement) (*model.Announcement, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	created := s.insertAnnouncement(a)
	for _, att := range s.attachments {
		if att.AnnouncementID != sourceID {
			continue
		}
		copied := att
		copied.ID = s.id()
		copied.AnnouncementID = created.ID
		copied.CreatedAt = created.CreatedAt
		s.attachments = append(s.attachments, copied)
		created.Attachments = append(created.Attachments, copied)
	}
	return &created, nil
}

func (s *Store) GetAnnouncement(_ context.Context, classID, id int64) (*model.Announcement, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.announcements[id]
	if !ok || a.ClassID != classID || !live(a.DeletedAt) {
		return nil, notFound("announcements")
	}
	return &a, nil
}

func (s *Store) GetAnnouncementByID(_ context.Context, id int64) (*model.Announcement, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.announcements[id]
	if !ok || !live(a.DeletedAt) {
		return nil, notFound("announcements")
	}
	return &a, nil
}

func (s *Store) ListAnnouncements(_ context.Context, classID int64) ([]model.Announcement, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var result []model.Announcement
	for _, a := range s.announcements {
		if a.ClassID == classID && live(a.DeletedAt) {
			result = append(result, a)
		}
	}
	sortNewestFirst(result, func(a model.Announcement) (time.Time, int64) { return a.CreatedAt, a.ID })
	return result, nil
}

func (s *Store) ListAnnouncementsByTopics(_ context.Context, topicIDs []int64) ([]model.Announcement, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	wanted := idSet(topicIDs)
	var result []model.Announcement
	for _, a := range s.announcements {
		if a.TopicID != nil && wanted[*a.TopicID] && live(a.DeletedAt) {
			result = append(result, a)
		}
	}
	sortNewestFirst(result, func(a model.Announcement) (time.Time, int64) { return a.CreatedAt, a.ID })
	return result, nil
}

func (s *Store) UpdateAnnouncement(_ context.Context, a *model.Announcement) (*model.Announcement, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.announcements[a.ID]
	if !ok || stored.ClassID != a.ClassID || !live(stored.DeletedAt) {
		return nil, notFound("announcements")
	}
	stored.TopicID = a.TopicID
	stored.Type = a.Type
	stored.Title = a.Title
	stored.Description = a.Description
	stored.DueDate = a.DueDate
	stored.AllowComments = a.AllowComments
	stored.UpdatedAt = s.Now()
	s.announcements[a.ID] = stored
	return &stored, nil
}

func (s *Store) DeleteAnnouncement(_ context.Context, classID, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.announcements[id]
	if !ok || a.ClassID != classID || !live(a.DeletedAt) {
		return notFound("announcements")
	}
	now := s.Now()
	a.DeletedAt = &now
	s.announcements[id] = a
	return nil
}

func (s *Store) ListAttachments(_ context.Context, announcementIDs []int64) (map[int64][]model.Attachment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	wanted := idSet(announcementIDs)
	result := make(map[int64][]model.Attachment)
	for _, att := range s.attachments {
		if wanted[att.AnnouncementID] {
			result[att.AnnouncementID] = append(result[att.AnnouncementID], att)
		}
	}
	return result, nil
}

func (s *Store) CountAttachmentsByPath(_ context.Context, filePath string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var count int64
	for _, att := range s.attachments {
		if att.FilePath != filePath {
			continue
		}
		if a, ok := s.announcements[att.AnnouncementID]; ok && live(a.DeletedAt) {
			count++
		}
	}
	return count, nil
}

// Comments

func (s *Store) CreateComment(_ context.Context, comment *model.Comment) (*model.Comment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.Now()
	created := *comment
	created.ID = s.id()
	created.CreatedAt = now
	created.UpdatedAt = now
	created.User = nil
	s.comments[created.ID] = created
	return &created, nil
}

func (s *Store) GetComment(_ context.Context, announcementID, commentID int64) (*model.Comment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.comments[commentID]
	if !ok || c.AnnouncementID != announcementID || !live(c.DeletedAt) {
		return nil, notFound("comments")
	}
	return &c, nil
}

func (s *Store) ListComments(_ context.Context, announcementIDs []int64) (map[int64][]model.Comment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	wanted := idSet(announcementIDs)
	var all []model.Comment
	for _, c := range s.comments {
		if wanted[c.AnnouncementID] && live(c.DeletedAt) {
			all = append(all, c)
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })

	result := make(map[int64][]model.Comment)
	for _, c := range all {
		result[c.AnnouncementID] = append(result[c.AnnouncementID], c)
	}
	return result, nil
}

func (s *Store) UpdateComment(_ context.Context, comment *model.Comment) (*model.Comment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.comments[comment.ID]
	if !ok || !live(c.DeletedAt) {
		return nil, notFound("comments")
	}
	c.Comment = comment.Comment
	c.UpdatedAt = s.Now()
	s.comments[c.ID] = c
	return &c, nil
}

func (s *Store) DeleteComment(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.comments[id]
	if !ok || !live(c.DeletedAt) {
		return notFound("comments")
	}
	now := s.Now()
	c.DeletedAt = &now
	s.comments[id] = c
	return nil
}

func idSet(ids []int64) map[int64]bool {
	set := make(map[int64]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set
}

func sortNewestFirst[T any](items []T, key func(T) (time.Time, int64)) {
	sort.SliceStable(items, func(i, j int) bool {
		ti, idi := key(items[i])
		tj, idj := key(items[j])
		if ti.Equal(tj) {
			return idi > idj
		}
		return ti.After(tj)
	})
}
