// Package model holds the domain entities and the request payloads of the
// classroom API.
//
// Entities carry `db` tags for pgx.RowToStructByName; relation fields are
// tagged `db:"-"` and filled in by the service layer.
package model

import (
	"time"

	"github.com/shopspring/decimal"
)

func init() {
	// Scores are rendered as JSON numbers rather than quoted strings.
	decimal.MarshalJSONWithoutQuotes = true
}

type Role string

const (
	RoleTeacher Role = "teacher"
	RoleStudent Role = "student"
)

type User struct {
	ID              int64      `json:"id" db:"id"`
	Name            string     `json:"name" db:"name"`
	Email           string     `json:"email" db:"email"`
	Password        string     `json:"-" db:"password"`
	Role            Role       `json:"role" db:"role"`
	EmailVerifiedAt *time.Time `json:"email_verified_at,omitempty" db:"email_verified_at"`
	CreatedAt       time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at" db:"updated_at"`
}

func (u *User) IsTeacher() bool {
	return u.Role == RoleTeacher
}

func (u *User) IsStudent() bool {
	return u.Role == RoleStudent
}

type ClassRoom struct {
	ID          int64      `json:"id" db:"id"`
	Name        string     `json:"name" db:"name"`
	Description *string    `json:"description" db:"description"`
	Subject     string     `json:"subject" db:"subject"`
	ClassCode   string     `json:"class_code" db:"class_code"`
	InviteLink  *string    `json:"invite_link" db:"invite_link"`
	TeacherID   int64      `json:"teacher_id" db:"teacher_id"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at" db:"updated_at"`
	DeletedAt   *time.Time `json:"-" db:"deleted_at"`

	Teacher *User  `json:"teacher,omitempty" db:"-"`
	Members []User `json:"members" db:"-"`
}

type Topic struct {
	ID        int64      `json:"id" db:"id"`
	ClassID   int64      `json:"class_id" db:"class_id"`
	Name      string     `json:"name" db:"name"`
	CreatedAt time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt time.Time  `json:"updated_at" db:"updated_at"`
	DeletedAt *time.Time `json:"-" db:"deleted_at"`

	Announcements []Announcement `json:"announcements,omitempty" db:"-"`
}

type AnnouncementType string

const (
	AnnouncementMaterial   AnnouncementType = "material"
	AnnouncementAssignment AnnouncementType = "assignment"
	AnnouncementQuiz       AnnouncementType = "quiz"
	AnnouncementQuestion   AnnouncementType = "question"
)

type Announcement struct {
	ID            int64            `json:"id" db:"id"`
	ClassID       int64            `json:"class_id" db:"class_id"`
	TeacherID     int64            `json:"teacher_id" db:"teacher_id"`
	TopicID       *int64           `json:"topic_id" db:"topic_id"`
	Type          AnnouncementType `json:"type" db:"type"`
	Title         string           `json:"title" db:"title"`
	Description   *string          `json:"description" db:"description"`
	DueDate       *time.Time       `json:"due_date" db:"due_date"`
	AllowComments bool             `json:"allow_comments" db:"allow_comments"`
	IsReused      bool             `json:"is_reused" db:"is_reused"`
	CreatedAt     time.Time        `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time        `json:"updated_at" db:"updated_at"`
	DeletedAt     *time.Time       `json:"-" db:"deleted_at"`

	Teacher     *User        `json:"teacher,omitempty" db:"-"`
	Topic       *Topic       `json:"topic,omitempty" db:"-"`
	Attachments []Attachment `json:"attachments" db:"-"`
	Comments    []Comment    `json:"comments" db:"-"`
	Grades      []Grade      `json:"grades,omitempty" db:"-"`
}

func (a *Announcement) IsAssignment() bool {
	return a.Type == AnnouncementAssignment
}

// IsPastDue reports whether at falls after the due date. Announcements
// without a due date are never past due.
func (a *Announcement) IsPastDue(at time.Time) bool {
	return a.DueDate != nil && at.After(*a.DueDate)
}

type Attachment struct {
	ID             int64     `json:"id" db:"id"`
	AnnouncementID int64     `json:"announcement_id" db:"announcement_id"`
	FileName       string    `json:"file_name" db:"file_name"`
	FilePath       string    `json:"file_path" db:"file_path"`
	FileType       string    `json:"file_type" db:"file_type"`
	FileSize       int64     `json:"file_size" db:"file_size"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`

	URL string `json:"url" db:"-"`
}

type Comment struct {
	ID             int64      `json:"id" db:"id"`
	AnnouncementID int64      `json:"announcement_id" db:"announcement_id"`
	UserID         int64      `json:"user_id" db:"user_id"`
	Comment        string     `json:"comment" db:"comment"`
	CreatedAt      time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at" db:"updated_at"`
	DeletedAt      *time.Time `json:"-" db:"deleted_at"`

	User *User `json:"user,omitempty" db:"-"`
}

type Grade struct {
	ID             int64           `json:"id" db:"id"`
	AnnouncementID int64           `json:"announcement_id" db:"announcement_id"`
	StudentID      int64           `json:"student_id" db:"student_id"`
	Score          decimal.Decimal `json:"score" db:"score"`
	Comment        *string         `json:"comment" db:"comment"`
	CreatedAt      time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at" db:"updated_at"`
	DeletedAt      *time.Time      `json:"-" db:"deleted_at"`

	Student      *User         `json:"student,omitempty" db:"-"`
	Announcement *Announcement `json:"announcement,omitempty" db:"-"`
}

type SubmissionStatus string

const (
	SubmissionSubmitted SubmissionStatus = "submitted"
	SubmissionLate      SubmissionStatus = "late"
	SubmissionGraded    SubmissionStatus = "graded"
)

type Submission struct {
	ID             int64            `json:"id" db:"id"`
	AnnouncementID int64            `json:"announcement_id" db:"announcement_id"`
	StudentID      int64            `json:"student_id" db:"student_id"`
	TextContent    *string          `json:"text_content" db:"text_content"`
	Status         SubmissionStatus `json:"status" db:"status"`
	SubmittedAt    time.Time        `json:"submitted_at" db:"submitted_at"`
	CreatedAt      time.Time        `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time        `json:"updated_at" db:"updated_at"`
	DeletedAt      *time.Time       `json:"-" db:"deleted_at"`

	Student     *User                  `json:"student,omitempty" db:"-"`
	Attachments []SubmissionAttachment `json:"attachments" db:"-"`
	Grade       *Grade                 `json:"grade" db:"-"`
}

func (s *Submission) IsGraded() bool {
	return s.Status == SubmissionGraded
}

type SubmissionAttachment struct {
	ID           int64     `json:"id" db:"id"`
	SubmissionID int64     `json:"submission_id" db:"submission_id"`
	FileName     string    `json:"file_name" db:"file_name"`
	FilePath     string    `json:"file_path" db:"file_path"`
	FileType     string    `json:"file_type" db:"file_type"`
	FileSize     int64     `json:"file_size" db:"file_size"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`

	URL string `json:"url" db:"-"`
}

// Session is the authenticated state attached to a request.
type Session struct {
	User      *User
	TokenID   string
	ExpiresAt time.Time
}

// StoredFile describes an upload written to the public disk.
type StoredFile struct {
	FileName string
	FilePath string
	FileType string
	FileSize int64
}
