package model

import (
	"mime/multipart"
	"time"

	"github.com/deppfellow/classroom/internal/validation"
)

// EmptyRequest is used by endpoints that take no input.
type EmptyRequest struct{}

func (r *EmptyRequest) Validate() error {
	return nil
}

type RegisterRequest struct {
	Name                 string `json:"name" validate:"required,min=3,max=255"`
	Email                string `json:"email" validate:"required,max=255,email_format"`
	Password             string `json:"password" validate:"required,min=8,strong_password"`
	PasswordConfirmation string `json:"password_confirmation" validate:"required,eqfield=Password"`
	Role                 Role   `json:"role" validate:"required,oneof=teacher student"`
}

func (r *RegisterRequest) Validate() error {
	return validation.Struct(r)
}

func (r *RegisterRequest) Messages() map[string]string {
	return map[string]string{
		"password_confirmation.eqfield": "The password confirmation does not match",
		"role.oneof":                    "The role must be teacher or student",
	}
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email_format"`
	Password string `json:"password" validate:"required"`
}

func (r *LoginRequest) Validate() error {
	return validation.Struct(r)
}

type CreateClassRequest struct {
	Name        string  `json:"name" validate:"required,max=255"`
	Description *string `json:"description" validate:"omitnil,max=1000"`
	Subject     string  `json:"subject" validate:"required,max=255"`
}

func (r *CreateClassRequest) Validate() error {
	return validation.Struct(r)
}

type JoinClassRequest struct {
	ClassCode string `json:"class_code" validate:"required,max=16"`
}

func (r *JoinClassRequest) Validate() error {
	return validation.Struct(r)
}

type ClassRequest struct {
	ClassID int64 `param:"id" json:"-" validate:"required"`
}

func (r *ClassRequest) Validate() error {
	return validation.Struct(r)
}

// UpdateClassRequest only changes the fields that are present.
type UpdateClassRequest struct {
	ClassID     int64   `param:"id" json:"-" validate:"required"`
	Name        *string `json:"name" validate:"omitnil,min=1,max=255"`
	Description *string `json:"description" validate:"omitnil,max=1000"`
	Subject     *string `json:"subject" validate:"omitnil,min=1,max=255"`
}

func (r *UpdateClassRequest) Validate() error {
	return validation.Struct(r)
}

func (r *UpdateClassRequest) Messages() map[string]string {
	return map[string]string{
		"name.min":    "The name field is required",
		"subject.min": "The subject field is required",
	}
}

// ClassScopedRequest addresses the class of a nested resource.
type ClassScopedRequest struct {
	ClassID int64 `param:"classId" json:"-" validate:"required"`
}

func (r *ClassScopedRequest) Validate() error {
	return validation.Struct(r)
}

type TopicRequest struct {
	ClassID int64 `param:"classId" json:"-" validate:"required"`
	TopicID int64 `param:"topicId" json:"-" validate:"required"`
}

func (r *TopicRequest) Validate() error {
	return validation.Struct(r)
}

type CreateTopicRequest struct {
	ClassID int64  `param:"classId" json:"-" validate:"required"`
	Name    string `json:"name" validate:"required,max=255"`
}

func (r *CreateTopicRequest) Validate() error {
	return validation.Struct(r)
}

type UpdateTopicRequest struct {
	ClassID int64  `param:"classId" json:"-" validate:"required"`
	TopicID int64  `param:"topicId" json:"-" validate:"required"`
	Name    string `json:"name" validate:"required,max=255"`
}

func (r *UpdateTopicRequest) Validate() error {
	return validation.Struct(r)
}

type AnnouncementRequest struct {
	ClassID        int64 `param:"classId" json:"-" validate:"required"`
	AnnouncementID int64 `param:"announcementId" json:"-" validate:"required"`
}

func (r *AnnouncementRequest) Validate() error {
	return validation.Struct(r)
}

// CreateAnnouncementRequest is accepted as JSON or multipart form data.
type CreateAnnouncementRequest struct {
	ClassID       int64                   `param:"classId" json:"-" validate:"required"`
	Type          AnnouncementType        `json:"type" form:"type" validate:"required,oneof=material assignment quiz question"`
	Title         string                  `json:"title" form:"title" validate:"required,max=255"`
	Description   *string                 `json:"description" form:"description" validate:"omitnil,max=5000"`
	TopicID       *int64                  `json:"topic_id" form:"topic_id" validate:"omitnil,gt=0"`
	AllowComments *bool                   `json:"allow_comments" form:"allow_comments"`
	DueDate       *time.Time              `json:"due_date" form:"due_date"`
	Attachments   []*multipart.FileHeader `json:"-" form:"attachments"`
}

func (r *CreateAnnouncementRequest) Validate() error {
	return validation.Struct(r)
}

func (r *CreateAnnouncementRequest) BindFiles(form *multipart.Form) {
	r.Attachments = form.File["attachments"]
}

func (r *CreateAnnouncementRequest) Messages() map[string]string {
	return map[string]string{
		"type.oneof": "The selected announcement type is invalid",
	}
}

type UpdateAnnouncementRequest struct {
	ClassID        int64             `param:"classId" json:"-" validate:"required"`
	AnnouncementID int64             `param:"announcementId" json:"-" validate:"required"`
	Type           *AnnouncementType `json:"type" validate:"omitnil,oneof=material assignment quiz question"`
	Title          *string           `json:"title" validate:"omitnil,min=1,max=255"`
	Description    *string           `json:"description" validate:"omitnil,max=5000"`
	TopicID        *int64            `json:"topic_id" validate:"omitnil,gt=0"`
	AllowComments  *bool             `json:"allow_comments"`
	DueDate        *time.Time        `json:"due_date"`
}

func (r *UpdateAnnouncementRequest) Validate() error {
	return validation.Struct(r)
}

func (r *UpdateAnnouncementRequest) Messages() map[string]string {
	return map[string]string{
		"type.oneof": "The selected announcement type is invalid",
		"title.min":  "The title field is required",
	}
}

type AddToTopicRequest struct {
	ClassID        int64 `param:"classId" json:"-" validate:"required"`
	AnnouncementID int64 `param:"announcementId" json:"-" validate:"required"`
	TopicID        int64 `json:"topic_id" validate:"required"`
}

func (r *AddToTopicRequest) Validate() error {
	return validation.Struct(r)
}

type CommentRequest struct {
	ClassID        int64 `param:"classId" json:"-" validate:"required"`
	AnnouncementID int64 `param:"announcementId" json:"-" validate:"required"`
	CommentID      int64 `param:"commentId" json:"-" validate:"required"`
}

func (r *CommentRequest) Validate() error {
	return validation.Struct(r)
}

type CreateCommentRequest struct {
	ClassID        int64  `param:"classId" json:"-" validate:"required"`
	AnnouncementID int64  `param:"announcementId" json:"-" validate:"required"`
	Comment        string `json:"comment" validate:"required,max=2000"`
}

func (r *CreateCommentRequest) Validate() error {
	return validation.Struct(r)
}

type UpdateCommentRequest struct {
	ClassID        int64  `param:"classId" json:"-" validate:"required"`
	AnnouncementID int64  `param:"announcementId" json:"-" validate:"required"`
	CommentID      int64  `param:"commentId" json:"-" validate:"required"`
	Comment        string `json:"comment" validate:"required,max=2000"`
}

func (r *UpdateCommentRequest) Validate() error {
	return validation.Struct(r)
}

type GradeInput struct {
	StudentID int64    `json:"student_id" validate:"required"`
	Score     *float64 `json:"score" validate:"required,gte=0,lte=100"`
	Comment   *string  `json:"comment" validate:"omitnil,max=1000"`
}

type UpsertGradeRequest struct {
	ClassID        int64    `param:"classId" json:"-" validate:"required"`
	AnnouncementID int64    `param:"announcementId" json:"-" validate:"required"`
	StudentID      int64    `json:"student_id" validate:"required"`
	Score          *float64 `json:"score" validate:"required,gte=0,lte=100"`
	Comment        *string  `json:"comment" validate:"omitnil,max=1000"`
}

func (r *UpsertGradeRequest) Input() GradeInput {
	return GradeInput{StudentID: r.StudentID, Score: r.Score, Comment: r.Comment}
}

func (r *UpsertGradeRequest) Validate() error {
	return validation.Struct(r)
}

type BatchGradeRequest struct {
	ClassID        int64        `param:"classId" json:"-" validate:"required"`
	AnnouncementID int64        `param:"announcementId" json:"-" validate:"required"`
	Grades         []GradeInput `json:"grades" validate:"required,min=1,dive"`
}

func (r *BatchGradeRequest) Validate() error {
	return validation.Struct(r)
}

func (r *BatchGradeRequest) Messages() map[string]string {
	return map[string]string{
		"grades.required": "The grades field is required",
		"grades.min":      "At least one grade is required",
	}
}

type GradeRequest struct {
	ClassID        int64 `param:"classId" json:"-" validate:"required"`
	AnnouncementID int64 `param:"announcementId" json:"-" validate:"required"`
	GradeID        int64 `param:"gradeId" json:"-" validate:"required"`
}

func (r *GradeRequest) Validate() error {
	return validation.Struct(r)
}

type UpdateGradeRequest struct {
	ClassID        int64    `param:"classId" json:"-" validate:"required"`
	AnnouncementID int64    `param:"announcementId" json:"-" validate:"required"`
	GradeID        int64    `param:"gradeId" json:"-" validate:"required"`
	Score          *float64 `json:"score" validate:"omitnil,gte=0,lte=100"`
	Comment        *string  `json:"comment" validate:"omitnil,max=1000"`
}

func (r *UpdateGradeRequest) Validate() error {
	return validation.Struct(r)
}

type CreateSubmissionRequest struct {
	ClassID        int64                   `param:"classId" json:"-" validate:"required"`
	AnnouncementID int64                   `param:"announcementId" json:"-" validate:"required"`
	TextContent    *string                 `json:"text_content" form:"text_content" validate:"omitnil,max=10000"`
	Attachments    []*multipart.FileHeader `json:"-" form:"attachments"`
}

func (r *CreateSubmissionRequest) Validate() error {
	return validation.Struct(r)
}

func (r *CreateSubmissionRequest) BindFiles(form *multipart.Form) {
	r.Attachments = form.File["attachments"]
}

type SubmissionRequest struct {
	ClassID        int64 `param:"classId" json:"-" validate:"required"`
	AnnouncementID int64 `param:"announcementId" json:"-" validate:"required"`
	SubmissionID   int64 `param:"submissionId" json:"-" validate:"required"`
}

func (r *SubmissionRequest) Validate() error {
	return validation.Struct(r)
}

type UpdateSubmissionRequest struct {
	ClassID        int64   `param:"classId" json:"-" validate:"required"`
	AnnouncementID int64   `param:"announcementId" json:"-" validate:"required"`
	SubmissionID   int64   `param:"submissionId" json:"-" validate:"required"`
	TextContent    *string `json:"text_content" form:"text_content" validate:"omitnil,max=10000"`
}

func (r *UpdateSubmissionRequest) Validate() error {
	return validation.Struct(r)
}

type AddSubmissionFileRequest struct {
	ClassID        int64                 `param:"classId" json:"-" validate:"required"`
	AnnouncementID int64                 `param:"announcementId" json:"-" validate:"required"`
	SubmissionID   int64                 `param:"submissionId" json:"-" validate:"required"`
	File           *multipart.FileHeader `json:"-" form:"file"`
}

func (r *AddSubmissionFileRequest) Validate() error {
	if err := validation.Struct(r); err != nil {
		return err
	}
	if r.File == nil {
		return validation.CustomValidationErrors{{Field: "file", Message: "The file field is required"}}
	}
	return nil
}

func (r *AddSubmissionFileRequest) BindFiles(form *multipart.Form) {
	if files := form.File["file"]; len(files) > 0 {
		r.File = files[0]
	}
}

type SubmissionFileRequest struct {
	ClassID        int64 `param:"classId" json:"-" validate:"required"`
	AnnouncementID int64 `param:"announcementId" json:"-" validate:"required"`
	SubmissionID   int64 `param:"submissionId" json:"-" validate:"required"`
	FileID         int64 `param:"fileId" json:"-" validate:"required"`
}

func (r *SubmissionFileRequest) Validate() error {
	return validation.Struct(r)
}

type DownloadAttachmentRequest struct {
	Filename string `param:"filename" validate:"required,max=255"`
}

func (r *DownloadAttachmentRequest) Validate() error {
	return validation.Struct(r)
}
