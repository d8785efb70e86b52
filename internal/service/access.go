package service

import (
	"context"
	"errors"

	"github.com/deppfellow/classroom/internal/errs"
	"github.com/deppfellow/classroom/internal/model"

	"github.com/jackc/pgx/v5"
)

var (
	errClassNotFound        = errs.NewNotFoundError("Class not found", true, nil)
	errTopicNotFound        = errs.NewNotFoundError("Topic not found", true, nil)
	errAnnouncementNotFound = errs.NewNotFoundError("Announcement not found", true, nil)
	errCommentNotFound      = errs.NewNotFoundError("Comment not found", true, nil)
	errGradeNotFound        = errs.NewNotFoundError("Grade not found", true, nil)
	errSubmissionNotFound   = errs.NewNotFoundError("Submission not found", true, nil)
	errFileNotFound         = errs.NewNotFoundError("File not found", true, nil)

	errNotMember = errs.NewForbiddenError("You are not a member of this class", true)
)

// notFoundAs replaces a missing-row error with notFound and passes every other
// error through.
func notFoundAs(err error, notFound *errs.HTTPError) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return notFound
	}
	return err
}

// access answers the class level authorization questions shared by the
// services.
type access struct {
	classes ClassStore
}

func (a access) class(ctx context.Context, classID int64) (*model.ClassRoom, error) {
	class, err := a.classes.GetClassByID(ctx, classID)
	if err != nil {
		return nil, notFoundAs(err, errClassNotFound)
	}
	return class, nil
}

// requireTeacher loads the class and checks that user teaches it.
func (a access) requireTeacher(ctx context.Context, classID int64, user *model.User, message string) (*model.ClassRoom, error) {
	class, err := a.class(ctx, classID)
	if err != nil {
		return nil, err
	}
	if class.TeacherID != user.ID {
		return nil, errs.NewForbiddenError(message, true)
	}
	return class, nil
}

// requireMember loads the class and checks that user teaches it or is enrolled.
func (a access) requireMember(ctx context.Context, classID int64, user *model.User) (*model.ClassRoom, error) {
	class, err := a.class(ctx, classID)
	if err != nil {
		return nil, err
	}
	if class.TeacherID == user.ID {
		return class, nil
	}

	member, err := a.classes.IsMember(ctx, classID, user.ID)
	if err != nil {
		return nil, err
	}
	if !member {
		return nil, errNotMember
	}
	return class, nil
}

// requireStudentMember is requireMember without the teacher shortcut.
func (a access) requireStudentMember(ctx context.Context, classID int64, user *model.User) (*model.ClassRoom, error) {
	class, err := a.class(ctx, classID)
	if err != nil {
		return nil, err
	}
	member, err := a.classes.IsMember(ctx, classID, user.ID)
	if err != nil {
		return nil, err
	}
	if !member {
		return nil, errNotMember
	}
	return class, nil
}
