package service

import (
	"context"

	"github.com/deppfellow/classroom/internal/errs"
	"github.com/deppfellow/classroom/internal/model"
	"github.com/deppfellow/classroom/internal/server"
)

type CommentService struct {
	server *server.Server
	stores Stores
	acl    access
}

func NewCommentService(s *server.Server, stores Stores, acl access) *CommentService {
	return &CommentService{server: s, stores: stores, acl: acl}
}

// announcement loads the announcement after checking class membership.
func (c *CommentService) announcement(ctx context.Context, user *model.User, classID, announcementID int64) (*model.ClassRoom, *model.Announcement, error) {
	class, err := c.acl.requireMember(ctx, classID, user)
	if err != nil {
		return nil, nil, err
	}
	ann, err := c.stores.Announcements.GetAnnouncement(ctx, classID, announcementID)
	if err != nil {
		return nil, nil, notFoundAs(err, errAnnouncementNotFound)
	}
	return class, ann, nil
}

// List returns the comments of an announcement, oldest first.
func (c *CommentService) List(ctx context.Context, user *model.User, req *model.AnnouncementRequest) ([]model.Comment, error) {
	_, ann, err := c.announcement(ctx, user, req.ClassID, req.AnnouncementID)
	if err != nil {
		return nil, err
	}

	byAnnouncement, err := c.stores.Comments.ListComments(ctx, []int64{ann.ID})
	if err != nil {
		return nil, err
	}
	comments := byAnnouncement[ann.ID]
	if comments == nil {
		return []model.Comment{}, nil
	}

	ids := make([]int64, len(comments))
	for i := range comments {
		ids[i] = comments[i].UserID
	}
	users, err := c.stores.Users.GetUsersByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range comments {
		comments[i].User = users[comments[i].UserID]
	}
	return comments, nil
}

// Create posts a comment. When comments are disabled on the announcement only
// the class teacher may post.
func (c *CommentService) Create(ctx context.Context, user *model.User, req *model.CreateCommentRequest) (*model.Comment, error) {
	class, ann, err := c.announcement(ctx, user, req.ClassID, req.AnnouncementID)
	if err != nil {
		return nil, err
	}
	if !ann.AllowComments && class.TeacherID != user.ID {
		return nil, errs.NewForbiddenError("Comments are not allowed on this announcement", true)
	}

	comment, err := c.stores.Comments.CreateComment(ctx, &model.Comment{
		AnnouncementID: ann.ID,
		UserID:         user.ID,
		Comment:        req.Comment,
	})
	if err != nil {
		return nil, err
	}
	comment.User = user
	return comment, nil
}

func (c *CommentService) Update(ctx context.Context, user *model.User, req *model.UpdateCommentRequest) (*model.Comment, error) {
	if _, _, err := c.announcement(ctx, user, req.ClassID, req.AnnouncementID); err != nil {
		return nil, err
	}

	comment, err := c.stores.Comments.GetComment(ctx, req.AnnouncementID, req.CommentID)
	if err != nil {
		return nil, notFoundAs(err, errCommentNotFound)
	}
	if comment.UserID != user.ID {
		return nil, errs.NewForbiddenError("You can only edit your own comments", true)
	}

	comment.Comment = req.Comment
	updated, err := c.stores.Comments.UpdateComment(ctx, comment)
	if err != nil {
		return nil, notFoundAs(err, errCommentNotFound)
	}
	updated.User = user
	return updated, nil
}

// Delete removes a comment. Authors may delete their own comments and the
// class teacher may delete any.
func (c *CommentService) Delete(ctx context.Context, user *model.User, req *model.CommentRequest) error {
	class, _, err := c.announcement(ctx, user, req.ClassID, req.AnnouncementID)
	if err != nil {
		return err
	}

	comment, err := c.stores.Comments.GetComment(ctx, req.AnnouncementID, req.CommentID)
	if err != nil {
		return notFoundAs(err, errCommentNotFound)
	}
	if comment.UserID != user.ID && class.TeacherID != user.ID {
		return errs.NewForbiddenError("You are not allowed to delete this comment", true)
	}

	return notFoundAs(c.stores.Comments.DeleteComment(ctx, comment.ID), errCommentNotFound)
}
