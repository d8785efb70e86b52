package handler

import (
	"github.com/deppfellow/classroom/internal/model"
	"github.com/deppfellow/classroom/internal/server"
	"github.com/deppfellow/classroom/internal/service"

	"github.com/labstack/echo/v4"
)

type AnnouncementHandler struct {
	Handler
	announcements *service.AnnouncementService
	comments      *service.CommentService
}

func NewAnnouncementHandler(s *server.Server, announcements *service.AnnouncementService, comments *service.CommentService) *AnnouncementHandler {
	return &AnnouncementHandler{
		Handler:       NewHandler(s),
		announcements: announcements,
		comments:      comments,
	}
}

func (h *AnnouncementHandler) List(c echo.Context, req *model.ClassScopedRequest) ([]model.Announcement, error) {
	return h.announcements.List(c.Request().Context(), currentUser(c), req.ClassID)
}

func (h *AnnouncementHandler) Create(c echo.Context, req *model.CreateAnnouncementRequest) (*Response, error) {
	ann, err := h.announcements.Create(c.Request().Context(), currentUser(c), req)
	if err != nil {
		return nil, err
	}
	return Respond(ann, "Announcement created successfully"), nil
}

func (h *AnnouncementHandler) Get(c echo.Context, req *model.AnnouncementRequest) (*model.Announcement, error) {
	return h.announcements.Get(c.Request().Context(), currentUser(c), req)
}

func (h *AnnouncementHandler) Update(c echo.Context, req *model.UpdateAnnouncementRequest) (*Response, error) {
	ann, err := h.announcements.Update(c.Request().Context(), currentUser(c), req)
	if err != nil {
		return nil, err
	}
	return Respond(ann, "Announcement updated successfully"), nil
}

func (h *AnnouncementHandler) Delete(c echo.Context, req *model.AnnouncementRequest) error {
	return h.announcements.Delete(c.Request().Context(), currentUser(c), req)
}

func (h *AnnouncementHandler) Reuse(c echo.Context, req *model.AnnouncementRequest) (*Response, error) {
	ann, err := h.announcements.Reuse(c.Request().Context(), currentUser(c), req)
	if err != nil {
		return nil, err
	}
	return Respond(ann, "Announcement reused successfully"), nil
}

func (h *AnnouncementHandler) AddToTopic(c echo.Context, req *model.AddToTopicRequest) (*Response, error) {
	ann, err := h.announcements.AddToTopic(c.Request().Context(), currentUser(c), req)
	if err != nil {
		return nil, err
	}
	return Respond(ann, "Announcement added to topic"), nil
}

func (h *AnnouncementHandler) ListComments(c echo.Context, req *model.AnnouncementRequest) ([]model.Comment, error) {
	return h.comments.List(c.Request().Context(), currentUser(c), req)
}

func (h *AnnouncementHandler) CreateComment(c echo.Context, req *model.CreateCommentRequest) (*Response, error) {
	comment, err := h.comments.Create(c.Request().Context(), currentUser(c), req)
	if err != nil {
		return nil, err
	}
	return Respond(comment, "Comment added successfully"), nil
}

func (h *AnnouncementHandler) UpdateComment(c echo.Context, req *model.UpdateCommentRequest) (*Response, error) {
	comment, err := h.comments.Update(c.Request().Context(), currentUser(c), req)
	if err != nil {
		return nil, err
	}
	return Respond(comment, "Comment updated successfully"), nil
}

func (h *AnnouncementHandler) DeleteComment(c echo.Context, req *model.CommentRequest) error {
	return h.comments.Delete(c.Request().Context(), currentUser(c), req)
}
