package handler

import (
	"github.com/deppfellow/classroom/internal/model"
	"github.com/deppfellow/classroom/internal/server"
	"github.com/deppfellow/classroom/internal/service"

	"github.com/labstack/echo/v4"
)

type SubmissionHandler struct {
	Handler
	submissions *service.SubmissionService
}

func NewSubmissionHandler(s *server.Server, submissions *service.SubmissionService) *SubmissionHandler {
	return &SubmissionHandler{
		Handler:     NewHandler(s),
		submissions: submissions,
	}
}

func (h *SubmissionHandler) Create(c echo.Context, req *model.CreateSubmissionRequest) (*Response, error) {
	sub, err := h.submissions.Create(c.Request().Context(), currentUser(c), req)
	if err != nil {
		return nil, err
	}

	message := "Assignment submitted"
	if sub.Status == model.SubmissionLate {
		message = "Assignment submitted (late)"
	}
	return Respond(sub, message), nil
}

func (h *SubmissionHandler) Mine(c echo.Context, req *model.AnnouncementRequest) (*Response, error) {
	sub, err := h.submissions.Mine(c.Request().Context(), currentUser(c), req)
	if err != nil {
		return nil, err
	}
	if sub == nil {
		return Respond(nil, "You have not submitted this assignment yet"), nil
	}
	return Respond(sub, ""), nil
}

func (h *SubmissionHandler) List(c echo.Context, req *model.AnnouncementRequest) (*service.SubmissionList, error) {
	return h.submissions.List(c.Request().Context(), currentUser(c), req)
}

func (h *SubmissionHandler) Update(c echo.Context, req *model.UpdateSubmissionRequest) (*Response, error) {
	sub, err := h.submissions.Update(c.Request().Context(), currentUser(c), req)
	if err != nil {
		return nil, err
	}
	return Respond(sub, "Submission updated successfully"), nil
}

func (h *SubmissionHandler) AddFile(c echo.Context, req *model.AddSubmissionFileRequest) (*Response, error) {
	file, err := h.submissions.AddFile(c.Request().Context(), currentUser(c), req)
	if err != nil {
		return nil, err
	}
	return Respond(file, "File added successfully"), nil
}

func (h *SubmissionHandler) DeleteFile(c echo.Context, req *model.SubmissionFileRequest) error {
	return h.submissions.DeleteFile(c.Request().Context(), currentUser(c), req)
}

func (h *SubmissionHandler) Delete(c echo.Context, req *model.SubmissionRequest) error {
	return h.submissions.Delete(c.Request().Context(), currentUser(c), req)
}
