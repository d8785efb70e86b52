package handler

import (
	"github.com/deppfellow/classroom/internal/model"
	"github.com/deppfellow/classroom/internal/server"
	"github.com/deppfellow/classroom/internal/service"

	"github.com/labstack/echo/v4"
)

type ClassHandler struct {
	Handler
	classes *service.ClassService
	topics  *service.TopicService
}

func NewClassHandler(s *server.Server, classes *service.ClassService, topics *service.TopicService) *ClassHandler {
	return &ClassHandler{
		Handler: NewHandler(s),
		classes: classes,
		topics:  topics,
	}
}

func (h *ClassHandler) List(c echo.Context, _ *model.EmptyRequest) ([]model.ClassRoom, error) {
	return h.classes.List(c.Request().Context(), currentUser(c))
}

func (h *ClassHandler) Create(c echo.Context, req *model.CreateClassRequest) (*Response, error) {
	class, err := h.classes.Create(c.Request().Context(), currentUser(c), req)
	if err != nil {
		return nil, err
	}
	return Respond(class, "Class created successfully"), nil
}

func (h *ClassHandler) Join(c echo.Context, req *model.JoinClassRequest) (*Response, error) {
	class, err := h.classes.Join(c.Request().Context(), currentUser(c), req)
	if err != nil {
		return nil, err
	}
	return Respond(class, "Joined the class successfully"), nil
}

func (h *ClassHandler) Get(c echo.Context, req *model.ClassRequest) (*model.ClassRoom, error) {
	return h.classes.Get(c.Request().Context(), currentUser(c), req.ClassID)
}

func (h *ClassHandler) Update(c echo.Context, req *model.UpdateClassRequest) (*Response, error) {
	class, err := h.classes.Update(c.Request().Context(), currentUser(c), req)
	if err != nil {
		return nil, err
	}
	return Respond(class, "Class updated successfully"), nil
}

func (h *ClassHandler) Delete(c echo.Context, req *model.ClassRequest) error {
	return h.classes.Delete(c.Request().Context(), currentUser(c), req.ClassID)
}

func (h *ClassHandler) ListTopics(c echo.Context, req *model.ClassScopedRequest) ([]model.Topic, error) {
	return h.topics.List(c.Request().Context(), currentUser(c), req.ClassID)
}

func (h *ClassHandler) CreateTopic(c echo.Context, req *model.CreateTopicRequest) (*Response, error) {
	topic, err := h.topics.Create(c.Request().Context(), currentUser(c), req)
	if err != nil {
		return nil, err
	}
	return Respond(topic, "Topic created successfully"), nil
}

func (h *ClassHandler) UpdateTopic(c echo.Context, req *model.UpdateTopicRequest) (*Response, error) {
	topic, err := h.topics.Update(c.Request().Context(), currentUser(c), req)
	if err != nil {
		return nil, err
	}
	return Respond(topic, "Topic updated successfully"), nil
}

func (h *ClassHandler) DeleteTopic(c echo.Context, req *model.TopicRequest) error {
	return h.topics.Delete(c.Request().Context(), currentUser(c), req)
}
