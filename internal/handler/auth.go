package handler

import (
	"github.com/deppfellow/classroom/internal/middleware"
	"github.com/deppfellow/classroom/internal/model"
	"github.com/deppfellow/classroom/internal/server"
	"github.com/deppfellow/classroom/internal/service"

	"github.com/labstack/echo/v4"
)

type AuthHandler struct {
	Handler
	auth *service.AuthService
}

func NewAuthHandler(s *server.Server, auth *service.AuthService) *AuthHandler {
	return &AuthHandler{
		Handler: NewHandler(s),
		auth:    auth,
	}
}

func (h *AuthHandler) Register(c echo.Context, req *model.RegisterRequest) (*Response, error) {
	result, err := h.auth.Register(c.Request().Context(), req)
	if err != nil {
		return nil, err
	}
	return Respond(result, "Registration successful"), nil
}

func (h *AuthHandler) Login(c echo.Context, req *model.LoginRequest) (*Response, error) {
	result, err := h.auth.Login(c.Request().Context(), req)
	if err != nil {
		return nil, err
	}
	return Respond(result, "Login successful"), nil
}

func (h *AuthHandler) Logout(c echo.Context, _ *model.EmptyRequest) error {
	return h.auth.Logout(c.Request().Context(), middleware.GetSession(c))
}

func (h *AuthHandler) Me(c echo.Context, _ *model.EmptyRequest) (*model.User, error) {
	return currentUser(c), nil
}
