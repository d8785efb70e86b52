package middleware

import (
	"github.com/deppfellow/classroom/internal/logger"
	"github.com/deppfellow/classroom/internal/model"
	"github.com/deppfellow/classroom/internal/server"

	"github.com/labstack/echo/v4"
	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/rs/zerolog"
)

const (
	UserKey     = "user"
	UserIDKey   = "user_id"
	UserRoleKey = "user_role"
	SessionKey  = "session"

	LoggerKey = "logger"
)

type ContextEnhancer struct {
	server *server.Server
}

func NewContextEnhancer(s *server.Server) *ContextEnhancer {
	return &ContextEnhancer{server: s}
}

// EnhanceContext builds the request logger and stores it on the echo context
// and in the request context, where zerolog.Ctx finds it.
func (ce *ContextEnhancer) EnhanceContext() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			contextLogger := ce.server.Logger.With().
				Str("request_id", GetRequestID(c)).
				Str("method", c.Request().Method).
				Str("path", c.Path()).
				Str("ip", c.RealIP()).
				Logger()

			if txn := newrelic.FromContext(c.Request().Context()); txn != nil {
				contextLogger = logger.WithTraceContext(contextLogger, txn)
			}

			setLogger(c, &contextLogger)

			return next(c)
		}
	}
}

func setLogger(c echo.Context, l *zerolog.Logger) {
	c.Set(LoggerKey, l)
	c.SetRequest(c.Request().WithContext(l.WithContext(c.Request().Context())))
}

// GetUser returns the authenticated user, or nil outside RequireAuth.
func GetUser(c echo.Context) *model.User {
	if user, ok := c.Get(UserKey).(*model.User); ok {
		return user
	}
	return nil
}

func GetSession(c echo.Context) *model.Session {
	if session, ok := c.Get(SessionKey).(*model.Session); ok {
		return session
	}
	return nil
}

// GetUserID returns 0 for anonymous requests.
func GetUserID(c echo.Context) int64 {
	if userID, ok := c.Get(UserIDKey).(int64); ok {
		return userID
	}
	return 0
}

func GetLogger(c echo.Context) *zerolog.Logger {
	if logger, ok := c.Get(LoggerKey).(*zerolog.Logger); ok {
		return logger
	}

	logger := zerolog.Nop()
	return &logger
}
