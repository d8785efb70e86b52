package middleware

import (
	"github.com/deppfellow/classroom/internal/server"

	"github.com/labstack/echo/v4"
	"github.com/newrelic/go-agent/v3/integrations/nrecho-v4"
	"github.com/newrelic/go-agent/v3/integrations/nrpkgerrors"
	"github.com/newrelic/go-agent/v3/newrelic"
)

// Path parameters copied onto the transaction so traces can be filtered by
// class or announcement.
var tracedParams = map[string]string{
	"classId":        "class.id",
	"id":             "class.id",
	"announcementId": "announcement.id",
	"submissionId":   "submission.id",
}

type TracingMiddleware struct {
	server *server.Server
	nrApp  *newrelic.Application
}

func NewTracingMiddleware(s *server.Server, nrApp *newrelic.Application) *TracingMiddleware {
	return &TracingMiddleware{
		server: s,
		nrApp:  nrApp,
	}
}

// NewRelicMiddleware starts a transaction per request. It is a no-op when
// New Relic is not configured.
func (tm *TracingMiddleware) NewRelicMiddleware() echo.MiddlewareFunc {
	if tm.nrApp == nil {
		return func(next echo.HandlerFunc) echo.HandlerFunc {
			return next
		}
	}
	return nrecho.Middleware(tm.nrApp)
}

func (tm *TracingMiddleware) EnhanceTracing() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			txn := newrelic.FromContext(c.Request().Context())
			if txn == nil {
				return next(c)
			}

			txn.AddAttribute("http.real_ip", c.RealIP())
			txn.AddAttribute("http.user_agent", c.Request().UserAgent())
			if id := GetRequestID(c); id != "" {
				txn.AddAttribute("request.id", id)
			}

			err := next(c)
			if err != nil {
				txn.NoticeError(nrpkgerrors.Wrap(err))
			}

			// Route and auth data is only known after the router and
			// RequireAuth ran.
			txn.AddAttribute("http.route", c.Path())
			for _, name := range c.ParamNames() {
				if attr, ok := tracedParams[name]; ok {
					txn.AddAttribute(attr, c.Param(name))
				}
			}
			if userID := GetUserID(c); userID != 0 {
				txn.AddAttribute("user.id", userID)
			}
			if role, ok := c.Get(UserRoleKey).(string); ok {
				txn.AddAttribute("user.role", role)
			}
			txn.AddAttribute("http.status_code", c.Response().Status)

			return err
		}
	}
}
