// Package router builds the echo instance: global middlewares, system
// routes and the /api/v1 route table.
package router

import (
	"github.com/deppfellow/classroom/internal/handler"
	"github.com/deppfellow/classroom/internal/middleware"
	"github.com/deppfellow/classroom/internal/server"

	"github.com/labstack/echo/v4"
)

func NewRouter(s *server.Server, h *handler.Handlers, middlewares *middleware.Middlewares) *echo.Echo {
	router := echo.New()
	router.HideBanner = true
	router.HidePort = true

	router.HTTPErrorHandler = middlewares.Global.GlobalErrorHandler

	router.Use(
		middleware.RequestID(),
		middlewares.Tracing.NewRelicMiddleware(),
		middlewares.Tracing.EnhanceTracing(),
		middlewares.ContextEnhancer.EnhanceContext(),
		middlewares.Global.RequestLogger(),
		middlewares.Global.Recover(),
		middlewares.Global.CORS(),
		middlewares.Global.Secure(),
		middlewares.Global.BodyLimit(),
		middlewares.RateLimit.Global(),
	)

	registerSystemRoutes(router, s, h)

	v1 := router.Group("/api/v1")
	registerAuthRoutes(v1, h, middlewares)
	registerClassRoutes(v1, h, middlewares)
	registerAnnouncementRoutes(v1, h, middlewares)
	registerGradeRoutes(v1, h, middlewares)
	registerSubmissionRoutes(v1, h, middlewares)

	return router
}
