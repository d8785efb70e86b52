package router

import (
	"net/http"

	"github.com/deppfellow/classroom/internal/handler"
	"github.com/deppfellow/classroom/internal/lib/storage"
	"github.com/deppfellow/classroom/internal/model"
	"github.com/deppfellow/classroom/internal/server"

	"github.com/labstack/echo/v4"
)

func registerSystemRoutes(r *echo.Echo, s *server.Server, h *handler.Handlers) {
	r.GET("/status", h.Health.CheckHealth)

	r.Static("/static", handler.StaticDir)

	r.GET("/docs", h.OpenAPI.ServeOpenAPIUI)
	r.GET("/docs/openapi.json", h.OpenAPI.ServeDocument)

	// Uploads on the local disk are served the way a CDN would serve B2.
	if disk, ok := s.Storage.(*storage.LocalDisk); ok {
		r.Static("/storage", disk.Root())
	}

	v1 := r.Group("/api/v1")
	v1.GET("/health", h.Health.Health)
	v1.GET("/attachments/:filename", handler.HandleFile(
		h.Attachment.Handler,
		h.Attachment.Download,
		http.StatusOK,
		&model.DownloadAttachmentRequest{},
	))
}
