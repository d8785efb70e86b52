package handler

import (
	"bytes"
	"fmt"
	"html/template"
	"net/http"
	"path/filepath"

	"github.com/deppfellow/classroom/internal/server"

	"github.com/labstack/echo/v4"
)

const (
	openAPIDocument = "openapi.json"
	openAPIPage     = "openapi.html"
)

type OpenAPIHandler struct {
	Handler
	dir string
}

// docsPage is the data the docs template is rendered with.
type docsPage struct {
	Title   string
	SpecURL string
}

// NewOpenAPIHandler serves the API document and its docs UI from dir.
func NewOpenAPIHandler(s *server.Server, dir string) *OpenAPIHandler {
	return &OpenAPIHandler{
		Handler: NewHandler(s),
		dir:     dir,
	}
}

// ServeOpenAPIUI renders the docs page pointing at ServeDocument.
// The template is read on every request so edits show up without a restart.
func (h *OpenAPIHandler) ServeOpenAPIUI(c echo.Context) error {
	tmpl, err := template.ParseFiles(filepath.Join(h.dir, openAPIPage))
	if err != nil {
		return fmt.Errorf("failed to read OpenAPI UI template: %w", err)
	}

	title := "Classroom API"
	if v := h.server.Config.App.Version; v != "" {
		title += " " + v
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, docsPage{Title: title, SpecURL: "/docs/" + openAPIDocument}); err != nil {
		return fmt.Errorf("failed to render OpenAPI UI: %w", err)
	}

	c.Response().Header().Set("Cache-Control", "no-cache")
	return c.HTMLBlob(http.StatusOK, buf.Bytes())
}

func (h *OpenAPIHandler) ServeDocument(c echo.Context) error {
	c.Response().Header().Set("Cache-Control", "no-cache")
	return c.File(filepath.Join(h.dir, openAPIDocument))
}
