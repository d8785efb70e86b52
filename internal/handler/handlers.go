// Package handler is the HTTP layer. Each handler binds and validates its
// request through the generic Handle pipeline, calls one service method and
// wraps the result in the Response envelope.
package handler

import (
	"github.com/deppfellow/classroom/internal/server"
	"github.com/deppfellow/classroom/internal/service"
)

// StaticDir holds the OpenAPI document and its UI.
const StaticDir = "static"

type Handlers struct {
	Health       *HealthHandler
	OpenAPI      *OpenAPIHandler
	Auth         *AuthHandler
	Class        *ClassHandler
	Announcement *AnnouncementHandler
	Grade        *GradeHandler
	Submission   *SubmissionHandler
	Attachment   *AttachmentHandler
}

func NewHandlers(s *server.Server, services *service.Services) *Handlers {
	return &Handlers{
		Health:       NewHealthHandler(s),
		OpenAPI:      NewOpenAPIHandler(s, StaticDir),
		Auth:         NewAuthHandler(s, services.Auth),
		Class:        NewClassHandler(s, services.Class, services.Topic),
		Announcement: NewAnnouncementHandler(s, services.Announcement, services.Comment),
		Grade:        NewGradeHandler(s, services.Grade),
		Submission:   NewSubmissionHandler(s, services.Submission),
		Attachment:   NewAttachmentHandler(s, services.Attachment),
	}
}
