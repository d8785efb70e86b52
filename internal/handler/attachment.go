package handler

import (
	"github.com/deppfellow/classroom/internal/model"
	"github.com/deppfellow/classroom/internal/server"
	"github.com/deppfellow/classroom/internal/service"

	"github.com/labstack/echo/v4"
)

type AttachmentHandler struct {
	Handler
	attachments *service.AttachmentService
}

func NewAttachmentHandler(s *server.Server, attachments *service.AttachmentService) *AttachmentHandler {
	return &AttachmentHandler{
		Handler:     NewHandler(s),
		attachments: attachments,
	}
}

func (h *AttachmentHandler) Download(c echo.Context, req *model.DownloadAttachmentRequest) (*File, error) {
	file, err := h.attachments.Download(c.Request().Context(), req.Filename)
	if err != nil {
		return nil, err
	}
	return &File{Name: file.Name, ContentType: file.ContentType, Data: file.Data, Inline: true}, nil
}
