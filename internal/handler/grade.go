package handler

import (
	"fmt"

	"github.com/deppfellow/classroom/internal/model"
	"github.com/deppfellow/classroom/internal/server"
	"github.com/deppfellow/classroom/internal/service"

	"github.com/labstack/echo/v4"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type GradeHandler struct {
	Handler
	grades *service.GradeService
}

func NewGradeHandler(s *server.Server, grades *service.GradeService) *GradeHandler {
	return &GradeHandler{
		Handler: NewHandler(s),
		grades:  grades,
	}
}

func (h *GradeHandler) List(c echo.Context, req *model.AnnouncementRequest) ([]model.Grade, error) {
	return h.grades.List(c.Request().Context(), currentUser(c), req)
}

func (h *GradeHandler) Upsert(c echo.Context, req *model.UpsertGradeRequest) (*Response, error) {
	grade, err := h.grades.Upsert(c.Request().Context(), currentUser(c), req)
	if err != nil {
		return nil, err
	}
	return Respond(grade, "Grade saved successfully"), nil
}

func (h *GradeHandler) Batch(c echo.Context, req *model.BatchGradeRequest) (*Response, error) {
	result, err := h.grades.Batch(c.Request().Context(), currentUser(c), req)
	if err != nil {
		return nil, err
	}
	return &Response{
		Message:  fmt.Sprintf("%d grades saved", len(result.Grades)),
		Data:     result.Grades,
		Warnings: result.Warnings,
	}, nil
}

func (h *GradeHandler) Update(c echo.Context, req *model.UpdateGradeRequest) (*Response, error) {
	grade, err := h.grades.Update(c.Request().Context(), currentUser(c), req)
	if err != nil {
		return nil, err
	}
	return Respond(grade, "Grade updated successfully"), nil
}

func (h *GradeHandler) Delete(c echo.Context, req *model.GradeRequest) error {
	return h.grades.Delete(c.Request().Context(), currentUser(c), req)
}

func (h *GradeHandler) Export(c echo.Context, req *model.AnnouncementRequest) (*File, error) {
	sheet, err := h.grades.Export(c.Request().Context(), currentUser(c), req)
	if err != nil {
		return nil, err
	}
	return &File{Name: sheet.Name, ContentType: xlsxContentType, Data: sheet.Data}, nil
}

func (h *GradeHandler) MyGrade(c echo.Context, req *model.AnnouncementRequest) (*Response, error) {
	grade, err := h.grades.MyGrade(c.Request().Context(), currentUser(c), req)
	if err != nil {
		return nil, err
	}
	if grade == nil {
		return Respond(nil, "This assignment has not been graded yet"), nil
	}
	return Respond(grade, ""), nil
}

func (h *GradeHandler) MyGrades(c echo.Context, req *model.ClassScopedRequest) ([]model.Grade, error) {
	return h.grades.MyGrades(c.Request().Context(), currentUser(c), req.ClassID)
}
