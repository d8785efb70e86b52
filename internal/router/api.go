package router

import (
	"net/http"

	"github.com/deppfellow/classroom/internal/handler"
	"github.com/deppfellow/classroom/internal/middleware"
	"github.com/deppfellow/classroom/internal/model"

	"github.com/labstack/echo/v4"
)

func registerAuthRoutes(v1 *echo.Group, h *handler.Handlers, m *middleware.Middlewares) {
	auth := h.Auth
	limit := m.RateLimit.Limit(middleware.AuthPolicy)

	v1.POST("/register", handler.Handle(auth.Handler, auth.Register, http.StatusCreated, &model.RegisterRequest{}), limit)
	v1.POST("/login", handler.Handle(auth.Handler, auth.Login, http.StatusOK, &model.LoginRequest{}), limit)

	v1.POST("/logout", handler.HandleMessage(auth.Handler, auth.Logout, http.StatusOK, &model.EmptyRequest{}, "Logged out successfully"),
		m.Auth.RequireAuth)
	v1.GET("/me", handler.Handle(auth.Handler, auth.Me, http.StatusOK, &model.EmptyRequest{}), m.Auth.RequireAuth)
}

func registerClassRoutes(v1 *echo.Group, h *handler.Handlers, m *middleware.Middlewares) {
	class := h.Class

	classes := v1.Group("/classes", m.Auth.RequireAuth)
	classes.GET("", handler.Handle(class.Handler, class.List, http.StatusOK, &model.EmptyRequest{}))
	classes.POST("", handler.Handle(class.Handler, class.Create, http.StatusCreated, &model.CreateClassRequest{}),
		m.RateLimit.Limit(middleware.CreateClassPolicy))
	classes.POST("/join", handler.Handle(class.Handler, class.Join, http.StatusOK, &model.JoinClassRequest{}))
	classes.GET("/:id", handler.Handle(class.Handler, class.Get, http.StatusOK, &model.ClassRequest{}))
	classes.PUT("/:id", handler.Handle(class.Handler, class.Update, http.StatusOK, &model.UpdateClassRequest{}))
	classes.DELETE("/:id", handler.HandleMessage(class.Handler, class.Delete, http.StatusOK, &model.ClassRequest{}, "Class deleted successfully"))

	topics := classes.Group("/:classId/topics")
	topics.GET("", handler.Handle(class.Handler, class.ListTopics, http.StatusOK, &model.ClassScopedRequest{}))
	topics.POST("", handler.Handle(class.Handler, class.CreateTopic, http.StatusCreated, &model.CreateTopicRequest{}))
	topics.PUT("/:topicId", handler.Handle(class.Handler, class.UpdateTopic, http.StatusOK, &model.UpdateTopicRequest{}))
	topics.DELETE("/:topicId", handler.HandleMessage(class.Handler, class.DeleteTopic, http.StatusOK, &model.TopicRequest{}, "Topic deleted successfully"))

	grade := h.Grade
	classes.GET("/:classId/my-grades", handler.Handle(grade.Handler, grade.MyGrades, http.StatusOK, &model.ClassScopedRequest{}))
}

func registerAnnouncementRoutes(v1 *echo.Group, h *handler.Handlers, m *middleware.Middlewares) {
	ann := h.Announcement

	announcements := v1.Group("/classes/:classId/announcements", m.Auth.RequireAuth)
	announcements.GET("", handler.Handle(ann.Handler, ann.List, http.StatusOK, &model.ClassScopedRequest{}))
	announcements.POST("", handler.Handle(ann.Handler, ann.Create, http.StatusCreated, &model.CreateAnnouncementRequest{}),
		m.RateLimit.Limit(middleware.CreateAnnouncementPolicy))
	announcements.GET("/:announcementId", handler.Handle(ann.Handler, ann.Get, http.StatusOK, &model.AnnouncementRequest{}))
	announcements.PUT("/:announcementId", handler.Handle(ann.Handler, ann.Update, http.StatusOK, &model.UpdateAnnouncementRequest{}))
	announcements.DELETE("/:announcementId", handler.HandleMessage(ann.Handler, ann.Delete, http.StatusOK, &model.AnnouncementRequest{}, "Announcement deleted successfully"))
	announcements.POST("/:announcementId/reuse", handler.Handle(ann.Handler, ann.Reuse, http.StatusCreated, &model.AnnouncementRequest{}))
	announcements.POST("/:announcementId/add-to-topic", handler.Handle(ann.Handler, ann.AddToTopic, http.StatusOK, &model.AddToTopicRequest{}))

	comments := announcements.Group("/:announcementId/comments")
	comments.GET("", handler.Handle(ann.Handler, ann.ListComments, http.StatusOK, &model.AnnouncementRequest{}))
	comments.POST("", handler.Handle(ann.Handler, ann.CreateComment, http.StatusCreated, &model.CreateCommentRequest{}),
		m.RateLimit.Limit(middleware.AddCommentPolicy))
	comments.PUT("/:commentId", handler.Handle(ann.Handler, ann.UpdateComment, http.StatusOK, &model.UpdateCommentRequest{}))
	comments.DELETE("/:commentId", handler.HandleMessage(ann.Handler, ann.DeleteComment, http.StatusOK, &model.CommentRequest{}, "Comment deleted successfully"))
}

func registerGradeRoutes(v1 *echo.Group, h *handler.Handlers, m *middleware.Middlewares) {
	grade := h.Grade

	announcement := v1.Group("/classes/:classId/announcements/:announcementId", m.Auth.RequireAuth)
	announcement.GET("/my-grade", handler.Handle(grade.Handler, grade.MyGrade, http.StatusOK, &model.AnnouncementRequest{}))

	grades := announcement.Group("/grades")
	grades.GET("", handler.Handle(grade.Handler, grade.List, http.StatusOK, &model.AnnouncementRequest{}))
	grades.POST("", handler.Handle(grade.Handler, grade.Upsert, http.StatusOK, &model.UpsertGradeRequest{}))
	grades.POST("/batch", handler.Handle(grade.Handler, grade.Batch, http.StatusOK, &model.BatchGradeRequest{}),
		m.RateLimit.Limit(middleware.BatchGradePolicy))
	grades.GET("/export", handler.HandleFile(grade.Handler, grade.Export, http.StatusOK, &model.AnnouncementRequest{}))
	grades.PUT("/:gradeId", handler.Handle(grade.Handler, grade.Update, http.StatusOK, &model.UpdateGradeRequest{}))
	grades.DELETE("/:gradeId", handler.HandleMessage(grade.Handler, grade.Delete, http.StatusOK, &model.GradeRequest{}, "Grade deleted successfully"))
}

func registerSubmissionRoutes(v1 *echo.Group, h *handler.Handlers, m *middleware.Middlewares) {
	sub := h.Submission

	submissions := v1.Group("/classes/:classId/announcements/:announcementId/submissions", m.Auth.RequireAuth)
	submissions.POST("", handler.Handle(sub.Handler, sub.Create, http.StatusCreated, &model.CreateSubmissionRequest{}))
	submissions.GET("/me", handler.Handle(sub.Handler, sub.Mine, http.StatusOK, &model.AnnouncementRequest{}))
	submissions.GET("", handler.Handle(sub.Handler, sub.List, http.StatusOK, &model.AnnouncementRequest{}))
	submissions.PUT("/:submissionId", handler.Handle(sub.Handler, sub.Update, http.StatusOK, &model.UpdateSubmissionRequest{}))
	submissions.POST("/:submissionId/files", handler.Handle(sub.Handler, sub.AddFile, http.StatusCreated, &model.AddSubmissionFileRequest{}))
	submissions.DELETE("/:submissionId/files/:fileId", handler.HandleMessage(sub.Handler, sub.DeleteFile, http.StatusOK, &model.SubmissionFileRequest{}, "File deleted successfully"))
	submissions.DELETE("/:submissionId", handler.HandleMessage(sub.Handler, sub.Delete, http.StatusOK, &model.SubmissionRequest{}, "Submission deleted successfully"))
}
