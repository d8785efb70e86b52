package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/deppfellow/classroom/internal/errs"
	"github.com/deppfellow/classroom/internal/lib/export"
	"github.com/deppfellow/classroom/internal/model"
	"github.com/deppfellow/classroom/internal/server"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

const gradeTeacherOnly = "Only the class teacher can manage grades"

var errNotAssignment = errs.NewBadRequestError("Grades can only be given to assignments", true, nil, nil, nil)

// BatchResult is the outcome of a batch grade request. Warnings name the
// entries that were skipped.
type BatchResult struct {
	Grades   []model.Grade
	Warnings []string
}

// ExportFile is a rendered grade sheet.
type ExportFile struct {
	Name string
	Data []byte
}

type GradeService struct {
	server        *server.Server
	stores        Stores
	acl           access
	announcements *AnnouncementService
}

func NewGradeService(s *server.Server, stores Stores, acl access, announcements *AnnouncementService) *GradeService {
	return &GradeService{server: s, stores: stores, acl: acl, announcements: announcements}
}

// assignment checks that user teaches the class and loads the announcement.
func (g *GradeService) assignment(ctx context.Context, user *model.User, classID, announcementID int64) (*model.ClassRoom, *model.Announcement, error) {
	class, err := g.acl.requireTeacher(ctx, classID, user, gradeTeacherOnly)
	if err != nil {
		return nil, nil, err
	}
	ann, err := g.stores.Announcements.GetAnnouncement(ctx, classID, announcementID)
	if err != nil {
		return nil, nil, notFoundAs(err, errAnnouncementNotFound)
	}
	return class, ann, nil
}

func (g *GradeService) List(ctx context.Context, user *model.User, req *model.AnnouncementRequest) ([]model.Grade, error) {
	_, ann, err := g.assignment(ctx, user, req.ClassID, req.AnnouncementID)
	if err != nil {
		return nil, err
	}

	grades, err := g.stores.Grades.ListGrades(ctx, []int64{ann.ID})
	if err != nil {
		return nil, err
	}
	return withStudents(ctx, g.stores.Users, grades[ann.ID])
}

func scoreOf(score *float64) decimal.Decimal {
	if score == nil {
		return decimal.Zero
	}
	return decimal.NewFromFloat(*score).Round(2)
}

// checkStudent verifies that studentID is a student enrolled in the class.
func (g *GradeService) checkStudent(ctx context.Context, classID, studentID int64) (*model.User, error) {
	student, err := g.stores.Users.GetUserByID(ctx, studentID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errs.FieldInvalid("student_id", "The selected student is invalid")
		}
		return nil, err
	}
	if !student.IsStudent() {
		return nil, errs.NewBadRequestError("The user is not a student", true, nil, nil, nil)
	}

	member, err := g.stores.Classes.IsMember(ctx, classID, studentID)
	if err != nil {
		return nil, err
	}
	if !member {
		return nil, errs.NewBadRequestError("The student is not a member of this class", true, nil, nil, nil)
	}
	return student, nil
}

// Upsert creates or replaces the grade of one student. The student's
// submission, if any, is marked graded.
func (g *GradeService) Upsert(ctx context.Context, user *model.User, req *model.UpsertGradeRequest) (*model.Grade, error) {
	_, ann, err := g.assignment(ctx, user, req.ClassID, req.AnnouncementID)
	if err != nil {
		return nil, err
	}
	if !ann.IsAssignment() {
		return nil, errNotAssignment
	}

	student, err := g.checkStudent(ctx, req.ClassID, req.StudentID)
	if err != nil {
		return nil, err
	}

	grade, err := g.save(ctx, ann, student, req.Input())
	if err != nil {
		return nil, err
	}

	loggerFrom(ctx, g.server.Logger).Info().
		Int64("announcement_id", ann.ID).
		Int64("student_id", student.ID).
		Str("score", grade.Score.String()).
		Msg("grade saved")

	return grade, nil
}

// save upserts the grade of student for ann.
func (g *GradeService) save(ctx context.Context, ann *model.Announcement, student *model.User, input model.GradeInput) (*model.Grade, error) {
	grade, err := g.stores.Grades.UpsertGrade(ctx, &model.Grade{
		AnnouncementID: ann.ID,
		StudentID:      student.ID,
		Score:          scoreOf(input.Score),
		Comment:        input.Comment,
	})
	if err != nil {
		return nil, err
	}
	grade.Student = student
	return grade, nil
}

// Batch saves several grades at once. Entries for users that are not
// students of the class are skipped with a warning.
func (g *GradeService) Batch(ctx context.Context, user *model.User, req *model.BatchGradeRequest) (*BatchResult, error) {
	logger := loggerFrom(ctx, g.server.Logger)

	_, ann, err := g.assignment(ctx, user, req.ClassID, req.AnnouncementID)
	if err != nil {
		return nil, err
	}
	if !ann.IsAssignment() {
		return nil, errNotAssignment
	}

	result := &BatchResult{Grades: []model.Grade{}, Warnings: []string{}}
	for _, input := range req.Grades {
		student, err := g.checkStudent(ctx, req.ClassID, input.StudentID)
		if err != nil {
			var httpErr *errs.HTTPError
			if !errors.As(err, &httpErr) {
				return nil, err
			}
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("Student with ID %d is not a member of this class", input.StudentID))
			continue
		}

		grade, err := g.save(ctx, ann, student, input)
		if err != nil {
			return nil, err
		}
		result.Grades = append(result.Grades, *grade)
	}

	logger.Info().
		Int64("announcement_id", ann.ID).
		Int("saved", len(result.Grades)).
		Int("skipped", len(result.Warnings)).
		Msg("batch grades saved")

	return result, nil
}

func (g *GradeService) Update(ctx context.Context, user *model.User, req *model.UpdateGradeRequest) (*model.Grade, error) {
	_, ann, err := g.assignment(ctx, user, req.ClassID, req.AnnouncementID)
	if err != nil {
		return nil, err
	}
	if !ann.IsAssignment() {
		return nil, errNotAssignment
	}

	grade, err := g.stores.Grades.GetGrade(ctx, ann.ID, req.GradeID)
	if err != nil {
		return nil, notFoundAs(err, errGradeNotFound)
	}
	if req.Score != nil {
		grade.Score = scoreOf(req.Score)
	}
	if req.Comment != nil {
		grade.Comment = req.Comment
	}

	updated, err := g.stores.Grades.UpdateGrade(ctx, grade)
	if err != nil {
		return nil, notFoundAs(err, errGradeNotFound)
	}

	grades, err := withStudents(ctx, g.stores.Users, []model.Grade{*updated})
	if err != nil {
		return nil, err
	}
	return &grades[0], nil
}

// Delete removes a grade; a graded submission goes back to submitted or late.
func (g *GradeService) Delete(ctx context.Context, user *model.User, req *model.GradeRequest) error {
	_, ann, err := g.assignment(ctx, user, req.ClassID, req.AnnouncementID)
	if err != nil {
		return err
	}
	return notFoundAs(g.stores.Grades.DeleteGrade(ctx, ann.ID, req.GradeID), errGradeNotFound)
}

// Export renders a sheet with one row per student of the class, graded or
// not, with their submission status.
func (g *GradeService) Export(ctx context.Context, user *model.User, req *model.AnnouncementRequest) (*ExportFile, error) {
	class, ann, err := g.assignment(ctx, user, req.ClassID, req.AnnouncementID)
	if err != nil {
		return nil, err
	}

	members, err := g.stores.Classes.ListMembers(ctx, []int64{class.ID})
	if err != nil {
		return nil, err
	}
	grades, err := g.stores.Grades.ListGrades(ctx, []int64{ann.ID})
	if err != nil {
		return nil, err
	}
	submissions, err := g.stores.Submissions.ListSubmissions(ctx, ann.ID)
	if err != nil {
		return nil, err
	}

	gradeOf := make(map[int64]model.Grade)
	for _, grade := range grades[ann.ID] {
		gradeOf[grade.StudentID] = grade
	}
	submissionOf := make(map[int64]model.Submission)
	for _, sub := range submissions {
		submissionOf[sub.StudentID] = sub
	}

	var rows []export.GradeRow
	for _, student := range members[class.ID] {
		if !student.IsStudent() {
			continue
		}
		row := export.GradeRow{
			StudentName:  student.Name,
			StudentEmail: student.Email,
			Status:       "not submitted",
		}
		if sub, ok := submissionOf[student.ID]; ok {
			submittedAt := sub.SubmittedAt
			row.Status = string(sub.Status)
			row.SubmittedAt = &submittedAt
		}
		if grade, ok := gradeOf[student.ID]; ok {
			score := grade.Score.InexactFloat64()
			row.Score = &score
			if grade.Comment != nil {
				row.Comment = *grade.Comment
			}
		}
		rows = append(rows, row)
	}

	data, err := export.GradeSheet(fmt.Sprintf("%s: %s", class.Name, ann.Title), rows)
	if err != nil {
		return nil, err
	}

	loggerFrom(ctx, g.server.Logger).Info().
		Int64("announcement_id", ann.ID).
		Int("rows", len(rows)).
		Msg("grade sheet exported")

	return &ExportFile{Name: export.FileName(ann.ID), Data: data}, nil
}

// MyGrade returns the caller's grade for an assignment, or nil when it has
// not been graded yet.
func (g *GradeService) MyGrade(ctx context.Context, user *model.User, req *model.AnnouncementRequest) (*model.Grade, error) {
	if _, err := g.acl.requireStudentMember(ctx, req.ClassID, user); err != nil {
		return nil, err
	}

	ann, err := g.stores.Announcements.GetAnnouncement(ctx, req.ClassID, req.AnnouncementID)
	if err != nil {
		return nil, notFoundAs(err, errAnnouncementNotFound)
	}
	if !ann.IsAssignment() {
		return nil, errs.NewBadRequestError("Grades are only available for assignments", true, nil, nil, nil)
	}

	grade, err := g.stores.Grades.GetStudentGrade(ctx, ann.ID, user.ID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return grade, nil
}

// MyGrades returns every grade of the caller in the class with its
// announcement.
func (g *GradeService) MyGrades(ctx context.Context, user *model.User, classID int64) ([]model.Grade, error) {
	if _, err := g.acl.requireStudentMember(ctx, classID, user); err != nil {
		return nil, err
	}

	grades, err := g.stores.Grades.ListStudentGrades(ctx, classID, user.ID)
	if err != nil {
		return nil, err
	}
	if len(grades) == 0 {
		return []model.Grade{}, nil
	}

	announcements, err := g.stores.Announcements.ListAnnouncements(ctx, classID)
	if err != nil {
		return nil, err
	}
	if len(announcements) > 0 {
		if err := g.announcements.hydrate(ctx, announcements); err != nil {
			return nil, err
		}
	}
	byID := make(map[int64]*model.Announcement, len(announcements))
	for i := range announcements {
		byID[announcements[i].ID] = &announcements[i]
	}
	for i := range grades {
		grades[i].Announcement = byID[grades[i].AnnouncementID]
	}
	return grades, nil
}
