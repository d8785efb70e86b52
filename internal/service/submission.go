package service

import (
	"context"
	"errors"
	"mime/multipart"

	"github.com/deppfellow/classroom/internal/errs"
	"github.com/deppfellow/classroom/internal/lib/storage"
	"github.com/deppfellow/classroom/internal/model"
	"github.com/deppfellow/classroom/internal/server"
	"github.com/deppfellow/classroom/internal/sqlerr"

	"github.com/jackc/pgx/v5"
)

var (
	errAlreadySubmitted = errs.NewBadRequestError("You have already submitted this assignment", true, nil, nil, nil)
	errSubmissionGraded = errs.NewBadRequestError("A graded submission can no longer be changed", true, nil, nil, nil)
	errNotOwnSubmission = errs.NewForbiddenError("You can only change your own submission", true)
)

// SubmissionList is the teacher's overview of an assignment.
type SubmissionList struct {
	Submissions       []model.Submission `json:"submissions"`
	TotalStudents     int                `json:"total_students"`
	SubmittedCount    int                `json:"submitted_count"`
	NotSubmittedCount int                `json:"not_submitted_count"`
}

type SubmissionService struct {
	server *server.Server
	stores Stores
	acl    access
	files  *uploader
}

func NewSubmissionService(s *server.Server, stores Stores, acl access, files *uploader) *SubmissionService {
	return &SubmissionService{server: s, stores: stores, acl: acl, files: files}
}

// Create hands in an assignment. The submission row and its attachment rows
// are written in one transaction; stored files are removed when it fails.
func (s *SubmissionService) Create(ctx context.Context, user *model.User, req *model.CreateSubmissionRequest) (*model.Submission, error) {
	logger := loggerFrom(ctx, s.server.Logger)

	if _, err := s.acl.class(ctx, req.ClassID); err != nil {
		return nil, err
	}
	ann, err := s.stores.Announcements.GetAnnouncement(ctx, req.ClassID, req.AnnouncementID)
	if err != nil {
		return nil, notFoundAs(err, errAnnouncementNotFound)
	}
	if !ann.IsAssignment() {
		return nil, errs.NewForbiddenError("Submissions are only accepted for assignments", true)
	}
	if !user.IsStudent() {
		return nil, errs.NewForbiddenError("Only students can submit assignments", true)
	}
	member, err := s.stores.Classes.IsMember(ctx, req.ClassID, user.ID)
	if err != nil {
		return nil, err
	}
	if !member {
		return nil, errNotMember
	}

	if _, err := s.stores.Submissions.GetStudentSubmission(ctx, ann.ID, user.ID); err == nil {
		return nil, errAlreadySubmitted
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}

	if err := s.files.validate("attachments", req.Attachments, true); err != nil {
		return nil, err
	}

	now := s.files.now()
	status := model.SubmissionSubmitted
	if ann.IsPastDue(now) {
		status = model.SubmissionLate
	}

	stored := s.files.storeAll(ctx, logger, storage.SubmissionsDir, req.Attachments)

	sub, err := s.stores.Submissions.CreateSubmission(ctx, &model.Submission{
		AnnouncementID: ann.ID,
		StudentID:      user.ID,
		TextContent:    req.TextContent,
		Status:         status,
		SubmittedAt:    now,
	}, stored)
	if err != nil {
		keys := make([]string, len(stored))
		for i, f := range stored {
			keys[i] = f.FilePath
		}
		s.files.remove(ctx, logger, keys...)

		if sqlerr.IsUniqueViolation(err, "") {
			return nil, errAlreadySubmitted
		}
		logger.Error().Err(err).Int64("announcement_id", ann.ID).Msg("submission transaction failed")
		return nil, err
	}

	logger.Info().
		Int64("announcement_id", ann.ID).
		Int64("submission_id", sub.ID).
		Str("status", string(sub.Status)).
		Msg("assignment submitted")

	sub.Student = user
	sub.Attachments = s.withURLs(sub.Attachments)
	return sub, nil
}

func (s *SubmissionService) withURLs(attachments []model.SubmissionAttachment) []model.SubmissionAttachment {
	if attachments == nil {
		return []model.SubmissionAttachment{}
	}
	for i := range attachments {
		attachments[i].URL = s.files.url(attachments[i].FilePath)
	}
	return attachments
}

// hydrate fills attachments and grades, and students when withStudent is set.
func (s *SubmissionService) hydrate(ctx context.Context, subs []model.Submission, withStudent bool) error {
	if len(subs) == 0 {
		return nil
	}

	ids := make([]int64, len(subs))
	studentIDs := make([]int64, len(subs))
	for i := range subs {
		ids[i] = subs[i].ID
		studentIDs[i] = subs[i].StudentID
	}

	attachments, err := s.stores.Submissions.ListSubmissionAttachments(ctx, ids)
	if err != nil {
		return err
	}
	grades, err := s.stores.Grades.ListGrades(ctx, []int64{subs[0].AnnouncementID})
	if err != nil {
		return err
	}
	gradeOf := make(map[int64]model.Grade)
	for _, g := range grades[subs[0].AnnouncementID] {
		gradeOf[g.StudentID] = g
	}

	var students map[int64]*model.User
	if withStudent {
		if students, err = s.stores.Users.GetUsersByIDs(ctx, studentIDs); err != nil {
			return err
		}
	}

	for i := range subs {
		subs[i].Attachments = s.withURLs(attachments[subs[i].ID])
		if g, ok := gradeOf[subs[i].StudentID]; ok {
			subs[i].Grade = &g
		}
		if withStudent {
			subs[i].Student = students[subs[i].StudentID]
		}
	}
	return nil
}

// Mine returns the caller's submission, or nil when nothing was handed in.
func (s *SubmissionService) Mine(ctx context.Context, user *model.User, req *model.AnnouncementRequest) (*model.Submission, error) {
	if _, err := s.acl.requireMember(ctx, req.ClassID, user); err != nil {
		return nil, err
	}
	ann, err := s.stores.Announcements.GetAnnouncement(ctx, req.ClassID, req.AnnouncementID)
	if err != nil {
		return nil, notFoundAs(err, errAnnouncementNotFound)
	}

	sub, err := s.stores.Submissions.GetStudentSubmission(ctx, ann.ID, user.ID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	subs := []model.Submission{*sub}
	if err := s.hydrate(ctx, subs, false); err != nil {
		return nil, err
	}
	return &subs[0], nil
}

// List returns every submission of an assignment and how many students of
// the class have not handed in yet.
func (s *SubmissionService) List(ctx context.Context, user *model.User, req *model.AnnouncementRequest) (*SubmissionList, error) {
	if _, err := s.acl.requireTeacher(ctx, req.ClassID, user, "Only the class teacher can view all submissions"); err != nil {
		return nil, err
	}
	ann, err := s.stores.Announcements.GetAnnouncement(ctx, req.ClassID, req.AnnouncementID)
	if err != nil {
		return nil, notFoundAs(err, errAnnouncementNotFound)
	}

	subs, err := s.stores.Submissions.ListSubmissions(ctx, ann.ID)
	if err != nil {
		return nil, err
	}
	if subs == nil {
		subs = []model.Submission{}
	}
	if err := s.hydrate(ctx, subs, true); err != nil {
		return nil, err
	}

	members, err := s.stores.Classes.ListMembers(ctx, []int64{req.ClassID})
	if err != nil {
		return nil, err
	}

	submitted := make(map[int64]bool, len(subs))
	for _, sub := range subs {
		submitted[sub.StudentID] = true
	}

	result := &SubmissionList{Submissions: subs}
	for _, member := range members[req.ClassID] {
		if !member.IsStudent() {
			continue
		}
		result.TotalStudents++
		if submitted[member.ID] {
			result.SubmittedCount++
		} else {
			result.NotSubmittedCount++
		}
	}
	return result, nil
}

// own loads a submission owned by user that can still be changed.
func (s *SubmissionService) own(ctx context.Context, user *model.User, classID, announcementID, submissionID int64) (*model.Submission, error) {
	if _, err := s.acl.requireMember(ctx, classID, user); err != nil {
		return nil, err
	}
	if _, err := s.stores.Announcements.GetAnnouncement(ctx, classID, announcementID); err != nil {
		return nil, notFoundAs(err, errAnnouncementNotFound)
	}

	sub, err := s.stores.Submissions.GetSubmission(ctx, announcementID, submissionID)
	if err != nil {
		return nil, notFoundAs(err, errSubmissionNotFound)
	}
	if sub.StudentID != user.ID {
		return nil, errNotOwnSubmission
	}
	if sub.IsGraded() {
		return nil, errSubmissionGraded
	}
	return sub, nil
}

func (s *SubmissionService) Update(ctx context.Context, user *model.User, req *model.UpdateSubmissionRequest) (*model.Submission, error) {
	sub, err := s.own(ctx, user, req.ClassID, req.AnnouncementID, req.SubmissionID)
	if err != nil {
		return nil, err
	}

	sub.TextContent = req.TextContent
	updated, err := s.stores.Submissions.UpdateSubmission(ctx, sub)
	if err != nil {
		return nil, notFoundAs(err, errSubmissionNotFound)
	}

	subs := []model.Submission{*updated}
	if err := s.hydrate(ctx, subs, false); err != nil {
		return nil, err
	}
	return &subs[0], nil
}

func (s *SubmissionService) AddFile(ctx context.Context, user *model.User, req *model.AddSubmissionFileRequest) (*model.SubmissionAttachment, error) {
	logger := loggerFrom(ctx, s.server.Logger)

	sub, err := s.own(ctx, user, req.ClassID, req.AnnouncementID, req.SubmissionID)
	if err != nil {
		return nil, err
	}
	if err := s.files.validate("file", []*multipart.FileHeader{req.File}, false); err != nil {
		return nil, err
	}

	stored, err := s.files.store(ctx, storage.SubmissionsDir, req.File)
	if err != nil {
		return nil, err
	}

	att, err := s.stores.Submissions.AddSubmissionAttachment(ctx, sub.ID, stored)
	if err != nil {
		s.files.remove(ctx, logger, stored.FilePath)
		return nil, err
	}
	att.URL = s.files.url(att.FilePath)
	return att, nil
}

func (s *SubmissionService) DeleteFile(ctx context.Context, user *model.User, req *model.SubmissionFileRequest) error {
	logger := loggerFrom(ctx, s.server.Logger)

	sub, err := s.own(ctx, user, req.ClassID, req.AnnouncementID, req.SubmissionID)
	if err != nil {
		return err
	}

	att, err := s.stores.Submissions.GetSubmissionAttachment(ctx, sub.ID, req.FileID)
	if err != nil {
		return notFoundAs(err, errFileNotFound)
	}
	if err := s.stores.Submissions.DeleteSubmissionAttachment(ctx, att.ID); err != nil {
		return notFoundAs(err, errFileNotFound)
	}

	s.files.remove(ctx, logger, att.FilePath)
	return nil
}

// Delete lets the class teacher remove a submission along with its files.
func (s *SubmissionService) Delete(ctx context.Context, user *model.User, req *model.SubmissionRequest) error {
	logger := loggerFrom(ctx, s.server.Logger)

	if _, err := s.acl.requireTeacher(ctx, req.ClassID, user, "Only the class teacher can delete submissions"); err != nil {
		return err
	}
	if _, err := s.stores.Announcements.GetAnnouncement(ctx, req.ClassID, req.AnnouncementID); err != nil {
		return notFoundAs(err, errAnnouncementNotFound)
	}

	sub, err := s.stores.Submissions.GetSubmission(ctx, req.AnnouncementID, req.SubmissionID)
	if err != nil {
		return notFoundAs(err, errSubmissionNotFound)
	}
	attachments, err := s.stores.Submissions.ListSubmissionAttachments(ctx, []int64{sub.ID})
	if err != nil {
		return err
	}

	if err := s.stores.Submissions.DeleteSubmission(ctx, sub.ID); err != nil {
		return notFoundAs(err, errSubmissionNotFound)
	}

	keys := make([]string, 0, len(attachments[sub.ID]))
	for _, att := range attachments[sub.ID] {
		keys = append(keys, att.FilePath)
	}
	s.files.remove(ctx, logger, keys...)

	logger.Info().Int64("submission_id", sub.ID).Int("files", len(keys)).Msg("submission deleted")
	return nil
}
