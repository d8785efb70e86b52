package inmem

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/deppfellow/classroom/internal/model"
)

// Grades

func (s *Store) UpsertGrade(_ context.Context, grade *model.Grade) (*model.Grade, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.Now()
	var result model.Grade
	found := false
	for id, g := range s.grades {
		if g.AnnouncementID == grade.AnnouncementID && g.StudentID == grade.StudentID && live(g.DeletedAt) {
			g.Score = grade.Score
			g.Comment = grade.Comment
			g.UpdatedAt = now
			s.grades[id] = g
			result = g
			found = true
			break
		}
	}
	if !found {
		result = *grade
		result.ID = s.id()
		result.CreatedAt = now
		result.UpdatedAt = now
		result.Student = nil
		result.Announcement = nil
		s.grades[result.ID] = result
	}

	for id, sub := range s.submissions {
		if sub.AnnouncementID == grade.AnnouncementID && sub.StudentID == grade.StudentID && live(sub.DeletedAt) {
			sub.Status = model.SubmissionGraded
			s.submissions[id] = sub
		}
	}
	return &result, nil
}

func (s *Store) GetGrade(_ context.Context, announcementID, gradeID int64) (*model.Grade, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	g, ok := s.grades[gradeID]
	if !ok || g.AnnouncementID != announcementID || !live(g.DeletedAt) {
		return nil, notFound("grades")
	}
	return &g, nil
}

func (s *Store) GetStudentGrade(_ context.Context, announcementID, studentID int64) (*model.Grade, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, g := range s.grades {
		if g.AnnouncementID == announcementID && g.StudentID == studentID && live(g.DeletedAt) {
			return &g, nil
		}
	}
	return nil, notFound("grades")
}

func (s *Store) ListGrades(_ context.Context, announcementIDs []int64) (map[int64][]model.Grade, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	wanted := idSet(announcementIDs)
	var all []model.Grade
	for _, g := range s.grades {
		if wanted[g.AnnouncementID] && live(g.DeletedAt) {
			all = append(all, g)
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })

	result := make(map[int64][]model.Grade)
	for _, g := range all {
		result[g.AnnouncementID] = append(result[g.AnnouncementID], g)
	}
	return result, nil
}

func (s *Store) ListStudentGrades(_ context.Context, classID, studentID int64) ([]model.Grade, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var result []model.Grade
	for _, g := range s.grades {
		if g.StudentID != studentID || !live(g.DeletedAt) {
			continue
		}
		a, ok := s.announcements[g.AnnouncementID]
		if ok && a.ClassID == classID && live(a.DeletedAt) {
			result = append(result, g)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		ai, aj := s.announcements[result[i].AnnouncementID], s.announcements[result[j].AnnouncementID]
		if ai.CreatedAt.Equal(aj.CreatedAt) {
			return ai.ID > aj.ID
		}
		return ai.CreatedAt.After(aj.CreatedAt)
	})
	return result, nil
}

func (s *Store) UpdateGrade(_ context.Context, grade *model.Grade) (*model.Grade, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	g, ok := s.grades[grade.ID]
	if !ok || !live(g.DeletedAt) {
		return nil, notFound("grades")
	}
	g.Score = grade.Score
	g.Comment = grade.Comment
	g.UpdatedAt = s.Now()
	s.grades[g.ID] = g
	return &g, nil
}

func (s *Store) DeleteGrade(_ context.Context, announcementID, gradeID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	g, ok := s.grades[gradeID]
	if !ok || g.AnnouncementID != announcementID || !live(g.DeletedAt) {
		return notFound("grades")
	}
	now := s.Now()
	g.DeletedAt = &now
	s.grades[gradeID] = g

	a := s.announcements[announcementID]
	for id, sub := range s.submissions {
		if sub.AnnouncementID != announcementID || sub.StudentID != g.StudentID || !live(sub.DeletedAt) || !sub.IsGraded() {
			continue
		}
		if a.IsPastDue(sub.SubmittedAt) {
			sub.Status = model.SubmissionLate
		} else {
			sub.Status = model.SubmissionSubmitted
		}
		s.submissions[id] = sub
	}
	return nil
}

// Submissions

func (s *Store) CreateSubmission(_ context.Context, sub *model.Submission, files []model.StoredFile) (*model.Submission, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.submissions {
		if existing.AnnouncementID == sub.AnnouncementID && existing.StudentID == sub.StudentID && live(existing.DeletedAt) {
			return nil, uniqueViolation("submissions", "submissions_announcement_student_key")
		}
	}
	if len(files) > 0 && s.FailAttachmentInserts {
		return nil, fmt.Errorf("failed to collect rows from table:submission_attachments: insert failed")
	}

	now := s.Now()
	created := *sub
	created.ID = s.id()
	created.CreatedAt = now
	created.UpdatedAt = now
	created.Student = nil
	created.Grade = nil
	created.Attachments = []model.SubmissionAttachment{}
	s.submissions[created.ID] = created

	for _, f := range files {
		att := s.insertSubmissionFile(created.ID, f, now)
		created.Attachments = append(created.Attachments, att)
	}
	return &created, nil
}

func (s *Store) insertSubmissionFile(submissionID int64, f model.StoredFile, at time.Time) model.SubmissionAttachment {
	att := model.SubmissionAttachment{
		ID:           s.id(),
		SubmissionID: submissionID,
		FileName:     f.FileName,
		FilePath:     f.FilePath,
		FileType:     f.FileType,
		FileSize:     f.FileSize,
		CreatedAt:    at,
	}
	s.submissionFiles = append(s.submissionFiles, att)
	return att
}

func (s *Store) GetSubmission(_ context.Context, announcementID, id int64) (*model.Submission, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sub, ok := s.submissions[id]
	if !ok || sub.AnnouncementID != announcementID || !live(sub.DeletedAt) {
		return nil, notFound("submissions")
	}
	sub.Attachments = nil
	return &sub, nil
}

func (s *Store) GetStudentSubmission(_ context.Context, announcementID, studentID int64) (*model.Submission, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, sub := range s.submissions {
		if sub.AnnouncementID == announcementID && sub.StudentID == studentID && live(sub.DeletedAt) {
			sub.Attachments = nil
			return &sub, nil
		}
	}
	return nil, notFound("submissions")
}

func (s *Store) ListSubmissions(_ context.Context, announcementID int64) ([]model.Submission, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var result []model.Submission
	for _, sub := range s.submissions {
		if sub.AnnouncementID == announcementID && live(sub.DeletedAt) {
			sub.Attachments = nil
			result = append(result, sub)
		}
	}
	sortNewestFirst(result, func(sub model.Submission) (time.Time, int64) { return sub.SubmittedAt, sub.ID })
	return result, nil
}

func (s *Store) UpdateSubmission(_ context.Context, sub *model.Submission) (*model.Submission, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.submissions[sub.ID]
	if !ok || !live(stored.DeletedAt) {
		return nil, notFound("submissions")
	}
	stored.TextContent = sub.TextContent
	stored.UpdatedAt = s.Now()
	stored.Attachments = nil
	s.submissions[sub.ID] = stored
	return &stored, nil
}

func (s *Store) DeleteSubmission(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sub, ok := s.submissions[id]
	if !ok || !live(sub.DeletedAt) {
		return notFound("submissions")
	}
	now := s.Now()
	sub.DeletedAt = &now
	s.submissions[id] = sub

	kept := s.submissionFiles[:0]
	for _, att := range s.submissionFiles {
		if att.SubmissionID != id {
			kept = append(kept, att)
		}
	}
	s.submissionFiles = kept
	return nil
}

func (s *Store) AddSubmissionAttachment(_ context.Context, submissionID int64, file model.StoredFile) (*model.SubmissionAttachment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.submissions[submissionID]; !ok {
		return nil, notFound("submission_attachments")
	}
	att := s.insertSubmissionFile(submissionID, file, s.Now())
	return &att, nil
}

func (s *Store) GetSubmissionAttachment(_ context.Context, submissionID, fileID int64) (*model.SubmissionAttachment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, att := range s.submissionFiles {
		if att.ID == fileID && att.SubmissionID == submissionID {
			return &att, nil
		}
	}
	return nil, notFound("submission_attachments")
}

func (s *Store) DeleteSubmissionAttachment(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, att := range s.submissionFiles {
		if att.ID == id {
			s.submissionFiles = append(s.submissionFiles[:i], s.submissionFiles[i+1:]...)
			return nil
		}
	}
	return notFound("submission_attachments")
}

func (s *Store) ListSubmissionAttachments(_ context.Context, submissionIDs []int64) (map[int64][]model.SubmissionAttachment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	wanted := idSet(submissionIDs)
	result := make(map[int64][]model.SubmissionAttachment)
	for _, att := range s.submissionFiles {
		if wanted[att.SubmissionID] {
			result[att.SubmissionID] = append(result[att.SubmissionID], att)
		}
	}
	return result, nil
}
