package inmem

import (
	"context"
	"testing"
	"time"

	"github.com/deppfellow/classroom/internal/model"
	"github.com/deppfellow/classroom/internal/sqlerr"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUniqueConstraints(t *testing.T) {
	ctx := context.Background()
	s := New()

	_, err := s.CreateUser(ctx, &model.User{Email: "guru@example.com", Role: model.RoleTeacher})
	require.NoError(t, err)
	_, err = s.CreateUser(ctx, &model.User{Email: "guru@example.com", Role: model.RoleTeacher})
	assert.True(t, sqlerr.IsUniqueViolation(err, "users_email_key"))

	require.NoError(t, s.AddMember(ctx, 10, 1))
	err = s.AddMember(ctx, 10, 1)
	assert.True(t, sqlerr.IsUniqueViolation(err, "class_members_class_user_key"))

	_, err = s.CreateSubmission(ctx, &model.Submission{AnnouncementID: 5, StudentID: 1}, nil)
	require.NoError(t, err)
	_, err = s.CreateSubmission(ctx, &model.Submission{AnnouncementID: 5, StudentID: 1}, nil)
	assert.True(t, sqlerr.IsUniqueViolation(err, "submissions_announcement_student_key"))
}

func TestSoftDeletedRowsDisappear(t *testing.T) {
	ctx := context.Background()
	s := New()

	class, err := s.CreateClass(ctx, &model.ClassRoom{Name: "IPA", ClassCode: "ABC1234", TeacherID: 1})
	require.NoError(t, err)
	require.NoError(t, s.DeleteClass(ctx, class.ID))

	_, err = s.GetClassByID(ctx, class.ID)
	assert.ErrorIs(t, err, pgx.ErrNoRows)
	_, err = s.GetClassByCode(ctx, "ABC1234")
	assert.ErrorIs(t, err, pgx.ErrNoRows)

	exists, err := s.ClassCodeExists(ctx, "ABC1234")
	require.NoError(t, err)
	assert.True(t, exists, "codes of deleted classes stay reserved")
}

func TestGradeStatusTransitions(t *testing.T) {
	ctx := context.Background()
	s := New()
	due := time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC)

	ann, err := s.CreateAnnouncement(ctx, &model.Announcement{ClassID: 1, Type: model.AnnouncementAssignment, DueDate: &due}, nil)
	require.NoError(t, err)
	sub, err := s.CreateSubmission(ctx, &model.Submission{
		AnnouncementID: ann.ID,
		StudentID:      7,
		Status:         model.SubmissionLate,
		SubmittedAt:    due.Add(time.Hour),
	}, nil)
	require.NoError(t, err)

	grade, err := s.UpsertGrade(ctx, &model.Grade{AnnouncementID: ann.ID, StudentID: 7})
	require.NoError(t, err)

	got, err := s.GetSubmission(ctx, ann.ID, sub.ID)
	require.NoError(t, err)
	assert.Equal(t, model.SubmissionGraded, got.Status)

	require.NoError(t, s.DeleteGrade(ctx, ann.ID, grade.ID))
	got, err = s.GetSubmission(ctx, ann.ID, sub.ID)
	require.NoError(t, err)
	assert.Equal(t, model.SubmissionLate, got.Status)
}

func TestRevokedTokensExpire(t *testing.T) {
	ctx := context.Background()
	s := New()
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	s.Now = func() time.Time { return now }

	require.NoError(t, s.RevokeToken(ctx, "jti-1", time.Minute))
	revoked, err := s.IsTokenRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.True(t, revoked)

	now = now.Add(2 * time.Minute)
	revoked, err = s.IsTokenRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.False(t, revoked)
}

func TestIncrementWindow(t *testing.T) {
	ctx := context.Background()
	s := New()
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	s.Now = func() time.Time { return now }

	for want := int64(1); want <= 3; want++ {
		got, err := s.Increment(ctx, "auth:1.2.3.4", time.Minute)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	now = now.Add(time.Minute + time.Second)
	got, err := s.Increment(ctx, "auth:1.2.3.4", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(1), got)
}
