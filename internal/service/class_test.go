package service

import (
	"net/http"
	"strings"
	"testing"

	"github.com/deppfellow/classroom/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassCreate(t *testing.T) {
	f := newFixture(t)

	assert.Len(t, f.class.ClassCode, 7)
	assert.Equal(t, strings.ToUpper(f.class.ClassCode), f.class.ClassCode)
	require.NotNil(t, f.class.InviteLink)
	assert.Equal(t, "http://localhost:8080/join/"+f.class.ClassCode, *f.class.InviteLink)

	_, err := f.services.Class.Create(f.ctx, f.student, &model.CreateClassRequest{Name: "IPA", Subject: "Science"})
	httpErr := requireHTTPError(t, err, http.StatusForbidden)
	assert.Equal(t, "Only teachers can create classes", httpErr.Message)
}

func TestClassCreateRetriesTakenCodes(t *testing.T) {
	f := newFixture(t)

	codes := []string{f.class.ClassCode, "FRESH01"}
	f.services.Class.generateCode = func() (string, error) {
		code := codes[0]
		codes = codes[1:]
		return code, nil
	}

	class, err := f.services.Class.Create(f.ctx, f.teacher, &model.CreateClassRequest{Name: "IPA", Subject: "Science"})
	require.NoError(t, err)
	assert.Equal(t, "FRESH01", class.ClassCode)
}

func TestClassJoin(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		name    string
		user    *model.User
		code    string
		status  int
		message string
	}{
		{name: "teacher cannot join", user: f.teacher, code: f.class.ClassCode, status: http.StatusForbidden, message: "Only students can join a class"},
		{name: "unknown code", user: f.outsider, code: "NOPE123", status: http.StatusUnprocessableEntity, message: "Validation failed"},
		{name: "already a member", user: f.student, code: f.class.ClassCode, status: http.StatusBadRequest, message: "You are already a member of this class"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.services.Class.Join(f.ctx, tt.user, &model.JoinClassRequest{ClassCode: tt.code})
			httpErr := requireHTTPError(t, err, tt.status)
			assert.Equal(t, tt.message, httpErr.Message)
		})
	}

	t.Run("code is case insensitive", func(t *testing.T) {
		class, err := f.services.Class.Join(f.ctx, f.outsider, &model.JoinClassRequest{ClassCode: strings.ToLower(f.class.ClassCode)})
		require.NoError(t, err)
		assert.Equal(t, f.class.ID, class.ID)
		require.NotNil(t, class.Teacher)
		assert.Equal(t, f.teacher.ID, class.Teacher.ID)
		assert.Len(t, class.Members, 2)
	})
}

func TestClassListAndGet(t *testing.T) {
	f := newFixture(t)

	teacherClasses, err := f.services.Class.List(f.ctx, f.teacher)
	require.NoError(t, err)
	require.Len(t, teacherClasses, 1)
	require.Len(t, teacherClasses[0].Members, 1)
	assert.Equal(t, f.student.ID, teacherClasses[0].Members[0].ID)

	studentClasses, err := f.services.Class.List(f.ctx, f.student)
	require.NoError(t, err)
	require.Len(t, studentClasses, 1)
	require.NotNil(t, studentClasses[0].Teacher)
	require.Len(t, studentClasses[0].Members, 1)

	outsiderClasses, err := f.services.Class.List(f.ctx, f.outsider)
	require.NoError(t, err)
	assert.Empty(t, outsiderClasses)

	class, err := f.services.Class.Get(f.ctx, f.student, f.class.ID)
	require.NoError(t, err)
	assert.Equal(t, f.teacher.ID, class.Teacher.ID)

	_, err = f.services.Class.Get(f.ctx, f.outsider, f.class.ID)
	requireHTTPError(t, err, http.StatusForbidden)

	_, err = f.services.Class.Get(f.ctx, f.student, 9999)
	httpErr := requireHTTPError(t, err, http.StatusNotFound)
	assert.Equal(t, "Class not found", httpErr.Message)
}

func TestClassUpdateAndDelete(t *testing.T) {
	f := newFixture(t)
	name := "Matematika Lanjut"

	_, err := f.services.Class.Update(f.ctx, f.student, &model.UpdateClassRequest{ClassID: f.class.ID, Name: &name})
	requireHTTPError(t, err, http.StatusForbidden)

	updated, err := f.services.Class.Update(f.ctx, f.teacher, &model.UpdateClassRequest{ClassID: f.class.ID, Name: &name})
	require.NoError(t, err)
	assert.Equal(t, name, updated.Name)
	assert.Equal(t, "Math", updated.Subject)
	require.NotNil(t, updated.Teacher)
	assert.NotNil(t, updated.Members)

	err = f.services.Class.Delete(f.ctx, f.student, f.class.ID)
	requireHTTPError(t, err, http.StatusForbidden)

	require.NoError(t, f.services.Class.Delete(f.ctx, f.teacher, f.class.ID))

	_, err = f.services.Class.Get(f.ctx, f.teacher, f.class.ID)
	requireHTTPError(t, err, http.StatusNotFound)
}

func TestTopics(t *testing.T) {
	f := newFixture(t)

	_, err := f.services.Topic.Create(f.ctx, f.student, &model.CreateTopicRequest{ClassID: f.class.ID, Name: "Aljabar"})
	requireHTTPError(t, err, http.StatusForbidden)

	topic, err := f.services.Topic.Create(f.ctx, f.teacher, &model.CreateTopicRequest{ClassID: f.class.ID, Name: "Aljabar"})
	require.NoError(t, err)

	ann, err := f.services.Announcement.Create(f.ctx, f.teacher, &model.CreateAnnouncementRequest{
		ClassID: f.class.ID,
		Type:    model.AnnouncementMaterial,
		Title:   "Persamaan linear",
		TopicID: &topic.ID,
	})
	require.NoError(t, err)
	require.NotNil(t, ann.Topic)
	assert.Equal(t, "Aljabar", ann.Topic.Name)

	topics, err := f.services.Topic.List(f.ctx, f.student, f.class.ID)
	require.NoError(t, err)
	require.Len(t, topics, 1)
	require.Len(t, topics[0].Announcements, 1)
	assert.Equal(t, ann.ID, topics[0].Announcements[0].ID)
	assert.NotNil(t, topics[0].Announcements[0].Attachments)
	assert.NotNil(t, topics[0].Announcements[0].Comments)

	renamed, err := f.services.Topic.Update(f.ctx, f.teacher, &model.UpdateTopicRequest{ClassID: f.class.ID, TopicID: topic.ID, Name: "Geometri"})
	require.NoError(t, err)
	assert.Equal(t, "Geometri", renamed.Name)

	_, err = f.services.Topic.Update(f.ctx, f.teacher, &model.UpdateTopicRequest{ClassID: f.class.ID, TopicID: 9999, Name: "x"})
	requireHTTPError(t, err, http.StatusNotFound)

	require.NoError(t, f.services.Topic.Delete(f.ctx, f.teacher, &model.TopicRequest{ClassID: f.class.ID, TopicID: topic.ID}))

	topics, err = f.services.Topic.List(f.ctx, f.teacher, f.class.ID)
	require.NoError(t, err)
	assert.Empty(t, topics)

	kept, err := f.services.Announcement.Get(f.ctx, f.teacher, &model.AnnouncementRequest{ClassID: f.class.ID, AnnouncementID: ann.ID})
	require.NoError(t, err)
	assert.Nil(t, kept.TopicID)
}
