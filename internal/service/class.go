package service

import (
	"context"
	"errors"
	"strings"

	"github.com/deppfellow/classroom/internal/errs"
	"github.com/deppfellow/classroom/internal/lib/utils"
	"github.com/deppfellow/classroom/internal/model"
	"github.com/deppfellow/classroom/internal/server"
	"github.com/deppfellow/classroom/internal/sqlerr"

	"github.com/jackc/pgx/v5"
)

const maxClassCodeAttempts = 10

type ClassService struct {
	server *server.Server
	stores Stores
	acl    access

	generateCode func() (string, error)
}

func NewClassService(s *server.Server, stores Stores, acl access) *ClassService {
	return &ClassService{
		server:       s,
		stores:       stores,
		acl:          acl,
		generateCode: utils.GenerateClassCode,
	}
}

// List returns the classes a teacher owns or a student is enrolled in, with
// their members. Students also get the teacher of each class.
func (c *ClassService) List(ctx context.Context, user *model.User) ([]model.ClassRoom, error) {
	if user.IsTeacher() {
		classes, err := c.stores.Classes.ListClassesByTeacher(ctx, user.ID)
		if err != nil {
			return nil, err
		}
		return classes, c.withMembers(ctx, classes)
	}

	classes, err := c.stores.Classes.ListClassesByMember(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	if err := c.withTeachers(ctx, classes); err != nil {
		return nil, err
	}
	return classes, c.withMembers(ctx, classes)
}

func (c *ClassService) withMembers(ctx context.Context, classes []model.ClassRoom) error {
	ids := make([]int64, len(classes))
	for i := range classes {
		ids[i] = classes[i].ID
	}

	members, err := c.stores.Classes.ListMembers(ctx, ids)
	if err != nil {
		return err
	}
	for i := range classes {
		classes[i].Members = members[classes[i].ID]
		if classes[i].Members == nil {
			classes[i].Members = []model.User{}
		}
	}
	return nil
}

func (c *ClassService) withTeachers(ctx context.Context, classes []model.ClassRoom) error {
	ids := make([]int64, len(classes))
	for i := range classes {
		ids[i] = classes[i].TeacherID
	}

	teachers, err := c.stores.Users.GetUsersByIDs(ctx, ids)
	if err != nil {
		return err
	}
	for i := range classes {
		classes[i].Teacher = teachers[classes[i].TeacherID]
	}
	return nil
}

func (c *ClassService) Create(ctx context.Context, user *model.User, req *model.CreateClassRequest) (*model.ClassRoom, error) {
	if !user.IsTeacher() {
		return nil, errs.NewForbiddenError("Only teachers can create classes", true)
	}

	for attempt := 0; attempt < maxClassCodeAttempts; attempt++ {
		code, err := c.uniqueCode(ctx)
		if err != nil {
			return nil, err
		}
		invite := c.server.Config.App.BaseURL + "/join/" + code

		class, err := c.stores.Classes.CreateClass(ctx, &model.ClassRoom{
			Name:        req.Name,
			Description: req.Description,
			Subject:     req.Subject,
			ClassCode:   code,
			InviteLink:  &invite,
			TeacherID:   user.ID,
		})
		if sqlerr.IsUniqueViolation(err, "classes_class_code_key") {
			continue
		}
		if err != nil {
			return nil, err
		}

		loggerFrom(ctx, c.server.Logger).Info().
			Int64("class_id", class.ID).
			Str("class_code", class.ClassCode).
			Msg("class created")

		class.Teacher = user
		class.Members = []model.User{}
		return class, nil
	}

	return nil, errors.New("could not generate a unique class code")
}

func (c *ClassService) uniqueCode(ctx context.Context) (string, error) {
	for attempt := 0; attempt < maxClassCodeAttempts; attempt++ {
		code, err := c.generateCode()
		if err != nil {
			return "", err
		}
		exists, err := c.stores.Classes.ClassCodeExists(ctx, code)
		if err != nil {
			return "", err
		}
		if !exists {
			return code, nil
		}
	}
	return "", errors.New("could not generate a unique class code")
}

func (c *ClassService) Join(ctx context.Context, user *model.User, req *model.JoinClassRequest) (*model.ClassRoom, error) {
	if !user.IsStudent() {
		return nil, errs.NewForbiddenError("Only students can join a class", true)
	}

	class, err := c.stores.Classes.GetClassByCode(ctx, strings.ToUpper(strings.TrimSpace(req.ClassCode)))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errs.FieldInvalid("class_code", "The selected class code is invalid")
		}
		return nil, err
	}

	member, err := c.stores.Classes.IsMember(ctx, class.ID, user.ID)
	if err != nil {
		return nil, err
	}
	if member {
		return nil, errs.NewBadRequestError("You are already a member of this class", true, nil, nil, nil)
	}

	if err := c.stores.Classes.AddMember(ctx, class.ID, user.ID); err != nil {
		if sqlerr.IsUniqueViolation(err, "") {
			return nil, errs.NewBadRequestError("You are already a member of this class", true, nil, nil, nil)
		}
		return nil, err
	}

	loggerFrom(ctx, c.server.Logger).Info().Int64("class_id", class.ID).Msg("student joined class")

	return c.detail(ctx, class)
}

func (c *ClassService) Get(ctx context.Context, user *model.User, classID int64) (*model.ClassRoom, error) {
	class, err := c.acl.requireMember(ctx, classID, user)
	if err != nil {
		return nil, err
	}
	return c.detail(ctx, class)
}

// detail attaches the teacher and members of a single class.
func (c *ClassService) detail(ctx context.Context, class *model.ClassRoom) (*model.ClassRoom, error) {
	teacher, err := c.stores.Users.GetUserByID(ctx, class.TeacherID)
	if err != nil {
		return nil, err
	}
	class.Teacher = teacher

	classes := []model.ClassRoom{*class}
	if err := c.withMembers(ctx, classes); err != nil {
		return nil, err
	}
	return &classes[0], nil
}

func (c *ClassService) Update(ctx context.Context, user *model.User, req *model.UpdateClassRequest) (*model.ClassRoom, error) {
	class, err := c.acl.requireTeacher(ctx, req.ClassID, user, "Only the class teacher can update this class")
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		class.Name = *req.Name
	}
	if req.Description != nil {
		class.Description = req.Description
	}
	if req.Subject != nil {
		class.Subject = *req.Subject
	}

	updated, err := c.stores.Classes.UpdateClass(ctx, class)
	if err != nil {
		return nil, notFoundAs(err, errClassNotFound)
	}
	return c.detail(ctx, updated)
}

func (c *ClassService) Delete(ctx context.Context, user *model.User, classID int64) error {
	if _, err := c.acl.requireTeacher(ctx, classID, user, "Only the class teacher can delete this class"); err != nil {
		return err
	}
	if err := c.stores.Classes.DeleteClass(ctx, classID); err != nil {
		return notFoundAs(err, errClassNotFound)
	}

	loggerFrom(ctx, c.server.Logger).Info().Int64("class_id", classID).Msg("class deleted")
	return nil
}
