package main

import (
	"context"

	"github.com/deppfellow/classroom/internal/model"
	"github.com/deppfellow/classroom/internal/repository"
	"github.com/deppfellow/classroom/internal/server"
	"github.com/deppfellow/classroom/internal/service"

	"github.com/spf13/cobra"
)

type demoUser struct {
	name     string
	email    string
	password string
	role     model.Role
}

var demoUsers = []demoUser{
	{name: "Ibu Siti (Guru)", email: "guru@example.com", password: "Teacher@123", role: model.RoleTeacher},
	{name: "Andi Wijaya (Murid)", email: "murid@example.com", password: "Student@123", role: model.RoleStudent},
	{name: "Budi Santoso", email: "budi@example.com", password: "Student@123", role: model.RoleStudent},
	{name: "Siti Nurhaliza", email: "siti@example.com", password: "Student@123", role: model.RoleStudent},
	{name: "Pak Ahmad Maulana", email: "pak.ahmad@example.com", password: "Teacher@123", role: model.RoleTeacher},
	{name: "Ibu Rani Wijaya", email: "ibu.rani@example.com", password: "Teacher@123", role: model.RoleTeacher},
}

func newSeedCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Create the demo teachers and students",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return seed(cmd.Context())
		},
	}
}

func seed(ctx context.Context) error {
	a, err := bootstrap()
	if err != nil {
		return err
	}
	defer a.loggerService.Shutdown()
	log := &a.log

	srv, err := server.New(a.cfg, log, a.loggerService)
	if err != nil {
		return err
	}
	defer srv.Shutdown(ctx)

	services, err := service.NewService(srv, repository.NewRepositories(srv))
	if err != nil {
		return err
	}

	for _, u := range demoUsers {
		user, created, err := services.Auth.EnsureUser(ctx, u.name, u.email, u.password, u.role)
		if err != nil {
			log.Error().Err(err).Str("email", u.email).Msg("failed to seed user")
			return err
		}

		log.Info().
			Int64("user_id", user.ID).
			Str("email", user.Email).
			Bool("created", created).
			Msg("seeded user")
	}

	return nil
}
