package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/deppfellow/classroom/internal/database"
	"github.com/deppfellow/classroom/internal/handler"
	"github.com/deppfellow/classroom/internal/middleware"
	"github.com/deppfellow/classroom/internal/repository"
	"github.com/deppfellow/classroom/internal/router"
	"github.com/deppfellow/classroom/internal/server"
	"github.com/deppfellow/classroom/internal/service"

	"github.com/spf13/cobra"
)

const shutdownTimeout = 30 * time.Second

func newServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return serve(cmd.Context())
		},
	}
}

func serve(ctx context.Context) error {
	a, err := bootstrap()
	if err != nil {
		return err
	}
	defer a.loggerService.Shutdown()
	log := &a.log

	if !a.cfg.IsLocal() {
		if err := database.Migrate(ctx, log, a.cfg); err != nil {
			log.Error().Err(err).Msg("failed to migrate database")
			return err
		}
	}

	srv, err := server.New(a.cfg, log, a.loggerService)
	if err != nil {
		log.Error().Err(err).Msg("failed to initialize server")
		return err
	}

	repos := repository.NewRepositories(srv)

	services, err := service.NewService(srv, repos)
	if err != nil {
		log.Error().Err(err).Msg("could not create services")
		return err
	}

	middlewares := middleware.NewMiddlewares(srv, services.Auth, repos.RateLimit)
	handlers := handler.NewHandlers(srv, services)
	r := router.NewRouter(srv, handlers, middlewares)

	srv.SetupHTTPServer(r)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	serverErr := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case err := <-serverErr:
		log.Error().Err(err).Msg("failed to start server")
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
		return err
	}

	log.Info().Msg("server exited properly")
	return nil
}
