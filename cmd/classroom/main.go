// Command classroom runs the classroom API and its maintenance tasks.
package main

import (
	"fmt"
	"os"

	"github.com/deppfellow/classroom/internal/config"
	"github.com/deppfellow/classroom/internal/logger"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

func main() {
	root := &cobra.Command{
		Use:           "classroom",
		Short:         "Classroom management API",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newServeCommand(), newMigrateCommand(), newSeedCommand())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

type app struct {
	cfg           *config.Config
	log           zerolog.Logger
	loggerService *logger.LoggerService
}

// bootstrap loads the configuration and builds the process logger.
func bootstrap() (*app, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	loggerService := logger.NewLoggerService(cfg.Observability)

	return &app{
		cfg:           cfg,
		log:           logger.NewLoggerWithService(cfg.Observability, loggerService),
		loggerService: loggerService,
	}, nil
}
