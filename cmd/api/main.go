package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"gorm.io/gorm/logger"

	"taskflex/internal/config"
	"taskflex/internal/logging"
	"taskflex/internal/models"
)

const serviceName = "taskflex"

// app is shared by the subcommands; it is filled in by the root
// PersistentPreRunE.
type app struct {
	cfg *config.Config
	log zerolog.Logger
}

func (a *app) dbOptions() models.Options {
	level := logger.Warn
	if a.cfg.DBLogQueries {
		level = logger.Info
	}
	return models.Options{
		LogLevel:        level,
		MaxOpenConns:    a.cfg.DBMaxOpenConns,
		MaxIdleConns:    a.cfg.DBMaxIdleConns,
		ConnMaxLifetime: a.cfg.DBConnLifetime,
	}
}

func newRootCommand() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:           serviceName,
		Short:         "Task and team collaboration API",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(*cobra.Command, []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			a.cfg = cfg
			a.log = logging.New(cfg.Log.Level, cfg.Log.Format, serviceName, cfg.Env)
			return nil
		},
	}

	root.AddCommand(
		newServeCommand(a),
		newMigrateCommand(a),
	)
	return root
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCommand().ExecuteContext(ctx); err != nil {
		log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
		log.Error().Err(err).Msg("command failed")
		stop()
		os.Exit(1)
	}
}
