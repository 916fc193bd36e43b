package main

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"taskflex/internal/database"
	"taskflex/internal/server"
	"taskflex/internal/server/routes"
	"taskflex/internal/storage"
)

func newServeCommand(a *app) *cobra.Command {
	var migrate bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(c *cobra.Command, _ []string) error {
			ctx := c.Context()

			db, err := database.New(a.cfg.DBString, a.dbOptions(), a.log)
			if err != nil {
				return fmt.Errorf("connect to database: %w", err)
			}
			defer db.Close()

			if migrate {
				if err := db.Migrate(); err != nil {
					return fmt.Errorf("migration error: %w", err)
				}
				a.log.Info().Msg("migrations applied")
			}

			var store routes.AttachmentStore
			if a.cfg.Storage.Enabled() {
				s3, err := storage.NewS3Service(ctx, storage.Config{
					Bucket:           a.cfg.Storage.Bucket,
					Region:           a.cfg.Storage.Region,
					EndpointURL:      a.cfg.Storage.EndpointURL,
					EncryptionKeyHex: a.cfg.Storage.EncryptionKey,
				})
				if err != nil {
					return fmt.Errorf("initialize attachment storage: %w", err)
				}
				store = s3
			} else {
				a.log.Warn().Msg("AWS_S3_BUCKET not set, attachments are disabled")
			}

			reg := prometheus.NewRegistry()
			reg.MustRegister(
				collectors.NewGoCollector(),
				collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
			)

			srv := server.NewServer(server.Deps{
				Config:   a.cfg,
				DB:       db,
				Storage:  store,
				Registry: reg,
				Log:      a.log,
			})
			return server.Run(ctx, srv, a.cfg.ShutdownGrace, a.log)
		},
	}

	cmd.Flags().BoolVar(&migrate, "migrate", true, "apply pending migrations before serving")
	return cmd
}
