package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"taskflex/internal/config"
	"taskflex/internal/database"
	"taskflex/internal/notify"
	"taskflex/internal/server/routes"
)

type Server struct {
	cfg       *config.Config
	db        database.Service
	publisher *notify.Dispatcher
	storage   routes.AttachmentStore
	registry  *prometheus.Registry
	log       zerolog.Logger
}

func (s *Server) GetDB() database.Service {
	return s.db
}

func (s *Server) GetPublisher() routes.Publisher {
	return s.publisher
}

func (s *Server) GetStorage() routes.AttachmentStore {
	return s.storage
}

func (s *Server) GetConfig() *config.Config {
	return s.cfg
}

// Deps are the collaborators the server is built from. Storage may be nil,
// in which case attachment routes answer 503. A nil Registry is replaced by
// a fresh one so /metrics and the notification counters still work.
type Deps struct {
	Config   *config.Config
	DB       database.Service
	Storage  routes.AttachmentStore
	Registry *prometheus.Registry
	Log      zerolog.Logger
}

func NewServer(d Deps) *http.Server {
	if d.Registry == nil {
		d.Registry = prometheus.NewRegistry()
	}
	s := &Server{
		cfg:      d.Config,
		db:       d.DB,
		storage:  d.Storage,
		registry: d.Registry,
		log:      d.Log,
	}
	s.publisher = notify.NewDispatcher(d.DB, d.Log, d.Registry)

	// Declare Server config
	return &http.Server{
		Addr:         fmt.Sprintf(":%d", s.cfg.Port),
		Handler:      s.RegisterRoutes(),
		IdleTimeout:  time.Minute,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
}

// Run serves until ctx is cancelled, then drains in-flight requests for up
// to the configured grace period.
func Run(ctx context.Context, srv *http.Server, grace time.Duration, log zerolog.Logger) error {
	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", srv.Addr).Msg("http server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down gracefully, press Ctrl+C again to force")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), grace)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	log.Info().Msg("server exiting")
	return nil
}
