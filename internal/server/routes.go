package server

import (
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"taskflex/internal/auth"
	"taskflex/internal/logging"
	"taskflex/internal/server/routes"
)

func (s *Server) RegisterRoutes() http.Handler {
	if s.cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	providers := auth.InitGothProviders(s.cfg)
	s.log.Info().Strs("providers", providers).Msg("oauth providers registered")

	r := gin.New()
	r.Use(logging.Middleware(s.log), gin.Recovery())

	store := cookie.NewStore([]byte(s.cfg.Session.Secret))
	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   60 * 60 * 24 * 7,
		HttpOnly: true,
		Secure:   s.cfg.IsProduction(),
		SameSite: http.SameSiteLaxMode,
	})
	r.Use(sessions.Sessions(s.cfg.Session.Name, store))

	r.Use(cors.New(cors.Config{
		AllowOrigins:     s.cfg.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"},
		AllowHeaders:     []string{"Accept", "Authorization", "Content-Type", logging.RequestIDHeader, "X-Admin-Key"},
		ExposeHeaders:    []string{logging.RequestIDHeader},
		AllowCredentials: true,
	}))

	r.GET("/health", s.healthHandler)
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{})))

	authRoutes := routes.NewAuthRoutes(s)
	authRoutes.RegisterRoutes(r)

	userRoutes := routes.NewUserRoutes(s)
	userRoutes.RegisterRoutes(r)

	organizationRoutes := routes.NewOrganizationRoutes(s)
	organizationRoutes.RegisterRoutes(r)

	teamRoutes := routes.NewTeamRoutes(s)
	teamRoutes.RegisterRoutes(r)

	projectRoutes := routes.NewProjectRoutes(s)
	projectRoutes.RegisterRoutes(r)

	taskRoutes := routes.NewTaskRoutes(s)
	taskRoutes.RegisterRoutes(r)

	attachmentRoutes := routes.NewAttachmentRoutes(s)
	attachmentRoutes.RegisterRoutes(r)

	notificationRoutes := routes.NewNotificationRoutes(s)
	notificationRoutes.RegisterRoutes(r)

	tagRoutes := routes.NewTagRoutes(s)
	tagRoutes.RegisterRoutes(r)

	return r
}

func (s *Server) healthHandler(c *gin.Context) {
	stats := s.db.Health(c.Request.Context())
	status := http.StatusOK
	if stats["status"] != "up" {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, stats)
}
