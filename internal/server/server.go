package server

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"consistify/internal/auth"
	"consistify/internal/models"
	"consistify/internal/storage/sqlite"
	"consistify/internal/summary"
)

// Options tunes the HTTP surface.
type Options struct {
	StaticDir     string
	AllowOrigins  []string
	SecureCookies bool
}

// Server provides HTTP handlers for the Consistify dashboard backend.
type Server struct {
	engine  *gin.Engine
	store   *sqlite.Store
	summary *summary.Engine
	issuer  *auth.Issuer
	logger  *slog.Logger
	opts    Options
}

// New constructs the HTTP server with routes and middleware configured.
func New(store *sqlite.Store, sum *summary.Engine, issuer *auth.Issuer, logger *slog.Logger, opts Options) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestLogger(logger))
	if len(opts.AllowOrigins) > 0 {
		router.Use(cors.New(cors.Config{
			AllowOrigins:     opts.AllowOrigins,
			AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
			ExposeHeaders:    []string{requestIDHeader},
			AllowCredentials: true,
		}))
	}

	srv := &Server{
		engine:  router,
		store:   store,
		summary: sum,
		issuer:  issuer,
		logger:  logger,
		opts:    opts,
	}

	srv.registerRoutes()
	return srv
}

// Engine exposes the underlying Gin engine.
func (s *Server) Engine() *gin.Engine {
	return s.engine
}

// registerRoutes wires all API and static handlers together.
func (s *Server) registerRoutes() {
	s.engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := s.engine.Group("/api")
	{
		api.GET("/healthz", s.handleHealth)

		authGroup := api.Group("/auth")
		{
			authGroup.POST("/register", s.handleRegister)
			authGroup.POST("/login", s.handleLogin)
			authGroup.POST("/logout", s.handleLogout)
			authGroup.GET("/me", s.requireAuth(), s.handleMe)
		}

		protected := api.Group("", s.requireAuth())

		tasks := protected.Group("/tasks")
		{
			tasks.GET("", s.handleListTasks)
			tasks.POST("", s.handleCreateTask)
			tasks.PUT(":id", s.handleUpdateTask)
			tasks.DELETE(":id", s.handleDeleteTask)
		}

		status := protected.Group("/daily-status")
		{
			status.GET("", s.handleGetDailyStatus)
			status.POST("", s.handleToggleStatus)
		}

		summaries := protected.Group("/summary")
		{
			summaries.GET("/today", s.handleTodaySummary)
			summaries.GET("/range", s.handleSummaryRange)
			summaries.GET("/streak", s.handleStreak)
			summaries.GET("/:id/details", s.handleSummaryDetails)
			summaries.PATCH("", s.handleUpdateJournal)
		}
	}

	s.mountStatic()
}

// handleHealth reports whether the database answers.
func (s *Server) handleHealth(c *gin.Context) {
	if err := s.store.Ping(c.Request.Context()); err != nil {
		s.respondError(c, http.StatusServiceUnavailable, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// parseID converts a path parameter to int64 with error handling.
func parseID(c *gin.Context, name string) (int64, bool) {
	raw := c.Param(name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid identifier"})
		return 0, false
	}
	return id, true
}

// statusFor maps domain errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, models.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, models.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, models.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, models.ErrInvalidState), errors.Is(err, models.ErrConflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// fail responds with the status matching err.
func (s *Server) fail(c *gin.Context, err error) {
	s.respondError(c, statusFor(err), err)
}

// respondError logs the error and returns a JSON payload.
// Server-side failures are reported with a generic message.
func (s *Server) respondError(c *gin.Context, status int, err error) {
	msg := err.Error()
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed",
			slog.String("path", c.FullPath()),
			slog.String("rid", c.GetString(requestIDKey)),
			slog.String("error", msg),
		)
		msg = "internal server error"
	}
	c.JSON(status, gin.H{"error": msg})
}

// respondSuccess writes payload as JSON, or only the status when payload is nil.
func respondSuccess(c *gin.Context, status int, payload any) {
	if payload == nil {
		c.Status(status)
		return
	}
	c.JSON(status, payload)
}
