package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	httpHandlers "github.com/priospace/core/internal/adapters/http"
	"github.com/priospace/core/internal/application/services"
	"github.com/priospace/core/internal/application/store"
	"github.com/priospace/core/internal/application/sync"
	"github.com/priospace/core/internal/infrastructure/config"
	"github.com/priospace/core/internal/infrastructure/database"
	"github.com/priospace/core/internal/infrastructure/logger"
)

// Server represents the HTTP server. The database and coordinator are nil
// when remote sync is disabled; everything else works against the
// in-memory store alone.
type Server struct {
	echo        *echo.Echo
	config      *config.Config
	logger      *logger.Logger
	db          *database.DB
	coordinator *sync.Coordinator
}

// CustomValidator wraps the validator
type CustomValidator struct {
	validator *validator.Validate
}

// Validate validates structs
func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.validator.Struct(i)
}

// New creates a new server instance
func New(cfg *config.Config, st *store.Store, db *database.DB, coordinator *sync.Coordinator, appLogger *logger.Logger) (*Server, error) {
	e := echo.New()

	// Set custom validator
	e.Validator = &CustomValidator{validator: validator.New()}

	// Configure Echo
	e.HideBanner = true
	e.HidePort = true

	// Custom error handler
	e.HTTPErrorHandler = customErrorHandler(appLogger)

	// Initialize services
	taskService := services.NewTaskService(st, appLogger)
	tagService := services.NewTagService(st, appLogger)
	habitService := services.NewHabitService(st, appLogger)
	shareService := services.NewShareService(st, appLogger)

	// Initialize handlers
	taskHandler := httpHandlers.NewTaskHandler(taskService, appLogger)
	tagHandler := httpHandlers.NewTagHandler(tagService, appLogger)
	habitHandler := httpHandlers.NewHabitHandler(habitService, appLogger)
	syncHandler := httpHandlers.NewSyncHandler(shareService, coordinator, appLogger)

	server := &Server{
		echo:        e,
		config:      cfg,
		logger:      appLogger,
		db:          db,
		coordinator: coordinator,
	}

	// Setup middleware
	server.setupMiddleware()

	// Setup routes
	server.setupRoutes(taskHandler, tagHandler, habitHandler, syncHandler)

	// Setup metrics
	if cfg.Metrics.Enabled {
		server.setupMetrics()
	}

	return server, nil
}

// setupRoutes configures all routes
func (s *Server) setupRoutes(taskHandler *httpHandlers.TaskHandler, tagHandler *httpHandlers.TagHandler, habitHandler *httpHandlers.HabitHandler, syncHandler *httpHandlers.SyncHandler) {
	// Health check routes
	s.echo.GET("/health", s.healthCheck)
	s.echo.GET("/health/detailed", s.detailedHealthCheck)
	s.echo.GET("/ready", s.readinessCheck)

	// API v1 routes
	v1 := s.echo.Group("/api/v1")

	// Task routes, partitioned by calendar date
	taskGroup := v1.Group("/tasks")
	taskGroup.GET("/date/:date", taskHandler.ListTasks)
	taskGroup.POST("", taskHandler.CreateTask)
	taskGroup.PUT("/:id", taskHandler.UpdateTask)
	taskGroup.DELETE("/:id", taskHandler.DeleteTask)
	taskGroup.POST("/:id/subtasks", taskHandler.CreateSubtask)
	taskGroup.POST("/:id/toggle", taskHandler.ToggleTask)
	taskGroup.POST("/:id/transfer", taskHandler.TransferTask)
	taskGroup.POST("/:id/time", taskHandler.AddTime)
	taskGroup.POST("/:id/focus-time", taskHandler.AddFocusTime)

	// Tag routes
	tagGroup := v1.Group("/tags")
	tagGroup.GET("", tagHandler.ListTags)
	tagGroup.POST("", tagHandler.CreateTag)
	tagGroup.PUT("/:id", tagHandler.UpdateTag)
	tagGroup.DELETE("/:id", tagHandler.DeleteTag)

	// Habit routes
	habitGroup := v1.Group("/habits")
	habitGroup.GET("", habitHandler.ListHabits)
	habitGroup.POST("", habitHandler.CreateHabit)
	habitGroup.PUT("/:id", habitHandler.UpdateHabit)
	habitGroup.DELETE("/:id", habitHandler.DeleteHabit)
	habitGroup.POST("/:id/toggle", habitHandler.ToggleHabit)

	// Settings routes
	v1.GET("/settings", syncHandler.GetSettings)
	v1.PUT("/settings", syncHandler.UpdateSettings)

	// Backup and share routes
	v1.GET("/backup", syncHandler.ExportBackup)
	v1.POST("/backup", syncHandler.ImportBackup)
	v1.POST("/share/import", syncHandler.ImportShare)

	// Remote sync routes
	syncGroup := v1.Group("/sync")
	syncGroup.GET("/status", syncHandler.SyncStatus)
	syncGroup.POST("/pull", syncHandler.ForcePull)
	syncGroup.POST("/date", syncHandler.SelectDate)
}

// setupMetrics configures Prometheus metrics
func (s *Server) setupMetrics() {
	registry := prometheus.NewRegistry()

	requestsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	requestDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	registry.MustRegister(requestsTotal, requestDuration)

	if s.coordinator != nil {
		s.coordinator.Metrics().Register(registry)
	}

	// Custom metrics middleware
	s.echo.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			err := next(c)

			duration := time.Since(start)
			status := c.Response().Status

			requestsTotal.WithLabelValues(
				c.Request().Method,
				c.Path(),
				fmt.Sprintf("%d", status),
			).Inc()

			requestDuration.WithLabelValues(
				c.Request().Method,
				c.Path(),
			).Observe(duration.Seconds())

			return err
		}
	})

	// Metrics endpoint
	metricsHandler := promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
	s.echo.GET("/metrics", echo.WrapHandler(metricsHandler))
}

// Health check handlers
func (s *Server) healthCheck(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status": "ok",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) detailedHealthCheck(c echo.Context) error {
	status := "ok"
	checks := make(map[string]interface{})

	if s.db != nil {
		if err := s.db.HealthCheck(); err != nil {
			status = "error"
			checks["database"] = map[string]interface{}{
				"status": "error",
				"error":  err.Error(),
			}
		} else {
			checks["database"] = map[string]interface{}{
				"status": "ok",
				"stats":  s.db.DB.Stats(),
			}
		}
	} else {
		checks["database"] = map[string]interface{}{"status": "disabled"}
	}

	if s.coordinator != nil {
		checks["sync"] = s.coordinator.Status()
	} else {
		checks["sync"] = map[string]interface{}{"enabled": false}
	}

	response := map[string]interface{}{
		"status": status,
		"time":   time.Now().UTC().Format(time.RFC3339),
		"checks": checks,
		"version": map[string]string{
			"app": s.config.App.Version,
			"go":  "1.21",
		},
	}

	if status == "ok" {
		return c.JSON(http.StatusOK, response)
	}
	return c.JSON(http.StatusServiceUnavailable, response)
}

func (s *Server) readinessCheck(c echo.Context) error {
	// A disabled remote never blocks readiness.
	if s.db != nil {
		if err := s.db.Ping(); err != nil {
			return c.JSON(http.StatusServiceUnavailable, map[string]string{
				"status": "not_ready",
				"reason": "database_not_ready",
			})
		}
	}

	return c.JSON(http.StatusOK, map[string]string{
		"status": "ready",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

// Start starts the HTTP server
func (s *Server) Start(address string) error {
	s.logger.Info("Starting server", "address", address)
	return s.echo.Start(address)
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down server")
	return s.echo.Shutdown(ctx)
}

// customErrorHandler handles HTTP errors
func customErrorHandler(logger *logger.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		var (
			code = http.StatusInternalServerError
			msg  interface{}
		)

		if he, ok := err.(*echo.HTTPError); ok {
			code = he.Code
			msg = he.Message
			if he.Internal != nil {
				err = fmt.Errorf("%v, %v", err, he.Internal)
			}
		} else if e, ok := err.(validator.ValidationErrors); ok {
			code = http.StatusBadRequest
			msg = map[string]string{"message": "validation failed", "details": e.Error()}
		} else {
			msg = map[string]string{"message": http.StatusText(code)}
		}

		if code == http.StatusInternalServerError {
			logger.Error("Internal server error", "error", err, "path", c.Request().URL.Path)
		}

		// Send response
		if !c.Response().Committed {
			if c.Request().Method == echo.HEAD {
				err = c.NoContent(code)
			} else {
				err = c.JSON(code, msg)
			}
			if err != nil {
				logger.Error("Error sending response", "error", err)
			}
		}
	}
}
