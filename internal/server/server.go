// Package server exposes summarization, export and the mock accounts over
// a JSON HTTP API.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"papersum/internal/auth"
	"papersum/internal/extract"
	"papersum/internal/jobs"
	"papersum/internal/metrics"
	"papersum/internal/ratelimiter"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

const (
	userContextKey = "user"

	// formOverhead covers multipart headers and the preference fields.
	formOverhead int64 = 64 << 10
)

type Config struct {
	MaxUploadBytes int64
	// Limiter spaces out submissions per user. Nil disables limiting.
	Limiter *ratelimiter.RateLimiter
}

type Server struct {
	echo      *echo.Echo
	auth      *auth.Service
	jobs      *jobs.Manager
	extractor *extract.Extractor
	metrics   *metrics.Metrics
	log       *slog.Logger
	maxUpload int64
	limiter   *ratelimiter.RateLimiter
}

func New(
	authSvc *auth.Service,
	jobMgr *jobs.Manager,
	extractor *extract.Extractor,
	m *metrics.Metrics,
	log *slog.Logger,
	cfg Config,
) *Server {
	if log == nil {
		log = slog.Default()
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = extract.DefaultMaxSize
	}

	s := &Server{
		echo:      echo.New(),
		auth:      authSvc,
		jobs:      jobMgr,
		extractor: extractor,
		metrics:   m,
		log:       log,
		maxUpload: cfg.MaxUploadBytes,
		limiter:   cfg.Limiter,
	}

	s.echo.HideBanner = true
	s.echo.HidePort = true
	s.echo.HTTPErrorHandler = s.handleError

	s.echo.Use(middleware.Recover())
	s.echo.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:   true,
		LogURI:      true,
		LogStatus:   true,
		LogLatency:  true,
		LogError:    true,
		HandleError: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			attrs := []any{
				"method", v.Method,
				"uri", v.URI,
				"status", v.Status,
				"latencySeconds", v.Latency.Seconds(),
			}
			if v.Error != nil {
				attrs = append(attrs, "error", v.Error)
			}
			s.log.DebugContext(c.Request().Context(), "Request is handled", attrs...)

			return nil
		},
	}))

	s.routes()

	return s
}

func (s *Server) routes() {
	s.echo.GET("/healthz", s.handleHealth)
	s.echo.GET("/metrics", echo.WrapHandler(s.metrics.Handler()))

	api := s.echo.Group("/api")

	api.POST("/auth/register", s.handleRegister)
	api.POST("/auth/login", s.handleLogin)
	api.POST("/auth/logout", s.handleLogout, s.requireUser)
	api.GET("/users", s.handleUsers)

	summaries := api.Group("/summaries", s.requireUser)
	summaries.POST("", s.handleSubmitSummary, middleware.BodyLimit(bodyLimit(s.maxUpload)))
	summaries.GET("/:id", s.handleGetSummary)
	summaries.GET("/:id/export", s.handleExportSummary)
}

// bodyLimit renders the request cap in the KiB units BodyLimit parses.
func bodyLimit(maxUpload int64) string {
	return fmt.Sprintf("%dK", (maxUpload+formOverhead+1023)/1024)
}

// Handler returns the router for use with httptest or a custom server.
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Start blocks until the server stops. A clean Shutdown returns nil.
func (s *Server) Start(addr string) error {
	err := s.echo.Start(addr)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}

	return err
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleError(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	code := http.StatusInternalServerError
	message := http.StatusText(code)

	var httpErr *echo.HTTPError
	if errors.As(err, &httpErr) {
		code = httpErr.Code
		if m, ok := httpErr.Message.(string); ok {
			message = m
		} else {
			message = http.StatusText(code)
		}
	}

	if code >= http.StatusInternalServerError {
		s.log.ErrorContext(c.Request().Context(), "Failed to handle request",
			"error", err,
			"method", c.Request().Method,
			"path", c.Path(),
			"status", code)
	}

	if c.Request().Method == http.MethodHead {
		err = c.NoContent(code)
	} else {
		err = c.JSON(code, errorResponse{Error: message})
	}
	if err != nil {
		s.log.ErrorContext(c.Request().Context(), "Failed to write error response",
			"error", err,
			"status", code)
	}
}
