// Package api exposes the resolution pipeline over HTTP.
package api

import (
	"context"
	"encoding/base64"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"

	"github.com/screenlens/screenlens/internal/cache"
	"github.com/screenlens/screenlens/internal/config"
	"github.com/screenlens/screenlens/internal/content"
	"github.com/screenlens/screenlens/internal/health"
	"github.com/screenlens/screenlens/internal/scheduler"
)

var (
	errEmptyQuery = errors.New("either imageBase64 or query must be provided")
	errBadImage   = errors.New("imageBase64 is not valid base64")
)

// ContentResolver resolves one query into identified content.
type ContentResolver interface {
	Resolve(ctx context.Context, q content.Query) ([]content.IdentifiedContent, error)
}

// identifyRequest is the inbound identification request body. Exactly one
// of imageBase64 or query is expected; the image takes precedence.
type identifyRequest struct {
	ImageBase64 string `json:"imageBase64,omitempty"`
	MimeType    string `json:"mimeType,omitempty"`
	Query       string `json:"query,omitempty"`
}

// identifyResponse always carries a results array, possibly empty, so
// callers never special-case transport failures against empty results.
type identifyResponse struct {
	Results []content.IdentifiedContent `json:"results"`
	Error   string                      `json:"error,omitempty"`
}

// Server handles HTTP requests for the identification API.
type Server struct {
	echo      *echo.Echo
	resolver  ContentResolver
	cache     *cache.Store
	health    *health.Service
	scheduler *scheduler.Scheduler
	logger    zerolog.Logger
	cfg       *config.Config
}

// NewServer creates a new API server instance.
func NewServer(resolver ContentResolver, store *cache.Store, healthSvc *health.Service, sched *scheduler.Scheduler, cfg *config.Config, logger zerolog.Logger) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	s := &Server{
		echo:      e,
		resolver:  resolver,
		cache:     store,
		health:    healthSvc,
		scheduler: sched,
		logger:    logger.With().Str("component", "api").Logger(),
		cfg:       cfg,
	}

	s.setupMiddleware()
	s.setupRoutes()

	return s
}

// setupMiddleware configures Echo middleware.
func (s *Server) setupMiddleware() {
	s.echo.Use(middleware.Recover())
	s.echo.Use(middleware.RequestID())

	s.echo.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept},
	}))

	s.echo.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogURI:      true,
		LogStatus:   true,
		LogLatency:  true,
		LogMethod:   true,
		LogError:    true,
		HandleError: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			if v.Error != nil {
				s.logger.Error().
					Str("method", v.Method).
					Str("uri", v.URI).
					Int("status", v.Status).
					Dur("latency", v.Latency).
					Err(v.Error).
					Msg("request error")
			} else {
				s.logger.Info().
					Str("method", v.Method).
					Str("uri", v.URI).
					Int("status", v.Status).
					Dur("latency", v.Latency).
					Msg("request")
			}
			return nil
		},
	}))

	s.echo.Use(middleware.GzipWithConfig(middleware.GzipConfig{Level: 5}))
}

// setupRoutes configures API routes.
func (s *Server) setupRoutes() {
	s.echo.GET("/health", s.healthCheck)

	api := s.echo.Group("/api/v1")
	api.POST("/identify", s.identify)
	api.GET("/status", s.getStatus)
	api.GET("/tasks", s.listTasks)
	api.POST("/tasks/:id/run", s.runTask)
}

// Start begins listening for HTTP requests.
func (s *Server) Start(address string) error {
	s.logger.Info().Str("address", address).Msg("starting HTTP server")
	return s.echo.Start(address)
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info().Msg("shutting down HTTP server")
	return s.echo.Shutdown(ctx)
}

// Echo returns the underlying Echo instance.
func (s *Server) Echo() *echo.Echo {
	return s.echo
}

// --- Handler implementations ---

func (s *Server) identify(c echo.Context) error {
	var req identifyRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, identifyResponse{
			Error:   "invalid request body",
			Results: []content.IdentifiedContent{},
		})
	}

	query, err := buildQuery(req)
	if err != nil {
		return c.JSON(http.StatusBadRequest, identifyResponse{
			Error:   err.Error(),
			Results: []content.IdentifiedContent{},
		})
	}

	results, err := s.resolver.Resolve(c.Request().Context(), query)
	if err != nil {
		s.logger.Error().Err(err).Msg("resolution failed unexpectedly")
		return c.JSON(http.StatusInternalServerError, identifyResponse{
			Error:   "internal error",
			Results: []content.IdentifiedContent{},
		})
	}

	return c.JSON(http.StatusOK, identifyResponse{Results: results})
}

// buildQuery validates the request and constructs the pipeline query. The
// image field wins when both are present.
func buildQuery(req identifyRequest) (content.Query, error) {
	if req.ImageBase64 != "" {
		data, err := base64.StdEncoding.DecodeString(req.ImageBase64)
		if err != nil {
			return content.Query{}, errBadImage
		}
		mimeType := req.MimeType
		if mimeType == "" {
			mimeType = "image/jpeg"
		}
		return content.NewImageQuery(data, mimeType), nil
	}

	if req.Query == "" {
		return content.Query{}, errEmptyQuery
	}
	return content.NewTextQuery(req.Query), nil
}

func (s *Server) healthCheck(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) getStatus(c echo.Context) error {
	stats, err := s.cache.GetStats(c.Request().Context())
	if err != nil {
		s.logger.Warn().Err(err).Msg("failed to read cache stats")
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"version":      config.Version,
		"cacheEnabled": s.cache.Enabled(),
		"cache":        stats,
		"providers":    s.health.Statuses(),
	})
}

func (s *Server) listTasks(c echo.Context) error {
	return c.JSON(http.StatusOK, s.scheduler.ListTasks())
}

func (s *Server) runTask(c echo.Context) error {
	if err := s.scheduler.RunNow(c.Param("id")); err != nil {
		return c.JSON(http.StatusNotFound, map[string]string{"error": err.Error()})
	}
	return c.JSON(http.StatusAccepted, map[string]string{"status": "started"})
}
