// Package api serves a small read-only status endpoint.
package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/bakkerme/freegame-alerts/internal/health"
	"github.com/bakkerme/freegame-alerts/internal/runner"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

type StatusProvider interface {
	Status() health.Status
}

type CycleProvider interface {
	LastReport() (runner.CycleReport, bool)
}

type Server struct {
	status StatusProvider
	cycles CycleProvider
	logger *slog.Logger
	echo   *echo.Echo
}

// NewServer builds the server. cycles may be nil.
func NewServer(status StatusProvider, cycles CycleProvider, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "api")

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod: true,
		LogURI:    true,
		LogStatus: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			logger.Debug("request", "method", v.Method, "uri", v.URI, "status", v.Status)
			return nil
		},
	}))

	server := &Server{
		status: status,
		cycles: cycles,
		logger: logger,
		echo:   e,
	}
	server.setupRoutes()
	return server
}

func (s *Server) setupRoutes() {
	api := s.echo.Group("/api/v1")
	api.GET("/health", s.handleHealth)
	api.GET("/status", s.handleStatus)
}

func (s *Server) Handler() http.Handler {
	return s.echo
}

// Start blocks serving addr until Shutdown is called.
func (s *Server) Start(addr string) error {
	s.logger.Info("status endpoint listening", "addr", addr)
	if err := s.echo.Start(addr); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]interface{}{
		"status":  "healthy",
		"service": "freegame-alerts",
	})
}

type cycleView struct {
	ID           string    `json:"id"`
	StartedAt    time.Time `json:"started_at"`
	FinishedAt   time.Time `json:"finished_at"`
	Fetched      int       `json:"fetched"`
	Free         int       `json:"free"`
	New          int       `json:"new"`
	Notified     int       `json:"notified"`
	FetchErrors  int       `json:"fetch_errors"`
	NotifyErrors int       `json:"notify_errors"`
}

type statusResponse struct {
	health.Status
	LastCycle *cycleView `json:"last_cycle,omitempty"`
}

func (s *Server) handleStatus(c echo.Context) error {
	resp := statusResponse{Status: s.status.Status()}
	if s.cycles != nil {
		if last, ok := s.cycles.LastReport(); ok {
			resp.LastCycle = &cycleView{
				ID:           last.ID,
				StartedAt:    last.StartedAt,
				FinishedAt:   last.FinishedAt,
				Fetched:      last.Fetched,
				Free:         last.Free,
				New:          last.New,
				Notified:     last.Notified,
				FetchErrors:  last.FetchErrors,
				NotifyErrors: last.NotifyErrors,
			}
		}
	}
	return c.JSON(http.StatusOK, resp)
}
