// Package web provides an HTTP status surface over the readings.
package web

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"golang.org/x/time/rate"

	"github.com/janisvco/stepfeed/internal/readings"
)

// Source is the read-only side of the connection manager.
type Source interface {
	Readings() readings.View
	State() readings.ConnectionState
}

// Controls are the developer-only overrides. Only a diagnostic build of the
// manager implements them.
type Controls interface {
	StartMockStepData()
	StopMockStepData()
	StartMockHeartData()
	StopMockHeartData()
	SetConnectionState(st readings.ConnectionState)
	SetBRBEnabled(v bool)
	SetHeartEnabled(v bool)
}

// Server serves readings over HTTP.
type Server struct {
	httpServer *http.Server
	echo       *echo.Echo
	src        Source
	ctrl       Controls
	logger     *slog.Logger

	allowOrigins []string
	devRate      rate.Limit
}

// Option configures a Server.
type Option func(*Server)

// WithControls mounts the /dev routes.
func WithControls(ctrl Controls) Option {
	return func(s *Server) { s.ctrl = ctrl }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithAllowOrigins enables CORS for the given origins.
func WithAllowOrigins(origins ...string) Option {
	return func(s *Server) { s.allowOrigins = origins }
}

// WithDevRateLimit caps requests per second on the /dev routes. Non-positive
// limits keep the default.
func WithDevRateLimit(limit rate.Limit) Option {
	return func(s *Server) {
		if limit > 0 {
			s.devRate = limit
		}
	}
}

// New creates a Server that reads from src.
func New(addr string, src Source, opts ...Option) *Server {
	s := &Server{
		src:     src,
		logger:  slog.Default(),
		devRate: 10,
	}
	for _, opt := range opts {
		opt(s)
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = s.handleError
	e.Use(middleware.Recover())
	if len(s.allowOrigins) > 0 {
		e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
			AllowOrigins: s.allowOrigins,
			AllowMethods: []string{echo.GET, echo.POST, echo.OPTIONS},
			AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept},
		}))
	}

	e.GET("/readings.json", s.handleReadings)
	e.GET("/healthz", s.handleHealth)

	if s.ctrl != nil {
		dev := e.Group("/dev", middleware.RateLimiter(middleware.NewRateLimiterMemoryStore(s.devRate)))
		dev.POST("/mock/steps/start", s.handleStartSteps)
		dev.POST("/mock/steps/stop", s.handleStopSteps)
		dev.POST("/mock/heart/start", s.handleStartHeart)
		dev.POST("/mock/heart/stop", s.handleStopHeart)
		dev.POST("/state", s.handleSetState)
		dev.POST("/flags", s.handleSetFlags)
	}

	s.echo = e
	s.httpServer = &http.Server{
		Addr:    addr,
		Handler: e,
	}
	return s
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler {
	return s.echo
}

// ListenAndServe starts listening. It blocks until the server is shut down.
func (s *Server) ListenAndServe() error {
	return s.httpServer.ListenAndServe()
}

// Serve accepts connections on ln. It blocks until the server is shut down.
func (s *Server) Serve(ln net.Listener) error {
	return s.httpServer.Serve(ln)
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleError(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	code := http.StatusInternalServerError
	message := "internal server error"
	if he, ok := err.(*echo.HTTPError); ok {
		code = he.Code
		message = fmt.Sprintf("%v", he.Message)
	} else {
		s.logger.Error("http handler failed", "path", c.Path(), "error", err)
	}
	c.JSON(code, map[string]any{"error": message})
}
