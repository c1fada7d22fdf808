// Package server exposes the fact-check orchestrator over HTTP.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ahrav/go-checkmate/internal/configuration"
	"github.com/ahrav/go-checkmate/internal/factcheck"
	"github.com/ahrav/go-checkmate/internal/llm/circuitbreaker"
)

// Checker runs one fact-check invocation under an operation class.
// Implemented by factcheck.Orchestrator.
type Checker interface {
	Check(ctx context.Context, class string, req *factcheck.Request) (*factcheck.Response, error)
}

// Server is the fiber HTTP surface for the fact-check service.
type Server struct {
	app         *fiber.App
	checker     Checker
	breakers    *circuitbreaker.Registry
	cfg         configuration.ServerConfig
	development bool
	logger      *slog.Logger
}

// New builds the HTTP server with the standard middleware stack and routes.
func New(cfg configuration.ServerConfig, development bool, checker Checker, breakers *circuitbreaker.Registry) *Server {
	app := fiber.New(fiber.Config{
		ReadTimeout:           cfg.ReadTimeout,
		WriteTimeout:          cfg.WriteTimeout,
		BodyLimit:             cfg.BodyLimit,
		DisableStartupMessage: true,
	})

	s := &Server{
		app:         app,
		checker:     checker,
		breakers:    breakers,
		cfg:         cfg,
		development: development,
		logger:      slog.Default().With("component", "server"),
	}

	app.Use(recover.New())
	app.Use(cors.New())
	app.Use(s.requestLogger())

	app.Post("/factcheck", s.handleFactCheck)
	app.Post("/factcheck/background", s.requireBackgroundToken, s.handleFactCheckBackground)
	app.Get("/healthz", s.handleHealth)
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	return s
}

// App exposes the fiber app for tests.
func (s *Server) App() *fiber.App { return s.app }

// Listen serves until Shutdown is called.
func (s *Server) Listen() error {
	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)
	s.logger.Info("listening", "addr", addr)
	return s.app.Listen(addr)
}

// Shutdown drains connections with a bounded grace period.
func (s *Server) Shutdown(timeout time.Duration) error {
	return s.app.ShutdownWithTimeout(timeout)
}

// requestLogger logs each request with a correlation id and latency.
func (s *Server) requestLogger() fiber.Handler {
	return func(c *fiber.Ctx) error {
		requestID := c.Get("X-Request-ID")
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Locals("request_id", requestID)

		start := time.Now()
		err := c.Next()

		s.logger.Info("request",
			"request_id", requestID,
			"method", c.Method(),
			"path", c.Path(),
			"status", c.Response().StatusCode(),
			"elapsed", time.Since(start))
		return err
	}
}
