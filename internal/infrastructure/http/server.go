// Package http provides the HTTP server infrastructure.
// Clean Architecture: Framework/driver layer - outermost circle.
package http

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/adaptor"
	fiberlogger "github.com/gofiber/fiber/v3/middleware/logger"
	"github.com/gofiber/fiber/v3/middleware/recover"
	"github.com/gofiber/fiber/v3/middleware/requestid"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/0xcro3dile/islandguide/internal/domain/entities"
	"github.com/0xcro3dile/islandguide/internal/domain/ports"
	"github.com/0xcro3dile/islandguide/internal/domain/usecases"
	"github.com/0xcro3dile/islandguide/internal/infrastructure/metrics"
)

// Asker routes one question to a reply.
type Asker interface {
	Handle(ctx context.Context, question string) entities.Reply
}

// Index is the maintenance side of the document index.
type Index interface {
	Count(ctx context.Context) (int, error)
	Reload(ctx context.Context) (usecases.IngestStats, error)
}

// Options configures the server.
type Options struct {
	AppName       string
	ReloadEnabled bool
	Gatherer      prometheus.Gatherer // nil disables /metrics
}

// Server is the HTTP surface for questions, health and maintenance.
type Server struct {
	app     *fiber.App
	asker   Asker
	index   Index
	metrics *metrics.Metrics
	opts    Options
}

// NewServer creates the fiber app and registers routes. m may be nil.
func NewServer(asker Asker, index Index, m *metrics.Metrics, opts Options) *Server {
	if opts.AppName == "" {
		opts.AppName = "islandguide"
	}

	app := fiber.New(fiber.Config{
		AppName: opts.AppName,
		// Generation and headless rendering may be slow; no write deadline.
		ReadTimeout:  30 * time.Second,
		ErrorHandler: errorHandler,
	})

	app.Use(recover.New())
	app.Use(requestid.New(requestid.Config{Generator: uuid.NewString}))
	app.Use(fiberlogger.New())

	s := &Server{
		app:     app,
		asker:   asker,
		index:   index,
		metrics: m,
		opts:    opts,
	}
	s.Register(app)
	return s
}

// Register sets up routes.
func (s *Server) Register(router fiber.Router) {
	api := router.Group("/api/v1")
	api.Get("/health", s.Health)
	api.Post("/ask", s.Ask)
	if s.opts.ReloadEnabled {
		api.Post("/admin/reload", s.Reload)
	}

	if s.opts.Gatherer != nil {
		router.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(s.opts.Gatherer, promhttp.HandlerOpts{})))
	}
}

// App exposes the fiber app, mainly for tests.
func (s *Server) App() *fiber.App {
	return s.app
}

// Start listens on addr until ctx is cancelled.
func (s *Server) Start(ctx context.Context, addr string) error {
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.app.ShutdownWithContext(shutdownCtx); err != nil {
			slog.Warn("http shutdown", "error", err)
		}
	}()

	slog.Info("fiber listening", "addr", addr)
	return s.app.Listen(addr, fiber.ListenConfig{DisableStartupMessage: true})
}

// errorHandler renders framework errors, unknown routes included, in the
// same {"error": ...} shape the handlers use.
func errorHandler(c fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
	}
	return c.Status(code).JSON(fiber.Map{"error": err.Error()})
}

type askRequest struct {
	Question string `json:"question"`
}

type askResponse struct {
	Route    entities.Route `json:"route"`
	Reply    string         `json:"reply"`
	Grounded bool           `json:"grounded"`
}

// Ask answers one question.
func (s *Server) Ask(c fiber.Ctx) error {
	var body askRequest
	if err := c.Bind().JSON(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}
	question := strings.TrimSpace(body.Question)
	if question == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": ports.ErrInvalidInput.Error() + ": question is required"})
	}

	reply := s.asker.Handle(c.Context(), question)
	if s.metrics != nil {
		s.metrics.ObserveReply(reply)
	}
	slog.Info("question answered",
		"request_id", requestid.FromContext(c),
		"route", reply.Route,
		"grounded", reply.Grounded,
	)

	return c.JSON(askResponse{
		Route:    reply.Route,
		Reply:    reply.Text,
		Grounded: reply.Grounded,
	})
}

// Health reports liveness and the index size.
func (s *Server) Health(c fiber.Ctx) error {
	count, err := s.index.Count(c.Context())
	if err != nil {
		slog.Error("health check: counting index", "error", err)
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"status": "degraded",
			"app":    s.opts.AppName,
			"error":  err.Error(),
		})
	}
	return c.JSON(fiber.Map{
		"status": "healthy",
		"app":    s.opts.AppName,
		"chunks": count,
	})
}

type skippedJSON struct {
	Path   string `json:"path"`
	Reason string `json:"reason"`
}

// Reload rebuilds the index from the documents directory.
func (s *Server) Reload(c fiber.Ctx) error {
	stats, err := s.index.Reload(c.Context())
	if s.metrics != nil {
		s.metrics.ObserveReload(stats.Chunks, err)
	}

	if errors.Is(err, ports.ErrReloadInProgress) {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": err.Error()})
	}
	if err != nil {
		slog.Error("reload failed", "request_id", requestid.FromContext(c), "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	skipped := make([]skippedJSON, len(stats.Skipped))
	for i, sd := range stats.Skipped {
		skipped[i] = skippedJSON{Path: sd.Path, Reason: sd.Reason}
	}
	return c.JSON(fiber.Map{
		"documents": stats.Documents,
		"chunks":    stats.Chunks,
		"skipped":   skipped,
	})
}
