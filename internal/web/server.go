// Package web espone l'API HTTP dell'agente: generazione sincrona, coda
// task, health, connettività, valutazione comandi e metriche.
package web

import (
	"context"
	"fmt"

	"github.com/Parokor/a0-core-agent/internal/pipeline"
	"github.com/Parokor/a0-core-agent/internal/security"
	"github.com/Parokor/a0-core-agent/internal/tasks"
	"github.com/Parokor/a0-core-agent/pkg/config"
	"github.com/Parokor/a0-core-agent/pkg/middleware"
	"github.com/gofiber/fiber/v3"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
	"github.com/valyala/fasthttp/fasthttpadaptor"
)

// Server è il server HTTP dell'agente
type Server struct {
	app     *fiber.App
	cfg     config.WebConfig
	pipe    *pipeline.Pipeline
	taskMgr *tasks.Manager
	secMgr  *security.Manager
}

// NewServer crea il server e registra le route
func NewServer(cfg config.WebConfig, pipe *pipeline.Pipeline, taskMgr *tasks.Manager, secMgr *security.Manager) *Server {
	app := fiber.New(fiber.Config{
		AppName: "a0-core-agent",
	})

	s := &Server{
		app:     app,
		cfg:     cfg,
		pipe:    pipe,
		taskMgr: taskMgr,
		secMgr:  secMgr,
	}

	app.Use(middleware.RequestID())
	app.Use(middleware.Recovery())
	app.Use(middleware.Logging(middleware.LoggingConfig{
		SkipPaths: []string{"/health", "/metrics"},
	}))
	app.Use(middleware.CORS(middleware.CORSConfig{}))

	s.registerRoutes()
	return s
}

// registerRoutes registra tutte le route dell'API
func (s *Server) registerRoutes() {
	s.app.Get("/health", s.handleHealth)
	s.app.Get("/connectivity", s.handleConnectivity)
	s.app.Get("/system", s.handleSystem)
	s.app.Get("/routing", s.handleRouting)

	v1 := s.app.Group("/v1")
	v1.Post("/generate", s.handleGenerate)

	s.app.Post("/tasks", s.handleSubmitTask)
	s.app.Get("/tasks", s.handleListTasks)
	s.app.Get("/tasks/:id", s.handleGetTask)

	s.app.Post("/security/assess", s.handleAssess)
	s.app.Get("/security/audit", s.handleAudit)

	// Prometheus espone un http.Handler: va adattato a fasthttp
	metricsHandler := fasthttpadaptor.NewFastHTTPHandler(promhttp.Handler())
	s.app.Get("/metrics", func(c fiber.Ctx) error {
		metricsHandler(c.RequestCtx())
		return nil
	})
}

// App restituisce l'app fiber, per i test
func (s *Server) App() *fiber.App {
	return s.app
}

// Start avvia il server; blocca fino allo shutdown
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)
	log.Info().Str("addr", addr).Msg("Web interface listening")
	return s.app.Listen(addr, fiber.ListenConfig{DisableStartupMessage: true})
}

// Shutdown ferma il server entro il deadline del context
func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}
