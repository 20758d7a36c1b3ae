package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/vzahanych/jbot-advisor/internal/advisory"
	"github.com/vzahanych/jbot-advisor/internal/aggregator"
	"github.com/vzahanych/jbot-advisor/internal/config"
	"github.com/vzahanych/jbot-advisor/internal/server/handlers"
	"github.com/vzahanych/jbot-advisor/internal/server/middlewares"
	"github.com/vzahanych/jbot-advisor/internal/session"
	"github.com/vzahanych/jbot-advisor/pkg/telemetry"
)

// Deps are the collaborators the routes are served from.
type Deps struct {
	Engine     *advisory.Engine
	Aggregator *aggregator.Aggregator
	Assistant  *session.Assistant
	// Refresher is optional; when set, readiness reports its last error.
	Refresher *aggregator.Refresher
}

type Server struct {
	cfg     config.ServerConfig
	engine  *gin.Engine
	server  *http.Server
	deps    Deps
	metrics *handlers.MetricsHandler
	logger  *zap.Logger
	tele    *telemetry.Telemetry
}

func NewServer(cfg config.ServerConfig, deps Deps, logger *zap.Logger, tele *telemetry.Telemetry) *Server {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()

	httpMetrics := middlewares.NewMetricsMiddleware()

	engine.Use(middlewares.RequestIDMiddleware())
	engine.Use(middlewares.LoggingMiddleware(logger, true))
	engine.Use(middlewares.RecoveryMiddleware(logger, true))
	engine.Use(middlewares.TelemetryMiddleware(logger, tele))
	engine.Use(httpMetrics.Handler())

	s := &Server{
		cfg:     cfg,
		engine:  engine,
		deps:    deps,
		metrics: handlers.NewMetricsHandler(logger, httpMetrics),
		logger:  logger,
		tele:    tele,
	}

	deps.Aggregator.SetMetricsRecorder(s.metrics)
	s.setupRoutes()

	return s
}

func (s *Server) setupRoutes() {
	advice := handlers.NewAdviceHandler(s.deps.Engine, s.deps.Aggregator, s.logger, s.metrics)
	conditions := handlers.NewConditionsHandler(s.deps.Aggregator, s.logger)

	// Business endpoints
	s.engine.GET("/advice/:intent", advice.GetAdvice)
	s.engine.POST("/advice/outfit", advice.PostOutfit)
	s.engine.GET("/conditions", conditions.GetConditions)
	s.engine.GET("/conditions/cache", conditions.GetCacheStats)
	s.engine.DELETE("/conditions/cache", conditions.ClearCache)

	if s.deps.Assistant != nil {
		sessions := handlers.NewSessionHandler(s.deps.Assistant, s.logger)
		s.engine.POST("/session/utterance", sessions.PostUtterance)
		s.engine.GET("/session", sessions.GetState)
	}

	// Health endpoints (Kubernetes friendly)
	health := handlers.NewHealthHandler(s.logger, s.readinessChecks()...)
	s.engine.GET("/health", health.Health)
	s.engine.GET("/health/live", health.Liveness)
	s.engine.GET("/health/ready", health.Readiness)

	// Monitoring endpoints
	s.engine.GET("/metrics", s.metrics.ServeMetrics)
}

func (s *Server) readinessChecks() []handlers.ReadinessCheck {
	if s.deps.Refresher == nil {
		return nil
	}

	refresher := s.deps.Refresher
	return []handlers.ReadinessCheck{{
		Name: "conditions",
		Check: func(context.Context) error {
			last, err := refresher.Status()
			if err != nil {
				return err
			}
			if last.IsZero() {
				return errors.New("conditions not fetched yet")
			}
			return nil
		},
	}}
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.engine
}

func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port),
		Handler:      s.engine,
		ReadTimeout:  time.Duration(s.cfg.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(s.cfg.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(s.cfg.IdleTimeout) * time.Second,
	}

	s.logger.Info("Starting server", zap.String("addr", s.server.Addr))
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	return s.server.Shutdown(ctx)
}
