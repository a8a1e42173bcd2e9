package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/pageza/nutrisnap/backend/config"
	"github.com/pageza/nutrisnap/backend/internal/api"
	"github.com/pageza/nutrisnap/backend/internal/flow"
	"github.com/pageza/nutrisnap/backend/internal/logger"
	"github.com/pageza/nutrisnap/backend/internal/middleware"
	"github.com/pageza/nutrisnap/backend/internal/service"
)

const shutdownTimeout = 10 * time.Second

// Deps are the collaborators the HTTP layer is built from. Redis may be nil,
// which disables rate limiting.
type Deps struct {
	DB       *gorm.DB
	Redis    *redis.Client
	Log      *logger.Logger
	Auth     service.IAuthService
	Profiles service.IProfileService
	Flows    *flow.Service
}

// Server represents the HTTP server
type Server struct {
	router *gin.Engine
	http   *http.Server
	log    *logger.Logger
}

// New builds the router and the HTTP server
func New(cfg *config.Config, deps Deps) *Server {
	log := deps.Log
	if log == nil {
		log = logger.NewNop()
	}

	router := gin.New()
	router.Use(
		middleware.Recovery(log),
		otelgin.Middleware(cfg.OTelServiceName),
		middleware.RequestLogger(log),
		middleware.CORS(cfg.CORSOrigins),
	)

	var aiLimit gin.HandlerFunc
	if deps.Redis != nil {
		aiLimit = middleware.NewAIRateLimiter(deps.Redis, cfg.RateLimitRequests, cfg.RateLimitWindow, log).RateLimitMiddleware()
	} else {
		log.Warn("redis not configured, AI endpoints are not rate limited")
	}

	api.RegisterRoutes(router, api.Handlers{
		Auth:    api.NewAuthHandler(deps.Auth, log),
		Profile: api.NewProfileHandler(deps.Profiles, log),
		AI:      api.NewAIHandler(deps.Flows, deps.Profiles, log),
		Health:  api.NewHealthHandler(deps.DB, deps.Redis),
	}, middleware.AuthMiddleware(deps.Auth), aiLimit)

	return &Server{
		router: router,
		http: &http.Server{
			Addr:              net.JoinHostPort(cfg.ServerHost, cfg.ServerPort),
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		},
		log: log,
	}
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves until ctx is done and then shuts down gracefully. Streams still
// open get shutdownTimeout to finish.
func (s *Server) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.log.Info("server listening", "addr", s.http.Addr)
		if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		s.log.Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return s.http.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
