package server

import (
	"context"
	"net/http"
	"time"

	apikeydomain "github.com/crescendohq/crescendo/internal/apikey/domain"
	"github.com/crescendohq/crescendo/internal/cache"
	"github.com/crescendohq/crescendo/internal/config"
	contractdomain "github.com/crescendohq/crescendo/internal/contract/domain"
	"github.com/crescendohq/crescendo/internal/contract/render"
	"github.com/crescendohq/crescendo/internal/observability/logger"
	"github.com/crescendohq/crescendo/internal/observability/metrics"
	"github.com/crescendohq/crescendo/internal/observability/tracing"
	signingdomain "github.com/crescendohq/crescendo/internal/signing/domain"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var Module = fx.Module("server",
	fx.Provide(NewEngine),
	fx.Provide(NewServer),
	fx.Invoke(func(s *Server) { s.RegisterRoutes() }),
	fx.Invoke(RunHTTP),
)

type ServerParam struct {
	fx.In

	Config      config.Config
	DB          *gorm.DB
	Log         *zap.Logger
	ContractSvc contractdomain.Service
	ReviewFlow  signingdomain.ReviewFlow
	SignFlow    signingdomain.SignFlow
	Renderer    render.Renderer
	APIKeySvc   apikeydomain.Service
	HTTPMetrics *metrics.HTTPMetrics `optional:"true"`
}

type Server struct {
	cfg    config.Config
	db     *gorm.DB
	log    *zap.Logger
	engine *gin.Engine

	contractSvc contractdomain.Service
	reviewFlow  signingdomain.ReviewFlow
	signFlow    signingdomain.SignFlow
	renderer    render.Renderer
	apiKeySvc   apikeydomain.Service

	authCache   *cache.TTLCache[string, bool]
	rateLimiter *rateLimiter
	httpMetrics *metrics.HTTPMetrics
}

func NewEngine(cfg config.Config, httpMetrics *metrics.HTTPMetrics) *gin.Engine {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(logger.GinMiddleware(logger.MiddlewareConfig{
		SkipPaths: []string{"/healthz", "/metrics"},
	}))
	engine.Use(tracing.GinMiddleware(cfg.Telemetry.ServiceName))
	engine.Use(metrics.GinMiddleware(httpMetrics))
	return engine
}

func NewServer(p ServerParam, engine *gin.Engine) *Server {
	limit := p.Config.Signing.PublicRateLimit
	if limit <= 0 {
		limit = 60
	}
	window := p.Config.Signing.PublicRateWindow
	if window <= 0 {
		window = time.Minute
	}

	return &Server{
		cfg:    p.Config,
		db:     p.DB,
		log:    p.Log.Named("server"),
		engine: engine,

		contractSvc: p.ContractSvc,
		reviewFlow:  p.ReviewFlow,
		signFlow:    p.SignFlow,
		renderer:    p.Renderer,
		apiKeySvc:   p.APIKeySvc,

		authCache:   cache.NewTTLCache[string, bool](),
		rateLimiter: newRateLimiter(limit, window),
		httpMetrics: p.HTTPMetrics,
	}
}

// RegisterRoutes wires the public signing surface and the authenticated
// admin surface.
func (s *Server) RegisterRoutes() {
	s.RegisterPublicRoutes()
	s.RegisterAdminRoutes()

	s.engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	s.engine.GET("/metrics", gin.WrapH(promhttp.Handler()))
}

// RegisterPublicRoutes exposes the unauthenticated token endpoints.
func (s *Server) RegisterPublicRoutes() {
	public := s.engine.Group("/contracts")
	public.Use(s.PublicRateLimit())
	{
		public.GET("/review/:token", s.GetContractForReview)
		public.POST("/review/:token", s.ApproveContractAsReviewer)
		public.GET("/sign/:token", s.GetContractForSigning)
		public.POST("/sign/:token", s.SignContract)
	}
}

// RegisterAdminRoutes exposes the API-key-protected admin surface.
func (s *Server) RegisterAdminRoutes() {
	admin := s.engine.Group("/admin")
	admin.Use(s.AdminRequired())
	{
		admin.POST("/contracts", s.CreateContract)
		admin.GET("/contracts", s.ListContracts)
		admin.GET("/contracts/:id", s.GetContract)
		admin.PUT("/contracts/:id", s.UpdateContract)
		admin.POST("/contracts/:id/send_to_reviewer", s.SendContractToReviewer)
		admin.POST("/contracts/:id/send_to_signer", s.SendContractToSigner)
		admin.POST("/contracts/:id/cancel", s.CancelContract)
		admin.DELETE("/contracts/:id", s.DeleteContract)
		admin.GET("/contracts/:id/document", s.RenderContractDocument)

		if !s.cfg.IsProduction() {
			admin.POST("/test/cleanup", s.TestCleanup)
		}
	}
}

// RunHTTP starts the HTTP listener under the fx lifecycle.
func RunHTTP(lc fx.Lifecycle, cfg config.Config, engine *gin.Engine, log *zap.Logger) {
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Info("http server starting", zap.String("addr", cfg.HTTPAddr))
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					log.Error("http server stopped", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Info("http server shutting down")
			return srv.Shutdown(ctx)
		},
	})
}
