// Package api exposes scoring, history and analytics over HTTP.
package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/ZanzyTHEbar/coopcredit-guard/docs"
	"github.com/ZanzyTHEbar/coopcredit-guard/internal/cache"
	apperrors "github.com/ZanzyTHEbar/coopcredit-guard/internal/errors"
	"github.com/ZanzyTHEbar/coopcredit-guard/internal/history"
	"github.com/ZanzyTHEbar/coopcredit-guard/internal/middleware"
	"github.com/ZanzyTHEbar/coopcredit-guard/internal/monitoring"
	"github.com/ZanzyTHEbar/coopcredit-guard/internal/ratelimit"
	"github.com/ZanzyTHEbar/coopcredit-guard/internal/security"
)

// Options wires the server to its collaborators. Every field except
// AdminSecret, ScoringDelay and Version is required.
type Options struct {
	Recorder    *history.Recorder
	Backend     string
	Summaries   *cache.SummaryCache
	Limiter     *ratelimit.RateLimiter
	Metrics     *monitoring.Metrics
	Logger      *monitoring.Logger
	Security    *security.Middleware
	Compression *middleware.CompressionMiddleware

	// AdminSecret signs admin tokens. Empty disables the admin routes.
	AdminSecret string
	// ScoringDelay is waited out before /predict responds.
	ScoringDelay time.Duration
	Version      string
}

// Server owns the gin engine and the handlers behind it
type Server struct {
	opts   Options
	router *gin.Engine
}

// NewServer builds the router with the full middleware chain
func NewServer(opts Options) (*Server, error) {
	if opts.Recorder == nil || opts.Summaries == nil || opts.Limiter == nil ||
		opts.Metrics == nil || opts.Logger == nil || opts.Security == nil || opts.Compression == nil {
		return nil, fmt.Errorf("api: incomplete server options")
	}
	if opts.Version == "" {
		opts.Version = "dev"
	}

	s := &Server{opts: opts, router: gin.New()}
	if err := s.router.SetTrustedProxies(opts.Security.Config().TrustedProxies); err != nil {
		return nil, fmt.Errorf("api: invalid trusted proxies: %w", err)
	}

	s.routes()
	return s, nil
}

// Handler returns the HTTP handler
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) routes() {
	r := s.router
	sec := s.opts.Security

	r.Use(apperrors.RecoveryHandler())
	r.Use(monitoring.MonitoringMiddleware(s.opts.Metrics, s.opts.Logger))
	r.Use(monitoring.SecurityMonitoringMiddleware(s.opts.Logger))
	r.Use(s.opts.Compression.Handler())
	r.Use(apperrors.ErrorHandler())
	r.Use(sec.SecurityHeaders)
	r.Use(sec.CORS())
	r.Use(sec.RequestTimeout)
	r.Use(sec.ValidateContentType)
	r.Use(sec.BodySizeLimit)

	r.GET("/health", s.handleHealth)

	limited := r.Group("/predict", s.opts.Limiter.IPRateLimitMiddleware())
	limited.POST("", s.handlePredict)
	limited.POST("/preview", s.handlePreview)

	r.GET("/history", s.handleListHistory)
	r.GET("/history/:id", s.handleGetHistory)
	if s.opts.AdminSecret != "" {
		r.DELETE("/history", security.AdminAuth(s.opts.AdminSecret), s.handleClearHistory)
	}

	r.GET("/analytics", s.handleAnalytics)
	r.GET("/analytics/factors", s.handleFactors)

	r.GET("/metrics", s.handleMetrics)
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
}
