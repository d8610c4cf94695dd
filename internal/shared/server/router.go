package server

import (
	"net/http"
	"strings"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"

	"incident-backend/internal/attachments"
	googleauth "incident-backend/internal/auth"
	"incident-backend/internal/export"
	"incident-backend/internal/reports"
	"incident-backend/internal/services/health"
	"incident-backend/internal/shared/config"
	"incident-backend/internal/shared/metrics"
	"incident-backend/internal/shared/server/middleware"
	"incident-backend/internal/shared/server/respond"
	"incident-backend/internal/users"
)

const (
	rateGroupDefault = "DEFAULT"
	rateGroupUpload  = "UPLOAD"
	rateGroupExport  = "EXPORT"
	// rateGroupNone has no rule, so requests in it are never limited.
	rateGroupNone = "NONE"
)

// RouterDeps carries the handlers mounted under /api/v1. Nil handlers are skipped.
type RouterDeps struct {
	Config            config.Config
	Health            *health.Service
	ReportHandler     *reports.Handler
	AttachmentHandler *attachments.Handler
	ExportHandler     *export.Handler
	UserHandler       *users.Handler
	GoogleAuth        *googleauth.GoogleService
	// MediaDir is served under /media when blobs are kept on local disk.
	MediaDir    string
	RateLimiter *middleware.RateLimiter
}

// NewRouter constructs the Gin engine with middleware and routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	if deps.Config.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()

	r.Use(
		middleware.RequestID(),
		middleware.Logging(),
		middleware.Recovery(),
		middleware.CORS(deps.Config.CORSAllowOrigin),
		gzip.Gzip(gzip.DefaultCompression,
			gzip.WithExcludedPaths([]string{"/media/"}),
			gzip.WithExcludedPathsRegexs([]string{`/export$`}),
		),
		middleware.Auth("/api/v1/health", "/api/v1/metrics", "/api/v1/auth/google/", "/media/"),
		middleware.RateLimit(middleware.RateLimitConfig{
			DefaultGroup: rateGroupDefault,
			GroupFor:     rateGroupFor,
			Limiter:      deps.RateLimiter,
			Rules: map[string]middleware.RateLimitRule{
				rateGroupDefault: {Rate: 10, Burst: 40},
				rateGroupUpload:  {Rate: 1, Burst: 10},
				rateGroupExport:  {Rate: 0.2, Burst: 3},
			},
		}),
	)

	if deps.MediaDir != "" {
		r.Static("/media", deps.MediaDir)
	}

	api := r.Group("/api/v1")
	api.GET("/health", func(c *gin.Context) {
		status, ok := deps.Health.Status(c.Request.Context())
		if !ok {
			respond.JSON(c, http.StatusServiceUnavailable, status)
			return
		}
		respond.OK(c, status)
	})
	api.GET("/metrics", metrics.Handler())

	if deps.GoogleAuth != nil {
		deps.GoogleAuth.RegisterRoutes(api)
	}
	if deps.UserHandler != nil {
		deps.UserHandler.RegisterRoutes(api)
	}
	if deps.ReportHandler != nil {
		deps.ReportHandler.RegisterRoutes(api)
	}
	if deps.AttachmentHandler != nil {
		deps.AttachmentHandler.RegisterRoutes(api)
	}
	if deps.ExportHandler != nil {
		deps.ExportHandler.RegisterRoutes(api)
	}

	return r
}

func rateGroupFor(c *gin.Context) string {
	path := c.FullPath()
	switch {
	case strings.HasSuffix(path, "/export"):
		return rateGroupExport
	case c.Request.Method == http.MethodPost && strings.HasSuffix(path, "/attachments"),
		c.Request.Method == http.MethodPut && strings.HasSuffix(path, "/media"):
		return rateGroupUpload
	case strings.HasPrefix(c.Request.URL.Path, "/media/"):
		return rateGroupNone
	default:
		return rateGroupDefault
	}
}

// Addr normalizes the listen address.
func Addr(port string) string {
	if port == "" {
		return ":8080"
	}
	if port[0] == ':' {
		return port
	}
	return ":" + port
}
