package http

import (
	"context"
	"net/http"
	"time"

	echo "github.com/labstack/echo/v4"
	echoMid "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/jmehdipour/wablast/internal/auditlog"
	"github.com/jmehdipour/wablast/internal/config"
	"github.com/jmehdipour/wablast/internal/dispatch"
	"github.com/jmehdipour/wablast/internal/http/middleware"
	"github.com/jmehdipour/wablast/internal/normalize"
	"github.com/jmehdipour/wablast/internal/recipients"
	"github.com/jmehdipour/wablast/internal/schedule"
)

// Deps carries the wired core services into the HTTP layer.
type Deps struct {
	Engine     *dispatch.Engine
	Registry   *schedule.Registry
	Audit      *auditlog.Store
	Recipients *recipients.Store
	Normalizer *normalize.Normalizer
	Redis      *redis.Client // optional; nil disables rate limiting
	Log        *zap.Logger
}

type Server struct{ e *echo.Echo }

func NewServer(cfg config.Config, d Deps) *Server {
	e := echo.New()
	e.HideBanner = true
	e.Use(echoMid.Recover(), echoMid.Logger())

	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	// health
	e.GET("/healthz", func(c echo.Context) error { return c.String(http.StatusOK, "ok") })

	// middlewares
	authMW := middleware.APIKeyMiddleware(cfg.Auth.APIKey)
	rlMW := middleware.RateLimitMiddleware(middleware.RateLimitConfig{
		Redis:          d.Redis,
		RPS:            cfg.RateLimit.RPS,
		KeyPrefix:      "rl:ip:",
		Window:         time.Second,
		RetryAfterHint: true,
	})

	// routes
	v1 := e.Group("/v1", authMW, rlMW)
	v1.POST("/send", sendHandler(d))
	v1.POST("/cancel", cancelHandler(d))
	v1.GET("/progress", progressHandler(d))
	v1.GET("/schedules", listSchedulesHandler(d))
	v1.POST("/schedules", createScheduleHandler(d))
	v1.POST("/schedules/edit", editScheduleHandler(d))
	v1.POST("/schedules/delete", deleteScheduleHandler(d))
	v1.GET("/logs", logsHandler(d))
	v1.GET("/logs/dates", logDatesHandler(d))
	v1.GET("/logs/export", logExportHandler(d))
	v1.GET("/sessions", sessionsHandler(d))
	v1.PUT("/recipients", replaceRecipientsHandler(d))

	return &Server{e: e}
}

func (s *Server) Start(addr string) error            { return s.e.Start(addr) }
func (s *Server) Shutdown(ctx context.Context) error { return s.e.Shutdown(ctx) }

// Handler exposes the router for handler tests.
func (s *Server) Handler() http.Handler { return s.e }
