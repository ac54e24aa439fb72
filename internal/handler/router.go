package handler

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/makkenzo/apikey-validator/internal/handler/middleware"
	"github.com/makkenzo/apikey-validator/internal/ierr"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

const ValidateKeyPath = "/api/validate-key"

type RouterConfig struct {
	AllowedOrigins []string
	Validate       *ValidateHandler
	Health         *HealthHandler
	// Gatherer serves /metrics when set.
	Gatherer prometheus.Gatherer
	Logger   *zap.Logger
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(gin.LoggerWithFormatter(func(param gin.LogFormatterParams) string {
		return fmt.Sprintf("%s - [%s] \"%s %s %s %d %s \"%s\" %s\"\n",
			param.ClientIP,
			param.TimeStamp.Format(time.RFC1123),
			param.Method,
			param.Path,
			param.Request.Proto,
			param.StatusCode,
			param.Latency,
			param.Request.UserAgent(),
			param.ErrorMessage,
		)
	}))
	router.Use(gin.CustomRecovery(func(c *gin.Context, recovered interface{}) {
		logMsg := "Panic recovered"
		if err, ok := recovered.(string); ok {
			logMsg = fmt.Sprintf("%s: %s", logMsg, err)
		} else if err, ok := recovered.(error); ok {
			logMsg = fmt.Sprintf("%s: %v", logMsg, err)
		}
		cfg.Logger.Error(logMsg, zap.Stack("stack"))

		// The error middleware is unwound by the panic, so the response is written here.
		_ = c.Error(ierr.ErrInternalServer)
		status, body := middleware.Classify(ierr.ErrInternalServer)
		c.AbortWithStatusJSON(status, body)
	}))

	if len(cfg.AllowedOrigins) > 0 {
		router.Use(cors.New(cors.Config{
			AllowOrigins:     cfg.AllowedOrigins,
			AllowMethods:     []string{http.MethodPost, http.MethodOptions},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept"},
			ExposeHeaders:    []string{"Content-Length", "Retry-After"},
			AllowCredentials: false,
			MaxAge:           12 * time.Hour,
		}))
	}
	router.Use(middleware.ErrorHandlerMiddleware(cfg.Logger))

	if cfg.Health != nil {
		router.GET("/healthz", cfg.Health.Check)
	}
	if cfg.Gatherer != nil {
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{})))
	}

	api := router.Group("/", middleware.ClientKeyMiddleware(cfg.Logger))
	{
		api.POST(ValidateKeyPath, cfg.Validate.Validate)
		api.Match([]string{http.MethodGet, http.MethodPut, http.MethodPatch, http.MethodDelete}, ValidateKeyPath, cfg.Validate.MethodNotAllowed)
	}

	return router
}
