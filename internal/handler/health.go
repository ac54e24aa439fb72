package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	dependencyOK            = "ok"
	dependencyError         = "error"
	dependencyNotConfigured = "not_configured"
)

type pingFunc func(ctx context.Context) error

type HealthHandler struct {
	database pingFunc
	redis    pingFunc
	logger   *zap.Logger
}

// NewHealthHandler checks whichever stores are connected; nil ones are reported as not configured.
func NewHealthHandler(db *pgxpool.Pool, rdb *redis.Client, logger *zap.Logger) *HealthHandler {
	h := &HealthHandler{logger: logger.Named("HealthHandler")}
	if db != nil {
		h.database = db.Ping
	}
	if rdb != nil {
		h.redis = func(ctx context.Context) error {
			return rdb.Ping(ctx).Err()
		}
	}
	return h
}

func (h *HealthHandler) Check(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	dbStatus := h.probe(ctx, "PostgreSQL", h.database)
	redisStatus := h.probe(ctx, "Redis", h.redis)

	status, code := "ok", http.StatusOK
	if dbStatus == dependencyError || redisStatus == dependencyError {
		status, code = "unhealthy", http.StatusServiceUnavailable
	}

	c.JSON(code, gin.H{
		"status": status,
		"dependencies": gin.H{
			"database": dbStatus,
			"redis":    redisStatus,
		},
	})
}

func (h *HealthHandler) probe(ctx context.Context, name string, ping pingFunc) string {
	if ping == nil {
		return dependencyNotConfigured
	}
	if err := ping(ctx); err != nil {
		h.logger.Error("Health check: ping failed", zap.String("dependency", name), zap.Error(err))
		return dependencyError
	}
	return dependencyOK
}
