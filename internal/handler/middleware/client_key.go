package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/makkenzo/apikey-validator/internal/ratelimit"
	"go.uber.org/zap"
)

const clientKeyContextKey = "clientKey"

// ClientKeyMiddleware stores the rate-limit identity of the caller on the context.
func ClientKeyMiddleware(logger *zap.Logger) gin.HandlerFunc {
	log := logger.Named("ClientKeyMiddleware")
	return func(c *gin.Context) {
		key := ratelimit.ClientKey(c.Request)
		log.Debug("Resolved client key", zap.String("client", key))
		c.Set(clientKeyContextKey, key)
		c.Next()
	}
}

// ClientKey returns the key set by ClientKeyMiddleware, deriving it when the middleware did not run.
func ClientKey(c *gin.Context) string {
	if v, ok := c.Get(clientKeyContextKey); ok {
		if key, ok := v.(string); ok {
			return key
		}
	}
	return ratelimit.ClientKey(c.Request)
}
