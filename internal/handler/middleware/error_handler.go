package middleware

import (
	"errors"
	"math"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/makkenzo/apikey-validator/internal/handler/dto"
	"github.com/makkenzo/apikey-validator/internal/ierr"
	"go.uber.org/zap"
)

const (
	CodeRateLimited        = "RATE_LIMITED"
	CodeInvalidInput       = "INVALID_INPUT"
	CodeInvalidKey         = "INVALID_KEY"
	CodeServiceUnavailable = "SERVICE_UNAVAILABLE"
	CodeUsageLimitExceeded = "USAGE_LIMIT_EXCEEDED"
	CodeConfiguration      = "CONFIGURATION_ERROR"
	CodeInternal           = "INTERNAL_ERROR"
)

func ErrorHandlerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	log := logger.Named("ErrorHandler")
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}

		err := c.Errors.Last().Err
		status, errResponse := Classify(err)

		switch status {
		case http.StatusInternalServerError, http.StatusServiceUnavailable:
			log.Error("Request failed", zap.String("code", errResponse.Code), zap.Error(err))
		case http.StatusTooManyRequests:
			// Rejections are logged, throttled, by the validation service.
		default:
			log.Debug("Request rejected", zap.String("code", errResponse.Code), zap.Error(err))
		}

		var ra *ierr.RetryAfterError
		if errors.As(err, &ra) && ra.RetryAfter > 0 {
			c.Header("Retry-After", strconv.Itoa(int(math.Ceil(ra.RetryAfter.Seconds()))))
		}

		c.AbortWithStatusJSON(status, errResponse)
	}
}

// Classify maps an error to its HTTP status and response body. Messages are fixed per kind so
// store faults never reach the client.
func Classify(err error) (int, dto.APIErrorResponse) {
	var ve validator.ValidationErrors

	switch {
	case errors.Is(err, ierr.ErrRateLimited):
		return http.StatusTooManyRequests, errorResponse(CodeRateLimited, "Too many validation attempts. Please try again later.")
	case errors.Is(err, ierr.ErrAPIKeyRequired):
		return http.StatusBadRequest, errorResponse(CodeInvalidInput, "API key is required and must be a string")
	case errors.Is(err, ierr.ErrInvalidInput), errors.As(err, &ve):
		return http.StatusBadRequest, errorResponse(CodeInvalidInput, "Invalid API key format")
	case errors.Is(err, ierr.ErrInvalidKey):
		return http.StatusUnauthorized, errorResponse(CodeInvalidKey, "Invalid API key")
	case errors.Is(err, ierr.ErrServiceUnavailable):
		return http.StatusServiceUnavailable, errorResponse(CodeServiceUnavailable, "Validation service temporarily unavailable")
	case errors.Is(err, ierr.ErrUsageLimitExceeded):
		return http.StatusForbidden, errorResponse(CodeUsageLimitExceeded, "API key usage limit exceeded")
	case errors.Is(err, ierr.ErrConfiguration):
		return http.StatusInternalServerError, errorResponse(CodeConfiguration, "Persistence is not configured. Please set up your environment variables.")
	default:
		return http.StatusInternalServerError, errorResponse(CodeInternal, "Internal server error")
	}
}

func errorResponse(code, message string) dto.APIErrorResponse {
	return dto.APIErrorResponse{IsValid: false, Code: code, Message: message}
}
