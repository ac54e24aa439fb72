package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/makkenzo/apikey-validator/internal/handler/dto"
	"github.com/makkenzo/apikey-validator/internal/handler/middleware"
	"github.com/makkenzo/apikey-validator/internal/service"
	"go.uber.org/zap"
)

const methodNotAllowedMessage = "Method not allowed. Use POST to validate API keys."

type ValidateHandler struct {
	service *service.ValidationService
	logger  *zap.Logger
}

func NewValidateHandler(service *service.ValidationService, logger *zap.Logger) *ValidateHandler {
	return &ValidateHandler{
		service: service,
		logger:  logger.Named("ValidateHandler"),
	}
}

func (h *ValidateHandler) Validate(c *gin.Context) {
	var req dto.ValidateKeyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		// The attempt still counts against the rate limit.
		h.logger.Debug("Failed to bind validate key request", zap.Error(err))
		req.APIKey = nil
	}

	info, err := h.service.Validate(c.Request.Context(), service.ValidationRequest{
		ClientKey: middleware.ClientKey(c),
		APIKey:    req.APIKey,
	})
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, dto.ValidateKeyResponse{
		IsValid: true,
		KeyInfo: info,
	})
}

func (h *ValidateHandler) MethodNotAllowed(c *gin.Context) {
	c.Header("Allow", http.MethodPost)
	c.JSON(http.StatusMethodNotAllowed, dto.MethodNotAllowedResponse{Message: methodNotAllowedMessage})
}
