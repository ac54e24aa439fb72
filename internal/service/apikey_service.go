package service

import (
	"context"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/makkenzo/apikey-validator/internal/domain/apikey"
	"github.com/makkenzo/apikey-validator/internal/handler/dto"
	"github.com/makkenzo/apikey-validator/internal/ierr"
	"github.com/makkenzo/apikey-validator/internal/util"
	"go.uber.org/zap"
)

// APIKeyService provisions keys for operator tooling.
type APIKeyService struct {
	repo     apikey.AdminRepository
	validate *validator.Validate
	logger   *zap.Logger
}

func NewAPIKeyService(repo apikey.AdminRepository, logger *zap.Logger) *APIKeyService {
	return &APIKeyService{
		repo:     repo,
		validate: validator.New(),
		logger:   logger.Named("APIKeyService"),
	}
}

func (s *APIKeyService) CreateAPIKey(ctx context.Context, req dto.CreateAPIKeyRequest) (*dto.CreateAPIKeyResponse, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %v", ierr.ErrInvalidInput, err)
	}

	s.logger.Info("Generating new API key", zap.String("name", req.Name), zap.String("type", req.Type))

	secret, err := util.GenerateSecret(req.Type)
	if err != nil {
		s.logger.Error("Failed to generate api key secret", zap.Error(err))
		return nil, fmt.Errorf("%w: failed generating key: %v", ierr.ErrInternalServer, err)
	}

	created, err := s.repo.Create(ctx, &apikey.APIKey{
		Name:       req.Name,
		Secret:     secret,
		Type:       req.Type,
		IsActive:   true,
		UsageLimit: req.UsageLimit,
	})
	if err != nil {
		s.logger.Error("Failed to save new api key", zap.Error(err))
		return nil, fmt.Errorf("repository error creating api key: %w", err)
	}

	s.logger.Info("API key created successfully", zap.String("id", created.ID.String()))

	return &dto.CreateAPIKeyResponse{
		ID:         created.ID,
		Name:       created.Name,
		Key:        secret,
		Type:       created.Type,
		UsageLimit: created.UsageLimit,
		CreatedAt:  created.CreatedAt,
	}, nil
}

func (s *APIKeyService) UpdateAPIKey(ctx context.Context, id uuid.UUID, req dto.UpdateAPIKeyRequest) (*dto.APIKeyResponse, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %v", ierr.ErrInvalidInput, err)
	}

	params := apikey.UpdateParams{
		Name:       req.Name,
		Type:       req.Type,
		UsageLimit: req.UsageLimit,
		IsActive:   req.IsActive,
	}
	if params.Empty() {
		return nil, fmt.Errorf("%w: nothing to update", ierr.ErrInvalidInput)
	}

	s.logger.Info("Updating API key", zap.String("id", id.String()))
	key, err := s.repo.Update(ctx, id, params)
	if err != nil {
		s.logger.Error("Failed to update api key via repository", zap.String("id", id.String()), zap.Error(err))
		return nil, fmt.Errorf("repository error updating api key %s: %w", id, err)
	}

	return &dto.APIKeyResponse{
		ID:         key.ID,
		Name:       key.Name,
		Type:       key.Type,
		IsActive:   key.IsActive,
		Usage:      key.Usage,
		UsageLimit: key.UsageLimit,
		CreatedAt:  key.CreatedAt,
		LastUsedAt: key.LastUsedAt,
	}, nil
}
