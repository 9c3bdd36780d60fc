package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"loomchat/internal/models"
)

// SourceStore exposes ownership-checked operations over inference sources.
type SourceStore struct {
	db        *gorm.DB
	providers *ProviderStore
}

func NewSourceStore(db *gorm.DB) *SourceStore {
	return &SourceStore{db: db, providers: NewProviderStore(db)}
}

func (s *SourceStore) List(ctx context.Context, userID string) ([]models.InferenceSource, error) {
	var sources []models.InferenceSource
	if err := s.db.WithContext(ctx).Where("user_id = ?", userID).Order("id ASC").Find(&sources).Error; err != nil {
		return nil, fmt.Errorf("list sources: %w", err)
	}
	return sources, nil
}

func (s *SourceStore) Get(ctx context.Context, userID string, id uint) (*models.InferenceSource, error) {
	var source models.InferenceSource
	err := s.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).First(&source).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("source %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get source: %w", err)
	}
	return &source, nil
}

func (s *SourceStore) Create(ctx context.Context, userID string, providerID uint, name, sourceType string) (*models.InferenceSource, error) {
	if err := validateSource(name, sourceType); err != nil {
		return nil, err
	}
	if _, err := s.providers.Get(ctx, userID, providerID); err != nil {
		return nil, err
	}

	source := models.InferenceSource{
		ProviderID: providerID,
		UserID:     userID,
		Name:       name,
		Type:       sourceType,
	}
	if err := s.db.WithContext(ctx).Create(&source).Error; err != nil {
		return nil, fmt.Errorf("create source: %w", err)
	}
	return &source, nil
}

func (s *SourceStore) Update(ctx context.Context, userID string, id, providerID uint, name, sourceType string) (*models.InferenceSource, error) {
	if err := validateSource(name, sourceType); err != nil {
		return nil, err
	}
	source, err := s.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if _, err := s.providers.Get(ctx, userID, providerID); err != nil {
		return nil, err
	}

	source.ProviderID = providerID
	source.Name = name
	source.Type = sourceType
	if err := s.db.WithContext(ctx).Save(source).Error; err != nil {
		return nil, fmt.Errorf("update source: %w", err)
	}
	return source, nil
}

func (s *SourceStore) Delete(ctx context.Context, userID string, id uint) error {
	if _, err := s.Get(ctx, userID, id); err != nil {
		return err
	}
	if err := s.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).Delete(&models.InferenceSource{}).Error; err != nil {
		return fmt.Errorf("delete source: %w", err)
	}
	return nil
}

func validateSource(name, sourceType string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("source name is required: %w", ErrValidation)
	}
	if sourceType != models.SourceTypeNormal && sourceType != models.SourceTypeAssistant {
		return fmt.Errorf("source type %q: %w", sourceType, ErrValidation)
	}
	return nil
}
