package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"loomchat/internal/models"
)

// allowedCredentialKeys is the allow-list for credential keys. Unknown keys
// are rejected before any write.
var allowedCredentialKeys = map[string]struct{}{
	"OPENAI_API_KEY": {},
}

// ProviderStore exposes ownership-checked operations over inference
// providers, their credentials and the per-user selected provider. Every
// operation takes the acting user's id; rows owned by other users behave as
// if they do not exist.
type ProviderStore struct {
	db *gorm.DB
}

func NewProviderStore(db *gorm.DB) *ProviderStore {
	return &ProviderStore{db: db}
}

func (s *ProviderStore) List(ctx context.Context, userID string) ([]models.InferenceProvider, error) {
	var providers []models.InferenceProvider
	if err := s.db.WithContext(ctx).Where("user_id = ?", userID).Order("id ASC").Find(&providers).Error; err != nil {
		return nil, fmt.Errorf("list providers: %w", err)
	}
	return providers, nil
}

// Get fetches a provider scoped to its owner.
func (s *ProviderStore) Get(ctx context.Context, userID string, id uint) (*models.InferenceProvider, error) {
	var provider models.InferenceProvider
	err := s.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).First(&provider).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("provider %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get provider: %w", err)
	}
	return &provider, nil
}

func (s *ProviderStore) Create(ctx context.Context, userID, providerName, accountName string) (*models.InferenceProvider, error) {
	if strings.TrimSpace(providerName) == "" || strings.TrimSpace(accountName) == "" {
		return nil, fmt.Errorf("provider and account name are required: %w", ErrValidation)
	}

	var count int64
	err := s.db.WithContext(ctx).Model(&models.InferenceProvider{}).
		Where("provider_name = ? AND account_name = ? AND user_id = ?", providerName, accountName, userID).
		Count(&count).Error
	if err != nil {
		return nil, fmt.Errorf("check provider uniqueness: %w", err)
	}
	if count > 0 {
		return nil, fmt.Errorf("provider with the same account name: %w", ErrConflict)
	}

	provider := models.InferenceProvider{
		ProviderName: providerName,
		AccountName:  accountName,
		UserID:       userID,
	}
	if err := s.db.WithContext(ctx).Create(&provider).Error; err != nil {
		return nil, fmt.Errorf("create provider: %w", err)
	}
	return &provider, nil
}

// Delete removes a provider and its credentials in one transaction. Either
// both are gone afterwards or neither is.
func (s *ProviderStore) Delete(ctx context.Context, userID string, id uint) error {
	if _, err := s.Get(ctx, userID, id); err != nil {
		return err
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("inference_provider_id = ?", id).Delete(&models.InferenceProviderCredential{}).Error; err != nil {
			return err
		}
		return tx.Where("id = ? AND user_id = ?", id, userID).Delete(&models.InferenceProvider{}).Error
	})
	if err != nil {
		return fmt.Errorf("delete provider: %w", err)
	}
	return nil
}

func (s *ProviderStore) Credentials(ctx context.Context, userID string, providerID uint) ([]models.InferenceProviderCredential, error) {
	if _, err := s.Get(ctx, userID, providerID); err != nil {
		return nil, err
	}

	var creds []models.InferenceProviderCredential
	if err := s.db.WithContext(ctx).Where("inference_provider_id = ?", providerID).Order("id ASC").Find(&creds).Error; err != nil {
		return nil, fmt.Errorf("list credentials: %w", err)
	}
	return creds, nil
}

// CredentialValue resolves one credential value for a provider owned by the
// caller.
func (s *ProviderStore) CredentialValue(ctx context.Context, userID string, providerID uint, key string) (string, error) {
	if _, err := s.Get(ctx, userID, providerID); err != nil {
		return "", err
	}

	var cred models.InferenceProviderCredential
	err := s.db.WithContext(ctx).
		Where("inference_provider_id = ? AND credential_key = ?", providerID, key).
		First(&cred).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", fmt.Errorf("credential %s: %w", key, ErrNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("get credential: %w", err)
	}
	return cred.CredentialValue, nil
}

// InsertCredential creates a new credential on a provider owned by the
// caller. At most one credential may exist per (provider, key).
func (s *ProviderStore) InsertCredential(ctx context.Context, userID string, providerID uint, key, value string) (*models.InferenceProviderCredential, error) {
	if err := validateCredential(key, value); err != nil {
		return nil, err
	}
	if _, err := s.Get(ctx, userID, providerID); err != nil {
		return nil, err
	}

	var count int64
	err := s.db.WithContext(ctx).Model(&models.InferenceProviderCredential{}).
		Where("credential_key = ? AND inference_provider_id = ?", key, providerID).
		Count(&count).Error
	if err != nil {
		return nil, fmt.Errorf("check credential uniqueness: %w", err)
	}
	if count > 0 {
		return nil, fmt.Errorf("credential with the same key: %w", ErrConflict)
	}

	cred := models.InferenceProviderCredential{
		InferenceProviderID: providerID,
		CredentialKey:       key,
		CredentialValue:     value,
	}
	if err := s.db.WithContext(ctx).Create(&cred).Error; err != nil {
		return nil, fmt.Errorf("create credential: %w", err)
	}
	return &cred, nil
}

// UpdateCredential overwrites key and value of an existing credential. The
// credential must sit on a provider owned by the caller.
func (s *ProviderStore) UpdateCredential(ctx context.Context, userID string, id uint, key, value string) (*models.InferenceProviderCredential, error) {
	if err := validateCredential(key, value); err != nil {
		return nil, err
	}

	var cred models.InferenceProviderCredential
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&cred).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("credential %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get credential: %w", err)
	}
	if _, err := s.Get(ctx, userID, cred.InferenceProviderID); err != nil {
		return nil, err
	}

	cred.CredentialKey = key
	cred.CredentialValue = value
	if err := s.db.WithContext(ctx).Save(&cred).Error; err != nil {
		return nil, fmt.Errorf("update credential: %w", err)
	}
	return &cred, nil
}

// SetSelected records the provider used for new generations. One settings
// row per user: the existing row is updated in place, otherwise one is
// inserted.
func (s *ProviderStore) SetSelected(ctx context.Context, userID string, providerID uint) (*models.UserProviderSetting, error) {
	if _, err := s.Get(ctx, userID, providerID); err != nil {
		return nil, err
	}

	var setting models.UserProviderSetting
	err := s.db.WithContext(ctx).Where("user_id = ?", userID).First(&setting).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		setting = models.UserProviderSetting{UserID: userID, ProviderID: providerID}
		if err := s.db.WithContext(ctx).Create(&setting).Error; err != nil {
			return nil, fmt.Errorf("create provider setting: %w", err)
		}
	case err != nil:
		return nil, fmt.Errorf("get provider setting: %w", err)
	default:
		setting.ProviderID = providerID
		if err := s.db.WithContext(ctx).Save(&setting).Error; err != nil {
			return nil, fmt.Errorf("update provider setting: %w", err)
		}
	}
	return &setting, nil
}

// Selected returns the user's selected provider, or nil when none is set.
func (s *ProviderStore) Selected(ctx context.Context, userID string) (*models.InferenceProvider, error) {
	var setting models.UserProviderSetting
	err := s.db.WithContext(ctx).Where("user_id = ?", userID).First(&setting).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get provider setting: %w", err)
	}

	provider, err := s.Get(ctx, userID, setting.ProviderID)
	if errors.Is(err, ErrNotFound) {
		// Selected provider was deleted out from under the setting.
		return nil, nil
	}
	return provider, err
}

func validateCredential(key, value string) error {
	if _, ok := allowedCredentialKeys[key]; !ok {
		return fmt.Errorf("credential key %q is not allowed: %w", key, ErrValidation)
	}
	if value == "" {
		return fmt.Errorf("credential value is required: %w", ErrValidation)
	}
	return nil
}
