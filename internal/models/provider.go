package models

// InferenceProvider is an external LLM account registered by a user.
// Accounts are unique per (user, provider name, account name); uniqueness is
// checked at write time so the conflict surfaces as a typed error, not a
// driver-specific constraint violation.
type InferenceProvider struct {
	ID           uint   `gorm:"primaryKey" json:"id"`
	ProviderName string `gorm:"size:255;not null" json:"provider_name"`
	AccountName  string `gorm:"size:255;not null" json:"account_name"`
	UserID       string `gorm:"size:255;not null;index" json:"user_id"`
	User         *User  `gorm:"foreignKey:UserID" json:"-"`
}

// InferenceProviderCredential holds one key/value secret for a provider.
// Values are stored in plaintext, matching the upstream design; treat the
// database as sensitive.
type InferenceProviderCredential struct {
	ID                  uint               `gorm:"primaryKey" json:"id"`
	InferenceProviderID uint               `gorm:"not null;index" json:"inference_provider_id"`
	InferenceProvider   *InferenceProvider `gorm:"foreignKey:InferenceProviderID" json:"-"`
	CredentialKey       string             `gorm:"size:255;not null" json:"credential_key"`
	CredentialValue     string             `gorm:"type:text;not null" json:"credential_value"`
}

// UserProviderSetting records which provider a user has selected for
// generation. One row per user, upserted in place.
type UserProviderSetting struct {
	ID         uint   `gorm:"primaryKey" json:"id"`
	UserID     string `gorm:"size:255;not null;index" json:"user_id"`
	ProviderID uint   `gorm:"not null" json:"provider_id"`
}
