package models

const (
	SourceTypeNormal    = "normal"
	SourceTypeAssistant = "assistant"
)

// InferenceSource is a named model configuration bound to a provider. The
// source id tags which "voice" authored an inference message.
type InferenceSource struct {
	ID         uint               `gorm:"primaryKey" json:"id"`
	ProviderID uint               `gorm:"not null;index" json:"provider_id"`
	Provider   *InferenceProvider `gorm:"foreignKey:ProviderID" json:"-"`
	UserID     string             `gorm:"size:255;not null;index" json:"user_id"`
	Type       string             `gorm:"size:255;not null" json:"type"` // normal, assistant
	Name       string             `gorm:"size:255;not null" json:"name"`
}
