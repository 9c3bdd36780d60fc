package models

import (
	"time"

	"gorm.io/datatypes"
)

type UserMessageContent struct {
	Message    string `json:"message,omitempty"`
	ImageID    string `json:"imageId,omitempty"`
	DocumentID string `json:"documentId,omitempty"`
}

type InferenceMessageContent struct {
	Message string `json:"message"`
	ImageID string `json:"imageId,omitempty"`
}

// UserMessage is a message authored by the user in a thread. Messages are
// append-only; there are no update or delete operations.
type UserMessage struct {
	ID        uint                                      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time                                 `json:"created_at"`
	UserID    string                                    `gorm:"size:255;not null;index" json:"user_id"`
	ThreadID  uint                                      `gorm:"not null;index" json:"thread_id"`
	Type      string                                    `gorm:"size:255;not null" json:"type"`
	Content   datatypes.JSONType[UserMessageContent]    `json:"content"`
}

// InferenceMessage is a message authored by an inference source in a thread.
// FinishedStreaming is set when generation completed; a nil value marks a row
// written before the stream ended.
type InferenceMessage struct {
	ID                uint                                       `gorm:"primaryKey" json:"id"`
	CreatedAt         time.Time                                  `json:"created_at"`
	SourceID          uint                                       `gorm:"not null;index" json:"source_id"`
	Source            *InferenceSource                           `gorm:"foreignKey:SourceID" json:"-"`
	ThreadID          uint                                       `gorm:"not null;index" json:"thread_id"`
	Type              string                                     `gorm:"size:255;not null" json:"type"`
	FinishedStreaming *time.Time                                 `json:"finished_streaming"`
	Content           datatypes.JSONType[InferenceMessageContent] `json:"content"`
}
