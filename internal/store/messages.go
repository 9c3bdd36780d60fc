package store

import (
	"context"
	"fmt"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"loomchat/internal/models"
)

// MessageStore appends and reads the message log of a thread. All writes and
// the inference-message read require the thread to belong to the caller.
type MessageStore struct {
	db      *gorm.DB
	threads *ThreadStore
}

func NewMessageStore(db *gorm.DB) *MessageStore {
	return &MessageStore{db: db, threads: NewThreadStore(db)}
}

func (s *MessageStore) UserMessages(ctx context.Context, userID string, threadID uint) ([]models.UserMessage, error) {
	var messages []models.UserMessage
	err := s.db.WithContext(ctx).
		Where("thread_id = ? AND user_id = ?", threadID, userID).
		Order("id ASC").
		Find(&messages).Error
	if err != nil {
		return nil, fmt.Errorf("list user messages: %w", err)
	}
	return messages, nil
}

func (s *MessageStore) InferenceMessages(ctx context.Context, userID string, threadID uint) ([]models.InferenceMessage, error) {
	if err := s.threads.requireOwnership(ctx, userID, threadID); err != nil {
		return nil, err
	}

	var messages []models.InferenceMessage
	err := s.db.WithContext(ctx).
		Where("thread_id = ?", threadID).
		Order("id ASC").
		Find(&messages).Error
	if err != nil {
		return nil, fmt.Errorf("list inference messages: %w", err)
	}
	return messages, nil
}

func (s *MessageStore) AppendUserMessage(ctx context.Context, userID string, threadID uint, msgType string, content models.UserMessageContent) (*models.UserMessage, error) {
	if err := s.threads.requireOwnership(ctx, userID, threadID); err != nil {
		return nil, err
	}

	message := models.UserMessage{
		UserID:   userID,
		ThreadID: threadID,
		Type:     msgType,
		Content:  datatypes.NewJSONType(content),
	}
	if err := s.db.WithContext(ctx).Create(&message).Error; err != nil {
		return nil, fmt.Errorf("append user message: %w", err)
	}
	return &message, nil
}

func (s *MessageStore) AppendInferenceMessage(ctx context.Context, userID string, threadID, sourceID uint, msgType string, content models.InferenceMessageContent, finishedStreaming time.Time) (*models.InferenceMessage, error) {
	if err := s.threads.requireOwnership(ctx, userID, threadID); err != nil {
		return nil, err
	}

	message := models.InferenceMessage{
		ThreadID:          threadID,
		SourceID:          sourceID,
		Type:              msgType,
		FinishedStreaming: &finishedStreaming,
		Content:           datatypes.NewJSONType(content),
	}
	if err := s.db.WithContext(ctx).Create(&message).Error; err != nil {
		return nil, fmt.Errorf("append inference message: %w", err)
	}
	return &message, nil
}
