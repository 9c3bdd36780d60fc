package models

import (
	"time"
)

// Thread groups user and inference messages into one conversation.
// Threads are append-only containers; no delete operation exists.
type Thread struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	OwnerID   string    `gorm:"size:255;not null;index" json:"owner_id"`
	Owner     *User     `gorm:"foreignKey:OwnerID" json:"-"`
	Name      string    `gorm:"size:255;not null" json:"name"`
	CreatedAt time.Time `json:"created_at"`
}
