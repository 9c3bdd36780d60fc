package models

import (
	"time"
)

type User struct {
	ID           string     `gorm:"size:255;primaryKey" json:"id"`
	Name         string     `gorm:"size:255" json:"name"`
	Email        string     `gorm:"size:255;not null;uniqueIndex" json:"email"`
	PasswordHash string     `gorm:"not null" json:"-"`
	EmailVerified *time.Time `json:"email_verified"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}
