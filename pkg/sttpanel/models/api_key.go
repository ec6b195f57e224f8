package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// APIKey represents a bearer credential issued to a User for the
// transcription service. Only a display prefix and a one-way hash are
// stored; the plaintext is shown exactly once at creation time.
type APIKey struct {
	ID         string         `gorm:"type:uuid;primarykey" json:"id"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
	DeletedAt  gorm.DeletedAt `gorm:"index" json:"-"`
	UserID     string         `gorm:"type:uuid;not null;index" json:"user_id"`
	KeyPrefix  string         `gorm:"size:16;not null" json:"key_prefix"` // First few chars for identification
	KeyHash    string         `gorm:"not null;index" json:"-"`
	Name       *string        `json:"name"`
	IsActive   bool           `gorm:"not null;default:true" json:"is_active"`
	LastUsedAt *time.Time     `json:"last_used_at"`

	// Relationships
	User  User                `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Tasks []TranscriptionTask `gorm:"foreignKey:APIKeyID" json:"tasks,omitempty"`
}

func (k *APIKey) BeforeCreate(tx *gorm.DB) error {
	if k.ID == "" {
		k.ID = uuid.NewString()
	}
	return nil
}
