package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// TaskStatus represents the lifecycle state of a transcription task
type TaskStatus string

const (
	TaskStatusPending    TaskStatus = "PENDING"
	TaskStatusInProgress TaskStatus = "IN_PROGRESS"
	TaskStatusCompleted  TaskStatus = "COMPLETED"
	TaskStatusFailed     TaskStatus = "FAILED"
	TaskStatusCanceled   TaskStatus = "CANCELED"
)

// TranscriptionModel identifies the model a task was run with
type TranscriptionModel string

const (
	ModelSmall        TranscriptionModel = "SMALL"
	ModelTurbo        TranscriptionModel = "TURBO"
	ModelLargeV3Turbo TranscriptionModel = "LARGE_V3_TURBO"
)

// TranscriptionLanguage is the language a task was transcribed in
type TranscriptionLanguage string

const (
	LanguageEN TranscriptionLanguage = "EN"
	LanguageRU TranscriptionLanguage = "RU"
)

// TranscriptionTask is one row of the usage ledger. Rows are written
// and updated by the external transcription service; the panel only
// reads them for per-key stats and the analytics dashboard.
type TranscriptionTask struct {
	ID              string                `gorm:"type:uuid;primarykey" json:"id"`
	CreatedAt       time.Time             `gorm:"index" json:"created_at"`
	UpdatedAt       time.Time             `json:"updated_at"`
	DeletedAt       gorm.DeletedAt        `gorm:"index" json:"-"`
	APIKeyID        string                `gorm:"type:uuid;not null;index" json:"api_key_id"`
	Status          TaskStatus            `gorm:"size:20;not null" json:"status"`
	Message         *string               `gorm:"size:2048" json:"message,omitempty"`
	Model           TranscriptionModel    `gorm:"size:20;not null" json:"model"`
	Language        TranscriptionLanguage `gorm:"size:8;not null" json:"language"`
	RecognitionMode bool                  `gorm:"not null" json:"recognition_mode"`
	NumSpeakers     *int                  `json:"num_speakers,omitempty"`
	StartedAt       *time.Time            `json:"started_at,omitempty"`
	CompletedAt     *time.Time            `json:"completed_at,omitempty"`
	DurationSeconds *float64              `json:"duration_seconds,omitempty"`
	FileSizeBytes   *int64                `json:"file_size_bytes,omitempty"`

	// Relationships
	APIKey APIKey `gorm:"foreignKey:APIKeyID" json:"api_key,omitempty"`
}

func (t *TranscriptionTask) BeforeCreate(tx *gorm.DB) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	return nil
}
