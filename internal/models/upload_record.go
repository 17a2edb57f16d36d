package models

import (
	"time"

	"gorm.io/gorm"
)

const (
	OutcomeDelivered = "delivered"
	OutcomeFailed    = "failed"
	OutcomeSkipped   = "skipped"

	SourceCapture = "capture"
	SourceRetry   = "retry"
)

// UploadRecord is the terminal outcome of one upload attempt
type UploadRecord struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	Timestamp time.Time      `gorm:"not null;index" json:"timestamp"`
	FileName  string         `gorm:"not null;index" json:"file_name"`
	Outcome   string         `gorm:"not null;index" json:"outcome"`
	Reason    string         `json:"reason,omitempty"`
	Source    string         `gorm:"not null" json:"source"`
	CreatedAt time.Time      `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

type UploadStats struct {
	Delivered int64 `json:"delivered"`
	Failed    int64 `json:"failed"`
}
