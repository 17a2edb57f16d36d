package models

import (
	"time"

	"gorm.io/gorm"
)

// ComponentCapture tags errors raised while grabbing the screen
const ComponentCapture = "capture"

// ErrorLog is a failure that ended a task run without reaching the remote API
type ErrorLog struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	Timestamp time.Time      `gorm:"not null;index" json:"timestamp"`
	Component string         `gorm:"not null;index" json:"component"`
	Message   string         `gorm:"not null" json:"message"`
	CreatedAt time.Time      `gorm:"autoCreateTime;index" json:"created_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}
