package models

import (
	"time"

	"gorm.io/gorm"
)

// StatusStopped marks agent shutdown in the journal. Time spent stopped is
// neither online nor offline.
const StatusStopped = "stopped"

// StatusEvent is one online/offline transition. DurationSeconds is the time
// spent in Previous.
type StatusEvent struct {
	ID              uint           `gorm:"primaryKey" json:"id"`
	Timestamp       time.Time      `gorm:"not null;index" json:"timestamp"`
	Status          string         `gorm:"not null;index" json:"status"`
	Previous        string         `gorm:"not null" json:"previous"`
	DurationSeconds int64          `gorm:"not null;default:0" json:"duration_seconds"`
	Reported        bool           `gorm:"not null;default:false" json:"reported"`
	CreatedAt       time.Time      `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt       time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt       gorm.DeletedAt `gorm:"index" json:"-"`
}
