package models

import "time"

type ReportPeriod struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
	Type  string    `json:"type"` // "day", "week", "month"
}

type Report struct {
	Period         ReportPeriod `json:"period"`
	Status         string       `json:"current_status"`
	OnlineSeconds  int64        `json:"online_seconds"`
	OfflineSeconds int64        `json:"offline_seconds"`
	OnlineHours    float64      `json:"online_hours"`
	OfflineHours   float64      `json:"offline_hours"`
	Transitions    int          `json:"transitions"`
	Uploads        UploadStats  `json:"uploads"`
	GeneratedAt    time.Time    `json:"generated_at"`
}
