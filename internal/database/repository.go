package database

import (
	"time"

	"github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/workplus/workplus/internal/models"
)

// Repository is the journal of transitions, upload outcomes and errors
type Repository struct {
	db *DB
}

// NewRepository creates a new repository instance
func NewRepository(db *DB) *Repository {
	return &Repository{db: db}
}

// RecordTransition inserts a status change
func (r *Repository) RecordTransition(event *models.StatusEvent) error {
	if result := r.db.Create(event); result.Error != nil {
		return errors.Wrap(result.Error, "failed to insert status event")
	}
	return nil
}

// RecordUpload inserts the outcome of one upload attempt
func (r *Repository) RecordUpload(record *models.UploadRecord) error {
	if result := r.db.Create(record); result.Error != nil {
		return errors.Wrap(result.Error, "failed to insert upload record")
	}
	return nil
}

// RecordError inserts an error log for component
func (r *Repository) RecordError(component, msg string) error {
	entry := &models.ErrorLog{
		Timestamp: time.Now(),
		Component: component,
		Message:   msg,
	}
	if result := r.db.Create(entry); result.Error != nil {
		return errors.Wrap(result.Error, "failed to insert error log")
	}
	return nil
}

// TransitionsSince returns transitions at or after since, oldest first
func (r *Repository) TransitionsSince(since time.Time) ([]*models.StatusEvent, error) {
	var events []*models.StatusEvent
	result := r.db.Where("timestamp >= ?", since).Order("timestamp ASC").Find(&events)
	if result.Error != nil {
		return nil, errors.Wrap(result.Error, "failed to query status events")
	}
	return events, nil
}

// RecentTransitions returns up to limit transitions, newest first
func (r *Repository) RecentTransitions(limit int) ([]*models.StatusEvent, error) {
	var events []*models.StatusEvent
	result := r.db.Order("timestamp DESC").Limit(limit).Find(&events)
	if result.Error != nil {
		return nil, errors.Wrap(result.Error, "failed to query recent status events")
	}
	return events, nil
}

// LatestTransition returns the most recent transition, or nil if none
func (r *Repository) LatestTransition() (*models.StatusEvent, error) {
	return r.latest(r.db.DB)
}

// LatestTransitionBefore returns the last transition strictly before t, or
// nil if none
func (r *Repository) LatestTransitionBefore(t time.Time) (*models.StatusEvent, error) {
	return r.latest(r.db.Where("timestamp < ?", t))
}

func (r *Repository) latest(q *gorm.DB) (*models.StatusEvent, error) {
	var event models.StatusEvent
	result := q.Order("timestamp DESC").First(&event)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, errors.Wrap(result.Error, "failed to get latest status event")
	}
	return &event, nil
}

// UploadStats counts upload outcomes since a given time
func (r *Repository) UploadStats(since time.Time) (models.UploadStats, error) {
	var rows []struct {
		Outcome string
		Count   int64
	}

	result := r.db.Model(&models.UploadRecord{}).
		Select("outcome, COUNT(*) as count").
		Where("timestamp >= ?", since).
		Group("outcome").
		Scan(&rows)
	if result.Error != nil {
		return models.UploadStats{}, errors.Wrap(result.Error, "failed to query upload stats")
	}

	var stats models.UploadStats
	for _, row := range rows {
		switch row.Outcome {
		case models.OutcomeDelivered:
			stats.Delivered = row.Count
		case models.OutcomeFailed:
			stats.Failed = row.Count
		}
	}
	return stats, nil
}

// RecentErrors returns up to limit error logs, newest first
func (r *Repository) RecentErrors(limit int) ([]*models.ErrorLog, error) {
	var logs []*models.ErrorLog
	result := r.db.Order("timestamp DESC").Limit(limit).Find(&logs)
	if result.Error != nil {
		return nil, errors.Wrap(result.Error, "failed to query error logs")
	}
	return logs, nil
}

// DeleteOlderThan permanently removes journal rows older than before
func (r *Repository) DeleteOlderThan(before time.Time) (int64, error) {
	var total int64
	err := r.db.Transaction(func(tx *gorm.DB) error {
		for _, model := range []any{&models.StatusEvent{}, &models.UploadRecord{}, &models.ErrorLog{}} {
			result := tx.Unscoped().Where("timestamp < ?", before).Delete(model)
			if result.Error != nil {
				return result.Error
			}
			total += result.RowsAffected
		}
		return nil
	})
	if err != nil {
		return 0, errors.Wrap(err, "failed to delete old journal rows")
	}
	return total, nil
}
