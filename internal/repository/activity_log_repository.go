package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"codesikho_backend/internal/model"
	"codesikho_backend/internal/progression"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type ActivityLogRepository struct {
	DB *gorm.DB
}

func NewActivityLogRepository(db *gorm.DB) *ActivityLogRepository {
	return &ActivityLogRepository{DB: db}
}

// AppendLogEntries inserts entries in order. Pass the surrounding transaction
// as tx, or nil to use the repository's connection.
func (r *ActivityLogRepository) AppendLogEntries(tx *gorm.DB, entries []progression.LogEntry) error {
	if len(entries) == 0 {
		return nil
	}
	if tx == nil {
		tx = r.DB
	}

	rows := make([]model.ActivityLog, 0, len(entries))
	for _, e := range entries {
		details, err := json.Marshal(e.Details)
		if err != nil {
			return fmt.Errorf("marshal %s details: %w", e.Kind, err)
		}
		rows = append(rows, model.ActivityLog{
			UserID:       e.UserID,
			SubmissionID: e.SubmissionID,
			Kind:         string(e.Kind),
			Details:      datatypes.JSON(details),
			Timestamp:    e.Timestamp,
		})
	}
	return tx.Create(&rows).Error
}

// ReadRecentLog returns up to limit entries, most recently written first.
func (r *ActivityLogRepository) ReadRecentLog(ctx context.Context, userID string, limit int) ([]progression.LogEntry, error) {
	var rows []model.ActivityLog
	err := r.DB.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("id DESC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	entries := make([]progression.LogEntry, 0, len(rows))
	for _, row := range rows {
		var details progression.Details
		if len(row.Details) > 0 {
			if err := json.Unmarshal(row.Details, &details); err != nil {
				return nil, fmt.Errorf("decode log %d: %w", row.ID, err)
			}
		}
		entries = append(entries, progression.LogEntry{
			UserID:       row.UserID,
			SubmissionID: row.SubmissionID,
			Kind:         progression.LogKind(row.Kind),
			Details:      details,
			Timestamp:    row.Timestamp,
		})
	}
	return entries, nil
}
