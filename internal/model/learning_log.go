package model

import (
	"time"

	"gorm.io/datatypes"
)

// ActivityLog 追加写入的活动日志，id 即写入顺序
type ActivityLog struct {
	ID           uint           `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID       string         `gorm:"size:64;not null;index" json:"userId"`
	SubmissionID string         `gorm:"size:36;index" json:"submissionId"`
	Kind         string         `gorm:"size:32;not null" json:"kind"`
	Details      datatypes.JSON `json:"details"`
	Timestamp    time.Time      `gorm:"not null" json:"timestamp"`
}

func (ActivityLog) TableName() string {
	return "activity_logs"
}
