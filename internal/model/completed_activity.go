package model

import "time"

// CompletedActivity is the first credited completion of an activity.
// The unique (user_id, activity_id) index doubles as the replay guard.
type CompletedActivity struct {
	BaseModel
	UserID      string    `gorm:"size:64;not null;uniqueIndex:idx_user_activity" json:"userId"`
	ActivityID  string    `gorm:"size:100;not null;uniqueIndex:idx_user_activity" json:"activityId"`
	Kind        string    `gorm:"size:32;not null" json:"kind"`
	Score       int       `gorm:"not null" json:"score"`
	XPEarned    int       `gorm:"not null" json:"xpEarned"`
	TimeSpent   int       `gorm:"default:0" json:"timeSpent"` // 秒
	CompletedAt time.Time `gorm:"not null;index" json:"completedAt"`
}

func (CompletedActivity) TableName() string {
	return "completed_activities"
}
