package model

import "time"

// UserBadge 已解锁的徽章，(user_id, badge_id) 唯一
type UserBadge struct {
	BaseModel
	UserID   string    `gorm:"size:64;not null;uniqueIndex:idx_user_badge" json:"userId"`
	BadgeID  string    `gorm:"size:64;not null;uniqueIndex:idx_user_badge" json:"badgeId"`
	EarnedAt time.Time `gorm:"not null;index" json:"earnedAt"`
}

func (UserBadge) TableName() string {
	return "user_badges"
}
