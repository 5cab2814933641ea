package model

// swagger:model UserProgress
// UserProgress 用户进度快照，每个用户一行
type UserProgress struct {
	BaseModel
	UserID            string `gorm:"size:64;uniqueIndex;not null" json:"userId"`
	DisplayName       string `gorm:"size:100" json:"displayName"`
	Avatar            string `gorm:"size:255" json:"avatar"`
	XP                int    `gorm:"default:0;not null;index" json:"xp"`
	Level             int    `gorm:"default:1;not null" json:"level"`
	BadgeCount        int    `gorm:"default:0;not null" json:"badgeCount"`
	ChallengeCount    int    `gorm:"default:0;not null" json:"challengeCount"` // 首次完成的活动数
	PerfectScoreCount int    `gorm:"default:0;not null" json:"perfectScoreCount"`
}

func (UserProgress) TableName() string {
	return "user_progress"
}
