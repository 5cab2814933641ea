package model

import (
	"time"

	"github.com/google/uuid"
)

// swagger:model
type BaseModel struct {
	ID        uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func GenerateUUID() string {
	return uuid.New().String()
}

// All returns every table the service migrates.
func All() []interface{} {
	return []interface{}{
		&UserProgress{},
		&UserBadge{},
		&CompletedActivity{},
		&ActivityLog{},
	}
}
