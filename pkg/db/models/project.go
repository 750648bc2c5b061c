package models

import (
	"time"

	"github.com/google/uuid"
)

// Project is a user-owned resource removed by the account lifecycle
// operations alongside its owner.
type Project struct {
	ID          uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	Name        string    `gorm:"type:text;not null"`
	Description *string   `gorm:"column:description"`
	OwnerID     uuid.UUID `gorm:"type:uuid;column:owner_id;not null;index"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
