package models

import (
	"time"

	"github.com/google/uuid"
)

// Role names a permission group shared across many users.
type Role struct {
	ID        uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	Name      string    `gorm:"type:text;not null;uniqueIndex"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}

// UserRole is the join row between users and roles.
type UserRole struct {
	UserID uuid.UUID `gorm:"type:uuid;primaryKey"`
	RoleID uuid.UUID `gorm:"type:uuid;primaryKey"`
}

// TableName keeps the join table name stable for raw queries.
func (UserRole) TableName() string {
	return "user_roles"
}
