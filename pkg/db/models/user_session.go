package models

import (
	"time"

	"github.com/google/uuid"
)

// Device classes recorded for a session. Unparseable user agents fall back
// to desktop.
const (
	DeviceDesktop = "desktop"
	DeviceMobile  = "mobile"
	DeviceTablet  = "tablet"
)

// UserSession records a single login instance and the client it came from.
type UserSession struct {
	ID             uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	UserID         uuid.UUID `gorm:"type:uuid;column:user_id;not null;index"`
	SessionToken   string    `gorm:"column:session_token;type:text;not null;uniqueIndex"`
	IPAddress      string    `gorm:"column:ip_address;type:text"`
	UserAgent      string    `gorm:"column:user_agent;type:text"`
	BrowserName    *string   `gorm:"column:browser_name"`
	BrowserVersion *string   `gorm:"column:browser_version"`
	OSName         *string   `gorm:"column:os_name"`
	OSVersion      *string   `gorm:"column:os_version"`
	DeviceType     string    `gorm:"column:device_type;type:text;not null;default:desktop"`
	City           *string   `gorm:"column:city"`
	Region         *string   `gorm:"column:region"`
	Country        *string   `gorm:"column:country"`
	LoginAt        time.Time `gorm:"column:login_at;not null"`
	LastActivityAt time.Time `gorm:"column:last_activity_at;not null;index"`
	IsActive       bool      `gorm:"column:is_active;not null;default:true"`
	IsCurrent      bool      `gorm:"column:is_current;not null;default:false"`

	User *User `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
}
