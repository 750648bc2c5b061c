package sessions

import (
	"time"

	"github.com/atriumhq/atrium-backend/pkg/db/models"
	"github.com/google/uuid"
)

// SessionDTO is the transport shape for a tracked login session. The raw
// token is never exposed.
type SessionDTO struct {
	ID             uuid.UUID `json:"id"`
	IPAddress      string    `json:"ip_address,omitempty"`
	BrowserName    *string   `json:"browser_name,omitempty"`
	BrowserVersion *string   `json:"browser_version,omitempty"`
	OSName         *string   `json:"os_name,omitempty"`
	OSVersion      *string   `json:"os_version,omitempty"`
	DeviceType     string    `json:"device_type"`
	City           *string   `json:"city,omitempty"`
	Region         *string   `json:"region,omitempty"`
	Country        *string   `json:"country,omitempty"`
	LoginAt        time.Time `json:"login_at"`
	LastActivityAt time.Time `json:"last_activity_at"`
	IsActive       bool      `json:"is_active"`
	IsCurrent      bool      `json:"is_current"`
}

func FromModel(s *models.UserSession) *SessionDTO {
	if s == nil {
		return nil
	}
	return &SessionDTO{
		ID:             s.ID,
		IPAddress:      s.IPAddress,
		BrowserName:    s.BrowserName,
		BrowserVersion: s.BrowserVersion,
		OSName:         s.OSName,
		OSVersion:      s.OSVersion,
		DeviceType:     s.DeviceType,
		City:           s.City,
		Region:         s.Region,
		Country:        s.Country,
		LoginAt:        s.LoginAt,
		LastActivityAt: s.LastActivityAt,
		IsActive:       s.IsActive,
		IsCurrent:      s.IsCurrent,
	}
}

// FromModels maps a slice of session rows to DTOs preserving order.
func FromModels(rows []models.UserSession) []SessionDTO {
	out := make([]SessionDTO, 0, len(rows))
	for i := range rows {
		out = append(out, *FromModel(&rows[i]))
	}
	return out
}
