package sessions

import (
	"context"
	"time"

	"github.com/atriumhq/atrium-backend/pkg/db/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository exposes session persistence operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a sessions repo bound to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Insert persists a new session row.
func (r *Repository) Insert(ctx context.Context, session *models.UserSession) error {
	return r.db.WithContext(ctx).Create(session).Error
}

// ClearCurrent drops the is_current flag on all of the user's sessions so a
// newly created one can hold it exclusively.
func (r *Repository) ClearCurrent(ctx context.Context, userID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&models.UserSession{}).
		Where("user_id = ? AND is_current = ?", userID, true).
		Update("is_current", false).Error
}

// FindByID loads a session row.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.UserSession, error) {
	var session models.UserSession
	if err := r.db.WithContext(ctx).First(&session, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &session, nil
}

// FindActiveByToken loads the active session matching the token.
func (r *Repository) FindActiveByToken(ctx context.Context, token string) (*models.UserSession, error) {
	var session models.UserSession
	err := r.db.WithContext(ctx).
		Where("session_token = ? AND is_active = ?", token, true).
		First(&session).Error
	if err != nil {
		return nil, err
	}
	return &session, nil
}

// TouchByToken refreshes last_activity_at for an active session. Returns
// false when no active session matches.
func (r *Repository) TouchByToken(ctx context.Context, token string, at time.Time) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.UserSession{}).
		Where("session_token = ? AND is_active = ?", token, true).
		Update("last_activity_at", at)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// RevokeOwned marks the session inactive and not-current, but only when it
// belongs to the given user.
func (r *Repository) RevokeOwned(ctx context.Context, sessionID, userID uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.UserSession{}).
		Where("id = ? AND user_id = ? AND is_active = ?", sessionID, userID, true).
		Updates(map[string]any{"is_active": false, "is_current": false})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// RevokeByToken marks the token's session inactive, used at logout.
func (r *Repository) RevokeByToken(ctx context.Context, token string) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.UserSession{}).
		Where("session_token = ? AND is_active = ?", token, true).
		Updates(map[string]any{"is_active": false, "is_current": false})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// ExpireStale deactivates active sessions whose last activity predates the
// cutoff. Safe to run repeatedly.
func (r *Repository) ExpireStale(ctx context.Context, cutoff time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.UserSession{}).
		Where("is_active = ? AND last_activity_at < ?", true, cutoff).
		Updates(map[string]any{"is_active": false, "is_current": false})
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}

// PurgeOld permanently deletes sessions whose login predates the cutoff,
// regardless of active state. Safe to run repeatedly.
func (r *Repository) PurgeOld(ctx context.Context, cutoff time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("login_at < ?", cutoff).
		Delete(&models.UserSession{})
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}

// ListForUser returns the user's sessions, most recent activity first.
func (r *Repository) ListForUser(ctx context.Context, userID uuid.UUID) ([]models.UserSession, error) {
	var rows []models.UserSession
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("last_activity_at DESC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// DeleteAllForUser removes every session row for the user.
func (r *Repository) DeleteAllForUser(ctx context.Context, userID uuid.UUID) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Delete(&models.UserSession{})
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}
