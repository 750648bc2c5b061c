package sessions

import (
	"context"
	"fmt"
	"time"

	"github.com/atriumhq/atrium-backend/pkg/config"
	"github.com/atriumhq/atrium-backend/pkg/db"
	"github.com/atriumhq/atrium-backend/pkg/db/models"
	"github.com/atriumhq/atrium-backend/pkg/geoip"
	"github.com/atriumhq/atrium-backend/pkg/logger"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const geoLookupTimeout = 3 * time.Second

// Service implements login-session tracking: creation, activity renewal,
// revocation and the periodic sweeps.
type Service struct {
	db    *db.Client
	geo   geoip.Resolver
	logg  *logger.Logger
	cfg   config.SessionConfig
	retry db.RetryPolicy
	now   func() time.Time
}

// ServiceParams bundles the dependencies required to build a session service.
type ServiceParams struct {
	DB     *db.Client
	Geo    geoip.Resolver
	Logger *logger.Logger
	Config config.SessionConfig
	Retry  db.RetryPolicy
	Now    func() time.Time
}

// NewService constructs a session service with the provided dependencies.
// Geo is optional; when absent every session records empty location fields.
func NewService(params ServiceParams) (*Service, error) {
	if params.DB == nil {
		return nil, fmt.Errorf("db client is required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if params.Now == nil {
		params.Now = time.Now
	}
	if params.Retry.MaxAttempts == 0 {
		params.Retry = db.DefaultRetryPolicy()
	}
	if params.Config.InactivityTTL <= 0 {
		params.Config.InactivityTTL = 24 * time.Hour
	}
	if params.Config.RetentionDays <= 0 {
		params.Config.RetentionDays = 90
	}
	return &Service{
		db:    params.DB,
		geo:   params.Geo,
		logg:  params.Logger,
		cfg:   params.Config,
		retry: params.Retry,
		now:   params.Now,
	}, nil
}

// StartInput carries the caller-supplied attributes of a new session.
type StartInput struct {
	// Token lets the caller correlate the session with an external token,
	// e.g. a JWT's jti. Generated when empty.
	Token   string
	Request RequestContext
}

// Start records a new login session as the user's single current one. The
// is_current flag is cleared on all other sessions and set on the new row
// inside one transaction.
func (s *Service) Start(ctx context.Context, userID uuid.UUID, in StartInput) (*models.UserSession, error) {
	token := in.Token
	if token == "" {
		token = uuid.NewString()
	}

	info := ParseUserAgent(in.Request.UserAgent)

	var loc geoip.Location
	if s.geo != nil {
		lookupCtx, cancel := context.WithTimeout(ctx, geoLookupTimeout)
		loc = s.geo.Lookup(lookupCtx, in.Request.IP)
		cancel()
	}

	now := s.now().UTC()
	session := &models.UserSession{
		ID:             uuid.New(),
		UserID:         userID,
		SessionToken:   token,
		IPAddress:      in.Request.IP,
		UserAgent:      in.Request.UserAgent,
		BrowserName:    info.BrowserName,
		BrowserVersion: info.BrowserVersion,
		OSName:         info.OSName,
		OSVersion:      info.OSVersion,
		DeviceType:     info.DeviceType,
		City:           optional(loc.City),
		Region:         optional(loc.Region),
		Country:        optional(loc.Country),
		LoginAt:        now,
		LastActivityAt: now,
		IsActive:       true,
		IsCurrent:      true,
	}

	err := s.db.WithRetryTx(ctx, s.retry, func(tx *gorm.DB) error {
		repo := NewRepository(tx)
		if err := repo.ClearCurrent(ctx, userID); err != nil {
			return err
		}
		return repo.Insert(ctx, session)
	})
	if err != nil {
		return nil, err
	}

	ctx = s.logg.WithFields(ctx, map[string]any{
		"user_id":    userID,
		"session_id": session.ID,
		"device":     session.DeviceType,
	})
	s.logg.Info(ctx, "session started")
	return session, nil
}

// Touch refreshes last_activity_at for the active session matching the
// token. A false result means the caller must re-authenticate.
func (s *Service) Touch(ctx context.Context, token string) (bool, error) {
	return s.repo().TouchByToken(ctx, token, s.now().UTC())
}

// RevokeOwned deactivates the session only when it belongs to the user.
func (s *Service) RevokeOwned(ctx context.Context, sessionID, userID uuid.UUID) (bool, error) {
	revoked, err := s.repo().RevokeOwned(ctx, sessionID, userID)
	if err != nil {
		return false, err
	}
	if revoked {
		s.logg.Info(s.logg.WithField(ctx, "session_id", sessionID), "session revoked")
	}
	return revoked, nil
}

// RevokeByToken deactivates the session bound to the token, used at logout.
func (s *Service) RevokeByToken(ctx context.Context, token string) (bool, error) {
	return s.repo().RevokeByToken(ctx, token)
}

// HasActive reports whether an active session exists for the token. Revoking
// or expiring the session kills the standing of any token that carries it.
func (s *Service) HasActive(ctx context.Context, token string) (bool, error) {
	_, err := s.repo().FindActiveByToken(ctx, token)
	if err == gorm.ErrRecordNotFound {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// ListForUser returns the user's sessions ordered by recency of activity.
func (s *Service) ListForUser(ctx context.Context, userID uuid.UUID) ([]models.UserSession, error) {
	return s.repo().ListForUser(ctx, userID)
}

// ExpireStale deactivates sessions idle past the inactivity TTL.
func (s *Service) ExpireStale(ctx context.Context) (int64, error) {
	cutoff := s.now().UTC().Add(-s.cfg.InactivityTTL)
	var count int64
	err := db.WithRetry(ctx, s.retry, func(ctx context.Context) error {
		var opErr error
		count, opErr = s.repo().ExpireStale(ctx, cutoff)
		return opErr
	})
	return count, err
}

// PurgeOld permanently deletes sessions older than the retention window.
func (s *Service) PurgeOld(ctx context.Context) (int64, error) {
	cutoff := s.now().UTC().AddDate(0, 0, -s.cfg.RetentionDays)
	var count int64
	err := db.WithRetry(ctx, s.retry, func(ctx context.Context) error {
		var opErr error
		count, opErr = s.repo().PurgeOld(ctx, cutoff)
		return opErr
	})
	return count, err
}

func (s *Service) repo() *Repository {
	return NewRepository(s.db.DB())
}

func optional(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}
