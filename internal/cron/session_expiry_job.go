package cron

import (
	"context"
	"fmt"

	"github.com/atriumhq/atrium-backend/pkg/logger"
)

// SessionExpiryJobParams configure the inactivity sweep.
type SessionExpiryJobParams struct {
	Logger   *logger.Logger
	Sessions sessionExpirer
}

type sessionExpirer interface {
	ExpireStale(ctx context.Context) (int64, error)
}

// NewSessionExpiryJob builds the job that deactivates sessions whose last
// activity is past the inactivity window.
func NewSessionExpiryJob(params SessionExpiryJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Sessions == nil {
		return nil, fmt.Errorf("sessions service required")
	}
	return &sessionExpiryJob{
		logg:     params.Logger,
		sessions: params.Sessions,
	}, nil
}

type sessionExpiryJob struct {
	logg     *logger.Logger
	sessions sessionExpirer
}

func (j *sessionExpiryJob) Name() string { return "session-expiry" }

func (j *sessionExpiryJob) Run(ctx context.Context) error {
	expired, err := j.sessions.ExpireStale(ctx)
	if err != nil {
		return fmt.Errorf("session expiry sweep: %w", err)
	}
	logCtx := j.logg.WithFields(ctx, map[string]any{"rows_expired": expired})
	j.logg.Info(logCtx, "session expiry sweep complete")
	return nil
}
