package cron

import (
	"context"
	"fmt"

	"github.com/atriumhq/atrium-backend/pkg/logger"
)

// SessionPurgeJobParams configure the retention sweep.
type SessionPurgeJobParams struct {
	Logger   *logger.Logger
	Sessions sessionPurger
}

type sessionPurger interface {
	PurgeOld(ctx context.Context) (int64, error)
}

// NewSessionPurgeJob builds the job that hard-deletes session rows older
// than the retention window.
func NewSessionPurgeJob(params SessionPurgeJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Sessions == nil {
		return nil, fmt.Errorf("sessions service required")
	}
	return &sessionPurgeJob{
		logg:     params.Logger,
		sessions: params.Sessions,
	}, nil
}

type sessionPurgeJob struct {
	logg     *logger.Logger
	sessions sessionPurger
}

func (j *sessionPurgeJob) Name() string { return "session-purge" }

func (j *sessionPurgeJob) Run(ctx context.Context) error {
	purged, err := j.sessions.PurgeOld(ctx)
	if err != nil {
		return fmt.Errorf("session purge sweep: %w", err)
	}
	logCtx := j.logg.WithFields(ctx, map[string]any{"rows_purged": purged})
	j.logg.Info(logCtx, "session purge sweep complete")
	return nil
}
