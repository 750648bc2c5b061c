package db

import (
	"context"
	"database/sql/driver"
	"errors"
	"net"
	"strings"
	"time"

	"github.com/atriumhq/atrium-backend/pkg/config"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/sethvargo/go-retry"
	"gorm.io/gorm"
)

// RetryPolicy bounds how store operations are retried on transient failures.
type RetryPolicy struct {
	InitialDelay time.Duration
	MaxDelay     time.Duration
	MaxAttempts  int
	MaxElapsed   time.Duration
}

// DefaultRetryPolicy mirrors the production backoff budget: 2s initial delay
// doubling up to 10s, at most 6 retries, roughly a minute end to end.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		InitialDelay: 2 * time.Second,
		MaxDelay:     10 * time.Second,
		MaxAttempts:  6,
		MaxElapsed:   60 * time.Second,
	}
}

// RetryPolicyFromConfig builds a policy from the DB configuration, falling
// back to defaults for unset fields.
func RetryPolicyFromConfig(cfg config.DBConfig) RetryPolicy {
	policy := DefaultRetryPolicy()
	if cfg.RetryInitialDelay > 0 {
		policy.InitialDelay = cfg.RetryInitialDelay
	}
	if cfg.RetryMaxDelay > 0 {
		policy.MaxDelay = cfg.RetryMaxDelay
	}
	if cfg.RetryMaxAttempts > 0 {
		policy.MaxAttempts = cfg.RetryMaxAttempts
	}
	if cfg.RetryMaxElapsed > 0 {
		policy.MaxElapsed = cfg.RetryMaxElapsed
	}
	return policy
}

func (p RetryPolicy) backoff() retry.Backoff {
	b := retry.NewExponential(p.InitialDelay)
	b = retry.WithCappedDuration(p.MaxDelay, b)
	b = retry.WithMaxRetries(uint64(p.MaxAttempts), b)
	if p.MaxElapsed > 0 {
		b = retry.WithMaxDuration(p.MaxElapsed, b)
	}
	return b
}

// WithRetry runs op under the policy, retrying only transient store failures.
// Non-transient errors propagate on the first attempt.
func WithRetry(ctx context.Context, policy RetryPolicy, op func(ctx context.Context) error) error {
	return retry.Do(ctx, policy.backoff(), func(ctx context.Context) error {
		if err := op(ctx); err != nil {
			if IsTransient(err) {
				return retry.RetryableError(err)
			}
			return err
		}
		return nil
	})
}

// WithRetryTx runs fn inside a fresh transaction per attempt, so a failed
// attempt never leaks partial state into the next one.
func (c *Client) WithRetryTx(ctx context.Context, policy RetryPolicy, fn func(tx *gorm.DB) error) error {
	return WithRetry(ctx, policy, func(ctx context.Context) error {
		return c.WithTx(ctx, fn)
	})
}

// IsTransient classifies connectivity and timeout failures that are worth
// retrying. Constraint violations, not-found and other logical errors are not.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, driver.ErrBadConn) {
		return true
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		// class 08: connection exceptions; 57P01: admin shutdown;
		// 40001/40P01: serialization failure / deadlock.
		switch {
		case strings.HasPrefix(pgErr.Code, "08"):
			return true
		case pgErr.Code == "57P01", pgErr.Code == "40001", pgErr.Code == "40P01":
			return true
		}
		return false
	}

	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "connection refused") ||
		strings.Contains(msg, "connection reset") ||
		strings.Contains(msg, "timeout")
}
