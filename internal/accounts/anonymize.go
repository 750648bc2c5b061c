package accounts

import (
	"context"
	"strconv"

	"github.com/atriumhq/atrium-backend/pkg/db/models"
	"github.com/google/uuid"
)

const (
	anonUsernamePrefix = "anon_"
	anonUsernameIDLen  = 8
	anonMaxAttempts    = 999
)

// usernameChecker is the slice of the users repo the generator needs.
type usernameChecker interface {
	UsernameExists(ctx context.Context, username string) (bool, error)
}

// generateAnonUsername produces a placeholder username for an anonymized
// account. The first candidate is "anon_" plus the first 8 characters of the
// user id; on collision a numeric suffix replaces trailing id characters so
// the result stays within the 13-character username limit. After a bounded
// number of attempts the raw id prefix is used as-is.
func generateAnonUsername(ctx context.Context, repo usernameChecker, id uuid.UUID) (string, error) {
	idStr := id.String()

	candidate := anonUsernamePrefix + idStr[:anonUsernameIDLen]
	taken, err := repo.UsernameExists(ctx, candidate)
	if err != nil {
		return "", err
	}
	if !taken {
		return candidate, nil
	}

	for attempt := 1; attempt <= anonMaxAttempts; attempt++ {
		suffix := strconv.Itoa(attempt)
		candidate = anonUsernamePrefix + idStr[:anonUsernameIDLen-len(suffix)] + suffix
		taken, err = repo.UsernameExists(ctx, candidate)
		if err != nil {
			return "", err
		}
		if !taken {
			return candidate, nil
		}
	}

	return idStr[:models.UsernameMaxLen], nil
}
