package controllers

import (
	"context"
	"net/http"

	"github.com/atriumhq/atrium-backend/api/middleware"
	"github.com/atriumhq/atrium-backend/api/responses"
	"github.com/atriumhq/atrium-backend/internal/sessions"
	"github.com/atriumhq/atrium-backend/pkg/db/models"
	pkgerrors "github.com/atriumhq/atrium-backend/pkg/errors"
	"github.com/atriumhq/atrium-backend/pkg/logger"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

type sessionService interface {
	ListForUser(ctx context.Context, userID uuid.UUID) ([]models.UserSession, error)
	RevokeOwned(ctx context.Context, sessionID, userID uuid.UUID) (bool, error)
	Touch(ctx context.Context, token string) (bool, error)
}

func authenticatedUserID(r *http.Request) (uuid.UUID, error) {
	raw := middleware.UserIDFromContext(r.Context())
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials")
	}
	return id, nil
}

// SessionList returns the caller's login sessions, most recent activity first.
func SessionList(svc sessionService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := authenticatedUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		rows, err := svc.ListForUser(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list sessions"))
			return
		}
		responses.WriteSuccess(w, map[string]any{"sessions": sessions.FromModels(rows)})
	}
}

// SessionRevoke deactivates one of the caller's own sessions.
func SessionRevoke(svc sessionService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := authenticatedUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		sessionID, err := uuid.Parse(chi.URLParam(r, "sessionId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "session id must be a uuid"))
			return
		}

		revoked, err := svc.RevokeOwned(r.Context(), sessionID, userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "revoke session"))
			return
		}
		if !revoked {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeNotFound, "session not found"))
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "revoked"})
	}
}

// SessionHeartbeat renews the activity timestamp of the caller's current
// session. A gone session means the token no longer grants access.
func SessionHeartbeat(svc sessionService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := middleware.SessionTokenFromContext(r.Context())
		if token == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing session"))
			return
		}

		alive, err := svc.Touch(r.Context(), token)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "touch session"))
			return
		}
		if !alive {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "session expired"))
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "active"})
	}
}
