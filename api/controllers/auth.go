package controllers

import (
	"context"
	"net/http"

	"github.com/atriumhq/atrium-backend/api/middleware"
	"github.com/atriumhq/atrium-backend/api/responses"
	"github.com/atriumhq/atrium-backend/api/validators"
	"github.com/atriumhq/atrium-backend/internal/auth"
	"github.com/atriumhq/atrium-backend/internal/sessions"
	"github.com/atriumhq/atrium-backend/internal/users"
	pkgerrors "github.com/atriumhq/atrium-backend/pkg/errors"
	"github.com/atriumhq/atrium-backend/pkg/logger"
)

type authService interface {
	Register(ctx context.Context, req auth.RegisterRequest) (*users.UserDTO, error)
	Login(ctx context.Context, req auth.LoginRequest, reqCtx sessions.RequestContext) (*auth.LoginResult, error)
	Logout(ctx context.Context, sessionToken string) (bool, error)
}

// AuthRegister creates a new account.
func AuthRegister(svc authService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body auth.RegisterRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		user, err := svc.Register(r.Context(), body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, user)
	}
}

// AuthLogin verifies credentials, starts a tracked session and returns the
// access token bound to it.
func AuthLogin(svc authService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body auth.LoginRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Login(r.Context(), body, sessions.ContextFromRequest(r))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// AuthLogout deactivates the session bound to the presented token. Mounted
// behind the auth middleware, which has already validated the token and
// seeded the session token into the context.
func AuthLogout(svc authService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := middleware.SessionTokenFromContext(r.Context())
		if token == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing session"))
			return
		}

		if _, err := svc.Logout(r.Context(), token); err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "revoke session"))
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "logged_out"})
	}
}
