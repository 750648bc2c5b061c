package controllers

import (
	"context"
	"io"
	"net/http"

	"github.com/atriumhq/atrium-backend/api/responses"
	"github.com/atriumhq/atrium-backend/api/validators"
	"github.com/atriumhq/atrium-backend/internal/users"
	"github.com/atriumhq/atrium-backend/pkg/db/models"
	pkgerrors "github.com/atriumhq/atrium-backend/pkg/errors"
	"github.com/atriumhq/atrium-backend/pkg/logger"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// maxAvatarBytes bounds an avatar upload body.
const maxAvatarBytes = 5 << 20

type accountSettings interface {
	ChangePassword(ctx context.Context, userID uuid.UUID, current, next string) error
	UpdateAvatar(ctx context.Context, userID uuid.UUID, data []byte, contentType string) (string, error)
	UpdateProfile(ctx context.Context, userID uuid.UUID, firstName, lastName *string) (*models.User, error)
}

type selfStore interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,min=8,max=128"`
}

type updateProfileRequest struct {
	FirstName *string `json:"first_name" validate:"omitempty,max=100"`
	LastName  *string `json:"last_name" validate:"omitempty,max=100"`
}

// MeGet returns the caller's own account.
func MeGet(store selfStore, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := authenticatedUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		user, err := store.FindByID(r.Context(), userID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeNotFound, "user not found"))
				return
			}
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load user"))
			return
		}
		responses.WriteSuccess(w, users.FromModel(user))
	}
}

// MeProfileUpdate sets the caller's name fields; nil values clear them.
func MeProfileUpdate(svc accountSettings, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := authenticatedUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body updateProfileRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		user, err := svc.UpdateProfile(r.Context(), userID, body.FirstName, body.LastName)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, users.FromModel(user))
	}
}

// MePasswordChange rotates the caller's credential. The current password must
// verify before the new one is accepted.
func MePasswordChange(svc accountSettings, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := authenticatedUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body changePasswordRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.ChangePassword(r.Context(), userID, body.CurrentPassword, body.NewPassword); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "password_changed"})
	}
}

// MeAvatarUpload stores the raw request body as the caller's avatar, keyed by
// the Content-Type header.
func MeAvatarUpload(svc accountSettings, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := authenticatedUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		r.Body = http.MaxBytesReader(w, r.Body, maxAvatarBytes)
		data, err := io.ReadAll(r.Body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "avatar payload too large or unreadable"))
			return
		}

		url, err := svc.UpdateAvatar(r.Context(), userID, data, r.Header.Get("Content-Type"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"avatar_url": url})
	}
}
