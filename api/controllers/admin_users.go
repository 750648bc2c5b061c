package controllers

import (
	"context"
	"net/http"

	"github.com/atriumhq/atrium-backend/api/responses"
	"github.com/atriumhq/atrium-backend/api/validators"
	"github.com/atriumhq/atrium-backend/internal/users"
	"github.com/atriumhq/atrium-backend/pkg/db/models"
	pkgerrors "github.com/atriumhq/atrium-backend/pkg/errors"
	"github.com/atriumhq/atrium-backend/pkg/logger"
	"github.com/atriumhq/atrium-backend/pkg/pagination"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type adminUserStore interface {
	List(ctx context.Context, params pagination.Params) ([]models.User, string, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

type accountLifecycle interface {
	Activate(ctx context.Context, userID uuid.UUID) (bool, error)
	Deactivate(ctx context.Context, userID uuid.UUID) (bool, error)
	Anonymize(ctx context.Context, actorID, targetID uuid.UUID) (bool, error)
	Delete(ctx context.Context, actorID, targetID uuid.UUID) (bool, error)
}

type roleManager interface {
	Grant(ctx context.Context, userID uuid.UUID, roleName string) (bool, error)
	Revoke(ctx context.Context, userID uuid.UUID, roleName string) (bool, error)
}

type grantRoleRequest struct {
	Name string `json:"name" validate:"required,min=1,max=50"`
}

func targetUserID(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, "userId"))
	if err != nil {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, "user id must be a uuid")
	}
	return id, nil
}

// AdminUserList returns a cursor-paginated page of users.
func AdminUserList(store adminUserStore, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, err := validators.ParseQueryInt(r, "limit", 20, 1, 100)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		rows, nextCursor, err := store.List(r.Context(), pagination.Params{
			Limit:  limit,
			Cursor: r.URL.Query().Get("cursor"),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list users"))
			return
		}

		dtos := make([]*users.UserDTO, 0, len(rows))
		for i := range rows {
			dtos = append(dtos, users.FromModel(&rows[i]))
		}
		responses.WriteSuccess(w, map[string]any{
			"users":       dtos,
			"next_cursor": nextCursor,
		})
	}
}

// AdminUserGet returns a single user with their roles.
func AdminUserGet(store adminUserStore, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := targetUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		user, err := store.FindByID(r.Context(), userID)
		if err == gorm.ErrRecordNotFound {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeNotFound, "user not found"))
			return
		}
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load user"))
			return
		}
		responses.WriteSuccess(w, users.FromModel(user))
	}
}

// AdminUserActivate re-enables a deactivated account.
func AdminUserActivate(svc accountLifecycle, logg *logger.Logger) http.HandlerFunc {
	return adminUserFlagHandler(svc.Activate, "activated", logg)
}

// AdminUserDeactivate disables an account without touching its data.
func AdminUserDeactivate(svc accountLifecycle, logg *logger.Logger) http.HandlerFunc {
	return adminUserFlagHandler(svc.Deactivate, "deactivated", logg)
}

func adminUserFlagHandler(op func(context.Context, uuid.UUID) (bool, error), status string, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := targetUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		done, err := op(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if !done {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeNotFound, "user not found"))
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": status})
	}
}

// AdminUserAnonymize irreversibly scrubs the account's identity while keeping
// the row. Admins cannot anonymize themselves.
func AdminUserAnonymize(svc accountLifecycle, logg *logger.Logger) http.HandlerFunc {
	return adminActorTargetHandler(svc.Anonymize, "anonymized", logg)
}

// AdminUserDelete removes the account and everything it owns.
func AdminUserDelete(svc accountLifecycle, logg *logger.Logger) http.HandlerFunc {
	return adminActorTargetHandler(svc.Delete, "deleted", logg)
}

func adminActorTargetHandler(op func(context.Context, uuid.UUID, uuid.UUID) (bool, error), status string, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actorID, err := authenticatedUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		targetID, err := targetUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		done, err := op(r.Context(), actorID, targetID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if !done {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeNotFound, "user not found"))
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": status})
	}
}

// AdminRoleGrant attaches a role to the user, creating the role on first use.
func AdminRoleGrant(roles roleManager, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := targetUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body grantRoleRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		granted, err := roles.Grant(r.Context(), userID, body.Name)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "grant role"))
			return
		}
		responses.WriteSuccess(w, map[string]any{"granted": granted})
	}
}

// AdminRoleRevoke detaches a role from the user.
func AdminRoleRevoke(roles roleManager, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := targetUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		roleName := chi.URLParam(r, "roleName")
		revoked, err := roles.Revoke(r.Context(), userID, roleName)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "revoke role"))
			return
		}
		if !revoked {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeNotFound, "role not held"))
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "revoked"})
	}
}
