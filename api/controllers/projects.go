package controllers

import (
	"context"
	"net/http"

	"github.com/atriumhq/atrium-backend/api/responses"
	"github.com/atriumhq/atrium-backend/api/validators"
	"github.com/atriumhq/atrium-backend/internal/projects"
	"github.com/atriumhq/atrium-backend/pkg/db/models"
	pkgerrors "github.com/atriumhq/atrium-backend/pkg/errors"
	"github.com/atriumhq/atrium-backend/pkg/logger"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

type projectStore interface {
	Create(ctx context.Context, dto projects.CreateProjectDTO) (*models.Project, error)
	ListForOwner(ctx context.Context, ownerID uuid.UUID) ([]models.Project, error)
	DeleteOwned(ctx context.Context, id, ownerID uuid.UUID) (bool, error)
}

type createProjectRequest struct {
	Name        string  `json:"name" validate:"required,min=1,max=200"`
	Description *string `json:"description" validate:"omitempty,max=2000"`
}

// ProjectList returns the caller's projects, newest first.
func ProjectList(store projectStore, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ownerID, err := authenticatedUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		rows, err := store.ListForOwner(r.Context(), ownerID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list projects"))
			return
		}
		responses.WriteSuccess(w, map[string]any{"projects": projects.FromModels(rows)})
	}
}

// ProjectCreate registers a new project owned by the caller.
func ProjectCreate(store projectStore, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ownerID, err := authenticatedUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body createProjectRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		project, err := store.Create(r.Context(), projects.CreateProjectDTO{
			Name:        validators.SanitizeString(body.Name, 200),
			Description: body.Description,
			OwnerID:     ownerID,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create project"))
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, projects.FromModel(project))
	}
}

// ProjectDelete removes one of the caller's own projects. Projects owned by
// other users are indistinguishable from missing ones.
func ProjectDelete(store projectStore, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ownerID, err := authenticatedUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		projectID, err := uuid.Parse(chi.URLParam(r, "projectId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "project id must be a uuid"))
			return
		}

		deleted, err := store.DeleteOwned(r.Context(), projectID, ownerID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "delete project"))
			return
		}
		if !deleted {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeNotFound, "project not found"))
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}
