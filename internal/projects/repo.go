package projects

import (
	"context"

	"github.com/atriumhq/atrium-backend/pkg/db/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository exposes project persistence operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a projects repo bound to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// CreateProjectDTO holds the data required to persist a new project.
type CreateProjectDTO struct {
	Name        string
	Description *string
	OwnerID     uuid.UUID
}

// Create inserts a new project for the owner.
func (r *Repository) Create(ctx context.Context, dto CreateProjectDTO) (*models.Project, error) {
	project := &models.Project{
		ID:          uuid.New(),
		Name:        dto.Name,
		Description: dto.Description,
		OwnerID:     dto.OwnerID,
	}
	if err := r.db.WithContext(ctx).Create(project).Error; err != nil {
		return nil, err
	}
	return project, nil
}

// FindByID loads a single project.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Project, error) {
	var project models.Project
	if err := r.db.WithContext(ctx).First(&project, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &project, nil
}

// ListForOwner returns the owner's projects, newest first.
func (r *Repository) ListForOwner(ctx context.Context, ownerID uuid.UUID) ([]models.Project, error) {
	var rows []models.Project
	err := r.db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("created_at DESC, id DESC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// DeleteOwned removes a single project if it belongs to the owner. Returns
// false when the project does not exist or is owned by someone else.
func (r *Repository) DeleteOwned(ctx context.Context, id, ownerID uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).
		Where("id = ? AND owner_id = ?", id, ownerID).
		Delete(&models.Project{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// DeleteAllForOwner removes every project the user owns and reports how many
// rows went away. Used by the account lifecycle teardown.
func (r *Repository) DeleteAllForOwner(ctx context.Context, ownerID uuid.UUID) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Delete(&models.Project{})
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}
