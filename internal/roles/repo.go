package roles

import (
	"context"
	"strings"

	"github.com/atriumhq/atrium-backend/pkg/db/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Repository manages the role catalog and user/role associations.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a roles repo bound to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Normalize canonicalizes a role name for lookup and storage.
func Normalize(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// Ensure returns the role with the given name, creating it if absent. The
// insert uses ON CONFLICT DO NOTHING so a lost race never raises an error;
// raising one would abort any enclosing transaction on Postgres.
func (r *Repository) Ensure(ctx context.Context, name string) (*models.Role, error) {
	name = Normalize(name)

	role := models.Role{ID: uuid.New(), Name: name}
	res := r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&role)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected > 0 {
		return &role, nil
	}

	var existing models.Role
	if err := r.db.WithContext(ctx).Where("name = ?", name).First(&existing).Error; err != nil {
		return nil, err
	}
	return &existing, nil
}

// Grant attaches the role to the user, ensuring the role exists first.
// Returns false without error when the user already holds the role.
func (r *Repository) Grant(ctx context.Context, userID uuid.UUID, roleName string) (bool, error) {
	role, err := r.Ensure(ctx, roleName)
	if err != nil {
		return false, err
	}

	link := models.UserRole{UserID: userID, RoleID: role.ID}
	res := r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&link)
	if res.Error != nil {
		return false, res.Error
	}
	// zero rows means the link already existed, possibly via a concurrent grant
	return res.RowsAffected > 0, nil
}

// Revoke detaches the role from the user. Returns false when the user does
// not hold the role or the role does not exist.
func (r *Repository) Revoke(ctx context.Context, userID uuid.UUID, roleName string) (bool, error) {
	var role models.Role
	err := r.db.WithContext(ctx).Where("name = ?", Normalize(roleName)).First(&role).Error
	if err == gorm.ErrRecordNotFound {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	res := r.db.WithContext(ctx).
		Where("user_id = ? AND role_id = ?", userID, role.ID).
		Delete(&models.UserRole{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// Has reports whether the user holds the named role.
func (r *Repository) Has(ctx context.Context, userID uuid.UUID, roleName string) (bool, error) {
	var role models.Role
	err := r.db.WithContext(ctx).Where("name = ?", Normalize(roleName)).First(&role).Error
	if err == gorm.ErrRecordNotFound {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return r.hasRoleID(ctx, userID, role.ID)
}

// ListForUser returns the roles held by the user.
func (r *Repository) ListForUser(ctx context.Context, userID uuid.UUID) ([]models.Role, error) {
	var roles []models.Role
	err := r.db.WithContext(ctx).
		Joins("JOIN user_roles ON user_roles.role_id = roles.id").
		Where("user_roles.user_id = ?", userID).
		Order("roles.name ASC").
		Find(&roles).Error
	if err != nil {
		return nil, err
	}
	return roles, nil
}

func (r *Repository) hasRoleID(ctx context.Context, userID, roleID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.UserRole{}).
		Where("user_id = ? AND role_id = ?", userID, roleID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
