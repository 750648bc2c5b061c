package accounts

import (
	"context"
	"fmt"
	"time"

	"github.com/atriumhq/atrium-backend/internal/projects"
	"github.com/atriumhq/atrium-backend/internal/roles"
	"github.com/atriumhq/atrium-backend/internal/sessions"
	"github.com/atriumhq/atrium-backend/internal/users"
	"github.com/atriumhq/atrium-backend/pkg/config"
	"github.com/atriumhq/atrium-backend/pkg/db"
	"github.com/atriumhq/atrium-backend/pkg/db/models"
	pkgerrors "github.com/atriumhq/atrium-backend/pkg/errors"
	"github.com/atriumhq/atrium-backend/pkg/logger"
	"github.com/atriumhq/atrium-backend/pkg/security"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const invalidCredentialsMessage = "invalid credentials"

// DefaultRole is granted to every newly registered account.
const DefaultRole = "user"

// avatarManager is the blob surface the lifecycle operations rely on.
type avatarManager interface {
	Configured() bool
	ProvisionInitial(ctx context.Context, userID uuid.UUID) (*string, error)
	Store(ctx context.Context, userID uuid.UUID, data []byte, contentType string) (string, error)
	DeleteAllForUser(ctx context.Context, userID uuid.UUID) error
}

// Service implements account lifecycle: registration, credential checks,
// activation flips and the two terminal operations (anonymize, delete).
type Service struct {
	db          *db.Client
	avatars     avatarManager
	logg        *logger.Logger
	passwordCfg config.PasswordConfig
	retry       db.RetryPolicy
	now         func() time.Time
}

// ServiceParams bundles the dependencies required to build the service.
type ServiceParams struct {
	DB          *db.Client
	Avatars     avatarManager
	Logger      *logger.Logger
	PasswordCfg config.PasswordConfig
	Retry       db.RetryPolicy
	Now         func() time.Time
}

// NewService constructs an account lifecycle service.
func NewService(params ServiceParams) (*Service, error) {
	if params.DB == nil {
		return nil, fmt.Errorf("db client is required")
	}
	if params.Avatars == nil {
		return nil, fmt.Errorf("avatar manager is required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if params.Now == nil {
		params.Now = time.Now
	}
	if params.Retry.MaxAttempts == 0 {
		params.Retry = db.DefaultRetryPolicy()
	}
	return &Service{
		db:          params.DB,
		avatars:     params.Avatars,
		logg:        params.Logger,
		passwordCfg: params.PasswordCfg,
		retry:       params.Retry,
		now:         params.Now,
	}, nil
}

// RegisterInput carries the fields accepted at registration.
type RegisterInput struct {
	Email     string
	Username  string
	Password  string
	FirstName *string
	LastName  *string
}

// Register creates a new account with a hashed credential and the default
// role, then provisions an initial avatar best-effort.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	hash, err := security.HashPassword(in.Password, s.passwordCfg)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "hash password")
	}

	var created *models.User
	err = s.db.WithRetryTx(ctx, s.retry, func(tx *gorm.DB) error {
		userRepo := users.NewRepository(tx)
		user, createErr := userRepo.Create(ctx, users.CreateUserDTO{
			Email:        in.Email,
			Username:     in.Username,
			PasswordHash: hash,
			FirstName:    in.FirstName,
			LastName:     in.LastName,
		})
		if createErr != nil {
			return createErr
		}
		if _, grantErr := roles.NewRepository(tx).Grant(ctx, user.ID, DefaultRole); grantErr != nil {
			return grantErr
		}
		created = user
		return nil
	})
	if err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, s.duplicateError(ctx, in)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create user")
	}

	s.provisionAvatar(ctx, created)

	full, err := s.userRepo().FindByID(ctx, created.ID)
	if err != nil {
		return created, nil
	}
	return full, nil
}

// Verify resolves the identifier (username first, then email) and checks the
// password. Only active accounts authenticate.
func (s *Service) Verify(ctx context.Context, identifier, password string) (*models.User, error) {
	user, err := s.userRepo().FindByIdentifier(ctx, identifier)
	if err == gorm.ErrRecordNotFound {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "resolve identifier")
	}

	ok, err := security.VerifyPassword(password, user.PasswordHash)
	if err != nil || !ok {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
	}
	if !user.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
	}
	return user, nil
}

// SetPassword replaces the stored hash. Existing sessions stay valid.
func (s *Service) SetPassword(ctx context.Context, userID uuid.UUID, newPassword string) error {
	hash, err := security.HashPassword(newPassword, s.passwordCfg)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "hash password")
	}
	return s.userRepo().SetPasswordHash(ctx, userID, hash)
}

// ChangePassword rotates the caller's own credential after verifying the
// current one.
func (s *Service) ChangePassword(ctx context.Context, userID uuid.UUID, current, next string) error {
	user, err := s.userRepo().FindByID(ctx, userID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return pkgerrors.New(pkgerrors.CodeUnauthorized, "current password is incorrect")
		}
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load user")
	}

	ok, err := security.VerifyPassword(current, user.PasswordHash)
	if err != nil || !ok {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "current password is incorrect")
	}
	return s.SetPassword(ctx, userID, next)
}

// UpdateAvatar replaces the stored avatar with the uploaded image and records
// the new URL. Stale variants under other extensions are removed first so the
// old image cannot shadow the new one.
func (s *Service) UpdateAvatar(ctx context.Context, userID uuid.UUID, data []byte, contentType string) (string, error) {
	if _, err := s.userRepo().FindByID(ctx, userID); err != nil {
		if err == gorm.ErrRecordNotFound {
			return "", pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
		}
		return "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load user")
	}

	s.cleanupAvatars(ctx, userID)

	url, err := s.avatars.Store(ctx, userID, data, contentType)
	if err != nil {
		return "", err
	}
	if err := s.userRepo().SetAvatarURL(ctx, userID, &url); err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "store avatar url")
	}
	return url, nil
}

// UpdateProfile sets the optional name fields and returns the refreshed user.
func (s *Service) UpdateProfile(ctx context.Context, userID uuid.UUID, firstName, lastName *string) (*models.User, error) {
	repo := s.userRepo()
	if _, err := repo.FindByID(ctx, userID); err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load user")
	}
	if err := repo.UpdateProfile(ctx, userID, firstName, lastName); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update profile")
	}
	return repo.FindByID(ctx, userID)
}

// Activate re-enables a deactivated account. False means user not found.
func (s *Service) Activate(ctx context.Context, userID uuid.UUID) (bool, error) {
	return s.setActive(ctx, userID, true)
}

// Deactivate soft-disables the account. False means user not found.
func (s *Service) Deactivate(ctx context.Context, userID uuid.UUID) (bool, error) {
	return s.setActive(ctx, userID, false)
}

func (s *Service) setActive(ctx context.Context, userID uuid.UUID, active bool) (bool, error) {
	repo := s.userRepo()
	if _, err := repo.FindByID(ctx, userID); err != nil {
		if err == gorm.ErrRecordNotFound {
			return false, nil
		}
		return false, err
	}
	if err := repo.SetActive(ctx, userID, active); err != nil {
		return false, err
	}
	return true, nil
}

// Anonymize scrubs all PII from the target account inside one transaction:
// owned projects and sessions are deleted, identity fields are replaced with
// placeholders, the credential is scrambled and the account is deactivated.
// Self-anonymization is refused. A missing or already-anonymized target
// reports false with no effect.
func (s *Service) Anonymize(ctx context.Context, actorID, targetID uuid.UUID) (bool, error) {
	if actorID == targetID {
		return false, pkgerrors.New(pkgerrors.CodeForbidden, "cannot anonymize your own account")
	}

	user, err := s.userRepo().FindByID(ctx, targetID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return false, nil
		}
		return false, err
	}
	if user.IsAnonymized {
		return false, nil
	}

	s.cleanupAvatars(ctx, targetID)

	scrambled, err := security.ScrambledHash(s.passwordCfg)
	if err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "scramble credential")
	}
	anonEmail := fmt.Sprintf("anonymized_%s@deleted.local", targetID)

	err = s.db.WithRetryTx(ctx, s.retry, func(tx *gorm.DB) error {
		if _, txErr := projects.NewRepository(tx).DeleteAllForOwner(ctx, targetID); txErr != nil {
			return txErr
		}
		if _, txErr := sessions.NewRepository(tx).DeleteAllForUser(ctx, targetID); txErr != nil {
			return txErr
		}

		userRepo := users.NewRepository(tx)
		anonUsername, txErr := generateAnonUsername(ctx, userRepo, targetID)
		if txErr != nil {
			return txErr
		}
		return userRepo.AnonymizeFields(ctx, targetID, anonEmail, anonUsername, scrambled)
	})
	if err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "anonymize user")
	}

	s.logg.Info(s.logg.WithField(ctx, "user_id", targetID), "account anonymized")
	return true, nil
}

// Delete hard-removes the target account. Owned projects go first, then the
// user row; sessions and role links fall to the schema cascade. Self-deletion
// is refused.
func (s *Service) Delete(ctx context.Context, actorID, targetID uuid.UUID) (bool, error) {
	if actorID == targetID {
		return false, pkgerrors.New(pkgerrors.CodeForbidden, "cannot delete your own account")
	}

	if _, err := s.userRepo().FindByID(ctx, targetID); err != nil {
		if err == gorm.ErrRecordNotFound {
			return false, nil
		}
		return false, err
	}

	s.cleanupAvatars(ctx, targetID)

	err := s.db.WithRetryTx(ctx, s.retry, func(tx *gorm.DB) error {
		if _, txErr := projects.NewRepository(tx).DeleteAllForOwner(ctx, targetID); txErr != nil {
			return txErr
		}
		return users.NewRepository(tx).Delete(ctx, targetID)
	})
	if err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "delete user")
	}

	s.logg.Info(s.logg.WithField(ctx, "user_id", targetID), "account deleted")
	return true, nil
}

func (s *Service) userRepo() *users.Repository {
	return users.NewRepository(s.db.DB())
}

func (s *Service) provisionAvatar(ctx context.Context, user *models.User) {
	if user == nil || !s.avatars.Configured() {
		return
	}
	url, err := s.avatars.ProvisionInitial(ctx, user.ID)
	if err != nil {
		s.logg.Warn(s.logg.WithField(ctx, "user_id", user.ID), "initial avatar provisioning failed")
		return
	}
	if url == nil {
		return
	}
	if err := s.userRepo().SetAvatarURL(ctx, user.ID, url); err != nil {
		s.logg.Warn(s.logg.WithField(ctx, "user_id", user.ID), "storing avatar url failed")
		return
	}
	user.AvatarURL = url
}

func (s *Service) cleanupAvatars(ctx context.Context, userID uuid.UUID) {
	if !s.avatars.Configured() {
		return
	}
	if err := s.avatars.DeleteAllForUser(ctx, userID); err != nil {
		s.logg.Warn(s.logg.WithField(ctx, "user_id", userID), "avatar blob cleanup failed")
	}
}

func (s *Service) duplicateError(ctx context.Context, in RegisterInput) error {
	if _, err := s.userRepo().FindByEmail(ctx, in.Email); err == nil {
		return pkgerrors.New(pkgerrors.CodeConflict, "email is already registered")
	}
	return pkgerrors.New(pkgerrors.CodeConflict, "username is already taken")
}
