package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/atriumhq/atrium-backend/internal/accounts"
	"github.com/atriumhq/atrium-backend/internal/sessions"
	"github.com/atriumhq/atrium-backend/internal/users"
	pkgauth "github.com/atriumhq/atrium-backend/pkg/auth"
	"github.com/atriumhq/atrium-backend/pkg/config"
	"github.com/atriumhq/atrium-backend/pkg/db/models"
	pkgerrors "github.com/atriumhq/atrium-backend/pkg/errors"
	"github.com/atriumhq/atrium-backend/pkg/logger"
	"github.com/google/uuid"
)

type accountManager interface {
	Register(ctx context.Context, in accounts.RegisterInput) (*models.User, error)
	Verify(ctx context.Context, identifier, password string) (*models.User, error)
}

type sessionTracker interface {
	Start(ctx context.Context, userID uuid.UUID, in sessions.StartInput) (*models.UserSession, error)
	RevokeByToken(ctx context.Context, token string) (bool, error)
	HasActive(ctx context.Context, token string) (bool, error)
}

type lastLoginRecorder interface {
	UpdateLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error
}

// Service glues accounts and sessions into the authentication flow. A login
// starts a tracked session and mints an access token whose jti is the session
// token, so revoking the session invalidates the JWT's standing.
type Service struct {
	accounts accountManager
	sessions sessionTracker
	users    lastLoginRecorder
	jwtCfg   config.JWTConfig
	logg     *logger.Logger
	now      func() time.Time
}

// ServiceParams bundles the dependencies required to build the auth service.
type ServiceParams struct {
	Accounts accountManager
	Sessions sessionTracker
	Users    lastLoginRecorder
	JWT      config.JWTConfig
	Logger   *logger.Logger
	Now      func() time.Time
}

// NewService constructs the auth service.
func NewService(params ServiceParams) (*Service, error) {
	if params.Accounts == nil {
		return nil, fmt.Errorf("accounts service is required")
	}
	if params.Sessions == nil {
		return nil, fmt.Errorf("sessions service is required")
	}
	if params.Users == nil {
		return nil, fmt.Errorf("users repository is required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if params.Now == nil {
		params.Now = time.Now
	}
	return &Service{
		accounts: params.Accounts,
		sessions: params.Sessions,
		users:    params.Users,
		jwtCfg:   params.JWT,
		logg:     params.Logger,
		now:      params.Now,
	}, nil
}

// RegisterRequest is the payload accepted at registration.
type RegisterRequest struct {
	Email     string  `json:"email" validate:"required,email"`
	Username  string  `json:"username" validate:"required,min=3,max=13"`
	Password  string  `json:"password" validate:"required,min=8,max=128"`
	FirstName *string `json:"first_name" validate:"omitempty,max=100"`
	LastName  *string `json:"last_name" validate:"omitempty,max=100"`
}

// LoginRequest is the payload accepted at login. The identifier may be a
// username or an email address.
type LoginRequest struct {
	Identifier string `json:"identifier" validate:"required"`
	Password   string `json:"password" validate:"required"`
}

// LoginResult carries the minted token and the authenticated user.
type LoginResult struct {
	AccessToken string               `json:"access_token"`
	ExpiresAt   time.Time            `json:"expires_at"`
	User        *users.UserDTO       `json:"user"`
	Session     *sessions.SessionDTO `json:"session"`
}

// Register creates the account and returns its public representation.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (*users.UserDTO, error) {
	user, err := s.accounts.Register(ctx, accounts.RegisterInput{
		Email:     req.Email,
		Username:  req.Username,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
	})
	if err != nil {
		return nil, err
	}
	return users.FromModel(user), nil
}

// Login verifies the credentials, starts a tracked session and mints an
// access token bound to it.
func (s *Service) Login(ctx context.Context, req LoginRequest, reqCtx sessions.RequestContext) (*LoginResult, error) {
	user, err := s.accounts.Verify(ctx, req.Identifier, req.Password)
	if err != nil {
		return nil, err
	}

	jti := uuid.NewString()
	session, err := s.sessions.Start(ctx, user.ID, sessions.StartInput{
		Token:   jti,
		Request: reqCtx,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "start session")
	}

	now := s.now().UTC()
	token, err := pkgauth.MintAccessToken(s.jwtCfg, now, pkgauth.AccessTokenPayload{
		UserID:   user.ID,
		Username: user.Username,
		Roles:    roleNames(user),
		JTI:      jti,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint access token")
	}

	if err := s.users.UpdateLastLogin(ctx, user.ID, now); err != nil {
		s.logg.Warn(s.logg.WithUserID(ctx, user.ID.String()), "recording last login failed")
	}

	s.logg.Info(s.logg.WithUserID(ctx, user.ID.String()), "user logged in")
	return &LoginResult{
		AccessToken: token,
		ExpiresAt:   now.Add(s.jwtCfg.Expiration()),
		User:        users.FromModel(user),
		Session:     sessions.FromModel(session),
	}, nil
}

// Logout deactivates the session bound to the token's jti. A false result
// means the session was already gone.
func (s *Service) Logout(ctx context.Context, sessionToken string) (bool, error) {
	return s.sessions.RevokeByToken(ctx, sessionToken)
}

// HasSession reports whether the jti still maps to an active session.
func (s *Service) HasSession(ctx context.Context, sessionToken string) (bool, error) {
	return s.sessions.HasActive(ctx, sessionToken)
}

func roleNames(user *models.User) []string {
	names := make([]string, 0, len(user.Roles))
	for _, role := range user.Roles {
		names = append(names, role.Name)
	}
	return names
}
