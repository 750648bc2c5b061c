package auth

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/atriumhq/atrium-backend/internal/accounts"
	"github.com/atriumhq/atrium-backend/internal/sessions"
	pkgauth "github.com/atriumhq/atrium-backend/pkg/auth"
	"github.com/atriumhq/atrium-backend/pkg/config"
	"github.com/atriumhq/atrium-backend/pkg/db/models"
	pkgerrors "github.com/atriumhq/atrium-backend/pkg/errors"
	"github.com/atriumhq/atrium-backend/pkg/logger"
	"github.com/google/uuid"
)

type fakeAccounts struct {
	user      *models.User
	verifyErr error
}

func (f *fakeAccounts) Register(ctx context.Context, in accounts.RegisterInput) (*models.User, error) {
	return f.user, nil
}

func (f *fakeAccounts) Verify(ctx context.Context, identifier, password string) (*models.User, error) {
	if f.verifyErr != nil {
		return nil, f.verifyErr
	}
	return f.user, nil
}

type fakeSessions struct {
	startedToken string
	revoked      []string
	active       bool
}

func (f *fakeSessions) Start(ctx context.Context, userID uuid.UUID, in sessions.StartInput) (*models.UserSession, error) {
	f.startedToken = in.Token
	return &models.UserSession{
		ID:           uuid.New(),
		UserID:       userID,
		SessionToken: in.Token,
		DeviceType:   models.DeviceDesktop,
		IsActive:     true,
		IsCurrent:    true,
	}, nil
}

func (f *fakeSessions) RevokeByToken(ctx context.Context, token string) (bool, error) {
	f.revoked = append(f.revoked, token)
	return true, nil
}

func (f *fakeSessions) HasActive(ctx context.Context, token string) (bool, error) {
	return f.active, nil
}

type fakeLastLogin struct {
	recorded []uuid.UUID
}

func (f *fakeLastLogin) UpdateLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error {
	f.recorded = append(f.recorded, id)
	return nil
}

func testJWTConfig() config.JWTConfig {
	return config.JWTConfig{Secret: "auth-test-secret", Issuer: "atrium-test", ExpirationMinutes: 15}
}

func newTestAuth(t *testing.T, acct *fakeAccounts, sess *fakeSessions, logins *fakeLastLogin) *Service {
	t.Helper()
	svc, err := NewService(ServiceParams{
		Accounts: acct,
		Sessions: sess,
		Users:    logins,
		JWT:      testJWTConfig(),
		Logger:   logger.New(logger.Options{ServiceName: "auth-test", Output: io.Discard}),
	})
	if err != nil {
		t.Fatalf("NewService failed: %v", err)
	}
	return svc
}

func activeUser() *models.User {
	return &models.User{
		ID:       uuid.New(),
		Email:    "ada@example.com",
		Username: "adal",
		IsActive: true,
		Roles:    []models.Role{{ID: uuid.New(), Name: "user"}},
	}
}

func TestLoginBindsTokenToTrackedSession(t *testing.T) {
	user := activeUser()
	acct := &fakeAccounts{user: user}
	sess := &fakeSessions{}
	logins := &fakeLastLogin{}
	svc := newTestAuth(t, acct, sess, logins)

	result, err := svc.Login(context.Background(), LoginRequest{Identifier: "adal", Password: "pw"}, sessions.RequestContext{IP: "203.0.113.9"})
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if result.AccessToken == "" {
		t.Fatal("expected a minted token")
	}

	claims, err := pkgauth.ParseAccessToken(testJWTConfig(), result.AccessToken)
	if err != nil {
		t.Fatalf("minted token must parse: %v", err)
	}
	if claims.ID == "" || claims.ID != sess.startedToken {
		t.Fatalf("token jti %q must equal the tracked session token %q", claims.ID, sess.startedToken)
	}
	if claims.UserID != user.ID {
		t.Fatalf("unexpected user id in claims: %s", claims.UserID)
	}
	if !claims.HasRole("user") {
		t.Fatalf("expected roles carried into claims, got %v", claims.Roles)
	}

	if len(logins.recorded) != 1 || logins.recorded[0] != user.ID {
		t.Fatalf("expected last login recorded, got %v", logins.recorded)
	}
	if result.User == nil || result.User.Email != "ada@example.com" {
		t.Fatalf("unexpected user payload: %+v", result.User)
	}
	if result.Session == nil || !result.Session.IsCurrent {
		t.Fatal("expected the started session in the result")
	}
	if result.ExpiresAt.IsZero() {
		t.Fatal("expected an expiry timestamp")
	}
}

func TestLoginPropagatesBadCredentials(t *testing.T) {
	acct := &fakeAccounts{verifyErr: pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid credentials")}
	sess := &fakeSessions{}
	svc := newTestAuth(t, acct, sess, &fakeLastLogin{})

	_, err := svc.Login(context.Background(), LoginRequest{Identifier: "adal", Password: "bad"}, sessions.RequestContext{})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeUnauthorized {
		t.Fatalf("expected unauthorized, got %v", err)
	}
	if sess.startedToken != "" {
		t.Fatal("no session may be started for rejected credentials")
	}
}

func TestLogoutRevokesSessionToken(t *testing.T) {
	sess := &fakeSessions{}
	svc := newTestAuth(t, &fakeAccounts{user: activeUser()}, sess, &fakeLastLogin{})

	ok, err := svc.Logout(context.Background(), "some-jti")
	if err != nil || !ok {
		t.Fatalf("Logout failed: ok=%v err=%v", ok, err)
	}
	if len(sess.revoked) != 1 || sess.revoked[0] != "some-jti" {
		t.Fatalf("expected the jti revoked, got %v", sess.revoked)
	}
}

func TestHasSessionReflectsTracker(t *testing.T) {
	sess := &fakeSessions{active: true}
	svc := newTestAuth(t, &fakeAccounts{user: activeUser()}, sess, &fakeLastLogin{})

	ok, err := svc.HasSession(context.Background(), "jti")
	if err != nil || !ok {
		t.Fatalf("expected active session, got ok=%v err=%v", ok, err)
	}

	sess.active = false
	ok, err = svc.HasSession(context.Background(), "jti")
	if err != nil || ok {
		t.Fatalf("expected inactive session, got ok=%v err=%v", ok, err)
	}
}
