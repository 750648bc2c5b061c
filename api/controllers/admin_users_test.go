package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/atriumhq/atrium-backend/internal/users"
	"github.com/atriumhq/atrium-backend/pkg/db/models"
	pkgerrors "github.com/atriumhq/atrium-backend/pkg/errors"
	"github.com/atriumhq/atrium-backend/pkg/pagination"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type stubAdminUserStore struct {
	rows       []models.User
	nextCursor string
	user       *models.User
	err        error

	listParams pagination.Params
}

func (s *stubAdminUserStore) List(ctx context.Context, params pagination.Params) ([]models.User, string, error) {
	s.listParams = params
	return s.rows, s.nextCursor, s.err
}

func (s *stubAdminUserStore) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	if s.user == nil {
		return nil, gorm.ErrRecordNotFound
	}
	return s.user, s.err
}

type stubAccountLifecycle struct {
	result bool
	err    error

	calls []string
}

func (s *stubAccountLifecycle) Activate(ctx context.Context, userID uuid.UUID) (bool, error) {
	s.calls = append(s.calls, "activate")
	return s.result, s.err
}

func (s *stubAccountLifecycle) Deactivate(ctx context.Context, userID uuid.UUID) (bool, error) {
	s.calls = append(s.calls, "deactivate")
	return s.result, s.err
}

func (s *stubAccountLifecycle) Anonymize(ctx context.Context, actorID, targetID uuid.UUID) (bool, error) {
	s.calls = append(s.calls, "anonymize")
	return s.result, s.err
}

func (s *stubAccountLifecycle) Delete(ctx context.Context, actorID, targetID uuid.UUID) (bool, error) {
	s.calls = append(s.calls, "delete")
	return s.result, s.err
}

type stubRoleManager struct {
	granted bool
	revoked bool
	err     error

	grants  []string
	revokes []string
}

func (s *stubRoleManager) Grant(ctx context.Context, userID uuid.UUID, roleName string) (bool, error) {
	s.grants = append(s.grants, roleName)
	return s.granted, s.err
}

func (s *stubRoleManager) Revoke(ctx context.Context, userID uuid.UUID, roleName string) (bool, error) {
	s.revokes = append(s.revokes, roleName)
	return s.revoked, s.err
}

func TestAdminUserListPagination(t *testing.T) {
	store := &stubAdminUserStore{
		rows:       []models.User{{ID: uuid.New(), Username: "adal"}},
		nextCursor: "cursor-2",
	}
	handler := AdminUserList(store, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/admin/v1/users?limit=5&cursor=cursor-1", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}
	if store.listParams.Limit != 5 || store.listParams.Cursor != "cursor-1" {
		t.Fatalf("expected pagination params forwarded, got %+v", store.listParams)
	}

	var envelope struct {
		Data struct {
			Users      []users.UserDTO `json:"users"`
			NextCursor string          `json:"next_cursor"`
		} `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(envelope.Data.Users) != 1 || envelope.Data.NextCursor != "cursor-2" {
		t.Fatalf("unexpected page: %+v", envelope.Data)
	}
}

func TestAdminUserListLimitOutOfRange(t *testing.T) {
	handler := AdminUserList(&stubAdminUserStore{}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/admin/v1/users?limit=5000", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", rec.Code)
	}
}

func TestAdminUserGetNotFound(t *testing.T) {
	handler := AdminUserGet(&stubAdminUserStore{}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/admin/v1/users/x", nil)
	req = withURLParam(req, "userId", uuid.New().String())
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", rec.Code)
	}
}

func TestAdminUserActivateUnknownUser(t *testing.T) {
	svc := &stubAccountLifecycle{result: false}
	handler := AdminUserActivate(svc, nil)

	req := withURLParam(httptest.NewRequest(http.MethodPost, "/x", nil), "userId", uuid.New().String())
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", rec.Code)
	}
	if len(svc.calls) != 1 || svc.calls[0] != "activate" {
		t.Fatalf("expected one activate call, got %v", svc.calls)
	}
}

func TestAdminUserDeactivateSuccess(t *testing.T) {
	svc := &stubAccountLifecycle{result: true}
	handler := AdminUserDeactivate(svc, nil)

	req := withURLParam(httptest.NewRequest(http.MethodPost, "/x", nil), "userId", uuid.New().String())
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}
}

func TestAdminUserAnonymizeSelfForbidden(t *testing.T) {
	adminID := uuid.New()
	svc := &stubAccountLifecycle{err: pkgerrors.New(pkgerrors.CodeForbidden, "cannot anonymize your own account")}
	handler := AdminUserAnonymize(svc, nil)

	req := authedRequest(http.MethodPost, "/x", adminID)
	req = withURLParam(req, "userId", adminID.String())
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 got %d", rec.Code)
	}
}

func TestAdminUserDeleteSuccess(t *testing.T) {
	svc := &stubAccountLifecycle{result: true}
	handler := AdminUserDelete(svc, nil)

	req := authedRequest(http.MethodDelete, "/x", uuid.New())
	req = withURLParam(req, "userId", uuid.New().String())
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}
	if len(svc.calls) != 1 || svc.calls[0] != "delete" {
		t.Fatalf("expected one delete call, got %v", svc.calls)
	}
}

func TestAdminRoleGrant(t *testing.T) {
	roles := &stubRoleManager{granted: true}
	handler := AdminRoleGrant(roles, nil)

	payload := []byte(`{"name":"moderator"}`)
	req := httptest.NewRequest(http.MethodPost, "/x", bytes.NewReader(payload))
	req = withURLParam(req, "userId", uuid.New().String())
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}
	if len(roles.grants) != 1 || roles.grants[0] != "moderator" {
		t.Fatalf("expected grant of moderator, got %v", roles.grants)
	}
}

func TestAdminRoleGrantValidation(t *testing.T) {
	handler := AdminRoleGrant(&stubRoleManager{}, nil)

	req := httptest.NewRequest(http.MethodPost, "/x", bytes.NewReader([]byte(`{}`)))
	req = withURLParam(req, "userId", uuid.New().String())
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", rec.Code)
	}
}

func TestAdminRoleRevokeNotHeld(t *testing.T) {
	roles := &stubRoleManager{revoked: false}
	handler := AdminRoleRevoke(roles, nil)

	routeCtx := chi.NewRouteContext()
	routeCtx.URLParams.Add("userId", uuid.New().String())
	routeCtx.URLParams.Add("roleName", "moderator")
	req := httptest.NewRequest(http.MethodDelete, "/x", nil)
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, routeCtx))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", rec.Code)
	}
	if len(roles.revokes) != 1 || roles.revokes[0] != "moderator" {
		t.Fatalf("expected revoke of moderator, got %v", roles.revokes)
	}
}
