package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"fahrerexpress/pkg/apperrors"
	"fahrerexpress/pkg/logger"
	"fahrerexpress/pkg/models"
	"fahrerexpress/storage/memory"
)

const testSecret = "test-secret"

func newGuard(t *testing.T) (*Guard, *memory.Store) {
	t.Helper()
	store := memory.New()
	return NewGuard(NewJWTVerifier(testSecret), store.Role(), logger.NewNop()), store
}

func TestAuthorize(t *testing.T) {
	ctx := context.Background()
	guard, store := newGuard(t)
	if err := store.Role().Grant(ctx, "admin-1", models.RoleAdmin); err != nil {
		t.Fatal(err)
	}

	adminToken, _ := IssueToken(testSecret, "admin-1", "chef@fahrerexpress.de", time.Hour)
	userToken, _ := IssueToken(testSecret, "user-1", "fahrer@example.de", time.Hour)
	expiredToken, _ := IssueToken(testSecret, "admin-1", "chef@fahrerexpress.de", -time.Minute)
	foreignToken, _ := IssueToken("other-secret", "admin-1", "chef@fahrerexpress.de", time.Hour)

	tests := []struct {
		name   string
		header string
		want   apperrors.Code
	}{
		{"missing header", "", apperrors.CodeUnauthorized},
		{"wrong scheme", "Basic " + adminToken, apperrors.CodeUnauthorized},
		{"not a jwt", "Bearer abc", apperrors.CodeUnauthorized},
		{"expired", "Bearer " + expiredToken, apperrors.CodeUnauthorized},
		{"bad signature", "Bearer " + foreignToken, apperrors.CodeUnauthorized},
		{"valid non-admin", "Bearer " + userToken, apperrors.CodeForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := guard.Authorize(ctx, tt.header)
			if got := apperrors.CodeOf(err); got != tt.want {
				t.Fatalf("got %s (%v), want %s", got, err, tt.want)
			}
		})
	}

	identity, err := guard.Authorize(ctx, "Bearer "+adminToken)
	if err != nil {
		t.Fatalf("admin rejected: %v", err)
	}
	if identity.UserID != "admin-1" || identity.Email != "chef@fahrerexpress.de" {
		t.Fatalf("unexpected identity %+v", identity)
	}
}

func TestAuthorizeRechecksRoleEveryCall(t *testing.T) {
	ctx := context.Background()
	guard, store := newGuard(t)
	token, _ := IssueToken(testSecret, "u-2", "neu@fahrerexpress.de", time.Hour)

	if _, err := guard.Authorize(ctx, "Bearer "+token); apperrors.CodeOf(err) != apperrors.CodeForbidden {
		t.Fatalf("expected forbidden before grant, got %v", err)
	}
	_ = store.Role().Grant(ctx, "u-2", models.RoleAdmin)
	if _, err := guard.Authorize(ctx, "Bearer "+token); err != nil {
		t.Fatalf("expected success after grant, got %v", err)
	}
}

type failingRoles struct{}

func (failingRoles) HasRole(context.Context, string, string) (bool, error) {
	return false, errors.New("connection refused")
}
func (failingRoles) Grant(context.Context, string, string) error { return nil }

func TestAuthorizeRoleStoreFailureIsInternal(t *testing.T) {
	guard := NewGuard(NewJWTVerifier(testSecret), failingRoles{}, logger.NewNop())
	token, _ := IssueToken(testSecret, "u-3", "", time.Hour)

	_, err := guard.Authorize(context.Background(), "Bearer "+token)
	if apperrors.CodeOf(err) != apperrors.CodeInternal {
		t.Fatalf("expected internal, got %v", err)
	}
}
