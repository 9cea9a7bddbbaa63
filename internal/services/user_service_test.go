package services

import (
	"context"
	"testing"
	"time"

	"taxibackend/internal/domain"
	"taxibackend/internal/domain/models"
)

func testTokens() Tokens {
	return Tokens{Secret: []byte("test-secret"), TTL: time.Hour, Now: fixedNow}
}

func TestSignupForcesPassengerRoleAndLogin(t *testing.T) {
	store := newMemStore()
	svc := UserService{Store: store, Tokens: testTokens()}
	ctx := context.Background()

	u, err := svc.Signup(ctx, models.UserCreate{Email: " New@Example.com", Password: "s3cretpass", Role: domain.RoleAdmin})
	if err != nil {
		t.Fatalf("signup error: %v", err)
	}
	if u.Role != domain.RolePassenger || u.Email != "new@example.com" {
		t.Fatalf("unexpected user %+v", u)
	}
	if u.PasswordHash == "s3cretpass" || u.PasswordHash == "" {
		t.Fatalf("expected hashed password")
	}

	res, err := svc.Login(ctx, "new@example.com", "s3cretpass")
	if err != nil {
		t.Fatalf("login error: %v", err)
	}
	rc, err := svc.Tokens.Parse(res.AccessToken)
	if err != nil {
		t.Fatalf("parse token error: %v", err)
	}
	if rc.UserID != u.ID || rc.Role != domain.RolePassenger {
		t.Fatalf("unexpected claims %+v", rc)
	}

	if _, err := svc.Login(ctx, "new@example.com", "wrong-pass"); !domain.IsUnauthorized(err) {
		t.Fatalf("expected unauthorized, got %v", err)
	}
	if _, err := svc.Login(ctx, "nobody@example.com", "s3cretpass"); !domain.IsUnauthorized(err) {
		t.Fatalf("expected unauthorized for unknown email, got %v", err)
	}
	if _, err := svc.Signup(ctx, models.UserCreate{Email: "new@example.com", Password: "another-pass"}); !domain.IsConflict(err) {
		t.Fatalf("expected conflict on duplicate email, got %v", err)
	}
}

func TestLoginRejectsInactiveUser(t *testing.T) {
	store := newMemStore()
	svc := UserService{Store: store, Tokens: testTokens()}
	ctx := context.Background()

	u, err := svc.Create(ctx, models.UserCreate{Email: "old@example.com", Password: "s3cretpass"})
	if err != nil {
		t.Fatalf("create error: %v", err)
	}
	inactive := false
	if _, err := svc.Update(ctx, u.ID, models.UserUpdate{IsActive: &inactive}); err != nil {
		t.Fatalf("update error: %v", err)
	}
	if _, err := svc.Login(ctx, "old@example.com", "s3cretpass"); !domain.IsForbidden(err) {
		t.Fatalf("expected forbidden for inactive user, got %v", err)
	}
}

func TestTokensRejectExpiredAndForeign(t *testing.T) {
	issuer := testTokens()
	token, err := issuer.Issue(models.User{ID: 7, Role: domain.RoleAdmin})
	if err != nil {
		t.Fatalf("issue error: %v", err)
	}

	later := issuer
	later.Now = func() time.Time { return fixedNow().Add(2 * time.Hour) }
	if _, err := later.Parse(token); !domain.IsUnauthorized(err) {
		t.Fatalf("expected expired token to be rejected, got %v", err)
	}

	other := issuer
	other.Secret = []byte("different")
	if _, err := other.Parse(token); !domain.IsUnauthorized(err) {
		t.Fatalf("expected foreign signature to be rejected, got %v", err)
	}
}

func TestUserUpdateAndDelete(t *testing.T) {
	store := newMemStore()
	admin := store.addUser("admin@example.com", domain.RoleAdmin)
	taken := store.addUser("taken@example.com", domain.RolePassenger)
	target := store.addUser("target@example.com", domain.RolePassenger)
	svc := UserService{Store: store, Tokens: testTokens()}
	ctx := context.Background()
	adminRC := domain.RequestContext{UserID: admin.ID, Role: domain.RoleAdmin}

	dup := taken.Email
	if _, err := svc.Update(ctx, target.ID, models.UserUpdate{Email: &dup}); !domain.IsConflict(err) {
		t.Fatalf("expected conflict, got %v", err)
	}
	role := "superuser"
	if _, err := svc.Update(ctx, target.ID, models.UserUpdate{Role: &role}); !domain.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if err := svc.Delete(ctx, adminRC, admin.ID); !domain.IsForbidden(err) {
		t.Fatalf("expected forbidden self delete, got %v", err)
	}
	if err := svc.Delete(ctx, adminRC, target.ID); err != nil {
		t.Fatalf("delete error: %v", err)
	}
	if _, err := svc.Get(ctx, adminRC, target.ID); !domain.IsNotFound(err) {
		t.Fatalf("expected deleted user to be gone, got %v", err)
	}
	if _, err := svc.Get(ctx, domain.RequestContext{UserID: taken.ID, Role: domain.RolePassenger}, admin.ID); !domain.IsForbidden(err) {
		t.Fatalf("expected passengers to be limited to themselves, got %v", err)
	}
}
