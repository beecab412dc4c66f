package service

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"go.uber.org/zap"
	"gorm.io/gorm"

	authdomain "github.com/AndreaSpaggiari/sito-andrea/internal/auth/domain"
	authrepo "github.com/AndreaSpaggiari/sito-andrea/internal/auth/repository"
	"github.com/AndreaSpaggiari/sito-andrea/internal/clock"
)

func newTestService(t *testing.T) (authdomain.Service, *clock.FakeClock) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	for _, ddl := range []string{
		`CREATE TABLE users (
			id INTEGER PRIMARY KEY,
			email TEXT NOT NULL UNIQUE,
			display_name TEXT NOT NULL,
			role TEXT NOT NULL,
			password_hash TEXT,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL
		)`,
		`CREATE TABLE sessions (
			id INTEGER PRIMARY KEY,
			user_id INTEGER NOT NULL,
			token_hash TEXT NOT NULL UNIQUE,
			user_agent TEXT,
			ip_address TEXT,
			expires_at DATETIME NOT NULL,
			revoked_at DATETIME,
			created_at DATETIME NOT NULL,
			last_seen_at DATETIME NOT NULL
		)`,
	} {
		if err := db.Exec(ddl).Error; err != nil {
			t.Fatalf("create table: %v", err)
		}
	}

	node, err := snowflake.NewNode(6)
	if err != nil {
		t.Fatalf("snowflake node: %v", err)
	}

	fake := clock.NewFakeClock(time.Date(2024, 6, 10, 8, 0, 0, 0, time.UTC))
	svc := New(Params{
		DB:    db,
		Log:   zap.NewNop(),
		Clock: fake,
		GenID: node,
		Repo:  authrepo.Provide(),
	})
	return svc, fake
}

func TestEnsureProfileCreatesOnce(t *testing.T) {
	svc, _ := newTestService(t)

	first, err := svc.EnsureProfile(context.Background(), authdomain.EnsureProfileRequest{
		Email:       "Anna@Example.com",
		DisplayName: "Anna",
		Password:    "correct-horse",
		Role:        authdomain.RoleOperator,
	})
	if err != nil {
		t.Fatalf("ensure profile: %v", err)
	}
	if first.Email != "anna@example.com" {
		t.Fatalf("email must normalize, got %q", first.Email)
	}
	if first.Role != authdomain.RoleOperator {
		t.Fatalf("role = %s", first.Role)
	}

	again, err := svc.EnsureProfile(context.Background(), authdomain.EnsureProfileRequest{
		Email: "anna@example.com",
		Role:  authdomain.RoleAdmin,
	})
	if err != nil {
		t.Fatalf("ensure profile again: %v", err)
	}
	if again.ID != first.ID {
		t.Fatalf("second call must return the existing account")
	}
	if again.Role != authdomain.RoleOperator {
		t.Fatalf("an existing account must not be modified, role = %s", again.Role)
	}
}

func TestEnsureProfileDefaultsDisplayName(t *testing.T) {
	svc, _ := newTestService(t)

	user, err := svc.EnsureProfile(context.Background(), authdomain.EnsureProfileRequest{
		Email: "bruno@example.com",
	})
	if err != nil {
		t.Fatalf("ensure profile: %v", err)
	}
	if user.DisplayName != "bruno" {
		t.Fatalf("display name = %q, want local part of email", user.DisplayName)
	}
	if user.Role != authdomain.RoleMember {
		t.Fatalf("role = %s, want member default", user.Role)
	}
}

func TestLoginAndAuthenticate(t *testing.T) {
	svc, _ := newTestService(t)

	if _, err := svc.EnsureProfile(context.Background(), authdomain.EnsureProfileRequest{
		Email:    "anna@example.com",
		Password: "correct-horse",
	}); err != nil {
		t.Fatalf("ensure profile: %v", err)
	}

	result, err := svc.Login(context.Background(), authdomain.LoginRequest{
		Email:    "anna@example.com",
		Password: "correct-horse",
	})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if result.RawToken == "" {
		t.Fatalf("login must issue a token")
	}

	user, err := svc.Authenticate(context.Background(), result.RawToken)
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if user.Email != "anna@example.com" {
		t.Fatalf("authenticated user = %+v", user)
	}
}

func TestLoginRejectsWrongPassword(t *testing.T) {
	svc, _ := newTestService(t)

	if _, err := svc.EnsureProfile(context.Background(), authdomain.EnsureProfileRequest{
		Email:    "anna@example.com",
		Password: "correct-horse",
	}); err != nil {
		t.Fatalf("ensure profile: %v", err)
	}

	if _, err := svc.Login(context.Background(), authdomain.LoginRequest{
		Email:    "anna@example.com",
		Password: "wrong",
	}); err != authdomain.ErrInvalidCredentials {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if _, err := svc.Login(context.Background(), authdomain.LoginRequest{
		Email:    "nobody@example.com",
		Password: "whatever",
	}); err != authdomain.ErrInvalidCredentials {
		t.Fatalf("unknown user must read as invalid credentials, got %v", err)
	}
}

func TestAuthenticateExpiredSession(t *testing.T) {
	svc, fake := newTestService(t)

	if _, err := svc.EnsureProfile(context.Background(), authdomain.EnsureProfileRequest{
		Email:    "anna@example.com",
		Password: "correct-horse",
	}); err != nil {
		t.Fatalf("ensure profile: %v", err)
	}
	result, err := svc.Login(context.Background(), authdomain.LoginRequest{
		Email:    "anna@example.com",
		Password: "correct-horse",
	})
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	fake.Advance(8 * 24 * time.Hour)
	if _, err := svc.Authenticate(context.Background(), result.RawToken); err != authdomain.ErrSessionExpired {
		t.Fatalf("expected ErrSessionExpired, got %v", err)
	}
}

func TestLogoutRevokesSession(t *testing.T) {
	svc, _ := newTestService(t)

	if _, err := svc.EnsureProfile(context.Background(), authdomain.EnsureProfileRequest{
		Email:    "anna@example.com",
		Password: "correct-horse",
	}); err != nil {
		t.Fatalf("ensure profile: %v", err)
	}
	result, err := svc.Login(context.Background(), authdomain.LoginRequest{
		Email:    "anna@example.com",
		Password: "correct-horse",
	})
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	if err := svc.Logout(context.Background(), result.RawToken); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if _, err := svc.Authenticate(context.Background(), result.RawToken); err != authdomain.ErrInvalidCredentials {
		t.Fatalf("revoked token must not authenticate, got %v", err)
	}
}
