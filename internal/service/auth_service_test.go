package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"mylover-shop/internal/domain"
	"mylover-shop/internal/repository"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

type mockUserRepository struct {
	byEmail  map[string]*domain.User
	byID     map[uuid.UUID]*domain.User
	upserted *domain.User
}

func newMockUserRepository() *mockUserRepository {
	return &mockUserRepository{
		byEmail: make(map[string]*domain.User),
		byID:    make(map[uuid.UUID]*domain.User),
	}
}

func (m *mockUserRepository) add(user *domain.User) {
	m.byEmail[user.Email] = user
	m.byID[user.ID] = user
}

func (m *mockUserRepository) Create(ctx context.Context, user *domain.User) error {
	if _, ok := m.byEmail[user.Email]; ok {
		return repository.ErrUserAlreadyExists
	}
	m.add(user)
	return nil
}

func (m *mockUserRepository) Upsert(ctx context.Context, user *domain.User) error {
	m.upserted = user
	m.add(user)
	return nil
}

func (m *mockUserRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	user, ok := m.byEmail[email]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	return user, nil
}

func (m *mockUserRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	user, ok := m.byID[id]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	return user, nil
}

type mockRefreshTokenRepository struct {
	tokens map[string]*domain.RefreshToken
}

func newMockRefreshTokenRepository() *mockRefreshTokenRepository {
	return &mockRefreshTokenRepository{tokens: make(map[string]*domain.RefreshToken)}
}

func (m *mockRefreshTokenRepository) Create(ctx context.Context, token *domain.RefreshToken) error {
	m.tokens[token.Token] = token
	return nil
}

func (m *mockRefreshTokenRepository) FindByToken(ctx context.Context, token string) (*domain.RefreshToken, error) {
	stored, ok := m.tokens[token]
	if !ok {
		return nil, repository.ErrRefreshTokenNotFound
	}
	if stored.Revoked {
		return nil, repository.ErrRefreshTokenRevoked
	}
	return stored, nil
}

func (m *mockRefreshTokenRepository) Revoke(ctx context.Context, token string) error {
	stored, ok := m.tokens[token]
	if !ok {
		return repository.ErrRefreshTokenNotFound
	}
	stored.Revoked = true
	return nil
}

const testJWTSecret = "test-secret"

func seedUser(t *testing.T, users *mockUserRepository, email, password, role string) *domain.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}
	user := &domain.User{
		ID:           uuid.New(),
		Email:        email,
		PasswordHash: string(hash),
		Name:         "Test User",
		Role:         role,
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}
	users.add(user)
	return user
}

func TestLoginIssuesTokensWithRoleClaim(t *testing.T) {
	users := newMockUserRepository()
	tokens := newMockRefreshTokenRepository()
	svc := NewAuthService(users, tokens, testJWTSecret)
	seeded := seedUser(t, users, "admin@example.com", "secret123", domain.RoleAdmin)

	accessToken, refreshToken, user, err := svc.Login(context.Background(), "admin@example.com", "secret123")
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if user.ID != seeded.ID {
		t.Error("expected the seeded user to be returned")
	}
	if refreshToken == "" {
		t.Fatal("expected a refresh token")
	}
	if _, ok := tokens.tokens[refreshToken]; !ok {
		t.Error("refresh token should be persisted")
	}

	parsed, err := jwt.Parse(accessToken, func(token *jwt.Token) (interface{}, error) {
		return []byte(testJWTSecret), nil
	})
	if err != nil || !parsed.Valid {
		t.Fatalf("access token does not verify: %v", err)
	}
	claims := parsed.Claims.(jwt.MapClaims)
	if claims["role"] != domain.RoleAdmin {
		t.Errorf("expected role claim %q, got %v", domain.RoleAdmin, claims["role"])
	}
	if claims["user_id"] != seeded.ID.String() {
		t.Errorf("expected user_id claim %q, got %v", seeded.ID, claims["user_id"])
	}
}

func TestLoginWrongPasswordFails(t *testing.T) {
	users := newMockUserRepository()
	tokens := newMockRefreshTokenRepository()
	svc := NewAuthService(users, tokens, testJWTSecret)
	seedUser(t, users, "admin@example.com", "secret123", domain.RoleAdmin)

	_, _, _, err := svc.Login(context.Background(), "admin@example.com", "wrong")
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestLoginUnknownEmailFails(t *testing.T) {
	users := newMockUserRepository()
	tokens := newMockRefreshTokenRepository()
	svc := NewAuthService(users, tokens, testJWTSecret)

	_, _, _, err := svc.Login(context.Background(), "nobody@example.com", "secret123")
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestRefreshTokenRejectsExpiredAndRevoked(t *testing.T) {
	users := newMockUserRepository()
	tokens := newMockRefreshTokenRepository()
	svc := NewAuthService(users, tokens, testJWTSecret)
	user := seedUser(t, users, "admin@example.com", "secret123", domain.RoleAdmin)

	expired := &domain.RefreshToken{
		ID:        uuid.New(),
		UserID:    user.ID,
		Token:     "expired-token",
		ExpiresAt: time.Now().Add(-time.Hour),
		CreatedAt: time.Now().Add(-8 * 24 * time.Hour),
	}
	tokens.tokens[expired.Token] = expired

	_, err := svc.RefreshToken(context.Background(), "expired-token")
	if !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("expected ErrTokenExpired, got %v", err)
	}

	revoked := &domain.RefreshToken{
		ID:        uuid.New(),
		UserID:    user.ID,
		Token:     "revoked-token",
		ExpiresAt: time.Now().Add(time.Hour),
		Revoked:   true,
	}
	tokens.tokens[revoked.Token] = revoked

	_, err = svc.RefreshToken(context.Background(), "revoked-token")
	if !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestRefreshTokenMintsNewAccessToken(t *testing.T) {
	users := newMockUserRepository()
	tokens := newMockRefreshTokenRepository()
	svc := NewAuthService(users, tokens, testJWTSecret)
	seedUser(t, users, "admin@example.com", "secret123", domain.RoleAdmin)

	_, refreshToken, _, err := svc.Login(context.Background(), "admin@example.com", "secret123")
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}

	accessToken, err := svc.RefreshToken(context.Background(), refreshToken)
	if err != nil {
		t.Fatalf("RefreshToken failed: %v", err)
	}
	if accessToken == "" {
		t.Fatal("expected a new access token")
	}
}

func TestLogoutUnknownTokenSucceeds(t *testing.T) {
	users := newMockUserRepository()
	tokens := newMockRefreshTokenRepository()
	svc := NewAuthService(users, tokens, testJWTSecret)

	if err := svc.Logout(context.Background(), "never-issued"); err != nil {
		t.Fatalf("logging out an unknown token should succeed, got %v", err)
	}
}

func TestLogoutInvalidatesRefreshToken(t *testing.T) {
	users := newMockUserRepository()
	tokens := newMockRefreshTokenRepository()
	svc := NewAuthService(users, tokens, testJWTSecret)
	seedUser(t, users, "admin@example.com", "secret123", domain.RoleAdmin)

	_, refreshToken, _, err := svc.Login(context.Background(), "admin@example.com", "secret123")
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}

	if err := svc.Logout(context.Background(), refreshToken); err != nil {
		t.Fatalf("Logout failed: %v", err)
	}

	if _, err := svc.RefreshToken(context.Background(), refreshToken); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken after logout, got %v", err)
	}
}

func TestEnsureSuperadminUpsertsAccount(t *testing.T) {
	users := newMockUserRepository()
	tokens := newMockRefreshTokenRepository()
	svc := NewAuthService(users, tokens, testJWTSecret)

	if err := svc.EnsureSuperadmin(context.Background(), "root@example.com", "bootstrap-pass"); err != nil {
		t.Fatalf("EnsureSuperadmin failed: %v", err)
	}

	if users.upserted == nil {
		t.Fatal("expected an upsert")
	}
	if users.upserted.Role != domain.RoleSuperadmin {
		t.Errorf("expected role superadmin, got %q", users.upserted.Role)
	}
	if users.upserted.PasswordHash == "bootstrap-pass" {
		t.Error("password must be stored hashed")
	}

	// The seeded account can log in.
	_, _, user, err := svc.Login(context.Background(), "root@example.com", "bootstrap-pass")
	if err != nil {
		t.Fatalf("seeded superadmin cannot log in: %v", err)
	}
	if user.Role != domain.RoleSuperadmin {
		t.Errorf("expected superadmin role, got %q", user.Role)
	}
}
