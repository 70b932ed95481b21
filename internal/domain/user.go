package domain

import (
	"time"

	"github.com/google/uuid"
)

// Roles, in ascending order of privilege. The admin surface requires
// RoleAdmin or RoleSuperadmin.
const (
	RoleViewer     = "viewer"
	RoleEditor     = "editor"
	RoleAdmin      = "admin"
	RoleSuperadmin = "superadmin"
)

// User is a back-office account authenticated with credentials.
type User struct {
	ID           uuid.UUID `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Name         string    `json:"name"`
	Role         string    `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// RefreshToken is a persisted, revocable long-lived credential.
type RefreshToken struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	Token     string
	ExpiresAt time.Time
	CreatedAt time.Time
	Revoked   bool
}

// AuditLog records an admin mutation. Writes are best effort and never block
// the mutation they describe.
type AuditLog struct {
	ID        uuid.UUID
	UserID    *uuid.UUID
	Entity    string
	EntityID  string
	Action    string
	Diff      []byte
	IP        string
	UserAgent string
	CreatedAt time.Time
}
