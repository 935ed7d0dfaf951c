package models

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// UserRole represents the available roles for access control.
type UserRole string

const (
	RoleAdmin   UserRole = "ADMIN"
	RoleStudent UserRole = "STUDENT"
)

// Capability names one permitted action. Role dispatch is a lookup table,
// not a type hierarchy.
type Capability string

const (
	CapCatalogWrite  Capability = "catalog:write"
	CapStudentsWrite Capability = "students:write"
	CapStudentsRead  Capability = "students:read"
	CapDoctorsWrite  Capability = "doctors:write"
	CapRegisterSelf  Capability = "register:self"
)

var roleCapabilities = map[UserRole]map[Capability]struct{}{
	RoleAdmin: {
		CapCatalogWrite:  {},
		CapStudentsWrite: {},
		CapStudentsRead:  {},
		CapDoctorsWrite:  {},
	},
	RoleStudent: {
		CapRegisterSelf: {},
	},
}

// Can reports whether the role carries the capability.
func (r UserRole) Can(cap Capability) bool {
	caps, ok := roleCapabilities[r]
	if !ok {
		return false
	}
	_, ok = caps[cap]
	return ok
}

// User represents an application user stored in the users table. Student
// accounts link to a student row; admin accounts stand alone.
type User struct {
	ID           string    `db:"id" json:"id"`
	StudentID    *string   `db:"student_id" json:"student_id,omitempty"`
	Email        string    `db:"email" json:"email"`
	PasswordHash string    `db:"password_hash" json:"-"`
	Role         UserRole  `db:"role" json:"role"`
	DisplayName  string    `db:"display_name" json:"display_name"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// LoginRequest holds credentials for authenticating a user.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse returns the issued token and user info.
type LoginResponse struct {
	AccessToken string    `json:"access_token"`
	ExpiresIn   int64     `json:"expires_in"`
	User        UserInfo  `json:"user"`
	IssuedAt    time.Time `json:"issued_at"`
}

// UserInfo describes the authenticated user in responses.
type UserInfo struct {
	ID          string   `json:"id"`
	Email       string   `json:"email"`
	DisplayName string   `json:"display_name"`
	Role        UserRole `json:"role"`
	StudentID   *string  `json:"student_id,omitempty"`
}

// JWTClaims represents the JWT payload for access tokens.
type JWTClaims struct {
	UserID    string   `json:"user_id"`
	Role      UserRole `json:"role"`
	Email     string   `json:"email"`
	StudentID string   `json:"student_id,omitempty"`
	SessionID string   `json:"session_id"`
	jwt.RegisteredClaims
}
