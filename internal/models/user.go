package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// GlobalRole is a platform-wide privilege level.
type GlobalRole string

const (
	RoleUser  GlobalRole = "user"
	RoleAdmin GlobalRole = "admin"
)

// ParseGlobalRole parses a stored or claimed role. Blank defaults to user.
func ParseGlobalRole(s string) (GlobalRole, error) {
	switch GlobalRole(s) {
	case "", RoleUser:
		return RoleUser, nil
	case RoleAdmin:
		return RoleAdmin, nil
	default:
		return "", fmt.Errorf("invalid global role %q", s)
	}
}

// IsAdmin reports whether the role grants platform-wide admin privilege.
func (r GlobalRole) IsAdmin() bool {
	switch r {
	case RoleAdmin:
		return true
	case RoleUser:
		return false
	default:
		return false
	}
}

// Profile holds the descriptive user attributes.
type Profile struct {
	FullName  string `json:"full_name"`
	StudentID string `json:"student_id,omitempty"`
	Faculty   string `json:"faculty,omitempty"`
	Major     string `json:"major,omitempty"`
	Phone     string `json:"phone,omitempty"`
}

// User represents a platform user.
type User struct {
	ID       uuid.UUID  `json:"id"`
	Email    string     `json:"email"`
	Username string     `json:"username,omitempty"`
	Password string     `json:"-"`
	Role     GlobalRole `json:"role"`
	Profile
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// UserPublic is User without sensitive fields for API responses.
type UserPublic struct {
	ID       uuid.UUID  `json:"id"`
	Email    string     `json:"email"`
	Username string     `json:"username,omitempty"`
	Role     GlobalRole `json:"role"`
	Profile
	CreatedAt time.Time `json:"created_at"`
}

// ToPublic converts User to UserPublic.
func (u *User) ToPublic() UserPublic {
	return UserPublic{
		ID:        u.ID,
		Email:     u.Email,
		Username:  u.Username,
		Role:      u.Role,
		Profile:   u.Profile,
		CreatedAt: u.CreatedAt,
	}
}

// PasswordReset is a single-use reset token record. Only the token hash is stored.
type PasswordReset struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	TokenHash string
	ExpiresAt time.Time
	UsedAt    *time.Time
}
