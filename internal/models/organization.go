package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Organization is a student organization (UKM).
type Organization struct {
	ID          uuid.UUID  `json:"id"`
	Name        string     `json:"name"`
	Description string     `json:"description,omitempty"`
	Category    string     `json:"category,omitempty"`
	LogoURL     string     `json:"logo_url,omitempty"`
	LogoKey     string     `json:"-"`
	CreatedBy   *uuid.UUID `json:"created_by,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// OrgRole is a privilege level scoped to one organization.
type OrgRole string

const (
	OrgRoleMember OrgRole = "member"
	OrgRoleAdmin  OrgRole = "admin"
)

// ParseOrgRole parses a stored membership role.
func ParseOrgRole(s string) (OrgRole, error) {
	switch OrgRole(s) {
	case OrgRoleMember:
		return OrgRoleMember, nil
	case OrgRoleAdmin:
		return OrgRoleAdmin, nil
	default:
		return "", fmt.Errorf("invalid organization role %q", s)
	}
}

// IsAdmin reports whether the role administers its organization.
func (r OrgRole) IsAdmin() bool {
	switch r {
	case OrgRoleAdmin:
		return true
	case OrgRoleMember:
		return false
	default:
		return false
	}
}

// Membership links a user to an organization with a role.
type Membership struct {
	ID       uuid.UUID `json:"id"`
	UserID   uuid.UUID `json:"user_id"`
	UKMID    uuid.UUID `json:"ukm_id"`
	Role     OrgRole   `json:"role"`
	JoinedAt time.Time `json:"joined_at"`
}

// Member is a membership joined with user details.
type Member struct {
	UserID   uuid.UUID `json:"user_id"`
	Email    string    `json:"email"`
	FullName string    `json:"full_name"`
	Role     OrgRole   `json:"role"`
	JoinedAt time.Time `json:"joined_at"`
}

// UserMembership is a membership as seen from the user's side (GET /me).
type UserMembership struct {
	UKMID    uuid.UUID `json:"ukm_id"`
	UKMName  string    `json:"ukm_name"`
	Role     OrgRole   `json:"role"`
	JoinedAt time.Time `json:"joined_at"`
}

// OrganizationDetail is an organization with its members and events.
type OrganizationDetail struct {
	Organization
	Members []Member `json:"members"`
	Events  []Event  `json:"events"`
}
