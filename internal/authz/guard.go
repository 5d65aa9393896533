// Package authz decides whether a caller may act on a global, organization or
// user scope. It never mutates state.
package authz

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/ukm-hub/backend/internal/models"
	"github.com/ukm-hub/backend/pkg/apperrors"
)

// Caller is the authenticated identity, taken from verified token claims only.
type Caller struct {
	UserID uuid.UUID
	Role   models.GlobalRole
}

// MembershipReader looks up a caller's role inside one organization. It
// returns an apperrors NotFound error when there is no membership row.
type MembershipReader interface {
	MemberRole(ctx context.Context, userID, ukmID uuid.UUID) (models.OrgRole, error)
}

// Guard evaluates authorization decisions.
type Guard struct {
	memberships MembershipReader
}

// NewGuard creates a guard backed by the membership store.
func NewGuard(memberships MembershipReader) *Guard {
	return &Guard{memberships: memberships}
}

var errNoCaller = apperrors.Unauthorized("authentication required")

// RequireGlobalAdmin allows only platform admins.
func (g *Guard) RequireGlobalAdmin(caller *Caller) error {
	if caller == nil {
		return errNoCaller
	}
	if caller.Role.IsAdmin() {
		return nil
	}
	return apperrors.Forbidden("admin privilege required")
}

// RequireOrgAdmin allows platform admins and admins of the given organization.
func (g *Guard) RequireOrgAdmin(ctx context.Context, caller *Caller, ukmID uuid.UUID) error {
	if caller == nil {
		return errNoCaller
	}
	if caller.Role.IsAdmin() {
		return nil
	}
	role, err := g.memberships.MemberRole(ctx, caller.UserID, ukmID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return apperrors.Forbidden("organization admin privilege required")
		}
		return apperrors.Internal("failed to check membership", err)
	}
	if role.IsAdmin() {
		return nil
	}
	return apperrors.Forbidden("organization admin privilege required")
}

// RequireSelfOrAdmin allows the target user themselves or a platform admin.
func (g *Guard) RequireSelfOrAdmin(caller *Caller, target uuid.UUID) error {
	if caller == nil {
		return errNoCaller
	}
	if caller.UserID == target || caller.Role.IsAdmin() {
		return nil
	}
	return apperrors.Forbidden("not allowed to act on another user")
}
