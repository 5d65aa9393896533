package organizations

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/ukm-hub/backend/internal/models"
	"github.com/ukm-hub/backend/pkg/apperrors"
	"github.com/ukm-hub/backend/pkg/database"
)

const orgColumns = `id, name, COALESCE(description,''), COALESCE(category,''), COALESCE(logo_url,''),
		COALESCE(logo_key,''), COALESCE(created_by, '00000000-0000-0000-0000-000000000000'::uuid), created_at, updated_at`

// Repository handles organization and membership persistence.
type Repository struct {
	db database.DB
}

// NewRepository creates an organizations repository.
func NewRepository(db database.DB) *Repository {
	return &Repository{db: db}
}

func scanOrganization(row pgx.Row) (*models.Organization, error) {
	var o models.Organization
	var createdBy uuid.UUID
	if err := row.Scan(&o.ID, &o.Name, &o.Description, &o.Category, &o.LogoURL, &o.LogoKey,
		&createdBy, &o.CreatedAt, &o.UpdatedAt); err != nil {
		return nil, err
	}
	if createdBy != uuid.Nil {
		o.CreatedBy = &createdBy
	}
	return &o, nil
}

func scanMembership(row pgx.Row) (*models.Membership, error) {
	var m models.Membership
	var role string
	if err := row.Scan(&m.ID, &m.UserID, &m.UKMID, &role, &m.JoinedAt); err != nil {
		return nil, err
	}
	r, err := models.ParseOrgRole(role)
	if err != nil {
		return nil, err
	}
	m.Role = r
	return &m, nil
}

// Create inserts an organization and makes creatorID its admin in one
// transaction. Either both rows exist afterwards or neither does.
func (r *Repository) Create(ctx context.Context, org *models.Organization, creatorID uuid.UUID) error {
	return database.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		const insertOrg = `INSERT INTO ukms (name, description, category, created_by)
			VALUES ($1, NULLIF($2,''), NULLIF($3,''), $4)
			RETURNING id, created_at, updated_at`
		err := tx.QueryRow(ctx, insertOrg, org.Name, org.Description, org.Category, creatorID).
			Scan(&org.ID, &org.CreatedAt, &org.UpdatedAt)
		if err != nil {
			switch {
			case database.IsUniqueViolation(err):
				return apperrors.Conflict("organization name already exists")
			case database.IsForeignKeyViolation(err):
				return apperrors.NotFound("user")
			}
			return apperrors.Internal("failed to create organization", err)
		}
		const insertAdmin = `INSERT INTO memberships (user_id, ukm_id, role) VALUES ($1, $2, 'admin')`
		if _, err := tx.Exec(ctx, insertAdmin, creatorID, org.ID); err != nil {
			if database.IsForeignKeyViolation(err) {
				return apperrors.NotFound("user")
			}
			return apperrors.Internal("failed to add organization admin", err)
		}
		org.CreatedBy = &creatorID
		return nil
	})
}

// Get returns an organization by ID.
func (r *Repository) Get(ctx context.Context, id uuid.UUID) (*models.Organization, error) {
	o, err := scanOrganization(r.db.QueryRow(ctx, `SELECT `+orgColumns+` FROM ukms WHERE id = $1`, id))
	if err != nil {
		if database.IsNoRows(err) {
			return nil, apperrors.NotFound("organization")
		}
		return nil, apperrors.Internal("failed to load organization", err)
	}
	return o, nil
}

// List returns all organizations ordered by name.
func (r *Repository) List(ctx context.Context) ([]models.Organization, error) {
	rows, err := r.db.Query(ctx, `SELECT `+orgColumns+` FROM ukms ORDER BY name`)
	if err != nil {
		return nil, apperrors.Internal("failed to list organizations", err)
	}
	defer rows.Close()
	list := []models.Organization{}
	for rows.Next() {
		o, err := scanOrganization(rows)
		if err != nil {
			return nil, apperrors.Internal("failed to list organizations", err)
		}
		list = append(list, *o)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Internal("failed to list organizations", err)
	}
	return list, nil
}

// ListMembers returns the members of an organization in join order.
func (r *Repository) ListMembers(ctx context.Context, ukmID uuid.UUID) ([]models.Member, error) {
	const q = `SELECT m.user_id, u.email, u.full_name, m.role, m.joined_at
		FROM memberships m
		INNER JOIN users u ON u.id = m.user_id
		WHERE m.ukm_id = $1
		ORDER BY m.joined_at ASC`
	rows, err := r.db.Query(ctx, q, ukmID)
	if err != nil {
		return nil, apperrors.Internal("failed to list members", err)
	}
	defer rows.Close()
	list := []models.Member{}
	for rows.Next() {
		var m models.Member
		var role string
		if err := rows.Scan(&m.UserID, &m.Email, &m.FullName, &role, &m.JoinedAt); err != nil {
			return nil, apperrors.Internal("failed to list members", err)
		}
		if m.Role, err = models.ParseOrgRole(role); err != nil {
			return nil, apperrors.Internal("failed to list members", err)
		}
		list = append(list, m)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Internal("failed to list members", err)
	}
	return list, nil
}

// ListForUser returns the organizations a user belongs to.
func (r *Repository) ListForUser(ctx context.Context, userID uuid.UUID) ([]models.UserMembership, error) {
	const q = `SELECT k.id, k.name, m.role, m.joined_at
		FROM memberships m
		INNER JOIN ukms k ON k.id = m.ukm_id
		WHERE m.user_id = $1
		ORDER BY k.name`
	rows, err := r.db.Query(ctx, q, userID)
	if err != nil {
		return nil, apperrors.Internal("failed to list memberships", err)
	}
	defer rows.Close()
	list := []models.UserMembership{}
	for rows.Next() {
		var m models.UserMembership
		var role string
		if err := rows.Scan(&m.UKMID, &m.UKMName, &role, &m.JoinedAt); err != nil {
			return nil, apperrors.Internal("failed to list memberships", err)
		}
		if m.Role, err = models.ParseOrgRole(role); err != nil {
			return nil, apperrors.Internal("failed to list memberships", err)
		}
		list = append(list, m)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Internal("failed to list memberships", err)
	}
	return list, nil
}

// Join adds userID as a member. A repeated join leaves the existing row
// untouched and returns it with created=false.
func (r *Repository) Join(ctx context.Context, userID, ukmID uuid.UUID) (*models.Membership, bool, error) {
	const insert = `INSERT INTO memberships (user_id, ukm_id, role) VALUES ($1, $2, 'member')
		ON CONFLICT ON CONSTRAINT memberships_user_ukm_key DO NOTHING
		RETURNING id, user_id, ukm_id, role, joined_at`
	m, err := scanMembership(r.db.QueryRow(ctx, insert, userID, ukmID))
	if err == nil {
		return m, true, nil
	}
	if database.IsForeignKeyViolation(err) {
		if database.ConstraintName(err) == "memberships_user_id_fkey" {
			return nil, false, apperrors.NotFound("user")
		}
		return nil, false, apperrors.NotFound("organization")
	}
	if !database.IsNoRows(err) {
		return nil, false, apperrors.Internal("failed to join organization", err)
	}

	const existing = `SELECT id, user_id, ukm_id, role, joined_at FROM memberships WHERE user_id = $1 AND ukm_id = $2`
	m, err = scanMembership(r.db.QueryRow(ctx, existing, userID, ukmID))
	if err != nil {
		if database.IsNoRows(err) {
			return nil, false, apperrors.Conflict("membership changed concurrently, retry")
		}
		return nil, false, apperrors.Internal("failed to load membership", err)
	}
	return m, false, nil
}

// Leave removes userID from the organization. Leaving when not a member is a no-op.
func (r *Repository) Leave(ctx context.Context, userID, ukmID uuid.UUID) error {
	if _, err := r.db.Exec(ctx, `DELETE FROM memberships WHERE user_id = $1 AND ukm_id = $2`, userID, ukmID); err != nil {
		return apperrors.Internal("failed to leave organization", err)
	}
	return nil
}

// MemberRole returns userID's role in the organization.
func (r *Repository) MemberRole(ctx context.Context, userID, ukmID uuid.UUID) (models.OrgRole, error) {
	var role string
	err := r.db.QueryRow(ctx, `SELECT role FROM memberships WHERE user_id = $1 AND ukm_id = $2`, userID, ukmID).Scan(&role)
	if err != nil {
		if database.IsNoRows(err) {
			return "", apperrors.NotFound("membership")
		}
		return "", apperrors.Internal("failed to load membership", err)
	}
	parsed, err := models.ParseOrgRole(role)
	if err != nil {
		return "", apperrors.Internal("failed to load membership", err)
	}
	return parsed, nil
}

// Delete removes an organization with its events, their registrations, its
// reports and memberships. It returns the logo object key, if any, so the
// caller can clean up storage.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) (string, error) {
	var logoKey string
	err := database.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx, `SELECT COALESCE(logo_key,'') FROM ukms WHERE id = $1 FOR UPDATE`, id).Scan(&logoKey)
		if err != nil {
			if database.IsNoRows(err) {
				return apperrors.NotFound("organization")
			}
			return apperrors.Internal("failed to load organization", err)
		}
		steps := []struct {
			sql  string
			what string
		}{
			{`DELETE FROM registrations WHERE event_id IN (SELECT id FROM events WHERE ukm_id = $1)`, "registrations"},
			{`DELETE FROM reports WHERE ukm_id = $1`, "reports"},
			{`DELETE FROM events WHERE ukm_id = $1`, "events"},
			{`DELETE FROM memberships WHERE ukm_id = $1`, "memberships"},
			{`DELETE FROM ukms WHERE id = $1`, "organization"},
		}
		for _, s := range steps {
			if _, err := tx.Exec(ctx, s.sql, id); err != nil {
				return apperrors.Internal("failed to delete "+s.what, err)
			}
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	return logoKey, nil
}

// SetLogo stores the logo location and returns the previous object key.
func (r *Repository) SetLogo(ctx context.Context, id uuid.UUID, url, key string) (string, error) {
	const q = `UPDATE ukms k SET logo_url = $2, logo_key = $3, updated_at = NOW()
		FROM (SELECT id, COALESCE(logo_key,'') AS old_key FROM ukms WHERE id = $1 FOR UPDATE) prev
		WHERE k.id = prev.id
		RETURNING prev.old_key`
	var oldKey string
	if err := r.db.QueryRow(ctx, q, id, url, key).Scan(&oldKey); err != nil {
		if database.IsNoRows(err) {
			return "", apperrors.NotFound("organization")
		}
		return "", apperrors.Internal("failed to update logo", err)
	}
	return oldKey, nil
}
