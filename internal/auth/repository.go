package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/ukm-hub/backend/internal/models"
	"github.com/ukm-hub/backend/pkg/apperrors"
	"github.com/ukm-hub/backend/pkg/database"
)

const userColumns = `id, email, COALESCE(username,''), password_hash, full_name, role,
		COALESCE(student_id,''), COALESCE(faculty,''), COALESCE(major,''), COALESCE(phone,''),
		created_at, updated_at`

// Repository handles user persistence.
type Repository struct {
	db database.DB
}

// NewRepository creates an auth repository.
func NewRepository(db database.DB) *Repository {
	return &Repository{db: db}
}

func scanUser(row pgx.Row) (*models.User, error) {
	var u models.User
	var role string
	err := row.Scan(&u.ID, &u.Email, &u.Username, &u.Password, &u.FullName, &role,
		&u.StudentID, &u.Faculty, &u.Major, &u.Phone, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if u.Role, err = models.ParseGlobalRole(role); err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *Repository) getBy(ctx context.Context, column string, value any) (*models.User, error) {
	u, err := scanUser(r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE `+column+` = $1`, value))
	if err != nil {
		if database.IsNoRows(err) {
			return nil, apperrors.NotFound("user")
		}
		return nil, apperrors.Internal("failed to load user", err)
	}
	return u, nil
}

// GetByID returns a user by ID.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return r.getBy(ctx, "id", id)
}

// GetByEmail returns a user by email.
func (r *Repository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.getBy(ctx, "email", email)
}

// GetByUsername returns a user by legacy username.
func (r *Repository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return r.getBy(ctx, "username", username)
}

// List returns all users without credentials.
func (r *Repository) List(ctx context.Context) ([]models.UserPublic, error) {
	rows, err := r.db.Query(ctx, `SELECT id, email, COALESCE(username,''), full_name, role,
		COALESCE(student_id,''), COALESCE(faculty,''), COALESCE(major,''), COALESCE(phone,''),
		created_at FROM users ORDER BY full_name, email`)
	if err != nil {
		return nil, apperrors.Internal("failed to list users", err)
	}
	defer rows.Close()
	list := []models.UserPublic{}
	for rows.Next() {
		var u models.UserPublic
		var role string
		if err := rows.Scan(&u.ID, &u.Email, &u.Username, &u.FullName, &role,
			&u.StudentID, &u.Faculty, &u.Major, &u.Phone, &u.CreatedAt); err != nil {
			return nil, apperrors.Internal("failed to list users", err)
		}
		if u.Role, err = models.ParseGlobalRole(role); err != nil {
			return nil, apperrors.Internal("failed to list users", err)
		}
		list = append(list, u)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Internal("failed to list users", err)
	}
	return list, nil
}

// Create inserts a new user. Email and username uniqueness are enforced by the
// store; a violation is reported as a conflict naming the field.
func (r *Repository) Create(ctx context.Context, u *models.User) error {
	const q = `INSERT INTO users (email, username, password_hash, full_name, role, student_id, faculty, major, phone)
		VALUES ($1, NULLIF($2,''), $3, $4, $5, NULLIF($6,''), NULLIF($7,''), NULLIF($8,''), NULLIF($9,''))
		RETURNING id, created_at, updated_at`
	err := r.db.QueryRow(ctx, q, u.Email, u.Username, u.Password, u.FullName, string(u.Role),
		u.StudentID, u.Faculty, u.Major, u.Phone).
		Scan(&u.ID, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if database.IsUniqueViolation(err) {
			if database.ConstraintName(err) == "users_username_key" {
				return apperrors.Conflict("username already taken")
			}
			return apperrors.Conflict("email already registered")
		}
		return apperrors.Internal("failed to create user", err)
	}
	return nil
}

// UpdatePassword replaces the stored password hash.
func (r *Repository) UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error {
	tag, err := r.db.Exec(ctx, `UPDATE users SET password_hash = $1, updated_at = NOW() WHERE id = $2`, passwordHash, id)
	if err != nil {
		return apperrors.Internal("failed to update password", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.NotFound("user")
	}
	return nil
}

// SetRole changes a user's global role. Only trusted processes call this.
func (r *Repository) SetRole(ctx context.Context, email string, role models.GlobalRole) error {
	tag, err := r.db.Exec(ctx, `UPDATE users SET role = $1, updated_at = NOW() WHERE email = $2`, string(role), email)
	if err != nil {
		return apperrors.Internal("failed to update role", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.NotFound("user")
	}
	return nil
}

// Delete removes a user together with their memberships and registrations.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	return database.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM registrations WHERE user_id = $1`, id); err != nil {
			return apperrors.Internal("failed to delete registrations", err)
		}
		if _, err := tx.Exec(ctx, `DELETE FROM memberships WHERE user_id = $1`, id); err != nil {
			return apperrors.Internal("failed to delete memberships", err)
		}
		tag, err := tx.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
		if err != nil {
			return apperrors.Internal("failed to delete user", err)
		}
		if tag.RowsAffected() == 0 {
			return apperrors.NotFound("user")
		}
		return nil
	})
}

// CreatePasswordReset stores the hash of a reset token.
func (r *Repository) CreatePasswordReset(ctx context.Context, userID uuid.UUID, tokenHash string, expiresAt time.Time) error {
	const q = `INSERT INTO password_resets (user_id, token_hash, expires_at) VALUES ($1, $2, $3)`
	if _, err := r.db.Exec(ctx, q, userID, tokenHash, expiresAt); err != nil {
		return apperrors.Internal("failed to store reset token", err)
	}
	return nil
}

// ConsumePasswordReset marks a valid reset token for email as used and
// replaces the password in the same transaction.
func (r *Repository) ConsumePasswordReset(ctx context.Context, email, tokenHash, passwordHash string) (uuid.UUID, error) {
	var userID uuid.UUID
	err := database.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		const consume = `UPDATE password_resets pr SET used_at = NOW()
			FROM users u
			WHERE pr.user_id = u.id AND u.email = $1 AND pr.token_hash = $2
			AND pr.used_at IS NULL AND pr.expires_at > NOW()
			RETURNING pr.user_id`
		if err := tx.QueryRow(ctx, consume, email, tokenHash).Scan(&userID); err != nil {
			if database.IsNoRows(err) {
				return apperrors.Unauthorized("invalid or expired reset token")
			}
			return apperrors.Internal("failed to consume reset token", err)
		}
		if _, err := tx.Exec(ctx, `UPDATE users SET password_hash = $1, updated_at = NOW() WHERE id = $2`, passwordHash, userID); err != nil {
			return apperrors.Internal("failed to update password", err)
		}
		return nil
	})
	if err != nil {
		return uuid.Nil, fmt.Errorf("reset password: %w", err)
	}
	return userID, nil
}
