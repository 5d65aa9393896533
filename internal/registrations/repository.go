package registrations

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/ukm-hub/backend/internal/models"
	"github.com/ukm-hub/backend/pkg/apperrors"
	"github.com/ukm-hub/backend/pkg/database"
)

// Repository handles event registration persistence.
type Repository struct {
	db database.DB
}

// NewRepository creates a registrations repository.
func NewRepository(db database.DB) *Repository {
	return &Repository{db: db}
}

func scanRegistration(row pgx.Row) (*models.Registration, error) {
	var reg models.Registration
	if err := row.Scan(&reg.ID, &reg.UserID, &reg.EventID, &reg.RegisteredAt); err != nil {
		return nil, err
	}
	return &reg, nil
}

// Register signs userID up for eventID. A repeated registration returns the
// existing row with created=false.
func (r *Repository) Register(ctx context.Context, userID, eventID uuid.UUID) (*models.Registration, bool, error) {
	const insert = `INSERT INTO registrations (user_id, event_id) VALUES ($1, $2)
		ON CONFLICT ON CONSTRAINT registrations_user_event_key DO NOTHING
		RETURNING id, user_id, event_id, registered_at`
	reg, err := scanRegistration(r.db.QueryRow(ctx, insert, userID, eventID))
	if err == nil {
		return reg, true, nil
	}
	if database.IsForeignKeyViolation(err) {
		if database.ConstraintName(err) == "registrations_user_id_fkey" {
			return nil, false, apperrors.NotFound("user")
		}
		return nil, false, apperrors.NotFound("event")
	}
	if !database.IsNoRows(err) {
		return nil, false, apperrors.Internal("failed to register for event", err)
	}

	const existing = `SELECT id, user_id, event_id, registered_at FROM registrations WHERE user_id = $1 AND event_id = $2`
	reg, err = scanRegistration(r.db.QueryRow(ctx, existing, userID, eventID))
	if err != nil {
		if database.IsNoRows(err) {
			return nil, false, apperrors.Conflict("registration changed concurrently, retry")
		}
		return nil, false, apperrors.Internal("failed to load registration", err)
	}
	return reg, false, nil
}

// Unregister removes userID's registration for eventID.
func (r *Repository) Unregister(ctx context.Context, userID, eventID uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM registrations WHERE user_id = $1 AND event_id = $2`, userID, eventID)
	if err != nil {
		return apperrors.Internal("failed to unregister", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.NotFound("registration")
	}
	return nil
}

// ListParticipants returns an event's registrations in registration order.
func (r *Repository) ListParticipants(ctx context.Context, eventID uuid.UUID) ([]models.Participant, error) {
	const q = `SELECT r.id, u.id, u.email, u.full_name, COALESCE(u.student_id,''), COALESCE(u.faculty,''), r.registered_at
		FROM registrations r
		INNER JOIN users u ON u.id = r.user_id
		WHERE r.event_id = $1
		ORDER BY r.registered_at ASC, r.id ASC`
	rows, err := r.db.Query(ctx, q, eventID)
	if err != nil {
		return nil, apperrors.Internal("failed to list participants", err)
	}
	defer rows.Close()
	list := []models.Participant{}
	for rows.Next() {
		var p models.Participant
		if err := rows.Scan(&p.ParticipantID, &p.User.ID, &p.User.Email, &p.User.FullName,
			&p.User.StudentID, &p.User.Faculty, &p.RegisteredAt); err != nil {
			return nil, apperrors.Internal("failed to list participants", err)
		}
		list = append(list, p)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Internal("failed to list participants", err)
	}
	return list, nil
}

// ListForUser returns the events a user is registered for.
func (r *Repository) ListForUser(ctx context.Context, userID uuid.UUID) ([]models.UserRegistration, error) {
	const q = `SELECT e.id, e.name, e.ukm_id, e.event_date, r.registered_at
		FROM registrations r
		INNER JOIN events e ON e.id = r.event_id
		WHERE r.user_id = $1
		ORDER BY r.registered_at DESC`
	rows, err := r.db.Query(ctx, q, userID)
	if err != nil {
		return nil, apperrors.Internal("failed to list registrations", err)
	}
	defer rows.Close()
	list := []models.UserRegistration{}
	for rows.Next() {
		var ur models.UserRegistration
		if err := rows.Scan(&ur.EventID, &ur.EventName, &ur.UKMID, &ur.EventDate, &ur.RegisteredAt); err != nil {
			return nil, apperrors.Internal("failed to list registrations", err)
		}
		list = append(list, ur)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Internal("failed to list registrations", err)
	}
	return list, nil
}
