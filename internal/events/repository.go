package events

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/ukm-hub/backend/internal/models"
	"github.com/ukm-hub/backend/pkg/apperrors"
	"github.com/ukm-hub/backend/pkg/database"
)

const eventColumns = `id, ukm_id, name, COALESCE(description,''), event_date, COALESCE(location,''),
		COALESCE(status,''), COALESCE(created_by, '00000000-0000-0000-0000-000000000000'::uuid), created_at, updated_at`

// Input holds the writable event fields. Nil pointers are left unchanged on update.
type Input struct {
	Name        *string
	Description *string
	EventDate   *time.Time
	Location    *string
	Status      *string
}

// validate checks field rules. requireName is set on create.
func (in Input) validate(requireName bool) error {
	if in.Name != nil {
		trimmed := strings.TrimSpace(*in.Name)
		in.Name = &trimmed
	}
	if requireName && (in.Name == nil || *in.Name == "") {
		return apperrors.Validation("name is required")
	}
	if in.Name != nil && *in.Name == "" {
		return apperrors.Validation("name must not be empty")
	}
	if in.Status != nil {
		if _, err := models.ParseEventStatus(*in.Status); err != nil {
			return apperrors.Validation("status must be one of upcoming, ongoing, finished, cancelled")
		}
	}
	return nil
}

// Repository handles event persistence.
type Repository struct {
	db database.DB
}

// NewRepository creates an events repository.
func NewRepository(db database.DB) *Repository {
	return &Repository{db: db}
}

func scanEvent(row pgx.Row) (*models.Event, error) {
	var e models.Event
	var status string
	var createdBy uuid.UUID
	if err := row.Scan(&e.ID, &e.UKMID, &e.Name, &e.Description, &e.EventDate, &e.Location,
		&status, &createdBy, &e.CreatedAt, &e.UpdatedAt); err != nil {
		return nil, err
	}
	e.Status = models.EventStatus(status)
	if createdBy != uuid.Nil {
		e.CreatedBy = &createdBy
	}
	return &e, nil
}

func trimmed(s *string) *string {
	if s == nil {
		return nil
	}
	t := strings.TrimSpace(*s)
	return &t
}

// Create inserts an event for ukmID.
func (r *Repository) Create(ctx context.Context, ukmID, createdBy uuid.UUID, in Input) (*models.Event, error) {
	if err := in.validate(true); err != nil {
		return nil, err
	}
	const q = `INSERT INTO events (ukm_id, name, description, event_date, location, status, created_by)
		VALUES ($1, $2, NULLIF($3,''), $4, NULLIF($5,''), NULLIF($6,''), $7)
		RETURNING ` + eventColumns
	var desc, loc, status string
	if in.Description != nil {
		desc = strings.TrimSpace(*in.Description)
	}
	if in.Location != nil {
		loc = strings.TrimSpace(*in.Location)
	}
	if in.Status != nil {
		status = *in.Status
	}
	e, err := scanEvent(r.db.QueryRow(ctx, q, ukmID, *trimmed(in.Name), desc, in.EventDate, loc, status, createdBy))
	if err != nil {
		if database.IsForeignKeyViolation(err) {
			return nil, apperrors.NotFound("organization")
		}
		return nil, apperrors.Internal("failed to create event", err)
	}
	return e, nil
}

// Get returns an event by ID.
func (r *Repository) Get(ctx context.Context, id uuid.UUID) (*models.Event, error) {
	e, err := scanEvent(r.db.QueryRow(ctx, `SELECT `+eventColumns+` FROM events WHERE id = $1`, id))
	if err != nil {
		if database.IsNoRows(err) {
			return nil, apperrors.NotFound("event")
		}
		return nil, apperrors.Internal("failed to load event", err)
	}
	return e, nil
}

// UKMIDOf returns the organization owning an event.
func (r *Repository) UKMIDOf(ctx context.Context, eventID uuid.UUID) (uuid.UUID, error) {
	var ukmID uuid.UUID
	if err := r.db.QueryRow(ctx, `SELECT ukm_id FROM events WHERE id = $1`, eventID).Scan(&ukmID); err != nil {
		if database.IsNoRows(err) {
			return uuid.Nil, apperrors.NotFound("event")
		}
		return uuid.Nil, apperrors.Internal("failed to load event", err)
	}
	return ukmID, nil
}

// ListByUKM returns an organization's events, soonest first with undated events last.
func (r *Repository) ListByUKM(ctx context.Context, ukmID uuid.UUID) ([]models.Event, error) {
	rows, err := r.db.Query(ctx, `SELECT `+eventColumns+` FROM events WHERE ukm_id = $1
		ORDER BY event_date ASC NULLS LAST, created_at ASC`, ukmID)
	if err != nil {
		return nil, apperrors.Internal("failed to list events", err)
	}
	defer rows.Close()
	list := []models.Event{}
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, apperrors.Internal("failed to list events", err)
		}
		list = append(list, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Internal("failed to list events", err)
	}
	return list, nil
}

// Update applies the non-nil fields of in.
func (r *Repository) Update(ctx context.Context, id uuid.UUID, in Input) (*models.Event, error) {
	if err := in.validate(false); err != nil {
		return nil, err
	}
	const q = `UPDATE events SET
			name = COALESCE($2, name),
			description = COALESCE($3, description),
			event_date = COALESCE($4, event_date),
			location = COALESCE($5, location),
			status = COALESCE(NULLIF($6,''), status),
			updated_at = NOW()
		WHERE id = $1
		RETURNING ` + eventColumns
	e, err := scanEvent(r.db.QueryRow(ctx, q, id, trimmed(in.Name), trimmed(in.Description), in.EventDate,
		trimmed(in.Location), in.Status))
	if err != nil {
		if database.IsNoRows(err) {
			return nil, apperrors.NotFound("event")
		}
		return nil, apperrors.Internal("failed to update event", err)
	}
	return e, nil
}

// Delete removes an event and its registrations.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	return database.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM registrations WHERE event_id = $1`, id); err != nil {
			return apperrors.Internal("failed to delete registrations", err)
		}
		tag, err := tx.Exec(ctx, `DELETE FROM events WHERE id = $1`, id)
		if err != nil {
			return apperrors.Internal("failed to delete event", err)
		}
		if tag.RowsAffected() == 0 {
			return apperrors.NotFound("event")
		}
		return nil
	})
}
