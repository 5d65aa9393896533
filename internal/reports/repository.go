package reports

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/ukm-hub/backend/internal/models"
	"github.com/ukm-hub/backend/pkg/apperrors"
	"github.com/ukm-hub/backend/pkg/database"
)

// Repository handles report persistence.
type Repository struct {
	db database.DB
}

// NewRepository creates a reports repository.
func NewRepository(db database.DB) *Repository {
	return &Repository{db: db}
}

// Create stores a report with member, event and registration counters taken
// at insert time. When the report names an event, the registration counter
// covers that event only and the event must belong to the organization.
func (r *Repository) Create(ctx context.Context, rep *models.Report) error {
	rep.Title = strings.TrimSpace(rep.Title)
	if rep.Title == "" {
		return apperrors.Validation("title is required")
	}
	if rep.EventID != nil {
		var owner uuid.UUID
		err := r.db.QueryRow(ctx, `SELECT ukm_id FROM events WHERE id = $1`, *rep.EventID).Scan(&owner)
		if err != nil {
			if database.IsNoRows(err) {
				return apperrors.NotFound("event")
			}
			return apperrors.Internal("failed to load event", err)
		}
		if owner != rep.UKMID {
			return apperrors.Validation("event does not belong to this organization")
		}
	}

	const q = `INSERT INTO reports (ukm_id, event_id, title, content, member_count, event_count, registration_count, created_by)
		SELECT $1, $2, $3, NULLIF($4,''),
			(SELECT COUNT(*) FROM memberships WHERE ukm_id = $1),
			(SELECT COUNT(*) FROM events WHERE ukm_id = $1),
			(SELECT COUNT(*) FROM registrations rg INNER JOIN events e ON e.id = rg.event_id
				WHERE e.ukm_id = $1 AND ($2::uuid IS NULL OR e.id = $2)),
			$5
		RETURNING id, member_count, event_count, registration_count, created_at`
	err := r.db.QueryRow(ctx, q, rep.UKMID, rep.EventID, rep.Title, rep.Content, rep.CreatedBy).
		Scan(&rep.ID, &rep.MemberCount, &rep.EventCount, &rep.RegistrationCount, &rep.CreatedAt)
	if err != nil {
		if database.IsForeignKeyViolation(err) {
			return apperrors.NotFound("organization")
		}
		return apperrors.Internal("failed to create report", err)
	}
	return nil
}

// ListByUKM returns an organization's reports, newest first.
func (r *Repository) ListByUKM(ctx context.Context, ukmID uuid.UUID) ([]models.Report, error) {
	const q = `SELECT id, ukm_id, COALESCE(event_id, '00000000-0000-0000-0000-000000000000'::uuid), title,
			COALESCE(content,''), member_count, event_count, registration_count,
			COALESCE(created_by, '00000000-0000-0000-0000-000000000000'::uuid), created_at
		FROM reports WHERE ukm_id = $1
		ORDER BY created_at DESC`
	rows, err := r.db.Query(ctx, q, ukmID)
	if err != nil {
		return nil, apperrors.Internal("failed to list reports", err)
	}
	defer rows.Close()
	list := []models.Report{}
	for rows.Next() {
		var rep models.Report
		var eventID uuid.UUID
		if err := rows.Scan(&rep.ID, &rep.UKMID, &eventID, &rep.Title, &rep.Content,
			&rep.MemberCount, &rep.EventCount, &rep.RegistrationCount, &rep.CreatedBy, &rep.CreatedAt); err != nil {
			return nil, apperrors.Internal("failed to list reports", err)
		}
		if eventID != uuid.Nil {
			rep.EventID = &eventID
		}
		list = append(list, rep)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Internal("failed to list reports", err)
	}
	return list, nil
}
