package notifications

import (
	"context"

	"github.com/ukm-hub/backend/internal/models"
	"github.com/ukm-hub/backend/pkg/apperrors"
	"github.com/ukm-hub/backend/pkg/database"
)

// Repository handles notification_logs persistence.
type Repository struct {
	db database.DB
}

// NewRepository creates a notification log repository.
func NewRepository(db database.DB) *Repository {
	return &Repository{db: db}
}

// Record stores the outcome of one delivery attempt.
func (r *Repository) Record(ctx context.Context, l *models.NotificationLog) error {
	const q = `INSERT INTO notification_logs (job_id, kind, recipient_email, subject, status, error_message, sent_at)
		VALUES ($1, $2, $3, NULLIF($4,''), $5, NULLIF($6,''), $7)
		RETURNING id, created_at`
	if err := r.db.QueryRow(ctx, q, l.JobID, l.Kind, l.RecipientEmail, l.Subject, l.Status, l.ErrorMessage, l.SentAt).
		Scan(&l.ID, &l.CreatedAt); err != nil {
		return apperrors.Internal("failed to record notification", err)
	}
	return nil
}
