package reports

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ukm-hub/backend/internal/models"
	"github.com/ukm-hub/backend/pkg/apperrors"
)

func newMockRepo(t *testing.T) (*Repository, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return NewRepository(mock), mock
}

func TestCreateCapturesCounters(t *testing.T) {
	repo, mock := newMockRepo(t)
	ukmID, author, reportID := uuid.New(), uuid.New(), uuid.New()

	mock.ExpectQuery("INSERT INTO reports").
		WithArgs(ukmID, pgxmock.AnyArg(), "Laporan Semester", "", author).
		WillReturnRows(pgxmock.NewRows([]string{"id", "member_count", "event_count", "registration_count", "created_at"}).
			AddRow(reportID, 12, 3, 40, time.Now()))

	rep := &models.Report{UKMID: ukmID, Title: "  Laporan Semester ", CreatedBy: author}
	require.NoError(t, repo.Create(context.Background(), rep))
	assert.Equal(t, reportID, rep.ID)
	assert.Equal(t, 12, rep.MemberCount)
	assert.Equal(t, 3, rep.EventCount)
	assert.Equal(t, 40, rep.RegistrationCount)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateRequiresTitle(t *testing.T) {
	repo, _ := newMockRepo(t)
	err := repo.Create(context.Background(), &models.Report{UKMID: uuid.New(), Title: " "})
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}

func TestCreateRejectsEventOfAnotherOrganization(t *testing.T) {
	repo, mock := newMockRepo(t)
	eventID := uuid.New()
	mock.ExpectQuery("SELECT ukm_id FROM events").
		WithArgs(eventID).
		WillReturnRows(pgxmock.NewRows([]string{"ukm_id"}).AddRow(uuid.New()))

	err := repo.Create(context.Background(), &models.Report{UKMID: uuid.New(), EventID: &eventID, Title: "Konser"})
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	mock.ExpectQuery("SELECT ukm_id FROM events").WithArgs(eventID).WillReturnError(pgx.ErrNoRows)
	err = repo.Create(context.Background(), &models.Report{UKMID: uuid.New(), EventID: &eventID, Title: "Konser"})
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}
