package organizations

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ukm-hub/backend/internal/models"
	"github.com/ukm-hub/backend/pkg/apperrors"
)

var membershipCols = []string{"id", "user_id", "ukm_id", "role", "joined_at"}

func newMockRepo(t *testing.T) (*Repository, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return NewRepository(mock), mock
}

func TestCreateInsertsAdminMembershipAtomically(t *testing.T) {
	repo, mock := newMockRepo(t)
	creator, ukmID := uuid.New(), uuid.New()
	now := time.Now()

	mock.ExpectBegin()
	mock.ExpectQuery("INSERT INTO ukms").
		WithArgs("Paduan Suara", "Choir", "art", creator).
		WillReturnRows(pgxmock.NewRows([]string{"id", "created_at", "updated_at"}).AddRow(ukmID, now, now))
	mock.ExpectExec("INSERT INTO memberships .+'admin'").
		WithArgs(creator, ukmID).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()

	org := &models.Organization{Name: "Paduan Suara", Description: "Choir", Category: "art"}
	require.NoError(t, repo.Create(context.Background(), org, creator))
	assert.Equal(t, ukmID, org.ID)
	require.NotNil(t, org.CreatedBy)
	assert.Equal(t, creator, *org.CreatedBy)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateDuplicateNameRollsBack(t *testing.T) {
	repo, mock := newMockRepo(t)
	creator := uuid.New()
	mock.ExpectBegin()
	mock.ExpectQuery("INSERT INTO ukms").
		WithArgs("Paduan Suara", "", "", creator).
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "ukms_name_key"})
	mock.ExpectRollback()

	err := repo.Create(context.Background(), &models.Organization{Name: "Paduan Suara"}, creator)
	assert.ErrorIs(t, err, apperrors.ErrConflict)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateMembershipFailureRollsBackOrganization(t *testing.T) {
	repo, mock := newMockRepo(t)
	creator, ukmID := uuid.New(), uuid.New()
	now := time.Now()

	mock.ExpectBegin()
	mock.ExpectQuery("INSERT INTO ukms").
		WithArgs("Pramuka", "", "", creator).
		WillReturnRows(pgxmock.NewRows([]string{"id", "created_at", "updated_at"}).AddRow(ukmID, now, now))
	mock.ExpectExec("INSERT INTO memberships").
		WithArgs(creator, ukmID).
		WillReturnError(&pgconn.PgError{Code: "23503"})
	mock.ExpectRollback()

	err := repo.Create(context.Background(), &models.Organization{Name: "Pramuka"}, creator)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestJoinIsIdempotent(t *testing.T) {
	repo, mock := newMockRepo(t)
	userID, ukmID, membershipID := uuid.New(), uuid.New(), uuid.New()
	joined := time.Now()

	mock.ExpectQuery("ON CONFLICT ON CONSTRAINT memberships_user_ukm_key").
		WithArgs(userID, ukmID).
		WillReturnRows(pgxmock.NewRows(membershipCols).AddRow(membershipID, userID, ukmID, "member", joined))

	m, created, err := repo.Join(context.Background(), userID, ukmID)
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, models.OrgRoleMember, m.Role)

	mock.ExpectQuery("ON CONFLICT ON CONSTRAINT memberships_user_ukm_key").
		WithArgs(userID, ukmID).
		WillReturnError(pgx.ErrNoRows)
	mock.ExpectQuery("SELECT id, user_id, ukm_id, role, joined_at FROM memberships").
		WithArgs(userID, ukmID).
		WillReturnRows(pgxmock.NewRows(membershipCols).AddRow(membershipID, userID, ukmID, "member", joined))

	again, created, err := repo.Join(context.Background(), userID, ukmID)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, membershipID, again.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestJoinPreservesAdminRoleOnRepeat(t *testing.T) {
	repo, mock := newMockRepo(t)
	userID, ukmID := uuid.New(), uuid.New()

	mock.ExpectQuery("INSERT INTO memberships").WithArgs(userID, ukmID).WillReturnError(pgx.ErrNoRows)
	mock.ExpectQuery("SELECT id, user_id, ukm_id, role, joined_at FROM memberships").
		WithArgs(userID, ukmID).
		WillReturnRows(pgxmock.NewRows(membershipCols).AddRow(uuid.New(), userID, ukmID, "admin", time.Now()))

	m, created, err := repo.Join(context.Background(), userID, ukmID)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, models.OrgRoleAdmin, m.Role)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestJoinForeignKeyNamesMissingSide(t *testing.T) {
	cases := []struct {
		constraint string
		message    string
	}{
		{"memberships_ukm_id_fkey", "organization not found"},
		{"memberships_user_id_fkey", "user not found"},
	}
	for _, tc := range cases {
		t.Run(tc.constraint, func(t *testing.T) {
			repo, mock := newMockRepo(t)
			userID, ukmID := uuid.New(), uuid.New()
			mock.ExpectQuery("INSERT INTO memberships").
				WithArgs(userID, ukmID).
				WillReturnError(&pgconn.PgError{Code: "23503", ConstraintName: tc.constraint})

			_, _, err := repo.Join(context.Background(), userID, ukmID)
			assert.ErrorIs(t, err, apperrors.ErrNotFound)
			assert.EqualError(t, err, tc.message)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestLeaveIsIdempotent(t *testing.T) {
	repo, mock := newMockRepo(t)
	userID, ukmID := uuid.New(), uuid.New()

	mock.ExpectExec("DELETE FROM memberships").
		WithArgs(userID, ukmID).
		WillReturnResult(pgxmock.NewResult("DELETE", 1))
	require.NoError(t, repo.Leave(context.Background(), userID, ukmID))

	mock.ExpectExec("DELETE FROM memberships").
		WithArgs(userID, ukmID).
		WillReturnResult(pgxmock.NewResult("DELETE", 0))
	require.NoError(t, repo.Leave(context.Background(), userID, ukmID))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMemberRole(t *testing.T) {
	repo, mock := newMockRepo(t)
	userID, ukmID := uuid.New(), uuid.New()

	mock.ExpectQuery("SELECT role FROM memberships").
		WithArgs(userID, ukmID).
		WillReturnRows(pgxmock.NewRows([]string{"role"}).AddRow("admin"))
	role, err := repo.MemberRole(context.Background(), userID, ukmID)
	require.NoError(t, err)
	assert.Equal(t, models.OrgRoleAdmin, role)

	other := uuid.New()
	mock.ExpectQuery("SELECT role FROM memberships").WithArgs(userID, other).WillReturnError(pgx.ErrNoRows)
	_, err = repo.MemberRole(context.Background(), userID, other)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestDeleteCascadesInOneTransaction(t *testing.T) {
	repo, mock := newMockRepo(t)
	ukmID := uuid.New()

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT COALESCE\\(logo_key,''\\) FROM ukms").
		WithArgs(ukmID).
		WillReturnRows(pgxmock.NewRows([]string{"logo_key"}).AddRow("logos/x/old.png"))
	mock.ExpectExec("DELETE FROM registrations").WithArgs(ukmID).WillReturnResult(pgxmock.NewResult("DELETE", 3))
	mock.ExpectExec("DELETE FROM reports").WithArgs(ukmID).WillReturnResult(pgxmock.NewResult("DELETE", 1))
	mock.ExpectExec("DELETE FROM events").WithArgs(ukmID).WillReturnResult(pgxmock.NewResult("DELETE", 2))
	mock.ExpectExec("DELETE FROM memberships").WithArgs(ukmID).WillReturnResult(pgxmock.NewResult("DELETE", 4))
	mock.ExpectExec("DELETE FROM ukms").WithArgs(ukmID).WillReturnResult(pgxmock.NewResult("DELETE", 1))
	mock.ExpectCommit()

	key, err := repo.Delete(context.Background(), ukmID)
	require.NoError(t, err)
	assert.Equal(t, "logos/x/old.png", key)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteMissingOrganization(t *testing.T) {
	repo, mock := newMockRepo(t)
	id := uuid.New()
	mock.ExpectBegin()
	mock.ExpectQuery("SELECT COALESCE\\(logo_key,''\\) FROM ukms").WithArgs(id).WillReturnError(pgx.ErrNoRows)
	mock.ExpectRollback()

	_, err := repo.Delete(context.Background(), id)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListMembers(t *testing.T) {
	repo, mock := newMockRepo(t)
	ukmID := uuid.New()
	mock.ExpectQuery("SELECT m.user_id, u.email").
		WithArgs(ukmID).
		WillReturnRows(pgxmock.NewRows([]string{"user_id", "email", "full_name", "role", "joined_at"}).
			AddRow(uuid.New(), "a@x.com", "Alice", "admin", time.Now()).
			AddRow(uuid.New(), "b@x.com", "Budi", "member", time.Now()))

	members, err := repo.ListMembers(context.Background(), ukmID)
	require.NoError(t, err)
	require.Len(t, members, 2)
	assert.Equal(t, models.OrgRoleAdmin, members[0].Role)
}
