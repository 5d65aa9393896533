package auth

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ukm-hub/backend/internal/models"
	"github.com/ukm-hub/backend/pkg/apperrors"
	"github.com/ukm-hub/backend/pkg/queue"
	"github.com/ukm-hub/backend/pkg/utils"
)

// memoryUsers is an in-memory UserStore with the same uniqueness rules as the schema.
type memoryUsers struct {
	mu     sync.Mutex
	byID   map[uuid.UUID]*models.User
	resets map[string]resetRow
}

type resetRow struct {
	userID    uuid.UUID
	expiresAt time.Time
	used      bool
}

func newMemoryUsers() *memoryUsers {
	return &memoryUsers{byID: map[uuid.UUID]*models.User{}, resets: map[string]resetRow{}}
}

func (m *memoryUsers) GetByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.byID[id]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, apperrors.NotFound("user")
}

func (m *memoryUsers) find(match func(*models.User) bool) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.byID {
		if match(u) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, apperrors.NotFound("user")
}

func (m *memoryUsers) GetByEmail(_ context.Context, email string) (*models.User, error) {
	return m.find(func(u *models.User) bool { return u.Email == email })
}

func (m *memoryUsers) GetByUsername(_ context.Context, username string) (*models.User, error) {
	return m.find(func(u *models.User) bool { return u.Username != "" && u.Username == username })
}

func (m *memoryUsers) Create(_ context.Context, u *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.byID {
		if existing.Email == u.Email {
			return apperrors.Conflict("email already registered")
		}
		if u.Username != "" && existing.Username == u.Username {
			return apperrors.Conflict("username already taken")
		}
	}
	u.ID = uuid.New()
	u.CreatedAt = time.Now()
	cp := *u
	m.byID[u.ID] = &cp
	return nil
}

func (m *memoryUsers) UpdatePassword(_ context.Context, id uuid.UUID, hash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.byID[id]
	if !ok {
		return apperrors.NotFound("user")
	}
	u.Password = hash
	return nil
}

func (m *memoryUsers) CreatePasswordReset(_ context.Context, userID uuid.UUID, tokenHash string, expiresAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.resets[tokenHash] = resetRow{userID: userID, expiresAt: expiresAt}
	return nil
}

func (m *memoryUsers) ConsumePasswordReset(_ context.Context, email, tokenHash, hash string) (uuid.UUID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	row, ok := m.resets[tokenHash]
	if !ok || row.used || time.Now().After(row.expiresAt) || m.byID[row.userID].Email != email {
		return uuid.Nil, apperrors.Unauthorized("invalid or expired reset token")
	}
	row.used = true
	m.resets[tokenHash] = row
	m.byID[row.userID].Password = hash
	return row.userID, nil
}

type capturedNotifications struct {
	mu   sync.Mutex
	sent []queue.NotificationPayload
}

func (c *capturedNotifications) EnqueueNotification(_ context.Context, p queue.NotificationPayload) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sent = append(c.sent, p)
	return nil
}

func newTestService(t *testing.T) (*Service, *memoryUsers, *capturedNotifications) {
	t.Helper()
	users := newMemoryUsers()
	notes := &capturedNotifications{}
	return NewService(users, NewJWTService("test-secret"), notes, time.Minute, nil), users, notes
}

func registerA(t *testing.T, svc *Service) *models.User {
	t.Helper()
	u, token, err := svc.Register(context.Background(), RegisterInput{
		Email:    "A@X.com",
		Password: "secret",
		Profile:  models.Profile{FullName: "Alice", StudentID: "2201001", Faculty: "Teknik"},
	})
	require.NoError(t, err)
	require.NotEmpty(t, token)
	return u
}

func TestRegisterThenLogin(t *testing.T) {
	svc, _, _ := newTestService(t)
	u := registerA(t, svc)
	assert.Equal(t, "a@x.com", u.Email)
	assert.Equal(t, models.RoleUser, u.Role)
	assert.NotEqual(t, "secret", u.Password)

	logged, token, err := svc.Login(context.Background(), "a@x.com", "secret")
	require.NoError(t, err)
	assert.Equal(t, u.ID, logged.ID)

	claims, err := svc.jwt.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, u.ID, claims.UserID)
	assert.Equal(t, models.RoleUser, claims.Role)
}

func TestRegisterDuplicateEmailConflicts(t *testing.T) {
	svc, users, _ := newTestService(t)
	first := registerA(t, svc)

	_, _, err := svc.Register(context.Background(), RegisterInput{
		Email: "a@x.com", Password: "other-pw", Profile: models.Profile{FullName: "Impostor"},
	})
	assert.ErrorIs(t, err, apperrors.ErrConflict)

	stored, err := users.GetByID(context.Background(), first.ID)
	require.NoError(t, err)
	assert.Equal(t, "Alice", stored.FullName)
	assert.True(t, utils.CheckPassword("secret", stored.Password))
}

func TestRegisterValidation(t *testing.T) {
	svc, _, _ := newTestService(t)
	cases := []RegisterInput{
		{Email: "", Password: "secret", Profile: models.Profile{FullName: "A"}},
		{Email: "a@x.com", Password: "123", Profile: models.Profile{FullName: "A"}},
		{Email: "a@x.com", Password: "secret"},
		{Email: "a@x.com", Password: "secret", Role: "root", Profile: models.Profile{FullName: "A"}},
	}
	for _, in := range cases {
		_, _, err := svc.Register(context.Background(), in)
		assert.ErrorIs(t, err, apperrors.ErrValidation)
	}
}

func TestLoginFailsUniformly(t *testing.T) {
	svc, _, _ := newTestService(t)
	registerA(t, svc)

	_, _, errUnknown := svc.Login(context.Background(), "nobody@x.com", "secret")
	_, _, errWrong := svc.Login(context.Background(), "a@x.com", "wrong")
	require.Error(t, errUnknown)
	require.Error(t, errWrong)
	assert.Equal(t, errUnknown.Error(), errWrong.Error())
	assert.ErrorIs(t, errUnknown, apperrors.ErrUnauthorized)
}

func TestLoginByUsername(t *testing.T) {
	svc, _, _ := newTestService(t)
	u, _, err := svc.Register(context.Background(), RegisterInput{
		Email: "b@x.com", Username: "budi", Password: "secret", Profile: models.Profile{FullName: "Budi"},
	})
	require.NoError(t, err)

	logged, _, err := svc.Login(context.Background(), "budi", "secret")
	require.NoError(t, err)
	assert.Equal(t, u.ID, logged.ID)
}

func TestChangePassword(t *testing.T) {
	svc, _, _ := newTestService(t)
	u := registerA(t, svc)
	ctx := context.Background()

	wrong := "nope"
	err := svc.ChangePassword(ctx, u.ID, "new-secret", &wrong)
	assert.ErrorIs(t, err, apperrors.ErrForbidden)

	current := "secret"
	require.NoError(t, svc.ChangePassword(ctx, u.ID, "new-secret", &current))
	_, _, err = svc.Login(ctx, "a@x.com", "new-secret")
	assert.NoError(t, err)

	err = svc.ChangePassword(ctx, uuid.New(), "new-secret", nil)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestPasswordResetFlow(t *testing.T) {
	svc, _, notes := newTestService(t)
	registerA(t, svc)
	ctx := context.Background()

	require.NoError(t, svc.RequestPasswordReset(ctx, "nobody@x.com"))
	assert.Empty(t, notes.sent)

	require.NoError(t, svc.RequestPasswordReset(ctx, "a@x.com"))
	require.Len(t, notes.sent, 1)
	assert.Equal(t, models.NotificationPasswordReset, notes.sent[0].Kind)
	token := notes.sent[0].Body[len("Use this token to reset your password: "):]

	err := svc.ResetPassword(ctx, "a@x.com", "forged-token", "hijacked")
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)

	require.NoError(t, svc.ResetPassword(ctx, "a@x.com", token, "brand-new"))
	_, _, err = svc.Login(ctx, "a@x.com", "brand-new")
	assert.NoError(t, err)

	err = svc.ResetPassword(ctx, "a@x.com", token, "again-new")
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)
}

func TestOverlongPasswordIsValidation(t *testing.T) {
	svc, _, notes := newTestService(t)
	ctx := context.Background()
	long := strings.Repeat("a", MaxPasswordLength+1)

	_, _, err := svc.Register(ctx, RegisterInput{Email: "l@x.com", Password: long, Profile: models.Profile{FullName: "Long"}})
	assert.ErrorIs(t, err, apperrors.ErrValidation)
	assert.Equal(t, apperrors.KindValidation, apperrors.KindOf(err))

	_, _, err = svc.Register(ctx, RegisterInput{Email: "m@x.com", Password: strings.Repeat("a", MaxPasswordLength), Profile: models.Profile{FullName: "Max"}})
	require.NoError(t, err)

	u := registerA(t, svc)
	current := "secret"
	assert.ErrorIs(t, svc.ChangePassword(ctx, u.ID, long, &current), apperrors.ErrValidation)

	require.NoError(t, svc.RequestPasswordReset(ctx, "a@x.com"))
	require.Len(t, notes.sent, 1)
	token := notes.sent[0].Body[len("Use this token to reset your password: "):]
	assert.ErrorIs(t, svc.ResetPassword(ctx, "a@x.com", token, long), apperrors.ErrValidation)
}
