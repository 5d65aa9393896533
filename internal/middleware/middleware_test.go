package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/ukm-hub/backend/internal/authz"
	"github.com/ukm-hub/backend/internal/models"
	"github.com/ukm-hub/backend/pkg/apperrors"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type stubMemberships map[[2]uuid.UUID]models.OrgRole

func (s stubMemberships) MemberRole(_ context.Context, userID, ukmID uuid.UUID) (models.OrgRole, error) {
	if r, ok := s[[2]uuid.UUID{userID, ukmID}]; ok {
		return r, nil
	}
	return "", apperrors.NotFound("membership")
}

type stubEvents map[uuid.UUID]uuid.UUID

func (s stubEvents) UKMIDOf(_ context.Context, eventID uuid.UUID) (uuid.UUID, error) {
	if id, ok := s[eventID]; ok {
		return id, nil
	}
	return uuid.Nil, apperrors.NotFound("event")
}

// stubTokens maps bearer tokens to callers.
type stubTokens map[string]*authz.Caller

func (s stubTokens) VerifyCaller(token string) (*authz.Caller, error) {
	if c, ok := s[token]; ok {
		return c, nil
	}
	return nil, apperrors.Unauthorized("invalid token")
}

func (s stubTokens) issue(id uuid.UUID, role models.GlobalRole) string {
	token := uuid.NewString()
	s[token] = &authz.Caller{UserID: id, Role: role}
	return token
}

func doRequest(r http.Handler, method, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthenticate(t *testing.T) {
	jwtSvc := stubTokens{}
	userID := uuid.New()
	token := jwtSvc.issue(userID, models.RoleUser)

	r := gin.New()
	r.GET("/me", Authenticate(jwtSvc), func(c *gin.Context) {
		caller := CallerFrom(c)
		c.String(http.StatusOK, caller.UserID.String())
	})

	assert.Equal(t, http.StatusUnauthorized, doRequest(r, http.MethodGet, "/me", "").Code)
	assert.Equal(t, http.StatusUnauthorized, doRequest(r, http.MethodGet, "/me", "garbage").Code)

	w := doRequest(r, http.MethodGet, "/me", token)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, userID.String(), w.Body.String())
}

func TestRequireOrgAdminOnEventRoutes(t *testing.T) {
	jwtSvc := stubTokens{}
	ukm := uuid.New()
	event := uuid.New()
	orgAdmin, member := uuid.New(), uuid.New()
	guard := authz.NewGuard(stubMemberships{
		{orgAdmin, ukm}: models.OrgRoleAdmin,
		{member, ukm}:   models.OrgRoleMember,
	})

	r := gin.New()
	r.DELETE("/ukm/events/:event_id", Authenticate(jwtSvc),
		RequireOrgAdmin(guard, FromEvent(stubEvents{event: ukm}, "event_id"), zap.NewNop()),
		func(c *gin.Context) {
			id, err := ScopedUKMID(c, "ukm_id")
			assert.NoError(t, err)
			assert.Equal(t, ukm, id)
			c.Status(http.StatusNoContent)
		})

	tok := jwtSvc.issue

	path := "/ukm/events/" + event.String()
	assert.Equal(t, http.StatusNoContent, doRequest(r, http.MethodDelete, path, tok(orgAdmin, models.RoleUser)).Code)
	assert.Equal(t, http.StatusNoContent, doRequest(r, http.MethodDelete, path, tok(uuid.New(), models.RoleAdmin)).Code)
	assert.Equal(t, http.StatusForbidden, doRequest(r, http.MethodDelete, path, tok(member, models.RoleUser)).Code)
	assert.Equal(t, http.StatusForbidden, doRequest(r, http.MethodDelete, path, tok(uuid.New(), models.RoleUser)).Code)

	missing := "/ukm/events/" + uuid.NewString()
	assert.Equal(t, http.StatusNotFound, doRequest(r, http.MethodDelete, missing, tok(orgAdmin, models.RoleUser)).Code)
	assert.Equal(t, http.StatusBadRequest, doRequest(r, http.MethodDelete, "/ukm/events/not-a-uuid", tok(orgAdmin, models.RoleUser)).Code)
	assert.Equal(t, http.StatusUnauthorized, doRequest(r, http.MethodDelete, path, "").Code)
}

func TestRequireGlobalAdminAndSelf(t *testing.T) {
	jwtSvc := stubTokens{}
	guard := authz.NewGuard(stubMemberships{})
	self := uuid.New()
	ok := func(c *gin.Context) { c.Status(http.StatusOK) }

	r := gin.New()
	r.GET("/users", Authenticate(jwtSvc), RequireGlobalAdmin(guard, zap.NewNop()), ok)
	r.PUT("/users/:id/password", Authenticate(jwtSvc), RequireSelfOrAdmin(guard, "id", zap.NewNop()), ok)

	userTok := jwtSvc.issue(self, models.RoleUser)
	adminTok := jwtSvc.issue(uuid.New(), models.RoleAdmin)

	assert.Equal(t, http.StatusForbidden, doRequest(r, http.MethodGet, "/users", userTok).Code)
	assert.Equal(t, http.StatusOK, doRequest(r, http.MethodGet, "/users", adminTok).Code)
	assert.Equal(t, http.StatusOK, doRequest(r, http.MethodPut, "/users/"+self.String()+"/password", userTok).Code)
	assert.Equal(t, http.StatusForbidden, doRequest(r, http.MethodPut, "/users/"+uuid.NewString()+"/password", userTok).Code)
	assert.Equal(t, http.StatusOK, doRequest(r, http.MethodPut, "/users/"+self.String()+"/password", adminTok).Code)
}

func TestCORSPreflight(t *testing.T) {
	r := gin.New()
	r.Use(CORS("http://localhost:5173"))
	r.GET("/ukm", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodOptions, "/ukm", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "http://localhost:5173", w.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/ukm", nil)
	req.Header.Set("Origin", "http://evil.example")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}

func TestMetricsCountsByRoute(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)
	r := gin.New()
	r.Use(m.Handler())
	r.GET("/ukm/:ukm_id", func(c *gin.Context) { c.Status(http.StatusOK) })

	doRequest(r, http.MethodGet, "/ukm/"+uuid.NewString(), "")
	doRequest(r, http.MethodGet, "/ukm/"+uuid.NewString(), "")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.requests.WithLabelValues(http.MethodGet, "/ukm/:ukm_id", "200")))
}

func TestScopedUKMIDFallsBackToParam(t *testing.T) {
	ukm := uuid.New()
	r := gin.New()
	r.GET("/ukm/:ukm_id", func(c *gin.Context) {
		id, err := ScopedUKMID(c, "ukm_id")
		if err != nil {
			c.Status(apperrors.Status(apperrors.KindOf(err)))
			return
		}
		c.String(http.StatusOK, id.String())
	})

	w := doRequest(r, http.MethodGet, "/ukm/"+ukm.String(), "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, ukm.String(), w.Body.String())

	assert.Equal(t, http.StatusBadRequest, doRequest(r, http.MethodGet, "/ukm/nope", "").Code)
}
