package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseGlobalRole(t *testing.T) {
	cases := []struct {
		in      string
		out     GlobalRole
		wantErr bool
	}{
		{"", RoleUser, false},
		{"user", RoleUser, false},
		{"admin", RoleAdmin, false},
		{"Admin", "", true},
		{"superuser", "", true},
	}
	for _, c := range cases {
		out, err := ParseGlobalRole(c.in)
		if c.wantErr {
			assert.Error(t, err, c.in)
			continue
		}
		assert.NoError(t, err, c.in)
		assert.Equal(t, c.out, out)
	}
}

func TestRoleIsAdmin(t *testing.T) {
	assert.True(t, RoleAdmin.IsAdmin())
	assert.False(t, RoleUser.IsAdmin())
	assert.False(t, GlobalRole("admn").IsAdmin())

	assert.True(t, OrgRoleAdmin.IsAdmin())
	assert.False(t, OrgRoleMember.IsAdmin())
	assert.False(t, OrgRole("owner").IsAdmin())
}

func TestParseOrgRole(t *testing.T) {
	r, err := ParseOrgRole("admin")
	require.NoError(t, err)
	assert.Equal(t, OrgRoleAdmin, r)

	_, err = ParseOrgRole("")
	assert.Error(t, err)
}

func TestParseEventStatus(t *testing.T) {
	s, err := ParseEventStatus("")
	require.NoError(t, err)
	assert.Equal(t, EventStatus(""), s)

	_, err = ParseEventStatus("postponed")
	assert.Error(t, err)
}

func TestUserJSONNeverContainsPassword(t *testing.T) {
	u := User{Email: "a@x.com", Password: "$2a$10$hash", Role: RoleUser}
	raw, err := json.Marshal(u)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "hash")
	assert.NotContains(t, string(raw), "password")

	raw, err = json.Marshal(u.ToPublic())
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "password")
}
