package models

import (
	"testing"
	"time"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJSONB(t *testing.T) {
	var empty JSONB
	v, err := empty.Value()
	require.NoError(t, err)
	assert.Equal(t, []byte("{}"), v)

	var j JSONB
	require.NoError(t, j.Scan(nil))
	assert.Equal(t, JSONB("{}"), j)
	require.NoError(t, j.Scan(`{"a":1}`))
	assert.Equal(t, JSONB(`{"a":1}`), j)
	require.NoError(t, j.Scan(map[string]int{"b": 2}))
	assert.JSONEq(t, `{"b":2}`, string(j))

	out, err := json.Marshal(AuditLog{Action: "X", Metadata: NewJSONB(map[string]uint32{"pid": 7})})
	require.NoError(t, err)
	assert.Contains(t, string(out), `"metadata":{"pid":7}`)
}

func TestSessionActive(t *testing.T) {
	now := time.Unix(1160000000, 0)
	s := Session{ExpiresAt: now.Add(time.Minute)}
	assert.True(t, s.Active(now))
	assert.False(t, s.Active(now.Add(time.Hour)))

	s.RevokedAt = &now
	assert.False(t, s.Active(now))
}

func TestRoleNames(t *testing.T) {
	u := User{Roles: []Role{{Name: RoleAdministrator}, {Name: RoleOperator}}}
	assert.Equal(t, []string{"Administrator", "Operator"}, u.RoleNames())
	assert.Empty(t, User{}.RoleNames())
}
