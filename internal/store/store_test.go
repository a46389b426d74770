package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bfstats/internal/models"
)

var _ Store = (*Memory)(nil)
var _ Store = (*Gorm)(nil)

// forEachStore runs fn against a fresh store of every implementation.
func forEachStore(t *testing.T, fn func(t *testing.T, st Store)) {
	t.Helper()
	impls := []struct {
		name string
		open func(t *testing.T) Store
	}{
		{"memory", func(*testing.T) Store { return NewMemory() }},
		{"gorm", func(t *testing.T) Store { return openTestGorm(t) }},
	}
	for _, impl := range impls {
		t.Run(impl.name, func(t *testing.T) {
			fn(t, impl.open(t))
		})
	}
}

func TestUsers(t *testing.T) {
	forEachStore(t, func(t *testing.T, st Store) {
		ctx := context.Background()
		require.NoError(t, st.EnsureRoles(ctx, models.RoleAdministrator, models.RoleOperator))
		require.NoError(t, st.EnsureRoles(ctx, models.RoleAdministrator))

		u := &models.User{Email: "Admin@Example.com", IsActive: true}
		require.NoError(t, st.CreateUser(ctx, u, []string{models.RoleAdministrator, "Nope"}))
		assert.NotEmpty(t, u.ID)
		assert.Equal(t, "admin@example.com", u.Email)
		assert.Equal(t, []string{models.RoleAdministrator}, u.RoleNames())

		assert.ErrorIs(t, st.CreateUser(ctx, &models.User{Email: "admin@example.com"}, nil), ErrConflict)

		got, err := st.UserByEmail(ctx, "ADMIN@example.com")
		require.NoError(t, err)
		assert.Equal(t, u.ID, got.ID)

		got.Roles[0].Name = "mutated"
		again, err := st.UserByID(ctx, u.ID)
		require.NoError(t, err)
		assert.Equal(t, models.RoleAdministrator, again.Roles[0].Name)

		again.IsActive = false
		require.NoError(t, st.SaveUser(ctx, again, []string{models.RoleOperator}))
		again, err = st.UserByID(ctx, u.ID)
		require.NoError(t, err)
		assert.False(t, again.IsActive)
		assert.Equal(t, []string{models.RoleOperator}, again.RoleNames())

		require.NoError(t, st.SaveUser(ctx, again, nil))
		again, err = st.UserByID(ctx, u.ID)
		require.NoError(t, err)
		assert.Equal(t, []string{models.RoleOperator}, again.RoleNames())

		users, err := st.ListUsers(ctx)
		require.NoError(t, err)
		assert.Len(t, users, 1)

		require.NoError(t, st.DeleteUser(ctx, u.ID))
		assert.ErrorIs(t, st.DeleteUser(ctx, u.ID), ErrNotFound)
		_, err = st.UserByID(ctx, u.ID)
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestMissingIDs(t *testing.T) {
	forEachStore(t, func(t *testing.T, st Store) {
		ctx := context.Background()
		for _, id := range []string{"missing", "6f1d2c3e-0000-4000-8000-000000000000"} {
			_, err := st.UserByID(ctx, id)
			assert.ErrorIs(t, err, ErrNotFound, id)
			assert.ErrorIs(t, st.SaveUser(ctx, &models.User{ID: id, Email: "x@y"}, nil), ErrNotFound, id)
			assert.ErrorIs(t, st.DeleteUser(ctx, id), ErrNotFound, id)
			_, err = st.Server(ctx, id)
			assert.ErrorIs(t, err, ErrNotFound, id)
			assert.ErrorIs(t, st.SaveServer(ctx, &models.GameServer{ID: id, Name: "x"}), ErrNotFound, id)
			assert.ErrorIs(t, st.DeleteServer(ctx, id), ErrNotFound, id)
		}
	})
}

func TestSessions(t *testing.T) {
	forEachStore(t, func(t *testing.T, st Store) {
		ctx := context.Background()
		exp := time.Now().Add(time.Hour)
		require.NoError(t, st.CreateSession(ctx, &models.Session{JTI: "a", UserID: "u", ExpiresAt: exp}))
		assert.ErrorIs(t, st.CreateSession(ctx, &models.Session{JTI: "a", UserID: "u", ExpiresAt: exp}), ErrConflict)

		s, err := st.Session(ctx, "a")
		require.NoError(t, err)
		assert.True(t, s.Active(time.Now()))

		require.NoError(t, st.RevokeSession(ctx, "a", time.Now()))
		assert.ErrorIs(t, st.RevokeSession(ctx, "a", time.Now()), ErrNotFound)
		s, err = st.Session(ctx, "a")
		require.NoError(t, err)
		assert.False(t, s.Active(time.Now()))

		_, err = st.Session(ctx, "b")
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestServers(t *testing.T) {
	forEachStore(t, func(t *testing.T, st Store) {
		ctx := context.Background()
		s := &models.GameServer{Name: "Titan 1", PID: 81234567}
		require.NoError(t, st.CreateServer(ctx, s))
		assert.NotEmpty(t, s.ID)

		s.Name = "Titan 2"
		s.Address = "10.0.0.1:17567"
		require.NoError(t, st.SaveServer(ctx, s))
		got, err := st.Server(ctx, s.ID)
		require.NoError(t, err)
		assert.Equal(t, "Titan 2", got.Name)
		assert.Equal(t, uint32(81234567), got.PID)
		assert.Equal(t, "10.0.0.1:17567", got.Address)

		ss, err := st.ListServers(ctx)
		require.NoError(t, err)
		assert.Len(t, ss, 1)

		require.NoError(t, st.DeleteServer(ctx, s.ID))
		ss, err = st.ListServers(ctx)
		require.NoError(t, err)
		assert.Empty(t, ss)
	})
}

func TestAudit(t *testing.T) {
	forEachStore(t, func(t *testing.T, st Store) {
		ctx := context.Background()
		alice, bob := "alice", "bob"
		for _, uid := range []*string{&alice, &bob, &alice, nil} {
			l := &models.AuditLog{UserID: uid, Action: "ISSUE_TOKEN", Metadata: models.NewJSONB(map[string]any{"pid": 5})}
			require.NoError(t, st.WriteAudit(ctx, l))
		}

		all, err := st.ListAudit(ctx, "", 0)
		require.NoError(t, err)
		require.Len(t, all, 4)
		assert.Equal(t, int64(4), all[0].ID)
		assert.JSONEq(t, `{"pid":5}`, string(all[0].Metadata))

		mine, err := st.ListAudit(ctx, "alice", 10)
		require.NoError(t, err)
		require.Len(t, mine, 2)
		assert.Equal(t, int64(3), mine[0].ID)
		assert.Equal(t, int64(1), mine[1].ID)

		limited, err := st.ListAudit(ctx, "", 1)
		require.NoError(t, err)
		assert.Len(t, limited, 1)
	})
}

func TestSeedAdmin(t *testing.T) {
	forEachStore(t, func(t *testing.T, st Store) {
		ctx := context.Background()

		created, err := SeedAdmin(ctx, st, "admin@bfstats.local", "hash")
		require.NoError(t, err)
		assert.True(t, created)

		created, err = SeedAdmin(ctx, st, "admin@bfstats.local", "other")
		require.NoError(t, err)
		assert.False(t, created)

		u, err := st.UserByEmail(ctx, "admin@bfstats.local")
		require.NoError(t, err)
		assert.Equal(t, "hash", u.PasswordHash)
		assert.Equal(t, []string{models.RoleAdministrator}, u.RoleNames())
	})
}
