package store

import (
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"bfstats/internal/models"
)

// Memory is a Store kept in process memory. Nothing survives a restart.
type Memory struct {
	mu       sync.RWMutex
	roles    map[string]models.Role
	users    map[string]models.User
	sessions map[string]models.Session
	servers  map[string]models.GameServer
	audit    []models.AuditLog
	now      func() time.Time
}

func NewMemory() *Memory {
	return &Memory{
		roles:    map[string]models.Role{},
		users:    map[string]models.User{},
		sessions: map[string]models.Session{},
		servers:  map[string]models.GameServer{},
		now:      time.Now,
	}
}

func (m *Memory) EnsureRoles(_ context.Context, names ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, n := range names {
		if _, ok := m.roles[n]; !ok {
			m.roles[n] = models.Role{ID: len(m.roles) + 1, Name: n}
		}
	}
	return nil
}

func (m *Memory) resolveRoles(names []string) []models.Role {
	rs := []models.Role{}
	for _, n := range names {
		if r, ok := m.roles[n]; ok {
			rs = append(rs, r)
		}
	}
	return rs
}

func (m *Memory) emailTaken(email, except string) bool {
	for id, u := range m.users {
		if id != except && u.Email == email {
			return true
		}
	}
	return false
}

func cloneUser(u models.User) *models.User {
	u.Roles = slices.Clone(u.Roles)
	return &u
}

func (m *Memory) CreateUser(_ context.Context, u *models.User, roles []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	u.Email = strings.ToLower(u.Email)
	if _, ok := m.users[u.ID]; ok || m.emailTaken(u.Email, "") {
		return ErrConflict
	}
	now := m.now()
	if u.CreatedAt.IsZero() {
		u.CreatedAt = now
	}
	if u.UpdatedAt.IsZero() {
		u.UpdatedAt = now
	}
	u.Roles = m.resolveRoles(roles)
	m.users[u.ID] = *cloneUser(*u)
	return nil
}

func (m *Memory) UserByID(_ context.Context, id string) (*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneUser(u), nil
}

func (m *Memory) UserByEmail(_ context.Context, email string) (*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	email = strings.ToLower(email)
	for _, u := range m.users {
		if u.Email == email {
			return cloneUser(u), nil
		}
	}
	return nil, ErrNotFound
}

func (m *Memory) ListUsers(_ context.Context) ([]models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]models.User, 0, len(m.users))
	for _, u := range m.users {
		out = append(out, *cloneUser(u))
	}
	slices.SortFunc(out, func(a, b models.User) int { return b.CreatedAt.Compare(a.CreatedAt) })
	return out, nil
}

func (m *Memory) SaveUser(_ context.Context, u *models.User, roles []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[u.ID]; !ok {
		return ErrNotFound
	}
	u.Email = strings.ToLower(u.Email)
	if m.emailTaken(u.Email, u.ID) {
		return ErrConflict
	}
	if roles != nil {
		u.Roles = m.resolveRoles(roles)
	}
	m.users[u.ID] = *cloneUser(*u)
	return nil
}

func (m *Memory) DeleteUser(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[id]; !ok {
		return ErrNotFound
	}
	delete(m.users, id)
	return nil
}

func (m *Memory) CreateSession(_ context.Context, s *models.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[s.JTI]; ok {
		return ErrConflict
	}
	if s.CreatedAt.IsZero() {
		s.CreatedAt = m.now()
	}
	m.sessions[s.JTI] = *s
	return nil
}

func (m *Memory) Session(_ context.Context, jti string) (*models.Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[jti]
	if !ok {
		return nil, ErrNotFound
	}
	return &s, nil
}

func (m *Memory) RevokeSession(_ context.Context, jti string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[jti]
	if !ok || s.RevokedAt != nil {
		return ErrNotFound
	}
	s.RevokedAt = &at
	m.sessions[jti] = s
	return nil
}

func (m *Memory) CreateServer(_ context.Context, s *models.GameServer) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	if _, ok := m.servers[s.ID]; ok {
		return ErrConflict
	}
	now := m.now()
	if s.CreatedAt.IsZero() {
		s.CreatedAt = now
	}
	if s.UpdatedAt.IsZero() {
		s.UpdatedAt = now
	}
	m.servers[s.ID] = *s
	return nil
}

func (m *Memory) Server(_ context.Context, id string) (*models.GameServer, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.servers[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &s, nil
}

func (m *Memory) ListServers(_ context.Context) ([]models.GameServer, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]models.GameServer, 0, len(m.servers))
	for _, s := range m.servers {
		out = append(out, s)
	}
	slices.SortFunc(out, func(a, b models.GameServer) int { return b.CreatedAt.Compare(a.CreatedAt) })
	return out, nil
}

func (m *Memory) SaveServer(_ context.Context, s *models.GameServer) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.servers[s.ID]; !ok {
		return ErrNotFound
	}
	m.servers[s.ID] = *s
	return nil
}

func (m *Memory) DeleteServer(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.servers[id]; !ok {
		return ErrNotFound
	}
	delete(m.servers, id)
	return nil
}

func (m *Memory) WriteAudit(_ context.Context, l *models.AuditLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	l.ID = int64(len(m.audit) + 1)
	if l.CreatedAt.IsZero() {
		l.CreatedAt = m.now()
	}
	m.audit = append(m.audit, *l)
	return nil
}

func (m *Memory) ListAudit(_ context.Context, userID string, limit int) ([]models.AuditLog, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []models.AuditLog{}
	for i := len(m.audit) - 1; i >= 0 && (limit <= 0 || len(out) < limit); i-- {
		l := m.audit[i]
		if userID != "" && (l.UserID == nil || *l.UserID != userID) {
			continue
		}
		out = append(out, l)
	}
	return out, nil
}
