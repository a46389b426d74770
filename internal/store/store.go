// Package store persists operators, sessions, game servers and audit rows.
// Postgres through gorm backs the service; Memory serves tests and
// deployments without a database.
package store

import (
	"context"
	"errors"
	"time"

	"bfstats/internal/models"
)

var (
	ErrNotFound = errors.New("store: not found")
	ErrConflict = errors.New("store: already exists")
)

type Store interface {
	EnsureRoles(ctx context.Context, names ...string) error

	// CreateUser attaches the named roles that exist; unknown names are
	// ignored.
	CreateUser(ctx context.Context, u *models.User, roles []string) error
	UserByID(ctx context.Context, id string) (*models.User, error)
	UserByEmail(ctx context.Context, email string) (*models.User, error)
	ListUsers(ctx context.Context) ([]models.User, error)
	// SaveUser updates u and, when roles is non-nil, replaces its roles.
	SaveUser(ctx context.Context, u *models.User, roles []string) error
	DeleteUser(ctx context.Context, id string) error

	CreateSession(ctx context.Context, s *models.Session) error
	Session(ctx context.Context, jti string) (*models.Session, error)
	RevokeSession(ctx context.Context, jti string, at time.Time) error

	CreateServer(ctx context.Context, s *models.GameServer) error
	Server(ctx context.Context, id string) (*models.GameServer, error)
	ListServers(ctx context.Context) ([]models.GameServer, error)
	SaveServer(ctx context.Context, s *models.GameServer) error
	DeleteServer(ctx context.Context, id string) error

	WriteAudit(ctx context.Context, l *models.AuditLog) error
	// ListAudit returns the newest rows first. An empty userID lists all.
	ListAudit(ctx context.Context, userID string, limit int) ([]models.AuditLog, error)
}
