package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"bfstats/internal/models"
)

type Gorm struct {
	db *gorm.DB
}

// OpenPostgres connects to dsn and migrates the schema.
func OpenPostgres(dsn string) (*Gorm, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		return nil, fmt.Errorf("db connect: %w", err)
	}
	g := NewGorm(db)
	if err := g.Migrate(); err != nil {
		return nil, err
	}
	return g, nil
}

func NewGorm(db *gorm.DB) *Gorm { return &Gorm{db: db} }

func (g *Gorm) Migrate() error {
	if err := g.db.AutoMigrate(models.All()...); err != nil {
		return fmt.Errorf("automigrate: %w", err)
	}
	return nil
}

func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return fmt.Errorf("%w: %v", ErrConflict, err)
	}
	return err
}

// checkID rejects ids that cannot match a uuid column; postgres would
// otherwise fail the query with a syntax error.
func checkID(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return ErrNotFound
	}
	return nil
}

func (g *Gorm) EnsureRoles(ctx context.Context, names ...string) error {
	for _, n := range names {
		err := g.db.WithContext(ctx).
			Clauses(clause.OnConflict{DoNothing: true}).
			Create(&models.Role{Name: n}).Error
		if err != nil {
			return translate(err)
		}
	}
	return nil
}

func (g *Gorm) roles(tx *gorm.DB, names []string) ([]models.Role, error) {
	var roles []models.Role
	if len(names) == 0 {
		return roles, nil
	}
	err := tx.Where("name IN ?", names).Find(&roles).Error
	return roles, err
}

func (g *Gorm) CreateUser(ctx context.Context, u *models.User, roles []string) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	u.Email = strings.ToLower(u.Email)
	tx := g.db.WithContext(ctx)
	rs, err := g.roles(tx, roles)
	if err != nil {
		return translate(err)
	}
	u.Roles = rs
	return translate(tx.Create(u).Error)
}

func (g *Gorm) UserByID(ctx context.Context, id string) (*models.User, error) {
	if err := checkID(id); err != nil {
		return nil, err
	}
	var u models.User
	if err := g.db.WithContext(ctx).Preload("Roles").First(&u, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &u, nil
}

func (g *Gorm) UserByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	err := g.db.WithContext(ctx).Preload("Roles").First(&u, "email = ?", strings.ToLower(email)).Error
	if err != nil {
		return nil, translate(err)
	}
	return &u, nil
}

func (g *Gorm) ListUsers(ctx context.Context) ([]models.User, error) {
	var users []models.User
	err := g.db.WithContext(ctx).Preload("Roles").Order("created_at desc").Find(&users).Error
	return users, translate(err)
}

func (g *Gorm) SaveUser(ctx context.Context, u *models.User, roles []string) error {
	if err := checkID(u.ID); err != nil {
		return err
	}
	u.Email = strings.ToLower(u.Email)
	return translate(g.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Select("id").First(&models.User{}, "id = ?", u.ID).Error; err != nil {
			return err
		}
		if roles != nil {
			rs, err := g.roles(tx, roles)
			if err != nil {
				return err
			}
			if err := tx.Model(u).Association("Roles").Replace(rs); err != nil {
				return err
			}
			u.Roles = rs
		}
		return tx.Omit("Roles").Save(u).Error
	}))
}

// DeleteUser removes the user and its role links. Sessions and audit rows
// are kept.
func (g *Gorm) DeleteUser(ctx context.Context, id string) error {
	if err := checkID(id); err != nil {
		return err
	}
	return translate(g.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		u := models.User{}
		if err := tx.Select("id").First(&u, "id = ?", id).Error; err != nil {
			return err
		}
		if err := tx.Model(&u).Association("Roles").Clear(); err != nil {
			return err
		}
		return tx.Delete(&u).Error
	}))
}

func (g *Gorm) CreateSession(ctx context.Context, s *models.Session) error {
	return translate(g.db.WithContext(ctx).Create(s).Error)
}

func (g *Gorm) Session(ctx context.Context, jti string) (*models.Session, error) {
	var s models.Session
	if err := g.db.WithContext(ctx).First(&s, "jti = ?", jti).Error; err != nil {
		return nil, translate(err)
	}
	return &s, nil
}

func (g *Gorm) RevokeSession(ctx context.Context, jti string, at time.Time) error {
	res := g.db.WithContext(ctx).Model(&models.Session{}).
		Where("jti = ? AND revoked_at IS NULL", jti).
		Update("revoked_at", at)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (g *Gorm) CreateServer(ctx context.Context, s *models.GameServer) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	return translate(g.db.WithContext(ctx).Create(s).Error)
}

func (g *Gorm) Server(ctx context.Context, id string) (*models.GameServer, error) {
	if err := checkID(id); err != nil {
		return nil, err
	}
	var s models.GameServer
	if err := g.db.WithContext(ctx).First(&s, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &s, nil
}

func (g *Gorm) ListServers(ctx context.Context) ([]models.GameServer, error) {
	var ss []models.GameServer
	err := g.db.WithContext(ctx).Order("created_at desc").Find(&ss).Error
	return ss, translate(err)
}

func (g *Gorm) SaveServer(ctx context.Context, s *models.GameServer) error {
	if err := checkID(s.ID); err != nil {
		return err
	}
	res := g.db.WithContext(ctx).Model(&models.GameServer{}).
		Where("id = ?", s.ID).
		Select("name", "pid", "address", "updated_at").
		Updates(s)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (g *Gorm) DeleteServer(ctx context.Context, id string) error {
	if err := checkID(id); err != nil {
		return err
	}
	res := g.db.WithContext(ctx).Delete(&models.GameServer{}, "id = ?", id)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (g *Gorm) WriteAudit(ctx context.Context, l *models.AuditLog) error {
	return translate(g.db.WithContext(ctx).Create(l).Error)
}

func (g *Gorm) ListAudit(ctx context.Context, userID string, limit int) ([]models.AuditLog, error) {
	q := g.db.WithContext(ctx).Order("created_at desc, id desc")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if userID != "" {
		q = q.Where("user_id = ?", userID)
	}
	var logs []models.AuditLog
	return logs, translate(q.Find(&logs).Error)
}
