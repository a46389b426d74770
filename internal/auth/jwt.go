package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	ErrEmptySecret  = errors.New("auth: signing secret is empty")
	ErrInvalidToken = errors.New("auth: invalid token")
)

const DefaultTTL = 24 * time.Hour

type tokenClaims struct {
	Roles []string `json:"roles"`
	jwt.RegisteredClaims
}

// Issuer signs and verifies HS256 operator tokens.
type Issuer struct {
	key []byte
	ttl time.Duration
	now func() time.Time
}

func NewIssuer(secret string, ttl time.Duration) (*Issuer, error) {
	if secret == "" {
		return nil, ErrEmptySecret
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Issuer{key: []byte(secret), ttl: ttl, now: time.Now}, nil
}

// Signed is a freshly signed token and the session it opens.
type Signed struct {
	Token     string
	JWTID     string
	ExpiresAt time.Time
}

func (i *Issuer) Sign(userID string, roles []string) (Signed, error) {
	now := i.now()
	s := Signed{JWTID: uuid.NewString(), ExpiresAt: now.Add(i.ttl)}
	claims := tokenClaims{
		Roles: roles,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			ID:        s.JWTID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(s.ExpiresAt),
		},
	}
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.key)
	if err != nil {
		return Signed{}, fmt.Errorf("sign: %w", err)
	}
	s.Token = tok
	return s, nil
}

func (i *Issuer) Verify(tokenStr string) (Claims, error) {
	var tc tokenClaims
	tok, err := jwt.ParseWithClaims(tokenStr, &tc, func(t *jwt.Token) (interface{}, error) {
		return i.key, nil
	}, jwt.WithValidMethods([]string{"HS256"}), jwt.WithTimeFunc(i.now))
	if err != nil || !tok.Valid {
		return Claims{}, ErrInvalidToken
	}
	if tc.Subject == "" || tc.ID == "" {
		return Claims{}, ErrInvalidToken
	}
	return Claims{Subject: tc.Subject, Roles: tc.Roles, JWTID: tc.ID}, nil
}
