package auth

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/hongminglow/fraudpulse-be/internal/models"
)

// ErrInvalidToken covers malformed, badly signed, expired and revoked tokens.
var ErrInvalidToken = errors.New("invalid token")

// Session is the identity carried by a bearer token for the lifetime of a login.
type Session struct {
	UserID    int64
	Username  string
	IsAdmin   bool
	TokenID   string
	ExpiresAt time.Time
}

type claims struct {
	Username string `json:"username"`
	Admin    bool   `json:"adm"`
	jwt.RegisteredClaims
}

// TokenManager issues and verifies signed JWTs for authenticated employees.
type TokenManager struct {
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenManager creates a manager with the provided secret, issuer, and lifetime.
func NewTokenManager(secret, issuer string, ttl time.Duration) *TokenManager {
	return &TokenManager{
		secret: []byte(secret),
		issuer: issuer,
		ttl:    ttl,
		now:    time.Now,
	}
}

// Generate issues a signed JWT for the employee and returns the session it encodes.
func (t *TokenManager) Generate(employee models.Employee) (string, Session, error) {
	now := t.now()
	session := Session{
		UserID:    employee.ID,
		Username:  employee.Username,
		IsAdmin:   employee.IsAdmin,
		TokenID:   uuid.NewString(),
		ExpiresAt: now.Add(t.ttl).Truncate(time.Second),
	}
	c := claims{
		Username: employee.Username,
		Admin:    employee.IsAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    t.issuer,
			Subject:   strconv.FormatInt(employee.ID, 10),
			ID:        session.TokenID,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(session.ExpiresAt),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	signed, err := token.SignedString(t.secret)
	if err != nil {
		return "", Session{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, session, nil
}

// Parse verifies signature, issuer and lifetime and returns the session.
func (t *TokenManager) Parse(tokenString string) (Session, error) {
	var c claims
	_, err := jwt.ParseWithClaims(tokenString, &c, func(token *jwt.Token) (any, error) {
		return t.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(t.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(t.now),
	)
	if err != nil {
		return Session{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	id, err := strconv.ParseInt(c.Subject, 10, 64)
	if err != nil || c.ID == "" {
		return Session{}, fmt.Errorf("%w: bad subject or token id", ErrInvalidToken)
	}
	return Session{
		UserID:    id,
		Username:  c.Username,
		IsAdmin:   c.Admin,
		TokenID:   c.ID,
		ExpiresAt: c.ExpiresAt.Time,
	}, nil
}
