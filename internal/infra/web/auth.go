package web

import (
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/marselbeijing/ispeech-helper/internal/domain"
	"github.com/marselbeijing/ispeech-helper/internal/domain/model"
)

// ===== Session/JWT primitives =====

// SessionManager mints and parses the short-lived session tokens handed to
// the mini-app after its initData has been verified.
type SessionManager struct {
	secret []byte
	ttl    time.Duration
}

func NewSessionManager(secret string, ttl time.Duration) *SessionManager {
	return &SessionManager{secret: []byte(secret), ttl: ttl}
}

type SessionClaims struct {
	UserID    string `json:"uid"`
	FirstName string `json:"first_name,omitempty"`
	Username  string `json:"username,omitempty"`
	jwt.RegisteredClaims
}

func (m *SessionManager) Mint(user *model.User) (string, error) {
	if user.IsZero() {
		return "", domain.ErrInvalidArgument
	}
	now := time.Now()
	claims := SessionClaims{
		UserID:    user.ID,
		FirstName: user.FirstName,
		Username:  user.Username,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.secret)
}

// ParseFromRequest reads "Authorization: Bearer <jwt>".
func (m *SessionManager) ParseFromRequest(r *http.Request) (*SessionClaims, error) {
	hdr := r.Header.Get("Authorization")
	if hdr == "" || !strings.HasPrefix(strings.ToLower(hdr), "bearer ") {
		return nil, domain.ErrUnauthorized
	}
	return m.parse(strings.TrimSpace(hdr[7:]))
}

func (m *SessionManager) parse(tok string) (*SessionClaims, error) {
	claims := &SessionClaims{}
	tkn, err := jwt.ParseWithClaims(tok, claims, func(t *jwt.Token) (any, error) {
		return m.secret, nil
	})
	if err != nil || !tkn.Valid || claims.UserID == "" {
		return nil, domain.ErrUnauthorized
	}
	return claims, nil
}
