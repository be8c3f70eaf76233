package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Role scopes what a session may do.
type Role string

const (
	RoleAdmin       Role = "admin"
	RoleParticipant Role = "participant"
)

// Claims represents JWT payload. The registered ID (jti) is the session id.
type Claims struct {
	Role Role `json:"role"`
	jwt.RegisteredClaims
}

// Session is what a successful login hands back to the caller.
type Session struct {
	ID        string    `json:"session_id"`
	Subject   string    `json:"subject"`
	Role      Role      `json:"role"`
	Token     string    `json:"access_token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Issue signs an HS256 access token for subject with a fresh session id.
func Issue(subject string, role Role, issuer, key string, ttl time.Duration, now time.Time) (Session, error) {
	exp := now.Add(ttl)
	sid := uuid.NewString()
	claims := Claims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        sid,
			Issuer:    issuer,
			Subject:   subject,
			ExpiresAt: jwt.NewNumericDate(exp),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(key))
	if err != nil {
		return Session{}, err
	}
	return Session{ID: sid, Subject: subject, Role: role, Token: signed, ExpiresAt: exp}, nil
}

// Parse validates a token and returns claims.
func Parse(tokenStr, key, issuer string) (Claims, error) {
	parsed, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(key), nil
	}, jwt.WithIssuer(issuer), jwt.WithExpirationRequired())
	if err != nil {
		return Claims{}, err
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return Claims{}, errors.New("invalid token")
	}
	if claims.ID == "" || (claims.Role != RoleAdmin && claims.Role != RoleParticipant) {
		return Claims{}, errors.New("invalid session claims")
	}
	return *claims, nil
}
