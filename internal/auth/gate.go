package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"mealtrack/internal/meals"
)

var (
	// ErrInvalidCredentials is returned for a wrong admin username or password.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrParticipantNotFound is returned when no participant matches name and team.
	ErrParticipantNotFound = errors.New("participant not found")
	// ErrSessionRevoked is returned for tokens whose session was logged out.
	ErrSessionRevoked = errors.New("session revoked")
)

// AdminStore looks up and creates admins.
type AdminStore interface {
	FindAdmin(ctx context.Context, username string) (*meals.Admin, error)
	CreateAdmin(ctx context.Context, a meals.Admin) error
}

// ParticipantFinder resolves the participant login key.
type ParticipantFinder interface {
	FindByNameAndTeam(ctx context.Context, name, teamName string) (*meals.Participant, error)
}

// RevocationList remembers logged-out sessions.
type RevocationList interface {
	Revoke(ctx context.Context, sessionID string, until time.Time) error
	Revoked(ctx context.Context, sessionID string) (bool, error)
}

// Gate turns claimed identities into role-scoped sessions.
type Gate struct {
	admins       AdminStore
	participants ParticipantFinder
	revocations  RevocationList
	issuer       string
	key          string
	ttl          time.Duration
	now          func() time.Time
}

// NewGate builds a gate. A nil revocation list falls back to an in-memory one.
func NewGate(admins AdminStore, participants ParticipantFinder, revocations RevocationList, issuer, key string, ttl time.Duration) *Gate {
	if revocations == nil {
		revocations = NewMemRevocations()
	}
	if ttl <= 0 {
		ttl = 12 * time.Hour
	}
	return &Gate{
		admins:       admins,
		participants: participants,
		revocations:  revocations,
		issuer:       issuer,
		key:          key,
		ttl:          ttl,
		now:          time.Now,
	}
}

// SeedAdmin creates the admin with a bcrypt hash unless the username exists.
func (g *Gate) SeedAdmin(ctx context.Context, username, password string) (bool, error) {
	existing, err := g.admins.FindAdmin(ctx, username)
	if err != nil {
		return false, err
	}
	if existing != nil {
		return false, nil
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return false, fmt.Errorf("hash password: %w", err)
	}
	err = g.admins.CreateAdmin(ctx, meals.Admin{
		ID:           uuid.NewString(),
		Username:     username,
		PasswordHash: string(hash),
		CreatedAt:    g.now().UTC(),
	})
	if errors.Is(err, meals.ErrAdminExists) {
		return false, nil
	}
	return err == nil, err
}

// VerifyAdmin compares the password against the stored bcrypt hash.
func (g *Gate) VerifyAdmin(ctx context.Context, username, password string) (bool, error) {
	a, err := g.admins.FindAdmin(ctx, username)
	if err != nil {
		return false, err
	}
	if a == nil {
		return false, nil
	}
	return bcrypt.CompareHashAndPassword([]byte(a.PasswordHash), []byte(password)) == nil, nil
}

// VerifyParticipant matches name and team case-insensitively. It returns
// nil, nil when no participant matches.
func (g *Gate) VerifyParticipant(ctx context.Context, name, teamName string) (*meals.Participant, error) {
	name, teamName = strings.TrimSpace(name), strings.TrimSpace(teamName)
	if name == "" || teamName == "" {
		return nil, nil
	}
	return g.participants.FindByNameAndTeam(ctx, name, teamName)
}

// LoginAdmin issues an admin session.
func (g *Gate) LoginAdmin(ctx context.Context, username, password string) (Session, error) {
	ok, err := g.VerifyAdmin(ctx, username, password)
	if err != nil {
		return Session{}, err
	}
	if !ok {
		return Session{}, ErrInvalidCredentials
	}
	return Issue(username, RoleAdmin, g.issuer, g.key, g.ttl, g.now())
}

// LoginParticipant issues a participant session bound to the participant id.
func (g *Gate) LoginParticipant(ctx context.Context, name, teamName string) (Session, *meals.Participant, error) {
	p, err := g.VerifyParticipant(ctx, name, teamName)
	if err != nil {
		return Session{}, nil, err
	}
	if p == nil {
		return Session{}, nil, ErrParticipantNotFound
	}
	s, err := Issue(p.ID, RoleParticipant, g.issuer, g.key, g.ttl, g.now())
	return s, p, err
}

// Authenticate parses a bearer token and rejects logged-out sessions.
func (g *Gate) Authenticate(ctx context.Context, token string) (Claims, error) {
	claims, err := Parse(token, g.key, g.issuer)
	if err != nil {
		return Claims{}, err
	}
	revoked, err := g.revocations.Revoked(ctx, claims.ID)
	if err != nil {
		return Claims{}, fmt.Errorf("check revocation: %w", err)
	}
	if revoked {
		return Claims{}, ErrSessionRevoked
	}
	return claims, nil
}

// Logout ends the session carried by claims.
func (g *Gate) Logout(ctx context.Context, claims Claims) error {
	until := g.now().Add(g.ttl)
	if claims.ExpiresAt != nil {
		until = claims.ExpiresAt.Time
	}
	return g.revocations.Revoke(ctx, claims.ID, until)
}

// MemRevocations is a process-local revocation list for dev and tests.
type MemRevocations struct {
	mu      sync.Mutex
	entries map[string]time.Time
	now     func() time.Time
}

// NewMemRevocations creates an empty list.
func NewMemRevocations() *MemRevocations {
	return &MemRevocations{entries: make(map[string]time.Time), now: time.Now}
}

func (m *MemRevocations) Revoke(_ context.Context, sessionID string, until time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	for id, exp := range m.entries {
		if !exp.After(now) {
			delete(m.entries, id)
		}
	}
	if until.After(now) {
		m.entries[sessionID] = until
	}
	return nil
}

func (m *MemRevocations) Revoked(_ context.Context, sessionID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	exp, ok := m.entries[sessionID]
	return ok && exp.After(m.now()), nil
}
