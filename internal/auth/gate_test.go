package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mealtrack/internal/meals"
)

func newTestGate(t *testing.T) (*Gate, *meals.Service) {
	t.Helper()
	store := meals.NewMemStore()
	svc := meals.NewService(store)
	g := NewGate(store, svc, nil, "mealtrack", "secret", time.Hour)
	created, err := g.SeedAdmin(context.Background(), "admin", "admin123")
	require.NoError(t, err)
	require.True(t, created)
	return g, svc
}

func TestGate_SeedAdminStoresHash(t *testing.T) {
	store := meals.NewMemStore()
	g := NewGate(store, meals.NewService(store), nil, "mealtrack", "secret", time.Hour)
	ctx := context.Background()

	created, err := g.SeedAdmin(ctx, "admin", "admin123")
	require.NoError(t, err)
	assert.True(t, created)

	a, err := store.FindAdmin(ctx, "admin")
	require.NoError(t, err)
	require.NotNil(t, a)
	assert.NotEqual(t, "admin123", a.PasswordHash)

	created, err = g.SeedAdmin(ctx, "admin", "changed")
	require.NoError(t, err)
	assert.False(t, created, "existing admin is left alone")
}

func TestGate_VerifyAdmin(t *testing.T) {
	g, _ := newTestGate(t)
	ctx := context.Background()

	ok, err := g.VerifyAdmin(ctx, "admin", "admin123")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = g.VerifyAdmin(ctx, "admin", "ADMIN123")
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = g.VerifyAdmin(ctx, "nobody", "admin123")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestGate_LoginAdmin(t *testing.T) {
	g, _ := newTestGate(t)
	ctx := context.Background()

	s, err := g.LoginAdmin(ctx, "admin", "admin123")
	require.NoError(t, err)
	assert.Equal(t, RoleAdmin, s.Role)

	_, err = g.LoginAdmin(ctx, "admin", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestGate_LoginParticipant(t *testing.T) {
	g, svc := newTestGate(t)
	ctx := context.Background()
	p, _, err := svc.AddParticipant(ctx, meals.RawInput{Name: "Alice", TeamName: "Alpha", Mobile: "111"})
	require.NoError(t, err)
	require.NotNil(t, p)

	s, got, err := g.LoginParticipant(ctx, "alice", "ALPHA")
	require.NoError(t, err)
	assert.Equal(t, p.ID, got.ID)
	assert.Equal(t, p.ID, s.Subject)
	assert.Equal(t, RoleParticipant, s.Role)

	_, _, err = g.LoginParticipant(ctx, "Alice", "Beta")
	assert.ErrorIs(t, err, ErrParticipantNotFound)
}

func TestGate_LogoutRevokesSession(t *testing.T) {
	g, _ := newTestGate(t)
	ctx := context.Background()

	s, err := g.LoginAdmin(ctx, "admin", "admin123")
	require.NoError(t, err)
	claims, err := g.Authenticate(ctx, s.Token)
	require.NoError(t, err)

	require.NoError(t, g.Logout(ctx, claims))
	_, err = g.Authenticate(ctx, s.Token)
	assert.ErrorIs(t, err, ErrSessionRevoked)

	other, err := g.LoginAdmin(ctx, "admin", "admin123")
	require.NoError(t, err)
	_, err = g.Authenticate(ctx, other.Token)
	assert.NoError(t, err, "a new session is unaffected")
}

func TestMemRevocations_Expire(t *testing.T) {
	now := time.Now()
	m := NewMemRevocations()
	m.now = func() time.Time { return now }
	ctx := context.Background()

	require.NoError(t, m.Revoke(ctx, "s1", now.Add(time.Minute)))
	revoked, _ := m.Revoked(ctx, "s1")
	assert.True(t, revoked)

	now = now.Add(2 * time.Minute)
	revoked, _ = m.Revoked(ctx, "s1")
	assert.False(t, revoked)
}
