package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssueParse_RoundTrip(t *testing.T) {
	s, err := Issue("p-1", RoleParticipant, "mealtrack", "secret", time.Hour, time.Now())
	require.NoError(t, err)
	assert.NotEmpty(t, s.ID)

	claims, err := Parse(s.Token, "secret", "mealtrack")
	require.NoError(t, err)
	assert.Equal(t, "p-1", claims.Subject)
	assert.Equal(t, RoleParticipant, claims.Role)
	assert.Equal(t, s.ID, claims.ID)
}

func TestParse_Rejects(t *testing.T) {
	valid, err := Issue("admin", RoleAdmin, "mealtrack", "secret", time.Hour, time.Now())
	require.NoError(t, err)
	expired, err := Issue("admin", RoleAdmin, "mealtrack", "secret", time.Minute, time.Now().Add(-time.Hour))
	require.NoError(t, err)

	noRole, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		Role: "staff",
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        "x",
			Issuer:    "mealtrack",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}).SignedString([]byte("secret"))
	require.NoError(t, err)

	tests := []struct {
		name   string
		token  string
		key    string
		issuer string
	}{
		{name: "wrong key", token: valid.Token, key: "other", issuer: "mealtrack"},
		{name: "wrong issuer", token: valid.Token, key: "secret", issuer: "someone-else"},
		{name: "expired", token: expired.Token, key: "secret", issuer: "mealtrack"},
		{name: "garbage", token: "not-a-jwt", key: "secret", issuer: "mealtrack"},
		{name: "unknown role", token: noRole, key: "secret", issuer: "mealtrack"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.token, tt.key, tt.issuer)
			assert.Error(t, err)
		})
	}
}
