package tokens

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signed(t *testing.T, claims jwt.RegisteredClaims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("server-secret"))
	require.NoError(t, err)
	return s
}

func TestClaimsFromToken_ReadsSubjectWithoutKey(t *testing.T) {
	t.Parallel()

	exp := time.Now().Add(time.Hour).UTC()
	tok := signed(t, jwt.RegisteredClaims{
		Subject:   "u1",
		ExpiresAt: jwt.NewNumericDate(exp),
	})

	claims, err := ClaimsFromToken(tok)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.Subject)
	require.NotNil(t, claims.ExpiresAt)
	assert.WithinDuration(t, exp, claims.ExpiresAt.Time, time.Second)
}

func TestClaimsFromToken_Opaque(t *testing.T) {
	t.Parallel()

	_, err := ClaimsFromToken("t1")
	require.ErrorIs(t, err, ErrNotJWT)
}

func TestExpired(t *testing.T) {
	t.Parallel()

	now := time.Now()
	tests := []struct {
		name  string
		token string
		want  bool
	}{
		{name: "opaque", token: "t1", want: false},
		{name: "no exp", token: signed(t, jwt.RegisteredClaims{Subject: "u1"}), want: false},
		{name: "future exp", token: signed(t, jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour))}), want: false},
		{name: "past exp", token: signed(t, jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(now.Add(-time.Hour))}), want: true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, Expired(tt.token, now))
		})
	}
}
