package auth

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/kiribu/money-tracker/internal/domain"
	"github.com/kiribu/money-tracker/internal/pkg/apperr"
	"github.com/kiribu/money-tracker/internal/pkg/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const secret = "0123456789abcdef0123456789abcdef"

var now = time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)

func TestIssueAndParse(t *testing.T) {
	clk := clock.NewManual(now)
	m := NewTokenManager(secret, "money-tracker", time.Hour, clk)

	token, expires, err := m.Issue(&domain.User{ID: 42, Role: domain.RoleAdmin})
	require.NoError(t, err)
	assert.Equal(t, now.Add(time.Hour), expires)

	claims, err := m.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, int64(42), claims.UserID)
	assert.Equal(t, domain.RoleAdmin, claims.Role)
	assert.NotEmpty(t, claims.ID)

	other, _, err := m.Issue(&domain.User{ID: 42, Role: domain.RoleAdmin})
	require.NoError(t, err)
	otherClaims, err := m.Parse(other)
	require.NoError(t, err)
	assert.NotEqual(t, claims.ID, otherClaims.ID)
}

func TestParseRejectsExpiredToken(t *testing.T) {
	clk := clock.NewManual(now)
	m := NewTokenManager(secret, "money-tracker", time.Hour, clk)
	token, _, err := m.Issue(&domain.User{ID: 1, Role: domain.RoleUser})
	require.NoError(t, err)

	clk.Advance(2 * time.Hour)
	_, err = m.Parse(token)
	assert.ErrorIs(t, err, apperr.ErrUnauthenticated)
	assert.Equal(t, "token expired", apperr.Message(err))
}

func TestParseRejectsForeignTokens(t *testing.T) {
	clk := clock.NewManual(now)
	m := NewTokenManager(secret, "money-tracker", time.Hour, clk)

	otherSecret := NewTokenManager("another-secret-of-enough-length", "money-tracker", time.Hour, clk)
	forged, _, err := otherSecret.Issue(&domain.User{ID: 1, Role: domain.RoleAdmin})
	require.NoError(t, err)

	otherIssuer := NewTokenManager(secret, "someone-else", time.Hour, clk)
	misissued, _, err := otherIssuer.Issue(&domain.User{ID: 1, Role: domain.RoleAdmin})
	require.NoError(t, err)

	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, &Claims{
		UserID: 1,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "money-tracker",
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
		},
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	for name, token := range map[string]string{
		"empty":        "",
		"garbage":      "not-a-jwt",
		"wrong secret": forged,
		"wrong issuer": misissued,
		"alg none":     unsigned,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := m.Parse(token)
			assert.ErrorIs(t, err, apperr.ErrUnauthenticated)
		})
	}
}

func TestDevVerifier(t *testing.T) {
	identity, err := DevVerifier{}.Verify(context.Background(), " Alice@Example.com ")
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", identity.Email)
	assert.Equal(t, "dev-alice@example.com", identity.GoogleID)
	assert.Equal(t, "alice", identity.Name)

	for _, bad := range []string{"", "alice", "@example.com", "alice@"} {
		_, err := DevVerifier{}.Verify(context.Background(), bad)
		assert.ErrorIs(t, err, apperr.ErrUnauthenticated, bad)
	}
}
