package security

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssueAndParseToken(t *testing.T) {
	token, err := IssueToken("s3cret", "scheduler", time.Hour, time.Now())
	require.NoError(t, err)

	claims, err := ParseToken("s3cret", token)
	require.NoError(t, err)
	assert.Equal(t, "scheduler", claims.Subject)
	assert.Equal(t, TokenIssuer, claims.Issuer)
	require.NotNil(t, claims.ExpiresAt)
}

func TestParseTokenRejects(t *testing.T) {
	valid, err := IssueToken("s3cret", "ops", time.Hour, time.Now())
	require.NoError(t, err)

	expired, err := IssueToken("s3cret", "ops", time.Minute, time.Now().Add(-time.Hour))
	require.NoError(t, err)

	foreign, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Issuer: "someone-else", Subject: "ops",
	}).SignedString([]byte("s3cret"))
	require.NoError(t, err)

	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.RegisteredClaims{
		Issuer: TokenIssuer, Subject: "ops",
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	tests := []struct {
		name   string
		secret string
		token  string
	}{
		{"wrong secret", "other", valid},
		{"expired", "s3cret", expired},
		{"wrong issuer", "s3cret", foreign},
		{"alg none", "s3cret", unsigned},
		{"garbage", "s3cret", "not.a.token"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseToken(tt.secret, tt.token)
			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}

func TestIssueTokenWithoutSecret(t *testing.T) {
	_, err := IssueToken("", "ops", time.Hour, time.Now())
	assert.Error(t, err)
}
