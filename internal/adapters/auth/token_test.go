package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"eventlottery/internal/domain"
)

func TestJWTIssuer_Issue(t *testing.T) {
	secret := "test-secret"
	issuer := NewJWTIssuer(secret)

	token, err := issuer.Issue("user-123", "u@example.com", []string{"organizer", "entrant"}, time.Hour)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	parsed, err := jwt.ParseWithClaims(token, &jwtClaims{}, func(t *jwt.Token) (any, error) {
		return []byte(secret), nil
	})
	require.NoError(t, err)
	require.True(t, parsed.Valid)
	claims, ok := parsed.Claims.(*jwtClaims)
	require.True(t, ok)
	assert.Equal(t, "user-123", claims.Subject)
	assert.Equal(t, "u@example.com", claims.Email)
	assert.Equal(t, []string{"organizer", "entrant"}, claims.Roles)
}

func TestJWTVerifier_RoundTrip(t *testing.T) {
	token, err := NewJWTIssuer("s3cret").Issue("user-1", "", nil, time.Hour)
	require.NoError(t, err)

	userID, err := NewJWTVerifier("s3cret").Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", userID)
}

func TestJWTVerifier_Rejects(t *testing.T) {
	verifier := NewJWTVerifier("s3cret")

	wrongKey, err := NewJWTIssuer("other").Issue("user-1", "", nil, time.Hour)
	require.NoError(t, err)

	iss := &jwtIssuer{secret: []byte("s3cret"), now: func() time.Time { return time.Now().Add(-2 * time.Hour) }}
	expired, err := iss.Issue("user-1", "", nil, time.Hour)
	require.NoError(t, err)

	noSubject, err := NewJWTIssuer("s3cret").Issue("", "", nil, time.Hour)
	require.NoError(t, err)

	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{"sub": "user-1"}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	for name, tok := range map[string]string{
		"garbage":    "not-a-token",
		"wrong key":  wrongKey,
		"expired":    expired,
		"no subject": noSubject,
		"alg none":   none,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := verifier.Verify(tok)
			assert.ErrorIs(t, err, domain.ErrUnauthorized)
		})
	}

	_, err = verifier.Verify(expired)
	assert.True(t, IsExpired(err))
}
