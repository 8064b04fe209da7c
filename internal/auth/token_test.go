package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"orgfees/internal/core"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func testUser() core.User {
	return core.User{ID: core.NewID(), Email: "staff@example.com", Role: core.RoleStaff}
}

func TestIssuer_RoundTrip(t *testing.T) {
	issuer := NewIssuer(testSecret, time.Hour)
	user := testUser()

	token, expires, err := issuer.Issue(user)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expires, 5*time.Second)

	actor, err := issuer.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, core.Actor{UserID: user.ID.Hex(), Email: user.Email, Role: core.RoleStaff}, actor)
}

func TestIssuer_Rejects(t *testing.T) {
	issuer := NewIssuer(testSecret, time.Hour)
	user := testUser()

	valid, _, err := issuer.Issue(user)
	require.NoError(t, err)

	expiredIssuer := NewIssuer(testSecret, time.Minute)
	expiredIssuer.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	expired, _, err := expiredIssuer.Issue(user)
	require.NoError(t, err)

	otherSecret, _, err := NewIssuer("another-secret-another-secret-xx", time.Hour).Issue(user)
	require.NoError(t, err)

	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{
		"sub": user.ID.Hex(), "role": "admin", "exp": time.Now().Add(time.Hour).Unix(),
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	noExpiry, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": user.ID.Hex(), "role": "admin",
	}).SignedString([]byte(testSecret))
	require.NoError(t, err)

	badRole, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": user.ID.Hex(), "role": "root", "exp": time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte(testSecret))
	require.NoError(t, err)

	tests := map[string]string{
		"garbage":      "not.a.token",
		"empty":        "",
		"expired":      expired,
		"other secret": otherSecret,
		"alg none":     unsigned,
		"no expiry":    noExpiry,
		"unknown role": badRole,
		"tampered":     valid[:len(valid)-2] + "xx",
	}
	for name, token := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := issuer.Verify(token)
			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}

func TestHashPassword(t *testing.T) {
	hash, err := HashPassword("correct horse")
	require.NoError(t, err)
	assert.True(t, CheckPassword(hash, "correct horse"))
	assert.False(t, CheckPassword(hash, "wrong horse"))

	_, err = HashPassword("short")
	assert.True(t, core.IsReason(err, core.ReasonInvalidPassword))
}
