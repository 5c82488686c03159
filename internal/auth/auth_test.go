package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenRoundTrip(t *testing.T) {
	tok, err := MakeToken("patient-1", "secret")
	require.NoError(t, err)

	c, err := ParseToken(tok, "secret")
	require.NoError(t, err)
	assert.Equal(t, "patient-1", c.PatientID)
}

func TestWrongSecret(t *testing.T) {
	tok, err := MakeToken("patient-1", "secret")
	require.NoError(t, err)
	_, err = ParseToken(tok, "other")
	assert.Error(t, err)
}

func TestExpired(t *testing.T) {
	tok, err := makeToken("patient-1", "secret", time.Now().Add(-time.Hour))
	require.NoError(t, err)
	_, err = ParseToken(tok, "secret")
	assert.ErrorIs(t, err, jwt.ErrTokenExpired)
}

func TestRejectsNoneAlg(t *testing.T) {
	c := Claims{
		PatientID: "patient-1",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
		},
	}
	tok, err := jwt.NewWithClaims(jwt.SigningMethodNone, c).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = ParseToken(tok, "secret")
	assert.Error(t, err)
}

func TestRejectsMissingPatient(t *testing.T) {
	tok, err := MakeToken("", "secret")
	require.NoError(t, err)
	_, err = ParseToken(tok, "secret")
	assert.ErrorIs(t, err, ErrBadToken)
}
