// Package auth issues and verifies the HS256 access tokens that carry the
// caller's patient id.
package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var ErrBadToken = errors.New("invalid token")

const TokenTTL = 15 * time.Minute

type Claims struct {
	PatientID string `json:"uid"`
	jwt.RegisteredClaims
}

// short-lived access token
func MakeToken(patientID, secret string) (string, error) {
	return makeToken(patientID, secret, time.Now())
}

func makeToken(patientID, secret string, now time.Time) (string, error) {
	c := Claims{
		PatientID: patientID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   patientID,
			ExpiresAt: jwt.NewNumericDate(now.Add(TokenTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString([]byte(secret))
}

func ParseToken(raw, secret string) (*Claims, error) {
	tok, err := jwt.ParseWithClaims(raw, &Claims{}, func(t *jwt.Token) (any, error) {
		// block alg confusion
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrBadToken
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, err
	}
	c, ok := tok.Claims.(*Claims)
	if !ok || !tok.Valid || c.PatientID == "" {
		return nil, ErrBadToken
	}
	return c, nil
}
