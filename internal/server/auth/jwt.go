// Package auth issues and verifies the signed server timestamps that
// clients attach to user reports.
package auth

import (
	"errors"
	"time"

	"github.com/dmitrijs2005/gophdirectory/internal/common"
	"github.com/golang-jwt/jwt/v5"
)

// Claims binds a server timestamp (unix seconds) to the token.
type Claims struct {
	jwt.RegisteredClaims
	Timestamp int64 `json:"ts"`
}

// IssueTimestampToken signs ts with secretKey. The token expires validity
// after ts.
func IssueTimestampToken(ts time.Time, secretKey []byte, validity time.Duration) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(ts),
			ExpiresAt: jwt.NewNumericDate(ts.Add(validity)),
		},
		Timestamp: ts.Unix(),
	})

	tokenString, err := token.SignedString(secretKey)
	if err != nil {
		return "", err
	}

	return tokenString, nil
}

// VerifyTimestampToken checks the signature and expiry of tokenString as of
// now and returns the bound timestamp.
func VerifyTimestampToken(tokenString string, secretKey []byte, now time.Time) (time.Time, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return secretKey, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(func() time.Time { return now }),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return time.Time{}, common.ErrTimestampExpired
		}
		return time.Time{}, common.ErrInvalidTimestampToken
	}

	if !token.Valid {
		return time.Time{}, common.ErrInvalidTimestampToken
	}

	return time.Unix(claims.Timestamp, 0).UTC(), nil
}
