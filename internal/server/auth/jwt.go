package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/dmitrijs2005/signupd/internal/common"
)

// Claims carries the pending signup attempt the ticket was issued for.
type Claims struct {
	jwt.RegisteredClaims
	AttemptID string
}

// GenerateTicket signs a ticket for attemptID that expires together with the
// verification code. exp is rounded up to a whole second so the ticket never
// dies before the code; the session itself enforces the exact deadline.
func GenerateTicket(attemptID string, secretKey []byte, expiresAt time.Time) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(ceilSecond(expiresAt)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
		AttemptID: attemptID,
	})

	tokenString, err := token.SignedString(secretKey)
	if err != nil {
		return "", err
	}

	return tokenString, nil
}

func ceilSecond(t time.Time) time.Time {
	if r := t.Truncate(time.Second); !r.Equal(t) {
		return r.Add(time.Second)
	}
	return t
}

func GetAttemptIDFromTicket(tokenString string, secretKey []byte) (string, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return secretKey, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", common.ErrVerificationExpired
		}
		return "", fmt.Errorf("%w: %w", common.ErrInvalidToken, err)
	}

	if !token.Valid || claims.AttemptID == "" {
		return "", common.ErrInvalidToken
	}

	return claims.AttemptID, nil
}
