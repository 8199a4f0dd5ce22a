// Package auth mints and verifies the session tokens handed out after a
// successful OTP verification.
package auth

import (
	"errors"
	"time"

	"github.com/dmitrijs2005/otpauth/internal/common"
	"github.com/dmitrijs2005/otpauth/internal/server/models"
	"github.com/golang-jwt/jwt/v5"
)

// Claims carries the account id and role alongside the registered claims.
// Subject mirrors UserID.
type Claims struct {
	jwt.RegisteredClaims
	UserID string      `json:"id"`
	Role   models.Role `json:"role"`
}

func GenerateToken(userID string, role models.Role, secretKey []byte, issuedAt time.Time, validityDuration time.Duration) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(issuedAt.Add(validityDuration)),
		},
		UserID: userID,
		Role:   role,
	})

	return token.SignedString(secretKey)
}

// ParseToken verifies signature and expiry. Expired tokens yield
// common.ErrTokenExpired; anything else wrong yields common.ErrInvalidToken.
func ParseToken(tokenString string, secretKey []byte) (*Claims, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return secretKey, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, common.ErrTokenExpired
		}
		return nil, common.ErrInvalidToken
	}

	if !token.Valid || claims.UserID == "" {
		return nil, common.ErrInvalidToken
	}

	return claims, nil
}

// Issuer binds the process-wide secret and the fixed validity window.
type Issuer struct {
	secretKey []byte
	validity  time.Duration
	now       func() time.Time
}

func NewIssuer(secretKey string, validity time.Duration) *Issuer {
	return &Issuer{secretKey: []byte(secretKey), validity: validity, now: time.Now}
}

// Issue mints a token for the account.
func (i *Issuer) Issue(account *models.Account) (string, error) {
	return GenerateToken(account.ID, account.Role, i.secretKey, i.now(), i.validity)
}

// Verify parses and validates a token minted by this issuer.
func (i *Issuer) Verify(token string) (*Claims, error) {
	return ParseToken(token, i.secretKey)
}
