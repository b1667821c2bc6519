package auth

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/dmitrijs2005/yamdb/internal/common"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Claims is the access token payload: the registered claims plus the id of
// the user the token is bound to.
type Claims struct {
	jwt.RegisteredClaims
	UserID int64 `json:"user_id"`
}

// GenerateToken signs an HS256 access token for userID, issued at now and
// expiring after validityDuration.
func GenerateToken(userID int64, secretKey []byte, now time.Time, validityDuration time.Duration) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   strconv.FormatInt(userID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(validityDuration)),
		},
		UserID: userID,
	})

	tokenString, err := token.SignedString(secretKey)
	if err != nil {
		return "", err
	}

	return tokenString, nil
}

// GetUserIDFromToken verifies signature and expiry and returns the bound user
// id. Expired tokens yield common.ErrTokenExpired, anything else that fails
// verification yields common.ErrInvalidToken.
func GetUserIDFromToken(tokenString string, secretKey []byte, opts ...jwt.ParserOption) (int64, error) {
	claims := &Claims{}

	opts = append(opts, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return secretKey, nil
	}, opts...)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return 0, common.ErrTokenExpired
		}
		return 0, fmt.Errorf("%w: %v", common.ErrInvalidToken, err)
	}

	if !token.Valid || claims.UserID == 0 {
		return 0, common.ErrInvalidToken
	}

	return claims.UserID, nil
}

// TokenIssuer binds the signing key, validity window and clock used for
// access tokens.
type TokenIssuer struct {
	key      []byte
	validity time.Duration
	now      func() time.Time
}

// NewTokenIssuer derives the access-token subkey from secret.
func NewTokenIssuer(secret []byte, validity time.Duration, now func() time.Time) *TokenIssuer {
	if now == nil {
		now = time.Now
	}
	return &TokenIssuer{key: DeriveKey(secret, PurposeAccessToken), validity: validity, now: now}
}

// Issue returns a signed token for userID.
func (i *TokenIssuer) Issue(userID int64) (string, error) {
	return GenerateToken(userID, i.key, i.now(), i.validity)
}

// UserID verifies token and returns the user id it is bound to.
func (i *TokenIssuer) UserID(token string) (int64, error) {
	return GetUserIDFromToken(token, i.key, jwt.WithTimeFunc(i.now))
}
