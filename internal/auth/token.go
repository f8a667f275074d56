package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/punchamoorthee/hederaops/internal/domain"
)

var ErrInvalidToken = errors.New("invalid or expired token")

// Claims is the JWT payload carrying the caller identity.
type Claims struct {
	Username  string   `json:"username"`
	AccountID string   `json:"account_id"`
	Roles     []string `json:"roles"`
	jwt.RegisteredClaims
}

// Verifier checks HS256 tokens issued elsewhere and turns them into callers.
type Verifier struct {
	secret []byte
}

func NewVerifier(secret string) *Verifier {
	return &Verifier{secret: []byte(secret)}
}

func (v *Verifier) Verify(tokenString string) (domain.Caller, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenSignatureInvalid
		}
		return v.secret, nil
	})
	if err != nil || !token.Valid {
		return domain.Caller{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	id := claims.AccountID
	if id == "" {
		id = claims.Subject
	}
	if id == "" {
		return domain.Caller{}, fmt.Errorf("%w: missing account id", ErrInvalidToken)
	}
	return domain.Caller{ID: id, Username: claims.Username, Roles: claims.Roles}, nil
}

// Sign issues a token for c. Production tokens come from the identity
// provider; this exists for tooling and tests.
func (v *Verifier) Sign(c domain.Caller, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		Username:  c.Username,
		AccountID: c.ID,
		Roles:     c.Roles,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   c.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(v.secret)
}
