// internal/auth/session.go
package auth

import (
	"crypto/ed25519"
	"crypto/rand"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken wraps every verification failure.
var ErrInvalidToken = errors.New("invalid token")

// Claims identifies one player seat in one session.
type Claims struct {
	SessionCode string
	PlayerID    string
}

type playerClaims struct {
	SessionCode string `json:"sid"`
	jwt.RegisteredClaims
}

// Issuer signs and verifies player tokens with an ed25519 key pair generated
// at startup, so tokens do not survive a restart (neither do sessions).
type Issuer struct {
	privateKey ed25519.PrivateKey
	publicKey  ed25519.PublicKey
	// expire of 0 issues tokens without an exp claim.
	expire time.Duration
	now    func() time.Time
}

// NewIssuer generates a fresh key pair.
func NewIssuer(expire time.Duration) (*Issuer, error) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("failed to generate ed25519 key pair: %w", err)
	}
	return &Issuer{privateKey: priv, publicKey: pub, expire: expire, now: time.Now}, nil
}

// Issue creates a signed token with sub = playerID and sid = sessionCode.
func (i *Issuer) Issue(sessionCode, playerID string) (string, error) {
	now := i.now()
	claims := playerClaims{
		SessionCode: sessionCode,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:  playerID,
			IssuedAt: jwt.NewNumericDate(now),
		},
	}
	if i.expire > 0 {
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(i.expire))
	}

	token := jwt.NewWithClaims(jwt.SigningMethodEdDSA, claims)
	return token.SignedString(i.privateKey)
}

// Verify checks a token's signature and expiry and returns who it names.
func (i *Issuer) Verify(tokenString string) (Claims, error) {
	var claims playerClaims
	t, err := jwt.ParseWithClaims(tokenString, &claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodEd25519); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return i.publicKey, nil
	}, jwt.WithTimeFunc(i.now))
	if err != nil {
		return Claims{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !t.Valid {
		return Claims{}, ErrInvalidToken
	}
	if claims.Subject == "" || claims.SessionCode == "" {
		return Claims{}, fmt.Errorf("%w: missing sub or sid", ErrInvalidToken)
	}
	return Claims{SessionCode: claims.SessionCode, PlayerID: claims.Subject}, nil
}
