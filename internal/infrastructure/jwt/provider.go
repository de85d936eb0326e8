package jwtinfra

import (
	"crypto/rsa"
	"fmt"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/vid-verifier/internal/config"
)

// assertionLifetime is how long a client assertion is valid; it is only used once.
const assertionLifetime = 10 * time.Minute

// AssertionSigner signs RS256 client assertions (RFC 7523) that stand in for a
// client secret at the token endpoint.
type AssertionSigner struct {
	privateKey *rsa.PrivateKey
	clientID   string
	thumbprint string
	now        func() time.Time
}

func NewAssertionSigner(cfg *config.Config) (*AssertionSigner, error) {
	privBytes, err := os.ReadFile(cfg.ClientAssertionKeyPath)
	if err != nil {
		return nil, fmt.Errorf("read assertion key: %w", err)
	}
	privKey, err := jwt.ParseRSAPrivateKeyFromPEM(privBytes)
	if err != nil {
		return nil, fmt.Errorf("parse assertion key: %w", err)
	}
	return &AssertionSigner{
		privateKey: privKey,
		clientID:   cfg.ClientID,
		thumbprint: cfg.ClientAssertionThumbprint,
		now:        time.Now,
	}, nil
}

// Sign returns a fresh assertion addressed to audience (the token endpoint URL).
func (s *AssertionSigner) Sign(audience string) (string, error) {
	now := s.now()
	claims := jwt.RegisteredClaims{
		Issuer:    s.clientID,
		Subject:   s.clientID,
		Audience:  jwt.ClaimStrings{audience},
		ID:        uuid.NewString(),
		IssuedAt:  jwt.NewNumericDate(now),
		NotBefore: jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(assertionLifetime)),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	if s.thumbprint != "" {
		token.Header["x5t"] = s.thumbprint
	}
	signed, err := token.SignedString(s.privateKey)
	if err != nil {
		return "", fmt.Errorf("sign client assertion: %w", err)
	}
	return signed, nil
}
