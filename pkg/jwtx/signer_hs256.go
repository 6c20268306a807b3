package jwtx

import (
	"errors"

	"github.com/golang-jwt/jwt/v5"
)

// HS256Signer implements the Signer interface with an HMAC-SHA256 shared
// secret. The same secret verifies, so this suits single-service
// deployments where nothing outside the process needs to verify tokens.
type HS256Signer struct {
	kid    string
	secret []byte
}

func newHS256Signer(kid string, secret []byte) (*HS256Signer, error) {
	if len(secret) < 32 {
		return nil, errors.New("jwtx: HS256 secret must be at least 32 bytes")
	}
	return &HS256Signer{kid: kid, secret: secret}, nil
}

func (s *HS256Signer) Alg() string { return jwt.SigningMethodHS256.Alg() }
func (s *HS256Signer) KID() string { return s.kid }

func (s *HS256Signer) Sign(claims Claims) (string, error) {
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	t.Header["kid"] = s.kid
	return t.SignedString(s.secret)
}

// Secret exposes the shared secret for building the matching verifier.
func (s *HS256Signer) Secret() []byte { return s.secret }

func (s *HS256Signer) Validate() error {
	if len(s.secret) < 32 {
		return errors.New("jwtx: HS256 secret too short")
	}
	return nil
}
