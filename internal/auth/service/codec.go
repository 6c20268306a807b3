package service

import (
	"errors"
	"time"

	"github.com/talentboard/authcore/pkg/jwtx"
)

// Default access-token lifetimes. Elevated principals get a shorter window
// because their tokens can do more damage while alive.
const (
	DefaultAccessTTL         = 15 * time.Minute
	DefaultElevatedAccessTTL = 5 * time.Minute
)

// AccessTokenCodec mints and verifies the short-lived signed access tokens.
// It is stateless and pure: revocation is deliberately NOT checked here, so
// callers must also consult the revocation list (AuthService does).
type AccessTokenCodec struct {
	Signer   jwtx.Signer
	Verifier jwtx.Verifier
	Issuer   string

	// AccessTTL and ElevatedTTL select the validity window per principal
	// kind. Zero values fall back to the package defaults.
	AccessTTL   time.Duration
	ElevatedTTL time.Duration
}

// Issue mints a signed access token for the subject, embedding roles and
// the refresh family id. Returns the compact token string and its expiry.
func (c *AccessTokenCodec) Issue(subjectID, familyID string, roles []string, elevated bool) (string, time.Time, error) {
	ttl := c.AccessTTL
	if ttl <= 0 {
		ttl = DefaultAccessTTL
	}
	if elevated {
		ttl = c.ElevatedTTL
		if ttl <= 0 {
			ttl = DefaultElevatedAccessTTL
		}
	}

	now := time.Now().UTC()
	claims := jwtx.NewAccessClaims(subjectID, familyID, roles, ttl, c.Issuer, now)

	token, err := c.Signer.Sign(claims)
	if err != nil {
		return "", time.Time{}, err
	}
	return token, claims.ExpiresAt.Time, nil
}

// Verify parses and checks signature and expiry, returning the claims.
// Failures are typed: ErrExpired for time-based rejection, ErrMalformed
// for everything unparseable or forged.
func (c *AccessTokenCodec) Verify(token string) (jwtx.Claims, error) {
	claims, err := c.Verifier.Verify(token)
	if err != nil {
		if errors.Is(err, jwtx.ErrExpired) {
			return jwtx.Claims{}, ErrExpired
		}
		return jwtx.Claims{}, ErrMalformed
	}
	return claims, nil
}

// SubjectOf extracts the subject without full verification. Only for
// building audit detail from tokens that already passed Verify.
func (c *AccessTokenCodec) SubjectOf(token string) (string, error) {
	sub, err := jwtx.ExtractSubject(token)
	if err != nil {
		return "", ErrMalformed
	}
	return sub, nil
}
