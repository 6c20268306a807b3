package domain

import "time"

// TokenPair is what a successful login or refresh returns: the short-lived
// signed access token and the opaque single-use refresh token.
type TokenPair struct {
	AccessToken      string    `json:"access_token"`
	RefreshToken     string    `json:"refresh_token"`
	TokenType        string    `json:"token_type,omitempty"` // typically "Bearer"
	AccessExpiresAt  time.Time `json:"access_expires_at"`
	RefreshExpiresAt time.Time `json:"refresh_expires_at"`
}

// RefreshToken models the stored refresh token record in the DB. The opaque
// value itself is never persisted, only its fingerprint.
type RefreshToken struct {
	ID        string
	SubjectID string
	Device    string // client/device descriptor supplied at login
	FamilyID  string // lineage id; all rotations of one login share it
	TokenHash string // deterministic fingerprint (base64url SHA-256)
	ExpiresAt time.Time
	Revoked   bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Expired reports whether the record is past its expiry at the given
// instant. Expiry equal to now counts as expired.
func (t RefreshToken) Expired(now time.Time) bool {
	return !now.Before(t.ExpiresAt)
}

// Active reports whether the record can still be rotated.
func (t RefreshToken) Active(now time.Time) bool {
	return !t.Revoked && !t.Expired(now)
}
