package domain

import (
	"slices"
	"time"
)

// Role names understood by the token subsystem. Principals may carry other
// roles; only RoleAdmin changes token behavior (shorter access TTL).
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// Principal is the subject a token is minted for. The principal store is an
// external collaborator; this is the shape the token subsystem consumes.
type Principal struct {
	ID        string
	LoginName string
	Roles     []string
	Active    bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Elevated reports whether the principal gets the elevated (shorter)
// access-token lifetime.
func (p Principal) Elevated() bool {
	return slices.Contains(p.Roles, RoleAdmin)
}
