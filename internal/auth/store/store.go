package store

import (
	"context"
	"errors"
	"time"

	"github.com/talentboard/authcore/internal/auth/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")
)

// Store is the root data access interface. Concrete drivers (sqlite for
// now) implement this. It exposes sub-repositories to keep concerns tidy
// and testable.
type Store interface {
	Principals() Principals
	RefreshTokens() RefreshTokens
	AuditEvents() AuditEvents

	ApplyMigrations() error

	// Tx starts a read/write transaction and returns a Tx-scoped Store.
	// Use it for multi-step operations that must be atomic (e.g., refresh
	// rotation). The caller MUST call Commit() or Rollback() on the
	// returned Tx.
	Tx(ctx context.Context) (Tx, error)

	// WithTx executes a function within a transaction.
	// If fn returns an error, the transaction is rolled back.
	// If fn returns nil, the transaction is committed.
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	// Close releases any underlying resources.
	Close() error

	// Ping verifies the database connection is still alive.
	Ping(ctx context.Context) error
}

// Tx is a transactional store. It embeds the same repos but adds
// Commit/Rollback.
type Tx interface {
	Store
	Commit() error
	Rollback() error
}

// Principals is the contract the token subsystem consumes from the
// (externally owned) principal store.
type Principals interface {
	// GetByID returns a principal by id.
	GetByID(ctx context.Context, id string) (domain.Principal, error)

	// GetByLoginName returns a principal by login name.
	GetByLoginName(ctx context.Context, loginName string) (domain.Principal, error)

	// Create inserts a new principal (id is provided by the caller).
	Create(ctx context.Context, p domain.Principal) error
}

// RefreshTokens is the durable refresh-record adapter consumed by the
// rotation engine.
type RefreshTokens interface {
	// Create stores a new refresh token record.
	Create(ctx context.Context, t domain.RefreshToken) error

	// GetByID returns the record by id.
	GetByID(ctx context.Context, id string) (domain.RefreshToken, error)

	// GetByTokenHash returns the record by the fingerprint of its opaque
	// value.
	GetByTokenHash(ctx context.Context, hash string) (domain.RefreshToken, error)

	// CompareAndSetRevoked flips the revoked flag from expected to next in
	// one conditional update. Returns false when the record was not in the
	// expected state (someone else got there first) or does not exist.
	// This is the primitive that keeps concurrent rotation sound.
	CompareAndSetRevoked(ctx context.Context, id string, expected, next bool) (bool, error)

	// DeleteExpiredBefore removes every record whose expiry is at or
	// before cutoff, revoked or not, and reports how many went.
	DeleteExpiredBefore(ctx context.Context, cutoff time.Time) (int64, error)

	// ListByFamily returns all records sharing a family id.
	ListByFamily(ctx context.Context, familyID string) ([]domain.RefreshToken, error)

	// ListBySubjectDevice returns all records for one subject+device pair.
	ListBySubjectDevice(ctx context.Context, subjectID, device string) ([]domain.RefreshToken, error)

	// ListBySubject returns all records owned by a subject.
	ListBySubject(ctx context.Context, subjectID string) ([]domain.RefreshToken, error)

	// ListActive returns all un-revoked records, for global revocation.
	ListActive(ctx context.Context) ([]domain.RefreshToken, error)
}

// AuditEvents is the append-only audit sink.
type AuditEvents interface {
	// Append writes one immutable event and fills in its assigned id.
	Append(ctx context.Context, ev *domain.AuditEvent) error

	// ListByAction returns events of one action kind, newest first.
	// Used operationally and by tests asserting audit behavior.
	ListByAction(ctx context.Context, action string) ([]domain.AuditEvent, error)
}
