package domain

import "time"

// Audit action kinds. One constant per logical token-lifecycle event.
const (
	AuditCreate        = "CREATE"
	AuditRotate        = "ROTATE"
	AuditReuseDetected = "REUSE_DETECTED"
	AuditRevoke        = "REVOKE"
	AuditRevokeFamily  = "REVOKE_FAMILY"
	AuditRevokeSubject = "REVOKE_SUBJECT"
	AuditRevokeAll     = "REVOKE_ALL"
	AuditLogin         = "LOGIN"
	AuditLogout        = "LOGOUT"
	AuditCleanup       = "CLEANUP"
)

// AuditEvent is one append-only token lifecycle event. Immutable once
// written; ID is assigned by the store.
type AuditEvent struct {
	ID        int64
	Action    string
	ActorID   string
	TokenID   string // related refresh-record id; empty when not applicable
	Detail    string
	CreatedAt time.Time
}
