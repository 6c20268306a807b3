package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/talentboard/authcore/internal/auth/domain"
	"github.com/talentboard/authcore/internal/auth/store"
	"github.com/talentboard/authcore/pkg/cryptox"
	"github.com/talentboard/authcore/pkg/idx"
)

// Default refresh-token knobs.
const (
	// DefaultRefreshTTL is how long a refresh record stays usable.
	DefaultRefreshTTL = 30 * 24 * time.Hour

	// DefaultExpiredRetention is how long an expired record lingers before
	// CleanupExpired removes it. Keeping expired rows around briefly lets
	// reuse of a just-expired token still be answered with a precise
	// "expired" instead of "not found".
	DefaultExpiredRetention = 30 * time.Minute
)

// RotationService owns the refresh-token lineage: initial issue, one-shot
// rotation with reuse detection, targeted and bulk revocation, and purging
// of long-expired records.
type RotationService struct {
	Store store.Store
	Audit *AuditRecorder

	// RefreshTTL is the validity window of each issued refresh record.
	// Zero means DefaultRefreshTTL.
	RefreshTTL time.Duration

	// ExpiredRetention is the grace period CleanupExpired leaves between a
	// record's expiry and its deletion. Zero means DefaultExpiredRetention.
	ExpiredRetention time.Duration
}

// Issued is the outcome of minting a refresh record: the opaque value handed
// to the client and the stored record describing it.
type Issued struct {
	Token  string
	Record domain.RefreshToken
}

func (s *RotationService) refreshTTL() time.Duration {
	if s.RefreshTTL > 0 {
		return s.RefreshTTL
	}
	return DefaultRefreshTTL
}

func (s *RotationService) expiredRetention() time.Duration {
	if s.ExpiredRetention > 0 {
		return s.ExpiredRetention
	}
	return DefaultExpiredRetention
}

// IssueInitial mints the first refresh token of a brand-new family for a
// subject+device pair. Any lineages the same pair abandoned earlier (closed
// browser, reinstalled app) are revoked so one device holds one live chain.
func (s *RotationService) IssueInitial(ctx context.Context, subjectID, device string) (Issued, error) {
	now := time.Now().UTC()

	raw, err := cryptox.GenerateToken(cryptox.TokenSize256)
	if err != nil {
		return Issued{}, fmt.Errorf("generate refresh token: %w", err)
	}

	rec := domain.RefreshToken{
		ID:        idx.New().String(),
		SubjectID: subjectID,
		Device:    device,
		FamilyID:  uuid.NewString(),
		TokenHash: cryptox.FingerprintToken(raw),
		ExpiresAt: now.Add(s.refreshTTL()),
		CreatedAt: now,
		UpdatedAt: now,
	}

	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		stale, err := tx.RefreshTokens().ListBySubjectDevice(ctx, subjectID, device)
		if err != nil {
			return err
		}
		for _, old := range stale {
			if old.Revoked {
				continue
			}
			if _, err := tx.RefreshTokens().CompareAndSetRevoked(ctx, old.ID, false, true); err != nil {
				return err
			}
		}
		return tx.RefreshTokens().Create(ctx, rec)
	})
	if err != nil {
		return Issued{}, storeFailure(err)
	}

	s.Audit.Record(ctx, domain.AuditCreate, subjectID, rec.ID,
		fmt.Sprintf("family=%s device=%s", rec.FamilyID, device))

	return Issued{Token: raw, Record: rec}, nil
}

// Rotate exchanges a presented refresh token for its successor in the same
// family. Exactly one caller can win a rotation; a second presentation of
// the same token is treated as credential theft and kills the whole family.
func (s *RotationService) Rotate(ctx context.Context, presented string) (Issued, error) {
	now := time.Now().UTC()
	hash := cryptox.FingerprintToken(presented)

	current, err := s.Store.RefreshTokens().GetByTokenHash(ctx, hash)
	if err != nil {
		return Issued{}, storeFailure(err)
	}

	if current.Expired(now) {
		return Issued{}, ErrExpired
	}

	if current.Revoked {
		return Issued{}, s.handleReuse(ctx, current)
	}

	raw, err := cryptox.GenerateToken(cryptox.TokenSize256)
	if err != nil {
		return Issued{}, fmt.Errorf("generate refresh token: %w", err)
	}

	next := domain.RefreshToken{
		ID:        idx.New().String(),
		SubjectID: current.SubjectID,
		Device:    current.Device,
		FamilyID:  current.FamilyID,
		TokenHash: cryptox.FingerprintToken(raw),
		ExpiresAt: now.Add(s.refreshTTL()),
		CreatedAt: now,
		UpdatedAt: now,
	}

	lost := false
	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		won, err := tx.RefreshTokens().CompareAndSetRevoked(ctx, current.ID, false, true)
		if err != nil {
			return err
		}
		if !won {
			// Someone flipped the record between our read and this
			// transaction. Abort; the reuse branch below handles it.
			lost = true
			return nil
		}
		return tx.RefreshTokens().Create(ctx, next)
	})
	if err != nil {
		return Issued{}, storeFailure(err)
	}
	if lost {
		return Issued{}, s.handleReuse(ctx, current)
	}

	s.Audit.Record(ctx, domain.AuditRotate, current.SubjectID, next.ID,
		fmt.Sprintf("family=%s predecessor=%s", next.FamilyID, current.ID))

	return Issued{Token: raw, Record: next}, nil
}

// handleReuse is the theft response: the presented token was already spent,
// so every record in its family is revoked and the incident recorded. The
// caller always gets ErrRevoked.
func (s *RotationService) handleReuse(ctx context.Context, reused domain.RefreshToken) error {
	if _, err := s.revokeFamily(ctx, reused.FamilyID); err != nil {
		// The family sweep failed but the presented token is still dead.
		// Report the incident and surface revoked regardless.
		s.Audit.Record(ctx, domain.AuditReuseDetected, reused.SubjectID, reused.ID,
			fmt.Sprintf("family=%s revoke_failed=%v", reused.FamilyID, err))
		return ErrRevoked
	}

	s.Audit.Record(ctx, domain.AuditReuseDetected, reused.SubjectID, reused.ID,
		fmt.Sprintf("family=%s", reused.FamilyID))
	return ErrRevoked
}

// RevokeOne revokes a single refresh record by id. Revoking an
// already-revoked record is a no-op; an unknown id is ErrNotFound.
func (s *RotationService) RevokeOne(ctx context.Context, id string) error {
	flipped, err := s.Store.RefreshTokens().CompareAndSetRevoked(ctx, id, false, true)
	if err != nil {
		return storeFailure(err)
	}
	if !flipped {
		// Already revoked is an idempotent success; unknown id is not.
		if _, err := s.Store.RefreshTokens().GetByID(ctx, id); err != nil {
			return storeFailure(err)
		}
		return nil
	}

	actor := ""
	if rec, err := s.Store.RefreshTokens().GetByID(ctx, id); err == nil {
		actor = rec.SubjectID
	}
	s.Audit.Record(ctx, domain.AuditRevoke, actor, id, "")
	return nil
}

// RevokeFamily revokes every record in a lineage. One audit event covers
// the whole sweep; calling it again on a dead family is a quiet no-op.
func (s *RotationService) RevokeFamily(ctx context.Context, familyID string) error {
	n, err := s.revokeFamily(ctx, familyID)
	if err != nil {
		return err
	}
	if n > 0 {
		s.Audit.Record(ctx, domain.AuditRevokeFamily, "", "",
			fmt.Sprintf("family=%s revoked=%d", familyID, n))
	}
	return nil
}

// revokeFamily flips every live record of the family inside one transaction
// and reports how many actually changed state.
func (s *RotationService) revokeFamily(ctx context.Context, familyID string) (int, error) {
	var revoked int
	err := s.Store.WithTx(ctx, func(tx store.Tx) error {
		members, err := tx.RefreshTokens().ListByFamily(ctx, familyID)
		if err != nil {
			return err
		}
		for _, m := range members {
			if m.Revoked {
				continue
			}
			flipped, err := tx.RefreshTokens().CompareAndSetRevoked(ctx, m.ID, false, true)
			if err != nil {
				return err
			}
			if flipped {
				revoked++
			}
		}
		return nil
	})
	if err != nil {
		return 0, storeFailure(err)
	}
	return revoked, nil
}

// RevokeAllForSubject revokes every live record a subject owns, across all
// devices and families. Used for "log me out everywhere" and for cutting
// off a compromised account.
func (s *RotationService) RevokeAllForSubject(ctx context.Context, subjectID string) error {
	var revoked int
	err := s.Store.WithTx(ctx, func(tx store.Tx) error {
		owned, err := tx.RefreshTokens().ListBySubject(ctx, subjectID)
		if err != nil {
			return err
		}
		for _, m := range owned {
			if m.Revoked {
				continue
			}
			flipped, err := tx.RefreshTokens().CompareAndSetRevoked(ctx, m.ID, false, true)
			if err != nil {
				return err
			}
			if flipped {
				revoked++
			}
		}
		return nil
	})
	if err != nil {
		return storeFailure(err)
	}

	if revoked > 0 {
		s.Audit.Record(ctx, domain.AuditRevokeSubject, subjectID, "",
			fmt.Sprintf("revoked=%d", revoked))
	}
	return nil
}

// RevokeAll revokes every live record in the store. This is the emergency
// brake after a signing-key or database compromise. Each revoked row gets
// its own audit event so the fallout is traceable per token, topped with
// one summary event.
func (s *RotationService) RevokeAll(ctx context.Context) (int, error) {
	var revoked []domain.RefreshToken
	err := s.Store.WithTx(ctx, func(tx store.Tx) error {
		live, err := tx.RefreshTokens().ListActive(ctx)
		if err != nil {
			return err
		}
		for _, m := range live {
			flipped, err := tx.RefreshTokens().CompareAndSetRevoked(ctx, m.ID, false, true)
			if err != nil {
				return err
			}
			if flipped {
				revoked = append(revoked, m)
			}
		}
		return nil
	})
	if err != nil {
		return 0, storeFailure(err)
	}

	for _, m := range revoked {
		s.Audit.Record(ctx, domain.AuditRevoke, m.SubjectID, m.ID,
			fmt.Sprintf("family=%s global", m.FamilyID))
	}
	s.Audit.Record(ctx, domain.AuditRevokeAll, "", "",
		fmt.Sprintf("revoked=%d", len(revoked)))
	return len(revoked), nil
}

// CleanupExpired deletes every record whose expiry is older than the
// retention window and reports how many were removed.
func (s *RotationService) CleanupExpired(ctx context.Context) (int64, error) {
	cutoff := time.Now().UTC().Add(-s.expiredRetention())

	n, err := s.Store.RefreshTokens().DeleteExpiredBefore(ctx, cutoff)
	if err != nil {
		return 0, storeFailure(err)
	}

	s.Audit.Record(ctx, domain.AuditCleanup, "", "",
		fmt.Sprintf("removed=%d cutoff=%s", n, cutoff.Format(time.RFC3339)))
	return n, nil
}
