package sqlite_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/talentboard/authcore/internal/auth/domain"
	"github.com/talentboard/authcore/internal/auth/store"
	"github.com/talentboard/authcore/internal/auth/store/drivers/sqlite"
	"github.com/talentboard/authcore/pkg/cryptox"
	"github.com/talentboard/authcore/pkg/idx"
)

func newTestStore(t *testing.T) *sqlite.Store {
	t.Helper()

	s, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	require.NoError(t, s.ApplyMigrations())
	return s
}

func newRecord(subject, device, family string, expiresAt time.Time) domain.RefreshToken {
	return domain.RefreshToken{
		ID:        idx.New().String(),
		SubjectID: subject,
		Device:    device,
		FamilyID:  family,
		TokenHash: cryptox.FingerprintToken(cryptox.MustGenerateToken(cryptox.TokenSize256)),
		ExpiresAt: expiresAt,
	}
}

func TestPrincipalsRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	p := domain.Principal{
		ID:        idx.New().String(),
		LoginName: "jsmith",
		Roles:     []string{"user", "admin"},
		Active:    true,
	}
	require.NoError(t, s.Principals().Create(ctx, p))

	got, err := s.Principals().GetByID(ctx, p.ID)
	require.NoError(t, err)
	require.Equal(t, p.LoginName, got.LoginName)
	require.Equal(t, []string{"user", "admin"}, got.Roles)
	require.True(t, got.Active)
	require.True(t, got.Elevated())

	byName, err := s.Principals().GetByLoginName(ctx, "jsmith")
	require.NoError(t, err)
	require.Equal(t, p.ID, byName.ID)

	_, err = s.Principals().GetByID(ctx, "missing")
	require.ErrorIs(t, err, store.ErrNotFound)

	err = s.Principals().Create(ctx, p)
	require.ErrorIs(t, err, store.ErrAlreadyExists)
}

func TestRefreshTokensCRUD(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	exp := time.Now().UTC().Add(time.Hour)
	rec := newRecord("subject-1", "phone", "family-1", exp)
	require.NoError(t, s.RefreshTokens().Create(ctx, rec))

	got, err := s.RefreshTokens().GetByTokenHash(ctx, rec.TokenHash)
	require.NoError(t, err)
	require.Equal(t, rec.ID, got.ID)
	require.Equal(t, "family-1", got.FamilyID)
	require.False(t, got.Revoked)
	require.WithinDuration(t, exp, got.ExpiresAt, time.Second)

	_, err = s.RefreshTokens().GetByTokenHash(ctx, "nope")
	require.ErrorIs(t, err, store.ErrNotFound)

	// Duplicate fingerprint must be rejected.
	dup := newRecord("subject-1", "phone", "family-1", exp)
	dup.TokenHash = rec.TokenHash
	require.ErrorIs(t, s.RefreshTokens().Create(ctx, dup), store.ErrAlreadyExists)
}

func TestCompareAndSetRevoked(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	rec := newRecord("subject-1", "phone", "family-1", time.Now().UTC().Add(time.Hour))
	require.NoError(t, s.RefreshTokens().Create(ctx, rec))

	ok, err := s.RefreshTokens().CompareAndSetRevoked(ctx, rec.ID, false, true)
	require.NoError(t, err)
	require.True(t, ok)

	// Second attempt observes the flag already flipped.
	ok, err = s.RefreshTokens().CompareAndSetRevoked(ctx, rec.ID, false, true)
	require.NoError(t, err)
	require.False(t, ok)

	// Unknown id is not an error, just a failed CAS.
	ok, err = s.RefreshTokens().CompareAndSetRevoked(ctx, "missing", false, true)
	require.NoError(t, err)
	require.False(t, ok)

	got, err := s.RefreshTokens().GetByTokenHash(ctx, rec.TokenHash)
	require.NoError(t, err)
	require.True(t, got.Revoked)
}

func TestDeleteExpiredBefore(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	now := time.Now().UTC()
	old := newRecord("s1", "phone", "f1", now.Add(-time.Hour))
	fresh := newRecord("s1", "phone", "f2", now.Add(-10*time.Minute))
	live := newRecord("s1", "phone", "f3", now.Add(time.Hour))

	for _, rec := range []domain.RefreshToken{old, fresh, live} {
		require.NoError(t, s.RefreshTokens().Create(ctx, rec))
	}

	// Cutoff 30 minutes in the past: only the hour-old record goes.
	n, err := s.RefreshTokens().DeleteExpiredBefore(ctx, now.Add(-30*time.Minute))
	require.NoError(t, err)
	require.EqualValues(t, 1, n)

	_, err = s.RefreshTokens().GetByTokenHash(ctx, old.TokenHash)
	require.ErrorIs(t, err, store.ErrNotFound)

	_, err = s.RefreshTokens().GetByTokenHash(ctx, fresh.TokenHash)
	require.NoError(t, err)

	_, err = s.RefreshTokens().GetByTokenHash(ctx, live.TokenHash)
	require.NoError(t, err)
}

func TestListQueries(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	exp := time.Now().UTC().Add(time.Hour)
	a := newRecord("s1", "phone", "f1", exp)
	b := newRecord("s1", "phone", "f1", exp)
	c := newRecord("s1", "laptop", "f2", exp)
	d := newRecord("s2", "phone", "f3", exp)

	for _, rec := range []domain.RefreshToken{a, b, c, d} {
		require.NoError(t, s.RefreshTokens().Create(ctx, rec))
	}

	family, err := s.RefreshTokens().ListByFamily(ctx, "f1")
	require.NoError(t, err)
	require.Len(t, family, 2)

	byDevice, err := s.RefreshTokens().ListBySubjectDevice(ctx, "s1", "phone")
	require.NoError(t, err)
	require.Len(t, byDevice, 2)

	bySubject, err := s.RefreshTokens().ListBySubject(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, bySubject, 3)

	ok, err := s.RefreshTokens().CompareAndSetRevoked(ctx, d.ID, false, true)
	require.NoError(t, err)
	require.True(t, ok)

	active, err := s.RefreshTokens().ListActive(ctx)
	require.NoError(t, err)
	require.Len(t, active, 3)
}

func TestAuditEventsAppend(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	ev := domain.AuditEvent{
		Action:  domain.AuditRotate,
		ActorID: "subject-1",
		TokenID: "token-1",
		Detail:  "family f1",
	}
	require.NoError(t, s.AuditEvents().Append(ctx, &ev))
	require.NotZero(t, ev.ID)

	// Nullable token id.
	summary := domain.AuditEvent{Action: domain.AuditCleanup, ActorID: "system", Detail: "purged 3"}
	require.NoError(t, s.AuditEvents().Append(ctx, &summary))

	rotates, err := s.AuditEvents().ListByAction(ctx, domain.AuditRotate)
	require.NoError(t, err)
	require.Len(t, rotates, 1)
	require.Equal(t, "token-1", rotates[0].TokenID)

	cleanups, err := s.AuditEvents().ListByAction(ctx, domain.AuditCleanup)
	require.NoError(t, err)
	require.Len(t, cleanups, 1)
	require.Empty(t, cleanups[0].TokenID)
}

func TestWithTxRollsBackOnError(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	rec := newRecord("s1", "phone", "f1", time.Now().UTC().Add(time.Hour))

	errBoom := store.ErrAlreadyExists
	err := s.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.RefreshTokens().Create(ctx, rec); err != nil {
			return err
		}
		return errBoom
	})
	require.ErrorIs(t, err, errBoom)

	_, err = s.RefreshTokens().GetByTokenHash(ctx, rec.TokenHash)
	require.ErrorIs(t, err, store.ErrNotFound)
}
