package service_test

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/talentboard/authcore/internal/auth/blacklist"
	"github.com/talentboard/authcore/internal/auth/domain"
	"github.com/talentboard/authcore/internal/auth/service"
	"github.com/talentboard/authcore/internal/auth/store/drivers/sqlite"
	"github.com/talentboard/authcore/pkg/cryptox"
	"github.com/talentboard/authcore/pkg/idx"
	"github.com/talentboard/authcore/pkg/jwtx"
)

const testIssuer = "authcore-test"

// testEnv wires a full service stack over an in-memory database.
type testEnv struct {
	Store     *sqlite.Store
	Blacklist *blacklist.Memory
	Codec     *service.AccessTokenCodec
	Rotation  *service.RotationService
	Auth      *service.AuthService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	s, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	require.NoError(t, s.ApplyMigrations())

	secret := []byte(cryptox.MustGenerateToken(cryptox.TokenSize256))
	signer, err := jwtx.NewSignerHS256("test-key", secret)
	require.NoError(t, err)

	keys := jwtx.NewKeySet()
	keys.Add(signer.KID(), secret)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	audit := &service.AuditRecorder{Sink: s.AuditEvents(), Logger: logger}

	codec := &service.AccessTokenCodec{
		Signer:   signer,
		Verifier: jwtx.NewVerifierHS256(keys, testIssuer),
		Issuer:   testIssuer,
	}
	rotation := &service.RotationService{
		Store:            s,
		Audit:            audit,
		RefreshTTL:       time.Hour,
		ExpiredRetention: 30 * time.Minute,
	}
	bl := blacklist.NewMemory(0)

	return &testEnv{
		Store:     s,
		Blacklist: bl,
		Codec:     codec,
		Rotation:  rotation,
		Auth: &service.AuthService{
			Store:     s,
			Codec:     codec,
			Rotation:  rotation,
			Blacklist: bl,
			Audit:     audit,
			Logger:    logger,
		},
	}
}

// seedPrincipal inserts an active principal and returns its id.
func (e *testEnv) seedPrincipal(t *testing.T, loginName string, roles []string, active bool) string {
	t.Helper()

	p := domain.Principal{
		ID:        idx.New().String(),
		LoginName: loginName,
		Roles:     roles,
		Active:    active,
	}
	require.NoError(t, e.Store.Principals().Create(context.Background(), p))
	return p.ID
}

// auditCount returns how many events of one action kind have been recorded.
func (e *testEnv) auditCount(t *testing.T, action string) int {
	t.Helper()

	events, err := e.Store.AuditEvents().ListByAction(context.Background(), action)
	require.NoError(t, err)
	return len(events)
}
