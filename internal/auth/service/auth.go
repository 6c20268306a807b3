package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/talentboard/authcore/internal/auth/blacklist"
	"github.com/talentboard/authcore/internal/auth/domain"
	"github.com/talentboard/authcore/internal/auth/store"
	"github.com/talentboard/authcore/pkg/cryptox"
	"github.com/talentboard/authcore/pkg/slogx"
)

// TokenTypeBearer is the token_type reported in every issued pair.
const TokenTypeBearer = "Bearer"

// AuthService is the facade the transport layer talks to. It composes the
// codec, the rotation engine and the revocation list into the login,
// refresh, logout and verification flows.
type AuthService struct {
	Store     store.Store
	Codec     *AccessTokenCodec
	Rotation  *RotationService
	Blacklist blacklist.List
	Audit     *AuditRecorder
	Logger    *slog.Logger

	// Limiter, when set, throttles refresh attempts per presented token.
	Limiter *Limiter
}

// VerifiedSubject is what a successful request verification yields.
type VerifiedSubject struct {
	SubjectID string
	Roles     []string
}

// Login issues a fresh token pair for an already-authenticated principal.
// Credential checking happens upstream; this only refuses principals that
// are unknown or deactivated.
func (s *AuthService) Login(ctx context.Context, subjectID, device string) (domain.TokenPair, error) {
	p, err := s.Store.Principals().GetByID(ctx, subjectID)
	if err != nil {
		return domain.TokenPair{}, storeFailure(err)
	}
	if !p.Active {
		return domain.TokenPair{}, ErrUnauthorized
	}

	issued, err := s.Rotation.IssueInitial(ctx, p.ID, device)
	if err != nil {
		return domain.TokenPair{}, err
	}

	access, accessExp, err := s.Codec.Issue(p.ID, issued.Record.FamilyID, p.Roles, p.Elevated())
	if err != nil {
		return domain.TokenPair{}, err
	}

	s.Audit.Record(ctx, domain.AuditLogin, p.ID, issued.Record.ID, "device="+device)

	return domain.TokenPair{
		AccessToken:      access,
		RefreshToken:     issued.Token,
		TokenType:        TokenTypeBearer,
		AccessExpiresAt:  accessExp,
		RefreshExpiresAt: issued.Record.ExpiresAt,
	}, nil
}

// Refresh exchanges a refresh token for a new pair. The rotation engine
// enforces single use; a replayed token comes back as ErrRevoked with the
// whole family already dead.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (domain.TokenPair, error) {
	if s.Limiter != nil && !s.Limiter.Allow(cryptox.FingerprintToken(refreshToken)) {
		return domain.TokenPair{}, ErrTooManyAttempts
	}

	issued, err := s.Rotation.Rotate(ctx, refreshToken)
	if err != nil {
		return domain.TokenPair{}, err
	}

	p, err := s.Store.Principals().GetByID(ctx, issued.Record.SubjectID)
	if err != nil {
		return domain.TokenPair{}, storeFailure(err)
	}
	if !p.Active {
		// Subject was deactivated mid-session. Kill the lineage we just
		// extended rather than hand out a live pair.
		if rerr := s.Rotation.RevokeFamily(ctx, issued.Record.FamilyID); rerr != nil {
			s.logger(ctx).WarnContext(ctx, "revoking lineage of inactive principal failed",
				"subject_id", p.ID, "error", rerr)
		}
		return domain.TokenPair{}, ErrUnauthorized
	}

	access, accessExp, err := s.Codec.Issue(p.ID, issued.Record.FamilyID, p.Roles, p.Elevated())
	if err != nil {
		return domain.TokenPair{}, err
	}

	return domain.TokenPair{
		AccessToken:      access,
		RefreshToken:     issued.Token,
		TokenType:        TokenTypeBearer,
		AccessExpiresAt:  accessExp,
		RefreshExpiresAt: issued.Record.ExpiresAt,
	}, nil
}

// Logout blacklists the presented access token and revokes the refresh
// lineage it was minted under, ending the session on both halves.
func (s *AuthService) Logout(ctx context.Context, accessToken string) error {
	claims, err := s.Codec.Verify(accessToken)
	if err != nil {
		return ErrUnauthorized
	}

	if err := s.Blacklist.Add(ctx, accessToken); err != nil {
		return storeFailure(err)
	}

	if claims.FID != "" {
		if err := s.Rotation.RevokeFamily(ctx, claims.FID); err != nil && !errors.Is(err, ErrNotFound) {
			return err
		}
	}

	s.Audit.Record(ctx, domain.AuditLogout, claims.Subject, "", "family="+claims.FID)
	return nil
}

// VerifyRequest is the per-request gate: signature, expiry, then the
// revocation list. Every failure collapses to ErrUnauthorized so callers
// cannot leak why a token was refused.
func (s *AuthService) VerifyRequest(ctx context.Context, accessToken string) (VerifiedSubject, error) {
	claims, err := s.Codec.Verify(accessToken)
	if err != nil {
		return VerifiedSubject{}, ErrUnauthorized
	}

	blocked, err := s.Blacklist.Contains(ctx, accessToken)
	if err != nil {
		return VerifiedSubject{}, ErrUnauthorized
	}
	if blocked {
		return VerifiedSubject{}, ErrUnauthorized
	}

	return VerifiedSubject{SubjectID: claims.Subject, Roles: claims.Roles}, nil
}

// RevokeAllForSubject ends every session a subject holds, on all devices.
func (s *AuthService) RevokeAllForSubject(ctx context.Context, subjectID string) error {
	return s.Rotation.RevokeAllForSubject(ctx, subjectID)
}

// RevokeAllTokensGlobally is the emergency stop: every live refresh record
// in the store is revoked.
func (s *AuthService) RevokeAllTokensGlobally(ctx context.Context) (int, error) {
	return s.Rotation.RevokeAll(ctx)
}

// TriggerCleanup runs both purge jobs immediately, outside their schedule.
func (s *AuthService) TriggerCleanup(ctx context.Context) error {
	if _, err := s.Blacklist.Sweep(ctx, time.Now().UTC()); err != nil {
		return storeFailure(err)
	}
	_, err := s.Rotation.CleanupExpired(ctx)
	return err
}

func (s *AuthService) logger(ctx context.Context) *slog.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return slogx.FromContext(ctx)
}
