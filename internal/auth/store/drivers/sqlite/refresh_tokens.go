package sqlite

import (
	"context"
	"time"

	"github.com/talentboard/authcore/internal/auth/domain"
)

type refreshTokensRepo struct {
	db dbtx
}

const refreshColumns = `id, subject_id, device, family_id, token_hash, expires_at, revoked, created_at, updated_at`

func (r *refreshTokensRepo) Create(ctx context.Context, t domain.RefreshToken) error {
	now := time.Now().UTC()
	if t.CreatedAt.IsZero() {
		t.CreatedAt = now
	}
	if t.UpdatedAt.IsZero() {
		t.UpdatedAt = now
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO refresh_tokens (id, subject_id, device, family_id, token_hash, expires_at, revoked, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.SubjectID, t.Device, t.FamilyID, t.TokenHash, t.ExpiresAt, t.Revoked, t.CreatedAt, t.UpdatedAt,
	)
	return mapConstraint(err)
}

func (r *refreshTokensRepo) GetByID(ctx context.Context, id string) (domain.RefreshToken, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+refreshColumns+`
		FROM refresh_tokens
		WHERE id = ?`, id)
	return scanRefreshToken(row)
}

func (r *refreshTokensRepo) GetByTokenHash(ctx context.Context, hash string) (domain.RefreshToken, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+refreshColumns+`
		FROM refresh_tokens
		WHERE token_hash = ?`, hash)
	return scanRefreshToken(row)
}

// CompareAndSetRevoked is one conditional UPDATE so the check-then-set is
// atomic under the database's own concurrency control, not just an
// in-process lock.
func (r *refreshTokensRepo) CompareAndSetRevoked(ctx context.Context, id string, expected, next bool) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE refresh_tokens
		SET revoked = ?, updated_at = ?
		WHERE id = ? AND revoked = ?`,
		next, time.Now().UTC(), id, expected,
	)
	if err != nil {
		return false, err
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (r *refreshTokensRepo) DeleteExpiredBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
		DELETE FROM refresh_tokens
		WHERE expires_at <= ?`, cutoff)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (r *refreshTokensRepo) ListByFamily(ctx context.Context, familyID string) ([]domain.RefreshToken, error) {
	return r.list(ctx, `
		SELECT `+refreshColumns+`
		FROM refresh_tokens
		WHERE family_id = ?
		ORDER BY created_at`, familyID)
}

func (r *refreshTokensRepo) ListBySubjectDevice(ctx context.Context, subjectID, device string) ([]domain.RefreshToken, error) {
	return r.list(ctx, `
		SELECT `+refreshColumns+`
		FROM refresh_tokens
		WHERE subject_id = ? AND device = ?
		ORDER BY created_at`, subjectID, device)
}

func (r *refreshTokensRepo) ListBySubject(ctx context.Context, subjectID string) ([]domain.RefreshToken, error) {
	return r.list(ctx, `
		SELECT `+refreshColumns+`
		FROM refresh_tokens
		WHERE subject_id = ?
		ORDER BY created_at`, subjectID)
}

func (r *refreshTokensRepo) ListActive(ctx context.Context) ([]domain.RefreshToken, error) {
	return r.list(ctx, `
		SELECT `+refreshColumns+`
		FROM refresh_tokens
		WHERE revoked = FALSE
		ORDER BY created_at`)
}

func (r *refreshTokensRepo) list(ctx context.Context, query string, args ...any) ([]domain.RefreshToken, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.RefreshToken
	for rows.Next() {
		t, err := scanRefreshToken(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func scanRefreshToken(row rowScanner) (domain.RefreshToken, error) {
	var t domain.RefreshToken
	err := row.Scan(
		&t.ID, &t.SubjectID, &t.Device, &t.FamilyID, &t.TokenHash,
		&t.ExpiresAt, &t.Revoked, &t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		return domain.RefreshToken{}, mapNotFound(err)
	}
	return t, nil
}
