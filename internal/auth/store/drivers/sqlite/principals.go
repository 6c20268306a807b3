package sqlite

import (
	"context"
	"time"

	"github.com/talentboard/authcore/internal/auth/domain"
)

type principalsRepo struct {
	db dbtx
}

const principalColumns = `id, login_name, roles, active, created_at, updated_at`

func (r *principalsRepo) Create(ctx context.Context, p domain.Principal) error {
	now := time.Now().UTC()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	if p.UpdatedAt.IsZero() {
		p.UpdatedAt = now
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO principals (id, login_name, roles, active, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		p.ID, p.LoginName, joinRoles(p.Roles), p.Active, p.CreatedAt, p.UpdatedAt,
	)
	return mapConstraint(err)
}

func (r *principalsRepo) GetByID(ctx context.Context, id string) (domain.Principal, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+principalColumns+`
		FROM principals
		WHERE id = ?`, id)
	return scanPrincipal(row)
}

func (r *principalsRepo) GetByLoginName(ctx context.Context, loginName string) (domain.Principal, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+principalColumns+`
		FROM principals
		WHERE login_name = ?`, loginName)
	return scanPrincipal(row)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPrincipal(row rowScanner) (domain.Principal, error) {
	var p domain.Principal
	var roles string
	err := row.Scan(&p.ID, &p.LoginName, &roles, &p.Active, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return domain.Principal{}, mapNotFound(err)
	}
	p.Roles = splitRoles(roles)
	return p, nil
}
