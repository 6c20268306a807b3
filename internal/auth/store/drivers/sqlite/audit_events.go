package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/talentboard/authcore/internal/auth/domain"
)

type auditEventsRepo struct {
	db dbtx
}

func (r *auditEventsRepo) Append(ctx context.Context, ev *domain.AuditEvent) error {
	if ev.CreatedAt.IsZero() {
		ev.CreatedAt = time.Now().UTC()
	}

	res, err := r.db.ExecContext(ctx, `
		INSERT INTO audit_events (action, actor_id, token_id, detail, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		ev.Action, ev.ActorID, nullString(ev.TokenID), ev.Detail, ev.CreatedAt,
	)
	if err != nil {
		return err
	}

	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	ev.ID = id
	return nil
}

func (r *auditEventsRepo) ListByAction(ctx context.Context, action string) ([]domain.AuditEvent, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, action, actor_id, token_id, detail, created_at
		FROM audit_events
		WHERE action = ?
		ORDER BY id DESC`, action)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.AuditEvent
	for rows.Next() {
		var ev domain.AuditEvent
		var tokenID sql.NullString
		if err := rows.Scan(&ev.ID, &ev.Action, &ev.ActorID, &tokenID, &ev.Detail, &ev.CreatedAt); err != nil {
			return nil, err
		}
		if tokenID.Valid {
			ev.TokenID = tokenID.String
		}
		out = append(out, ev)
	}
	return out, rows.Err()
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
