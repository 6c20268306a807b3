package service

import (
	"context"
	"log/slog"

	"github.com/talentboard/authcore/internal/auth/domain"
	"github.com/talentboard/authcore/internal/auth/store"
	"github.com/talentboard/authcore/pkg/slogx"
)

// AuditRecorder appends lifecycle events to the audit sink. Failures are
// logged and swallowed: losing an audit row must never fail the token
// operation that produced it.
type AuditRecorder struct {
	Sink   store.AuditEvents
	Logger *slog.Logger
}

// Record writes one event best-effort.
func (r *AuditRecorder) Record(ctx context.Context, action, actorID, tokenID, detail string) {
	if r == nil || r.Sink == nil {
		return
	}

	ev := domain.AuditEvent{
		Action:  action,
		ActorID: actorID,
		TokenID: tokenID,
		Detail:  detail,
	}
	if err := r.Sink.Append(ctx, &ev); err != nil {
		r.logger(ctx).WarnContext(ctx, "audit append failed",
			"action", action,
			"actor_id", actorID,
			"error", err,
		)
	}
}

func (r *AuditRecorder) logger(ctx context.Context) *slog.Logger {
	if r.Logger != nil {
		return r.Logger
	}
	return slogx.FromContext(ctx)
}
