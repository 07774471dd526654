// Package audit implementa notificadores de auditoría best-effort.
package audit

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/jhoicas/prestamos-api/internal/application/reservation"
	"github.com/jhoicas/prestamos-api/internal/domain/entity"
)

var (
	_ reservation.AuditNotifier = (*LogNotifier)(nil)
	_ reservation.AuditNotifier = Fanout(nil)
)

// LogNotifier escribe cada mutación confirmada en el log estructurado.
type LogNotifier struct {
	log zerolog.Logger
}

// NewLogNotifier construye el notificador con el logger dado.
func NewLogNotifier(log zerolog.Logger) *LogNotifier {
	return &LogNotifier{log: log.With().Str("component", "audit").Logger()}
}

// Notify implementa reservation.AuditNotifier.
func (n *LogNotifier) Notify(_ context.Context, e entity.AuditEntry) {
	n.log.Info().
		Str("actor_id", e.ActorID).
		Str("op", e.Operation).
		Str("entity_type", e.EntityType).
		Str("entity_id", e.EntityID).
		Interface("before", e.Before).
		Interface("after", e.After).
		Time("at", e.At).
		Msg("auditoría")
}

// Fanout reenvía cada entrada a todos los notificadores en orden.
type Fanout []reservation.AuditNotifier

// Notify implementa reservation.AuditNotifier.
func (f Fanout) Notify(ctx context.Context, e entity.AuditEntry) {
	for _, n := range f {
		if n != nil {
			n.Notify(ctx, e)
		}
	}
}
