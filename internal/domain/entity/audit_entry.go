package entity

import "time"

// AuditEntry notificación enviada al colaborador de auditoría tras cada mutación confirmada.
type AuditEntry struct {
	ActorID    string
	Operation  string
	EntityType string
	EntityID   string
	Before     any
	After      any
	At         time.Time
}
