// Package redis publica la auditoría en un stream de Redis para consumidores externos.
package redis

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/jhoicas/prestamos-api/internal/application/reservation"
	"github.com/jhoicas/prestamos-api/internal/domain/entity"
)

var _ reservation.AuditNotifier = (*AuditPublisher)(nil)

const publishTimeout = 2 * time.Second

// AuditPublisher agrega cada entrada al stream con XADD. La publicación es asíncrona:
// un Redis lento o caído solo produce un log de error, nunca frena la operación.
type AuditPublisher struct {
	rdb    *redis.Client
	stream string
	maxLen int64
	log    zerolog.Logger

	mu     sync.Mutex // protege closed y el alta en wg
	closed bool
	wg     sync.WaitGroup
}

// NewAuditPublisher construye el publicador. maxLen acota el stream (0 = sin límite).
func NewAuditPublisher(rdb *redis.Client, stream string, maxLen int64, log zerolog.Logger) *AuditPublisher {
	return &AuditPublisher{
		rdb:    rdb,
		stream: stream,
		maxLen: maxLen,
		log:    log.With().Str("component", "audit_stream").Logger(),
	}
}

// Notify implementa reservation.AuditNotifier.
func (p *AuditPublisher) Notify(ctx context.Context, e entity.AuditEntry) {
	values, err := encode(e)
	if err != nil {
		p.log.Error().Err(err).Str("op", e.Operation).Msg("no se pudo serializar la auditoría")
		return
	}
	// la petición HTTP puede terminar antes que la publicación
	ctx = context.WithoutCancel(ctx)

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		p.log.Warn().Str("op", e.Operation).Str("entity_id", e.EntityID).Msg("publicador cerrado, auditoría descartada")
		return
	}
	p.wg.Add(1)
	p.mu.Unlock()

	go func() {
		defer p.wg.Done()
		ctx, cancel := context.WithTimeout(ctx, publishTimeout)
		defer cancel()
		if err := p.Publish(ctx, values); err != nil {
			p.log.Error().Err(err).Str("op", e.Operation).Str("entity_id", e.EntityID).Msg("no se pudo publicar la auditoría")
		}
	}()
}

// Publish agrega los campos al stream de forma síncrona.
func (p *AuditPublisher) Publish(ctx context.Context, values map[string]any) error {
	args := &redis.XAddArgs{Stream: p.stream, Values: values}
	if p.maxLen > 0 {
		args.MaxLen = p.maxLen
		args.Approx = true
	}
	return p.rdb.XAdd(ctx, args).Err()
}

// Close espera las publicaciones en curso. Lo que llegue después se descarta.
func (p *AuditPublisher) Close() {
	p.mu.Lock()
	p.closed = true
	p.mu.Unlock()
	p.wg.Wait()
}

func encode(e entity.AuditEntry) (map[string]any, error) {
	before, err := json.Marshal(e.Before)
	if err != nil {
		return nil, err
	}
	after, err := json.Marshal(e.After)
	if err != nil {
		return nil, err
	}
	return map[string]any{
		"actor_id":    e.ActorID,
		"op":          e.Operation,
		"entity_type": e.EntityType,
		"entity_id":   e.EntityID,
		"before":      string(before),
		"after":       string(after),
		"at":          e.At.UTC().Format(time.RFC3339Nano),
	}, nil
}
