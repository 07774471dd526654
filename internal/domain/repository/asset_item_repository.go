package repository

import (
	"context"

	"github.com/jhoicas/prestamos-api/internal/domain/entity"
)

// AssetItemRepository define el puerto para equipos identificados.
// Los cambios de estado se hacen con una actualización condicional atómica.
type AssetItemRepository interface {
	Create(ctx context.Context, item *entity.AssetItem) error
	// GetByID devuelve nil, nil si el equipo no existe.
	GetByID(ctx context.Context, id string) (*entity.AssetItem, error)
	ListByModel(ctx context.Context, modelID string) ([]*entity.AssetItem, error)
	// TransitionStatus cambia el estado a "to" solo si el estado actual está en "from".
	// Devuelve false si ninguna fila cumplió la condición.
	TransitionStatus(ctx context.Context, id string, to entity.AssetStatus, from ...entity.AssetStatus) (bool, error)
	// LockByModel bloquea los equipos del modelo hasta el fin de la transacción
	// y devuelve cuántos están prestados.
	LockByModel(ctx context.Context, modelID string) (loaned int, err error)
}
