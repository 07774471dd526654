package repository

import (
	"context"

	"github.com/jhoicas/prestamos-api/internal/domain/entity"
)

// AssetModelRepository define el puerto de persistencia del catálogo de modelos.
type AssetModelRepository interface {
	Create(ctx context.Context, model *entity.AssetModel) error
	// GetByID devuelve nil, nil si el modelo no existe.
	GetByID(ctx context.Context, id string) (*entity.AssetModel, error)
	// GetForUpdate como GetByID pero bloquea la fila hasta el fin de la transacción;
	// las altas de equipos o stock bajo el modelo esperan a que termine.
	GetForUpdate(ctx context.Context, id string) (*entity.AssetModel, error)
	List(ctx context.Context, filter AssetModelFilter) ([]*entity.AssetModelSummary, error)
	// Delete elimina el modelo en cascada. Devuelve false si no existía.
	Delete(ctx context.Context, id string) (bool, error)
}

// AssetModelFilter filtros opcionales para listar modelos.
type AssetModelFilter struct {
	Type   string
	Brand  string
	Limit  int
	Offset int
}
