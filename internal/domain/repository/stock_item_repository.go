package repository

import (
	"context"

	"github.com/jhoicas/prestamos-api/internal/domain/entity"
)

// StockItemRepository define el puerto para stock fungible por modelo.
// Reserve y Release re-verifican el invariante en la misma escritura.
type StockItemRepository interface {
	Create(ctx context.Context, stock *entity.StockItem) error
	// GetByID devuelve nil, nil si el stock no existe.
	GetByID(ctx context.Context, id string) (*entity.StockItem, error)
	ListByModel(ctx context.Context, modelID string) ([]*entity.StockItem, error)
	// Reserve suma qty a loaned si quantity - loaned >= qty. false si no aplicó.
	Reserve(ctx context.Context, id string, qty int) (bool, error)
	// Release resta qty a loaned sin bajar de cero. false si el stock no existe.
	Release(ctx context.Context, id string, qty int) (bool, error)
	// SetQuantity fija quantity si sigue siendo >= loaned. false si no aplicó.
	SetQuantity(ctx context.Context, id string, quantity int) (bool, error)
	// LockByModel bloquea los stocks del modelo y devuelve la suma de loaned.
	LockByModel(ctx context.Context, modelID string) (loaned int, err error)
}
