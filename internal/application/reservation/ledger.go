package reservation

import (
	"context"

	"github.com/jhoicas/prestamos-api/internal/domain"
	"github.com/jhoicas/prestamos-api/internal/domain/entity"
)

// StockLedger administra los contadores quantity/loaned de los stocks fungibles.
type StockLedger struct{}

// Reserve incrementa loaned en qty si hay disponibilidad, de forma atómica.
func (StockLedger) Reserve(ctx context.Context, uow UnitOfWork, stockItemID string, qty int) error {
	if qty <= 0 {
		return domain.ErrInvalidQuantity
	}
	ok, err := uow.Stock().Reserve(ctx, stockItemID, qty)
	if err != nil {
		return err
	}
	if ok {
		return nil
	}
	if _, err := mustGetStock(ctx, uow, stockItemID); err != nil {
		return err
	}
	return domain.ErrStockExhausted
}

// Release decrementa loaned en qty; nunca queda negativo (doble devolución).
func (StockLedger) Release(ctx context.Context, uow UnitOfWork, stockItemID string, qty int) error {
	if qty <= 0 {
		return domain.ErrInvalidQuantity
	}
	ok, err := uow.Stock().Release(ctx, stockItemID, qty)
	if err != nil {
		return err
	}
	if !ok {
		return domain.ErrStockItemNotFound
	}
	return nil
}

// AdjustQuantity fija la cantidad total sin violar loaned <= quantity.
func (StockLedger) AdjustQuantity(ctx context.Context, uow UnitOfWork, stockItemID string, quantity int) (*entity.StockItem, error) {
	if quantity < 0 {
		return nil, domain.ErrInvalidQuantity
	}
	ok, err := uow.Stock().SetQuantity(ctx, stockItemID, quantity)
	if err != nil {
		return nil, err
	}
	stock, err := mustGetStock(ctx, uow, stockItemID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, domain.ErrStockBelowLoaned
	}
	return stock, nil
}

func mustGetStock(ctx context.Context, uow UnitOfWork, stockItemID string) (*entity.StockItem, error) {
	stock, err := uow.Stock().GetByID(ctx, stockItemID)
	if err != nil {
		return nil, err
	}
	if stock == nil {
		return nil, domain.ErrStockItemNotFound
	}
	return stock, nil
}
