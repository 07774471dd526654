package reservation

import (
	"context"

	"github.com/jhoicas/prestamos-api/internal/domain"
	"github.com/jhoicas/prestamos-api/internal/domain/entity"
)

// AssetRegistry administra la máquina de estados de los equipos identificados.
// Cada transición es una actualización condicional: el estado esperado se
// re-verifica en la misma escritura, nunca con leer-y-luego-escribir.
type AssetRegistry struct{}

// Reserve pasa el equipo de EN_STOCK a PRETE y devuelve el estado previo.
func (AssetRegistry) Reserve(ctx context.Context, uow UnitOfWork, itemID string) (entity.AssetStatus, error) {
	ok, err := uow.Items().TransitionStatus(ctx, itemID, entity.AssetStatusLoaned, entity.AssetStatusInStock)
	if err != nil {
		return "", err
	}
	if ok {
		return entity.AssetStatusInStock, nil
	}
	item, err := mustGetItem(ctx, uow, itemID)
	if err != nil {
		return "", err
	}
	if item.Status.IsMaintenance() {
		return "", domain.ErrAssetInMaintenance
	}
	return "", domain.ErrAssetAlreadyLoaned
}

// Release devuelve el equipo a EN_STOCK. Si ya no está PRETE no hace nada
// (devoluciones duplicadas) y devuelve el estado actual.
func (AssetRegistry) Release(ctx context.Context, uow UnitOfWork, itemID string) (entity.AssetStatus, error) {
	ok, err := uow.Items().TransitionStatus(ctx, itemID, entity.AssetStatusInStock, entity.AssetStatusLoaned)
	if err != nil {
		return "", err
	}
	if ok {
		return entity.AssetStatusLoaned, nil
	}
	item, err := mustGetItem(ctx, uow, itemID)
	if err != nil {
		return "", err
	}
	return item.Status, nil
}

// SetMaintenanceStatus marca el equipo como HS o REPARATION.
// Un equipo prestado debe devolverse primero.
func (AssetRegistry) SetMaintenanceStatus(ctx context.Context, uow UnitOfWork, itemID string, status entity.AssetStatus) (*entity.AssetItem, error) {
	if !status.IsMaintenance() {
		return nil, domain.ErrInvalidStatus
	}
	return transitionOrConflict(ctx, uow, itemID, status,
		entity.AssetStatusInStock, entity.AssetStatusOutOfOrder, entity.AssetStatusRepair)
}

// ReturnToService devuelve a EN_STOCK un equipo en mantenimiento.
func (AssetRegistry) ReturnToService(ctx context.Context, uow UnitOfWork, itemID string) (*entity.AssetItem, error) {
	return transitionOrConflict(ctx, uow, itemID, entity.AssetStatusInStock,
		entity.AssetStatusInStock, entity.AssetStatusOutOfOrder, entity.AssetStatusRepair)
}

func transitionOrConflict(ctx context.Context, uow UnitOfWork, itemID string, to entity.AssetStatus, from ...entity.AssetStatus) (*entity.AssetItem, error) {
	ok, err := uow.Items().TransitionStatus(ctx, itemID, to, from...)
	if err != nil {
		return nil, err
	}
	item, err := mustGetItem(ctx, uow, itemID)
	if err != nil {
		return nil, err
	}
	if !ok {
		// la única transición excluida es desde PRETE
		return nil, domain.ErrAssetOnLoan
	}
	return item, nil
}

func mustGetItem(ctx context.Context, uow UnitOfWork, itemID string) (*entity.AssetItem, error) {
	item, err := uow.Items().GetByID(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, domain.ErrAssetItemNotFound
	}
	return item, nil
}
