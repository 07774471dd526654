package reservation

import (
	"context"

	"github.com/jhoicas/prestamos-api/internal/domain/entity"
	"github.com/jhoicas/prestamos-api/internal/domain/repository"
)

// UnitOfWork expone los repositorios atados a una misma transacción.
// Todo lo que se escribe a través de ellos se confirma junto o no se confirma.
type UnitOfWork interface {
	Models() repository.AssetModelRepository
	Items() repository.AssetItemRepository
	Stock() repository.StockItemRepository
	Loans() repository.LoanRepository
}

// TxRunner ejecuta fn dentro de una transacción y hace Commit si fn no devuelve error.
// Los errores de infraestructura reintentables se devuelven envueltos en domain.ErrTransientStorage.
type TxRunner interface {
	Run(ctx context.Context, fn func(ctx context.Context, uow UnitOfWork) error) error
}

// EmployeeDirectory verifica la existencia de empleados (colaborador externo).
type EmployeeDirectory interface {
	Exists(ctx context.Context, id string) (bool, error)
}

// AuditNotifier recibe cada mutación confirmada. Es best-effort: no devuelve error
// y nunca revierte la transacción de negocio.
type AuditNotifier interface {
	Notify(ctx context.Context, entry entity.AuditEntry)
}

type nopAudit struct{}

func (nopAudit) Notify(context.Context, entity.AuditEntry) {}
