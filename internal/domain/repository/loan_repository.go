package repository

import (
	"context"
	"time"

	"github.com/jhoicas/prestamos-api/internal/domain/entity"
)

// LoanRepository define el puerto de persistencia del agregado Loan y sus líneas.
type LoanRepository interface {
	Create(ctx context.Context, loan *entity.Loan) error
	// GetByID devuelve el préstamo con sus líneas ordenadas, o nil, nil.
	GetByID(ctx context.Context, id string) (*entity.Loan, error)
	// GetForUpdate igual que GetByID pero bloquea la fila del préstamo (SELECT FOR UPDATE).
	GetForUpdate(ctx context.Context, id string) (*entity.Loan, error)
	List(ctx context.Context, filter LoanFilter) ([]*entity.Loan, error)
	// AddLine persiste la línea asignándole la siguiente posición.
	AddLine(ctx context.Context, line *entity.LoanLine) error
	// GetLine devuelve la línea o nil, nil.
	GetLine(ctx context.Context, lineID string) (*entity.LoanLine, error)
	// MarkLineReturned marca la línea como devuelta si aún no lo estaba.
	MarkLineReturned(ctx context.Context, lineID string, at time.Time) (bool, error)
	// Close pasa el préstamo a CLOSED si estaba OPEN.
	Close(ctx context.Context, loanID string, at time.Time) (bool, error)
	SetSignature(ctx context.Context, loanID string, kind entity.SignatureKind, ref string) error
}

// LoanFilter filtros opcionales para listar préstamos.
type LoanFilter struct {
	EmployeeID string
	Status     entity.LoanStatus
	Limit      int
	Offset     int
}
