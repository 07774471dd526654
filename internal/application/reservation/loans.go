package reservation

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/prestamos-api/internal/domain"
	"github.com/jhoicas/prestamos-api/internal/domain/entity"
)

// LoanAggregate administra el ciclo de vida OPEN -> CLOSED de un préstamo y sus
// líneas, delegando las mutaciones de inventario al registro y al ledger dentro
// de la misma unidad de trabajo.
type LoanAggregate struct {
	registry AssetRegistry
	ledger   StockLedger
}

// Open crea un préstamo OPEN sin líneas. La existencia del empleado la verifica el llamador.
func (a LoanAggregate) Open(ctx context.Context, uow UnitOfWork, employeeID, actorID string, now time.Time) (*entity.Loan, error) {
	loan := &entity.Loan{
		ID:         uuid.New().String(),
		EmployeeID: employeeID,
		Status:     entity.LoanStatusOpen,
		OpenedBy:   actorID,
		CreatedAt:  now,
	}
	if err := uow.Loans().Create(ctx, loan); err != nil {
		return nil, err
	}
	return loan, nil
}

// AddLine reserva el destino y agrega la línea. Si la reserva falla no se crea
// ninguna línea y el error del registro/ledger se devuelve sin cambios.
// Devuelve también el estado previo del equipo (vacío para stock).
func (a LoanAggregate) AddLine(ctx context.Context, uow UnitOfWork, loanID string, target entity.LineTarget, now time.Time) (*entity.LoanLine, entity.AssetStatus, error) {
	if target == nil {
		return nil, "", domain.ErrInvalidLineTarget
	}
	loan, err := lockLoan(ctx, uow, loanID)
	if err != nil {
		return nil, "", err
	}
	if !loan.IsOpen() {
		return nil, "", domain.ErrLoanClosed
	}

	var prior entity.AssetStatus
	switch t := target.(type) {
	case entity.AssetTarget:
		prior, err = a.registry.Reserve(ctx, uow, t.AssetItemID)
	case entity.StockTarget:
		err = a.ledger.Reserve(ctx, uow, t.StockItemID, t.Qty)
	default:
		err = domain.ErrInvalidLineTarget
	}
	if err != nil {
		return nil, "", err
	}

	line := &entity.LoanLine{
		ID:        uuid.New().String(),
		LoanID:    loan.ID,
		Target:    target,
		CreatedAt: now,
	}
	if err := uow.Loans().AddLine(ctx, line); err != nil {
		return nil, "", err
	}
	return line, prior, nil
}

// ReturnLine marca la línea como devuelta y libera el inventario.
// Es idempotente: una línea ya devuelta se devuelve tal cual, sin tocar inventario.
// El bool indica si esta llamada fue la que resolvió la línea.
func (a LoanAggregate) ReturnLine(ctx context.Context, uow UnitOfWork, lineID string, now time.Time) (*entity.LoanLine, bool, error) {
	line, err := uow.Loans().GetLine(ctx, lineID)
	if err != nil {
		return nil, false, err
	}
	if line == nil {
		return nil, false, domain.ErrLoanLineNotFound
	}
	// serializa con Close y con otras devoluciones del mismo préstamo
	if _, err := lockLoan(ctx, uow, line.LoanID); err != nil {
		return nil, false, err
	}
	return a.returnLocked(ctx, uow, line, now)
}

func (a LoanAggregate) returnLocked(ctx context.Context, uow UnitOfWork, line *entity.LoanLine, now time.Time) (*entity.LoanLine, bool, error) {
	ok, err := uow.Loans().MarkLineReturned(ctx, line.ID, now)
	if err != nil {
		return nil, false, err
	}
	if !ok {
		current, err := uow.Loans().GetLine(ctx, line.ID)
		if err != nil {
			return nil, false, err
		}
		if current == nil {
			return nil, false, domain.ErrLoanLineNotFound
		}
		return current, false, nil
	}

	switch t := line.Target.(type) {
	case entity.AssetTarget:
		_, err = a.registry.Release(ctx, uow, t.AssetItemID)
	case entity.StockTarget:
		err = a.ledger.Release(ctx, uow, t.StockItemID, t.Qty)
	}
	if err != nil {
		return nil, false, err
	}
	returned := *line
	returned.ReturnedAt = &now
	return &returned, true, nil
}

// Close cierra el préstamo. Exige que todas las líneas estén devueltas;
// cerrar sin líneas está permitido. CLOSED es terminal.
func (a LoanAggregate) Close(ctx context.Context, uow UnitOfWork, loanID string, now time.Time) (*entity.Loan, error) {
	loan, err := lockLoan(ctx, uow, loanID)
	if err != nil {
		return nil, err
	}
	if !loan.IsOpen() {
		return nil, domain.ErrLoanClosed
	}
	if len(loan.OutstandingLines()) > 0 {
		return nil, domain.ErrLoanHasOpenLine
	}
	return closeLocked(ctx, uow, loan, now)
}

// ForceReturnAll devuelve cada línea pendiente y cierra el préstamo en la misma
// unidad de trabajo. Devuelve las líneas resueltas por esta llamada.
func (a LoanAggregate) ForceReturnAll(ctx context.Context, uow UnitOfWork, loanID string, now time.Time) (*entity.Loan, []entity.LoanLine, error) {
	loan, err := lockLoan(ctx, uow, loanID)
	if err != nil {
		return nil, nil, err
	}
	if !loan.IsOpen() {
		return nil, nil, domain.ErrLoanClosed
	}
	var resolved []entity.LoanLine
	for i := range loan.Lines {
		line := loan.Lines[i]
		if line.Returned() {
			continue
		}
		returned, ok, err := a.returnLocked(ctx, uow, &line, now)
		if err != nil {
			return nil, nil, err
		}
		loan.Lines[i] = *returned
		if ok {
			resolved = append(resolved, *returned)
		}
	}
	closed, err := closeLocked(ctx, uow, loan, now)
	if err != nil {
		return nil, nil, err
	}
	return closed, resolved, nil
}

func closeLocked(ctx context.Context, uow UnitOfWork, loan *entity.Loan, now time.Time) (*entity.Loan, error) {
	ok, err := uow.Loans().Close(ctx, loan.ID, now)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, domain.ErrLoanClosed
	}
	loan.Status = entity.LoanStatusClosed
	loan.ClosedAt = &now
	return loan, nil
}

func lockLoan(ctx context.Context, uow UnitOfWork, loanID string) (*entity.Loan, error) {
	loan, err := uow.Loans().GetForUpdate(ctx, loanID)
	if err != nil {
		return nil, err
	}
	if loan == nil {
		return nil, domain.ErrLoanNotFound
	}
	return loan, nil
}
