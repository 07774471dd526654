package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/samber/lo"

	"github.com/jhoicas/prestamos-api/internal/application/dto"
	"github.com/jhoicas/prestamos-api/internal/application/reservation"
	"github.com/jhoicas/prestamos-api/internal/domain"
	"github.com/jhoicas/prestamos-api/internal/domain/entity"
	"github.com/jhoicas/prestamos-api/internal/domain/repository"
)

// LoanUseCase adapta el motor de reservas a los DTO de la API y arma el comprobante.
type LoanUseCase struct {
	engine    *reservation.Engine
	tx        reservation.TxRunner
	employees repository.EmployeeRepository
	renderer  ReceiptRenderer
}

// NewLoanUseCase construye el caso de uso. renderer puede ser nil si no se exponen comprobantes.
func NewLoanUseCase(engine *reservation.Engine, tx reservation.TxRunner, employees repository.EmployeeRepository, renderer ReceiptRenderer) *LoanUseCase {
	return &LoanUseCase{engine: engine, tx: tx, employees: employees, renderer: renderer}
}

// Open abre un préstamo para un empleado.
func (uc *LoanUseCase) Open(ctx context.Context, actorID string, in dto.OpenLoanRequest) (*dto.LoanResponse, error) {
	loan, err := uc.engine.OpenLoan(ctx, actorID, strings.TrimSpace(in.EmployeeID))
	if err != nil {
		return nil, err
	}
	return toLoanResponse(loan), nil
}

// AddLine agrega un equipo o una cantidad de stock al préstamo.
func (uc *LoanUseCase) AddLine(ctx context.Context, actorID, loanID string, in dto.AddLineRequest) (*dto.LoanLineResponse, error) {
	target, err := entity.NewLineTarget(strings.TrimSpace(in.AssetItemID), strings.TrimSpace(in.StockItemID), in.Quantity)
	if err != nil {
		return nil, err
	}
	line, err := uc.engine.AddLine(ctx, actorID, loanID, target)
	if err != nil {
		return nil, err
	}
	out := toLineResponse(*line)
	return &out, nil
}

// ReturnLine devuelve una línea (idempotente).
func (uc *LoanUseCase) ReturnLine(ctx context.Context, actorID, lineID string) (*dto.LoanLineResponse, error) {
	line, err := uc.engine.ReturnLine(ctx, actorID, lineID)
	if err != nil {
		return nil, err
	}
	out := toLineResponse(*line)
	return &out, nil
}

// Close cierra un préstamo sin líneas pendientes.
func (uc *LoanUseCase) Close(ctx context.Context, actorID, loanID string) (*dto.LoanResponse, error) {
	loan, err := uc.engine.CloseLoan(ctx, actorID, loanID)
	if err != nil {
		return nil, err
	}
	return toLoanResponse(loan), nil
}

// ForceReturn devuelve todo lo pendiente y cierra el préstamo.
func (uc *LoanUseCase) ForceReturn(ctx context.Context, actorID, loanID string) (*dto.LoanResponse, error) {
	loan, err := uc.engine.ForceReturnAll(ctx, actorID, loanID)
	if err != nil {
		return nil, err
	}
	return toLoanResponse(loan), nil
}

// BatchClose cierra varios préstamos; cada uno reporta su propio resultado.
func (uc *LoanUseCase) BatchClose(ctx context.Context, actorID string, in dto.BatchCloseRequest) (*dto.BatchCloseResponse, error) {
	if len(lo.Compact(in.LoanIDs)) == 0 {
		return nil, domain.InvalidArgument("loan_ids es obligatorio")
	}
	results := uc.engine.BatchClose(ctx, actorID, in.LoanIDs)
	out := &dto.BatchCloseResponse{Results: make([]dto.BatchCloseItem, 0, len(results))}
	for _, r := range results {
		item := dto.BatchCloseItem{LoanID: r.LoanID, Code: domain.OutcomeCode(r.Err)}
		if r.Err != nil {
			item.Error = r.Err.Error()
			out.Failed++
		} else {
			item.Loan = toLoanResponse(r.Loan)
			out.Closed++
		}
		out.Results = append(out.Results, item)
	}
	return out, nil
}

// AttachSignature guarda la referencia de una firma.
func (uc *LoanUseCase) AttachSignature(ctx context.Context, actorID, loanID string, in dto.SignatureRequest) (*dto.LoanResponse, error) {
	kind := entity.SignatureKind(strings.ToUpper(strings.TrimSpace(in.Kind)))
	if kind != entity.SignaturePickup && kind != entity.SignatureReturn {
		return nil, domain.InvalidArgument("kind debe ser PICKUP o RETURN")
	}
	if strings.TrimSpace(in.Reference) == "" {
		return nil, domain.InvalidArgument("reference es obligatorio")
	}
	loan, err := uc.engine.AttachSignature(ctx, actorID, loanID, kind, strings.TrimSpace(in.Reference))
	if err != nil {
		return nil, err
	}
	return toLoanResponse(loan), nil
}

// Get obtiene un préstamo con sus líneas.
func (uc *LoanUseCase) Get(ctx context.Context, loanID string) (*dto.LoanResponse, error) {
	loan, err := uc.engine.GetLoan(ctx, loanID)
	if err != nil {
		return nil, err
	}
	return toLoanResponse(loan), nil
}

// List lista préstamos con filtros y paginación.
func (uc *LoanUseCase) List(ctx context.Context, in dto.LoanListRequest) (*dto.LoanListResponse, error) {
	in.DefaultPage()
	status := entity.LoanStatus(strings.ToUpper(strings.TrimSpace(in.Status)))
	if status != "" && status != entity.LoanStatusOpen && status != entity.LoanStatusClosed {
		return nil, domain.InvalidArgument("status debe ser OPEN o CLOSED")
	}
	list, err := uc.engine.ListLoans(ctx, repository.LoanFilter{
		EmployeeID: strings.TrimSpace(in.EmployeeID),
		Status:     status,
		Limit:      in.Limit,
		Offset:     in.Offset,
	})
	if err != nil {
		return nil, err
	}
	return &dto.LoanListResponse{
		Items: lo.Map(list, func(l *entity.Loan, _ int) dto.LoanResponse { return *toLoanResponse(l) }),
		Page:  dto.PageResponse{Limit: in.Limit, Offset: in.Offset},
	}, nil
}

// Receipt arma el comprobante y lo renderiza. Los destinos eliminados del catálogo
// siguen apareciendo, sin descripción.
func (uc *LoanUseCase) Receipt(ctx context.Context, loanID string) ([]byte, error) {
	if uc.renderer == nil {
		return nil, fmt.Errorf("comprobante no configurado")
	}
	rc, err := uc.buildReceipt(ctx, loanID)
	if err != nil {
		return nil, err
	}
	return uc.renderer.RenderLoanReceipt(ctx, rc)
}

func (uc *LoanUseCase) buildReceipt(ctx context.Context, loanID string) (*LoanReceipt, error) {
	loan, err := uc.engine.GetLoan(ctx, loanID)
	if err != nil {
		return nil, err
	}
	rc := &LoanReceipt{
		LoanID:          loan.ID,
		Status:          string(loan.Status),
		EmployeeID:      loan.EmployeeID,
		OpenedBy:        loan.OpenedBy,
		PickupSignature: loan.PickupSignature,
		ReturnSignature: loan.ReturnSignature,
		CreatedAt:       loan.CreatedAt,
		ClosedAt:        loan.ClosedAt,
	}
	if emp, err := uc.employees.GetByID(ctx, loan.EmployeeID); err != nil {
		return nil, err
	} else if emp != nil {
		rc.EmployeeName = emp.Name
	}

	err = uc.tx.Run(ctx, func(ctx context.Context, uow reservation.UnitOfWork) error {
		rc.Lines = make([]ReceiptLine, 0, len(loan.Lines))
		for _, ln := range loan.Lines {
			desc, err := describeTarget(ctx, uow, ln.Target)
			if err != nil {
				return err
			}
			rc.Lines = append(rc.Lines, ReceiptLine{
				Position:    ln.Position,
				Kind:        string(ln.Target.Kind()),
				Description: desc,
				Quantity:    ln.Target.Quantity(),
				ReturnedAt:  ln.ReturnedAt,
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return rc, nil
}

func describeTarget(ctx context.Context, uow reservation.UnitOfWork, target entity.LineTarget) (string, error) {
	var modelID, suffix string
	switch t := target.(type) {
	case entity.AssetTarget:
		item, err := uow.Items().GetByID(ctx, t.AssetItemID)
		if err != nil || item == nil {
			return "(equipo eliminado)", err
		}
		modelID = item.ModelID
		suffix = lo.CoalesceOrEmpty(item.Tag, item.Serial)
	case entity.StockTarget:
		stock, err := uow.Stock().GetByID(ctx, t.StockItemID)
		if err != nil || stock == nil {
			return "(stock eliminado)", err
		}
		modelID = stock.ModelID
	}
	model, err := uow.Models().GetByID(ctx, modelID)
	if err != nil || model == nil {
		return "(modelo eliminado)", err
	}
	desc := fmt.Sprintf("%s %s %s", model.Type, model.Brand, model.Name)
	if suffix != "" {
		desc += " · " + suffix
	}
	return desc, nil
}

func toLoanResponse(l *entity.Loan) *dto.LoanResponse {
	return &dto.LoanResponse{
		ID:               l.ID,
		EmployeeID:       l.EmployeeID,
		Status:           string(l.Status),
		OpenedBy:         l.OpenedBy,
		PickupSignature:  l.PickupSignature,
		ReturnSignature:  l.ReturnSignature,
		OutstandingLines: len(l.OutstandingLines()),
		Lines:            lo.Map(l.Lines, func(ln entity.LoanLine, _ int) dto.LoanLineResponse { return toLineResponse(ln) }),
		CreatedAt:        l.CreatedAt,
		ClosedAt:         l.ClosedAt,
	}
}

func toLineResponse(ln entity.LoanLine) dto.LoanLineResponse {
	out := dto.LoanLineResponse{
		ID:         ln.ID,
		LoanID:     ln.LoanID,
		Position:   ln.Position,
		Kind:       string(ln.Target.Kind()),
		Quantity:   ln.Target.Quantity(),
		CreatedAt:  ln.CreatedAt,
		ReturnedAt: ln.ReturnedAt,
	}
	switch t := ln.Target.(type) {
	case entity.AssetTarget:
		out.AssetItemID = t.AssetItemID
	case entity.StockTarget:
		out.StockItemID = t.StockItemID
	}
	return out
}
