package reservation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"

	"github.com/jhoicas/prestamos-api/internal/domain"
	"github.com/jhoicas/prestamos-api/internal/domain/entity"
	"github.com/jhoicas/prestamos-api/internal/domain/repository"
)

// Config parámetros de ejecución del motor.
type Config struct {
	MaxRetries       int           // reintentos ante ErrTransientStorage
	InitialBackoff   time.Duration // espera antes del primer reintento
	MaxBackoff       time.Duration
	OpTimeout        time.Duration // 0 = sin límite propio, solo el del llamador
	BatchConcurrency int
}

// DefaultConfig valores usados cuando la configuración no define otros.
func DefaultConfig() Config {
	return Config{
		MaxRetries:       3,
		InitialBackoff:   25 * time.Millisecond,
		MaxBackoff:       500 * time.Millisecond,
		OpTimeout:        5 * time.Second,
		BatchConcurrency: 4,
	}
}

// Engine es el punto de entrada público del motor de reservas y préstamos.
// Cada operación corre en una sola unidad de trabajo: el efecto sobre el
// inventario y el efecto sobre el préstamo se confirman juntos o no se confirman.
// La autorización la decide la capa superior; actorID solo se usa para auditoría.
type Engine struct {
	tx        TxRunner
	employees EmployeeDirectory
	audit     AuditNotifier
	cfg       Config
	log       zerolog.Logger
	now       func() time.Time

	loans    LoanAggregate
	registry AssetRegistry
	ledger   StockLedger
}

// NewEngine construye el motor. audit puede ser nil.
func NewEngine(tx TxRunner, employees EmployeeDirectory, audit AuditNotifier, cfg Config, log zerolog.Logger) *Engine {
	if audit == nil {
		audit = nopAudit{}
	}
	if cfg.BatchConcurrency <= 0 {
		cfg.BatchConcurrency = 1
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	return &Engine{
		tx:        tx,
		employees: employees,
		audit:     audit,
		cfg:       cfg,
		log:       log.With().Str("component", "reservation").Logger(),
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// OpenLoan crea un préstamo OPEN para el empleado.
func (e *Engine) OpenLoan(ctx context.Context, actorID, employeeID string) (*entity.Loan, error) {
	const op = "loan.open"
	if employeeID == "" {
		return nil, e.fail(op, domain.ErrInvalidArgument)
	}
	exists, err := e.employees.Exists(ctx, employeeID)
	if err != nil {
		return nil, e.fail(op, err)
	}
	if !exists {
		return nil, e.fail(op, domain.ErrEmployeeNotFound)
	}

	var loan *entity.Loan
	err = e.run(ctx, op, func(ctx context.Context, uow UnitOfWork) (err error) {
		loan, err = e.loans.Open(ctx, uow, employeeID, actorID, e.now())
		return err
	})
	if err != nil {
		return nil, e.fail(op, err)
	}
	e.notify(ctx, actorID, op, "loan", loan.ID, nil, loan)
	e.log.Debug().Str("op", op).Str("loan_id", loan.ID).Str("employee_id", employeeID).Msg("préstamo abierto")
	return loan, nil
}

// AddLine reserva un equipo o una cantidad de stock y la agrega al préstamo.
func (e *Engine) AddLine(ctx context.Context, actorID, loanID string, target entity.LineTarget) (*entity.LoanLine, error) {
	const op = "loan.add_line"
	var (
		line  *entity.LoanLine
		prior entity.AssetStatus
	)
	err := e.run(ctx, op, func(ctx context.Context, uow UnitOfWork) (err error) {
		line, prior, err = e.loans.AddLine(ctx, uow, loanID, target, e.now())
		return err
	})
	if err != nil {
		return nil, e.fail(op, err, "loan_id", loanID)
	}
	e.notify(ctx, actorID, op, "loan_line", line.ID, inventoryState(target, prior), line)
	e.log.Debug().Str("op", op).Str("loan_id", loanID).Str("line_id", line.ID).
		Str("kind", string(target.Kind())).Str("target_id", target.TargetID()).Int("qty", target.Quantity()).
		Msg("línea agregada")
	return line, nil
}

// ReturnLine devuelve una línea. Llamarla sobre una línea ya devuelta no tiene efecto.
func (e *Engine) ReturnLine(ctx context.Context, actorID, lineID string) (*entity.LoanLine, error) {
	const op = "loan.return_line"
	var (
		line     *entity.LoanLine
		resolved bool
	)
	err := e.run(ctx, op, func(ctx context.Context, uow UnitOfWork) (err error) {
		line, resolved, err = e.loans.ReturnLine(ctx, uow, lineID, e.now())
		return err
	})
	if err != nil {
		return nil, e.fail(op, err, "line_id", lineID)
	}
	if resolved {
		e.notify(ctx, actorID, op, "loan_line", line.ID, lineState{Returned: false}, line)
	}
	e.log.Debug().Str("op", op).Str("line_id", lineID).Bool("resolved", resolved).Msg("línea devuelta")
	return line, nil
}

// CloseLoan cierra un préstamo cuyas líneas ya fueron devueltas.
func (e *Engine) CloseLoan(ctx context.Context, actorID, loanID string) (*entity.Loan, error) {
	const op = "loan.close"
	var loan *entity.Loan
	err := e.run(ctx, op, func(ctx context.Context, uow UnitOfWork) (err error) {
		loan, err = e.loans.Close(ctx, uow, loanID, e.now())
		return err
	})
	if err != nil {
		return nil, e.fail(op, err, "loan_id", loanID)
	}
	e.notify(ctx, actorID, op, "loan", loan.ID, loanState{Status: entity.LoanStatusOpen}, loan)
	e.log.Debug().Str("op", op).Str("loan_id", loanID).Msg("préstamo cerrado")
	return loan, nil
}

// ForceReturnAll devuelve todas las líneas pendientes y cierra el préstamo de forma atómica.
func (e *Engine) ForceReturnAll(ctx context.Context, actorID, loanID string) (*entity.Loan, error) {
	const op = "loan.force_return_all"
	var (
		loan     *entity.Loan
		resolved []entity.LoanLine
	)
	err := e.run(ctx, op, func(ctx context.Context, uow UnitOfWork) (err error) {
		loan, resolved, err = e.loans.ForceReturnAll(ctx, uow, loanID, e.now())
		return err
	})
	if err != nil {
		return nil, e.fail(op, err, "loan_id", loanID)
	}
	for i := range resolved {
		e.notify(ctx, actorID, "loan.return_line", "loan_line", resolved[i].ID, lineState{Returned: false}, resolved[i])
	}
	e.notify(ctx, actorID, op, "loan", loan.ID, loanState{Status: entity.LoanStatusOpen}, loan)
	e.log.Info().Str("op", op).Str("loan_id", loanID).Int("returned_lines", len(resolved)).Msg("devolución forzada")
	return loan, nil
}

// DeleteAssetModel elimina un modelo y en cascada sus equipos y stock, salvo que
// tenga equipos prestados o stock con loaned > 0.
func (e *Engine) DeleteAssetModel(ctx context.Context, actorID, modelID string) error {
	const op = "catalog.delete_model"
	var model *entity.AssetModel
	err := e.run(ctx, op, func(ctx context.Context, uow UnitOfWork) (err error) {
		// la fila del modelo bloqueada frena las altas concurrentes de equipos o stock (el FK
		// toma KEY SHARE); los bloqueos por modelo frenan las reservas sobre lo ya existente
		model, err = uow.Models().GetForUpdate(ctx, modelID)
		if err != nil {
			return err
		}
		if model == nil {
			return domain.ErrAssetModelNotFound
		}
		loanedItems, err := uow.Items().LockByModel(ctx, modelID)
		if err != nil {
			return err
		}
		loanedStock, err := uow.Stock().LockByModel(ctx, modelID)
		if err != nil {
			return err
		}
		if loanedItems > 0 || loanedStock > 0 {
			return domain.ErrModelHasLoans
		}
		deleted, err := uow.Models().Delete(ctx, modelID)
		if err != nil {
			return err
		}
		if !deleted {
			return domain.ErrAssetModelNotFound
		}
		return nil
	})
	if err != nil {
		return e.fail(op, err, "model_id", modelID)
	}
	e.notify(ctx, actorID, op, "asset_model", modelID, model, nil)
	e.log.Info().Str("op", op).Str("model_id", modelID).Msg("modelo eliminado")
	return nil
}

// SetMaintenanceStatus pasa un equipo no prestado a HS o REPARATION.
func (e *Engine) SetMaintenanceStatus(ctx context.Context, actorID, itemID string, status entity.AssetStatus) (*entity.AssetItem, error) {
	return e.changeItemStatus(ctx, actorID, "item.set_maintenance", itemID, func(ctx context.Context, uow UnitOfWork) (*entity.AssetItem, error) {
		return e.registry.SetMaintenanceStatus(ctx, uow, itemID, status)
	})
}

// ReturnToService devuelve a EN_STOCK un equipo en mantenimiento.
func (e *Engine) ReturnToService(ctx context.Context, actorID, itemID string) (*entity.AssetItem, error) {
	return e.changeItemStatus(ctx, actorID, "item.return_to_service", itemID, func(ctx context.Context, uow UnitOfWork) (*entity.AssetItem, error) {
		return e.registry.ReturnToService(ctx, uow, itemID)
	})
}

func (e *Engine) changeItemStatus(ctx context.Context, actorID, op, itemID string, fn func(ctx context.Context, uow UnitOfWork) (*entity.AssetItem, error)) (*entity.AssetItem, error) {
	var before, after *entity.AssetItem
	err := e.run(ctx, op, func(ctx context.Context, uow UnitOfWork) (err error) {
		if before, err = mustGetItem(ctx, uow, itemID); err != nil {
			return err
		}
		after, err = fn(ctx, uow)
		return err
	})
	if err != nil {
		return nil, e.fail(op, err, "item_id", itemID)
	}
	e.notify(ctx, actorID, op, "asset_item", itemID, before.Status, after.Status)
	return after, nil
}

// AdjustStockQuantity fija la cantidad total de un stock (nunca por debajo de lo prestado).
func (e *Engine) AdjustStockQuantity(ctx context.Context, actorID, stockItemID string, quantity int) (*entity.StockItem, error) {
	const op = "stock.adjust_quantity"
	var before, after *entity.StockItem
	err := e.run(ctx, op, func(ctx context.Context, uow UnitOfWork) (err error) {
		if before, err = mustGetStock(ctx, uow, stockItemID); err != nil {
			return err
		}
		after, err = e.ledger.AdjustQuantity(ctx, uow, stockItemID, quantity)
		return err
	})
	if err != nil {
		return nil, e.fail(op, err, "stock_item_id", stockItemID)
	}
	e.notify(ctx, actorID, op, "stock_item", stockItemID, *before, *after)
	return after, nil
}

// AttachSignature guarda la referencia a una firma de retiro o devolución.
func (e *Engine) AttachSignature(ctx context.Context, actorID, loanID string, kind entity.SignatureKind, ref string) (*entity.Loan, error) {
	const op = "loan.attach_signature"
	if ref == "" || (kind != entity.SignaturePickup && kind != entity.SignatureReturn) {
		return nil, e.fail(op, domain.ErrInvalidArgument)
	}
	var loan *entity.Loan
	err := e.run(ctx, op, func(ctx context.Context, uow UnitOfWork) (err error) {
		if loan, err = lockLoan(ctx, uow, loanID); err != nil {
			return err
		}
		if kind == entity.SignaturePickup && !loan.IsOpen() {
			return domain.ErrLoanClosed
		}
		if err := uow.Loans().SetSignature(ctx, loanID, kind, ref); err != nil {
			return err
		}
		if kind == entity.SignaturePickup {
			loan.PickupSignature = ref
		} else {
			loan.ReturnSignature = ref
		}
		return nil
	})
	if err != nil {
		return nil, e.fail(op, err, "loan_id", loanID)
	}
	e.notify(ctx, actorID, op, "loan", loanID, nil, map[string]string{"kind": string(kind), "ref": ref})
	return loan, nil
}

// GetLoan devuelve el préstamo con sus líneas.
func (e *Engine) GetLoan(ctx context.Context, loanID string) (*entity.Loan, error) {
	var loan *entity.Loan
	err := e.run(ctx, "loan.get", func(ctx context.Context, uow UnitOfWork) (err error) {
		loan, err = uow.Loans().GetByID(ctx, loanID)
		if err == nil && loan == nil {
			err = domain.ErrLoanNotFound
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	return loan, nil
}

// ListLoans lista préstamos con filtros opcionales.
func (e *Engine) ListLoans(ctx context.Context, filter repository.LoanFilter) ([]*entity.Loan, error) {
	var list []*entity.Loan
	err := e.run(ctx, "loan.list", func(ctx context.Context, uow UnitOfWork) (err error) {
		list, err = uow.Loans().List(ctx, filter)
		return err
	})
	return list, err
}

// run ejecuta fn en una transacción con el timeout de la operación y reintenta
// con backoff exponencial solo los fallos transitorios de almacenamiento.
func (e *Engine) run(ctx context.Context, op string, fn func(ctx context.Context, uow UnitOfWork) error) error {
	if e.cfg.OpTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.cfg.OpTimeout)
		defer cancel()
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = e.cfg.InitialBackoff
	b.MaxInterval = e.cfg.MaxBackoff
	b.MaxElapsedTime = 0
	b.Reset()

	attempt := 0
	err := backoff.Retry(func() error {
		attempt++
		err := e.tx.Run(ctx, fn)
		if err == nil {
			return nil
		}
		if !errors.Is(err, domain.ErrTransientStorage) {
			return backoff.Permanent(err)
		}
		e.log.Warn().Err(err).Str("op", op).Int("attempt", attempt).Msg("fallo transitorio, reintentando")
		return err
	}, backoff.WithContext(backoff.WithMaxRetries(b, uint64(e.cfg.MaxRetries)), ctx))
	// un timeout o una cancelación no es un fallo interno: el llamador puede reintentar
	if isContextErr(err) && !errors.Is(err, domain.ErrTransientStorage) {
		return fmt.Errorf("%w: %w", domain.ErrTransientStorage, err)
	}
	return err
}

func isContextErr(err error) bool {
	return errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled)
}

// fail registra el error con el nivel que corresponde a su categoría y lo devuelve sin cambios.
func (e *Engine) fail(op string, err error, kv ...string) error {
	ev := e.log.Error()
	if domain.IsBusiness(err) {
		ev = e.log.Warn()
	}
	for i := 0; i+1 < len(kv); i += 2 {
		ev = ev.Str(kv[i], kv[i+1])
	}
	ev.Err(err).Str("op", op).Str("code", domain.OutcomeCode(err)).Msg("operación rechazada")
	return err
}

func (e *Engine) notify(ctx context.Context, actorID, op, entityType, entityID string, before, after any) {
	e.audit.Notify(ctx, entity.AuditEntry{
		ActorID:    actorID,
		Operation:  op,
		EntityType: entityType,
		EntityID:   entityID,
		Before:     before,
		After:      after,
		At:         e.now(),
	})
}

type lineState struct {
	Returned bool `json:"returned"`
}

type loanState struct {
	Status entity.LoanStatus `json:"status"`
}

type itemState struct {
	Kind     entity.LineKind    `json:"kind"`
	TargetID string             `json:"target_id"`
	Status   entity.AssetStatus `json:"status,omitempty"`
}

func inventoryState(target entity.LineTarget, prior entity.AssetStatus) itemState {
	return itemState{Kind: target.Kind(), TargetID: target.TargetID(), Status: prior}
}
