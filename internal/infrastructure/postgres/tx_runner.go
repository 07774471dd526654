package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jhoicas/prestamos-api/internal/application/reservation"
	"github.com/jhoicas/prestamos-api/internal/domain/repository"
)

var _ reservation.TxRunner = (*TxRunner)(nil)

// TxRunner ejecuta callbacks dentro de una transacción PostgreSQL.
type TxRunner struct {
	pool *pgxpool.Pool
}

// NewTxRunner construye el runner con el pool.
func NewTxRunner(pool *pgxpool.Pool) *TxRunner {
	return &TxRunner{pool: pool}
}

// Run inicia una transacción READ COMMITTED, ejecuta fn con repos atados a la tx y
// hace Commit o Rollback. La consistencia la dan las actualizaciones condicionales
// y los bloqueos de fila de cada repositorio.
func (r *TxRunner) Run(ctx context.Context, fn func(ctx context.Context, uow reservation.UnitOfWork) error) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return wrap("begin transaction", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(ctx, &unitOfWork{tx: tx}); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return wrap("commit transaction", err)
	}
	return nil
}

type unitOfWork struct {
	tx pgx.Tx
}

func (u *unitOfWork) Models() repository.AssetModelRepository { return NewAssetModelRepository(u.tx) }

func (u *unitOfWork) Items() repository.AssetItemRepository { return NewAssetItemRepository(u.tx) }

func (u *unitOfWork) Stock() repository.StockItemRepository { return NewStockItemRepository(u.tx) }

func (u *unitOfWork) Loans() repository.LoanRepository { return NewLoanRepository(u.tx) }
