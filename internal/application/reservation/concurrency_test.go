package reservation_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/prestamos-api/internal/application/reservation"
	"github.com/jhoicas/prestamos-api/internal/domain"
	"github.com/jhoicas/prestamos-api/internal/domain/entity"
	"github.com/jhoicas/prestamos-api/internal/domain/repository"
)

func TestConcurrentReserveSameAsset_ExactlyOneWins(t *testing.T) {
	f := newFixture(t)
	item := f.addItem(t, f.addModel(t))

	const workers = 50
	loans := make([]string, workers)
	for i := range loans {
		loans[i] = f.openLoan(t).ID
	}

	var (
		wg        sync.WaitGroup
		successes atomic.Int32
		conflicts atomic.Int32
	)
	start := make(chan struct{})
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(loanID string) {
			defer wg.Done()
			<-start
			_, err := f.engine.AddLine(ctx, "tecnico", loanID, entity.AssetTarget{AssetItemID: item})
			switch {
			case err == nil:
				successes.Add(1)
			case assert.ErrorIs(t, err, domain.ErrAssetAlreadyLoaned):
				conflicts.Add(1)
			}
		}(loans[i])
	}
	close(start)
	wg.Wait()

	assert.Equal(t, int32(1), successes.Load())
	assert.Equal(t, int32(workers-1), conflicts.Load())
	assert.Equal(t, entity.AssetStatusLoaned, f.item(t, item).Status)
}

func TestConcurrentStockReserve_NeverOversells(t *testing.T) {
	f := newFixture(t)
	stock := f.addStock(t, f.addModel(t), 5)
	a, b := f.openLoan(t), f.openLoan(t)

	var (
		wg   sync.WaitGroup
		errs [2]error
	)
	start := make(chan struct{})
	for i, loanID := range []string{a.ID, b.ID} {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			_, errs[i] = f.engine.AddLine(ctx, "tecnico", loanID, entity.StockTarget{StockItemID: stock, Qty: 3})
		}()
	}
	close(start)
	wg.Wait()

	failed := 0
	for _, err := range errs {
		if err != nil {
			assert.ErrorIs(t, err, domain.ErrInsufficientStock)
			failed++
		}
	}
	assert.Equal(t, 1, failed)
	assert.Equal(t, 3, f.stock(t, stock).Loaned)
}

func TestConcurrentStockReserve_ManyUnits(t *testing.T) {
	f := newFixture(t)
	stock := f.addStock(t, f.addModel(t), 20)
	loan := f.openLoan(t)

	var (
		wg sync.WaitGroup
		ok atomic.Int32
	)
	for i := 0; i < 40; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := f.engine.AddLine(ctx, "tecnico", loan.ID, entity.StockTarget{StockItemID: stock, Qty: 1}); err == nil {
				ok.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(20), ok.Load())
	s := f.stock(t, stock)
	assert.Equal(t, 20, s.Loaned)
	assert.LessOrEqual(t, s.Loaned, s.Quantity)

	got, err := f.engine.GetLoan(ctx, loan.ID)
	require.NoError(t, err)
	require.Len(t, got.Lines, 20)
	for i, ln := range got.Lines {
		assert.Equal(t, i+1, ln.Position, "posiciones densas y crecientes")
	}
}

func TestConcurrentDoubleReturn_ReleasesOnce(t *testing.T) {
	f := newFixture(t)
	model := f.addModel(t)
	stock := f.addStock(t, model, 10)
	other := f.openLoan(t)
	_, err := f.engine.AddLine(ctx, "tecnico", other.ID, entity.StockTarget{StockItemID: stock, Qty: 2})
	require.NoError(t, err)

	loan := f.openLoan(t)
	line, err := f.engine.AddLine(ctx, "tecnico", loan.ID, entity.StockTarget{StockItemID: stock, Qty: 3})
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.engine.ReturnLine(ctx, "tecnico", line.ID)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	// solo se liberan las 3 unidades de esta línea; las 2 del otro préstamo siguen prestadas
	assert.Equal(t, 2, f.stock(t, stock).Loaned)
}

func TestConcurrentCloseAndAddLine(t *testing.T) {
	for i := 0; i < 20; i++ {
		f := newFixture(t)
		item := f.addItem(t, f.addModel(t))
		loan := f.openLoan(t)

		var (
			wg       sync.WaitGroup
			addErr   error
			closeErr error
		)
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, addErr = f.engine.AddLine(ctx, "tecnico", loan.ID, entity.AssetTarget{AssetItemID: item})
		}()
		go func() {
			defer wg.Done()
			_, closeErr = f.engine.CloseLoan(ctx, "tecnico", loan.ID)
		}()
		wg.Wait()

		got, err := f.engine.GetLoan(ctx, loan.ID)
		require.NoError(t, err)
		if closeErr == nil {
			// cerró primero: la línea no pudo agregarse ni reservar inventario
			assert.ErrorIs(t, addErr, domain.ErrLoanClosed)
			assert.Empty(t, got.Lines)
			assert.Equal(t, entity.AssetStatusInStock, f.item(t, item).Status)
		} else {
			require.NoError(t, addErr)
			assert.ErrorIs(t, closeErr, domain.ErrLoanHasOpenLine)
			assert.Equal(t, entity.LoanStatusOpen, got.Status)
		}
	}
}

func TestTransientFailuresAreRetried(t *testing.T) {
	f := newFixture(t)
	item := f.addItem(t, f.addModel(t))
	loan := f.openLoan(t)

	f.store.FailNext(2)
	_, err := f.engine.AddLine(ctx, "tecnico", loan.ID, entity.AssetTarget{AssetItemID: item})
	require.NoError(t, err)
	assert.Equal(t, entity.AssetStatusLoaned, f.item(t, item).Status)
}

func TestTransientFailuresExhaustRetries(t *testing.T) {
	f := newFixture(t)
	item := f.addItem(t, f.addModel(t))
	loan := f.openLoan(t)

	f.store.FailNext(10)
	_, err := f.engine.AddLine(ctx, "tecnico", loan.ID, entity.AssetTarget{AssetItemID: item})
	assert.ErrorIs(t, err, domain.ErrTransientStorage)
	assert.Equal(t, "TRANSIENT_STORAGE", domain.OutcomeCode(err))
	f.store.FailNext(0)

	assert.Equal(t, entity.AssetStatusInStock, f.item(t, item).Status, "un fallo no deja estado parcial")
	got, err := f.engine.GetLoan(ctx, loan.ID)
	require.NoError(t, err)
	assert.Empty(t, got.Lines)
}

func TestBusinessErrorsAreNotRetried(t *testing.T) {
	store := &countingRunner{}
	engine := reservation.NewEngine(store, alwaysExists{}, nil, reservation.DefaultConfig(), zerolog.Nop())

	_, err := engine.CloseLoan(ctx, "tecnico", gofakeit.UUID())
	assert.ErrorIs(t, err, domain.ErrLoanNotFound)
	assert.Equal(t, int32(1), store.calls.Load())
}

func TestCancelledContextCommitsNothing(t *testing.T) {
	f := newFixture(t)
	item := f.addItem(t, f.addModel(t))
	loan := f.openLoan(t)

	cctx, cancel := context.WithCancel(ctx)
	cancel()
	_, err := f.engine.AddLine(cctx, "tecnico", loan.ID, entity.AssetTarget{AssetItemID: item})
	assert.Error(t, err)
	assert.Equal(t, entity.AssetStatusInStock, f.item(t, item).Status)
}

func TestOperationTimeout(t *testing.T) {
	cfg := reservation.DefaultConfig()
	cfg.OpTimeout = 20 * time.Millisecond
	engine := reservation.NewEngine(slowRunner{delay: time.Second}, alwaysExists{}, nil, cfg, zerolog.Nop())

	startedAt := time.Now()
	_, err := engine.OpenLoan(ctx, "tecnico", gofakeit.UUID())
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.ErrorIs(t, err, domain.ErrTransientStorage)
	assert.Equal(t, "TRANSIENT_STORAGE", domain.OutcomeCode(err))
	assert.Less(t, time.Since(startedAt), 500*time.Millisecond)
}

func TestOperationTimeoutReachesRepositories(t *testing.T) {
	cfg := reservation.DefaultConfig()
	cfg.OpTimeout = 20 * time.Millisecond
	loans := &blockingLoans{}
	engine := reservation.NewEngine(uowRunner{uow: blockingUoW{loans: loans}}, alwaysExists{}, nil, cfg, zerolog.Nop())

	startedAt := time.Now()
	_, err := engine.CloseLoan(ctx, "tecnico", gofakeit.UUID())
	assert.Less(t, time.Since(startedAt), 500*time.Millisecond)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, "TRANSIENT_STORAGE", domain.OutcomeCode(err))
	assert.True(t, loans.sawDeadline.Load(), "el repositorio recibe el contexto con el timeout de la operación")
}

func TestCancelledCallerIsTransient(t *testing.T) {
	engine := reservation.NewEngine(uowRunner{uow: blockingUoW{loans: &blockingLoans{}}}, alwaysExists{}, nil, reservation.DefaultConfig(), zerolog.Nop())

	cctx, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
	defer cancel()
	_, err := engine.CloseLoan(cctx, "tecnico", gofakeit.UUID())
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.ErrorIs(t, err, domain.ErrTransientStorage)
}

// countingRunner cuenta transacciones y responde "no encontrado" a todo.
type countingRunner struct{ calls atomic.Int32 }

func (r *countingRunner) Run(context.Context, func(ctx context.Context, uow reservation.UnitOfWork) error) error {
	r.calls.Add(1)
	return domain.ErrLoanNotFound
}

// slowRunner simula un almacenamiento que no responde hasta que vence el contexto.
type slowRunner struct{ delay time.Duration }

func (r slowRunner) Run(ctx context.Context, _ func(ctx context.Context, uow reservation.UnitOfWork) error) error {
	select {
	case <-time.After(r.delay):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

type alwaysExists struct{}

func (alwaysExists) Exists(context.Context, string) (bool, error) { return true, nil }

// uowRunner entrega siempre la misma unidad de trabajo, sin transacción real.
type uowRunner struct{ uow reservation.UnitOfWork }

func (r uowRunner) Run(ctx context.Context, fn func(ctx context.Context, uow reservation.UnitOfWork) error) error {
	return fn(ctx, r.uow)
}

type blockingUoW struct{ loans *blockingLoans }

func (blockingUoW) Models() repository.AssetModelRepository { return nil }
func (blockingUoW) Items() repository.AssetItemRepository   { return nil }
func (blockingUoW) Stock() repository.StockItemRepository   { return nil }
func (u blockingUoW) Loans() repository.LoanRepository      { return u.loans }

// blockingLoans simula una consulta que solo termina cuando vence su contexto.
type blockingLoans struct {
	repository.LoanRepository
	sawDeadline atomic.Bool
}

func (r *blockingLoans) GetForUpdate(ctx context.Context, _ string) (*entity.Loan, error) {
	if _, ok := ctx.Deadline(); ok {
		r.sawDeadline.Store(true)
	}
	<-ctx.Done()
	return nil, ctx.Err()
}
