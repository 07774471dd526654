package memory_test

import (
	"context"
	"errors"
	"testing"
	"time"
	"unsafe"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/prestamos-api/internal/application/reservation"
	"github.com/jhoicas/prestamos-api/internal/domain"
	"github.com/jhoicas/prestamos-api/internal/domain/entity"
	"github.com/jhoicas/prestamos-api/internal/domain/repository"
	"github.com/jhoicas/prestamos-api/internal/infrastructure/memory"
)

var ctx = context.Background()

func seedModel(t *testing.T, s *memory.Store) string {
	t.Helper()
	id := gofakeit.UUID()
	require.NoError(t, s.Run(ctx, func(ctx context.Context, uow reservation.UnitOfWork) error {
		return uow.Models().Create(ctx, &entity.AssetModel{ID: id, Type: "laptop", Brand: "Dell", Name: gofakeit.ProductName()})
	}))
	return id
}

func TestRun_RollbackOnError(t *testing.T) {
	s := memory.NewStore()
	modelID := seedModel(t, s)
	stockID := gofakeit.UUID()

	boom := errors.New("boom")
	err := s.Run(ctx, func(ctx context.Context, uow reservation.UnitOfWork) error {
		if err := uow.Stock().Create(ctx, &entity.StockItem{ID: stockID, ModelID: modelID, Quantity: 5}); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	require.NoError(t, s.Run(ctx, func(ctx context.Context, uow reservation.UnitOfWork) error {
		got, err := uow.Stock().GetByID(ctx, stockID)
		assert.Nil(t, got)
		return err
	}))
}

func TestRun_CancelledAfterWorkDiscardsChanges(t *testing.T) {
	s := memory.NewStore()
	cctx, cancel := context.WithCancel(ctx)
	id := gofakeit.UUID()

	err := s.Run(cctx, func(ctx context.Context, uow reservation.UnitOfWork) error {
		_ = uow.Models().Create(cctx, &entity.AssetModel{ID: id})
		cancel()
		return nil
	})
	assert.ErrorIs(t, err, context.Canceled)

	require.NoError(t, s.Run(ctx, func(ctx context.Context, uow reservation.UnitOfWork) error {
		got, err := uow.Models().GetByID(ctx, id)
		assert.Nil(t, got)
		return err
	}))
}

func TestFailNext(t *testing.T) {
	s := memory.NewStore()
	s.FailNext(2)
	noop := func(context.Context, reservation.UnitOfWork) error { return nil }

	assert.ErrorIs(t, s.Run(ctx, noop), domain.ErrTransientStorage)
	assert.ErrorIs(t, s.Run(ctx, noop), domain.ErrTransientStorage)
	assert.NoError(t, s.Run(ctx, noop))
}

func TestStockConditionalUpdates(t *testing.T) {
	s := memory.NewStore()
	modelID := seedModel(t, s)
	id := gofakeit.UUID()

	require.NoError(t, s.Run(ctx, func(ctx context.Context, uow reservation.UnitOfWork) error {
		stock := uow.Stock()
		require.NoError(t, stock.Create(ctx, &entity.StockItem{ID: id, ModelID: modelID, Quantity: 5}))

		ok, err := stock.Reserve(ctx, id, 4)
		require.NoError(t, err)
		assert.True(t, ok)

		ok, err = stock.Reserve(ctx, id, 2)
		require.NoError(t, err)
		assert.False(t, ok, "no hay 2 disponibles")

		ok, err = stock.SetQuantity(ctx, id, 3)
		require.NoError(t, err)
		assert.False(t, ok, "no puede bajar de lo prestado")

		ok, err = stock.Release(ctx, id, 4)
		require.NoError(t, err)
		assert.True(t, ok)

		got, err := stock.GetByID(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, 0, got.Loaned)
		return nil
	}))
}

func TestAssetTransitionIsConditional(t *testing.T) {
	s := memory.NewStore()
	modelID := seedModel(t, s)
	id := gofakeit.UUID()

	require.NoError(t, s.Run(ctx, func(ctx context.Context, uow reservation.UnitOfWork) error {
		items := uow.Items()
		require.NoError(t, items.Create(ctx, &entity.AssetItem{ID: id, ModelID: modelID, Status: entity.AssetStatusInStock}))

		ok, err := items.TransitionStatus(ctx, id, entity.AssetStatusLoaned, entity.AssetStatusInStock)
		require.NoError(t, err)
		assert.True(t, ok)

		ok, err = items.TransitionStatus(ctx, id, entity.AssetStatusLoaned, entity.AssetStatusInStock)
		require.NoError(t, err)
		assert.False(t, ok)

		n, err := items.LockByModel(ctx, modelID)
		require.NoError(t, err)
		assert.Equal(t, 1, n)
		return nil
	}))

	err := s.Run(ctx, func(ctx context.Context, uow reservation.UnitOfWork) error {
		return uow.Items().Create(ctx, &entity.AssetItem{ID: gofakeit.UUID(), ModelID: gofakeit.UUID()})
	})
	assert.ErrorIs(t, err, domain.ErrAssetModelNotFound)
}

// borrowedID devuelve un string que comparte memoria con buf, como los parámetros de
// ruta de fiber sin Immutable.
func borrowedID(buf []byte) string {
	return unsafe.String(&buf[0], len(buf))
}

func TestStoreDoesNotRetainCallerStrings(t *testing.T) {
	s := memory.NewStore()
	modelID := gofakeit.UUID()
	itemID := gofakeit.UUID()
	modelBuf, itemBuf := []byte(modelID), []byte(itemID)

	require.NoError(t, s.Run(ctx, func(ctx context.Context, uow reservation.UnitOfWork) error {
		if err := uow.Models().Create(ctx, &entity.AssetModel{ID: borrowedID(modelBuf), Type: "laptop"}); err != nil {
			return err
		}
		return uow.Items().Create(ctx, &entity.AssetItem{ID: borrowedID(itemBuf), ModelID: borrowedID(modelBuf), Status: entity.AssetStatusInStock})
	}))
	require.NoError(t, s.Run(ctx, func(ctx context.Context, uow reservation.UnitOfWork) error {
		ok, err := uow.Items().TransitionStatus(ctx, borrowedID(itemBuf), entity.AssetStatusRepair, entity.AssetStatusInStock)
		require.True(t, ok)
		return err
	}))

	// el buffer se recicla para otra petición
	copy(modelBuf, gofakeit.UUID())
	copy(itemBuf, gofakeit.UUID())

	require.NoError(t, s.Run(ctx, func(ctx context.Context, uow reservation.UnitOfWork) error {
		model, err := uow.Models().GetByID(ctx, modelID)
		require.NoError(t, err)
		require.NotNil(t, model)
		assert.Equal(t, modelID, model.ID)

		item, err := uow.Items().GetByID(ctx, itemID)
		require.NoError(t, err)
		require.NotNil(t, item)
		assert.Equal(t, itemID, item.ID)
		assert.Equal(t, modelID, item.ModelID)
		assert.Equal(t, entity.AssetStatusRepair, item.Status)

		items, err := uow.Items().ListByModel(ctx, modelID)
		require.NoError(t, err)
		assert.Len(t, items, 1)
		return nil
	}))
}

func TestLoanLines_PositionsAndOpenAssetGuard(t *testing.T) {
	s := memory.NewStore()
	loanA, loanB := gofakeit.UUID(), gofakeit.UUID()
	asset := gofakeit.UUID()
	now := time.Now()

	require.NoError(t, s.Run(ctx, func(ctx context.Context, uow reservation.UnitOfWork) error {
		loans := uow.Loans()
		require.NoError(t, loans.Create(ctx, &entity.Loan{ID: loanA, Status: entity.LoanStatusOpen, CreatedAt: now}))
		require.NoError(t, loans.Create(ctx, &entity.Loan{ID: loanB, Status: entity.LoanStatusOpen, CreatedAt: now.Add(time.Second)}))

		first := &entity.LoanLine{ID: gofakeit.UUID(), LoanID: loanA, Target: entity.AssetTarget{AssetItemID: asset}}
		require.NoError(t, loans.AddLine(ctx, first))
		assert.Equal(t, 1, first.Position)

		second := &entity.LoanLine{ID: gofakeit.UUID(), LoanID: loanA, Target: entity.StockTarget{StockItemID: gofakeit.UUID(), Qty: 2}}
		require.NoError(t, loans.AddLine(ctx, second))
		assert.Equal(t, 2, second.Position)

		dup := &entity.LoanLine{ID: gofakeit.UUID(), LoanID: loanB, Target: entity.AssetTarget{AssetItemID: asset}}
		assert.ErrorIs(t, loans.AddLine(ctx, dup), domain.ErrAssetAlreadyLoaned)

		ok, err := loans.MarkLineReturned(ctx, first.ID, now)
		require.NoError(t, err)
		assert.True(t, ok)
		ok, err = loans.MarkLineReturned(ctx, first.ID, now)
		require.NoError(t, err)
		assert.False(t, ok, "segunda devolución no cambia nada")

		// devuelto, el equipo puede volver a prestarse
		assert.NoError(t, loans.AddLine(ctx, dup))
		return nil
	}))

	require.NoError(t, s.Run(ctx, func(ctx context.Context, uow reservation.UnitOfWork) error {
		list, err := uow.Loans().List(ctx, repository.LoanFilter{Status: entity.LoanStatusOpen})
		require.NoError(t, err)
		require.Len(t, list, 2)
		assert.Equal(t, loanB, list[0].ID, "más reciente primero")
		assert.Len(t, list[1].Lines, 2)

		paged, err := uow.Loans().List(ctx, repository.LoanFilter{Limit: 1, Offset: 1})
		require.NoError(t, err)
		require.Len(t, paged, 1)
		assert.Equal(t, loanA, paged[0].ID)

		ok, err := uow.Loans().Close(ctx, loanA, now)
		require.NoError(t, err)
		assert.True(t, ok)
		ok, err = uow.Loans().Close(ctx, loanA, now)
		require.NoError(t, err)
		assert.False(t, ok)
		return nil
	}))
}

func TestEmployeeDirectory(t *testing.T) {
	s := memory.NewStore()
	active := &entity.Employee{ID: gofakeit.UUID(), Name: gofakeit.Name(), Active: true}
	inactive := &entity.Employee{ID: gofakeit.UUID(), Name: gofakeit.Name()}
	require.NoError(t, s.Create(ctx, active))
	require.NoError(t, s.Create(ctx, inactive))

	ok, err := s.Exists(ctx, active.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.Exists(ctx, inactive.ID)
	require.NoError(t, err)
	assert.False(t, ok, "un empleado inactivo no puede recibir préstamos")

	got, err := s.GetByID(ctx, gofakeit.UUID())
	require.NoError(t, err)
	assert.Nil(t, got)
}
