package reservation_test

import (
	"context"
	"testing"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/prestamos-api/internal/application/reservation"
	"github.com/jhoicas/prestamos-api/internal/domain/entity"
	"github.com/jhoicas/prestamos-api/internal/infrastructure/memory"
)

type recordingAudit struct {
	entries chan entity.AuditEntry
}

func (r *recordingAudit) Notify(_ context.Context, e entity.AuditEntry) { r.entries <- e }

func (r *recordingAudit) ops() []string {
	var ops []string
	for {
		select {
		case e := <-r.entries:
			ops = append(ops, e.Operation)
		default:
			return ops
		}
	}
}

type fixture struct {
	store    *memory.Store
	engine   *reservation.Engine
	audit    *recordingAudit
	employee string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memory.NewStore()
	audit := &recordingAudit{entries: make(chan entity.AuditEntry, 1024)}
	cfg := reservation.DefaultConfig()
	cfg.InitialBackoff = time.Millisecond
	cfg.MaxBackoff = 5 * time.Millisecond

	f := &fixture{
		store:  store,
		engine: reservation.NewEngine(store, store, audit, cfg, zerolog.Nop()),
		audit:  audit,
	}
	f.employee = f.addEmployee(t, true)
	return f
}

func (f *fixture) addEmployee(t *testing.T, active bool) string {
	t.Helper()
	e := &entity.Employee{ID: gofakeit.UUID(), Name: gofakeit.Name(), Email: gofakeit.Email(), Active: active, CreatedAt: time.Now()}
	require.NoError(t, f.store.Create(context.Background(), e))
	return e.ID
}

func (f *fixture) addModel(t *testing.T) string {
	t.Helper()
	m := &entity.AssetModel{ID: gofakeit.UUID(), Type: "laptop", Brand: gofakeit.Company(), Name: gofakeit.ProductName()}
	require.NoError(t, f.store.Run(context.Background(), func(ctx context.Context, uow reservation.UnitOfWork) error {
		return uow.Models().Create(context.Background(), m)
	}))
	return m.ID
}

func (f *fixture) addItem(t *testing.T, modelID string) string {
	t.Helper()
	it := &entity.AssetItem{ID: gofakeit.UUID(), ModelID: modelID, Serial: gofakeit.UUID(), Status: entity.AssetStatusInStock}
	require.NoError(t, f.store.Run(context.Background(), func(ctx context.Context, uow reservation.UnitOfWork) error {
		return uow.Items().Create(context.Background(), it)
	}))
	return it.ID
}

func (f *fixture) addStock(t *testing.T, modelID string, quantity int) string {
	t.Helper()
	s := &entity.StockItem{ID: gofakeit.UUID(), ModelID: modelID, Quantity: quantity}
	require.NoError(t, f.store.Run(context.Background(), func(ctx context.Context, uow reservation.UnitOfWork) error {
		return uow.Stock().Create(context.Background(), s)
	}))
	return s.ID
}

func (f *fixture) item(t *testing.T, id string) *entity.AssetItem {
	t.Helper()
	var it *entity.AssetItem
	require.NoError(t, f.store.Run(context.Background(), func(ctx context.Context, uow reservation.UnitOfWork) (err error) {
		it, err = uow.Items().GetByID(context.Background(), id)
		return err
	}))
	return it
}

func (f *fixture) stock(t *testing.T, id string) *entity.StockItem {
	t.Helper()
	var s *entity.StockItem
	require.NoError(t, f.store.Run(context.Background(), func(ctx context.Context, uow reservation.UnitOfWork) (err error) {
		s, err = uow.Stock().GetByID(context.Background(), id)
		return err
	}))
	return s
}

func (f *fixture) openLoan(t *testing.T) *entity.Loan {
	t.Helper()
	loan, err := f.engine.OpenLoan(context.Background(), "tecnico", f.employee)
	require.NoError(t, err)
	return loan
}
