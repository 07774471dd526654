package usecase_test

import (
	"context"
	"testing"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/prestamos-api/internal/application/dto"
	"github.com/jhoicas/prestamos-api/internal/application/reservation"
	"github.com/jhoicas/prestamos-api/internal/application/usecase"
	"github.com/jhoicas/prestamos-api/internal/domain"
	"github.com/jhoicas/prestamos-api/internal/infrastructure/memory"
)

var ctx = context.Background()

// captureRenderer guarda el último comprobante recibido.
type captureRenderer struct {
	last *usecase.LoanReceipt
}

func (r *captureRenderer) RenderLoanReceipt(_ context.Context, rc *usecase.LoanReceipt) ([]byte, error) {
	r.last = rc
	return []byte("%PDF-fake"), nil
}

type suite struct {
	loans    *usecase.LoanUseCase
	catalog  *usecase.CatalogUseCase
	renderer *captureRenderer
	employee *dto.EmployeeResponse
}

func newSuite(t *testing.T) *suite {
	t.Helper()
	store := memory.NewStore()
	engine := reservation.NewEngine(store, store, nil, reservation.DefaultConfig(), zerolog.Nop())
	s := &suite{renderer: &captureRenderer{}}
	s.loans = usecase.NewLoanUseCase(engine, store, store, s.renderer)
	s.catalog = usecase.NewCatalogUseCase(store, engine, store)

	var err error
	s.employee, err = s.catalog.CreateEmployee(ctx, dto.CreateEmployeeRequest{Name: gofakeit.Name(), Email: gofakeit.Email()})
	require.NoError(t, err)
	return s
}

func (s *suite) model(t *testing.T) *dto.AssetModelResponse {
	t.Helper()
	m, err := s.catalog.CreateModel(ctx, dto.CreateAssetModelRequest{Type: "laptop", Brand: "Lenovo", Name: "T14"})
	require.NoError(t, err)
	return m
}

func TestAddLine_RequestValidation(t *testing.T) {
	s := newSuite(t)
	loan, err := s.loans.Open(ctx, "tecnico", dto.OpenLoanRequest{EmployeeID: s.employee.ID})
	require.NoError(t, err)

	tests := []struct {
		name string
		in   dto.AddLineRequest
		want error
	}{
		{"sin destino", dto.AddLineRequest{}, domain.ErrInvalidLineTarget},
		{"ambos destinos", dto.AddLineRequest{AssetItemID: "a", StockItemID: "b", Quantity: 1}, domain.ErrInvalidLineTarget},
		{"stock sin cantidad", dto.AddLineRequest{StockItemID: "b"}, domain.ErrInvalidQuantity},
		{"equipo con cantidad", dto.AddLineRequest{AssetItemID: "a", Quantity: 3}, domain.ErrInvalidQuantity},
		{"equipo inexistente", dto.AddLineRequest{AssetItemID: gofakeit.UUID()}, domain.ErrAssetItemNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.loans.AddLine(ctx, "tecnico", loan.ID, tt.in)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestReceipt_DescribesLinesAndSurvivesDeletion(t *testing.T) {
	s := newSuite(t)
	m := s.model(t)
	item, err := s.catalog.CreateItem(ctx, m.ID, dto.CreateAssetItemRequest{Serial: "SN-1", Tag: "INV-0001"})
	require.NoError(t, err)
	stock, err := s.catalog.CreateStock(ctx, m.ID, dto.CreateStockItemRequest{Quantity: 10})
	require.NoError(t, err)

	loan, err := s.loans.Open(ctx, "tecnico", dto.OpenLoanRequest{EmployeeID: s.employee.ID})
	require.NoError(t, err)
	assetLine, err := s.loans.AddLine(ctx, "tecnico", loan.ID, dto.AddLineRequest{AssetItemID: item.ID})
	require.NoError(t, err)
	stockLine, err := s.loans.AddLine(ctx, "tecnico", loan.ID, dto.AddLineRequest{StockItemID: stock.ID, Quantity: 2})
	require.NoError(t, err)

	pdf, err := s.loans.Receipt(ctx, loan.ID)
	require.NoError(t, err)
	assert.NotEmpty(t, pdf)

	rc := s.renderer.last
	require.NotNil(t, rc)
	assert.Equal(t, s.employee.Name, rc.EmployeeName)
	require.Len(t, rc.Lines, 2)
	assert.Equal(t, "laptop Lenovo T14 · INV-0001", rc.Lines[0].Description)
	assert.Equal(t, "laptop Lenovo T14", rc.Lines[1].Description)
	assert.Equal(t, 2, rc.Lines[1].Quantity)

	// devuelto todo, el modelo puede eliminarse; el historial sigue en el comprobante
	_, err = s.loans.ReturnLine(ctx, "tecnico", assetLine.ID)
	require.NoError(t, err)
	_, err = s.loans.ReturnLine(ctx, "tecnico", stockLine.ID)
	require.NoError(t, err)
	require.NoError(t, s.catalog.DeleteModel(ctx, "admin", m.ID))

	_, err = s.loans.Receipt(ctx, loan.ID)
	require.NoError(t, err)
	require.Len(t, s.renderer.last.Lines, 2)
	assert.Equal(t, "(equipo eliminado)", s.renderer.last.Lines[0].Description)
	assert.Equal(t, "(stock eliminado)", s.renderer.last.Lines[1].Description)
	assert.NotNil(t, s.renderer.last.Lines[0].ReturnedAt)
}

func TestBatchClose_Summary(t *testing.T) {
	s := newSuite(t)
	a, err := s.loans.Open(ctx, "tecnico", dto.OpenLoanRequest{EmployeeID: s.employee.ID})
	require.NoError(t, err)

	out, err := s.loans.BatchClose(ctx, "admin", dto.BatchCloseRequest{LoanIDs: []string{a.ID, gofakeit.UUID()}})
	require.NoError(t, err)
	assert.Equal(t, 1, out.Closed)
	assert.Equal(t, 1, out.Failed)
	assert.Equal(t, "OK", out.Results[0].Code)
	require.NotNil(t, out.Results[0].Loan)
	assert.Equal(t, "CLOSED", out.Results[0].Loan.Status)
	assert.Equal(t, "LOAN_NOT_FOUND", out.Results[1].Code)

	_, err = s.loans.BatchClose(ctx, "admin", dto.BatchCloseRequest{LoanIDs: []string{""}})
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)
}

func TestListAndSignatures(t *testing.T) {
	s := newSuite(t)
	loan, err := s.loans.Open(ctx, "tecnico", dto.OpenLoanRequest{EmployeeID: s.employee.ID})
	require.NoError(t, err)

	_, err = s.loans.AttachSignature(ctx, "tecnico", loan.ID, dto.SignatureRequest{Kind: "otro", Reference: "x"})
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)
	got, err := s.loans.AttachSignature(ctx, "tecnico", loan.ID, dto.SignatureRequest{Kind: "pickup", Reference: "sig/1.png"})
	require.NoError(t, err)
	assert.Equal(t, "sig/1.png", got.PickupSignature)

	_, err = s.loans.List(ctx, dto.LoanListRequest{Status: "PENDING"})
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)

	list, err := s.loans.List(ctx, dto.LoanListRequest{Status: "open", EmployeeID: s.employee.ID})
	require.NoError(t, err)
	require.Len(t, list.Items, 1)
	assert.Equal(t, 20, list.Page.Limit)
}
