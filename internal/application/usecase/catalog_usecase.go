package usecase

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"github.com/jhoicas/prestamos-api/internal/application/dto"
	"github.com/jhoicas/prestamos-api/internal/application/reservation"
	"github.com/jhoicas/prestamos-api/internal/domain"
	"github.com/jhoicas/prestamos-api/internal/domain/entity"
	"github.com/jhoicas/prestamos-api/internal/domain/repository"
)

// CatalogUseCase casos de uso del catálogo: modelos, equipos, stock y empleados.
// Las mutaciones que compiten con las reservas (borrado, estados, ajuste de cantidad)
// se delegan al motor.
type CatalogUseCase struct {
	tx        reservation.TxRunner
	engine    *reservation.Engine
	employees repository.EmployeeRepository
}

// NewCatalogUseCase construye el caso de uso.
func NewCatalogUseCase(tx reservation.TxRunner, engine *reservation.Engine, employees repository.EmployeeRepository) *CatalogUseCase {
	return &CatalogUseCase{tx: tx, engine: engine, employees: employees}
}

// CreateModel crea un modelo de equipo.
func (uc *CatalogUseCase) CreateModel(ctx context.Context, in dto.CreateAssetModelRequest) (*dto.AssetModelResponse, error) {
	in.Type, in.Brand, in.Name = strings.TrimSpace(in.Type), strings.TrimSpace(in.Brand), strings.TrimSpace(in.Name)
	if in.Type == "" || in.Brand == "" || in.Name == "" {
		return nil, domain.InvalidArgument("type, brand y name son obligatorios")
	}
	now := time.Now().UTC()
	model := &entity.AssetModel{
		ID:        uuid.New().String(),
		Type:      in.Type,
		Brand:     in.Brand,
		Name:      in.Name,
		CreatedAt: now,
		UpdatedAt: now,
	}
	err := uc.tx.Run(ctx, func(ctx context.Context, uow reservation.UnitOfWork) error {
		return uow.Models().Create(ctx, model)
	})
	if err != nil {
		return nil, err
	}
	out := toAssetModelResponse(&entity.AssetModelSummary{AssetModel: *model})
	return &out, nil
}

// GetModel obtiene un modelo con sus equipos y stocks.
func (uc *CatalogUseCase) GetModel(ctx context.Context, id string) (*dto.AssetModelDetailResponse, error) {
	var (
		model *entity.AssetModel
		items []*entity.AssetItem
		stock []*entity.StockItem
	)
	err := uc.tx.Run(ctx, func(ctx context.Context, uow reservation.UnitOfWork) (err error) {
		if model, err = uow.Models().GetByID(ctx, id); err != nil {
			return err
		}
		if model == nil {
			return domain.ErrAssetModelNotFound
		}
		if items, err = uow.Items().ListByModel(ctx, id); err != nil {
			return err
		}
		stock, err = uow.Stock().ListByModel(ctx, id)
		return err
	})
	if err != nil {
		return nil, err
	}

	sum := &entity.AssetModelSummary{AssetModel: *model, ItemCount: len(items)}
	sum.LoanedItems = lo.CountBy(items, func(it *entity.AssetItem) bool { return it.Status == entity.AssetStatusLoaned })
	sum.StockQuantity = lo.SumBy(stock, func(s *entity.StockItem) int { return s.Quantity })
	sum.StockLoaned = lo.SumBy(stock, func(s *entity.StockItem) int { return s.Loaned })

	return &dto.AssetModelDetailResponse{
		AssetModelResponse: toAssetModelResponse(sum),
		Items:              lo.Map(items, func(it *entity.AssetItem, _ int) dto.AssetItemResponse { return toAssetItemResponse(it) }),
		Stock:              lo.Map(stock, func(s *entity.StockItem, _ int) dto.StockItemResponse { return toStockItemResponse(s) }),
	}, nil
}

// ListModels lista modelos con filtros y paginación.
func (uc *CatalogUseCase) ListModels(ctx context.Context, in dto.AssetModelListRequest) (*dto.AssetModelListResponse, error) {
	in.DefaultPage()
	var list []*entity.AssetModelSummary
	err := uc.tx.Run(ctx, func(ctx context.Context, uow reservation.UnitOfWork) (err error) {
		list, err = uow.Models().List(ctx, repository.AssetModelFilter{
			Type: in.Type, Brand: in.Brand, Limit: in.Limit, Offset: in.Offset,
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	return &dto.AssetModelListResponse{
		Items: lo.Map(list, func(s *entity.AssetModelSummary, _ int) dto.AssetModelResponse { return toAssetModelResponse(s) }),
		Page:  dto.PageResponse{Limit: in.Limit, Offset: in.Offset},
	}, nil
}

// CreateItem registra un equipo identificado bajo un modelo; nace EN_STOCK.
func (uc *CatalogUseCase) CreateItem(ctx context.Context, modelID string, in dto.CreateAssetItemRequest) (*dto.AssetItemResponse, error) {
	now := time.Now().UTC()
	item := &entity.AssetItem{
		ID:        uuid.New().String(),
		ModelID:   modelID,
		Serial:    strings.TrimSpace(in.Serial),
		Tag:       strings.TrimSpace(in.Tag),
		Notes:     in.Notes,
		Status:    entity.AssetStatusInStock,
		CreatedAt: now,
		UpdatedAt: now,
	}
	err := uc.tx.Run(ctx, func(ctx context.Context, uow reservation.UnitOfWork) error {
		model, err := uow.Models().GetByID(ctx, modelID)
		if err != nil {
			return err
		}
		if model == nil {
			return domain.ErrAssetModelNotFound
		}
		return uow.Items().Create(ctx, item)
	})
	if err != nil {
		return nil, err
	}
	out := toAssetItemResponse(item)
	return &out, nil
}

// CreateStock crea un stock fungible bajo un modelo con loaned = 0.
func (uc *CatalogUseCase) CreateStock(ctx context.Context, modelID string, in dto.CreateStockItemRequest) (*dto.StockItemResponse, error) {
	if in.Quantity < 0 {
		return nil, domain.ErrInvalidQuantity
	}
	now := time.Now().UTC()
	stock := &entity.StockItem{
		ID:        uuid.New().String(),
		ModelID:   modelID,
		Quantity:  in.Quantity,
		CreatedAt: now,
		UpdatedAt: now,
	}
	err := uc.tx.Run(ctx, func(ctx context.Context, uow reservation.UnitOfWork) error {
		model, err := uow.Models().GetByID(ctx, modelID)
		if err != nil {
			return err
		}
		if model == nil {
			return domain.ErrAssetModelNotFound
		}
		return uow.Stock().Create(ctx, stock)
	})
	if err != nil {
		return nil, err
	}
	out := toStockItemResponse(stock)
	return &out, nil
}

// GetItem obtiene un equipo.
func (uc *CatalogUseCase) GetItem(ctx context.Context, id string) (*dto.AssetItemResponse, error) {
	var item *entity.AssetItem
	err := uc.tx.Run(ctx, func(ctx context.Context, uow reservation.UnitOfWork) (err error) {
		item, err = uow.Items().GetByID(ctx, id)
		if err == nil && item == nil {
			err = domain.ErrAssetItemNotFound
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	out := toAssetItemResponse(item)
	return &out, nil
}

// GetStock obtiene un stock con su disponible.
func (uc *CatalogUseCase) GetStock(ctx context.Context, id string) (*dto.StockItemResponse, error) {
	var stock *entity.StockItem
	err := uc.tx.Run(ctx, func(ctx context.Context, uow reservation.UnitOfWork) (err error) {
		stock, err = uow.Stock().GetByID(ctx, id)
		if err == nil && stock == nil {
			err = domain.ErrStockItemNotFound
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	out := toStockItemResponse(stock)
	return &out, nil
}

// DeleteModel elimina un modelo sin préstamos activos.
func (uc *CatalogUseCase) DeleteModel(ctx context.Context, actorID, id string) error {
	return uc.engine.DeleteAssetModel(ctx, actorID, id)
}

// SetItemStatus EN_STOCK devuelve el equipo al servicio; HS o REPARATION lo pasan a mantenimiento.
// PRETE solo se alcanza agregando el equipo a un préstamo.
func (uc *CatalogUseCase) SetItemStatus(ctx context.Context, actorID, id string, in dto.UpdateAssetStatusRequest) (*dto.AssetItemResponse, error) {
	status, err := entity.ParseAssetStatus(strings.ToUpper(strings.TrimSpace(in.Status)))
	if err != nil {
		return nil, err
	}
	var item *entity.AssetItem
	switch {
	case status == entity.AssetStatusInStock:
		item, err = uc.engine.ReturnToService(ctx, actorID, id)
	case status.IsMaintenance():
		item, err = uc.engine.SetMaintenanceStatus(ctx, actorID, id, status)
	default:
		return nil, domain.ErrInvalidStatus
	}
	if err != nil {
		return nil, err
	}
	out := toAssetItemResponse(item)
	return &out, nil
}

// AdjustStock fija la cantidad total de un stock.
func (uc *CatalogUseCase) AdjustStock(ctx context.Context, actorID, id string, in dto.AdjustStockQuantityRequest) (*dto.StockItemResponse, error) {
	stock, err := uc.engine.AdjustStockQuantity(ctx, actorID, id, in.Quantity)
	if err != nil {
		return nil, err
	}
	out := toStockItemResponse(stock)
	return &out, nil
}

// CreateEmployee registra un empleado activo en el directorio local.
func (uc *CatalogUseCase) CreateEmployee(ctx context.Context, in dto.CreateEmployeeRequest) (*dto.EmployeeResponse, error) {
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		return nil, domain.InvalidArgument("name es obligatorio")
	}
	e := &entity.Employee{
		ID:        uuid.New().String(),
		Name:      in.Name,
		Email:     strings.TrimSpace(in.Email),
		Active:    true,
		CreatedAt: time.Now().UTC(),
	}
	if err := uc.employees.Create(ctx, e); err != nil {
		return nil, err
	}
	return &dto.EmployeeResponse{ID: e.ID, Name: e.Name, Email: e.Email, Active: e.Active, CreatedAt: e.CreatedAt}, nil
}

func toAssetModelResponse(s *entity.AssetModelSummary) dto.AssetModelResponse {
	return dto.AssetModelResponse{
		ID:            s.ID,
		Type:          s.Type,
		Brand:         s.Brand,
		Name:          s.Name,
		ItemCount:     s.ItemCount,
		LoanedItems:   s.LoanedItems,
		StockQuantity: s.StockQuantity,
		StockLoaned:   s.StockLoaned,
		CreatedAt:     s.CreatedAt,
		UpdatedAt:     s.UpdatedAt,
	}
}

func toAssetItemResponse(it *entity.AssetItem) dto.AssetItemResponse {
	return dto.AssetItemResponse{
		ID:        it.ID,
		ModelID:   it.ModelID,
		Serial:    it.Serial,
		Tag:       it.Tag,
		Notes:     it.Notes,
		Status:    string(it.Status),
		CreatedAt: it.CreatedAt,
		UpdatedAt: it.UpdatedAt,
	}
}

func toStockItemResponse(s *entity.StockItem) dto.StockItemResponse {
	return dto.StockItemResponse{
		ID:        s.ID,
		ModelID:   s.ModelID,
		Quantity:  s.Quantity,
		Loaned:    s.Loaned,
		Available: s.Available(),
		CreatedAt: s.CreatedAt,
		UpdatedAt: s.UpdatedAt,
	}
}
