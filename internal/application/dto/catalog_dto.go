package dto

import "time"

// CreateAssetModelRequest entrada para crear un modelo de equipo.
type CreateAssetModelRequest struct {
	Type  string `json:"type"`
	Brand string `json:"brand"`
	Name  string `json:"name"`
}

// AssetModelListRequest filtros de GET /api/models.
type AssetModelListRequest struct {
	PageRequest
	Type  string `query:"type"`
	Brand string `query:"brand"`
}

// AssetModelResponse salida de un modelo con sus totales.
type AssetModelResponse struct {
	ID            string    `json:"id"`
	Type          string    `json:"type"`
	Brand         string    `json:"brand"`
	Name          string    `json:"name"`
	ItemCount     int       `json:"item_count"`
	LoanedItems   int       `json:"loaned_items"`
	StockQuantity int       `json:"stock_quantity"`
	StockLoaned   int       `json:"stock_loaned"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// AssetModelDetailResponse modelo con sus equipos y stocks.
type AssetModelDetailResponse struct {
	AssetModelResponse
	Items []AssetItemResponse `json:"items"`
	Stock []StockItemResponse `json:"stock"`
}

// AssetModelListResponse lista paginada de modelos.
type AssetModelListResponse struct {
	Items []AssetModelResponse `json:"items"`
	Page  PageResponse         `json:"page"`
}

// CreateAssetItemRequest entrada para registrar un equipo identificado.
type CreateAssetItemRequest struct {
	Serial string `json:"serial"`
	Tag    string `json:"tag"`
	Notes  string `json:"notes"`
}

// AssetItemResponse salida de un equipo.
type AssetItemResponse struct {
	ID        string    `json:"id"`
	ModelID   string    `json:"model_id"`
	Serial    string    `json:"serial,omitempty"`
	Tag       string    `json:"tag,omitempty"`
	Notes     string    `json:"notes,omitempty"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// UpdateAssetStatusRequest entrada de PUT /api/items/:id/status.
// EN_STOCK devuelve el equipo al servicio; HS o REPARATION lo pasan a mantenimiento.
type UpdateAssetStatusRequest struct {
	Status string `json:"status"`
}

// CreateStockItemRequest entrada para crear un stock bajo un modelo.
type CreateStockItemRequest struct {
	Quantity int `json:"quantity"`
}

// AdjustStockQuantityRequest entrada de PUT /api/stock/:id/quantity.
type AdjustStockQuantityRequest struct {
	Quantity int `json:"quantity"`
}

// StockItemResponse salida de un stock con su disponible.
type StockItemResponse struct {
	ID        string    `json:"id"`
	ModelID   string    `json:"model_id"`
	Quantity  int       `json:"quantity"`
	Loaned    int       `json:"loaned"`
	Available int       `json:"available"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CreateEmployeeRequest entrada para registrar un empleado en el directorio local.
type CreateEmployeeRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// EmployeeResponse salida de un empleado.
type EmployeeResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
}
