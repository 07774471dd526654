package dto

import "time"

// OpenLoanRequest entrada de POST /api/loans.
type OpenLoanRequest struct {
	EmployeeID string `json:"employee_id"`
}

// AddLineRequest entrada de POST /api/loans/:id/lines.
// Exactamente uno de AssetItemID o StockItemID; Quantity solo aplica a stock.
type AddLineRequest struct {
	AssetItemID string `json:"asset_item_id"`
	StockItemID string `json:"stock_item_id"`
	Quantity    int    `json:"quantity"`
}

// SignatureRequest entrada de PUT /api/loans/:id/signatures.
type SignatureRequest struct {
	Kind      string `json:"kind"` // PICKUP | RETURN
	Reference string `json:"reference"`
}

// BatchCloseRequest entrada de POST /api/loans/batch-close.
type BatchCloseRequest struct {
	LoanIDs []string `json:"loan_ids"`
}

// LoanListRequest filtros de GET /api/loans.
type LoanListRequest struct {
	PageRequest
	EmployeeID string `query:"employee_id"`
	Status     string `query:"status"`
}

// LoanLineResponse salida de una línea.
type LoanLineResponse struct {
	ID          string     `json:"id"`
	LoanID      string     `json:"loan_id"`
	Position    int        `json:"position"`
	Kind        string     `json:"kind"`
	AssetItemID string     `json:"asset_item_id,omitempty"`
	StockItemID string     `json:"stock_item_id,omitempty"`
	Quantity    int        `json:"quantity"`
	CreatedAt   time.Time  `json:"created_at"`
	ReturnedAt  *time.Time `json:"returned_at,omitempty"`
}

// LoanResponse salida de un préstamo con sus líneas.
type LoanResponse struct {
	ID               string             `json:"id"`
	EmployeeID       string             `json:"employee_id"`
	Status           string             `json:"status"`
	OpenedBy         string             `json:"opened_by,omitempty"`
	PickupSignature  string             `json:"pickup_signature,omitempty"`
	ReturnSignature  string             `json:"return_signature,omitempty"`
	OutstandingLines int                `json:"outstanding_lines"`
	Lines            []LoanLineResponse `json:"lines"`
	CreatedAt        time.Time          `json:"created_at"`
	ClosedAt         *time.Time         `json:"closed_at,omitempty"`
}

// LoanListResponse lista paginada de préstamos.
type LoanListResponse struct {
	Items []LoanResponse `json:"items"`
	Page  PageResponse   `json:"page"`
}

// BatchCloseItem resultado por préstamo de un cierre por lote.
type BatchCloseItem struct {
	LoanID string        `json:"loan_id"`
	Code   string        `json:"code"`
	Error  string        `json:"error,omitempty"`
	Loan   *LoanResponse `json:"loan,omitempty"`
}

// BatchCloseResponse salida de POST /api/loans/batch-close.
type BatchCloseResponse struct {
	Results []BatchCloseItem `json:"results"`
	Closed  int              `json:"closed"`
	Failed  int              `json:"failed"`
}
