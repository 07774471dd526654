package entity

import "time"

// AssetModel representa una entrada del catálogo (tipo, marca, modelo).
// Eliminar un modelo elimina en cascada sus equipos y su stock.
type AssetModel struct {
	ID        string
	Type      string // laptop, monitor, cable...
	Brand     string
	Name      string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// AssetModelSummary agrega al modelo el conteo de unidades físicas y de stock.
type AssetModelSummary struct {
	AssetModel
	ItemCount     int
	LoanedItems   int
	StockQuantity int
	StockLoaned   int
}
