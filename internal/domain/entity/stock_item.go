package entity

import "time"

// StockItem pool fungible por modelo. Invariante: 0 <= Loaned <= Quantity.
type StockItem struct {
	ID        string
	ModelID   string
	Quantity  int // total propiedad de la empresa
	Loaned    int // actualmente prestado
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Available cantidad disponible para prestar.
func (s StockItem) Available() int {
	return s.Quantity - s.Loaned
}
