package entity

import (
	"time"

	"github.com/jhoicas/prestamos-api/internal/domain"
)

// AssetStatus estado del ciclo de vida de un equipo identificado.
type AssetStatus string

// Estados válidos de AssetItem.
const (
	AssetStatusInStock    AssetStatus = "EN_STOCK"
	AssetStatusLoaned     AssetStatus = "PRETE"
	AssetStatusOutOfOrder AssetStatus = "HS"
	AssetStatusRepair     AssetStatus = "REPARATION"
)

// ParseAssetStatus valida un estado recibido desde fuera del dominio.
func ParseAssetStatus(s string) (AssetStatus, error) {
	switch st := AssetStatus(s); st {
	case AssetStatusInStock, AssetStatusLoaned, AssetStatusOutOfOrder, AssetStatusRepair:
		return st, nil
	}
	return "", domain.ErrInvalidStatus
}

// IsMaintenance indica si el estado corresponde a mantenimiento (HS o REPARATION).
func (s AssetStatus) IsMaintenance() bool {
	return s == AssetStatusOutOfOrder || s == AssetStatusRepair
}

// AssetItem una unidad física identificable de un modelo.
type AssetItem struct {
	ID        string
	ModelID   string
	Serial    string // opcional
	Tag       string // etiqueta de inventario, opcional
	Notes     string
	Status    AssetStatus
	CreatedAt time.Time
	UpdatedAt time.Time
}
