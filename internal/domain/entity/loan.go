package entity

import (
	"time"

	"github.com/jhoicas/prestamos-api/internal/domain"
)

// LoanStatus estado del préstamo. CLOSED es terminal.
type LoanStatus string

const (
	LoanStatusOpen   LoanStatus = "OPEN"
	LoanStatusClosed LoanStatus = "CLOSED"
)

// SignatureKind tipo de firma adjunta al préstamo.
type SignatureKind string

const (
	SignaturePickup SignatureKind = "PICKUP"
	SignatureReturn SignatureKind = "RETURN"
)

// Loan agregado de un préstamo a un empleado. Es dueño de sus líneas.
type Loan struct {
	ID              string
	EmployeeID      string
	Status          LoanStatus
	OpenedBy        string
	PickupSignature string // referencia opaca del almacenamiento de archivos
	ReturnSignature string
	CreatedAt       time.Time
	ClosedAt        *time.Time
	Lines           []LoanLine
}

// IsOpen indica si aún se pueden agregar líneas.
func (l *Loan) IsOpen() bool { return l.Status == LoanStatusOpen }

// OutstandingLines devuelve las líneas aún no devueltas, en orden.
func (l *Loan) OutstandingLines() []LoanLine {
	var out []LoanLine
	for _, ln := range l.Lines {
		if !ln.Returned() {
			out = append(out, ln)
		}
	}
	return out
}

// LineKind discrimina el destino de una línea.
type LineKind string

const (
	LineKindAsset LineKind = "ASSET"
	LineKindStock LineKind = "STOCK"
)

// LineTarget es el destino de una línea: AssetTarget o StockTarget, nunca ambos.
type LineTarget interface {
	Kind() LineKind
	TargetID() string
	Quantity() int
	isLineTarget()
}

// AssetTarget línea sobre un equipo identificado (cantidad implícita 1).
type AssetTarget struct {
	AssetItemID string
}

func (AssetTarget) Kind() LineKind { return LineKindAsset }

func (t AssetTarget) TargetID() string { return t.AssetItemID }

func (AssetTarget) Quantity() int { return 1 }

func (AssetTarget) isLineTarget() {}

// StockTarget línea sobre una cantidad de un stock.
type StockTarget struct {
	StockItemID string
	Qty         int
}

func (StockTarget) Kind() LineKind { return LineKindStock }

func (t StockTarget) TargetID() string { return t.StockItemID }

func (t StockTarget) Quantity() int { return t.Qty }

func (StockTarget) isLineTarget() {}

// NewLineTarget construye el destino a partir de identificadores opcionales.
// qty se ignora para equipos salvo que sea distinto de 0 y 1.
func NewLineTarget(assetItemID, stockItemID string, qty int) (LineTarget, error) {
	switch {
	case assetItemID != "" && stockItemID != "", assetItemID == "" && stockItemID == "":
		return nil, domain.ErrInvalidLineTarget
	case assetItemID != "":
		if qty != 0 && qty != 1 {
			return nil, domain.ErrInvalidQuantity
		}
		return AssetTarget{AssetItemID: assetItemID}, nil
	default:
		if qty <= 0 {
			return nil, domain.ErrInvalidQuantity
		}
		return StockTarget{StockItemID: stockItemID, Qty: qty}, nil
	}
}

// RestoreLineTarget reconstruye el destino desde su forma persistida.
func RestoreLineTarget(kind LineKind, targetID string, qty int) (LineTarget, error) {
	switch kind {
	case LineKindAsset:
		return AssetTarget{AssetItemID: targetID}, nil
	case LineKindStock:
		return StockTarget{StockItemID: targetID, Qty: qty}, nil
	}
	return nil, domain.ErrInvalidLineTarget
}

// LoanLine una entrada prestada. Una línea devuelta es historial inmutable.
type LoanLine struct {
	ID         string
	LoanID     string
	Position   int
	Target     LineTarget
	CreatedAt  time.Time
	ReturnedAt *time.Time
}

// Returned indica si la línea ya fue resuelta.
func (l LoanLine) Returned() bool { return l.ReturnedAt != nil }
