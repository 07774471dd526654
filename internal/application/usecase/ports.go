package usecase

import (
	"context"
	"time"
)

// LoanReceipt datos de un préstamo listos para renderizar el comprobante.
type LoanReceipt struct {
	LoanID          string
	Status          string
	EmployeeID      string
	EmployeeName    string
	OpenedBy        string
	PickupSignature string
	ReturnSignature string
	CreatedAt       time.Time
	ClosedAt        *time.Time
	Lines           []ReceiptLine
}

// ReceiptLine una línea del comprobante con su descripción resuelta desde el catálogo.
type ReceiptLine struct {
	Position    int
	Kind        string
	Description string
	Quantity    int
	ReturnedAt  *time.Time
}

// ReceiptRenderer genera el documento del comprobante (implementado en infrastructure/pdf).
type ReceiptRenderer interface {
	RenderLoanReceipt(ctx context.Context, receipt *LoanReceipt) ([]byte, error)
}
