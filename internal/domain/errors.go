package domain

import "errors"

// Taxonomía de errores del motor de préstamos (sin dependencias externas).
var (
	ErrNotFound          = errors.New("recurso no encontrado")
	ErrInvalidArgument   = errors.New("argumento inválido")
	ErrInvalidState      = errors.New("operación no permitida en el estado actual")
	ErrConflict          = errors.New("conflicto con el estado actual")
	ErrInsufficientStock = errors.New("stock insuficiente")
	ErrTransientStorage  = errors.New("fallo transitorio de almacenamiento")
)

// Error es un resultado de negocio concreto: se desenvuelve a su categoría de la
// taxonomía y expone un código estable para la capa de presentación.
type Error struct {
	Kind    error
	Code    string
	Message string
}

func (e *Error) Error() string { return e.Message }

func (e *Error) Unwrap() error { return e.Kind }

// Resultados de negocio con código estable.
var (
	ErrAssetModelNotFound = &Error{Kind: ErrNotFound, Code: "ASSET_MODEL_NOT_FOUND", Message: "modelo no encontrado"}
	ErrAssetItemNotFound  = &Error{Kind: ErrNotFound, Code: "ASSET_ITEM_NOT_FOUND", Message: "equipo no encontrado"}
	ErrStockItemNotFound  = &Error{Kind: ErrNotFound, Code: "STOCK_ITEM_NOT_FOUND", Message: "stock no encontrado"}
	ErrLoanNotFound       = &Error{Kind: ErrNotFound, Code: "LOAN_NOT_FOUND", Message: "préstamo no encontrado"}
	ErrLoanLineNotFound   = &Error{Kind: ErrNotFound, Code: "LOAN_LINE_NOT_FOUND", Message: "línea de préstamo no encontrada"}
	ErrEmployeeNotFound   = &Error{Kind: ErrNotFound, Code: "EMPLOYEE_NOT_FOUND", Message: "empleado no encontrado"}

	ErrInvalidQuantity   = &Error{Kind: ErrInvalidArgument, Code: "INVALID_QUANTITY", Message: "la cantidad debe ser un entero positivo"}
	ErrInvalidLineTarget = &Error{Kind: ErrInvalidArgument, Code: "INVALID_LINE_TARGET", Message: "debe indicarse exactamente un equipo o un stock"}
	ErrInvalidStatus     = &Error{Kind: ErrInvalidArgument, Code: "INVALID_STATUS", Message: "estado de equipo inválido"}

	ErrLoanClosed      = &Error{Kind: ErrInvalidState, Code: "LOAN_CLOSED", Message: "el préstamo está cerrado"}
	ErrLoanHasOpenLine = &Error{Kind: ErrInvalidState, Code: "LOAN_HAS_OPEN_LINES", Message: "el préstamo tiene líneas sin devolver"}

	ErrAssetAlreadyLoaned = &Error{Kind: ErrConflict, Code: "ASSET_ALREADY_LOANED", Message: "el equipo no está disponible"}
	ErrAssetOnLoan        = &Error{Kind: ErrConflict, Code: "ASSET_ON_LOAN", Message: "el equipo está prestado, debe devolverse primero"}
	ErrAssetInMaintenance = &Error{Kind: ErrConflict, Code: "ASSET_IN_MAINTENANCE", Message: "el equipo está en mantenimiento"}
	ErrModelHasLoans      = &Error{Kind: ErrConflict, Code: "MODEL_HAS_ACTIVE_LOANS", Message: "el modelo tiene préstamos activos"}
	ErrStockBelowLoaned   = &Error{Kind: ErrConflict, Code: "STOCK_BELOW_LOANED", Message: "la cantidad no puede ser menor a lo prestado"}

	ErrStockExhausted = &Error{Kind: ErrInsufficientStock, Code: "INSUFFICIENT_STOCK", Message: "stock insuficiente"}
)

var kindCodes = []struct {
	kind error
	code string
}{
	{ErrNotFound, "NOT_FOUND"},
	{ErrInvalidArgument, "INVALID_ARGUMENT"},
	{ErrInvalidState, "INVALID_STATE"},
	{ErrConflict, "CONFLICT"},
	{ErrInsufficientStock, "INSUFFICIENT_STOCK"},
	{ErrTransientStorage, "TRANSIENT_STORAGE"},
}

// OutcomeCode devuelve el código estable asociado a cualquier cadena de error.
func OutcomeCode(err error) string {
	if err == nil {
		return "OK"
	}
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	for _, kc := range kindCodes {
		if errors.Is(err, kc.kind) {
			return kc.code
		}
	}
	return "INTERNAL"
}

// IsBusiness indica si el error es un resultado definitivo de negocio (no se reintenta).
func IsBusiness(err error) bool {
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrInvalidArgument) ||
		errors.Is(err, ErrInvalidState) ||
		errors.Is(err, ErrConflict) ||
		errors.Is(err, ErrInsufficientStock)
}

// InvalidArgument construye un error de validación de entrada con mensaje propio.
func InvalidArgument(msg string) *Error {
	return &Error{Kind: ErrInvalidArgument, Code: "INVALID_ARGUMENT", Message: msg}
}
