package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/prestamos-api/internal/application/dto"
	"github.com/jhoicas/prestamos-api/internal/application/usecase"
)

// LoanHandler maneja las peticiones HTTP de préstamos (protegido).
type LoanHandler struct {
	uc *usecase.LoanUseCase
}

// NewLoanHandler construye el handler.
func NewLoanHandler(uc *usecase.LoanUseCase) *LoanHandler {
	return &LoanHandler{uc: uc}
}

// Open godoc
// @Summary      Abrir préstamo
// @Tags         loans
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.OpenLoanRequest  true  "Empleado"
// @Success      201   {object}  dto.LoanResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/loans [post]
func (h *LoanHandler) Open(c *fiber.Ctx) error {
	var in dto.OpenLoanRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	out, err := h.uc.Open(c.UserContext(), GetUserID(c), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// List godoc
// @Summary      Listar préstamos
// @Tags         loans
// @Security     Bearer
// @Produce      json
// @Param        employee_id  query  string  false  "Empleado"
// @Param        status       query  string  false  "OPEN | CLOSED"
// @Param        limit        query  int     false  "Límite"  default(20)
// @Param        offset       query  int     false  "Offset"  default(0)
// @Success      200  {object}  dto.LoanListResponse
// @Router       /api/loans [get]
func (h *LoanHandler) List(c *fiber.Ctx) error {
	var in dto.LoanListRequest
	if err := c.QueryParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_QUERY", Message: "parámetros inválidos"})
	}
	out, err := h.uc.List(c.UserContext(), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// GetByID godoc
// @Summary      Obtener préstamo con sus líneas
// @Tags         loans
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID del préstamo"
// @Success      200  {object}  dto.LoanResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/loans/{id} [get]
func (h *LoanHandler) GetByID(c *fiber.Ctx) error {
	out, err := h.uc.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Receipt godoc
// @Summary      Comprobante PDF del préstamo
// @Tags         loans
// @Security     Bearer
// @Produce      application/pdf
// @Param        id   path  string  true  "ID del préstamo"
// @Success      200  {file}  binary
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/loans/{id}/receipt [get]
func (h *LoanHandler) Receipt(c *fiber.Ctx) error {
	id := c.Params("id")
	pdf, err := h.uc.Receipt(c.UserContext(), id)
	if err != nil {
		return writeError(c, err)
	}
	c.Set(fiber.HeaderContentType, "application/pdf")
	c.Set(fiber.HeaderContentDisposition, `inline; filename="prestamo-`+id+`.pdf"`)
	return c.Send(pdf)
}

// AddLine godoc
// @Summary      Agregar línea (equipo o stock)
// @Tags         loans
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string              true  "ID del préstamo"
// @Param        body  body  dto.AddLineRequest  true  "Destino"
// @Success      201   {object}  dto.LoanLineResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/loans/{id}/lines [post]
func (h *LoanHandler) AddLine(c *fiber.Ctx) error {
	var in dto.AddLineRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	out, err := h.uc.AddLine(c.UserContext(), GetUserID(c), c.Params("id"), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// ReturnLine godoc
// @Summary      Devolver línea
// @Tags         loans
// @Security     Bearer
// @Produce      json
// @Param        lineId  path  string  true  "ID de la línea"
// @Success      200     {object}  dto.LoanLineResponse
// @Failure      404     {object}  dto.ErrorResponse
// @Router       /api/loans/lines/{lineId}/return [post]
func (h *LoanHandler) ReturnLine(c *fiber.Ctx) error {
	out, err := h.uc.ReturnLine(c.UserContext(), GetUserID(c), c.Params("lineId"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Close godoc
// @Summary      Cerrar préstamo
// @Tags         loans
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID del préstamo"
// @Success      200  {object}  dto.LoanResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/loans/{id}/close [post]
func (h *LoanHandler) Close(c *fiber.Ctx) error {
	out, err := h.uc.Close(c.UserContext(), GetUserID(c), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// ForceReturn godoc
// @Summary      Devolver todo y cerrar (admin)
// @Tags         loans
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID del préstamo"
// @Success      200  {object}  dto.LoanResponse
// @Router       /api/loans/{id}/force-return [post]
func (h *LoanHandler) ForceReturn(c *fiber.Ctx) error {
	out, err := h.uc.ForceReturn(c.UserContext(), GetUserID(c), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// BatchClose godoc
// @Summary      Cerrar varios préstamos (admin)
// @Tags         loans
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.BatchCloseRequest  true  "IDs"
// @Success      200   {object}  dto.BatchCloseResponse
// @Router       /api/loans/batch-close [post]
func (h *LoanHandler) BatchClose(c *fiber.Ctx) error {
	var in dto.BatchCloseRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	out, err := h.uc.BatchClose(c.UserContext(), GetUserID(c), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// AttachSignature godoc
// @Summary      Adjuntar firma de retiro o devolución
// @Tags         loans
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                true  "ID del préstamo"
// @Param        body  body  dto.SignatureRequest  true  "Firma"
// @Success      200   {object}  dto.LoanResponse
// @Router       /api/loans/{id}/signatures [put]
func (h *LoanHandler) AttachSignature(c *fiber.Ctx) error {
	var in dto.SignatureRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	out, err := h.uc.AttachSignature(c.UserContext(), GetUserID(c), c.Params("id"), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}
