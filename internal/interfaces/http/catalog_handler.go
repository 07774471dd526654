package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/prestamos-api/internal/application/dto"
	"github.com/jhoicas/prestamos-api/internal/application/usecase"
)

// CatalogHandler maneja modelos, equipos, stock y empleados (protegido).
type CatalogHandler struct {
	uc *usecase.CatalogUseCase
}

// NewCatalogHandler construye el handler.
func NewCatalogHandler(uc *usecase.CatalogUseCase) *CatalogHandler {
	return &CatalogHandler{uc: uc}
}

// CreateModel godoc
// @Summary      Crear modelo de equipo
// @Tags         catalog
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateAssetModelRequest  true  "Modelo"
// @Success      201   {object}  dto.AssetModelResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Router       /api/models [post]
func (h *CatalogHandler) CreateModel(c *fiber.Ctx) error {
	var in dto.CreateAssetModelRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	out, err := h.uc.CreateModel(c.UserContext(), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// ListModels godoc
// @Summary      Listar modelos
// @Tags         catalog
// @Security     Bearer
// @Produce      json
// @Param        type    query  string  false  "Tipo"
// @Param        brand   query  string  false  "Marca"
// @Param        limit   query  int     false  "Límite"  default(20)
// @Param        offset  query  int     false  "Offset"  default(0)
// @Success      200  {object}  dto.AssetModelListResponse
// @Router       /api/models [get]
func (h *CatalogHandler) ListModels(c *fiber.Ctx) error {
	var in dto.AssetModelListRequest
	if err := c.QueryParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_QUERY", Message: "parámetros inválidos"})
	}
	out, err := h.uc.ListModels(c.UserContext(), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// GetModel godoc
// @Summary      Obtener modelo con equipos y stock
// @Tags         catalog
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID del modelo"
// @Success      200  {object}  dto.AssetModelDetailResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/models/{id} [get]
func (h *CatalogHandler) GetModel(c *fiber.Ctx) error {
	out, err := h.uc.GetModel(c.UserContext(), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// DeleteModel godoc
// @Summary      Eliminar modelo (cascada a equipos y stock)
// @Tags         catalog
// @Security     Bearer
// @Param        id   path  string  true  "ID del modelo"
// @Success      204
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/models/{id} [delete]
func (h *CatalogHandler) DeleteModel(c *fiber.Ctx) error {
	if err := h.uc.DeleteModel(c.UserContext(), GetUserID(c), c.Params("id")); err != nil {
		return writeError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// CreateItem godoc
// @Summary      Registrar equipo bajo un modelo
// @Tags         catalog
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                      true  "ID del modelo"
// @Param        body  body  dto.CreateAssetItemRequest  true  "Equipo"
// @Success      201   {object}  dto.AssetItemResponse
// @Router       /api/models/{id}/items [post]
func (h *CatalogHandler) CreateItem(c *fiber.Ctx) error {
	var in dto.CreateAssetItemRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	out, err := h.uc.CreateItem(c.UserContext(), c.Params("id"), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// CreateStock godoc
// @Summary      Crear stock bajo un modelo
// @Tags         catalog
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                      true  "ID del modelo"
// @Param        body  body  dto.CreateStockItemRequest  true  "Cantidad"
// @Success      201   {object}  dto.StockItemResponse
// @Router       /api/models/{id}/stock [post]
func (h *CatalogHandler) CreateStock(c *fiber.Ctx) error {
	var in dto.CreateStockItemRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	out, err := h.uc.CreateStock(c.UserContext(), c.Params("id"), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// GetItem godoc
// @Summary      Obtener equipo
// @Tags         catalog
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID del equipo"
// @Success      200  {object}  dto.AssetItemResponse
// @Router       /api/items/{id} [get]
func (h *CatalogHandler) GetItem(c *fiber.Ctx) error {
	out, err := h.uc.GetItem(c.UserContext(), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// UpdateItemStatus godoc
// @Summary      Pasar equipo a mantenimiento o devolverlo al servicio
// @Tags         catalog
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                        true  "ID del equipo"
// @Param        body  body  dto.UpdateAssetStatusRequest  true  "EN_STOCK | HS | REPARATION"
// @Success      200   {object}  dto.AssetItemResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/items/{id}/status [put]
func (h *CatalogHandler) UpdateItemStatus(c *fiber.Ctx) error {
	var in dto.UpdateAssetStatusRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	out, err := h.uc.SetItemStatus(c.UserContext(), GetUserID(c), c.Params("id"), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// GetStock godoc
// @Summary      Obtener stock con disponible
// @Tags         catalog
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID del stock"
// @Success      200  {object}  dto.StockItemResponse
// @Router       /api/stock/{id} [get]
func (h *CatalogHandler) GetStock(c *fiber.Ctx) error {
	out, err := h.uc.GetStock(c.UserContext(), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// AdjustStock godoc
// @Summary      Ajustar cantidad total de un stock
// @Tags         catalog
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                          true  "ID del stock"
// @Param        body  body  dto.AdjustStockQuantityRequest  true  "Cantidad"
// @Success      200   {object}  dto.StockItemResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/stock/{id}/quantity [put]
func (h *CatalogHandler) AdjustStock(c *fiber.Ctx) error {
	var in dto.AdjustStockQuantityRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	out, err := h.uc.AdjustStock(c.UserContext(), GetUserID(c), c.Params("id"), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// CreateEmployee godoc
// @Summary      Registrar empleado
// @Tags         catalog
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateEmployeeRequest  true  "Empleado"
// @Success      201   {object}  dto.EmployeeResponse
// @Router       /api/employees [post]
func (h *CatalogHandler) CreateEmployee(c *fiber.Ctx) error {
	var in dto.CreateEmployeeRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	out, err := h.uc.CreateEmployee(c.UserContext(), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}
