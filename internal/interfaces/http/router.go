package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/prestamos-api/internal/application/usecase"
	"github.com/jhoicas/prestamos-api/pkg/jwt"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	LoanUC    *usecase.LoanUseCase
	CatalogUC *usecase.CatalogUseCase
	JWTSecret string
}

// Router registra las rutas de la API. Todo /api exige Bearer Token.
func Router(app *fiber.App, deps RouterDeps) {
	api := app.Group("/api", AuthMiddleware(deps.JWTSecret))

	operators := RequireRole(jwt.RoleAdmin, jwt.RoleTecnico)
	admin := RequireRole(jwt.RoleAdmin)

	// Préstamos
	loans := api.Group("/loans")
	loanHandler := NewLoanHandler(deps.LoanUC)
	loans.Post("/", operators, loanHandler.Open)
	loans.Get("/", loanHandler.List)
	loans.Post("/batch-close", admin, loanHandler.BatchClose)
	loans.Post("/lines/:lineId/return", operators, loanHandler.ReturnLine)
	loans.Get("/:id", loanHandler.GetByID)
	loans.Get("/:id/receipt", loanHandler.Receipt)
	loans.Post("/:id/lines", operators, loanHandler.AddLine)
	loans.Post("/:id/close", operators, loanHandler.Close)
	loans.Post("/:id/force-return", admin, loanHandler.ForceReturn)
	loans.Put("/:id/signatures", operators, loanHandler.AttachSignature)

	// Catálogo
	catalogHandler := NewCatalogHandler(deps.CatalogUC)
	models := api.Group("/models")
	models.Post("/", admin, catalogHandler.CreateModel)
	models.Get("/", catalogHandler.ListModels)
	models.Get("/:id", catalogHandler.GetModel)
	models.Delete("/:id", admin, catalogHandler.DeleteModel)
	models.Post("/:id/items", admin, catalogHandler.CreateItem)
	models.Post("/:id/stock", admin, catalogHandler.CreateStock)

	api.Get("/items/:id", catalogHandler.GetItem)
	api.Put("/items/:id/status", operators, catalogHandler.UpdateItemStatus)
	api.Get("/stock/:id", catalogHandler.GetStock)
	api.Put("/stock/:id/quantity", admin, catalogHandler.AdjustStock)

	api.Post("/employees", admin, catalogHandler.CreateEmployee)
}
