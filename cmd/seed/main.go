// seed puebla la base con datos de prueba: empleados, modelos, equipos y stock.
//
// Uso: go run ./cmd/seed [-employees 10] [-models 8] [-items 4] [-stock 20]
// Usa la misma configuración que la API (DATABASE_URL, DB_HOST, ...).
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/rs/zerolog"

	"github.com/jhoicas/prestamos-api/internal/application/dto"
	"github.com/jhoicas/prestamos-api/internal/application/reservation"
	"github.com/jhoicas/prestamos-api/internal/application/usecase"
	"github.com/jhoicas/prestamos-api/internal/infrastructure/postgres"
	"github.com/jhoicas/prestamos-api/pkg/config"
	"github.com/jhoicas/prestamos-api/pkg/logger"
)

var assetTypes = []string{"laptop", "monitor", "teclado", "mouse", "docking", "celular", "diadema"}

func main() {
	employees := flag.Int("employees", 10, "empleados a crear")
	models := flag.Int("models", 8, "modelos a crear")
	items := flag.Int("items", 4, "equipos identificados por modelo")
	stock := flag.Int("stock", 20, "unidades de stock por modelo (0 = sin stock)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "cargar configuración:", err)
		os.Exit(1)
	}
	log := logger.New(logger.Config{Env: cfg.App.Env, Level: cfg.App.LogLevel, Service: "seed"})

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	defer pool.Close()
	if err := postgres.Migrate(ctx, pool); err != nil {
		log.Fatal().Err(err).Msg("migraciones")
	}

	txRunner := postgres.NewTxRunner(pool)
	employeeRepo := postgres.NewEmployeeRepository(pool)
	engine := reservation.NewEngine(txRunner, employeeRepo, nil, reservation.DefaultConfig(), zerolog.Nop())
	catalog := usecase.NewCatalogUseCase(txRunner, engine, employeeRepo)

	for i := 0; i < *employees; i++ {
		if _, err := catalog.CreateEmployee(ctx, dto.CreateEmployeeRequest{
			Name:  gofakeit.Name(),
			Email: gofakeit.Email(),
		}); err != nil {
			log.Fatal().Err(err).Msg("crear empleado")
		}
	}

	for i := 0; i < *models; i++ {
		model, err := catalog.CreateModel(ctx, dto.CreateAssetModelRequest{
			Type:  gofakeit.RandomString(assetTypes),
			Brand: gofakeit.Company(),
			Name:  gofakeit.ProductName(),
		})
		if err != nil {
			log.Fatal().Err(err).Msg("crear modelo")
		}
		for j := 0; j < *items; j++ {
			if _, err := catalog.CreateItem(ctx, model.ID, dto.CreateAssetItemRequest{
				Serial: gofakeit.Regex("[A-Z]{3}[0-9]{8}"),
				Tag:    "INV-" + gofakeit.Regex("[0-9]{8}"),
			}); err != nil {
				log.Fatal().Err(err).Str("model_id", model.ID).Msg("crear equipo")
			}
		}
		if *stock > 0 {
			if _, err := catalog.CreateStock(ctx, model.ID, dto.CreateStockItemRequest{Quantity: *stock}); err != nil {
				log.Fatal().Err(err).Str("model_id", model.ID).Msg("crear stock")
			}
		}
	}

	log.Info().
		Int("employees", *employees).
		Int("models", *models).
		Int("items_per_model", *items).
		Int("stock_per_model", *stock).
		Msg("datos de prueba creados")
}
