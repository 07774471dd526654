package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	goredis "github.com/redis/go-redis/v9"

	"github.com/jhoicas/prestamos-api/internal/application/reservation"
	"github.com/jhoicas/prestamos-api/internal/application/usecase"
	"github.com/jhoicas/prestamos-api/internal/domain/repository"
	"github.com/jhoicas/prestamos-api/internal/infrastructure/audit"
	"github.com/jhoicas/prestamos-api/internal/infrastructure/memory"
	infrapdf "github.com/jhoicas/prestamos-api/internal/infrastructure/pdf"
	"github.com/jhoicas/prestamos-api/internal/infrastructure/postgres"
	auditredis "github.com/jhoicas/prestamos-api/internal/infrastructure/redis"
	httpRouter "github.com/jhoicas/prestamos-api/internal/interfaces/http"
	"github.com/jhoicas/prestamos-api/pkg/config"
	"github.com/jhoicas/prestamos-api/pkg/logger"
)

const swaggerFile = "./docs/swagger.json"

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:     cfg.App.Env,
		Level:   cfg.App.LogLevel,
		Service: cfg.App.Name,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Str("storage", cfg.Storage.Driver).
		Msg("iniciando aplicación")

	ctx := context.Background()

	var (
		txRunner  reservation.TxRunner
		directory reservation.EmployeeDirectory
		employees repository.EmployeeRepository
	)
	switch cfg.Storage.Driver {
	case "memory":
		log.Warn().Msg("almacenamiento en memoria: los datos se pierden al reiniciar")
		store := memory.NewStore()
		txRunner, directory, employees = store, store, store
	default:
		pool, err := postgres.NewPool(ctx, cfg.DB)
		if err != nil {
			log.Fatal().Err(err).Msg("conexión a PostgreSQL")
		}
		defer pool.Close()

		if cfg.DB.AutoMigrate {
			if err := postgres.Migrate(ctx, pool); err != nil {
				log.Fatal().Err(err).Msg("migraciones")
			}
			log.Info().Msg("migraciones aplicadas")
		}
		employeeRepo := postgres.NewEmployeeRepository(pool)
		txRunner, directory, employees = postgres.NewTxRunner(pool), employeeRepo, employeeRepo
	}

	// Auditoría: siempre al log; además al stream de Redis si está habilitado.
	notifiers := audit.Fanout{audit.NewLogNotifier(log.Zerolog())}
	if cfg.Redis.Enabled {
		rdb := goredis.NewClient(&goredis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer rdb.Close()

		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		err := rdb.Ping(pingCtx).Err()
		cancel()
		if err != nil {
			log.Warn().Err(err).Str("addr", cfg.Redis.Addr).Msg("redis no disponible, auditoría solo en log")
		} else {
			publisher := auditredis.NewAuditPublisher(rdb, cfg.Redis.AuditStream, 100_000, log.Zerolog())
			defer publisher.Close()
			notifiers = append(notifiers, publisher)
		}
	}

	engine := reservation.NewEngine(txRunner, directory, notifiers, reservation.Config{
		MaxRetries:       cfg.Engine.MaxRetries,
		InitialBackoff:   cfg.Engine.InitialBackoff,
		MaxBackoff:       cfg.Engine.MaxBackoff,
		OpTimeout:        cfg.Engine.OpTimeout,
		BatchConcurrency: cfg.Engine.BatchConcurrency,
	}, log.Zerolog())

	receipts := infrapdf.NewReceiptGenerator(cfg.App.Name)
	loanUC := usecase.NewLoanUseCase(engine, txRunner, employees, receipts)
	catalogUC := usecase.NewCatalogUseCase(txRunner, engine, employees)

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  time.Second * 60,
		ErrorHandler: httpRouter.ErrorHandler,
		// los parámetros de ruta llegan hasta el almacenamiento (el store en memoria los guarda)
		Immutable: true,
	})
	app.Use(recover.New())

	// Swagger UI en local: http://localhost:<port>/docs
	if _, err := os.Stat(swaggerFile); err == nil {
		app.Use(swagger.New(swagger.Config{
			BasePath: "/",
			FilePath: swaggerFile,
			Path:     "docs",
			Title:    "Préstamos API",
		}))
	}

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name, "storage": cfg.Storage.Driver})
	})

	httpRouter.Router(app, httpRouter.RouterDeps{
		LoanUC:    loanUC,
		CatalogUC: catalogUC,
		JWTSecret: cfg.JWT.Secret,
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}

	log.Info().Msg("aplicación detenida")
}
