package postgres_test

import (
	"context"
	"flag"
	"fmt"
	"os"
	"testing"
	"time"

	tc "github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

const pgImage = "postgres:17.0-alpine3.20"

// containerDSN lo completa TestMain cuando no hay TEST_DATABASE_URL y Docker responde.
var containerDSN string

func TestMain(m *testing.M) {
	flag.Parse()

	var stop func()
	if os.Getenv("TEST_DATABASE_URL") == "" && !testing.Short() {
		var err error
		containerDSN, stop, err = startPostgres(context.Background())
		if err != nil {
			fmt.Fprintf(os.Stderr, "postgres de prueba no disponible, se omiten los tests de integración: %v\n", err)
		}
	}

	code := m.Run()
	if stop != nil {
		stop()
	}
	os.Exit(code)
}

func startPostgres(ctx context.Context) (string, func(), error) {
	pgC, err := tcpostgres.Run(ctx,
		pgImage,
		tcpostgres.WithDatabase("prestamos"),
		tcpostgres.WithUsername("prestamos"),
		tcpostgres.WithPassword("prestamos"),
		tc.WithWaitStrategy(
			wait.ForListeningPort("5432/tcp").WithStartupTimeout(60*time.Second),
		),
	)
	if err != nil {
		return "", nil, err
	}
	stop := func() { _ = pgC.Terminate(context.Background()) }

	dsn, err := pgC.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		stop()
		return "", nil, err
	}
	return dsn, stop, nil
}
