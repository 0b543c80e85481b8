// Package dbtest sobe um PostgreSQL descartável (testcontainers) com as migrações aplicadas.
package dbtest

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/pressly/goose/v3"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"

	"pharmacart/internal/pkg/database"
	"pharmacart/migrations"
)

// SetupTestPostgres devolve um *sql.DB migrado. O teste é pulado com -short ou sem Docker.
func SetupTestPostgres(t *testing.T) *sql.DB {
	t.Helper()
	if testing.Short() {
		t.Skip("teste de integração pulado com -short")
	}
	testcontainers.SkipIfProviderIsNotHealthy(t)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	ctr, err := postgres.Run(ctx, "postgres:16-alpine",
		postgres.WithDatabase("pharmacart"),
		postgres.WithUsername("pharmacart"),
		postgres.WithPassword("pharmacart"),
		postgres.BasicWaitStrategies(),
	)
	if err != nil {
		t.Fatalf("falha ao subir o postgres: %v", err)
	}
	t.Cleanup(func() {
		if err := ctr.Terminate(context.Background()); err != nil {
			t.Logf("falha ao encerrar o container: %v", err)
		}
	})

	dsn, err := ctr.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("connection string: %v", err)
	}

	db, err := database.NewPostgresDB(dsn)
	if err != nil {
		t.Fatalf("conexão: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	goose.SetBaseFS(migrations.FS)
	goose.SetLogger(goose.NopLogger())
	if err := goose.SetDialect("postgres"); err != nil {
		t.Fatalf("goose dialect: %v", err)
	}
	if err := goose.UpContext(ctx, db, "."); err != nil {
		t.Fatalf("migrações: %v", err)
	}
	return db
}
