package helper

import (
	"context"
	"net/url"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

const postgresImage = "pgvector/pgvector:0.8.0-pg17"

// MustStartPostgresContainer starts a PostgreSQL container with pgvector installed.
// It returns the teardown function and the mapped host port.
func MustStartPostgresContainer() (func(ctx context.Context, opts ...testcontainers.TerminateOption) error, string, error) {
	ctx := context.Background()

	container, err := postgres.Run(
		ctx,
		postgresImage,
		postgres.WithDatabase("database"),
		postgres.WithUsername("user"),
		postgres.WithPassword("password"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").WithOccurrence(2),
		),
	)
	if err != nil {
		return nil, "", NewError("run postgres container", err)
	}

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		return container.Terminate, "", NewError("connection string", err)
	}

	u, err := url.Parse(connStr)
	if err != nil {
		return container.Terminate, "", NewError("parse connection string", err)
	}

	return container.Terminate, u.Port(), nil
}
