package clients

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
)

type Postgres struct {
	DB *pgxpool.Pool
}

// NewPostgresClient opens a pool for dsn and pings it.
func NewPostgresClient(ctx context.Context, dsn string) (Postgres, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return Postgres{}, fmt.Errorf("[PostgresClient] failed to create PostgreSQL client: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, CONNECT_TIMEOUT)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return Postgres{}, fmt.Errorf("[PostgresClient] failed to ping PostgreSQL: %w", err)
	}

	slog.Info("[PostgresClient] Successfully connected to PostgreSQL")
	return Postgres{DB: pool}, nil
}

func (p Postgres) Close() {
	if p.DB != nil {
		p.DB.Close()
	}
}
