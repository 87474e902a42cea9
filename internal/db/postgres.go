package db

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/spacesedan/wctweets/config"
	"github.com/spacesedan/wctweets/internal/clients"
	"github.com/spacesedan/wctweets/internal/models"
	"github.com/spacesedan/wctweets/internal/utils"
)

// POSTGRES_INSERT_ROWS keeps one statement well under the 65535 bind
// parameter limit.
const POSTGRES_INSERT_ROWS = 1000

// PostgresSink stores each post as one jsonb document.
type PostgresSink struct {
	pg    clients.Postgres
	table string
}

func NewPostgresSink(ctx context.Context, cfg config.SinkConfig) (*PostgresSink, error) {
	if err := checkTableName(cfg.Collection); err != nil {
		return nil, err
	}
	pg, err := clients.NewPostgresClient(ctx, cfg.URI)
	if err != nil {
		return nil, err
	}

	s := &PostgresSink{pg: pg, table: cfg.Collection}
	ddl := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (id BIGSERIAL PRIMARY KEY, doc JSONB NOT NULL)`, s.table)
	if _, err := pg.DB.Exec(ctx, ddl); err != nil {
		pg.Close()
		return nil, fmt.Errorf("[Postgres] failed to create table %s: %w", s.table, err)
	}
	return s, nil
}

func (s *PostgresSink) Clear(ctx context.Context) (int64, error) {
	tag, err := s.pg.DB.Exec(ctx, "DELETE FROM "+s.table)
	if err != nil {
		return 0, fmt.Errorf("[Postgres] failed to clear %s: %w", s.table, err)
	}
	slog.Info("[Postgres] Cleared table", slog.String("table", s.table), slog.Int64("deleted", tag.RowsAffected()))
	return tag.RowsAffected(), nil
}

// InsertMany writes the whole batch in one transaction.
func (s *PostgresSink) InsertMany(ctx context.Context, posts []models.CleanedPost) (int, error) {
	if len(posts) == 0 {
		return 0, nil
	}
	docs, err := encodeDocs(posts)
	if err != nil {
		return 0, err
	}

	tx, err := s.pg.DB.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("[Postgres] begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var inserted int64
	for _, chunk := range utils.Chunk(docs, POSTGRES_INSERT_ROWS) {
		n, err := insertDocs(ctx, tx, s.table, chunk)
		if err != nil {
			return 0, fmt.Errorf("[Postgres] failed to insert documents: %w", err)
		}
		inserted += n
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("[Postgres] commit: %w", err)
	}
	return int(inserted), nil
}

func insertDocs(ctx context.Context, tx pgx.Tx, table string, docs []string) (int64, error) {
	placeholders := make([]string, len(docs))
	args := make([]any, len(docs))
	for i, d := range docs {
		placeholders[i] = fmt.Sprintf("($%d::jsonb)", i+1)
		args[i] = d
	}

	query := "INSERT INTO " + table + " (doc) VALUES " + strings.Join(placeholders, ", ")
	tag, err := tx.Exec(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (s *PostgresSink) Find(ctx context.Context, fields []string) ([]models.CleanedPost, error) {
	if err := checkFields(fields); err != nil {
		return nil, err
	}

	rows, err := s.pg.DB.Query(ctx, "SELECT doc::text FROM "+s.table+" ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("[Postgres] find failed: %w", err)
	}
	defer rows.Close()

	posts := []models.CleanedPost{}
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("[Postgres] scan: %w", err)
		}
		p, err := decodeDoc([]byte(raw))
		if err != nil {
			return nil, err
		}
		posts = append(posts, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("[Postgres] rows: %w", err)
	}
	return projectAll(posts, fields), nil
}

func (s *PostgresSink) Ping(ctx context.Context) error { return s.pg.DB.Ping(ctx) }

func (s *PostgresSink) Close(context.Context) error {
	s.pg.Close()
	return nil
}
