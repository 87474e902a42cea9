package db

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	_ "modernc.org/sqlite"

	"github.com/spacesedan/wctweets/config"
	"github.com/spacesedan/wctweets/internal/models"
)

// SQLiteSink stores each post as a JSON text document. It is the local
// development backend and the one the tests run against.
type SQLiteSink struct {
	db    *sql.DB
	table string
}

func NewSQLiteSink(ctx context.Context, cfg config.SinkConfig) (*SQLiteSink, error) {
	return OpenSQLite(ctx, cfg.URI, cfg.Collection)
}

// OpenSQLite opens path (":memory:" works) and creates table if needed.
func OpenSQLite(ctx context.Context, path, table string) (*SQLiteSink, error) {
	if err := checkTableName(table); err != nil {
		return nil, err
	}
	d, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("[SQLite] open %s: %w", path, err)
	}
	// An in-memory database lives on a single connection.
	d.SetMaxOpenConns(1)

	ddl := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (id INTEGER PRIMARY KEY AUTOINCREMENT, doc TEXT NOT NULL)`, table)
	if _, err := d.ExecContext(ctx, ddl); err != nil {
		_ = d.Close()
		return nil, fmt.Errorf("[SQLite] failed to create table %s: %w", table, err)
	}
	return &SQLiteSink{db: d, table: table}, nil
}

func (s *SQLiteSink) Clear(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, "DELETE FROM "+s.table)
	if err != nil {
		return 0, fmt.Errorf("[SQLite] failed to clear %s: %w", s.table, err)
	}
	n, _ := res.RowsAffected()
	slog.Info("[SQLite] Cleared table", slog.String("table", s.table), slog.Int64("deleted", n))
	return n, nil
}

// InsertMany writes the whole batch in one transaction.
func (s *SQLiteSink) InsertMany(ctx context.Context, posts []models.CleanedPost) (int, error) {
	if len(posts) == 0 {
		return 0, nil
	}
	docs, err := encodeDocs(posts)
	if err != nil {
		return 0, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("[SQLite] begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, "INSERT INTO "+s.table+" (doc) VALUES (?)")
	if err != nil {
		return 0, fmt.Errorf("[SQLite] prepare: %w", err)
	}
	defer stmt.Close()

	for _, d := range docs {
		if _, err := stmt.ExecContext(ctx, d); err != nil {
			return 0, fmt.Errorf("[SQLite] failed to insert document: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("[SQLite] commit: %w", err)
	}
	return len(docs), nil
}

func (s *SQLiteSink) Find(ctx context.Context, fields []string) ([]models.CleanedPost, error) {
	if err := checkFields(fields); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, "SELECT doc FROM "+s.table+" ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("[SQLite] find failed: %w", err)
	}
	defer rows.Close()

	posts := []models.CleanedPost{}
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("[SQLite] scan: %w", err)
		}
		p, err := decodeDoc([]byte(raw))
		if err != nil {
			return nil, err
		}
		posts = append(posts, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("[SQLite] rows: %w", err)
	}
	return projectAll(posts, fields), nil
}

// Count returns the number of stored documents.
func (s *SQLiteSink) Count(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+s.table).Scan(&n)
	return n, err
}

func (s *SQLiteSink) Ping(ctx context.Context) error { return s.db.PingContext(ctx) }

func (s *SQLiteSink) Close(context.Context) error { return s.db.Close() }
