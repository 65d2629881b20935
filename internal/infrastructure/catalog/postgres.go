package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/docdesk/docdesk/internal/core/domain"
)

// PostgresSource loads the topic catalog from a topics table. The position
// column carries the catalog order.
type PostgresSource struct {
	db *sql.DB
}

func NewPostgresSource(db *sql.DB) *PostgresSource {
	return &PostgresSource{db: db}
}

func OpenDB(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("sql open: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("db ping: %w", err)
	}
	return db, nil
}

func (s *PostgresSource) EnsureSchema(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	// Serialize bootstrap DDL across concurrent api startups.
	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, int64(2026082201)); err != nil {
		return fmt.Errorf("acquire schema lock: %w", err)
	}

	const query = `
CREATE TABLE IF NOT EXISTS topics (
	name TEXT PRIMARY KEY,
	document_ref TEXT NOT NULL,
	position INTEGER NOT NULL
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_topics_position ON topics(position);
`
	if _, err := tx.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("execute schema ddl: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema tx: %w", err)
	}
	return nil
}

func (s *PostgresSource) Load(ctx context.Context) (domain.TopicCatalog, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT name, document_ref
FROM topics
ORDER BY position ASC
`)
	if err != nil {
		return domain.TopicCatalog{}, domain.WrapError(domain.ErrCatalogLoad, "query topics", err)
	}
	defer rows.Close()

	var entries []domain.TopicEntry
	for rows.Next() {
		var entry domain.TopicEntry
		if err := rows.Scan(&entry.Name, &entry.DocumentRef); err != nil {
			return domain.TopicCatalog{}, domain.WrapError(domain.ErrCatalogLoad, "scan topic", err)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return domain.TopicCatalog{}, domain.WrapError(domain.ErrCatalogLoad, "iterate topics", err)
	}

	catalog, err := domain.NewTopicCatalog(entries)
	if err != nil {
		return domain.TopicCatalog{}, domain.WrapError(domain.ErrCatalogLoad, "validate catalog", err)
	}
	return catalog, nil
}
