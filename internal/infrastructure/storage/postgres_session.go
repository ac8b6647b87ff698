package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/lib/pq"

	"PolicyDigest/internal/ports"
)

// PostgresSessionStore persists wizard records into Postgres.
type PostgresSessionStore struct {
	db    *sql.DB
	table string
	sb    sq.StatementBuilderType
	now   func() time.Time
}

var _ ports.SessionStore = (*PostgresSessionStore)(nil)

// OpenPostgres opens and pings a lib/pq connection pool.
func OpenPostgres(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return db, nil
}

// NewPostgresSessionStore wires a sql.DB implementation.
func NewPostgresSessionStore(db *sql.DB, table string) *PostgresSessionStore {
	if table == "" {
		table = "curation_sessions"
	}
	return &PostgresSessionStore{
		db:    db,
		table: pq.QuoteIdentifier(table),
		sb:    sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
		now:   time.Now,
	}
}

// EnsureSchema creates the session table when missing.
func (r *PostgresSessionStore) EnsureSchema(ctx context.Context) error {
	query := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
              id TEXT PRIMARY KEY,
              state BYTEA NOT NULL,
              updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
            )`, r.table)
	if _, err := r.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("create session table: %w", err)
	}
	return nil
}

func (r *PostgresSessionStore) loadQuery(id string) sq.SelectBuilder {
	return r.sb.Select("state").From(r.table).Where(sq.Eq{"id": id})
}

func (r *PostgresSessionStore) saveQuery(id string, state []byte, at time.Time) sq.InsertBuilder {
	return r.sb.Insert(r.table).
		Columns("id", "state", "updated_at").
		Values(id, state, at).
		Suffix("ON CONFLICT (id) DO UPDATE SET state = EXCLUDED.state, updated_at = EXCLUDED.updated_at")
}

func (r *PostgresSessionStore) deleteQuery(id string) sq.DeleteBuilder {
	return r.sb.Delete(r.table).Where(sq.Eq{"id": id})
}

func (r *PostgresSessionStore) sweepQuery(olderThan time.Time) sq.DeleteBuilder {
	return r.sb.Delete(r.table).Where(sq.Lt{"updated_at": olderThan})
}

// Load returns the stored record for id.
func (r *PostgresSessionStore) Load(ctx context.Context, id string) ([]byte, bool, error) {
	query, args, err := r.loadQuery(id).ToSql()
	if err != nil {
		return nil, false, fmt.Errorf("build load: %w", err)
	}

	var state []byte
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&state); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("load session: %w", err)
	}
	return state, true, nil
}

// Save upserts the record and refreshes its timestamp.
func (r *PostgresSessionStore) Save(ctx context.Context, id string, state []byte) error {
	query, args, err := r.saveQuery(id, state, r.now()).ToSql()
	if err != nil {
		return fmt.Errorf("build save: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert session: %w", err)
	}
	return nil
}

// Delete removes the record for id.
func (r *PostgresSessionStore) Delete(ctx context.Context, id string) error {
	query, args, err := r.deleteQuery(id).ToSql()
	if err != nil {
		return fmt.Errorf("build delete: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// Sweep removes records untouched since olderThan.
func (r *PostgresSessionStore) Sweep(ctx context.Context, olderThan time.Time) (int, error) {
	query, args, err := r.sweepQuery(olderThan).ToSql()
	if err != nil {
		return 0, fmt.Errorf("build sweep: %w", err)
	}
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("sweep sessions: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return int(n), nil
}
