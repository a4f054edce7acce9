package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"connectify/internal/apperror"
	"connectify/internal/records"
)

const uniqueViolation = "23505"

type executor interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// Store implements records.Store on PostgreSQL.
type Store struct {
	pool *pgxpool.Pool
	exec executor
	inTx bool
}

var _ records.Store = (*Store)(nil)

func (s *Store) List(ctx context.Context, collection string, q records.Query) ([]records.Record, error) {
	stmt, err := records.SelectStatement(records.Dollar, collection, q)
	if err != nil {
		return nil, err
	}
	schema, _ := records.Lookup(collection)

	rows, err := s.exec.Query(ctx, stmt.SQL, stmt.Args...)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", collection, err)
	}
	defer rows.Close()

	var out []records.Record
	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, fmt.Errorf("scan %s: %w", collection, err)
		}
		rec := make(records.Record, len(schema.Columns))
		for i, col := range schema.Columns {
			rec[col] = values[i]
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (s *Store) Create(ctx context.Context, collection string, rec records.Record) (records.Record, error) {
	stmt, err := records.InsertStatement(records.Dollar, collection, rec)
	if err != nil {
		return nil, err
	}
	if _, err := s.exec.Exec(ctx, stmt.SQL, stmt.Args...); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return nil, fmt.Errorf("insert %s: %w", collection, apperror.Conflict(collection, rec.String("id")))
		}
		return nil, fmt.Errorf("insert %s: %w", collection, err)
	}

	stored := make(records.Record, len(rec))
	for k, v := range rec {
		stored[k] = v
	}
	return stored, nil
}

func (s *Store) Update(ctx context.Context, collection, id string, patch records.Record) error {
	stmt, err := records.UpdateStatement(records.Dollar, collection, id, patch)
	if err != nil {
		return err
	}
	return s.execOne(ctx, collection, id, stmt)
}

func (s *Store) Delete(ctx context.Context, collection, id string) error {
	stmt, err := records.DeleteStatement(records.Dollar, collection, id)
	if err != nil {
		return err
	}
	return s.execOne(ctx, collection, id, stmt)
}

func (s *Store) Increment(ctx context.Context, collection, id, field string, delta int) error {
	stmt, err := records.IncrementStatement(records.Dollar, collection, id, field, delta)
	if err != nil {
		return err
	}
	return s.execOne(ctx, collection, id, stmt)
}

func (s *Store) WithinTx(ctx context.Context, fn func(records.Store) error) error {
	if s.inTx {
		return fn(s)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) // no-op after commit

	if err := fn(&Store{pool: s.pool, exec: tx, inTx: true}); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

func (s *Store) execOne(ctx context.Context, collection, id string, stmt records.Statement) error {
	tag, err := s.exec.Exec(ctx, stmt.SQL, stmt.Args...)
	if err != nil {
		return fmt.Errorf("write %s: %w", collection, err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NotFound(strings.TrimSuffix(collection, "s"), id)
	}
	return nil
}
