package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"connectify/internal/apperror"
	"connectify/internal/records"
)

type executor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// Store implements records.Store on SQLite.
type Store struct {
	db   *sql.DB
	exec executor
	inTx bool
}

var _ records.Store = (*Store)(nil)

func (s *Store) List(ctx context.Context, collection string, q records.Query) ([]records.Record, error) {
	stmt, err := records.SelectStatement(records.QuestionMark, collection, q)
	if err != nil {
		return nil, err
	}
	schema, _ := records.Lookup(collection)

	rows, err := s.exec.QueryContext(ctx, stmt.SQL, stmt.Args...)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", collection, err)
	}
	defer rows.Close()

	var out []records.Record
	for rows.Next() {
		rec, err := scanRecord(rows, schema.Columns)
		if err != nil {
			return nil, fmt.Errorf("scan %s: %w", collection, err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (s *Store) Create(ctx context.Context, collection string, rec records.Record) (records.Record, error) {
	stmt, err := records.InsertStatement(records.QuestionMark, collection, rec)
	if err != nil {
		return nil, err
	}
	if _, err := s.exec.ExecContext(ctx, stmt.SQL, stmt.Args...); err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "unique") {
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
	stmt, err := records.UpdateStatement(records.QuestionMark, collection, id, patch)
	if err != nil {
		return err
	}
	return s.execOne(ctx, collection, id, stmt)
}

func (s *Store) Delete(ctx context.Context, collection, id string) error {
	stmt, err := records.DeleteStatement(records.QuestionMark, collection, id)
	if err != nil {
		return err
	}
	return s.execOne(ctx, collection, id, stmt)
}

func (s *Store) Increment(ctx context.Context, collection, id, field string, delta int) error {
	stmt, err := records.IncrementStatement(records.QuestionMark, collection, id, field, delta)
	if err != nil {
		return err
	}
	return s.execOne(ctx, collection, id, stmt)
}

func (s *Store) WithinTx(ctx context.Context, fn func(records.Store) error) error {
	if s.inTx {
		return fn(s)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback() // safe no-op on commit

	if err := fn(&Store{db: s.db, exec: tx, inTx: true}); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

func (s *Store) execOne(ctx context.Context, collection, id string, stmt records.Statement) error {
	res, err := s.exec.ExecContext(ctx, stmt.SQL, stmt.Args...)
	if err != nil {
		return fmt.Errorf("write %s: %w", collection, err)
	}
	aff, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s rows affected: %w", collection, err)
	}
	if aff == 0 {
		return apperror.NotFound(strings.TrimSuffix(collection, "s"), id)
	}
	return nil
}

func scanRecord(rows *sql.Rows, columns []string) (records.Record, error) {
	values := make([]any, len(columns))
	ptrs := make([]any, len(columns))
	for i := range values {
		ptrs[i] = &values[i]
	}
	if err := rows.Scan(ptrs...); err != nil {
		return nil, err
	}

	rec := make(records.Record, len(columns))
	for i, col := range columns {
		if b, ok := values[i].([]byte); ok {
			rec[col] = string(b)
			continue
		}
		rec[col] = values[i]
	}
	return rec, nil
}
