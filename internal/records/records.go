// Package records defines the generic record store the social collections
// live in: list/create/update/delete over named collections, plus counter
// increments and transactions.
package records

import (
	"context"
	"fmt"
	"time"
)

// Collection names.
const (
	Users    = "users"
	Posts    = "posts"
	Likes    = "likes"
	Accounts = "accounts"
)

// Record is a stored row keyed by snake_case column name.
type Record map[string]any

// Op is a filter operator.
type Op string

const (
	OpEq Op = "="
	OpIn Op = "IN"
)

// Cond is a single filter condition. Conditions in a Query are ANDed.
type Cond struct {
	Field string
	Op    Op
	Value any   // OpEq
	Set   []any // OpIn
}

func Eq(field string, value any) Cond {
	return Cond{Field: field, Op: OpEq, Value: value}
}

func In(field string, values ...any) Cond {
	return Cond{Field: field, Op: OpIn, Set: values}
}

// Query narrows a List call.
type Query struct {
	Where      []Cond
	OrderBy    string
	Descending bool
	Limit      int
}

// Store is the record store contract every backend implements.
type Store interface {
	List(ctx context.Context, collection string, q Query) ([]Record, error)
	Create(ctx context.Context, collection string, rec Record) (Record, error)
	Update(ctx context.Context, collection, id string, patch Record) error
	Delete(ctx context.Context, collection, id string) error
	// Increment adds delta to a counter column, flooring the result at zero.
	Increment(ctx context.Context, collection, id, field string, delta int) error
	// WithinTx runs fn against a store bound to a single transaction.
	// Nested calls reuse the outer transaction.
	WithinTx(ctx context.Context, fn func(Store) error) error
}

func (r Record) String(key string) string {
	switch v := r[key].(type) {
	case string:
		return v
	case []byte:
		return string(v)
	case nil:
		return ""
	default:
		return fmt.Sprint(v)
	}
}

func (r Record) Int(key string) int {
	switch v := r[key].(type) {
	case int:
		return v
	case int32:
		return int(v)
	case int64:
		return int(v)
	case float64:
		return int(v)
	default:
		return 0
	}
}

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05",
}

func (r Record) Time(key string) time.Time {
	var raw string
	switch v := r[key].(type) {
	case time.Time:
		return v
	case string:
		raw = v
	case []byte:
		raw = string(v)
	default:
		return time.Time{}
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t
		}
	}
	return time.Time{}
}
