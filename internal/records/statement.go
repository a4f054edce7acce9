package records

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Placeholder renders the n-th (1-based) bind parameter for a SQL dialect.
type Placeholder func(n int) string

func QuestionMark(int) string { return "?" }

func Dollar(n int) string { return "$" + strconv.Itoa(n) }

// Statement is a rendered SQL statement with its arguments.
type Statement struct {
	SQL  string
	Args []any
}

type builder struct {
	ph   Placeholder
	args []any
}

func (b *builder) bind(v any) string {
	b.args = append(b.args, v)
	return b.ph(len(b.args))
}

// SelectStatement renders a List query. Columns come back in schema order.
func SelectStatement(ph Placeholder, collection string, q Query) (Statement, error) {
	schema, err := Lookup(collection)
	if err != nil {
		return Statement{}, err
	}
	b := &builder{ph: ph}

	var sb strings.Builder
	fmt.Fprintf(&sb, "SELECT %s FROM %s", strings.Join(schema.Columns, ", "), collection)

	if len(q.Where) > 0 {
		clauses := make([]string, 0, len(q.Where))
		for _, cond := range q.Where {
			if !schema.HasColumn(cond.Field) {
				return Statement{}, fmt.Errorf("%s: unknown filter field %q", collection, cond.Field)
			}
			switch cond.Op {
			case OpEq:
				clauses = append(clauses, fmt.Sprintf("%s = %s", cond.Field, b.bind(cond.Value)))
			case OpIn:
				if len(cond.Set) == 0 {
					clauses = append(clauses, "1 = 0")
					continue
				}
				marks := make([]string, len(cond.Set))
				for i, v := range cond.Set {
					marks[i] = b.bind(v)
				}
				clauses = append(clauses, fmt.Sprintf("%s IN (%s)", cond.Field, strings.Join(marks, ", ")))
			default:
				return Statement{}, fmt.Errorf("%s: unsupported operator %q", collection, cond.Op)
			}
		}
		sb.WriteString(" WHERE ")
		sb.WriteString(strings.Join(clauses, " AND "))
	}

	if q.OrderBy != "" {
		if !schema.HasColumn(q.OrderBy) {
			return Statement{}, fmt.Errorf("%s: unknown order field %q", collection, q.OrderBy)
		}
		dir := "ASC"
		if q.Descending {
			dir = "DESC"
		}
		fmt.Fprintf(&sb, " ORDER BY %s %s", q.OrderBy, dir)
		// id breaks ties so equal timestamps keep a stable order
		if q.OrderBy != "id" {
			fmt.Fprintf(&sb, ", id %s", dir)
		}
	}

	if q.Limit > 0 {
		fmt.Fprintf(&sb, " LIMIT %s", b.bind(q.Limit))
	}

	return Statement{SQL: sb.String(), Args: b.args}, nil
}

// InsertStatement renders a Create. Columns are emitted in sorted order.
func InsertStatement(ph Placeholder, collection string, rec Record) (Statement, error) {
	schema, err := Lookup(collection)
	if err != nil {
		return Statement{}, err
	}
	if rec.String("id") == "" {
		return Statement{}, fmt.Errorf("%s: record id is required", collection)
	}
	cols, err := sortedColumns(schema, collection, rec)
	if err != nil {
		return Statement{}, err
	}

	b := &builder{ph: ph}
	marks := make([]string, len(cols))
	for i, col := range cols {
		marks[i] = b.bind(rec[col])
	}
	return Statement{
		SQL:  fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", collection, strings.Join(cols, ", "), strings.Join(marks, ", ")),
		Args: b.args,
	}, nil
}

// UpdateStatement renders a partial Update by id.
func UpdateStatement(ph Placeholder, collection, id string, patch Record) (Statement, error) {
	schema, err := Lookup(collection)
	if err != nil {
		return Statement{}, err
	}
	if len(patch) == 0 {
		return Statement{}, fmt.Errorf("%s: empty update", collection)
	}
	if _, ok := patch["id"]; ok {
		return Statement{}, fmt.Errorf("%s: id cannot be updated", collection)
	}
	cols, err := sortedColumns(schema, collection, patch)
	if err != nil {
		return Statement{}, err
	}

	b := &builder{ph: ph}
	sets := make([]string, len(cols))
	for i, col := range cols {
		sets[i] = fmt.Sprintf("%s = %s", col, b.bind(patch[col]))
	}
	return Statement{
		SQL:  fmt.Sprintf("UPDATE %s SET %s WHERE id = %s", collection, strings.Join(sets, ", "), b.bind(id)),
		Args: b.args,
	}, nil
}

// DeleteStatement renders a Delete by id.
func DeleteStatement(ph Placeholder, collection, id string) (Statement, error) {
	if _, err := Lookup(collection); err != nil {
		return Statement{}, err
	}
	b := &builder{ph: ph}
	return Statement{
		SQL:  fmt.Sprintf("DELETE FROM %s WHERE id = %s", collection, b.bind(id)),
		Args: b.args,
	}, nil
}

// IncrementStatement renders a floored counter update. The delta is bound
// twice so the statement works with positional and numbered placeholders.
func IncrementStatement(ph Placeholder, collection, id, field string, delta int) (Statement, error) {
	schema, err := Lookup(collection)
	if err != nil {
		return Statement{}, err
	}
	if !schema.IsCounter(field) {
		return Statement{}, fmt.Errorf("%s: %q is not a counter", collection, field)
	}
	b := &builder{ph: ph}
	d := int64(delta)
	return Statement{
		SQL: fmt.Sprintf("UPDATE %s SET %s = CASE WHEN %s + %s < 0 THEN 0 ELSE %s + %s END WHERE id = %s",
			collection, field, field, b.bind(d), field, b.bind(d), b.bind(id)),
		Args: b.args,
	}, nil
}

func sortedColumns(schema Schema, collection string, rec Record) ([]string, error) {
	cols := make([]string, 0, len(rec))
	for col := range rec {
		if !schema.HasColumn(col) {
			return nil, fmt.Errorf("%s: unknown column %q", collection, col)
		}
		cols = append(cols, col)
	}
	sort.Strings(cols)
	return cols, nil
}
