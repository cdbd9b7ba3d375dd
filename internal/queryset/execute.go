package queryset

import (
	"context"
	"fmt"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/shepherrrd/hybrid/internal/expr"
	"github.com/shepherrrd/hybrid/internal/logging"
)

// selection is what prepare puts in the SELECT list
type selection int

const (
	selectRows  selection = iota // the model columns and every annotation
	selectCount                  // left to gorm
	selectFields                 // the fields given to Values
)

// prepare applies the QuerySet to tx. Compilation runs on a copy so the joins discovered while
// rendering the select list and ordering are not written back.
func (qs *QuerySet[T]) prepare(tx *gorm.DB, sel selection, fields []string) (*gorm.DB, error) {
	if qs.err != nil {
		return nil, qs.err
	}
	work := qs.clone()
	tx = tx.Model(new(T))

	switch sel {
	case selectRows:
		parts := []string{work.quote(work.model.TableName) + ".*"}
		var vars []any
		for _, a := range work.annotations {
			sql, v, err := work.compile(a.expr)
			if err != nil {
				return nil, err
			}
			parts = append(parts, fmt.Sprintf("(%s) AS %s", sql, work.quote(a.alias)))
			vars = append(vars, v...)
		}
		tx = tx.Clauses(clause.Select{Expression: clause.Expr{SQL: strings.Join(parts, ", "), Vars: vars}})
	case selectFields:
		parts := make([]string, 0, len(fields))
		var vars []any
		for _, f := range fields {
			sql, v, err := work.compile(expr.F(f))
			if err != nil {
				return nil, err
			}
			parts = append(parts, fmt.Sprintf("%s AS %s", sql, work.quote(f)))
			vars = append(vars, v...)
		}
		tx = tx.Clauses(clause.Select{Expression: clause.Expr{SQL: strings.Join(parts, ", "), Vars: vars}})
	}

	if sel != selectCount && len(work.order) > 0 {
		parts := make([]string, 0, len(work.order))
		var vars []any
		for _, o := range work.order {
			sql, v, err := work.compile(expr.F(o.path))
			if err != nil {
				return nil, err
			}
			if o.desc {
				sql += " DESC"
			} else {
				sql += " ASC"
			}
			parts = append(parts, sql)
			vars = append(vars, v...)
		}
		tx = tx.Clauses(clause.OrderBy{Expression: clause.Expr{
			SQL:                strings.Join(parts, ", "),
			Vars:               vars,
			WithoutParentheses: true,
		}})
	}

	if len(work.joins) > 0 {
		joins := make([]clause.Join, len(work.joins))
		for i, j := range work.joins {
			joins[i] = clause.Join{Expression: clause.Expr{SQL: j.sql, Vars: j.vars}}
		}
		tx = tx.Clauses(clause.From{Joins: joins})
	}
	if len(work.conds) > 0 {
		tx = tx.Clauses(clause.Where{Exprs: work.conds})
	}
	if sel != selectCount {
		if work.limit >= 0 {
			tx = tx.Limit(work.limit)
		}
		if work.offset >= 0 {
			tx = tx.Offset(work.offset)
		}
	}
	return tx, nil
}

// Find - runs the query and returns the rows
func (qs *QuerySet[T]) Find(ctx context.Context) ([]T, error) {
	tx, err := qs.prepare(qs.db.WithContext(ctx), selectRows, nil)
	if err != nil {
		return nil, err
	}
	var rows []T
	if err := tx.Find(&rows).Error; err != nil {
		logging.Debug("query failed", "model", qs.model.Name, "error", err)
		return nil, fmt.Errorf("failed to query %s: %w", qs.model.Name, err)
	}
	return rows, nil
}

// First - returns the first row, by primary key when the QuerySet is unordered
func (qs *QuerySet[T]) First(ctx context.Context) (*T, error) {
	q := qs
	if len(q.order) == 0 && len(q.model.PrimaryKey) > 0 {
		q = q.OrderBy(q.model.PrimaryKey...)
	}
	rows, err := q.Limit(1).Find(ctx)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	return &rows[0], nil
}

// Count - returns the number of matching rows, ignoring Limit and Offset
func (qs *QuerySet[T]) Count(ctx context.Context) (int64, error) {
	tx, err := qs.prepare(qs.db.WithContext(ctx), selectCount, nil)
	if err != nil {
		return 0, err
	}
	var n int64
	if err := tx.Count(&n).Error; err != nil {
		return 0, fmt.Errorf("failed to count %s: %w", qs.model.Name, err)
	}
	return n, nil
}

// Exists - reports whether any row matches
func (qs *QuerySet[T]) Exists(ctx context.Context) (bool, error) {
	rows, err := qs.Limit(1).Values(ctx, qs.model.PrimaryKey...)
	if err != nil {
		return false, err
	}
	return len(rows) > 0, nil
}

// Values - returns the given fields, annotations included, keyed by name. With no fields every
// column and annotation is returned.
func (qs *QuerySet[T]) Values(ctx context.Context, fields ...string) ([]map[string]any, error) {
	sel := selectFields
	if len(fields) == 0 {
		sel = selectRows
	}
	tx, err := qs.prepare(qs.db.WithContext(ctx), sel, fields)
	if err != nil {
		return nil, err
	}
	var rows []map[string]any
	if err := tx.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", qs.model.Name, err)
	}
	return rows, nil
}

// ValuesList - returns the given fields as tuples in field order
func (qs *QuerySet[T]) ValuesList(ctx context.Context, fields ...string) ([][]any, error) {
	if len(fields) == 0 {
		fields = append(qs.model.Columns(), qs.Annotations()...)
	}
	rows, err := qs.Values(ctx, fields...)
	if err != nil {
		return nil, err
	}
	out := make([][]any, len(rows))
	for i, row := range rows {
		tuple := make([]any, len(fields))
		for j, f := range fields {
			tuple[j] = row[f]
		}
		out[i] = tuple
	}
	return out, nil
}

// Pluck returns a single field or annotation of every row
func Pluck[V any, T any](ctx context.Context, qs *QuerySet[T], field string) ([]V, error) {
	tx, err := qs.prepare(qs.db.WithContext(ctx), selectFields, []string{field})
	if err != nil {
		return nil, err
	}
	var out []V
	if err := tx.Pluck(field, &out).Error; err != nil {
		return nil, fmt.Errorf("failed to pluck %s.%s: %w", qs.model.Name, field, err)
	}
	return out, nil
}

// ToSQL - renders the SELECT statement without running it
func (qs *QuerySet[T]) ToSQL() (string, error) {
	if qs.err != nil {
		return "", qs.err
	}
	var prepErr error
	sql := qs.db.ToSQL(func(tx *gorm.DB) *gorm.DB {
		prepared, err := qs.prepare(tx, selectRows, nil)
		if err != nil {
			prepErr = err
			return tx
		}
		var rows []T
		return prepared.Find(&rows)
	})
	if prepErr != nil {
		return "", prepErr
	}
	return sql, nil
}
