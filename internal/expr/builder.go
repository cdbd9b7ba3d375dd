// Package expr holds the query-side expression fragments that hybrid property computations return.
//
// Fragments are engine neutral until they are compiled with a Builder, which knows the engine name and
// how to turn a field path such as "person__first_name" into a qualified column.
package expr

import (
	"fmt"
	"strings"
)

// Engine names understood by the builder
const (
	SQLite   = "sqlite"
	Postgres = "postgres"
	MySQL    = "mysql"
)

// Expr is a query-side expression fragment.
type Expr interface {
	Build(b *Builder) error
}

// Resolver writes the SQL for a field path into the builder.
type Resolver interface {
	Resolve(b *Builder, path string) error
}

// ResolverFunc adapts a function to Resolver
type ResolverFunc func(b *Builder, path string) error

func (f ResolverFunc) Resolve(b *Builder, path string) error {
	return f(b, path)
}

// Builder accumulates SQL text and bind variables. Placeholders are always written as "?" and
// rebound by gorm for the target engine.
type Builder struct {
	sql      strings.Builder
	vars     []any
	dialect  string
	resolver Resolver
}

// NewBuilder creates a builder for the given engine
func NewBuilder(dialect string, resolver Resolver) *Builder {
	return &Builder{dialect: dialect, resolver: resolver}
}

// Dialect returns the engine name the builder renders for
func (b *Builder) Dialect() string {
	return b.dialect
}

// WriteString appends raw SQL
func (b *Builder) WriteString(s string) {
	b.sql.WriteString(s)
}

// WriteSQL appends SQL that already contains one "?" per var.
func (b *Builder) WriteSQL(sql string, vars ...any) {
	b.sql.WriteString(sql)
	b.vars = append(b.vars, vars...)
}

// AddVar writes a placeholder for every value
func (b *Builder) AddVar(vars ...any) {
	for i, v := range vars {
		if i > 0 {
			b.sql.WriteString(", ")
		}
		b.sql.WriteByte('?')
		b.vars = append(b.vars, v)
	}
}

// Column writes the column a field path resolves to
func (b *Builder) Column(path string) error {
	if b.resolver == nil {
		return fmt.Errorf("no resolver for field %q", path)
	}
	return b.resolver.Resolve(b, path)
}

// Build writes an operand: expressions are built, anything else becomes a bind variable.
func (b *Builder) Build(operand any) error {
	if e, ok := operand.(Expr); ok {
		return e.Build(b)
	}
	b.AddVar(operand)
	return nil
}

// SQL returns the accumulated SQL
func (b *Builder) SQL() string {
	return b.sql.String()
}

// Vars returns the accumulated bind variables
func (b *Builder) Vars() []any {
	return b.vars
}

// Compile renders a single expression.
func Compile(e Expr, dialect string, resolver Resolver) (string, []any, error) {
	b := NewBuilder(dialect, resolver)
	if err := e.Build(b); err != nil {
		return "", nil, err
	}
	return b.SQL(), b.Vars(), nil
}
