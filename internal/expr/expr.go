package expr

import (
	"fmt"
	"strings"
)

// X wraps any expression with the arithmetic and comparison builders.
type X struct {
	Expr
}

// F references a model field, optionally through relations ("person__first_note")
func F(path string) X {
	return X{Expr: field{path: path}}
}

// Value binds a literal value
func Value(v any) X {
	return X{Expr: value{v: v}}
}

// Raw embeds SQL verbatim. Use "?" for the vars.
func Raw(sql string, vars ...any) X {
	return X{Expr: raw{sql: sql, vars: vars}}
}

// Add returns x + operand
func (x X) Add(operand any) X { return x.binary("+", operand) }

// Sub returns x - operand
func (x X) Sub(operand any) X { return x.binary("-", operand) }

// Mul returns x * operand
func (x X) Mul(operand any) X { return x.binary("*", operand) }

// Div returns x / operand
func (x X) Div(operand any) X { return x.binary("/", operand) }

func (x X) EQ(operand any) X { return x.binary("=", operand) }
func (x X) NE(operand any) X { return x.binary("<>", operand) }
func (x X) GT(operand any) X { return x.binary(">", operand) }
func (x X) GTE(operand any) X { return x.binary(">=", operand) }
func (x X) LT(operand any) X { return x.binary("<", operand) }
func (x X) LTE(operand any) X { return x.binary("<=", operand) }

func (x X) binary(op string, operand any) X {
	return X{Expr: leftRight{left: x.Expr, operator: op, right: operand}}
}

// Build writes the wrapped expression
func (x X) Build(b *Builder) error {
	if x.Expr == nil {
		return fmt.Errorf("empty expression")
	}
	return x.Expr.Build(b)
}

type field struct {
	path string
}

func (f field) Build(b *Builder) error {
	return b.Column(f.path)
}

type value struct {
	v any
}

func (v value) Build(b *Builder) error {
	b.AddVar(v.v)
	return nil
}

type raw struct {
	sql  string
	vars []any
}

func (r raw) Build(b *Builder) error {
	if n := strings.Count(r.sql, "?"); n != len(r.vars) {
		return fmt.Errorf("raw sql %q expects %d vars, got %d", r.sql, n, len(r.vars))
	}
	b.WriteSQL(r.sql, r.vars...)
	return nil
}

// leftRight renders "(left op right)"
type leftRight struct {
	left     any
	operator string
	right    any
}

func (lr leftRight) Build(b *Builder) error {
	b.WriteString("(")
	if err := b.Build(lr.left); err != nil {
		return err
	}
	b.WriteString(" " + lr.operator + " ")
	if err := b.Build(lr.right); err != nil {
		return err
	}
	b.WriteString(")")
	return nil
}

// And joins conditions with AND
func And(conds ...Expr) X {
	return X{Expr: joined{sep: " AND ", exprs: conds}}
}

// Or joins conditions with OR
func Or(conds ...Expr) X {
	return X{Expr: joined{sep: " OR ", exprs: conds}}
}

// Not negates a condition
func Not(cond Expr) X {
	return X{Expr: not{cond: cond}}
}

type joined struct {
	sep   string
	exprs []Expr
}

func (j joined) Build(b *Builder) error {
	if len(j.exprs) == 0 {
		return fmt.Errorf("empty condition list")
	}
	b.WriteString("(")
	for i, e := range j.exprs {
		if i > 0 {
			b.WriteString(j.sep)
		}
		if err := e.Build(b); err != nil {
			return err
		}
	}
	b.WriteString(")")
	return nil
}

type not struct {
	cond Expr
}

func (n not) Build(b *Builder) error {
	b.WriteString("NOT (")
	if err := n.cond.Build(b); err != nil {
		return err
	}
	b.WriteString(")")
	return nil
}
