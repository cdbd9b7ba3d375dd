package expr

import (
	"fmt"
	"strings"
)

// fieldOrOperand treats bare strings as field references, the way F would.
func fieldOrOperand(v any) any {
	if s, ok := v.(string); ok {
		return field{path: s}
	}
	return v
}

// Func calls a SQL function. String arguments are field references; wrap literals with Value.
func Func(name string, args ...any) X {
	operands := make([]any, len(args))
	for i, a := range args {
		operands[i] = fieldOrOperand(a)
	}
	return X{Expr: function{name: name, args: operands}}
}

func Lower(arg any) X { return Func("LOWER", arg) }
func Upper(arg any) X { return Func("UPPER", arg) }
func Length(arg any) X { return Func("LENGTH", arg) }
func Abs(arg any) X { return Func("ABS", arg) }
func Coalesce(args ...any) X { return Func("COALESCE", args...) }
func Greatest(args ...any) X { return Func("GREATEST", args...) }
func Least(args ...any) X { return Func("LEAST", args...) }
func Nullif(arg any, other any) X { return Func("NULLIF", arg, other) }

type function struct {
	name string
	args []any
}

func (f function) Build(b *Builder) error {
	name := f.name
	// sqlite spells the n-ary min/max as MAX/MIN
	if b.Dialect() == SQLite {
		switch name {
		case "GREATEST":
			name = "MAX"
		case "LEAST":
			name = "MIN"
		}
	}
	b.WriteString(name + "(")
	for i, a := range f.args {
		if i > 0 {
			b.WriteString(", ")
		}
		if err := b.Build(a); err != nil {
			return err
		}
	}
	b.WriteString(")")
	return nil
}

// Concat joins its parts as text, treating NULL parts as empty strings.
// String parts are field references; wrap literals with Value.
func Concat(parts ...any) X {
	operands := make([]any, len(parts))
	for i, p := range parts {
		operands[i] = fieldOrOperand(p)
	}
	return X{Expr: concat{parts: operands}}
}

type concat struct {
	parts []any
}

func (c concat) Build(b *Builder) error {
	if len(c.parts) == 0 {
		return fmt.Errorf("concat needs at least one part")
	}
	switch b.Dialect() {
	case Postgres:
		b.WriteString("CONCAT(")
		for i, p := range c.parts {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString("(")
			if err := b.Build(p); err != nil {
				return err
			}
			b.WriteString(")::text")
		}
		b.WriteString(")")
	case MySQL:
		b.WriteString("CONCAT_WS(''")
		for _, p := range c.parts {
			b.WriteString(", ")
			if err := b.Build(p); err != nil {
				return err
			}
		}
		b.WriteString(")")
	default:
		b.WriteString("(")
		for i, p := range c.parts {
			if i > 0 {
				b.WriteString(" || ")
			}
			b.WriteString("COALESCE(")
			if err := b.Build(p); err != nil {
				return err
			}
			b.WriteString(", '')")
		}
		b.WriteString(")")
	}
	return nil
}

// WhenClause is one branch of a Case
type WhenClause struct {
	cond Expr
	then any
}

// When pairs a condition with the value Case yields when it holds
func When(cond Expr, then any) WhenClause {
	return WhenClause{cond: cond, then: then}
}

// CaseExpr renders a searched CASE
type CaseExpr struct {
	whens []WhenClause
	def   any
	isDef bool
}

// Case builds CASE WHEN ... END. Without Else unmatched rows yield NULL.
func Case(whens ...WhenClause) CaseExpr {
	return CaseExpr{whens: whens}
}

// Else sets the default value
func (c CaseExpr) Else(v any) CaseExpr {
	c.def = v
	c.isDef = true
	return c
}

func (c CaseExpr) Build(b *Builder) error {
	if len(c.whens) == 0 {
		return fmt.Errorf("case needs at least one when clause")
	}
	b.WriteString("CASE")
	for _, w := range c.whens {
		b.WriteString(" WHEN ")
		if err := w.cond.Build(b); err != nil {
			return err
		}
		b.WriteString(" THEN ")
		if err := b.Build(w.then); err != nil {
			return err
		}
	}
	if c.isDef {
		b.WriteString(" ELSE ")
		if err := b.Build(c.def); err != nil {
			return err
		}
	}
	b.WriteString(" END")
	return nil
}

// Aliased is an expression that carries the alias it is annotated under.
type Aliased interface {
	Expr
	Alias() string
}

// Named pairs an expression with an alias
type Named struct {
	Expr
	alias string
}

// As names an expression for Annotate
func As(alias string, e Expr) Named {
	return Named{Expr: e, alias: strings.TrimSpace(alias)}
}

// Alias returns the annotation alias
func (n Named) Alias() string {
	return n.alias
}
