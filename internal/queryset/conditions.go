package queryset

import (
	"errors"
	"slices"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	hybriderrors "github.com/shepherrrd/hybrid/internal/errors"
	"github.com/shepherrrd/hybrid/internal/expr"
	"github.com/shepherrrd/hybrid/internal/orm"
	"github.com/shepherrrd/hybrid/internal/query"
)

// group joins conditions with a connector. Children are parenthesized so operator precedence
// inside a lookup never leaks into the tree.
type group struct {
	connector orm.Connector
	negated   bool
	exprs     []clause.Expression
}

func (g group) Build(builder clause.Builder) {
	if len(g.exprs) == 0 {
		builder.WriteString("1 = 1")
		return
	}
	if g.negated {
		builder.WriteString("NOT ")
	}
	builder.WriteByte('(')
	for i, e := range g.exprs {
		if i > 0 {
			builder.WriteString(" " + string(g.connector) + " ")
		}
		if _, nested := e.(group); nested || len(g.exprs) == 1 {
			e.Build(builder)
			continue
		}
		builder.WriteByte('(')
		e.Build(builder)
		builder.WriteByte(')')
	}
	builder.WriteByte(')')
}

// notIn matches the rows whose primary key is not selected by cond over the given joins
type notIn struct {
	table string
	pk    []string
	joins []join
	cond  clause.Expression
}

func (n notIn) Build(builder clause.Builder) {
	columns := func() {
		for i, name := range n.pk {
			if i > 0 {
				builder.WriteString(", ")
			}
			builder.WriteQuoted(clause.Column{Table: n.table, Name: name})
		}
	}
	if len(n.pk) > 1 {
		builder.WriteByte('(')
		columns()
		builder.WriteByte(')')
	} else {
		columns()
	}
	builder.WriteString(" NOT IN (SELECT ")
	columns()
	builder.WriteString(" FROM ")
	builder.WriteQuoted(clause.Table{Name: n.table})
	for _, j := range n.joins {
		builder.WriteByte(' ')
		clause.Expr{SQL: j.sql, Vars: j.vars}.Build(builder)
	}
	builder.WriteString(" WHERE ")
	n.cond.Build(builder)
	builder.WriteByte(')')
}

// excluded renders NOT g as a primary key subquery carrying the joins named in refs
func (qs *QuerySet[T]) excluded(g group, refs []string) clause.Expression {
	n := notIn{table: qs.model.TableName, pk: qs.model.PrimaryKey, cond: g}
	for _, j := range qs.joins {
		if slices.Contains(refs, j.alias) {
			n.joins = append(n.joins, j)
		}
	}
	return n
}

// condition converts one Filter/Exclude argument into clause expressions
func (qs *QuerySet[T]) condition(op string, arg any) ([]clause.Expression, error) {
	switch v := arg.(type) {
	case nil:
		return nil, nil
	case orm.Lookups:
		conds := make([]clause.Expression, 0, len(v))
		for _, key := range orm.SortedKeys(v) {
			cond, err := qs.renderLookup(op, key, v[key])
			if err != nil {
				return nil, err
			}
			conds = append(conds, cond)
		}
		return conds, nil
	case *orm.Q:
		cond, err := qs.renderQ(op, v)
		if err != nil {
			return nil, err
		}
		return []clause.Expression{cond}, nil
	case clause.Expression:
		return []clause.Expression{v}, nil
	default:
		return qs.native(op, arg)
	}
}

// native hands an argument to gorm's own condition builder: structs, maps, raw SQL strings.
func (qs *QuerySet[T]) native(op string, arg any) ([]clause.Expression, error) {
	tx := qs.db.Session(&gorm.Session{NewDB: true}).Model(new(T))
	conds := tx.Statement.BuildCondition(arg)
	if tx.Error != nil {
		return nil, hybriderrors.Usagef(op, arg, hybriderrors.ErrUnsupportedArgument, "%v", tx.Error)
	}
	if len(conds) == 0 {
		return nil, nil
	}
	return conds, nil
}

// renderLookup renders "path__lookup" = value. The path is an annotation alias or a field path.
func (qs *QuerySet[T]) renderLookup(op, key string, value any) (clause.Expression, error) {
	path, lookup, tail := query.SplitKey(key)

	b := expr.NewBuilder(qs.dialect.Name(), qs.resolver())
	err := qs.dialect.Render(b, expr.F(path), lookup, value)
	if err == nil {
		return clause.Expr{SQL: b.SQL(), Vars: b.Vars()}, nil
	}

	// "total_notes__igt": the prefix resolves, the last segment is not a lookup
	if tail != "" && errors.Is(err, hybriderrors.ErrUnknownField) {
		prefix := strings.TrimSuffix(path, query.Separator+tail)
		if _, _, perr := qs.compile(expr.F(prefix)); perr == nil {
			return nil, hybriderrors.Usagef(op, key, hybriderrors.ErrUnsupportedLookup, "%q", tail)
		}
	}
	if hybriderrors.IsUsageError(err) {
		return nil, err
	}
	sentinel := errors.Unwrap(err)
	if sentinel == nil {
		sentinel = hybriderrors.ErrUnsupportedArgument
	}
	return nil, hybriderrors.Usagef(op, key, sentinel, "%v", err)
}

// renderQ renders a Q tree
func (qs *QuerySet[T]) renderQ(op string, q *orm.Q) (clause.Expression, error) {
	if err := q.Err(); err != nil {
		return nil, err
	}
	outer := qs.refs
	qs.refs = nil

	g := group{connector: q.Connector(), negated: q.Negated()}
	for _, child := range q.Children() {
		switch c := child.(type) {
		case orm.Condition:
			cond, err := qs.renderLookup(op, c.Key, c.Value)
			if err != nil {
				return nil, err
			}
			g.exprs = append(g.exprs, cond)
		case *orm.Q:
			cond, err := qs.renderQ(op, c)
			if err != nil {
				return nil, err
			}
			g.exprs = append(g.exprs, cond)
		default:
			conds, err := qs.condition(op, c)
			if err != nil {
				return nil, err
			}
			switch len(conds) {
			case 0:
			case 1:
				g.exprs = append(g.exprs, conds[0])
			default:
				g.exprs = append(g.exprs, group{connector: orm.AND, exprs: conds})
			}
		}
	}

	if g.negated && len(qs.refs) > 0 && len(qs.model.PrimaryKey) > 0 {
		g.negated = false
		cond := qs.excluded(g, qs.refs)
		qs.refs = outer
		return cond, nil
	}
	qs.refs = append(outer, qs.refs...)
	return g, nil
}
