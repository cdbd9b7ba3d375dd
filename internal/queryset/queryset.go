// Package queryset is the query builder hybrid properties plug into. Filter, Exclude and Annotate
// recognise Expressions, Results and Q predicates and expand them into an annotation followed by
// a condition on the annotated alias; every other argument keeps its native gorm meaning.
package queryset

import (
	"errors"
	"slices"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	hybriderrors "github.com/shepherrrd/hybrid/internal/errors"
	"github.com/shepherrrd/hybrid/internal/expr"
	"github.com/shepherrrd/hybrid/internal/models"
	"github.com/shepherrrd/hybrid/internal/orm"
	"github.com/shepherrrd/hybrid/internal/query"
)

type annotation struct {
	alias string
	expr  expr.Expr
}

type join struct {
	alias string
	sql   string
	vars  []any
}

type ordering struct {
	path string
	desc bool
}

// QuerySet is an immutable query over model T. Every chained call returns a new QuerySet.
// Construction errors are kept and returned by the terminal methods.
type QuerySet[T any] struct {
	db          *gorm.DB
	dialect     query.Dialect
	model       *models.EntityModel
	annotations []annotation
	conds       []clause.Expression
	joins       []join
	refs        []string // join aliases referenced by the condition being rendered
	order       []ordering
	limit       int
	offset      int
	err         error
}

func New[T any](db *gorm.DB, dialect query.Dialect, model *models.EntityModel) *QuerySet[T] {
	return &QuerySet[T]{
		db:      db,
		dialect: dialect,
		model:   model,
		limit:   -1,
		offset:  -1,
	}
}

func (qs *QuerySet[T]) clone() *QuerySet[T] {
	out := *qs
	out.annotations = append([]annotation(nil), qs.annotations...)
	out.conds = append([]clause.Expression(nil), qs.conds...)
	out.joins = append([]join(nil), qs.joins...)
	out.refs = nil
	out.order = append([]ordering(nil), qs.order...)
	return &out
}

func (qs *QuerySet[T]) addError(err error) {
	if err != nil {
		qs.err = errors.Join(qs.err, err)
	}
}

// Err - returns the errors recorded while the query was built
func (qs *QuerySet[T]) Err() error {
	return qs.err
}

// AddError - returns a copy of the QuerySet carrying err
func (qs *QuerySet[T]) AddError(err error) *QuerySet[T] {
	out := qs.clone()
	out.addError(err)
	return out
}

// Model - returns the metadata of T
func (qs *QuerySet[T]) Model() *models.EntityModel {
	return qs.model
}

// All - returns a copy of the QuerySet
func (qs *QuerySet[T]) All() *QuerySet[T] {
	return qs.clone()
}

// Filter - keeps the rows matching every argument
func (qs *QuerySet[T]) Filter(args ...any) *QuerySet[T] {
	return qs.filterOrExclude(orm.IntentFilter, args)
}

// Exclude - drops the rows matching every argument
func (qs *QuerySet[T]) Exclude(args ...any) *QuerySet[T] {
	return qs.filterOrExclude(orm.IntentExclude, args)
}

// filterOrExclude splits the arguments into Results, Q predicates and everything else. Plain
// arguments apply first, then the annotations of every Q's Results followed by the Qs, then each
// Result with its intent set to the call's.
func (qs *QuerySet[T]) filterOrExclude(intent orm.Intent, args []any) *QuerySet[T] {
	op := intent.String()
	var (
		results   []*orm.Result
		compounds []any
		common    []any
	)
	for _, arg := range args {
		switch v := arg.(type) {
		case *orm.Result:
			if v == nil {
				continue
			}
			results = append(results, v.WithIntent(intent))
		case *orm.Q:
			if v == nil {
				continue
			}
			compounds = append(compounds, v)
		case *orm.Expression:
			return qs.AddError(hybriderrors.NewUsageError(op, v, hybriderrors.ErrNotAResult))
		default:
			common = append(common, arg)
		}
	}

	out := qs.clone()
	out.where(op, intent, common)

	for _, c := range compounds {
		for _, r := range c.(*orm.Q).Results() {
			annotations, err := r.Annotations()
			if err != nil {
				out.addError(err)
				continue
			}
			out = out.Annotate(annotations)
		}
	}
	out.where(op, intent, compounds)

	for _, r := range results {
		out = orm.Apply(out, r)
	}
	return out
}

// where adds one condition group for args, negated for exclude. An excluded group that reaches
// through a relation becomes a primary key subquery, so rows without a related row stay and a
// parent with any matching child goes. Joins only that subquery needs are not kept on qs.
func (qs *QuerySet[T]) where(op string, intent orm.Intent, args []any) {
	before := len(qs.joins)
	qs.refs = nil
	defer func() { qs.refs = nil }()

	var exprs []clause.Expression
	for _, arg := range args {
		conds, err := qs.condition(op, arg)
		if err != nil {
			qs.addError(err)
			continue
		}
		exprs = append(exprs, conds...)
	}
	if len(exprs) == 0 {
		qs.pruneJoins(before)
		return
	}

	g := group{connector: orm.AND, exprs: exprs}
	switch {
	case intent != orm.IntentExclude:
		qs.conds = append(qs.conds, g)
	case len(qs.refs) == 0 || len(qs.model.PrimaryKey) == 0:
		g.negated = true
		qs.conds = append(qs.conds, g)
	default:
		qs.conds = append(qs.conds, qs.excluded(g, qs.refs))
		qs.refs = nil
	}
	qs.pruneJoins(before)
}

// pruneJoins drops the joins added since before that no rendered condition refers to
func (qs *QuerySet[T]) pruneJoins(before int) {
	kept := qs.joins[:before:before]
	for _, j := range qs.joins[before:] {
		if slices.Contains(qs.refs, j.alias) {
			kept = append(kept, j)
		}
	}
	qs.joins = kept
}

// Annotate - adds computed columns. Expressions are annotated under their alias first, then
// expr.Aliased values and Annotations maps.
func (qs *QuerySet[T]) Annotate(args ...any) *QuerySet[T] {
	out := qs.clone()
	var (
		pending     []annotation
		passthrough []any
	)
	for _, arg := range args {
		switch v := arg.(type) {
		case nil:
		case *orm.Expression:
			if v == nil {
				continue
			}
			alias, e, err := v.Annotation()
			if err != nil {
				out.addError(err)
				continue
			}
			pending = append(pending, annotation{alias: alias, expr: e})
		case *orm.Result:
			if v == nil {
				continue
			}
			return qs.AddError(hybriderrors.NewUsageError("annotate", v, hybriderrors.ErrNotAnExpression))
		default:
			passthrough = append(passthrough, arg)
		}
	}

	for _, arg := range passthrough {
		switch v := arg.(type) {
		case orm.Annotations:
			for _, alias := range orm.SortedKeys(v) {
				pending = append(pending, annotation{alias: alias, expr: v[alias]})
			}
		case map[string]expr.Expr:
			for _, alias := range orm.SortedKeys(v) {
				pending = append(pending, annotation{alias: alias, expr: v[alias]})
			}
		case expr.Aliased:
			pending = append(pending, annotation{alias: v.Alias(), expr: v})
		default:
			out.addError(hybriderrors.NewUsageError("annotate", arg, hybriderrors.ErrUnsupportedArgument))
		}
	}

	for _, a := range pending {
		out.addError(out.annotate(a))
	}
	return out
}

// annotate validates a and stores it, replacing an earlier annotation with the same alias
func (qs *QuerySet[T]) annotate(a annotation) error {
	if a.alias == "" {
		return hybriderrors.Usagef("annotate", a.expr, hybriderrors.ErrUnsupportedArgument, "empty alias")
	}
	if a.expr == nil {
		return hybriderrors.Usagef("annotate", a.alias, hybriderrors.ErrUnsupportedArgument, "nil expression")
	}
	if qs.model.HasColumn(a.alias) {
		return hybriderrors.Usagef("annotate", a.alias, hybriderrors.ErrAliasConflict,
			"%q is a column of %s", a.alias, qs.model.Name)
	}
	if _, _, err := qs.compile(a.expr); err != nil {
		return err
	}
	for i := range qs.annotations {
		if qs.annotations[i].alias == a.alias {
			qs.annotations[i] = a
			return nil
		}
	}
	qs.annotations = append(qs.annotations, a)
	return nil
}

func (qs *QuerySet[T]) lookupAnnotation(alias string) (annotation, bool) {
	for _, a := range qs.annotations {
		if a.alias == alias {
			return a, true
		}
	}
	return annotation{}, false
}

// Annotations - returns the annotation aliases in the order they were added
func (qs *QuerySet[T]) Annotations() []string {
	aliases := make([]string, len(qs.annotations))
	for i, a := range qs.annotations {
		aliases[i] = a.alias
	}
	return aliases
}

// OrderBy - sorts by fields or annotation aliases; a leading "-" sorts descending
func (qs *QuerySet[T]) OrderBy(fields ...string) *QuerySet[T] {
	out := qs.clone()
	out.order = nil
	for _, f := range fields {
		o := ordering{path: f}
		if len(f) > 0 && f[0] == '-' {
			o = ordering{path: f[1:], desc: true}
		}
		if _, _, err := out.compile(expr.F(o.path)); err != nil {
			out.addError(err)
			continue
		}
		out.order = append(out.order, o)
	}
	return out
}

// Limit - returns at most n rows
func (qs *QuerySet[T]) Limit(n int) *QuerySet[T] {
	out := qs.clone()
	out.limit = n
	return out
}

// Offset - skips the first n rows
func (qs *QuerySet[T]) Offset(n int) *QuerySet[T] {
	out := qs.clone()
	out.offset = n
	return out
}
