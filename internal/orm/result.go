package orm

import (
	"fmt"

	"github.com/shepherrrd/hybrid/internal/expr"
	"github.com/shepherrrd/hybrid/internal/query"
)

// Result is an Expression paired with exactly one lookup and a comparison value.
type Result struct {
	expression Expression
	lookup     query.Lookup
	value      any
}

func (r *Result) Property() string { return r.expression.property }
func (r *Result) Alias() string { return r.expression.alias }
func (r *Result) IgnoreCase() bool { return r.expression.ignoreCase }
func (r *Result) Intent() Intent { return r.expression.intent }
func (r *Result) Lookup() query.Lookup { return r.lookup }
func (r *Result) Value() any { return r.value }
func (r *Result) Err() error { return r.expression.err }

// Expression returns a copy of the expression the result compares
func (r *Result) Expression() *Expression {
	e := r.expression
	return &e
}

// LookupKey is alias + separator + the lookup, with an "i" prefix when the case is ignored:
// total_notes__gt, full_name__iexact.
func (r *Result) LookupKey() string {
	lookup := string(r.lookup)
	if r.expression.ignoreCase {
		lookup = "i" + lookup
	}
	return r.expression.alias + query.Separator + lookup
}

// Condition returns the filter keyword form of the result
func (r *Result) Condition() Lookups {
	return Lookups{r.LookupKey(): r.value}
}

// Annotation returns the alias and expression that must be annotated before Condition applies
func (r *Result) Annotation() (string, expr.Expr, error) {
	return r.expression.Annotation()
}

// Annotations returns Annotation as a map for Annotate
func (r *Result) Annotations() (Annotations, error) {
	alias, e, err := r.Annotation()
	if err != nil {
		return nil, err
	}
	return Annotations{alias: e}, nil
}

// WithIntent returns a copy of r with the given intent
func (r *Result) WithIntent(intent Intent) *Result {
	out := *r
	out.expression.intent = intent
	return &out
}

// Describe names the result in error messages
func (r *Result) Describe() string {
	return fmt.Sprintf("Result(%s=%#v, %s)", r.LookupKey(), r.value, r.Intent())
}

// Builder is the query surface a Result applies itself to.
type Builder[S any] interface {
	Annotate(args ...any) S
	Filter(args ...any) S
	Exclude(args ...any) S
	AddError(err error) S
}

// Apply annotates qs with the result's expression, then filters or excludes by its condition
// according to the result's intent.
func Apply[S Builder[S]](qs S, r *Result) S {
	if r == nil {
		return qs
	}
	annotations, err := r.Annotations()
	if err != nil {
		return qs.AddError(err)
	}
	qs = qs.Annotate(annotations)
	if r.Intent() == IntentExclude {
		return qs.Exclude(r.Condition())
	}
	return qs.Filter(r.Condition())
}
