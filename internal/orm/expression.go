package orm

import (
	"fmt"

	hybriderrors "github.com/shepherrrd/hybrid/internal/errors"
	"github.com/shepherrrd/hybrid/internal/expr"
	"github.com/shepherrrd/hybrid/internal/query"
)

// Intent records whether a comparison selects (filter) or rejects (exclude) rows
type Intent int

const (
	IntentFilter Intent = iota
	IntentExclude
)

func (i Intent) String() string {
	if i == IntentExclude {
		return "exclude"
	}
	return "filter"
}

// Negate returns the opposite intent
func (i Intent) Negate() Intent {
	if i == IntentExclude {
		return IntentFilter
	}
	return IntentExclude
}

// ExprFunc computes the query-side expression of a property. through is either empty or a
// relation path ending in the separator, ready to be prepended to field names.
type ExprFunc func(args Args, through string) expr.Expr

// Expression is a deferred call to a property's query-side computation. Comparing it with a
// lookup builder produces a Result; passing it to Annotate adds it as a computed column.
type Expression struct {
	property   string
	compute    ExprFunc
	args       Args
	through    string
	alias      string
	ignoreCase bool
	intent     Intent
	err        error
}

func newExpression(property string, compute ExprFunc, throughSupported bool, in []any) *Expression {
	opts := collect(in)
	e := &Expression{
		property:   property,
		compute:    compute,
		args:       opts.args,
		alias:      property,
		ignoreCase: opts.ignoreCase,
		intent:     IntentFilter,
	}
	if opts.aliasSet {
		e.alias = opts.alias
		if e.alias == "" {
			e.err = hybriderrors.Usagef("Alias", property, hybriderrors.ErrUnsupportedArgument, "alias must not be empty")
		}
	}
	if opts.throughSet && e.err == nil {
		through, err := normalizeThrough(opts.through)
		switch {
		case err != nil:
			e.err = err
		case through != "" && !throughSupported:
			e.err = hybriderrors.NewUsageError("Through", opts.through, hybriderrors.ErrThroughUnsupported)
		default:
			e.through = through
		}
	}
	return e
}

// failedExpression carries an access error until the expression is used
func failedExpression(property string, err error) *Expression {
	return &Expression{property: property, alias: property, err: err}
}

// Property returns the name of the property the expression was created from
func (e *Expression) Property() string { return e.property }

// Alias returns the annotation alias
func (e *Expression) Alias() string { return e.alias }

// IgnoreCase reports whether lookups use their case-insensitive variant
func (e *Expression) IgnoreCase() bool { return e.ignoreCase }

// Intent returns the current intent
func (e *Expression) Intent() Intent { return e.intent }

// Args returns the arguments forwarded to the computation
func (e *Expression) Args() Args { return e.args }

// Through returns the normalized relation prefix ("" or "person__")
func (e *Expression) Through() string { return e.through }

// Err returns the error recorded while the expression was built
func (e *Expression) Err() error { return e.err }

// Call runs the computation with the captured arguments.
func (e *Expression) Call() (expr.Expr, error) {
	if e.err != nil {
		return nil, e.err
	}
	if e.compute == nil {
		return nil, hybriderrors.NewUsageError("Call", e, hybriderrors.ErrExpressionNotRegistered)
	}
	out := e.compute(e.args, e.through)
	if out == nil {
		return nil, fmt.Errorf("property %q returned a nil expression", e.property)
	}
	return out, nil
}

// Annotation returns the alias and expression Annotate adds for this expression
func (e *Expression) Annotation() (string, expr.Expr, error) {
	out, err := e.Call()
	if err != nil {
		return "", nil, err
	}
	return e.alias, out, nil
}

// Not flips the intent in place and returns the same expression.
func (e *Expression) Not() *Expression {
	e.intent = e.intent.Negate()
	return e
}

// Describe names the expression in error messages
func (e *Expression) Describe() string {
	return fmt.Sprintf("Expression(%s as %s)", e.property, e.alias)
}

func (e *Expression) result(l query.Lookup, value any) *Result {
	return &Result{expression: *e, lookup: l, value: value}
}

// Eq is the == comparison
func (e *Expression) Eq(value any) *Result { return e.result(query.Exact, value) }

func (e *Expression) Exact(value any) *Result { return e.result(query.Exact, value) }
func (e *Expression) IExact(value any) *Result { return e.result(query.IExact, value) }
func (e *Expression) GT(value any) *Result { return e.result(query.GT, value) }
func (e *Expression) GTE(value any) *Result { return e.result(query.GTE, value) }
func (e *Expression) LT(value any) *Result { return e.result(query.LT, value) }
func (e *Expression) LTE(value any) *Result { return e.result(query.LTE, value) }

func (e *Expression) Contains(value any) *Result { return e.result(query.Contains, value) }
func (e *Expression) IContains(value any) *Result { return e.result(query.IContains, value) }
func (e *Expression) StartsWith(value any) *Result { return e.result(query.StartsWith, value) }
func (e *Expression) IStartsWith(value any) *Result { return e.result(query.IStartsWith, value) }
func (e *Expression) EndsWith(value any) *Result { return e.result(query.EndsWith, value) }
func (e *Expression) IEndsWith(value any) *Result { return e.result(query.IEndsWith, value) }

// In matches any of values, which must be a slice or array
func (e *Expression) In(values any) *Result { return e.result(query.In, values) }

// Range matches lo <= x <= hi
func (e *Expression) Range(lo, hi any) *Result { return e.result(query.Range, []any{lo, hi}) }

// IsNull matches NULL (true) or non-NULL (false) values
func (e *Expression) IsNull(isNull bool) *Result { return e.result(query.IsNull, isNull) }

func (e *Expression) Regex(pattern string) *Result { return e.result(query.Regex, pattern) }
func (e *Expression) IRegex(pattern string) *Result { return e.result(query.IRegex, pattern) }

// Date compares the date part with a time.Time or a YYYY-MM-DD string
func (e *Expression) Date(value any) *Result { return e.result(query.Date, value) }

func (e *Expression) Year(year int) *Result { return e.result(query.Year, year) }
func (e *Expression) Month(month int) *Result { return e.result(query.Month, month) }
func (e *Expression) Day(day int) *Result { return e.result(query.Day, day) }

// Search runs the engine's full-text match
func (e *Expression) Search(terms string) *Result { return e.result(query.Search, terms) }

// Lookup builds a Result for a lookup given by name
func (e *Expression) Lookup(name string, value any) *Result {
	l, ok := query.ParseLookup(name)
	if !ok {
		r := e.result(query.Lookup(name), value)
		if r.expression.err == nil {
			r.expression.err = hybriderrors.Usagef("Lookup", name, hybriderrors.ErrUnsupportedLookup, "%q", name)
		}
		return r
	}
	return e.result(l, value)
}
