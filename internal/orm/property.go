package orm

import (
	"fmt"
	"reflect"
	"strings"

	hybriderrors "github.com/shepherrrd/hybrid/internal/errors"
	"github.com/shepherrrd/hybrid/internal/expr"
	"github.com/shepherrrd/hybrid/internal/logging"
	"github.com/shepherrrd/hybrid/internal/models"
)

// AccessMode tells whether a property was reached through an instance or through its model type
type AccessMode int

const (
	InstanceAccess AccessMode = iota
	TypeAccess
)

func (m AccessMode) String() string {
	if m == TypeAccess {
		return "type"
	}
	return "instance"
}

// Factory builds Expressions for a property
type Factory func(args ...any) *Expression

const reservedOptionsDoc = `Query options:
  Alias(name)    annotate under name instead of the property name
  IgnoreCase()   use the case-insensitive variant of the lookup
  Through(path)  reach the fields through a relation path such as "person"`

// Property pairs a value-side computation on *M with a query-side expression computation.
// Declare it with NewProperty, then register the query side with Expression.
type Property[M any, R any] struct {
	name             string
	doc              string
	value            func(m *M, args Args) R
	compute          ExprFunc
	throughSupported bool
}

// NewProperty declares a property of model M named name.
func NewProperty[M any, R any](name string, value func(m *M, args Args) R) *Property[M, R] {
	p := &Property[M, R]{name: name, value: value}
	models.RegisterProperty(reflect.TypeFor[M](), p)
	return p
}

// WithDoc sets the documentation shared by both sides
func (p *Property[M, R]) WithDoc(doc string) *Property[M, R] {
	p.doc = strings.TrimSpace(doc)
	return p
}

// Expression registers the query-side computation.
func (p *Property[M, R]) Expression(fn func(args Args, through string) expr.Expr) *Property[M, R] {
	p.compute = fn
	p.throughSupported = true
	return p
}

// ExpressionWithoutThrough registers a query-side computation that cannot follow relations.
func (p *Property[M, R]) ExpressionWithoutThrough(fn func(args Args) expr.Expr) *Property[M, R] {
	logging.Warn("expression computation takes no through prefix, relation traversal is unsupported",
		"property", p.name, "model", reflect.TypeFor[M]().Name())
	p.compute = func(args Args, _ string) expr.Expr { return fn(args) }
	p.throughSupported = false
	return p
}

func (p *Property[M, R]) Name() string { return p.name }

// Registered reports whether the query side has been registered
func (p *Property[M, R]) Registered() bool { return p.compute != nil }

func (p *Property[M, R]) SupportsThrough() bool { return p.throughSupported }

// Doc returns the value-side documentation, extended with the query options once the query
// side is registered.
func (p *Property[M, R]) Doc() string {
	if !p.Registered() {
		return p.doc
	}
	if p.doc == "" {
		return reservedOptionsDoc
	}
	return p.doc + "\n\n" + reservedOptionsDoc
}

// Value computes the property on an instance. Reserved options are ignored.
func (p *Property[M, R]) Value(m *M, args ...any) R {
	return p.value(m, collect(args).args)
}

// Evaluate is Value for callers that only hold an untyped instance
func (p *Property[M, R]) Evaluate(instance any, args ...any) (any, error) {
	switch m := instance.(type) {
	case *M:
		return p.Value(m, args...), nil
	case M:
		return p.Value(&m, args...), nil
	}
	return nil, fmt.Errorf("property %q is declared on %s, got %T", p.name, reflect.TypeFor[M](), instance)
}

// Factory returns the expression factory used on the type side.
func (p *Property[M, R]) Factory() (Factory, error) {
	if !p.Registered() {
		return nil, hybriderrors.Usagef("Factory", p.name, hybriderrors.ErrExpressionNotRegistered,
			"property %q", p.name)
	}
	compute, through := p.compute, p.throughSupported
	return func(args ...any) *Expression {
		return newExpression(p.name, compute, through, args)
	}, nil
}

// Expr builds an Expression. An unregistered query side is reported when the expression is used.
func (p *Property[M, R]) Expr(args ...any) *Expression {
	factory, err := p.Factory()
	if err != nil {
		return failedExpression(p.name, err)
	}
	return factory(args...)
}

// Access resolves the property for m: a non-nil instance gets the bound value computation,
// nil gets the expression factory.
func (p *Property[M, R]) Access(m *M) Accessor[M, R] {
	if m != nil {
		return Accessor[M, R]{mode: InstanceAccess, bound: func(args ...any) R { return p.Value(m, args...) }}
	}
	factory, err := p.Factory()
	return Accessor[M, R]{mode: TypeAccess, factory: factory, err: err}
}

// Accessor is the tagged outcome of Property.Access
type Accessor[M any, R any] struct {
	mode    AccessMode
	bound   func(args ...any) R
	factory Factory
	err     error
}

func (a Accessor[M, R]) Mode() AccessMode { return a.mode }

// Value calls the bound value computation
func (a Accessor[M, R]) Value(args ...any) (R, error) {
	if a.mode != InstanceAccess {
		var zero R
		return zero, fmt.Errorf("property accessed through its type has no instance value")
	}
	return a.bound(args...), nil
}

// Expr calls the expression factory
func (a Accessor[M, R]) Expr(args ...any) (*Expression, error) {
	if a.mode != TypeAccess {
		return nil, fmt.Errorf("property accessed through an instance has no query expression")
	}
	if a.err != nil {
		return nil, a.err
	}
	return a.factory(args...), nil
}
