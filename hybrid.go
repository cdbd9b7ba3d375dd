// Package hybrid lets gorm models declare properties that work both on a loaded record and inside
// a query. The value side runs in Go; the expression side compiles to SQL so the same property can
// be annotated, filtered and excluded on.
package hybrid

import (
	"context"
	"fmt"
	"reflect"

	dbcontext "github.com/shepherrrd/hybrid/internal/context"
	"github.com/shepherrrd/hybrid/internal/drivers"
	hybriderrors "github.com/shepherrrd/hybrid/internal/errors"
	"github.com/shepherrrd/hybrid/internal/expr"
	"github.com/shepherrrd/hybrid/internal/orm"
	"github.com/shepherrrd/hybrid/internal/queryset"
)

type DbContext = dbcontext.DbContext
type Options = dbcontext.DbContextOptions

type Property[M any, R any] = orm.Property[M, R]
type Accessor[M any, R any] = orm.Accessor[M, R]
type QuerySet[T any] = queryset.QuerySet[T]
type Manager[T any] = queryset.Manager[T]

type Expression = orm.Expression
type Result = orm.Result
type Q = orm.Q
type Args = orm.Args
type Lookups = orm.Lookups
type Annotations = orm.Annotations
type Option = orm.Option
type Intent = orm.Intent

type Expr = expr.Expr
type X = expr.X

const (
	IntentFilter  = orm.IntentFilter
	IntentExclude = orm.IntentExclude
)

var (
	ErrExpressionNotRegistered = hybriderrors.ErrExpressionNotRegistered
	ErrNotAResult              = hybriderrors.ErrNotAResult
	ErrNotAnExpression         = hybriderrors.ErrNotAnExpression
	ErrInvalidThrough          = hybriderrors.ErrInvalidThrough
	ErrThroughUnsupported      = hybriderrors.ErrThroughUnsupported
	ErrUnsupportedLookup       = hybriderrors.ErrUnsupportedLookup
	ErrInvalidLookupValue      = hybriderrors.ErrInvalidLookupValue
	ErrUnknownField            = hybriderrors.ErrUnknownField
	ErrAliasConflict           = hybriderrors.ErrAliasConflict
	ErrUnsupportedArgument     = hybriderrors.ErrUnsupportedArgument
)

// NewDbContext opens connectionString with the named driver: sqlite, postgres or mysql.
func NewDbContext(connectionString string, driverType string) (*DbContext, error) {
	driver, err := drivers.ByName(driverType)
	if err != nil {
		return nil, err
	}
	return dbcontext.NewDbContext(Options{
		ConnectionString: connectionString,
		Driver:           driver,
	})
}

func NewDbContextWithOptions(options Options) (*DbContext, error) {
	return dbcontext.NewDbContext(options)
}

// Objects registers T with ctx and returns its manager
func Objects[T any](ctx *DbContext) (*Manager[T], error) {
	var zero T
	model, err := ctx.RegisterEntity(zero)
	if err != nil {
		return nil, fmt.Errorf("failed to register %s: %w", reflect.TypeOf(zero), err)
	}
	return queryset.NewManager[T](ctx.GetDB(), ctx.GetDriver().Dialect(), model), nil
}

// NewProperty declares a hybrid property on M
func NewProperty[M any, R any](name string, value func(m *M, args Args) R) *Property[M, R] {
	return orm.NewProperty(name, value)
}

// NewQ builds a compound predicate from Results, Lookups and other Qs
func NewQ(args ...any) *Q { return orm.NewQ(args...) }

func Alias(name string) Option { return orm.Alias(name) }
func IgnoreCase() Option { return orm.IgnoreCase() }
func Through(path string) Option { return orm.Through(path) }
func Kw(name string, v any) Option { return orm.Kw(name, v) }

// Apply annotates qs with r's expression and filters or excludes by r's condition
func Apply[T any](qs *QuerySet[T], r *Result) *QuerySet[T] { return orm.Apply(qs, r) }

// Pluck returns one field or annotation of every row
func Pluck[V any, T any](ctx context.Context, qs *QuerySet[T], field string) ([]V, error) {
	return queryset.Pluck[V](ctx, qs, field)
}

func F(path string) X { return expr.F(path) }
func Value(v any) X { return expr.Value(v) }
func Raw(sql string, vars ...any) X { return expr.Raw(sql, vars...) }
func Func(name string, args ...any) X { return expr.Func(name, args...) }
func Concat(parts ...any) X { return expr.Concat(parts...) }
func Lower(arg any) X { return expr.Lower(arg) }
func Upper(arg any) X { return expr.Upper(arg) }
func When(cond Expr, then any) expr.WhenClause { return expr.When(cond, then) }
func Case(whens ...expr.WhenClause) expr.CaseExpr { return expr.Case(whens...) }
func As(alias string, e Expr) expr.Named { return expr.As(alias, e) }
