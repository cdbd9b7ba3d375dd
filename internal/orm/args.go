package orm

import (
	"fmt"
	"sort"
	"strings"

	hybriderrors "github.com/shepherrrd/hybrid/internal/errors"
	"github.com/shepherrrd/hybrid/internal/expr"
	"github.com/shepherrrd/hybrid/internal/query"
)

// Args are the arguments a property was called with, minus the reserved options.
type Args struct {
	Positional []any
	Keywords   map[string]any
}

// Len returns the total number of arguments
func (a Args) Len() int {
	return len(a.Positional) + len(a.Keywords)
}

// Get returns the keyword argument name, or else the positional argument at pos (pos < 0 skips it).
func (a Args) Get(name string, pos int) (any, bool) {
	if v, ok := a.Keywords[name]; ok {
		return v, true
	}
	if pos >= 0 && pos < len(a.Positional) {
		return a.Positional[pos], true
	}
	return nil, false
}

// Int returns an integer argument or def
func (a Args) Int(name string, pos int, def int) int {
	v, ok := a.Get(name, pos)
	if !ok {
		return def
	}
	switch n := v.(type) {
	case int:
		return n
	case int8:
		return int(n)
	case int16:
		return int(n)
	case int32:
		return int(n)
	case int64:
		return int(n)
	case uint:
		return int(n)
	case uint32:
		return int(n)
	case float64:
		return int(n)
	}
	return def
}

// String returns a string argument or def
func (a Args) String(name string, pos int, def string) string {
	v, ok := a.Get(name, pos)
	if !ok {
		return def
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

// Option is a reserved argument consumed by Expr instead of being forwarded to the computation.
type Option interface {
	apply(*callOptions)
}

type optionFunc func(*callOptions)

func (f optionFunc) apply(o *callOptions) { f(o) }

type callOptions struct {
	args       Args
	alias      string
	aliasSet   bool
	ignoreCase bool
	through    string
	throughSet bool
}

// Alias overrides the annotation alias, which defaults to the property name
func Alias(name string) Option {
	return optionFunc(func(o *callOptions) {
		o.alias = name
		o.aliasSet = true
	})
}

// IgnoreCase switches the lookup to its case-insensitive variant
func IgnoreCase() Option {
	return optionFunc(func(o *callOptions) {
		o.ignoreCase = true
	})
}

// Through prefixes every field the computation references with a relation path, e.g. "person".
func Through(path string) Option {
	return optionFunc(func(o *callOptions) {
		o.through = path
		o.throughSet = true
	})
}

// Kw passes a keyword argument to the property
func Kw(name string, value any) Option {
	return optionFunc(func(o *callOptions) {
		if o.args.Keywords == nil {
			o.args.Keywords = make(map[string]any)
		}
		o.args.Keywords[name] = value
	})
}

func collect(in []any) callOptions {
	var o callOptions
	for _, arg := range in {
		if opt, ok := arg.(Option); ok {
			opt.apply(&o)
			continue
		}
		o.args.Positional = append(o.args.Positional, arg)
	}
	return o
}

// normalizeThrough validates a relation prefix and appends the separator
func normalizeThrough(path string) (string, error) {
	if path == "" {
		return "", nil
	}
	if strings.HasPrefix(path, query.Separator) || strings.HasSuffix(path, query.Separator) {
		return "", hybriderrors.Usagef("Through", path, hybriderrors.ErrInvalidThrough,
			"%q must not start or end with %q", path, query.Separator)
	}
	return path + query.Separator, nil
}

// Lookups is the keyword form of filter arguments: "path__lookup" -> value.
type Lookups map[string]any

// Annotations maps aliases to expressions for Annotate
type Annotations map[string]expr.Expr

// SortedKeys returns the keys of m in lexical order
func SortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
