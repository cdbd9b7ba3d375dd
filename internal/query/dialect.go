package query

import (
	"fmt"
	"reflect"
	"strings"
	"time"

	hybriderrors "github.com/shepherrrd/hybrid/internal/errors"
	"github.com/shepherrrd/hybrid/internal/expr"
)

// lhsMarker is replaced by the rendered left-hand side in operator templates
const lhsMarker = "{lhs}"

// operator renders one lookup: template holds {lhs} and one "?" per var returned by prepare.
type operator struct {
	template string
	prepare  func(v any) ([]any, error)
}

// Dialect maps lookups to engine SQL
type Dialect struct {
	name      string
	operators map[Lookup]operator
}

// Name returns the engine name the dialect renders for
func (d Dialect) Name() string {
	return d.name
}

// Supports reports whether the engine can render l
func (d Dialect) Supports(l Lookup) bool {
	if l == IsNull {
		return true
	}
	_, ok := d.operators[l]
	return ok
}

// Render writes "lhs <lookup> value" into b
func (d Dialect) Render(b *expr.Builder, lhs expr.Expr, l Lookup, value any) error {
	switch {
	case l == IsNull:
		isNull, ok := value.(bool)
		if !ok {
			return invalidValue(l, value, "expected a bool")
		}
		if err := lhs.Build(b); err != nil {
			return err
		}
		if isNull {
			b.WriteString(" IS NULL")
		} else {
			b.WriteString(" IS NOT NULL")
		}
		return nil
	case l == Exact && isNil(value):
		if err := lhs.Build(b); err != nil {
			return err
		}
		b.WriteString(" IS NULL")
		return nil
	case l == In:
		n, err := sequenceLen(value)
		if err != nil {
			return invalidValue(l, value, err.Error())
		}
		if n == 0 {
			b.WriteString("1 = 0")
			return nil
		}
	}

	op, ok := d.operators[l]
	if !ok {
		return fmt.Errorf("%w: %q on %s", hybriderrors.ErrUnsupportedLookup, l, d.name)
	}
	vars, err := op.prepare(value)
	if err != nil {
		return invalidValue(l, value, err.Error())
	}
	before, after, _ := strings.Cut(op.template, lhsMarker)
	b.WriteString(before)
	if err := lhs.Build(b); err != nil {
		return err
	}
	b.WriteSQL(after, vars...)
	return nil
}

var dialects = map[string]Dialect{}

func register(d Dialect) Dialect {
	dialects[d.name] = d
	return d
}

// DialectFor returns the dialect registered for an engine name
func DialectFor(name string) (Dialect, bool) {
	d, ok := dialects[name]
	return d, ok
}

func comparisons() map[Lookup]operator {
	return map[Lookup]operator{
		Exact: {"{lhs} = ?", single},
		GT:    {"{lhs} > ?", single},
		GTE:   {"{lhs} >= ?", single},
		LT:    {"{lhs} < ?", single},
		LTE:   {"{lhs} <= ?", single},
		In:    {"{lhs} IN ?", sequence},
		Range: {"{lhs} BETWEEN ? AND ?", pair},
	}
}

func with(base map[Lookup]operator, extra map[Lookup]operator) map[Lookup]operator {
	for l, op := range extra {
		base[l] = op
	}
	return base
}

// SQLite has no case-sensitive LIKE by default, so the case-sensitive pattern lookups use GLOB.
// REGEXP needs the regexp function registered on the connection.
var SQLite = register(Dialect{
	name: expr.SQLite,
	operators: with(comparisons(), map[Lookup]operator{
		IExact:      {`{lhs} LIKE ? ESCAPE '\'`, like("", "")},
		Contains:    {"{lhs} GLOB ?", glob("*", "*")},
		IContains:   {`{lhs} LIKE ? ESCAPE '\'`, like("%", "%")},
		StartsWith:  {"{lhs} GLOB ?", glob("", "*")},
		IStartsWith: {`{lhs} LIKE ? ESCAPE '\'`, like("", "%")},
		EndsWith:    {"{lhs} GLOB ?", glob("*", "")},
		IEndsWith:   {`{lhs} LIKE ? ESCAPE '\'`, like("%", "")},
		Regex:       {"{lhs} REGEXP ?", pattern("")},
		IRegex:      {"{lhs} REGEXP ?", pattern("(?i)")},
		Date:        {"DATE({lhs}) = ?", date},
		Year:        {"CAST(STRFTIME('%Y', {lhs}) AS INTEGER) = ?", integer},
		Month:       {"CAST(STRFTIME('%m', {lhs}) AS INTEGER) = ?", integer},
		Day:         {"CAST(STRFTIME('%d', {lhs}) AS INTEGER) = ?", integer},
	}),
})

// Postgres renders pattern lookups over the text cast of the left side
var Postgres = register(Dialect{
	name: expr.Postgres,
	operators: with(comparisons(), map[Lookup]operator{
		IExact:      {"UPPER({lhs}::text) = UPPER(?)", single},
		Contains:    {"{lhs}::text LIKE ?", like("%", "%")},
		IContains:   {"UPPER({lhs}::text) LIKE UPPER(?)", like("%", "%")},
		StartsWith:  {"{lhs}::text LIKE ?", like("", "%")},
		IStartsWith: {"UPPER({lhs}::text) LIKE UPPER(?)", like("", "%")},
		EndsWith:    {"{lhs}::text LIKE ?", like("%", "")},
		IEndsWith:   {"UPPER({lhs}::text) LIKE UPPER(?)", like("%", "")},
		Regex:       {"{lhs}::text ~ ?", pattern("")},
		IRegex:      {"{lhs}::text ~* ?", pattern("")},
		Date:        {"({lhs})::date = ?", date},
		Year:        {"EXTRACT(YEAR FROM {lhs}) = ?", integer},
		Month:       {"EXTRACT(MONTH FROM {lhs}) = ?", integer},
		Day:         {"EXTRACT(DAY FROM {lhs}) = ?", integer},
		Search:      {"to_tsvector({lhs}::text) @@ plainto_tsquery(?)", single},
	}),
})

// MySQL compares with the column collation unless BINARY forces a byte comparison
var MySQL = register(Dialect{
	name: expr.MySQL,
	operators: with(comparisons(), map[Lookup]operator{
		IExact:      {"{lhs} LIKE ?", like("", "")},
		Contains:    {"{lhs} LIKE BINARY ?", like("%", "%")},
		IContains:   {"{lhs} LIKE ?", like("%", "%")},
		StartsWith:  {"{lhs} LIKE BINARY ?", like("", "%")},
		IStartsWith: {"{lhs} LIKE ?", like("", "%")},
		EndsWith:    {"{lhs} LIKE BINARY ?", like("%", "")},
		IEndsWith:   {"{lhs} LIKE ?", like("%", "")},
		Regex:       {"REGEXP_LIKE({lhs}, ?, 'c')", pattern("")},
		IRegex:      {"REGEXP_LIKE({lhs}, ?, 'i')", pattern("")},
		Date:        {"DATE({lhs}) = ?", date},
		Year:        {"YEAR({lhs}) = ?", integer},
		Month:       {"MONTH({lhs}) = ?", integer},
		Day:         {"DAYOFMONTH({lhs}) = ?", integer},
		Search:      {"MATCH ({lhs}) AGAINST (? IN NATURAL LANGUAGE MODE)", single},
	}),
})

func invalidValue(l Lookup, value any, reason string) error {
	return fmt.Errorf("%w: %s got %#v: %s", hybriderrors.ErrInvalidLookupValue, l, value, reason)
}

func single(v any) ([]any, error) {
	return []any{v}, nil
}

func sequence(v any) ([]any, error) {
	n, err := sequenceLen(v)
	if err != nil {
		return nil, err
	}
	rv := reflect.ValueOf(v)
	values := make([]any, n)
	for i := 0; i < n; i++ {
		values[i] = rv.Index(i).Interface()
	}
	return []any{values}, nil
}

func pair(v any) ([]any, error) {
	n, err := sequenceLen(v)
	if err != nil {
		return nil, err
	}
	if n != 2 {
		return nil, fmt.Errorf("expected two bounds, got %d", n)
	}
	rv := reflect.ValueOf(v)
	return []any{rv.Index(0).Interface(), rv.Index(1).Interface()}, nil
}

func sequenceLen(v any) (int, error) {
	if v == nil {
		return 0, fmt.Errorf("expected a slice or array")
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		if _, isBytes := v.([]byte); isBytes {
			return 0, fmt.Errorf("expected a slice or array")
		}
		return rv.Len(), nil
	}
	return 0, fmt.Errorf("expected a slice or array")
}

func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Interface:
		return rv.IsNil()
	}
	return false
}

// text mirrors how pattern lookups stringify non-string values
func text(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case fmt.Stringer:
		return t.String()
	}
	return fmt.Sprint(v)
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func like(prefix, suffix string) func(v any) ([]any, error) {
	return func(v any) ([]any, error) {
		if isNil(v) {
			return nil, fmt.Errorf("pattern lookups need a value")
		}
		return []any{prefix + likeEscaper.Replace(text(v)) + suffix}, nil
	}
}

var globEscaper = strings.NewReplacer(`[`, `[[]`, `*`, `[*]`, `?`, `[?]`)

func glob(prefix, suffix string) func(v any) ([]any, error) {
	return func(v any) ([]any, error) {
		if isNil(v) {
			return nil, fmt.Errorf("pattern lookups need a value")
		}
		return []any{prefix + globEscaper.Replace(text(v)) + suffix}, nil
	}
}

func pattern(flags string) func(v any) ([]any, error) {
	return func(v any) ([]any, error) {
		s, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("expected a regular expression string")
		}
		return []any{flags + s}, nil
	}
}

func date(v any) ([]any, error) {
	switch t := v.(type) {
	case time.Time:
		return []any{t.Format(time.DateOnly)}, nil
	case *time.Time:
		if t != nil {
			return []any{t.Format(time.DateOnly)}, nil
		}
	case string:
		if _, err := time.Parse(time.DateOnly, t); err != nil {
			return nil, fmt.Errorf("expected YYYY-MM-DD: %v", err)
		}
		return []any{t}, nil
	}
	return nil, fmt.Errorf("expected a time.Time or YYYY-MM-DD string")
}

func integer(v any) ([]any, error) {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return []any{rv.Int()}, nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return []any{int64(rv.Uint())}, nil
	}
	return nil, fmt.Errorf("expected an integer")
}
