package expr_test

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shepherrrd/hybrid/internal/expr"
)

// columns resolves "a__b" to "a.b" and rejects paths starting with "missing"
var columns = expr.ResolverFunc(func(b *expr.Builder, path string) error {
	if strings.HasPrefix(path, "missing") {
		return fmt.Errorf("unknown field %q", path)
	}
	b.WriteString(strings.ReplaceAll(path, "__", "."))
	return nil
})

func TestCompile(t *testing.T) {
	tests := []struct {
		name     string
		expr     expr.Expr
		dialect  string
		wantSQL  string
		wantVars []any
	}{
		{
			name:    "field",
			expr:    expr.F("first_note"),
			dialect: expr.SQLite,
			wantSQL: "first_note",
		},
		{
			name:    "arithmetic nests",
			expr:    expr.F("first_note").Add(expr.F("second_note")).Mul(10),
			dialect: expr.SQLite,
			wantSQL: "((first_note + second_note) * ?)", wantVars: []any{10},
		},
		{
			name:    "through",
			expr:    expr.F("person__first_note").Sub(1),
			dialect: expr.Postgres,
			wantSQL: "(person.first_note - ?)", wantVars: []any{1},
		},
		{
			name:    "comparison",
			expr:    expr.F("age").GTE(18),
			dialect: expr.MySQL,
			wantSQL: "(age >= ?)", wantVars: []any{18},
		},
		{
			name:    "and or not",
			expr:    expr.Or(expr.And(expr.F("a").GT(1), expr.F("b").LT(2)), expr.Not(expr.F("c").EQ(3))),
			dialect: expr.SQLite,
			wantSQL: "(((a > ?) AND (b < ?)) OR NOT ((c = ?)))", wantVars: []any{1, 2, 3},
		},
		{
			name:    "raw",
			expr:    expr.Raw("julianday(?) - julianday(?)", "2024-01-01", "2024-01-02"),
			dialect: expr.SQLite,
			wantSQL: "julianday(?) - julianday(?)", wantVars: []any{"2024-01-01", "2024-01-02"},
		},
		{
			name:    "functions treat strings as fields",
			expr:    expr.Coalesce("nickname", expr.Value("n/a")),
			dialect: expr.Postgres,
			wantSQL: "COALESCE(nickname, ?)", wantVars: []any{"n/a"},
		},
		{
			name:    "greatest on sqlite",
			expr:    expr.Greatest("a", "b"),
			dialect: expr.SQLite,
			wantSQL: "MAX(a, b)",
		},
		{
			name:    "least on postgres",
			expr:    expr.Least("a", "b"),
			dialect: expr.Postgres,
			wantSQL: "LEAST(a, b)",
		},
		{
			name:    "case",
			expr:    expr.Case(expr.When(expr.F("n").GT(5), true)).Else(false),
			dialect: expr.SQLite,
			wantSQL: "CASE WHEN (n > ?) THEN ? ELSE ? END", wantVars: []any{5, true, false},
		},
		{
			name:    "case without else",
			expr:    expr.Case(expr.When(expr.F("n").GT(5), expr.F("n")), expr.When(expr.F("n").LT(0), 0)),
			dialect: expr.MySQL,
			wantSQL: "CASE WHEN (n > ?) THEN n WHEN (n < ?) THEN ? END", wantVars: []any{5, 0, 0},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sql, vars, err := expr.Compile(tt.expr, tt.dialect, columns)
			require.NoError(t, err)
			assert.Equal(t, tt.wantSQL, sql)
			assert.Equal(t, tt.wantVars, vars)
		})
	}
}

func TestConcat(t *testing.T) {
	e := expr.Concat("first_name", expr.Value(" "), "last_name")

	tests := []struct {
		dialect string
		want    string
	}{
		{expr.SQLite, "(COALESCE(first_name, '') || COALESCE(?, '') || COALESCE(last_name, ''))"},
		{expr.Postgres, "CONCAT((first_name)::text, (?)::text, (last_name)::text)"},
		{expr.MySQL, "CONCAT_WS('', first_name, ?, last_name)"},
	}

	for _, tt := range tests {
		t.Run(tt.dialect, func(t *testing.T) {
			sql, vars, err := expr.Compile(e, tt.dialect, columns)
			require.NoError(t, err)
			assert.Equal(t, tt.want, sql)
			assert.Equal(t, []any{" "}, vars)
		})
	}
}

func TestCompileErrors(t *testing.T) {
	tests := []struct {
		name    string
		expr    expr.Expr
		wantErr string
	}{
		{"raw var count", expr.Raw("a = ? AND b = ?", 1), "expects 2 vars, got 1"},
		{"unknown field", expr.F("missing_field").Add(1), `unknown field "missing_field"`},
		{"empty concat", expr.Concat(), "at least one part"},
		{"empty case", expr.Case(), "at least one when"},
		{"empty and", expr.And(), "empty condition list"},
		{"empty wrapper", expr.X{}, "empty expression"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := expr.Compile(tt.expr, expr.SQLite, columns)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestCompileWithoutResolver(t *testing.T) {
	_, _, err := expr.Compile(expr.F("a"), expr.SQLite, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no resolver")

	sql, vars, err := expr.Compile(expr.Value(1), expr.SQLite, nil)
	require.NoError(t, err)
	assert.Equal(t, "?", sql)
	assert.Equal(t, []any{1}, vars)
}

func TestAs(t *testing.T) {
	named := expr.As(" doubled ", expr.F("n").Mul(2))

	var aliased expr.Aliased = named
	assert.Equal(t, "doubled", aliased.Alias())

	sql, _, err := expr.Compile(named, expr.SQLite, columns)
	require.NoError(t, err)
	assert.Equal(t, "(n * ?)", sql)
}
