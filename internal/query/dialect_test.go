package query

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	hybriderrors "github.com/shepherrrd/hybrid/internal/errors"
	"github.com/shepherrrd/hybrid/internal/expr"
)

var plainColumns = expr.ResolverFunc(func(b *expr.Builder, path string) error {
	b.WriteString(path)
	return nil
})

func render(t *testing.T, d Dialect, l Lookup, value any) (string, []any, error) {
	t.Helper()
	b := expr.NewBuilder(d.Name(), plainColumns)
	err := d.Render(b, expr.F("col"), l, value)
	return b.SQL(), b.Vars(), err
}

func TestRender(t *testing.T) {
	march15 := time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		dialect  Dialect
		lookup   Lookup
		value    any
		wantSQL  string
		wantVars []any
	}{
		{"exact", SQLite, Exact, 3, "col = ?", []any{3}},
		{"exact nil", Postgres, Exact, nil, "col IS NULL", nil},
		{"exact typed nil", Postgres, Exact, (*int)(nil), "col IS NULL", nil},
		{"gt", MySQL, GT, 3, "col > ?", []any{3}},
		{"lte", SQLite, LTE, 3, "col <= ?", []any{3}},
		{"in", SQLite, In, []int{1, 2}, "col IN ?", []any{[]any{1, 2}}},
		{"in array", Postgres, In, [2]string{"a", "b"}, "col IN ?", []any{[]any{"a", "b"}}},
		{"in empty", MySQL, In, []int{}, "1 = 0", nil},
		{"range", Postgres, Range, []any{1, 5}, "col BETWEEN ? AND ?", []any{1, 5}},
		{"isnull true", SQLite, IsNull, true, "col IS NULL", nil},
		{"isnull false", MySQL, IsNull, false, "col IS NOT NULL", nil},

		{"sqlite contains", SQLite, Contains, "a*b", "col GLOB ?", []any{"*a[*]b*"}},
		{"sqlite startswith", SQLite, StartsWith, "a?", "col GLOB ?", []any{"a[?]*"}},
		{"sqlite endswith", SQLite, EndsWith, "[x", "col GLOB ?", []any{"*[[]x"}},
		{"sqlite iexact", SQLite, IExact, "50%", `col LIKE ? ESCAPE '\'`, []any{`50\%`}},
		{"sqlite icontains", SQLite, IContains, "a_b", `col LIKE ? ESCAPE '\'`, []any{`%a\_b%`}},
		{"sqlite regex", SQLite, Regex, "^a", "col REGEXP ?", []any{"^a"}},
		{"sqlite iregex", SQLite, IRegex, "^a", "col REGEXP ?", []any{"(?i)^a"}},
		{"sqlite date", SQLite, Date, march15, "DATE(col) = ?", []any{"2024-03-15"}},
		{"sqlite year", SQLite, Year, 2024, "CAST(STRFTIME('%Y', col) AS INTEGER) = ?", []any{int64(2024)}},

		{"postgres iexact", Postgres, IExact, "Ann", "UPPER(col::text) = UPPER(?)", []any{"Ann"}},
		{"postgres contains", Postgres, Contains, 12, "col::text LIKE ?", []any{"%12%"}},
		{"postgres istartswith", Postgres, IStartsWith, "an", "UPPER(col::text) LIKE UPPER(?)", []any{"an%"}},
		{"postgres iregex", Postgres, IRegex, "^a", "col::text ~* ?", []any{"^a"}},
		{"postgres date string", Postgres, Date, "2024-03-15", "(col)::date = ?", []any{"2024-03-15"}},
		{"postgres month", Postgres, Month, 3, "EXTRACT(MONTH FROM col) = ?", []any{int64(3)}},
		{"postgres search", Postgres, Search, "smith", "to_tsvector(col::text) @@ plainto_tsquery(?)", []any{"smith"}},

		{"mysql contains", MySQL, Contains, "Red", "col LIKE BINARY ?", []any{"%Red%"}},
		{"mysql iendswith", MySQL, IEndsWith, "son", "col LIKE ?", []any{"%son"}},
		{"mysql regex", MySQL, Regex, "^a", "REGEXP_LIKE(col, ?, 'c')", []any{"^a"}},
		{"mysql day", MySQL, Day, uint8(9), "DAYOFMONTH(col) = ?", []any{int64(9)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sql, vars, err := render(t, tt.dialect, tt.lookup, tt.value)
			require.NoError(t, err)
			assert.Equal(t, tt.wantSQL, sql)
			assert.Equal(t, tt.wantVars, vars)
		})
	}
}

func TestRender_Errors(t *testing.T) {
	tests := []struct {
		name    string
		dialect Dialect
		lookup  Lookup
		value   any
		want    error
	}{
		{"search on sqlite", SQLite, Search, "x", hybriderrors.ErrUnsupportedLookup},
		{"unknown lookup", Postgres, Lookup("between"), 1, hybriderrors.ErrUnsupportedLookup},
		{"isnull needs bool", SQLite, IsNull, "yes", hybriderrors.ErrInvalidLookupValue},
		{"in needs slice", SQLite, In, 3, hybriderrors.ErrInvalidLookupValue},
		{"in rejects bytes", SQLite, In, []byte("ab"), hybriderrors.ErrInvalidLookupValue},
		{"range needs two bounds", MySQL, Range, []int{1, 2, 3}, hybriderrors.ErrInvalidLookupValue},
		{"regex needs string", Postgres, Regex, 1, hybriderrors.ErrInvalidLookupValue},
		{"date format", SQLite, Date, "15/03/2024", hybriderrors.ErrInvalidLookupValue},
		{"year needs integer", MySQL, Year, "2024", hybriderrors.ErrInvalidLookupValue},
		{"pattern needs value", Postgres, Contains, nil, hybriderrors.ErrInvalidLookupValue},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := render(t, tt.dialect, tt.lookup, tt.value)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestSupports(t *testing.T) {
	for _, d := range []Dialect{SQLite, Postgres, MySQL} {
		for _, l := range Lookups {
			if l == Search {
				continue
			}
			assert.True(t, d.Supports(l), "%s should support %s", d.Name(), l)
		}
	}
	assert.False(t, SQLite.Supports(Search))
	assert.True(t, Postgres.Supports(Search))
	assert.True(t, MySQL.Supports(Search))
}

func TestDialectFor(t *testing.T) {
	d, ok := DialectFor("postgres")
	require.True(t, ok)
	assert.Equal(t, expr.Postgres, d.Name())

	_, ok = DialectFor("oracle")
	assert.False(t, ok)
}

func TestSplitKey(t *testing.T) {
	tests := []struct {
		key      string
		wantPath string
		wantL    Lookup
		wantTail string
	}{
		{"total_notes", "total_notes", Exact, ""},
		{"total_notes__gt", "total_notes", GT, ""},
		{"person__first_name__istartswith", "person__first_name", IStartsWith, ""},
		{"person__first_name", "person__first_name", Exact, "first_name"},
		{"total_notes__igt", "total_notes__igt", Exact, "igt"},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			path, l, tail := SplitKey(tt.key)
			assert.Equal(t, tt.wantPath, path)
			assert.Equal(t, tt.wantL, l)
			assert.Equal(t, tt.wantTail, tail)
		})
	}
}

func TestLookupHelpers(t *testing.T) {
	l, ok := ParseLookup("icontains")
	require.True(t, ok)
	assert.True(t, l.CaseInsensitive())
	assert.False(t, GT.CaseInsensitive())
	assert.Equal(t, "full_name__iexact", Key("full_name", IExact))

	_, ok = ParseLookup("igt")
	assert.False(t, ok)
}
