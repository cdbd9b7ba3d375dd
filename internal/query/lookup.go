package query

import (
	"strings"
)

// Separator joins relation hops, field names and lookups in a lookup key
const Separator = "__"

// Lookup names a comparison between a left-hand expression and a value
type Lookup string

const (
	Exact       Lookup = "exact"
	IExact      Lookup = "iexact"
	GT          Lookup = "gt"
	GTE         Lookup = "gte"
	LT          Lookup = "lt"
	LTE         Lookup = "lte"
	Contains    Lookup = "contains"
	IContains   Lookup = "icontains"
	In          Lookup = "in"
	StartsWith  Lookup = "startswith"
	IStartsWith Lookup = "istartswith"
	EndsWith    Lookup = "endswith"
	IEndsWith   Lookup = "iendswith"
	Range       Lookup = "range"
	IsNull      Lookup = "isnull"
	Regex       Lookup = "regex"
	IRegex      Lookup = "iregex"
	Date        Lookup = "date"
	Year        Lookup = "year"
	Month       Lookup = "month"
	Day         Lookup = "day"
	Search      Lookup = "search"
)

// Lookups lists every lookup the layer knows, in declaration order
var Lookups = []Lookup{
	Exact, IExact, GT, GTE, LT, LTE, Contains, IContains, In, StartsWith, IStartsWith,
	EndsWith, IEndsWith, Range, IsNull, Regex, IRegex, Date, Year, Month, Day, Search,
}

var known = func() map[Lookup]struct{} {
	m := make(map[Lookup]struct{}, len(Lookups))
	for _, l := range Lookups {
		m[l] = struct{}{}
	}
	return m
}()

// ParseLookup returns the lookup named s
func ParseLookup(s string) (Lookup, bool) {
	l := Lookup(s)
	_, ok := known[l]
	return l, ok
}

func (l Lookup) String() string {
	return string(l)
}

// CaseInsensitive reports whether l is one of the "i" variants
func (l Lookup) CaseInsensitive() bool {
	switch l {
	case IExact, IContains, IStartsWith, IEndsWith, IRegex:
		return true
	}
	return false
}

// Key joins a left-hand path and a lookup into a lookup key: "total_notes__gt"
func Key(path string, l Lookup) string {
	return path + Separator + string(l)
}

// SplitKey separates a lookup key into its path and lookup. A key whose last segment is not a
// known lookup is a path compared with exact; the raw last segment is returned as tail so callers
// can report it when the path turns out not to resolve.
func SplitKey(key string) (path string, l Lookup, tail string) {
	i := strings.LastIndex(key, Separator)
	if i < 0 {
		return key, Exact, ""
	}
	last := key[i+len(Separator):]
	if l, ok := ParseLookup(last); ok {
		return key[:i], l, ""
	}
	return key, Exact, last
}
