package orm

import (
	"errors"
	"fmt"
	"strings"

	hybriderrors "github.com/shepherrrd/hybrid/internal/errors"
)

// Connector joins the children of a Q
type Connector string

const (
	AND Connector = "AND"
	OR  Connector = "OR"
)

// Condition is one lookup inside a Q: "path__lookup" compared with Value.
type Condition struct {
	Key   string
	Value any
}

// Q is a boolean tree of conditions. Unlike a plain tree it remembers the Results it was built
// from, so the query layer can annotate their expressions before the tree is rendered.
type Q struct {
	connector Connector
	negated   bool
	children  []any
	results   []*Result
	err       error
}

// NewQ ANDs its arguments. Accepted: *Result, Lookups, *Q and native gorm conditions.
func NewQ(args ...any) *Q {
	q := &Q{connector: AND}
	for _, arg := range args {
		switch v := arg.(type) {
		case nil:
		case *Result:
			if v == nil {
				continue
			}
			if err := v.Err(); err != nil {
				q.addError(err)
			}
			q.children = append(q.children, Condition{Key: v.LookupKey(), Value: v.Value()})
			q.addResults(v)
		case Lookups:
			for _, key := range SortedKeys(v) {
				q.children = append(q.children, Condition{Key: key, Value: v[key]})
			}
		case *Q:
			if v == nil {
				continue
			}
			q.children = append(q.children, v)
			q.addResults(v.results...)
			q.addError(v.err)
		case *Expression:
			q.addError(hybriderrors.NewUsageError("Q", v, hybriderrors.ErrNotAResult))
		default:
			q.children = append(q.children, v)
		}
	}
	return q
}

func (q *Q) addError(err error) {
	if err == nil {
		return
	}
	q.err = errors.Join(q.err, err)
}

// addResults appends results not already recorded, keeping first-seen order
func (q *Q) addResults(results ...*Result) {
	for _, r := range results {
		seen := false
		for _, have := range q.results {
			if have == r {
				seen = true
				break
			}
		}
		if !seen {
			q.results = append(q.results, r)
		}
	}
}

func (q *Q) combine(other *Q, conn Connector) *Q {
	if other == nil || other.Empty() {
		out := q.clone()
		if other != nil {
			out.addError(other.err)
		}
		return out
	}
	if q.Empty() {
		out := other.clone()
		out.addError(q.err)
		return out
	}
	out := &Q{connector: conn, children: []any{q, other}}
	out.addResults(q.results...)
	out.addResults(other.results...)
	out.addError(q.err)
	out.addError(other.err)
	return out
}

// And returns q AND other
func (q *Q) And(other *Q) *Q { return q.combine(other, AND) }

// Or returns q OR other
func (q *Q) Or(other *Q) *Q { return q.combine(other, OR) }

// Not returns the negation of q
func (q *Q) Not() *Q {
	out := q.clone()
	out.negated = !out.negated
	return out
}

func (q *Q) clone() *Q {
	out := *q
	out.children = append([]any(nil), q.children...)
	out.results = append([]*Result(nil), q.results...)
	return &out
}

// Empty reports whether q has no conditions
func (q *Q) Empty() bool { return len(q.children) == 0 }

func (q *Q) Connector() Connector { return q.connector }
func (q *Q) Negated() bool { return q.negated }

// Children returns the Conditions, nested *Q and native conditions in order
func (q *Q) Children() []any {
	return append([]any(nil), q.children...)
}

// Results returns the Results this predicate and its operands were built from, in order.
func (q *Q) Results() []*Result {
	return append([]*Result(nil), q.results...)
}

// Err returns the errors recorded while the tree was built
func (q *Q) Err() error { return q.err }

// Describe renders the tree for error messages
func (q *Q) Describe() string {
	parts := make([]string, 0, len(q.children))
	for _, c := range q.children {
		switch v := c.(type) {
		case Condition:
			parts = append(parts, fmt.Sprintf("%s=%#v", v.Key, v.Value))
		case *Q:
			parts = append(parts, v.Describe())
		default:
			parts = append(parts, fmt.Sprintf("%v", v))
		}
	}
	s := fmt.Sprintf("(%s: %s)", q.connector, strings.Join(parts, ", "))
	if q.negated {
		return "NOT " + s
	}
	return s
}
