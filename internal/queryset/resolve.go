package queryset

import (
	"fmt"
	"strings"

	"gorm.io/gorm/clause"
	"gorm.io/gorm/schema"

	hybriderrors "github.com/shepherrrd/hybrid/internal/errors"
	"github.com/shepherrrd/hybrid/internal/expr"
	"github.com/shepherrrd/hybrid/internal/models"
	"github.com/shepherrrd/hybrid/internal/query"
)

// resolver turns field paths into SQL. Annotation aliases expand to their expression, other paths
// walk the model's relations and register the joins they need on qs.
func (qs *QuerySet[T]) resolver() expr.Resolver {
	visiting := make(map[string]bool)
	var resolve expr.ResolverFunc
	resolve = func(b *expr.Builder, path string) error {
		if a, ok := qs.lookupAnnotation(path); ok {
			if visiting[path] {
				return hybriderrors.Usagef("resolve", path, hybriderrors.ErrUnknownField,
					"annotation %q refers to itself", path)
			}
			visiting[path] = true
			defer delete(visiting, path)

			b.WriteString("(")
			if err := a.expr.Build(b); err != nil {
				return err
			}
			b.WriteString(")")
			return nil
		}
		column, err := qs.column(path)
		if err != nil {
			return err
		}
		b.WriteString(column)
		return nil
	}
	return resolve
}

// compile renders e against qs
func (qs *QuerySet[T]) compile(e expr.Expr) (string, []any, error) {
	return expr.Compile(e, qs.dialect.Name(), qs.resolver())
}

func (qs *QuerySet[T]) quote(v any) string {
	return qs.db.Statement.Quote(v)
}

// column resolves "field" or "relation__...__field" to a quoted, table-qualified column
func (qs *QuerySet[T]) column(path string) (string, error) {
	segments := strings.Split(path, query.Separator)
	s := qs.model.Schema
	table := s.Table
	for i, segment := range segments[:len(segments)-1] {
		rel, ok := models.FindRelation(s, segment)
		if !ok {
			return "", qs.unknownField(path, s, segment)
		}
		alias := strings.Join(segments[:i+1], query.Separator)
		if err := qs.addJoin(table, alias, rel); err != nil {
			return "", err
		}
		qs.refs = append(qs.refs, alias)
		s, table = rel.FieldSchema, alias
	}

	last := segments[len(segments)-1]
	if field, ok := models.FindField(s, last); ok {
		return qs.quote(clause.Column{Table: table, Name: field.DBName}), nil
	}
	// "person" on a belongs-to relation compares the foreign key
	if rel, ok := models.FindRelation(s, last); ok && rel.Type == schema.BelongsTo && len(rel.References) == 1 {
		return qs.quote(clause.Column{Table: table, Name: rel.References[0].ForeignKey.DBName}), nil
	}
	return "", qs.unknownField(path, s, last)
}

func (qs *QuerySet[T]) unknownField(path string, s *schema.Schema, segment string) error {
	return hybriderrors.Usagef("resolve", path, hybriderrors.ErrUnknownField,
		"%q is not a field, relation or annotation of %s", segment, s.Name)
}

// addJoin registers a LEFT JOIN for rel under alias, once
func (qs *QuerySet[T]) addJoin(parent, alias string, rel *schema.Relationship) error {
	for _, j := range qs.joins {
		if j.alias == alias {
			return nil
		}
	}
	if rel.JoinTable != nil || rel.Type == schema.Many2Many {
		return hybriderrors.Usagef("resolve", alias, hybriderrors.ErrUnknownField,
			"many to many relation %q cannot be traversed", rel.Name)
	}

	var (
		on   []string
		vars []any
	)
	for _, ref := range rel.References {
		switch {
		case ref.OwnPrimaryKey:
			on = append(on, fmt.Sprintf("%s = %s",
				qs.quote(clause.Column{Table: alias, Name: ref.ForeignKey.DBName}),
				qs.quote(clause.Column{Table: parent, Name: ref.PrimaryKey.DBName})))
		case ref.PrimaryValue == "":
			on = append(on, fmt.Sprintf("%s = %s",
				qs.quote(clause.Column{Table: alias, Name: ref.PrimaryKey.DBName}),
				qs.quote(clause.Column{Table: parent, Name: ref.ForeignKey.DBName})))
		default:
			on = append(on, qs.quote(clause.Column{Table: alias, Name: ref.ForeignKey.DBName})+" = ?")
			vars = append(vars, ref.PrimaryValue)
		}
	}
	if len(on) == 0 {
		return hybriderrors.Usagef("resolve", alias, hybriderrors.ErrUnknownField,
			"relation %q has no references", rel.Name)
	}

	qs.joins = append(qs.joins, join{
		alias: alias,
		sql: fmt.Sprintf("LEFT JOIN %s %s ON %s",
			qs.quote(rel.FieldSchema.Table), qs.quote(alias), strings.Join(on, " AND ")),
		vars: vars,
	})
	return nil
}
