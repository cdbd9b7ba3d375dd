package models

import (
	"fmt"
	"reflect"
	"sort"
	"strings"
	"sync"

	"gorm.io/gorm/schema"
)

// EntityModel is the metadata of a registered model: its gorm schema plus the hybrid
// properties declared on it.
type EntityModel struct {
	Name       string
	TableName  string
	Type       reflect.Type
	Schema     *schema.Schema
	Fields     map[string]FieldModel
	PrimaryKey []string
}

type FieldModel struct {
	Name       string
	ColumnName string
	Type       string
	GoType     reflect.Type
	IsPrimary  bool
	IsNullable bool
}

// NewEntityModel parses entity with gorm's schema parser
func NewEntityModel(entity any, cache *sync.Map, namer schema.Namer) (*EntityModel, error) {
	s, err := schema.Parse(entity, cache, namer)
	if err != nil {
		return nil, fmt.Errorf("failed to parse entity %T: %w", entity, err)
	}

	entityType := s.ModelType
	if entityType.Kind() == reflect.Ptr {
		entityType = entityType.Elem()
	}

	model := &EntityModel{
		Name:      entityType.Name(),
		TableName: s.Table,
		Type:      entityType,
		Schema:    s,
		Fields:    make(map[string]FieldModel),
	}

	for _, field := range s.Fields {
		if field.DBName == "" {
			continue
		}
		model.Fields[field.DBName] = FieldModel{
			Name:       field.Name,
			ColumnName: field.DBName,
			Type:       string(field.DataType),
			GoType:     field.FieldType,
			IsPrimary:  field.PrimaryKey,
			IsNullable: isNullableType(field.FieldType) && !field.NotNull,
		}
		if field.PrimaryKey {
			model.PrimaryKey = append(model.PrimaryKey, field.DBName)
		}
	}

	return model, nil
}

// HasColumn reports whether name is one of the model's columns
func (m *EntityModel) HasColumn(name string) bool {
	_, ok := m.Fields[name]
	return ok
}

// Columns returns the column names in declaration order
func (m *EntityModel) Columns() []string {
	return append([]string(nil), m.Schema.DBNames...)
}

// Properties returns the hybrid properties declared on the model
func (m *EntityModel) Properties() []PropertyDescriptor {
	return Properties(m.Type)
}

// RelationNames returns the names a relation can be traversed by, sorted
func (m *EntityModel) RelationNames() []string {
	var names []string
	for name := range m.Schema.Relationships.Relations {
		names = append(names, toSnakeCase(name))
	}
	sort.Strings(names)
	return names
}

// FindField resolves a column by column name or Go field name
func FindField(s *schema.Schema, name string) (*schema.Field, bool) {
	field := s.LookUpField(name)
	if field == nil || field.DBName == "" {
		return nil, false
	}
	return field, true
}

// FindRelation resolves a relation hop such as "person" or "Person"
func FindRelation(s *schema.Schema, segment string) (*schema.Relationship, bool) {
	if rel, ok := s.Relationships.Relations[segment]; ok {
		return rel, true
	}
	for name, rel := range s.Relationships.Relations {
		if strings.EqualFold(name, segment) || toSnakeCase(name) == segment {
			return rel, true
		}
	}
	return nil, false
}

func isNullableType(t reflect.Type) bool {
	return t.Kind() == reflect.Ptr ||
		t.Kind() == reflect.Interface ||
		t.Kind() == reflect.Slice ||
		t.Kind() == reflect.Map
}

func toSnakeCase(str string) string {
	var result strings.Builder
	for i, r := range str {
		if i > 0 && r >= 'A' && r <= 'Z' {
			result.WriteRune('_')
		}
		result.WriteRune(r)
	}
	return strings.ToLower(result.String())
}
