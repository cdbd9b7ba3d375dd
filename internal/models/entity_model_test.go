package models

import (
	"reflect"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm/schema"
)

type author struct {
	ID        uint
	FirstName string
	Nickname  *string
	Books     []book `gorm:"foreignKey:AuthorID"`
}

type book struct {
	ID       uint
	Title    string
	AuthorID uint
	Author   *author
}

func parse(t *testing.T, entity any) *EntityModel {
	t.Helper()
	model, err := NewEntityModel(entity, &sync.Map{}, schema.NamingStrategy{})
	require.NoError(t, err)
	return model
}

func TestNewEntityModel(t *testing.T) {
	model := parse(t, &book{})

	assert.Equal(t, "book", model.Name)
	assert.Equal(t, "books", model.TableName)
	assert.Equal(t, reflect.TypeOf(book{}), model.Type)
	assert.Equal(t, []string{"id"}, model.PrimaryKey)
	assert.Equal(t, []string{"id", "title", "author_id"}, model.Columns())
	assert.True(t, model.HasColumn("author_id"))
	assert.False(t, model.HasColumn("author"))
	assert.Equal(t, []string{"author"}, model.RelationNames())

	id := model.Fields["id"]
	assert.True(t, id.IsPrimary)
	assert.Equal(t, "ID", id.Name)
}

func TestNewEntityModel_Nullable(t *testing.T) {
	model := parse(t, &author{})

	assert.True(t, model.Fields["nickname"].IsNullable)
	assert.False(t, model.Fields["first_name"].IsNullable)
	assert.Equal(t, []string{"books"}, model.RelationNames())
}

func TestNewEntityModel_Invalid(t *testing.T) {
	_, err := NewEntityModel(42, &sync.Map{}, schema.NamingStrategy{})
	assert.Error(t, err)
}

func TestFindFieldAndRelation(t *testing.T) {
	model := parse(t, &book{})

	f, ok := FindField(model.Schema, "author_id")
	require.True(t, ok)
	assert.Equal(t, "AuthorID", f.Name)

	f, ok = FindField(model.Schema, "Title")
	require.True(t, ok)
	assert.Equal(t, "title", f.DBName)

	_, ok = FindField(model.Schema, "author")
	assert.False(t, ok, "relations are not columns")

	for _, segment := range []string{"author", "Author"} {
		rel, ok := FindRelation(model.Schema, segment)
		require.True(t, ok, segment)
		assert.Equal(t, schema.BelongsTo, rel.Type)
	}

	rel, ok := FindRelation(parse(t, &author{}).Schema, "books")
	require.True(t, ok)
	assert.Equal(t, schema.HasMany, rel.Type)

	_, ok = FindRelation(model.Schema, "publisher")
	assert.False(t, ok)
}

func TestToSnakeCase(t *testing.T) {
	assert.Equal(t, "first_name", toSnakeCase("FirstName"))
	assert.Equal(t, "author", toSnakeCase("Author"))
}

type widget struct{ Size int }

type stubProperty struct {
	name string
	doc  string
}

func (p stubProperty) Name() string          { return p.name }
func (p stubProperty) Doc() string           { return p.doc }
func (p stubProperty) SupportsThrough() bool { return true }
func (p stubProperty) Registered() bool      { return true }
func (p stubProperty) Evaluate(instance any, _ ...any) (any, error) {
	return instance.(*widget).Size, nil
}

func TestPropertyRegistry(t *testing.T) {
	wt := reflect.TypeOf(widget{})
	RegisterProperty(wt, stubProperty{name: "size", doc: "first"})
	RegisterProperty(reflect.PointerTo(wt), stubProperty{name: "area"})
	RegisterProperty(wt, stubProperty{name: "size", doc: "second"})

	props := Properties(wt)
	require.Len(t, props, 2)
	assert.Equal(t, "size", props[0].Name())
	assert.Equal(t, "second", props[0].Doc(), "re-registering replaces in place")
	assert.Equal(t, "area", props[1].Name())

	p, ok := LookupProperty(reflect.PointerTo(wt), "size")
	require.True(t, ok)
	v, err := p.Evaluate(&widget{Size: 3})
	require.NoError(t, err)
	assert.Equal(t, 3, v)

	_, ok = LookupProperty(wt, "weight")
	assert.False(t, ok)
	assert.Empty(t, Properties(reflect.TypeOf(book{})))
}
